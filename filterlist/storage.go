package filterlist

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/Sayan314159/Braver/rules"
)

// RuleStorage combines several rule lists and addresses their rules by a
// single int64 storage index.
//
// Rules are kept in their serialized form and materialized lazily: the
// engine scans the lists once to fill its lookup tables and keeps only the
// storage indexes; a rule object is created the first time a lookup table
// actually needs it, and cached after that.
//
// The storage index packs the list ID into the upper 32 bits and the rule's
// byte offset within the list into the lower 32.
type RuleStorage struct {
	// cacheMu protects cache.
	cacheMu *sync.RWMutex

	// cache holds the rules that were already retrieved.
	cache map[int64]*rules.Rule

	// listsMap maps a list ID to the list itself.
	listsMap map[int]RuleList

	// lists is the ordered array of rule lists backing this storage.
	lists []RuleList
}

// NewRuleStorage creates a new storage over the specified lists and
// validates that their IDs do not collide.
func NewRuleStorage(lists []RuleList) (s *RuleStorage, err error) {
	listsMap := make(map[int]RuleList, len(lists))
	for i, list := range lists {
		id := list.GetID()
		if _, ok := listsMap[id]; ok {
			return nil, fmt.Errorf("list at index %d: duplicate list id: %d", i, id)
		}

		listsMap[id] = list
	}

	return &RuleStorage{
		cacheMu:  &sync.RWMutex{},
		cache:    map[int64]*rules.Rule{},
		listsMap: listsMap,
		lists:    lists,
	}, nil
}

// NewScanner creates a scanner over the contents of every list in the
// storage.
func (s *RuleStorage) NewScanner() (sc *RuleStorageScanner) {
	scanners := make([]*RuleScanner, 0, len(s.lists))
	for _, list := range s.lists {
		scanners = append(scanners, list.NewScanner())
	}

	return &RuleStorageScanner{
		scanners: scanners,
	}
}

// RetrieveRule looks up the filtering rule by its storage index.
func (s *RuleStorage) RetrieveRule(storageIdx int64) (r *rules.Rule, err error) {
	var ok bool
	func() {
		s.cacheMu.RLock()
		defer s.cacheMu.RUnlock()

		r, ok = s.cache[storageIdx]
	}()
	if ok {
		return r, nil
	}

	listID, ruleIdx := storageIdxToRuleListIdx(storageIdx)

	list, ok := s.listsMap[listID]
	if !ok {
		return nil, fmt.Errorf("list %d does not exist", listID)
	}

	r, err = list.RetrieveRule(ruleIdx)
	if r != nil {
		func() {
			s.cacheMu.Lock()
			defer s.cacheMu.Unlock()

			s.cache[storageIdx] = r
		}()
	}

	return r, err
}

// Retrieve is a helper that retrieves a rule from the storage and logs
// retrieval failures instead of returning them.  Lookup tables only ever
// see indexes they added themselves, so a failure here is a programmer
// error, not a runtime condition.
func (s *RuleStorage) Retrieve(storageIdx int64) (r *rules.Rule) {
	r, err := s.RetrieveRule(storageIdx)
	if err != nil {
		slog.Error("cannot retrieve rule", "idx", storageIdx, slogutil.KeyError, err)
	}

	return r
}

// Close closes all the rule lists of this storage.
func (s *RuleStorage) Close() (err error) {
	if len(s.lists) == 0 {
		return nil
	}

	var errs []error
	for _, l := range s.lists {
		err = l.Close()
		if err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Annotate(errors.Join(errs...), "closing rule lists: %w")
}

// CacheSize returns the number of rules materialized so far.
func (s *RuleStorage) CacheSize() (sz int) {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()

	return len(s.cache)
}
