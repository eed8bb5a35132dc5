package filterlist

import "github.com/Sayan314159/Braver/rules"

// RuleStorageScanner scans the rules of every list in a storage, one list
// after another, yielding storage indexes alongside the rules.
type RuleStorageScanner struct {
	// scanners is the list of per-list scanners backing this one.
	scanners []*RuleScanner

	// currentScannerIdx is the index of the scanner being drained.
	currentScannerIdx int
}

// Scan advances to the next usable rule across all lists.
func (s *RuleStorageScanner) Scan() (ok bool) {
	for s.currentScannerIdx < len(s.scanners) {
		if s.scanners[s.currentScannerIdx].Scan() {
			return true
		}

		s.currentScannerIdx++
	}

	return false
}

// Rule returns the most recently scanned rule and its storage index.
func (s *RuleStorageScanner) Rule() (r *rules.Rule, storageIdx int64) {
	if s.currentScannerIdx >= len(s.scanners) {
		return nil, 0
	}

	r, idx := s.scanners[s.currentScannerIdx].Rule()
	if r == nil {
		return nil, 0
	}

	return r, ruleListIdxToStorageIdx(r.ListID, idx)
}

// Skipped returns the total number of rejected lines across all lists.
func (s *RuleStorageScanner) Skipped() (n int) {
	for _, sc := range s.scanners {
		n += sc.Skipped()
	}

	return n
}

// ruleListIdxToStorageIdx packs a list ID and a rule index within that list
// into a single storage index.
func ruleListIdxToStorageIdx(listID, ruleIdx int) (storageIdx int64) {
	return int64(listID)<<32 | int64(ruleIdx)&0xFFFFFFFF
}

// storageIdxToRuleListIdx unpacks a storage index back into the list ID and
// the rule index.
func storageIdxToRuleListIdx(storageIdx int64) (listID, ruleIdx int) {
	return int(storageIdx >> 32), int(int32(storageIdx))
}
