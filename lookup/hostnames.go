package lookup

import (
	"strings"

	"github.com/Sayan314159/Braver/filterlist"
	"github.com/Sayan314159/Braver/rules"
)

// HostnamesTable is a lookup table for rules whose pattern is a bare
// host-anchored hostname, e.g. "||ads.example.com^".  It is a suffix trie
// over reversed domain labels, so a lookup costs one map probe per label of
// the request hostname regardless of the rule count.
//
// Trie nodes live in a flat arena slice and refer to each other by index,
// there is no pointer graph to manage.
type HostnamesTable struct {
	// ruleStorage is the backing storage for the filtering rules.
	ruleStorage *filterlist.RuleStorage

	// nodes is the node arena.  nodes[0] is the root.
	nodes []trieNode
}

// trieNode is a single node of the hostname trie.
type trieNode struct {
	// children maps a domain label to the arena index of the child node.
	children map[string]int32

	// ruleIdxs are the storage indexes of the rules whose hostname ends at
	// this node.
	ruleIdxs []int64
}

// type check
var _ Table = (*HostnamesTable)(nil)

// NewHostnamesTable creates a new instance of the HostnamesTable.
func NewHostnamesTable(rs *filterlist.RuleStorage) (h *HostnamesTable) {
	return &HostnamesTable{
		ruleStorage: rs,
		nodes:       make([]trieNode, 1),
	}
}

// TryAdd implements the [Table] interface for *HostnamesTable.
func (h *HostnamesTable) TryAdd(f *rules.Rule, storageIdx int64) (ok bool) {
	if f.Hostname == "" {
		return false
	}

	node := int32(0)
	labels := strings.Split(f.Hostname, ".")
	for i := len(labels) - 1; i >= 0; i-- {
		node = h.child(node, labels[i])
	}

	h.nodes[node].ruleIdxs = append(h.nodes[node].ruleIdxs, storageIdx)

	return true
}

// child returns the index of the child of node under label, allocating a
// new arena node when there is none yet.
func (h *HostnamesTable) child(node int32, label string) (child int32) {
	n := &h.nodes[node]
	if n.children == nil {
		n.children = map[string]int32{}
	} else if child, ok := n.children[label]; ok {
		return child
	}

	h.nodes = append(h.nodes, trieNode{})
	child = int32(len(h.nodes) - 1)

	// Re-index: the append above may have moved the arena.
	h.nodes[node].children[label] = child

	return child
}

// MatchAll implements the [Table] interface for *HostnamesTable.  It walks
// the trie along the reversed labels of the request hostname and collects
// the rules stored at every node on the way: each of those corresponds to a
// rule hostname that the request hostname equals or is a subdomain of.
func (h *HostnamesTable) MatchAll(r *rules.Request) (result []*rules.Rule) {
	hostname := r.Hostname
	if hostname == "" {
		return nil
	}

	node := int32(0)
	for i := len(hostname); i > 0; {
		start := strings.LastIndexByte(hostname[:i], '.') + 1

		next, ok := h.nodes[node].children[hostname[start:i]]
		if !ok {
			break
		}

		node = next
		for _, ruleIdx := range h.nodes[node].ruleIdxs {
			rule := h.ruleStorage.Retrieve(ruleIdx)
			if rule != nil && rule.Match(r) {
				result = append(result, rule)
			}
		}

		i = start - 1
	}

	return result
}
