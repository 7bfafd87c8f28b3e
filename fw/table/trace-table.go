package table

import (
	"slices"
	"sync"
	"time"

	enc "github.com/named-data/kite/std/encoding"
)

// TibEntry is the result of a TIB longest-prefix lookup.
// It has the same shape as a FIB entry and may carry no nexthops.
type TibEntry = FibEntry

// traceHop is a TIB nexthop with an optional expiration time.
type traceHop struct {
	FibNextHopEntry
	expires time.Time // zero means never
}

func (h *traceHop) alive(now time.Time) bool {
	return h.expires.IsZero() || h.expires.After(now)
}

type traceTreeNode struct {
	component enc.Component
	name      enc.Name
	depth     int
	parent    *traceTreeNode
	children  map[uint64]*traceTreeNode
	hops      []*traceHop
}

// TraceTable is the Trace Information Base: prefixes learned from traces of
// mobile producers, each pointing at the faces the trace came in on.
// It is shared across forwarding threads.
type TraceTable struct {
	root  *traceTreeNode
	mutex sync.RWMutex
	now   func() time.Time
}

// NewTraceTable creates an empty TIB.
func NewTraceTable() *TraceTable {
	return &TraceTable{
		root: newTraceTreeNode(),
		now:  time.Now,
	}
}

func newTraceTreeNode() *traceTreeNode {
	return &traceTreeNode{
		name:     enc.Name{},
		children: make(map[uint64]*traceTreeNode),
	}
}

func (t *TraceTable) String() string {
	return "trace-table"
}

func (n *traceTreeNode) findLongestPrefixEntryEnc(name enc.Name) *traceTreeNode {
	if len(name) > n.depth {
		if child, ok := n.children[name.At(n.depth).Hash()]; ok {
			return child.findLongestPrefixEntryEnc(name)
		}
	}
	return n
}

func (n *traceTreeNode) findExactMatchEntryEnc(name enc.Name) *traceTreeNode {
	match := n.findLongestPrefixEntryEnc(name)
	if match.depth == len(name) {
		return match
	}
	return nil
}

func (n *traceTreeNode) fillTreeToPrefixEnc(name enc.Name) *traceTreeNode {
	entry := n.findLongestPrefixEntryEnc(name)
	for depth := entry.depth; depth < len(name); depth++ {
		component := name.At(depth).Clone()

		child := newTraceTreeNode()
		child.name = entry.name.Append(component)
		child.depth = depth + 1
		child.component = component
		child.parent = entry

		entry.children[component.Hash()] = child
		entry = child
	}
	return entry
}

func (n *traceTreeNode) pruneIfEmpty() {
	for cur := n; cur.parent != nil && len(cur.children) == 0 && len(cur.hops) == 0; cur = cur.parent {
		delete(cur.parent.children, cur.component.Hash())
	}
}

func (n *traceTreeNode) aliveHops(now time.Time) []*FibNextHopEntry {
	ret := make([]*FibNextHopEntry, 0, len(n.hops))
	for _, hop := range n.hops {
		if hop.alive(now) {
			ret = append(ret, &FibNextHopEntry{Nexthop: hop.Nexthop, Cost: hop.Cost})
		}
	}
	return ret
}

// InsertNextHopEnc adds or refreshes a trace nexthop for name.
// A zero lifetime uses tables.tib.default_lifetime; if that is zero too the hop never expires.
// Nexthops stay ordered by increasing cost.
func (t *TraceTable) InsertNextHopEnc(name enc.Name, nexthop uint64, cost uint64, lifetime time.Duration) {
	if lifetime <= 0 {
		lifetime = CfgTibDefaultLifetime()
	}
	var expires time.Time
	if lifetime > 0 {
		expires = t.now().Add(lifetime)
	}

	t.mutex.Lock()
	defer t.mutex.Unlock()

	node := t.root.fillTreeToPrefixEnc(name)
	node.hops = slices.DeleteFunc(node.hops, func(h *traceHop) bool { return h.Nexthop == nexthop })
	pos := len(node.hops)
	for i, h := range node.hops {
		if h.Cost > cost {
			pos = i
			break
		}
	}
	node.hops = slices.Insert(node.hops, pos, &traceHop{
		FibNextHopEntry: FibNextHopEntry{Nexthop: nexthop, Cost: cost},
		expires:         expires,
	})
}

// RemoveNextHopEnc removes one trace nexthop from name.
func (t *TraceTable) RemoveNextHopEnc(name enc.Name, nexthop uint64) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if node := t.root.findExactMatchEntryEnc(name); node != nil {
		node.hops = slices.DeleteFunc(node.hops, func(h *traceHop) bool { return h.Nexthop == nexthop })
		node.pruneIfEmpty()
	}
}

// ClearNextHopsEnc removes all trace nexthops of name.
func (t *TraceTable) ClearNextHopsEnc(name enc.Name) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if node := t.root.findExactMatchEntryEnc(name); node != nil {
		node.hops = nil
		node.pruneIfEmpty()
	}
}

// FindLongestPrefixEntryEnc returns a copy of the deepest entry for name that
// still has live nexthops. If there is none, the returned entry has no nexthops.
func (t *TraceTable) FindLongestPrefixEntryEnc(name enc.Name) TibEntry {
	now := t.now()

	t.mutex.RLock()
	defer t.mutex.RUnlock()

	for node := t.root.findLongestPrefixEntryEnc(name); node != nil; node = node.parent {
		if hops := node.aliveHops(now); len(hops) > 0 {
			return &fibSnapshot{name: node.name, nexthops: hops}
		}
	}
	return &fibSnapshot{name: enc.Name{}, nexthops: []*FibNextHopEntry{}}
}

// Prune drops expired nexthops and returns how many were removed.
func (t *TraceTable) Prune() int {
	now := t.now()

	t.mutex.Lock()
	defer t.mutex.Unlock()

	var emptied []*traceTreeNode
	removed := 0
	var visit func(n *traceTreeNode)
	visit = func(n *traceTreeNode) {
		for _, child := range n.children {
			visit(child)
		}
		before := len(n.hops)
		n.hops = slices.DeleteFunc(n.hops, func(h *traceHop) bool { return !h.alive(now) })
		if len(n.hops) != before {
			removed += before - len(n.hops)
			emptied = append(emptied, n)
		}
	}
	visit(t.root)

	for _, n := range emptied {
		n.pruneIfEmpty()
	}
	return removed
}

// Size returns the number of prefixes holding at least one nexthop, live or not.
func (t *TraceTable) Size() int {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	count := 0
	var visit func(n *traceTreeNode)
	visit = func(n *traceTreeNode) {
		if len(n.hops) > 0 {
			count++
		}
		for _, child := range n.children {
			visit(child)
		}
	}
	visit(t.root)
	return count
}
