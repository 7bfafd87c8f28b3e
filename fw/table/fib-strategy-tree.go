/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package table

import (
	"container/list"
	"slices"
	"sync"

	enc "github.com/named-data/kite/std/encoding"
)

type fibStrategyTreeEntry struct {
	baseFibStrategyEntry
	depth    int
	parent   *fibStrategyTreeEntry
	children []*fibStrategyTreeEntry
}

// FibStrategyTree represents a tree implementation of the FIB-Strategy table.
type FibStrategyTree struct {
	// root of the tree
	root *fibStrategyTreeEntry

	// mutex used to synchronize accesses to the FIB,
	// which is shared across all the forwarding threads.
	mutex sync.RWMutex
}

// NewFibStrategyTree creates an empty FIB whose root carries defaultStrategy.
func NewFibStrategyTree(defaultStrategy enc.Name) *FibStrategyTree {
	tree := new(FibStrategyTree)
	tree.root = new(fibStrategyTreeEntry)
	tree.root.component = enc.Component{}
	tree.root.strategy = defaultStrategy.Clone()
	tree.root.name = enc.Name{}
	return tree
}

// findExactMatchEntry returns the entry corresponding to the exact match of
// the given name. It returns nil if no exact match was found.
func (f *fibStrategyTreeEntry) findExactMatchEntryEnc(name enc.Name) *fibStrategyTreeEntry {
	match := f.findLongestPrefixEntryEnc(name)
	if len(name) == len(match.name) {
		return match
	}
	return nil
}

// findLongestPrefixEntry returns the deepest entry whose name is a prefix of name.
func (f *fibStrategyTreeEntry) findLongestPrefixEntryEnc(name enc.Name) *fibStrategyTreeEntry {
	if len(name) > f.depth {
		for _, child := range f.children {
			if name.At(child.depth - 1).Equal(child.component) {
				return child.findLongestPrefixEntryEnc(name)
			}
		}
	}
	return f
}

// fillTreeToPrefix breaks the given name into components and adds nodes to the
// tree for any missing components.
func (f *FibStrategyTree) fillTreeToPrefixEnc(name enc.Name) *fibStrategyTreeEntry {
	entry := f.root.findLongestPrefixEntryEnc(name)

	for depth := entry.depth; depth < len(name); depth++ {
		component := name.At(depth).Clone()

		child := &fibStrategyTreeEntry{}
		child.name = entry.name.Append(component)
		child.depth = depth + 1
		child.component = component
		child.parent = entry

		entry.children = append(entry.children, child)
		entry = child
	}
	return entry
}

// pruneIfEmpty prunes nodes from the tree if they no longer carry any information,
// where information is the combination of child nodes, nexthops, and strategies.
func (f *fibStrategyTreeEntry) pruneIfEmpty() {
	for entry := f; entry.parent != nil && len(entry.children) == 0 &&
		len(entry.nexthops) == 0 && entry.strategy == nil; entry = entry.parent {
		parent := entry.parent
		if i := slices.Index(parent.children, entry); i >= 0 {
			parent.children = slices.Delete(parent.children, i, i+1)
		}
	}
}

// nearestWithNextHops steps up from entry until an entry with nexthops is found,
// since some might only have a strategy but no nexthops.
func (f *fibStrategyTreeEntry) nearestWithNextHops() *fibStrategyTreeEntry {
	for entry := f; entry != nil; entry = entry.parent {
		if len(entry.nexthops) > 0 {
			return entry
		}
	}
	return nil
}

// FindNextHopsEnc returns the longest-prefix matching nexthop(s) matching the specified name.
func (f *FibStrategyTree) FindNextHopsEnc(name enc.Name) []*FibNextHopEntry {
	f.mutex.RLock()
	defer f.mutex.RUnlock()

	if entry := f.root.findLongestPrefixEntryEnc(name).nearestWithNextHops(); entry != nil {
		return copyNextHops(entry.nexthops)
	}
	return []*FibNextHopEntry{}
}

// FindLongestPrefixEntryEnc returns a copy of the longest-prefix FIB entry with
// nexthops for name. The empty root entry is returned if nothing matches.
func (f *FibStrategyTree) FindLongestPrefixEntryEnc(name enc.Name) FibEntry {
	f.mutex.RLock()
	defer f.mutex.RUnlock()

	entry := f.root.findLongestPrefixEntryEnc(name).nearestWithNextHops()
	if entry == nil {
		entry = f.root
	}
	return &fibSnapshot{
		name:     entry.name,
		nexthops: copyNextHops(entry.nexthops),
	}
}

// FindStrategyEnc returns the longest-prefix matching strategy choice entry for the specified name.
func (f *FibStrategyTree) FindStrategyEnc(name enc.Name) enc.Name {
	f.mutex.RLock()
	defer f.mutex.RUnlock()

	// Step back up until we find a strategy entry
	// since some might only have a nexthops but no strategy
	for entry := f.root.findLongestPrefixEntryEnc(name); entry != nil; entry = entry.parent {
		if entry.strategy != nil {
			return entry.strategy
		}
	}
	return nil
}

// InsertNextHopEnc adds or updates a nexthop entry for the specified prefix.
// Nexthops stay ordered by increasing cost; equal costs keep insertion order.
func (f *FibStrategyTree) InsertNextHopEnc(name enc.Name, nexthop uint64, cost uint64) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	entry := f.fillTreeToPrefixEnc(name)
	insertSortedNextHop(&entry.nexthops, nexthop, cost)
}

// ClearNextHopsEnc clears all nexthops for the specified prefix.
func (f *FibStrategyTree) ClearNextHopsEnc(name enc.Name) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if name == nil {
		return // don't clear root
	}

	if entry := f.root.findExactMatchEntryEnc(name); entry != nil {
		entry.nexthops = nil
		entry.pruneIfEmpty()
	}
}

// RemoveNextHopEnc removes the specified nexthop entry from the specified prefix.
func (f *FibStrategyTree) RemoveNextHopEnc(name enc.Name, nexthop uint64) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if entry := f.root.findExactMatchEntryEnc(name); entry != nil {
		entry.nexthops = slices.DeleteFunc(entry.nexthops, func(nh *FibNextHopEntry) bool {
			return nh.Nexthop == nexthop
		})
		entry.pruneIfEmpty()
	}
}

// RemoveFace removes every nexthop pointing at faceID.
func (f *FibStrategyTree) RemoveFace(faceID uint64) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	var touched []*fibStrategyTreeEntry
	f.walk(func(entry *fibStrategyTreeEntry) {
		n := len(entry.nexthops)
		entry.nexthops = slices.DeleteFunc(entry.nexthops, func(nh *FibNextHopEntry) bool {
			return nh.Nexthop == faceID
		})
		if len(entry.nexthops) != n {
			touched = append(touched, entry)
		}
	})
	for _, entry := range touched {
		entry.pruneIfEmpty()
	}
}

// GetNumFIBEntries returns the number of entries with nexthops in the FIB.
func (f *FibStrategyTree) GetNumFIBEntries() int {
	f.mutex.RLock()
	defer f.mutex.RUnlock()

	count := 0
	f.walk(func(entry *fibStrategyTreeEntry) {
		if len(entry.nexthops) > 0 {
			count++
		}
	})
	return count
}

// SetStrategyEnc sets the strategy for the specified prefix.
func (f *FibStrategyTree) SetStrategyEnc(name enc.Name, strategy enc.Name) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	entry := f.fillTreeToPrefixEnc(name)
	entry.strategy = strategy.Clone()
}

// GetAllForwardingStrategies returns all strategy choice entries in the Strategy Table.
func (f *FibStrategyTree) GetAllForwardingStrategies() []FibStrategyEntry {
	f.mutex.RLock()
	defer f.mutex.RUnlock()

	entries := make([]FibStrategyEntry, 0)
	f.walk(func(entry *fibStrategyTreeEntry) {
		if entry.strategy != nil {
			entries = append(entries, entry)
		}
	})
	return entries
}

// walk walks the tree depth-first, calling the specified function on each node.
func (f *FibStrategyTree) walk(fn func(*fibStrategyTreeEntry)) {
	queue := list.New()
	queue.PushBack(f.root)
	for queue.Len() > 0 {
		entry := queue.Front().Value.(*fibStrategyTreeEntry)
		queue.Remove(queue.Front())
		for _, child := range entry.children {
			queue.PushFront(child)
		}
		fn(entry)
	}
}

// insertSortedNextHop updates or inserts a nexthop keeping the list cost-ordered.
func insertSortedNextHop(nexthops *[]*FibNextHopEntry, nexthop uint64, cost uint64) {
	*nexthops = slices.DeleteFunc(*nexthops, func(nh *FibNextHopEntry) bool {
		return nh.Nexthop == nexthop
	})
	pos := len(*nexthops)
	for i, nh := range *nexthops {
		if nh.Cost > cost {
			pos = i
			break
		}
	}
	*nexthops = slices.Insert(*nexthops, pos, &FibNextHopEntry{Nexthop: nexthop, Cost: cost})
}
