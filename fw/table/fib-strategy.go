/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package table

import (
	enc "github.com/named-data/kite/std/encoding"
)

// FibNextHopEntry is a next hop in a FIB or TIB entry. Nexthop is a face ID.
type FibNextHopEntry struct {
	Nexthop uint64
	Cost    uint64
}

// FibEntry is the result of a FIB longest-prefix lookup.
type FibEntry interface {
	Name() enc.Name
	GetNextHops() []*FibNextHopEntry
}

// FibStrategyEntry represents an entry in the FIB-Strategy table.
type FibStrategyEntry interface {
	FibEntry
	GetStrategy() enc.Name
}

// baseFibStrategyEntry represents the common fields of an entry in the FIB-Strategy table.
type baseFibStrategyEntry struct {
	component enc.Component
	name      enc.Name
	nexthops  []*FibNextHopEntry
	strategy  enc.Name
}

// Name returns the name associated with the baseFibStrategyEntry.
func (e *baseFibStrategyEntry) Name() enc.Name {
	return e.name
}

// GetStrategy returns the strategy associated with the baseFibStrategyEntry.
func (e *baseFibStrategyEntry) GetStrategy() enc.Name {
	return e.strategy
}

// GetNextHops gets nexthops in the baseFibStrategyEntry.
func (e *baseFibStrategyEntry) GetNextHops() []*FibNextHopEntry {
	return e.nexthops
}

// fibSnapshot is a copy of an entry handed out of the locked tree.
type fibSnapshot struct {
	name     enc.Name
	nexthops []*FibNextHopEntry
}

func (s *fibSnapshot) Name() enc.Name {
	return s.name
}

func (s *fibSnapshot) GetNextHops() []*FibNextHopEntry {
	return s.nexthops
}

func copyNextHops(nexthops []*FibNextHopEntry) []*FibNextHopEntry {
	ret := make([]*FibNextHopEntry, 0, len(nexthops))
	for _, nh := range nexthops {
		ret = append(ret, &FibNextHopEntry{Nexthop: nh.Nexthop, Cost: nh.Cost})
	}
	return ret
}
