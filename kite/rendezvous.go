package kite

import (
	"fmt"
	"slices"
)

// RendezvousSet is the set of rendezvous nodes of a deployment.
// The zero value is an empty set.
type RendezvousSet struct {
	nodes map[uint64]struct{}
}

// NewRendezvousSet creates a set holding the given node IDs.
func NewRendezvousSet(nodes ...uint64) RendezvousSet {
	s := RendezvousSet{nodes: make(map[uint64]struct{}, len(nodes))}
	for _, node := range nodes {
		s.nodes[node] = struct{}{}
	}
	return s
}

func (s RendezvousSet) String() string {
	return fmt.Sprintf("rendezvous%v", s.IDs())
}

// Contains reports whether node is a rendezvous node.
func (s RendezvousSet) Contains(node uint64) bool {
	_, ok := s.nodes[node]
	return ok
}

// Len returns the number of rendezvous nodes.
func (s RendezvousSet) Len() int {
	return len(s.nodes)
}

// IDs returns the rendezvous node IDs in increasing order.
func (s RendezvousSet) IDs() []uint64 {
	ids := make([]uint64, 0, len(s.nodes))
	for node := range s.nodes {
		ids = append(ids, node)
	}
	slices.Sort(ids)
	return ids
}

// FanOut calls fn for every rendezvous node other than from, in ID order,
// and returns how many peers were visited.
func (s RendezvousSet) FanOut(from uint64, fn func(peer uint64)) int {
	n := 0
	for _, peer := range s.IDs() {
		if peer == from {
			continue
		}
		fn(peer)
		n++
	}
	return n
}
