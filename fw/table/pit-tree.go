package table

import (
	"sync/atomic"
	"time"

	"github.com/named-data/kite/fw/defn"
	enc "github.com/named-data/kite/std/encoding"
	"github.com/named-data/kite/std/types/priority_queue"
)

const expiredPitTickerInterval = 200 * time.Millisecond

type OnPitExpiration func(PitEntry)

// PitTree represents a PIT implementation that uses a name tree
type PitTree struct {
	root *pitTreeNode

	nPitEntries atomic.Int64
	nPitToken   uint32

	pitExpiryQueue priority_queue.Queue[*nameTreePitEntry, int64]
	updateTicker   *time.Ticker
	onExpiration   OnPitExpiration
}

type nameTreePitEntry struct {
	basePitEntry
	pit    *PitTree                                       // pointer to tree
	node   *pitTreeNode                                   // the tree node associated with this entry
	pqItem *priority_queue.Item[*nameTreePitEntry, int64] // entry in the expiring queue
}

// pitTreeNode represents an entry in a PIT tree.
type pitTreeNode struct {
	component enc.Component
	name      enc.Name
	depth     int

	parent   *pitTreeNode
	children map[uint64]*pitTreeNode

	pitEntries []*nameTreePitEntry
}

// NewPitTree creates a new PIT for a forwarding thread.
// onExpiration is called for every entry removed by Update.
func NewPitTree(onExpiration OnPitExpiration) *PitTree {
	p := new(PitTree)
	p.root = newPitTreeNode()
	p.onExpiration = onExpiration
	p.pitExpiryQueue = priority_queue.New[*nameTreePitEntry, int64]()
	p.updateTicker = time.NewTicker(expiredPitTickerInterval)
	return p
}

func newPitTreeNode() *pitTreeNode {
	return &pitTreeNode{
		name:     enc.Name{},
		children: make(map[uint64]*pitTreeNode),
	}
}

func (p *PitTree) UpdateTicker() <-chan time.Time {
	return p.updateTicker.C
}

// Stop releases the expiration ticker.
func (p *PitTree) Stop() {
	p.updateTicker.Stop()
}

func (p *PitTree) Update() {
	now := time.Now().UnixNano()
	for p.pitExpiryQueue.Len() > 0 && p.pitExpiryQueue.PeekPriority() <= now {
		entry := p.pitExpiryQueue.Pop()
		entry.pqItem = nil
		if p.onExpiration != nil {
			p.onExpiration(entry)
		}
		p.RemoveInterest(entry)
	}
}

func (p *PitTree) updatePitExpiry(pitEntry PitEntry) {
	e := pitEntry.(*nameTreePitEntry)
	if e.pqItem == nil {
		e.pqItem = p.pitExpiryQueue.Push(e, e.expirationTime.UnixNano())
	} else {
		p.pitExpiryQueue.UpdatePriority(e.pqItem, e.expirationTime.UnixNano())
	}
}

func (e *nameTreePitEntry) Pit() PitTable {
	return e.pit
}

// InsertInterest inserts an entry in the PIT upon receipt of an Interest.
// Returns tuple of PIT entry and whether the Nonce is a duplicate.
func (p *PitTree) InsertInterest(interest *defn.FwInterest, inFace uint64) (PitEntry, bool) {
	node := p.root.fillTreeToPrefixEnc(interest.Name())
	var entry *nameTreePitEntry
	for _, curEntry := range node.pitEntries {
		if curEntry.CanBePrefix() == interest.CanBePrefixV &&
			curEntry.MustBeFresh() == interest.MustBeFreshV {
			entry = curEntry
			break
		}
	}

	if entry == nil {
		p.nPitEntries.Add(1)
		p.nPitToken++
		entry = &nameTreePitEntry{
			basePitEntry: newBasePitEntry(),
			pit:          p,
			node:         node,
		}
		entry.encname = node.name
		entry.canBePrefix = interest.CanBePrefixV
		entry.mustBeFresh = interest.MustBeFreshV
		entry.token = p.nPitToken
		node.pitEntries = append(node.pitEntries, entry)
	}

	// Only considered a duplicate (loop) if from different face since
	// is just retransmission and not loop if same face
	for face, inRecord := range entry.inRecords {
		if face != inFace && inRecord.LatestNonce == interest.NonceV.Unwrap() {
			return entry, true
		}
	}

	// Cancel expiration time
	entry.expirationTime = time.Unix(0, 0)

	return entry, false
}

// RemoveInterest removes the specified PIT entry, returning true if the entry
// was removed and false if was not (because it does not exist).
func (p *PitTree) RemoveInterest(pitEntry PitEntry) bool {
	e, ok := pitEntry.(*nameTreePitEntry)
	if !ok || e.node == nil {
		return false
	}

	for i, entry := range e.node.pitEntries {
		if entry != e {
			continue
		}
		last := len(e.node.pitEntries) - 1
		e.node.pitEntries[i] = e.node.pitEntries[last]
		e.node.pitEntries[last] = nil
		e.node.pitEntries = e.node.pitEntries[:last]
		e.node.pruneIfEmpty()
		p.nPitEntries.Add(-1)

		if e.pqItem != nil {
			p.pitExpiryQueue.Remove(e.pqItem)
			e.pqItem = nil
		}

		// now it is invalid to use the entry
		e.node = nil
		e.ClearInRecords()
		e.ClearOutRecords()
		return true
	}
	return false
}

// FindInterestExactMatchEnc returns the PIT entry for an exact match of the
// given interest.
func (p *PitTree) FindInterestExactMatchEnc(interest *defn.FwInterest) PitEntry {
	node := p.root.findExactMatchEntryEnc(interest.NameV)
	if node != nil {
		for _, curEntry := range node.pitEntries {
			if curEntry.CanBePrefix() == interest.CanBePrefixV &&
				curEntry.MustBeFresh() == interest.MustBeFreshV {
				return curEntry
			}
		}
	}
	return nil
}

// PitSize returns the number of entries in the PIT. Safe to call from any goroutine.
func (p *PitTree) PitSize() int {
	return int(p.nPitEntries.Load())
}

func (p *pitTreeNode) findExactMatchEntryEnc(name enc.Name) *pitTreeNode {
	if len(name) > p.depth {
		if child, ok := p.children[name.At(p.depth).Hash()]; ok {
			return child.findExactMatchEntryEnc(name)
		}
	} else if len(name) == p.depth {
		return p
	}
	return nil
}

func (p *pitTreeNode) findLongestPrefixEntryEnc(name enc.Name) *pitTreeNode {
	if len(name) > p.depth {
		if child, ok := p.children[name.At(p.depth).Hash()]; ok {
			return child.findLongestPrefixEntryEnc(name)
		}
	}
	return p
}

// fillTreeToPrefixEnc adds nodes for any missing components of name
// and returns the node of the full name.
func (p *pitTreeNode) fillTreeToPrefixEnc(name enc.Name) *pitTreeNode {
	entry := p.findLongestPrefixEntryEnc(name)

	for depth := entry.depth; depth < len(name); depth++ {
		component := name.At(depth).Clone()

		child := newPitTreeNode()
		child.name = entry.name.Append(component)
		child.depth = depth + 1
		child.component = component
		child.parent = entry

		entry.children[component.Hash()] = child
		entry = child
	}
	return entry
}

// pruneIfEmpty removes empty leaf nodes walking up from p.
func (p *pitTreeNode) pruneIfEmpty() {
	for curNode := p; curNode.parent != nil && len(curNode.children) == 0 &&
		len(curNode.pitEntries) == 0; curNode = curNode.parent {
		delete(curNode.parent.children, curNode.component.Hash())
	}
}
