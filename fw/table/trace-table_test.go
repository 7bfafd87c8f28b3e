package table

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTibLongestPrefix(t *testing.T) {
	tib := NewTraceTable()
	tib.InsertNextHopEnc(mustName("/kite/prod"), 4, 1, 0)
	tib.InsertNextHopEnc(mustName("/kite/prod/video"), 5, 1, 0)

	entry := tib.FindLongestPrefixEntryEnc(mustName("/kite/prod/video/seg=3"))
	assert.Equal(t, "/kite/prod/video", entry.Name().String())
	assert.Equal(t, []uint64{5}, hopIDs(entry.GetNextHops()))

	entry = tib.FindLongestPrefixEntryEnc(mustName("/kite/prod/audio"))
	assert.Equal(t, []uint64{4}, hopIDs(entry.GetNextHops()))

	entry = tib.FindLongestPrefixEntryEnc(mustName("/other"))
	assert.Empty(t, entry.GetNextHops())
	assert.Equal(t, 2, tib.Size())
}

func TestTibExpiry(t *testing.T) {
	now := time.Now()
	tib := NewTraceTable()
	tib.now = func() time.Time { return now }

	tib.InsertNextHopEnc(mustName("/p"), 1, 1, time.Second)
	tib.InsertNextHopEnc(mustName("/p"), 2, 2, time.Hour)
	tib.InsertNextHopEnc(mustName("/p/q"), 3, 1, time.Second)
	assert.Equal(t, []uint64{3}, hopIDs(tib.FindLongestPrefixEntryEnc(mustName("/p/q")).GetNextHops()))

	now = now.Add(2 * time.Second)

	// expired hops are skipped and the lookup falls back to the shorter prefix
	entry := tib.FindLongestPrefixEntryEnc(mustName("/p/q"))
	assert.Equal(t, "/p", entry.Name().String())
	assert.Equal(t, []uint64{2}, hopIDs(entry.GetNextHops()))

	assert.Equal(t, 2, tib.Prune())
	assert.Equal(t, 1, tib.Size())
	assert.Equal(t, 0, tib.Prune())
}

func TestTibRemoveClear(t *testing.T) {
	tib := NewTraceTable()
	tib.InsertNextHopEnc(mustName("/p"), 1, 5, 0)
	tib.InsertNextHopEnc(mustName("/p"), 2, 1, 0)
	assert.Equal(t, []uint64{2, 1}, hopIDs(tib.FindLongestPrefixEntryEnc(mustName("/p")).GetNextHops()))

	// refresh keeps one hop per face
	tib.InsertNextHopEnc(mustName("/p"), 2, 1, 0)
	assert.Len(t, tib.FindLongestPrefixEntryEnc(mustName("/p")).GetNextHops(), 2)

	tib.RemoveNextHopEnc(mustName("/p"), 2)
	assert.Equal(t, []uint64{1}, hopIDs(tib.FindLongestPrefixEntryEnc(mustName("/p")).GetNextHops()))

	tib.ClearNextHopsEnc(mustName("/p"))
	assert.Empty(t, tib.FindLongestPrefixEntryEnc(mustName("/p")).GetNextHops())
	assert.Empty(t, tib.root.children)
}
