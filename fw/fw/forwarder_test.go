package fw

import (
	"testing"
	"time"

	"github.com/named-data/kite/fw/defn"
	"github.com/named-data/kite/fw/table"
	enc "github.com/named-data/kite/std/encoding"
	"github.com/named-data/kite/std/types/optional"
	"github.com/stretchr/testify/require"
)

type sentNack struct {
	face   uint64
	header *defn.FwNack
}

// recordingForwarder is a Forwarder over real FIB and TIB trees that records
// what the strategy asked of it.
type recordingForwarder struct {
	fib *table.FibStrategyTree
	tib *table.TraceTable

	scopes     map[uint64]defn.Scope
	ineligible map[uint64]bool
	failSend   map[uint64]bool

	tibLookups int
	fibLookups int
	sent       []uint64
	nacks      []sentNack
	rejected   int
}

func newRecordingForwarder() *recordingForwarder {
	return &recordingForwarder{
		fib:        table.NewFibStrategyTree(defn.DEFAULT_STRATEGY),
		tib:        table.NewTraceTable(),
		scopes:     make(map[uint64]defn.Scope),
		ineligible: make(map[uint64]bool),
		failSend:   make(map[uint64]bool),
	}
}

func (f *recordingForwarder) String() string {
	return "recording-fwd"
}

func (f *recordingForwarder) LookupTib(pitEntry table.PitEntry) table.TibEntry {
	f.tibLookups++
	return f.tib.FindLongestPrefixEntryEnc(pitEntry.EncName())
}

func (f *recordingForwarder) LookupFib(pitEntry table.PitEntry) table.FibEntry {
	f.fibLookups++
	return f.fib.FindLongestPrefixEntryEnc(pitEntry.EncName())
}

func (f *recordingForwarder) SendInterest(packet *defn.Pkt, pitEntry table.PitEntry, nexthop uint64, inFace uint64) bool {
	f.sent = append(f.sent, nexthop)
	if f.failSend[nexthop] {
		return false
	}
	pitEntry.InsertOutRecord(packet.L3.Interest, nexthop)
	return true
}

func (f *recordingForwarder) SendNacks(pitEntry table.PitEntry, nack *defn.FwNack, inFace uint64) {
	for faceID := range pitEntry.InRecords() {
		f.nacks = append(f.nacks, sentNack{face: faceID, header: nack})
	}
}

func (f *recordingForwarder) RejectPendingInterest(pitEntry table.PitEntry) {
	f.rejected++
}

func (f *recordingForwarder) WouldViolateScope(inFace uint64, interest *defn.FwInterest, outFace uint64) bool {
	return wouldViolateScope(f.scopes[inFace], interest.Name(), f.scopes[outFace])
}

func (f *recordingForwarder) CanForwardToLegacy(pitEntry table.PitEntry, outFace uint64) bool {
	if f.ineligible[outFace] {
		return false
	}
	return canForwardToLegacy(pitEntry, outFace, time.Now())
}

func mustName(s string) enc.Name {
	n, err := enc.NameFromStr(s)
	if err != nil {
		panic(err)
	}
	return n
}

func makeInterest(name string, nonce uint32) *defn.FwInterest {
	return &defn.FwInterest{
		NameV:     mustName(name),
		NonceV:    optional.Some(nonce),
		LifetimeV: optional.Some(4 * time.Second),
	}
}

// pendingInterest inserts an Interest arriving on each of inFaces into a fresh PIT.
func pendingInterest(t *testing.T, name string, inFaces ...uint64) (*defn.Pkt, table.PitEntry) {
	pit := table.NewPitTree(nil)
	t.Cleanup(pit.Stop)

	var packet *defn.Pkt
	var pitEntry table.PitEntry
	for i, inFace := range inFaces {
		interest := makeInterest(name, uint32(1000+i))
		var dup bool
		pitEntry, dup = pit.InsertInterest(interest, inFace)
		require.False(t, dup)
		pitEntry.InsertInRecord(interest, inFace, nil)
		packet = defn.MakeInterestPkt(interest, inFace)
	}
	return packet, pitEntry
}
