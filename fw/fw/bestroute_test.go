package fw

import (
	"testing"

	"github.com/named-data/kite/fw/defn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBestRoute(t *testing.T, fwd Forwarder) Strategy {
	s, err := NewStrategy(fwd, bestRouteName)
	require.NoError(t, err)
	return s
}

func TestBestRouteCheapestHop(t *testing.T) {
	fwd := newRecordingForwarder()
	fwd.fib.InsertNextHopEnc(mustName("/a"), 2, 20)
	fwd.fib.InsertNextHopEnc(mustName("/a"), 3, 10)
	s := newBestRoute(t, fwd)

	packet, pitEntry := pendingInterest(t, "/a/b", 1)
	s.AfterReceiveInterest(packet, pitEntry, 1)
	assert.Equal(t, []uint64{3}, fwd.sent)
	assert.Zero(t, fwd.tibLookups)

	// retransmission within the suppression time
	s.AfterReceiveInterest(packet, pitEntry, 1)
	assert.Equal(t, []uint64{3}, fwd.sent)
}

func TestBestRouteSkipsFailedSend(t *testing.T) {
	fwd := newRecordingForwarder()
	fwd.fib.InsertNextHopEnc(mustName("/a"), 2, 20)
	fwd.fib.InsertNextHopEnc(mustName("/a"), 3, 10)
	fwd.failSend[3] = true
	s := newBestRoute(t, fwd)

	packet, pitEntry := pendingInterest(t, "/a/b", 1)
	s.AfterReceiveInterest(packet, pitEntry, 1)
	assert.Equal(t, []uint64{3, 2}, fwd.sent)
}

func TestBestRouteRejects(t *testing.T) {
	fwd := newRecordingForwarder()
	fwd.fib.InsertNextHopEnc(mustName("/a"), 1, 10)
	s := newBestRoute(t, fwd)

	// the only nexthop is the incoming face
	packet, pitEntry := pendingInterest(t, "/a/b", 1)
	s.AfterReceiveInterest(packet, pitEntry, 1)
	assert.Empty(t, fwd.sent)
	assert.Equal(t, 1, fwd.rejected)
}

func TestBestRouteNacksWhenExhausted(t *testing.T) {
	fwd := newRecordingForwarder()
	s := newBestRoute(t, fwd)

	packet, pitEntry := pendingInterest(t, "/a/b", 1)
	pitEntry.InsertOutRecord(packet.L3.Interest, 2)
	pitEntry.InsertOutRecord(packet.L3.Interest, 3)

	s.AfterReceiveNack(defn.MakeNackPkt(packet.L3.Interest, defn.NackReasonNoRoute, 2), pitEntry, 2)
	assert.Empty(t, fwd.nacks)

	s.AfterReceiveNack(defn.MakeNackPkt(packet.L3.Interest, defn.NackReasonCongestion, 3), pitEntry, 3)
	require.Len(t, fwd.nacks, 1)
	assert.Equal(t, uint64(1), fwd.nacks[0].face)
	assert.Equal(t, defn.NackReasonCongestion, fwd.nacks[0].header.Reason)
}

func TestIsLessSevere(t *testing.T) {
	assert.True(t, isLessSevere(defn.NackReasonCongestion, defn.NackReasonNoRoute))
	assert.True(t, isLessSevere(defn.NackReasonNoRoute, defn.NackReasonNone))
	assert.False(t, isLessSevere(defn.NackReasonNone, defn.NackReasonDuplicate))
	assert.False(t, isLessSevere(defn.NackReasonNoRoute, defn.NackReasonDuplicate))
}
