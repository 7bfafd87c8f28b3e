package cmd

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/named-data/kite/fw/core"
	"github.com/named-data/kite/fw/defn"
	"github.com/named-data/kite/fw/fw"
	"github.com/named-data/kite/fw/table"
	"github.com/named-data/kite/kite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// keepGlobals restores the process-wide forwarder state a runner replaces.
func keepGlobals(t *testing.T) {
	c, fib, tib, threads := core.C, table.FibStrategyTable, table.Tib, fw.Threads
	t.Cleanup(func() {
		core.C, table.FibStrategyTable, table.Tib, fw.Threads = c, fib, tib, threads
	})
}

func describeSent(r *Runner, faceID uint64) []string {
	var ret []string
	for _, out := range r.Sent(faceID) {
		ret = append(ret, describePacket(out.Pkt))
	}
	return ret
}

func loadHandover(t *testing.T) *Scenario {
	s, err := LoadScenario("testdata/handover.yml")
	require.NoError(t, err)
	return s
}

func TestRunnerHandover(t *testing.T) {
	keepGlobals(t)
	r, err := NewRunner(loadHandover(t))
	require.NoError(t, err)
	require.NoError(t, r.Run(context.Background()))

	assert.Equal(t, []string{
		"nack /mobile/alice/2 nonce=2 reason=NoRoute",
		"nack /nowhere nonce=3 reason=NoRoute",
	}, describeSent(r, 1))
	assert.Equal(t, []string{
		"interest /mobile/alice/1 nonce=1",
	}, describeSent(r, 2))
	assert.Equal(t, []string{
		"interest /mobile/alice/1 nonce=1",
		"interest /mobile/alice/3 nonce=4",
	}, describeSent(r, 3))
	assert.Equal(t, []string{
		"interest /mobile/alice/2 nonce=2",
	}, describeSent(r, 4))

	// the last attachment left a single trace toward rendezvous 13
	hops := table.Tib.FindLongestPrefixEntryEnc(mustName("/mobile/alice/3")).GetNextHops()
	require.Len(t, hops, 1)
	assert.Equal(t, uint64(3), hops[0].Nexthop)

	// the held Interest entered through the face toward rendezvous 12
	sent := r.Sent(3)
	assert.Equal(t, uint64(2), sent[1].InFace)

	var in, out, rejected uint64
	for _, thread := range r.threads {
		cnt := thread.Counters()
		in += cnt.NInInterests
		out += cnt.NOutInterests
		rejected += cnt.NRejectedInterests
	}
	assert.Equal(t, uint64(4), in)
	assert.Equal(t, uint64(4), out)
	assert.Equal(t, uint64(1), rejected)
}

func TestRunnerReport(t *testing.T) {
	keepGlobals(t)
	r, err := NewRunner(loadHandover(t))
	require.NoError(t, err)
	require.NoError(t, r.Run(context.Background()))

	var buf bytes.Buffer
	r.Report(&buf)
	report := buf.String()
	assert.Contains(t, report, "memory-face (faceid=1 scope=local link=point-to-point)")
	assert.Contains(t, report, "  nack /nowhere nonce=3 reason=NoRoute")
	assert.Contains(t, report, "  interest /mobile/alice/3 nonce=4")
	assert.Contains(t, report, "fw-thread-0")
	assert.Contains(t, report, "fw-thread-1")
	assert.Contains(t, report, "nRejectedInterests")
	assert.Contains(t, report, "tables\n")
	assert.Contains(t, report, "nStrategyChoices=2\n")
	assert.Contains(t, report, "nTibEntries=1\n")
}

func TestRunnerStrategyFallback(t *testing.T) {
	keepGlobals(t)
	s := loadHandover(t)
	s.Strategies = []StrategyChoice{{Prefix: "/mobile", Strategy: "/localhost/nfd/strategy/unknown/v=1"}}
	s.Events = s.Events[:1]

	r, err := NewRunner(s)
	require.NoError(t, err)
	require.NoError(t, r.Run(context.Background()))

	// best-route sends to the cheapest hop only
	assert.Equal(t, []string{"interest /mobile/alice/1 nonce=1"}, describeSent(r, 2))
	assert.Empty(t, r.Sent(3))
}

func TestRunnerNextHop(t *testing.T) {
	keepGlobals(t)
	s := loadHandover(t)
	nonce := uint32(9)
	nextHop := uint64(4)
	s.Events = []Event{{Interest: &InterestEvent{Name: "/mobile/alice/9", Face: 1, Nonce: &nonce, NextHop: &nextHop}}}

	r, err := NewRunner(s)
	require.NoError(t, err)
	require.NoError(t, r.Run(context.Background()))

	assert.Equal(t, []string{"interest /mobile/alice/9 nonce=9"}, describeSent(r, 4))
	assert.Empty(t, r.Sent(2))
	assert.Empty(t, r.Sent(3))
}

func TestRunnerHoldWhileAttached(t *testing.T) {
	keepGlobals(t)
	s := loadHandover(t)
	s.Events = []Event{
		{Attach: &AttachEvent{Mobile: 100, Node: 12}},
		// rendezvous 13 already knows the producer and releases at once
		{Hold: &HoldEvent{Node: 13, Name: "/mobile/alice/5", Nonce: 5}},
	}

	r, err := NewRunner(s)
	require.NoError(t, err)
	require.NoError(t, r.Run(context.Background()))

	sent := r.Sent(2)
	require.Len(t, sent, 1)
	assert.Equal(t, "/mobile/alice/5", sent[0].Pkt.Name.String())
	assert.Equal(t, uint64(3), sent[0].InFace)
}

func TestRunnerCancelled(t *testing.T) {
	keepGlobals(t)
	r, err := NewRunner(loadHandover(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, r.Run(ctx), context.Canceled)
	for id := uint64(1); id <= 4; id++ {
		assert.Empty(t, r.Sent(id))
	}
}

func TestNewRunnerErrors(t *testing.T) {
	keepGlobals(t)

	s := loadHandover(t)
	s.Config.Fw.Threads = fw.MaxFwThreads + 1
	_, err := NewRunner(s)
	assert.ErrorIs(t, err, ErrScenario)

	s = loadHandover(t)
	s.Config.Fw.DefaultStrategy = "/x=y=z"
	_, err = NewRunner(s)
	assert.Error(t, err)
}

func TestRunnerMetrics(t *testing.T) {
	keepGlobals(t)
	s := loadHandover(t)
	s.Config.Metrics.Enabled = true

	r, err := NewRunner(s)
	require.NoError(t, err)
	require.NotNil(t, r.Metrics())
	require.NoError(t, r.Run(context.Background()))

	families, err := r.Metrics().Gather()
	require.NoError(t, err)
	names := make(map[string]bool)
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	assert.True(t, names["kite_interests_total"])
	assert.True(t, names["kite_strategy_decisions_total"])
	assert.True(t, names["kite_pit_entries"])

	s = loadHandover(t)
	r, err = NewRunner(s)
	require.NoError(t, err)
	assert.Nil(t, r.Metrics())
}

func TestDescribePacket(t *testing.T) {
	interest := &defn.FwInterest{NameV: mustName("/a/b")}
	assert.Equal(t, "interest /a/b nonce=-", describePacket(defn.MakeInterestPkt(interest, 1)))
	assert.Equal(t, "nack /a/b nonce=- reason=Duplicate",
		describePacket(defn.MakeNackPkt(interest, defn.NackReasonDuplicate, 1)))
}

func TestRunnerHoldDeliveredLocally(t *testing.T) {
	keepGlobals(t)
	s := loadHandover(t)
	s.Events = []Event{
		{Attach: &AttachEvent{Mobile: 100, Node: 12}},
		// the producer sits at rendezvous 12, so it serves the Interest itself
		{Hold: &HoldEvent{Node: 12, Name: "/mobile/alice/6", Nonce: 6}},
	}

	r, err := NewRunner(s)
	require.NoError(t, err)
	require.NoError(t, r.Run(context.Background()))

	delivered := r.Delivered(12)
	require.Len(t, delivered, 1)
	assert.Equal(t, "/mobile/alice/6", delivered[0].NameV.String())
	assert.Empty(t, r.Delivered(13))
	for id := uint64(1); id <= 4; id++ {
		assert.Empty(t, r.Sent(id))
	}

	var buf bytes.Buffer
	r.Report(&buf)
	assert.Contains(t, buf.String(), "rendezvous 12 delivered locally\n  interest /mobile/alice/6 nonce=6\n")
}

func TestRunnerAttachSameNode(t *testing.T) {
	keepGlobals(t)
	r, err := NewRunner(loadHandover(t))
	require.NoError(t, err)
	prefix := mustName("/mobile/alice")
	hops := func() []uint64 {
		var ret []uint64
		for _, hop := range table.Tib.FindLongestPrefixEntryEnc(prefix).GetNextHops() {
			ret = append(ret, hop.Nexthop)
		}
		return ret
	}

	require.NoError(t, r.attach(&AttachEvent{Mobile: 100, Node: 20}))
	assert.Equal(t, []uint64{4}, hops())

	// attaching again where the mobile already is leaves the trace alone
	table.Tib.InsertNextHopEnc(prefix, 2, 5, 0)
	require.NoError(t, r.attach(&AttachEvent{Mobile: 100, Node: 20}))
	assert.Equal(t, []uint64{4, 2}, hops())

	require.NoError(t, r.attach(&AttachEvent{Mobile: 100, Node: 13}))
	assert.Equal(t, []uint64{3}, hops())
}

type recordingHolder struct {
	held []*defn.FwInterest
}

func (h *recordingHolder) Hold(interest *defn.FwInterest) error {
	h.held = append(h.held, interest)
	return nil
}

func TestRunnerHoldAnyHolder(t *testing.T) {
	keepGlobals(t)
	r, err := NewRunner(loadHandover(t))
	require.NoError(t, err)

	holder := &recordingHolder{}
	reg := kite.NewRegistry(99)
	require.NoError(t, reg.Register(kite.RoleRendezvous, holder))
	r.registries[99] = reg

	require.NoError(t, r.hold(&HoldEvent{Node: 99, Name: "/mobile/alice/7", Nonce: 7, Lifetime: 500}))
	require.Len(t, holder.held, 1)
	assert.Equal(t, "/mobile/alice/7", holder.held[0].NameV.String())
	assert.Equal(t, 500*time.Millisecond, holder.held[0].LifetimeV.Unwrap())

	// a rendezvous application that cannot hold is reported, not cast
	reg = kite.NewRegistry(98)
	require.NoError(t, reg.Register(kite.RoleRendezvous, struct{}{}))
	r.registries[98] = reg
	assert.ErrorIs(t, r.hold(&HoldEvent{Node: 98, Name: "/mobile/alice/8"}), kite.ErrCapability)
	assert.ErrorIs(t, r.hold(&HoldEvent{Node: 97, Name: "/mobile/alice/8"}), kite.ErrNoApp)
}
