package fw

import (
	"slices"

	"github.com/named-data/kite/fw/core"
	"github.com/named-data/kite/fw/defn"
	"github.com/named-data/kite/fw/table"
	enc "github.com/named-data/kite/std/encoding"
)

// TraceForwarding forwards Interests for mobile producers along the Trace
// Information Base, and floods them over the FIB when no trace can be used.
// Nacks are relayed to every downstream face.
type TraceForwarding struct {
	StrategyBase
}

var traceForwardingName enc.Name

func init() {
	traceForwardingName = registerStrategy("trace-forwarding", 1,
		func(fwd Forwarder, instance enc.Name) (Strategy, error) {
			s, err := NewTraceForwarding(fwd, instance)
			if err != nil {
				return nil, err
			}
			return s, nil
		})
}

// TraceForwardingName returns /localhost/nfd/strategy/trace-forwarding/v=1.
func TraceForwardingName() enc.Name {
	return traceForwardingName
}

// NewTraceForwarding creates the strategy for an instance name. The name may
// omit the version but must not carry parameters.
func NewTraceForwarding(fwd Forwarder, instance enc.Name) (*TraceForwarding, error) {
	name, err := checkInstanceName(instance, traceForwardingName, "trace-forwarding")
	if err != nil {
		return nil, err
	}

	s := &TraceForwarding{}
	s.NewStrategyBase(fwd, name, 1, "trace-forwarding")
	return s, nil
}

func (s *TraceForwarding) AfterReceiveInterest(
	packet *defn.Pkt,
	pitEntry table.PitEntry,
	inFace uint64,
) {
	core.Log.Trace(s, "AfterReceiveInterest", "name", packet.Name, "faceid", inFace)

	if HasPendingOutRecords(pitEntry) {
		// not a new Interest, don't forward
		core.Log.Trace(s, "Interest has pending out-records", "name", packet.Name)
		countDecision(s.logName, outcomeSuppressed)
		return
	}

	tibEntry := s.fwd.LookupTib(pitEntry)
	if len(tibEntry.GetNextHops()) > 0 {
		if s.traceForward(packet, pitEntry, inFace, tibEntry) {
			countDecision(s.logName, outcomeTrace)
			return
		}
		core.Log.Debug(s, "No usable trace nexthop, falling back to FIB", "name", packet.Name, "prefix", tibEntry.Name())
	}

	fibEntry := s.fwd.LookupFib(pitEntry)
	nexthops := fibEntry.GetNextHops()

	// Ensure there is at least 1 face available for forwarding
	interest := packet.L3.Interest
	if !slices.ContainsFunc(nexthops, func(nh *table.FibNextHopEntry) bool {
		return canForwardToNextHop(s.fwd, inFace, pitEntry, interest, nh)
	}) {
		core.Log.Debug(s, "No usable nexthop for Interest - REJECT", "name", packet.Name)
		countDecision(s.logName, outcomeReject)
		s.fwd.RejectPendingInterest(pitEntry)
		return
	}

	// flood it
	s.scanNextHops(packet, pitEntry, inFace, fibEntry.Name(), nexthops, "FIB")
	countDecision(s.logName, outcomeFlood)
}

func (s *TraceForwarding) AfterReceiveNack(
	packet *defn.Pkt,
	pitEntry table.PitEntry,
	inFace uint64,
) {
	s.StrategyBase.AfterReceiveNack(packet, pitEntry, inFace)

	core.Log.Trace(s, "Relaying Nack", "name", packet.Name, "inrecords", len(pitEntry.InRecords()))
	s.fwd.SendNacks(pitEntry, packet.L3.Nack, inFace)
	countDecision(s.logName, outcomeNackRelay)
}

// traceForward sends the Interest to every eligible TIB nexthop.
// The caller guarantees the entry has nexthops.
func (s *TraceForwarding) traceForward(
	packet *defn.Pkt,
	pitEntry table.PitEntry,
	inFace uint64,
	tibEntry table.TibEntry,
) bool {
	return s.scanNextHops(packet, pitEntry, inFace, tibEntry.Name(), tibEntry.GetNextHops(), "TIB")
}

// scanNextHops sends the Interest to every eligible nexthop in list order and
// reports whether any nexthop was eligible.
func (s *TraceForwarding) scanNextHops(
	packet *defn.Pkt,
	pitEntry table.PitEntry,
	inFace uint64,
	prefix enc.Name,
	nexthops []*table.FibNextHopEntry,
	source string,
) bool {
	interest := packet.L3.Interest
	sent := false
	for _, nh := range nexthops {
		if !canForwardToNextHop(s.fwd, inFace, pitEntry, interest, nh) {
			core.Log.Debug(s, source+" cannot forward", "faceid", nh.Nexthop, "prefix", prefix, "name", packet.Name)
			continue
		}

		sent = true
		core.Log.Trace(s, source+" forwarding", "faceid", nh.Nexthop, "prefix", prefix, "name", packet.Name)
		if !s.SendInterest(packet, pitEntry, nh.Nexthop, inFace) {
			core.Log.Debug(s, "Outgoing pipeline dropped Interest", "faceid", nh.Nexthop, "name", packet.Name)
		}
	}
	return sent
}
