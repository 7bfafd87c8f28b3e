/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package fw

import (
	"time"

	"github.com/named-data/kite/fw/core"
	"github.com/named-data/kite/fw/defn"
	"github.com/named-data/kite/fw/table"
	enc "github.com/named-data/kite/std/encoding"
)

// BestRouteSuppressionTime is the time to suppress retransmissions of the same Interest.
const BestRouteSuppressionTime = 400 * time.Millisecond

// BestRoute is a forwarding strategy that forwards Interests
// to the nexthop with the lowest cost.
type BestRoute struct {
	StrategyBase
}

var bestRouteName enc.Name

func init() {
	bestRouteName = registerStrategy("best-route", 1,
		func(fwd Forwarder, instance enc.Name) (Strategy, error) {
			name, err := checkInstanceName(instance, bestRouteName, "best-route")
			if err != nil {
				return nil, err
			}
			s := &BestRoute{}
			s.NewStrategyBase(fwd, name, 1, "best-route")
			return s, nil
		})
}

func (s *BestRoute) AfterReceiveInterest(
	packet *defn.Pkt,
	pitEntry table.PitEntry,
	inFace uint64,
) {
	nexthops := s.allowedNextHops(packet, pitEntry, inFace)
	if len(nexthops) == 0 {
		core.Log.Debug(s, "No nexthop found - REJECT", "name", packet.Name)
		countDecision(s.logName, outcomeReject)
		s.fwd.RejectPendingInterest(pitEntry)
		return
	}

	// FIB nexthops are sorted by cost
	now := time.Now()
	for pass := range 2 {
		for _, nh := range nexthops {
			// In the first pass, skip hops that already have a out record
			if pass == 0 {
				if oR := pitEntry.OutRecords()[nh.Nexthop]; oR != nil {
					// Suppress retransmissions of the same Interest within suppression time
					if oR.LatestTimestamp.Add(BestRouteSuppressionTime).After(now) {
						core.Log.Debug(s, "Suppressed Interest - DROP", "name", packet.Name)
						countDecision(s.logName, outcomeSuppressed)
						return
					}

					// If an out record exists, skip this hop
					continue
				}
			}

			// For the second pass, we should ideally use the least recently tried hop.
			// But then we need to resort the list - this is just faster for now.
			core.Log.Trace(s, "Forwarding Interest", "name", packet.Name, "faceid", nh.Nexthop)
			if sent := s.SendInterest(packet, pitEntry, nh.Nexthop, inFace); sent {
				countDecision(s.logName, outcomeForward)
				return
			}
		}
	}

	core.Log.Debug(s, "No usable nexthop for Interest - DROP", "name", packet.Name)
	countDecision(s.logName, outcomeDrop)
}

func (s *BestRoute) AfterReceiveNack(
	packet *defn.Pkt,
	pitEntry table.PitEntry,
	inFace uint64,
) {
	s.StrategyBase.AfterReceiveNack(packet, pitEntry, inFace)
	s.nackWhenExhausted(packet, pitEntry, inFace)
}

// allowedNextHops returns the FIB nexthops other than the incoming face that
// keep the Interest in scope and have no in-record for this Interest.
func (s *StrategyBase) allowedNextHops(
	packet *defn.Pkt,
	pitEntry table.PitEntry,
	inFace uint64,
) []*table.FibNextHopEntry {
	nexthops := s.fwd.LookupFib(pitEntry).GetNextHops()
	allowed := make([]*table.FibNextHopEntry, 0, len(nexthops))
	for _, nh := range nexthops {
		if nh.Nexthop == inFace ||
			s.fwd.WouldViolateScope(inFace, packet.L3.Interest, nh.Nexthop) ||
			pitEntry.InRecords()[nh.Nexthop] != nil {
			continue
		}
		allowed = append(allowed, nh)
	}
	return allowed
}

// nackWhenExhausted sends a Nack downstream once every unexpired out-record
// was Nacked, carrying the least severe reason received.
func (s *StrategyBase) nackWhenExhausted(
	packet *defn.Pkt,
	pitEntry table.PitEntry,
	inFace uint64,
) {
	now := time.Now()
	reason := defn.NackReasonNone
	live := 0
	for _, oR := range pitEntry.OutRecords() {
		if oR.ExpirationTime.Before(now) {
			continue
		}
		live++
		if oR.IncomingNack == nil {
			// still waiting on this upstream
			return
		}
		if isLessSevere(oR.IncomingNack.Reason, reason) {
			reason = oR.IncomingNack.Reason
		}
	}
	if live == 0 {
		return
	}

	core.Log.Debug(s, "All upstreams Nacked", "name", packet.Name, "reason", defn.NackReasonString(reason))
	s.fwd.SendNacks(pitEntry, &defn.FwNack{Reason: reason}, inFace)
	countDecision(s.logName, outcomeNackRelay)
}

// isLessSevere orders Nack reasons; None is the most severe.
func isLessSevere(x, y uint64) bool {
	if x == defn.NackReasonNone {
		return false
	}
	if y == defn.NackReasonNone {
		return true
	}
	return x < y
}
