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

const MulticastSuppressionTime = 500 * time.Millisecond

// Multicast is a forwarding strategy that forwards Interests to all nexthop faces.
type Multicast struct {
	StrategyBase
}

var multicastName enc.Name

func init() {
	multicastName = registerStrategy("multicast", 1,
		func(fwd Forwarder, instance enc.Name) (Strategy, error) {
			name, err := checkInstanceName(instance, multicastName, "multicast")
			if err != nil {
				return nil, err
			}
			s := &Multicast{}
			s.NewStrategyBase(fwd, name, 1, "multicast")
			return s, nil
		})
}

func (s *Multicast) AfterReceiveInterest(
	packet *defn.Pkt,
	pitEntry table.PitEntry,
	inFace uint64,
) {
	nexthops := s.allowedNextHops(packet, pitEntry, inFace)
	if len(nexthops) == 0 {
		core.Log.Debug(s, "No nexthop for Interest - REJECT", "name", packet.Name)
		countDecision(s.logName, outcomeReject)
		s.fwd.RejectPendingInterest(pitEntry)
		return
	}

	// If there is an out record less than suppression interval ago, drop the
	// retransmission to suppress it (only if the nonce is different)
	nonce := packet.L3.Interest.NonceV.Unwrap()
	for _, outRecord := range pitEntry.OutRecords() {
		if outRecord.LatestNonce != nonce &&
			outRecord.LatestTimestamp.Add(MulticastSuppressionTime).After(time.Now()) {
			core.Log.Debug(s, "Suppressed Interest", "name", packet.Name)
			countDecision(s.logName, outcomeSuppressed)
			return
		}
	}

	// Send interest to all nexthops
	for _, nexthop := range nexthops {
		core.Log.Trace(s, "Forwarding Interest", "name", packet.Name, "faceid", nexthop.Nexthop)
		s.SendInterest(packet, pitEntry, nexthop.Nexthop, inFace)
	}
	countDecision(s.logName, outcomeFlood)
}

func (s *Multicast) AfterReceiveNack(
	packet *defn.Pkt,
	pitEntry table.PitEntry,
	inFace uint64,
) {
	s.StrategyBase.AfterReceiveNack(packet, pitEntry, inFace)
	s.nackWhenExhausted(packet, pitEntry, inFace)
}
