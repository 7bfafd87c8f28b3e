/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package fw

import (
	"fmt"

	"github.com/named-data/kite/fw/core"
	"github.com/named-data/kite/fw/defn"
	"github.com/named-data/kite/fw/table"
	enc "github.com/named-data/kite/std/encoding"
)

// Forwarder is what a strategy may ask of the forwarding thread that runs it.
// All methods are called from the thread's own goroutine.
type Forwarder interface {
	String() string

	// LookupTib returns the trace entry for the PIT entry's name. It may have no nexthops.
	LookupTib(pitEntry table.PitEntry) table.TibEntry
	// LookupFib returns the longest-prefix FIB entry for the PIT entry's name.
	LookupFib(pitEntry table.PitEntry) table.FibEntry

	// SendInterest sends the Interest to nexthop, creating an out-record.
	// It returns false if the outgoing pipeline dropped the Interest.
	SendInterest(packet *defn.Pkt, pitEntry table.PitEntry, nexthop uint64, inFace uint64) bool
	// SendNacks sends a Nack with the given header to every in-record face.
	SendNacks(pitEntry table.PitEntry, nack *defn.FwNack, inFace uint64)
	// RejectPendingInterest gives up on the PIT entry.
	RejectPendingInterest(pitEntry table.PitEntry)

	// WouldViolateScope reports whether sending the Interest from inFace to outFace breaks /localhost or /localhop scope.
	WouldViolateScope(inFace uint64, interest *defn.FwInterest, outFace uint64) bool
	// CanForwardToLegacy reports whether the PIT entry may be forwarded to outFace.
	CanForwardToLegacy(pitEntry table.PitEntry, outFace uint64) bool
}

// Strategy represents a forwarding strategy.
type Strategy interface {
	String() string
	GetName() enc.Name

	AfterReceiveInterest(
		packet *defn.Pkt,
		pitEntry table.PitEntry,
		inFace uint64)
	AfterReceiveNack(
		packet *defn.Pkt,
		pitEntry table.PitEntry,
		inFace uint64)
}

// StrategyBase provides common helper methods for forwarding strategies.
type StrategyBase struct {
	fwd     Forwarder
	name    enc.Name
	version uint64
	logName string
}

// NewStrategyBase is a helper that allows specific strategies to initialize the base.
// instance is the full instance name, including the version.
func (s *StrategyBase) NewStrategyBase(
	fwd Forwarder,
	instance enc.Name,
	version uint64,
	logName string,
) {
	s.fwd = fwd
	s.name = instance
	s.version = version
	s.logName = logName
}

func (s *StrategyBase) String() string {
	return fmt.Sprintf("%s (v=%d %s)", s.logName, s.version, s.fwd)
}

// GetName returns the name of strategy, including version information.
func (s *StrategyBase) GetName() enc.Name {
	return s.name
}

// SendInterest sends an Interest on the specified face.
func (s *StrategyBase) SendInterest(
	packet *defn.Pkt,
	pitEntry table.PitEntry,
	nexthop uint64,
	inFace uint64,
) bool {
	return s.fwd.SendInterest(packet, pitEntry, nexthop, inFace)
}

// AfterReceiveNack records the Nack on the out-record of the face it came from.
func (s *StrategyBase) AfterReceiveNack(
	packet *defn.Pkt,
	pitEntry table.PitEntry,
	inFace uint64,
) {
	nack := packet.L3.Nack
	core.Log.Debug(s, "AfterReceiveNack", "name", packet.Name, "faceid", inFace,
		"reason", defn.NackReasonString(nack.Reason))

	if outRecord := pitEntry.OutRecords()[inFace]; outRecord != nil {
		outRecord.IncomingNack = &defn.FwNack{Reason: nack.Reason}
	}
}

// canForwardToNextHop is the eligibility check shared by the strategies.
func canForwardToNextHop(
	fwd Forwarder,
	inFace uint64,
	pitEntry table.PitEntry,
	interest *defn.FwInterest,
	nexthop *table.FibNextHopEntry,
) bool {
	return !fwd.WouldViolateScope(inFace, interest, nexthop.Nexthop) &&
		fwd.CanForwardToLegacy(pitEntry, nexthop.Nexthop)
}
