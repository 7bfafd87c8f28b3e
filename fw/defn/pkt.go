/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package defn

import (
	"fmt"
	"time"

	enc "github.com/named-data/kite/std/encoding"
	"github.com/named-data/kite/std/types/optional"
)

// Network Nack reasons (NDNLPv2).
const (
	NackReasonNone       = uint64(0)
	NackReasonCongestion = uint64(50)
	NackReasonDuplicate  = uint64(100)
	NackReasonNoRoute    = uint64(150)
)

// FwInterest is the part of an Interest the forwarder looks at.
type FwInterest struct {
	NameV        enc.Name
	CanBePrefixV bool
	MustBeFreshV bool
	NonceV       optional.Optional[uint32]
	LifetimeV    optional.Optional[time.Duration]
	HopLimitV    *byte
}

// FwNack is a network Nack header.
type FwNack struct {
	Reason uint64
}

// FwPacket holds the decoded network-layer packet. Interest is always set;
// Nack is set together with the Interest it refers to.
type FwPacket struct {
	Interest *FwInterest
	Nack     *FwNack
}

// Name returns the Name value stored in the Interest.
func (p *FwInterest) Name() enc.Name {
	return p.NameV
}

// Lifetime returns the InterestLifetime carried by the Interest, if any.
func (p *FwInterest) Lifetime() optional.Optional[time.Duration] {
	return p.LifetimeV
}

// NackReasonString names a Nack reason for logs.
func NackReasonString(reason uint64) string {
	switch reason {
	case NackReasonNone:
		return "None"
	case NackReasonCongestion:
		return "Congestion"
	case NackReasonDuplicate:
		return "Duplicate"
	case NackReasonNoRoute:
		return "NoRoute"
	default:
		return fmt.Sprintf("Unknown(%d)", reason)
	}
}

// Pkt represents a pending packet to be sent or recently
// received on the link, plus any associated metadata.
type Pkt struct {
	Name enc.Name
	L3   *FwPacket

	PitToken       []byte
	IncomingFaceID uint64
	NextHopFaceID  *uint64
}

// IsNack reports whether the packet is a network Nack.
func (p *Pkt) IsNack() bool {
	return p.L3 != nil && p.L3.Nack != nil
}

// MakeInterestPkt wraps an Interest received on inFace.
func MakeInterestPkt(interest *FwInterest, inFace uint64) *Pkt {
	return &Pkt{
		Name:           interest.NameV,
		L3:             &FwPacket{Interest: interest},
		IncomingFaceID: inFace,
	}
}

// MakeNackPkt wraps a Nack of the given Interest received on inFace.
func MakeNackPkt(interest *FwInterest, reason uint64, inFace uint64) *Pkt {
	return &Pkt{
		Name:           interest.NameV,
		L3:             &FwPacket{Interest: interest, Nack: &FwNack{Reason: reason}},
		IncomingFaceID: inFace,
	}
}

// ParseNackReason parses a Nack reason name as printed by NackReasonString.
func ParseNackReason(s string) (uint64, error) {
	switch s {
	case "None", "":
		return NackReasonNone, nil
	case "Congestion":
		return NackReasonCongestion, nil
	case "Duplicate":
		return NackReasonDuplicate, nil
	case "NoRoute":
		return NackReasonNoRoute, nil
	}
	return 0, fmt.Errorf("unknown nack reason %q", s)
}
