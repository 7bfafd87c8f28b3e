/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package table

import (
	"time"

	"github.com/named-data/kite/fw/defn"
	enc "github.com/named-data/kite/std/encoding"
)

// PitTable dictates what functionality a PIT should implement
// Warning: All functions must be called in the same forwarding goroutine as the creation of the table.
type PitTable interface {
	// InsertInterest inserts an Interest into the PIT.
	// The second return value reports a duplicate nonce from another face (a loop).
	InsertInterest(interest *defn.FwInterest, inFace uint64) (PitEntry, bool)
	// RemoveInterest removes an Interest from the PIT.
	RemoveInterest(pitEntry PitEntry) bool
	// FindInterestExactMatchEnc finds an exact match for an Interest in the PIT.
	FindInterestExactMatchEnc(interest *defn.FwInterest) PitEntry
	// PitSize returns the number of entries in the PIT.
	PitSize() int

	// UpdateTicker returns the channel used to signal regular Update() calls in the forwarding thread.
	UpdateTicker() <-chan time.Time
	// Update expires the entries whose expiration time has passed.
	Update()

	// updatePitExpiry updates the PIT entry's expiration time.
	updatePitExpiry(pitEntry PitEntry)
}

// PitEntry dictates what entries in a PIT should implement
type PitEntry interface {
	Pit() PitTable
	EncName() enc.Name
	CanBePrefix() bool
	MustBeFresh() bool

	InRecords() map[uint64]*PitInRecord   // Key is face ID
	OutRecords() map[uint64]*PitOutRecord // Key is face ID

	ExpirationTime() time.Time
	setExpirationTime(t time.Time) // use table.UpdateExpirationTimer()

	Satisfied() bool
	SetSatisfied(isSatisfied bool)

	Token() uint32

	InsertInRecord(interest *defn.FwInterest, face uint64, incomingPitToken []byte) (*PitInRecord, bool, uint32)
	InsertOutRecord(interest *defn.FwInterest, face uint64) *PitOutRecord

	RemoveInRecord(face uint64)
	RemoveOutRecord(face uint64)
	ClearOutRecords()
	ClearInRecords()
}

// basePitEntry contains PIT entry properties common to all tables.
type basePitEntry struct {
	encname        enc.Name
	canBePrefix    bool
	mustBeFresh    bool
	inRecords      map[uint64]*PitInRecord  // Key is face ID
	outRecords     map[uint64]*PitOutRecord // Key is face ID
	expirationTime time.Time
	satisfied      bool

	token uint32
}

// PitInRecord records an incoming Interest on a given face.
type PitInRecord struct {
	Face            uint64
	LatestTimestamp time.Time
	LatestNonce     uint32
	LatestInterest  enc.Name
	ExpirationTime  time.Time
	PitToken        []byte
}

// PitOutRecord records an outgoing Interest on a given face.
type PitOutRecord struct {
	Face            uint64
	LatestTimestamp time.Time
	LatestNonce     uint32
	LatestInterest  enc.Name
	ExpirationTime  time.Time
	// Set when a Nack for the latest Interest arrived on this face
	IncomingNack *defn.FwNack
}

// IsExpired reports whether the in-record has expired at now.
func (r *PitInRecord) IsExpired(now time.Time) bool {
	return !r.ExpirationTime.After(now)
}

// IsExpired reports whether the out-record has expired at now.
func (r *PitOutRecord) IsExpired(now time.Time) bool {
	return !r.ExpirationTime.After(now)
}

func newBasePitEntry() basePitEntry {
	return basePitEntry{
		inRecords:  make(map[uint64]*PitInRecord),
		outRecords: make(map[uint64]*PitOutRecord),
	}
}

// InsertInRecord finds or inserts an InRecord for the face, updating the
// metadata and returning whether there was already an in-record in the entry.
// The third return value is the previous nonce if the in-record already existed.
func (bpe *basePitEntry) InsertInRecord(
	interest *defn.FwInterest,
	face uint64,
	incomingPitToken []byte,
) (*PitInRecord, bool, uint32) {
	now := time.Now()
	lifetime := interest.Lifetime().GetOr(CfgPitDefaultLifetime())

	record, ok := bpe.inRecords[face]
	if !ok {
		record = &PitInRecord{
			Face:            face,
			LatestNonce:     interest.NonceV.Unwrap(),
			LatestInterest:  interest.NameV,
			LatestTimestamp: now,
			ExpirationTime:  now.Add(lifetime),
			PitToken:        append([]byte{}, incomingPitToken...),
		}
		bpe.inRecords[face] = record
		return record, false, 0
	}

	// Existing record
	previousNonce := record.LatestNonce
	record.LatestNonce = interest.NonceV.Unwrap()
	record.LatestInterest = interest.NameV
	record.LatestTimestamp = now
	record.ExpirationTime = now.Add(lifetime)
	return record, true, previousNonce
}

// InsertOutRecord inserts an outrecord for the given interest, updating the
// preexisting one if it already occcurs. A fresh Interest clears any earlier Nack.
func (bpe *basePitEntry) InsertOutRecord(interest *defn.FwInterest, face uint64) *PitOutRecord {
	now := time.Now()
	lifetime := interest.Lifetime().GetOr(CfgPitDefaultLifetime())

	record, ok := bpe.outRecords[face]
	if !ok {
		record = &PitOutRecord{Face: face}
		bpe.outRecords[face] = record
	}
	record.LatestNonce = interest.NonceV.Unwrap()
	record.LatestInterest = interest.NameV
	record.LatestTimestamp = now
	record.ExpirationTime = now.Add(lifetime)
	record.IncomingNack = nil
	return record
}

// UpdateExpirationTimer sets the expiration time of the PIT entry.
func UpdateExpirationTimer(e PitEntry, t time.Time) {
	e.setExpirationTime(t)
	e.Pit().updatePitExpiry(e)
}

// /// Setters and Getters /////
func (bpe *basePitEntry) EncName() enc.Name {
	return bpe.encname
}

func (bpe *basePitEntry) CanBePrefix() bool {
	return bpe.canBePrefix
}

func (bpe *basePitEntry) MustBeFresh() bool {
	return bpe.mustBeFresh
}

func (bpe *basePitEntry) InRecords() map[uint64]*PitInRecord {
	return bpe.inRecords
}

func (bpe *basePitEntry) OutRecords() map[uint64]*PitOutRecord {
	return bpe.outRecords
}

func (bpe *basePitEntry) RemoveInRecord(face uint64) {
	delete(bpe.inRecords, face)
}

func (bpe *basePitEntry) RemoveOutRecord(face uint64) {
	delete(bpe.outRecords, face)
}

// ClearInRecords removes all in-records from the PIT entry.
func (bpe *basePitEntry) ClearInRecords() {
	clear(bpe.inRecords)
}

// ClearOutRecords removes all out-records from the PIT entry.
func (bpe *basePitEntry) ClearOutRecords() {
	clear(bpe.outRecords)
}

func (bpe *basePitEntry) ExpirationTime() time.Time {
	return bpe.expirationTime
}

func (bpe *basePitEntry) setExpirationTime(t time.Time) {
	bpe.expirationTime = t
}

func (bpe *basePitEntry) Satisfied() bool {
	return bpe.satisfied
}

func (bpe *basePitEntry) SetSatisfied(isSatisfied bool) {
	bpe.satisfied = isSatisfied
}

func (bpe *basePitEntry) Token() uint32 {
	return bpe.token
}
