/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package fw

import (
	"encoding/binary"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"github.com/named-data/kite/fw/core"
	"github.com/named-data/kite/fw/defn"
	"github.com/named-data/kite/fw/face"
	"github.com/named-data/kite/fw/table"
	enc "github.com/named-data/kite/std/encoding"
	"github.com/named-data/kite/std/types/optional"
)

// MaxFwThreads Maximum number of forwarding threads
const MaxFwThreads = 32

// Threads contains all forwarding threads
var Threads []*Thread

// HashNameToFwThread hashes an NDN name to one of nThreads forwarding threads.
func HashNameToFwThread(name enc.Name, nThreads int) int {
	// Dispatch all management requests to thread 0
	if nThreads <= 1 || (len(name) > 0 && name[0].Equal(enc.LOCALHOST)) {
		return 0
	}
	return int(name.Hash() % uint64(nThreads))
}

// DispatchPacket queues an Interest or Nack on the thread owning its name.
func DispatchPacket(packet *defn.Pkt) {
	if len(Threads) == 0 {
		core.Log.Error(nil, "No forwarding thread to dispatch to", "name", packet.Name)
		return
	}
	thread := Threads[HashNameToFwThread(packet.Name, len(Threads))]
	if packet.IsNack() {
		thread.QueueNack(packet)
	} else {
		thread.QueueInterest(packet)
	}
}

// Thread Represents a forwarding thread
type Thread struct {
	threadID      int
	pending       chan *defn.Pkt
	pit           *table.PitTree
	strategies    map[uint64]Strategy
	deadNonceList *table.DeadNonceList
	faces         *face.Table
	fib           *table.FibStrategyTree
	tib           *table.TraceTable
	flush         chan chan struct{}
	shouldQuit    chan interface{}
	HasQuit       chan interface{}

	// Counters
	nInInterests          atomic.Uint64
	nOutInterests         atomic.Uint64
	nInNacks              atomic.Uint64
	nOutNacks             atomic.Uint64
	nRejectedInterests    atomic.Uint64
	nUnsatisfiedInterests atomic.Uint64
	deadNonceLen          atomic.Int64
}

// NewThread creates a new forwarding thread over the given shared tables.
// Nil tables are replaced by the global ones.
func NewThread(id int, faces *face.Table, fib *table.FibStrategyTree, tib *table.TraceTable) *Thread {
	if faces == nil {
		faces = face.FaceTable
	}
	if fib == nil {
		fib = table.FibStrategyTable
	}
	if tib == nil {
		tib = table.Tib
	}

	t := new(Thread)
	t.threadID = id
	t.pending = make(chan *defn.Pkt, CfgFwQueueSize())
	t.pit = table.NewPitTree(t.finalizeInterest)
	t.deadNonceList = table.NewDeadNonceList()
	t.faces = faces
	t.fib = fib
	t.tib = tib
	t.flush = make(chan chan struct{})
	t.shouldQuit = make(chan interface{}, 1)
	t.HasQuit = make(chan interface{}, 1)
	t.strategies = InstantiateStrategies(t)
	return t
}

func (t *Thread) String() string {
	return fmt.Sprintf("fw-thread-%d", t.threadID)
}

// GetID returns the ID of the forwarding thread
func (t *Thread) GetID() int {
	return t.threadID
}

// GetNumPitEntries returns the number of entries in this thread's PIT.
func (t *Thread) GetNumPitEntries() int {
	return t.pit.PitSize()
}

// Counters returns a snapshot of the thread's counters. Safe to call from any goroutine.
func (t *Thread) Counters() defn.FWThreadCounters {
	return defn.FWThreadCounters{
		NPitEntries:           t.pit.PitSize(),
		NInInterests:          t.nInInterests.Load(),
		NOutInterests:         t.nOutInterests.Load(),
		NInNacks:              t.nInNacks.Load(),
		NOutNacks:             t.nOutNacks.Load(),
		NRejectedInterests:    t.nRejectedInterests.Load(),
		NUnsatisfiedInterests: t.nUnsatisfiedInterests.Load(),
	}
}

// TellToQuit tells the forwarding thread to quit
func (t *Thread) TellToQuit() {
	core.Log.Info(t, "Told to quit")
	t.shouldQuit <- true
}

// Run forwarding thread. Packets already queued when told to quit are
// processed before the thread stops.
// Thread 0 also purges expired nexthops from the shared TIB.
func (t *Thread) Run() {
	pitUpdateTimer := t.pit.UpdateTicker()

	var tibPruneTimer <-chan time.Time
	if interval := table.CfgTibPruneInterval(); t.threadID == 0 && interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tibPruneTimer = ticker.C
	}

loop:
	for {
		select {
		case pendingPacket := <-t.pending:
			t.processPacket(pendingPacket)
		case <-t.deadNonceList.Ticker.C:
			t.deadNonceList.RemoveExpiredEntries()
			t.deadNonceLen.Store(int64(t.deadNonceList.Len()))
		case <-pitUpdateTimer:
			t.pit.Update()
		case <-tibPruneTimer:
			if n := t.tib.Prune(); n > 0 {
				core.Log.Debug(t, "Pruned expired trace nexthops", "count", n)
			}
		case done := <-t.flush:
			t.drain()
			close(done)
		case <-t.shouldQuit:
			break loop
		}
	}

	t.drain()

	t.deadNonceList.Ticker.Stop()
	t.pit.Stop()

	core.Log.Info(t, "Stopping thread")
	t.HasQuit <- true
}

// Flush blocks until every packet queued before the call has been processed.
// The thread must be running.
func (t *Thread) Flush() {
	done := make(chan struct{})
	t.flush <- done
	<-done
}

func (t *Thread) drain() {
	for {
		select {
		case pendingPacket := <-t.pending:
			t.processPacket(pendingPacket)
		default:
			return
		}
	}
}

func (t *Thread) processPacket(packet *defn.Pkt) {
	if packet.L3 == nil || packet.L3.Interest == nil {
		core.Log.Warn(t, "Dropping packet without Interest", "name", packet.Name)
		return
	}
	if packet.IsNack() {
		t.processIncomingNack(packet)
	} else {
		t.processIncomingInterest(packet)
	}
}

// QueueInterest queues an Interest for processing by this forwarding thread.
func (t *Thread) QueueInterest(interest *defn.Pkt) {
	select {
	case t.pending <- interest:
	default:
		core.Log.Error(t, "Interest dropped due to full queue")
	}
}

// QueueNack queues a Nack for processing by this forwarding thread.
// Nacks share the Interest queue so their order relative to Interests is kept.
func (t *Thread) QueueNack(nack *defn.Pkt) {
	select {
	case t.pending <- nack:
	default:
		core.Log.Error(t, "Nack dropped due to full queue")
	}
}

func (t *Thread) processIncomingInterest(packet *defn.Pkt) {
	interest := packet.L3.Interest

	// Get incoming face
	incomingFace := t.faces.Get(packet.IncomingFaceID)
	if incomingFace == nil {
		core.Log.Error(t, "Interest has non-existent incoming face", "faceid", packet.IncomingFaceID, "name", packet.Name)
		return
	}

	if interest.HopLimitV != nil {
		core.Log.Trace(t, "HopLimit check", "name", packet.Name, "hoplimit", *interest.HopLimitV)
		if *interest.HopLimitV == 0 {
			return
		}
		*interest.HopLimitV -= 1
	}

	core.Log.Trace(t, "OnIncomingInterest", "name", packet.Name, "faceid", incomingFace.FaceID())

	// Check if violates /localhost
	if incomingFace.Scope() == defn.NonLocal && len(packet.Name) > 0 && packet.Name[0].Equal(enc.LOCALHOST) {
		core.Log.Warn(t, "Interest from non-local face violates /localhost scope", "name", packet.Name, "faceid", incomingFace.FaceID())
		return
	}

	t.nInInterests.Add(1)

	// Drop packet if no nonce is found
	nonce, ok := interest.NonceV.Get()
	if !ok {
		core.Log.Debug(t, "Interest is missing Nonce", "name", packet.Name)
		return
	}

	// Check if packet is in dead nonce list
	if exists := t.deadNonceList.Find(interest.NameV, nonce); exists {
		core.Log.Debug(t, "Interest is looping (DNL)", "name", packet.Name, "nonce", nonce)
		return
	}

	// Check if any matching PIT entries (and if duplicate)
	pitEntry, isDuplicate := t.pit.InsertInterest(interest, incomingFace.FaceID())
	if isDuplicate {
		core.Log.Debug(t, "Interest is looping (PIT)", "name", packet.Name, "nonce", nonce)
		if incomingFace.LinkType() == defn.PointToPoint {
			t.sendNackToFace(incomingFace, interest, defn.NackReasonDuplicate, packet.PitToken)
		}
		return
	}

	// Add in-record and determine if already pending
	_, isAlreadyPending, prevNonce := pitEntry.InsertInRecord(
		interest, incomingFace.FaceID(), packet.PitToken)
	if !isAlreadyPending {
		core.Log.Trace(t, "Interest is not pending", "name", packet.Name)
	} else {
		core.Log.Trace(t, "Interest is already pending", "name", packet.Name)

		// Add the previous nonce to the dead nonce list to prevent further looping
		t.deadNonceList.Insert(interest.Name(), prevNonce)
	}

	// Update PIT entry expiration timer
	table.UpdateExpirationTimer(pitEntry, lastInRecordExpiry(pitEntry))

	// If NextHopFaceId set, forward to that face (if it exists) or drop
	if packet.NextHopFaceID != nil {
		core.Log.Trace(t, "NextHopFaceId is set for Interest", "name", packet.Name)
		t.processOutgoingInterest(packet, pitEntry, *packet.NextHopFaceID, incomingFace.FaceID())
		return
	}

	// Pass to strategy AfterReceiveInterest pipeline
	strategy := t.strategyFor(interest.Name())
	strategy.AfterReceiveInterest(packet, pitEntry, incomingFace.FaceID())
}

func (t *Thread) processOutgoingInterest(
	packet *defn.Pkt,
	pitEntry table.PitEntry,
	nexthop uint64,
	inFace uint64,
) bool {
	interest := packet.L3.Interest

	core.Log.Trace(t, "OnOutgoingInterest", "name", packet.Name, "faceid", nexthop)

	// Get outgoing face
	outgoingFace := t.faces.Get(nexthop)
	if outgoingFace == nil {
		core.Log.Error(t, "Non-existent nexthop", "name", packet.Name, "faceid", nexthop)
		return false
	}
	if outgoingFace.FaceID() == inFace && outgoingFace.LinkType() != defn.AdHoc {
		core.Log.Debug(t, "Prevent send Interest back to incoming face", "name", packet.Name, "faceid", nexthop)
		return false
	}

	// Drop if HopLimit (if present) on Interest going to non-local face is 0. If so, drop
	if interest.HopLimitV != nil && int(*interest.HopLimitV) == 0 &&
		outgoingFace.Scope() == defn.NonLocal {
		core.Log.Debug(t, "Prevent send Interest with HopLimit=0 to non-local face", "name", packet.Name, "faceid", nexthop)
		return false
	}

	// Create or update out-record
	pitEntry.InsertOutRecord(interest, nexthop)

	t.nOutInterests.Add(1)

	// Send on outgoing face
	outgoingFace.SendPacket(face.OutPkt{
		Pkt:      packet,
		PitToken: t.pitToken(pitEntry),
		InFace:   inFace,
	})

	return true
}

func (t *Thread) processIncomingNack(packet *defn.Pkt) {
	nack := packet.L3.Nack
	interest := packet.L3.Interest

	incomingFace := t.faces.Get(packet.IncomingFaceID)
	if incomingFace == nil {
		core.Log.Error(t, "Nack has non-existent incoming face", "faceid", packet.IncomingFaceID, "name", packet.Name)
		return
	}

	t.nInNacks.Add(1)

	core.Log.Trace(t, "OnIncomingNack", "name", packet.Name, "faceid", incomingFace.FaceID(),
		"reason", defn.NackReasonString(nack.Reason))

	if incomingFace.LinkType() == defn.MultiAccess {
		core.Log.Debug(t, "Nack received on multi-access face - DROP", "name", packet.Name)
		return
	}

	pitEntry := t.pit.FindInterestExactMatchEnc(interest)
	if pitEntry == nil {
		core.Log.Debug(t, "Nack has no matching PIT entry - DROP", "name", packet.Name)
		return
	}

	outRecord := pitEntry.OutRecords()[incomingFace.FaceID()]
	if outRecord == nil {
		core.Log.Debug(t, "Nack has no matching out-record - DROP", "name", packet.Name, "faceid", incomingFace.FaceID())
		return
	}
	if nonce, ok := interest.NonceV.Get(); !ok || nonce != outRecord.LatestNonce {
		core.Log.Debug(t, "Nack nonce does not match out-record - DROP", "name", packet.Name)
		return
	}

	strategy := t.strategyFor(pitEntry.EncName())
	strategy.AfterReceiveNack(packet, pitEntry, incomingFace.FaceID())
}

// processOutgoingNack sends a Nack to the downstream of an in-record and removes the in-record.
func (t *Thread) processOutgoingNack(pitEntry table.PitEntry, faceID uint64, nack *defn.FwNack) bool {
	inRecord := pitEntry.InRecords()[faceID]
	if inRecord == nil {
		return false
	}

	outgoingFace := t.faces.Get(faceID)
	if outgoingFace == nil {
		core.Log.Error(t, "Non-existent face for Nack", "name", pitEntry.EncName(), "faceid", faceID)
		return false
	}
	if outgoingFace.LinkType() == defn.MultiAccess {
		core.Log.Debug(t, "Prevent send Nack to multi-access face", "name", pitEntry.EncName(), "faceid", faceID)
		return false
	}

	interest := &defn.FwInterest{
		NameV:        inRecord.LatestInterest,
		CanBePrefixV: pitEntry.CanBePrefix(),
		MustBeFreshV: pitEntry.MustBeFresh(),
		NonceV:       optional.Some(inRecord.LatestNonce),
	}
	pitToken := inRecord.PitToken
	pitEntry.RemoveInRecord(faceID)

	core.Log.Trace(t, "OnOutgoingNack", "name", interest.NameV, "faceid", faceID,
		"reason", defn.NackReasonString(nack.Reason))
	t.sendNackToFace(outgoingFace, interest, nack.Reason, pitToken)
	return true
}

func (t *Thread) sendNackToFace(outgoingFace face.Face, interest *defn.FwInterest, reason uint64, pitToken []byte) {
	packet := defn.MakeNackPkt(interest, reason, 0)
	packet.PitToken = pitToken

	t.nOutNacks.Add(1)
	outgoingFace.SendPacket(face.OutPkt{
		Pkt:      packet,
		PitToken: pitToken,
	})
}

func (t *Thread) finalizeInterest(pitEntry table.PitEntry) {
	// Check for nonces to insert into dead nonce list
	for _, outRecord := range pitEntry.OutRecords() {
		t.deadNonceList.Insert(outRecord.LatestInterest, outRecord.LatestNonce)
	}
	t.deadNonceLen.Store(int64(t.deadNonceList.Len()))

	// Counters
	if !pitEntry.Satisfied() {
		t.nUnsatisfiedInterests.Add(uint64(len(pitEntry.InRecords())))
	}
}

// strategyFor returns the strategy chosen for name, instantiating it on first use.
func (t *Thread) strategyFor(name enc.Name) Strategy {
	strategyName := t.fib.FindStrategyEnc(name)
	if strategy, ok := t.strategies[strategyName.Hash()]; ok {
		return strategy
	}

	strategy, err := NewStrategy(t, strategyName)
	if err != nil {
		core.Log.Warn(t, "Unusable strategy choice, using default", "name", name, "strategy", strategyName, "err", err)
		return t.strategies[bestRouteName.Hash()]
	}
	if existing, ok := t.strategies[strategy.GetName().Hash()]; ok {
		strategy = existing
	}
	t.strategies[strategyName.Hash()] = strategy
	return strategy
}

func (t *Thread) pitToken(pitEntry table.PitEntry) []byte {
	pitToken := make([]byte, 6)
	binary.BigEndian.PutUint16(pitToken, uint16(t.threadID))
	binary.BigEndian.PutUint32(pitToken[2:], pitEntry.Token())
	return pitToken
}

func lastInRecordExpiry(pitEntry table.PitEntry) time.Time {
	var last time.Time
	for _, inRecord := range pitEntry.InRecords() {
		if inRecord.ExpirationTime.After(last) {
			last = inRecord.ExpirationTime
		}
	}
	return last
}

// ----- Forwarder -----

// LookupTib returns the TIB entry for the PIT entry's name.
func (t *Thread) LookupTib(pitEntry table.PitEntry) table.TibEntry {
	return t.tib.FindLongestPrefixEntryEnc(pitEntry.EncName())
}

// LookupFib returns the longest-prefix FIB entry for the PIT entry's name.
func (t *Thread) LookupFib(pitEntry table.PitEntry) table.FibEntry {
	return t.fib.FindLongestPrefixEntryEnc(pitEntry.EncName())
}

// SendInterest runs the outgoing Interest pipeline.
func (t *Thread) SendInterest(packet *defn.Pkt, pitEntry table.PitEntry, nexthop uint64, inFace uint64) bool {
	return t.processOutgoingInterest(packet, pitEntry, nexthop, inFace)
}

// SendNacks sends a Nack to every in-record face, in face ID order.
func (t *Thread) SendNacks(pitEntry table.PitEntry, nack *defn.FwNack, inFace uint64) {
	faces := make([]uint64, 0, len(pitEntry.InRecords()))
	for faceID := range pitEntry.InRecords() {
		faces = append(faces, faceID)
	}
	slices.Sort(faces)

	core.Log.Trace(t, "SendNacks", "name", pitEntry.EncName(), "faces", len(faces), "from", inFace)
	for _, faceID := range faces {
		t.processOutgoingNack(pitEntry, faceID, nack)
	}
}

// RejectPendingInterest expires the PIT entry now, answering the downstreams
// with a NoRoute Nack if fw.nack_on_reject is set.
func (t *Thread) RejectPendingInterest(pitEntry table.PitEntry) {
	t.nRejectedInterests.Add(1)
	core.Log.Debug(t, "Rejecting pending Interest", "name", pitEntry.EncName())

	if CfgNackOnReject() {
		t.SendNacks(pitEntry, &defn.FwNack{Reason: defn.NackReasonNoRoute}, 0)
	}
	table.UpdateExpirationTimer(pitEntry, time.Now())
}

// WouldViolateScope checks the /localhost and /localhop scope rules.
// Unknown faces are never eligible.
func (t *Thread) WouldViolateScope(inFace uint64, interest *defn.FwInterest, outFace uint64) bool {
	out := t.faces.Get(outFace)
	if out == nil {
		return true
	}
	inScope := defn.NonLocal
	if in := t.faces.Get(inFace); in != nil {
		inScope = in.Scope()
	}
	return wouldViolateScope(inScope, interest.Name(), out.Scope())
}

// CanForwardToLegacy reports whether the PIT entry may be forwarded to outFace.
func (t *Thread) CanForwardToLegacy(pitEntry table.PitEntry, outFace uint64) bool {
	return canForwardToLegacy(pitEntry, outFace, time.Now())
}
