/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package table

import (
	"time"

	enc "github.com/named-data/kite/std/encoding"
	"github.com/named-data/kite/std/types/priority_queue"
)

// DeadNonceList represents the Dead Nonce List for a forwarding thread.
type DeadNonceList struct {
	list            map[uint64]bool
	expirationQueue priority_queue.Queue[uint64, int64]
	Ticker          *time.Ticker
}

// NewDeadNonceList creates a new Dead Nonce List for a forwarding thread.
func NewDeadNonceList() *DeadNonceList {
	d := new(DeadNonceList)
	d.list = make(map[uint64]bool)
	d.Ticker = time.NewTicker(100 * time.Millisecond)
	d.expirationQueue = priority_queue.New[uint64, int64]()
	return d
}

func dnlHash(name enc.Name, nonce uint32) uint64 {
	return name.Hash() ^ uint64(nonce)
}

// Find returns whether the specified name and nonce combination are present in the Dead Nonce List.
func (d *DeadNonceList) Find(name enc.Name, nonce uint32) bool {
	return d.list[dnlHash(name, nonce)]
}

// Insert inserts an entry in the Dead Nonce List with the specified name and nonce.
// Returns whether nonce already present.
func (d *DeadNonceList) Insert(name enc.Name, nonce uint32) bool {
	hash := dnlHash(name, nonce)
	exists := d.list[hash]
	if !exists {
		d.list[hash] = true
		d.expirationQueue.Push(hash, time.Now().Add(CfgDeadNonceListLifetime()).UnixNano())
	}
	return exists
}

// RemoveExpiredEntries removes up to 100 expired entries from the Dead Nonce List.
func (d *DeadNonceList) RemoveExpiredEntries() {
	evicted := 0
	now := time.Now().UnixNano()
	for d.expirationQueue.Len() > 0 && d.expirationQueue.PeekPriority() < now {
		delete(d.list, d.expirationQueue.Pop())
		evicted++
		if evicted >= 100 {
			break
		}
	}
}

// Len returns the number of entries in the Dead Nonce List.
func (d *DeadNonceList) Len() int {
	return len(d.list)
}
