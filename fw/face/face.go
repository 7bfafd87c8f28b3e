/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package face

import (
	"fmt"

	"github.com/named-data/kite/fw/defn"
)

// OutPkt is a packet handed to a face for transmission.
type OutPkt struct {
	Pkt      *defn.Pkt
	PitToken []byte
	InFace   uint64
}

// Face is a forwarder face as seen by the forwarding threads.
type Face interface {
	String() string
	FaceID() uint64
	SetFaceID(faceID uint64)
	Scope() defn.Scope
	LinkType() defn.LinkType
	// SendPacket queues a packet for transmission. It must not block.
	SendPacket(out OutPkt)
}

// faceBase holds the state common to all faces.
type faceBase struct {
	faceID   uint64
	scope    defn.Scope
	linkType defn.LinkType
}

func (f *faceBase) FaceID() uint64 {
	return f.faceID
}

func (f *faceBase) SetFaceID(faceID uint64) {
	f.faceID = faceID
}

func (f *faceBase) Scope() defn.Scope {
	return f.scope
}

func (f *faceBase) LinkType() defn.LinkType {
	return f.linkType
}

func (f *faceBase) describe(kind string) string {
	return fmt.Sprintf("%s (faceid=%d scope=%s link=%s)", kind, f.faceID, f.scope, f.linkType)
}
