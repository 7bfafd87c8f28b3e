/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package face

import "github.com/named-data/kite/fw/defn"

// NullFace is a face that drops all packets.
type NullFace struct {
	faceBase
}

// MakeNullFace makes a NullFace.
func MakeNullFace() *NullFace {
	return &NullFace{
		faceBase: faceBase{scope: defn.NonLocal, linkType: defn.PointToPoint},
	}
}

func (f *NullFace) String() string {
	return f.describe("null-face")
}

func (f *NullFace) SendPacket(OutPkt) {
	// Do nothing
}
