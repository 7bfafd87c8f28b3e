package face

import (
	"sync"

	"github.com/named-data/kite/fw/defn"
)

// MemoryFace is a face that keeps every packet it is asked to send.
type MemoryFace struct {
	faceBase
	mutex sync.Mutex
	sent  []OutPkt
}

// MakeMemoryFace makes a MemoryFace.
func MakeMemoryFace(scope defn.Scope, linkType defn.LinkType) *MemoryFace {
	return &MemoryFace{
		faceBase: faceBase{scope: scope, linkType: linkType},
	}
}

func (f *MemoryFace) String() string {
	return f.describe("memory-face")
}

func (f *MemoryFace) SendPacket(out OutPkt) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.sent = append(f.sent, out)
}

// Sent returns a copy of the packets sent so far, oldest first.
func (f *MemoryFace) Sent() []OutPkt {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return append([]OutPkt{}, f.sent...)
}

// Reset forgets the recorded packets.
func (f *MemoryFace) Reset() {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.sent = nil
}
