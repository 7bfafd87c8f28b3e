package cmd

import (
	"fmt"

	"github.com/named-data/kite/fw/core"
	"github.com/named-data/kite/fw/defn"
	"github.com/named-data/kite/fw/table"
	enc "github.com/named-data/kite/std/encoding"
)

// mobileApp is a mobile node. Associating with a new node moves the trace of
// its prefix to the face toward that node.
type mobileApp struct {
	node    uint64
	prefix  enc.Name
	tib     *table.TraceTable
	faceOf  func(node uint64) (uint64, bool)
}

func (a *mobileApp) String() string {
	return fmt.Sprintf("mobile (node=%d prefix=%s)", a.node, a.prefix)
}

func (a *mobileApp) NotifyAttach(node uint64) error {
	a.tib.ClearNextHopsEnc(a.prefix)

	faceID, ok := a.faceOf(node)
	if !ok {
		// attached somewhere this forwarder has no face toward
		core.Log.Info(a, "Attached out of reach, trace removed", "attach", node)
		return nil
	}
	a.tib.InsertNextHopEnc(a.prefix, faceID, 0, 0)
	core.Log.Info(a, "Attached, trace updated", "attach", node, "faceid", faceID)
	return nil
}

// rendezvousApp is a rendezvous node. It holds Interests for the mobile
// producer until it knows where the producer is attached. If the producer is
// attached to the rendezvous node itself the Interests are delivered there,
// otherwise they are released into the forwarder through the face toward the
// rendezvous node, to follow the trace.
type rendezvousApp struct {
	node     uint64
	attached enc.Name
	local    bool
	held     []*defn.FwInterest
	release  func(node uint64, interest *defn.FwInterest) error
	deliver  func(node uint64, interest *defn.FwInterest) error
	released int
}

func (a *rendezvousApp) String() string {
	return fmt.Sprintf("rendezvous (node=%d)", a.node)
}

// Hold buffers an Interest, releasing it at once if the producer is located.
func (a *rendezvousApp) Hold(interest *defn.FwInterest) error {
	a.held = append(a.held, interest)
	if a.attached == nil {
		core.Log.Debug(a, "Holding Interest", "name", interest.NameV)
		return nil
	}
	_, err := a.SendBuffered()
	return err
}

func (a *rendezvousApp) SetAttachment(prefix enc.Name, local bool) {
	a.attached = prefix
	a.local = local
}

func (a *rendezvousApp) SendBuffered() (int, error) {
	if a.attached == nil {
		return 0, nil
	}

	send := a.release
	if a.local {
		send = a.deliver
	}

	n := 0
	for len(a.held) > 0 {
		interest := a.held[0]
		if err := send(a.node, interest); err != nil {
			return n, err
		}
		a.held = a.held[1:]
		n++
	}
	a.released += n
	if n > 0 {
		core.Log.Debug(a, "Released held Interests", "count", n, "local", a.local)
	}
	return n, nil
}
