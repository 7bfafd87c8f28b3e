package cmd

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/named-data/kite/fw/core"
	"github.com/named-data/kite/fw/defn"
	"github.com/named-data/kite/fw/face"
	"github.com/named-data/kite/fw/fw"
	"github.com/named-data/kite/fw/table"
	"github.com/named-data/kite/kite"
	enc "github.com/named-data/kite/std/encoding"
	"github.com/named-data/kite/std/types/optional"
	"github.com/named-data/kite/std/utils"
	"github.com/prometheus/client_golang/prometheus"
)

// Runner plays a scenario against a forwarder built from memory faces.
type Runner struct {
	scenario *Scenario

	faces      *face.Table
	memFaces   map[uint64]*face.MemoryFace
	nodeFaces  map[uint64]uint64
	rendezvous kite.RendezvousSet
	registries map[uint64]*kite.Registry
	attachedAt map[uint64]uint64
	delivered  map[uint64][]*defn.FwInterest
	threads    []*fw.Thread
	metrics    *prometheus.Registry

	running bool
}

// NewRunner installs the scenario configuration and builds the forwarder.
// Only one runner may exist at a time.
func NewRunner(s *Scenario) (*Runner, error) {
	// Provide global configuration.
	core.C = &s.Config
	if err := table.Initialize(); err != nil {
		return nil, err
	}

	if fw.CfgNumThreads() < 1 || fw.CfgNumThreads() > fw.MaxFwThreads {
		return nil, fmt.Errorf("%w: number of forwarding threads out of range [1, %d]", ErrScenario, fw.MaxFwThreads)
	}

	r := &Runner{
		scenario:   s,
		faces:      face.NewTable(),
		memFaces:   make(map[uint64]*face.MemoryFace),
		nodeFaces:  make(map[uint64]uint64),
		rendezvous: kite.NewRendezvousSet(s.Rendezvous...),
		registries: make(map[uint64]*kite.Registry),
		attachedAt: make(map[uint64]uint64),
		delivered:  make(map[uint64][]*defn.FwInterest),
	}

	if err := r.buildFaces(); err != nil {
		return nil, err
	}
	r.buildTables()
	if err := r.buildApps(); err != nil {
		return nil, err
	}

	r.threads = make([]*fw.Thread, fw.CfgNumThreads())
	for i := range r.threads {
		r.threads[i] = fw.NewThread(i, r.faces, table.FibStrategyTable, table.Tib)
	}
	fw.Threads = r.threads

	if core.C.Metrics.Enabled {
		r.metrics = prometheus.NewRegistry()
		if err := fw.RegisterMetrics(r.metrics, r.threads); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Runner) String() string {
	return "kite-runner"
}

// Metrics returns the registry of the forwarder metrics, nil if disabled.
func (r *Runner) Metrics() *prometheus.Registry {
	return r.metrics
}

func (r *Runner) buildFaces() error {
	for _, fc := range r.scenario.Faces {
		scope, err := parseScope(fc.Scope)
		if err != nil {
			return err
		}
		linkType, err := defn.ParseLinkType(fc.LinkType)
		if err != nil {
			return err
		}

		f := face.MakeMemoryFace(scope, linkType)
		if err := r.faces.AddWithID(fc.ID, f); err != nil {
			return fmt.Errorf("%w: %w", ErrScenario, err)
		}
		r.memFaces[fc.ID] = f
		if fc.Node != 0 {
			r.nodeFaces[fc.Node] = fc.ID
		}
	}
	return nil
}

func (r *Runner) buildTables() {
	for _, route := range r.scenario.Fib {
		table.FibStrategyTable.InsertNextHopEnc(mustName(route.Prefix), route.Face, route.Cost)
	}
	for _, trace := range r.scenario.Tib {
		table.Tib.InsertNextHopEnc(mustName(trace.Prefix), trace.Face, trace.Cost, lifetimeOf(trace.Lifetime).GetOr(0))
	}
	for _, choice := range r.scenario.Strategies {
		table.FibStrategyTable.SetStrategyEnc(mustName(choice.Prefix), mustName(choice.Strategy))
	}
}

func (r *Runner) buildApps() error {
	faceOf := func(node uint64) (uint64, bool) {
		id, ok := r.nodeFaces[node]
		return id, ok
	}

	for _, m := range r.scenario.Mobiles {
		reg := r.registry(m.Node)
		app := &mobileApp{
			node:   m.Node,
			prefix: mustName(m.Prefix),
			tib:    table.Tib,
			faceOf: faceOf,
		}
		if err := reg.Register(kite.RoleMobileConsumer, app); err != nil {
			return fmt.Errorf("%w: %w", ErrScenario, err)
		}
	}

	for _, node := range r.rendezvous.IDs() {
		app := &rendezvousApp{node: node, release: r.release, deliver: r.deliver}
		if err := r.registry(node).Register(kite.RoleRendezvous, app); err != nil {
			return fmt.Errorf("%w: %w", ErrScenario, err)
		}
	}
	return nil
}

func (r *Runner) registry(node uint64) *kite.Registry {
	reg, ok := r.registries[node]
	if !ok {
		reg = kite.NewRegistry(node)
		r.registries[node] = reg
	}
	return reg
}

func (r *Runner) lookup(node uint64) *kite.Registry {
	return r.registries[node]
}

// release hands an Interest held by a rendezvous node to the forwarder.
func (r *Runner) release(node uint64, interest *defn.FwInterest) error {
	faceID, ok := r.nodeFaces[node]
	if !ok {
		return fmt.Errorf("no face toward rendezvous node %d", node)
	}
	fw.DispatchPacket(defn.MakeInterestPkt(interest, faceID))
	return nil
}

// deliver hands an Interest to the producer attached to a rendezvous node.
// It does not pass through this forwarder.
func (r *Runner) deliver(node uint64, interest *defn.FwInterest) error {
	r.delivered[node] = append(r.delivered[node], interest)
	return nil
}

// Delivered returns the Interests a rendezvous node delivered to the producer
// attached to it, oldest first.
func (r *Runner) Delivered(node uint64) []*defn.FwInterest {
	return slices.Clone(r.delivered[node])
}

// Run starts the forwarding threads and plays every event in order. Each
// event is fully processed before the next one. Run stops early if ctx is done.
func (r *Runner) Run(ctx context.Context) error {
	for _, thread := range r.threads {
		go thread.Run()
	}
	r.running = true
	defer r.stop()

	core.Log.Info(r, "Playing scenario", "events", len(r.scenario.Events), "threads", len(r.threads))
	for i, e := range r.scenario.Events {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.play(e); err != nil {
			return fmt.Errorf("events[%d]: %w", i, err)
		}
		for _, thread := range r.threads {
			thread.Flush()
		}
	}
	return nil
}

func (r *Runner) play(e Event) error {
	switch {
	case e.Interest != nil:
		packet := defn.MakeInterestPkt(e.Interest.interest(), e.Interest.Face)
		packet.NextHopFaceID = e.Interest.NextHop
		fw.DispatchPacket(packet)
	case e.Nack != nil:
		reason, err := defn.ParseNackReason(e.Nack.Reason)
		if err != nil {
			return err
		}
		interest := &defn.FwInterest{
			NameV:  mustName(e.Nack.Name),
			NonceV: optional.Some(e.Nack.Nonce),
		}
		fw.DispatchPacket(defn.MakeNackPkt(interest, reason, e.Nack.Face))
	case e.Attach != nil:
		return r.attach(e.Attach)
	case e.Hold != nil:
		return r.hold(e.Hold)
	}
	return nil
}

func (r *Runner) attach(e *AttachEvent) error {
	reg := r.lookup(e.Mobile)
	if reg == nil {
		return fmt.Errorf("%w %s on node %d", kite.ErrNoApp, kite.RoleMobileConsumer, e.Mobile)
	}
	if at, ok := r.attachedAt[e.Mobile]; ok && at == e.Node {
		core.Log.Debug(r, "Mobile already attached, nothing to update", "mobile", e.Mobile, "attach", e.Node)
		return nil
	}
	if err := kite.OnAssociation(reg, e.Node); err != nil {
		return err
	}
	r.attachedAt[e.Mobile] = e.Node
	if !r.rendezvous.Contains(e.Node) {
		return nil
	}

	var prefix enc.Name
	for _, m := range r.scenario.Mobiles {
		if m.Node == e.Mobile {
			prefix = mustName(m.Prefix)
		}
	}
	return kite.UpdateRendezvous(r.rendezvous, r.lookup, e.Node, prefix)
}

func (r *Runner) hold(e *HoldEvent) error {
	reg := r.lookup(e.Node)
	if reg == nil {
		return fmt.Errorf("%w %s on node %d", kite.ErrNoApp, kite.RoleRendezvous, e.Node)
	}
	holder, err := reg.Holder(kite.RoleRendezvous)
	if err != nil {
		return err
	}
	return holder.Hold(&defn.FwInterest{
		NameV:     mustName(e.Name),
		NonceV:    optional.Some(e.Nonce),
		LifetimeV: lifetimeOf(e.Lifetime),
	})
}

func (r *Runner) stop() {
	if !r.running {
		return
	}
	for _, thread := range r.threads {
		thread.TellToQuit()
	}
	for _, thread := range r.threads {
		<-thread.HasQuit
	}
	r.running = false
}

// Sent returns what the forwarder sent on a face.
func (r *Runner) Sent(faceID uint64) []face.OutPkt {
	if f, ok := r.memFaces[faceID]; ok {
		return f.Sent()
	}
	return nil
}

// Report prints the packets sent on every face and the thread counters.
func (r *Runner) Report(w io.Writer) {
	ids := make([]uint64, 0, len(r.memFaces))
	for id := range r.memFaces {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, id := range ids {
		f := r.memFaces[id]
		fmt.Fprintf(w, "%s\n", f)
		for _, out := range f.Sent() {
			fmt.Fprintf(w, "  %s\n", describePacket(out.Pkt))
		}
	}

	for _, node := range r.rendezvous.IDs() {
		if len(r.delivered[node]) == 0 {
			continue
		}
		fmt.Fprintf(w, "rendezvous %d delivered locally\n", node)
		for _, interest := range r.delivered[node] {
			fmt.Fprintf(w, "  %s\n", describeInterest(interest))
		}
	}

	fmt.Fprintf(w, "tables\n")
	p := utils.StatusPrinter{File: w, Padding: 24}
	p.Print("nFibEntries", table.FibStrategyTable.GetNumFIBEntries())
	p.Print("nStrategyChoices", len(table.FibStrategyTable.GetAllForwardingStrategies()))
	p.Print("nTibEntries", table.Tib.Size())

	for _, thread := range r.threads {
		cnt := thread.Counters()
		fmt.Fprintf(w, "%s\n", thread)
		p.Print("nPitEntries", cnt.NPitEntries)
		p.Print("nInInterests", cnt.NInInterests)
		p.Print("nOutInterests", cnt.NOutInterests)
		p.Print("nInNacks", cnt.NInNacks)
		p.Print("nOutNacks", cnt.NOutNacks)
		p.Print("nRejectedInterests", cnt.NRejectedInterests)
		p.Print("nUnsatisfiedInterests", cnt.NUnsatisfiedInterests)
	}
}

func describePacket(pkt *defn.Pkt) string {
	if pkt.IsNack() {
		return fmt.Sprintf("nack %s nonce=%s reason=%s", pkt.Name, nonceOf(pkt.L3.Interest), defn.NackReasonString(pkt.L3.Nack.Reason))
	}
	return fmt.Sprintf("interest %s nonce=%s", pkt.Name, nonceOf(pkt.L3.Interest))
}

func describeInterest(interest *defn.FwInterest) string {
	return fmt.Sprintf("interest %s nonce=%s", interest.NameV, nonceOf(interest))
}

func nonceOf(interest *defn.FwInterest) string {
	if n, ok := interest.NonceV.Get(); ok {
		return fmt.Sprintf("%d", n)
	}
	return "-"
}
