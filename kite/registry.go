package kite

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/named-data/kite/fw/core"
	"github.com/named-data/kite/fw/defn"
	enc "github.com/named-data/kite/std/encoding"
)

// Role is the part an application plays in a KITE deployment.
type Role string

const (
	RoleMobileConsumer Role = "mobile-consumer"
	RoleProducer       Role = "producer"
	RoleRendezvous     Role = "rendezvous"
)

// ParseRole parses the name of a role.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleMobileConsumer, RoleProducer, RoleRendezvous:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

var (
	// ErrNoApp is returned when no application is registered for a role.
	ErrNoApp = errors.New("no application for role")
	// ErrCapability is returned when the application of a role lacks the requested capability.
	ErrCapability = errors.New("application lacks capability")
)

// AttachNotifier is implemented by applications that must learn the node
// their host just associated with.
type AttachNotifier interface {
	NotifyAttach(node uint64) error
}

// BufferedSender is implemented by applications that hold Interests until the
// attachment point of the mobile producer is known.
type BufferedSender interface {
	// SetAttachment records where the mobile producer is. local is true when
	// it attached to this application's own node.
	SetAttachment(prefix enc.Name, local bool)
	// SendBuffered releases the held Interests and returns how many were sent.
	SendBuffered() (int, error)
}

// Holder is implemented by applications that accept Interests to hold for a
// mobile producer.
type Holder interface {
	Hold(interest *defn.FwInterest) error
}

// Registry holds the applications of one node, keyed by role.
type Registry struct {
	node  uint64
	mutex sync.RWMutex
	apps  map[Role]any
}

// NewRegistry creates an empty registry for node.
func NewRegistry(node uint64) *Registry {
	return &Registry{
		node: node,
		apps: make(map[Role]any),
	}
}

func (r *Registry) String() string {
	return fmt.Sprintf("registry (node=%d)", r.node)
}

// Node returns the node the registry belongs to.
func (r *Registry) Node() uint64 {
	return r.node
}

// Register sets the application playing role. A role holds a single application.
func (r *Registry) Register(role Role, app any) error {
	if app == nil {
		return fmt.Errorf("nil application for role %s", role)
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()
	if _, ok := r.apps[role]; ok {
		return fmt.Errorf("role %s already registered on node %d", role, r.node)
	}
	r.apps[role] = app
	return nil
}

// Roles returns the registered roles, sorted.
func (r *Registry) Roles() []Role {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	roles := make([]Role, 0, len(r.apps))
	for role := range r.apps {
		roles = append(roles, role)
	}
	slices.Sort(roles)
	return roles
}

func (r *Registry) app(role Role) (any, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	app, ok := r.apps[role]
	if !ok {
		return nil, fmt.Errorf("%w %s on node %d", ErrNoApp, role, r.node)
	}
	return app, nil
}

// AttachNotifier returns the application of role as an AttachNotifier.
func (r *Registry) AttachNotifier(role Role) (AttachNotifier, error) {
	app, err := r.app(role)
	if err != nil {
		return nil, err
	}
	notifier, ok := app.(AttachNotifier)
	if !ok {
		return nil, fmt.Errorf("%w: %s on node %d cannot be notified of attachment", ErrCapability, role, r.node)
	}
	return notifier, nil
}

// BufferedSender returns the application of role as a BufferedSender.
func (r *Registry) BufferedSender(role Role) (BufferedSender, error) {
	app, err := r.app(role)
	if err != nil {
		return nil, err
	}
	sender, ok := app.(BufferedSender)
	if !ok {
		return nil, fmt.Errorf("%w: %s on node %d has no send buffer", ErrCapability, role, r.node)
	}
	return sender, nil
}

// Holder returns the application of role as a Holder.
func (r *Registry) Holder(role Role) (Holder, error) {
	app, err := r.app(role)
	if err != nil {
		return nil, err
	}
	holder, ok := app.(Holder)
	if !ok {
		return nil, fmt.Errorf("%w: %s on node %d cannot hold Interests", ErrCapability, role, r.node)
	}
	return holder, nil
}

// OnAssociation tells the mobile consumer hosted by reg that it associated with node.
func OnAssociation(reg *Registry, node uint64) error {
	notifier, err := reg.AttachNotifier(RoleMobileConsumer)
	if err != nil {
		return err
	}
	core.Log.Debug(reg, "Mobile consumer associated", "attach", node)
	return notifier.NotifyAttach(node)
}

// UpdateRendezvous handles a mobile producer attaching to the rendezvous node
// at. That node learns the attachment locally, every other rendezvous node
// learns it remotely, and all of them release their buffered Interests.
// lookup returns the registry of a node, or nil if the node is unknown.
func UpdateRendezvous(set RendezvousSet, lookup func(node uint64) *Registry, at uint64, prefix enc.Name) error {
	if !set.Contains(at) {
		return fmt.Errorf("node %d is not a rendezvous node", at)
	}

	update := func(node uint64, local bool) error {
		reg := lookup(node)
		if reg == nil {
			return fmt.Errorf("%w %s on unknown node %d", ErrNoApp, RoleRendezvous, node)
		}
		sender, err := reg.BufferedSender(RoleRendezvous)
		if err != nil {
			return err
		}
		sender.SetAttachment(prefix, local)
		n, err := sender.SendBuffered()
		core.Log.Debug(reg, "Rendezvous updated", "prefix", prefix, "local", local, "released", n)
		return err
	}

	errs := []error{update(at, true)}
	set.FanOut(at, func(peer uint64) {
		errs = append(errs, update(peer, false))
	})
	return errors.Join(errs...)
}
