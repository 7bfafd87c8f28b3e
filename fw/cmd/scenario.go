package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/named-data/kite/fw/core"
	"github.com/named-data/kite/fw/defn"
	enc "github.com/named-data/kite/std/encoding"
	"github.com/named-data/kite/std/types/optional"
	"github.com/named-data/kite/std/utils"
	"github.com/named-data/kite/std/utils/toolutils"
)

// ErrScenario is wrapped by every error caused by the content of a scenario file.
var ErrScenario = errors.New("invalid scenario")

// Scenario describes one forwarder, its neighbors, and the packets that reach it.
type Scenario struct {
	// Overrides of the forwarder configuration
	Config core.Config `json:"config"`
	// Rendezvous node IDs of the deployment
	Rendezvous []uint64 `json:"rendezvous"`
	// Mobile nodes and the prefix each one serves
	Mobiles []MobileConfig `json:"mobiles"`

	Faces      []FaceConfig     `json:"faces"`
	Fib        []RouteConfig    `json:"fib"`
	Tib        []TraceConfig    `json:"tib"`
	Strategies []StrategyChoice `json:"strategy"`
	Events     []Event          `json:"events"`
}

type MobileConfig struct {
	Node   uint64 `json:"node"`
	Prefix string `json:"prefix"`
}

type FaceConfig struct {
	ID       uint64 `json:"id"`
	Scope    string `json:"scope"`
	LinkType string `json:"link_type"`
	// Neighbor node reached through the face, zero if none
	Node uint64 `json:"node"`
}

type RouteConfig struct {
	Prefix string `json:"prefix"`
	Face   uint64 `json:"face"`
	Cost   uint64 `json:"cost"`
}

type TraceConfig struct {
	Prefix string `json:"prefix"`
	Face   uint64 `json:"face"`
	Cost   uint64 `json:"cost"`
	// Lifetime in milliseconds, zero for tables.tib.default_lifetime
	Lifetime int `json:"lifetime"`
}

type StrategyChoice struct {
	Prefix   string `json:"prefix"`
	Strategy string `json:"strategy"`
}

// Event is one step of a scenario. Exactly one field is set.
type Event struct {
	Interest *InterestEvent `json:"interest"`
	Nack     *NackEvent     `json:"nack"`
	Attach   *AttachEvent   `json:"attach"`
	Hold     *HoldEvent     `json:"hold"`
}

// InterestEvent is an Interest arriving on a face.
type InterestEvent struct {
	Name        string  `json:"name"`
	Face        uint64  `json:"face"`
	Nonce       *uint32 `json:"nonce"`
	Lifetime    int     `json:"lifetime"`
	HopLimit    *int    `json:"hop_limit"`
	CanBePrefix bool    `json:"can_be_prefix"`
	MustBeFresh bool    `json:"must_be_fresh"`
	NextHop     *uint64 `json:"next_hop"`
}

// NackEvent is a Nack arriving on a face.
type NackEvent struct {
	Name   string `json:"name"`
	Face   uint64 `json:"face"`
	Nonce  uint32 `json:"nonce"`
	Reason string `json:"reason"`
}

// AttachEvent moves a mobile node to a new attachment node.
type AttachEvent struct {
	Mobile uint64 `json:"mobile"`
	Node   uint64 `json:"node"`
}

// HoldEvent is an Interest held by a rendezvous node until it learns where
// the mobile producer is.
type HoldEvent struct {
	Node     uint64 `json:"node"`
	Name     string `json:"name"`
	Nonce    uint32 `json:"nonce"`
	Lifetime int    `json:"lifetime"`
}

// LoadScenario reads a scenario file. Configuration keys it does not set keep their defaults.
func LoadScenario(file string) (*Scenario, error) {
	s := &Scenario{Config: *core.DefaultConfig()}
	if err := toolutils.ReadYaml(s, file); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScenario, err)
	}
	s.Config.Core.BaseDir = filepath.Dir(file)

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the references between the parts of the scenario.
func (s *Scenario) Validate() error {
	var errs []error
	fail := func(format string, v ...any) {
		errs = append(errs, fmt.Errorf(format, v...))
	}

	if err := s.Config.Validate(); err != nil {
		errs = append(errs, err)
	}

	faces := make(map[uint64]bool, len(s.Faces))
	for i, f := range s.Faces {
		if f.ID == 0 {
			fail("faces[%d]: face ID 0 is reserved", i)
		}
		if faces[f.ID] {
			fail("faces[%d]: duplicate face ID %d", i, f.ID)
		}
		faces[f.ID] = true
		if _, err := parseScope(f.Scope); err != nil {
			fail("faces[%d]: %w", i, err)
		}
		if _, err := defn.ParseLinkType(f.LinkType); err != nil {
			fail("faces[%d]: %w", i, err)
		}
	}
	checkFace := func(where string, id uint64) {
		if !faces[id] {
			fail("%s: unknown face %d", where, id)
		}
	}
	checkName := func(where string, name string) {
		if _, err := enc.NameFromStr(name); err != nil {
			fail("%s: name %q: %w", where, name, err)
		}
	}

	for i, r := range s.Fib {
		checkName(fmt.Sprintf("fib[%d]", i), r.Prefix)
		checkFace(fmt.Sprintf("fib[%d]", i), r.Face)
	}
	for i, r := range s.Tib {
		checkName(fmt.Sprintf("tib[%d]", i), r.Prefix)
		checkFace(fmt.Sprintf("tib[%d]", i), r.Face)
		if r.Lifetime < 0 {
			fail("tib[%d]: negative lifetime", i)
		}
	}
	for i, c := range s.Strategies {
		checkName(fmt.Sprintf("strategy[%d]", i), c.Prefix)
		checkName(fmt.Sprintf("strategy[%d]", i), c.Strategy)
	}

	mobiles := make(map[uint64]bool, len(s.Mobiles))
	for i, m := range s.Mobiles {
		checkName(fmt.Sprintf("mobiles[%d]", i), m.Prefix)
		if mobiles[m.Node] {
			fail("mobiles[%d]: duplicate mobile node %d", i, m.Node)
		}
		mobiles[m.Node] = true
	}
	rendezvous := make(map[uint64]bool, len(s.Rendezvous))
	for _, node := range s.Rendezvous {
		rendezvous[node] = true
	}

	for i, e := range s.Events {
		where := fmt.Sprintf("events[%d]", i)
		set := 0
		if e.Interest != nil {
			set++
			checkName(where, e.Interest.Name)
			checkFace(where, e.Interest.Face)
			if e.Interest.NextHop != nil {
				checkFace(where+".next_hop", *e.Interest.NextHop)
			}
			if h := e.Interest.HopLimit; h != nil && (*h < 0 || *h > 255) {
				fail("%s: hop_limit %d out of range", where, *h)
			}
		}
		if e.Nack != nil {
			set++
			checkName(where, e.Nack.Name)
			checkFace(where, e.Nack.Face)
			if _, err := defn.ParseNackReason(e.Nack.Reason); err != nil {
				fail("%s: %w", where, err)
			}
		}
		if e.Attach != nil {
			set++
			if !mobiles[e.Attach.Mobile] {
				fail("%s: unknown mobile node %d", where, e.Attach.Mobile)
			}
		}
		if e.Hold != nil {
			set++
			checkName(where, e.Hold.Name)
			if !rendezvous[e.Hold.Node] {
				fail("%s: node %d is not a rendezvous node", where, e.Hold.Node)
			}
		}
		if set != 1 {
			fail("%s: exactly one of interest, nack, attach or hold must be set", where)
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrScenario, err)
	}
	return nil
}

func parseScope(s string) (defn.Scope, error) {
	if s == "" {
		return defn.NonLocal, nil
	}
	return defn.ParseScope(s)
}

func mustName(s string) enc.Name {
	n, err := enc.NameFromStr(s)
	if err != nil {
		// names are checked by Validate
		panic(err)
	}
	return n
}

func lifetimeOf(ms int) optional.Optional[time.Duration] {
	if ms <= 0 {
		return optional.None[time.Duration]()
	}
	return optional.Some(time.Duration(ms) * time.Millisecond)
}

// interest builds the Interest of an event.
func (e *InterestEvent) interest() *defn.FwInterest {
	i := &defn.FwInterest{
		NameV:        mustName(e.Name),
		CanBePrefixV: e.CanBePrefix,
		MustBeFreshV: e.MustBeFresh,
		LifetimeV:    lifetimeOf(e.Lifetime),
		HopLimitV:    utils.ConvIntPtr[int, byte](e.HopLimit),
	}
	if e.Nonce != nil {
		i.NonceV = optional.Some(*e.Nonce)
	}
	return i
}
