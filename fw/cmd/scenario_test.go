package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/named-data/kite/fw/core"
	"github.com/named-data/kite/std/types/optional"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "scenario.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenario(t *testing.T) {
	s, err := LoadScenario("testdata/handover.yml")
	require.NoError(t, err)

	assert.Equal(t, "WARN", s.Config.Core.LogLevel)
	assert.Equal(t, 2, s.Config.Fw.Threads)
	// untouched keys keep their defaults
	assert.Equal(t, 1024, s.Config.Fw.QueueSize)
	assert.True(t, s.Config.Fw.NackOnReject)
	assert.Equal(t, "testdata", s.Config.Core.BaseDir)

	assert.Equal(t, []uint64{12, 13}, s.Rendezvous)
	assert.Equal(t, []MobileConfig{{Node: 100, Prefix: "/mobile/alice"}}, s.Mobiles)
	require.Len(t, s.Faces, 4)
	assert.Equal(t, FaceConfig{ID: 1, Scope: "local"}, s.Faces[0])
	assert.Equal(t, FaceConfig{ID: 4, Node: 20}, s.Faces[3])
	assert.Len(t, s.Fib, 2)
	assert.Equal(t, "/localhost/nfd/strategy/trace-forwarding/v=1", s.Strategies[0].Strategy)

	require.Len(t, s.Events, 7)
	require.NotNil(t, s.Events[0].Interest)
	assert.Equal(t, uint32(1), *s.Events[0].Interest.Nonce)
	assert.Equal(t, &AttachEvent{Mobile: 100, Node: 20}, s.Events[1].Attach)
	assert.Equal(t, "NoRoute", s.Events[3].Nack.Reason)
	assert.Equal(t, &HoldEvent{Node: 12, Name: "/mobile/alice/3", Nonce: 4}, s.Events[5].Hold)
}

func TestLoadScenarioErrors(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yml"))
	assert.ErrorIs(t, err, ErrScenario)

	_, err = LoadScenario(writeScenario(t, "facez: []\n"))
	assert.ErrorIs(t, err, ErrScenario)

	_, err = LoadScenario(writeScenario(t, "config:\n  fw:\n    threads: 0\n"))
	assert.ErrorIs(t, err, ErrScenario)
	assert.ErrorContains(t, err, "fw.threads")

	_, err = LoadScenario(writeScenario(t, "events:\n  - interest: { name: /a, face: 9 }\n"))
	assert.ErrorIs(t, err, ErrScenario)
	assert.ErrorContains(t, err, "unknown face 9")
}

func TestScenarioValidate(t *testing.T) {
	base := func() *Scenario {
		return &Scenario{
			Config:     *core.DefaultConfig(),
			Rendezvous: []uint64{12},
			Mobiles:    []MobileConfig{{Node: 100, Prefix: "/mobile"}},
			Faces:      []FaceConfig{{ID: 1}, {ID: 2, Scope: "local"}},
		}
	}
	require.NoError(t, base().Validate())

	hopLimit := 300
	nextHop := uint64(7)
	cases := []struct {
		desc   string
		modify func(s *Scenario)
		errMsg string
	}{
		{"reserved face", func(s *Scenario) { s.Faces = append(s.Faces, FaceConfig{}) }, "face ID 0 is reserved"},
		{"duplicate face", func(s *Scenario) { s.Faces = append(s.Faces, FaceConfig{ID: 1}) }, "duplicate face ID 1"},
		{"bad scope", func(s *Scenario) { s.Faces[0].Scope = "global" }, "unknown face scope"},
		{"bad link type", func(s *Scenario) { s.Faces[0].LinkType = "wire" }, "link"},
		{"fib face", func(s *Scenario) { s.Fib = []RouteConfig{{Prefix: "/a", Face: 3}} }, "fib[0]: unknown face 3"},
		{"tib lifetime", func(s *Scenario) { s.Tib = []TraceConfig{{Prefix: "/a", Face: 1, Lifetime: -1}} }, "negative lifetime"},
		{"duplicate mobile", func(s *Scenario) { s.Mobiles = append(s.Mobiles, s.Mobiles[0]) }, "duplicate mobile node 100"},
		{"empty event", func(s *Scenario) { s.Events = []Event{{}} }, "exactly one of"},
		{"two kinds", func(s *Scenario) {
			s.Events = []Event{{
				Interest: &InterestEvent{Name: "/a", Face: 1},
				Attach:   &AttachEvent{Mobile: 100, Node: 1},
			}}
		}, "exactly one of"},
		{"hop limit", func(s *Scenario) {
			s.Events = []Event{{Interest: &InterestEvent{Name: "/a", Face: 1, HopLimit: &hopLimit}}}
		}, "hop_limit 300 out of range"},
		{"next hop", func(s *Scenario) {
			s.Events = []Event{{Interest: &InterestEvent{Name: "/a", Face: 1, NextHop: &nextHop}}}
		}, "next_hop: unknown face 7"},
		{"nack reason", func(s *Scenario) {
			s.Events = []Event{{Nack: &NackEvent{Name: "/a", Face: 2, Reason: "Busy"}}}
		}, "events[0]"},
		{"attach mobile", func(s *Scenario) {
			s.Events = []Event{{Attach: &AttachEvent{Mobile: 5, Node: 12}}}
		}, "unknown mobile node 5"},
		{"hold outside rendezvous", func(s *Scenario) {
			s.Events = []Event{{Hold: &HoldEvent{Node: 13, Name: "/mobile/1"}}}
		}, "node 13 is not a rendezvous node"},
	}
	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			s := base()
			c.modify(s)
			err := s.Validate()
			assert.ErrorIs(t, err, ErrScenario)
			assert.ErrorContains(t, err, c.errMsg)
		})
	}
}

func TestInterestEvent(t *testing.T) {
	nonce := uint32(42)
	hopLimit := 5
	e := InterestEvent{Name: "/mobile/alice", Nonce: &nonce, Lifetime: 250, HopLimit: &hopLimit, MustBeFresh: true}
	i := e.interest()

	assert.Equal(t, "/mobile/alice", i.NameV.String())
	assert.Equal(t, optional.Some(uint32(42)), i.NonceV)
	assert.Equal(t, 250*time.Millisecond, i.LifetimeV.Unwrap())
	require.NotNil(t, i.HopLimitV)
	assert.Equal(t, byte(5), *i.HopLimitV)
	assert.True(t, i.MustBeFreshV)
	assert.False(t, i.CanBePrefixV)

	i = (&InterestEvent{Name: "/a"}).interest()
	assert.False(t, i.NonceV.IsSet())
	assert.False(t, i.LifetimeV.IsSet())
	assert.Nil(t, i.HopLimitV)
}
