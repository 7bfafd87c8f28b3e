package kite

import (
	"errors"
	"testing"

	"github.com/named-data/kite/fw/defn"
	enc "github.com/named-data/kite/std/encoding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mobileApp struct {
	attached []uint64
}

func (a *mobileApp) NotifyAttach(node uint64) error {
	a.attached = append(a.attached, node)
	return nil
}

type rvApp struct {
	prefix   enc.Name
	local    bool
	buffered int
	sent     int
}

func (a *rvApp) SetAttachment(prefix enc.Name, local bool) {
	a.prefix = prefix
	a.local = local
}

func (a *rvApp) SendBuffered() (int, error) {
	n := a.buffered
	a.sent += n
	a.buffered = 0
	return n, nil
}

type plainApp struct{}

type holdingApp struct {
	rvApp
	held []*defn.FwInterest
}

func (a *holdingApp) Hold(interest *defn.FwInterest) error {
	a.held = append(a.held, interest)
	a.buffered++
	return nil
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("rendezvous")
	require.NoError(t, err)
	assert.Equal(t, RoleRendezvous, r)

	_, err = ParseRole("router")
	assert.Error(t, err)
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry(5)
	assert.Equal(t, uint64(5), reg.Node())

	require.NoError(t, reg.Register(RoleMobileConsumer, &mobileApp{}))
	require.NoError(t, reg.Register(RoleProducer, plainApp{}))
	assert.Error(t, reg.Register(RoleProducer, plainApp{}))
	assert.Error(t, reg.Register(RoleRendezvous, nil))
	assert.Equal(t, []Role{RoleMobileConsumer, RoleProducer}, reg.Roles())

	_, err := reg.AttachNotifier(RoleMobileConsumer)
	assert.NoError(t, err)

	_, err = reg.AttachNotifier(RoleProducer)
	assert.ErrorIs(t, err, ErrCapability)

	_, err = reg.BufferedSender(RoleRendezvous)
	assert.ErrorIs(t, err, ErrNoApp)
	assert.False(t, errors.Is(err, ErrCapability))
}

func TestRegistryHolder(t *testing.T) {
	app := &holdingApp{}
	reg := NewRegistry(9)
	require.NoError(t, reg.Register(RoleRendezvous, app))
	require.NoError(t, reg.Register(RoleMobileConsumer, &mobileApp{}))

	holder, err := reg.Holder(RoleRendezvous)
	require.NoError(t, err)
	require.NoError(t, holder.Hold(&defn.FwInterest{NameV: enc.Name{}}))
	assert.Len(t, app.held, 1)

	// the same application still serves as a BufferedSender
	sender, err := reg.BufferedSender(RoleRendezvous)
	require.NoError(t, err)
	n, err := sender.SendBuffered()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = reg.Holder(RoleMobileConsumer)
	assert.ErrorIs(t, err, ErrCapability)
	_, err = reg.Holder(RoleProducer)
	assert.ErrorIs(t, err, ErrNoApp)
}

func TestOnAssociation(t *testing.T) {
	app := &mobileApp{}
	reg := NewRegistry(1)
	require.NoError(t, reg.Register(RoleMobileConsumer, app))

	require.NoError(t, OnAssociation(reg, 7))
	require.NoError(t, OnAssociation(reg, 8))
	assert.Equal(t, []uint64{7, 8}, app.attached)

	assert.ErrorIs(t, OnAssociation(NewRegistry(2), 7), ErrNoApp)
}

func TestUpdateRendezvous(t *testing.T) {
	set := NewRendezvousSet(12, 13, 14)
	apps := map[uint64]*rvApp{12: {buffered: 1}, 13: {buffered: 2}, 14: {}}
	regs := make(map[uint64]*Registry)
	for node, app := range apps {
		regs[node] = NewRegistry(node)
		require.NoError(t, regs[node].Register(RoleRendezvous, app))
	}
	lookup := func(node uint64) *Registry { return regs[node] }

	prefix, err := enc.NameFromStr("/rv/13")
	require.NoError(t, err)
	require.NoError(t, UpdateRendezvous(set, lookup, 13, prefix))

	assert.True(t, apps[13].local)
	assert.False(t, apps[12].local)
	assert.False(t, apps[14].local)
	for _, app := range apps {
		assert.True(t, app.prefix.Equal(prefix))
		assert.Zero(t, app.buffered)
	}
	assert.Equal(t, 1, apps[12].sent)
	assert.Equal(t, 2, apps[13].sent)

	assert.Error(t, UpdateRendezvous(set, lookup, 99, prefix))

	delete(regs, 14)
	assert.ErrorIs(t, UpdateRendezvous(set, lookup, 12, prefix), ErrNoApp)
}
