/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package fw

import (
	"slices"

	"github.com/named-data/kite/fw/core"
	"github.com/named-data/kite/fw/defn"
	enc "github.com/named-data/kite/std/encoding"
)

// StrategyConstructor builds a strategy instance for a forwarding thread.
type StrategyConstructor func(fwd Forwarder, instance enc.Name) (Strategy, error)

type strategyType struct {
	name    enc.Name // strategy name including the version
	version uint64
	create  StrategyConstructor
}

// Strategy implementations should register themselves using init().
// Each thread has a separate instance of each strategy.
var strategyTypes = make(map[string]strategyType)

// StrategyVersions contains a list of strategies mapping to a list of their versions
var StrategyVersions = make(map[string][]uint64)

// registerStrategy makes a strategy available under STRATEGY_PREFIX/<name>/v=<version>.
func registerStrategy(name string, version uint64, create StrategyConstructor) enc.Name {
	strategyName := defn.STRATEGY_PREFIX.Append(
		enc.NewGenericComponent(name),
		enc.NewVersionComponent(version))
	strategyTypes[name] = strategyType{
		name:    strategyName,
		version: version,
		create:  create,
	}
	StrategyVersions[name] = append(StrategyVersions[name], version)
	slices.Sort(StrategyVersions[name])
	return strategyName
}

// StrategyNames returns the names of the registered strategies, sorted.
func StrategyNames() []string {
	names := make([]string, 0, len(strategyTypes))
	for name := range strategyTypes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// NewStrategy creates the strategy selected by an instance name such as
// /localhost/nfd/strategy/trace-forwarding/v=1.
func NewStrategy(fwd Forwarder, instance enc.Name) (Strategy, error) {
	if len(instance) <= len(defn.STRATEGY_PREFIX) || !defn.STRATEGY_PREFIX.IsPrefix(instance) {
		return nil, &ErrUnknownStrategy{Name: instance}
	}
	typ, ok := strategyTypes[string(instance[len(defn.STRATEGY_PREFIX)].Val)]
	if !ok {
		return nil, &ErrUnknownStrategy{Name: instance}
	}
	return typ.create(fwd, instance)
}

// InstantiateStrategies instantiates all strategies for a forwarding thread,
// keyed by the hash of their instance name.
func InstantiateStrategies(fwd Forwarder) map[uint64]Strategy {
	strategies := make(map[uint64]Strategy, len(strategyTypes))

	for _, name := range StrategyNames() {
		typ := strategyTypes[name]
		strategy, err := typ.create(fwd, typ.name)
		if err != nil {
			core.Log.Error(fwd, "Unable to instantiate strategy", "strategy", typ.name, "err", err)
			continue
		}
		strategies[strategy.GetName().Hash()] = strategy
		core.Log.Debug(fwd, "Instantiated Strategy", "strategy", strategy.GetName())
	}

	return strategies
}
