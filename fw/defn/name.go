package defn

import enc "github.com/named-data/kite/std/encoding"

// Localhost prefix for NFD
var LOCAL_PREFIX = enc.Name{enc.LOCALHOST, enc.NewGenericComponent("nfd")}

// Prefix for all stratgies
var STRATEGY_PREFIX = LOCAL_PREFIX.Append(enc.NewGenericComponent("strategy"))

// Default forwarding strategy name
var DEFAULT_STRATEGY = STRATEGY_PREFIX.Append(
	enc.NewGenericComponent("best-route"),
	enc.NewVersionComponent(1))
