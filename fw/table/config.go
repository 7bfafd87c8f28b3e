/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package table

import (
	"fmt"
	"time"

	"github.com/named-data/kite/fw/core"
	enc "github.com/named-data/kite/std/encoding"
)

// FibStrategyTable is the FIB-Strategy table shared by all forwarding threads.
var FibStrategyTable *FibStrategyTree

// Tib is the Trace Information Base shared by all forwarding threads.
var Tib *TraceTable

// Initialize creates the shared tables from the global configuration.
func Initialize() error {
	defaultStrategy, err := enc.NameFromStr(core.C.Fw.DefaultStrategy)
	if err != nil {
		return fmt.Errorf("fw.default_strategy %q: %w", core.C.Fw.DefaultStrategy, err)
	}
	FibStrategyTable = NewFibStrategyTree(defaultStrategy)
	Tib = NewTraceTable()
	return nil
}

// CfgPitDefaultLifetime returns the lifetime of Interests that do not carry one.
func CfgPitDefaultLifetime() time.Duration {
	return time.Duration(core.C.Tables.Pit.DefaultLifetime) * time.Millisecond
}

// CfgDeadNonceListLifetime returns the lifetime of entries in the dead nonce list.
func CfgDeadNonceListLifetime() time.Duration {
	return time.Duration(core.C.Tables.DeadNonceList.Lifetime) * time.Millisecond
}

// CfgTibPruneInterval returns how often expired trace nexthops are purged, zero if never.
func CfgTibPruneInterval() time.Duration {
	return time.Duration(core.C.Tables.Tib.PruneInterval) * time.Millisecond
}

// CfgTibDefaultLifetime returns the lifetime of trace nexthops inserted without one.
func CfgTibDefaultLifetime() time.Duration {
	return time.Duration(core.C.Tables.Tib.DefaultLifetime) * time.Millisecond
}
