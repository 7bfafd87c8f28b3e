/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package core

import (
	"fmt"
	"os"

	"github.com/named-data/kite/std/log"
)

var Log = log.Default()
var logFileObj *os.File

// OpenLogger initializes the logger from the global configuration.
func OpenLogger() error {
	level, err := log.ParseLevel(C.Core.LogLevel)
	if err != nil {
		return fmt.Errorf("log level %q: %w", C.Core.LogLevel, err)
	}

	if C.Core.LogFile == "" {
		logFileObj = os.Stderr
	} else {
		logFileObj, err = os.Create(C.ResolveRelPath(C.Core.LogFile))
		if err != nil {
			return err
		}
	}

	Log = log.NewText(logFileObj)
	Log.SetLevel(level)
	return nil
}

// CloseLogger closes the log file, if any.
func CloseLogger() {
	if logFileObj != nil && logFileObj != os.Stderr {
		logFileObj.Close()
	}
	logFileObj = nil
}
