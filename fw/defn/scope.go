/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package defn

import "fmt"

// Scope indicates the scope of a face
type Scope int

const (
	// Unknown indicates that the scope is unknown
	Unknown Scope = -1
	// NonLocal indicates the face is non-local (to another forwarder)
	NonLocal Scope = 0
	// Local indicates the face is local (to an application)
	Local Scope = 1
)

func (s Scope) String() string {
	switch s {
	case NonLocal:
		return "non-local"
	case Local:
		return "local"
	default:
		return "unknown"
	}
}

// ParseScope parses the String() form of a scope.
func ParseScope(s string) (Scope, error) {
	switch s {
	case "non-local":
		return NonLocal, nil
	case "local":
		return Local, nil
	}
	return Unknown, fmt.Errorf("unknown face scope %q", s)
}

// LinkType indicates what type of link a face is
type LinkType int

const (
	// PointToPoint is a face with one remote endpoint
	PointToPoint LinkType = iota
	// MultiAccess is a face that communicates with a multicast group
	MultiAccess
	// AdHoc is a face on an ad hoc (wireless) link
	AdHoc
)

func (l LinkType) String() string {
	switch l {
	case PointToPoint:
		return "point-to-point"
	case MultiAccess:
		return "multi-access"
	case AdHoc:
		return "ad-hoc"
	default:
		return "unknown"
	}
}

// ParseLinkType parses the String() form of a link type.
func ParseLinkType(s string) (LinkType, error) {
	switch s {
	case "point-to-point", "":
		return PointToPoint, nil
	case "multi-access":
		return MultiAccess, nil
	case "ad-hoc":
		return AdHoc, nil
	}
	return PointToPoint, fmt.Errorf("unknown link type %q", s)
}
