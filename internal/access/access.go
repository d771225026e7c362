// Package access holds the read-only view of an access decision that the
// broker hands to the delivery layer, and the pure derivations the delivery
// layer computes from it.
package access

import (
	"fmt"
	"strings"
)

// uidsPerUser is the size of one OS user's uid range.
const uidsPerUser = 100000

// DefaultShell is used when a request names neither a command nor a shell.
const DefaultShell = "/system/bin/sh"

// Policy is the broker's decision for a request.
type Policy int

const (
	PolicyQuery Policy = iota
	PolicyDeny
	PolicyAllow
	PolicyRestrict
)

var policyNames = map[Policy]string{
	PolicyQuery:    "query",
	PolicyDeny:     "deny",
	PolicyAllow:    "allow",
	PolicyRestrict: "restrict",
}

func (p Policy) String() string {
	if name, ok := policyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("policy(%d)", int(p))
}

// ParsePolicy accepts a policy name or its integer value.
func ParsePolicy(s string) (Policy, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for p, name := range policyNames {
		if s == name || s == fmt.Sprint(int(p)) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown policy %q (want query, deny, allow or restrict)", s)
}

// MultiuserMode controls how secondary OS users are handled.
type MultiuserMode int

const (
	// MultiuserOwnerOnly restricts access to the device owner.
	MultiuserOwnerOnly MultiuserMode = iota
	// MultiuserOwnerManaged lets the owner decide for every user.
	MultiuserOwnerManaged
	// MultiuserUser isolates each user with its own decisions.
	MultiuserUser
)

var multiuserNames = map[MultiuserMode]string{
	MultiuserOwnerOnly:    "owner_only",
	MultiuserOwnerManaged: "owner_managed",
	MultiuserUser:         "user",
}

func (m MultiuserMode) String() string {
	if name, ok := multiuserNames[m]; ok {
		return name
	}
	return fmt.Sprintf("multiuser(%d)", int(m))
}

// ParseMultiuserMode accepts a mode name or its integer value.
func ParseMultiuserMode(s string) (MultiuserMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for m, name := range multiuserNames {
		if s == name || s == fmt.Sprint(int(m)) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown multiuser mode %q (want owner_only, owner_managed or user)", s)
}

// Manager identifies the manager application.
type Manager struct {
	Package string
}

// ContentURI is the provider authority of the manager.
func (m Manager) ContentURI() string {
	return "content://" + m.Package + ".provider"
}

// Component is the explicit component target "<pkg>/<class>".
func (m Manager) Component(class string) string {
	return m.Package + "/" + class
}

// Record is the broker's decision about one requester. The delivery layer
// never mutates it.
type Record struct {
	UID       int
	Policy    Policy
	Notify    bool
	Multiuser MultiuserMode
	Manager   Manager
}

// OSUser is the user id passed to the launcher tools.
func (r Record) OSUser() int {
	if r.Multiuser == MultiuserUser {
		return r.UID / uidsPerUser
	}
	return 0
}

// NormalizedUID is the uid reported to the manager as "from.uid".
func (r Record) NormalizedUID() int {
	if r.Multiuser == MultiuserOwnerManaged {
		return r.UID % uidsPerUser
	}
	return r.UID
}

// Request is what the requester asked for.
type Request struct {
	UID     int
	Command string
	Shell   string
}

// Context ties a decision to the request and the requesting process.
type Context struct {
	Info Record
	Req  Request
	PID  int
}

// ResolveCommand picks exactly one of command, shell or the default shell.
func ResolveCommand(command, shell, defaultShell string) string {
	switch {
	case command != "":
		return command
	case shell != "":
		return shell
	default:
		return defaultShell
	}
}
