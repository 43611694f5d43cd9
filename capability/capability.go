// Package capability gates which relations a caller embedding the engine
// may register, push tuples into, or drain derived tuples from. It is
// ambient infrastructure (SPEC_FULL.md §1's "capability gating (ambient,
// see below)" row): spec.md names no access-control component, but a host
// process that hands the same *runtime.Runtime to several subsystems
// needs a way to scope what each one can touch, exactly the problem the
// teacher's auth package solves for MySQL users and permissions.
package capability

import (
	"strings"

	"gopkg.in/src-d/go-errors.v1"
)

// Permission is a bitset of the operations a Gate may grant.
type Permission int

const (
	// RegisterPerm allows creating an input or output channel for a
	// relation that has not yet been registered.
	RegisterPerm Permission = 1 << iota
	// PushPerm allows pushing tuples onto an already-registered EDB
	// relation's input channel.
	PushPerm
	// DrainPerm allows draining an already-registered IDB relation's
	// output channel.
	DrainPerm
)

var (
	// AllPermissions holds every defined permission.
	AllPermissions = RegisterPerm | PushPerm | DrainPerm
	// DefaultPermissions are granted to a Native grant-table entry that
	// lists no permissions. A token absent from the table is always
	// denied.
	DefaultPermissions Permission = 0

	// PermissionNames translates between the human and machine
	// representations used by a grant file.
	PermissionNames = map[string]Permission{
		"register": RegisterPerm,
		"push":     PushPerm,
		"drain":    DrainPerm,
	}

	// ErrNotAuthorized is returned when a token lacks a needed
	// permission on a relation.
	ErrNotAuthorized = errors.NewKind("capability: not authorized")
	// ErrNoPermission names the specific permission a token was missing.
	ErrNoPermission = errors.NewKind("capability: token %q lacks %s permission on relation %q")
)

// String renders the permissions set to on, comma-separated.
func (p Permission) String() string {
	var names []string
	for name, bit := range PermissionNames {
		if p&bit != 0 {
			names = append(names, name)
		}
	}
	return strings.Join(names, ",")
}

// Gate checks whether a caller identified by token may exercise
// permission p against relation rel (a relation name, not a value.Id, so
// a grant file never needs a live interner).
type Gate interface {
	Allowed(token, rel string, p Permission) error
}

// Open is a Gate that grants every permission to every token, the
// embedding-engine equivalent of the teacher's auth.None: the default
// when a host has not opted into scoping access.
type Open struct{}

// Allowed implements Gate.
func (Open) Allowed(token, rel string, p Permission) error { return nil }
