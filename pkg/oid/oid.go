// Package oid provides the OID allocator external collaborator described in
// spec §6: new_relation_file_id, excluding collisions with existing class
// rows and existing physical files.
package oid

import (
	"sync"

	"github.com/relforge/relcore/pkg/types"
)

// FirstNormalID is the first id handed out to user-created relations; ids
// below it are reserved for bootstrap/system catalogs, mirroring Postgres's
// FirstNormalObjectId split.
const FirstNormalID types.RelationID = 16384

// ExistsChecker reports whether an id is already in use, either as a
// catalog row or as a physical file. Implemented by pkg/catalog.Store;
// pkg/smgr.Manager is adapted through CheckerFunc. Pool consults every
// checker it holds before handing out a candidate.
type ExistsChecker interface {
	RelationIDInUse(id types.RelationID) bool
}

// CheckerFunc adapts a plain function into an ExistsChecker, for
// collaborators like pkg/smgr.Manager whose existence check doesn't
// naturally implement the interface (it's keyed by (id, fork), not id
// alone).
type CheckerFunc func(types.RelationID) bool

// RelationIDInUse implements ExistsChecker.
func (f CheckerFunc) RelationIDInUse(id types.RelationID) bool { return f(id) }

// Allocator is the external OID-allocator contract.
type Allocator interface {
	// NewRelationFileID returns an id not currently used by any catalog row
	// or physical file. shared and persistence are accepted for interface
	// fidelity with the source's per-tablespace allocation hook; this
	// implementation allocates from one global monotonic counter regardless.
	NewRelationFileID(tablespace string, shared bool, persistence types.Persistence) (types.RelationID, error)
}

// Pool is a monotonic OID allocator with collision-avoidance against any
// number of registered ExistsCheckers.
type Pool struct {
	mu       sync.Mutex
	next     types.RelationID
	checkers []ExistsChecker
}

// NewPool creates a Pool that starts handing out ids at FirstNormalID.
func NewPool(checkers ...ExistsChecker) *Pool {
	return &Pool{next: FirstNormalID, checkers: checkers}
}

// Register adds a further ExistsChecker consulted by future allocations.
func (p *Pool) Register(c ExistsChecker) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.checkers = append(p.checkers, c)
}

// NewRelationFileID implements Allocator.
func (p *Pool) NewRelationFileID(_ string, _ bool, _ types.Persistence) (types.RelationID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for {
		candidate := p.next
		p.next++
		if p.next == 0 {
			// Wrapped past 2^32-1; resume above the reserved range. Collision
			// with a long-lived relation is handled by the retry loop below.
			p.next = FirstNormalID
		}
		if !p.inUse(candidate) {
			return candidate, nil
		}
	}
}

func (p *Pool) inUse(id types.RelationID) bool {
	for _, c := range p.checkers {
		if c.RelationIDInUse(id) {
			return true
		}
	}
	return false
}
