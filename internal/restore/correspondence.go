package restore

import (
	"fmt"

	"github.com/greyhollow/huekeep/internal/snapshot"
)

// Status is the state of one snapshot entity's correspondence with the
// destination bridge.
type Status int

const (
	// StatusMatched: the entity exists on the destination; its
	// destination identifier is known.
	StatusMatched Status = iota

	// StatusToCreate: the entity does not exist on the destination but
	// can be created once its dependencies are available.
	StatusToCreate

	// StatusUnresolvable: the entity cannot currently be restored; the
	// Reason says why.
	StatusUnresolvable
)

func (s Status) String() string {
	switch s {
	case StatusMatched:
		return "matched"
	case StatusToCreate:
		return "to-create"
	case StatusUnresolvable:
		return "unresolvable"
	default:
		return "unknown"
	}
}

// Correspondence relates one snapshot entity to the destination bridge.
// Correspondences are recomputed from scratch on every restore run.
type Correspondence struct {
	Key  snapshot.EntityKey
	Name string

	Status Status

	// DestID is the entity's identifier on the destination. Set for
	// Matched entities at match time and for created entities as the
	// applier learns the bridge-assigned id.
	DestID string

	// Reason explains an Unresolvable status.
	Reason *SkipReason

	// builtin marks the implicit bridge entities (all-lights group 0,
	// daylight sensor 1). They satisfy references but are never planned.
	builtin bool
}

// MatchSet is the full correspondence relation of one restore run, in
// deterministic order (class order, then capture order within a class).
type MatchSet struct {
	byKey map[snapshot.EntityKey]*Correspondence
	order []snapshot.EntityKey

	// Warnings collects non-fatal oddities observed while matching
	// (duplicate identity keys, type divergence on matched devices).
	Warnings []string
}

func newMatchSet() *MatchSet {
	return &MatchSet{
		byKey: make(map[snapshot.EntityKey]*Correspondence),
	}
}

func (m *MatchSet) add(c *Correspondence) {
	if _, exists := m.byKey[c.Key]; exists {
		return
	}
	m.byKey[c.Key] = c
	if !c.builtin {
		m.order = append(m.order, c.Key)
	}
}

func (m *MatchSet) warnf(format string, args ...any) {
	m.Warnings = append(m.Warnings, fmt.Sprintf(format, args...))
}

// Lookup returns the correspondence for the given entity, or nil if the
// snapshot does not contain it (e.g. a soft-deleted rule).
func (m *MatchSet) Lookup(class snapshot.Class, id string) *Correspondence {
	return m.byKey[snapshot.EntityKey{Class: class, ID: id}]
}

// Keys returns every non-builtin correspondence key in deterministic order.
func (m *MatchSet) Keys() []snapshot.EntityKey {
	return m.order
}

// DestID returns the destination identifier for the given entity, if it
// is currently available (matched or already created this run).
func (m *MatchSet) DestID(class snapshot.Class, id string) (string, bool) {
	c := m.byKey[snapshot.EntityKey{Class: class, ID: id}]
	if c == nil || c.DestID == "" {
		return "", false
	}
	return c.DestID, true
}
