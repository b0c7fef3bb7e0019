package restore

import (
	"time"

	"github.com/greyhollow/huekeep/internal/snapshot"
)

// OpKind is the kind of one planned operation.
type OpKind int

const (
	// OpCreateOrUpdate creates the entity on the destination, or syncs
	// its attributes when it is already matched.
	OpCreateOrUpdate OpKind = iota

	// OpRename syncs a matched physical device's name (and copyable
	// config) to the snapshot's values. Devices are never created.
	OpRename
)

func (k OpKind) String() string {
	switch k {
	case OpCreateOrUpdate:
		return "create-or-update"
	case OpRename:
		return "rename"
	default:
		return "unknown"
	}
}

// Operation is one planned step against the destination bridge.
type Operation struct {
	Kind OpKind
	Key  snapshot.EntityKey
	Name string
}

// SkippedEntity records one entity left out of the plan and why.
type SkippedEntity struct {
	Key    snapshot.EntityKey
	Name   string
	Reason SkipReason
}

// Plan is the ordered operation list of one restore run: an executable
// prefix in dependency order, and the skip set with per-entity reasons.
type Plan struct {
	Ops     []Operation
	Skipped []SkippedEntity

	// LocalTimeOverrides carries adjusted schedule trigger times,
	// keyed by snapshot schedule id.
	LocalTimeOverrides map[string]string
}

// PlanOptions parameterizes plan construction.
type PlanOptions struct {
	// WakeupAdjustment is one of the config.Wakeup* modes.
	WakeupAdjustment string

	// SourceTimezone and DestTimezone are IANA names from the snapshot's
	// and destination's bridge config. An unknown zone disables
	// adjustment for the run (recorded as a warning by the caller).
	SourceTimezone *time.Location
	DestTimezone   *time.Location
}

// BuildPlan orders every restorable entity for application.
//
// The order is a topological sort over the dependency graph restricted to
// planned entities (Kahn's algorithm: repeatedly take entities whose
// planned dependencies are all emitted), tie-broken by class order and
// capture order for determinism. Matched entities carry no ordering
// constraint of their own but still gate their dependents until their
// position in the plan, which keeps the executed sequence free of forward
// references even when an update and a create touch the same chain.
func BuildPlan(snap, dest *snapshot.Snapshot, ms *MatchSet, g *Graph, opts PlanOptions) *Plan {
	plan := &Plan{LocalTimeOverrides: make(map[string]string)}

	planned := make(map[snapshot.EntityKey]bool)
	for _, key := range ms.Keys() {
		corr := ms.Lookup(key.Class, key.ID)
		switch corr.Status {
		case StatusUnresolvable:
			plan.Skipped = append(plan.Skipped, SkippedEntity{
				Key:    key,
				Name:   corr.Name,
				Reason: *corr.Reason,
			})
		case StatusMatched, StatusToCreate:
			if _, ok := operationFor(snap, dest, corr); ok {
				planned[key] = true
			}
		}
	}

	// Kahn's algorithm with stable order: every round emits, in match-set
	// order, each remaining entity whose planned dependencies are all
	// already emitted.
	indegree := make(map[snapshot.EntityKey]int)
	for key := range planned {
		for _, dep := range g.Dependencies(key) {
			if planned[dep] {
				indegree[key]++
			}
		}
	}

	emitted := make(map[snapshot.EntityKey]bool)
	remaining := len(planned)
	for remaining > 0 {
		progressed := false
		for _, key := range ms.Keys() {
			if !planned[key] || emitted[key] || indegree[key] > 0 {
				continue
			}
			corr := ms.Lookup(key.Class, key.ID)
			op, _ := operationFor(snap, dest, corr)
			plan.Ops = append(plan.Ops, op)
			emitted[key] = true
			remaining--
			progressed = true
			for _, dependent := range dependentsOf(g, ms, key, planned) {
				indegree[dependent]--
			}
		}
		// Resolve marked every cycle Unresolvable, so the restricted
		// graph is acyclic and each round must progress.
		if !progressed {
			break
		}
	}

	adjustSchedules(snap, plan, emitted, opts)
	return plan
}

// operationFor decides the operation for one restorable entity, or none
// when the destination already holds it verbatim.
func operationFor(snap, dest *snapshot.Snapshot, corr *Correspondence) (Operation, bool) {
	key := corr.Key
	switch key.Class {
	case snapshot.ClassLights:
		// Lights are only renamed, and only when the names diverge.
		if corr.Status != StatusMatched {
			return Operation{}, false
		}
		if dest.Lights[corr.DestID].Name == snap.Lights[key.ID].Name {
			return Operation{}, false
		}
		return Operation{Kind: OpRename, Key: key, Name: corr.Name}, true
	case snapshot.ClassSensors:
		if corr.Status == StatusToCreate {
			return Operation{Kind: OpCreateOrUpdate, Key: key, Name: corr.Name}, true
		}
		if dest.Sensors[corr.DestID].Name == snap.Sensors[key.ID].Name {
			return Operation{}, false
		}
		return Operation{Kind: OpRename, Key: key, Name: corr.Name}, true
	default:
		return Operation{Kind: OpCreateOrUpdate, Key: key, Name: corr.Name}, true
	}
}

// dependentsOf returns the planned entities that depend on key. The graph
// stores the relation in the other direction; plans are small enough that
// a scan per emission is simpler than maintaining a reverse index.
func dependentsOf(g *Graph, ms *MatchSet, key snapshot.EntityKey, planned map[snapshot.EntityKey]bool) []snapshot.EntityKey {
	var out []snapshot.EntityKey
	for _, candidate := range ms.Keys() {
		if !planned[candidate] {
			continue
		}
		for _, dep := range g.Dependencies(candidate) {
			if dep == key {
				out = append(out, candidate)
				break
			}
		}
	}
	return out
}

// adjustSchedules rewrites absolute schedule trigger times per the
// configured adjustment mode.
func adjustSchedules(snap *snapshot.Snapshot, plan *Plan, emitted map[snapshot.EntityKey]bool, opts PlanOptions) {
	for _, id := range snap.IDs(snapshot.ClassSchedules) {
		key := snapshot.EntityKey{Class: snapshot.ClassSchedules, ID: id}
		if !emitted[key] {
			continue
		}
		sch := snap.Schedules[id]
		if adjusted, changed := AdjustLocalTime(sch.LocalTime,
			opts.SourceTimezone, opts.DestTimezone, opts.WakeupAdjustment); changed {
			plan.LocalTimeOverrides[id] = adjusted
		}
	}
}
