package restore

import (
	"fmt"
	"strings"

	"github.com/greyhollow/huekeep/internal/snapshot"
)

// Graph is the directed "must exist before" relation derived from every
// cross-entity reference in the snapshot: an edge from each entity to each
// entity it references. The relation may legitimately contain cycles
// (rules enabling each other); Resolve detects and reports them instead of
// mis-ordering.
type Graph struct {
	deps map[snapshot.EntityKey][]snapshot.EntityKey
}

// BuildGraph derives the dependency graph for every entity in the match
// set. References to bridge built-ins are omitted: they exist everywhere
// and constrain nothing.
func BuildGraph(snap *snapshot.Snapshot, ms *MatchSet) (*Graph, error) {
	g := &Graph{deps: make(map[snapshot.EntityKey][]snapshot.EntityKey)}

	for _, key := range ms.Keys() {
		refs, err := snap.References(key.Class, key.ID)
		if err != nil {
			return nil, err
		}
		seen := make(map[snapshot.EntityKey]bool)
		for _, ref := range refs {
			dep := snapshot.EntityKey{Class: ref.Class, ID: ref.ID}
			if seen[dep] || dep == key {
				continue
			}
			corr := ms.Lookup(dep.Class, dep.ID)
			if corr != nil && corr.builtin {
				continue
			}
			seen[dep] = true
			g.deps[key] = append(g.deps[key], dep)
		}
	}
	return g, nil
}

// Dependencies returns the entities the given entity references.
func (g *Graph) Dependencies(key snapshot.EntityKey) []snapshot.EntityKey {
	return g.deps[key]
}

// DFS colouring for Resolve.
type visitState int

const (
	stateWhite visitState = iota // not visited
	stateGrey                    // on the current DFS path
	stateBlack                   // finished
)

// Resolve computes satisfiability for every entity and downgrades the
// correspondences of blocked entities to Unresolvable.
//
// An entity is satisfiable iff every reference resolves to a Matched
// correspondence or to a dependency that is itself satisfiable. Matched
// entities terminate the traversal: they already exist on the destination,
// so dependents may reference them regardless of whether their own update
// goes through. Entities on a reference cycle are all marked with a
// diagnostic listing the cycle, in capture order.
func Resolve(snap *snapshot.Snapshot, ms *MatchSet, g *Graph) {
	state := make(map[snapshot.EntityKey]visitState)
	var stack []snapshot.EntityKey

	var visit func(key snapshot.EntityKey) *SkipReason
	visit = func(key snapshot.EntityKey) *SkipReason {
		corr := ms.Lookup(key.Class, key.ID)
		if corr == nil {
			// Referenced entity carries no correspondence (a soft-deleted
			// rule): it will never exist on the destination.
			return &SkipReason{
				Kind:   ReasonBlocked,
				Detail: fmt.Sprintf("references deleted %s %s", key.Class, key.ID),
			}
		}
		if corr.builtin || corr.Status == StatusMatched {
			return nil
		}
		if corr.Status == StatusUnresolvable {
			return blockedBy(key, corr)
		}

		switch state[key] {
		case stateBlack:
			return nil
		case stateGrey:
			markCycle(ms, stack, key)
			return corr.Reason
		}

		state[key] = stateGrey
		stack = append(stack, key)

		for _, dep := range g.Dependencies(key) {
			reason := visit(dep)
			if reason != nil && corr.Status != StatusUnresolvable {
				corr.Status = StatusUnresolvable
				corr.Reason = reason
			}
		}

		stack = stack[:len(stack)-1]
		state[key] = stateBlack

		if corr.Status == StatusUnresolvable {
			return blockedBy(key, corr)
		}
		return nil
	}

	for _, key := range ms.Keys() {
		visit(key)
	}
}

// blockedBy wraps an entity's own skip reason into the reason seen by its
// dependents, naming the blocking entity once.
func blockedBy(key snapshot.EntityKey, corr *Correspondence) *SkipReason {
	detail := fmt.Sprintf("%s %s (%q): %s", key.Class, key.ID, corr.Name, corr.Reason)
	if corr.Reason.Kind == ReasonBlocked || corr.Reason.Kind == ReasonCycle {
		// Keep the chain shallow: point at the nearest blocker rather
		// than accumulating the whole path.
		detail = fmt.Sprintf("%s %s (%q) is skipped", key.Class, key.ID, corr.Name)
	}
	return &SkipReason{Kind: ReasonBlocked, Detail: detail}
}

// markCycle marks every entity on the detected cycle Unresolvable with a
// diagnostic naming all participants. The cycle runs from the first
// occurrence of key on the DFS stack to the top.
func markCycle(ms *MatchSet, stack []snapshot.EntityKey, key snapshot.EntityKey) {
	start := 0
	for i, k := range stack {
		if k == key {
			start = i
			break
		}
	}
	members := stack[start:]

	names := make([]string, 0, len(members))
	for _, k := range members {
		corr := ms.Lookup(k.Class, k.ID)
		names = append(names, fmt.Sprintf("%s %s (%q)", k.Class, k.ID, corr.Name))
	}
	reason := &SkipReason{
		Kind:   ReasonCycle,
		Detail: strings.Join(names, " -> "),
	}

	for _, k := range members {
		corr := ms.Lookup(k.Class, k.ID)
		if corr.Status != StatusUnresolvable {
			corr.Status = StatusUnresolvable
			corr.Reason = reason
		}
	}
}
