// Package restore implements the reconciliation engine that re-applies a
// captured snapshot onto a destination bridge whose devices were paired
// independently and therefore carry unrelated bridge-local identifiers.
//
// A restore run is a stateless recomputation from current destination
// truth. Each invocation:
//
//  1. Matches every snapshot entity against the destination: physical
//     devices by hardware unique id, logical entities by name within
//     their class scope, scenes by composite key.
//  2. Builds the dependency graph from every cross-entity reference and
//     resolves satisfiability, detecting cycles.
//  3. Plans an ordered operation list (topological, deterministic) with a
//     skip set carrying a reason per unrestorable entity.
//  4. Applies the plan one operation at a time, learning destination
//     identifiers as creations succeed and rewriting addresses and
//     bodies through them. A rejected operation is logged and skips its
//     dependents; the run always continues to a full report.
//  5. Cleans up resource links that no longer control any light on the
//     destination.
//
// No state persists between runs. Re-running after pairing more devices
// (or after a partial failure) re-derives everything and applies exactly
// what has become satisfiable, touching nothing already in place.
package restore
