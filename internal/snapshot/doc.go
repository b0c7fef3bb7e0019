// Package snapshot holds the in-memory representation of a captured bridge
// state and the operations that run over it before it is written to disk.
//
// A Snapshot carries one mapping per resource class (lights, sensors,
// groups, scenes, schedules, rules, resource links), each record keyed by
// its bridge-local identifier at capture time and typed against the
// bridge's native schema. The package also provides:
//
//   - Reference extraction: every cross-entity reference embedded in a
//     record's payload (rule condition/action addresses, schedule commands,
//     scene members, resource link targets) surfaced as (path, class, id)
//     tuples for the restore planner.
//   - Address parsing: the bridge's two address grammars, API-prefixed
//     schedule command addresses and bare rule/link addresses.
//   - Name disambiguation: the capture-time pass that rewrites duplicate
//     names within a class/scope so that name-based matching at restore
//     time is never ambiguous.
//   - File persistence: indented JSON whose section keys match the bridge
//     API, so a saved snapshot reads as a faithful dump.
//
// Entities are immutable after capture except for the disambiguator's
// rename pass. Integrity violations (malformed payloads, dangling
// references) are capture-time data errors and abort before any bridge
// mutation.
package snapshot
