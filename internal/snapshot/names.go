package snapshot

import (
	"strconv"
	"unicode/utf8"
)

// maxNameLength is the bridge's limit on resource names. Suffixing a
// duplicate may push a name past it, in which case the index moves to the
// front and the result is truncated.
const maxNameLength = 31

// Rename records one name rewrite applied by the disambiguator, so the
// caller can log it and so downstream consumers can account for names
// that no longer match what the user originally assigned.
type Rename struct {
	Class Class
	ID    string
	Old   string
	New   string
}

// FixNames disambiguates duplicate names across every class whose restore
// identity is the name: groups, schedules, rules, and resource links, each
// scoped to the whole class, plus group scenes scoped to their owning
// group. It must run at capture time, before the snapshot is saved;
// restore-time matching assumes pairwise-distinct names per scope.
//
// Within a scope, entities are walked in capture order; the first holder
// of a name keeps it, later holders get a numeric suffix (or, when the
// result would exceed the bridge's name limit, a numeric prefix with
// truncation). Renames are returned for reporting; they are not errors.
//
// Soft-deleted rules keep their names: the bridge tolerates the collision
// and they are never restored.
//
// LightScenes are not touched. Their restore identity includes the scene's
// appdata (or capture id as fallback), which is unique regardless of name.
func (s *Snapshot) FixNames() []Rename {
	var renames []Rename

	renames = append(renames, fixClassNames(s, ClassGroups, nil)...)
	renames = append(renames, fixClassNames(s, ClassSchedules, nil)...)
	renames = append(renames, fixClassNames(s, ClassRules, func(id string) bool {
		return s.Rules[id].Deleted()
	})...)
	renames = append(renames, fixClassNames(s, ClassResourceLinks, nil)...)
	renames = append(renames, s.fixGroupSceneNames()...)

	return renames
}

// fixClassNames runs the duplicate-fix pass over one class, skipping ids
// for which skip returns true.
func fixClassNames(s *Snapshot, class Class, skip func(id string) bool) []Rename {
	ids := s.IDs(class)
	if skip != nil {
		kept := ids[:0]
		for _, id := range ids {
			if !skip(id) {
				kept = append(kept, id)
			}
		}
		ids = kept
	}

	return fixScope(class, ids,
		func(id string) string { return s.Name(class, id) },
		func(id, name string) { s.setName(class, id, name) })
}

// fixGroupSceneNames disambiguates GroupScenes within each owning group.
func (s *Snapshot) fixGroupSceneNames() []Rename {
	byGroup := make(map[string][]string)
	for _, id := range s.IDs(ClassScenes) {
		sc := s.Scenes[id]
		if sc.Type == SceneTypeGroup {
			byGroup[sc.Group] = append(byGroup[sc.Group], id)
		}
	}

	groups := mapKeys(byGroup)
	SortIDs(groups)

	var renames []Rename
	for _, gid := range groups {
		renames = append(renames, fixScope(ClassScenes, byGroup[gid],
			func(id string) string { return s.Scenes[id].Name },
			func(id, name string) { s.Scenes[id].Name = name })...)
	}
	return renames
}

// fixScope applies the duplicate-name fix to one scope. ids must already
// be in capture order.
func fixScope(class Class, ids []string, get func(id string) string, set func(id, name string)) []Rename {
	// First pass: find names that occur more than once.
	seen := make(map[string]bool, len(ids))
	duplicates := make(map[string]int)
	for _, id := range ids {
		name := get(id)
		if seen[name] {
			duplicates[name] = 0
		}
		seen[name] = true
	}

	if len(duplicates) == 0 {
		return nil
	}

	// Second pass: the first holder keeps the name, later holders are
	// rewritten to the first unused suffixed form.
	var renames []Rename
	for _, id := range ids {
		name := get(id)
		index, dup := duplicates[name]
		if !dup {
			continue
		}
		if index == 0 {
			duplicates[name] = 1
			continue
		}
		for {
			index++
			fixed := name + strconv.Itoa(index)
			if len(fixed) > maxNameLength {
				// Suffixing overflows the name limit; prefix the index
				// instead and truncate on a rune boundary so the result
				// stays valid UTF-8.
				fixed = strconv.Itoa(index) + name
				for len(fixed) > maxNameLength {
					_, size := utf8.DecodeLastRuneInString(fixed)
					fixed = fixed[:len(fixed)-size]
				}
			}
			if !seen[fixed] {
				set(id, fixed)
				seen[fixed] = true
				renames = append(renames, Rename{Class: class, ID: id, Old: name, New: fixed})
				break
			}
		}
		duplicates[name] = index
	}
	return renames
}

// setName rewrites the display name of the given entity. Only the
// disambiguator mutates snapshot state.
func (s *Snapshot) setName(class Class, id, name string) {
	switch class {
	case ClassLights:
		s.Lights[id].Name = name
	case ClassSensors:
		s.Sensors[id].Name = name
	case ClassGroups:
		s.Groups[id].Name = name
	case ClassScenes:
		s.Scenes[id].Name = name
	case ClassSchedules:
		s.Schedules[id].Name = name
	case ClassRules:
		s.Rules[id].Name = name
	case ClassResourceLinks:
		s.ResourceLinks[id].Name = name
	}
}
