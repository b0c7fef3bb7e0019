package snapshot

import (
	"fmt"
)

// Reference is one cross-entity reference extracted from an entity's
// payload: the payload field it came from, and the (class, id) it targets.
type Reference struct {
	// Path locates the referencing field, e.g. "actions[2].address".
	Path string

	// Class and ID identify the referenced entity by its original
	// (capture-time) bridge-local identifier.
	Class Class
	ID    string
}

// References extracts every cross-entity reference from the payload of the
// given entity. The extraction rule is explicit per class; a payload whose
// reference-bearing fields cannot be parsed is a data-format error naming
// the entity.
//
// References into the bridge's own config are not entity references and
// are omitted.
func (s *Snapshot) References(class Class, id string) ([]Reference, error) {
	switch class {
	case ClassLights, ClassSensors:
		// Physical devices reference nothing.
		return nil, nil
	case ClassGroups:
		g, ok := s.Groups[id]
		if !ok {
			return nil, fmt.Errorf("%w: no group %q", ErrDataFormat, id)
		}
		return groupReferences(g), nil
	case ClassScenes:
		sc, ok := s.Scenes[id]
		if !ok {
			return nil, fmt.Errorf("%w: no scene %q", ErrDataFormat, id)
		}
		return sceneReferences(id, sc)
	case ClassSchedules:
		sch, ok := s.Schedules[id]
		if !ok {
			return nil, fmt.Errorf("%w: no schedule %q", ErrDataFormat, id)
		}
		return scheduleReferences(id, sch)
	case ClassRules:
		r, ok := s.Rules[id]
		if !ok {
			return nil, fmt.Errorf("%w: no rule %q", ErrDataFormat, id)
		}
		return ruleReferences(id, r)
	case ClassResourceLinks:
		rl, ok := s.ResourceLinks[id]
		if !ok {
			return nil, fmt.Errorf("%w: no resourcelink %q", ErrDataFormat, id)
		}
		return resourceLinkReferences(id, rl)
	default:
		return nil, fmt.Errorf("%w: class %q has no entities", ErrDataFormat, class)
	}
}

func groupReferences(g *Group) []Reference {
	refs := make([]Reference, 0, len(g.Lights)+len(g.Sensors))
	for i, lid := range g.Lights {
		refs = append(refs, Reference{
			Path:  fmt.Sprintf("lights[%d]", i),
			Class: ClassLights,
			ID:    lid,
		})
	}
	for i, sid := range g.Sensors {
		refs = append(refs, Reference{
			Path:  fmt.Sprintf("sensors[%d]", i),
			Class: ClassSensors,
			ID:    sid,
		})
	}
	return refs
}

func sceneReferences(id string, sc *Scene) ([]Reference, error) {
	switch sc.Type {
	case SceneTypeGroup, SceneTypeLight:
	default:
		return nil, fmt.Errorf("%w: scene %q has unknown type %q", ErrDataFormat, id, sc.Type)
	}

	var refs []Reference
	if sc.Type == SceneTypeGroup {
		if sc.Group == "" {
			return nil, fmt.Errorf("%w: group scene %q has no group", ErrDataFormat, id)
		}
		refs = append(refs, Reference{Path: "group", Class: ClassGroups, ID: sc.Group})
	}
	for i, lid := range sc.Lights {
		refs = append(refs, Reference{
			Path:  fmt.Sprintf("lights[%d]", i),
			Class: ClassLights,
			ID:    lid,
		})
	}
	// Light state entries reference their light too; a scene captured with
	// states for members the group has since lost still carries them.
	lightIDs := mapKeys(sc.LightStates)
	SortIDs(lightIDs)
	for _, lid := range lightIDs {
		refs = append(refs, Reference{
			Path:  "lightstates." + lid,
			Class: ClassLights,
			ID:    lid,
		})
	}
	return refs, nil
}

func scheduleReferences(id string, sch *Schedule) ([]Reference, error) {
	refs, err := commandReferences("command", sch.Command, true)
	if err != nil {
		return nil, fmt.Errorf("schedule %q: %w", id, err)
	}
	return refs, nil
}

func ruleReferences(id string, r *Rule) ([]Reference, error) {
	var refs []Reference
	for i, c := range r.Conditions {
		addr, err := ParseAddress(c.Address, false)
		if err != nil {
			return nil, fmt.Errorf("rule %q condition %d: %w", id, i, err)
		}
		if addr.Class == ClassConfig {
			continue
		}
		refs = append(refs, Reference{
			Path:  fmt.Sprintf("conditions[%d].address", i),
			Class: addr.Class,
			ID:    addr.ID,
		})
	}
	for i, a := range r.Actions {
		actionRefs, err := commandReferences(fmt.Sprintf("actions[%d]", i), a, false)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", id, err)
		}
		refs = append(refs, actionRefs...)
	}
	return refs, nil
}

// commandReferences extracts references from a stored command: the target
// of its address, and, when the command addresses a group, any scene
// named in its body.
func commandReferences(path string, cmd Command, apiForm bool) ([]Reference, error) {
	addr, err := ParseAddress(cmd.Address, apiForm)
	if err != nil {
		return nil, fmt.Errorf("%s.address: %w", path, err)
	}
	if addr.Class == ClassConfig {
		return nil, nil
	}

	refs := []Reference{{Path: path + ".address", Class: addr.Class, ID: addr.ID}}

	if addr.Class == ClassGroups {
		if sceneID, ok := cmd.Body["scene"].(string); ok && sceneID != "" {
			refs = append(refs, Reference{
				Path:  path + ".body.scene",
				Class: ClassScenes,
				ID:    sceneID,
			})
		}
	}
	return refs, nil
}

func resourceLinkReferences(id string, rl *ResourceLink) ([]Reference, error) {
	var refs []Reference
	for i, link := range rl.Links {
		addr, err := ParseAddress(link, false)
		if err != nil {
			return nil, fmt.Errorf("resourcelink %q: links[%d]: %w", id, i, err)
		}
		if addr.Class == ClassConfig {
			continue
		}
		refs = append(refs, Reference{
			Path:  fmt.Sprintf("links[%d]", i),
			Class: addr.Class,
			ID:    addr.ID,
		})
	}
	return refs, nil
}

// Built-in entities every bridge carries regardless of configuration:
// group 0 is the implicit all-lights group and sensor 1 the bridge's own
// daylight sensor. References to them resolve on any bridge.
func builtIn(class Class, id string) bool {
	return (class == ClassGroups && id == "0") ||
		(class == ClassSensors && id == "1")
}

// Validate checks the referential integrity of the snapshot: every
// reference must resolve to exactly one entity in the same snapshot (or a
// bridge built-in). A dangling reference is a capture-time data error and
// the snapshot must not be applied.
//
// Soft-deleted rules are carried in dumps but never restored, so their
// references are not checked.
func (s *Snapshot) Validate() error {
	for _, class := range EntityClasses {
		for _, id := range s.IDs(class) {
			if class == ClassRules && s.Rules[id].Deleted() {
				continue
			}
			refs, err := s.References(class, id)
			if err != nil {
				return err
			}
			for _, ref := range refs {
				if builtIn(ref.Class, ref.ID) {
					continue
				}
				if !s.Has(ref.Class, ref.ID) {
					return fmt.Errorf("%w: %s %q (%s) field %s points at missing %s %q",
						ErrUnresolvableReference,
						class, id, s.Name(class, id), ref.Path, ref.Class, ref.ID)
				}
			}
		}
	}
	return nil
}
