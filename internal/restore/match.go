package restore

import (
	"strings"

	"github.com/greyhollow/huekeep/internal/snapshot"
)

// daylightSensorName is the bridge's built-in daylight sensor, the only
// sensor legitimately lacking a unique id.
const daylightSensorName = "Daylight"

// Match computes the correspondence between every snapshot entity and the
// destination bridge's current state.
//
// Physical devices (lights, sensors) match by hardware unique id; a miss
// means the device is not paired yet and is expected. Logical entities
// match by normalized name within their class (scenes by their composite
// key), and a miss means ToCreate. Matching is stable: each destination
// entity is claimed at most once per run, so duplicate names on the
// destination cannot absorb two snapshot entities.
//
// Classes are matched in restore order because scene keys depend on the
// group correspondences computed before them.
func Match(snap, dest *snapshot.Snapshot) *MatchSet {
	ms := newMatchSet()

	// Implicit bridge entities: the all-lights group and the daylight
	// sensor exist on every bridge under fixed ids, whether or not the
	// snapshot carries records for them.
	ms.add(&Correspondence{
		Key:     snapshot.EntityKey{Class: snapshot.ClassGroups, ID: "0"},
		Status:  StatusMatched,
		DestID:  "0",
		builtin: true,
	})
	ms.add(&Correspondence{
		Key:     snapshot.EntityKey{Class: snapshot.ClassSensors, ID: "1"},
		Status:  StatusMatched,
		DestID:  "1",
		builtin: true,
	})

	matchLights(ms, snap, dest)
	matchSensors(ms, snap, dest)
	matchByName(ms, snap, dest, snapshot.ClassGroups)
	matchScenes(ms, snap, dest)
	matchByName(ms, snap, dest, snapshot.ClassSchedules)
	matchByName(ms, snap, dest, snapshot.ClassRules)
	matchByName(ms, snap, dest, snapshot.ClassResourceLinks)

	return ms
}

// uniqueIDIndex maps hardware unique ids to destination ids. Duplicate
// unique ids should be impossible; if one appears, the first (in capture
// order) wins and a warning is recorded.
func uniqueIDIndex(ms *MatchSet, dest *snapshot.Snapshot, class snapshot.Class) map[string]string {
	index := make(map[string]string)
	for _, id := range dest.IDs(class) {
		var unique, name string
		switch class {
		case snapshot.ClassLights:
			unique, name = dest.Lights[id].UniqueID, dest.Lights[id].Name
		case snapshot.ClassSensors:
			unique, name = dest.Sensors[id].UniqueID, dest.Sensors[id].Name
		}
		if unique == "" {
			if name != daylightSensorName {
				ms.warnf("destination %s %s (%q) has no unique id", class, id, name)
			}
			continue
		}
		if _, dup := index[unique]; dup {
			ms.warnf("destination %s %s has duplicate unique id %q", class, id, unique)
			continue
		}
		index[unique] = id
	}
	return index
}

func matchLights(ms *MatchSet, snap, dest *snapshot.Snapshot) {
	pool := uniqueIDIndex(ms, dest, snapshot.ClassLights)

	for _, id := range snap.IDs(snapshot.ClassLights) {
		light := snap.Lights[id]
		corr := &Correspondence{
			Key:  snapshot.EntityKey{Class: snapshot.ClassLights, ID: id},
			Name: light.Name,
		}
		destID, ok := pool[light.UniqueID]
		switch {
		case light.UniqueID == "":
			ms.warnf("light %s (%q) has no unique id in snapshot", id, light.Name)
			corr.Status = StatusUnresolvable
			corr.Reason = &SkipReason{Kind: ReasonDeviceNotPaired, Detail: "snapshot record has no unique id"}
		case ok:
			corr.Status = StatusMatched
			corr.DestID = destID
			delete(pool, light.UniqueID)
		default:
			corr.Status = StatusUnresolvable
			corr.Reason = &SkipReason{Kind: ReasonDeviceNotPaired, Detail: "unique id " + light.UniqueID}
		}
		ms.add(corr)
	}
}

func matchSensors(ms *MatchSet, snap, dest *snapshot.Snapshot) {
	pool := uniqueIDIndex(ms, dest, snapshot.ClassSensors)

	for _, id := range snap.IDs(snapshot.ClassSensors) {
		// The daylight sensor correspondence is seeded before matching;
		// the bridge's own record at id 1 is configured, never created.
		if id == "1" {
			continue
		}
		sensor := snap.Sensors[id]
		corr := &Correspondence{
			Key:  snapshot.EntityKey{Class: snapshot.ClassSensors, ID: id},
			Name: sensor.Name,
		}

		destID, ok := pool[sensor.UniqueID]
		switch {
		case ok:
			corr.Status = StatusMatched
			corr.DestID = destID
			delete(pool, sensor.UniqueID)
			if dest.Sensors[destID].Type != sensor.Type {
				ms.warnf("sensor %s (%q) has type %q on destination, expected %q",
					id, sensor.Name, dest.Sensors[destID].Type, sensor.Type)
			}
		case sensor.IsCLIP():
			// Virtual sensors carry no hardware; they are recreated.
			corr.Status = StatusToCreate
		default:
			corr.Status = StatusUnresolvable
			corr.Reason = &SkipReason{Kind: ReasonDeviceNotPaired, Detail: "unique id " + sensor.UniqueID}
		}
		ms.add(corr)
	}
}

// namePool indexes destination entities of one class by normalized name,
// preserving capture order so stable matching is deterministic.
type namePool struct {
	ids map[string][]string
}

func newNamePool(ms *MatchSet, dest *snapshot.Snapshot, class snapshot.Class) *namePool {
	p := &namePool{ids: make(map[string][]string)}
	for _, id := range dest.IDs(class) {
		if class == snapshot.ClassRules && dest.Rules[id].Deleted() {
			continue
		}
		name := normalizeName(dest.Name(class, id))
		if len(p.ids[name]) > 0 {
			ms.warnf("destination has duplicate %s name %q (ids %s, %s)",
				class, name, p.ids[name][0], id)
		}
		p.ids[name] = append(p.ids[name], id)
	}
	return p
}

// claim removes and returns the first destination entity with the given
// name, so no destination entity matches twice.
func (p *namePool) claim(name string) (string, bool) {
	ids := p.ids[name]
	if len(ids) == 0 {
		return "", false
	}
	p.ids[name] = ids[1:]
	return ids[0], true
}

func normalizeName(name string) string {
	return strings.TrimSpace(name)
}

// matchByName matches one name-identified class. Snapshot-side duplicate
// names should have been removed by the capture-time disambiguator; if any
// survive, the match is arbitrary and a warning is recorded.
func matchByName(ms *MatchSet, snap, dest *snapshot.Snapshot, class snapshot.Class) {
	pool := newNamePool(ms, dest, class)
	seen := make(map[string]string)

	for _, id := range snap.IDs(class) {
		if class == snapshot.ClassRules && snap.Rules[id].Deleted() {
			continue
		}
		name := normalizeName(snap.Name(class, id))
		corr := &Correspondence{
			Key:  snapshot.EntityKey{Class: class, ID: id},
			Name: name,
		}

		if prev, dup := seen[name]; dup {
			ms.warnf("snapshot has duplicate %s name %q (ids %s, %s); matching is arbitrary",
				class, name, prev, id)
		}
		seen[name] = id

		if destID, ok := pool.claim(name); ok {
			if class == snapshot.ClassGroups && dest.Groups[destID].Type != snap.Groups[id].Type {
				corr.Status = StatusUnresolvable
				corr.Reason = &SkipReason{
					Kind:   ReasonTypeMismatch,
					Detail: "destination group is " + dest.Groups[destID].Type + ", snapshot has " + snap.Groups[id].Type,
				}
			} else {
				corr.Status = StatusMatched
				corr.DestID = destID
			}
		} else {
			corr.Status = StatusToCreate
		}
		ms.add(corr)
	}
}

// matchScenes matches scenes by composite key. GroupScenes are identified
// by (destination group, name): the owning group's correspondence supplies
// the destination group id, and a group not present on the destination
// yields a placeholder key that can never collide with a live scene.
// LightScenes are identified by their appdata blob (or capture id as
// fallback) plus name.
func matchScenes(ms *MatchSet, snap, dest *snapshot.Snapshot) {
	destKeys := make(map[string]string)
	for _, id := range dest.IDs(snapshot.ClassScenes) {
		key, ok := destSceneKey(id, dest.Scenes[id])
		if !ok {
			ms.warnf("destination scene %s has unknown type %q", id, dest.Scenes[id].Type)
			continue
		}
		if prev, dup := destKeys[key]; dup {
			ms.warnf("destination scenes %s and %s share key %q", prev, id, key)
			continue
		}
		destKeys[key] = id
	}

	claimed := make(map[string]bool)
	seen := make(map[string]string)
	for _, id := range snap.IDs(snapshot.ClassScenes) {
		scene := snap.Scenes[id]
		corr := &Correspondence{
			Key:  snapshot.EntityKey{Class: snapshot.ClassScenes, ID: id},
			Name: scene.Name,
		}

		key := snapSceneKey(ms, id, scene)
		if prev, dup := seen[key]; dup {
			ms.warnf("snapshot scenes %s and %s share key %q; matching is arbitrary", prev, id, key)
		}
		seen[key] = id
		destID, ok := destKeys[key]
		switch {
		case ok && !claimed[key]:
			claimed[key] = true
			if dest.Scenes[destID].Type != scene.Type {
				corr.Status = StatusUnresolvable
				corr.Reason = &SkipReason{
					Kind:   ReasonTypeMismatch,
					Detail: "destination scene is " + dest.Scenes[destID].Type + ", snapshot has " + scene.Type,
				}
			} else {
				corr.Status = StatusMatched
				corr.DestID = destID
				if dest.Scenes[destID].Recycle != scene.Recycle {
					ms.warnf("scene %s (%q) has different recycle flag on destination", id, scene.Name)
				}
			}
		default:
			corr.Status = StatusToCreate
		}
		ms.add(corr)
	}
}

// destSceneKey builds the identity key of a scene already on the
// destination; its group reference is already a destination id.
func destSceneKey(id string, sc *snapshot.Scene) (string, bool) {
	switch sc.Type {
	case snapshot.SceneTypeGroup:
		return sc.Group + "%" + sc.Name, true
	case snapshot.SceneTypeLight:
		if sc.AppData.Data != "" {
			return sc.AppData.Data + "!" + sc.Name, true
		}
		return id + "!" + sc.Name, true
	default:
		return "", false
	}
}

// snapSceneKey builds the identity key of a snapshot scene in destination
// terms, translating the owning group through its correspondence.
func snapSceneKey(ms *MatchSet, id string, sc *snapshot.Scene) string {
	switch sc.Type {
	case snapshot.SceneTypeGroup:
		group := sc.Group
		if destID, ok := ms.DestID(snapshot.ClassGroups, group); ok {
			group = destID
		} else {
			// Owning group absent on destination: a placeholder that no
			// live scene key can equal.
			group = "~" + group
		}
		return group + "%" + sc.Name
	case snapshot.SceneTypeLight:
		if sc.AppData.Data != "" {
			return sc.AppData.Data + "!" + sc.Name
		}
		return id + "!" + sc.Name
	default:
		// Unknown types were rejected by snapshot validation; an opaque
		// key keeps them inert if one slips through.
		return "?" + id
	}
}
