package restore

import (
	"strings"
	"testing"

	"github.com/greyhollow/huekeep/internal/snapshot"
)

func TestMatchLightsByUniqueID(t *testing.T) {
	snap := snapshot.New()
	snap.Lights["1"] = &snapshot.Light{Name: "Lounge main", UniqueID: "aa:01"}
	snap.Lights["2"] = &snapshot.Light{Name: "Hall spot", UniqueID: "bb:02"}

	dest := snapshot.New()
	// Same hardware, different bridge-local id.
	dest.Lights["9"] = &snapshot.Light{Name: "Old name", UniqueID: "aa:01"}

	ms := Match(snap, dest)

	matched := ms.Lookup(snapshot.ClassLights, "1")
	if matched.Status != StatusMatched || matched.DestID != "9" {
		t.Errorf("light 1: got status %v dest %q, want matched 9", matched.Status, matched.DestID)
	}

	unpaired := ms.Lookup(snapshot.ClassLights, "2")
	if unpaired.Status != StatusUnresolvable {
		t.Fatalf("light 2: got status %v, want unresolvable", unpaired.Status)
	}
	if unpaired.Reason.Kind != ReasonDeviceNotPaired {
		t.Errorf("light 2: got reason %v, want device not paired", unpaired.Reason.Kind)
	}
}

func TestMatchLightsNeverByName(t *testing.T) {
	snap := snapshot.New()
	snap.Lights["1"] = &snapshot.Light{Name: "Lounge main", UniqueID: "aa:01"}

	dest := snapshot.New()
	dest.Lights["1"] = &snapshot.Light{Name: "Lounge main", UniqueID: "cc:03"}

	ms := Match(snap, dest)
	if got := ms.Lookup(snapshot.ClassLights, "1").Status; got != StatusUnresolvable {
		t.Errorf("same-name light with different hardware: got %v, want unresolvable", got)
	}
}

func TestMatchSensors(t *testing.T) {
	snap := snapshot.New()
	snap.Sensors["1"] = &snapshot.Sensor{Name: "Daylight", Type: "Daylight"}
	snap.Sensors["2"] = &snapshot.Sensor{Name: "Hall motion", Type: "ZLLPresence", UniqueID: "dd:04"}
	snap.Sensors["3"] = &snapshot.Sensor{Name: "Virtual flag", Type: snapshot.SensorCLIPGenericFlag, UniqueID: "ee:05"}

	dest := snapshot.New()
	dest.Sensors["1"] = &snapshot.Sensor{Name: "Daylight", Type: "Daylight"}

	ms := Match(snap, dest)

	daylight := ms.Lookup(snapshot.ClassSensors, "1")
	if daylight.Status != StatusMatched || daylight.DestID != "1" {
		t.Errorf("daylight: got %v/%q, want matched/1", daylight.Status, daylight.DestID)
	}

	if got := ms.Lookup(snapshot.ClassSensors, "2").Status; got != StatusUnresolvable {
		t.Errorf("physical sensor: got %v, want unresolvable", got)
	}

	// Virtual CLIP sensors carry no hardware and are recreated.
	if got := ms.Lookup(snapshot.ClassSensors, "3").Status; got != StatusToCreate {
		t.Errorf("CLIP sensor: got %v, want to-create", got)
	}
}

func TestMatchDaylightSeededWithoutRecord(t *testing.T) {
	// The daylight sensor exists on every bridge under id 1; rules may
	// reference it even when the snapshot carries no record for it.
	snap := snapshot.New()
	dest := snapshot.New()

	ms := Match(snap, dest)

	destID, ok := ms.DestID(snapshot.ClassSensors, "1")
	if !ok || destID != "1" {
		t.Errorf("daylight: got %q/%v, want 1/true", destID, ok)
	}

	// Builtins satisfy references but are never planned.
	for _, key := range ms.Keys() {
		if key.Class == snapshot.ClassSensors && key.ID == "1" {
			t.Error("daylight correspondence appears in plannable keys")
		}
	}
}

func TestMatchGroupsByName(t *testing.T) {
	snap := snapshot.New()
	snap.Groups["1"] = &snapshot.Group{Name: "Lounge", Type: "Room", Lights: []string{}}
	snap.Groups["2"] = &snapshot.Group{Name: "Office", Type: "Room", Lights: []string{}}
	snap.Groups["3"] = &snapshot.Group{Name: "Upstairs", Type: "Zone", Lights: []string{}}

	dest := snapshot.New()
	dest.Groups["5"] = &snapshot.Group{Name: "Lounge", Type: "Room", Lights: []string{}}
	dest.Groups["6"] = &snapshot.Group{Name: "Upstairs", Type: "Room", Lights: []string{}}

	ms := Match(snap, dest)

	if c := ms.Lookup(snapshot.ClassGroups, "1"); c.Status != StatusMatched || c.DestID != "5" {
		t.Errorf("Lounge: got %v/%q, want matched/5", c.Status, c.DestID)
	}
	if got := ms.Lookup(snapshot.ClassGroups, "2").Status; got != StatusToCreate {
		t.Errorf("Office: got %v, want to-create", got)
	}

	// Same name but Zone vs Room: overwriting would change the group's nature.
	mismatch := ms.Lookup(snapshot.ClassGroups, "3")
	if mismatch.Status != StatusUnresolvable || mismatch.Reason.Kind != ReasonTypeMismatch {
		t.Errorf("Upstairs: got %v/%v, want unresolvable/type mismatch", mismatch.Status, mismatch.Reason)
	}
}

func TestMatchStableClaiming(t *testing.T) {
	snap := snapshot.New()
	snap.Schedules["1"] = &snapshot.Schedule{Name: "Wake up", Command: snapshot.Command{Address: "/api/k/groups/0/action"}}
	snap.Schedules["2"] = &snapshot.Schedule{Name: "Wake up2", Command: snapshot.Command{Address: "/api/k/groups/0/action"}}

	dest := snapshot.New()
	dest.Schedules["4"] = &snapshot.Schedule{Name: "Wake up", Command: snapshot.Command{Address: "/api/d/groups/0/action"}}

	ms := Match(snap, dest)

	if c := ms.Lookup(snapshot.ClassSchedules, "1"); c.DestID != "4" {
		t.Errorf("schedule 1: got dest %q, want 4", c.DestID)
	}
	if got := ms.Lookup(snapshot.ClassSchedules, "2").Status; got != StatusToCreate {
		t.Errorf("schedule 2: got %v, want to-create", got)
	}
}

func TestMatchScenes(t *testing.T) {
	snap := snapshot.New()
	snap.Groups["1"] = &snapshot.Group{Name: "Lounge", Type: "Room", Lights: []string{}}
	snap.Scenes["srcA"] = &snapshot.Scene{Name: "Evening", Type: snapshot.SceneTypeGroup, Group: "1"}
	snap.Scenes["srcB"] = &snapshot.Scene{Name: "Reading", Type: snapshot.SceneTypeLight,
		AppData: snapshot.AppData{Version: 1, Data: "blob42"}}
	snap.Scenes["srcC"] = &snapshot.Scene{Name: "Fresh", Type: snapshot.SceneTypeGroup, Group: "1"}

	dest := snapshot.New()
	dest.Groups["7"] = &snapshot.Group{Name: "Lounge", Type: "Room", Lights: []string{}}
	// Same (destination group, name) key, different bridge-local guid.
	dest.Scenes["dstX"] = &snapshot.Scene{Name: "Evening", Type: snapshot.SceneTypeGroup, Group: "7"}
	// Same appdata identity for the light scene.
	dest.Scenes["dstY"] = &snapshot.Scene{Name: "Reading", Type: snapshot.SceneTypeLight,
		AppData: snapshot.AppData{Version: 1, Data: "blob42"}}

	ms := Match(snap, dest)

	if c := ms.Lookup(snapshot.ClassScenes, "srcA"); c.Status != StatusMatched || c.DestID != "dstX" {
		t.Errorf("group scene: got %v/%q, want matched/dstX", c.Status, c.DestID)
	}
	if c := ms.Lookup(snapshot.ClassScenes, "srcB"); c.Status != StatusMatched || c.DestID != "dstY" {
		t.Errorf("light scene: got %v/%q, want matched/dstY", c.Status, c.DestID)
	}
	if got := ms.Lookup(snapshot.ClassScenes, "srcC").Status; got != StatusToCreate {
		t.Errorf("new scene: got %v, want to-create", got)
	}
}

func TestMatchScenesDuplicateKeyWarns(t *testing.T) {
	snap := snapshot.New()
	snap.Groups["1"] = &snapshot.Group{Name: "Lounge", Type: "Room", Lights: []string{}}
	// Two snapshot scenes with the same identity key: which one claims a
	// destination scene is arbitrary and must be surfaced.
	snap.Scenes["srcA"] = &snapshot.Scene{Name: "Evening", Type: snapshot.SceneTypeGroup, Group: "1"}
	snap.Scenes["srcB"] = &snapshot.Scene{Name: "Evening", Type: snapshot.SceneTypeGroup, Group: "1"}

	dest := snapshot.New()
	dest.Groups["7"] = &snapshot.Group{Name: "Lounge", Type: "Room", Lights: []string{}}
	dest.Scenes["dstX"] = &snapshot.Scene{Name: "Evening", Type: snapshot.SceneTypeGroup, Group: "7"}

	ms := Match(snap, dest)

	if c := ms.Lookup(snapshot.ClassScenes, "srcA"); c.Status != StatusMatched || c.DestID != "dstX" {
		t.Errorf("first scene: got %v/%q, want matched/dstX", c.Status, c.DestID)
	}
	if got := ms.Lookup(snapshot.ClassScenes, "srcB").Status; got != StatusToCreate {
		t.Errorf("second scene: got %v, want to-create", got)
	}

	var warned bool
	for _, w := range ms.Warnings {
		if strings.Contains(w, "srcA") && strings.Contains(w, "srcB") {
			warned = true
		}
	}
	if !warned {
		t.Errorf("no duplicate-key warning recorded: %v", ms.Warnings)
	}
}

func TestMatchSceneGroupMissing(t *testing.T) {
	snap := snapshot.New()
	snap.Groups["1"] = &snapshot.Group{Name: "Attic", Type: "Room", Lights: []string{}}
	snap.Scenes["s"] = &snapshot.Scene{Name: "Evening", Type: snapshot.SceneTypeGroup, Group: "1"}

	dest := snapshot.New()
	// A destination scene with the same name under an unrelated group must
	// not be claimed.
	dest.Groups["3"] = &snapshot.Group{Name: "Cellar", Type: "Room", Lights: []string{}}
	dest.Scenes["d"] = &snapshot.Scene{Name: "Evening", Type: snapshot.SceneTypeGroup, Group: "3"}

	ms := Match(snap, dest)
	if got := ms.Lookup(snapshot.ClassScenes, "s").Status; got != StatusToCreate {
		t.Errorf("scene of missing group: got %v, want to-create", got)
	}
}

func TestMatchBuiltinGroupZero(t *testing.T) {
	ms := Match(snapshot.New(), snapshot.New())
	if destID, ok := ms.DestID(snapshot.ClassGroups, "0"); !ok || destID != "0" {
		t.Errorf("group 0: got %q/%v, want 0/true", destID, ok)
	}
	for _, key := range ms.Keys() {
		if key.Class == snapshot.ClassGroups && key.ID == "0" {
			t.Error("builtin group 0 appears in plannable keys")
		}
	}
}
