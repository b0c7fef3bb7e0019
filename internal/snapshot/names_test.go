package snapshot

import (
	"strconv"
	"strings"
	"testing"
	"unicode/utf8"
)

func groupSnapshot(names ...string) *Snapshot {
	s := New()
	for i, name := range names {
		s.Groups[strconv.Itoa(i+1)] = &Group{Name: name, Type: "Room", Lights: []string{}}
	}
	return s
}

func groupNames(s *Snapshot) []string {
	var names []string
	for _, id := range s.IDs(ClassGroups) {
		names = append(names, s.Groups[id].Name)
	}
	return names
}

func TestFixNamesDuplicates(t *testing.T) {
	s := groupSnapshot("Kitchen", "Kitchen", "Kitchen")

	renames := s.FixNames()

	got := groupNames(s)
	want := []string{"Kitchen", "Kitchen2", "Kitchen3"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("group %d: got name %q, want %q", i+1, got[i], want[i])
		}
	}
	if len(renames) != 2 {
		t.Errorf("got %d renames, want 2", len(renames))
	}
	if renames[0].Old != "Kitchen" || renames[0].New != "Kitchen2" {
		t.Errorf("first rename = %q -> %q, want Kitchen -> Kitchen2", renames[0].Old, renames[0].New)
	}
}

func TestFixNamesSkipsTakenSuffix(t *testing.T) {
	// "Kitchen2" is already in use, so the duplicate must jump to "Kitchen3".
	s := groupSnapshot("Kitchen", "Kitchen", "Kitchen2")

	s.FixNames()

	if got := s.Groups["2"].Name; got != "Kitchen3" {
		t.Errorf("got %q, want Kitchen3", got)
	}
	if got := s.Groups["3"].Name; got != "Kitchen2" {
		t.Errorf("existing holder renamed to %q, want Kitchen2 untouched", got)
	}
}

func TestFixNamesUniqueUntouched(t *testing.T) {
	s := groupSnapshot("Kitchen", "Lounge", "Hall")

	if renames := s.FixNames(); len(renames) != 0 {
		t.Errorf("got %d renames for unique names, want 0", len(renames))
	}
}

func TestFixNamesLengthLimit(t *testing.T) {
	long := strings.Repeat("x", maxNameLength) // suffixing would exceed the limit
	s := groupSnapshot(long, long)

	s.FixNames()

	got := s.Groups["2"].Name
	want := ("2" + long)[:maxNameLength]
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if len(got) != maxNameLength {
		t.Errorf("fixed name is %d chars, want %d", len(got), maxNameLength)
	}
}

func TestFixNamesLengthLimitMultibyte(t *testing.T) {
	// 29 ASCII bytes plus a two-byte rune: prefixing the index lands the
	// byte limit in the middle of the final rune.
	long := strings.Repeat("x", maxNameLength-2) + "é"
	s := groupSnapshot(long, long)

	s.FixNames()

	got := s.Groups["2"].Name
	if !utf8.ValidString(got) {
		t.Fatalf("fixed name %q is not valid UTF-8", got)
	}
	if want := "2" + strings.Repeat("x", maxNameLength-2); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFixNamesGroupSceneScope(t *testing.T) {
	s := New()
	s.Groups["1"] = &Group{Name: "Lounge", Lights: []string{}}
	s.Groups["2"] = &Group{Name: "Kitchen", Lights: []string{}}
	// Same scene name in different groups is fine; within one group it is not.
	s.Scenes["aa"] = &Scene{Name: "Evening", Type: SceneTypeGroup, Group: "1"}
	s.Scenes["bb"] = &Scene{Name: "Evening", Type: SceneTypeGroup, Group: "1"}
	s.Scenes["cc"] = &Scene{Name: "Evening", Type: SceneTypeGroup, Group: "2"}

	renames := s.FixNames()

	if len(renames) != 1 {
		t.Fatalf("got %d renames, want 1", len(renames))
	}
	if s.Scenes["bb"].Name != "Evening2" {
		t.Errorf("got %q, want Evening2", s.Scenes["bb"].Name)
	}
	if s.Scenes["cc"].Name != "Evening" {
		t.Errorf("scene in other group renamed to %q, want Evening", s.Scenes["cc"].Name)
	}
}

func TestFixNamesLightScenesUntouched(t *testing.T) {
	s := New()
	s.Scenes["aa"] = &Scene{Name: "Relax", Type: SceneTypeLight, Lights: []string{"1"}}
	s.Scenes["bb"] = &Scene{Name: "Relax", Type: SceneTypeLight, Lights: []string{"2"}}

	if renames := s.FixNames(); len(renames) != 0 {
		t.Errorf("got %d renames for light scenes, want 0", len(renames))
	}
}

func TestFixNamesSkipsDeletedRules(t *testing.T) {
	s := New()
	s.Rules["1"] = &Rule{Name: "Night", Status: "enabled"}
	s.Rules["2"] = &Rule{Name: "Night", Status: "resourcedeleted"}
	s.Rules["3"] = &Rule{Name: "Night", Status: "enabled"}

	s.FixNames()

	if got := s.Rules["2"].Name; got != "Night" {
		t.Errorf("deleted rule renamed to %q, want Night", got)
	}
	if got := s.Rules["3"].Name; got != "Night2" {
		t.Errorf("got %q, want Night2", got)
	}
}
