package capture

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/greyhollow/huekeep/internal/infrastructure/config"
	"github.com/greyhollow/huekeep/internal/infrastructure/logging"
	"github.com/greyhollow/huekeep/internal/snapshot"
)

// fakeGetter serves a canned full-state dump plus per-scene detail reads,
// the way the bridge splits them.
type fakeGetter struct {
	state       *snapshot.Snapshot
	lightstates map[string]map[string]map[string]any
	fail        map[string]error
}

func (f *fakeGetter) Get(ctx context.Context, path string, out any) error {
	if err := f.fail[path]; err != nil {
		return err
	}

	if path == "" {
		return reencode(f.state, out)
	}

	id, ok := strings.CutPrefix(path, "scenes/")
	if !ok {
		return errors.New("fake: unexpected path " + path)
	}
	return reencode(map[string]any{"lightstates": f.lightstates[id]}, out)
}

func reencode(from, to any) error {
	data, err := json.Marshal(from)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, to)
}

func testLogger() *logging.Logger {
	return logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stderr"}, "test")
}

func bridgeState() *snapshot.Snapshot {
	s := snapshot.New()
	s.Config.Name = "Home bridge"
	s.Lights["1"] = &snapshot.Light{Name: "Lounge main", UniqueID: "aa:01"}
	s.Lights["2"] = &snapshot.Light{Name: "Lounge reading", UniqueID: "aa:02"}
	s.Groups["1"] = &snapshot.Group{Name: "Lounge", Type: "Room", Lights: []string{"1", "2"}}
	s.Groups["2"] = &snapshot.Group{Name: "Lounge", Type: "Zone", Lights: []string{"1"}}
	s.Scenes["abc"] = &snapshot.Scene{
		Name: "Evening", Type: snapshot.SceneTypeGroup, Group: "1",
	}
	return s
}

func TestRunCapturesAndWrites(t *testing.T) {
	getter := &fakeGetter{
		state: bridgeState(),
		lightstates: map[string]map[string]map[string]any{
			"abc": {"1": {"on": true, "bri": float64(200)}},
		},
	}
	path := filepath.Join(t.TempDir(), "backup.json")

	snap, renames, err := New(getter, testLogger()).Run(context.Background(), path)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	// Scene detail reads were folded into the snapshot.
	if got := snap.Scenes["abc"].LightStates["1"]["bri"]; got != float64(200) {
		t.Errorf("scene lightstate bri = %v, want 200", got)
	}

	// The duplicate group names were disambiguated before writing.
	if len(renames) != 1 {
		t.Fatalf("got %d renames, want 1: %v", len(renames), renames)
	}
	if snap.Groups["1"].Name != "Lounge" || snap.Groups["2"].Name != "Lounge2" {
		t.Errorf("group names = %q, %q; want Lounge, Lounge2",
			snap.Groups["1"].Name, snap.Groups["2"].Name)
	}

	// The written file loads back as a valid snapshot.
	loaded, err := snapshot.Load(path)
	if err != nil {
		t.Fatalf("loading written snapshot: %v", err)
	}
	if loaded.Config.Name != "Home bridge" {
		t.Errorf("loaded config name = %q", loaded.Config.Name)
	}
}

func TestRunSceneReadFailure(t *testing.T) {
	getter := &fakeGetter{
		state: bridgeState(),
		fail:  map[string]error{"scenes/abc": errors.New("connection reset")},
	}
	path := filepath.Join(t.TempDir(), "backup.json")

	_, _, err := New(getter, testLogger()).Run(context.Background(), path)
	if err == nil {
		t.Fatal("want error when a scene read fails")
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Error("snapshot written despite failure")
	}
}

func TestRunInvalidStateNotWritten(t *testing.T) {
	state := bridgeState()
	// A group pointing at a light the dump does not contain.
	state.Groups["1"].Lights = append(state.Groups["1"].Lights, "99")

	getter := &fakeGetter{
		state:       state,
		lightstates: map[string]map[string]map[string]any{"abc": {}},
	}
	path := filepath.Join(t.TempDir(), "backup.json")

	_, _, err := New(getter, testLogger()).Run(context.Background(), path)
	if err == nil {
		t.Fatal("want integrity error")
	}
	if !errors.Is(err, snapshot.ErrUnresolvableReference) {
		t.Errorf("error = %v, want ErrUnresolvableReference", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Error("snapshot written despite integrity failure")
	}
}
