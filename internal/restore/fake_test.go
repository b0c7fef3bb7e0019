package restore

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/greyhollow/huekeep/internal/infrastructure/config"
	"github.com/greyhollow/huekeep/internal/infrastructure/logging"
	"github.com/greyhollow/huekeep/internal/snapshot"
)

// fakeBridge is an in-memory destination bridge. It serves the full-state
// read, applies mutations to its live state, and assigns creation ids the
// way a real bridge does.
type fakeBridge struct {
	state  *snapshot.Snapshot
	apiKey string

	nextID int
	calls  []string
	failOn map[string]error
}

func newFakeBridge(state *snapshot.Snapshot) *fakeBridge {
	return &fakeBridge{
		state:  state,
		apiKey: "destkey",
		nextID: 100,
		failOn: make(map[string]error),
	}
}

func (f *fakeBridge) APIKey() string { return f.apiKey }

func (f *fakeBridge) record(method, path string) {
	f.calls = append(f.calls, method+" "+path)
}

// reencode copies src into dst through JSON, the same shape the wire has.
func reencode(src, dst any) error {
	b, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}

func (f *fakeBridge) Get(ctx context.Context, path string, out any) error {
	f.record("GET", path)
	if err := f.failOn["GET "+path]; err != nil {
		return err
	}
	if path == "" {
		return reencode(f.state, out)
	}

	class, id, ok := strings.Cut(path, "/")
	if !ok {
		return fmt.Errorf("fake: unsupported read %q", path)
	}
	if !f.state.Has(snapshot.Class(class), id) {
		return fmt.Errorf("fake: no resource at %q", path)
	}
	var record any
	switch snapshot.Class(class) {
	case snapshot.ClassScenes:
		record = f.state.Scenes[id]
	case snapshot.ClassRules:
		record = f.state.Rules[id]
	case snapshot.ClassSchedules:
		record = f.state.Schedules[id]
	case snapshot.ClassResourceLinks:
		record = f.state.ResourceLinks[id]
	default:
		return fmt.Errorf("fake: unsupported read %q", path)
	}
	return reencode(record, out)
}

func (f *fakeBridge) Post(ctx context.Context, path string, payload any) (string, error) {
	f.record("POST", path)
	if err := f.failOn["POST "+path]; err != nil {
		return "", err
	}

	f.nextID++
	id := strconv.Itoa(f.nextID)

	switch snapshot.Class(path) {
	case snapshot.ClassSensors:
		record := &snapshot.Sensor{}
		if err := reencode(payload, record); err != nil {
			return "", err
		}
		f.state.Sensors[id] = record
	case snapshot.ClassGroups:
		record := &snapshot.Group{}
		if err := reencode(payload, record); err != nil {
			return "", err
		}
		f.state.Groups[id] = record
	case snapshot.ClassScenes:
		id = "gen" + id
		record := &snapshot.Scene{}
		if err := reencode(payload, record); err != nil {
			return "", err
		}
		f.state.Scenes[id] = record
	case snapshot.ClassSchedules:
		record := &snapshot.Schedule{}
		if err := reencode(payload, record); err != nil {
			return "", err
		}
		f.state.Schedules[id] = record
	case snapshot.ClassRules:
		record := &snapshot.Rule{}
		if err := reencode(payload, record); err != nil {
			return "", err
		}
		f.state.Rules[id] = record
	case snapshot.ClassResourceLinks:
		record := &snapshot.ResourceLink{}
		if err := reencode(payload, record); err != nil {
			return "", err
		}
		f.state.ResourceLinks[id] = record
	default:
		return "", fmt.Errorf("fake: unsupported create %q", path)
	}
	return id, nil
}

func (f *fakeBridge) Put(ctx context.Context, path string, payload any) error {
	f.record("PUT", path)
	if err := f.failOn["PUT "+path]; err != nil {
		return err
	}

	class, id, ok := strings.Cut(path, "/")
	if !ok {
		return fmt.Errorf("fake: unsupported update %q", path)
	}
	if !f.state.Has(snapshot.Class(class), id) {
		return fmt.Errorf("fake: no resource at %q", path)
	}
	// Partial update: absent fields keep their value, as on the bridge.
	var record any
	switch snapshot.Class(class) {
	case snapshot.ClassLights:
		record = f.state.Lights[id]
	case snapshot.ClassSensors:
		record = f.state.Sensors[id]
	case snapshot.ClassGroups:
		record = f.state.Groups[id]
	case snapshot.ClassScenes:
		record = f.state.Scenes[id]
	case snapshot.ClassSchedules:
		record = f.state.Schedules[id]
	case snapshot.ClassRules:
		record = f.state.Rules[id]
	case snapshot.ClassResourceLinks:
		record = f.state.ResourceLinks[id]
	default:
		return fmt.Errorf("fake: unsupported update %q", path)
	}
	return reencode(payload, record)
}

func (f *fakeBridge) Delete(ctx context.Context, path string) error {
	f.record("DELETE", path)
	if err := f.failOn["DELETE "+path]; err != nil {
		return err
	}

	class, id, ok := strings.Cut(path, "/")
	if !ok || snapshot.Class(class) != snapshot.ClassResourceLinks {
		return fmt.Errorf("fake: unsupported delete %q", path)
	}
	if _, exists := f.state.ResourceLinks[id]; !exists {
		return fmt.Errorf("fake: no resource at %q", path)
	}
	delete(f.state.ResourceLinks, id)
	return nil
}

func (f *fakeBridge) countCalls(prefix string) int {
	n := 0
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func testLogger() *logging.Logger {
	return logging.New(config.LoggingConfig{Level: "error"}, "test")
}

func testRunner(t *testing.T, bridge *fakeBridge) *Runner {
	t.Helper()
	return NewRunner(bridge, Options{}, testLogger())
}
