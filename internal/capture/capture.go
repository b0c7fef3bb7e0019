// Package capture implements the backup pass: a flat, faithful read of
// every resource collection the bridge exposes, written to a snapshot
// file. The pass itself is intentionally trivial: the only processing it
// performs before saving is scene light-state expansion, duplicate-name
// disambiguation, and referential integrity validation, all of which must
// happen at capture time so the restore pass can trust the file.
package capture

import (
	"context"
	"fmt"

	"github.com/greyhollow/huekeep/internal/infrastructure/logging"
	"github.com/greyhollow/huekeep/internal/snapshot"
)

// Getter is the read capability the capture pass needs from the bridge
// transport. *bridge.Client satisfies it.
type Getter interface {
	Get(ctx context.Context, path string, out any) error
}

// Runner performs backup runs against one bridge.
type Runner struct {
	transport Getter
	log       *logging.Logger
}

// New creates a capture runner.
func New(transport Getter, log *logging.Logger) *Runner {
	return &Runner{
		transport: transport,
		log:       log.With("component", "capture"),
	}
}

// Run captures the bridge's full state and writes it to path. It returns
// the captured snapshot and the renames the disambiguator applied.
//
// A snapshot that fails integrity validation is not written.
func (r *Runner) Run(ctx context.Context, path string) (*snapshot.Snapshot, []snapshot.Rename, error) {
	r.log.Info("reading full bridge state")
	snap := snapshot.New()
	if err := r.transport.Get(ctx, "", snap); err != nil {
		return nil, nil, fmt.Errorf("reading bridge state: %w", err)
	}

	// The full-state dump omits each scene's stored light states; they
	// need one read per scene.
	r.log.Info("reading scene light states", "scenes", len(snap.Scenes))
	for _, id := range snap.IDs(snapshot.ClassScenes) {
		var detail struct {
			LightStates map[string]map[string]any `json:"lightstates"`
		}
		if err := r.transport.Get(ctx, "scenes/"+id, &detail); err != nil {
			return nil, nil, fmt.Errorf("reading scene %s: %w", id, err)
		}
		snap.Scenes[id].LightStates = detail.LightStates
	}

	r.log.Info("disambiguating duplicate names")
	renames := snap.FixNames()
	for _, ren := range renames {
		r.log.Warn("fixed duplicate name",
			"class", ren.Class,
			"id", ren.ID,
			"old", ren.Old,
			"new", ren.New,
		)
	}

	if err := snap.Validate(); err != nil {
		return nil, nil, fmt.Errorf("captured state failed integrity check: %w", err)
	}

	if err := snapshot.Save(path, snap); err != nil {
		return nil, nil, err
	}

	r.log.Info("snapshot written",
		"path", path,
		"lights", len(snap.Lights),
		"sensors", len(snap.Sensors),
		"groups", len(snap.Groups),
		"scenes", len(snap.Scenes),
		"schedules", len(snap.Schedules),
		"rules", len(snap.Rules),
		"resourcelinks", len(snap.ResourceLinks),
	)
	return snap, renames, nil
}
