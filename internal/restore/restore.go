package restore

import (
	"context"
	"fmt"
	"time"

	"github.com/greyhollow/huekeep/internal/infrastructure/config"
	"github.com/greyhollow/huekeep/internal/infrastructure/logging"
	"github.com/greyhollow/huekeep/internal/snapshot"
)

// Options parameterizes a restore run.
type Options struct {
	// WakeupAdjustment is one of the config.Wakeup* modes and decides how
	// absolute schedule trigger times cross a timezone change.
	WakeupAdjustment string
}

// Runner drives one full restore pass against a destination bridge.
type Runner struct {
	transport Transport
	opts      Options
	log       *logging.Logger
}

func NewRunner(transport Transport, opts Options, log *logging.Logger) *Runner {
	if opts.WakeupAdjustment == "" {
		opts.WakeupAdjustment = config.WakeupPreserveWallClock
	}
	return &Runner{transport: transport, opts: opts, log: log}
}

// Run reconciles the snapshot onto the destination and returns the run's
// summary. An error is returned only for run-fatal conditions: a snapshot
// that fails validation, or a destination that cannot be read at all.
// Per-entity problems never fail the run; they land in the summary.
func (r *Runner) Run(ctx context.Context, snap *snapshot.Snapshot) (*Summary, error) {
	if err := snap.Validate(); err != nil {
		return nil, err
	}

	r.log.Info("reading destination bridge state")
	dest := snapshot.New()
	if err := r.transport.Get(ctx, "", dest); err != nil {
		return nil, fmt.Errorf("restore: reading destination state: %w", err)
	}

	ms := Match(snap, dest)
	g, err := BuildGraph(snap, ms)
	if err != nil {
		return nil, err
	}
	Resolve(snap, ms, g)

	summary := NewSummary()
	summary.Warnings = append(summary.Warnings, ms.Warnings...)

	opts := PlanOptions{WakeupAdjustment: r.opts.WakeupAdjustment}
	opts.SourceTimezone, opts.DestTimezone = r.loadTimezones(snap, dest, summary)

	plan := BuildPlan(snap, dest, ms, g, opts)
	for _, sk := range plan.Skipped {
		summary.Class(sk.Key.Class).Skipped++
	}
	summary.Skipped = append(summary.Skipped, plan.Skipped...)
	for _, key := range ms.Keys() {
		if corr := ms.Lookup(key.Class, key.ID); corr.Status == StatusMatched {
			summary.Class(key.Class).Matched++
		}
	}

	r.log.Info("applying restore plan",
		"operations", len(plan.Ops), "skipped", len(plan.Skipped))
	applier := NewApplier(r.transport, snap, dest, ms, summary, r.log)
	if err := applier.Run(ctx, plan); err != nil {
		return nil, err
	}
	if err := applier.CleanupResourceLinks(ctx); err != nil {
		return nil, err
	}

	summary.FinishedAt = time.Now()
	return summary, nil
}

// loadTimezones resolves the snapshot's and destination's IANA zones.
// When either fails to load, shift-offset adjustment degrades to carrying
// times verbatim and the degradation is surfaced as a warning.
func (r *Runner) loadTimezones(snap, dest *snapshot.Snapshot, summary *Summary) (src, dst *time.Location) {
	if r.opts.WakeupAdjustment != config.WakeupShiftOffset {
		return nil, nil
	}
	var err error
	if src, err = time.LoadLocation(snap.Config.Timezone); err != nil {
		summary.Warnings = append(summary.Warnings,
			fmt.Sprintf("unknown snapshot timezone %q, schedule times carried verbatim", snap.Config.Timezone))
		return nil, nil
	}
	if dst, err = time.LoadLocation(dest.Config.Timezone); err != nil {
		summary.Warnings = append(summary.Warnings,
			fmt.Sprintf("unknown destination timezone %q, schedule times carried verbatim", dest.Config.Timezone))
		return nil, nil
	}
	return src, dst
}
