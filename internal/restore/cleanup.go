package restore

import (
	"context"
	"fmt"

	"github.com/greyhollow/huekeep/internal/snapshot"
)

// CleanupResourceLinks removes restored resource links that no longer
// control anything on the destination. A link is kept when at least one
// of its live rules or schedules addresses a light, or a group other than
// the implicit all-lights group; everything else is residue left behind
// by devices that were never paired here.
//
// The check runs against the destination's current records, not the
// snapshot: earlier operations of this run may have narrowed what a rule
// or schedule targets.
func (a *Applier) CleanupResourceLinks(ctx context.Context) error {
	for _, id := range a.snap.IDs(snapshot.ClassResourceLinks) {
		if err := ctx.Err(); err != nil {
			return err
		}
		corr := a.ms.Lookup(snapshot.ClassResourceLinks, id)
		if corr == nil || corr.DestID == "" {
			continue
		}

		var live liveLink
		if err := a.transport.Get(ctx, "resourcelinks/"+corr.DestID, &live); err != nil {
			a.summary.Warnings = append(a.summary.Warnings,
				fmt.Sprintf("cleanup: cannot read resource link %s: %v", corr.DestID, err))
			continue
		}

		relevant, err := a.linkIsRelevant(ctx, &live)
		if err != nil {
			a.summary.Warnings = append(a.summary.Warnings,
				fmt.Sprintf("cleanup: cannot inspect resource link %q: %v", live.Name, err))
			continue
		}
		if relevant {
			continue
		}

		a.log.Info("deleting residual resource link", "destID", corr.DestID, "name", live.Name)
		if err := a.transport.Delete(ctx, "resourcelinks/"+corr.DestID); err != nil {
			a.summary.Warnings = append(a.summary.Warnings,
				fmt.Sprintf("cleanup: cannot delete resource link %q: %v", live.Name, err))
			continue
		}
		corr.DestID = ""
		a.summary.LinksDeleted++
	}
	return nil
}

// liveLink is the slice of a resource link record the cleanup pass reads
// back from the destination.
type liveLink struct {
	Name  string   `json:"name"`
	Links []string `json:"links"`
}

func (a *Applier) linkIsRelevant(ctx context.Context, live *liveLink) (bool, error) {
	for _, l := range live.Links {
		addr, err := snapshot.ParseAddress(l, false)
		if err != nil {
			a.summary.Warnings = append(a.summary.Warnings,
				fmt.Sprintf("cleanup: resource link %q carries malformed link %q", live.Name, l))
			continue
		}
		switch addr.Class {
		case snapshot.ClassRules:
			var rule snapshot.Rule
			if err := a.transport.Get(ctx, "rules/"+addr.ID, &rule); err != nil {
				return false, err
			}
			for _, act := range rule.Actions {
				if addressControlsLights(act.Address, false) {
					return true, nil
				}
			}
		case snapshot.ClassSchedules:
			var sch snapshot.Schedule
			if err := a.transport.Get(ctx, "schedules/"+addr.ID, &sch); err != nil {
				return false, err
			}
			if addressControlsLights(sch.Command.Address, true) {
				return true, nil
			}
		}
	}
	return false, nil
}

// addressControlsLights reports whether the address targets a light, or a
// group other than the implicit all-lights group "0".
func addressControlsLights(address string, apiForm bool) bool {
	addr, err := snapshot.ParseAddress(address, apiForm)
	if err != nil {
		return false
	}
	switch addr.Class {
	case snapshot.ClassLights:
		return true
	case snapshot.ClassGroups:
		return addr.ID != "0"
	}
	return false
}
