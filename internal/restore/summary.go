package restore

import (
	"fmt"
	"strings"
	"time"

	"github.com/greyhollow/huekeep/internal/snapshot"
)

// ClassCounts tallies one resource class's outcomes over a restore run.
type ClassCounts struct {
	Matched int
	Created int
	Updated int
	Skipped int
	Failed  int
}

// Failure records one operation the destination bridge rejected.
type Failure struct {
	Key  snapshot.EntityKey
	Name string
	Err  string
}

// Summary is the full report of one restore run. The run itself never
// aborts on a per-entity problem; everything an operator needs to act on
// ends up here.
type Summary struct {
	StartedAt  time.Time
	FinishedAt time.Time

	counts map[snapshot.Class]*ClassCounts

	Skipped  []SkippedEntity
	Failures []Failure
	Warnings []string

	// LinksDeleted counts resource links removed by residue cleanup.
	LinksDeleted int
}

// NewSummary returns an empty summary stamped with the current time.
func NewSummary() *Summary {
	return &Summary{
		StartedAt: time.Now(),
		counts:    make(map[snapshot.Class]*ClassCounts),
	}
}

// Class returns the mutable counters for the given class.
func (s *Summary) Class(class snapshot.Class) *ClassCounts {
	c := s.counts[class]
	if c == nil {
		c = &ClassCounts{}
		s.counts[class] = c
	}
	return c
}

// Clean reports whether the run completed with nothing skipped, nothing
// failed, and no residue removed.
func (s *Summary) Clean() bool {
	return len(s.Skipped) == 0 && len(s.Failures) == 0 && s.LinksDeleted == 0
}

// Render formats the summary for the operator.
func (s *Summary) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "restore finished in %s\n", s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond))

	for _, class := range snapshot.EntityClasses {
		c := s.counts[class]
		if c == nil {
			continue
		}
		fmt.Fprintf(&b, "  %-14s %d matched, %d created, %d updated, %d skipped, %d failed\n",
			string(class)+":", c.Matched, c.Created, c.Updated, c.Skipped, c.Failed)
	}

	if len(s.Skipped) > 0 {
		fmt.Fprintf(&b, "skipped (%d):\n", len(s.Skipped))
		for _, sk := range s.Skipped {
			fmt.Fprintf(&b, "  %s %s (%q): %s\n", sk.Key.Class, sk.Key.ID, sk.Name, sk.Reason)
		}
	}
	if len(s.Failures) > 0 {
		fmt.Fprintf(&b, "failed (%d):\n", len(s.Failures))
		for _, f := range s.Failures {
			fmt.Fprintf(&b, "  %s %s (%q): %s\n", f.Key.Class, f.Key.ID, f.Name, f.Err)
		}
	}
	if s.LinksDeleted > 0 {
		fmt.Fprintf(&b, "resource links deleted as residue: %d\n", s.LinksDeleted)
	}
	if len(s.Warnings) > 0 {
		fmt.Fprintf(&b, "warnings (%d):\n", len(s.Warnings))
		for _, w := range s.Warnings {
			fmt.Fprintf(&b, "  %s\n", w)
		}
	}
	return b.String()
}
