// Package sweep runs periodic maintenance across all partitions:
// hard-deleting low-value aged records and compressing long aged ones.
package sweep

import (
	"context"
	"log/slog"
	"time"

	"github.com/memkeep/memkeep/internal/store"
)

// Policy configures one maintenance pass.
type Policy struct {
	CleanupAgeDays  int
	CleanupMaxScore int
	CompressAgeDays int
}

// Report aggregates the outcome of a full pass.
type Report struct {
	Projects   int      `json:"projects"`
	Removed    int      `json:"removed"`
	Compressed int      `json:"compressed"`
	Failed     []string `json:"failed,omitempty"`
}

// Sweeper owns the maintenance schedule. It is injected with its
// dependencies rather than living as hidden global state.
type Sweeper struct {
	mgr      *store.Manager
	policy   Policy
	interval time.Duration
	log      *slog.Logger
}

// New builds a sweeper over mgr firing every interval.
func New(mgr *store.Manager, policy Policy, interval time.Duration, log *slog.Logger) *Sweeper {
	return &Sweeper{mgr: mgr, policy: policy, interval: interval, log: log}
}

// Run fires a full pass on every tick until ctx is done. An immediate
// pass also runs on start.
func (s *Sweeper) Run(ctx context.Context) {
	s.RunOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce sweeps every known partition. A failing project is logged and
// skipped; the pass continues with the rest.
func (s *Sweeper) RunOnce(ctx context.Context) Report {
	var report Report

	projects, err := s.mgr.Projects()
	if err != nil {
		s.log.Error("sweep: list projects", "err", err)
		return report
	}

	for _, project := range projects {
		removed, compressed, err := s.sweepProject(ctx, project)
		if err != nil {
			s.log.Error("sweep: project failed", "project", project, "err", err)
			report.Failed = append(report.Failed, project)
			continue
		}
		report.Projects++
		report.Removed += removed
		report.Compressed += compressed
	}

	s.log.Info("sweep: pass complete",
		"projects", report.Projects,
		"removed", report.Removed,
		"compressed", report.Compressed,
		"failed", len(report.Failed))
	return report
}

func (s *Sweeper) sweepProject(ctx context.Context, project string) (removed, compressed int, err error) {
	p, err := s.mgr.Open(project)
	if err != nil {
		return 0, 0, err
	}
	defer p.Close()

	removed, err = p.Cleanup(ctx, s.policy.CleanupAgeDays, s.policy.CleanupMaxScore)
	if err != nil {
		return 0, 0, err
	}
	compressed, err = p.Compress(ctx, s.policy.CompressAgeDays)
	if err != nil {
		return removed, 0, err
	}
	return removed, compressed, nil
}
