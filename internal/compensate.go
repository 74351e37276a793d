package internal

import (
	"context"
	"log/slog"

	"github.com/hashicorp/go-multierror"

	"github.com/chainthreads/go-threads-publisher/pkg/staging"
)

// Registry tracks every artifact staged during a single pipeline run so a
// failed run can delete them all. It is owned by one run and never shared.
type Registry struct {
	store     staging.Store
	artifacts []staging.Artifact
}

// NewRegistry returns an empty registry bound to the run's staging store.
func NewRegistry(store staging.Store) *Registry {
	return &Registry{store: store}
}

// Record adds a staged artifact to the registry.
func (r *Registry) Record(artifact staging.Artifact) {
	r.artifacts = append(r.artifacts, artifact)
}

// Len reports how many artifacts the run has staged so far.
func (r *Registry) Len() int {
	return len(r.artifacts)
}

// Compensate deletes every recorded artifact in reverse order of staging.
// Individual delete failures are aggregated and logged, never escalated;
// cleanup is best-effort. The registry is emptied afterwards.
func (r *Registry) Compensate(ctx context.Context, logger *slog.Logger) {
	if r.store == nil || len(r.artifacts) == 0 {
		r.artifacts = nil
		return
	}

	var failures *multierror.Error
	for i := len(r.artifacts) - 1; i >= 0; i-- {
		if err := r.store.Delete(ctx, r.artifacts[i]); err != nil {
			failures = multierror.Append(failures, err)
		}
	}
	r.artifacts = nil

	if failures != nil && logger != nil {
		logger.Warn("cleanup of staged media incomplete",
			"failed_deletes", failures.Len(),
			"error", failures.Error())
	}
}

// Commit drops the recorded artifacts without deleting them. Called after a
// chain link publishes successfully: its staged objects are now referenced
// by a live post and must survive any later failure of the run.
func (r *Registry) Commit() {
	r.artifacts = nil
}
