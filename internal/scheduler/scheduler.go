package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cadence/internal/logging"
	"cadence/internal/pipeline"
	"cadence/internal/store"
)

// defaultLookahead is the catch-up window: entries due within it are picked
// up even when the process was down at their exact due time.
const defaultLookahead = 24 * time.Hour

// Generator runs one generation pipeline. Satisfied by
// *pipeline.Orchestrator.
type Generator interface {
	Generate(ctx context.Context, req pipeline.Request) (*store.Artifact, error)
}

// SchedulerError wraps a failure for one (user, content type) pair. The
// cadence entry is left untouched so the next sweep retries it.
type SchedulerError struct {
	UserID      string
	ContentType store.ContentType
	Op          string
	Err         error
}

func (e *SchedulerError) Error() string {
	return fmt.Sprintf("scheduler %s for %s/%s: %v", e.Op, e.UserID, e.ContentType, e.Err)
}

func (e *SchedulerError) Unwrap() error {
	return e.Err
}

// SweepSummary reports one RunOnce pass.
type SweepSummary struct {
	Due       int
	Generated int
	Failed    int
}

// Scheduler turns due cadence entries into generation runs and rolls the
// entries forward. Safe for concurrent use.
type Scheduler struct {
	store     *store.Store
	generator Generator
	logger    *slog.Logger
	lookahead time.Duration
	locks     *entryLocks
	now       func() time.Time
}

// Option customizes the scheduler.
type Option func(*Scheduler)

// WithLookahead overrides the catch-up window.
func WithLookahead(lookahead time.Duration) Option {
	return func(s *Scheduler) {
		if lookahead > 0 {
			s.lookahead = lookahead
		}
	}
}

// WithClock overrides the scheduler clock (useful for tests).
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a scheduler over the store and generator.
func New(st *store.Store, generator Generator, logger *slog.Logger, opts ...Option) *Scheduler {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Scheduler{
		store:     st,
		generator: generator,
		logger:    logger,
		lookahead: defaultLookahead,
		locks:     newEntryLocks(),
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DueEntries returns active entries due within the lookahead window.
func (s *Scheduler) DueEntries(ctx context.Context, now time.Time, lookahead time.Duration) ([]store.CadenceEntry, error) {
	if lookahead <= 0 {
		lookahead = s.lookahead
	}
	return s.store.ListDueCadenceEntries(ctx, now.Add(lookahead))
}

// Trigger generates content for one cadence entry and, on success, advances
// the entry by its interval. The advance is anchored to the previous due
// time, not to the execution time, so late execution does not drift the
// cadence. On failure the entry is left untouched and the next sweep
// retries it.
func (s *Scheduler) Trigger(ctx context.Context, entry store.CadenceEntry) (*store.Artifact, error) {
	unlock := s.locks.lock(entry.UserID, entry.ContentType)
	defer unlock()

	profile, err := s.store.GetProfile(ctx, entry.UserID)
	if err != nil {
		return nil, &SchedulerError{UserID: entry.UserID, ContentType: entry.ContentType, Op: "load profile", Err: err}
	}
	if profile == nil {
		return nil, &SchedulerError{UserID: entry.UserID, ContentType: entry.ContentType, Op: "load profile", Err: fmt.Errorf("no profile for user %s", entry.UserID)}
	}

	interval, err := entry.Frequency.Interval()
	if err != nil {
		return nil, &SchedulerError{UserID: entry.UserID, ContentType: entry.ContentType, Op: "resolve interval", Err: err}
	}

	now := s.now()
	target := AlignToAnchor(entry.NextRunAt, AnchorFor(entry.ContentType), now)
	req := pipeline.Request{
		UserID:       entry.UserID,
		ContentType:  entry.ContentType,
		Attributes:   autoContext(profile, entry.ContentType),
		IncludeImage: profile.Preferences.IncludeImages,
		ScheduledFor: &target,
	}

	artifact, err := s.generator.Generate(ctx, req)
	if err != nil {
		return nil, &SchedulerError{UserID: entry.UserID, ContentType: entry.ContentType, Op: "generate", Err: err}
	}

	rolled := entry
	rolled.NextRunAt = entry.NextRunAt.Add(interval)
	if err := s.store.SaveCadenceEntry(ctx, &rolled); err != nil {
		// The artifact exists; a rollover failure means the next sweep will
		// regenerate for this pair. Surface it so the caller knows.
		return artifact, &SchedulerError{UserID: entry.UserID, ContentType: entry.ContentType, Op: "roll over", Err: err}
	}

	s.logger.Info("cadence entry triggered",
		logging.String(logging.FieldUserID, entry.UserID),
		logging.String(logging.FieldContentType, string(entry.ContentType)),
		logging.String(logging.FieldArtifactID, artifact.ID),
		logging.Time("next_run_at", rolled.NextRunAt),
	)
	return artifact, nil
}

// RunOnce performs one sweep: every due entry is triggered, failures are
// logged and skipped, and the pass never aborts early. A sweep with no due
// entries touches nothing.
func (s *Scheduler) RunOnce(ctx context.Context, now time.Time) (SweepSummary, error) {
	entries, err := s.DueEntries(ctx, now, 0)
	if err != nil {
		return SweepSummary{}, fmt.Errorf("list due entries: %w", err)
	}

	summary := SweepSummary{Due: len(entries)}
	for _, entry := range entries {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}
		if _, err := s.Trigger(ctx, entry); err != nil {
			summary.Failed++
			s.logger.Error("cadence trigger failed",
				logging.String(logging.FieldUserID, entry.UserID),
				logging.String(logging.FieldContentType, string(entry.ContentType)),
				logging.Error(err),
			)
			continue
		}
		summary.Generated++
	}

	if summary.Due > 0 {
		s.logger.Info("sweep complete",
			logging.Int("due", summary.Due),
			logging.Int("generated", summary.Generated),
			logging.Int("failed", summary.Failed),
		)
	}
	return summary, nil
}

// SetupSchedules creates or updates one active cadence entry per enabled
// content type in the profile's posting strategy. The first run lands one
// interval out, aligned to the type's anchor.
func (s *Scheduler) SetupSchedules(ctx context.Context, userID string, now time.Time) ([]store.CadenceEntry, error) {
	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("setup schedules: %w", err)
	}
	if profile == nil {
		return nil, fmt.Errorf("setup schedules: no profile for user %s", userID)
	}

	var entries []store.CadenceEntry
	for _, contentType := range store.AllContentTypes {
		strategy, ok := profile.Preferences.PostingStrategy[contentType]
		if !ok || !strategy.Enabled {
			continue
		}
		interval, err := strategy.Frequency.Interval()
		if err != nil {
			return nil, fmt.Errorf("setup schedules for %s: %w", contentType, err)
		}
		entry := store.CadenceEntry{
			UserID:      userID,
			ContentType: contentType,
			Frequency:   strategy.Frequency,
			NextRunAt:   AlignToAnchor(now.Add(interval), AnchorFor(contentType), now),
			Active:      true,
		}
		if err := s.store.SaveCadenceEntry(ctx, &entry); err != nil {
			return nil, fmt.Errorf("setup schedules for %s: %w", contentType, err)
		}
		entries = append(entries, entry)
	}

	s.logger.Info("schedules configured",
		logging.String(logging.FieldUserID, userID),
		logging.Int("entries", len(entries)),
	)
	return entries, nil
}

// Upcoming returns the user's active entries due within the horizon, soonest
// first.
func (s *Scheduler) Upcoming(ctx context.Context, userID string, horizon time.Duration) ([]store.CadenceEntry, error) {
	entries, err := s.store.ListActiveCadenceEntries(ctx, userID)
	if err != nil {
		return nil, err
	}
	if horizon <= 0 {
		return entries, nil
	}
	cutoff := s.now().Add(horizon)
	var upcoming []store.CadenceEntry
	for _, entry := range entries {
		if !entry.NextRunAt.After(cutoff) {
			upcoming = append(upcoming, entry)
		}
	}
	return upcoming, nil
}
