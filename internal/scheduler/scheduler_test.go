package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cadence/internal/inference"
	"cadence/internal/pipeline"
	"cadence/internal/store"
	"cadence/internal/testsupport"
)

type fakeGenerator struct {
	requests []pipeline.Request
	err      error
}

func (g *fakeGenerator) Generate(_ context.Context, req pipeline.Request) (*store.Artifact, error) {
	g.requests = append(g.requests, req)
	if g.err != nil {
		return nil, g.err
	}
	return &store.Artifact{
		ID:          "artifact-" + req.UserID + "-" + string(req.ContentType),
		UserID:      req.UserID,
		ContentType: req.ContentType,
		Body:        "generated",
		Status:      store.StatusScheduled,
	}, nil
}

func newTestScheduler(t *testing.T, gen Generator, now time.Time) (*Scheduler, *store.Store) {
	t.Helper()
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	sched := New(st, gen, nil, WithClock(func() time.Time { return now }))
	return sched, st
}

func TestDueEntriesCatchUpWindow(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	sched, st := newTestScheduler(t, &fakeGenerator{}, now)
	testsupport.SeedCadenceEntry(t, st, "u1", store.ContentMiniProject, store.EveryNDays(15), now.Add(23*time.Hour))
	testsupport.SeedCadenceEntry(t, st, "u1", store.ContentMainProject, store.Monthly, now.Add(25*time.Hour))
	testsupport.SeedCadenceEntry(t, st, "u1", store.ContentInsight, store.Weekly, now.Add(-48*time.Hour))

	due, err := sched.DueEntries(context.Background(), now, 0)
	if err != nil {
		t.Fatalf("DueEntries: %v", err)
	}
	if len(due) != 2 {
		t.Fatalf("due = %d entries", len(due))
	}
	// Overdue first, then the one inside the window.
	if due[0].ContentType != store.ContentInsight || due[1].ContentType != store.ContentMiniProject {
		t.Fatalf("due order = %s, %s", due[0].ContentType, due[1].ContentType)
	}
}

func TestDueEntriesExcludesInactive(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	sched, st := newTestScheduler(t, &fakeGenerator{}, now)
	testsupport.SeedCadenceEntry(t, st, "u1", store.ContentInsight, store.Weekly, now.Add(-time.Hour))
	if err := st.SetCadenceActive(context.Background(), "u1", store.ContentInsight, false); err != nil {
		t.Fatalf("SetCadenceActive: %v", err)
	}

	due, err := sched.DueEntries(context.Background(), now, 0)
	if err != nil {
		t.Fatalf("DueEntries: %v", err)
	}
	if len(due) != 0 {
		t.Fatalf("due = %d entries", len(due))
	}
}

func TestTriggerDriftFreeRollover(t *testing.T) {
	// The entry was due two days ago; the sweep runs late.
	entryDue := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	now := entryDue.Add(48*time.Hour + time.Hour)

	gen := &fakeGenerator{}
	sched, st := newTestScheduler(t, gen, now)
	testsupport.SeedProfile(t, st, "u1")
	entry := testsupport.SeedCadenceEntry(t, st, "u1", store.ContentMiniProject, store.EveryNDays(15), entryDue)

	artifact, err := sched.Trigger(context.Background(), *entry)
	if err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	if artifact == nil {
		t.Fatal("expected artifact")
	}

	// The advance anchors on the original due time, not the execution time.
	rolled, err := st.GetCadenceEntry(context.Background(), "u1", store.ContentMiniProject)
	if err != nil {
		t.Fatalf("GetCadenceEntry: %v", err)
	}
	want := entryDue.AddDate(0, 0, 15)
	if !rolled.NextRunAt.Equal(want) {
		t.Fatalf("next run = %v, want %v", rolled.NextRunAt, want)
	}

	// The generation request carried profile context and a future target.
	if len(gen.requests) != 1 {
		t.Fatalf("requests = %d", len(gen.requests))
	}
	req := gen.requests[0]
	if req.Attributes["industry"] == "" {
		t.Fatal("expected derived profile context")
	}
	if !req.IncludeImage {
		t.Fatal("expected include image from preferences")
	}
	if req.ScheduledFor == nil || req.ScheduledFor.Before(now) {
		t.Fatalf("scheduled for = %v", req.ScheduledFor)
	}
}

func TestTriggerWithoutProfileFails(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	sched, st := newTestScheduler(t, &fakeGenerator{}, now)
	entry := testsupport.SeedCadenceEntry(t, st, "ghost", store.ContentInsight, store.Weekly, now)

	_, err := sched.Trigger(context.Background(), *entry)
	var schedErr *SchedulerError
	if !errors.As(err, &schedErr) || schedErr.Op != "load profile" {
		t.Fatalf("err = %v", err)
	}
}

func TestTriggerFailureLeavesEntryUntouched(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	gen := &fakeGenerator{err: errors.New("pipeline down")}
	sched, st := newTestScheduler(t, gen, now)
	testsupport.SeedProfile(t, st, "u1")
	entry := testsupport.SeedCadenceEntry(t, st, "u1", store.ContentMiniProject, store.EveryNDays(15), now)

	if _, err := sched.Trigger(context.Background(), *entry); err == nil {
		t.Fatal("expected trigger failure")
	}

	current, err := st.GetCadenceEntry(context.Background(), "u1", store.ContentMiniProject)
	if err != nil {
		t.Fatalf("GetCadenceEntry: %v", err)
	}
	if !current.NextRunAt.Equal(entry.NextRunAt) {
		t.Fatalf("next run moved to %v", current.NextRunAt)
	}
}

func TestRunOnceEmptySweepTouchesNothing(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	gen := &fakeGenerator{}
	sched, st := newTestScheduler(t, gen, now)
	future := testsupport.SeedCadenceEntry(t, st, "u1", store.ContentCapstone, store.Quarterly, now.Add(60*24*time.Hour))

	summary, err := sched.RunOnce(context.Background(), now)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if summary != (SweepSummary{}) {
		t.Fatalf("summary = %+v", summary)
	}
	if len(gen.requests) != 0 {
		t.Fatalf("generator called %d times", len(gen.requests))
	}
	current, err := st.GetCadenceEntry(context.Background(), "u1", store.ContentCapstone)
	if err != nil {
		t.Fatalf("GetCadenceEntry: %v", err)
	}
	if !current.NextRunAt.Equal(future.NextRunAt) || !current.UpdatedAt.Equal(future.UpdatedAt) {
		t.Fatalf("entry mutated: %+v", current)
	}
}

func TestRunOnceIsolatesFailures(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	gen := &fakeGenerator{}
	sched, st := newTestScheduler(t, gen, now)
	testsupport.SeedProfile(t, st, "u1")
	testsupport.SeedCadenceEntry(t, st, "u1", store.ContentMiniProject, store.EveryNDays(15), now.Add(-time.Hour))
	// No profile for u2: its trigger fails, the sweep continues.
	testsupport.SeedCadenceEntry(t, st, "u2", store.ContentInsight, store.Weekly, now.Add(-time.Hour))

	summary, err := sched.RunOnce(context.Background(), now)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if summary.Due != 2 || summary.Generated != 1 || summary.Failed != 1 {
		t.Fatalf("summary = %+v", summary)
	}
}

func TestSetupSchedulesFromPostingStrategy(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	sched, st := newTestScheduler(t, &fakeGenerator{}, now)
	testsupport.SeedProfile(t, st, "u1")

	entries, err := sched.SetupSchedules(context.Background(), "u1", now)
	if err != nil {
		t.Fatalf("SetupSchedules: %v", err)
	}
	// The seeded strategy enables mini_project, main_project, capstone.
	if len(entries) != 3 {
		t.Fatalf("entries = %d", len(entries))
	}
	byType := make(map[store.ContentType]store.CadenceEntry)
	for _, entry := range entries {
		if !entry.Active {
			t.Fatalf("inactive entry %+v", entry)
		}
		byType[entry.ContentType] = entry
	}

	// mini_project: 15 days out at the weekday morning anchor.
	mini := byType[store.ContentMiniProject]
	want := time.Date(2026, 3, 17, 9, 0, 0, 0, time.UTC)
	if !mini.NextRunAt.Equal(want) {
		t.Fatalf("mini next run = %v, want %v", mini.NextRunAt, want)
	}
	// main_project: 30 days out at the tuesday peak anchor hour.
	main := byType[store.ContentMainProject]
	want = time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	if !main.NextRunAt.Equal(want) {
		t.Fatalf("main next run = %v, want %v", main.NextRunAt, want)
	}

	// Rerunning updates in place rather than duplicating rows.
	if _, err := sched.SetupSchedules(context.Background(), "u1", now); err != nil {
		t.Fatalf("SetupSchedules rerun: %v", err)
	}
	active, err := st.ListActiveCadenceEntries(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ListActiveCadenceEntries: %v", err)
	}
	if len(active) != 3 {
		t.Fatalf("active = %d entries", len(active))
	}
}

func TestUpcomingHorizonFilter(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	sched, st := newTestScheduler(t, &fakeGenerator{}, now)
	testsupport.SeedCadenceEntry(t, st, "u1", store.ContentMiniProject, store.EveryNDays(15), now.Add(24*time.Hour))
	testsupport.SeedCadenceEntry(t, st, "u1", store.ContentCapstone, store.Quarterly, now.Add(80*24*time.Hour))

	upcoming, err := sched.Upcoming(context.Background(), "u1", 7*24*time.Hour)
	if err != nil {
		t.Fatalf("Upcoming: %v", err)
	}
	if len(upcoming) != 1 || upcoming[0].ContentType != store.ContentMiniProject {
		t.Fatalf("upcoming = %+v", upcoming)
	}
}

// TestSweepEndToEnd wires the real pipeline over a stub inference endpoint
// and verifies one due mini_project entry produces exactly one persisted
// artifact and an advanced cadence entry.
func TestSweepEndToEnd(t *testing.T) {
	draft := map[string]any{
		"post_text":      "Shipped a small data pipeline experiment this week and learned a lot about batching.",
		"hashtags":       []string{"#Go", "#DataEngineering", "#Learning"},
		"call_to_action": "How do you batch writes?",
		"key_points":     []string{"batching", "backpressure"},
	}
	encoded, err := json.Marshal(draft)
	if err != nil {
		t.Fatalf("marshal draft: %v", err)
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"response": string(encoded)})
	}))
	t.Cleanup(server.Close)

	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	cfg := testsupport.NewConfig(t, testsupport.WithInferenceHost(server.URL))
	st := testsupport.MustOpenStore(t, cfg)
	testsupport.SeedProfile(t, st, "u1")
	entryDue := now.Add(-time.Hour)
	testsupport.SeedCadenceEntry(t, st, "u1", store.ContentMiniProject, store.EveryNDays(15), entryDue)

	client := inference.NewClient(inference.Config{Host: cfg.Inference.Host, Model: cfg.Inference.Model})
	orch := pipeline.NewOrchestrator(client, pipeline.FileRenderer{Dir: t.TempDir()}, st, pipeline.Defaults{
		Hashtags:   cfg.Content.DefaultHashtags,
		ImageStyle: cfg.Content.ImageStyle,
	}, nil)
	sched := New(st, orch, nil, WithClock(func() time.Time { return now }))

	summary, err := sched.RunOnce(context.Background(), now)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if summary.Due != 1 || summary.Generated != 1 || summary.Failed != 0 {
		t.Fatalf("summary = %+v", summary)
	}

	artifacts, err := st.ListArtifacts(context.Background(), "u1", 10)
	if err != nil {
		t.Fatalf("ListArtifacts: %v", err)
	}
	if len(artifacts) != 1 {
		t.Fatalf("artifacts = %d", len(artifacts))
	}
	artifact := artifacts[0]
	if artifact.Status != store.StatusScheduled {
		t.Fatalf("status = %q", artifact.Status)
	}
	if artifact.Body == "" || len(artifact.Hashtags) != 3 {
		t.Fatalf("artifact = %+v", artifact)
	}
	if artifact.ScheduledFor == nil || artifact.ScheduledFor.Before(now) {
		t.Fatalf("scheduled for = %v", artifact.ScheduledFor)
	}

	rolled, err := st.GetCadenceEntry(context.Background(), "u1", store.ContentMiniProject)
	if err != nil {
		t.Fatalf("GetCadenceEntry: %v", err)
	}
	if !rolled.NextRunAt.Equal(entryDue.AddDate(0, 0, 15)) {
		t.Fatalf("next run = %v", rolled.NextRunAt)
	}
}
