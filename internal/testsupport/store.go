package testsupport

import (
	"context"
	"testing"
	"time"

	"cadence/internal/config"
	"cadence/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// SeedProfile writes a representative profile for tests.
func SeedProfile(t testing.TB, st *store.Store, userID string) *store.Profile {
	t.Helper()

	profile := &store.Profile{
		UserID:          userID,
		Name:            "Test User",
		Industry:        "Technology",
		ExperienceLevel: "Mid-level",
		CurrentWork:     "Building data pipelines",
		Skills:          []string{"Go", "SQL", "Distributed Systems"},
		CareerGoals:     "Tech lead",
		Preferences: store.Preferences{
			Tone:          "Professional",
			IncludeImages: true,
			PostingStrategy: map[store.ContentType]store.StrategyEntry{
				store.ContentMiniProject: {Enabled: true, Frequency: store.EveryNDays(15)},
				store.ContentMainProject: {Enabled: true, Frequency: store.Monthly},
				store.ContentCapstone:    {Enabled: true, Frequency: store.Quarterly},
			},
		},
	}
	if err := st.SaveProfile(context.Background(), profile); err != nil {
		t.Fatalf("store.SaveProfile: %v", err)
	}
	return profile
}

// SeedCadenceEntry writes an active cadence entry for tests.
func SeedCadenceEntry(t testing.TB, st *store.Store, userID string, contentType store.ContentType, freq store.Frequency, nextRun time.Time) *store.CadenceEntry {
	t.Helper()

	entry := &store.CadenceEntry{
		UserID:      userID,
		ContentType: contentType,
		Frequency:   freq,
		NextRunAt:   nextRun,
		Active:      true,
	}
	if err := st.SaveCadenceEntry(context.Background(), entry); err != nil {
		t.Fatalf("store.SaveCadenceEntry: %v", err)
	}
	return entry
}
