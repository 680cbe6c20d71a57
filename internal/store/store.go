package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"cadence/internal/config"
)

// Store manages cadence persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the database and verifies the schema.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.DatabasePath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

const timeLayout = time.RFC3339Nano

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) (time.Time, error) {
	parsed, err := time.Parse(timeLayout, value)
	if err != nil {
		// Tolerate second-precision timestamps written by other tools.
		parsed, err = time.Parse(time.RFC3339, value)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", value, err)
	}
	return parsed.UTC(), nil
}

// SaveProfile inserts or replaces the user profile.
func (s *Store) SaveProfile(ctx context.Context, profile *Profile) error {
	if profile == nil || strings.TrimSpace(profile.UserID) == "" {
		return errors.New("profile requires a user id")
	}
	now := time.Now().UTC()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now

	skills, err := json.Marshal(profile.Skills)
	if err != nil {
		return fmt.Errorf("marshal skills: %w", err)
	}
	prefs, err := json.Marshal(profile.Preferences)
	if err != nil {
		return fmt.Errorf("marshal preferences: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO user_profiles (
            user_id, name, industry, experience_level, current_work,
            skills_json, career_goals, preferences_json, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		profile.UserID,
		profile.Name,
		profile.Industry,
		profile.ExperienceLevel,
		profile.CurrentWork,
		string(skills),
		profile.CareerGoals,
		string(prefs),
		formatTime(profile.CreatedAt),
		formatTime(profile.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// GetProfile returns the profile for userID, or nil when none exists.
func (s *Store) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT user_id, name, industry, experience_level, current_work,
                skills_json, career_goals, preferences_json, created_at, updated_at
         FROM user_profiles WHERE user_id = ?`, userID)

	var profile Profile
	var skillsJSON, prefsJSON, createdAt, updatedAt string
	err := row.Scan(
		&profile.UserID,
		&profile.Name,
		&profile.Industry,
		&profile.ExperienceLevel,
		&profile.CurrentWork,
		&skillsJSON,
		&profile.CareerGoals,
		&prefsJSON,
		&createdAt,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	if err := json.Unmarshal([]byte(skillsJSON), &profile.Skills); err != nil {
		return nil, fmt.Errorf("decode skills: %w", err)
	}
	if err := json.Unmarshal([]byte(prefsJSON), &profile.Preferences); err != nil {
		return nil, fmt.Errorf("decode preferences: %w", err)
	}
	if profile.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if profile.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &profile, nil
}

// SaveArtifact persists a generated artifact.
func (s *Store) SaveArtifact(ctx context.Context, artifact *Artifact) error {
	if artifact == nil || strings.TrimSpace(artifact.ID) == "" {
		return errors.New("artifact requires an id")
	}
	if !artifact.Status.Valid() {
		return fmt.Errorf("artifact status %q is not valid", artifact.Status)
	}
	if artifact.CreatedAt.IsZero() {
		artifact.CreatedAt = time.Now().UTC()
	}

	hashtags, err := json.Marshal(artifact.Hashtags)
	if err != nil {
		return fmt.Errorf("marshal hashtags: %w", err)
	}
	engagement, err := json.Marshal(artifact.Engagement)
	if err != nil {
		return fmt.Errorf("marshal engagement: %w", err)
	}

	var scheduledFor any
	if artifact.ScheduledFor != nil {
		scheduledFor = formatTime(*artifact.ScheduledFor)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO artifacts (
            id, user_id, content_type, body, hashtags_json, call_to_action,
            image_ref, engagement_json, status, scheduled_for, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		artifact.ID,
		artifact.UserID,
		string(artifact.ContentType),
		artifact.Body,
		string(hashtags),
		artifact.CallToAction,
		artifact.ImageRef,
		string(engagement),
		string(artifact.Status),
		scheduledFor,
		formatTime(artifact.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("save artifact: %w", err)
	}
	return nil
}

// ListArtifacts returns the user's artifacts, newest first, capped at limit.
func (s *Store) ListArtifacts(ctx context.Context, userID string, limit int) ([]Artifact, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, content_type, body, hashtags_json, call_to_action,
                image_ref, engagement_json, status, scheduled_for, created_at
         FROM artifacts WHERE user_id = ?
         ORDER BY created_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	defer rows.Close()

	var artifacts []Artifact
	for rows.Next() {
		artifact, err := scanArtifact(rows)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, *artifact)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate artifacts: %w", err)
	}
	return artifacts, nil
}

func scanArtifact(rows *sql.Rows) (*Artifact, error) {
	var artifact Artifact
	var contentType, hashtagsJSON, engagementJSON, status, createdAt string
	var scheduledFor sql.NullString
	err := rows.Scan(
		&artifact.ID,
		&artifact.UserID,
		&contentType,
		&artifact.Body,
		&hashtagsJSON,
		&artifact.CallToAction,
		&artifact.ImageRef,
		&engagementJSON,
		&status,
		&scheduledFor,
		&createdAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan artifact: %w", err)
	}

	artifact.ContentType = ContentType(contentType)
	artifact.Status = ArtifactStatus(status)
	if err := json.Unmarshal([]byte(hashtagsJSON), &artifact.Hashtags); err != nil {
		return nil, fmt.Errorf("decode hashtags: %w", err)
	}
	if err := json.Unmarshal([]byte(engagementJSON), &artifact.Engagement); err != nil {
		return nil, fmt.Errorf("decode engagement: %w", err)
	}
	if artifact.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if scheduledFor.Valid && scheduledFor.String != "" {
		when, err := parseTime(scheduledFor.String)
		if err != nil {
			return nil, err
		}
		artifact.ScheduledFor = &when
	}
	return &artifact, nil
}

// SaveCadenceEntry inserts or updates the single entry keyed by
// (user id, content type). Rollover is an update in place, never a new row.
func (s *Store) SaveCadenceEntry(ctx context.Context, entry *CadenceEntry) error {
	if entry == nil || strings.TrimSpace(entry.UserID) == "" {
		return errors.New("cadence entry requires a user id")
	}
	if !entry.ContentType.Valid() {
		return fmt.Errorf("cadence entry content type %q is not valid", entry.ContentType)
	}
	if _, err := entry.Frequency.Days(); err != nil {
		return err
	}
	now := time.Now().UTC()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cadence_entries (
            user_id, content_type, frequency, next_run_at, active, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT (user_id, content_type) DO UPDATE SET
            frequency = excluded.frequency,
            next_run_at = excluded.next_run_at,
            active = excluded.active,
            updated_at = excluded.updated_at`,
		entry.UserID,
		string(entry.ContentType),
		entry.Frequency.String(),
		formatTime(entry.NextRunAt),
		boolToInt(entry.Active),
		formatTime(entry.CreatedAt),
		formatTime(entry.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("save cadence entry: %w", err)
	}
	return nil
}

// GetCadenceEntry returns the entry for the pair, or nil when none exists.
func (s *Store) GetCadenceEntry(ctx context.Context, userID string, contentType ContentType) (*CadenceEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, content_type, frequency, next_run_at, active, created_at, updated_at
         FROM cadence_entries WHERE user_id = ? AND content_type = ?`,
		userID, string(contentType))
	if err != nil {
		return nil, fmt.Errorf("get cadence entry: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanCadenceEntry(rows)
}

// ListActiveCadenceEntries returns all active entries for the user ordered by
// next run time.
func (s *Store) ListActiveCadenceEntries(ctx context.Context, userID string) ([]CadenceEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, content_type, frequency, next_run_at, active, created_at, updated_at
         FROM cadence_entries WHERE user_id = ? AND active = 1
         ORDER BY next_run_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list cadence entries: %w", err)
	}
	defer rows.Close()

	var entries []CadenceEntry
	for rows.Next() {
		entry, err := scanCadenceEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cadence entries: %w", err)
	}
	return entries, nil
}

// ListDueCadenceEntries returns every active entry, for any user, whose next
// run time is at or before the cutoff, ordered by next run time.
func (s *Store) ListDueCadenceEntries(ctx context.Context, cutoff time.Time) ([]CadenceEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, content_type, frequency, next_run_at, active, created_at, updated_at
         FROM cadence_entries WHERE active = 1 AND next_run_at <= ?
         ORDER BY next_run_at ASC`, formatTime(cutoff))
	if err != nil {
		return nil, fmt.Errorf("list due cadence entries: %w", err)
	}
	defer rows.Close()

	var entries []CadenceEntry
	for rows.Next() {
		entry, err := scanCadenceEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate due cadence entries: %w", err)
	}
	return entries, nil
}

// SetCadenceActive soft-enables or soft-disables the entry for the pair.
// Entries are never hard-deleted.
func (s *Store) SetCadenceActive(ctx context.Context, userID string, contentType ContentType, active bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE cadence_entries SET active = ?, updated_at = ?
         WHERE user_id = ? AND content_type = ?`,
		boolToInt(active), formatTime(time.Now()), userID, string(contentType))
	if err != nil {
		return fmt.Errorf("set cadence active: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set cadence active: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("no cadence entry for %s/%s", userID, contentType)
	}
	return nil
}

func scanCadenceEntry(rows *sql.Rows) (*CadenceEntry, error) {
	var entry CadenceEntry
	var contentType, frequency, nextRunAt, createdAt, updatedAt string
	var active int
	err := rows.Scan(&entry.UserID, &contentType, &frequency, &nextRunAt, &active, &createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("scan cadence entry: %w", err)
	}

	entry.ContentType = ContentType(contentType)
	if entry.Frequency, err = ParseFrequency(frequency); err != nil {
		return nil, err
	}
	if entry.NextRunAt, err = parseTime(nextRunAt); err != nil {
		return nil, err
	}
	entry.Active = active != 0
	if entry.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if entry.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &entry, nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
