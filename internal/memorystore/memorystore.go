// Package memorystore is the sqlite-backed implementation of
// domain.MemoryStore, persisted to memory.db.
package memorystore

import (
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/inkling-labs/inkling-core/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS memory_entries (
	category    TEXT NOT NULL,
	key         TEXT NOT NULL,
	value       TEXT NOT NULL,
	importance  REAL NOT NULL,
	created_at  INTEGER NOT NULL,
	updated_at  INTEGER NOT NULL,
	access_count INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (category, key)
);
`

// Store is a sqlite-backed domain.MemoryStore.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the sqlite database at path.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("mkdir for memory.db: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open memory.db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate memory.db: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func clampImportance(i float64) float64 {
	return math.Max(0, math.Min(1, i))
}

// Remember inserts or, for an existing (category, key) identity, updates
// value/importance/timestamp in place.
func (s *Store) Remember(key, value string, category domain.MemoryCategory, importance float64) (domain.MemoryEntry, error) {
	importance = clampImportance(importance)
	now := time.Now()
	existing, found, err := s.Get(key, category)
	if err != nil {
		return domain.MemoryEntry{}, err
	}
	createdAt := now
	if found {
		createdAt = existing.CreatedAt
	}
	_, err = s.db.Exec(`
		INSERT INTO memory_entries (category, key, value, importance, created_at, updated_at, access_count)
		VALUES (?, ?, ?, ?, ?, ?, 0)
		ON CONFLICT(category, key) DO UPDATE SET
			value = excluded.value,
			importance = excluded.importance,
			updated_at = excluded.updated_at
	`, string(category), key, value, importance, createdAt.Unix(), now.Unix())
	if err != nil {
		return domain.MemoryEntry{}, err
	}
	return domain.MemoryEntry{
		Key: key, Value: value, Category: category, Importance: importance,
		CreatedAt: createdAt, UpdatedAt: now, AccessCount: existing.AccessCount,
	}, nil
}

func scanEntry(row interface {
	Scan(...any) error
}) (domain.MemoryEntry, error) {
	var e domain.MemoryEntry
	var cat string
	var created, updated int64
	if err := row.Scan(&cat, &e.Key, &e.Value, &e.Importance, &created, &updated, &e.AccessCount); err != nil {
		return domain.MemoryEntry{}, err
	}
	e.Category = domain.MemoryCategory(cat)
	e.CreatedAt = time.Unix(created, 0)
	e.UpdatedAt = time.Unix(updated, 0)
	return e, nil
}

// Get retrieves one entry by identity and bumps its access count.
func (s *Store) Get(key string, category domain.MemoryCategory) (domain.MemoryEntry, bool, error) {
	row := s.db.QueryRow(`
		SELECT category, key, value, importance, created_at, updated_at, access_count
		FROM memory_entries WHERE category = ? AND key = ?`, string(category), key)
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return domain.MemoryEntry{}, false, nil
	}
	if err != nil {
		return domain.MemoryEntry{}, false, err
	}
	_, _ = s.db.Exec(`UPDATE memory_entries SET access_count = access_count + 1 WHERE category = ? AND key = ?`, string(category), key)
	return e, true, nil
}

// recencyDecay implements the implementation-defined recency function spec
// §4.2/§9 leaves open: a half-life of 14 days, floored at 0.1 so an old but
// important memory is never fully zeroed out of ranking.
func recencyDecay(updatedAt time.Time, now time.Time) float64 {
	ageDays := now.Sub(updatedAt).Hours() / 24
	decay := math.Exp(-ageDays / 14)
	return math.Max(0.1, decay)
}

func (s *Store) queryAll(category *domain.MemoryCategory) ([]domain.MemoryEntry, error) {
	var rows *sql.Rows
	var err error
	if category != nil {
		rows, err = s.db.Query(`SELECT category, key, value, importance, created_at, updated_at, access_count FROM memory_entries WHERE category = ?`, string(*category))
	} else {
		rows, err = s.db.Query(`SELECT category, key, value, importance, created_at, updated_at, access_count FROM memory_entries`)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.MemoryEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Recall ranks case-insensitive substring matches over key and value by
// descending importance * recency_decay(updated_at).
func (s *Store) Recall(queryTerm string, category *domain.MemoryCategory, limit int) ([]domain.MemoryEntry, error) {
	all, err := s.queryAll(category)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(queryTerm)
	now := time.Now()
	var matches []domain.MemoryEntry
	for _, e := range all {
		if q == "" || strings.Contains(strings.ToLower(e.Key), q) || strings.Contains(strings.ToLower(e.Value), q) {
			matches = append(matches, e)
		}
	}
	score := func(e domain.MemoryEntry) float64 { return e.Importance * recencyDecay(e.UpdatedAt, now) }
	sortByScoreDesc(matches, score)
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (s *Store) RecallByCategory(category domain.MemoryCategory, limit int) ([]domain.MemoryEntry, error) {
	all, err := s.queryAll(&category)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	sortByScoreDesc(all, func(e domain.MemoryEntry) float64 { return e.Importance * recencyDecay(e.UpdatedAt, now) })
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (s *Store) RecallRecent(limit int) ([]domain.MemoryEntry, error) {
	all, err := s.queryAll(nil)
	if err != nil {
		return nil, err
	}
	sortByScoreDesc(all, func(e domain.MemoryEntry) float64 { return float64(e.UpdatedAt.Unix()) })
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (s *Store) RecallImportant(limit int) ([]domain.MemoryEntry, error) {
	all, err := s.queryAll(nil)
	if err != nil {
		return nil, err
	}
	sortByScoreDesc(all, func(e domain.MemoryEntry) float64 { return e.Importance })
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// ForgetOld deletes entries older than maxAgeDays whose importance is below
// threshold, returning the number pruned.
func (s *Store) ForgetOld(maxAgeDays int, importanceThreshold float64) (int, error) {
	cutoff := time.Now().AddDate(0, 0, -maxAgeDays).Unix()
	res, err := s.db.Exec(`DELETE FROM memory_entries WHERE updated_at < ? AND importance < ?`, cutoff, importanceThreshold)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (s *Store) Count(category *domain.MemoryCategory) (int, error) {
	var n int
	var err error
	if category != nil {
		err = s.db.QueryRow(`SELECT COUNT(*) FROM memory_entries WHERE category = ?`, string(*category)).Scan(&n)
	} else {
		err = s.db.QueryRow(`SELECT COUNT(*) FROM memory_entries`).Scan(&n)
	}
	return n, err
}

func sortByScoreDesc(entries []domain.MemoryEntry, score func(domain.MemoryEntry) float64) {
	sort.SliceStable(entries, func(i, j int) bool { return score(entries[i]) > score(entries[j]) })
}

var _ domain.MemoryStore = (*Store)(nil)
