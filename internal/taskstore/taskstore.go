// Package taskstore is a SQLite-backed implementation of domain.TaskStore,
// grounded on original_source/core/tasks.py's schema and query shapes.
package taskstore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/inkling-labs/inkling-core/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS tasks (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT,
	status TEXT NOT NULL DEFAULT 'pending',
	priority TEXT NOT NULL DEFAULT 'medium',
	created_at INTEGER NOT NULL,
	due_date INTEGER,
	completed_at INTEGER,
	mood_on_creation TEXT,
	celebration_level REAL DEFAULT 0.5,
	mcp_tool TEXT,
	mcp_params TEXT,
	mcp_result TEXT,
	tags TEXT,
	project TEXT,
	estimated_minutes INTEGER,
	actual_minutes INTEGER DEFAULT 0,
	subtasks TEXT,
	subtasks_completed TEXT
);
CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
CREATE INDEX IF NOT EXISTS idx_tasks_due_date ON tasks(due_date);
CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project);
`

// Store is a SQLite-backed domain.TaskStore. The zero value is not usable;
// construct with Open.
type Store struct {
	db *sql.DB
}

// Open creates (or reuses) the SQLite database at path, running the schema
// migration, and returns a ready Store. Call Close when done.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("taskstore: create data dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("taskstore: open: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("taskstore: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

var _ domain.TaskStore = (*Store)(nil)

func (s *Store) CreateTask(t domain.Task) (domain.Task, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = domain.TaskStatusPending
	}
	if t.Priority == "" {
		t.Priority = domain.TaskPriorityMedium
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	if t.CelebrationLevel == 0 {
		t.CelebrationLevel = 0.5
	}
	if err := s.save(t); err != nil {
		return domain.Task{}, err
	}
	return t, nil
}

func (s *Store) UpdateTask(t domain.Task) error {
	return s.save(t)
}

func (s *Store) save(t domain.Task) error {
	tags, err := json.Marshal(t.Tags)
	if err != nil {
		return fmt.Errorf("taskstore: marshal tags: %w", err)
	}
	subtasks, err := json.Marshal(t.Subtasks)
	if err != nil {
		return fmt.Errorf("taskstore: marshal subtasks: %w", err)
	}
	subtasksCompleted, err := json.Marshal(t.SubtasksCompleted)
	if err != nil {
		return fmt.Errorf("taskstore: marshal subtasks_completed: %w", err)
	}
	var mcpParams any
	if t.MCPParams != "" {
		mcpParams = t.MCPParams
	}

	_, err = s.db.Exec(`
		INSERT INTO tasks (
			id, title, description, status, priority,
			created_at, due_date, completed_at,
			mood_on_creation, celebration_level,
			mcp_tool, mcp_params, mcp_result,
			tags, project, estimated_minutes, actual_minutes,
			subtasks, subtasks_completed
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title=excluded.title, description=excluded.description,
			status=excluded.status, priority=excluded.priority,
			created_at=excluded.created_at, due_date=excluded.due_date,
			completed_at=excluded.completed_at, mood_on_creation=excluded.mood_on_creation,
			celebration_level=excluded.celebration_level, mcp_tool=excluded.mcp_tool,
			mcp_params=excluded.mcp_params, mcp_result=excluded.mcp_result,
			tags=excluded.tags, project=excluded.project,
			estimated_minutes=excluded.estimated_minutes, actual_minutes=excluded.actual_minutes,
			subtasks=excluded.subtasks, subtasks_completed=excluded.subtasks_completed
	`,
		t.ID, t.Title, nullableString(t.Description), string(t.Status), string(t.Priority),
		t.CreatedAt.Unix(), nullableTime(t.DueDate), nullableTime(t.CompletedAt),
		nullableString(t.MoodOnCreation), t.CelebrationLevel,
		nullableString(t.MCPTool), mcpParams, nullableString(t.MCPResult),
		string(tags), nullableString(t.Project), nullableInt(t.EstimatedMinutes), t.ActualMinutes,
		string(subtasks), string(subtasksCompleted),
	)
	if err != nil {
		return fmt.Errorf("taskstore: save: %w", err)
	}
	return nil
}

func (s *Store) GetTask(id string) (domain.Task, bool, error) {
	row := s.db.QueryRow("SELECT "+taskColumns+" FROM tasks WHERE id = ?", id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return domain.Task{}, false, nil
	}
	if err != nil {
		return domain.Task{}, false, fmt.Errorf("taskstore: get: %w", err)
	}
	return t, true, nil
}

func (s *Store) ListTasks(status *domain.TaskStatus, project *string, tags []string, limit int) ([]domain.Task, error) {
	query := "SELECT " + taskColumns + " FROM tasks WHERE 1=1"
	var args []any

	if status != nil {
		query += " AND status = ?"
		args = append(args, string(*status))
	}
	if project != nil {
		query += " AND project = ?"
		args = append(args, *project)
	}

	query += ` ORDER BY CASE priority
		WHEN 'urgent' THEN 1
		WHEN 'high' THEN 2
		WHEN 'medium' THEN 3
		WHEN 'low' THEN 4 END,
		due_date IS NULL, due_date ASC, created_at DESC`

	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("taskstore: list: %w", err)
	}
	defer rows.Close()

	var out []domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("taskstore: scan: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(tags) > 0 {
		filtered := out[:0]
		for _, t := range out {
			if hasAllTags(t.Tags, tags) {
				filtered = append(filtered, t)
			}
		}
		out = filtered
	}
	return out, nil
}

func hasAllTags(taskTags, want []string) bool {
	set := make(map[string]struct{}, len(taskTags))
	for _, tag := range taskTags {
		set[tag] = struct{}{}
	}
	for _, w := range want {
		if _, ok := set[w]; !ok {
			return false
		}
	}
	return true
}

func (s *Store) CompleteTask(id string) (*domain.Task, error) {
	t, ok, err := s.GetTask(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	t.Status = domain.TaskStatusCompleted
	now := time.Now()
	t.CompletedAt = &now
	if err := s.save(t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) DeleteTask(id string) (bool, error) {
	res, err := s.db.Exec("DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("taskstore: delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) GetOverdueTasks() ([]domain.Task, error) {
	pending, inProgress := domain.TaskStatusPending, domain.TaskStatusInProgress
	var out []domain.Task
	now := time.Now()
	for _, status := range []*domain.TaskStatus{&pending, &inProgress} {
		tasks, err := s.ListTasks(status, nil, nil, 0)
		if err != nil {
			return nil, err
		}
		for _, t := range tasks {
			if t.IsOverdue(now) {
				out = append(out, t)
			}
		}
	}
	return out, nil
}

func (s *Store) GetDueSoon(days int) ([]domain.Task, error) {
	cutoff := time.Now().Add(time.Duration(days) * 24 * time.Hour)
	pending, inProgress := domain.TaskStatusPending, domain.TaskStatusInProgress
	var out []domain.Task
	for _, status := range []*domain.TaskStatus{&pending, &inProgress} {
		tasks, err := s.ListTasks(status, nil, nil, 0)
		if err != nil {
			return nil, err
		}
		for _, t := range tasks {
			if t.DueDate != nil && !t.DueDate.After(cutoff) {
				out = append(out, t)
			}
		}
	}
	return out, nil
}

func (s *Store) GetStats() (domain.TaskStats, error) {
	all, err := s.ListTasks(nil, nil, nil, 0)
	if err != nil {
		return domain.TaskStats{}, err
	}

	stats := domain.TaskStats{Total: len(all)}
	for _, t := range all {
		switch t.Status {
		case domain.TaskStatusPending:
			stats.Pending++
		case domain.TaskStatusInProgress:
			stats.InProgress++
		case domain.TaskStatusCompleted:
			stats.Completed++
		}
	}

	overdue, err := s.GetOverdueTasks()
	if err != nil {
		return domain.TaskStats{}, err
	}
	stats.Overdue = len(overdue)

	dueSoon, err := s.GetDueSoon(3)
	if err != nil {
		return domain.TaskStats{}, err
	}
	stats.DueSoon = len(dueSoon)

	cutoff := time.Now().AddDate(0, 0, -30)
	var recentCompleted, recentTotal int
	for _, t := range all {
		if t.CreatedAt.After(cutoff) || t.CreatedAt.Equal(cutoff) {
			recentTotal++
		}
		if t.Status == domain.TaskStatusCompleted && t.CompletedAt != nil && !t.CompletedAt.Before(cutoff) {
			recentCompleted++
		}
	}
	if recentTotal > 0 {
		stats.CompletionRate30d = float64(recentCompleted) / float64(recentTotal)
	}
	return stats, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableInt(i *int) any {
	if i == nil {
		return nil
	}
	return *i
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Unix()
}
