package taskstore

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/inkling-labs/inkling-core/internal/domain"
)

const taskColumns = `id, title, description, status, priority,
	created_at, due_date, completed_at,
	mood_on_creation, celebration_level,
	mcp_tool, mcp_params, mcp_result,
	tags, project, estimated_minutes, actual_minutes,
	subtasks, subtasks_completed`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(r rowScanner) (domain.Task, error) {
	var t domain.Task
	var description, moodOnCreation, mcpTool, mcpParams, mcpResult, project sql.NullString
	var dueDate, completedAt, estimatedMinutes sql.NullInt64
	var createdAt int64
	var tagsJSON, subtasksJSON, subtasksCompletedJSON string

	err := r.Scan(
		&t.ID, &t.Title, &description, &t.Status, &t.Priority,
		&createdAt, &dueDate, &completedAt,
		&moodOnCreation, &t.CelebrationLevel,
		&mcpTool, &mcpParams, &mcpResult,
		&tagsJSON, &project, &estimatedMinutes, &t.ActualMinutes,
		&subtasksJSON, &subtasksCompletedJSON,
	)
	if err != nil {
		return domain.Task{}, err
	}

	t.Description = description.String
	t.MoodOnCreation = moodOnCreation.String
	t.MCPTool = mcpTool.String
	t.MCPParams = mcpParams.String
	t.MCPResult = mcpResult.String
	t.Project = project.String
	t.CreatedAt = time.Unix(createdAt, 0)

	if dueDate.Valid {
		d := time.Unix(dueDate.Int64, 0)
		t.DueDate = &d
	}
	if completedAt.Valid {
		c := time.Unix(completedAt.Int64, 0)
		t.CompletedAt = &c
	}
	if estimatedMinutes.Valid {
		m := int(estimatedMinutes.Int64)
		t.EstimatedMinutes = &m
	}
	if tagsJSON != "" {
		_ = json.Unmarshal([]byte(tagsJSON), &t.Tags)
	}
	if subtasksJSON != "" {
		_ = json.Unmarshal([]byte(subtasksJSON), &t.Subtasks)
	}
	if subtasksCompletedJSON != "" {
		_ = json.Unmarshal([]byte(subtasksCompletedJSON), &t.SubtasksCompleted)
	}

	return t, nil
}
