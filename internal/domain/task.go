package domain

import "time"

// TaskStatus is the lifecycle state of a Task.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// TaskPriority ranks a Task for scheduling and celebration purposes.
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
	TaskPriorityUrgent TaskPriority = "urgent"
)

// Task is a user-visible to-do item, optionally backed by an MCP tool call.
type Task struct {
	ID                string       `json:"id"`
	Title             string       `json:"title"`
	Description       string       `json:"description,omitempty"`
	Status            TaskStatus   `json:"status"`
	Priority          TaskPriority `json:"priority"`
	CreatedAt         time.Time    `json:"created_at"`
	DueDate           *time.Time   `json:"due_date,omitempty"`
	CompletedAt       *time.Time   `json:"completed_at,omitempty"`
	MoodOnCreation    string       `json:"mood_on_creation,omitempty"`
	CelebrationLevel  float64      `json:"celebration_level"`
	Tags              []string     `json:"tags,omitempty"`
	Project           string       `json:"project,omitempty"`
	EstimatedMinutes  *int         `json:"estimated_minutes,omitempty"`
	ActualMinutes     int          `json:"actual_minutes"`
	Subtasks          []string     `json:"subtasks,omitempty"`
	SubtasksCompleted []bool       `json:"subtasks_completed,omitempty"`
	MCPTool           string       `json:"mcp_tool,omitempty"`
	MCPParams         string       `json:"mcp_params,omitempty"`
	MCPResult         string       `json:"mcp_result,omitempty"`
}

// IsOverdue reports whether the task is unfinished and past its due date.
func (t *Task) IsOverdue(now time.Time) bool {
	return t.Status != TaskStatusCompleted && t.DueDate != nil && t.DueDate.Before(now)
}

// TaskStats summarizes the task list for display/commands.
type TaskStats struct {
	Total              int
	Pending            int
	InProgress         int
	Completed          int
	Overdue            int
	DueSoon            int
	CompletionRate30d  float64
}

// TaskStore is the contract the Brain/commands use to manipulate tasks.
// Concrete storage lives in internal/taskstore.
type TaskStore interface {
	CreateTask(t Task) (Task, error)
	ListTasks(status *TaskStatus, project *string, tags []string, limit int) ([]Task, error)
	GetTask(id string) (Task, bool, error)
	UpdateTask(t Task) error
	CompleteTask(id string) (*Task, error)
	DeleteTask(id string) (bool, error)
	GetOverdueTasks() ([]Task, error)
	GetDueSoon(days int) ([]Task, error)
	GetStats() (TaskStats, error)
}
