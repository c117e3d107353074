package taskstore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/inkling-labs/inkling-core/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "tasks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateAndGetTask(t *testing.T) {
	s := newTestStore(t)
	created, err := s.CreateTask(domain.Task{Title: "Write tests", Tags: []string{"dev"}})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Equal(t, domain.TaskStatusPending, created.Status)
	require.Equal(t, domain.TaskPriorityMedium, created.Priority)

	got, ok, err := s.GetTask(created.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Write tests", got.Title)
	require.Equal(t, []string{"dev"}, got.Tags)
}

func TestGetMissingTaskReturnsFalse(t *testing.T) {
	s := newTestStore(t)
	_, ok, err := s.GetTask("does-not-exist")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestListTasksOrdersByPriorityThenDueDate(t *testing.T) {
	s := newTestStore(t)
	due := time.Now().Add(24 * time.Hour)
	_, err := s.CreateTask(domain.Task{Title: "low", Priority: domain.TaskPriorityLow})
	require.NoError(t, err)
	_, err = s.CreateTask(domain.Task{Title: "urgent", Priority: domain.TaskPriorityUrgent, DueDate: &due})
	require.NoError(t, err)
	_, err = s.CreateTask(domain.Task{Title: "medium", Priority: domain.TaskPriorityMedium})
	require.NoError(t, err)

	tasks, err := s.ListTasks(nil, nil, nil, 0)
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	require.Equal(t, "urgent", tasks[0].Title)
}

func TestListTasksFiltersByStatusProjectAndTags(t *testing.T) {
	s := newTestStore(t)
	proj := "inkling"
	_, err := s.CreateTask(domain.Task{Title: "a", Project: proj, Tags: []string{"research", "urgent"}})
	require.NoError(t, err)
	_, err = s.CreateTask(domain.Task{Title: "b", Project: proj, Tags: []string{"chores"}})
	require.NoError(t, err)
	_, err = s.CreateTask(domain.Task{Title: "c", Project: "other"})
	require.NoError(t, err)

	status := domain.TaskStatusPending
	byProject, err := s.ListTasks(&status, &proj, nil, 0)
	require.NoError(t, err)
	require.Len(t, byProject, 2)

	byTag, err := s.ListTasks(nil, nil, []string{"research"}, 0)
	require.NoError(t, err)
	require.Len(t, byTag, 1)
	require.Equal(t, "a", byTag[0].Title)
}

func TestCompleteTaskSetsStatusAndTimestamp(t *testing.T) {
	s := newTestStore(t)
	created, err := s.CreateTask(domain.Task{Title: "finish me"})
	require.NoError(t, err)

	completed, err := s.CompleteTask(created.ID)
	require.NoError(t, err)
	require.NotNil(t, completed)
	require.Equal(t, domain.TaskStatusCompleted, completed.Status)
	require.NotNil(t, completed.CompletedAt)
}

func TestCompleteMissingTaskReturnsNil(t *testing.T) {
	s := newTestStore(t)
	completed, err := s.CompleteTask("missing")
	require.NoError(t, err)
	require.Nil(t, completed)
}

func TestDeleteTask(t *testing.T) {
	s := newTestStore(t)
	created, err := s.CreateTask(domain.Task{Title: "delete me"})
	require.NoError(t, err)

	ok, err := s.DeleteTask(created.ID)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = s.GetTask(created.ID)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = s.DeleteTask(created.ID)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestGetOverdueTasksExcludesCompletedAndFuture(t *testing.T) {
	s := newTestStore(t)
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	overdueTask, err := s.CreateTask(domain.Task{Title: "overdue", DueDate: &past})
	require.NoError(t, err)
	_, err = s.CreateTask(domain.Task{Title: "future", DueDate: &future})
	require.NoError(t, err)
	completedOverdue, err := s.CreateTask(domain.Task{Title: "done but overdue", DueDate: &past})
	require.NoError(t, err)
	_, err = s.CompleteTask(completedOverdue.ID)
	require.NoError(t, err)

	overdue, err := s.GetOverdueTasks()
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	require.Equal(t, overdueTask.ID, overdue[0].ID)
}

func TestGetDueSoonRespectsWindow(t *testing.T) {
	s := newTestStore(t)
	soon := time.Now().Add(24 * time.Hour)
	far := time.Now().Add(30 * 24 * time.Hour)

	_, err := s.CreateTask(domain.Task{Title: "soon", DueDate: &soon})
	require.NoError(t, err)
	_, err = s.CreateTask(domain.Task{Title: "far", DueDate: &far})
	require.NoError(t, err)

	dueSoon, err := s.GetDueSoon(3)
	require.NoError(t, err)
	require.Len(t, dueSoon, 1)
	require.Equal(t, "soon", dueSoon[0].Title)
}

func TestGetStatsCountsByStatus(t *testing.T) {
	s := newTestStore(t)
	a, err := s.CreateTask(domain.Task{Title: "a"})
	require.NoError(t, err)
	_, err = s.CreateTask(domain.Task{Title: "b"})
	require.NoError(t, err)
	_, err = s.CompleteTask(a.ID)
	require.NoError(t, err)

	stats, err := s.GetStats()
	require.NoError(t, err)
	require.Equal(t, 2, stats.Total)
	require.Equal(t, 1, stats.Pending)
	require.Equal(t, 1, stats.Completed)
	require.InDelta(t, 0.5, stats.CompletionRate30d, 0.001)
}

func TestUpdateTaskPersistsChanges(t *testing.T) {
	s := newTestStore(t)
	created, err := s.CreateTask(domain.Task{Title: "original"})
	require.NoError(t, err)

	created.Title = "renamed"
	created.Status = domain.TaskStatusInProgress
	require.NoError(t, s.UpdateTask(created))

	got, ok, err := s.GetTask(created.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "renamed", got.Title)
	require.Equal(t, domain.TaskStatusInProgress, got.Status)
}
