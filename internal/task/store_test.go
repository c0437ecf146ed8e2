package task

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perrors "github.com/p-blackswan/taskflow/internal/errors"
)

func points(v float64) *float64 { return &v }

func date(y int, m time.Month, d int) *Date {
	dt := NewDate(y, m, d)
	return &dt
}

func newTask(id, title string) Task {
	return Task{ID: id, Title: title, CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func TestAdd_FindReturnsInsertedRecord(t *testing.T) {
	s := NewStore()
	in := Task{
		ID:          "t-1",
		Title:       "Design UI",
		Description: "wireframes",
		Status:      StatusReview,
		Priority:    PriorityHigh,
		DueDate:     date(2026, 3, 1),
		Tags:        []string{"UI", "Design"},
		StoryPoints: points(3),
		CreatedAt:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Subtasks:    []Subtask{{ID: "s-1", Title: "sketch"}},
	}
	require.NoError(t, s.Add(in))

	got, ok := s.Find("t-1")
	require.True(t, ok)
	if diff := cmp.Diff(in, got); diff != "" {
		t.Errorf("Find mismatch (-want +got):\n%s", diff)
	}
}

func TestAdd_InsertsAtHead(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Add(newTask("1", "first")))
	require.NoError(t, s.Add(newTask("2", "second")))

	snap := s.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "2", snap[0].ID)
	assert.Equal(t, "1", snap[1].ID)
}

func TestAdd_RejectsEmptyTitle(t *testing.T) {
	s := NewStore()
	err := s.Add(newTask("1", "   "))
	assert.ErrorIs(t, err, perrors.ErrValidation)
	assert.Equal(t, 0, s.Len())
}

func TestAdd_FillsDefaults(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Add(Task{ID: "1", Title: " trim me ", Tags: []string{"a", " A", "", "b"}}))

	got, _ := s.Find("1")
	assert.Equal(t, "trim me", got.Title)
	assert.Equal(t, StatusTodo, got.Status)
	assert.Equal(t, PriorityMedium, got.Priority)
	assert.Equal(t, []string{"a", "b"}, got.Tags)
}

func TestAdd_CopiesInput(t *testing.T) {
	s := NewStore()
	in := newTask("1", "x")
	in.Tags = []string{"a"}
	require.NoError(t, s.Add(in))
	in.Tags[0] = "mutated"

	got, _ := s.Find("1")
	assert.Equal(t, []string{"a"}, got.Tags)
}

func TestAddMany_PrependsPreservingOrder(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Add(newTask("old", "existing")))

	require.NoError(t, s.AddMany([]Task{newTask("a", "A"), newTask("b", "B"), newTask("c", "C")}))

	var ids []string
	for _, tk := range s.Snapshot() {
		ids = append(ids, tk.ID)
	}
	assert.Equal(t, []string{"a", "b", "c", "old"}, ids)
}

func TestAddMany_AllOrNothing(t *testing.T) {
	s := NewStore()
	err := s.AddMany([]Task{newTask("a", "A"), newTask("b", "")})
	assert.ErrorIs(t, err, perrors.ErrValidation)
	assert.Equal(t, 0, s.Len())
}

func TestUpdate_MergesFields(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Add(Task{ID: "1", Title: "old", Description: "keep", Priority: PriorityLow}))

	title := "new"
	prio := PriorityCritical
	got, err := s.Update("1", Patch{Title: &title, Priority: &prio, DueDate: date(2026, 5, 5)})
	require.NoError(t, err)

	assert.Equal(t, "new", got.Title)
	assert.Equal(t, "keep", got.Description)
	assert.Equal(t, PriorityCritical, got.Priority)
	assert.Equal(t, "2026-05-05", got.DueDate.String())

	got, err = s.Update("1", Patch{ClearDueDate: true})
	require.NoError(t, err)
	assert.Nil(t, got.DueDate)
}

func TestUpdate_NotFound(t *testing.T) {
	s := NewStore()
	title := "x"
	_, err := s.Update("missing", Patch{Title: &title})
	assert.ErrorIs(t, err, perrors.ErrNotFound)
}

func TestUpdate_InvalidLeavesRecordUntouched(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Add(newTask("1", "keep")))

	empty := ""
	_, err := s.Update("1", Patch{Title: &empty})
	assert.ErrorIs(t, err, perrors.ErrValidation)

	got, _ := s.Find("1")
	assert.Equal(t, "keep", got.Title)
}

func TestRemove(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Add(newTask("1", "a")))
	require.NoError(t, s.Add(newTask("2", "b")))

	require.NoError(t, s.Remove("1"))
	_, ok := s.Find("1")
	assert.False(t, ok)
	assert.Equal(t, 1, s.Len())
}

func TestRemove_NonexistentIDReturnsNotFound(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Add(newTask("1", "a")))

	err := s.Remove("nope")
	assert.ErrorIs(t, err, perrors.ErrNotFound)
	assert.Equal(t, 1, s.Len())
}

func TestMoveStatus_AnyToAny(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Add(newTask("1", "a")))

	// Forward through every column, then back to the start.
	order := append(append([]Status{}, Statuses...), StatusReview, StatusTodo, StatusDone, StatusInProgress)
	for _, st := range order {
		_, err := s.MoveStatus("1", st)
		require.NoError(t, err)
		got, _ := s.Find("1")
		assert.Equal(t, st, got.Status)
	}
}

func TestMoveStatus_Errors(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Add(newTask("1", "a")))

	_, err := s.MoveStatus("1", Status("blocked"))
	assert.ErrorIs(t, err, perrors.ErrValidation)

	_, err = s.MoveStatus("2", StatusDone)
	assert.ErrorIs(t, err, perrors.ErrNotFound)
}

func TestToggleSubtask_IsSelfInverse(t *testing.T) {
	s := NewStore()
	tk := newTask("1", "a")
	tk.Subtasks = []Subtask{{ID: "s1", Title: "one"}, {ID: "s2", Title: "two", Completed: true}}
	require.NoError(t, s.Add(tk))

	for _, sid := range []string{"s1", "s2"} {
		before, _ := s.Find("1")
		_, err := s.ToggleSubtask("1", sid)
		require.NoError(t, err)
		_, err = s.ToggleSubtask("1", sid)
		require.NoError(t, err)
		after, _ := s.Find("1")
		assert.Equal(t, before.Subtasks, after.Subtasks)
	}
}

func TestToggleSubtask_Progress(t *testing.T) {
	s := NewStore()
	tk := newTask("1", "a")
	tk.Subtasks = []Subtask{{ID: "s1", Title: "one"}, {ID: "s2", Title: "two"}}
	require.NoError(t, s.Add(tk))

	sub, err := s.ToggleSubtask("1", "s2")
	require.NoError(t, err)
	assert.True(t, sub.Completed)

	got, _ := s.Find("1")
	assert.InDelta(t, 0.5, got.Progress(), 1e-9)
	assert.Zero(t, newTask("x", "y").Progress())
}

func TestToggleSubtask_MissingIDs(t *testing.T) {
	s := NewStore()
	tk := newTask("1", "a")
	tk.Subtasks = []Subtask{{ID: "s1", Title: "one"}}
	require.NoError(t, s.Add(tk))

	_, err := s.ToggleSubtask("2", "s1")
	assert.ErrorIs(t, err, perrors.ErrNotFound)
	_, err = s.ToggleSubtask("1", "s9")
	assert.ErrorIs(t, err, perrors.ErrNotFound)

	got, _ := s.Find("1")
	assert.False(t, got.Subtasks[0].Completed)
}

func TestAppendSubtasks(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Add(newTask("1", "a")))

	got, err := s.AppendSubtasks("1", Subtask{ID: "s1", Title: "one"}, Subtask{ID: "s2", Title: "two"})
	require.NoError(t, err)
	assert.Len(t, got.Subtasks, 2)

	_, err = s.AppendSubtasks("1", Subtask{ID: "s3", Title: " "})
	assert.ErrorIs(t, err, perrors.ErrValidation)
	_, err = s.AppendSubtasks("9", Subtask{ID: "s3", Title: "x"})
	assert.ErrorIs(t, err, perrors.ErrNotFound)
}

func TestReplace_DropsInvalidRecords(t *testing.T) {
	s := NewStore()
	dropped := s.Replace([]Task{newTask("1", "ok"), {ID: "2"}, newTask("3", "ok too")})
	assert.Equal(t, 1, dropped)
	assert.Equal(t, 2, s.Len())
}

func TestParseStatus(t *testing.T) {
	cases := map[string]Status{
		"todo":        StatusTodo,
		"TODO":        StatusTodo,
		"IN_PROGRESS": StatusInProgress,
		"in-progress": StatusInProgress,
		"Review":      StatusReview,
		"completed":   StatusDone,
		"DONE":        StatusDone,
	}
	for raw, want := range cases {
		t.Run(raw, func(t *testing.T) {
			got, err := ParseStatus(raw)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
	_, err := ParseStatus("archived")
	assert.ErrorIs(t, err, perrors.ErrValidation)
}

func TestParsePriority(t *testing.T) {
	for _, raw := range []string{"HIGH", "high", " High "} {
		p, err := ParsePriority(raw)
		require.NoError(t, err)
		assert.Equal(t, PriorityHigh, p)
	}
	_, err := ParsePriority("urgent")
	assert.ErrorIs(t, err, perrors.ErrValidation)
}

func TestConcurrentReadsDuringWrites(t *testing.T) {
	s := NewStore()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			_ = s.Add(newTask(fmt.Sprintf("t%d", i), "x"))
		}
	}()
	for i := 0; i < 100; i++ {
		_ = s.Statistics()
		_ = s.Snapshot()
	}
	<-done
	assert.Equal(t, 100, s.Len())
}
