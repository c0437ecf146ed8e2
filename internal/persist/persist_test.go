package persist

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p-blackswan/taskflow/internal/kv"
	"github.com/p-blackswan/taskflow/internal/profile"
	"github.com/p-blackswan/taskflow/internal/task"
)

func newAdapter(t *testing.T, opts ...Option) (*Adapter, *kv.Memory) {
	t.Helper()
	mem := kv.NewMemory()
	return New(mem, zerolog.Nop(), opts...), mem
}

func TestLoad_AbsentIsEmpty(t *testing.T) {
	a, _ := newAdapter(t)
	tasks, found, err := a.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, found)
	assert.NotNil(t, tasks)
	assert.Empty(t, tasks)
}

func TestLoad_StoredEmptyIsFound(t *testing.T) {
	ctx := context.Background()
	a, _ := newAdapter(t)
	require.NoError(t, a.Save(ctx, []task.Task{}))

	tasks, found, err := a.Load(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Empty(t, tasks)
}

func TestLoad_CorruptIsAbsent(t *testing.T) {
	ctx := context.Background()
	for name, raw := range map[string]string{
		"not json":    "{{{",
		"wrong shape": `{"id":"x"}`,
		"null":        `null`,
	} {
		t.Run(name, func(t *testing.T) {
			a, mem := newAdapter(t)
			require.NoError(t, mem.Set(ctx, TasksKey, raw))
			tasks, found, err := a.Load(ctx)
			require.NoError(t, err)
			assert.False(t, found)
			assert.Empty(t, tasks)
		})
	}
}

func TestLoad_DropsOnlyBadRecords(t *testing.T) {
	ctx := context.Background()
	good := `{"id":"ok","title":"keep me","status":"todo","priority":"low"}`
	for name, bad := range map[string]string{
		"bad status":     `{"id":"1","title":"a","status":"sleeping","priority":"low"}`,
		"bad priority":   `{"id":"1","title":"a","status":"todo","priority":"urgent-ish"}`,
		"bad due date":   `{"id":"1","title":"a","status":"todo","priority":"low","dueDate":"soon"}`,
		"bad createdAt":  `{"id":"1","title":"a","status":"todo","priority":"low","createdAt":true}`,
		"not an object":  `42`,
		"title as array": `{"id":"1","title":["a"],"status":"todo","priority":"low"}`,
	} {
		t.Run(name, func(t *testing.T) {
			a, mem := newAdapter(t)
			require.NoError(t, mem.Set(ctx, TasksKey, "["+bad+","+good+"]"))
			tasks, found, err := a.Load(ctx)
			require.NoError(t, err)
			assert.True(t, found)
			require.Len(t, tasks, 1)
			assert.Equal(t, "ok", tasks[0].ID)
			assert.Equal(t, "keep me", tasks[0].Title)
		})
	}
}

func TestLoad_LegacyRecordShape(t *testing.T) {
	ctx := context.Background()
	a, mem := newAdapter(t)
	require.NoError(t, mem.Set(ctx, TasksKey, `[
		{"id":"1","title":"Plan sprint","description":"","status":"in-progress","priority":"high",
		 "dueDate":"","category":"Work","createdAt":1714550400000,
		 "subtasks":[{"id":"s1","title":"agenda","completed":false}]},
		{"id":"2","title":"Call mom","status":"completed","priority":"low",
		 "dueDate":"2024-05-03","category":"Personal","tags":["family"],"createdAt":1714636800000}
	]`))

	tasks, found, err := a.Load(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	require.Len(t, tasks, 2)

	assert.Equal(t, task.StatusInProgress, tasks[0].Status)
	assert.Equal(t, task.PriorityHigh, tasks[0].Priority)
	assert.Nil(t, tasks[0].DueDate)
	assert.Equal(t, []string{"Work"}, tasks[0].Tags)
	assert.Equal(t, time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC), tasks[0].CreatedAt)
	require.Len(t, tasks[0].Subtasks, 1)

	assert.Equal(t, task.StatusDone, tasks[1].Status)
	require.NotNil(t, tasks[1].DueDate)
	assert.Equal(t, task.NewDate(2024, 5, 3), *tasks[1].DueDate)
	assert.Equal(t, []string{"family", "Personal"}, tasks[1].Tags)
}

func TestSave_NilWritesEmptyArray(t *testing.T) {
	ctx := context.Background()
	a, mem := newAdapter(t)
	require.NoError(t, a.Save(ctx, nil))
	raw, ok, err := mem.Get(ctx, TasksKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "[]", raw)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	ctx := context.Background()
	a, _ := newAdapter(t)
	due := task.NewDate(2026, 5, 4)
	pts := 5.0
	in := []task.Task{
		{
			ID: "1", Title: "Design UI", Status: task.StatusInProgress, Priority: task.PriorityHigh,
			DueDate: &due, Tags: []string{"ui"}, StoryPoints: &pts,
			CreatedAt: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
			Subtasks:  []task.Subtask{{ID: "s", Title: "sketch", Completed: true}},
		},
		{ID: "2", Title: "Ship", Status: task.StatusDone, Priority: task.PriorityLow, CreatedAt: time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)},
	}
	require.NoError(t, a.Save(ctx, in))

	out, found, err := a.Load(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, in, out)
}

func TestSaveOfLoad_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	a, mem := newAdapter(t)
	require.NoError(t, mem.Set(ctx, TasksKey,
		`[{"id":"1","title":"legacy","status":"in-progress","priority":"HIGH","createdAt":"2026-01-01T00:00:00Z"}]`))

	first, _, err := a.Load(ctx)
	require.NoError(t, err)
	require.NoError(t, a.Save(ctx, first))
	raw1, _, _ := mem.Get(ctx, TasksKey)

	second, _, err := a.Load(ctx)
	require.NoError(t, err)
	require.NoError(t, a.Save(ctx, second))
	raw2, _, _ := mem.Get(ctx, TasksKey)

	assert.Equal(t, raw1, raw2)
	assert.Equal(t, task.StatusInProgress, second[0].Status)
	assert.Equal(t, task.PriorityHigh, second[0].Priority)
}

func TestIdentity_SaveLoadClear(t *testing.T) {
	ctx := context.Background()
	a, _ := newAdapter(t)

	got, err := a.LoadIdentity(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	want := Identity{ID: "u1", Name: "Ada", Email: "ada@example.com"}
	require.NoError(t, a.SaveIdentity(ctx, want))
	got, err = a.LoadIdentity(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want, *got)

	require.NoError(t, a.ClearIdentity(ctx))
	got, err = a.LoadIdentity(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestIdentity_CorruptIsAbsent(t *testing.T) {
	ctx := context.Background()
	a, mem := newAdapter(t)
	require.NoError(t, mem.Set(ctx, IdentityKey, "nope"))
	got, err := a.LoadIdentity(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestNamespace_IsolatesKeys(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	alice := New(mem, zerolog.Nop(), WithNamespace("alice"))
	bob := New(mem, zerolog.Nop(), WithNamespace("bob"))

	require.NoError(t, alice.Save(ctx, []task.Task{{ID: "1", Title: "a", Status: task.StatusTodo, Priority: task.PriorityLow}}))

	_, ok, err := mem.Get(ctx, "alice:"+TasksKey)
	require.NoError(t, err)
	assert.True(t, ok)

	tasks, found, err := bob.Load(ctx)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, tasks)
}

func TestProfile_RoundTrip(t *testing.T) {
	ctx := context.Background()
	a, _ := newAdapter(t)

	got, err := a.LoadProfile(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	p := profile.Profile{
		Basics:     profile.Basics{Name: "Ada", Headline: "Engineer"},
		Summary:    "Builds things.",
		Experience: []profile.Experience{{ID: "e1", Role: "Dev", Company: "Acme"}},
		Education:  []profile.Education{},
		Projects:   []profile.Project{{ID: "p1", Title: "Engine", Tags: []string{"go"}}},
		Skills:     []profile.Skill{{ID: "k1", Category: "Languages", Items: []string{"Go"}}},
		UpdatedAt:  time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, a.SaveProfile(ctx, p))
	got, err = a.LoadProfile(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, p, *got)
}

type failingStore struct{ kv.Memory }

var errDown = errors.New("backend down")

func (*failingStore) Get(context.Context, string) (string, bool, error) { return "", false, errDown }
func (*failingStore) Set(context.Context, string, string) error         { return errDown }
func (*failingStore) Ping(context.Context) error                        { return errDown }

func TestBackendErrors_Propagate(t *testing.T) {
	ctx := context.Background()
	a := New(&failingStore{}, zerolog.Nop())

	tasks, found, err := a.Load(ctx)
	assert.ErrorIs(t, err, errDown)
	assert.False(t, found)
	assert.Empty(t, tasks)
	assert.ErrorIs(t, a.Save(ctx, nil), errDown)
	assert.ErrorIs(t, a.Ping(ctx), errDown)
}
