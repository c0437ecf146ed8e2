// Package persist snapshots the board collection, the session identity and
// the profile document into a key-value store. Every write overwrites the
// whole value; absent or unparsable values read back as empty, and unreadable
// board records are skipped individually.
package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/p-blackswan/taskflow/internal/kv"
	"github.com/p-blackswan/taskflow/internal/profile"
	"github.com/p-blackswan/taskflow/internal/task"
)

// Fixed storage keys, before the optional namespace prefix.
const (
	TasksKey    = "taskflow_tasks"
	IdentityKey = "taskflow_user"
	ProfileKey  = "taskflow_profile"
)

// Identity is the mock session user.
type Identity struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Adapter reads and writes whole documents through a kv.Store.
type Adapter struct {
	store  kv.Store
	prefix string
	logger zerolog.Logger
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithNamespace prefixes every key with ns and a colon.
func WithNamespace(ns string) Option {
	return func(a *Adapter) {
		if ns != "" {
			a.prefix = ns + ":"
		}
	}
}

// New creates an Adapter over store.
func New(store kv.Store, logger zerolog.Logger, opts ...Option) *Adapter {
	a := &Adapter{
		store:  store,
		logger: logger.With().Str("component", "persist").Logger(),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

func (a *Adapter) key(name string) string { return a.prefix + name }

// Load returns the stored collection and whether a collection was stored at
// all. Records that cannot be read are dropped one by one; a value that is
// not an array reads as absent. Only backend failures are returned as errors.
func (a *Adapter) Load(ctx context.Context) ([]task.Task, bool, error) {
	var raws []json.RawMessage
	found, err := a.read(ctx, TasksKey, &raws)
	if err != nil {
		return []task.Task{}, false, err
	}
	if !found || raws == nil {
		return []task.Task{}, false, nil
	}
	tasks := make([]task.Task, 0, len(raws))
	dropped := 0
	for i, raw := range raws {
		t, err := decodeTask(raw)
		if err != nil {
			a.logger.Warn().Err(err).Int("index", i).Msg("dropping unreadable stored task")
			dropped++
			continue
		}
		tasks = append(tasks, t)
	}
	if dropped > 0 {
		a.logger.Warn().Int("dropped", dropped).Int("kept", len(tasks)).Msg("stored board partially unreadable")
	}
	return tasks, true, nil
}

// storedTask accepts older record shapes: createdAt as epoch milliseconds,
// an empty dueDate string, and a single category.
type storedTask struct {
	task.Task
	CreatedAt json.RawMessage `json:"createdAt"`
	DueDate   json.RawMessage `json:"dueDate"`
	Category  string          `json:"category"`
}

func decodeTask(raw json.RawMessage) (task.Task, error) {
	var st storedTask
	if err := json.Unmarshal(raw, &st); err != nil {
		return task.Task{}, err
	}
	t := st.Task
	created, err := decodeCreatedAt(st.CreatedAt)
	if err != nil {
		return task.Task{}, err
	}
	t.CreatedAt = created
	due, err := decodeDueDate(st.DueDate)
	if err != nil {
		return task.Task{}, err
	}
	t.DueDate = due
	if c := strings.TrimSpace(st.Category); c != "" {
		t.Tags = append(t.Tags, c)
	}
	return t, nil
}

func decodeCreatedAt(raw json.RawMessage) (time.Time, error) {
	if isNull(raw) {
		return time.Time{}, nil
	}
	var ms float64
	if err := json.Unmarshal(raw, &ms); err == nil {
		return time.UnixMilli(int64(ms)).UTC(), nil
	}
	var ts time.Time
	if err := json.Unmarshal(raw, &ts); err != nil {
		return time.Time{}, fmt.Errorf("createdAt: %w", err)
	}
	return ts, nil
}

func decodeDueDate(raw json.RawMessage) (*task.Date, error) {
	if isNull(raw) {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("dueDate: %w", err)
	}
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	d, err := task.ParseDate(s)
	if err != nil {
		return nil, fmt.Errorf("dueDate: %w", err)
	}
	return &d, nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

// Save overwrites the stored collection.
func (a *Adapter) Save(ctx context.Context, tasks []task.Task) error {
	if tasks == nil {
		tasks = []task.Task{}
	}
	return a.write(ctx, TasksKey, tasks)
}

// LoadIdentity returns the session user, or nil when none is stored.
func (a *Adapter) LoadIdentity(ctx context.Context) (*Identity, error) {
	var id Identity
	found, err := a.read(ctx, IdentityKey, &id)
	if err != nil || !found || id.ID == "" {
		return nil, err
	}
	return &id, nil
}

// SaveIdentity overwrites the session user.
func (a *Adapter) SaveIdentity(ctx context.Context, id Identity) error {
	return a.write(ctx, IdentityKey, id)
}

// ClearIdentity removes the session user.
func (a *Adapter) ClearIdentity(ctx context.Context) error {
	if err := a.store.Delete(ctx, a.key(IdentityKey)); err != nil {
		return fmt.Errorf("clear identity: %w", err)
	}
	return nil
}

// LoadProfile returns the stored profile, or nil when none is stored.
func (a *Adapter) LoadProfile(ctx context.Context) (*profile.Profile, error) {
	var p profile.Profile
	found, err := a.read(ctx, ProfileKey, &p)
	if err != nil || !found {
		return nil, err
	}
	return &p, nil
}

// SaveProfile overwrites the stored profile.
func (a *Adapter) SaveProfile(ctx context.Context, p profile.Profile) error {
	return a.write(ctx, ProfileKey, p)
}

// Ping checks the underlying store.
func (a *Adapter) Ping(ctx context.Context) error { return a.store.Ping(ctx) }

// read decodes the value under name into v. A decode failure is logged and
// reported as not found.
func (a *Adapter) read(ctx context.Context, name string, v any) (bool, error) {
	raw, ok, err := a.store.Get(ctx, a.key(name))
	if err != nil {
		return false, fmt.Errorf("load %s: %w", name, err)
	}
	if !ok || raw == "" {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		a.logger.Warn().Err(err).Str("key", a.key(name)).Msg("discarding unreadable stored value")
		return false, nil
	}
	return true, nil
}

func (a *Adapter) write(ctx context.Context, name string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := a.store.Set(ctx, a.key(name), string(b)); err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}
	return nil
}
