package profile

import (
	"slices"
	"strings"

	perrors "github.com/p-blackswan/taskflow/internal/errors"
	"github.com/p-blackswan/taskflow/internal/task"
)

// entry is implemented by every section element type.
type entry[T any] interface {
	entryID() string
	withID(id string) T
	normalized() (T, error)
}

// addEntry appends e under a freshly generated id. Any id the caller set is
// replaced so ids stay unique within a section.
func addEntry[T entry[T]](d *Document, list *[]T, e T) (T, error) {
	e, err := e.normalized()
	if err != nil {
		return e, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	e = e.withID(d.newID())
	*list = append(*list, e)
	d.touch()
	return e, nil
}

func updateEntry[T entry[T]](d *Document, list *[]T, id string, e T) (T, error) {
	e, err := e.normalized()
	if err != nil {
		return e, err
	}
	e = e.withID(id)
	d.mu.Lock()
	defer d.mu.Unlock()
	i := slices.IndexFunc(*list, func(x T) bool { return x.entryID() == id })
	if i < 0 {
		var zero T
		return zero, perrors.NotFound("entry", id)
	}
	(*list)[i] = e
	d.touch()
	return e, nil
}

func removeEntry[T entry[T]](d *Document, list *[]T, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	i := slices.IndexFunc(*list, func(x T) bool { return x.entryID() == id })
	if i < 0 {
		return perrors.NotFound("entry", id)
	}
	*list = slices.Delete(*list, i, i+1)
	d.touch()
	return nil
}

func required(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return perrors.Validation("%s is required", field)
	}
	return nil
}

func (e Experience) entryID() string             { return e.ID }
func (e Experience) withID(id string) Experience { e.ID = id; return e }
func (e Experience) normalized() (Experience, error) {
	if err := required("role", e.Role); err != nil {
		return e, err
	}
	if err := required("company", e.Company); err != nil {
		return e, err
	}
	if e.Current {
		e.EndDate = ""
	}
	return e, nil
}

func (e Education) entryID() string            { return e.ID }
func (e Education) withID(id string) Education { e.ID = id; return e }
func (e Education) normalized() (Education, error) {
	if err := required("institution", e.Institution); err != nil {
		return e, err
	}
	if e.Current {
		e.EndDate = ""
	}
	return e, nil
}

func (p Project) entryID() string          { return p.ID }
func (p Project) withID(id string) Project { p.ID = id; return p }
func (p Project) normalized() (Project, error) {
	if err := required("title", p.Title); err != nil {
		return p, err
	}
	p.Tags = task.NormalizeTags(p.Tags)
	return p, nil
}

func (s Skill) entryID() string        { return s.ID }
func (s Skill) withID(id string) Skill { s.ID = id; return s }
func (s Skill) normalized() (Skill, error) {
	if err := required("category", s.Category); err != nil {
		return s, err
	}
	s.Items = task.NormalizeTags(s.Items)
	if s.Items == nil {
		s.Items = []string{}
	}
	return s, nil
}
