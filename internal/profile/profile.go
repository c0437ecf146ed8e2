// Package profile models the portfolio/resume document: contact basics, a
// free-text summary and ordered entry lists edited in place.
package profile

import (
	"slices"
	"strings"
	"sync"
	"time"

	perrors "github.com/p-blackswan/taskflow/internal/errors"
	"github.com/p-blackswan/taskflow/internal/task"
)

// Basics is the contact block.
type Basics struct {
	Name     string `json:"name"`
	Headline string `json:"headline,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Location string `json:"location,omitempty"`
	Website  string `json:"website,omitempty"`
}

type Experience struct {
	ID          string `json:"id"`
	Role        string `json:"role"`
	Company     string `json:"company"`
	Location    string `json:"location,omitempty"`
	StartDate   string `json:"startDate,omitempty"`
	EndDate     string `json:"endDate,omitempty"`
	Current     bool   `json:"current,omitempty"`
	Description string `json:"description,omitempty"`
}

type Education struct {
	ID           string `json:"id"`
	Institution  string `json:"institution"`
	Degree       string `json:"degree,omitempty"`
	FieldOfStudy string `json:"fieldOfStudy,omitempty"`
	StartDate    string `json:"startDate,omitempty"`
	EndDate      string `json:"endDate,omitempty"`
	Current      bool   `json:"current,omitempty"`
}

type Project struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Link        string   `json:"link,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// Skill groups related skill names under a category.
type Skill struct {
	ID       string   `json:"id"`
	Category string   `json:"category"`
	Items    []string `json:"items"`
}

// Profile is the whole document as persisted.
type Profile struct {
	Basics     Basics       `json:"basics"`
	Summary    string       `json:"summary,omitempty"`
	Experience []Experience `json:"experience"`
	Education  []Education  `json:"education"`
	Projects   []Project    `json:"projects"`
	Skills     []Skill      `json:"skills"`
	UpdatedAt  time.Time    `json:"updatedAt"`
}

// Clone returns a deep copy.
func (p Profile) Clone() Profile {
	c := p
	c.Experience = slices.Clone(p.Experience)
	c.Education = slices.Clone(p.Education)
	c.Projects = make([]Project, len(p.Projects))
	for i, pr := range p.Projects {
		pr.Tags = slices.Clone(pr.Tags)
		c.Projects[i] = pr
	}
	c.Skills = make([]Skill, len(p.Skills))
	for i, s := range p.Skills {
		s.Items = slices.Clone(s.Items)
		c.Skills[i] = s
	}
	return c
}

// SkillNames flattens every skill item, de-duplicated.
func (p Profile) SkillNames() []string {
	var all []string
	for _, s := range p.Skills {
		all = append(all, s.Items...)
	}
	return task.NormalizeTags(all)
}

// Section names an entry list.
type Section string

const (
	SectionExperience Section = "experience"
	SectionEducation  Section = "education"
	SectionProjects   Section = "projects"
	SectionSkills     Section = "skills"
)

// Document is the mutable profile of one session.
type Document struct {
	mu    sync.RWMutex
	p     Profile
	newID func() string
	now   func() time.Time
}

// NewDocument wraps p. newID generates entry ids; now stamps UpdatedAt.
func NewDocument(p Profile, newID func() string, now func() time.Time) *Document {
	if now == nil {
		now = time.Now
	}
	return &Document{p: p.Clone(), newID: newID, now: now}
}

// Profile returns a copy of the current document.
func (d *Document) Profile() Profile {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.p.Clone()
}

// Replace swaps in a loaded document.
func (d *Document) Replace(p Profile) {
	d.mu.Lock()
	d.p = p.Clone()
	d.mu.Unlock()
}

// SetBasics overwrites the contact block. A name is required.
func (d *Document) SetBasics(b Basics) error {
	b.Name = strings.TrimSpace(b.Name)
	if b.Name == "" {
		return perrors.Validation("name is required")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.p.Basics = b
	d.touch()
	return nil
}

// SetSummary overwrites the free-text summary.
func (d *Document) SetSummary(s string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.p.Summary = strings.TrimSpace(s)
	d.touch()
}

func (d *Document) touch() { d.p.UpdatedAt = d.now().UTC() }

func (d *Document) AddExperience(e Experience) (Experience, error) {
	return addEntry(d, &d.p.Experience, e)
}

func (d *Document) UpdateExperience(id string, e Experience) (Experience, error) {
	return updateEntry(d, &d.p.Experience, id, e)
}

func (d *Document) RemoveExperience(id string) error {
	return removeEntry(d, &d.p.Experience, id)
}

func (d *Document) AddEducation(e Education) (Education, error) {
	return addEntry(d, &d.p.Education, e)
}

func (d *Document) UpdateEducation(id string, e Education) (Education, error) {
	return updateEntry(d, &d.p.Education, id, e)
}

func (d *Document) RemoveEducation(id string) error {
	return removeEntry(d, &d.p.Education, id)
}

func (d *Document) AddProject(p Project) (Project, error) {
	return addEntry(d, &d.p.Projects, p)
}

func (d *Document) UpdateProject(id string, p Project) (Project, error) {
	return updateEntry(d, &d.p.Projects, id, p)
}

func (d *Document) RemoveProject(id string) error {
	return removeEntry(d, &d.p.Projects, id)
}

func (d *Document) AddSkill(s Skill) (Skill, error) {
	return addEntry(d, &d.p.Skills, s)
}

func (d *Document) UpdateSkill(id string, s Skill) (Skill, error) {
	return updateEntry(d, &d.p.Skills, id, s)
}

func (d *Document) RemoveSkill(id string) error {
	return removeEntry(d, &d.p.Skills, id)
}
