package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/p-blackswan/taskflow/internal/profile"
)

// GetProfile handles GET /api/v1/profile.
func (h *Handlers) GetProfile(c *fiber.Ctx) error {
	return c.JSON(h.svc.Profile())
}

// SetBasics handles PUT /api/v1/profile/basics.
func (h *Handlers) SetBasics(c *fiber.Ctx) error {
	var b profile.Basics
	if err := c.BodyParser(&b); err != nil {
		return badBody(c, err)
	}
	err := h.svc.EditProfile(c.UserContext(), "basics", func(d *profile.Document) error {
		return d.SetBasics(b)
	})
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(h.svc.Profile())
}

type summaryRequest struct {
	Summary string `json:"summary"`
}

// SetSummary handles PUT /api/v1/profile/summary.
func (h *Handlers) SetSummary(c *fiber.Ctx) error {
	var req summaryRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	err := h.svc.EditProfile(c.UserContext(), "summary", func(d *profile.Document) error {
		d.SetSummary(req.Summary)
		return nil
	})
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(h.svc.Profile())
}

// AddEntry handles POST /api/v1/profile/:section.
func (h *Handlers) AddEntry(c *fiber.Ctx) error {
	switch profile.Section(c.Params("section")) {
	case profile.SectionExperience:
		return addEntry(h, c, (*profile.Document).AddExperience)
	case profile.SectionEducation:
		return addEntry(h, c, (*profile.Document).AddEducation)
	case profile.SectionProjects:
		return addEntry(h, c, (*profile.Document).AddProject)
	case profile.SectionSkills:
		return addEntry(h, c, (*profile.Document).AddSkill)
	}
	return unknownSection(c)
}

// UpdateEntry handles PUT /api/v1/profile/:section/:id.
func (h *Handlers) UpdateEntry(c *fiber.Ctx) error {
	switch profile.Section(c.Params("section")) {
	case profile.SectionExperience:
		return updateEntry(h, c, (*profile.Document).UpdateExperience)
	case profile.SectionEducation:
		return updateEntry(h, c, (*profile.Document).UpdateEducation)
	case profile.SectionProjects:
		return updateEntry(h, c, (*profile.Document).UpdateProject)
	case profile.SectionSkills:
		return updateEntry(h, c, (*profile.Document).UpdateSkill)
	}
	return unknownSection(c)
}

// RemoveEntry handles DELETE /api/v1/profile/:section/:id.
func (h *Handlers) RemoveEntry(c *fiber.Ctx) error {
	var remove func(*profile.Document, string) error
	switch profile.Section(c.Params("section")) {
	case profile.SectionExperience:
		remove = (*profile.Document).RemoveExperience
	case profile.SectionEducation:
		remove = (*profile.Document).RemoveEducation
	case profile.SectionProjects:
		remove = (*profile.Document).RemoveProject
	case profile.SectionSkills:
		remove = (*profile.Document).RemoveSkill
	default:
		return unknownSection(c)
	}
	id := c.Params("id")
	err := h.svc.EditProfile(c.UserContext(), "remove_"+c.Params("section"), func(d *profile.Document) error {
		return remove(d, id)
	})
	if err != nil {
		return h.writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func addEntry[T any](h *Handlers, c *fiber.Ctx, add func(*profile.Document, T) (T, error)) error {
	var in T
	if err := c.BodyParser(&in); err != nil {
		return badBody(c, err)
	}
	var out T
	err := h.svc.EditProfile(c.UserContext(), "add_"+c.Params("section"), func(d *profile.Document) error {
		var err error
		out, err = add(d, in)
		return err
	})
	if err != nil {
		return h.writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

func updateEntry[T any](h *Handlers, c *fiber.Ctx, update func(*profile.Document, string, T) (T, error)) error {
	var in T
	if err := c.BodyParser(&in); err != nil {
		return badBody(c, err)
	}
	id := c.Params("id")
	var out T
	err := h.svc.EditProfile(c.UserContext(), "update_"+c.Params("section"), func(d *profile.Document) error {
		var err error
		out, err = update(d, id, in)
		return err
	})
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(out)
}

func unknownSection(c *fiber.Ctx) error {
	return problemResponse(c, fiber.StatusNotFound, "not_found", "Not Found",
		"unknown profile section "+c.Params("section"))
}

type optimizeRequest struct {
	Text string `json:"text"`
	Kind string `json:"kind"`
}

// OptimizeText handles POST /api/v1/profile/optimize.
func (h *Handlers) OptimizeText(c *fiber.Ctx) error {
	var req optimizeRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	ctx, cancel := h.aiContext(c)
	defer cancel()
	out, err := h.svc.OptimizeText(ctx, req.Text, req.Kind)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(fiber.Map{"text": out})
}

type skillsRequest struct {
	JobDescription string `json:"jobDescription"`
}

// SuggestSkills handles POST /api/v1/profile/skills/suggest.
func (h *Handlers) SuggestSkills(c *fiber.Ctx) error {
	var req skillsRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	ctx, cancel := h.aiContext(c)
	defer cancel()
	skills, err := h.svc.SuggestSkills(ctx, req.JobDescription)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(fiber.Map{"skills": skills})
}

// GenerateSummary handles POST /api/v1/profile/summary/generate. The draft
// is returned, not applied.
func (h *Handlers) GenerateSummary(c *fiber.Ctx) error {
	ctx, cancel := h.aiContext(c)
	defer cancel()
	summary, err := h.svc.GenerateSummary(ctx)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(fiber.Map{"summary": summary})
}
