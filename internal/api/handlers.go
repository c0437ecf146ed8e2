package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/p-blackswan/taskflow/internal/board"
	"github.com/p-blackswan/taskflow/internal/planner"
	"github.com/p-blackswan/taskflow/internal/task"
)

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	svc       *board.Service
	aiTimeout time.Duration
	inflight  *inflight
	logger    zerolog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(svc *board.Service, aiTimeout time.Duration, logger zerolog.Logger) *Handlers {
	return &Handlers{
		svc:       svc,
		aiTimeout: aiTimeout,
		inflight:  newInflight(),
		logger:    logger.With().Str("component", "api_handlers").Logger(),
	}
}

// aiContext bounds a completion call by the request and the AI timeout.
func (h *Handlers) aiContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.UserContext(), h.aiTimeout)
}

// BoardResponse is the whole board view.
type BoardResponse struct {
	Project  board.Project `json:"project"`
	Columns  []task.Column `json:"columns"`
	Stats    task.Stats    `json:"stats"`
	Revision uint64        `json:"revision"`
	AI       bool          `json:"aiEnabled"`
}

// TaskListResponse is the body of GET /tasks.
type TaskListResponse struct {
	View  task.View   `json:"view"`
	Tasks []task.Task `json:"tasks"`
	Total int         `json:"total"`
}

// ListTasks handles GET /api/v1/tasks?view=all|today|upcoming.
func (h *Handlers) ListTasks(c *fiber.Ctx) error {
	view := task.ParseView(c.Query("view"))
	tasks := h.svc.Tasks(view)
	return c.JSON(TaskListResponse{View: view, Tasks: tasks, Total: len(tasks)})
}

// CreateTask handles POST /api/v1/tasks.
func (h *Handlers) CreateTask(c *fiber.Ctx) error {
	var nt board.NewTask
	if err := c.BodyParser(&nt); err != nil {
		return badBody(c, err)
	}
	created, err := h.svc.CreateTask(c.UserContext(), nt)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// GetTask handles GET /api/v1/tasks/:id.
func (h *Handlers) GetTask(c *fiber.Ctx) error {
	t, err := h.svc.Task(c.Params("id"))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(t)
}

// EditTask handles PATCH /api/v1/tasks/:id.
func (h *Handlers) EditTask(c *fiber.Ctx) error {
	var p task.Patch
	if err := c.BodyParser(&p); err != nil {
		return badBody(c, err)
	}
	t, err := h.svc.EditTask(c.UserContext(), c.Params("id"), p)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(t)
}

// DeleteTask handles DELETE /api/v1/tasks/:id.
func (h *Handlers) DeleteTask(c *fiber.Ctx) error {
	if err := h.svc.DeleteTask(c.UserContext(), c.Params("id")); err != nil {
		return h.writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type moveRequest struct {
	Status string `json:"status"`
}

// MoveTask handles PATCH /api/v1/tasks/:id/status.
func (h *Handlers) MoveTask(c *fiber.Ctx) error {
	var req moveRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	status, err := task.ParseStatus(req.Status)
	if err != nil {
		return h.writeError(c, err)
	}
	t, err := h.svc.MoveTask(c.UserContext(), c.Params("id"), status)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(t)
}

type subtaskRequest struct {
	Title string `json:"title"`
}

// AddSubtask handles POST /api/v1/tasks/:id/subtasks.
func (h *Handlers) AddSubtask(c *fiber.Ctx) error {
	var req subtaskRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	t, err := h.svc.AddSubtask(c.UserContext(), c.Params("id"), req.Title)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(t)
}

// ToggleSubtask handles POST /api/v1/tasks/:id/subtasks/:sid/toggle.
func (h *Handlers) ToggleSubtask(c *fiber.Ctx) error {
	sub, err := h.svc.ToggleSubtask(c.UserContext(), c.Params("id"), c.Params("sid"))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(sub)
}

// SuggestSubtasks handles POST /api/v1/tasks/:id/subtasks/suggest.
func (h *Handlers) SuggestSubtasks(c *fiber.Ctx) error {
	ctx, cancel := h.aiContext(c)
	defer cancel()
	t, err := h.svc.SuggestSubtasks(ctx, c.Params("id"))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(t)
}

// Board handles GET /api/v1/board.
func (h *Handlers) Board(c *fiber.Ctx) error {
	return c.JSON(BoardResponse{
		Project:  h.svc.Project(),
		Columns:  h.svc.Columns(),
		Stats:    h.svc.Stats(),
		Revision: h.svc.Revision(),
		AI:       h.svc.AIConfigured(),
	})
}

// Stats handles GET /api/v1/stats.
func (h *Handlers) Stats(c *fiber.Ctx) error {
	return c.JSON(h.svc.Stats())
}

type planRequest struct {
	Goal string `json:"goal"`
}

// GeneratePlan handles POST /api/v1/plan. The draft is not applied.
func (h *Handlers) GeneratePlan(c *fiber.Ctx) error {
	var req planRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	ctx, cancel := h.aiContext(c)
	defer cancel()
	draft, err := h.svc.GeneratePlan(ctx, req.Goal)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(draft)
}

type approveRequest struct {
	Tasks []planner.TaskDraft `json:"tasks"`
}

// ApprovePlan handles POST /api/v1/plan/approve.
func (h *Handlers) ApprovePlan(c *fiber.Ctx) error {
	var req approveRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	created, err := h.svc.ApprovePlan(c.UserContext(), req.Tasks)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"tasks": created})
}

// AnalyzeRisk handles POST /api/v1/risk.
func (h *Handlers) AnalyzeRisk(c *fiber.Ctx) error {
	ctx, cancel := h.aiContext(c)
	defer cancel()
	report, err := h.svc.AnalyzeRisk(ctx)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(report)
}

// Risk handles GET /api/v1/risk.
func (h *Handlers) Risk(c *fiber.Ctx) error {
	report, ok := h.svc.Risk()
	if !ok {
		return problemResponse(c, fiber.StatusNotFound, "not_found", "Not Found", "no risk report yet")
	}
	return c.JSON(report)
}

// Quote handles GET /api/v1/quote.
func (h *Handlers) Quote(c *fiber.Ctx) error {
	ctx, cancel := h.aiContext(c)
	defer cancel()
	return c.JSON(fiber.Map{"quote": h.svc.Quote(ctx)})
}

type loginRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Login handles POST /api/v1/session.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	id, err := h.svc.Login(c.UserContext(), req.Name, req.Email)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(id)
}

// CurrentUser handles GET /api/v1/session.
func (h *Handlers) CurrentUser(c *fiber.Ctx) error {
	id := h.svc.CurrentUser()
	if id == nil {
		return problemResponse(c, fiber.StatusNotFound, "not_found", "Not Found", "no active session")
	}
	return c.JSON(id)
}

// Logout handles DELETE /api/v1/session.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	if err := h.svc.Logout(c.UserContext()); err != nil {
		return h.writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
