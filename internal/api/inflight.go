package api

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/semaphore"
)

// inflight allows at most one running request per AI action, mirroring a
// disabled button while a call is pending.
type inflight struct {
	mu   sync.Mutex
	sems map[string]*semaphore.Weighted
}

func newInflight() *inflight {
	return &inflight{sems: make(map[string]*semaphore.Weighted)}
}

func (f *inflight) slot(action string) *semaphore.Weighted {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sems[action]
	if !ok {
		s = semaphore.NewWeighted(1)
		f.sems[action] = s
	}
	return s
}

// exclusive wraps next so a second concurrent call of the same action is
// rejected with 409 instead of queued.
func (h *Handlers) exclusive(action string, next fiber.Handler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sem := h.inflight.slot(action)
		if !sem.TryAcquire(1) {
			return problemResponse(c, fiber.StatusConflict, "ai_request_in_flight", "Conflict",
				"A "+action+" request is already running")
		}
		defer sem.Release(1)
		return next(c)
	}
}
