package health

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func newApp(c *Checker) *fiber.App {
	app := fiber.New()
	app.Get("/healthz", LivenessHandler)
	app.Get("/readyz", c.ReadinessHandler)
	return app
}

func get(t *testing.T, app *fiber.App, path string) (int, string) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestLivenessHandler(t *testing.T) {
	code, body := get(t, newApp(NewChecker(zerolog.Nop())), "/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "ok")
}

func TestChecker_AllHealthy(t *testing.T) {
	c := NewChecker(zerolog.Nop())
	c.Register("storage", PingCheck(pinger{}, zerolog.Nop()))
	c.Register("ai", OptionalCheck(func() bool { return true }))

	assert.True(t, c.IsReady(context.Background()))
}

func TestChecker_OneDown(t *testing.T) {
	c := NewChecker(zerolog.Nop())
	c.Register("storage", PingCheck(pinger{err: errors.New("refused")}, zerolog.Nop()))
	c.Register("ai", OptionalCheck(func() bool { return true }))

	assert.False(t, c.IsReady(context.Background()))
}

func TestChecker_Degraded_StillReady(t *testing.T) {
	c := NewChecker(zerolog.Nop())
	c.Register("ai", OptionalCheck(func() bool { return false }))

	results := c.RunAll(context.Background())
	assert.Equal(t, StatusDegraded, results["ai"])
	assert.True(t, c.IsReady(context.Background()))
}

func TestChecker_NoChecks(t *testing.T) {
	assert.True(t, NewChecker(zerolog.Nop()).IsReady(context.Background()))
}

func TestReadinessHandler(t *testing.T) {
	c := NewChecker(zerolog.Nop())
	c.Register("storage", PingCheck(pinger{}, zerolog.Nop()))
	code, body := get(t, newApp(c), "/readyz")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `"status":"ready"`)

	c.Register("storage", PingCheck(pinger{err: errors.New("refused")}, zerolog.Nop()))
	code, body = get(t, newApp(c), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, body, `"storage":"down"`)
}
