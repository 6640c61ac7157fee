// Package statusserver exposes the A4 status HTTP endpoint: a single
// GET /status route reporting whether the calling process considers
// itself up, in the style of the teacher's internal/api/v2 controllers
// (an echo.Echo instance handed in, routes registered on it).
package statusserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Reporter supplies the current process status. A worker implements it
// trivially ("running" once its pipeline goroutine is live); the
// supervisor implements it by aggregating both workers.
type Reporter interface {
	Status() string
}

// statusFunc adapts a plain function to Reporter.
type statusFunc func() string

func (f statusFunc) Status() string { return f() }

// ReporterFunc builds a Reporter from a function.
func ReporterFunc(f func() string) Reporter { return statusFunc(f) }

// Controller registers the /status route.
type Controller struct {
	reporter Reporter
}

// New builds a status controller and registers its route on e.
func New(e *echo.Echo, reporter Reporter) *Controller {
	c := &Controller{reporter: reporter}
	c.RegisterRoutes(e)
	return c
}

// RegisterRoutes wires /status onto e.
func (c *Controller) RegisterRoutes(e *echo.Echo) {
	e.GET("/status", c.getStatus)
}

type statusResponse struct {
	Status string `json:"status"`
}

func (c *Controller) getStatus(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, statusResponse{Status: c.reporter.Status()})
}

// Serve starts an HTTP server on addr carrying a fresh echo instance with
// the status route, shutting down cleanly when ctx is cancelled.
func Serve(ctx context.Context, addr string, reporter Reporter) error {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	New(e, reporter)

	errCh := make(chan error, 1)
	go func() { errCh <- e.Start(addr) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return e.Shutdown(context.Background())
	}
}
