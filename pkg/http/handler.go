package http

import "github.com/labstack/echo/v4"

// Handler is a group of routes mounted on the shared Echo instance.
// Registration order is the slice order given to NewServer.
type Handler interface {
	RegisterRoutes(e *echo.Echo)
}
