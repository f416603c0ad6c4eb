package blogboot

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HandlerFunc is the shape of every controller endpoint: it returns the
// response body or an error, and the server writes either one.
type HandlerFunc func(ctx *Context) (interface{}, error)

type Controller interface {
	Register(group *ControllerGroup)
}

type ControllerGroup struct {
	group  *gin.RouterGroup
	server *Server
}

// Response carries a non-200 status alongside the body.
type Response struct {
	Status int
	Body   interface{}
}

func Created(body interface{}) Response {
	return Response{Status: http.StatusCreated, Body: body}
}

func (g *ControllerGroup) Group(path string, middleware ...gin.HandlerFunc) *ControllerGroup {
	return &ControllerGroup{
		group:  g.group.Group(path, middleware...),
		server: g.server,
	}
}

func (g *ControllerGroup) Use(middleware ...gin.HandlerFunc) {
	g.group.Use(middleware...)
}

func (g *ControllerGroup) GET(path string, handler HandlerFunc, middleware ...gin.HandlerFunc) {
	g.handle(http.MethodGet, path, handler, middleware)
}

func (g *ControllerGroup) POST(path string, handler HandlerFunc, middleware ...gin.HandlerFunc) {
	g.handle(http.MethodPost, path, handler, middleware)
}

func (g *ControllerGroup) PUT(path string, handler HandlerFunc, middleware ...gin.HandlerFunc) {
	g.handle(http.MethodPut, path, handler, middleware)
}

func (g *ControllerGroup) PATCH(path string, handler HandlerFunc, middleware ...gin.HandlerFunc) {
	g.handle(http.MethodPatch, path, handler, middleware)
}

func (g *ControllerGroup) DELETE(path string, handler HandlerFunc, middleware ...gin.HandlerFunc) {
	g.handle(http.MethodDelete, path, handler, middleware)
}

func (g *ControllerGroup) handle(method, path string, handler HandlerFunc, middleware []gin.HandlerFunc) {
	handlers := make([]gin.HandlerFunc, 0, len(middleware)+1)
	handlers = append(handlers, middleware...)
	handlers = append(handlers, g.server.wrap(handler))
	g.group.Handle(method, path, handlers...)
}

func (s *Server) wrap(handler HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := NewContext(c, s.logger)
		resp, err := handler(ctx)
		if c.IsAborted() {
			return
		}
		if err != nil {
			s.errors.Send(c, err)
			return
		}
		switch r := resp.(type) {
		case nil:
			c.Status(http.StatusNoContent)
		case Response:
			c.JSON(r.Status, r.Body)
		case *Response:
			c.JSON(r.Status, r.Body)
		default:
			c.JSON(http.StatusOK, r)
		}
	}
}

// Group creates a controller group below the server's base path.
func (s *Server) Group(path string, middleware ...gin.HandlerFunc) *ControllerGroup {
	return &ControllerGroup{
		group:  s.baseGroup().Group(path, middleware...),
		server: s,
	}
}

func (s *Server) RegisterController(path string, controller Controller, middleware ...gin.HandlerFunc) {
	controller.Register(s.Group(path, middleware...))
}

func (s *Server) baseGroup() *gin.RouterGroup {
	if s.basePath == "" {
		return &s.engine.RouterGroup
	}
	return s.engine.Group(s.basePath)
}
