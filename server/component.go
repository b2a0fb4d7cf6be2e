package server

import (
	"context"
	"fmt"
	"sort"

	"github.com/kbukum/shoplist/component"
)

const componentName = "http-server"

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// Component runs a Server inside a component.Registry.
type Component struct {
	server *Server
}

// NewComponent wraps s.
func NewComponent(s *Server) *Component {
	return &Component{server: s}
}

// Server returns the wrapped server.
func (c *Component) Server() *Server { return c.server }

func (c *Component) Name() string { return componentName }

func (c *Component) Start(ctx context.Context) error { return c.server.Start(ctx) }

func (c *Component) Stop(ctx context.Context) error { return c.server.Stop(ctx) }

// Health is healthy while the listener is bound.
func (c *Component) Health(_ context.Context) component.Health {
	if !c.server.Running() {
		return component.Health{Name: componentName, Status: component.StatusUnhealthy, Message: "HTTP server not listening"}
	}
	return component.Health{Name: componentName, Status: component.StatusHealthy}
}

func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    "HTTP Server",
		Type:    "server",
		Details: fmt.Sprintf("%s routes=%d", c.server.Addr(), len(c.server.engine.Routes())),
	}
}

// Route is a registered method and path.
type Route struct {
	Method string
	Path   string
}

// Routes lists registered routes, API routes first, each group sorted by
// path then method.
func (c *Component) Routes() []Route {
	ginRoutes := c.server.engine.Routes()
	routes := make([]Route, 0, len(ginRoutes))
	for _, r := range ginRoutes {
		routes = append(routes, Route{Method: r.Method, Path: r.Path})
	}
	sort.Slice(routes, func(i, j int) bool {
		iSys, jSys := probePaths[routes[i].Path], probePaths[routes[j].Path]
		if iSys != jSys {
			return !iSys
		}
		if routes[i].Path != routes[j].Path {
			return routes[i].Path < routes[j].Path
		}
		return methodOrder(routes[i].Method) < methodOrder(routes[j].Method)
	})
	return routes
}

var probePaths = map[string]bool{"/health": true, "/alive": true, "/ready": true, "/info": true}

func methodOrder(m string) int {
	switch m {
	case "GET":
		return 0
	case "POST":
		return 1
	case "PUT":
		return 2
	case "DELETE":
		return 3
	default:
		return 4
	}
}
