// Package router assembles the versioned HTTP API from domain route groups.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Group collects the routes of one area of the API before it is mounted.
// Paths are relative to the group prefix.
type Group struct {
	prefix   string
	routes   []route
	children []*Group
}

type route struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

func NewGroup(prefix string) *Group {
	return &Group{prefix: prefix}
}

// Handle adds a route and returns g for chaining
func (g *Group) Handle(method, path string, handlers ...gin.HandlerFunc) *Group {
	g.routes = append(g.routes, route{method: method, path: path, handlers: handlers})
	return g
}

func (g *Group) GET(path string, handlers ...gin.HandlerFunc) *Group {
	return g.Handle(http.MethodGet, path, handlers...)
}

func (g *Group) POST(path string, handlers ...gin.HandlerFunc) *Group {
	return g.Handle(http.MethodPost, path, handlers...)
}

func (g *Group) DELETE(path string, handlers ...gin.HandlerFunc) *Group {
	return g.Handle(http.MethodDelete, path, handlers...)
}

// Sub nests a group under g's prefix
func (g *Group) Sub(prefix string) *Group {
	child := NewGroup(prefix)
	g.children = append(g.children, child)
	return child
}

func (g *Group) mount(parent *gin.RouterGroup) {
	rg := parent.Group(g.prefix)
	for _, r := range g.routes {
		rg.Handle(r.method, r.path, r.handlers...)
	}
	for _, child := range g.children {
		child.mount(rg)
	}
}

// Routes lists "METHOD path" for every route in g and its children,
// relative to the API prefix
func (g *Group) Routes() []string {
	return g.collect("")
}

func (g *Group) collect(parent string) []string {
	base := parent + g.prefix
	out := make([]string, 0, len(g.routes))
	for _, r := range g.routes {
		out = append(out, r.method+" "+base+r.path)
	}
	for _, child := range g.children {
		out = append(out, child.collect(base)...)
	}
	return out
}

// APIPath is the prefix every route of version is served under
func APIPath(version string) string {
	return "/api/" + version
}

// Mount registers groups under APIPath(version). Conflicting routes panic,
// as gin does.
func Mount(engine *gin.Engine, version string, groups ...*Group) *gin.RouterGroup {
	api := engine.Group(APIPath(version))
	for _, g := range groups {
		g.mount(api)
	}
	return api
}
