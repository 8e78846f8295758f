package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Router mounts domain groups under /api/<version> and the health probe at the root
type Router struct {
	engine     *gin.Engine
	apiVersion string
	groups     []*DomainGroup
	health     gin.HandlerFunc
}

// RouterOption configures a Router
type RouterOption func(*Router)

// WithAPIVersion overrides the "v1" path version
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) { r.apiVersion = version }
}

// WithHealth serves h on GET /health, outside the versioned prefix
func WithHealth(h gin.HandlerFunc) RouterOption {
	return func(r *Router) { r.health = h }
}

// NewRouter creates a Router over engine
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{engine: engine, apiVersion: "v1"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register queues groups for Setup
func (r *Router) Register(groups ...*DomainGroup) *Router {
	r.groups = append(r.groups, groups...)
	return r
}

// Setup mounts everything registered so far on the engine. Call it once.
func (r *Router) Setup() {
	if r.health != nil {
		r.engine.GET("/health", r.health)
	}
	api := r.engine.Group("/api/" + r.apiVersion)
	for _, g := range r.groups {
		g.mount(api)
	}
}

// DomainGroup collects the routes of one bounded context. Nothing touches the
// engine until the owning Router is set up, so groups can be built and
// inspected without a server.
type DomainGroup struct {
	name       string
	prefix     string
	middleware []gin.HandlerFunc
	mounts     []func(*gin.RouterGroup)
}

// NewDomainGroup creates a group served under prefix
func NewDomainGroup(name, prefix string) *DomainGroup {
	return &DomainGroup{name: name, prefix: prefix}
}

// Name returns the group name
func (g *DomainGroup) Name() string { return g.name }

// Prefix returns the path prefix relative to the API root or parent group
func (g *DomainGroup) Prefix() string { return g.prefix }

// Use adds middleware applied to every route of the group and its subgroups
func (g *DomainGroup) Use(middleware ...gin.HandlerFunc) *DomainGroup {
	g.middleware = append(g.middleware, middleware...)
	return g
}

// Handle adds a route for method
func (g *DomainGroup) Handle(method, path string, handlers ...gin.HandlerFunc) *DomainGroup {
	g.mounts = append(g.mounts, func(rg *gin.RouterGroup) { rg.Handle(method, path, handlers...) })
	return g
}

// GET adds a GET route
func (g *DomainGroup) GET(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return g.Handle(http.MethodGet, path, handlers...)
}

// POST adds a POST route
func (g *DomainGroup) POST(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return g.Handle(http.MethodPost, path, handlers...)
}

// Group adds a nested group and returns it
func (g *DomainGroup) Group(name, prefix string) *DomainGroup {
	sub := NewDomainGroup(name, prefix)
	g.mounts = append(g.mounts, sub.mount)
	return sub
}

func (g *DomainGroup) mount(parent *gin.RouterGroup) {
	rg := parent.Group(g.prefix, g.middleware...)
	for _, m := range g.mounts {
		m(rg)
	}
}
