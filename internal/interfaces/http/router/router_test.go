package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func reply(body string) gin.HandlerFunc {
	return func(c *gin.Context) { c.String(http.StatusOK, body) }
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestMount_NestedGroups(t *testing.T) {
	catalog := NewGroup("/catalog")
	catalog.Sub("/uploads").
		POST("", reply("upload")).
		DELETE("/:id", reply("discard"))
	catalog.Sub("/entries").GET("/:key", reply("entry"))
	system := NewGroup("/system").GET("/ping", reply("pong"))

	engine := gin.New()
	api := Mount(engine, "v1", catalog, system)
	assert.Equal(t, "/api/v1", api.BasePath())

	tests := []struct {
		method, path, want string
	}{
		{http.MethodPost, "/api/v1/catalog/uploads", "upload"},
		{http.MethodDelete, "/api/v1/catalog/uploads/42", "discard"},
		{http.MethodGet, "/api/v1/catalog/entries/SKU1", "entry"},
		{http.MethodGet, "/api/v1/system/ping", "pong"},
	}
	for _, tt := range tests {
		w := serve(engine, tt.method, tt.path)
		assert.Equal(t, http.StatusOK, w.Code, tt.path)
		assert.Equal(t, tt.want, w.Body.String(), tt.path)
	}

	assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, "/catalog/entries/SKU1").Code)
}

func TestGroup_Routes(t *testing.T) {
	g := NewGroup("")
	g.POST("/cost-analysis", reply(""))
	g.Sub("/proposals").GET("", reply("")).Handle(http.MethodPut, "/:id", reply(""))

	assert.Equal(t, []string{
		"POST /cost-analysis",
		"GET /proposals",
		"PUT /proposals/:id",
	}, g.Routes())
}

func TestNewCatalogRoutes(t *testing.T) {
	g := NewCatalogRoutes(CatalogHandlers{
		Uploads: handler.NewCatalogUploadHandler(nil, nil, 0),
		Entries: handler.NewCatalogEntryHandler(nil),
		Rules:   handler.NewCatalogRulesHandler(nil),
	})

	assert.ElementsMatch(t, []string{
		"POST /catalog/uploads",
		"GET /catalog/uploads",
		"GET /catalog/uploads/:id",
		"DELETE /catalog/uploads/:id",
		"GET /catalog/uploads/:id/changes",
		"GET /catalog/uploads/:id/file",
		"GET /catalog/uploads/:id/pending",
		"POST /catalog/uploads/:id/commit",
		"POST /catalog/uploads/:id/reconcile",
		"POST /catalog/uploads/:id/approve-all",
		"GET /catalog/entries",
		"GET /catalog/entries/:key",
		"POST /catalog/entries/:key/approve",
		"POST /catalog/entries/:key/reject",
		"POST /catalog/entries/:key/resolve",
		"GET /catalog/rules",
		"POST /catalog/rules/validate",
		"POST /catalog/rules/reload",
	}, g.Routes())

	// gin panics on conflicting wildcards
	assert.NotPanics(t, func() { Mount(gin.New(), "v1", g) })
}

func TestNewProposalRoutes(t *testing.T) {
	g := NewProposalRoutes(handler.NewProposalHandler(nil))

	assert.ElementsMatch(t, []string{
		"POST /cost-analysis",
		"POST /proposals",
		"GET /proposals",
		"GET /proposals/:id",
		"GET /proposals/:id/pdf",
		"POST /proposals/:id/cost-analysis",
	}, g.Routes())

	engine := gin.New()
	assert.NotPanics(t, func() {
		Mount(engine, "v1", g, NewSystemRoutes(handler.NewSystemHandler()))
	})
	assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/api/v1/system/ping").Code)
}
