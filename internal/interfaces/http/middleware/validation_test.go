package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lineInput struct {
	ProductKey string `json:"product_key" binding:"required,max=10"`
}

type proposalInput struct {
	ClientRef string      `json:"client_ref" binding:"required,notblank"`
	Currency  string      `json:"currency" binding:"omitempty,iso4217"`
	Lines     []lineInput `json:"lines" binding:"required,min=1,dive"`
}

func bindRouter() *gin.Engine {
	SetupValidator()
	router := gin.New()
	router.Use(RequestID())
	router.POST("/test", func(c *gin.Context) {
		var req proposalInput
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})
	return router
}

func TestSetupValidator(t *testing.T) {
	SetupValidator()
	v, ok := binding.Validator.Engine().(*validator.Validate)
	require.True(t, ok)
	assert.Error(t, v.Var(" \t", "notblank"))
	assert.NoError(t, v.Var("SKU1", "notblank"))
}

func TestHandleValidationError(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		fields map[string]string
	}{
		{
			name: "missing fields",
			body: `{}`,
			fields: map[string]string{
				"client_ref": "This field is required",
				"lines":      "This field is required",
			},
		},
		{
			name:   "empty lines",
			body:   `{"client_ref":"ACME","lines":[]}`,
			fields: map[string]string{"lines": "Must contain at least 1 items"},
		},
		{
			name:   "nested line field",
			body:   `{"client_ref":"ACME","lines":[{"product_key":"THIS-KEY-IS-LONG"}]}`,
			fields: map[string]string{"lines[0].product_key": "Must be at most 10 characters"},
		},
		{
			name:   "blank client ref",
			body:   `{"client_ref":"   ","lines":[{"product_key":"SKU1"}]}`,
			fields: map[string]string{"client_ref": "Must not be blank"},
		},
		{
			name:   "bad currency",
			body:   `{"client_ref":"ACME","currency":"XYZ","lines":[{"product_key":"SKU1"}]}`,
			fields: map[string]string{"currency": "Must be an ISO 4217 currency code"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("X-Request-ID", "req-9")
			w := httptest.NewRecorder()
			bindRouter().ServeHTTP(w, req)

			require.Equal(t, http.StatusBadRequest, w.Code)
			var resp dto.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
			assert.Equal(t, "req-9", resp.Error.RequestID)

			got := make(map[string]string, len(resp.Error.Fields))
			for _, f := range resp.Error.Fields {
				got[f.Field] = f.Message
			}
			assert.Equal(t, tt.fields, got)
		})
	}

	t.Run("valid body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/test",
			strings.NewReader(`{"client_ref":"ACME","currency":"USD","lines":[{"product_key":"SKU1"}]}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		bindRouter().ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestFieldMessage(t *testing.T) {
	type input struct {
		Len   string   `validate:"len=5"`
		UUID  string   `validate:"uuid"`
		OneOf string   `validate:"oneof=a b c"`
		GTE   int      `validate:"gte=10"`
		URL   string   `validate:"url"`
		Tags  []string `validate:"max=1"`
	}

	err := validator.New().Struct(input{Len: "ab", UUID: "x", OneOf: "d", GTE: 1, URL: "nope", Tags: []string{"a", "b"}})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)

	got := make(map[string]string)
	for _, e := range verrs {
		got[e.Field()] = fieldMessage(e)
	}
	assert.Equal(t, map[string]string{
		"Len":   "Must be exactly 5 characters",
		"UUID":  "Invalid UUID format",
		"OneOf": "Must be one of: a b c",
		"GTE":   "Must be greater than or equal to 10",
		"URL":   "Invalid URL format",
		"Tags":  "Must contain at most 1 items",
	}, got)
}
