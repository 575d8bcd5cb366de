package handler

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedSystemHandler(started time.Time, elapsed time.Duration) *SystemHandler {
	h := NewSystemHandler()
	h.started = started
	h.version = "1.4.2"
	h.now = func() time.Time { return started.Add(elapsed) }
	return h
}

func TestSystemHandler_GetSystemInfo(t *testing.T) {
	started := time.Date(2026, 1, 23, 12, 0, 0, 0, time.UTC)
	h := fixedSystemHandler(started, 90*time.Minute+450*time.Millisecond).
		AddCheck("staging", func(context.Context) error { return nil }).
		AddCheck("database", func(context.Context) error { return nil })

	c, w := testContext("")
	h.GetSystemInfo(c)

	resp := decodeResponse(t, w)
	require.True(t, resp.Success)
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var info SystemInfoResponse
	require.NoError(t, json.Unmarshal(raw, &info))

	assert.Equal(t, ServiceName, info.Name)
	assert.Equal(t, "1.4.2", info.Version)
	assert.NotEmpty(t, info.GoVersion)
	assert.True(t, started.Equal(info.StartedAt))
	assert.Equal(t, "1h30m0s", info.Uptime)
	assert.Equal(t, []string{"database", "staging"}, info.Checks)
}

func TestSystemHandler_Ping(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	h := fixedSystemHandler(now, 0)

	c, w := testContext("")
	h.Ping(c)

	resp := decodeResponse(t, w)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "pong", data["message"])
	assert.Equal(t, "2026-03-01T09:30:00Z", data["time"])
}

func TestSystemHandler_Health(t *testing.T) {
	up := func(context.Context) error { return nil }

	tests := []struct {
		name       string
		checks     map[string]HealthCheck
		wantCode   int
		wantStatus string
		wantChecks map[string]string
	}{
		{
			name:       "no probes",
			wantCode:   200,
			wantStatus: "healthy",
			wantChecks: map[string]string{},
		},
		{
			name:       "all probes pass",
			checks:     map[string]HealthCheck{"database": up, "staging": up},
			wantCode:   200,
			wantStatus: "healthy",
			wantChecks: map[string]string{"database": "ok", "staging": "ok"},
		},
		{
			name: "one probe fails",
			checks: map[string]HealthCheck{
				"database": func(context.Context) error { return errors.New("connection refused") },
				"staging":  up,
			},
			wantCode:   503,
			wantStatus: "unhealthy",
			wantChecks: map[string]string{"database": "error", "staging": "ok"},
		},
		{
			name: "probe sees a deadline",
			checks: map[string]HealthCheck{
				"database": func(ctx context.Context) error {
					if _, ok := ctx.Deadline(); !ok {
						return errors.New("no deadline")
					}
					return nil
				},
			},
			wantCode:   200,
			wantStatus: "healthy",
			wantChecks: map[string]string{"database": "ok"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewSystemHandler()
			for name, check := range tt.checks {
				h.AddCheck(name, check)
			}

			c, w := testContext("")
			h.Health(c)

			assert.Equal(t, tt.wantCode, w.Code)
			var resp HealthResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantStatus, resp.Status)
			assert.Equal(t, tt.wantChecks, resp.Checks)
		})
	}
}
