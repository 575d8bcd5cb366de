package main

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/catalog"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/infrastructure/event"
	"github.com/google/uuid"
	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// lockedBuffer lets the test read output while the tail goroutine writes it
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestEventsFollowsRelayedEvents(t *testing.T) {
	ns, err := server.NewServer(&server.Options{Port: -1, NoLog: true, NoSigs: true})
	require.NoError(t, err)
	go ns.Start()
	require.True(t, ns.ReadyForConnections(5*time.Second))
	t.Cleanup(ns.Shutdown)

	conn, err := nats.Connect(ns.ClientURL())
	require.NoError(t, err)
	t.Cleanup(conn.Close)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out := &lockedBuffer{}
	cmd := newEventsCmd()
	cmd.SetOut(out)
	cmd.SetContext(ctx)

	done := make(chan error, 1)
	go func() {
		done <- followEvents(cmd, conn, eventsOptions{prefix: event.DefaultSubjectPrefix, raw: true})
	}()

	entry, err := catalog.NewCatalogEntry("SKU1", map[string]string{"price": "10.00"}, nil, uuid.New(), 1)
	require.NoError(t, err)
	forwarder := event.NewNATSForwarder(conn, "", zap.NewNop())
	ev := catalog.NewEntryApprovedEvent(entry)

	require.Eventually(t, func() bool {
		_ = forwarder.Forward(context.Background(), ev)
		return bytes.Contains([]byte(out.String()), []byte(catalog.EventTypeEntryApproved))
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.Contains(t, out.String(), entry.ID.String())
	assert.Contains(t, out.String(), `"key":"SKU1"`)
}

func TestPrintEvent_Unknown(t *testing.T) {
	var out bytes.Buffer
	env := &event.Envelope{Type: "PriceListArchived", AggregateType: "PriceList", OccurredAt: time.Now()}

	printEvent(&out, "flowsales.PriceListArchived", env, nil, nil, false)
	assert.Contains(t, out.String(), "PriceListArchived")
	assert.Contains(t, out.String(), "unknown event type")
}
