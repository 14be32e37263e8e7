package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/marc-importer/internal/core/domain"
)

func TestNewListener_DefaultRate(t *testing.T) {
	l := NewListener(&mockListenDir{}, &mockLoader{}, "estc", 0)

	assert.InDelta(t, 1.0, float64(l.limiter.Limit()), 0.001)
}

func TestListener_LoadsAndArchives(t *testing.T) {
	dir := &mockListenDir{events: make(chan string, 3)}
	loader := &mockLoader{}
	l := NewListener(dir, loader, "estc", 6000)

	dir.events <- "/listen/a.mrc"
	dir.events <- "/listen/b.mrc"
	close(dir.events)

	err := l.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"/listen/a.mrc", "/listen/b.mrc"}, dir.archivedPaths())
	assert.Equal(t, 2, l.Loaded())
	require.Len(t, loader.requests, 2)
	assert.Equal(t, "estc", loader.requests[0].InstitutionCode)
}

func TestListener_OpenFailureLeavesFile(t *testing.T) {
	dir := &mockListenDir{events: make(chan string, 2)}
	loader := &mockLoader{errs: map[string]error{
		"/listen/bad.mrc": fmt.Errorf("%w: permission denied", domain.ErrSourceOpen),
	}}
	l := NewListener(dir, loader, "estc", 6000)

	dir.events <- "/listen/bad.mrc"
	dir.events <- "/listen/good.mrc"
	close(dir.events)

	require.NoError(t, l.Run(context.Background()))

	assert.Equal(t, []string{"/listen/good.mrc"}, dir.archivedPaths())
	assert.Equal(t, 1, l.Loaded())
}

func TestListener_StopsOnCancel(t *testing.T) {
	dir := &mockListenDir{events: make(chan string)}
	l := NewListener(dir, &mockLoader{}, "estc", 60)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not stop")
	}
}

func TestListener_EventsError(t *testing.T) {
	dir := &mockListenDir{eventErr: errors.New("no such directory")}
	l := NewListener(dir, &mockLoader{}, "estc", 60)

	err := l.Run(context.Background())

	assert.EqualError(t, err, "no such directory")
}
