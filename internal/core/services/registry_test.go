package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tm "github.com/rmraya/swordfish-core/internal/adapters/driven/engine/memory"
	"github.com/rmraya/swordfish-core/internal/core/domain"
)

// failingEngine is a memory engine whose Close fails.
type failingEngine struct {
	*tm.Engine
	closeErr error
}

func (e *failingEngine) Close() error {
	return e.closeErr
}

func TestEngineRegistry_RegisterAndGet(t *testing.T) {
	r := NewEngineRegistry()
	mem := tm.New("memory")

	require.NoError(t, r.Register("mem", mem))
	got, err := r.Get("mem")
	require.NoError(t, err)
	assert.Same(t, mem, got)

	_, err = r.Get("missing")
	assert.ErrorIs(t, err, domain.ErrEngineUnavailable)
}

func TestEngineRegistry_RegisterInvalid(t *testing.T) {
	r := NewEngineRegistry()
	require.NoError(t, r.Register("mem", tm.New("memory")))

	assert.ErrorIs(t, r.Register("", tm.New("x")), domain.ErrInvalidInput)
	assert.ErrorIs(t, r.Register("nil", nil), domain.ErrInvalidInput)
	assert.ErrorIs(t, r.Register("mem", tm.New("again")), domain.ErrInvalidInput)
}

func TestEngineRegistry_IDsSorted(t *testing.T) {
	r := NewEngineRegistry()
	for _, id := range []string{"glossary", "alpha", "memory"} {
		require.NoError(t, r.Register(id, tm.New(id)))
	}
	assert.Equal(t, []string{"alpha", "glossary", "memory"}, r.IDs())
}

func TestEngineRegistry_Close(t *testing.T) {
	r := NewEngineRegistry()
	mem := tm.New("memory")
	require.NoError(t, r.Register("mem", mem))

	require.NoError(t, r.Close("mem"))
	_, err := r.Get("mem")
	assert.ErrorIs(t, err, domain.ErrEngineUnavailable)

	_, err = mem.SearchExact(context.Background(), "x", "en", "es")
	assert.ErrorIs(t, err, domain.ErrEngineUnavailable)

	assert.ErrorIs(t, r.Close("mem"), domain.ErrNotFound)
}

func TestEngineRegistry_CloseAllJoinsErrors(t *testing.T) {
	r := NewEngineRegistry()
	boom := errors.New("disk full")
	require.NoError(t, r.Register("ok", tm.New("ok")))
	require.NoError(t, r.Register("bad", &failingEngine{Engine: tm.New("bad"), closeErr: boom}))

	err := r.CloseAll()
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, r.IDs())
}
