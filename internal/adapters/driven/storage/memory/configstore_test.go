package memory

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore(t *testing.T) {
	store := NewConfigStore()
	require.NotNil(t, store)
	assert.Equal(t, ":memory:", store.Path())
	assert.NoError(t, store.Load())
	assert.NoError(t, store.Save())
}

func TestConfigStore_SetAndGet(t *testing.T) {
	store := NewConfigStore()

	require.NoError(t, store.Set("store.batch_size", 50))
	require.NoError(t, store.Set("store.batch_size", 200))

	val, ok := store.Get("store.batch_size")
	assert.True(t, ok)
	assert.Equal(t, 200, val)

	_, ok = store.Get("missing")
	assert.False(t, ok)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := NewConfigStore()
	_ = store.Set("str", "text")
	_ = store.Set("int", 7)
	_ = store.Set("int64", int64(8))
	_ = store.Set("float", 9.0)
	_ = store.Set("bool", true)

	assert.Equal(t, "text", store.GetString("str"))
	assert.Equal(t, "", store.GetString("int"))
	assert.Equal(t, 7, store.GetInt("int"))
	assert.Equal(t, 8, store.GetInt("int64"))
	assert.Equal(t, 9, store.GetInt("float"))
	assert.Equal(t, 0, store.GetInt("str"))
	assert.True(t, store.GetBool("bool"))
	assert.False(t, store.GetBool("str"))
	assert.False(t, store.GetBool("missing"))
}

func TestConfigStore_GetDuration(t *testing.T) {
	store := NewConfigStore()

	tests := []struct {
		name  string
		value any
		want  time.Duration
	}{
		{"duration", 3 * time.Second, 3 * time.Second},
		{"string", "5m", 5 * time.Minute},
		{"bad string", "soon", 0},
		{"int seconds", 30, 30 * time.Second},
		{"int64 seconds", int64(2), 2 * time.Second},
		{"other", true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, store.Set("tasks.retention", tt.value))
			assert.Equal(t, tt.want, store.GetDuration("tasks.retention"))
		})
	}
	assert.Equal(t, time.Duration(0), store.GetDuration("missing"))
}

func TestConfigStore_ConcurrentAccess(t *testing.T) {
	store := NewConfigStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			_ = store.Set("tasks.workers", n)
		}(i)
		go func() {
			defer wg.Done()
			_ = store.GetInt("tasks.workers")
		}()
	}
	wg.Wait()

	_, ok := store.Get("tasks.workers")
	assert.True(t, ok)
}
