package registry

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.TrackAssistant(ctx, "asst_1"))
	require.NoError(t, store.TrackThread(ctx, "asst_1", "thread_b"))
	require.NoError(t, store.TrackThread(ctx, "asst_1", "thread_a"))
	require.NoError(t, store.TrackThread(ctx, "asst_2", "thread_c"))

	assistants, err := store.Assistants(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"asst_1", "asst_2"}, assistants)

	threads, err := store.Threads(ctx, "asst_1")
	require.NoError(t, err)
	assert.Equal(t, []string{"thread_a", "thread_b"}, threads)

	require.NoError(t, store.UntrackThread(ctx, "asst_1", "thread_a"))
	require.NoError(t, store.UntrackThread(ctx, "missing", "thread_a"))
	threads, _ = store.Threads(ctx, "asst_1")
	assert.Equal(t, []string{"thread_b"}, threads)

	require.NoError(t, store.UntrackAssistant(ctx, "asst_1"))
	threads, _ = store.Threads(ctx, "asst_1")
	assert.Empty(t, threads)
	assistants, _ = store.Assistants(ctx)
	assert.Equal(t, []string{"asst_2"}, assistants)
}

func TestMemoryStoreConcurrent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = store.TrackThread(ctx, "asst", string(rune('a'+i%26))+"-thread")
		}(i)
	}
	wg.Wait()

	threads, err := store.Threads(ctx, "asst")
	require.NoError(t, err)
	assert.Len(t, threads, 26)
}

func TestNewServiceWithoutRedis(t *testing.T) {
	_, ok := NewService(nil, "test").(*MemoryStore)
	assert.True(t, ok, "nil redis service should fall back to memory")
}

func TestRedisStoreKeys(t *testing.T) {
	tests := []struct {
		namespace  string
		assistants string
		threads    string
	}{
		{"assistkit", "assistkit:Assistants", "assistkit:Assistant:asst_1:threads"},
		{"worker-2", "worker-2:Assistants", "worker-2:Assistant:asst_1:threads"},
		{"", "Assistants", "Assistant:asst_1:threads"},
	}

	for _, tt := range tests {
		t.Run(tt.namespace, func(t *testing.T) {
			store := NewRedisStore(nil, tt.namespace)
			assert.Equal(t, tt.assistants, store.assistantsKey())
			assert.Equal(t, tt.threads, store.threadsKey("asst_1"))
		})
	}
}
