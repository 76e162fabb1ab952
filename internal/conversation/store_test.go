package conversation_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medchat/internal/conversation"
	"medchat/internal/model"
)

func TestStore_AppendKeepsOrder(t *testing.T) {
	store := conversation.NewStore()
	assert.Empty(t, store.All())

	store.Append(model.Turn{Role: model.RoleUser, Content: "first"})
	store.Append(model.Turn{Role: model.RoleAssistant, Content: "second"})
	store.Append(model.Turn{Role: model.RoleUser, Content: "third"})

	turns := store.All()
	require.Len(t, turns, 3)
	assert.Equal(t, "first", turns[0].Content)
	assert.Equal(t, "second", turns[1].Content)
	assert.Equal(t, "third", turns[2].Content)
	assert.Equal(t, 3, store.Len())
}

// The snapshot returned by All must not be a window into the store's backing array.
func TestStore_AllReturnsSnapshot(t *testing.T) {
	store := conversation.NewStore()
	store.Append(model.Turn{Role: model.RoleUser, Content: "original"})

	snapshot := store.All()
	snapshot[0].Content = "tampered"
	store.Append(model.Turn{Role: model.RoleAssistant, Content: "answer"})

	assert.Len(t, snapshot, 1)
	assert.Equal(t, "original", store.All()[0].Content)
}

func TestStore_ConcurrentReadWhileAppending(t *testing.T) {
	store := conversation.NewStore()
	const n = 200

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			store.Append(model.Turn{Role: model.RoleUser, Content: fmt.Sprintf("turn-%d", i)})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			for j, turn := range store.All() {
				// Every visible turn is complete and in position.
				assert.Equal(t, fmt.Sprintf("turn-%d", j), turn.Content)
			}
		}
	}()
	wg.Wait()

	assert.Equal(t, n, store.Len())
}
