package mediagroup

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectAlbums() (*Aggregator, func() []Album) {
	var mu sync.Mutex
	var albums []Album

	ag := New(Options{
		Debounce: 20 * time.Millisecond,
		OnFlush: func(a Album) {
			mu.Lock()
			albums = append(albums, a)
			mu.Unlock()
		},
	})

	return ag, func() []Album {
		mu.Lock()
		defer mu.Unlock()
		out := make([]Album, len(albums))
		copy(out, albums)
		return out
	}
}

func TestAggregatorFlushesWholeAlbum(t *testing.T) {
	ag, albums := collectAlbums()

	for i, fileID := range []string{"ref", "logo", "product"} {
		caption := ""
		if i == 0 {
			caption = "campaign text"
		}
		ag.Add(Item{
			ChatID:       7,
			UserID:       9,
			MediaGroupID: "g1",
			Caption:      caption,
			FileID:       fileID,
		})
	}

	require.Eventually(t, func() bool { return len(albums()) == 1 }, time.Second, 5*time.Millisecond)

	got := albums()[0]
	assert.Equal(t, int64(7), got.ChatID)
	assert.Equal(t, "campaign text", got.Caption)
	assert.Equal(t, []string{"ref", "logo", "product"}, got.FileIDs)
}

func TestAggregatorKeepsAlbumsApart(t *testing.T) {
	ag, albums := collectAlbums()

	ag.Add(Item{ChatID: 1, MediaGroupID: "a", FileID: "a1"})
	ag.Add(Item{ChatID: 2, MediaGroupID: "a", FileID: "b1"})

	require.Eventually(t, func() bool { return len(albums()) == 2 }, time.Second, 5*time.Millisecond)
}

func TestAggregatorIgnoresIncompleteItems(t *testing.T) {
	ag, albums := collectAlbums()

	ag.Add(Item{ChatID: 1, MediaGroupID: "", FileID: "x"})
	ag.Add(Item{ChatID: 1, MediaGroupID: "g", FileID: ""})

	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, albums())
}
