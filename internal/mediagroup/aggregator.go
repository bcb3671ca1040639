// Package mediagroup reassembles Telegram photo albums. The wizard
// takes its three inputs (reference, logo, product) as one album, but
// Telegram delivers album photos as separate updates, so arrivals are
// debounced per album before the handler sees them as a whole.
package mediagroup

import (
	"fmt"
	"sync"
	"time"
)

type Item struct {
	ChatID       int64
	UserID       int64
	Username     string
	MediaGroupID string
	Caption      string
	FileID       string
}

type Album struct {
	ChatID   int64
	UserID   int64
	Username string
	Caption  string
	FileIDs  []string
}

type Options struct {
	Debounce time.Duration
	OnFlush  func(Album)
}

type Aggregator struct {
	mu       sync.Mutex
	debounce time.Duration
	onFlush  func(Album)
	pending  map[string]*pendingAlbum
}

type pendingAlbum struct {
	album Album
	timer *time.Timer
}

func New(opts Options) *Aggregator {
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = 1200 * time.Millisecond
	}

	return &Aggregator{
		debounce: debounce,
		onFlush:  opts.OnFlush,
		pending:  make(map[string]*pendingAlbum),
	}
}

// Add records one photo of an album and (re)arms the flush timer. The
// album caption is whichever photo carried one; FileIDs keep arrival
// order, which is the upload order of reference, logo, product.
func (a *Aggregator) Add(item Item) {
	if item.MediaGroupID == "" || item.FileID == "" {
		return
	}

	key := makeKey(item.ChatID, item.MediaGroupID)

	a.mu.Lock()
	defer a.mu.Unlock()

	pa, ok := a.pending[key]
	if !ok {
		pa = &pendingAlbum{
			album: Album{
				ChatID:   item.ChatID,
				UserID:   item.UserID,
				Username: item.Username,
				Caption:  item.Caption,
				FileIDs:  []string{item.FileID},
			},
		}
		a.pending[key] = pa
	} else {
		pa.album.FileIDs = append(pa.album.FileIDs, item.FileID)
		if item.Caption != "" {
			pa.album.Caption = item.Caption
		}
	}

	if pa.timer != nil {
		pa.timer.Stop()
	}
	pa.timer = time.AfterFunc(a.debounce, func() {
		a.flush(key)
	})
}

func (a *Aggregator) flush(key string) {
	a.mu.Lock()
	pa, ok := a.pending[key]
	if !ok {
		a.mu.Unlock()
		return
	}
	delete(a.pending, key)
	album := pa.album
	onFlush := a.onFlush
	a.mu.Unlock()

	if onFlush != nil {
		onFlush(album)
	}
}

func makeKey(chatID int64, mediaGroupID string) string {
	return fmt.Sprintf("%d:%s", chatID, mediaGroupID)
}
