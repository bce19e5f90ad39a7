package yahoo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/quantfolio/quantfolio/internal/marketdata"
)

// snapshotEntry is one persisted cache entry. Exactly one of History and
// Info is set, matching the entry's key class.
type snapshotEntry struct {
	Key       string       `msgpack:"key"`
	StoredAt  time.Time    `msgpack:"stored_at"`
	ExpiresAt time.Time    `msgpack:"expires_at"`
	History   []PricePoint `msgpack:"history,omitempty"`
	Info      *InfoRecord  `msgpack:"info,omitempty"`
}

type snapshotFile struct {
	SavedAt time.Time       `msgpack:"saved_at"`
	Entries []snapshotEntry `msgpack:"entries"`
}

// Snapshotter persists the market data caches to disk so a restart can warm
// the stale-fallback path without refetching.
type Snapshotter struct {
	path   string
	quotes *marketdata.TTLCache
	data   *marketdata.TTLCache
	log    zerolog.Logger
}

func NewSnapshotter(path string, quotes, data *marketdata.TTLCache, log zerolog.Logger) *Snapshotter {
	return &Snapshotter{
		path:   path,
		quotes: quotes,
		data:   data,
		log:    log.With().Str("component", "snapshot").Logger(),
	}
}

// Save writes the current contents of both caches. Entries holding types
// other than the client's own are skipped. The file is written atomically.
func (s *Snapshotter) Save() error {
	file := snapshotFile{SavedAt: time.Now().UTC()}

	for _, caches := range []*marketdata.TTLCache{s.quotes, s.data} {
		for _, item := range caches.Items() {
			entry := snapshotEntry{
				Key:       item.Key,
				StoredAt:  item.StoredAt,
				ExpiresAt: item.ExpiresAt,
			}
			switch v := item.Value.(type) {
			case []PricePoint:
				entry.History = v
			case *InfoRecord:
				entry.Info = v
			default:
				continue
			}
			file.Entries = append(file.Entries, entry)
		}
	}

	payload, err := msgpack.Marshal(&file)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating snapshot directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing snapshot: %w", err)
	}

	s.log.Info().Int("entries", len(file.Entries)).Str("path", s.path).Msg("Snapshot saved")
	return nil
}

// Load restores a previously saved snapshot into the caches. Entries keep
// their original timestamps, so anything past its TTL is only reachable
// through the stale path. A missing file is not an error.
func (s *Snapshotter) Load() error {
	payload, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading snapshot: %w", err)
	}

	var file snapshotFile
	if err := msgpack.Unmarshal(payload, &file); err != nil {
		return fmt.Errorf("decoding snapshot: %w", err)
	}

	restored := 0
	for _, entry := range file.Entries {
		switch {
		case entry.History != nil:
			s.data.Restore(entry.Key, entry.History, entry.StoredAt, entry.ExpiresAt)
		case entry.Info != nil:
			s.cacheFor(entry.Key).Restore(entry.Key, entry.Info, entry.StoredAt, entry.ExpiresAt)
		default:
			continue
		}
		restored++
	}

	s.log.Info().
		Int("entries", restored).
		Time("saved_at", file.SavedAt).
		Msg("Snapshot restored")
	return nil
}

func (s *Snapshotter) cacheFor(key string) *marketdata.TTLCache {
	if strings.HasPrefix(key, "history:") {
		return s.data
	}
	return s.quotes
}
