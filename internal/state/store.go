// internal/state/store.go
package state

import (
	"context"
	"encoding/json"
	"fmt"
)

// Persistence keys. The names match the blobs written by earlier browser
// versions so exported data can be imported unchanged.
const (
	KeyTracks    = "musicPlayerSongs"
	KeyPlaylists = "musicPlayerPlaylists"
	KeyHistory   = "musicPlayerHistory"
	KeyVolume    = "musicPlayerVolume"
)

// Store persists opaque blobs under string keys. Each Save replaces the
// whole blob; SaveBatch replaces several blobs atomically.
type Store interface {
	// Load returns the blob stored under key. ok is false if the key is absent.
	Load(ctx context.Context, key string) (data []byte, ok bool, err error)
	Save(ctx context.Context, key string, data []byte) error
	SaveBatch(ctx context.Context, blobs map[string][]byte) error
	Close() error
}

// LoadJSON decodes the blob under key into v.
// It returns false without touching v when the key is absent.
func LoadJSON(ctx context.Context, s Store, key string, v any) (bool, error) {
	data, ok, err := s.Load(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// SaveJSON encodes v and stores it under key.
func SaveJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Save(ctx, key, data)
}

// Batch collects JSON blobs for a single SaveBatch call.
type Batch map[string][]byte

// Put encodes v under key.
func (b Batch) Put(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	b[key] = data
	return nil
}
