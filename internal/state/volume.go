package state

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const saveDebounce = 500 * time.Millisecond

// VolumeState represents the saved volume state.
type VolumeState struct {
	Level int  `json:"level"`
	Muted bool `json:"muted"`
}

// GetVolume returns the saved volume state, or nil if none was saved.
func GetVolume(ctx context.Context, s Store) (*VolumeState, error) {
	var v VolumeState
	ok, err := LoadJSON(ctx, s, KeyVolume, &v)
	if err != nil || !ok {
		return nil, err
	}
	return &v, nil
}

// VolumeSaver coalesces rapid volume changes (slider drags) into one write.
type VolumeSaver struct {
	store  Store
	logger *zap.Logger

	saveMu    sync.Mutex
	saveTimer *time.Timer
	pending   *VolumeState
}

// NewVolumeSaver creates a saver writing to store.
func NewVolumeSaver(store Store, logger *zap.Logger) *VolumeSaver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VolumeSaver{store: store, logger: logger}
}

// Save schedules v to be written once changes settle.
func (s *VolumeSaver) Save(v VolumeState) {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.pending = &v

	if s.saveTimer != nil {
		s.saveTimer.Stop()
	}

	s.saveTimer = time.AfterFunc(saveDebounce, s.flush)
}

// Close stops the timer and writes any pending state.
func (s *VolumeSaver) Close() {
	s.saveMu.Lock()
	if s.saveTimer != nil {
		s.saveTimer.Stop()
	}
	s.saveMu.Unlock()

	s.flush()
}

func (s *VolumeSaver) flush() {
	s.saveMu.Lock()
	pending := s.pending
	s.pending = nil
	s.saveMu.Unlock()

	if pending == nil {
		return
	}
	if err := SaveJSON(context.Background(), s.store, KeyVolume, pending); err != nil {
		s.logger.Error("save volume", zap.Error(err))
	}
}
