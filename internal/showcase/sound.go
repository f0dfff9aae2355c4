package showcase

import (
	"context"
	"errors"
	"fmt"
	stlog "log/slog"
	"sync"

	"github.com/sandruandrei/SGDemo/internal/assets"
	"github.com/sandruandrei/SGDemo/internal/signals"
)

var ErrUnknownSound = errors.New("sound not registered")

// AudioSource exposes loaded audio.
type AudioSource interface {
	LoadedAudioKeys() []string
	Audio(key string) (assets.Sound, bool)
}

// SoundModule plays the loaded audio. It registers every loaded clip once
// authentication completes, follows the sound toggle and loops the music of
// the current game.
type SoundModule struct {
	source AudioSource
	logger *stlog.Logger

	mu      sync.Mutex
	sounds  map[string]assets.Sound
	enabled bool
	master  float64
	current string
}

// NewSoundModule subscribes a sound module to bus.
func NewSoundModule(bus *signals.Bus, source AudioSource, logger *stlog.Logger) *SoundModule {
	if logger == nil {
		logger = stlog.Default()
	}
	s := &SoundModule{
		source:  source,
		logger:  logger.With("component", "sound"),
		sounds:  make(map[string]assets.Sound),
		enabled: true,
		master:  1,
	}
	signals.On(bus, s.onAuthComplete)
	signals.On(bus, s.onSoundToggle)
	signals.On(bus, s.onGameChanged)
	return s
}

func (s *SoundModule) onAuthComplete(context.Context, signals.AuthComplete) error {
	keys := s.source.LoadedAudioKeys()

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		sound, ok := s.source.Audio(key)
		if !ok {
			continue
		}
		sound.SetVolume(s.volume())
		s.sounds[key] = sound
	}
	s.logger.Info("Registered sounds", "count", len(s.sounds))
	return nil
}

func (s *SoundModule) onSoundToggle(_ context.Context, t signals.SoundToggle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = t.Enabled
	s.applyVolume()
	s.logger.Info("Sound toggled", "enabled", t.Enabled)
	return nil
}

func (s *SoundModule) onGameChanged(_ context.Context, g signals.GameChanged) error {
	game, ok := LookupGame(g.Game)
	if !ok || game.Music == "" {
		return nil
	}

	s.mu.Lock()
	previous := s.current
	s.mu.Unlock()

	if previous != "" && previous != game.Music {
		if err := s.Stop(previous); err != nil {
			return err
		}
	}
	if err := s.Play(game.Music); err != nil {
		if errors.Is(err, ErrUnknownSound) {
			s.logger.Warn("No music for game", "game", game.Name, "key", game.Music)
			return nil
		}
		return err
	}
	return nil
}

// Play starts the sound registered under key from the beginning.
func (s *SoundModule) Play(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sound, ok := s.sounds[key]
	if !ok {
		return fmt.Errorf("play %q: %w", key, ErrUnknownSound)
	}
	if err := sound.SetPosition(0); err != nil {
		return fmt.Errorf("play %q: %w", key, err)
	}
	sound.SetVolume(s.volume())
	sound.Play()
	s.current = key
	return nil
}

// Stop pauses the sound registered under key and rewinds it.
func (s *SoundModule) Stop(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sound, ok := s.sounds[key]
	if !ok {
		return fmt.Errorf("stop %q: %w", key, ErrUnknownSound)
	}
	sound.Pause()
	if s.current == key {
		s.current = ""
	}
	if err := sound.SetPosition(0); err != nil {
		return fmt.Errorf("stop %q: %w", key, err)
	}
	return nil
}

// SetMasterVolume sets the volume of every sound, clamped to [0, 1].
func (s *SoundModule) SetMasterVolume(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.master = min(max(v, 0), 1)
	s.applyVolume()
}

// MasterVolume returns the master volume.
func (s *SoundModule) MasterVolume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.master
}

// Enabled reports whether sound is on.
func (s *SoundModule) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// Current returns the key of the sound last started, if it still plays.
func (s *SoundModule) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sound, ok := s.sounds[s.current]; !ok || !sound.IsPlaying() {
		return ""
	}
	return s.current
}

func (s *SoundModule) volume() float64 {
	if !s.enabled {
		return 0
	}
	return s.master
}

func (s *SoundModule) applyVolume() {
	v := s.volume()
	for _, sound := range s.sounds {
		sound.SetVolume(v)
	}
}
