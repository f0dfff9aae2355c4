package showcase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandruandrei/SGDemo/internal/assets"
	"github.com/sandruandrei/SGDemo/internal/signals"
)

type fakeSound struct {
	volume   float64
	playing  bool
	position time.Duration
}

func (s *fakeSound) Play()               { s.playing = true }
func (s *fakeSound) Pause()              { s.playing = false }
func (s *fakeSound) IsPlaying() bool     { return s.playing }
func (s *fakeSound) SetVolume(v float64) { s.volume = v }
func (s *fakeSound) SetPosition(d time.Duration) error {
	s.position = d
	return nil
}

type fakeAudio map[string]*fakeSound

func (a fakeAudio) LoadedAudioKeys() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	return keys
}

func (a fakeAudio) Audio(key string) (assets.Sound, bool) {
	s, ok := a[key]
	if !ok {
		return nil, false
	}
	return s, true
}

func newSoundHarness(t *testing.T) (*signals.Bus, fakeAudio, *SoundModule) {
	t.Helper()
	bus := signals.NewBus(discardLogger)
	audio := fakeAudio{"game1": {}, "game2": {}, "game3": {}}
	s := NewSoundModule(bus, audio, discardLogger)
	bus.Emit(context.Background(), signals.AuthComplete{UserID: "RandomUser"})
	return bus, audio, s
}

func TestSoundsRegisterOnAuthComplete(t *testing.T) {
	_, audio, s := newSoundHarness(t)

	require.NoError(t, s.Play("game2"))
	assert.True(t, audio["game2"].playing)
	assert.Equal(t, 1.0, audio["game2"].volume)
	assert.Equal(t, "game2", s.Current())

	require.NoError(t, s.Stop("game2"))
	assert.False(t, audio["game2"].playing)
	assert.Empty(t, s.Current())

	assert.ErrorIs(t, s.Play("missing"), ErrUnknownSound)
	assert.ErrorIs(t, s.Stop("missing"), ErrUnknownSound)
}

func TestCurrentIsEmptyOnceTheClipEnds(t *testing.T) {
	_, audio, s := newSoundHarness(t)

	require.NoError(t, s.Play("game3"))
	require.Equal(t, "game3", s.Current())

	audio["game3"].playing = false
	assert.Empty(t, s.Current())
}

func TestSoundToggleMutesEverything(t *testing.T) {
	bus, audio, s := newSoundHarness(t)

	bus.Emit(context.Background(), signals.SoundToggle{Enabled: false})
	assert.False(t, s.Enabled())
	for _, sound := range audio {
		assert.Zero(t, sound.volume)
	}

	require.NoError(t, s.Play("game1"))
	assert.Zero(t, audio["game1"].volume)

	bus.Emit(context.Background(), signals.SoundToggle{Enabled: true})
	assert.Equal(t, 1.0, audio["game1"].volume)
}

func TestMasterVolumeIsClamped(t *testing.T) {
	_, audio, s := newSoundHarness(t)

	s.SetMasterVolume(2)
	assert.Equal(t, 1.0, s.MasterVolume())

	s.SetMasterVolume(-0.5)
	assert.Zero(t, s.MasterVolume())
	assert.Zero(t, audio["game3"].volume)

	s.SetMasterVolume(0.25)
	assert.Equal(t, 0.25, audio["game3"].volume)
}

func TestGameChangeSwapsMusic(t *testing.T) {
	bus, audio, s := newSoundHarness(t)

	bus.Emit(context.Background(), signals.GameChanged{Game: AceOfShadows})
	assert.True(t, audio["game1"].playing)

	bus.Emit(context.Background(), signals.GameChanged{Game: MagicWords})
	assert.False(t, audio["game1"].playing)
	assert.True(t, audio["game2"].playing)
	assert.Equal(t, "game2", s.Current())
}

func TestGameChangeWithoutLoadedMusic(t *testing.T) {
	bus := signals.NewBus(discardLogger)
	s := NewSoundModule(bus, fakeAudio{}, discardLogger)
	bus.Emit(context.Background(), signals.AuthComplete{})

	bus.Emit(context.Background(), signals.GameChanged{Game: PhoenixFlame})
	assert.Empty(t, s.Current())
}
