package assets

import (
	"errors"
	"image"
	"time"
)

// ErrAssetNotFound is returned by getters for keys that never loaded.
var ErrAssetNotFound = errors.New("asset not found")

// LoadError is returned by Loader.Start when a load pass fails.
type LoadError struct {
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	return e.Message + ": " + e.Err.Error()
}

func (e *LoadError) Unwrap() error { return e.Err }

// Texture is a decoded image ready for drawing. *ebiten.Image satisfies it.
type Texture interface {
	Bounds() image.Rectangle
}

// Sound is a decoded, ready-to-play audio clip. *audio.Player satisfies it.
type Sound interface {
	Play()
	Pause()
	IsPlaying() bool
	SetVolume(volume float64)
	SetPosition(offset time.Duration) error
}

// Font is a registered TTF/OTF font family.
type Font interface {
	Family() string
}

// Decoder turns fetched bytes into usable handles. The ebitenload package
// provides the production implementation.
type Decoder interface {
	DecodeTexture(location string, data []byte) (Texture, error)
	DecodeSVG(location string, data []byte) (Texture, error)
	DecodeAudio(location string, data []byte) (Sound, error)
	DecodeFont(family string, data []byte) (Font, error)
}
