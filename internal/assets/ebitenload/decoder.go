// Package ebitenload turns fetched asset bytes into ebiten images, audio
// players and text faces.
package ebitenload

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	stlog "log/slog"
	"path"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/audio/mp3"
	"github.com/hajimehoshi/ebiten/v2/audio/vorbis"
	"github.com/hajimehoshi/ebiten/v2/audio/wav"
	"github.com/hajimehoshi/ebiten/v2/text/v2"

	"github.com/sandruandrei/SGDemo/internal/assets"
)

const (
	// SampleRate is the rate every clip is resampled to.
	SampleRate = 44100

	svgScale = 1.0
)

// FontFace is a registered TTF/OTF face source.
type FontFace struct {
	family string
	Source *text.GoTextFaceSource
}

// Family returns the key the font was registered under.
func (f *FontFace) Family() string { return f.family }

// Decoder implements assets.Decoder on top of ebiten.
type Decoder struct {
	audio  *audio.Context
	logger *stlog.Logger
}

// NewDecoder returns a decoder bound to the process-wide audio context,
// creating it on first use.
func NewDecoder(logger *stlog.Logger) *Decoder {
	if logger == nil {
		logger = stlog.Default()
	}
	ctx := audio.CurrentContext()
	if ctx == nil {
		ctx = audio.NewContext(SampleRate)
	}
	return &Decoder{audio: ctx, logger: logger.With("component", "ebitenload")}
}

// DecodeTexture decodes a PNG, JPEG or GIF into an ebiten image.
func (d *Decoder) DecodeTexture(location string, data []byte) (assets.Texture, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", location, err)
	}
	d.logger.Debug("Decoded image", "location", location, "format", format, "bounds", img.Bounds())
	return ebiten.NewImageFromImage(img), nil
}

// DecodeSVG rasterizes an SVG at its natural size.
func (d *Decoder) DecodeSVG(location string, data []byte) (assets.Texture, error) {
	img, err := assets.RasterizeSVG(data, svgScale)
	if err != nil {
		return nil, fmt.Errorf("failed to rasterize %s: %w", location, err)
	}
	return ebiten.NewImageFromImage(img), nil
}

// DecodeAudio decodes an MP3, Ogg Vorbis or WAV clip into a player. The
// format is picked from the file extension.
func (d *Decoder) DecodeAudio(location string, data []byte) (assets.Sound, error) {
	var (
		stream io.Reader
		err    error
	)
	src := bytes.NewReader(data)
	switch ext := strings.ToLower(path.Ext(location)); ext {
	case ".mp3":
		stream, err = mp3.DecodeWithSampleRate(SampleRate, src)
	case ".ogg", ".oga":
		stream, err = vorbis.DecodeWithSampleRate(SampleRate, src)
	case ".wav":
		stream, err = wav.DecodeWithSampleRate(SampleRate, src)
	default:
		return nil, fmt.Errorf("unsupported audio format %q for %s", ext, location)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode audio %s: %w", location, err)
	}

	player, err := d.audio.NewPlayer(stream)
	if err != nil {
		return nil, fmt.Errorf("failed to create player for %s: %w", location, err)
	}
	return player, nil
}

// DecodeFont registers a TTF/OTF face source under family.
func (d *Decoder) DecodeFont(family string, data []byte) (assets.Font, error) {
	src, err := text.NewGoTextFaceSource(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to load font %s: %w", family, err)
	}
	d.logger.Debug("Registered font", "family", family, "face", src.Metadata().Family)
	return &FontFace{family: family, Source: src}, nil
}
