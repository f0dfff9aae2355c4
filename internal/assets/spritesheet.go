package assets

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"sort"

	"github.com/goccy/go-json"
)

// Spritesheet is a texture atlas: one page texture cut into named frames.
type Spritesheet struct {
	Image   string
	Texture Texture
	Frames  map[string]Frame
}

// Frame is one named region of a spritesheet.
type Frame struct {
	Rect       image.Rectangle
	Rotated    bool
	Trimmed    bool
	SourceSize image.Point
}

// Frame returns the frame called name.
func (s *Spritesheet) Frame(name string) (Frame, bool) {
	f, ok := s.Frames[name]
	return f, ok
}

// FrameNames returns the frame names in lexical order, which is how
// animation sequences such as walk_00..walk_07 are laid out.
func (s *Spritesheet) FrameNames() []string {
	names := make([]string, 0, len(s.Frames))
	for name := range s.Frames {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type atlasRect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

type atlasFrame struct {
	Filename   string    `json:"filename"`
	Frame      atlasRect `json:"frame"`
	Rotated    bool      `json:"rotated"`
	Trimmed    bool      `json:"trimmed"`
	SourceSize struct {
		W int `json:"w"`
		H int `json:"h"`
	} `json:"sourceSize"`
}

type atlasDoc struct {
	Frames json.RawMessage `json:"frames"`
	Meta   struct {
		Image string `json:"image"`
	} `json:"meta"`
}

// ParseSpritesheet decodes a TexturePacker atlas in either the JSON-hash or
// the JSON-array layout. The page texture is left empty.
func ParseSpritesheet(data []byte) (*Spritesheet, error) {
	var doc atlasDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode spritesheet: %w", err)
	}
	if doc.Meta.Image == "" {
		return nil, errors.New("spritesheet has no meta.image")
	}

	var frames []atlasFrame
	raw := bytes.TrimSpace(doc.Frames)
	switch {
	case len(raw) == 0:
	case raw[0] == '[':
		if err := json.Unmarshal(raw, &frames); err != nil {
			return nil, fmt.Errorf("failed to decode spritesheet frames: %w", err)
		}
	default:
		var byName map[string]atlasFrame
		if err := json.Unmarshal(raw, &byName); err != nil {
			return nil, fmt.Errorf("failed to decode spritesheet frames: %w", err)
		}
		for name, f := range byName {
			f.Filename = name
			frames = append(frames, f)
		}
	}

	sheet := &Spritesheet{
		Image:  doc.Meta.Image,
		Frames: make(map[string]Frame, len(frames)),
	}
	for _, f := range frames {
		if f.Filename == "" {
			return nil, errors.New("spritesheet frame without a name")
		}
		sheet.Frames[f.Filename] = Frame{
			Rect:       image.Rect(f.Frame.X, f.Frame.Y, f.Frame.X+f.Frame.W, f.Frame.Y+f.Frame.H),
			Rotated:    f.Rotated,
			Trimmed:    f.Trimmed,
			SourceSize: image.Pt(f.SourceSize.W, f.SourceSize.H),
		}
	}
	return sheet, nil
}
