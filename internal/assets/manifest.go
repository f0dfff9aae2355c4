package assets

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
)

// Category is one class of asset with its own loading strategy.
type Category string

const (
	CategoryImages       Category = "images"
	CategorySpritesheets Category = "spritesheets"
	CategoryAudio        Category = "audio"
	CategoryVideos       Category = "videos"
	CategorySVGs         Category = "svgs"
	CategoryTTFFonts     Category = "fonts.ttf"
	CategoryBitmapFonts  Category = "fonts.bitmap"
)

// Categories lists every category in a stable order.
var Categories = []Category{
	CategoryImages,
	CategorySpritesheets,
	CategoryAudio,
	CategoryVideos,
	CategorySVGs,
	CategoryTTFFonts,
	CategoryBitmapFonts,
}

// Manifest declares which assets to load, keyed by symbolic name and grouped
// by category. Missing categories are empty.
type Manifest struct {
	Images       map[string]string `json:"images,omitempty"`
	Spritesheets map[string]string `json:"spritesheets,omitempty"`
	Audio        map[string]string `json:"audio,omitempty"`
	Videos       map[string]string `json:"videos,omitempty"`
	SVGs         map[string]string `json:"svgs,omitempty"`
	Fonts        FontManifest      `json:"fonts,omitempty"`
}

// FontManifest groups the two font kinds.
type FontManifest struct {
	TTF    map[string]string `json:"ttf,omitempty"`
	Bitmap map[string]string `json:"bitmap,omitempty"`
}

// Entries returns the key → path mapping of one category.
func (m Manifest) Entries(c Category) map[string]string {
	switch c {
	case CategoryImages:
		return m.Images
	case CategorySpritesheets:
		return m.Spritesheets
	case CategoryAudio:
		return m.Audio
	case CategoryVideos:
		return m.Videos
	case CategorySVGs:
		return m.SVGs
	case CategoryTTFFonts:
		return m.Fonts.TTF
	case CategoryBitmapFonts:
		return m.Fonts.Bitmap
	}
	return nil
}

type rawEntries map[string]json.RawMessage

type rawManifest struct {
	Images       rawEntries `json:"images"`
	Spritesheets rawEntries `json:"spritesheets"`
	Audio        rawEntries `json:"audio"`
	Videos       rawEntries `json:"videos"`
	SVGs         rawEntries `json:"svgs"`
	Fonts        struct {
		TTF    rawEntries `json:"ttf"`
		Bitmap rawEntries `json:"bitmap"`
	} `json:"fonts"`
}

// ParseManifest decodes a JSON manifest. An entry whose value is not a string
// is kept with an empty path so that SetManifest reports and skips it instead
// of the whole document being rejected.
func ParseManifest(data []byte) (Manifest, error) {
	var raw rawManifest
	if err := json.Unmarshal(data, &raw); err != nil {
		return Manifest{}, fmt.Errorf("failed to decode manifest: %w", err)
	}
	return Manifest{
		Images:       raw.Images.strings(),
		Spritesheets: raw.Spritesheets.strings(),
		Audio:        raw.Audio.strings(),
		Videos:       raw.Videos.strings(),
		SVGs:         raw.SVGs.strings(),
		Fonts: FontManifest{
			TTF:    raw.Fonts.TTF.strings(),
			Bitmap: raw.Fonts.Bitmap.strings(),
		},
	}, nil
}

// LoadManifest reads and decodes a JSON manifest file.
func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	return ParseManifest(data)
}

func (r rawEntries) strings() map[string]string {
	if r == nil {
		return nil
	}
	out := make(map[string]string, len(r))
	for key, value := range r {
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			s = ""
		}
		out[key] = s
	}
	return out
}
