package assets

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"math"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// VideoClip is a fetched video, ready to hand to a player. Clips loop muted
// and inline, like the intro screen they are made for.
type VideoClip struct {
	Location string
	MIME     string
	Data     []byte
	Loop     bool
	Muted    bool
}

var videoTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".webm": "video/webm",
	".ogv":  "video/ogg",
	".mov":  "video/quicktime",
}

func newVideoClip(location string, data []byte) (*VideoClip, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("video %s is empty", location)
	}
	ext := strings.ToLower(path.Ext(location))
	kind, ok := videoTypes[ext]
	if !ok {
		kind = mime.TypeByExtension(ext)
	}
	if kind == "" {
		kind = http.DetectContentType(data)
	}
	return &VideoClip{
		Location: location,
		MIME:     kind,
		Data:     data,
		Loop:     true,
		Muted:    true,
	}, nil
}

// maxSVGDimension bounds either side of a rasterized SVG in pixels.
const maxSVGDimension = 8192

// ErrSVGTooLarge is returned for view boxes that would not fit in
// maxSVGDimension pixels per side.
var ErrSVGTooLarge = errors.New("svg view box too large")

// RasterizeSVG renders an SVG document into an RGBA image at the given
// scale of its view box.
func RasterizeSVG(data []byte, scale float64) (*image.RGBA, error) {
	if scale <= 0 {
		scale = 1
	}
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data), oksvg.IgnoreErrorMode)
	if err != nil {
		return nil, fmt.Errorf("failed to parse svg: %w", err)
	}
	fw := math.Ceil(icon.ViewBox.W * scale)
	fh := math.Ceil(icon.ViewBox.H * scale)
	if math.IsNaN(fw) || math.IsNaN(fh) || fw <= 0 || fh <= 0 {
		return nil, errors.New("svg has an empty view box")
	}
	if fw > maxSVGDimension || fh > maxSVGDimension {
		return nil, fmt.Errorf("%w: %gx%g", ErrSVGTooLarge, fw, fh)
	}
	w, h := int(fw), int(fh)

	icon.SetTarget(0, 0, float64(w), float64(h))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	icon.Draw(rasterx.NewDasher(w, h, scanner), 1)
	return img, nil
}
