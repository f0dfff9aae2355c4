package assets

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"image"
	"strconv"
	"strings"
)

// maxBitmapFontPages bounds page ids read from a descriptor.
const maxBitmapFontPages = 64

var errNoPages = errors.New("bitmap font declares no pages")

// BitmapFont is a parsed AngelCode BMFont descriptor plus its page textures.
type BitmapFont struct {
	Face       string
	Size       int
	LineHeight int
	Base       int
	Pages      []string
	Textures   []Texture
	Glyphs     map[rune]Glyph
	Kernings   map[[2]rune]int
}

// Glyph locates one character on a page texture.
type Glyph struct {
	ID       rune
	Rect     image.Rectangle
	XOffset  int
	YOffset  int
	XAdvance int
	Page     int
}

// Glyph returns the glyph for r.
func (f *BitmapFont) Glyph(r rune) (Glyph, bool) {
	g, ok := f.Glyphs[r]
	return g, ok
}

// Kerning returns the advance adjustment between two runes.
func (f *BitmapFont) Kerning(first, second rune) int {
	return f.Kernings[[2]rune{first, second}]
}

// MeasureString returns the horizontal advance of s in pixels. Runes without
// a glyph are skipped.
func (f *BitmapFont) MeasureString(s string) int {
	width := 0
	var prev rune = -1
	for _, r := range s {
		g, ok := f.Glyphs[r]
		if !ok {
			continue
		}
		if prev >= 0 {
			width += f.Kerning(prev, r)
		}
		width += g.XAdvance
		prev = r
	}
	return width
}

// ParseBitmapFont reads a BMFont descriptor in either the text or the XML
// flavour. Page textures are left empty.
func ParseBitmapFont(data []byte) (*BitmapFont, error) {
	trimmed := bytes.TrimSpace(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")))
	var (
		font *BitmapFont
		err  error
	)
	if bytes.HasPrefix(trimmed, []byte("<")) {
		font, err = parseBitmapFontXML(trimmed)
	} else {
		font, err = parseBitmapFontText(trimmed)
	}
	if err != nil {
		return nil, err
	}
	if len(font.Pages) == 0 {
		return nil, errNoPages
	}
	for i, p := range font.Pages {
		if p == "" {
			return nil, fmt.Errorf("bitmap font page %d has no file", i)
		}
	}
	for id, g := range font.Glyphs {
		if g.Page < 0 || g.Page >= len(font.Pages) {
			return nil, fmt.Errorf("bitmap font char %d uses unknown page %d", id, g.Page)
		}
	}
	font.Textures = make([]Texture, len(font.Pages))
	return font, nil
}

func newBitmapFont() *BitmapFont {
	return &BitmapFont{
		Glyphs:   make(map[rune]Glyph),
		Kernings: make(map[[2]rune]int),
	}
}

func (f *BitmapFont) setPage(id int, file string) error {
	if id < 0 || id >= maxBitmapFontPages {
		return fmt.Errorf("bitmap font page id %d out of range", id)
	}
	for len(f.Pages) <= id {
		f.Pages = append(f.Pages, "")
	}
	f.Pages[id] = file
	return nil
}

// bmAttrs collects the first conversion error while reading numeric fields.
type bmAttrs struct {
	values map[string]string
	err    error
}

func (a *bmAttrs) num(key string) int {
	raw, ok := a.values[key]
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil && a.err == nil {
		a.err = fmt.Errorf("invalid %s=%q: %w", key, raw, err)
	}
	return n
}

func parseBitmapFontText(data []byte) (*BitmapFont, error) {
	font := newBitmapFont()
	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		tag, values := splitBMLine(scanner.Text())
		attrs := &bmAttrs{values: values}

		switch tag {
		case "info":
			font.Face = values["face"]
			font.Size = attrs.num("size")
		case "common":
			font.LineHeight = attrs.num("lineHeight")
			font.Base = attrs.num("base")
		case "page":
			id := attrs.num("id")
			if attrs.err == nil {
				attrs.err = font.setPage(id, values["file"])
			}
		case "char":
			g := Glyph{ID: rune(attrs.num("id"))}
			x, y := attrs.num("x"), attrs.num("y")
			g.Rect = image.Rect(x, y, x+attrs.num("width"), y+attrs.num("height"))
			g.XOffset = attrs.num("xoffset")
			g.YOffset = attrs.num("yoffset")
			g.XAdvance = attrs.num("xadvance")
			g.Page = attrs.num("page")
			font.Glyphs[g.ID] = g
		case "kerning":
			pair := [2]rune{rune(attrs.num("first")), rune(attrs.num("second"))}
			font.Kernings[pair] = attrs.num("amount")
		}
		if attrs.err != nil {
			return nil, fmt.Errorf("bitmap font line %d: %w", lineNo, attrs.err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read bitmap font: %w", err)
	}
	return font, nil
}

// splitBMLine splits `tag key=value key="quoted value"` into its parts.
func splitBMLine(line string) (string, map[string]string) {
	line = strings.TrimSpace(line)
	tag, rest, _ := strings.Cut(line, " ")
	values := make(map[string]string)

	for rest = strings.TrimSpace(rest); rest != ""; rest = strings.TrimSpace(rest) {
		key, after, ok := strings.Cut(rest, "=")
		if !ok {
			break
		}
		var value string
		if strings.HasPrefix(after, `"`) {
			end := strings.IndexByte(after[1:], '"')
			if end < 0 {
				value, rest = after[1:], ""
			} else {
				value, rest = after[1:end+1], after[end+2:]
			}
		} else {
			value, rest, _ = strings.Cut(after, " ")
		}
		values[strings.TrimSpace(key)] = value
	}
	return tag, values
}

type xmlBitmapFont struct {
	XMLName xml.Name `xml:"font"`
	Info    struct {
		Face string `xml:"face,attr"`
		Size int    `xml:"size,attr"`
	} `xml:"info"`
	Common struct {
		LineHeight int `xml:"lineHeight,attr"`
		Base       int `xml:"base,attr"`
	} `xml:"common"`
	Pages []struct {
		ID   int    `xml:"id,attr"`
		File string `xml:"file,attr"`
	} `xml:"pages>page"`
	Chars []struct {
		ID       int `xml:"id,attr"`
		X        int `xml:"x,attr"`
		Y        int `xml:"y,attr"`
		Width    int `xml:"width,attr"`
		Height   int `xml:"height,attr"`
		XOffset  int `xml:"xoffset,attr"`
		YOffset  int `xml:"yoffset,attr"`
		XAdvance int `xml:"xadvance,attr"`
		Page     int `xml:"page,attr"`
	} `xml:"chars>char"`
	Kernings []struct {
		First  int `xml:"first,attr"`
		Second int `xml:"second,attr"`
		Amount int `xml:"amount,attr"`
	} `xml:"kernings>kerning"`
}

func parseBitmapFontXML(data []byte) (*BitmapFont, error) {
	var doc xmlBitmapFont
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode bitmap font xml: %w", err)
	}

	font := newBitmapFont()
	font.Face = doc.Info.Face
	font.Size = doc.Info.Size
	font.LineHeight = doc.Common.LineHeight
	font.Base = doc.Common.Base
	for _, p := range doc.Pages {
		if err := font.setPage(p.ID, p.File); err != nil {
			return nil, err
		}
	}
	for _, c := range doc.Chars {
		font.Glyphs[rune(c.ID)] = Glyph{
			ID:       rune(c.ID),
			Rect:     image.Rect(c.X, c.Y, c.X+c.Width, c.Y+c.Height),
			XOffset:  c.XOffset,
			YOffset:  c.YOffset,
			XAdvance: c.XAdvance,
			Page:     c.Page,
		}
	}
	for _, k := range doc.Kernings {
		font.Kernings[[2]rune{rune(k.First), rune(k.Second)}] = k.Amount
	}
	return font, nil
}
