package assets

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseManifest(t *testing.T) {
	m, err := ParseManifest([]byte(`{
		"images": {"normalBg": "/images/bg/normal.png"},
		"audio": {"game1": "/sounds/game1.mp3", "game2": null},
		"svgs": {"playIcon": "/svgs/playIcon.svg"},
		"fonts": {"ttf": {"Inter": "/fonts/inter.ttf"}, "bitmap": {"menuFont": "/fonts/bitmapFonts/menuFont.fnt"}}
	}`))
	require.NoError(t, err)

	assert.Equal(t, "/images/bg/normal.png", m.Images["normalBg"])
	assert.Equal(t, "", m.Audio["game2"])
	assert.Equal(t, "/fonts/inter.ttf", m.Entries(CategoryTTFFonts)["Inter"])
	assert.Equal(t, "/fonts/bitmapFonts/menuFont.fnt", m.Entries(CategoryBitmapFonts)["menuFont"])
	assert.Nil(t, m.Videos)
}

func TestParseManifestRejectsMalformedJSON(t *testing.T) {
	_, err := ParseManifest([]byte(`{"images": [`))
	assert.Error(t, err)
}

func TestParseBitmapFontText(t *testing.T) {
	data := []byte("\xef\xbb\xbf" + `info face="Menu Font" size=32 bold=0
common lineHeight=36 base=28 scaleW=256 scaleH=256 pages=2
page id=0 file="menu_0.png"
page id=1 file="menu_1.png"
chars count=2
char id=65 x=2 y=4 width=20 height=22 xoffset=1 yoffset=4 xadvance=21 page=0 chnl=15
char id=86 x=30 y=4 width=19 height=22 xoffset=0 yoffset=4 xadvance=19 page=1 chnl=15
kernings count=1
kerning first=65 second=86 amount=-2
`)

	font, err := ParseBitmapFont(data)
	require.NoError(t, err)

	assert.Equal(t, "Menu Font", font.Face)
	assert.Equal(t, 32, font.Size)
	assert.Equal(t, 36, font.LineHeight)
	assert.Equal(t, 28, font.Base)
	assert.Equal(t, []string{"menu_0.png", "menu_1.png"}, font.Pages)
	assert.Len(t, font.Textures, 2)

	a, ok := font.Glyph('A')
	require.True(t, ok)
	assert.Equal(t, image.Rect(2, 4, 22, 26), a.Rect)
	assert.Equal(t, 21, a.XAdvance)

	assert.Equal(t, -2, font.Kerning('A', 'V'))
	assert.Equal(t, 0, font.Kerning('V', 'A'))
	assert.Equal(t, 21+19-2, font.MeasureString("AV"))
	assert.Equal(t, 21, font.MeasureString("A?"))
}

func TestParseBitmapFontXML(t *testing.T) {
	data := []byte(`<?xml version="1.0"?>
<font>
  <info face="Digits" size="24"/>
  <common lineHeight="26" base="20" pages="1"/>
  <pages><page id="0" file="digits.png"/></pages>
  <chars count="1"><char id="48" x="0" y="0" width="12" height="18" xoffset="0" yoffset="2" xadvance="13" page="0"/></chars>
</font>`)

	font, err := ParseBitmapFont(data)
	require.NoError(t, err)

	assert.Equal(t, "Digits", font.Face)
	assert.Equal(t, []string{"digits.png"}, font.Pages)
	zero, ok := font.Glyph('0')
	require.True(t, ok)
	assert.Equal(t, 13, zero.XAdvance)
}

func TestParseBitmapFontErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "no pages", data: "info face=\"x\" size=10\n"},
		{name: "page gap", data: "page id=1 file=\"b.png\"\n"},
		{name: "bad number", data: "page id=0 file=\"a.png\"\nchar id=abc x=0\n"},
		{name: "page out of range", data: "page id=999 file=\"a.png\"\n"},
		{name: "negative glyph page", data: "page id=0 file=\"a.png\"\nchar id=65 x=0 y=0 width=1 height=1 page=-1\n"},
		{name: "glyph page past last", data: "page id=0 file=\"a.png\"\nchar id=65 x=0 y=0 width=1 height=1 page=1\n"},
		{name: "xml glyph page past last", data: `<font><pages><page id="0" file="a.png"/></pages><chars><char id="65" page="3"/></chars></font>`},
		{name: "bad xml", data: "<font><pages>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBitmapFont([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestParseSpritesheetHash(t *testing.T) {
	sheet, err := ParseSpritesheet([]byte(`{
		"frames": {
			"walk_01.png": {"frame": {"x": 64, "y": 0, "w": 64, "h": 64}, "trimmed": true, "sourceSize": {"w": 70, "h": 70}},
			"walk_00.png": {"frame": {"x": 0, "y": 0, "w": 64, "h": 64}, "sourceSize": {"w": 64, "h": 64}}
		},
		"meta": {"image": "walk.png"}
	}`))
	require.NoError(t, err)

	assert.Equal(t, "walk.png", sheet.Image)
	assert.Equal(t, []string{"walk_00.png", "walk_01.png"}, sheet.FrameNames())

	f, ok := sheet.Frame("walk_01.png")
	require.True(t, ok)
	assert.Equal(t, image.Rect(64, 0, 128, 64), f.Rect)
	assert.True(t, f.Trimmed)
	assert.Equal(t, image.Pt(70, 70), f.SourceSize)

	_, ok = sheet.Frame("run_00.png")
	assert.False(t, ok)
}

func TestParseSpritesheetArray(t *testing.T) {
	sheet, err := ParseSpritesheet([]byte(`{
		"frames": [{"filename": "coin", "frame": {"x": 1, "y": 2, "w": 3, "h": 4}, "rotated": true}],
		"meta": {"image": "coins.png"}
	}`))
	require.NoError(t, err)

	f, ok := sheet.Frame("coin")
	require.True(t, ok)
	assert.Equal(t, image.Rect(1, 2, 4, 6), f.Rect)
	assert.True(t, f.Rotated)
}

func TestParseSpritesheetErrors(t *testing.T) {
	_, err := ParseSpritesheet([]byte(`{"frames": {}}`))
	assert.Error(t, err)

	_, err = ParseSpritesheet([]byte(`{"frames": [{"frame": {"w": 1, "h": 1}}], "meta": {"image": "a.png"}}`))
	assert.Error(t, err)

	_, err = ParseSpritesheet([]byte(`not json`))
	assert.Error(t, err)
}
