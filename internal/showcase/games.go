package showcase

import "github.com/sandruandrei/SGDemo/internal/assets"

// Game names as shown in the game picker.
const (
	AceOfShadows = "ACE  OF  SHADOWS"
	MagicWords   = "MAGIC  WORDS"
	PhoenixFlame = "PHOENIX  FLAME"
)

// DefaultGame is selected when a change-game request names no game.
const DefaultGame = AceOfShadows

// Game is one showcase minigame.
type Game struct {
	Name string
	// Background is the image key drawn behind the game.
	Background string
	// Music is the audio key looped while the game is shown.
	Music string
}

var games = []Game{
	{Name: AceOfShadows, Background: "normalBg", Music: "game1"},
	{Name: MagicWords, Background: "fsBg", Music: "game2"},
	{Name: PhoenixFlame, Background: "sfsBg", Music: "game3"},
}

// Games returns the showcase games in picker order.
func Games() []Game {
	return append([]Game(nil), games...)
}

// LookupGame finds a game by name. An empty name selects DefaultGame.
func LookupGame(name string) (Game, bool) {
	if name == "" {
		name = DefaultGame
	}
	for _, g := range games {
		if g.Name == name {
			return g, true
		}
	}
	return Game{}, false
}

// DefaultManifest lists the assets the showcase ships with.
func DefaultManifest() assets.Manifest {
	return assets.Manifest{
		Images: map[string]string{
			"normalBg":          "/images/bg/normal.png",
			"fsBg":              "/images/bg/fs.png",
			"sfsBg":             "/images/bg/sfs.png",
			"phoenixFlame":      "/images/bg/Imfine.png",
			"phoenixFlameFrame": "/images/misc/ImfinePaintingFrame.png",
			"unknownAvatar":     "/images/avatars/avatar.png",
			"loader":            "/images/misc/loadingIcon.png",
			"win":               "/images/emojies/win.png",
			"affirmative":       "/images/emojies/affirmative.png",
			"neutral":           "/images/emojies/neutral.png",
		},
		Audio: map[string]string{
			"game1": "/sounds/game1.mp3",
			"game2": "/sounds/game2.mp3",
			"game3": "/sounds/game3.mp3",
		},
		SVGs: map[string]string{
			"playIcon":       "/svgs/playIcon.svg",
			"playIconSilver": "/svgs/playIconSilver.svg",
			"replayIcon":     "/svgs/replayIcon.svg",
			"fastIcon":       "/svgs/fastIcon.svg",
			"starIcon":       "/svgs/starIcon.svg",
			"soundOn":        "/svgs/soundOn.svg",
			"soundOff":       "/svgs/soundOff.svg",
		},
		Fonts: assets.FontManifest{
			Bitmap: map[string]string{
				"menuFont": "/fonts/bitmapFonts/menuFont.fnt",
			},
		},
	}
}
