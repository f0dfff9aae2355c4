package showcase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandruandrei/SGDemo/internal/assets"
	"github.com/sandruandrei/SGDemo/internal/signals"
)

func TestLookupGame(t *testing.T) {
	g, ok := LookupGame("")
	require.True(t, ok)
	assert.Equal(t, AceOfShadows, g.Name)

	g, ok = LookupGame(MagicWords)
	require.True(t, ok)
	assert.Equal(t, "fsBg", g.Background)

	_, ok = LookupGame("MAGIC WORDS")
	assert.False(t, ok)
}

func TestGamesBackgroundsAreDeclared(t *testing.T) {
	m := DefaultManifest()
	for _, g := range Games() {
		assert.Contains(t, m.Images, g.Background, g.Name)
		assert.Contains(t, m.Audio, g.Music, g.Name)
	}
}

func TestDefaultManifestIsValid(t *testing.T) {
	loader := assets.New(signals.NewBus(discardLogger), nil, nil, assets.WithLogger(discardLogger))
	assert.Equal(t, 21, loader.SetManifest(DefaultManifest()))
}
