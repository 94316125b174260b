package templating

import (
	"fmt"

	"github.com/CTAG07/Capyboard/pkg/studio"
)

// DecorTile is one cell of a tiled background decoration.
type DecorTile struct {
	Emoji string
	Image string
}

// decorGrid returns the number of rows and columns of tiled decor.
func (tm *TemplateManager) decorGrid() int {
	n := tm.config.DecorGrid
	if n <= 0 {
		n = DefaultConfig().DecorGrid
	}
	if tm.config.MaxDecorGrid > 0 && n > tm.config.MaxDecorGrid {
		n = tm.config.MaxDecorGrid
	}
	return n
}

// decorTiles fills the decor grid for the tiled variants, cycling through
// the variant's emojis or repeating the mascot image. Other variants give
// no tiles.
func (tm *TemplateManager) decorTiles(d studio.Decor) []DecorTile {
	n := tm.decorGrid()
	cells := n * n
	switch d {
	case studio.DecorMascot:
		src := tm.assetURL("capybara.svg")
		tiles := make([]DecorTile, cells)
		for i := range tiles {
			tiles[i] = DecorTile{Image: src}
		}
		return tiles
	case studio.DecorTech, studio.DecorGames:
		emojis := d.Emojis()
		tiles := make([]DecorTile, cells)
		for i := range tiles {
			tiles[i] = DecorTile{Emoji: emojis[i%len(emojis)]}
		}
		return tiles
	}
	return nil
}

// dict builds a map from alternating keys and values, for passing several
// values to a partial.
func dict(pairs ...any) (map[string]any, error) {
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("dict needs an even number of arguments, got %d", len(pairs))
	}
	m := make(map[string]any, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict key %d is %T, not string", i/2, pairs[i])
		}
		m[key] = pairs[i+1]
	}
	return m, nil
}
