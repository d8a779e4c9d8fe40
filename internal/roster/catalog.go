package roster

import (
	"sort"

	"cloudy-sword/pkg/api"
)

// Game - строка каталога с идентификатором.
type Game struct {
	ID string
	api.GameSummary
}

// Catalog - открытые игры: gameId -> сводка, в порядке первого появления.
// Порядок важен: по нему лобби раскладывает строки для клика.
type Catalog struct {
	games map[string]api.GameSummary
	order []string
}

func NewCatalog() *Catalog {
	return &Catalog{games: make(map[string]api.GameSummary)}
}

// Apply сливает обновление: новые ключи добавляются, известные перезаписываются.
// Целиком каталог заменяется только при явном Reset.
func (c *Catalog) Apply(u api.CatalogUpdate) {
	if u.Reset {
		c.games = make(map[string]api.GameSummary, len(u.Games))
		c.order = c.order[:0]
	}

	ids := make([]string, 0, len(u.Games))
	for id := range u.Games {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return idLess(ids[i], ids[j]) })

	for _, id := range ids {
		if _, known := c.games[id]; !known {
			c.order = append(c.order, id)
		}
		c.games[id] = u.Games[id]
	}
}

// Get возвращает сводку игры.
func (c *Catalog) Get(id string) (api.GameSummary, bool) {
	g, ok := c.games[id]
	return g, ok
}

// Games - снимок в порядке появления.
func (c *Catalog) Games() []Game {
	out := make([]Game, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, Game{ID: id, GameSummary: c.games[id]})
	}
	return out
}

func (c *Catalog) Len() int {
	return len(c.order)
}
