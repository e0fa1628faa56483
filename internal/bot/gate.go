package bot

// Gate is the static actor allow-list.
type Gate struct {
	allowed map[int64]struct{}
}

func NewGate(actors []int64) *Gate {
	allowed := make(map[int64]struct{}, len(actors))
	for _, a := range actors {
		allowed[a] = struct{}{}
	}
	return &Gate{allowed: allowed}
}

// Authorize reports whether actor may use the bot.
func (g *Gate) Authorize(actor int64) bool {
	_, ok := g.allowed[actor]
	return ok
}
