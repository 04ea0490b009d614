package chart

import "batter-scatter/roster"

// Group is one drawn point: every player sharing the same Y and X value.
type Group struct {
	Y, X   roster.Value
	PX, PY float64
	Names  []string
}

// GroupPlayers partitions players by their yKey value and then by their xKey
// value. Groups come out in first-seen order of Y values, then first-seen
// order of X values within each; member names keep input order. Values are
// never aggregated, so each group's Y and X are the shared raw values.
func GroupPlayers(players []roster.Player, yKey, xKey roster.Key, yScale, xScale Scale) []Group {
	type yPart struct {
		order  []string
		groups map[string]*Group
	}
	var yOrder []string
	parts := make(map[string]*yPart)

	for _, p := range players {
		yv, xv := p.Value(yKey), p.Value(xKey)
		yk, xk := yv.String(), xv.String()

		part, ok := parts[yk]
		if !ok {
			part = &yPart{groups: make(map[string]*Group)}
			parts[yk] = part
			yOrder = append(yOrder, yk)
		}
		g, ok := part.groups[xk]
		if !ok {
			g = &Group{Y: yv, X: xv, PX: xScale.Map(xv), PY: yScale.Map(yv)}
			part.groups[xk] = g
			part.order = append(part.order, xk)
		}
		g.Names = append(g.Names, p.Name)
	}

	var out []Group
	for _, yk := range yOrder {
		part := parts[yk]
		for _, xk := range part.order {
			out = append(out, *part.groups[xk])
		}
	}
	return out
}
