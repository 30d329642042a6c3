// internal/turn/turn.go
//
// Round-robin turn scheduling for multiplayer sessions.
package turn

// Next returns the player whose turn follows currentID in order.
// Empty order yields "". A currentID not present in order (e.g. the player
// left mid-match) restarts rotation at order[0]. Otherwise the next element,
// wrapping to order[0] after the last.
func Next(order []string, currentID string) string {
	if len(order) == 0 {
		return ""
	}
	for i, id := range order {
		if id == currentID {
			return order[(i+1)%len(order)]
		}
	}
	return order[0]
}

// Snapshot copies a live player list into a fixed turn order. The order is
// captured once, at the first guess of a match, and never re-derived from the
// possibly-mutating players collection afterwards.
func Snapshot(players []string) []string {
	out := make([]string, len(players))
	copy(out, players)
	return out
}
