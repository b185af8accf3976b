package game

// AllowedMoves is the set of actions open to the acting player. Values are
// replaced after every transition, never edited in place.
type AllowedMoves struct {
	DrawFromDeck    bool `json:"draw_from_deck"`
	DrawFromDiscard bool `json:"draw_from_discard"`
	Discard         bool `json:"discard"`
	LightUp         bool `json:"light_up"`
}

// NoMoves allows nothing.
var NoMoves = AllowedMoves{}

// DrawMoves opens a turn.
func DrawMoves(deckLeft, pileLeft int) AllowedMoves {
	return AllowedMoves{DrawFromDeck: deckLeft > 0, DrawFromDiscard: pileLeft > 0}
}

// DiscardMoves follows a draw.
func DiscardMoves(canLightUp bool) AllowedMoves {
	return AllowedMoves{Discard: true, LightUp: canLightUp}
}

// Any reports whether at least one move is allowed.
func (m AllowedMoves) Any() bool {
	return m != NoMoves
}
