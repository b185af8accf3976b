package notify

// Event is a state change pushed to clients. Events carry no payload;
// clients pull fresh state through the query operations.
type Event int

const (
	EventGameStarting Event = iota + 1
	EventPlayersReadyChanged
	EventAllPlayersReady
	EventCardsDealt
	EventUpdateGameInfo
	EventMyTurn
	EventNextPlayerTurn
	EventTurnSkipped
	EventAutoDiscarded
	EventRoundWon
	EventRoundOver
	EventForceFinishArranging
	EventRoundResults
	EventNewRoundStarting
	EventPlacedFirst
	EventPlacedLast
	EventGameOver
	EventPlayerLeft
	EventGameDropped
	EventRefreshRoom
	EventRefreshRooms
	EventRoomDeleted
	EventNewChat
	EventRoomInvite
)

var eventNames = map[Event]string{
	EventGameStarting:         "game_starting",
	EventPlayersReadyChanged:  "players_ready_changed",
	EventAllPlayersReady:      "all_players_ready",
	EventCardsDealt:           "cards_dealt",
	EventUpdateGameInfo:       "update_game_info",
	EventMyTurn:               "my_turn",
	EventNextPlayerTurn:       "next_player_turn",
	EventTurnSkipped:          "turn_skipped",
	EventAutoDiscarded:        "auto_discarded",
	EventRoundWon:             "round_won",
	EventRoundOver:            "round_over",
	EventForceFinishArranging: "force_finish_arranging",
	EventRoundResults:         "round_results",
	EventNewRoundStarting:     "new_round_starting",
	EventPlacedFirst:          "placed_first",
	EventPlacedLast:           "placed_last",
	EventGameOver:             "game_over",
	EventPlayerLeft:           "player_left",
	EventGameDropped:          "game_dropped",
	EventRefreshRoom:          "refresh_room",
	EventRefreshRooms:         "refresh_rooms",
	EventRoomDeleted:          "room_deleted",
	EventNewChat:              "new_chat",
	EventRoomInvite:           "room_invite",
}

// String returns the wire name of the event
func (e Event) String() string {
	if name, ok := eventNames[e]; ok {
		return name
	}
	return "unknown"
}

// MarshalText encodes the event by name.
func (e Event) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// ParseEvent looks an event up by wire name.
func ParseEvent(name string) (Event, bool) {
	for e, n := range eventNames {
		if n == name {
			return e, true
		}
	}
	return 0, false
}
