package server

// MessageType represents a WebSocket message type with type safety
type MessageType string

const (
	// Client to server messages
	MessageTypeConnect         MessageType = "connect"
	MessageTypeListRooms       MessageType = "list_rooms"
	MessageTypeCreateRoom      MessageType = "create_room"
	MessageTypeJoinRoom        MessageType = "join_room"
	MessageTypeLeaveRoom       MessageType = "leave_room"
	MessageTypeGetRoom         MessageType = "get_room"
	MessageTypeStartGame       MessageType = "start_game"
	MessageTypePlayerReady     MessageType = "player_ready"
	MessageTypeDrawDeck        MessageType = "draw_deck"
	MessageTypeDrawDiscard     MessageType = "draw_discard"
	MessageTypeDiscard         MessageType = "discard"
	MessageTypeLightUp         MessageType = "light_up"
	MessageTypeRearrange       MessageType = "rearrange"
	MessageTypeRoundReady      MessageType = "round_ready"
	MessageTypeReplay          MessageType = "replay"
	MessageTypeLeaveGame       MessageType = "leave_game"
	MessageTypeDropGame        MessageType = "drop_game"
	MessageTypeGetGameInfo     MessageType = "get_game_info"
	MessageTypeGetEndRound     MessageType = "get_end_round"
	MessageTypeGetStats        MessageType = "get_stats"
	MessageTypeGetReadyCount   MessageType = "get_ready_count"
	MessageTypeGetAllowedMoves MessageType = "get_allowed_moves"
	MessageTypeChat            MessageType = "chat"
	MessageTypeGetChat         MessageType = "get_chat"
	MessageTypeInvite          MessageType = "invite"
	MessageTypeRemoveInvite    MessageType = "remove_invite"
	MessageTypeGetInvites      MessageType = "get_invites"

	// Developer room tools
	MessageTypeDevDeck       MessageType = "dev_deck"
	MessageTypeDevTakeCard   MessageType = "dev_take_card"
	MessageTypeDevReturnCard MessageType = "dev_return_card"
	MessageTypeDevGiveJoker  MessageType = "dev_give_joker"
	MessageTypeDevBurnCards  MessageType = "dev_burn_cards"

	// Server to client messages
	MessageTypeConnected    MessageType = "connected"
	MessageTypeEvent        MessageType = "event"
	MessageTypeError        MessageType = "error"
	MessageTypeOK           MessageType = "ok"
	MessageTypeRoomList     MessageType = "room_list"
	MessageTypeRoomInfo     MessageType = "room_info"
	MessageTypeCardDrawn    MessageType = "card_drawn"
	MessageTypeGameInfo     MessageType = "game_info"
	MessageTypeEndRound     MessageType = "end_round"
	MessageTypeStats        MessageType = "stats"
	MessageTypeReadyCount   MessageType = "ready_count"
	MessageTypeAllowedMoves MessageType = "allowed_moves"
	MessageTypeChatList     MessageType = "chat_list"
	MessageTypeInviteList   MessageType = "invite_list"
	MessageTypeDeckCards    MessageType = "deck_cards"
)

// String returns the string representation of the message type
func (mt MessageType) String() string {
	return string(mt)
}
