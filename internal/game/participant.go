package game

// Player is a participant as the game sees it.
type Player struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Standing is a player's final position.
type Standing struct {
	Player Player `json:"player"`
	Points int    `json:"points"`
}
