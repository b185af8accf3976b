// Package game implements the Lantern round and match state machine.
//
// An Instance is a single-writer value: it performs no locking of its own
// and must be driven by one goroutine at a time. The orchestration layer
// serializes player actions and timer callbacks behind a per-game mutex.
package game

import (
	"fmt"
	rand "math/rand/v2"
	"time"

	"github.com/coder/quartz"

	"github.com/lox/lantern/internal/deck"
)

const (
	MinPlayers = 2
	MaxPlayers = 4
	// WinPenalty is subtracted from the score of the player who lights up.
	WinPenalty = 10
)

// Phase is the lifecycle stage of an instance.
type Phase int

const (
	// PhaseWaiting is before the first deal, while players load in.
	PhaseWaiting Phase = iota
	PhaseDealing
	PhaseTurn
	PhaseRoundOver
	PhaseGameOver
)

// String returns the string representation of a phase
func (p Phase) String() string {
	switch p {
	case PhaseWaiting:
		return "waiting"
	case PhaseDealing:
		return "dealing"
	case PhaseTurn:
		return "turn"
	case PhaseRoundOver:
		return "round_over"
	case PhaseGameOver:
		return "game_over"
	default:
		return "unknown"
	}
}

// Options configures a new Instance.
type Options struct {
	ID             string
	Players        []Player
	MaxPoints      int
	SecondsPerTurn int
	Rand           *rand.Rand
	Clock          quartz.Clock
}

// Instance owns the authoritative state of one game.
type Instance struct {
	id             string
	maxPoints      int
	secondsPerTurn int
	rng            *rand.Rand

	// players is the turn order, shuffled once at creation.
	players []Player
	hands   map[string]*deck.Hand
	deck    *deck.Deck
	pile    *deck.DiscardPile

	points    map[string]int
	lastRound map[string]int
	ready     map[string]bool

	phase        Phase
	turn         int
	roundStarter int
	round        int
	rotations    int
	roundWinner  string
	allowed      AllowedMoves
	dealCursor   int
	// settled is set once a finished round's points are final and the
	// next deal is pending.
	settled bool

	TurnTimer      *TimerSlot
	ArrangeTimer   *TimerSlot
	NextRoundTimer *TimerSlot
	DealTimer      *TimerSlot
}

// New creates an instance with a shuffled turn order, waiting for every
// player to acknowledge before the first deal.
func New(opts Options) (*Instance, error) {
	if len(opts.Players) < MinPlayers || len(opts.Players) > MaxPlayers {
		return nil, fmt.Errorf("%w, got %d", ErrPlayerCount, len(opts.Players))
	}
	if opts.Rand == nil {
		return nil, fmt.Errorf("game %s: random source is required", opts.ID)
	}
	if opts.Clock == nil {
		opts.Clock = quartz.NewReal()
	}

	g := &Instance{
		id:             opts.ID,
		maxPoints:      opts.MaxPoints,
		secondsPerTurn: opts.SecondsPerTurn,
		rng:            opts.Rand,
		players:        make([]Player, 0, len(opts.Players)),
		hands:          make(map[string]*deck.Hand, len(opts.Players)),
		points:         make(map[string]int, len(opts.Players)),
		lastRound:      make(map[string]int, len(opts.Players)),
		ready:          make(map[string]bool, len(opts.Players)),
		pile:           deck.NewDiscardPile(),
		phase:          PhaseWaiting,
		round:          1,
		TurnTimer:      NewTimerSlot(opts.Clock, "turn"),
		ArrangeTimer:   NewTimerSlot(opts.Clock, "arrange"),
		NextRoundTimer: NewTimerSlot(opts.Clock, "next_round"),
		DealTimer:      NewTimerSlot(opts.Clock, "deal"),
	}

	for _, p := range opts.Players {
		if _, dup := g.points[p.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePlayer, p.ID)
		}
		g.players = append(g.players, p)
		g.points[p.ID] = 0
		g.lastRound[p.ID] = 0
		g.hands[p.ID] = deck.NewHand()
	}
	g.rng.Shuffle(len(g.players), func(i, j int) {
		g.players[i], g.players[j] = g.players[j], g.players[i]
	})
	g.deck = deck.New(g.rng)

	return g, nil
}

// ID returns the game id, which is also the hosting room id.
func (g *Instance) ID() string { return g.id }

// Phase returns the current lifecycle phase.
func (g *Instance) Phase() Phase { return g.phase }

// Round returns the 1-based round number.
func (g *Instance) Round() int { return g.round }

// Rotations returns how many full laps of turns this round has completed.
func (g *Instance) Rotations() int { return g.rotations }

// MaxPoints returns the score that ends the game.
func (g *Instance) MaxPoints() int { return g.maxPoints }

// RoundOver reports whether the current round has finished.
func (g *Instance) RoundOver() bool {
	return g.phase == PhaseRoundOver || g.phase == PhaseGameOver
}

// TurnDuration is the turn timer length; zero disables turn timers.
func (g *Instance) TurnDuration() time.Duration {
	if g.secondsPerTurn <= 0 {
		return 0
	}
	return time.Duration(g.secondsPerTurn) * time.Second
}

// Players returns the participants in turn order.
func (g *Instance) Players() []Player {
	out := make([]Player, len(g.players))
	copy(out, g.players)
	return out
}

// Player looks up a participant.
func (g *Instance) Player(id string) (Player, bool) {
	i := g.indexOf(id)
	if i < 0 {
		return Player{}, false
	}
	return g.players[i], true
}

// CurrentPlayer returns the player whose turn it is.
func (g *Instance) CurrentPlayer() (Player, bool) {
	if len(g.players) == 0 {
		return Player{}, false
	}
	return g.players[g.turn], true
}

// IsTurn reports whether it is id's turn to act.
func (g *Instance) IsTurn(id string) bool {
	p, ok := g.CurrentPlayer()
	return ok && g.phase == PhaseTurn && p.ID == id
}

// AllowedMoves returns the moves open to id. Everyone but the acting
// player gets NoMoves.
func (g *Instance) AllowedMoves(id string) AllowedMoves {
	if !g.IsTurn(id) {
		return NoMoves
	}
	return g.allowed
}

// Hand returns id's cards in arranged order.
func (g *Instance) Hand(id string) ([]deck.Card, error) {
	h, ok := g.hands[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPlayerNotFound, id)
	}
	return h.Cards(), nil
}

// HandSizes returns the number of cards each player holds.
func (g *Instance) HandSizes() map[string]int {
	out := make(map[string]int, len(g.hands))
	for id, h := range g.hands {
		out[id] = h.Len()
	}
	return out
}

// Points returns cumulative scores.
func (g *Instance) Points() map[string]int {
	return copyScores(g.points)
}

// LastRoundPoints returns each player's score change in the last round.
func (g *Instance) LastRoundPoints() map[string]int {
	return copyScores(g.lastRound)
}

// DeckRemaining returns the number of cards left to draw.
func (g *Instance) DeckRemaining() int { return g.deck.Remaining() }

// DiscardTop returns the visible card on the discard pile.
func (g *Instance) DiscardTop() (deck.Card, bool) { return g.pile.PeekTop() }

// RoundWinner returns the player who lit up this round, if any.
func (g *Instance) RoundWinner() (Player, bool) {
	if g.roundWinner == "" {
		return Player{}, false
	}
	return g.Player(g.roundWinner)
}

// RoundSettled reports whether the finished round has already been closed
// and is waiting for the next deal.
func (g *Instance) RoundSettled() bool { return g.settled }

// ReadyCount returns how many players have acknowledged the pending
// checkpoint.
func (g *Instance) ReadyCount() int {
	n := 0
	for _, p := range g.players {
		if g.ready[p.ID] {
			n++
		}
	}
	return n
}

// IsReady reports whether id has acknowledged the pending checkpoint.
func (g *Instance) IsReady(id string) bool { return g.ready[id] }

// Close stops every timer owned by the instance.
func (g *Instance) Close() {
	g.TurnTimer.Stop()
	g.ArrangeTimer.Stop()
	g.NextRoundTimer.Stop()
	g.DealTimer.Stop()
}

// Removal describes the effect of a player leaving.
type Removal struct {
	Player    Player
	WasTurn   bool
	Remaining int
	Next      Player // acting player afterwards, when WasTurn
}

// RemovePlayer takes id out of the game. Their cards leave play. If it was
// their turn the next player starts a fresh turn.
func (g *Instance) RemovePlayer(id string) (Removal, error) {
	i := g.indexOf(id)
	if i < 0 {
		return Removal{}, fmt.Errorf("%w: %s", ErrPlayerNotFound, id)
	}
	r := Removal{Player: g.players[i], WasTurn: i == g.turn && g.phase == PhaseTurn}

	g.players = append(g.players[:i], g.players[i+1:]...)
	delete(g.hands, id)
	delete(g.points, id)
	delete(g.lastRound, id)
	delete(g.ready, id)
	if g.roundWinner == id {
		g.roundWinner = ""
	}

	r.Remaining = len(g.players)
	if r.Remaining == 0 {
		g.turn, g.roundStarter = 0, 0
		g.allowed = NoMoves
		return r, nil
	}
	if i < g.turn {
		g.turn--
	}
	if i < g.roundStarter {
		g.roundStarter--
	}
	g.turn %= r.Remaining
	g.roundStarter %= r.Remaining

	if r.WasTurn {
		g.allowed = DrawMoves(g.deck.Remaining(), g.pile.Len())
		r.Next = g.players[g.turn]
	}
	return r, nil
}

func (g *Instance) indexOf(id string) int {
	for i, p := range g.players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func copyScores(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
