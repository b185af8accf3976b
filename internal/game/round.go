package game

import (
	"fmt"
	"sort"

	"github.com/lox/lantern/internal/combo"
	"github.com/lox/lantern/internal/deck"
)

// RoundSummary is produced once every player has acknowledged the end of a
// round.
type RoundSummary struct {
	Round     int
	Points    map[string]int
	LastRound map[string]int
	GameOver  bool
	// Standings is ordered best first; set only when GameOver.
	Standings []Standing
}

// AcknowledgeStart records that id is ready for the first deal.
func (g *Instance) AcknowledgeStart(id string) (bool, error) {
	if err := g.acknowledge(id, PhaseWaiting); err != nil {
		return false, err
	}
	return g.allReady(), nil
}

// AcknowledgeRound records that id has finished arranging after a round
// ended, and scores id's ungrouped cards.
func (g *Instance) AcknowledgeRound(id string) (bool, error) {
	if err := g.acknowledge(id, PhaseRoundOver); err != nil {
		return false, err
	}
	g.scoreHand(id)
	return g.allReady(), nil
}

// ForceAcknowledgeRound acknowledges, and scores, every player who has not
// yet done so. It returns the players it acted for.
func (g *Instance) ForceAcknowledgeRound() []Player {
	if g.phase != PhaseRoundOver {
		return nil
	}
	var forced []Player
	for _, p := range g.players {
		if g.ready[p.ID] {
			continue
		}
		g.ready[p.ID] = true
		g.scoreHand(p.ID)
		forced = append(forced, p)
	}
	return forced
}

// AcknowledgeReplay records that id wants to play again after game over.
func (g *Instance) AcknowledgeReplay(id string) (bool, error) {
	if err := g.acknowledge(id, PhaseGameOver); err != nil {
		return false, err
	}
	return g.allReady(), nil
}

// CloseRound settles a round every player has acknowledged. The game ends
// when anyone has reached the points limit.
func (g *Instance) CloseRound() (RoundSummary, error) {
	if g.phase != PhaseRoundOver {
		return RoundSummary{}, fmt.Errorf("%w: %s", ErrWrongPhase, g.phase)
	}
	if g.settled {
		return RoundSummary{}, fmt.Errorf("%w: round %d already closed", ErrWrongPhase, g.round)
	}
	if !g.allReady() {
		return RoundSummary{}, fmt.Errorf("%w: %d of %d players ready", ErrWrongPhase, g.ReadyCount(), len(g.players))
	}
	g.ArrangeTimer.Stop()
	g.settled = true

	s := RoundSummary{
		Round:     g.round,
		Points:    g.Points(),
		LastRound: g.LastRoundPoints(),
	}
	for _, p := range g.players {
		if g.points[p.ID] >= g.maxPoints {
			s.GameOver = true
			break
		}
	}
	if s.GameOver {
		g.phase = PhaseGameOver
		g.clearReady()
		s.Standings = g.Standings()
	}
	return s, nil
}

// Standings ranks players by cumulative points, lowest first. Ties keep
// turn order.
func (g *Instance) Standings() []Standing {
	out := make([]Standing, len(g.players))
	for i, p := range g.players {
		out[i] = Standing{Player: p, Points: g.points[p.ID]}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Points < out[j].Points })
	return out
}

// StartFirstRound begins dealing once everyone has acknowledged.
func (g *Instance) StartFirstRound() error {
	if g.phase != PhaseWaiting || !g.allReady() {
		return fmt.Errorf("%w: cannot start from %s", ErrWrongPhase, g.phase)
	}
	g.beginDeal()
	return nil
}

// StartNewRound rotates the starting player and begins dealing a fresh
// deck.
func (g *Instance) StartNewRound() error {
	if g.phase != PhaseRoundOver {
		return fmt.Errorf("%w: cannot start a round from %s", ErrWrongPhase, g.phase)
	}
	g.nextRound()
	return nil
}

// Restart clears all scores after game over and begins round one again.
func (g *Instance) Restart() error {
	if g.phase != PhaseGameOver || !g.allReady() {
		return fmt.Errorf("%w: cannot restart from %s", ErrWrongPhase, g.phase)
	}
	for id := range g.points {
		g.points[id] = 0
		g.lastRound[id] = 0
	}
	g.round = 0
	g.nextRound()
	return nil
}

// DealNext deals one card. Cards go round-robin starting with the round's
// first player. Once every hand is full one card is flipped onto the pile
// and the first turn begins; done is then true.
func (g *Instance) DealNext() (done bool, err error) {
	if g.phase != PhaseDealing {
		return false, fmt.Errorf("%w: not dealing", ErrWrongPhase)
	}
	n := len(g.players)
	for range n {
		p := g.players[g.dealCursor%n]
		g.dealCursor++
		hand := g.hands[p.ID]
		if hand.Len() >= deck.HandSize {
			continue
		}
		card, err := g.deck.TakeTop()
		if err != nil {
			return false, err
		}
		return false, hand.Add(card)
	}

	card, err := g.deck.TakeTop()
	if err != nil {
		return false, err
	}
	if err := g.pile.Push(card); err != nil {
		return false, err
	}
	g.phase = PhaseTurn
	g.allowed = DrawMoves(g.deck.Remaining(), g.pile.Len())
	return true, nil
}

// DealAll deals every remaining card of the opening deal at once.
func (g *Instance) DealAll() error {
	for {
		done, err := g.DealNext()
		if err != nil || done {
			return err
		}
	}
}

// Reveal returns every player's hand once a round is over.
func (g *Instance) Reveal() (map[string][]deck.Card, error) {
	if !g.RoundOver() {
		return nil, fmt.Errorf("%w: round in progress", ErrWrongPhase)
	}
	out := make(map[string][]deck.Card, len(g.hands))
	for id, h := range g.hands {
		out[id] = h.Cards()
	}
	return out, nil
}

func (g *Instance) nextRound() {
	g.round++
	if len(g.players) > 0 {
		g.roundStarter = (g.roundStarter + 1) % len(g.players)
	}
	g.turn = g.roundStarter
	g.roundWinner = ""
	g.beginDeal()
}

func (g *Instance) beginDeal() {
	g.deck = deck.New(g.rng)
	g.pile = deck.NewDiscardPile()
	for id := range g.hands {
		g.hands[id] = deck.NewHand()
	}
	g.phase = PhaseDealing
	g.allowed = NoMoves
	g.rotations = 0
	g.settled = false
	g.turn = g.roundStarter
	g.dealCursor = g.roundStarter
	g.clearReady()
}

// winRound ends the round for p, who pays the winner's penalty and has
// nothing left to arrange.
func (g *Instance) winRound(p Player) {
	g.endRound()
	g.roundWinner = p.ID
	g.points[p.ID] -= WinPenalty
	g.lastRound[p.ID] = -WinPenalty
	g.ready[p.ID] = true
}

func (g *Instance) endRound() {
	g.phase = PhaseRoundOver
	g.allowed = NoMoves
	g.TurnTimer.Stop()
	g.clearReady()
	for id := range g.lastRound {
		g.lastRound[id] = 0
	}
}

func (g *Instance) scoreHand(id string) {
	s := combo.Score(g.hands[id].Cards())
	g.points[id] += s
	g.lastRound[id] = s
}

func (g *Instance) acknowledge(id string, want Phase) error {
	if _, ok := g.hands[id]; !ok {
		return fmt.Errorf("%w: %s", ErrPlayerNotFound, id)
	}
	if g.phase != want {
		return fmt.Errorf("%w: %s", ErrWrongPhase, g.phase)
	}
	if g.ready[id] {
		return ErrAlreadyReady
	}
	g.ready[id] = true
	return nil
}

func (g *Instance) allReady() bool {
	for _, p := range g.players {
		if !g.ready[p.ID] {
			return false
		}
	}
	return len(g.players) > 0
}

func (g *Instance) clearReady() {
	for id := range g.ready {
		delete(g.ready, id)
	}
}
