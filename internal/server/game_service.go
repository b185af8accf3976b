package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/lantern/internal/deck"
	"github.com/lox/lantern/internal/errs"
	"github.com/lox/lantern/internal/game"
	"github.com/lox/lantern/internal/lobby"
	"github.com/lox/lantern/internal/notify"
	"github.com/lox/lantern/internal/randutil"
	"github.com/lox/lantern/internal/statistics"
)

var (
	ErrGameNotFound   = fmt.Errorf("%w: game", errs.ErrNotFound)
	ErrGameExists     = fmt.Errorf("%w: game already running", errs.ErrDuplicate)
	ErrGameNotStarted = fmt.Errorf("%w: room has not started a game", errs.ErrInvalidState)
)

// RoomDirectory is the part of the lobby the game service needs.
type RoomDirectory interface {
	Room(id string) (lobby.Room, error)
	StartGame(roomID, byPlayerID string) (lobby.Room, error)
	CancelGame(roomID string) error
	RemovePlayer(playerID, roomID string, deleteIfOwnerLeft bool) error
	DeleteRoom(roomID string) error
}

// PlayerDirectory resolves players to their current connection.
type PlayerDirectory interface {
	Player(id string) (lobby.Player, error)
}

// GameServiceOptions wires a GameService.
type GameServiceOptions struct {
	Rooms    RoomDirectory
	Players  PlayerDirectory
	Notifier notify.Notifier
	// Stats may be nil to record nothing.
	Stats   statistics.Recorder
	Clock   quartz.Clock
	Rand    *randutil.Source
	Metrics *Metrics
	Logger  *log.Logger

	// DealInterval paces the opening deal one card at a time; zero deals
	// every card at once.
	DealInterval   time.Duration
	NextRoundDelay time.Duration
}

// GameService owns every running game. Each game is guarded by its own
// mutex, which every action, query and timer callback holds while it
// touches the instance.
type GameService struct {
	mu    sync.RWMutex
	games map[string]*gameEntry

	rooms    RoomDirectory
	players  PlayerDirectory
	notifier notify.Notifier
	stats    statistics.Recorder
	clock    quartz.Clock
	rand     *randutil.Source
	metrics  *Metrics
	logger   *log.Logger

	dealInterval   time.Duration
	nextRoundDelay time.Duration
}

type gameEntry struct {
	mu     sync.Mutex
	g      *game.Instance
	closed bool
	// dev enables the deck tools, copied from the room at creation.
	dev    bool
	logger *log.Logger
}

// NewGameService creates a service with no running games.
func NewGameService(opts GameServiceOptions) *GameService {
	if opts.Clock == nil {
		opts.Clock = quartz.NewReal()
	}
	if opts.Rand == nil {
		opts.Rand = randutil.NewSource(0)
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics()
	}
	return &GameService{
		games:          make(map[string]*gameEntry),
		rooms:          opts.Rooms,
		players:        opts.Players,
		notifier:       opts.Notifier,
		stats:          opts.Stats,
		clock:          opts.Clock,
		rand:           opts.Rand,
		metrics:        opts.Metrics,
		logger:         opts.Logger.WithPrefix("game"),
		dealInterval:   opts.DealInterval,
		nextRoundDelay: opts.NextRoundDelay,
	}
}

// StartGame starts byPlayerID's full room and creates its game. The room
// goes back to waiting if the game cannot be created.
func (s *GameService) StartGame(roomID, byPlayerID string) error {
	if _, err := s.rooms.StartGame(roomID, byPlayerID); err != nil {
		return err
	}
	if err := s.EnterGame(roomID); err != nil {
		if cerr := s.rooms.CancelGame(roomID); cerr != nil {
			s.logger.Error("Failed to reopen room", "room_id", roomID, "error", cerr)
		}
		return err
	}
	return nil
}

// EnterGame creates the game for a room that has just started. Players
// then load in and acknowledge with PlayerReady.
func (s *GameService) EnterGame(gameID string) error {
	room, err := s.rooms.Room(gameID)
	if err != nil {
		return err
	}
	if !room.InGame {
		return fmt.Errorf("%w %s", ErrGameNotStarted, gameID)
	}

	players := make([]game.Player, 0, len(room.Players))
	for _, id := range room.Players {
		p, err := s.players.Player(id)
		if err != nil {
			return err
		}
		players = append(players, game.Player{ID: p.ID, Username: p.Username})
	}

	s.mu.Lock()
	if _, ok := s.games[gameID]; ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrGameExists, gameID)
	}
	g, err := game.New(game.Options{
		ID:             gameID,
		Players:        players,
		MaxPoints:      room.MaxPoints,
		SecondsPerTurn: room.SecondsPerTurn,
		Rand:           s.rand.Next(),
		Clock:          s.clock,
	})
	if err != nil {
		s.mu.Unlock()
		return err
	}
	e := &gameEntry{g: g, dev: room.DeveloperMode, logger: s.logger.With("game_id", gameID)}
	s.games[gameID] = e
	s.mu.Unlock()

	s.metrics.GamesActive.Inc()
	s.metrics.GamesStarted.Inc()
	e.logger.Info("Game created", "players", len(players), "max_points", room.MaxPoints, "seconds_per_turn", room.SecondsPerTurn, "developer_mode", e.dev)

	s.notifier.NotifyRoom(gameID, notify.EventGameStarting)
	for _, p := range players {
		s.record(p.ID, statistics.GamesStarted)
	}
	return nil
}

// PlayerReady acknowledges that playerID has loaded the game. The first
// deal starts once everyone has.
func (s *GameService) PlayerReady(gameID, playerID string) error {
	e, err := s.lock(gameID)
	if err != nil {
		return err
	}
	defer e.mu.Unlock()

	all, err := e.g.AcknowledgeStart(playerID)
	if err != nil {
		return err
	}
	s.notifier.NotifyRoom(gameID, notify.EventPlayersReadyChanged)
	if !all {
		return nil
	}

	s.notifier.NotifyRoom(gameID, notify.EventAllPlayersReady)
	if err := e.g.StartFirstRound(); err != nil {
		return err
	}
	s.deal(e)
	return nil
}

// DrawFromDeck draws the top card of the deck for the acting player.
func (s *GameService) DrawFromDeck(gameID, playerID string) (deck.Card, error) {
	e, err := s.lock(gameID)
	if err != nil {
		return deck.Card{}, err
	}
	defer e.mu.Unlock()

	card, err := e.g.DrawFromDeck(playerID)
	if err != nil {
		return deck.Card{}, err
	}
	e.logger.Debug("Drew from deck", "player_id", playerID)
	s.notifier.NotifyRoom(gameID, notify.EventUpdateGameInfo)
	return card, nil
}

// DrawFromDiscard takes the visible discard for the acting player.
func (s *GameService) DrawFromDiscard(gameID, playerID string) (deck.Card, error) {
	e, err := s.lock(gameID)
	if err != nil {
		return deck.Card{}, err
	}
	defer e.mu.Unlock()

	card, err := e.g.DrawFromDiscard(playerID)
	if err != nil {
		return deck.Card{}, err
	}
	e.logger.Debug("Drew from discard pile", "player_id", playerID, "card", card)
	s.notifier.NotifyRoom(gameID, notify.EventUpdateGameInfo)
	return card, nil
}

// Discard ends the acting player's turn by discarding card.
func (s *GameService) Discard(gameID, playerID string, card deck.Card) error {
	e, err := s.lock(gameID)
	if err != nil {
		return err
	}
	defer e.mu.Unlock()

	res, err := e.g.Discard(playerID, card)
	if err != nil {
		return err
	}
	s.afterTurn(e, res)
	return nil
}

// LightUp declares a win for the acting player, discarding card.
func (s *GameService) LightUp(gameID, playerID string, card deck.Card) error {
	e, err := s.lock(gameID)
	if err != nil {
		return err
	}
	defer e.mu.Unlock()

	res, err := e.g.LightUp(playerID, card)
	if err != nil {
		return err
	}
	s.afterTurn(e, res)
	return nil
}

// RearrangeHand reorders playerID's cards.
func (s *GameService) RearrangeHand(gameID, playerID string, order []deck.Card) error {
	e, err := s.lock(gameID)
	if err != nil {
		return err
	}
	defer e.mu.Unlock()

	if err := e.g.Rearrange(playerID, order); err != nil {
		return err
	}
	if e.g.IsTurn(playerID) {
		s.notifyPlayer(playerID, notify.EventUpdateGameInfo)
	}
	return nil
}

// RoundOverPlayerReady acknowledges that playerID has finished arranging
// after a round ended, scoring their hand as it stands.
func (s *GameService) RoundOverPlayerReady(gameID, playerID string) error {
	e, err := s.lock(gameID)
	if err != nil {
		return err
	}
	defer e.mu.Unlock()

	all, err := e.g.AcknowledgeRound(playerID)
	if err != nil {
		return err
	}
	s.notifier.NotifyRoom(gameID, notify.EventPlayersReadyChanged)
	if all {
		s.closeRound(e)
	}
	return nil
}

// GameOverPlayerReplay acknowledges that playerID wants a rematch. When
// everyone does, scores reset and round one is dealt.
func (s *GameService) GameOverPlayerReplay(gameID, playerID string) error {
	e, err := s.lock(gameID)
	if err != nil {
		return err
	}
	defer e.mu.Unlock()

	all, err := e.g.AcknowledgeReplay(playerID)
	if err != nil {
		return err
	}
	s.notifier.NotifyRoom(gameID, notify.EventPlayersReadyChanged)
	if all {
		s.replay(e)
	}
	return nil
}

// LeaveGame takes playerID out of a running game and its room. A game left
// with too few players is dropped.
func (s *GameService) LeaveGame(gameID, playerID string) error {
	e, err := s.lock(gameID)
	if err != nil {
		return err
	}
	defer e.mu.Unlock()

	rem, err := e.g.RemovePlayer(playerID)
	if err != nil {
		return err
	}
	e.logger.Info("Player left", "player_id", playerID, "remaining", rem.Remaining)
	s.record(playerID, statistics.GamesLeft)

	if err := s.rooms.RemovePlayer(playerID, gameID, false); err != nil {
		e.logger.Warn("Failed to remove player from room", "player_id", playerID, "error", err)
	}
	s.notifier.NotifyRoom(gameID, notify.EventPlayerLeft)

	if rem.Remaining < game.MinPlayers {
		s.drop(e, "not enough players")
		return nil
	}
	s.notifier.NotifyRoom(gameID, notify.EventUpdateGameInfo)
	if rem.WasTurn {
		s.startTurn(e)
		return nil
	}
	s.resume(e)
	return nil
}

// DropGame abandons the game for everyone and deletes its room.
func (s *GameService) DropGame(gameID, playerID string) error {
	e, err := s.lock(gameID)
	if err != nil {
		return err
	}
	defer e.mu.Unlock()

	if _, ok := e.g.Player(playerID); !ok {
		return fmt.Errorf("%w: %s", game.ErrPlayerNotFound, playerID)
	}
	s.record(playerID, statistics.GamesLeft)
	s.drop(e, "dropped by "+playerID)
	return nil
}

// Active returns the number of running games.
func (s *GameService) Active() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.games)
}

// Shutdown stops every game's timers.
func (s *GameService) Shutdown() {
	s.mu.Lock()
	entries := make([]*gameEntry, 0, len(s.games))
	for id, e := range s.games {
		entries = append(entries, e)
		delete(s.games, id)
	}
	s.mu.Unlock()

	for _, e := range entries {
		e.mu.Lock()
		e.closed = true
		e.g.Close()
		e.mu.Unlock()
	}
	s.metrics.GamesActive.Set(0)
}

// lock returns gameID's entry with its mutex held.
func (s *GameService) lock(gameID string) (*gameEntry, error) {
	s.mu.RLock()
	e, ok := s.games[gameID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %s", ErrGameNotFound, gameID)
	}
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, fmt.Errorf("%w %s", ErrGameNotFound, gameID)
	}
	return e, nil
}

// drop ends the game for everyone. Caller holds e.mu.
func (s *GameService) drop(e *gameEntry, reason string) {
	gameID := e.g.ID()
	e.closed = true
	e.g.Close()

	s.mu.Lock()
	delete(s.games, gameID)
	s.mu.Unlock()

	s.metrics.GamesActive.Dec()
	s.metrics.GamesDropped.Inc()
	e.logger.Info("Game dropped", "reason", reason)

	s.notifier.NotifyRoom(gameID, notify.EventGameDropped)
	if err := s.rooms.DeleteRoom(gameID); err != nil && !errors.Is(err, errs.ErrNotFound) {
		e.logger.Warn("Failed to delete room", "error", err)
	}
}

func (s *GameService) record(playerID string, c statistics.Counter) {
	if s.stats == nil {
		return
	}
	if err := s.stats.Record(context.Background(), playerID, c); err != nil {
		s.logger.Warn("Failed to record statistic", "player_id", playerID, "counter", c, "error", err)
	}
}

func (s *GameService) notifyPlayer(playerID string, ev notify.Event) {
	p, err := s.players.Player(playerID)
	if err != nil || !p.Online() {
		return
	}
	s.notifier.NotifyPlayer(p.InstanceID, ev)
}

func (s *GameService) notifyOthers(gameID, playerID string, ev notify.Event) {
	p, err := s.players.Player(playerID)
	if err != nil || !p.Online() {
		s.notifier.NotifyRoom(gameID, ev)
		return
	}
	s.notifier.NotifyRoomExcept(gameID, p.InstanceID, ev)
}
