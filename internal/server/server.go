package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"

	"github.com/lox/lantern/internal/errs"
	"github.com/lox/lantern/internal/gameid"
	"github.com/lox/lantern/internal/lobby"
	"github.com/lox/lantern/internal/notify"
	"github.com/lox/lantern/internal/randutil"
	"github.com/lox/lantern/internal/statistics"
)

var (
	// ErrStatsUnavailable is returned when no statistics store is configured.
	ErrStatsUnavailable       = fmt.Errorf("%w: statistics", errs.ErrNotFound)
	ErrDeveloperRoomsDisabled = fmt.Errorf("%w: developer rooms are disabled on this server", lobby.ErrInvalidOptions)
)

// StatsReader reads a player's counters.
type StatsReader interface {
	Stats(ctx context.Context, playerID string) (statistics.PlayerStats, error)
}

// Options configures a Server.
type Options struct {
	Addr   string
	Game   GameSettings
	Logger *log.Logger

	// StatsRecorder and StatsReader may be nil to disable statistics.
	StatsRecorder statistics.Recorder
	StatsReader   StatsReader

	// Clock and Rand default to the wall clock and a time seeded source.
	Clock quartz.Clock
	Rand  *randutil.Source
	// IDs generates room codes; nil uses crypto randomness.
	IDs *gameid.Generator
}

// Server represents the WebSocket server
type Server struct {
	addr     string
	upgrader websocket.Upgrader
	logger   *log.Logger
	defaults GameSettings

	hub     *notify.Hub
	players *lobby.Players
	rooms   *lobby.Rooms
	games   *GameService
	stats   StatsReader
	metrics *Metrics

	mu          sync.RWMutex
	connections map[*Connection]struct{}
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewServer creates the server and the lobby and game service behind it.
func NewServer(opts Options) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	logger := opts.Logger.WithPrefix("server")

	hub := notify.NewHub(opts.Logger)
	players := lobby.NewPlayers()
	rooms := lobby.NewRooms(players, hub, opts.IDs, opts.Logger)
	metrics := NewMetrics()
	metrics.RegisterNotificationDrops(hub.Dropped)

	games := NewGameService(GameServiceOptions{
		Rooms:          rooms,
		Players:        players,
		Notifier:       hub,
		Stats:          opts.StatsRecorder,
		Clock:          opts.Clock,
		Rand:           opts.Rand,
		Metrics:        metrics,
		Logger:         opts.Logger,
		DealInterval:   opts.Game.DealInterval(),
		NextRoundDelay: opts.Game.NextRoundDelay(),
	})

	return &Server{
		addr: opts.Addr,
		upgrader: websocket.Upgrader{
			// Clients are terminal programs, not browsers
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger:      logger,
		defaults:    opts.Game,
		hub:         hub,
		players:     players,
		rooms:       rooms,
		games:       games,
		stats:       opts.StatsReader,
		metrics:     metrics,
		connections: make(map[*Connection]struct{}),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Games returns the game service.
func (s *Server) Games() *GameService { return s.games }

// Rooms returns the room directory.
func (s *Server) Rooms() *lobby.Rooms { return s.rooms }

// Metrics returns the server's collectors.
func (s *Server) Metrics() *Metrics { return s.metrics }

// Handler returns the HTTP routes served by the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/rooms", s.handleRooms)
	mux.Handle("/metrics", s.metrics.Handler())
	return mux
}

// Run serves until ctx is cancelled, then closes every connection.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting WebSocket server", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.Stop()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop closes all connections and stops every game timer.
func (s *Server) Stop() {
	s.cancel()
	s.games.Shutdown()

	s.mu.Lock()
	for conn := range s.connections {
		_ = conn.Close()
	}
	s.mu.Unlock()
}

// Connections returns the number of open connections.
func (s *Server) Connections() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.connections)
}

// handleWebSocket handles WebSocket upgrade requests
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	conn := NewConnection(ws, s)
	s.mu.Lock()
	s.connections[conn] = struct{}{}
	total := len(s.connections)
	s.mu.Unlock()
	s.metrics.Connections.Inc()
	s.logger.Info("Client connected", "remote", r.RemoteAddr, "total", total)

	conn.Start()
	go func() {
		<-conn.Done()
		conn.disconnect()

		s.mu.Lock()
		delete(s.connections, conn)
		total := len(s.connections)
		s.mu.Unlock()
		s.metrics.Connections.Dec()
		s.logger.Info("Client disconnected", "total", total)
	}()
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}

// handleRooms lists open public rooms as JSON.
func (s *Server) handleRooms(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(RoomListData{Rooms: s.rooms.List()}); err != nil {
		s.logger.Error("Failed to encode rooms", "error", err)
	}
}

// roomOptions fills unset room options from the server defaults.
func (s *Server) roomOptions(data CreateRoomData) (lobby.RoomOptions, error) {
	if data.DeveloperMode && !s.defaults.AllowDeveloperRooms {
		return lobby.RoomOptions{}, ErrDeveloperRoomsDisabled
	}
	opts := lobby.RoomOptions{
		Name:           data.Name,
		MaxPlayers:     data.MaxPlayers,
		MaxPoints:      data.MaxPoints,
		SecondsPerTurn: s.defaults.DefaultTurnSeconds,
		Private:        data.Private,
		JoinUninvited:  data.JoinUninvited,
		DeveloperMode:  data.DeveloperMode,
	}
	if opts.MaxPoints == 0 {
		opts.MaxPoints = s.defaults.DefaultMaxPoints
	}
	if data.SecondsPerTurn != nil {
		opts.SecondsPerTurn = *data.SecondsPerTurn
	}
	return opts, nil
}

func (s *Server) endRound(gameID string) (EndRoundData, error) {
	hands, err := s.games.EndRoundCards(gameID)
	if err != nil {
		return EndRoundData{}, err
	}
	points, err := s.games.LastRoundPoints(gameID)
	if err != nil {
		return EndRoundData{}, err
	}
	data := EndRoundData{Hands: hands, RoundPoints: points}
	if w, ok, err := s.games.RoundWinner(gameID); err == nil && ok {
		data.Winner = w.Username
	}
	return data, nil
}

func (s *Server) playerStats(ctx context.Context, playerID string) (statistics.PlayerStats, error) {
	if s.stats == nil {
		return statistics.PlayerStats{}, ErrStatsUnavailable
	}
	return s.stats.Stats(ctx, playerID)
}
