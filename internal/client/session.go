package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/lox/lantern/internal/deck"
	"github.com/lox/lantern/internal/server"
)

// Config holds the interactive client settings.
type Config struct {
	Server   string
	Name     string
	PlayerID string
}

const helpText = `Commands:
  rooms                         list open rooms
  create <name> <players> [max points] [seconds per turn]
  join <room>                   take a seat
  room                          show your room
  say <message> | chat          talk to the room, show the chat
  invite <player id>            invite a player to your room
  invites | decline <room>      show or decline invites
  start                         start the game (owner, full room)
  ready                         ready for the first deal
  draw | take                   draw from the deck or the discard pile
  discard <n> | lightup <n>     discard the card at position n
  move <from> <to>              rearrange your hand
  done                          finished arranging after a round
  results                       show everyone's cards after a round
  replay                        play again after game over
  info | stats | leave | drop | quit`

// errQuit ends the session.
var errQuit = errors.New("quit")

// Session is an interactive terminal session.
type Session struct {
	client *Client
	out    io.Writer
	logger *log.Logger

	mu   sync.Mutex
	hand []deck.Card
}

// Run connects to the server and reads commands from in until EOF, quit or
// ctx cancellation.
func Run(ctx context.Context, cfg Config, in io.Reader, out io.Writer, logger *log.Logger) error {
	c := New(cfg.Server, logger)
	if err := c.Dial(ctx); err != nil {
		return err
	}
	defer c.Close()

	connected, err := c.Connect(ctx, cfg.Name, cfg.PlayerID)
	if err != nil {
		return err
	}
	s := &Session{client: c, out: out, logger: logger}
	s.printf("%s\n", SuccessStyle.Render(fmt.Sprintf("Connected as %s (%s)", connected.Username, connected.PlayerID)))
	s.printf("%s\n", InfoStyle.Render("Type help for commands."))

	go s.watchEvents(ctx)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.Done():
			return errors.New("connection closed by server")
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			err := s.Execute(ctx, line)
			switch {
			case errors.Is(err, errQuit):
				return nil
			case err != nil:
				s.printf("%s\n", ErrorStyle.Render(err.Error()))
			}
		}
	}
}

// Execute runs one command line.
func (s *Session) Execute(ctx context.Context, line string) error {
	cmd, args := parseCommand(line)
	c := s.client

	switch cmd {
	case "":
		return nil
	case "help":
		s.printf("%s\n", helpText)
	case "quit", "exit":
		return errQuit

	case "rooms":
		rooms, err := c.ListRooms(ctx)
		if err != nil {
			return err
		}
		if len(rooms) == 0 {
			s.printf("No open rooms.\n")
		}
		for _, r := range rooms {
			s.printf("%s  %-20s %d/%d players  %d points  %ds turns\n", r.ID, r.Name, len(r.Players), r.MaxPlayers, r.MaxPoints, r.SecondsPerTurn)
		}

	case "create":
		opts, err := parseCreate(args)
		if err != nil {
			return err
		}
		room, err := c.CreateRoom(ctx, opts)
		if err != nil {
			return err
		}
		s.printf("Created room %s\n", SuccessStyle.Render(room.Room.ID))

	case "join":
		if len(args) != 1 {
			return errors.New("usage: join <room>")
		}
		room, err := c.JoinRoom(ctx, args[0])
		if err != nil {
			return err
		}
		s.printf("Joined %s (%d/%d)\n", room.Room.Name, len(room.Room.Players), room.Room.MaxPlayers)

	case "room":
		room, err := c.Room(ctx)
		if err != nil {
			return err
		}
		s.printf("%s %s owner %s players %s\n", room.Room.ID, room.Room.Name, room.Room.OwnerID, strings.Join(room.Room.Players, ", "))

	case "say":
		if len(args) == 0 {
			return errors.New("usage: say <message>")
		}
		return c.Say(ctx, strings.Join(args, " "))

	case "chat":
		chat, err := c.Chat(ctx)
		if err != nil {
			return err
		}
		for _, m := range chat {
			s.printf("%s %s: %s\n", m.Timestamp.Local().Format("15:04"), m.PlayerName, m.Message)
		}

	case "invite":
		if len(args) != 1 {
			return errors.New("usage: invite <player id>")
		}
		return c.Invite(ctx, args[0])

	case "invites":
		invites, err := c.Invites(ctx)
		if err != nil {
			return err
		}
		if len(invites) == 0 {
			s.printf("No invites.\n")
		}
		for _, inv := range invites {
			s.printf("%s  %s\n", inv.RoomID, inv.RoomName)
		}

	case "decline":
		if len(args) != 1 {
			return errors.New("usage: decline <room>")
		}
		return c.DeclineInvite(ctx, args[0])

	case "start":
		return c.Simple(ctx, server.MessageTypeStartGame)
	case "ready":
		return c.Simple(ctx, server.MessageTypePlayerReady)
	case "done":
		return c.Simple(ctx, server.MessageTypeRoundReady)
	case "replay":
		return c.Simple(ctx, server.MessageTypeReplay)
	case "leave":
		return c.Simple(ctx, server.MessageTypeLeaveGame)
	case "drop":
		return c.Simple(ctx, server.MessageTypeDropGame)

	case "draw", "take":
		card, err := c.Draw(ctx, cmd == "take")
		if err != nil {
			return err
		}
		s.printf("Drew %s\n", RenderCard(card))
		return s.showInfo(ctx)

	case "discard", "lightup":
		card, err := s.cardAt(args)
		if err != nil {
			return err
		}
		if cmd == "lightup" {
			return c.LightUp(ctx, card)
		}
		return c.Discard(ctx, card)

	case "move":
		if len(args) != 2 {
			return errors.New("usage: move <from> <to>")
		}
		from, err1 := strconv.Atoi(args[0])
		to, err2 := strconv.Atoi(args[1])
		if err := errors.Join(err1, err2); err != nil {
			return fmt.Errorf("positions must be numbers: %w", err)
		}
		s.mu.Lock()
		order, err := moveCard(s.hand, from, to)
		s.mu.Unlock()
		if err != nil {
			return err
		}
		if err := c.Rearrange(ctx, order); err != nil {
			return err
		}
		return s.showInfo(ctx)

	case "info":
		return s.showInfo(ctx)

	case "results":
		data, err := c.EndRound(ctx)
		if err != nil {
			return err
		}
		for id, h := range data.Hands {
			cards, err := deck.CardsFromIDs(h.Cards)
			if err != nil {
				return err
			}
			marker := ""
			if data.Winner != "" && h.Username == data.Winner {
				marker = TurnStyle.Render(" lit up")
			}
			s.printf("%s%s  %+d\n%s\n", h.Username, marker, data.RoundPoints[id], RenderHand(cards))
		}

	case "stats":
		data, err := c.Stats(ctx)
		if err != nil {
			return err
		}
		st := data.Stats
		s.printf("Started %d  finished %d  won %d  placed last %d  left %d\n",
			st.GamesStarted, st.GamesFinished, st.GamesWon, st.GamesPlacedLast, st.GamesLeft)

	default:
		return fmt.Errorf("unknown command %q, try help", cmd)
	}
	return nil
}

func (s *Session) watchEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.client.Done():
			return
		case ev := <-s.client.Events:
			s.logger.Debug("Event", "event", ev.Event)
			switch ev.Event {
			case "cards_dealt", "my_turn", "round_over", "new_round_starting", "round_results", "game_over":
				s.printf("%s\n", InfoStyle.Render("* "+strings.ReplaceAll(ev.Event, "_", " ")))
				if err := s.showInfo(ctx); err != nil {
					s.logger.Debug("Failed to refresh", "error", err)
				}
			case "update_game_info", "refresh_rooms":
			default:
				s.printf("%s\n", InfoStyle.Render("* "+strings.ReplaceAll(ev.Event, "_", " ")))
			}
		}
	}
}

func (s *Session) showInfo(ctx context.Context) error {
	info, err := s.client.GameInfo(ctx)
	if err != nil {
		return err
	}
	hand, err := deck.CardsFromIDs(info.Hand)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.hand = hand
	s.mu.Unlock()
	s.printf("%s", RenderInfo(info, s.client.PlayerID()))
	return nil
}

// cardAt resolves a 1-based hand position from the last shown hand.
func (s *Session) cardAt(args []string) (deck.Card, error) {
	if len(args) != 1 {
		return deck.Card{}, errors.New("give a card position")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return deck.Card{}, fmt.Errorf("position must be a number: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < 1 || n > len(s.hand) {
		return deck.Card{}, fmt.Errorf("position %d out of range 1-%d", n, len(s.hand))
	}
	return s.hand[n-1], nil
}

func (s *Session) printf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, format, args...)
}

func parseCommand(line string) (string, []string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	return strings.ToLower(fields[0]), fields[1:]
}

func parseCreate(args []string) (server.CreateRoomData, error) {
	if len(args) < 2 || len(args) > 4 {
		return server.CreateRoomData{}, errors.New("usage: create <name> <players> [max points] [seconds per turn]")
	}
	nums := make([]int, 0, 3)
	for _, a := range args[1:] {
		n, err := strconv.Atoi(a)
		if err != nil {
			return server.CreateRoomData{}, fmt.Errorf("%q is not a number", a)
		}
		nums = append(nums, n)
	}
	opts := server.CreateRoomData{Name: args[0], MaxPlayers: nums[0]}
	if len(nums) > 1 {
		opts.MaxPoints = nums[1]
	}
	if len(nums) > 2 {
		opts.SecondsPerTurn = &nums[2]
	}
	return opts, nil
}

// moveCard returns a copy of cards with the card at 1-based position from
// moved to position to.
func moveCard(cards []deck.Card, from, to int) ([]deck.Card, error) {
	n := len(cards)
	if from < 1 || from > n || to < 1 || to > n {
		return nil, fmt.Errorf("positions must be 1-%d", n)
	}
	out := slices.Clone(cards)
	c := out[from-1]
	out = slices.Delete(out, from-1, from)
	out = slices.Insert(out, to-1, c)
	return out, nil
}
