package client

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lox/lantern/internal/combo"
	"github.com/lox/lantern/internal/deck"
	"github.com/lox/lantern/internal/game"
	"github.com/lox/lantern/internal/server"
)

var cellStyle = lipgloss.NewStyle().Width(4)

// RenderCard colours a card by suit.
func RenderCard(c deck.Card) string {
	switch {
	case c.IsJoker():
		return JokerStyle.Render(c.String())
	case c.Suit.IsRed():
		return RedCardStyle.Render(c.String())
	default:
		return BlackCardStyle.Render(c.String())
	}
}

// RenderCards renders cards separated by spaces.
func RenderCards(cards []deck.Card) string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = RenderCard(c)
	}
	return strings.Join(out, " ")
}

// RenderHand lays the hand out with detected groups boxed and each card
// numbered by its position, which is what the discard and move commands
// take.
func RenderHand(cards []deck.Card) string {
	var blocks []string
	pos := 1
	for _, g := range combo.Detect(cards) {
		labels := make([]string, len(g.Cards))
		faces := make([]string, len(g.Cards))
		for i, c := range g.Cards {
			labels[i] = cellStyle.Render(fmt.Sprint(pos))
			faces[i] = cellStyle.Render(RenderCard(c))
			pos++
		}
		body := strings.Join(faces, "") + "\n" + InfoStyle.Render(strings.Join(labels, ""))
		style := LooseStyle
		if g.Counts() {
			style = GroupStyle
		}
		blocks = append(blocks, style.Render(body))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, blocks...)
}

// RenderInfo summarises a game for the terminal.
func RenderInfo(info server.GameInfo, selfID string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", HeaderStyle.Render(fmt.Sprintf("Room %s  round %d  %s", info.GameID, info.Round, info.Phase)))
	for _, p := range info.Players {
		marker := "  "
		if p.ID == info.CurrentPlayer {
			marker = TurnStyle.Render("> ")
		}
		name := p.Username
		if p.ID == selfID {
			name += " (you)"
		}
		ready := ""
		if p.Ready {
			ready = SuccessStyle.Render(" ready")
		}
		fmt.Fprintf(&b, "%s%-20s %2d cards %4d points%s\n", marker, name, p.Cards, p.Points, ready)
	}

	top := "empty"
	if info.DiscardTop != nil {
		if c, err := deck.CardFromID(*info.DiscardTop); err == nil {
			top = RenderCard(c)
		}
	}
	fmt.Fprintf(&b, "Deck %d  Discard %s\n", info.DeckRemaining, top)

	if hand, err := deck.CardsFromIDs(info.Hand); err == nil && len(hand) > 0 {
		fmt.Fprintf(&b, "%s\n", RenderHand(hand))
	}
	if moves := RenderMoves(info.Allowed); moves != "" {
		fmt.Fprintf(&b, "%s\n", TurnStyle.Render("Your move: "+moves))
	}
	return b.String()
}

// RenderMoves lists the commands the allowed moves permit.
func RenderMoves(m game.AllowedMoves) string {
	var cmds []string
	if m.DrawFromDeck {
		cmds = append(cmds, "draw")
	}
	if m.DrawFromDiscard {
		cmds = append(cmds, "take")
	}
	if m.Discard {
		cmds = append(cmds, "discard <n>")
	}
	if m.LightUp {
		cmds = append(cmds, "lightup <n>")
	}
	return strings.Join(cmds, ", ")
}
