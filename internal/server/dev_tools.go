package server

import (
	"fmt"

	"github.com/lox/lantern/internal/deck"
	"github.com/lox/lantern/internal/errs"
	"github.com/lox/lantern/internal/game"
	"github.com/lox/lantern/internal/notify"
)

// ErrDeveloperModeOff rejects deck tools in an ordinary game.
var ErrDeveloperModeOff = fmt.Errorf("%w: developer mode is off for this game", errs.ErrInvalidState)

// DeckCards lists the cards left in the deck of a developer game.
func (s *GameService) DeckCards(gameID, playerID string) ([]deck.Card, error) {
	e, err := s.lockDev(gameID, playerID)
	if err != nil {
		return nil, err
	}
	defer e.mu.Unlock()
	return e.g.DeckCards()
}

// TakeFromDeck moves card out of the deck into playerID's hand.
func (s *GameService) TakeFromDeck(gameID, playerID string, card deck.Card) error {
	e, err := s.lockDev(gameID, playerID)
	if err != nil {
		return err
	}
	defer e.mu.Unlock()
	if err := e.g.TakeFromDeck(playerID, card); err != nil {
		return err
	}
	e.logger.Debug("Developer took card", "player_id", playerID, "card", card)
	s.notifier.NotifyRoom(gameID, notify.EventUpdateGameInfo)
	return nil
}

// ReturnToDeck puts card from playerID's hand back in the deck.
func (s *GameService) ReturnToDeck(gameID, playerID string, card deck.Card) error {
	e, err := s.lockDev(gameID, playerID)
	if err != nil {
		return err
	}
	defer e.mu.Unlock()
	if err := e.g.ReturnToDeck(playerID, card); err != nil {
		return err
	}
	e.logger.Debug("Developer returned card", "player_id", playerID, "card", card)
	s.notifier.NotifyRoom(gameID, notify.EventUpdateGameInfo)
	return nil
}

// GiveJoker hands playerID a Joker from the deck.
func (s *GameService) GiveJoker(gameID, playerID string) (deck.Card, error) {
	e, err := s.lockDev(gameID, playerID)
	if err != nil {
		return deck.Card{}, err
	}
	defer e.mu.Unlock()
	joker, err := e.g.GiveJoker(playerID)
	if err != nil {
		return deck.Card{}, err
	}
	e.logger.Debug("Developer took joker", "player_id", playerID, "card", joker)
	s.notifier.NotifyRoom(gameID, notify.EventUpdateGameInfo)
	return joker, nil
}

// BurnFromDeck throws away the top n cards of a developer game's deck.
func (s *GameService) BurnFromDeck(gameID, playerID string, n int) ([]deck.Card, error) {
	e, err := s.lockDev(gameID, playerID)
	if err != nil {
		return nil, err
	}
	defer e.mu.Unlock()
	burned, err := e.g.BurnFromDeck(playerID, n)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("Developer burned cards", "player_id", playerID, "count", len(burned), "deck_remaining", e.g.DeckRemaining())
	s.notifier.NotifyRoom(gameID, notify.EventUpdateGameInfo)
	return burned, nil
}

// lockDev locks a developer game that playerID takes part in.
func (s *GameService) lockDev(gameID, playerID string) (*gameEntry, error) {
	e, err := s.lock(gameID)
	if err != nil {
		return nil, err
	}
	if !e.dev {
		e.mu.Unlock()
		return nil, ErrDeveloperModeOff
	}
	if _, ok := e.g.Player(playerID); !ok {
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", game.ErrPlayerNotFound, playerID)
	}
	return e, nil
}
