package server

import (
	"github.com/lox/lantern/internal/game"
	"github.com/lox/lantern/internal/notify"
	"github.com/lox/lantern/internal/statistics"
)

// Everything in this file runs with the game's mutex held.

// deal runs the opening deal of a round, paced by the clock when a deal
// interval is configured.
func (s *GameService) deal(e *gameEntry) {
	if s.dealInterval > 0 {
		s.armDeal(e)
		return
	}
	if err := e.g.DealAll(); err != nil {
		e.logger.Error("Deal failed", "error", err)
		return
	}
	s.dealt(e)
}

func (s *GameService) armDeal(e *gameEntry) {
	gameID := e.g.ID()
	e.g.DealTimer.Arm(s.dealInterval, func(gen uint64) {
		s.onDealTick(gameID, gen)
	})
}

func (s *GameService) onDealTick(gameID string, gen uint64) {
	e, err := s.lock(gameID)
	if err != nil {
		return
	}
	defer e.mu.Unlock()
	if !e.g.DealTimer.Claim(gen) {
		return
	}

	done, err := e.g.DealNext()
	if err != nil {
		e.logger.Error("Deal failed", "error", err)
		return
	}
	if done {
		s.dealt(e)
		return
	}
	s.notifier.NotifyRoom(gameID, notify.EventUpdateGameInfo)
	s.armDeal(e)
}

func (s *GameService) dealt(e *gameEntry) {
	e.logger.Debug("Cards dealt", "round", e.g.Round(), "deck_remaining", e.g.DeckRemaining())
	s.notifier.NotifyRoom(e.g.ID(), notify.EventCardsDealt)
	s.startTurn(e)
}

// startTurn announces the acting player and arms the turn timer.
func (s *GameService) startTurn(e *gameEntry) {
	gameID := e.g.ID()
	s.notifier.NotifyRoom(gameID, notify.EventUpdateGameInfo)

	p, ok := e.g.CurrentPlayer()
	if !ok {
		return
	}
	s.notifyPlayer(p.ID, notify.EventMyTurn)
	s.notifyOthers(gameID, p.ID, notify.EventNextPlayerTurn)

	d := e.g.TurnDuration()
	if d == 0 {
		return
	}
	e.g.TurnTimer.Arm(d, func(gen uint64) {
		s.onTurnTimeout(gameID, gen)
	})
}

func (s *GameService) onTurnTimeout(gameID string, gen uint64) {
	e, err := s.lock(gameID)
	if err != nil {
		return
	}
	defer e.mu.Unlock()
	if !e.g.TurnTimer.Claim(gen) {
		return
	}

	res, err := e.g.TimeoutTurn()
	if err != nil {
		e.logger.Error("Turn timeout failed", "error", err)
		return
	}
	if res.Skipped {
		s.metrics.TurnTimeouts.WithLabelValues("skipped").Inc()
		e.logger.Info("Turn skipped", "player_id", res.Player.ID)
		s.notifyPlayer(res.Player.ID, notify.EventTurnSkipped)
	} else {
		s.metrics.TurnTimeouts.WithLabelValues("auto_discard").Inc()
		e.logger.Info("Auto discarded", "player_id", res.Player.ID, "card", res.Card)
		s.notifyPlayer(res.Player.ID, notify.EventAutoDiscarded)
	}
	s.afterTurn(e, res)
}

// afterTurn moves play on after a discard or a timed out turn.
func (s *GameService) afterTurn(e *gameEntry, res game.TurnResult) {
	switch res.Outcome {
	case game.OutcomeNextTurn:
		s.startTurn(e)
	case game.OutcomeRoundWon:
		e.logger.Info("Round won", "round", e.g.Round(), "player_id", res.Player.ID)
		s.notifier.NotifyRoom(e.g.ID(), notify.EventRoundWon)
		s.roundOver(e, res.Outcome)
	case game.OutcomeDeckExhausted:
		e.logger.Info("Deck exhausted", "round", e.g.Round())
		s.roundOver(e, res.Outcome)
	}
}

// roundOver opens the arrangement window, closed early once everyone has
// acknowledged.
func (s *GameService) roundOver(e *gameEntry, outcome game.Outcome) {
	gameID := e.g.ID()
	s.metrics.Rounds.WithLabelValues(outcome.String()).Inc()
	s.notifier.NotifyRoom(gameID, notify.EventUpdateGameInfo)
	s.notifier.NotifyRoom(gameID, notify.EventRoundOver)

	d := e.g.TurnDuration()
	if d == 0 {
		return
	}
	e.g.ArrangeTimer.Arm(d, func(gen uint64) {
		s.onArrangeTimeout(gameID, gen)
	})
}

func (s *GameService) onArrangeTimeout(gameID string, gen uint64) {
	e, err := s.lock(gameID)
	if err != nil {
		return
	}
	defer e.mu.Unlock()
	if !e.g.ArrangeTimer.Claim(gen) {
		return
	}

	for _, p := range e.g.ForceAcknowledgeRound() {
		s.notifyPlayer(p.ID, notify.EventForceFinishArranging)
	}
	s.notifier.NotifyRoom(gameID, notify.EventPlayersReadyChanged)
	s.closeRound(e)
}

// closeRound settles a fully acknowledged round and either ends the game
// or schedules the next deal.
func (s *GameService) closeRound(e *gameEntry) {
	gameID := e.g.ID()
	sum, err := e.g.CloseRound()
	if err != nil {
		e.logger.Error("Failed to close round", "error", err)
		return
	}
	e.logger.Info("Round closed", "round", sum.Round, "points", sum.Points, "game_over", sum.GameOver)

	if sum.GameOver {
		s.finishGame(e, sum)
		return
	}

	s.notifier.NotifyRoom(gameID, notify.EventRoundResults)
	if s.nextRoundDelay <= 0 {
		s.startNextRound(e)
		return
	}
	e.g.NextRoundTimer.Arm(s.nextRoundDelay, func(gen uint64) {
		s.onNextRound(gameID, gen)
	})
}

func (s *GameService) onNextRound(gameID string, gen uint64) {
	e, err := s.lock(gameID)
	if err != nil {
		return
	}
	defer e.mu.Unlock()
	if !e.g.NextRoundTimer.Claim(gen) {
		return
	}
	s.startNextRound(e)
}

func (s *GameService) startNextRound(e *gameEntry) {
	if err := e.g.StartNewRound(); err != nil {
		e.logger.Error("Failed to start round", "error", err)
		return
	}
	s.notifier.NotifyRoom(e.g.ID(), notify.EventNewRoundStarting)
	s.deal(e)
}

func (s *GameService) finishGame(e *gameEntry, sum game.RoundSummary) {
	s.metrics.GamesFinished.Inc()
	s.notifier.NotifyRoom(e.g.ID(), notify.EventGameOver)

	standings := sum.Standings
	if len(standings) == 0 {
		return
	}
	first, last := standings[0], standings[len(standings)-1]
	e.logger.Info("Game over", "winner", first.Player.ID, "points", first.Points, "last", last.Player.ID)

	for _, st := range standings {
		s.record(st.Player.ID, statistics.GamesFinished)
	}
	s.record(first.Player.ID, statistics.GamesWon)
	s.record(last.Player.ID, statistics.GamesPlacedLast)
	s.notifyPlayer(first.Player.ID, notify.EventPlacedFirst)
	s.notifyPlayer(last.Player.ID, notify.EventPlacedLast)
}

func (s *GameService) replay(e *gameEntry) {
	if err := e.g.Restart(); err != nil {
		e.logger.Error("Failed to restart", "error", err)
		return
	}
	s.metrics.GamesStarted.Inc()
	for _, p := range e.g.Players() {
		s.record(p.ID, statistics.GamesStarted)
	}
	e.logger.Info("Game restarted")
	s.notifier.NotifyRoom(e.g.ID(), notify.EventNewRoundStarting)
	s.deal(e)
}

// resume completes a checkpoint that a departed player was holding up.
func (s *GameService) resume(e *gameEntry) {
	if e.g.ReadyCount() < len(e.g.Players()) {
		return
	}
	switch e.g.Phase() {
	case game.PhaseWaiting:
		s.notifier.NotifyRoom(e.g.ID(), notify.EventAllPlayersReady)
		if err := e.g.StartFirstRound(); err != nil {
			e.logger.Error("Failed to start", "error", err)
			return
		}
		s.deal(e)
	case game.PhaseRoundOver:
		if e.g.RoundSettled() {
			return
		}
		s.closeRound(e)
	case game.PhaseGameOver:
		s.replay(e)
	}
}
