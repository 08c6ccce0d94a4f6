package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"math/rand"
	"strconv"
	"time"

	"crazyeights/internal/app"
	"crazyeights/internal/bot"
	"crazyeights/internal/config"
	"crazyeights/internal/domain"
	"crazyeights/internal/ports"
	"crazyeights/wire"

	"github.com/heroiclabs/nakama-common/runtime"
)

// MatchState holds the authoritative runtime state for the Nakama match handler.
type MatchState struct {
	Seats          [2]string                   `json:"seats"`            // seat 0 is the human, seat 1 the opponent bot
	Tick           int64                       `json:"tick"`             // current tick, drives the opponent timer
	Stake          int64                       `json:"stake"`            // wager locked in at deal time
	BotDelay       int64                       `json:"bot_delay"`        // ticks the opponent deliberates before acting
	BotActAtTick   int64                       `json:"bot_act_at_tick"`  // tick when the armed opponent move fires (0 = unarmed)
	BotPlanVersion uint64                      `json:"bot_plan_version"` // game version the armed move was planned against
	Presences      map[string]runtime.Presence `json:"-"`                // map UserId -> Presence for targeted messaging
	App            *app.Service                `json:"-"`                // use-case service with the game logic
	Game           *domain.Game                `json:"-"`                // current game state (nil before the first deal)
	History        *app.History                `json:"-"`                // undo snapshots
	Agent          *bot.Agent                  `json:"-"`                // the seated opponent
	Economy        ports.EconomyPort           `json:"-"`                // interface to Nakama wallet
	Results        ports.ResultPort            `json:"-"`                // finished-game record storage
	Receipts       *app.ReceiptService         `json:"-"`                // signed result receipts (nil when unconfigured)
}

// seatOf returns the seat the user occupies, or SeatNone.
func (ms *MatchState) seatOf(userID string) domain.Seat {
	for i, uid := range ms.Seats {
		if uid != "" && uid == userID {
			return domain.Seat(i)
		}
	}
	return domain.SeatNone
}

// isBotUserId reports whether the given user id represents a bot seat.
func isBotUserId(userId string) bool {
	return bot.IsBot(userId)
}

// findHumanSeat returns the seat index with a human occupant or -1 if none exists.
func findHumanSeat(seats []string) int {
	for i, userId := range seats {
		if userId != "" && !isBotUserId(userId) {
			return i
		}
	}
	return -1
}

// shouldTerminateNoHumans returns true when there are no humans in the match.
func shouldTerminateNoHumans(seats []string) bool {
	return findHumanSeat(seats) == -1
}

// displayNameFor resolves a user's display name from their presence, the bot
// pool, or the raw id as a last resort.
func displayNameFor(state *MatchState, userID string) string {
	if p, ok := state.Presences[userID]; ok {
		return p.GetUsername()
	}
	if name := bot.GetBotDisplayName(userID); name != "" {
		return name
	}
	return userID
}

func buildLabel(state *MatchState) string {
	phase := labelPhaseLobby
	if state.Game != nil {
		if state.Game.Phase == domain.PhaseFinished {
			phase = labelPhaseEnded
		} else {
			phase = labelPhasePlaying
		}
	}
	b, _ := json.Marshal(wire.Label{
		Open:  state.Seats[domain.SeatHuman] == "",
		Game:  labelGameName,
		Phase: phase,
	})
	return string(b)
}

type matchHandler struct{}

func newMatchHandler() *matchHandler {
	return &matchHandler{}
}

// MatchInit is called when the match is created. The opponent is seated here
// from the identity pool so the lobby only ever waits for the one human.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	logger.Debug("MatchInit: Initializing match handler.")

	if err := bot.LoadIdentities("data/bot_identities.json"); err != nil {
		logger.Warn("MatchInit: Could not load bot identities: %v", err)
	}
	if err := config.LoadGameConfig("data/game_config.json"); err != nil {
		logger.Warn("MatchInit: Could not load game config: %v", err)
	}

	state := &MatchState{
		Presences: make(map[string]runtime.Presence),
		App:       app.NewService(nil),
		History:   app.NewHistory(),
		Economy:   NewNakamaEconomyAdapter(nk),
		Results:   NewNakamaResultAdapter(nk),
	}

	identity := bot.GetBotIdentity(rand.Int())
	state.Seats[domain.SeatOpponent] = identity.UserID
	state.Agent = bot.NewAgent(identity)

	state.BotDelay = int64(config.GetBotDelaySeconds())

	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	if val, ok := env["crazyeights_bot_delay_sec"]; ok {
		if i, err := strconv.Atoi(val); err == nil && i >= 0 {
			state.BotDelay = int64(i)
		}
	}
	if secret := env["crazyeights_receipt_secret"]; secret != "" {
		issuer := env["crazyeights_receipt_issuer"]
		if issuer == "" {
			issuer = "crazyeights"
		}
		state.Receipts = app.NewReceiptService(secret, issuer)
	}

	tickRate := 1
	return state, tickRate, buildLabel(state)
}

func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}

	uid := presence.GetUserId()
	if matchState.Seats[domain.SeatHuman] == uid {
		// Rejoin, mid-game included.
		return state, true, ""
	}
	if matchState.Seats[domain.SeatHuman] != "" {
		return state, false, "match_full"
	}

	return state, true, ""
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		uid := p.GetUserId()
		matchState.Presences[uid] = p

		if matchState.Seats[domain.SeatHuman] == "" {
			matchState.Seats[domain.SeatHuman] = uid
			logger.Info("MatchJoin: User %s seated as the human player.", uid)

			mh.broadcastEvent(ctx, matchState, dispatcher, logger, app.Event{
				Kind:    app.EventPlayerJoined,
				Payload: app.PlayerJoinedPayload{UserID: uid, Seat: domain.SeatHuman},
			})
		} else if matchState.Seats[domain.SeatHuman] != uid {
			logger.Warn("MatchJoin: User %s joined but the human seat is taken.", uid)
			continue
		}

		// Introduce the seated opponent to the joiner.
		if botID := matchState.Seats[domain.SeatOpponent]; botID != "" {
			mh.broadcastEvent(ctx, matchState, dispatcher, logger, app.Event{
				Kind:       app.EventPlayerJoined,
				Payload:    app.PlayerJoinedPayload{UserID: botID, Seat: domain.SeatOpponent},
				Recipients: []string{uid},
			})
		}

		// A rejoining player needs the current table state to resume.
		if matchState.Game != nil {
			mh.sendSnapshot(matchState, dispatcher, logger, uid, wire.OpStateSnapshot)
		}
	}

	mh.updateLabel(matchState, dispatcher, logger)

	return matchState
}

// MatchLeave is called when one or more players leave the match.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		uid := p.GetUserId()
		delete(matchState.Presences, uid)

		if matchState.Seats[domain.SeatHuman] == uid {
			matchState.Seats[domain.SeatHuman] = ""
			logger.Debug("MatchLeave: User %s left, human seat freed.", uid)

			mh.broadcastEvent(ctx, matchState, dispatcher, logger, app.Event{
				Kind:    app.EventPlayerLeft,
				Payload: app.PlayerLeftPayload{UserID: uid},
			})
		}
	}

	if shouldTerminateNoHumans(matchState.Seats[:]) {
		logger.Info("MatchLeave: Terminating match with no humans.")
		return nil
	}

	mh.updateLabel(matchState, dispatcher, logger)

	return matchState
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}

	matchState.Tick = tick

	for _, msg := range messages {
		switch msg.GetOpCode() {
		case wire.OpStartGame:
			mh.handleStartGame(ctx, matchState, dispatcher, logger, msg)
		case wire.OpPlayCard:
			mh.handlePlayCard(ctx, matchState, dispatcher, logger, msg)
		case wire.OpDrawCard:
			mh.handleDrawCard(ctx, matchState, dispatcher, logger, msg)
		case wire.OpChooseSuit:
			mh.handleChooseSuit(ctx, matchState, dispatcher, logger, msg)
		case wire.OpUndo:
			mh.handleUndo(ctx, matchState, dispatcher, logger, msg)
		case wire.OpRestart:
			mh.handleRestart(ctx, matchState, dispatcher, logger, msg)
		default:
			logger.Warn("MatchLoop: Unknown opcode received: %d", msg.GetOpCode())
		}
	}

	mh.processOpponent(ctx, matchState, dispatcher, logger)

	return matchState
}

// processOpponent runs the delayed-move scheduler. A move is armed the first
// tick the game sits on the opponent's turn and fires BotDelay ticks later,
// but only if the game version still matches the one it was planned against.
// Any mutation in between (an undo, a restart) bumps the version and the stale
// plan re-arms against the new state instead of firing.
func (mh *matchHandler) processOpponent(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if state.Game == nil || state.Game.Phase != domain.PhaseOpponentTurn {
		state.BotActAtTick = 0
		return
	}

	if state.BotActAtTick == 0 || state.BotPlanVersion != state.Game.Version {
		state.BotActAtTick = state.Tick + state.BotDelay
		state.BotPlanVersion = state.Game.Version
		logger.Debug("processOpponent: opponent will act at tick %d (current %d, version %d)", state.BotActAtTick, state.Tick, state.BotPlanVersion)
		return
	}

	if state.Tick < state.BotActAtTick {
		return
	}

	state.BotActAtTick = 0
	events, err := state.App.OpponentTurn(state.Game, state.History, state.Agent)
	if err != nil {
		logger.Error("processOpponent: opponent turn failed: %v", err)
		return
	}
	for _, ev := range events {
		mh.broadcastEvent(ctx, state, dispatcher, logger, ev)
	}
}

func (mh *matchHandler) handleStartGame(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	if state.seatOf(senderID) != domain.SeatHuman {
		logger.Warn("StartGame: User %s is not seated in this match.", senderID)
		return
	}
	if state.Game != nil && state.Game.Phase != domain.PhaseFinished {
		mh.sendError(state, dispatcher, logger, senderID, app.ErrGameInProgress)
		return
	}

	var request wire.StartGameRequest
	if len(msg.GetData()) > 0 {
		if err := json.Unmarshal(msg.GetData(), &request); err != nil {
			logger.Warn("StartGame: Invalid request from %s: %v", senderID, err)
			return
		}
	}

	state.Stake = config.GetBaseBet(request.Tier)

	game, events, err := state.App.StartGame(state.Seats[:], state.Stake)
	if err != nil {
		logger.Error("StartGame: Failed to start game: %v", err)
		mh.sendError(state, dispatcher, logger, senderID, err)
		return
	}

	state.Game = game
	state.History.Clear()
	state.BotActAtTick = 0

	mh.updateLabel(state, dispatcher, logger)
	for _, ev := range events {
		mh.broadcastEvent(ctx, state, dispatcher, logger, ev)
	}

	logger.Info("StartGame: Game %s started (stake=%d).", game.ID, state.Stake)
}

func (mh *matchHandler) handlePlayCard(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	if state.seatOf(senderID) != domain.SeatHuman {
		logger.Warn("handlePlayCard: User %s is not seated in this match.", senderID)
		return
	}
	if state.Game == nil {
		mh.sendError(state, dispatcher, logger, senderID, app.ErrNoGame)
		return
	}

	var request wire.PlayCardRequest
	if err := json.Unmarshal(msg.GetData(), &request); err != nil {
		logger.Warn("handlePlayCard: Invalid request from %s: %v", senderID, err)
		return
	}

	events, err := state.App.PlayCard(state.Game, state.History, request.CardID)
	if err != nil {
		logger.Warn("handlePlayCard: User %s failed to play %q: %v", senderID, request.CardID, err)
		mh.sendError(state, dispatcher, logger, senderID, err)
		return
	}

	for _, ev := range events {
		mh.broadcastEvent(ctx, state, dispatcher, logger, ev)
	}
}

func (mh *matchHandler) handleDrawCard(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	if state.seatOf(senderID) != domain.SeatHuman {
		logger.Warn("handleDrawCard: User %s is not seated in this match.", senderID)
		return
	}
	if state.Game == nil {
		mh.sendError(state, dispatcher, logger, senderID, app.ErrNoGame)
		return
	}

	events, err := state.App.DrawCard(state.Game, state.History)
	if err != nil {
		logger.Warn("handleDrawCard: User %s failed to draw: %v", senderID, err)
		mh.sendError(state, dispatcher, logger, senderID, err)
		return
	}

	for _, ev := range events {
		mh.broadcastEvent(ctx, state, dispatcher, logger, ev)
	}
}

func (mh *matchHandler) handleChooseSuit(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	if state.seatOf(senderID) != domain.SeatHuman {
		logger.Warn("handleChooseSuit: User %s is not seated in this match.", senderID)
		return
	}
	if state.Game == nil {
		mh.sendError(state, dispatcher, logger, senderID, app.ErrNoGame)
		return
	}

	var request wire.ChooseSuitRequest
	if err := json.Unmarshal(msg.GetData(), &request); err != nil {
		logger.Warn("handleChooseSuit: Invalid request from %s: %v", senderID, err)
		return
	}

	suit, ok := domain.SuitFromLetter(request.Suit)
	if !ok {
		logger.Warn("handleChooseSuit: User %s sent unknown suit %q.", senderID, request.Suit)
		mh.sendError(state, dispatcher, logger, senderID, app.ErrUnknownSuit)
		return
	}

	events, err := state.App.ChooseSuit(state.Game, suit)
	if err != nil {
		logger.Warn("handleChooseSuit: User %s failed to choose suit: %v", senderID, err)
		mh.sendError(state, dispatcher, logger, senderID, err)
		return
	}

	for _, ev := range events {
		mh.broadcastEvent(ctx, state, dispatcher, logger, ev)
	}
}

func (mh *matchHandler) handleUndo(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	if state.seatOf(senderID) != domain.SeatHuman {
		logger.Warn("handleUndo: User %s is not seated in this match.", senderID)
		return
	}
	if state.Game == nil {
		mh.sendError(state, dispatcher, logger, senderID, app.ErrNoGame)
		return
	}

	restored, events, err := state.App.Undo(state.Game, state.History)
	if err != nil {
		logger.Warn("handleUndo: User %s failed to undo: %v", senderID, err)
		mh.sendError(state, dispatcher, logger, senderID, err)
		return
	}

	state.Game = restored
	state.BotActAtTick = 0
	logger.Info("handleUndo: User %s rewound to version %d.", senderID, restored.Version)

	mh.updateLabel(state, dispatcher, logger)
	for _, ev := range events {
		mh.broadcastEvent(ctx, state, dispatcher, logger, ev)
	}
}

func (mh *matchHandler) handleRestart(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	if state.seatOf(senderID) != domain.SeatHuman {
		logger.Warn("handleRestart: User %s is not seated in this match.", senderID)
		return
	}
	if state.Game == nil {
		mh.sendError(state, dispatcher, logger, senderID, app.ErrNoGame)
		return
	}

	game, events, err := state.App.Restart(state.Game, state.History)
	if err != nil {
		logger.Error("handleRestart: Failed to restart: %v", err)
		mh.sendError(state, dispatcher, logger, senderID, err)
		return
	}

	state.Game = game
	state.BotActAtTick = 0
	logger.Info("handleRestart: Game %s dealt for user %s.", game.ID, senderID)

	mh.updateLabel(state, dispatcher, logger)
	for _, ev := range events {
		mh.broadcastEvent(ctx, state, dispatcher, logger, ev)
	}
}

// notifyAgent forwards an event to the seated opponent's strategy. Events
// targeted at other users (a private hand, a personal snapshot) are withheld.
func (mh *matchHandler) notifyAgent(state *MatchState, ev app.Event) {
	if state.Agent == nil {
		return
	}
	if len(ev.Recipients) > 0 {
		seen := false
		for _, uid := range ev.Recipients {
			if uid == state.Agent.ID {
				seen = true
				break
			}
		}
		if !seen {
			return
		}
	}
	state.Agent.OnGameEvent(ev)
}

// broadcastEvent handles the conversion and dispatching of app events to Nakama.
func (mh *matchHandler) broadcastEvent(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, ev app.Event) {
	mh.notifyAgent(state, ev)

	var opCode int64
	var payload any

	switch ev.Kind {
	case app.EventPlayerJoined:
		p := ev.Payload.(app.PlayerJoinedPayload)
		opCode = wire.OpPlayerJoined
		payload = wire.PlayerJoinedEvent{
			UserID:      p.UserID,
			Seat:        int(p.Seat),
			DisplayName: displayNameFor(state, p.UserID),
		}
	case app.EventPlayerLeft:
		p := ev.Payload.(app.PlayerLeftPayload)
		opCode = wire.OpPlayerLeft
		payload = wire.PlayerLeftEvent{UserID: p.UserID}
	case app.EventGameStarted:
		p := ev.Payload.(app.GameStartedPayload)
		opCode = wire.OpGameStarted
		evt := wire.GameStartedEvent{
			GameID:       p.GameID,
			Turn:         int(p.Turn),
			TopCard:      toWireCard(p.TopCard),
			ActiveSuit:   p.ActiveSuit.Letter(),
			Stake:        p.Stake,
			DrawPileSize: p.DrawPileSize,
		}
		if p.ActiveRank != domain.RankNone {
			evt.ActiveRank = p.ActiveRank.Symbol()
		}
		payload = evt
	case app.EventHandDealt:
		p := ev.Payload.(app.HandDealtPayload)
		opCode = wire.OpHandDealt
		payload = wire.HandDealtEvent{
			Seat: int(p.Seat),
			Hand: toWireCards(p.Hand),
		}
	case app.EventCardPlayed:
		p := ev.Payload.(app.CardPlayedPayload)
		opCode = wire.OpCardPlayed
		evt := wire.CardPlayedEvent{
			Seat:         int(p.Seat),
			Card:         toWireCard(p.Card),
			ActiveSuit:   p.ActiveSuit.Letter(),
			AwaitingSuit: p.AwaitingSuit,
			Turn:         int(p.Turn),
			HandSize:     p.HandSize,
		}
		if p.ActiveRank != domain.RankNone {
			evt.ActiveRank = p.ActiveRank.Symbol()
		}
		payload = evt
	case app.EventCardDrawn:
		mh.broadcastCardDrawn(state, dispatcher, logger, ev.Payload.(app.CardDrawnPayload))
		return
	case app.EventSuitChosen:
		p := ev.Payload.(app.SuitChosenPayload)
		opCode = wire.OpSuitChosen
		payload = wire.SuitChosenEvent{
			Seat:       int(p.Seat),
			Card:       toWireCard(p.Card),
			ActiveSuit: p.ActiveSuit.Letter(),
			Turn:       int(p.Turn),
		}
	case app.EventTurnForfeited:
		p := ev.Payload.(app.TurnForfeitedPayload)
		opCode = wire.OpTurnForfeited
		payload = wire.TurnForfeitedEvent{
			Seat: int(p.Seat),
			Turn: int(p.Turn),
		}
	case app.EventStateReverted:
		mh.sendSnapshot(state, dispatcher, logger, state.Seats[domain.SeatHuman], wire.OpStateReverted)
		return
	case app.EventGameEnded:
		mh.handleGameEnded(ctx, state, dispatcher, logger, ev.Payload.(app.GameEndedPayload))
		return
	default:
		logger.Warn("Unknown event kind: %v", ev.Kind)
		return
	}

	bytes, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Failed to marshal event %v: %v", ev.Kind, err)
		return
	}

	// Determine recipients (default to broadcast)
	var recipients []runtime.Presence
	if len(ev.Recipients) > 0 {
		for _, uid := range ev.Recipients {
			if p, ok := state.Presences[uid]; ok {
				recipients = append(recipients, p)
			}
		}

		// If we had intended recipients but none are connected (e.g. they are bots),
		// we MUST NOT broadcast to everyone else.
		if len(recipients) == 0 {
			return
		}
	}

	dispatcher.BroadcastMessage(opCode, bytes, recipients, nil, true)
}

// broadcastCardDrawn sends the full draw event to the drawer and a copy with
// the card stripped to everyone else.
func (mh *matchHandler) broadcastCardDrawn(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, p app.CardDrawnPayload) {
	base := wire.CardDrawnEvent{
		Seat:         int(p.Seat),
		Outcome:      string(p.Outcome),
		Turn:         int(p.Turn),
		HandSize:     p.HandSize,
		DrawPileSize: p.DrawPileSize,
	}

	drawerID := ""
	if p.Seat == domain.SeatHuman || p.Seat == domain.SeatOpponent {
		drawerID = state.Seats[p.Seat]
	}

	if presence, ok := state.Presences[drawerID]; ok {
		full := base
		card := toWireCard(p.Card)
		full.Card = &card
		bytes, err := json.Marshal(full)
		if err != nil {
			logger.Error("Failed to marshal card_drawn event: %v", err)
			return
		}
		dispatcher.BroadcastMessage(wire.OpCardDrawn, bytes, []runtime.Presence{presence}, nil, true)
	}

	var others []runtime.Presence
	for uid, presence := range state.Presences {
		if uid != drawerID {
			others = append(others, presence)
		}
	}
	if len(others) == 0 {
		return
	}

	bytes, err := json.Marshal(base)
	if err != nil {
		logger.Error("Failed to marshal card_drawn event: %v", err)
		return
	}
	dispatcher.BroadcastMessage(wire.OpCardDrawn, bytes, others, nil, true)
}

// handleGameEnded settles the wager, issues the result receipt, stores the
// result record, and broadcasts the final event.
func (mh *matchHandler) handleGameEnded(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, p app.GameEndedPayload) {
	// Apply balance changes to Nakama wallets. Bots hold no wallet.
	if state.Economy != nil {
		updates := make([]ports.WalletUpdate, 0, len(p.BalanceChanges))
		for userID, amount := range p.BalanceChanges {
			if isBotUserId(userID) {
				continue
			}
			updates = append(updates, ports.WalletUpdate{
				UserID: userID,
				Amount: amount,
				Metadata: map[string]interface{}{
					"game_id": p.GameID,
					"reason":  "game_settlement",
				},
			})
		}
		if err := state.Economy.UpdateBalances(ctx, updates); err != nil {
			logger.Error("Failed to update balances: %v", err)
		}
	}

	receipt := ""
	if state.Receipts != nil && state.Game != nil {
		token, err := state.Receipts.IssueReceipt(state.Game)
		if err != nil {
			logger.Warn("Failed to issue result receipt: %v", err)
		} else {
			receipt = token
		}
	}

	if state.Results != nil && state.Game != nil && p.Winner != domain.SeatNone {
		var owners []string
		for _, uid := range state.Seats {
			if uid != "" && !isBotUserId(uid) {
				owners = append(owners, uid)
			}
		}
		result := ports.GameResult{
			GameID:     p.GameID,
			WinnerID:   p.WinnerUserID,
			LoserID:    state.Game.Seats[p.Winner.Other()],
			Stake:      p.Stake,
			FinishedAt: time.Now().Unix(),
			Receipt:    receipt,
		}
		if err := state.Results.SaveResult(ctx, owners, result); err != nil {
			logger.Error("Failed to save game result: %v", err)
		}
	}

	evt := wire.GameEndedEvent{
		GameID:         p.GameID,
		Winner:         int(p.Winner),
		WinnerUserID:   p.WinnerUserID,
		Stake:          p.Stake,
		BalanceChanges: p.BalanceChanges,
		Receipt:        receipt,
	}
	bytes, err := json.Marshal(evt)
	if err != nil {
		logger.Error("Failed to marshal game_ended event: %v", err)
		return
	}
	dispatcher.BroadcastMessage(wire.OpGameEnded, bytes, nil, nil, true)

	mh.updateLabel(state, dispatcher, logger)
}

// sendSnapshot sends the user their private view of the current game.
func (mh *matchHandler) sendSnapshot(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, opCode int64) {
	presence, ok := state.Presences[userID]
	if !ok {
		return
	}
	seat := state.seatOf(userID)
	if seat == domain.SeatNone || state.Game == nil {
		return
	}

	snapshot := toWireSnapshot(state.Game, seat, state.History.Len())
	bytes, err := json.Marshal(snapshot)
	if err != nil {
		logger.Error("Failed to marshal snapshot: %v", err)
		return
	}
	dispatcher.BroadcastMessage(opCode, bytes, []runtime.Presence{presence}, nil, true)
}

// sendError sends a GameErrorEvent to a specific user.
func (mh *matchHandler) sendError(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, cause error) {
	payload := wire.GameErrorEvent{
		Code:    errorCode(cause),
		Message: cause.Error(),
	}
	bytes, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Failed to marshal GameErrorEvent: %v", err)
		return
	}

	presence, ok := state.Presences[userID]
	if !ok {
		logger.Warn("Cannot send error to %s: Presence not found", userID)
		return
	}

	dispatcher.BroadcastMessage(wire.OpGameError, bytes, []runtime.Presence{presence}, nil, true)
}

// errorCode maps service errors to stable wire codes clients can branch on.
func errorCode(err error) string {
	switch {
	case errors.Is(err, app.ErrNoGame):
		return "no_game"
	case errors.Is(err, app.ErrGameInProgress):
		return "game_in_progress"
	case errors.Is(err, app.ErrTooFewPlayers):
		return "too_few_players"
	case errors.Is(err, app.ErrNotYourTurn):
		return "not_your_turn"
	case errors.Is(err, app.ErrNotOpponentTurn):
		return "not_opponent_turn"
	case errors.Is(err, app.ErrUnknownCard):
		return "unknown_card"
	case errors.Is(err, app.ErrIllegalCard):
		return "illegal_card"
	case errors.Is(err, app.ErrNoPendingWild):
		return "no_pending_wild"
	case errors.Is(err, app.ErrUnknownSuit):
		return "unknown_suit"
	case errors.Is(err, app.ErrNothingToUndo):
		return "nothing_to_undo"
	default:
		return "internal"
	}
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if err := dispatcher.MatchLabelUpdate(buildLabel(state)); err != nil {
		logger.Error("UpdateLabel: Failed to update: %v", err)
	}
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, reason int) interface{} {
	logger.Debug("MatchTerminate: Match terminated for reason %d", reason)
	return state
}

func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	return state, ""
}
