package nakama

import (
	"context"
	"encoding/json"
	"math/rand"
	"testing"

	"crazyeights/internal/app"
	"crazyeights/internal/bot"
	"crazyeights/internal/config"
	"crazyeights/internal/domain"
	"crazyeights/internal/ports"
	"crazyeights/wire"

	"github.com/heroiclabs/nakama-common/runtime"
)

func init() {
	// Load bot identities for testing.
	if err := bot.LoadIdentities("test_bot_identities.json"); err != nil {
		panic("Failed to load bot identities for tests: " + err.Error())
	}
}

// noopLogger implements runtime.Logger for tests that only need to satisfy the interface.
type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}
func (noopLogger) WithField(string, interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) WithFields(map[string]interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) Fields() map[string]interface{} {
	return nil
}

// testPresence is a minimal runtime.Presence for seating users in tests.
type testPresence struct {
	userID   string
	username string
}

func (p testPresence) GetUserId() string                 { return p.userID }
func (p testPresence) GetSessionId() string              { return "session-" + p.userID }
func (p testPresence) GetNodeId() string                 { return "node-1" }
func (p testPresence) GetHidden() bool                   { return false }
func (p testPresence) GetPersistence() bool              { return true }
func (p testPresence) GetUsername() string               { return p.username }
func (p testPresence) GetStatus() string                 { return "" }
func (p testPresence) GetReason() runtime.PresenceReason { return runtime.PresenceReasonUnknown }

// testMatchData wraps a presence with an opcode and payload so handler methods
// can be driven directly.
type testMatchData struct {
	testPresence
	opCode int64
	data   []byte
}

func (m testMatchData) GetOpCode() int64      { return m.opCode }
func (m testMatchData) GetData() []byte       { return m.data }
func (m testMatchData) GetReliable() bool     { return true }
func (m testMatchData) GetReceiveTime() int64 { return 0 }

func humanMessage(t *testing.T, opCode int64, payload interface{}) testMatchData {
	t.Helper()
	var data []byte
	if payload != nil {
		var err error
		data, err = json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal request payload: %v", err)
		}
	}
	return testMatchData{
		testPresence: testPresence{userID: "user-1", username: "User One"},
		opCode:       opCode,
		data:         data,
	}
}

type sentMessage struct {
	opCode  int64
	data    []byte
	userIDs []string // empty means broadcast to everyone
}

// mockDispatcher records dispatcher calls for assertions.
type mockDispatcher struct {
	sent         []sentMessage
	labelUpdates int
	lastLabel    string
}

func (md *mockDispatcher) BroadcastMessage(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	msg := sentMessage{opCode: opCode, data: append([]byte(nil), data...)}
	for _, p := range presences {
		msg.userIDs = append(msg.userIDs, p.GetUserId())
	}
	md.sent = append(md.sent, msg)
	return nil
}

func (md *mockDispatcher) BroadcastMessageDeferred(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	return md.BroadcastMessage(opCode, data, presences, sender, reliable)
}

func (md *mockDispatcher) MatchKick(presences []runtime.Presence) error {
	return nil
}

func (md *mockDispatcher) MatchLabelUpdate(label string) error {
	md.labelUpdates++
	md.lastLabel = label
	return nil
}

func (md *mockDispatcher) messagesFor(opCode int64) []sentMessage {
	var out []sentMessage
	for _, m := range md.sent {
		if m.opCode == opCode {
			out = append(out, m)
		}
	}
	return out
}

type mockEconomy struct {
	updates [][]ports.WalletUpdate
}

func (me *mockEconomy) GetBalance(ctx context.Context, userID string) (int64, error) {
	return 0, nil
}

func (me *mockEconomy) UpdateBalances(ctx context.Context, updates []ports.WalletUpdate) error {
	me.updates = append(me.updates, updates)
	return nil
}

type mockResults struct {
	owners [][]string
	saved  []ports.GameResult
}

func (mr *mockResults) SaveResult(ctx context.Context, userIDs []string, result ports.GameResult) error {
	mr.owners = append(mr.owners, userIDs)
	mr.saved = append(mr.saved, result)
	return nil
}

func (mr *mockResults) ListRecentResults(ctx context.Context, userID string, limit int) ([]ports.GameResult, error) {
	return nil, nil
}

// newTestState seats the human "user-1" with a connected presence against the
// first pool bot. Returns the state and the bot's user id.
func newTestState(seed int64) (*MatchState, string) {
	identity := bot.GetBotIdentity(0)
	state := &MatchState{
		Presences: map[string]runtime.Presence{
			"user-1": testPresence{userID: "user-1", username: "User One"},
		},
		App:      app.NewService(rand.New(rand.NewSource(seed))),
		History:  app.NewHistory(),
		Agent:    bot.NewAgent(identity),
		Economy:  &mockEconomy{},
		Results:  &mockResults{},
		BotDelay: 2,
	}
	state.Seats[domain.SeatHuman] = "user-1"
	state.Seats[domain.SeatOpponent] = identity.UserID
	return state, identity.UserID
}

// testGame returns a mid-game position on the human's turn with a known deck:
// nine of hearts showing, the human holding 7H 9C 8S 4C.
func testGame(botID string) *domain.Game {
	return &domain.Game{
		ID:    "game-1",
		Phase: domain.PhaseHumanTurn,
		Seats: [2]string{"user-1", botID},
		Stake: 100,
		DrawPile: []domain.Card{
			{Suit: domain.SuitHearts, Rank: domain.RankTwo},
			{Suit: domain.SuitDiamonds, Rank: domain.RankFive},
		},
		DiscardPile: []domain.Card{{Suit: domain.SuitHearts, Rank: domain.RankNine}},
		Hands: [2][]domain.Card{
			{
				{Suit: domain.SuitHearts, Rank: domain.RankSeven},
				{Suit: domain.SuitClubs, Rank: domain.RankNine},
				{Suit: domain.SuitSpades, Rank: domain.RankEight},
				{Suit: domain.SuitClubs, Rank: domain.RankFour},
			},
			{
				{Suit: domain.SuitSpades, Rank: domain.RankKing},
				{Suit: domain.SuitDiamonds, Rank: domain.RankNine},
			},
		},
		ActiveSuit: domain.SuitHearts,
		ActiveRank: domain.RankNine,
		Turn:       domain.SeatHuman,
		Winner:     domain.SeatNone,
		Version:    1,
	}
}

func TestFindHumanSeat(t *testing.T) {
	bot1 := bot.GetBotIdentity(0).UserID
	bot2 := bot.GetBotIdentity(1).UserID

	tests := []struct {
		name  string
		seats []string
		want  int
	}{
		{name: "human in seat 0", seats: []string{"user-1", bot1}, want: 0},
		{name: "human in seat 1", seats: []string{bot1, "user-1"}, want: 1},
		{name: "only bots", seats: []string{bot1, bot2}, want: -1},
		{name: "empty seats", seats: []string{"", ""}, want: -1},
		{name: "bot and empty seat", seats: []string{"", bot1}, want: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := findHumanSeat(tt.seats); got != tt.want {
				t.Errorf("findHumanSeat(%v) = %d, want %d", tt.seats, got, tt.want)
			}
		})
	}
}

func TestShouldTerminateNoHumans(t *testing.T) {
	bot1 := bot.GetBotIdentity(0).UserID

	tests := []struct {
		name  string
		seats []string
		want  bool
	}{
		{name: "human present", seats: []string{"user-1", bot1}, want: false},
		{name: "only a bot", seats: []string{"", bot1}, want: true},
		{name: "all empty", seats: []string{"", ""}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shouldTerminateNoHumans(tt.seats); got != tt.want {
				t.Errorf("shouldTerminateNoHumans(%v) = %v, want %v", tt.seats, got, tt.want)
			}
		})
	}
}

func TestBuildLabel(t *testing.T) {
	state, botID := newTestState(1)

	parse := func(raw string) wire.Label {
		var label wire.Label
		if err := json.Unmarshal([]byte(raw), &label); err != nil {
			t.Fatalf("label is not valid JSON: %v", err)
		}
		return label
	}

	label := parse(buildLabel(state))
	if label.Open || label.Game != labelGameName || label.Phase != labelPhaseLobby {
		t.Errorf("seated lobby label = %+v", label)
	}

	state.Game = testGame(botID)
	if label = parse(buildLabel(state)); label.Phase != labelPhasePlaying {
		t.Errorf("mid-game label phase = %q, want %q", label.Phase, labelPhasePlaying)
	}

	state.Game.Phase = domain.PhaseFinished
	if label = parse(buildLabel(state)); label.Phase != labelPhaseEnded {
		t.Errorf("finished label phase = %q, want %q", label.Phase, labelPhaseEnded)
	}

	state.Seats[domain.SeatHuman] = ""
	if label = parse(buildLabel(state)); !label.Open {
		t.Error("label should be open once the human seat is free")
	}
}

func TestMatchInitSeatsOpponent(t *testing.T) {
	mh := newMatchHandler()

	rawState, tickRate, rawLabel := mh.MatchInit(context.Background(), noopLogger{}, nil, nil, nil)

	state, ok := rawState.(*MatchState)
	if !ok {
		t.Fatalf("MatchInit returned %T, want *MatchState", rawState)
	}
	if tickRate != 1 {
		t.Errorf("tickRate = %d, want 1", tickRate)
	}
	if botID := state.Seats[domain.SeatOpponent]; botID == "" || !isBotUserId(botID) {
		t.Errorf("opponent seat holds %q, want a pool bot", botID)
	}
	if state.Agent == nil {
		t.Fatal("no agent seated for the opponent")
	}
	if state.BotDelay != int64(config.GetBotDelaySeconds()) {
		t.Errorf("BotDelay = %d, want %d", state.BotDelay, config.GetBotDelaySeconds())
	}

	var label wire.Label
	if err := json.Unmarshal([]byte(rawLabel), &label); err != nil {
		t.Fatalf("initial label is not valid JSON: %v", err)
	}
	if !label.Open || label.Game != labelGameName || label.Phase != labelPhaseLobby {
		t.Errorf("initial label = %+v", label)
	}
}

func TestMatchJoinAttempt(t *testing.T) {
	mh := newMatchHandler()
	state, _ := newTestState(1)
	dispatcher := &mockDispatcher{}

	_, allowed, reason := mh.MatchJoinAttempt(context.Background(), noopLogger{}, nil, nil, dispatcher, 0, state, testPresence{userID: "user-2"}, nil)
	if allowed {
		t.Error("second human admitted into a full match")
	}
	if reason != "match_full" {
		t.Errorf("rejection reason = %q, want %q", reason, "match_full")
	}

	_, allowed, _ = mh.MatchJoinAttempt(context.Background(), noopLogger{}, nil, nil, dispatcher, 0, state, testPresence{userID: "user-1"}, nil)
	if !allowed {
		t.Error("seated player refused to rejoin")
	}

	state.Seats[domain.SeatHuman] = ""
	_, allowed, _ = mh.MatchJoinAttempt(context.Background(), noopLogger{}, nil, nil, dispatcher, 0, state, testPresence{userID: "user-3"}, nil)
	if !allowed {
		t.Error("fresh player refused while the human seat is free")
	}
}

func TestMatchJoinSendsRosterAndSnapshot(t *testing.T) {
	mh := newMatchHandler()
	state, botID := newTestState(1)
	state.Game = testGame(botID)
	state.Seats[domain.SeatHuman] = ""
	delete(state.Presences, "user-1")
	dispatcher := &mockDispatcher{}

	p := testPresence{userID: "user-1", username: "User One"}
	mh.MatchJoin(context.Background(), noopLogger{}, nil, nil, dispatcher, 3, state, []runtime.Presence{p})

	if state.Seats[domain.SeatHuman] != "user-1" {
		t.Fatalf("human seat = %q, want %q", state.Seats[domain.SeatHuman], "user-1")
	}

	joined := dispatcher.messagesFor(wire.OpPlayerJoined)
	if len(joined) != 2 {
		t.Fatalf("got %d player_joined messages, want 2 (joiner broadcast plus bot intro)", len(joined))
	}
	if len(joined[0].userIDs) != 0 {
		t.Error("joiner announcement should broadcast to everyone")
	}
	var intro wire.PlayerJoinedEvent
	if err := json.Unmarshal(joined[1].data, &intro); err != nil {
		t.Fatalf("unmarshal bot intro: %v", err)
	}
	if intro.UserID != botID || intro.Seat != int(domain.SeatOpponent) {
		t.Errorf("bot intro = %+v", intro)
	}
	if intro.DisplayName != bot.GetBotDisplayName(botID) {
		t.Errorf("bot intro display name = %q, want %q", intro.DisplayName, bot.GetBotDisplayName(botID))
	}
	if len(joined[1].userIDs) != 1 || joined[1].userIDs[0] != "user-1" {
		t.Errorf("bot intro went to %v, want only the joiner", joined[1].userIDs)
	}

	snaps := dispatcher.messagesFor(wire.OpStateSnapshot)
	if len(snaps) != 1 {
		t.Fatalf("got %d snapshots, want 1 for the rejoiner", len(snaps))
	}
	var snap wire.Snapshot
	if err := json.Unmarshal(snaps[0].data, &snap); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}
	if len(snap.Hand) != 4 || snap.OpponentCount != 2 {
		t.Errorf("snapshot hand=%d opponent=%d, want 4 and 2", len(snap.Hand), snap.OpponentCount)
	}
	if snap.TopDiscard == nil || snap.TopDiscard.ID != "9H" {
		t.Errorf("snapshot top discard = %+v, want 9H", snap.TopDiscard)
	}

	if dispatcher.labelUpdates == 0 {
		t.Error("label was not refreshed after the join")
	}
}

func TestHandleStartGameDealsAndBroadcasts(t *testing.T) {
	mh := newMatchHandler()
	state, _ := newTestState(7)
	dispatcher := &mockDispatcher{}

	mh.handleStartGame(context.Background(), state, dispatcher, noopLogger{}, humanMessage(t, wire.OpStartGame, wire.StartGameRequest{}))

	if state.Game == nil {
		t.Fatal("no game after start")
	}
	if state.Game.Phase != domain.PhaseHumanTurn {
		t.Errorf("phase = %q, want %q", state.Game.Phase, domain.PhaseHumanTurn)
	}
	if want := config.GetBaseBet(""); state.Game.Stake != want {
		t.Errorf("stake = %d, want %d", state.Game.Stake, want)
	}

	dealt := dispatcher.messagesFor(wire.OpHandDealt)
	if len(dealt) != 1 {
		t.Fatalf("got %d hand_dealt messages, want 1 (the bot copy has no presence to reach)", len(dealt))
	}
	if len(dealt[0].userIDs) != 1 || dealt[0].userIDs[0] != "user-1" {
		t.Errorf("hand went to %v, want only user-1", dealt[0].userIDs)
	}
	var hand wire.HandDealtEvent
	if err := json.Unmarshal(dealt[0].data, &hand); err != nil {
		t.Fatalf("unmarshal hand_dealt: %v", err)
	}
	if len(hand.Hand) != app.InitialHandSize {
		t.Errorf("dealt %d cards, want %d", len(hand.Hand), app.InitialHandSize)
	}

	started := dispatcher.messagesFor(wire.OpGameStarted)
	if len(started) != 1 {
		t.Fatalf("got %d game_started messages, want 1", len(started))
	}
	if len(started[0].userIDs) != 0 {
		t.Error("game_started should broadcast to everyone")
	}
	var evt wire.GameStartedEvent
	if err := json.Unmarshal(started[0].data, &evt); err != nil {
		t.Fatalf("unmarshal game_started: %v", err)
	}
	if evt.TopCard.Rank == "8" {
		t.Errorf("opening card %s is wild", evt.TopCard.ID)
	}
	if evt.DrawPileSize != 35 {
		t.Errorf("draw pile = %d, want 35", evt.DrawPileSize)
	}
	if evt.Turn != int(domain.SeatHuman) {
		t.Errorf("opening turn = %d, want the human seat", evt.Turn)
	}

	if dispatcher.labelUpdates == 0 {
		t.Error("label was not refreshed after the deal")
	}

	// A second start while the game is live must be refused.
	mh.handleStartGame(context.Background(), state, dispatcher, noopLogger{}, humanMessage(t, wire.OpStartGame, wire.StartGameRequest{}))
	errs := dispatcher.messagesFor(wire.OpGameError)
	if len(errs) != 1 {
		t.Fatalf("got %d error messages, want 1", len(errs))
	}
	var ge wire.GameErrorEvent
	if err := json.Unmarshal(errs[0].data, &ge); err != nil {
		t.Fatalf("unmarshal game_error: %v", err)
	}
	if ge.Code != "game_in_progress" {
		t.Errorf("error code = %q, want %q", ge.Code, "game_in_progress")
	}
}

func TestHandlePlayCardBroadcastsAndReportsErrors(t *testing.T) {
	mh := newMatchHandler()
	state, botID := newTestState(1)
	state.Game = testGame(botID)
	dispatcher := &mockDispatcher{}

	// A card the hand does not hold.
	mh.handlePlayCard(context.Background(), state, dispatcher, noopLogger{}, humanMessage(t, wire.OpPlayCard, wire.PlayCardRequest{CardID: "KD"}))

	errs := dispatcher.messagesFor(wire.OpGameError)
	if len(errs) != 1 {
		t.Fatalf("got %d error messages, want 1", len(errs))
	}
	var ge wire.GameErrorEvent
	if err := json.Unmarshal(errs[0].data, &ge); err != nil {
		t.Fatalf("unmarshal game_error: %v", err)
	}
	if ge.Code != "unknown_card" {
		t.Errorf("error code = %q, want %q", ge.Code, "unknown_card")
	}
	if state.Game.Version != 1 {
		t.Errorf("failed play moved the version to %d", state.Game.Version)
	}

	// A legal play goes out to the table.
	mh.handlePlayCard(context.Background(), state, dispatcher, noopLogger{}, humanMessage(t, wire.OpPlayCard, wire.PlayCardRequest{CardID: "7H"}))

	plays := dispatcher.messagesFor(wire.OpCardPlayed)
	if len(plays) != 1 {
		t.Fatalf("got %d card_played messages, want 1", len(plays))
	}
	if len(plays[0].userIDs) != 0 {
		t.Error("card_played should broadcast to everyone")
	}
	var played wire.CardPlayedEvent
	if err := json.Unmarshal(plays[0].data, &played); err != nil {
		t.Fatalf("unmarshal card_played: %v", err)
	}
	if played.Card.ID != "7H" || played.HandSize != 3 || played.Turn != int(domain.SeatOpponent) {
		t.Errorf("card_played = %+v", played)
	}
	if state.Game.Phase != domain.PhaseOpponentTurn {
		t.Errorf("phase = %q, want %q", state.Game.Phase, domain.PhaseOpponentTurn)
	}
	if state.Game.Version != 2 {
		t.Errorf("version = %d, want 2", state.Game.Version)
	}
}

func TestHandleChooseSuitRejectsUnknownLetter(t *testing.T) {
	mh := newMatchHandler()
	state, botID := newTestState(1)
	state.Game = testGame(botID)
	dispatcher := &mockDispatcher{}

	mh.handleChooseSuit(context.Background(), state, dispatcher, noopLogger{}, humanMessage(t, wire.OpChooseSuit, wire.ChooseSuitRequest{Suit: "X"}))

	errs := dispatcher.messagesFor(wire.OpGameError)
	if len(errs) != 1 {
		t.Fatalf("got %d error messages, want 1", len(errs))
	}
	var ge wire.GameErrorEvent
	if err := json.Unmarshal(errs[0].data, &ge); err != nil {
		t.Fatalf("unmarshal game_error: %v", err)
	}
	if ge.Code != "unknown_suit" {
		t.Errorf("error code = %q, want %q", ge.Code, "unknown_suit")
	}
	if state.Game.Version != 1 {
		t.Errorf("failed choice moved the version to %d", state.Game.Version)
	}
}

func TestProcessOpponentWaitsForDelay(t *testing.T) {
	mh := newMatchHandler()
	state, botID := newTestState(1)
	state.Game = testGame(botID)
	state.Game.Phase = domain.PhaseOpponentTurn
	state.Game.Turn = domain.SeatOpponent
	dispatcher := &mockDispatcher{}

	state.Tick = 10
	mh.processOpponent(context.Background(), state, dispatcher, noopLogger{})
	if state.BotActAtTick != 12 {
		t.Fatalf("armed for tick %d, want 12", state.BotActAtTick)
	}
	if state.BotPlanVersion != 1 {
		t.Fatalf("plan pinned to version %d, want 1", state.BotPlanVersion)
	}
	if len(dispatcher.sent) != 0 {
		t.Fatal("opponent acted while arming")
	}

	state.Tick = 11
	mh.processOpponent(context.Background(), state, dispatcher, noopLogger{})
	if len(dispatcher.sent) != 0 {
		t.Fatal("opponent acted before the armed tick")
	}

	state.Tick = 12
	mh.processOpponent(context.Background(), state, dispatcher, noopLogger{})

	// The bot holds KS and 9D against the nine of hearts; the 9D is the one
	// legal play.
	plays := dispatcher.messagesFor(wire.OpCardPlayed)
	if len(plays) != 1 {
		t.Fatalf("got %d card_played messages, want 1", len(plays))
	}
	var played wire.CardPlayedEvent
	if err := json.Unmarshal(plays[0].data, &played); err != nil {
		t.Fatalf("unmarshal card_played: %v", err)
	}
	if played.Card.ID != "9D" || played.Seat != int(domain.SeatOpponent) {
		t.Errorf("opponent played %+v, want the 9D", played)
	}
	if state.Game.Phase != domain.PhaseHumanTurn {
		t.Errorf("phase = %q, want %q", state.Game.Phase, domain.PhaseHumanTurn)
	}
	if state.BotActAtTick != 0 {
		t.Errorf("timer still armed for tick %d after acting", state.BotActAtTick)
	}
	if state.History.Len() != 1 {
		t.Errorf("history depth = %d, want 1 entry covering the opponent turn", state.History.Len())
	}
}

func TestProcessOpponentReArmsWhenVersionMoves(t *testing.T) {
	mh := newMatchHandler()
	state, botID := newTestState(1)
	state.Game = testGame(botID)
	state.Game.Phase = domain.PhaseOpponentTurn
	state.Game.Turn = domain.SeatOpponent
	dispatcher := &mockDispatcher{}

	state.Tick = 10
	mh.processOpponent(context.Background(), state, dispatcher, noopLogger{})
	if state.BotActAtTick != 12 {
		t.Fatalf("armed for tick %d, want 12", state.BotActAtTick)
	}

	// The state mutates before the timer fires, as an undo would do.
	state.Game.Version = 5

	state.Tick = 12
	mh.processOpponent(context.Background(), state, dispatcher, noopLogger{})
	if len(dispatcher.sent) != 0 {
		t.Fatal("opponent acted on a stale plan")
	}
	if state.BotActAtTick != 14 {
		t.Fatalf("re-armed for tick %d, want 14", state.BotActAtTick)
	}
	if state.BotPlanVersion != 5 {
		t.Fatalf("re-armed plan pinned to version %d, want 5", state.BotPlanVersion)
	}

	state.Tick = 14
	mh.processOpponent(context.Background(), state, dispatcher, noopLogger{})
	if len(dispatcher.messagesFor(wire.OpCardPlayed)) != 1 {
		t.Error("opponent never acted after the fresh delay elapsed")
	}
}

func TestProcessOpponentStandsDownOffTurn(t *testing.T) {
	mh := newMatchHandler()
	state, botID := newTestState(1)
	state.Game = testGame(botID) // human's turn
	state.BotActAtTick = 99
	dispatcher := &mockDispatcher{}

	state.Tick = 100
	mh.processOpponent(context.Background(), state, dispatcher, noopLogger{})

	if state.BotActAtTick != 0 {
		t.Errorf("timer still armed for tick %d off the opponent's turn", state.BotActAtTick)
	}
	if len(dispatcher.sent) != 0 {
		t.Error("opponent acted on the human's turn")
	}
}

func TestHandleUndoRewindsAndDisarms(t *testing.T) {
	mh := newMatchHandler()
	state, botID := newTestState(1)
	state.Game = testGame(botID)
	dispatcher := &mockDispatcher{}

	mh.handlePlayCard(context.Background(), state, dispatcher, noopLogger{}, humanMessage(t, wire.OpPlayCard, wire.PlayCardRequest{CardID: "7H"}))
	if state.Game.Phase != domain.PhaseOpponentTurn {
		t.Fatalf("phase = %q after the play, want %q", state.Game.Phase, domain.PhaseOpponentTurn)
	}

	state.Tick = 5
	mh.processOpponent(context.Background(), state, dispatcher, noopLogger{})
	if state.BotActAtTick == 0 {
		t.Fatal("opponent timer never armed")
	}

	mh.handleUndo(context.Background(), state, dispatcher, noopLogger{}, humanMessage(t, wire.OpUndo, nil))

	if state.Game.Phase != domain.PhaseHumanTurn {
		t.Errorf("phase = %q after the undo, want %q", state.Game.Phase, domain.PhaseHumanTurn)
	}
	if got := state.Game.HandSize(domain.SeatHuman); got != 4 {
		t.Errorf("hand size = %d after the undo, want 4", got)
	}
	if state.Game.Version != 3 {
		t.Errorf("version = %d after the undo, want 3", state.Game.Version)
	}
	if state.BotActAtTick != 0 {
		t.Errorf("undo left the opponent timer armed for tick %d", state.BotActAtTick)
	}

	reverted := dispatcher.messagesFor(wire.OpStateReverted)
	if len(reverted) != 1 {
		t.Fatalf("got %d state_reverted messages, want 1", len(reverted))
	}
	if len(reverted[0].userIDs) != 1 || reverted[0].userIDs[0] != "user-1" {
		t.Errorf("state_reverted went to %v, want only the human", reverted[0].userIDs)
	}
	var snap wire.Snapshot
	if err := json.Unmarshal(reverted[0].data, &snap); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}
	if len(snap.Hand) != 4 || snap.Version != 3 || snap.UndoDepth != 0 {
		t.Errorf("snapshot hand=%d version=%d depth=%d, want 4, 3, 0", len(snap.Hand), snap.Version, snap.UndoDepth)
	}

	// The stale opponent plan must not fire after the rewind.
	state.Tick = 7
	mh.processOpponent(context.Background(), state, dispatcher, noopLogger{})
	if len(dispatcher.messagesFor(wire.OpCardPlayed)) != 1 {
		t.Error("a cancelled opponent move fired after the undo")
	}

	// With the history drained a second undo reports the empty stack.
	mh.handleUndo(context.Background(), state, dispatcher, noopLogger{}, humanMessage(t, wire.OpUndo, nil))
	errs := dispatcher.messagesFor(wire.OpGameError)
	if len(errs) != 1 {
		t.Fatalf("got %d error messages, want 1", len(errs))
	}
	var ge wire.GameErrorEvent
	if err := json.Unmarshal(errs[0].data, &ge); err != nil {
		t.Fatalf("unmarshal game_error: %v", err)
	}
	if ge.Code != "nothing_to_undo" {
		t.Errorf("error code = %q, want %q", ge.Code, "nothing_to_undo")
	}
}

func TestBroadcastCardDrawnRedaction(t *testing.T) {
	mh := newMatchHandler()
	state, botID := newTestState(1)
	state.Game = testGame(botID)

	// The opponent draws: the human learns the outcome but not the card.
	dispatcher := &mockDispatcher{}
	mh.broadcastCardDrawn(state, dispatcher, noopLogger{}, app.CardDrawnPayload{
		Seat:         domain.SeatOpponent,
		Card:         domain.Card{Suit: domain.SuitHearts, Rank: domain.RankTwo},
		Outcome:      domain.DrawTurnPasses,
		Turn:         domain.SeatHuman,
		HandSize:     3,
		DrawPileSize: 1,
	})

	if len(dispatcher.sent) != 1 {
		t.Fatalf("got %d messages, want 1 (the bot drawer has no presence)", len(dispatcher.sent))
	}
	var evt wire.CardDrawnEvent
	if err := json.Unmarshal(dispatcher.sent[0].data, &evt); err != nil {
		t.Fatalf("unmarshal card_drawn: %v", err)
	}
	if evt.Card != nil {
		t.Errorf("drawn card %s leaked to the non-drawer", evt.Card.ID)
	}
	if evt.Outcome != string(domain.DrawTurnPasses) || evt.HandSize != 3 {
		t.Errorf("redacted event = %+v", evt)
	}

	// The human draws: the full card goes to them alone.
	dispatcher = &mockDispatcher{}
	mh.broadcastCardDrawn(state, dispatcher, noopLogger{}, app.CardDrawnPayload{
		Seat:         domain.SeatHuman,
		Card:         domain.Card{Suit: domain.SuitHearts, Rank: domain.RankTwo},
		Outcome:      domain.DrawTurnContinues,
		Turn:         domain.SeatHuman,
		HandSize:     5,
		DrawPileSize: 1,
	})

	if len(dispatcher.sent) != 1 {
		t.Fatalf("got %d messages, want 1", len(dispatcher.sent))
	}
	if len(dispatcher.sent[0].userIDs) != 1 || dispatcher.sent[0].userIDs[0] != "user-1" {
		t.Errorf("full draw event went to %v, want only the drawer", dispatcher.sent[0].userIDs)
	}
	if err := json.Unmarshal(dispatcher.sent[0].data, &evt); err != nil {
		t.Fatalf("unmarshal card_drawn: %v", err)
	}
	if evt.Card == nil || evt.Card.ID != "2H" {
		t.Errorf("drawer's event card = %+v, want the 2H", evt.Card)
	}
}

func TestHandleGameEndedSettlesAndRecords(t *testing.T) {
	mh := newMatchHandler()
	state, botID := newTestState(1)
	economy := &mockEconomy{}
	results := &mockResults{}
	state.Economy = economy
	state.Results = results
	state.Receipts = app.NewReceiptService("test-secret", "test-issuer")

	game := testGame(botID)
	game.Phase = domain.PhaseFinished
	game.Winner = domain.SeatHuman
	game.Turn = domain.SeatNone
	state.Game = game
	dispatcher := &mockDispatcher{}

	mh.handleGameEnded(context.Background(), state, dispatcher, noopLogger{}, app.GameEndedPayload{
		GameID:       game.ID,
		Winner:       domain.SeatHuman,
		WinnerUserID: "user-1",
		Stake:        100,
		BalanceChanges: map[string]int64{
			"user-1": 100,
			botID:    -100,
		},
	})

	if len(economy.updates) != 1 {
		t.Fatalf("got %d wallet batches, want 1", len(economy.updates))
	}
	if len(economy.updates[0]) != 1 {
		t.Fatalf("got %d wallet updates, want 1 (the bot holds no wallet)", len(economy.updates[0]))
	}
	update := economy.updates[0][0]
	if update.UserID != "user-1" || update.Amount != 100 {
		t.Errorf("wallet update = %+v", update)
	}
	if update.Metadata["game_id"] != game.ID {
		t.Errorf("wallet metadata game_id = %v, want %q", update.Metadata["game_id"], game.ID)
	}

	if len(results.saved) != 1 {
		t.Fatalf("got %d saved results, want 1", len(results.saved))
	}
	saved := results.saved[0]
	if saved.WinnerID != "user-1" || saved.LoserID != botID || saved.Stake != 100 {
		t.Errorf("saved result = %+v", saved)
	}
	if saved.Receipt == "" {
		t.Error("saved result carries no receipt")
	}
	if len(results.owners[0]) != 1 || results.owners[0][0] != "user-1" {
		t.Errorf("result owners = %v, want only the human", results.owners[0])
	}

	ended := dispatcher.messagesFor(wire.OpGameEnded)
	if len(ended) != 1 {
		t.Fatalf("got %d game_ended messages, want 1", len(ended))
	}
	var evt wire.GameEndedEvent
	if err := json.Unmarshal(ended[0].data, &evt); err != nil {
		t.Fatalf("unmarshal game_ended: %v", err)
	}
	if evt.WinnerUserID != "user-1" || evt.Stake != 100 {
		t.Errorf("game_ended = %+v", evt)
	}
	if evt.Receipt == "" {
		t.Error("game_ended carries no receipt")
	}

	if dispatcher.labelUpdates == 0 {
		t.Fatal("label was not refreshed at game end")
	}
	var label wire.Label
	if err := json.Unmarshal([]byte(dispatcher.lastLabel), &label); err != nil {
		t.Fatalf("final label is not valid JSON: %v", err)
	}
	if label.Phase != labelPhaseEnded {
		t.Errorf("final label phase = %q, want %q", label.Phase, labelPhaseEnded)
	}
}
