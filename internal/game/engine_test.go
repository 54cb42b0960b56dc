package game

import (
	"reflect"
	"sync"
	"testing"
	"time"
)

type fakeCatalog struct {
	word  Word
	empty bool
}

func (f *fakeCatalog) PickRandomActive() (Word, error) {
	if f.empty {
		return Word{}, ErrNoWordsAvailable
	}
	return f.word, nil
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingEmitter) Emit(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingEmitter) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Name)
	}
	return out
}

// newTestEngine returns an engine whose timers are effectively frozen;
// tests drive the transitions directly.
func newTestEngine() (*Engine, *recordingEmitter) {
	catalog := &fakeCatalog{word: Word{
		Lemma:        "BISLACCO",
		PartOfSpeech: "aggettivo",
		Definition:   "Strambo, bizzarro, che ha comportamenti strani o insoliti",
	}}
	e := NewEngine(catalog, nil)
	e.previewDelay = time.Hour
	e.reviewDelay = time.Hour
	em := &recordingEmitter{}
	e.SetEmitter(em)
	return e, em
}

func frozenConfig(numRounds int) RoomConfig {
	return RoomConfig{MaxPlayers: 8, NumRounds: numRounds, WriteTimer: 3600, VoteTimer: 3600}
}

// startedRoom creates a room, joins three ready players (u1 is host)
// and starts the game.
func startedRoom(t *testing.T, e *Engine, numRounds int) (string, *Room) {
	t.Helper()
	info, err := e.CreateRoom("u1", frozenConfig(numRounds))
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	code := info.Code
	for i, user := range []string{"u1", "u2", "u3"} {
		nick := []string{"Alice", "Bob", "Carla"}[i]
		conn := []string{"c1", "c2", "c3"}[i]
		if _, _, err := e.JoinRoom(user, nick, conn, code); err != nil {
			t.Fatalf("join %s: %v", user, err)
		}
		if _, err := e.SetReady(user, code, true); err != nil {
			t.Fatalf("ready %s: %v", user, err)
		}
	}
	if _, err := e.StartGame("u1", code); err != nil {
		t.Fatalf("start game: %v", err)
	}
	room, err := e.room(code)
	if err != nil {
		t.Fatalf("room lookup: %v", err)
	}
	return code, room
}

func TestStartGameValidation(t *testing.T) {
	e, _ := newTestEngine()
	info, _ := e.CreateRoom("u1", frozenConfig(2))
	code := info.Code

	e.JoinRoom("u1", "Alice", "c1", code)
	e.JoinRoom("u2", "Bob", "c2", code)

	if _, err := e.StartGame("u1", code); err != ErrTooFewPlayers {
		t.Fatalf("expected ErrTooFewPlayers with 2 players, got %v", err)
	}

	e.JoinRoom("u3", "Carla", "c3", code)
	if _, err := e.StartGame("u1", code); err != ErrNotAllReady {
		t.Fatalf("expected ErrNotAllReady, got %v", err)
	}

	// Scenario D: a non-host cannot start and the room stays in LOBBY
	for _, u := range []string{"u1", "u2", "u3"} {
		e.SetReady(u, code, true)
	}
	if _, err := e.StartGame("u2", code); err != ErrNotHost {
		t.Fatalf("expected ErrNotHost, got %v", err)
	}
	room, _ := e.room(code)
	if room.Phase != PhaseLobby {
		t.Fatalf("room should still be in LOBBY, got %s", room.Phase)
	}

	if _, err := e.StartGame("u1", code); err != nil {
		t.Fatalf("host should be able to start: %v", err)
	}
	if room.Phase != PhaseShowWord || room.CurrentRound != 1 {
		t.Fatalf("expected SHOW_WORD round 1, got %s round %d", room.Phase, room.CurrentRound)
	}
}

func TestStartGameReadinessPermutations(t *testing.T) {
	e, _ := newTestEngine()
	info, _ := e.CreateRoom("u1", frozenConfig(1))
	code := info.Code
	users := []string{"u1", "u2", "u3"}
	for i, u := range users {
		e.JoinRoom(u, u, []string{"c1", "c2", "c3"}[i], code)
	}

	// toggle readiness in assorted orders; start must succeed only
	// when everyone ends up ready
	for _, u := range users {
		e.SetReady(u, code, true)
		e.SetReady(u, code, false)
	}
	if _, err := e.StartGame("u1", code); err != ErrNotAllReady {
		t.Fatalf("expected ErrNotAllReady after toggles, got %v", err)
	}
	e.SetReady("u3", code, true)
	e.SetReady("u1", code, true)
	if _, err := e.StartGame("u1", code); err != ErrNotAllReady {
		t.Fatalf("expected ErrNotAllReady with one player unready, got %v", err)
	}
	e.SetReady("u2", code, true)
	if _, err := e.StartGame("u1", code); err != nil {
		t.Fatalf("expected start to succeed with all ready: %v", err)
	}
}

func TestFullRoundPhaseSequence(t *testing.T) {
	e, em := newTestEngine()
	code, room := startedRoom(t, e, 2)

	rid := room.round.ID
	if room.round.Number != 1 {
		t.Fatalf("expected round number 1, got %d", room.round.Number)
	}

	e.advanceToWrite(code, rid)
	if room.Phase != PhaseWriteDef {
		t.Fatalf("expected WRITE_DEF, got %s", room.Phase)
	}

	if _, err := e.SubmitDefinition("u1", code, rid, "Una specie di ombrello"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := e.SubmitDefinition("u2", code, rid, "Un tipo di pasta"); err != nil {
		t.Fatalf("submit: %v", err)
	}

	e.advanceToVote(code, rid)
	if room.Phase != PhaseVote {
		t.Fatalf("expected VOTE, got %s", room.Phase)
	}

	genuine := room.round.GenuineID()
	if _, err := e.SubmitVote("u1", code, rid, genuine); err != nil {
		t.Fatalf("vote: %v", err)
	}

	e.advanceToResults(code, rid)
	if room.Phase != PhaseResults {
		t.Fatalf("expected RESULTS, got %s", room.Phase)
	}

	// round 2 of 2
	e.advanceNext(code, rid)
	if room.Phase != PhaseShowWord || room.CurrentRound != 2 {
		t.Fatalf("expected SHOW_WORD round 2, got %s round %d", room.Phase, room.CurrentRound)
	}
	if room.round.Number != 2 {
		t.Fatalf("round numbers must not skip or repeat, got %d", room.round.Number)
	}

	rid2 := room.round.ID
	e.advanceToWrite(code, rid2)
	e.advanceToVote(code, rid2)
	e.advanceToResults(code, rid2)
	e.advanceNext(code, rid2)
	if room.Phase != PhaseEndGame {
		t.Fatalf("expected END_GAME after last round, got %s", room.Phase)
	}
	if room.EndedAt.IsZero() {
		t.Fatal("end timestamp should be set")
	}

	// timer-driven broadcasts went through the emitter in order
	var states []Phase
	for _, ev := range em.events {
		if ev.Name == EventStateChange {
			states = append(states, ev.Payload.(StateChangePayload).State)
		}
	}
	want := []Phase{PhaseWriteDef, PhaseVote, PhaseResults, PhaseShowWord, PhaseWriteDef, PhaseVote, PhaseResults, PhaseEndGame}
	if !reflect.DeepEqual(states, want) {
		t.Fatalf("unexpected broadcast sequence: %v", states)
	}
}

func TestSubmitDefinitionTwice(t *testing.T) {
	e, _ := newTestEngine()
	code, room := startedRoom(t, e, 1)
	rid := room.round.ID
	e.advanceToWrite(code, rid)

	if _, err := e.SubmitDefinition("u2", code, rid, "Test"); err != nil {
		t.Fatalf("first submit should succeed: %v", err)
	}
	if _, err := e.SubmitDefinition("u2", code, rid, "Test again"); err != ErrAlreadySubmitted {
		t.Fatalf("expected ErrAlreadySubmitted, got %v", err)
	}
}

func TestSubmitOutsideWritePhase(t *testing.T) {
	e, _ := newTestEngine()
	code, room := startedRoom(t, e, 1)
	rid := room.round.ID

	if _, err := e.SubmitDefinition("u1", code, rid, "too early"); err != ErrNotInGame {
		t.Fatalf("expected ErrNotInGame during SHOW_WORD, got %v", err)
	}
	e.advanceToWrite(code, rid)
	if _, err := e.SubmitDefinition("ghost", code, rid, "not a member"); err != ErrNotInGame {
		t.Fatalf("expected ErrNotInGame for non-member, got %v", err)
	}
}

func TestSelfVoteAlwaysRejected(t *testing.T) {
	e, _ := newTestEngine()
	code, room := startedRoom(t, e, 1)
	rid := room.round.ID
	e.advanceToWrite(code, rid)
	e.SubmitDefinition("u1", code, rid, "mine")
	e.advanceToVote(code, rid)

	var own string
	for _, sub := range room.round.Submissions() {
		if sub.AuthorID == "u1" {
			own = sub.ID
		}
	}
	if own == "" {
		t.Fatal("u1's submission should exist")
	}
	if _, err := e.SubmitVote("u1", code, rid, own); err != ErrSelfVote {
		t.Fatalf("expected ErrSelfVote, got %v", err)
	}
	// a valid vote afterwards still works, then a second one is refused
	if _, err := e.SubmitVote("u1", code, rid, room.round.GenuineID()); err != nil {
		t.Fatalf("vote after rejected self-vote should work: %v", err)
	}
	if _, err := e.SubmitVote("u1", code, rid, room.round.GenuineID()); err != ErrAlreadyVoted {
		t.Fatalf("expected ErrAlreadyVoted, got %v", err)
	}
}

func TestExactlyOneGenuineSubmission(t *testing.T) {
	e, _ := newTestEngine()
	code, room := startedRoom(t, e, 1)
	rid := room.round.ID
	e.advanceToWrite(code, rid)
	e.SubmitDefinition("u1", code, rid, "only one player answered")
	e.advanceToVote(code, rid)

	genuine := 0
	for _, sub := range room.round.Submissions() {
		if sub.Genuine {
			genuine++
			if sub.AuthorID != "" {
				t.Fatal("genuine submission must have no author")
			}
		}
	}
	if genuine != 1 {
		t.Fatalf("expected exactly 1 genuine submission, got %d", genuine)
	}
	// 3 players (1 real answer + 2 placeholders) + genuine
	if len(room.round.Submissions()) != 4 {
		t.Fatalf("expected 4 submissions, got %d", len(room.round.Submissions()))
	}
}

func TestDisconnectedSubmitterKeepsSubmission(t *testing.T) {
	e, em := newTestEngine()
	code, room := startedRoom(t, e, 1)
	rid := room.round.ID
	e.advanceToWrite(code, rid)

	if _, err := e.SubmitDefinition("u2", code, rid, "answered before dropping"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	evs := e.HandleDisconnect("c2")
	if len(evs) != 1 || evs[0].Name != EventPlayerLeft {
		t.Fatalf("expected player_left event, got %v", em.names())
	}
	left := evs[0].Payload.(PlayerLeftPayload)
	if left.PlayerID != "u2" || len(left.Players) != 2 {
		t.Fatalf("unexpected player_left payload: %+v", left)
	}

	e.advanceToVote(code, rid)

	// placeholders only for the connected players who never answered
	placeholders := 0
	var u2Text string
	for _, sub := range room.round.Submissions() {
		if sub.Text == placeholderDefinition {
			placeholders++
		}
		if sub.AuthorID == "u2" {
			u2Text = sub.Text
		}
	}
	if placeholders != 2 {
		t.Fatalf("expected 2 placeholders (u1, u3), got %d", placeholders)
	}
	if u2Text != "answered before dropping" {
		t.Fatalf("u2's submission should survive the disconnect, got %q", u2Text)
	}
}

func TestScoresApplyAndNeverDecrease(t *testing.T) {
	e, _ := newTestEngine()
	code, room := startedRoom(t, e, 2)
	rid := room.round.ID
	e.advanceToWrite(code, rid)
	e.SubmitDefinition("u1", code, rid, "fake one")
	e.SubmitDefinition("u2", code, rid, "fake two")
	e.SubmitDefinition("u3", code, rid, "fake three")
	e.advanceToVote(code, rid)

	var u2Sub string
	for _, sub := range room.round.Submissions() {
		if sub.AuthorID == "u2" {
			u2Sub = sub.ID
		}
	}
	genuine := room.round.GenuineID()

	e.SubmitVote("u1", code, rid, u2Sub)   // u2 deceives u1
	e.SubmitVote("u2", code, rid, genuine) // u2 finds the truth
	e.SubmitVote("u3", code, rid, u2Sub)   // u2 deceives u3

	before := map[string]int{}
	for _, s := range room.sessions.ordered {
		before[s.UserID] = s.Score
	}

	e.advanceToResults(code, rid)

	scores := map[string]int{}
	for _, s := range room.sessions.ordered {
		scores[s.UserID] = s.Score
		if s.Score < before[s.UserID] {
			t.Fatalf("score of %s decreased", s.UserID)
		}
	}
	if scores["u2"] != 5 {
		t.Fatalf("expected u2 to have 3+2=5 points, got %d", scores["u2"])
	}
	if scores["u1"] != 0 || scores["u3"] != 0 {
		t.Fatalf("expected u1/u3 at 0, got %d/%d", scores["u1"], scores["u3"])
	}

	// leaderboard in the RESULTS data is score-descending and stable
	data := resultsData(room)
	if data.Leaderboard[0].PlayerID != "u2" || data.Leaderboard[0].TotalScore != 5 {
		t.Fatalf("unexpected leaderboard head: %+v", data.Leaderboard[0])
	}
	if data.Leaderboard[1].PlayerID != "u1" || data.Leaderboard[2].PlayerID != "u3" {
		t.Fatalf("ties must keep join order: %+v", data.Leaderboard)
	}
}

func TestCurrentStateIdempotent(t *testing.T) {
	e, _ := newTestEngine()
	code, room := startedRoom(t, e, 1)
	rid := room.round.ID
	e.advanceToWrite(code, rid)

	first, err := e.CurrentState(code)
	if err != nil {
		t.Fatalf("current state: %v", err)
	}
	second, err := e.CurrentState(code)
	if err != nil {
		t.Fatalf("current state: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("snapshot is not idempotent: %+v vs %+v", first, second)
	}
	if first.State != PhaseWriteDef {
		t.Fatalf("expected WRITE_DEF snapshot, got %s", first.State)
	}
	data := first.Data.(RoundData)
	if data.TimeLimit != 3600 || data.ExpiresAt == 0 {
		t.Fatalf("snapshot must carry the phase deadline: %+v", data)
	}
	if data.Word.Definition != "" {
		t.Fatal("snapshot must never leak the genuine definition")
	}
}

func TestCurrentStateMatchesVotePhase(t *testing.T) {
	e, _ := newTestEngine()
	code, room := startedRoom(t, e, 1)
	rid := room.round.ID
	e.advanceToWrite(code, rid)
	e.advanceToVote(code, rid)

	snap, err := e.CurrentState(code)
	if err != nil {
		t.Fatalf("current state: %v", err)
	}
	data := snap.Data.(VoteData)
	if len(data.Options) != len(room.round.Options()) {
		t.Fatalf("snapshot options mismatch: %d", len(data.Options))
	}
	if !reflect.DeepEqual(data.Options, room.round.Options()) {
		t.Fatal("snapshot must reproduce the sealed option order")
	}
}

func TestJoinEventsAndLobbyState(t *testing.T) {
	e, _ := newTestEngine()
	info, _ := e.CreateRoom("u1", frozenConfig(1))
	code := info.Code

	reply, evs, err := e.JoinRoom("u1", "Alice", "c1", code)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if reply.Player.ID != "u1" || !reply.Player.IsConnected {
		t.Fatalf("unexpected join reply: %+v", reply.Player)
	}
	if len(evs) != 1 || evs[0].Name != EventPlayerJoined {
		t.Fatalf("expected player_joined event, got %+v", evs)
	}
	joined := evs[0].Payload.(PlayerJoinedPayload)
	if joined.TotalPlayers != 1 {
		t.Fatalf("expected totalPlayers 1, got %d", joined.TotalPlayers)
	}

	snap, err := e.CurrentState(code)
	if err != nil {
		t.Fatalf("current state: %v", err)
	}
	if snap.State != PhaseLobby || snap.Data != nil {
		t.Fatalf("expected bare LOBBY state, got %+v", snap)
	}
}

func TestJoinUnknownRoom(t *testing.T) {
	e, _ := newTestEngine()
	if _, _, err := e.JoinRoom("u1", "Alice", "c1", "ZZZZZZ"); err != ErrRoomNotFound {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestStartWithEmptyCatalog(t *testing.T) {
	e, _ := newTestEngine()
	e.catalog = &fakeCatalog{empty: true}
	info, _ := e.CreateRoom("u1", frozenConfig(1))
	code := info.Code
	for i, u := range []string{"u1", "u2", "u3"} {
		e.JoinRoom(u, u, []string{"c1", "c2", "c3"}[i], code)
		e.SetReady(u, code, true)
	}
	if _, err := e.StartGame("u1", code); err != ErrNoWordsAvailable {
		t.Fatalf("expected ErrNoWordsAvailable, got %v", err)
	}
	room, _ := e.room(code)
	if room.Phase != PhaseLobby || room.CurrentRound != 0 {
		t.Fatalf("failed start must leave the lobby untouched, got %s round %d", room.Phase, room.CurrentRound)
	}
}

func TestStaleTimerDoesNotDoubleAdvance(t *testing.T) {
	e, _ := newTestEngine()
	code, room := startedRoom(t, e, 1)
	rid := room.round.ID

	e.advanceToWrite(code, rid)
	e.advanceToWrite(code, rid) // replayed timer callback
	if room.Phase != PhaseWriteDef {
		t.Fatalf("duplicate transition must be a no-op, got %s", room.Phase)
	}
	e.advanceToResults(code, rid) // out-of-order callback
	if room.Phase != PhaseWriteDef {
		t.Fatalf("out-of-order transition must be a no-op, got %s", room.Phase)
	}
}
