package game

import (
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Fixed review delays between phases. The word preview and the results
// screen are not host-configurable.
const (
	showWordDelay = 5 * time.Second
	resultsDelay  = 10 * time.Second
)

const (
	defaultMaxPlayers = 8
	defaultNumRounds  = 3
	defaultWriteTimer = 60
	defaultVoteTimer  = 30
)

// Engine is the room state machine. It owns every room's lifecycle,
// funnels all mutations of the session directory and round ledger
// through per-room locks, and drives timed transitions through the
// scheduler. Player-facing operations return the broadcast events they
// produced; timer-fired transitions emit theirs through the Emitter.
type Engine struct {
	mu     sync.RWMutex
	rooms  map[string]*Room
	byConn map[string]string

	catalog WordCatalog
	sched   *Scheduler
	emitter Emitter
	db      *gorm.DB

	// overridable in tests
	previewDelay time.Duration
	reviewDelay  time.Duration
}

func NewEngine(catalog WordCatalog, conn *gorm.DB) *Engine {
	return &Engine{
		rooms:        make(map[string]*Room),
		byConn:       make(map[string]string),
		catalog:      catalog,
		sched:        NewScheduler(),
		db:           conn,
		previewDelay: showWordDelay,
		reviewDelay:  resultsDelay,
	}
}

// SetEmitter wires the transport adapter that delivers timer-driven
// broadcasts. Must be called before any game starts.
func (e *Engine) SetEmitter(em Emitter) { e.emitter = em }

func (e *Engine) send(evs ...Event) {
	if e.emitter == nil {
		return
	}
	for _, ev := range evs {
		e.emitter.Emit(ev)
	}
}

func (e *Engine) room(code string) (*Room, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	r := e.rooms[code]
	if r == nil {
		return nil, ErrRoomNotFound
	}
	return r, nil
}

// CreateRoom registers a new room in LOBBY with a fresh shareable code.
func (e *Engine) CreateRoom(hostID string, cfg RoomConfig) (RoomInfo, error) {
	if cfg.MaxPlayers <= 0 {
		cfg.MaxPlayers = defaultMaxPlayers
	}
	if cfg.NumRounds <= 0 {
		cfg.NumRounds = defaultNumRounds
	}
	if cfg.WriteTimer <= 0 {
		cfg.WriteTimer = defaultWriteTimer
	}
	if cfg.VoteTimer <= 0 {
		cfg.VoteTimer = defaultVoteTimer
	}

	e.mu.Lock()
	code := randomCode(6)
	for e.rooms[code] != nil {
		code = randomCode(6)
	}
	room := &Room{
		Code:      code,
		HostID:    hostID,
		Config:    cfg,
		Phase:     PhaseLobby,
		CreatedAt: time.Now().UTC(),
		sessions:  newSessionSet(),
	}
	e.rooms[code] = room
	e.mu.Unlock()

	e.persistRoom(room)
	log.Info().Str("room", code).Str("host", hostID).Msg("room created")
	return room.info(), nil
}

// JoinReply mirrors the original join acknowledgment: the room, the
// joining player's own row, and the connected player list.
type JoinReply struct {
	Room    RoomInfo     `json:"room"`
	Player  PlayerInfo   `json:"player"`
	Players []PlayerInfo `json:"players"`
}

func (e *Engine) JoinRoom(userID, nickname, connID, roomCode string) (*JoinReply, []Event, error) {
	room, err := e.room(roomCode)
	if err != nil {
		return nil, nil, err
	}

	room.mu.Lock()
	sess, err := room.sessions.join(userID, nickname, connID, room.Config.MaxPlayers)
	if err != nil {
		room.mu.Unlock()
		return nil, nil, err
	}
	e.persistSession(room, sess)
	reply := &JoinReply{
		Room:    room.info(),
		Player:  playerInfo(sess),
		Players: room.sessions.connectedInfos(),
	}
	ev := Event{Room: roomCode, Name: EventPlayerJoined, Payload: PlayerJoinedPayload{
		Player:       reply.Player,
		TotalPlayers: len(reply.Players),
	}}
	room.mu.Unlock()

	e.mu.Lock()
	e.byConn[connID] = roomCode
	e.mu.Unlock()

	log.Info().Str("room", roomCode).Str("player", userID).Msg("player joined")
	return reply, []Event{ev}, nil
}

func (e *Engine) SetReady(userID, roomCode string, ready bool) ([]Event, error) {
	room, err := e.room(roomCode)
	if err != nil {
		return nil, err
	}
	room.mu.Lock()
	sess, err := room.sessions.setReady(userID, ready)
	if err != nil {
		room.mu.Unlock()
		return nil, err
	}
	e.persistSession(room, sess)
	room.mu.Unlock()

	return []Event{{Room: roomCode, Name: EventPlayerReady, Payload: PlayerReadyPayload{
		PlayerID: userID,
		IsReady:  ready,
	}}}, nil
}

// StartGame begins round 1. Only the host may start, with at least 3
// connected players, all ready.
func (e *Engine) StartGame(userID, roomCode string) ([]Event, error) {
	room, err := e.room(roomCode)
	if err != nil {
		return nil, err
	}
	room.mu.Lock()
	defer room.mu.Unlock()

	if room.Phase != PhaseLobby {
		return nil, ErrNotInGame
	}
	if room.HostID != userID {
		return nil, ErrNotHost
	}
	if len(room.sessions.connected()) < 3 {
		return nil, ErrTooFewPlayers
	}
	if !room.sessions.allReady() {
		return nil, ErrNotAllReady
	}

	room.CurrentRound = 1
	room.StartedAt = time.Now().UTC()
	evs, err := e.beginRoundLocked(room)
	if err != nil {
		room.CurrentRound = 0
		room.StartedAt = time.Time{}
		room.Phase = PhaseLobby
		return nil, err
	}
	return evs, nil
}

// beginRoundLocked draws a word, opens the round ledger and enters
// SHOW_WORD. Caller holds room.mu.
func (e *Engine) beginRoundLocked(room *Room) ([]Event, error) {
	word, err := e.catalog.PickRandomActive()
	if err != nil {
		return nil, err
	}
	round := newRoundLedger(room.CurrentRound, word)
	room.round = round
	room.Phase = PhaseShowWord
	room.phaseDeadline = time.Time{}
	room.phaseLimit = 0
	room.lastScoring = nil

	e.persistRound(room, round)
	e.persistPhase(room)

	roundID := round.ID
	e.sched.Schedule(room.Code, e.previewDelay, func() { e.advanceToWrite(room.Code, roundID) })

	log.Info().Str("room", room.Code).Int("round", round.Number).Str("lemma", word.Lemma).Msg("round started")
	return []Event{{Room: room.Code, Name: EventStateChange, Payload: StateChangePayload{
		State: PhaseShowWord,
		Data:  roundData(room),
	}}}, nil
}

// advanceToWrite is the SHOW_WORD -> WRITE_DEF timer transition.
func (e *Engine) advanceToWrite(code, roundID string) {
	room, err := e.room(code)
	if err != nil {
		return
	}
	room.mu.Lock()
	if room.failed || room.Phase != PhaseShowWord {
		room.mu.Unlock()
		return
	}
	if room.round == nil || room.round.ID != roundID {
		e.failRoomLocked(room, "write transition fired without its round")
		room.mu.Unlock()
		return
	}

	room.Phase = PhaseWriteDef
	d := time.Duration(room.Config.WriteTimer) * time.Second
	room.phaseLimit = room.Config.WriteTimer
	room.phaseDeadline = time.Now().Add(d)

	data := roundData(room)
	data.TimeLimit = room.phaseLimit
	data.ExpiresAt = room.phaseDeadline.UnixMilli()

	e.persistPhase(room)
	e.sched.Schedule(code, d, func() { e.advanceToVote(code, roundID) })
	room.mu.Unlock()

	log.Info().Str("room", code).Str("to", string(PhaseWriteDef)).Msg("phase transition")
	e.send(Event{Room: code, Name: EventStateChange, Payload: StateChangePayload{State: PhaseWriteDef, Data: data}})
}

// advanceToVote closes the write phase: placeholders for connected
// non-responders, the genuine definition inserted, options shuffled.
func (e *Engine) advanceToVote(code, roundID string) {
	room, err := e.room(code)
	if err != nil {
		return
	}
	room.mu.Lock()
	if room.failed || room.Phase != PhaseWriteDef {
		room.mu.Unlock()
		return
	}
	if room.round == nil || room.round.ID != roundID {
		e.failRoomLocked(room, "vote transition fired without its round")
		room.mu.Unlock()
		return
	}

	room.round.Seal(room.sessions.connected())
	room.Phase = PhaseVote
	d := time.Duration(room.Config.VoteTimer) * time.Second
	room.phaseLimit = room.Config.VoteTimer
	room.phaseDeadline = time.Now().Add(d)

	data := VoteData{
		RoundID:   room.round.ID,
		Options:   room.round.Options(),
		TimeLimit: room.phaseLimit,
		ExpiresAt: room.phaseDeadline.UnixMilli(),
	}

	e.persistSubmissions(room, room.round)
	e.persistPhase(room)
	e.sched.Schedule(code, d, func() { e.advanceToResults(code, roundID) })
	room.mu.Unlock()

	log.Info().Str("room", code).Str("to", string(PhaseVote)).Msg("phase transition")
	e.send(Event{Room: code, Name: EventStateChange, Payload: StateChangePayload{State: PhaseVote, Data: data}})
}

// advanceToResults tallies the round and applies score deltas.
func (e *Engine) advanceToResults(code, roundID string) {
	room, err := e.room(code)
	if err != nil {
		return
	}
	room.mu.Lock()
	if room.failed || room.Phase != PhaseVote {
		room.mu.Unlock()
		return
	}
	if room.round == nil || room.round.ID != roundID {
		e.failRoomLocked(room, "results transition fired without its round")
		room.mu.Unlock()
		return
	}

	scoring := ScoreRound(
		room.sessions.connected(),
		room.round.Submissions(),
		room.round.Votes(),
		room.round.GenuineID(),
	)
	for _, entry := range scoring {
		if sess := room.sessions.find(entry.PlayerID); sess != nil {
			sess.Score += entry.PointsEarned
		}
	}
	room.lastScoring = scoring
	room.Phase = PhaseResults
	room.phaseDeadline = time.Time{}
	room.phaseLimit = 0

	data := resultsData(room)

	e.persistScores(room)
	e.persistPhase(room)
	e.sched.Schedule(code, e.reviewDelay, func() { e.advanceNext(code, roundID) })
	room.mu.Unlock()

	log.Info().Str("room", code).Str("to", string(PhaseResults)).Msg("phase transition")
	e.send(Event{Room: code, Name: EventStateChange, Payload: StateChangePayload{State: PhaseResults, Data: data}})
}

// advanceNext either starts the following round or ends the game.
// Convention: increment currentRound first, then begin with the new
// value, so round numbers never skip or repeat.
func (e *Engine) advanceNext(code, roundID string) {
	room, err := e.room(code)
	if err != nil {
		return
	}
	room.mu.Lock()
	if room.failed || room.Phase != PhaseResults {
		room.mu.Unlock()
		return
	}
	if room.round == nil || room.round.ID != roundID {
		e.failRoomLocked(room, "next-step transition fired without its round")
		room.mu.Unlock()
		return
	}

	if room.CurrentRound < room.Config.NumRounds {
		room.CurrentRound++
		evs, err := e.beginRoundLocked(room)
		if err != nil {
			e.failRoomLocked(room, "could not begin next round: "+err.Error())
			room.mu.Unlock()
			return
		}
		room.mu.Unlock()
		e.send(evs...)
		return
	}

	room.Phase = PhaseEndGame
	room.EndedAt = time.Now().UTC()
	e.sched.Cancel(code)

	data := endGameData(room)
	e.persistPhase(room)
	room.mu.Unlock()

	log.Info().Str("room", code).Msg("game ended")
	e.send(Event{Room: code, Name: EventStateChange, Payload: StateChangePayload{State: PhaseEndGame, Data: data}})
}

// SubmitDefinition records a player's fake definition during
// WRITE_DEF. Observers only learn that a submission arrived.
func (e *Engine) SubmitDefinition(userID, roomCode, roundID, text string) ([]Event, error) {
	room, err := e.room(roomCode)
	if err != nil {
		return nil, err
	}
	room.mu.Lock()
	defer room.mu.Unlock()

	if room.sessions.find(userID) == nil {
		return nil, ErrNotInGame
	}
	if room.Phase != PhaseWriteDef || room.round == nil || room.round.ID != roundID {
		return nil, ErrNotInGame
	}
	sub, err := room.round.AddSubmission(userID, text)
	if err != nil {
		return nil, err
	}
	e.persistSubmission(room, room.round, sub)

	return []Event{{Room: roomCode, Name: EventSubmissionReceived, Payload: SubmissionReceivedPayload{
		PlayerID: userID,
	}}}, nil
}

// SubmitVote records a player's choice during VOTE.
func (e *Engine) SubmitVote(userID, roomCode, roundID, submissionID string) ([]Event, error) {
	room, err := e.room(roomCode)
	if err != nil {
		return nil, err
	}
	room.mu.Lock()
	defer room.mu.Unlock()

	if room.sessions.find(userID) == nil {
		return nil, ErrNotInGame
	}
	if room.Phase != PhaseVote || room.round == nil || room.round.ID != roundID {
		return nil, ErrNotInGame
	}
	vote, err := room.round.CastVote(userID, submissionID)
	if err != nil {
		return nil, err
	}
	e.persistVote(room, room.round, vote)

	return []Event{{Room: roomCode, Name: EventVoteReceived, Payload: VoteReceivedPayload{
		PlayerID: userID,
	}}}, nil
}

// HandleDisconnect flips the session's connectivity and reports the
// updated player list. It never fails: the player who dropped has no
// request to answer.
func (e *Engine) HandleDisconnect(connID string) []Event {
	e.mu.Lock()
	code, ok := e.byConn[connID]
	delete(e.byConn, connID)
	e.mu.Unlock()
	if !ok {
		return nil
	}
	room, err := e.room(code)
	if err != nil {
		return nil
	}

	room.mu.Lock()
	sess := room.sessions.markDisconnected(connID)
	if sess == nil {
		room.mu.Unlock()
		return nil
	}
	e.persistSession(room, sess)
	payload := PlayerLeftPayload{
		PlayerID: sess.UserID,
		Players:  room.sessions.connectedInfos(),
	}
	room.mu.Unlock()

	log.Info().Str("room", code).Str("player", sess.UserID).Msg("player disconnected")
	return []Event{{Room: code, Name: EventPlayerLeft, Payload: payload}}
}

// RoomDetail is the REST representation of a room with all seats,
// disconnected ones included.
type RoomDetail struct {
	RoomInfo
	Players []PlayerInfo `json:"players"`
}

func (e *Engine) GetRoom(code string) (*RoomDetail, error) {
	room, err := e.room(code)
	if err != nil {
		return nil, err
	}
	room.mu.Lock()
	defer room.mu.Unlock()
	return &RoomDetail{RoomInfo: room.info(), Players: room.sessions.infos()}, nil
}

// TeardownRoom cancels the room's pending timer and forgets it.
func (e *Engine) TeardownRoom(code string) {
	e.sched.Cancel(code)
	e.mu.Lock()
	delete(e.rooms, code)
	e.mu.Unlock()
}

// Shutdown cancels every pending timer. Used on server exit.
func (e *Engine) Shutdown() {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for code := range e.rooms {
		e.sched.Cancel(code)
	}
}

func (e *Engine) failRoomLocked(room *Room, msg string) {
	room.failed = true
	e.sched.Cancel(room.Code)
	log.Error().Str("room", room.Code).Str("phase", string(room.Phase)).Msg(msg)
}

func playerInfo(sess *PlayerSession) PlayerInfo {
	return PlayerInfo{
		ID:          sess.UserID,
		Nickname:    sess.Nickname,
		IsReady:     sess.Ready,
		IsConnected: sess.Connected,
	}
}

func randomCode(n int) string {
	letters := []rune("ABCDEFGHJKLMNPQRSTUVWXYZ23456789")
	b := make([]rune, n)
	for i := range b {
		b[i] = letters[rand.Intn(len(letters))]
	}
	return string(b)
}
