package game

import (
	"encoding/json"
	"time"

	"apocrifo/internal/db"

	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
)

// Write-through mirroring of room state to Postgres. The in-memory
// room is authoritative; a nil DB turns every call into a no-op so
// the engine runs (and is tested) without a database. Persistence
// failures are logged, never surfaced to players.

func (e *Engine) persistRoom(room *Room) {
	if e.db == nil {
		return
	}
	record := db.Room{
		Code:       room.Code,
		HostID:     room.HostID,
		State:      string(room.Phase),
		MaxPlayers: room.Config.MaxPlayers,
		NumRounds:  room.Config.NumRounds,
		WriteTimer: room.Config.WriteTimer,
		VoteTimer:  room.Config.VoteTimer,
	}
	if err := e.db.Create(&record).Error; err != nil {
		log.Error().Err(err).Str("room", room.Code).Msg("persist room failed")
		return
	}
	room.DBID = record.ID
	e.persistEvent(room, "room_created", map[string]any{"code": room.Code, "hostId": room.HostID})
}

func (e *Engine) persistPhase(room *Room) {
	if e.db == nil || room.DBID == 0 {
		return
	}
	updates := map[string]any{
		"state":         string(room.Phase),
		"current_round": room.CurrentRound,
	}
	if !room.StartedAt.IsZero() {
		updates["started_at"] = room.StartedAt
	}
	if !room.EndedAt.IsZero() {
		updates["ended_at"] = room.EndedAt
	}
	if err := e.db.Model(&db.Room{}).Where("id = ?", room.DBID).Updates(updates).Error; err != nil {
		log.Error().Err(err).Str("room", room.Code).Msg("persist phase failed")
		return
	}
	e.persistEvent(room, "game_state_changed", map[string]any{
		"state": string(room.Phase),
		"round": room.CurrentRound,
	})
}

func (e *Engine) persistSession(room *Room, sess *PlayerSession) {
	if e.db == nil || room.DBID == 0 {
		return
	}
	if sess.DBID == 0 {
		var existing db.PlayerSession
		if err := e.db.Where("room_id = ? AND user_id = ?", room.DBID, sess.UserID).
			First(&existing).Error; err == nil {
			sess.DBID = existing.ID
		}
	}
	if sess.DBID == 0 {
		record := db.PlayerSession{
			RoomID:      room.DBID,
			UserID:      sess.UserID,
			Nickname:    sess.Nickname,
			SocketID:    sess.ConnID,
			IsConnected: sess.Connected,
			IsReady:     sess.Ready,
			Score:       sess.Score,
		}
		if err := e.db.Create(&record).Error; err != nil {
			log.Error().Err(err).Str("room", room.Code).Str("player", sess.UserID).Msg("persist session failed")
			return
		}
		sess.DBID = record.ID
		return
	}
	updates := map[string]any{
		"socket_id":    sess.ConnID,
		"is_connected": sess.Connected,
		"is_ready":     sess.Ready,
		"score":        sess.Score,
		"nickname":     sess.Nickname,
	}
	if err := e.db.Model(&db.PlayerSession{}).Where("id = ?", sess.DBID).Updates(updates).Error; err != nil {
		log.Error().Err(err).Str("room", room.Code).Str("player", sess.UserID).Msg("persist session failed")
	}
}

func (e *Engine) persistRound(room *Room, round *RoundLedger) {
	if e.db == nil || room.DBID == 0 || round.DBID != 0 {
		return
	}
	record := db.Round{
		RoomID:       room.DBID,
		RoundID:      round.ID,
		Number:       round.Number,
		Lemma:        round.Word.Lemma,
		PartOfSpeech: round.Word.PartOfSpeech,
		Definition:   round.Word.Definition,
		StartedAt:    round.StartedAt,
	}
	if err := e.db.Create(&record).Error; err != nil {
		log.Error().Err(err).Str("room", room.Code).Int("round", round.Number).Msg("persist round failed")
		return
	}
	round.DBID = record.ID
}

func (e *Engine) persistSubmission(room *Room, round *RoundLedger, sub *Submission) {
	if e.db == nil || round.DBID == 0 || sub.DBID != 0 {
		return
	}
	record := db.Submission{
		RoundID:      round.DBID,
		SubmissionID: sub.ID,
		AuthorID:     sub.AuthorID,
		Text:         sub.Text,
		IsGenuine:    sub.Genuine,
	}
	if err := e.db.Create(&record).Error; err != nil {
		log.Error().Err(err).Str("room", room.Code).Msg("persist submission failed")
		return
	}
	sub.DBID = record.ID
}

func (e *Engine) persistSubmissions(room *Room, round *RoundLedger) {
	for _, sub := range round.Submissions() {
		e.persistSubmission(room, round, sub)
	}
}

func (e *Engine) persistVote(room *Room, round *RoundLedger, vote *Vote) {
	if e.db == nil || round.DBID == 0 || vote.DBID != 0 {
		return
	}
	record := db.Vote{
		RoundID:      round.DBID,
		VoterID:      vote.VoterID,
		SubmissionID: vote.SubmissionID,
	}
	if err := e.db.Create(&record).Error; err != nil {
		log.Error().Err(err).Str("room", room.Code).Str("voter", vote.VoterID).Msg("persist vote failed")
		return
	}
	vote.DBID = record.ID
}

func (e *Engine) persistScores(room *Room) {
	for _, sess := range room.sessions.ordered {
		e.persistSession(room, sess)
	}
}

func (e *Engine) persistEvent(room *Room, eventType string, payload any) {
	if e.db == nil || room.DBID == 0 {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	event := db.Event{
		RoomID:    room.DBID,
		Type:      eventType,
		Payload:   datatypes.JSON(data),
		CreatedAt: time.Now().UTC(),
	}
	if err := e.db.Create(&event).Error; err != nil {
		log.Error().Err(err).Str("room", room.Code).Str("type", eventType).Msg("persist event failed")
	}
}
