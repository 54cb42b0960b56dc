package game

// stateLoading is a wire-only state reported to clients that ask for a
// snapshot while a round is still being set up. It is never a machine
// phase.
const stateLoading Phase = "LOADING"

// CurrentState rebuilds, without side effects, the same payload a live
// game:state_change broadcast would have carried for the room's
// current phase. Late joiners and reconnectors use it to resync
// without replaying history.
func (e *Engine) CurrentState(roomCode string) (StateChangePayload, error) {
	room, err := e.room(roomCode)
	if err != nil {
		return StateChangePayload{}, err
	}
	room.mu.Lock()
	defer room.mu.Unlock()

	if room.Phase == PhaseLobby {
		return StateChangePayload{State: PhaseLobby}, nil
	}
	if room.Phase == PhaseEndGame {
		return StateChangePayload{State: PhaseEndGame, Data: endGameData(room)}, nil
	}
	if room.round == nil {
		return StateChangePayload{State: stateLoading}, nil
	}

	switch room.Phase {
	case PhaseShowWord:
		return StateChangePayload{State: PhaseShowWord, Data: roundData(room)}, nil
	case PhaseWriteDef:
		data := roundData(room)
		data.TimeLimit = room.phaseLimit
		data.ExpiresAt = room.phaseDeadline.UnixMilli()
		return StateChangePayload{State: PhaseWriteDef, Data: data}, nil
	case PhaseVote:
		return StateChangePayload{State: PhaseVote, Data: VoteData{
			RoundID:   room.round.ID,
			Options:   room.round.Options(),
			TimeLimit: room.phaseLimit,
			ExpiresAt: room.phaseDeadline.UnixMilli(),
		}}, nil
	case PhaseResults:
		return StateChangePayload{State: PhaseResults, Data: resultsData(room)}, nil
	}
	return StateChangePayload{State: stateLoading}, nil
}

// roundData builds the SHOW_WORD/WRITE_DEF payload. The word's
// definition is withheld. Caller holds room.mu.
func roundData(room *Room) RoundData {
	ranked := room.sessions.leaderboard()
	lb := make([]LeaderboardEntry, 0, len(ranked))
	for _, s := range ranked {
		lb = append(lb, LeaderboardEntry{ID: s.UserID, Nickname: s.Nickname, Score: s.Score})
	}
	return RoundData{
		RoundID:     room.round.ID,
		RoundNumber: room.round.Number,
		TotalRounds: room.Config.NumRounds,
		Word: Word{
			Lemma:        room.round.Word.Lemma,
			PartOfSpeech: room.round.Word.PartOfSpeech,
		},
		Leaderboard: lb,
	}
}

func resultsData(room *Room) ResultsData {
	ranked := room.sessions.leaderboard()
	lb := make([]TotalScoreEntry, 0, len(ranked))
	for _, s := range ranked {
		lb = append(lb, TotalScoreEntry{PlayerID: s.UserID, Nickname: s.Nickname, TotalScore: s.Score})
	}
	return ResultsData{
		CorrectSubmissionID: room.round.GenuineID(),
		Scoring:             room.lastScoring,
		Leaderboard:         lb,
	}
}

func endGameData(room *Room) EndGameData {
	ranked := room.sessions.leaderboard()
	final := make([]FinalScoreEntry, 0, len(ranked))
	for _, s := range ranked {
		final = append(final, FinalScoreEntry{PlayerID: s.UserID, Nickname: s.Nickname, Score: s.Score})
	}
	return EndGameData{FinalLeaderboard: final}
}
