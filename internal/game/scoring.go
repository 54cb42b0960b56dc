package game

// Scoring rules:
//   +3 for voting the genuine definition
//   +1 for every vote a player's own fake definition received
// No negative points.
const (
	pointsCorrectVote = 3
	pointsPerVoteWon  = 1
)

// ScoreRound is a pure function of one completed round. Every player
// in the given slice gets an entry; players who neither voted
// correctly nor deceived anyone earn 0 with an empty breakdown.
func ScoreRound(players []*PlayerSession, subs []*Submission, votes map[string]*Vote, genuineID string) []PlayerScore {
	authorOf := make(map[string]string, len(subs))
	for _, s := range subs {
		if !s.Genuine {
			authorOf[s.ID] = s.AuthorID
		}
	}

	votesWon := make(map[string]int)
	for _, v := range votes {
		if author, ok := authorOf[v.SubmissionID]; ok {
			votesWon[author]++
		}
	}

	out := make([]PlayerScore, 0, len(players))
	for _, p := range players {
		score := PlayerScore{PlayerID: p.UserID, Nickname: p.Nickname}
		if v, ok := votes[p.UserID]; ok && v.SubmissionID == genuineID {
			score.Breakdown.CorrectVote = pointsCorrectVote
			score.PointsEarned += pointsCorrectVote
		}
		if n := votesWon[p.UserID]; n > 0 {
			score.Breakdown.VotesReceived = n
			score.PointsEarned += n * pointsPerVoteWon
		}
		out = append(out, score)
	}
	return out
}
