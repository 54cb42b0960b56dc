package game

// Broadcast event names. These are part of the client protocol and
// must not change.
const (
	EventPlayerJoined       = "room:player_joined"
	EventPlayerLeft         = "room:player_left"
	EventPlayerReady        = "room:player_ready"
	EventStateChange        = "game:state_change"
	EventSubmissionReceived = "game:submission_received"
	EventVoteReceived       = "game:vote_received"
)

// Event is a broadcast the state machine wants delivered to a room.
// Player-facing operations return the events they produced and the
// transport adapter performs the sends; timer-fired transitions hand
// theirs to the Engine's Emitter instead.
type Event struct {
	Room    string
	Name    string
	Payload any
}

// Emitter delivers events to every member of a room, in order.
type Emitter interface {
	Emit(ev Event)
}

type PlayerInfo struct {
	ID          string `json:"id"`
	Nickname    string `json:"nickname"`
	IsReady     bool   `json:"isReady"`
	IsConnected bool   `json:"isConnected"`
}

type PlayerJoinedPayload struct {
	Player       PlayerInfo `json:"player"`
	TotalPlayers int        `json:"totalPlayers"`
}

type PlayerLeftPayload struct {
	PlayerID string       `json:"playerId"`
	Players  []PlayerInfo `json:"players"`
}

type PlayerReadyPayload struct {
	PlayerID string `json:"playerId"`
	IsReady  bool   `json:"isReady"`
}

type StateChangePayload struct {
	State Phase `json:"state"`
	Data  any   `json:"data,omitempty"`
}

type LeaderboardEntry struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
	Score    int    `json:"score"`
}

// RoundData is the state_change payload for SHOW_WORD and WRITE_DEF.
// TimeLimit/ExpiresAt are only set for timed phases; ExpiresAt is an
// absolute deadline in Unix milliseconds so clients recompute their
// own countdown independent of message latency.
type RoundData struct {
	RoundID     string             `json:"roundId"`
	RoundNumber int                `json:"roundNumber"`
	TotalRounds int                `json:"totalRounds"`
	Word        Word               `json:"word"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
	TimeLimit   int                `json:"timeLimit,omitempty"`
	ExpiresAt   int64              `json:"expiresAt,omitempty"`
}

type VoteOption struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type VoteData struct {
	RoundID   string       `json:"roundId"`
	Options   []VoteOption `json:"options"`
	TimeLimit int          `json:"timeLimit"`
	ExpiresAt int64        `json:"expiresAt"`
}

type ScoreBreakdown struct {
	CorrectVote   int `json:"correctVote,omitempty"`
	VotesReceived int `json:"votesReceived,omitempty"`
}

type PlayerScore struct {
	PlayerID     string         `json:"playerId"`
	Nickname     string         `json:"nickname"`
	PointsEarned int            `json:"pointsEarned"`
	Breakdown    ScoreBreakdown `json:"breakdown"`
}

type TotalScoreEntry struct {
	PlayerID   string `json:"playerId"`
	Nickname   string `json:"nickname"`
	TotalScore int    `json:"totalScore"`
}

type ResultsData struct {
	CorrectSubmissionID string            `json:"correctSubmissionId"`
	Scoring             []PlayerScore     `json:"scoring"`
	Leaderboard         []TotalScoreEntry `json:"leaderboard"`
}

type FinalScoreEntry struct {
	PlayerID string `json:"playerId"`
	Nickname string `json:"nickname"`
	Score    int    `json:"score"`
}

type EndGameData struct {
	FinalLeaderboard []FinalScoreEntry `json:"finalLeaderboard"`
}

type SubmissionReceivedPayload struct {
	PlayerID string `json:"playerId"`
}

type VoteReceivedPayload struct {
	PlayerID string `json:"playerId"`
}
