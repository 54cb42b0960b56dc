package game

import (
	"sync"
	"time"
)

type Phase string

const (
	PhaseLobby    Phase = "LOBBY"
	PhaseShowWord Phase = "SHOW_WORD"
	PhaseWriteDef Phase = "WRITE_DEF"
	PhaseVote     Phase = "VOTE"
	PhaseResults  Phase = "RESULTS"
	PhaseEndGame  Phase = "END_GAME"
)

// RoomConfig holds the host-chosen match parameters. Timer values are
// in seconds, matching the wire format used by clients.
type RoomConfig struct {
	MaxPlayers int `json:"maxPlayers"`
	NumRounds  int `json:"numRounds"`
	WriteTimer int `json:"writeTimer"`
	VoteTimer  int `json:"voteTimer"`
}

type Word struct {
	Lemma        string `json:"lemma"`
	PartOfSpeech string `json:"partOfSpeech"`
	Definition   string `json:"definition,omitempty"`
}

// WordCatalog supplies playable vocabulary. Implementations return
// ErrNoWordsAvailable when nothing can be drawn.
type WordCatalog interface {
	PickRandomActive() (Word, error)
}

// Room is one match instance. All mutable state hangs off it and is
// guarded by mu; only the Engine's operations and timer transitions
// touch it.
type Room struct {
	Code         string
	HostID       string
	Config       RoomConfig
	Phase        Phase
	CurrentRound int
	CreatedAt    time.Time
	StartedAt    time.Time
	EndedAt      time.Time

	sessions *sessionSet
	round    *RoundLedger

	// deadline of the currently timed phase, kept so a snapshot can
	// reproduce the same expiresAt a live broadcast carried
	phaseDeadline time.Time
	phaseLimit    int

	// scoring of the last completed round, for RESULTS snapshots
	lastScoring []PlayerScore

	// set when a timer-fired transition hit a broken invariant; the
	// room no longer progresses
	failed bool

	DBID uint
	mu   sync.Mutex
}

// RoomInfo is the REST/ack representation of a room.
type RoomInfo struct {
	Code         string `json:"code"`
	HostID       string `json:"hostId"`
	State        Phase  `json:"state"`
	CurrentRound int    `json:"currentRound"`
	MaxPlayers   int    `json:"maxPlayers"`
	NumRounds    int    `json:"numRounds"`
	WriteTimer   int    `json:"writeTimer"`
	VoteTimer    int    `json:"voteTimer"`
}

func (r *Room) info() RoomInfo {
	return RoomInfo{
		Code:         r.Code,
		HostID:       r.HostID,
		State:        r.Phase,
		CurrentRound: r.CurrentRound,
		MaxPlayers:   r.Config.MaxPlayers,
		NumRounds:    r.Config.NumRounds,
		WriteTimer:   r.Config.WriteTimer,
		VoteTimer:    r.Config.VoteTimer,
	}
}
