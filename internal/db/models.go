package db

import (
	"time"

	"gorm.io/datatypes"
)

type User struct {
	ID           uint   `gorm:"primaryKey"`
	Email        string `gorm:"size:255;uniqueIndex;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	Nickname     string `gorm:"size:64;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Room struct {
	ID           uint   `gorm:"primaryKey"`
	Code         string `gorm:"size:12;uniqueIndex;not null"`
	HostID       string `gorm:"size:64;not null"`
	State        string `gorm:"size:32;not null"`
	CurrentRound int    `gorm:"not null;default:0"`
	MaxPlayers   int    `gorm:"not null;default:8"`
	NumRounds    int    `gorm:"not null;default:3"`
	WriteTimer   int    `gorm:"not null;default:60"`
	VoteTimer    int    `gorm:"not null;default:30"`
	StartedAt    *time.Time
	EndedAt      *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Players      []PlayerSession
	Rounds       []Round
	Events       []Event
}

type PlayerSession struct {
	ID          uint   `gorm:"primaryKey"`
	RoomID      uint   `gorm:"index;not null;uniqueIndex:idx_sessions_room_user"`
	UserID      string `gorm:"size:64;not null;uniqueIndex:idx_sessions_room_user"`
	Nickname    string `gorm:"size:64;not null"`
	SocketID    string `gorm:"size:64"`
	IsConnected bool   `gorm:"not null;default:true"`
	IsReady     bool   `gorm:"not null;default:false"`
	Score       int    `gorm:"not null;default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Round struct {
	ID           uint   `gorm:"primaryKey"`
	RoomID       uint   `gorm:"index;not null"`
	RoundID      string `gorm:"size:36;uniqueIndex;not null"`
	Number       int    `gorm:"not null"`
	Lemma        string `gorm:"size:128;not null"`
	PartOfSpeech string `gorm:"size:32"`
	Definition   string `gorm:"size:500"`
	StartedAt    time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Submissions  []Submission
	Votes        []Vote
}

type Submission struct {
	ID           uint   `gorm:"primaryKey"`
	RoundID      uint   `gorm:"index;not null"`
	SubmissionID string `gorm:"size:36;uniqueIndex;not null"`
	AuthorID     string `gorm:"size:64"` // empty marks the genuine definition
	Text         string `gorm:"size:500;not null"`
	IsGenuine    bool   `gorm:"not null;default:false"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Vote struct {
	ID           uint   `gorm:"primaryKey"`
	RoundID      uint   `gorm:"index;not null;uniqueIndex:idx_votes_round_voter"`
	VoterID      string `gorm:"size:64;not null;uniqueIndex:idx_votes_round_voter"`
	SubmissionID string `gorm:"size:36;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Word struct {
	ID           uint   `gorm:"primaryKey"`
	Lemma        string `gorm:"size:128;uniqueIndex;not null"`
	PartOfSpeech string `gorm:"size:32;not null"`
	Definition   string `gorm:"size:500;not null"`
	Active       bool   `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Event struct {
	ID        uint   `gorm:"primaryKey"`
	RoomID    uint   `gorm:"index;not null"`
	Type      string `gorm:"size:64;not null"`
	Payload   datatypes.JSON
	CreatedAt time.Time
}
