package game

import "errors"

// Player-facing validation failures. They are surfaced to the
// requesting client only and never crash a room.
var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrRoomFull           = errors.New("room is full")
	ErrNotHost            = errors.New("only the host can start the game")
	ErrTooFewPlayers      = errors.New("at least 3 connected players are required")
	ErrNotAllReady        = errors.New("not all players are ready")
	ErrNotInRoom          = errors.New("player is not in this room")
	ErrNotInGame          = errors.New("player is not in this game")
	ErrAlreadySubmitted   = errors.New("definition already submitted for this round")
	ErrAlreadyVoted       = errors.New("already voted this round")
	ErrSelfVote           = errors.New("cannot vote for your own definition")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrNoWordsAvailable   = errors.New("no words available")
)
