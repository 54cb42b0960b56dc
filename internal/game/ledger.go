package game

import (
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// placeholderDefinition is filed for connected players who never
// answered before the write phase closed.
const placeholderDefinition = "Nessuna definizione fornita"

// Submission is one candidate definition attached to a round. The
// genuine definition has an empty AuthorID.
type Submission struct {
	ID       string
	AuthorID string
	Text     string
	Genuine  bool
	DBID     uint
}

type Vote struct {
	VoterID      string
	SubmissionID string
	DBID         uint
}

// RoundLedger records one round's word, submissions and votes. It is
// built and read entirely within the round's lifetime and only the
// Engine writes to it.
type RoundLedger struct {
	ID        string
	Number    int
	Word      Word
	StartedAt time.Time
	DBID      uint

	submissions []*Submission
	byAuthor    map[string]*Submission
	votes       map[string]*Vote
	sealed      bool
}

func newRoundLedger(number int, word Word) *RoundLedger {
	return &RoundLedger{
		ID:        uuid.NewString(),
		Number:    number,
		Word:      word,
		StartedAt: time.Now().UTC(),
		byAuthor:  make(map[string]*Submission),
		votes:     make(map[string]*Vote),
	}
}

// AddSubmission records a player's fake definition. At most one per
// player per round.
func (r *RoundLedger) AddSubmission(authorID, text string) (*Submission, error) {
	if _, ok := r.byAuthor[authorID]; ok {
		return nil, ErrAlreadySubmitted
	}
	sub := &Submission{ID: uuid.NewString(), AuthorID: authorID, Text: text}
	r.submissions = append(r.submissions, sub)
	r.byAuthor[authorID] = sub
	return sub, nil
}

func (r *RoundLedger) HasSubmitted(userID string) bool {
	_, ok := r.byAuthor[userID]
	return ok
}

// Seal closes the write phase: placeholders are synthesized for the
// given players that never submitted, the genuine definition is
// inserted, and the full list is shuffled with a fresh uniform
// permutation so position never leaks authorship order.
func (r *RoundLedger) Seal(connected []*PlayerSession) {
	if r.sealed {
		return
	}
	for _, p := range connected {
		if !r.HasSubmitted(p.UserID) {
			r.AddSubmission(p.UserID, placeholderDefinition)
		}
	}
	genuine := &Submission{
		ID:      uuid.NewString(),
		Text:    r.Word.Definition,
		Genuine: true,
	}
	r.submissions = append(r.submissions, genuine)
	rand.Shuffle(len(r.submissions), func(i, j int) {
		r.submissions[i], r.submissions[j] = r.submissions[j], r.submissions[i]
	})
	r.sealed = true
}

// CastVote records a player's choice. Self-votes and duplicate votes
// are rejected.
func (r *RoundLedger) CastVote(voterID, submissionID string) (*Vote, error) {
	sub := r.findSubmission(submissionID)
	if sub == nil {
		return nil, ErrSubmissionNotFound
	}
	if sub.AuthorID == voterID {
		return nil, ErrSelfVote
	}
	if _, ok := r.votes[voterID]; ok {
		return nil, ErrAlreadyVoted
	}
	v := &Vote{VoterID: voterID, SubmissionID: submissionID}
	r.votes[voterID] = v
	return v, nil
}

func (r *RoundLedger) findSubmission(id string) *Submission {
	for _, s := range r.submissions {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// Options returns the shuffled choice list with authorship withheld.
func (r *RoundLedger) Options() []VoteOption {
	out := make([]VoteOption, 0, len(r.submissions))
	for _, s := range r.submissions {
		out = append(out, VoteOption{ID: s.ID, Text: s.Text})
	}
	return out
}

func (r *RoundLedger) GenuineID() string {
	for _, s := range r.submissions {
		if s.Genuine {
			return s.ID
		}
	}
	return ""
}

func (r *RoundLedger) Submissions() []*Submission {
	return r.submissions
}

func (r *RoundLedger) Votes() map[string]*Vote {
	return r.votes
}
