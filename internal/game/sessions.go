package game

import "sort"

// PlayerSession is one user's seat within a room. It survives
// transient connection drops: disconnects flip Connected instead of
// deleting the row, so score and identity persist.
type PlayerSession struct {
	UserID    string
	Nickname  string
	ConnID    string
	Connected bool
	Ready     bool
	Score     int
	DBID      uint
}

// sessionSet is the per-room session directory. Rows keep join order,
// which is the stable tie-break for every leaderboard.
type sessionSet struct {
	ordered []*PlayerSession
}

func newSessionSet() *sessionSet {
	return &sessionSet{}
}

func (ss *sessionSet) find(userID string) *PlayerSession {
	for _, s := range ss.ordered {
		if s.UserID == userID {
			return s
		}
	}
	return nil
}

func (ss *sessionSet) findByConn(connID string) *PlayerSession {
	for _, s := range ss.ordered {
		if s.Connected && s.ConnID == connID {
			return s
		}
	}
	return nil
}

func (ss *sessionSet) remove(sess *PlayerSession) {
	for i, s := range ss.ordered {
		if s == sess {
			ss.ordered = append(ss.ordered[:i], ss.ordered[i+1:]...)
			return
		}
	}
}

// join creates or revives a session for (room, user). A stale
// disconnected row for the same user is purged first; a still
// connected row is updated in place (reconnect) keeping readiness and
// score. Fails with ErrRoomFull when the post-join connected count
// would exceed max.
func (ss *sessionSet) join(userID, nickname, connID string, max int) (*PlayerSession, error) {
	if existing := ss.find(userID); existing != nil {
		if !existing.Connected {
			ss.remove(existing)
		} else {
			existing.ConnID = connID
			existing.Nickname = nickname
			return existing, nil
		}
	}
	if len(ss.connected())+1 > max {
		return nil, ErrRoomFull
	}
	sess := &PlayerSession{
		UserID:    userID,
		Nickname:  nickname,
		ConnID:    connID,
		Connected: true,
	}
	ss.ordered = append(ss.ordered, sess)
	return sess, nil
}

func (ss *sessionSet) setReady(userID string, ready bool) (*PlayerSession, error) {
	sess := ss.find(userID)
	if sess == nil {
		return nil, ErrNotInRoom
	}
	sess.Ready = ready
	return sess, nil
}

// markDisconnected flips connectivity for the session bound to the
// given channel handle. Returns nil when the handle is unknown.
func (ss *sessionSet) markDisconnected(connID string) *PlayerSession {
	sess := ss.findByConn(connID)
	if sess == nil {
		return nil
	}
	sess.Connected = false
	return sess
}

// connected returns the sessions currently marked connected, in join
// order. Every player-facing computation works off this set.
func (ss *sessionSet) connected() []*PlayerSession {
	out := make([]*PlayerSession, 0, len(ss.ordered))
	for _, s := range ss.ordered {
		if s.Connected {
			out = append(out, s)
		}
	}
	return out
}

func (ss *sessionSet) allReady() bool {
	for _, s := range ss.connected() {
		if !s.Ready {
			return false
		}
	}
	return true
}

func (ss *sessionSet) connectedInfos() []PlayerInfo {
	conns := ss.connected()
	out := make([]PlayerInfo, 0, len(conns))
	for _, s := range conns {
		out = append(out, PlayerInfo{
			ID:          s.UserID,
			Nickname:    s.Nickname,
			IsReady:     s.Ready,
			IsConnected: s.Connected,
		})
	}
	return out
}

// infos returns every seat, disconnected ones included.
func (ss *sessionSet) infos() []PlayerInfo {
	out := make([]PlayerInfo, 0, len(ss.ordered))
	for _, s := range ss.ordered {
		out = append(out, PlayerInfo{
			ID:          s.UserID,
			Nickname:    s.Nickname,
			IsReady:     s.Ready,
			IsConnected: s.Connected,
		})
	}
	return out
}

// leaderboard returns connected sessions sorted by score descending.
// The sort is stable so ties keep join order.
func (ss *sessionSet) leaderboard() []*PlayerSession {
	out := ss.connected()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}
