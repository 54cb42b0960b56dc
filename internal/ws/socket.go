// Package ws is the realtime boundary: it authenticates connections,
// decodes the closed set of client requests, hands them to the game
// engine and delivers the engine's broadcasts back to room members.
package ws

import (
	"net/http"

	"apocrifo/internal/auth"
	"apocrifo/internal/game"

	"github.com/gin-gonic/gin"
	socketio "github.com/googollee/go-socket.io"
	"github.com/rs/zerolog/log"
)

// ConnCtx is the per-connection state. Identity is resolved once at
// connect time from the JWT; every engine call receives the explicit
// user id from here.
type ConnCtx struct {
	UserID   string
	Nickname string
	Room     string
}

type Server struct {
	engine *game.Engine
	auth   *auth.Service
	io     *socketio.Server
}

func New(engine *game.Engine, authSvc *auth.Service) *Server {
	return &Server{engine: engine, auth: authSvc}
}

// Emit delivers one engine broadcast to every member of its room.
func (srv *Server) Emit(ev game.Event) {
	srv.io.BroadcastToRoom("/", ev.Room, ev.Name, ev.Payload)
}

func (srv *Server) emitAll(evs []game.Event) {
	for _, ev := range evs {
		srv.Emit(ev)
	}
}

// Typed request payloads. Unknown shapes fail JSON decoding at the
// socket layer and never reach the engine.
type joinPayload struct {
	RoomCode string `json:"roomCode"`
}

type readyPayload struct {
	RoomCode string `json:"roomCode"`
	IsReady  bool   `json:"isReady"`
}

type startPayload struct {
	RoomCode string `json:"roomCode"`
}

type getStatePayload struct {
	RoomCode string `json:"roomCode"`
}

type submitPayload struct {
	RoomCode   string `json:"roomCode"`
	RoundID    string `json:"roundId"`
	Definition string `json:"definition"`
}

type votePayload struct {
	RoomCode     string `json:"roomCode"`
	RoundID      string `json:"roundId"`
	SubmissionID string `json:"submissionId"`
}

func fail(err error) map[string]any {
	return map[string]any{"success": false, "error": err.Error()}
}

// Mount attaches the Socket.IO server with all handlers to the given
// Gin engine and wires itself as the engine's emitter.
func (srv *Server) Mount(r *gin.Engine) *socketio.Server {
	io := socketio.NewServer(nil)
	srv.io = io
	srv.engine.SetEmitter(srv)

	io.OnConnect("/", func(s socketio.Conn) error {
		u := s.URL()
		token := u.Query().Get("token")
		claims, err := srv.auth.Verify(token)
		if err != nil {
			log.Warn().Str("sid", s.ID()).Msg("socket rejected: invalid token")
			return err
		}
		s.SetContext(&ConnCtx{UserID: claims.UserID, Nickname: claims.Nickname})
		log.Info().Str("sid", s.ID()).Str("user", claims.UserID).Msg("socket connected")
		return nil
	})

	io.OnEvent("/", "room:join", func(s socketio.Conn, payload joinPayload) map[string]any {
		ctx := s.Context().(*ConnCtx)
		reply, evs, err := srv.engine.JoinRoom(ctx.UserID, ctx.Nickname, s.ID(), payload.RoomCode)
		if err != nil {
			return fail(err)
		}
		ctx.Room = payload.RoomCode
		s.Join(payload.RoomCode)
		srv.emitAll(evs)
		// late joiners resync mid-game from a snapshot
		if reply.Room.State != game.PhaseLobby {
			if snap, err := srv.engine.CurrentState(payload.RoomCode); err == nil {
				s.Emit(game.EventStateChange, snap)
			}
		}
		return map[string]any{
			"success": true,
			"room":    reply.Room,
			"player":  reply.Player,
			"players": reply.Players,
		}
	})

	io.OnEvent("/", "room:ready", func(s socketio.Conn, payload readyPayload) map[string]any {
		ctx := s.Context().(*ConnCtx)
		evs, err := srv.engine.SetReady(ctx.UserID, payload.RoomCode, payload.IsReady)
		if err != nil {
			return fail(err)
		}
		srv.emitAll(evs)
		return map[string]any{"success": true}
	})

	io.OnEvent("/", "game:start", func(s socketio.Conn, payload startPayload) map[string]any {
		ctx := s.Context().(*ConnCtx)
		evs, err := srv.engine.StartGame(ctx.UserID, payload.RoomCode)
		if err != nil {
			return fail(err)
		}
		srv.emitAll(evs)
		return map[string]any{"success": true}
	})

	io.OnEvent("/", "game:get_state", func(s socketio.Conn, payload getStatePayload) map[string]any {
		snap, err := srv.engine.CurrentState(payload.RoomCode)
		if err != nil {
			return fail(err)
		}
		return map[string]any{"success": true, "state": snap.State, "data": snap.Data}
	})

	io.OnEvent("/", "game:submit_definition", func(s socketio.Conn, payload submitPayload) map[string]any {
		ctx := s.Context().(*ConnCtx)
		evs, err := srv.engine.SubmitDefinition(ctx.UserID, payload.RoomCode, payload.RoundID, payload.Definition)
		if err != nil {
			return fail(err)
		}
		srv.emitAll(evs)
		return map[string]any{"success": true}
	})

	io.OnEvent("/", "game:vote", func(s socketio.Conn, payload votePayload) map[string]any {
		ctx := s.Context().(*ConnCtx)
		evs, err := srv.engine.SubmitVote(ctx.UserID, payload.RoomCode, payload.RoundID, payload.SubmissionID)
		if err != nil {
			return fail(err)
		}
		srv.emitAll(evs)
		return map[string]any{"success": true}
	})

	io.OnEvent("/", "room:leave", func(s socketio.Conn) map[string]any {
		ctx := s.Context().(*ConnCtx)
		srv.emitAll(srv.engine.HandleDisconnect(s.ID()))
		if ctx.Room != "" {
			s.Leave(ctx.Room)
			ctx.Room = ""
		}
		return map[string]any{"success": true}
	})

	io.OnError("/", func(s socketio.Conn, e error) {
		log.Error().Str("sid", s.ID()).Err(e).Msg("socket error")
	})

	io.OnDisconnect("/", func(s socketio.Conn, reason string) {
		srv.emitAll(srv.engine.HandleDisconnect(s.ID()))
		log.Info().Str("sid", s.ID()).Str("reason", reason).Msg("socket disconnected")
	})

	go io.Serve()

	r.GET("/socket.io/*any", gin.WrapH(io))
	r.POST("/socket.io/*any", gin.WrapH(io))
	r.OPTIONS("/socket.io/*any", func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		c.Status(http.StatusNoContent)
	})

	return io
}
