package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"apocrifo/internal/auth"
	"apocrifo/internal/config"
	"apocrifo/internal/db"
	"apocrifo/internal/game"
	"apocrifo/internal/words"
	"apocrifo/internal/ws"
	staticserver "apocrifo/static"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	zerologlog "github.com/rs/zerolog/log"
)

const version = "v1.0.0"

func main() {
	var (
		showHelp    = flag.Bool("help", false, "Show help message")
		showVersion = flag.Bool("version", false, "Show version information")
		portFlag    = flag.String("port", "", "Port to listen on (overrides PORT env var)")
	)
	flag.BoolVar(showHelp, "h", false, "Show help message (shorthand)")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	flag.Parse()

	if *showHelp {
		fmt.Printf(`Apocrifo - Multiplayer fake-definition party game

Usage: %s [options]

Options:
  -h, --help      Show this help message
  -v, --version   Show version information
  --port PORT     Port to listen on (default: 8080 or PORT env var)

Environment Variables:
  PORT            Port to listen on (default: 8080)
  DATABASE_URL    Postgres DSN; without it the server runs in-memory only
  JWT_SECRET      Secret used to sign and verify access tokens
  SEED_WORDS      Seed the default word list when the catalog is empty (default: true)

Visit http://localhost:8080 after starting the server.
`, os.Args[0])
		return
	}

	if *showVersion {
		fmt.Printf("Apocrifo %s\n", version)
		return
	}

	// zerolog setup (human-friendly console)
	zerolog.TimeFieldFormat = time.RFC3339
	cw := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	zerologlog.Logger = zerologlog.Output(cw)

	cfg := config.FromEnv()
	port := *portFlag
	if port == "" {
		port = cfg.Port
	}

	// Gin setup with custom logger (skip /socket.io noise)
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/socket.io") {
			return
		}
		zerologlog.Info().Str("path", path).Int("status", c.Writer.Status()).Dur("dur", time.Since(start)).Msg("http")
	})

	// Healthcheck
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "time": time.Now().UTC()})
	})

	// Database (optional: without DATABASE_URL everything stays in memory)
	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		zerologlog.Warn().Err(err).Msg("running without database")
		conn = nil
	} else if err := db.Migrate(conn); err != nil {
		zerologlog.Fatal().Err(err).Msg("database migration failed")
	}

	// Word catalog
	catalog := words.New(conn)
	if cfg.SeedWords {
		if err := catalog.Seed(); err != nil {
			zerologlog.Error().Err(err).Msg("word seeding failed")
		}
	}

	// Auth + game engine + socket transport
	authSvc := auth.New(conn, cfg.JWTSecret)
	engine := game.NewEngine(catalog, conn)
	defer engine.Shutdown()

	sock := ws.New(engine, authSvc)
	io := sock.Mount(r)
	defer io.Close()

	authSvc.RegisterRoutes(r)

	// Rooms REST API
	api := r.Group("/api", authSvc.Middleware())
	api.POST("/rooms", func(c *gin.Context) {
		claims, ok := auth.FromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		var req game.RoomConfig
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid config"})
			return
		}
		info, err := engine.CreateRoom(claims.UserID, req)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"code": info.Code, "room": info})
	})
	api.GET("/rooms/:code", func(c *gin.Context) {
		detail, err := engine.GetRoom(c.Param("code"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, detail)
	})

	// Serve frontend (if embedded build is present) for all other routes
	r.NoRoute(func(c *gin.Context) {
		staticserver.Handler().ServeHTTP(c.Writer, c.Request)
	})

	zerologlog.Info().Str("port", port).Msg("listening")
	if err := r.Run(":" + port); err != nil {
		zerologlog.Fatal().Err(err).Msg("server exited")
	}
}
