package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	playgroundvalidator "github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"ctchen222/solo-tictactoe/internal/api/controller"
	"ctchen222/solo-tictactoe/internal/api/middleware"
	"ctchen222/solo-tictactoe/internal/api/response"
	"ctchen222/solo-tictactoe/internal/api/service"
	"ctchen222/solo-tictactoe/internal/room"
	"ctchen222/solo-tictactoe/internal/validator"
)

var tracer = otel.Tracer("server")

type Server struct {
	engine        *gin.Engine
	players       service.PlayerService
	games         service.GameService
	upgrader      websocket.Upgrader
	computerDelay time.Duration
}

// NewServer wires the REST API and the live websocket channel.
func NewServer(players service.PlayerService, games service.GameService, computerDelay time.Duration) (*Server, error) {
	if v, ok := binding.Validator.Engine().(*playgroundvalidator.Validate); ok {
		if err := validator.RegisterGameValidations(v); err != nil {
			return nil, err
		}
	}

	s := &Server{
		engine:  gin.New(),
		players: players,
		games:   games,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		computerDelay: computerDelay,
	}
	s.engine.Use(gin.Recovery(), requestLogger())
	s.registerHandlers()
	return s, nil
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerHandlers() {
	playerController := controller.NewPlayerController(s.players)
	gameController := controller.NewGameController(s.games)
	auth := middleware.Auth(s.players)

	api := s.engine.Group("/api")
	{
		api.POST("/auth/register", playerController.Register)
		api.POST("/auth/login", playerController.Login)
		api.POST("/auth/guest", playerController.GuestLogin)

		players := api.Group("/players", auth)
		players.GET("/me", playerController.Me)
		players.PUT("/me/preferences", playerController.UpdatePreferences)

		games := api.Group("/games", auth)
		games.POST("", gameController.Create)
		games.GET("/:id", gameController.Get)
		games.POST("/:id/moves", gameController.SubmitMove)
		games.POST("/:id/computer-move", gameController.ComputerMove)
		games.POST("/:id/reset", gameController.Reset)
		games.PATCH("/:id/settings", gameController.UpdateSettings)
		games.DELETE("/:id", gameController.Delete)
	}

	s.engine.GET("/ws", auth, s.handleWebSocket)
	s.engine.GET("/healthz", func(c *gin.Context) {
		response.SuccessResponse(c, gin.H{"status": "ok"})
	})
}

// handleWebSocket checks the game belongs to the caller, upgrades the
// connection and serves it until the client leaves.
func (s *Server) handleWebSocket(c *gin.Context) {
	r := c.Request
	ctx, span := tracer.Start(r.Context(), "server.handleWebSocket", trace.WithAttributes(
		attribute.String("http.url", r.URL.Path),
		attribute.String("http.method", r.Method),
	))
	defer span.End()

	playerID := middleware.PlayerID(c)
	gameID := c.Query("game")
	span.SetAttributes(attribute.String("player.id", playerID), attribute.String("game.id", gameID))

	view, err := s.games.Get(ctx, playerID, gameID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Game not available")
		response.ErrorFromMapping(c, err, controller.GameErrors)
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, r, nil)
	if err != nil {
		slog.WarnContext(ctx, "Failed to upgrade connection", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to upgrade connection")
		return
	}

	slog.InfoContext(ctx, "Live channel opened", "player.id", playerID, "game.id", gameID)
	room.NewRoom(gameID, playerID, conn, s.games, s.computerDelay).Run(ctx, *view)
	slog.InfoContext(ctx, "Live channel closed", "player.id", playerID, "game.id", gameID)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.InfoContext(c.Request.Context(), "HTTP request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
		for _, err := range c.Errors {
			slog.ErrorContext(c.Request.Context(), "Request failed", "path", c.FullPath(), "error", err.Err)
		}
	}
}
