package controller

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"ctchen222/solo-tictactoe/internal/api/middleware"
	"ctchen222/solo-tictactoe/internal/api/models"
	"ctchen222/solo-tictactoe/internal/api/repository"
	"ctchen222/solo-tictactoe/internal/api/response"
	"ctchen222/solo-tictactoe/internal/api/service"
	"ctchen222/solo-tictactoe/internal/game"
	"ctchen222/solo-tictactoe/internal/gameplay"
)

// GameErrors maps game failures to HTTP statuses.
var GameErrors = []response.Status{
	{Err: game.ErrOutOfRange, Code: http.StatusBadRequest},
	{Err: service.ErrInvalidSettings, Code: http.StatusBadRequest},
	{Err: game.ErrCellOccupied, Code: http.StatusConflict},
	{Err: game.ErrNoMovesAvailable, Code: http.StatusConflict},
	{Err: gameplay.ErrNotYourTurn, Code: http.StatusConflict},
	{Err: gameplay.ErrNotComputerTurn, Code: http.StatusConflict},
	{Err: service.ErrGameNotFound, Code: http.StatusNotFound},
	{Err: repository.ErrPlayerNotFound, Code: http.StatusNotFound},
}

// GameController handles the REST side of running a game.
type GameController struct {
	gameService service.GameService
}

// NewGameController creates a new GameController.
func NewGameController(gameService service.GameService) *GameController {
	return &GameController{gameService: gameService}
}

// Create starts a game for the caller.
func (gc *GameController) Create(c *gin.Context) {
	var req models.CreateGameRequest
	// An empty body is a request for the defaults.
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	view, err := gc.gameService.Create(c.Request.Context(), middleware.PlayerID(c), &req)
	gc.respond(c, view, err)
}

// Get returns the current game state.
func (gc *GameController) Get(c *gin.Context) {
	view, err := gc.gameService.Get(c.Request.Context(), middleware.PlayerID(c), c.Param("id"))
	gc.respond(c, view, err)
}

// SubmitMove places the active player's mark.
func (gc *GameController) SubmitMove(c *gin.Context) {
	var req models.MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	view, err := gc.gameService.SubmitMove(c.Request.Context(), middleware.PlayerID(c), c.Param("id"), req.Position[0], req.Position[1])
	gc.respond(c, view, err)
}

// ComputerMove lets the computer take its turn.
func (gc *GameController) ComputerMove(c *gin.Context) {
	view, err := gc.gameService.ComputerMove(c.Request.Context(), middleware.PlayerID(c), c.Param("id"))
	gc.respond(c, view, err)
}

// Reset clears the board, keeping mode and difficulty.
func (gc *GameController) Reset(c *gin.Context) {
	view, err := gc.gameService.Reset(c.Request.Context(), middleware.PlayerID(c), c.Param("id"))
	gc.respond(c, view, err)
}

// UpdateSettings changes mode and/or difficulty.
func (gc *GameController) UpdateSettings(c *gin.Context) {
	var req models.SettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	view, err := gc.gameService.UpdateSettings(c.Request.Context(), middleware.PlayerID(c), c.Param("id"), &req)
	gc.respond(c, view, err)
}

// Delete ends a game and discards it.
func (gc *GameController) Delete(c *gin.Context) {
	if err := gc.gameService.Delete(c.Request.Context(), middleware.PlayerID(c), c.Param("id")); err != nil {
		response.ErrorFromMapping(c, err, GameErrors)
		return
	}
	response.SuccessResponse(c, gin.H{"id": c.Param("id")})
}

func (gc *GameController) respond(c *gin.Context, view *gameplay.View, err error) {
	if err != nil {
		response.ErrorFromMapping(c, err, GameErrors)
		return
	}
	response.SuccessResponse(c, view)
}
