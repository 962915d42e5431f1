package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ctchen222/solo-tictactoe/internal/api/middleware"
	"ctchen222/solo-tictactoe/internal/api/models"
	"ctchen222/solo-tictactoe/internal/api/repository"
	"ctchen222/solo-tictactoe/internal/api/response"
	"ctchen222/solo-tictactoe/internal/api/service"
)

var playerErrors = []response.Status{
	{Err: service.ErrUsernameTaken, Code: http.StatusConflict},
	{Err: service.ErrInvalidCredentials, Code: http.StatusUnauthorized},
	{Err: repository.ErrPlayerNotFound, Code: http.StatusNotFound},
}

// PlayerController handles account-related HTTP requests.
type PlayerController struct {
	playerService service.PlayerService
}

// NewPlayerController creates a new PlayerController.
func NewPlayerController(playerService service.PlayerService) *PlayerController {
	return &PlayerController{
		playerService: playerService,
	}
}

// Register handles the registration endpoint.
func (pc *PlayerController) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	p, err := pc.playerService.Register(c.Request.Context(), &req)
	if err != nil {
		response.ErrorFromMapping(c, err, playerErrors)
		return
	}

	response.SuccessResponse(c, p.ToResponse())
}

// Login handles the login endpoint.
func (pc *PlayerController) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	res, err := pc.playerService.Login(c.Request.Context(), &req)
	if err != nil {
		response.ErrorFromMapping(c, err, playerErrors)
		return
	}

	response.SuccessResponse(c, res)
}

// GuestLogin handles guest login, returning a token for a fresh guest account.
func (pc *PlayerController) GuestLogin(c *gin.Context) {
	res, err := pc.playerService.GuestLogin(c.Request.Context())
	if err != nil {
		response.ErrorFromMapping(c, err, playerErrors)
		return
	}

	response.SuccessResponse(c, res)
}

// Me returns the authenticated account.
func (pc *PlayerController) Me(c *gin.Context) {
	p, err := pc.playerService.GetPlayer(c.Request.Context(), middleware.PlayerID(c))
	if err != nil {
		response.ErrorFromMapping(c, err, playerErrors)
		return
	}

	response.SuccessResponse(c, p.ToResponse())
}

// UpdatePreferences stores the defaults used for new games.
func (pc *PlayerController) UpdatePreferences(c *gin.Context) {
	var req models.PreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	p, err := pc.playerService.UpdatePreferences(c.Request.Context(), middleware.PlayerID(c), &req)
	if err != nil {
		response.ErrorFromMapping(c, err, playerErrors)
		return
	}

	response.SuccessResponse(c, p.ToResponse())
}
