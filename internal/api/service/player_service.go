package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"ctchen222/solo-tictactoe/internal/api/models"
	"ctchen222/solo-tictactoe/internal/api/repository"
)

var (
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// Claims identifies the caller of an authenticated request.
type Claims struct {
	PlayerID string
	Username string
}

type tokenClaims struct {
	Username string `json:"un"`
	jwt.RegisteredClaims
}

// PlayerService defines the interface for account-related business logic.
type PlayerService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.Player, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error)
	GuestLogin(ctx context.Context) (*models.LoginResponse, error)
	GetPlayer(ctx context.Context, id string) (*models.Player, error)
	UpdatePreferences(ctx context.Context, id string, req *models.PreferencesRequest) (*models.Player, error)
	ParseToken(token string) (*Claims, error)
}

type playerService struct {
	playerRepo repository.PlayerRepository
	jwtSecret  []byte
	tokenTTL   time.Duration
	now        func() time.Time
}

// NewPlayerService creates a new PlayerService signing tokens with secret.
func NewPlayerService(playerRepo repository.PlayerRepository, secret string, tokenTTL time.Duration) PlayerService {
	return &playerService{
		playerRepo: playerRepo,
		jwtSecret:  []byte(secret),
		tokenTTL:   tokenTTL,
		now:        time.Now,
	}
}

// Register handles account registration.
func (s *playerService) Register(ctx context.Context, req *models.RegisterRequest) (*models.Player, error) {
	// Check if player already exists
	existing, err := s.playerRepo.GetPlayerByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	displayName := req.DisplayName
	if displayName == "" {
		displayName = req.Username
	}
	p := &models.Player{
		ID:           uuid.NewString(),
		Username:     req.Username,
		PasswordHash: string(hash),
		DisplayName:  displayName,
	}
	// Another registration may have taken the name since the lookup above.
	err = s.playerRepo.CreatePlayer(ctx, p)
	if errors.Is(err, repository.ErrPlayerExists) {
		return nil, ErrUsernameTaken
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Login handles account login and returns a JWT on success.
func (s *playerService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	p, err := s.playerRepo.GetPlayerByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if p == nil || p.IsGuest {
		return nil, ErrInvalidCredentials
	}

	err = bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(req.Password))
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issue(p)
}

// GuestLogin creates a throwaway account so guests can own games too.
func (s *playerService) GuestLogin(ctx context.Context) (*models.LoginResponse, error) {
	id := uuid.NewString()
	p := &models.Player{
		ID:          id,
		Username:    "guest-" + id[:8],
		DisplayName: "guest",
		IsGuest:     true,
	}
	if err := s.playerRepo.CreatePlayer(ctx, p); err != nil {
		return nil, err
	}
	return s.issue(p)
}

func (s *playerService) GetPlayer(ctx context.Context, id string) (*models.Player, error) {
	return s.playerRepo.GetPlayerByID(ctx, id)
}

// UpdatePreferences stores the defaults used by new games.
func (s *playerService) UpdatePreferences(ctx context.Context, id string, req *models.PreferencesRequest) (*models.Player, error) {
	if err := s.playerRepo.UpdatePreferences(ctx, id, req.DisplayName, req.Mode, req.Difficulty); err != nil {
		return nil, err
	}
	return s.playerRepo.GetPlayerByID(ctx, id)
}

// ParseToken validates a token issued by Login or GuestLogin.
func (s *playerService) ParseToken(token string) (*Claims, error) {
	var claims tokenClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return &Claims{PlayerID: claims.Subject, Username: claims.Username}, nil
}

func (s *playerService) issue(p *models.Player) (*models.LoginResponse, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		Username: p.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return &models.LoginResponse{Token: tokenString, PlayerID: p.ID}, nil
}
