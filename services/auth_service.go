package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dosada05/calcetto/models"
	"github.com/Dosada05/calcetto/repositories"
	"github.com/Dosada05/calcetto/utils"
)

const (
	AdminNickname  = "admin"
	adminFirstName = "Amministratore"
	adminLastName  = "Sistema"
)

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*models.Player, error)
	// Login принимает "имя.фамилия" или прозвище без учета регистра.
	Login(ctx context.Context, credentials models.Credentials) (*models.Player, error)
	ChangePIN(ctx context.Context, playerID int, currentPIN, newPIN string) error
	// EnsureAdmin создает учетную запись администратора, если ее еще нет.
	EnsureAdmin(ctx context.Context, pin string) (*models.Player, error)
}

type RegisterInput struct {
	FirstName string  `json:"first_name" validate:"required,max=50"`
	LastName  string  `json:"last_name" validate:"required,max=50"`
	Nickname  string  `json:"nickname" validate:"max=50"`
	Phone     string  `json:"phone" validate:"required,max=30"`
	Email     *string `json:"email" validate:"omitempty,email"`
	BirthDate string  `json:"birth_date" validate:"required,datetime=2006-01-02"`
	PIN       string  `json:"pin" validate:"required,len=4,numeric"`
}

type authService struct {
	playerRepo repositories.PlayerRepository
}

func NewAuthService(playerRepo repositories.PlayerRepository) AuthService {
	return &authService{
		playerRepo: playerRepo,
	}
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*models.Player, error) {
	first := strings.TrimSpace(input.FirstName)
	last := strings.TrimSpace(input.LastName)
	if first == "" || last == "" {
		return nil, ErrNameRequired
	}
	if !utils.ValidPIN(input.PIN) {
		return nil, ErrInvalidPIN
	}
	birth, err := time.Parse("2006-01-02", input.BirthDate)
	if err != nil {
		return nil, fmt.Errorf("%w: birth date %q", ErrValidationFailed, input.BirthDate)
	}

	hash, err := utils.HashPIN(input.PIN)
	if err != nil {
		return nil, fmt.Errorf("ошибка хеширования PIN: %w", err)
	}

	player := &models.Player{
		FirstName:   first,
		LastName:    last,
		Nickname:    strings.TrimSpace(input.Nickname),
		Phone:       strings.TrimSpace(input.Phone),
		Email:       input.Email,
		BirthDate:   &birth,
		PINHash:     hash,
		AccountRole: models.AccountOperator,
		Tier:        models.TierReserve,
	}
	player.ApplyDefaults()

	if err := s.playerRepo.Create(ctx, player); err != nil {
		return nil, handleRepositoryError("create player", err)
	}
	return player, nil
}

func (s *authService) findByUsername(ctx context.Context, username string) (*models.Player, error) {
	players, err := s.playerRepo.GetAll(ctx)
	if err != nil {
		return nil, handleRepositoryError("list players", err)
	}
	name := utils.NormalizeUsername(username)
	for _, p := range players {
		if p.Username() == name {
			return p, nil
		}
	}
	for _, p := range players {
		if p.Nickname != "" && utils.NormalizeUsername(p.Nickname) == name {
			return p, nil
		}
	}
	return nil, ErrPlayerNotFound
}

func (s *authService) Login(ctx context.Context, credentials models.Credentials) (*models.Player, error) {
	player, err := s.findByUsername(ctx, credentials.Username)
	if err != nil {
		if errors.Is(err, ErrPlayerNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if player.Blocked {
		return nil, ErrAccountBlocked
	}
	if !utils.CheckPINHash(credentials.PIN, player.PINHash) {
		return nil, ErrInvalidCredentials
	}
	return player, nil
}

func (s *authService) ChangePIN(ctx context.Context, playerID int, currentPIN, newPIN string) error {
	if !utils.ValidPIN(newPIN) {
		return ErrInvalidPIN
	}
	player, err := s.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		return handleRepositoryError("get player", err)
	}
	if player.PINHash != "" && !utils.CheckPINHash(currentPIN, player.PINHash) {
		return ErrInvalidCredentials
	}
	hash, err := utils.HashPIN(newPIN)
	if err != nil {
		return fmt.Errorf("ошибка хеширования PIN: %w", err)
	}
	player.PINHash = hash
	if err := s.playerRepo.Update(ctx, player); err != nil {
		return handleRepositoryError("update player", err)
	}
	return nil
}

// EnsureAdmin не меняет PIN существующего администратора.
func (s *authService) EnsureAdmin(ctx context.Context, pin string) (*models.Player, error) {
	if !utils.ValidPIN(pin) {
		return nil, ErrInvalidPIN
	}
	players, err := s.playerRepo.GetAll(ctx)
	if err != nil {
		return nil, handleRepositoryError("list players", err)
	}
	for _, p := range players {
		if strings.EqualFold(p.Nickname, AdminNickname) {
			return p, nil
		}
	}

	hash, err := utils.HashPIN(pin)
	if err != nil {
		return nil, fmt.Errorf("ошибка хеширования PIN: %w", err)
	}
	admin := &models.Player{
		FirstName:   adminFirstName,
		LastName:    adminLastName,
		Nickname:    AdminNickname,
		PINHash:     hash,
		AccountRole: models.AccountAdmin,
		Tier:        models.TierReserve,
	}
	admin.ApplyDefaults()
	if err := s.playerRepo.Create(ctx, admin); err != nil {
		return nil, handleRepositoryError("create admin", err)
	}
	return admin, nil
}
