package services

import (
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/Dosada05/calcetto/models"
	"github.com/Dosada05/calcetto/repositories"
	"github.com/Dosada05/calcetto/storage"
	"github.com/Dosada05/calcetto/utils"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

const MaxPhotoSize = 1 << 20

type PlayerService interface {
	List(ctx context.Context, filter PlayerFilter) ([]*models.Player, error)
	GetByID(ctx context.Context, id int) (*models.Player, error)
	Create(ctx context.Context, input PlayerInput) (*models.Player, error)
	Update(ctx context.Context, id int, input PlayerInput) (*models.Player, error)
	Delete(ctx context.Context, id int) error
	SetBlocked(ctx context.Context, id int, blocked bool) (*models.Player, error)
	SetAccountRole(ctx context.Context, id int, role models.AccountRole) (*models.Player, error)
	// UploadPhoto сохраняет фото игрока в объектное хранилище; size - размер файла в байтах.
	UploadPhoto(ctx context.Context, id int, file io.Reader, size int64, contentType string) (*models.Player, error)
}

// PlayerInput - анкета игрока. Пустые атрибуты заменяются значением по умолчанию.
type PlayerInput struct {
	FirstName     string             `json:"first_name" validate:"required,max=50"`
	LastName      string             `json:"last_name" validate:"required,max=50"`
	Nickname      string             `json:"nickname" validate:"max=50"`
	Phone         string             `json:"phone" validate:"max=30"`
	Email         *string            `json:"email" validate:"omitempty,email"`
	BirthDate     *string            `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	Overall       int                `json:"overall" validate:"omitempty,min=1,max=5"`
	Vision        int                `json:"vision" validate:"omitempty,min=1,max=5"`
	Pace          int                `json:"pace" validate:"omitempty,min=1,max=5"`
	Possession    int                `json:"possession" validate:"omitempty,min=1,max=5"`
	Fitness       int                `json:"fitness" validate:"omitempty,min=1,max=5"`
	Tier          models.PlayerTier  `json:"tier"`
	PrimaryRole   models.PlayingRole `json:"primary_role"`
	SecondaryRole models.PlayingRole `json:"secondary_role"`
	// PIN задается только при создании администратором; смена PIN - через AuthService.
	PIN string `json:"pin,omitempty" validate:"omitempty,len=4,numeric"`
}

type PlayerSort string

const (
	SortByName      PlayerSort = "name"
	SortBySurname   PlayerSort = "surname"
	SortByRating    PlayerSort = "rating"
	SortByPresences PlayerSort = "presences"
	SortByGoals     PlayerSort = "goals"
	SortByMVP       PlayerSort = "mvp"
)

type PlayerFilter struct {
	Tier       models.PlayerTier
	Role       models.PlayingRole
	Search     string
	OnlyActive bool
	SortBy     PlayerSort
}

type playerService struct {
	playerRepo repositories.PlayerRepository
	uploader   storage.FileUploader
}

// NewPlayerService; uploader может быть nil - тогда загрузка фото отключена.
func NewPlayerService(playerRepo repositories.PlayerRepository, uploader storage.FileUploader) PlayerService {
	return &playerService{
		playerRepo: playerRepo,
		uploader:   uploader,
	}
}

func (s *playerService) populatePhotoURL(p *models.Player) {
	if p != nil && p.PhotoKey != nil && *p.PhotoKey != "" && s.uploader != nil {
		url := s.uploader.GetPublicURL(*p.PhotoKey)
		if url != "" {
			p.PhotoURL = &url
		}
	}
}

func (s *playerService) List(ctx context.Context, filter PlayerFilter) ([]*models.Player, error) {
	players, err := s.playerRepo.GetAll(ctx)
	if err != nil {
		return nil, handleRepositoryError("list players", err)
	}
	players = FilterPlayers(players, filter)
	SortPlayers(players, filter.SortBy)
	for _, p := range players {
		s.populatePhotoURL(p)
	}
	return players, nil
}

// FilterPlayers отбирает игроков по уровню, амплуа (основному или запасному) и строке поиска.
func FilterPlayers(players []*models.Player, f PlayerFilter) []*models.Player {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	return lo.Filter(players, func(p *models.Player, _ int) bool {
		if f.OnlyActive && p.Blocked {
			return false
		}
		if f.Tier != "" && p.Tier != f.Tier {
			return false
		}
		if f.Role != "" && p.PrimaryRole != f.Role && p.SecondaryRole != f.Role {
			return false
		}
		if search != "" {
			haystack := strings.ToLower(p.FirstName + " " + p.LastName + " " + p.Nickname)
			if !strings.Contains(haystack, search) {
				return false
			}
		}
		return true
	})
}

// SortPlayers: по имени/фамилии - по возрастанию, по числовым показателям - по убыванию.
func SortPlayers(players []*models.Player, by PlayerSort) {
	less := func(i, j int) bool {
		a, b := players[i], players[j]
		switch by {
		case SortBySurname:
			if !strings.EqualFold(a.LastName, b.LastName) {
				return strings.ToLower(a.LastName) < strings.ToLower(b.LastName)
			}
		case SortByRating:
			if a.Rating() != b.Rating() {
				return a.Rating() > b.Rating()
			}
		case SortByPresences:
			if a.Presences != b.Presences {
				return a.Presences > b.Presences
			}
		case SortByGoals:
			if a.Goals != b.Goals {
				return a.Goals > b.Goals
			}
		case SortByMVP:
			if a.MVPPoints != b.MVPPoints {
				return a.MVPPoints > b.MVPPoints
			}
		}
		return strings.ToLower(a.DisplayName()) < strings.ToLower(b.DisplayName())
	}
	sort.SliceStable(players, less)
}

func (s *playerService) GetByID(ctx context.Context, id int) (*models.Player, error) {
	p, err := s.playerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, handleRepositoryError("get player", err)
	}
	s.populatePhotoURL(p)
	return p, nil
}

// applyPlayerInput переносит анкету в игрока и проверяет перечисления.
func applyPlayerInput(p *models.Player, input PlayerInput) error {
	first := strings.TrimSpace(input.FirstName)
	last := strings.TrimSpace(input.LastName)
	if first == "" || last == "" {
		return ErrNameRequired
	}
	p.FirstName = first
	p.LastName = last
	p.Nickname = strings.TrimSpace(input.Nickname)
	p.Phone = strings.TrimSpace(input.Phone)
	p.Email = input.Email
	p.BirthDate = nil
	if input.BirthDate != nil && *input.BirthDate != "" {
		d, err := time.Parse("2006-01-02", *input.BirthDate)
		if err != nil {
			return fmt.Errorf("%w: birth date %q", ErrValidationFailed, *input.BirthDate)
		}
		p.BirthDate = &d
	}

	p.Overall, p.Vision, p.Pace = input.Overall, input.Vision, input.Pace
	p.Possession, p.Fitness = input.Possession, input.Fitness
	p.Tier = input.Tier
	p.PrimaryRole = input.PrimaryRole
	p.SecondaryRole = input.SecondaryRole
	p.ApplyDefaults()

	if !p.AttributesValid() {
		return ErrInvalidAttributes
	}
	if !p.Tier.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidTier, p.Tier)
	}
	if !p.PrimaryRole.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidRole, p.PrimaryRole)
	}
	if p.SecondaryRole != "" && !p.SecondaryRole.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidRole, p.SecondaryRole)
	}
	return nil
}

func (s *playerService) Create(ctx context.Context, input PlayerInput) (*models.Player, error) {
	p := &models.Player{}
	if err := applyPlayerInput(p, input); err != nil {
		return nil, err
	}
	if input.PIN != "" {
		if !utils.ValidPIN(input.PIN) {
			return nil, ErrInvalidPIN
		}
		hash, err := utils.HashPIN(input.PIN)
		if err != nil {
			return nil, fmt.Errorf("failed to hash PIN: %w", err)
		}
		p.PINHash = hash
	}
	if err := s.playerRepo.Create(ctx, p); err != nil {
		return nil, handleRepositoryError("create player", err)
	}
	return p, nil
}

// Update меняет анкету игрока. Счетчики, PIN, роль и блокировка не затрагиваются.
func (s *playerService) Update(ctx context.Context, id int, input PlayerInput) (*models.Player, error) {
	p, err := s.playerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, handleRepositoryError("get player", err)
	}
	if err := applyPlayerInput(p, input); err != nil {
		return nil, err
	}
	if err := s.playerRepo.Update(ctx, p); err != nil {
		return nil, handleRepositoryError("update player", err)
	}
	s.populatePhotoURL(p)
	return p, nil
}

// Delete удаляет игрока; хранилище убирает его из всех матчей.
func (s *playerService) Delete(ctx context.Context, id int) error {
	p, err := s.playerRepo.GetByID(ctx, id)
	if err != nil {
		return handleRepositoryError("get player", err)
	}
	if err := s.playerRepo.Delete(ctx, id); err != nil {
		return handleRepositoryError("delete player", err)
	}
	if p.PhotoKey != nil && s.uploader != nil {
		// фото без владельца не мешает работе, ошибку удаления игнорируем
		_ = s.uploader.Delete(ctx, *p.PhotoKey)
	}
	return nil
}

func (s *playerService) SetBlocked(ctx context.Context, id int, blocked bool) (*models.Player, error) {
	p, err := s.playerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, handleRepositoryError("get player", err)
	}
	p.Blocked = blocked
	if err := s.playerRepo.Update(ctx, p); err != nil {
		return nil, handleRepositoryError("update player", err)
	}
	return p, nil
}

func (s *playerService) SetAccountRole(ctx context.Context, id int, role models.AccountRole) (*models.Player, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAccount, role)
	}
	p, err := s.playerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, handleRepositoryError("get player", err)
	}
	p.AccountRole = role
	if err := s.playerRepo.Update(ctx, p); err != nil {
		return nil, handleRepositoryError("update player", err)
	}
	return p, nil
}

func (s *playerService) UploadPhoto(ctx context.Context, id int, file io.Reader, size int64, contentType string) (*models.Player, error) {
	if s.uploader == nil {
		return nil, ErrUploadsDisabled
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFileType, contentType)
	}
	if size > MaxPhotoSize {
		return nil, fmt.Errorf("%w: %d bytes, max %d", ErrFileTooLarge, size, MaxPhotoSize)
	}
	p, err := s.playerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, handleRepositoryError("get player", err)
	}

	ext := strings.TrimPrefix(contentType, "image/")
	key := path.Join("players", fmt.Sprint(id), uuid.NewString()+"."+ext)
	if _, err := s.uploader.Upload(ctx, key, contentType, io.LimitReader(file, MaxPhotoSize)); err != nil {
		return nil, fmt.Errorf("failed to upload player photo: %w", err)
	}

	oldKey := p.PhotoKey
	p.PhotoKey = &key
	if err := s.playerRepo.Update(ctx, p); err != nil {
		_ = s.uploader.Delete(ctx, key)
		return nil, handleRepositoryError("update player", err)
	}
	if oldKey != nil && *oldKey != "" {
		_ = s.uploader.Delete(ctx, *oldKey)
	}
	s.populatePhotoURL(p)
	return p, nil
}
