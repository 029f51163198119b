package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/Dosada05/calcetto/models"
	"github.com/Dosada05/calcetto/repositories"
	"github.com/Dosada05/calcetto/storage"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

const (
	BackupVersion = "1.0"
	BackupSource  = "calcetto"
)

type BackupService interface {
	// Export собирает снимок всех данных. Если хранилище настроено, снимок также загружается в R2.
	Export(ctx context.Context) (*BackupResult, error)
	// Restore заменяет всех игроков и все матчи содержимым снимка.
	Restore(ctx context.Context, backup *models.Backup) error
}

type BackupResult struct {
	Backup   *models.Backup `json:"backup,omitempty"`
	Key      string         `json:"key,omitempty"`
	Location string         `json:"location,omitempty"`
}

type backupService struct {
	playerRepo repositories.PlayerRepository
	matchRepo  repositories.MatchRepository
	uploader   storage.FileUploader
	now        func() time.Time
}

func NewBackupService(
	playerRepo repositories.PlayerRepository,
	matchRepo repositories.MatchRepository,
	uploader storage.FileUploader,
) BackupService {
	return &backupService{
		playerRepo: playerRepo,
		matchRepo:  matchRepo,
		uploader:   uploader,
		now:        time.Now,
	}
}

func (s *backupService) Export(ctx context.Context) (*BackupResult, error) {
	backup := &models.Backup{
		Metadata: models.BackupMetadata{
			Version: BackupVersion,
			Date:    s.now().UTC(),
			Source:  BackupSource,
		},
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		players, err := s.playerRepo.GetAll(gctx)
		if err != nil {
			return handleRepositoryError("list players", err)
		}
		backup.Data.Players = make([]*models.BackupPlayer, 0, len(players))
		for _, p := range players {
			backup.Data.Players = append(backup.Data.Players, models.NewBackupPlayer(p))
		}
		return nil
	})
	g.Go(func() error {
		matches, err := s.matchRepo.GetAll(gctx)
		if err != nil {
			return handleRepositoryError("list matches", err)
		}
		backup.Data.Matches = matches
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &BackupResult{Backup: backup}
	if s.uploader == nil {
		return result, nil
	}

	body, err := json.Marshal(backup)
	if err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}
	key := path.Join("backups", backup.Metadata.Date.Format("2006-01-02")+"-"+uuid.NewString()+".json")
	uploaded, err := s.uploader.Upload(ctx, key, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to upload backup: %w", err)
	}
	result.Key = uploaded.Key
	result.Location = uploaded.Location
	return result, nil
}

func validateBackup(b *models.Backup) error {
	if b == nil {
		return fmt.Errorf("%w: empty document", ErrInvalidBackup)
	}
	if b.Metadata.Version == "" {
		return fmt.Errorf("%w: missing metadata.version", ErrInvalidBackup)
	}
	for i, p := range b.Data.Players {
		if p == nil || p.Player == nil || p.ID <= 0 {
			return fmt.Errorf("%w: player #%d has no id", ErrInvalidBackup, i)
		}
	}
	for i, m := range b.Data.Matches {
		if m == nil || m.ID <= 0 {
			return fmt.Errorf("%w: match #%d has no id", ErrInvalidBackup, i)
		}
		if !m.State.Valid() {
			return fmt.Errorf("%w: match %d has state %q", ErrInvalidBackup, m.ID, m.State)
		}
		if err := validateBackupMatch(m); err != nil {
			return fmt.Errorf("%w: match %d: %v", ErrInvalidBackup, m.ID, err)
		}
	}
	return nil
}

// validateBackupMatch проверяет те же инварианты, что держат операции над матчем:
// результат есть только у опубликованного или закрытого матча, закрытый матч закрываем.
func validateBackupMatch(m *models.Match) error {
	if !m.Format.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidFormat, m.Format)
	}
	for id, r := range m.Responses {
		if !r.Valid() {
			return fmt.Errorf("%w: player %d answered %q", ErrInvalidResponse, id, r)
		}
	}
	if both := lo.Intersect(m.Red, m.Blue); len(both) > 0 {
		return fmt.Errorf("%w: %v", ErrPlayerInBothTeams, both)
	}
	if (m.RedGoals != nil && *m.RedGoals < 0) || (m.BlueGoals != nil && *m.BlueGoals < 0) {
		return ErrInvalidGoals
	}

	switch m.State {
	case models.MatchPublished:
	case models.MatchClosed:
		return validateClosable(m)
	default:
		if m.RedGoals != nil || m.BlueGoals != nil || m.MVPRed != nil || m.MVPBlue != nil {
			return fmt.Errorf("%w: result recorded in state %s", ErrInvalidTransition, m.State)
		}
	}
	return nil
}

// Restore сначала заменяет игроков, затем матчи. Если матчи записать не удалось,
// возвращается PartialWriteError: игроки уже заменены.
func (s *backupService) Restore(ctx context.Context, backup *models.Backup) error {
	if err := validateBackup(backup); err != nil {
		return err
	}
	players := make([]*models.Player, 0, len(backup.Data.Players))
	for _, p := range backup.Data.Players {
		players = append(players, p.Unwrap())
	}
	for _, m := range backup.Data.Matches {
		m.Normalize()
	}
	if err := s.playerRepo.ReplaceAll(ctx, players); err != nil {
		return handleRepositoryError("restore players", err)
	}
	if err := s.matchRepo.ReplaceAll(ctx, backup.Data.Matches); err != nil {
		return &PartialWriteError{
			Op:        "restore backup",
			Completed: []string{"players"},
			Err:       handleRepositoryError("restore matches", err),
		}
	}
	return nil
}
