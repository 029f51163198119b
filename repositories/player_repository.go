package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/calcetto/models"
)

var (
	ErrPlayerNotFound         = errors.New("player not found")
	ErrPlayerUsernameConflict = errors.New("player with the same first and last name already exists")
)

type PlayerRepository interface {
	GetAll(ctx context.Context) ([]*models.Player, error)
	GetByID(ctx context.Context, id int) (*models.Player, error)
	Create(ctx context.Context, player *models.Player) error
	Update(ctx context.Context, player *models.Player) error
	Delete(ctx context.Context, id int) error
	// AddCounters атомарно прибавляет приращения к счетчикам игроков.
	AddCounters(ctx context.Context, deltas map[int]models.PlayerCounters) error
	// ReplaceAll удаляет всех игроков и записывает переданных с их id.
	ReplaceAll(ctx context.Context, players []*models.Player) error
}

type postgresPlayerRepository struct {
	db *sql.DB
}

func NewPostgresPlayerRepository(db *sql.DB) PlayerRepository {
	return &postgresPlayerRepository{db: db}
}

const playerColumns = `
	id, first_name, last_name, nickname, phone, email, birth_date,
	overall, vision, pace, possession, fitness,
	tier, primary_role, secondary_role,
	pin_hash, account_role, blocked,
	mvp_points, wins, presences, goals, cards, red_appearances, blue_appearances,
	photo_key, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPlayer(row rowScanner) (*models.Player, error) {
	var p models.Player
	err := row.Scan(
		&p.ID, &p.FirstName, &p.LastName, &p.Nickname, &p.Phone, &p.Email, &p.BirthDate,
		&p.Overall, &p.Vision, &p.Pace, &p.Possession, &p.Fitness,
		&p.Tier, &p.PrimaryRole, &p.SecondaryRole,
		&p.PINHash, &p.AccountRole, &p.Blocked,
		&p.MVPPoints, &p.Wins, &p.Presences, &p.Goals, &p.Cards, &p.RedAppearances, &p.BlueAppearances,
		&p.PhotoKey, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *postgresPlayerRepository) GetAll(ctx context.Context) ([]*models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players ORDER BY last_name, first_name, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query players: %w", err)
	}
	defer rows.Close()

	players := make([]*models.Player, 0)
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan player row: %w", err)
		}
		players = append(players, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating player rows: %w", err)
	}
	return players, nil
}

func (r *postgresPlayerRepository) GetByID(ctx context.Context, id int) (*models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE id = $1`

	p, err := scanPlayer(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to scan player: %w", err)
	}
	return p, nil
}

func (r *postgresPlayerRepository) Create(ctx context.Context, p *models.Player) error {
	query := `
		INSERT INTO players (
			first_name, last_name, nickname, phone, email, birth_date,
			overall, vision, pace, possession, fitness,
			tier, primary_role, secondary_role, pin_hash, account_role, blocked, photo_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		p.FirstName, p.LastName, p.Nickname, p.Phone, p.Email, p.BirthDate,
		p.Overall, p.Vision, p.Pace, p.Possession, p.Fitness,
		p.Tier, p.PrimaryRole, p.SecondaryRole, p.PINHash, p.AccountRole, p.Blocked, p.PhotoKey,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)

	return handlePlayerError(err)
}

func (r *postgresPlayerRepository) Update(ctx context.Context, p *models.Player) error {
	query := `
		UPDATE players SET
			first_name = $1, last_name = $2, nickname = $3, phone = $4, email = $5, birth_date = $6,
			overall = $7, vision = $8, pace = $9, possession = $10, fitness = $11,
			tier = $12, primary_role = $13, secondary_role = $14,
			pin_hash = $15, account_role = $16, blocked = $17, photo_key = $18,
			updated_at = NOW()
		WHERE id = $19
		RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query,
		p.FirstName, p.LastName, p.Nickname, p.Phone, p.Email, p.BirthDate,
		p.Overall, p.Vision, p.Pace, p.Possession, p.Fitness,
		p.Tier, p.PrimaryRole, p.SecondaryRole,
		p.PINHash, p.AccountRole, p.Blocked, p.PhotoKey,
		p.ID,
	).Scan(&p.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return ErrPlayerNotFound
	}
	return handlePlayerError(err)
}

// Delete удаляет игрока; convocations, составы и события матчей удаляются каскадно.
func (r *postgresPlayerRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM players WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete player %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func (r *postgresPlayerRepository) AddCounters(ctx context.Context, deltas map[int]models.PlayerCounters) error {
	query := `
		UPDATE players SET
			mvp_points = mvp_points + $2,
			wins = wins + $3,
			presences = presences + $4,
			goals = goals + $5,
			cards = cards + $6,
			red_appearances = red_appearances + $7,
			blue_appearances = blue_appearances + $8,
			updated_at = NOW()
		WHERE id = $1`

	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		for id, d := range deltas {
			result, err := tx.ExecContext(ctx, query,
				id, d.MVPPoints, d.Wins, d.Presences, d.Goals, d.Cards, d.RedAppearances, d.BlueAppearances)
			if err != nil {
				return fmt.Errorf("failed to update counters of player %d: %w", id, err)
			}
			if err := checkAffectedRows(result, ErrPlayerNotFound); err != nil {
				return fmt.Errorf("%w: %d", err, id)
			}
		}
		return nil
	})
}

func (r *postgresPlayerRepository) ReplaceAll(ctx context.Context, players []*models.Player) error {
	query := `
		INSERT INTO players (` + playerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18,
			$19, $20, $21, $22, $23, $24, $25, $26, $27, $28)`

	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM players`); err != nil {
			return fmt.Errorf("failed to clear players: %w", err)
		}
		for _, p := range players {
			_, err := tx.ExecContext(ctx, query,
				p.ID, p.FirstName, p.LastName, p.Nickname, p.Phone, p.Email, p.BirthDate,
				p.Overall, p.Vision, p.Pace, p.Possession, p.Fitness,
				p.Tier, p.PrimaryRole, p.SecondaryRole,
				p.PINHash, p.AccountRole, p.Blocked,
				p.MVPPoints, p.Wins, p.Presences, p.Goals, p.Cards, p.RedAppearances, p.BlueAppearances,
				p.PhotoKey, p.CreatedAt, p.UpdatedAt,
			)
			if err != nil {
				return handlePlayerError(err)
			}
		}
		_, err := tx.ExecContext(ctx,
			`SELECT setval(pg_get_serial_sequence('players', 'id'), COALESCE((SELECT MAX(id) FROM players), 0) + 1, false)`)
		return err
	})
}

func handlePlayerError(err error) error {
	if err == nil {
		return nil
	}
	if code, constraint := pqCode(err); code == pqUniqueViolation && constraint == "players_username_key" {
		return ErrPlayerUsernameConflict
	}
	return err
}
