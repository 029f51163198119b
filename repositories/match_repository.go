package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/calcetto/models"
	"github.com/lib/pq"
)

var (
	ErrMatchNotFound      = errors.New("match not found")
	ErrMatchPlayerInvalid = errors.New("match references a player that does not exist")
)

// MatchRepository хранит матчи вместе с convocations, составами и событиями.
// Каждая запись матча целиком, со всеми вложенными данными, выполняется атомарно.
type MatchRepository interface {
	GetAll(ctx context.Context) ([]*models.Match, error)
	GetByID(ctx context.Context, id int) (*models.Match, error)
	Create(ctx context.Context, match *models.Match) error
	Update(ctx context.Context, match *models.Match) error
	Delete(ctx context.Context, id int) error
	ReplaceAll(ctx context.Context, matches []*models.Match) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

const matchColumns = `
	id, sequence, match_date, match_time, location, format, state,
	convocation_phase, reserves_opened_at,
	red_goals, blue_goals, mvp_red, mvp_blue, stats_applied,
	created_at, updated_at`

func scanMatch(row rowScanner) (*models.Match, error) {
	var (
		m                   models.Match
		redGoals, blueGoals sql.NullInt64
		mvpRed, mvpBlue     sql.NullInt64
	)
	err := row.Scan(
		&m.ID, &m.Sequence, &m.Date, &m.Time, &m.Location, &m.Format, &m.State,
		&m.Phase, &m.ReservesOpenedAt,
		&redGoals, &blueGoals, &mvpRed, &mvpBlue, &m.StatsApplied,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.RedGoals = intPtrFromNull(redGoals)
	m.BlueGoals = intPtrFromNull(blueGoals)
	m.MVPRed = intPtrFromNull(mvpRed)
	m.MVPBlue = intPtrFromNull(mvpBlue)
	m.Normalize()
	return &m, nil
}

func (r *postgresMatchRepository) GetAll(ctx context.Context) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches ORDER BY match_date, sequence, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	byID := make(map[int]*models.Match)
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", err)
		}
		matches = append(matches, m)
		byID[m.ID] = m
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating match rows: %w", err)
	}
	rows.Close()

	if err := r.loadRelations(ctx, r.db, byID); err != nil {
		return nil, err
	}
	return matches, nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`

	m, err := scanMatch(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match: %w", err)
	}
	if err := r.loadRelations(ctx, r.db, map[int]*models.Match{m.ID: m}); err != nil {
		return nil, err
	}
	return m, nil
}

// loadRelations собирает convocations, составы, события и начисленные счетчики из связанных таблиц.
func (r *postgresMatchRepository) loadRelations(ctx context.Context, exec SQLExecutor, byID map[int]*models.Match) error {
	if len(byID) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(byID))
	for id := range byID {
		ids = append(ids, int64(id))
	}

	convRows, err := exec.QueryContext(ctx, `
		SELECT match_id, player_id, response, invited
		FROM match_convocations
		WHERE match_id = ANY($1)
		ORDER BY match_id, position, player_id`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to query convocations: %w", err)
	}
	for convRows.Next() {
		var (
			matchID, playerID int
			response          models.Response
			invited           bool
		)
		if err := convRows.Scan(&matchID, &playerID, &response, &invited); err != nil {
			convRows.Close()
			return fmt.Errorf("failed to scan convocation row: %w", err)
		}
		m := byID[matchID]
		if invited {
			m.Invited = append(m.Invited, playerID)
		}
		m.Responses[playerID] = response
	}
	if err := closeRows(convRows); err != nil {
		return err
	}

	teamRows, err := exec.QueryContext(ctx, `
		SELECT match_id, player_id, side
		FROM match_teams
		WHERE match_id = ANY($1)
		ORDER BY match_id, position, player_id`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to query match teams: %w", err)
	}
	for teamRows.Next() {
		var (
			matchID, playerID int
			side              models.Side
		)
		if err := teamRows.Scan(&matchID, &playerID, &side); err != nil {
			teamRows.Close()
			return fmt.Errorf("failed to scan match team row: %w", err)
		}
		m := byID[matchID]
		if side == models.SideRed {
			m.Red = append(m.Red, playerID)
		} else {
			m.Blue = append(m.Blue, playerID)
		}
	}
	if err := closeRows(teamRows); err != nil {
		return err
	}

	eventRows, err := exec.QueryContext(ctx, `
		SELECT match_id, player_id, kind, goals
		FROM match_events
		WHERE match_id = ANY($1)
		ORDER BY match_id, position, id`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to query match events: %w", err)
	}
	for eventRows.Next() {
		var (
			matchID, playerID, goals int
			kind                     string
		)
		if err := eventRows.Scan(&matchID, &playerID, &kind, &goals); err != nil {
			eventRows.Close()
			return fmt.Errorf("failed to scan match event row: %w", err)
		}
		m := byID[matchID]
		switch kind {
		case eventGoal:
			m.Scorers = append(m.Scorers, models.Scorer{PlayerID: playerID, Goals: goals})
		case eventCard:
			m.Cards = append(m.Cards, playerID)
		}
	}
	if err := closeRows(eventRows); err != nil {
		return err
	}

	appliedRows, err := exec.QueryContext(ctx, `
		SELECT match_id, player_id,
			mvp_points, wins, presences, goals, cards, red_appearances, blue_appearances
		FROM match_applied_counters
		WHERE match_id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to query applied counters: %w", err)
	}
	for appliedRows.Next() {
		var (
			matchID, playerID int
			c                 models.PlayerCounters
		)
		err := appliedRows.Scan(&matchID, &playerID,
			&c.MVPPoints, &c.Wins, &c.Presences, &c.Goals, &c.Cards, &c.RedAppearances, &c.BlueAppearances)
		if err != nil {
			appliedRows.Close()
			return fmt.Errorf("failed to scan applied counters row: %w", err)
		}
		m := byID[matchID]
		if m.AppliedCounters == nil {
			m.AppliedCounters = make(map[int]models.PlayerCounters)
		}
		m.AppliedCounters[playerID] = c
	}
	return closeRows(appliedRows)
}

const (
	eventGoal = "goal"
	eventCard = "card"
)

func closeRows(rows *sql.Rows) error {
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("error iterating rows: %w", err)
	}
	return rows.Close()
}

func (r *postgresMatchRepository) Create(ctx context.Context, m *models.Match) error {
	query := `
		INSERT INTO matches (
			sequence, match_date, match_time, location, format, state,
			convocation_phase, reserves_opened_at,
			red_goals, blue_goals, mvp_red, mvp_blue, stats_applied)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at`

	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, query,
			m.Sequence, m.Date, m.Time, m.Location, m.Format, m.State,
			m.Phase, m.ReservesOpenedAt,
			m.RedGoals, m.BlueGoals, m.MVPRed, m.MVPBlue, m.StatsApplied,
		).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
		if err != nil {
			return handleMatchError(err)
		}
		return writeRelations(ctx, tx, m)
	})
}

func (r *postgresMatchRepository) Update(ctx context.Context, m *models.Match) error {
	query := `
		UPDATE matches SET
			sequence = $1, match_date = $2, match_time = $3, location = $4, format = $5, state = $6,
			convocation_phase = $7, reserves_opened_at = $8,
			red_goals = $9, blue_goals = $10, mvp_red = $11, mvp_blue = $12, stats_applied = $13,
			updated_at = NOW()
		WHERE id = $14
		RETURNING updated_at`

	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, query,
			m.Sequence, m.Date, m.Time, m.Location, m.Format, m.State,
			m.Phase, m.ReservesOpenedAt,
			m.RedGoals, m.BlueGoals, m.MVPRed, m.MVPBlue, m.StatsApplied,
			m.ID,
		).Scan(&m.UpdatedAt)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrMatchNotFound
			}
			return handleMatchError(err)
		}
		for _, table := range []string{"match_convocations", "match_teams", "match_events", "match_applied_counters"} {
			if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE match_id = $1`, m.ID); err != nil {
				return fmt.Errorf("failed to clear %s of match %d: %w", table, m.ID, err)
			}
		}
		return writeRelations(ctx, tx, m)
	})
}

// writeRelations записывает связанные строки матча; вызывается внутри транзакции.
func writeRelations(ctx context.Context, exec SQLExecutor, m *models.Match) error {
	position := 0
	written := make(map[int]bool, len(m.Invited))
	for _, id := range m.Invited {
		if written[id] {
			continue
		}
		written[id] = true
		_, err := exec.ExecContext(ctx, `
			INSERT INTO match_convocations (match_id, player_id, response, invited, position)
			VALUES ($1, $2, $3, TRUE, $4)`, m.ID, id, m.ResponseOf(id), position)
		if err != nil {
			return handleMatchError(err)
		}
		position++
	}
	for id, resp := range m.Responses {
		if written[id] {
			continue
		}
		_, err := exec.ExecContext(ctx, `
			INSERT INTO match_convocations (match_id, player_id, response, invited, position)
			VALUES ($1, $2, $3, FALSE, $4)`, m.ID, id, resp, position)
		if err != nil {
			return handleMatchError(err)
		}
		position++
	}

	for side, ids := range map[models.Side][]int{models.SideRed: m.Red, models.SideBlue: m.Blue} {
		for i, id := range ids {
			_, err := exec.ExecContext(ctx, `
				INSERT INTO match_teams (match_id, player_id, side, position)
				VALUES ($1, $2, $3, $4)`, m.ID, id, side, i)
			if err != nil {
				return handleMatchError(err)
			}
		}
	}

	for i, s := range m.Scorers {
		_, err := exec.ExecContext(ctx, `
			INSERT INTO match_events (match_id, player_id, kind, goals, position)
			VALUES ($1, $2, $3, $4, $5)`, m.ID, s.PlayerID, eventGoal, s.Goals, i)
		if err != nil {
			return handleMatchError(err)
		}
	}
	for i, id := range m.Cards {
		_, err := exec.ExecContext(ctx, `
			INSERT INTO match_events (match_id, player_id, kind, goals, position)
			VALUES ($1, $2, $3, 0, $4)`, m.ID, id, eventCard, len(m.Scorers)+i)
		if err != nil {
			return handleMatchError(err)
		}
	}

	for id, c := range m.AppliedCounters {
		_, err := exec.ExecContext(ctx, `
			INSERT INTO match_applied_counters (
				match_id, player_id,
				mvp_points, wins, presences, goals, cards, red_appearances, blue_appearances)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			m.ID, id, c.MVPPoints, c.Wins, c.Presences, c.Goals, c.Cards, c.RedAppearances, c.BlueAppearances)
		if err != nil {
			return handleMatchError(err)
		}
	}
	return nil
}

// Delete удаляет матч; связанные строки удаляются каскадно.
func (r *postgresMatchRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM matches WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete match %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) ReplaceAll(ctx context.Context, matches []*models.Match) error {
	query := `
		INSERT INTO matches (` + matchColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM matches`); err != nil {
			return fmt.Errorf("failed to clear matches: %w", err)
		}
		for _, m := range matches {
			_, err := tx.ExecContext(ctx, query,
				m.ID, m.Sequence, m.Date, m.Time, m.Location, m.Format, m.State,
				m.Phase, m.ReservesOpenedAt,
				m.RedGoals, m.BlueGoals, m.MVPRed, m.MVPBlue, m.StatsApplied,
				m.CreatedAt, m.UpdatedAt,
			)
			if err != nil {
				return handleMatchError(err)
			}
			if err := writeRelations(ctx, tx, m); err != nil {
				return err
			}
		}
		_, err := tx.ExecContext(ctx,
			`SELECT setval(pg_get_serial_sequence('matches', 'id'), COALESCE((SELECT MAX(id) FROM matches), 0) + 1, false)`)
		return err
	})
}

func handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	if code, constraint := pqCode(err); code == pqForeignKeyViolation {
		return fmt.Errorf("%w (%s)", ErrMatchPlayerInvalid, constraint)
	}
	return err
}
