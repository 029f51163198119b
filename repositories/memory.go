package repositories

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Dosada05/calcetto/models"
)

// MemoryStore - хранилище в памяти процесса. Используется, когда DATABASE_URL не задан, и в тестах.
// Наружу отдаются только копии, поэтому изменения вне репозитория не видны до Update.
type MemoryStore struct {
	mu           sync.RWMutex
	players      map[int]*models.Player
	matches      map[int]*models.Match
	nextPlayerID int
	nextMatchID  int
	now          func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		players:      make(map[int]*models.Player),
		matches:      make(map[int]*models.Match),
		nextPlayerID: 1,
		nextMatchID:  1,
		now:          time.Now,
	}
}

func (s *MemoryStore) Players() PlayerRepository {
	return &memoryPlayerRepository{s: s}
}

func (s *MemoryStore) Matches() MatchRepository {
	return &memoryMatchRepository{s: s}
}

type memoryPlayerRepository struct {
	s *MemoryStore
}

func (r *memoryPlayerRepository) GetAll(ctx context.Context) ([]*models.Player, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	players := make([]*models.Player, 0, len(r.s.players))
	for _, p := range r.s.players {
		players = append(players, p.Clone())
	}
	sort.Slice(players, func(i, j int) bool {
		if players[i].LastName != players[j].LastName {
			return players[i].LastName < players[j].LastName
		}
		if players[i].FirstName != players[j].FirstName {
			return players[i].FirstName < players[j].FirstName
		}
		return players[i].ID < players[j].ID
	})
	return players, nil
}

func (r *memoryPlayerRepository) GetByID(ctx context.Context, id int) (*models.Player, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.players[id]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	return p.Clone(), nil
}

func (r *memoryPlayerRepository) Create(ctx context.Context, player *models.Player) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.usernameTaken(player, 0) {
		return ErrPlayerUsernameConflict
	}
	player.ID = r.s.nextPlayerID
	r.s.nextPlayerID++
	player.CreatedAt = r.s.now()
	player.UpdatedAt = player.CreatedAt
	r.s.players[player.ID] = player.Clone()
	return nil
}

func (r *memoryPlayerRepository) Update(ctx context.Context, player *models.Player) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.players[player.ID]
	if !ok {
		return ErrPlayerNotFound
	}
	if r.s.usernameTaken(player, player.ID) {
		return ErrPlayerUsernameConflict
	}
	player.CreatedAt = existing.CreatedAt
	player.UpdatedAt = r.s.now()
	r.s.players[player.ID] = player.Clone()
	return nil
}

// Delete удаляет игрока и все ссылки на него из матчей, как это делает каскад в Postgres.
func (r *memoryPlayerRepository) Delete(ctx context.Context, id int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.players[id]; !ok {
		return ErrPlayerNotFound
	}
	delete(r.s.players, id)
	for _, m := range r.s.matches {
		detachPlayer(m, id)
	}
	return nil
}

func (r *memoryPlayerRepository) AddCounters(ctx context.Context, deltas map[int]models.PlayerCounters) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for id := range deltas {
		if _, ok := r.s.players[id]; !ok {
			return fmt.Errorf("%w: %d", ErrPlayerNotFound, id)
		}
	}
	now := r.s.now()
	for id, d := range deltas {
		p := r.s.players[id]
		p.PlayerCounters.Add(d)
		p.UpdatedAt = now
	}
	return nil
}

func (r *memoryPlayerRepository) ReplaceAll(ctx context.Context, players []*models.Player) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.players = make(map[int]*models.Player, len(players))
	r.s.nextPlayerID = 1
	for _, p := range players {
		r.s.players[p.ID] = p.Clone()
		if p.ID >= r.s.nextPlayerID {
			r.s.nextPlayerID = p.ID + 1
		}
	}
	for _, m := range r.s.matches {
		for _, id := range referencedPlayers(m) {
			if _, ok := r.s.players[id]; !ok {
				detachPlayer(m, id)
			}
		}
	}
	return nil
}

func (s *MemoryStore) usernameTaken(player *models.Player, exceptID int) bool {
	username := player.Username()
	for id, p := range s.players {
		if id != exceptID && strings.EqualFold(p.Username(), username) {
			return true
		}
	}
	return false
}

type memoryMatchRepository struct {
	s *MemoryStore
}

func (r *memoryMatchRepository) GetAll(ctx context.Context) ([]*models.Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	matches := make([]*models.Match, 0, len(r.s.matches))
	for _, m := range r.s.matches {
		matches = append(matches, m.Clone())
	}
	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].Date.Equal(matches[j].Date) {
			return matches[i].Date.Before(matches[j].Date)
		}
		if matches[i].Sequence != matches[j].Sequence {
			return matches[i].Sequence < matches[j].Sequence
		}
		return matches[i].ID < matches[j].ID
	})
	return matches, nil
}

func (r *memoryMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	m, ok := r.s.matches[id]
	if !ok {
		return nil, ErrMatchNotFound
	}
	return m.Clone(), nil
}

func (r *memoryMatchRepository) Create(ctx context.Context, match *models.Match) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.checkReferences(match); err != nil {
		return err
	}
	match.ID = r.s.nextMatchID
	r.s.nextMatchID++
	match.CreatedAt = r.s.now()
	match.UpdatedAt = match.CreatedAt
	match.Normalize()
	r.s.matches[match.ID] = match.Clone()
	return nil
}

func (r *memoryMatchRepository) Update(ctx context.Context, match *models.Match) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.matches[match.ID]
	if !ok {
		return ErrMatchNotFound
	}
	if err := r.s.checkReferences(match); err != nil {
		return err
	}
	match.CreatedAt = existing.CreatedAt
	match.UpdatedAt = r.s.now()
	match.Normalize()
	r.s.matches[match.ID] = match.Clone()
	return nil
}

func (r *memoryMatchRepository) Delete(ctx context.Context, id int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.matches[id]; !ok {
		return ErrMatchNotFound
	}
	delete(r.s.matches, id)
	return nil
}

func (r *memoryMatchRepository) ReplaceAll(ctx context.Context, matches []*models.Match) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, m := range matches {
		if err := r.s.checkReferences(m); err != nil {
			return err
		}
	}
	r.s.matches = make(map[int]*models.Match, len(matches))
	r.s.nextMatchID = 1
	for _, m := range matches {
		c := m.Clone()
		c.Normalize()
		r.s.matches[m.ID] = c
		if m.ID >= r.s.nextMatchID {
			r.s.nextMatchID = m.ID + 1
		}
	}
	return nil
}

// checkReferences повторяет внешние ключи схемы: все игроки матча должны существовать.
func (s *MemoryStore) checkReferences(m *models.Match) error {
	for _, id := range referencedPlayers(m) {
		if _, ok := s.players[id]; !ok {
			return fmt.Errorf("%w: player %d", ErrMatchPlayerInvalid, id)
		}
	}
	return nil
}

func referencedPlayers(m *models.Match) []int {
	ids := make([]int, 0, len(m.Invited)+len(m.Responses)+len(m.Red)+len(m.Blue))
	ids = append(ids, m.Invited...)
	for id := range m.Responses {
		ids = append(ids, id)
	}
	ids = append(ids, m.Red...)
	ids = append(ids, m.Blue...)
	for _, s := range m.Scorers {
		ids = append(ids, s.PlayerID)
	}
	ids = append(ids, m.Cards...)
	for id := range m.AppliedCounters {
		ids = append(ids, id)
	}
	if m.MVPRed != nil {
		ids = append(ids, *m.MVPRed)
	}
	if m.MVPBlue != nil {
		ids = append(ids, *m.MVPBlue)
	}
	return ids
}

func detachPlayer(m *models.Match, id int) {
	without := func(ids []int) []int {
		out := ids[:0]
		for _, v := range ids {
			if v != id {
				out = append(out, v)
			}
		}
		return out
	}
	m.Invited = without(m.Invited)
	m.Red = without(m.Red)
	m.Blue = without(m.Blue)
	m.Cards = without(m.Cards)
	delete(m.Responses, id)
	delete(m.AppliedCounters, id)

	scorers := m.Scorers[:0]
	for _, s := range m.Scorers {
		if s.PlayerID != id {
			scorers = append(scorers, s)
		}
	}
	m.Scorers = scorers
	if m.MVPRed != nil && *m.MVPRed == id {
		m.MVPRed = nil
	}
	if m.MVPBlue != nil && *m.MVPBlue == id {
		m.MVPBlue = nil
	}
}
