package squads

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/Dosada05/calcetto/models"
)

// DefaultMaxCandidates ограничивает число перебираемых составов красных.
// Поиск приближенный: при большом пуле проверяются только первые
// DefaultMaxCandidates сочетаний из отсортированного по рейтингу списка,
// поэтому минимальный разрыв не гарантирован.
const DefaultMaxCandidates = 100

var (
	ErrPlayerInBothTeams = errors.New("player is assigned to both teams")
	ErrManualNotInPool   = errors.New("manually assigned player is not in the pool")
	ErrManualOverflow    = errors.New("manual assignment exceeds team size")
	ErrDuplicatePlayer   = errors.New("player appears more than once in the pool")
)

type BalancedGenerator struct {
	MaxCandidates int
}

func NewBalancedGenerator(maxCandidates int) TeamGenerator {
	if maxCandidates <= 0 {
		maxCandidates = DefaultMaxCandidates
	}
	return &BalancedGenerator{MaxCandidates: maxCandidates}
}

func (g *BalancedGenerator) GetName() string {
	return "Balanced"
}

// Generate делит пул на две команды по floor(n/2) игроков, минимизируя разницу
// суммарных рейтингов. Закрепленные вручную игроки не перемещаются.
func (g *BalancedGenerator) Generate(ctx context.Context, params GenerateParams) (*Result, error) {
	byID := make(map[int]*models.Player, len(params.Pool))
	for _, p := range params.Pool {
		if _, dup := byID[p.ID]; dup {
			return nil, fmt.Errorf("%w: %d", ErrDuplicatePlayer, p.ID)
		}
		byID[p.ID] = p
	}

	manualRed, err := pick(byID, params.Manual.Red)
	if err != nil {
		return nil, err
	}
	manualBlue, err := pick(byID, params.Manual.Blue)
	if err != nil {
		return nil, err
	}

	assigned := make(map[int]bool, len(manualRed)+len(manualBlue))
	for _, p := range manualRed {
		assigned[p.ID] = true
	}
	for _, p := range manualBlue {
		if assigned[p.ID] {
			return nil, fmt.Errorf("%w: %d", ErrPlayerInBothTeams, p.ID)
		}
		assigned[p.ID] = true
	}

	teamSize := len(params.Pool) / 2
	redNeeded := teamSize - len(manualRed)
	blueNeeded := teamSize - len(manualBlue)
	if redNeeded < 0 || blueNeeded < 0 {
		return nil, fmt.Errorf("%w: team size is %d, got %d red and %d blue",
			ErrManualOverflow, teamSize, len(manualRed), len(manualBlue))
	}

	unassigned := make([]*models.Player, 0, len(params.Pool))
	for _, p := range params.Pool {
		if !assigned[p.ID] {
			unassigned = append(unassigned, p)
		}
	}
	sort.SliceStable(unassigned, func(i, j int) bool {
		return unassigned[i].Rating() > unassigned[j].Rating()
	})

	bestRed := manualRed
	bestBlue := manualBlue
	bestBench := unassigned
	bestGap := -1

	limit := g.MaxCandidates
	if limit <= 0 {
		limit = DefaultMaxCandidates
	}
	err = forEachCombination(len(unassigned), redNeeded, limit, func(idx []int) (bool, error) {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		chosen := make(map[int]bool, len(idx))
		for _, i := range idx {
			chosen[i] = true
		}

		red := append(append([]*models.Player{}, manualRed...), pickIdx(unassigned, idx)...)
		blue := append([]*models.Player{}, manualBlue...)
		bench := make([]*models.Player, 0)
		for i, p := range unassigned {
			if chosen[i] {
				continue
			}
			if len(blue)-len(manualBlue) < blueNeeded {
				blue = append(blue, p)
			} else {
				bench = append(bench, p)
			}
		}

		gap := CalculateBalance(red, blue).Gap
		if bestGap < 0 || gap < bestGap {
			bestGap = gap
			bestRed, bestBlue, bestBench = red, blue, bench
		}
		return gap != 0, nil
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		Red:     ids(bestRed),
		Blue:    ids(bestBlue),
		Bench:   ids(bestBench),
		Balance: CalculateBalance(bestRed, bestBlue),
	}, nil
}

// forEachCombination перебирает сочетания k из n в лексикографическом порядке,
// не больше limit штук. fn возвращает false, чтобы остановить перебор.
func forEachCombination(n, k, limit int, fn func(idx []int) (bool, error)) error {
	if k > n {
		k = n
	}
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	for count := 0; count < limit; count++ {
		cont, err := fn(idx)
		if err != nil || !cont {
			return err
		}
		// следующее сочетание
		i := k - 1
		for i >= 0 && idx[i] == n-k+i {
			i--
		}
		if i < 0 {
			return nil
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
	return nil
}

func pick(byID map[int]*models.Player, wanted []int) ([]*models.Player, error) {
	players := make([]*models.Player, 0, len(wanted))
	seen := make(map[int]bool, len(wanted))
	for _, id := range wanted {
		if seen[id] {
			continue
		}
		p, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrManualNotInPool, id)
		}
		seen[id] = true
		players = append(players, p)
	}
	return players, nil
}

func pickIdx(players []*models.Player, idx []int) []*models.Player {
	out := make([]*models.Player, len(idx))
	for i, j := range idx {
		out[i] = players[j]
	}
	return out
}

func ids(players []*models.Player) []int {
	out := make([]int, len(players))
	for i, p := range players {
		out[i] = p.ID
	}
	return out
}
