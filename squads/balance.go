package squads

import (
	"math"

	"github.com/Dosada05/calcetto/models"
	"github.com/samber/lo"
)

// Balance описывает паритет суммарных рейтингов двух команд.
// Index лежит в [0,100], 100 - идеальный баланс.
type Balance struct {
	Index     int `json:"index"`
	Gap       int `json:"gap"`
	RedValue  int `json:"red_value"`
	BlueValue int `json:"blue_value"`
}

func TeamValue(players []*models.Player) int {
	return lo.SumBy(players, func(p *models.Player) int { return p.Rating() })
}

func CalculateBalance(red, blue []*models.Player) Balance {
	redValue := TeamValue(red)
	blueValue := TeamValue(blue)
	total := redValue + blueValue
	if total == 0 {
		return Balance{Index: 100}
	}

	gap := redValue - blueValue
	if gap < 0 {
		gap = -gap
	}
	index := int(math.Round((1 - float64(gap)/float64(total)) * 100))

	return Balance{
		Index:     clamp(index, 0, 100),
		Gap:       gap,
		RedValue:  redValue,
		BlueValue: blueValue,
	}
}

func clamp(v, low, high int) int {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}

// TeamStats - средние атрибуты команды, округленные до одного знака.
type TeamStats struct {
	Count         int     `json:"count"`
	TotalRating   int     `json:"total_rating"`
	AvgRating     float64 `json:"avg_rating"`
	AvgOverall    float64 `json:"avg_overall"`
	AvgVision     float64 `json:"avg_vision"`
	AvgPace       float64 `json:"avg_pace"`
	AvgPossession float64 `json:"avg_possession"`
	AvgFitness    float64 `json:"avg_fitness"`
}

func CalculateTeamStats(players []*models.Player) TeamStats {
	if len(players) == 0 {
		return TeamStats{}
	}
	n := float64(len(players))
	avg := func(get func(p *models.Player) int) float64 {
		sum := lo.SumBy(players, func(p *models.Player) int {
			if v := get(p); v != 0 {
				return v
			}
			return models.DefaultAttribute
		})
		return round1(float64(sum) / n)
	}

	total := TeamValue(players)
	return TeamStats{
		Count:         len(players),
		TotalRating:   total,
		AvgRating:     round1(float64(total) / n),
		AvgOverall:    avg(func(p *models.Player) int { return p.Overall }),
		AvgVision:     avg(func(p *models.Player) int { return p.Vision }),
		AvgPace:       avg(func(p *models.Player) int { return p.Pace }),
		AvgPossession: avg(func(p *models.Player) int { return p.Possession }),
		AvgFitness:    avg(func(p *models.Player) int { return p.Fitness }),
	}
}

// RoleBreakdown считает основные амплуа в команде.
func RoleBreakdown(players []*models.Player) map[models.PlayingRole]int {
	roles := make(map[models.PlayingRole]int, len(models.PlayingRoles))
	for _, r := range models.PlayingRoles {
		roles[r] = 0
	}
	for _, p := range players {
		if _, ok := roles[p.PrimaryRole]; ok {
			roles[p.PrimaryRole]++
		}
	}
	return roles
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
