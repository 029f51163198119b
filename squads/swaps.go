package squads

import (
	"sort"

	"github.com/Dosada05/calcetto/models"
)

const maxSwapSuggestions = 5

type SwapSuggestion struct {
	RedPlayerID  int     `json:"red_player_id"`
	BluePlayerID int     `json:"blue_player_id"`
	Improvement  int     `json:"improvement"`
	NewBalance   Balance `json:"new_balance"`
}

// SuggestSwaps проверяет все обмены один-на-один между командами (n*m вариантов)
// и возвращает до пяти, строго улучшающих индекс баланса, лучшие первыми.
func SuggestSwaps(red, blue []*models.Player) []SwapSuggestion {
	current := CalculateBalance(red, blue)
	suggestions := make([]SwapSuggestion, 0)

	for i := range red {
		for j := range blue {
			newRed := append([]*models.Player{}, red...)
			newBlue := append([]*models.Player{}, blue...)
			newRed[i], newBlue[j] = blue[j], red[i]

			nb := CalculateBalance(newRed, newBlue)
			if nb.Index > current.Index {
				suggestions = append(suggestions, SwapSuggestion{
					RedPlayerID:  red[i].ID,
					BluePlayerID: blue[j].ID,
					Improvement:  nb.Index - current.Index,
					NewBalance:   nb,
				})
			}
		}
	}

	sort.SliceStable(suggestions, func(a, b int) bool {
		return suggestions[a].Improvement > suggestions[b].Improvement
	})
	if len(suggestions) > maxSwapSuggestions {
		suggestions = suggestions[:maxSwapSuggestions]
	}
	return suggestions
}
