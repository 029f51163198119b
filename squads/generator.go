package squads

import (
	"context"

	"github.com/Dosada05/calcetto/models"
)

// ManualAssignment - игроки, закрепленные администратором за командой до генерации.
type ManualAssignment struct {
	Red  []int `json:"red"`
	Blue []int `json:"blue"`
}

type GenerateParams struct {
	Pool   []*models.Player
	Manual ManualAssignment
}

type TeamGenerator interface {
	Generate(ctx context.Context, params GenerateParams) (*Result, error)

	GetName() string
}

// Result - итоговое разбиение на красных и синих.
// Bench содержит лишних игроков при нечетном пуле: их расставляет администратор.
type Result struct {
	Red     []int   `json:"red"`
	Blue    []int   `json:"blue"`
	Bench   []int   `json:"bench"`
	Balance Balance `json:"balance"`
}
