package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPlayerRating(t *testing.T) {
	tests := []struct {
		name   string
		player Player
		want   int
	}{
		{"all defaults", Player{}, 15},
		{"minimum", Player{Overall: 1, Vision: 1, Pace: 1, Possession: 1, Fitness: 1}, 5},
		{"maximum", Player{Overall: 5, Vision: 5, Pace: 5, Possession: 5, Fitness: 5}, 25},
		{"mixed with missing", Player{Overall: 5, Vision: 1, Pace: 4}, 16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.player.Rating()
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, tt.player.Rating(), "rating must be deterministic")
		})
	}
}

func TestPlayerRatingRange(t *testing.T) {
	for o := 1; o <= 5; o++ {
		for v := 1; v <= 5; v++ {
			for f := 1; f <= 5; f++ {
				p := Player{Overall: o, Vision: v, Pace: f, Possession: o, Fitness: v}
				r := p.Rating()
				assert.GreaterOrEqual(t, r, 5)
				assert.LessOrEqual(t, r, 25)
			}
		}
	}
	var nilPlayer *Player
	assert.Equal(t, 0, nilPlayer.Rating())
}

func TestPlayerDisplayName(t *testing.T) {
	p := Player{FirstName: "Mario", LastName: "Rossi"}
	assert.Equal(t, "Mario Rossi", p.DisplayName())
	assert.Equal(t, "mario.rossi", p.Username())

	p.Nickname = "Bomber"
	assert.Equal(t, "Bomber", p.DisplayName())
}

func TestPlayerApplyDefaults(t *testing.T) {
	p := Player{Vision: 5}
	p.ApplyDefaults()
	assert.Equal(t, 3, p.Overall)
	assert.Equal(t, 5, p.Vision)
	assert.Equal(t, TierReserve, p.Tier)
	assert.Equal(t, RoleMidfielder, p.PrimaryRole)
	assert.Equal(t, AccountOperator, p.AccountRole)
	assert.True(t, p.AttributesValid())

	p.Pace = 6
	assert.False(t, p.AttributesValid())
}

func TestFormatCapacity(t *testing.T) {
	assert.Equal(t, 10, Format5v5.Capacity())
	assert.Equal(t, 12, Format6v6.Capacity())
	assert.Equal(t, 14, Format7v7.Capacity())
	assert.Equal(t, 16, Format8v8.Capacity())
	assert.Equal(t, 16, Format("11v11").Capacity())
	assert.False(t, Format("11v11").Valid())
	assert.Equal(t, 5, Format5v5.PlayersPerTeam())
}

func TestAccountRolePermissions(t *testing.T) {
	assert.True(t, AccountAdmin.Can(PermCloseMatch))
	assert.True(t, AccountSupervisor.Can(PermCreateTeams))
	assert.True(t, AccountSupervisor.Can(PermRespondConvocation))
	assert.False(t, AccountSupervisor.Can(PermCloseMatch))
	assert.True(t, AccountOperator.Can(PermRespondConvocation))
	assert.False(t, AccountOperator.Can(PermCreateTeams))
	assert.False(t, AccountRole("guest").Can(PermViewAll))
}

func TestMatchOutcomeAndSides(t *testing.T) {
	m := &Match{Red: []int{1, 2}, Blue: []int{3}}
	_, ok := m.Outcome()
	assert.False(t, ok)

	m.RedGoals, m.BlueGoals = IntPtr(2), IntPtr(2)
	out, ok := m.Outcome()
	assert.True(t, ok)
	assert.Equal(t, OutcomeDraw, out)

	m.BlueGoals = IntPtr(5)
	out, _ = m.Outcome()
	assert.Equal(t, OutcomeBlue, out)

	side, ok := m.SideOf(2)
	assert.True(t, ok)
	assert.Equal(t, SideRed, side)
	_, ok = m.SideOf(9)
	assert.False(t, ok)
}

func TestMatchCloneIsDeep(t *testing.T) {
	m := &Match{
		Invited:   []int{1},
		Responses: map[int]Response{1: ResponsePresent},
		Red:       []int{1},
		RedGoals:  IntPtr(1),
	}
	c := m.Clone()
	c.Invited[0] = 9
	c.Responses[1] = ResponseAbsent
	*c.RedGoals = 7

	assert.Equal(t, 1, m.Invited[0])
	assert.Equal(t, ResponsePresent, m.Responses[1])
	assert.Equal(t, 1, *m.RedGoals)
}

func TestMatchIdentifierAndPresent(t *testing.T) {
	m := &Match{
		Date:      time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC),
		Sequence:  7,
		Invited:   []int{3, 1, 2},
		Responses: map[int]Response{1: ResponsePresent, 2: ResponseAbsent, 3: ResponsePresent},
	}
	assert.Equal(t, "2025-07", m.Identifier())
	assert.Equal(t, 2, m.PresentCount())
	assert.Equal(t, []int{3, 1}, m.PresentIDs())
	assert.Equal(t, ResponsePending, m.ResponseOf(42))
}

func TestScorerCredited(t *testing.T) {
	assert.Equal(t, 1, Scorer{PlayerID: 1}.Credited())
	assert.Equal(t, 3, Scorer{PlayerID: 1, Goals: 3}.Credited())
}
