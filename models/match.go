package models

import (
	"fmt"
	"time"
)

// MatchState представляет состояния матча, соответствующие ENUM в БД.
type MatchState string

const (
	MatchCreated        MatchState = "created"
	MatchComplete       MatchState = "complete"
	MatchTeamsGenerated MatchState = "teams_generated"
	MatchPublished      MatchState = "published"
	MatchClosed         MatchState = "closed"
)

func (s MatchState) Valid() bool {
	switch s {
	case MatchCreated, MatchComplete, MatchTeamsGenerated, MatchPublished, MatchClosed:
		return true
	}
	return false
}

// Response - ответ игрока на приглашение.
type Response string

const (
	ResponsePresent Response = "present"
	ResponseMaybe   Response = "maybe"
	ResponseAbsent  Response = "absent"
	ResponsePending Response = "pending"
)

func (r Response) Valid() bool {
	switch r {
	case ResponsePresent, ResponseMaybe, ResponseAbsent, ResponsePending:
		return true
	}
	return false
}

// Format - формат матча, определяет максимальный состав.
type Format string

const (
	Format5v5 Format = "5v5"
	Format6v6 Format = "6v6"
	Format7v7 Format = "7v7"
	Format8v8 Format = "8v8"
)

var formatCapacity = map[Format]int{
	Format5v5: 10,
	Format6v6: 12,
	Format7v7: 14,
	Format8v8: 16,
}

func (f Format) Valid() bool {
	_, ok := formatCapacity[f]
	return ok
}

// Capacity возвращает максимальное число игроков. Для неизвестного формата - 16.
func (f Format) Capacity() int {
	if c, ok := formatCapacity[f]; ok {
		return c
	}
	return formatCapacity[Format8v8]
}

func (f Format) PlayersPerTeam() int {
	return f.Capacity() / 2
}

type Side string

const (
	SideRed  Side = "red"
	SideBlue Side = "blue"
)

// Outcome - итог матча с точки зрения победителя.
type Outcome string

const (
	OutcomeRed  Outcome = "red"
	OutcomeBlue Outcome = "blue"
	OutcomeDraw Outcome = "draw"
)

// ConvocationPhase: 1 - только основной состав, 2 - открыто для запасных.
type ConvocationPhase int

const (
	PhaseStarters ConvocationPhase = 1
	PhaseReserves ConvocationPhase = 2
)

type Scorer struct {
	PlayerID int `json:"player_id" validate:"required,gt=0"`
	Goals    int `json:"goals" validate:"gte=0"`
}

// Credited возвращает засчитанные голы; запись без числа голов считается за один.
func (s Scorer) Credited() int {
	if s.Goals <= 0 {
		return 1
	}
	return s.Goals
}

type Match struct {
	ID       int        `json:"id" db:"id"`
	Sequence int        `json:"sequence" db:"sequence"`
	Date     time.Time  `json:"date" db:"match_date"`
	Time     string     `json:"time" db:"match_time"`
	Location string     `json:"location" db:"location"`
	Format   Format     `json:"format" db:"format"`
	State    MatchState `json:"state" db:"state"`

	Phase            ConvocationPhase `json:"convocation_phase" db:"convocation_phase"`
	ReservesOpenedAt *time.Time       `json:"reserves_opened_at,omitempty" db:"reserves_opened_at"`
	Invited          []int            `json:"invited" db:"-"`
	Responses        map[int]Response `json:"responses" db:"-"`

	Red  []int `json:"red" db:"-"`
	Blue []int `json:"blue" db:"-"`

	RedGoals  *int     `json:"red_goals,omitempty" db:"red_goals"`
	BlueGoals *int     `json:"blue_goals,omitempty" db:"blue_goals"`
	Scorers   []Scorer `json:"scorers" db:"-"`
	Cards     []int    `json:"cards" db:"-"`
	MVPRed    *int     `json:"mvp_red,omitempty" db:"mvp_red"`
	MVPBlue   *int     `json:"mvp_blue,omitempty" db:"mvp_blue"`

	StatsApplied bool `json:"stats_applied" db:"stats_applied"`
	// AppliedCounters - приращения, начисленные игрокам последним закрытием.
	// При повторном закрытии начисляется только разница с ними.
	AppliedCounters map[int]PlayerCounters `json:"applied_counters,omitempty" db:"-"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Identifier - номер матча внутри года, например "2025-07".
func (m *Match) Identifier() string {
	return fmt.Sprintf("%d-%02d", m.Date.Year(), m.Sequence)
}

func (m *Match) HasResult() bool {
	return m.RedGoals != nil && m.BlueGoals != nil
}

// Outcome возвращает победителя или false, если результат не внесен.
func (m *Match) Outcome() (Outcome, bool) {
	if !m.HasResult() {
		return "", false
	}
	switch {
	case *m.RedGoals > *m.BlueGoals:
		return OutcomeRed, true
	case *m.BlueGoals > *m.RedGoals:
		return OutcomeBlue, true
	}
	return OutcomeDraw, true
}

// SideOf возвращает сторону игрока в составах.
func (m *Match) SideOf(playerID int) (Side, bool) {
	for _, id := range m.Red {
		if id == playerID {
			return SideRed, true
		}
	}
	for _, id := range m.Blue {
		if id == playerID {
			return SideBlue, true
		}
	}
	return "", false
}

func (m *Match) IsInvited(playerID int) bool {
	for _, id := range m.Invited {
		if id == playerID {
			return true
		}
	}
	return false
}

// ResponseOf возвращает ответ игрока; без явного ответа - pending.
func (m *Match) ResponseOf(playerID int) Response {
	if r, ok := m.Responses[playerID]; ok {
		return r
	}
	return ResponsePending
}

func (m *Match) PresentCount() int {
	n := 0
	for _, r := range m.Responses {
		if r == ResponsePresent {
			n++
		}
	}
	return n
}

// PresentIDs возвращает подтвердивших участие в порядке списка приглашенных.
func (m *Match) PresentIDs() []int {
	ids := make([]int, 0, len(m.Responses))
	seen := make(map[int]bool, len(m.Responses))
	for _, id := range m.Invited {
		if m.Responses[id] == ResponsePresent {
			ids = append(ids, id)
			seen[id] = true
		}
	}
	for id, r := range m.Responses {
		if r == ResponsePresent && !seen[id] {
			ids = append(ids, id)
		}
	}
	return ids
}

// ClearResult сбрасывает все поля результата.
func (m *Match) ClearResult() {
	m.RedGoals = nil
	m.BlueGoals = nil
	m.Scorers = []Scorer{}
	m.Cards = []int{}
	m.MVPRed = nil
	m.MVPBlue = nil
}

// Clone возвращает глубокую копию матча.
func (m *Match) Clone() *Match {
	c := *m
	c.Invited = append([]int{}, m.Invited...)
	c.Red = append([]int{}, m.Red...)
	c.Blue = append([]int{}, m.Blue...)
	c.Cards = append([]int{}, m.Cards...)
	c.Scorers = append([]Scorer{}, m.Scorers...)
	c.Responses = make(map[int]Response, len(m.Responses))
	for k, v := range m.Responses {
		c.Responses[k] = v
	}
	if m.AppliedCounters != nil {
		c.AppliedCounters = make(map[int]PlayerCounters, len(m.AppliedCounters))
		for k, v := range m.AppliedCounters {
			c.AppliedCounters[k] = v
		}
	}
	c.RedGoals = cloneInt(m.RedGoals)
	c.BlueGoals = cloneInt(m.BlueGoals)
	c.MVPRed = cloneInt(m.MVPRed)
	c.MVPBlue = cloneInt(m.MVPBlue)
	if m.ReservesOpenedAt != nil {
		t := *m.ReservesOpenedAt
		c.ReservesOpenedAt = &t
	}
	return &c
}

// Normalize заменяет nil-коллекции пустыми, чтобы JSON не содержал null.
func (m *Match) Normalize() {
	if m.Invited == nil {
		m.Invited = []int{}
	}
	if m.Responses == nil {
		m.Responses = map[int]Response{}
	}
	if m.Red == nil {
		m.Red = []int{}
	}
	if m.Blue == nil {
		m.Blue = []int{}
	}
	if m.Scorers == nil {
		m.Scorers = []Scorer{}
	}
	if m.Cards == nil {
		m.Cards = []int{}
	}
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func IntPtr(v int) *int {
	return &v
}
