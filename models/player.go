package models

import (
	"strings"
	"time"
)

// PlayerTier определяет, входит ли игрок в основной состав.
type PlayerTier string

const (
	TierStarter PlayerTier = "starter"
	TierReserve PlayerTier = "reserve"
)

func (t PlayerTier) Valid() bool {
	return t == TierStarter || t == TierReserve
}

// PlayingRole - игровое амплуа.
type PlayingRole string

const (
	RoleGoalkeeper PlayingRole = "goalkeeper"
	RoleDefender   PlayingRole = "defender"
	RoleWingBack   PlayingRole = "wing-back"
	RoleMidfielder PlayingRole = "midfielder"
	RoleForward    PlayingRole = "forward"
)

var PlayingRoles = []PlayingRole{RoleGoalkeeper, RoleDefender, RoleWingBack, RoleMidfielder, RoleForward}

func (r PlayingRole) Valid() bool {
	for _, role := range PlayingRoles {
		if r == role {
			return true
		}
	}
	return false
}

const (
	MinAttribute     = 1
	MaxAttribute     = 5
	DefaultAttribute = 3
)

// PlayerCounters - накопительные счетчики за все время.
// Меняются только при закрытии матча.
type PlayerCounters struct {
	MVPPoints       int `json:"mvp_points" db:"mvp_points"`
	Wins            int `json:"wins" db:"wins"`
	Presences       int `json:"presences" db:"presences"`
	Goals           int `json:"goals" db:"goals"`
	Cards           int `json:"cards" db:"cards"`
	RedAppearances  int `json:"red_appearances" db:"red_appearances"`
	BlueAppearances int `json:"blue_appearances" db:"blue_appearances"`
}

func (c *PlayerCounters) Add(d PlayerCounters) {
	c.MVPPoints += d.MVPPoints
	c.Wins += d.Wins
	c.Presences += d.Presences
	c.Goals += d.Goals
	c.Cards += d.Cards
	c.RedAppearances += d.RedAppearances
	c.BlueAppearances += d.BlueAppearances
}

// Sub возвращает c - o; поля результата могут быть отрицательными.
func (c PlayerCounters) Sub(o PlayerCounters) PlayerCounters {
	return PlayerCounters{
		MVPPoints:       c.MVPPoints - o.MVPPoints,
		Wins:            c.Wins - o.Wins,
		Presences:       c.Presences - o.Presences,
		Goals:           c.Goals - o.Goals,
		Cards:           c.Cards - o.Cards,
		RedAppearances:  c.RedAppearances - o.RedAppearances,
		BlueAppearances: c.BlueAppearances - o.BlueAppearances,
	}
}

func (c PlayerCounters) IsZero() bool {
	return c == PlayerCounters{}
}

type Player struct {
	ID        int        `json:"id" db:"id"`
	FirstName string     `json:"first_name" db:"first_name"`
	LastName  string     `json:"last_name" db:"last_name"`
	Nickname  string     `json:"nickname,omitempty" db:"nickname"`
	Phone     string     `json:"phone,omitempty" db:"phone"`
	Email     *string    `json:"email,omitempty" db:"email"`
	BirthDate *time.Time `json:"birth_date,omitempty" db:"birth_date"`

	Overall    int `json:"overall" db:"overall"`
	Vision     int `json:"vision" db:"vision"`
	Pace       int `json:"pace" db:"pace"`
	Possession int `json:"possession" db:"possession"`
	Fitness    int `json:"fitness" db:"fitness"`

	Tier          PlayerTier  `json:"tier" db:"tier"`
	PrimaryRole   PlayingRole `json:"primary_role" db:"primary_role"`
	SecondaryRole PlayingRole `json:"secondary_role,omitempty" db:"secondary_role"`

	PINHash     string      `json:"-" db:"pin_hash"`
	AccountRole AccountRole `json:"account_role" db:"account_role"`
	Blocked     bool        `json:"blocked" db:"blocked"`

	PlayerCounters

	PhotoKey *string `json:"-" db:"photo_key"`
	PhotoURL *string `json:"photo_url,omitempty" db:"-"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// DisplayName возвращает прозвище, если оно задано, иначе "имя фамилия".
func (p *Player) DisplayName() string {
	if nick := strings.TrimSpace(p.Nickname); nick != "" {
		return nick
	}
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Username - логин в формате "имя.фамилия" в нижнем регистре.
func (p *Player) Username() string {
	return strings.ToLower(strings.TrimSpace(p.FirstName) + "." + strings.TrimSpace(p.LastName))
}

// Rating - сумма пяти атрибутов, диапазон [5,25].
// Отсутствующий атрибут считается равным 3.
func (p *Player) Rating() int {
	if p == nil {
		return 0
	}
	return attr(p.Overall) + attr(p.Vision) + attr(p.Pace) + attr(p.Possession) + attr(p.Fitness)
}

func attr(v int) int {
	if v == 0 {
		return DefaultAttribute
	}
	return v
}

// ApplyDefaults заполняет поля нового игрока значениями по умолчанию.
func (p *Player) ApplyDefaults() {
	for _, a := range []*int{&p.Overall, &p.Vision, &p.Pace, &p.Possession, &p.Fitness} {
		if *a == 0 {
			*a = DefaultAttribute
		}
	}
	if p.Tier == "" {
		p.Tier = TierReserve
	}
	if p.PrimaryRole == "" {
		p.PrimaryRole = RoleMidfielder
	}
	if p.AccountRole == "" {
		p.AccountRole = AccountOperator
	}
}

// AttributesValid проверяет, что все атрибуты лежат в [1,5].
func (p *Player) AttributesValid() bool {
	for _, a := range []int{p.Overall, p.Vision, p.Pace, p.Possession, p.Fitness} {
		if a < MinAttribute || a > MaxAttribute {
			return false
		}
	}
	return true
}

// Clone возвращает копию игрока, не разделяющую указатели с оригиналом.
func (p *Player) Clone() *Player {
	c := *p
	if p.Email != nil {
		v := *p.Email
		c.Email = &v
	}
	if p.BirthDate != nil {
		v := *p.BirthDate
		c.BirthDate = &v
	}
	if p.PhotoKey != nil {
		v := *p.PhotoKey
		c.PhotoKey = &v
	}
	if p.PhotoURL != nil {
		v := *p.PhotoURL
		c.PhotoURL = &v
	}
	return &c
}
