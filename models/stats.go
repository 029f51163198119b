package models

// ConvocationStats - сводка ответов по матчу.
type ConvocationStats struct {
	Present int `json:"present"`
	Maybe   int `json:"maybe"`
	Absent  int `json:"absent"`
	Pending int `json:"pending"`
}

// YearlyStats вычисляется заново при каждом запросе и нигде не хранится.
type YearlyStats struct {
	PlayerID    int     `json:"player_id"`
	Year        int     `json:"year"`
	AldIndex    int     `json:"ald_index"`
	MatchPoints int     `json:"match_points"`
	Presences   int     `json:"presences"`
	Wins        int     `json:"wins"`
	Draws       int     `json:"draws"`
	Losses      int     `json:"losses"`
	TotalClosed int     `json:"total_closed"`
	Percentuale int     `json:"percentuale"`
	Goals       int     `json:"goals"`
	MediaGol    float64 `json:"media_gol"`
	MVPPoints   int     `json:"mvp_points"`
	MVPRate     float64 `json:"mvp_rate"`
	Cards       int     `json:"cards"`
	BadGuyRate  float64 `json:"bad_guy_rate"`
	WinRate     int     `json:"win_rate"`
}

type LeaderboardCategory string

const (
	CategoryAldIndex  LeaderboardCategory = "ald_index"
	CategoryMVP       LeaderboardCategory = "mvp"
	CategoryPresences LeaderboardCategory = "presences"
	CategoryGoals     LeaderboardCategory = "goals"
	CategoryCards     LeaderboardCategory = "cards"
	CategoryWins      LeaderboardCategory = "wins"
)

func (c LeaderboardCategory) Valid() bool {
	switch c {
	case CategoryAldIndex, CategoryMVP, CategoryPresences, CategoryGoals, CategoryCards, CategoryWins:
		return true
	}
	return false
}

type LeaderboardEntry struct {
	Rank   int         `json:"rank"`
	Player *Player     `json:"player"`
	Value  int         `json:"value"`
	Stats  YearlyStats `json:"stats"`
}

type MatchResultSummary struct {
	MatchID   int     `json:"match_id"`
	Date      string  `json:"date"`
	RedGoals  int     `json:"red_goals"`
	BlueGoals int     `json:"blue_goals"`
	Outcome   Outcome `json:"outcome"`
}

type MatchesSummary struct {
	TotalMatches     int                  `json:"total_matches"`
	RedWins          int                  `json:"red_wins"`
	BlueWins         int                  `json:"blue_wins"`
	Draws            int                  `json:"draws"`
	TotalGoals       int                  `json:"total_goals"`
	AvgGoalsPerMatch float64              `json:"avg_goals_per_match"`
	Results          []MatchResultSummary `json:"results"`
}
