package provider

// PlayerIdentity is the upstream's identity record for one player. TeamName
// holds the "Free Agent" placeholder when the affiliation lookup degrades.
type PlayerIdentity struct {
	ID       int64  `json:"id"`
	FullName string `json:"fullName"`
	TeamName string `json:"teamName"`
	Position string `json:"position,omitempty"`
	Active   bool   `json:"isActive"`
}

// PlayerStats carries season averages for one player.
type PlayerStats struct {
	Season           string  `json:"season"`
	GamesPlayed      int     `json:"gamesPlayed"`
	PointsPerGame    float64 `json:"pointsPerGame"`
	AssistsPerGame   float64 `json:"assistsPerGame"`
	ReboundsPerGame  float64 `json:"reboundsPerGame"`
	TurnoversPerGame float64 `json:"turnoversPerGame"`
}

// GameLogEntry is one game in a player's recent history.
type GameLogEntry struct {
	GameID    string `json:"gameId"`
	GameDate  string `json:"gameDate"`
	Matchup   string `json:"matchup"`
	WinLoss   string `json:"wl"`
	Points    int    `json:"points"`
	Assists   int    `json:"assists"`
	Rebounds  int    `json:"rebounds"`
	Steals    int    `json:"steals"`
	Blocks    int    `json:"blocks"`
	Turnovers int    `json:"turnovers"`
}

// FreeAgentTeam is merged into an identity when the affiliation lookup fails;
// an affiliation outage must not fail the identity lookup.
const FreeAgentTeam = "Free Agent"

// MaxHistoryLimit caps game-log requests at a full season.
const MaxHistoryLimit = 82
