package dto

// Leaderboard DTOs
type LeaderboardEntry struct {
	Rank             int    `json:"rank"`
	UserID           string `json:"user_id"`
	Username         string `json:"username,omitempty"`
	TotalXP          int    `json:"total_xp"`
	CurrentLevel     int    `json:"current_level"`
	ModulesCompleted int    `json:"modules_completed"`
}

type LeaderboardResponse struct {
	TopUsers    []LeaderboardEntry `json:"top_users"`
	CurrentUser *LeaderboardEntry  `json:"current_user,omitempty"`
}

type RankResponse struct {
	UserID  string `json:"user_id"`
	Rank    int    `json:"rank"`
	TotalXP int    `json:"total_xp"`
}
