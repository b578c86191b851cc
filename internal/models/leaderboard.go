package models

// LeaderboardEntry is one row of the backend-ranked leaderboard.
// Rank is assigned by the server, ties included; the client never
// recomputes it.
type LeaderboardEntry struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	TotalPoints int    `json:"totalPoints"`
	TaskCount   int    `json:"taskCount"`
	Rank        *int   `json:"rank,omitempty"`
}

// CollegeStanding is one row of the per-institution aggregate board
type CollegeStanding struct {
	College      string `json:"college"`
	TotalPoints  int    `json:"totalPoints"`
	Participants int    `json:"participants"`
	Rank         *int   `json:"rank,omitempty"`
}

// Pagination describes one page of a paginated listing
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// LeaderboardPage is a full leaderboard snapshot: one ordered page plus
// its pagination metadata
type LeaderboardPage struct {
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
	Pagination  Pagination         `json:"pagination"`
}

// CollegeBoard is the per-institution aggregate snapshot
type CollegeBoard struct {
	Colleges []CollegeStanding `json:"colleges"`
}
