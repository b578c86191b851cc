package models

// Participant represents an authenticated event participant profile
type Participant struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	College     string `json:"college,omitempty"`
	Gender      string `json:"gender,omitempty"`
	TotalPoints int    `json:"totalPoints"`
	TaskCount   int    `json:"taskCount"`
}

// Merge applies the non-identity fields of a partial profile update.
// Empty strings in the update leave the existing value untouched.
func (p *Participant) Merge(update Participant) {
	if update.Name != "" {
		p.Name = update.Name
	}
	if update.College != "" {
		p.College = update.College
	}
	if update.Gender != "" {
		p.Gender = update.Gender
	}
}

// UserStats is the per-participant counters pushed by the server.
// Identity fields beyond Email are never present in this payload.
type UserStats struct {
	Email       string `json:"email"`
	TotalPoints int    `json:"totalPoints"`
	TaskCount   int    `json:"taskCount"`
}
