package state

import (
	"sync"

	"github.com/terra-clan/event-portal/internal/models"
)

// Row is one displayed leaderboard entry. Tied is pure presentation:
// true when another entry on the same page shares the backend-assigned
// rank. It is re-derived on every snapshot or delta and never fed back
// anywhere.
type Row struct {
	models.LeaderboardEntry
	Tied bool
}

// Leaderboard reconciles the pulled leaderboard snapshot with pushed
// replacements. The backend is the sole ranking authority: a pull or
// a push both replace the whole displayed page, so applying the same
// page twice yields the same state.
//
// The generation counter discards pull responses that resolve after
// the view was torn down.
type Leaderboard struct {
	mu         sync.Mutex
	gen        uint64
	rows       []Row
	pagination models.Pagination
}

// NewLeaderboard creates an empty leaderboard view
func NewLeaderboard() *Leaderboard {
	return &Leaderboard{}
}

// Generation returns the token a pull must present to apply its
// response
func (l *Leaderboard) Generation() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.gen
}

// Teardown invalidates in-flight pulls for this view and clears it
func (l *Leaderboard) Teardown() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.gen++
	l.rows = nil
	l.pagination = models.Pagination{}
}

// Apply replaces the displayed page with a pushed update
func (l *Leaderboard) Apply(page models.LeaderboardPage) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.replace(page)
}

// ApplyPull replaces the displayed page with a pull response, unless
// the view was torn down while the request was in flight
func (l *Leaderboard) ApplyPull(gen uint64, page models.LeaderboardPage) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.gen {
		return false
	}
	l.replace(page)
	return true
}

func (l *Leaderboard) replace(page models.LeaderboardPage) {
	counts := make(map[int]int, len(page.Leaderboard))
	for _, entry := range page.Leaderboard {
		if entry.Rank != nil {
			counts[*entry.Rank]++
		}
	}

	rows := make([]Row, len(page.Leaderboard))
	for i, entry := range page.Leaderboard {
		tied := entry.Rank != nil && counts[*entry.Rank] > 1
		rows[i] = Row{LeaderboardEntry: entry, Tied: tied}
	}

	l.rows = rows
	l.pagination = page.Pagination
}

// Rows returns the displayed page in rank order
func (l *Leaderboard) Rows() []Row {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Row, len(l.rows))
	copy(out, l.rows)
	return out
}

// Pagination returns the displayed page's pagination metadata
func (l *Leaderboard) Pagination() models.Pagination {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pagination
}

// CollegeRow is one displayed institution aggregate
type CollegeRow struct {
	models.CollegeStanding
	Tied bool
}

// CollegeBoard reconciles the per-institution aggregate the same way
// Leaderboard does: whole-board replacement from pull or push.
type CollegeBoard struct {
	mu   sync.Mutex
	gen  uint64
	rows []CollegeRow
}

// NewCollegeBoard creates an empty college board view
func NewCollegeBoard() *CollegeBoard {
	return &CollegeBoard{}
}

// Generation returns the token a pull must present to apply its
// response
func (b *CollegeBoard) Generation() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.gen
}

// Teardown invalidates in-flight pulls for this view and clears it
func (b *CollegeBoard) Teardown() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.gen++
	b.rows = nil
}

// Apply replaces the board with a pushed update
func (b *CollegeBoard) Apply(colleges []models.CollegeStanding) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.replace(colleges)
}

// ApplyPull replaces the board with a pull response, unless the view
// was torn down while the request was in flight
func (b *CollegeBoard) ApplyPull(gen uint64, colleges []models.CollegeStanding) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if gen != b.gen {
		return false
	}
	b.replace(colleges)
	return true
}

func (b *CollegeBoard) replace(colleges []models.CollegeStanding) {
	counts := make(map[int]int, len(colleges))
	for _, standing := range colleges {
		if standing.Rank != nil {
			counts[*standing.Rank]++
		}
	}

	rows := make([]CollegeRow, len(colleges))
	for i, standing := range colleges {
		tied := standing.Rank != nil && counts[*standing.Rank] > 1
		rows[i] = CollegeRow{CollegeStanding: standing, Tied: tied}
	}
	b.rows = rows
}

// Rows returns the displayed board in rank order
func (b *CollegeBoard) Rows() []CollegeRow {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]CollegeRow, len(b.rows))
	copy(out, b.rows)
	return out
}
