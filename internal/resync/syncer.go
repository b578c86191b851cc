package resync

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/terra-clan/event-portal/internal/auth"
	"github.com/terra-clan/event-portal/internal/models"
	"github.com/terra-clan/event-portal/internal/push"
	"github.com/terra-clan/event-portal/internal/state"
	"github.com/terra-clan/event-portal/pkg/client"
)

// PullAPI is the slice of the portal client the syncer needs
type PullAPI interface {
	GetTasks(ctx context.Context) ([]models.Task, error)
	GetMySubmissions(ctx context.Context) (*client.MySubmissions, error)
	GetLeaderboard(ctx context.Context, page, limit int) (*models.LeaderboardPage, error)
	GetCollegeLeaderboard(ctx context.Context) ([]models.CollegeStanding, error)
}

// Syncer keeps the reconciled views fresh: pushed deltas land as they
// arrive, and a periodic REST pull resynchronizes whatever the push
// channel missed. Pull is the source of truth, push is a low-latency
// hint.
type Syncer struct {
	api         PullAPI
	credentials *auth.CredentialStore
	channel     *push.Channel
	leaderboard *state.Leaderboard
	colleges    *state.CollegeBoard
	board       *state.TaskBoard
	interval    time.Duration
	limit       int
}

// NewSyncer creates a sync worker over the given views
func NewSyncer(
	api PullAPI,
	credentials *auth.CredentialStore,
	channel *push.Channel,
	leaderboard *state.Leaderboard,
	colleges *state.CollegeBoard,
	board *state.TaskBoard,
	interval time.Duration,
	leaderboardLimit int,
) *Syncer {
	if interval <= 0 {
		interval = time.Minute
	}
	if leaderboardLimit <= 0 {
		leaderboardLimit = 50
	}

	return &Syncer{
		api:         api,
		credentials: credentials,
		channel:     channel,
		leaderboard: leaderboard,
		colleges:    colleges,
		board:       board,
		interval:    interval,
		limit:       leaderboardLimit,
	}
}

// Start subscribes the push topics and begins the pull loop in a
// goroutine. Cancelling the context unsubscribes and stops the loop.
func (s *Syncer) Start(ctx context.Context) {
	s.channel.Subscribe(push.TopicLeaderboard, s.onLeaderboard)
	s.channel.Subscribe(push.TopicCollegeLeaderboard, s.onColleges)
	s.channel.Subscribe(push.TopicUserStats, s.onUserStats)

	go s.run(ctx)
}

// run is the main loop for the sync worker
func (s *Syncer) run(ctx context.Context) {
	slog.Info("sync worker started", "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Pull immediately on start
	s.pull(ctx)

	for {
		select {
		case <-ctx.Done():
			s.channel.Unsubscribe(push.TopicLeaderboard)
			s.channel.Unsubscribe(push.TopicCollegeLeaderboard)
			s.channel.Unsubscribe(push.TopicUserStats)
			slog.Info("sync worker stopped")
			return
		case <-ticker.C:
			s.pull(ctx)
		}
	}
}

// pull fetches fresh snapshots and applies them to the views. Each
// snapshot carries the generation it was requested under, so a view
// torn down mid-flight discards the late response.
func (s *Syncer) pull(ctx context.Context) {
	slog.Debug("running resync pull")

	if s.credentials.Authenticated(models.DomainParticipant) {
		gen := s.board.Generation()
		if tasks, err := s.api.GetTasks(ctx); err != nil {
			slog.Warn("task pull failed", "error", err)
		} else if !s.board.SetTasks(gen, tasks) {
			slog.Debug("task pull discarded, view torn down")
		}

		gen = s.board.Generation()
		if mine, err := s.api.GetMySubmissions(ctx); err != nil {
			slog.Warn("submission pull failed", "error", err)
		} else if s.board.SetSubmissions(gen, mine.Submissions, mine.Participant) {
			s.credentials.SetStats(mine.Participant.TotalPoints, mine.Participant.TaskCount)
		}
	}

	gen := s.leaderboard.Generation()
	page := s.leaderboard.Pagination().Page
	if page < 1 {
		page = 1
	}
	if board, err := s.api.GetLeaderboard(ctx, page, s.limit); err != nil {
		slog.Warn("leaderboard pull failed", "error", err)
	} else {
		s.leaderboard.ApplyPull(gen, *board)
	}

	gen = s.colleges.Generation()
	if colleges, err := s.api.GetCollegeLeaderboard(ctx); err != nil {
		slog.Warn("college leaderboard pull failed", "error", err)
	} else {
		s.colleges.ApplyPull(gen, colleges)
	}
}

// Push handlers. Within one topic, frames arrive in order off the
// single read loop; each application is idempotent.

func (s *Syncer) onLeaderboard(payload json.RawMessage) {
	var page models.LeaderboardPage
	if err := json.Unmarshal(payload, &page); err != nil {
		slog.Debug("invalid leaderboard delta", "error", err)
		return
	}
	if len(page.Leaderboard) == 0 && page.Pagination.Total == 0 {
		return
	}
	s.leaderboard.Apply(page)
}

func (s *Syncer) onColleges(payload json.RawMessage) {
	var board models.CollegeBoard
	if err := json.Unmarshal(payload, &board); err != nil {
		slog.Debug("invalid college delta", "error", err)
		return
	}
	s.colleges.Apply(board.Colleges)
}

func (s *Syncer) onUserStats(payload json.RawMessage) {
	var stats models.UserStats
	if err := json.Unmarshal(payload, &stats); err != nil {
		slog.Debug("invalid stats delta", "error", err)
		return
	}
	if s.board.ApplyStats(stats) {
		s.credentials.SetStats(stats.TotalPoints, stats.TaskCount)
	}
}
