package state

import (
	"testing"

	"github.com/terra-clan/event-portal/internal/models"
)

func rank(r int) *int { return &r }

func page(entries ...models.LeaderboardEntry) models.LeaderboardPage {
	return models.LeaderboardPage{
		Leaderboard: entries,
		Pagination:  models.Pagination{Page: 1, Limit: 10, Total: len(entries), TotalPages: 1},
	}
}

func TestLeaderboardReplacesWholePage(t *testing.T) {
	board := NewLeaderboard()
	board.Apply(page(
		models.LeaderboardEntry{Name: "Ada", TotalPoints: 90, Rank: rank(1)},
		models.LeaderboardEntry{Name: "Grace", TotalPoints: 80, Rank: rank(2)},
	))

	board.Apply(page(
		models.LeaderboardEntry{Name: "Grace", TotalPoints: 120, Rank: rank(1)},
	))

	rows := board.Rows()
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want the old page fully replaced", len(rows))
	}
	if rows[0].Name != "Grace" || *rows[0].Rank != 1 {
		t.Errorf("row = %+v, want Grace at rank 1", rows[0])
	}
	if got := board.Pagination().Total; got != 1 {
		t.Errorf("pagination total = %d, want 1", got)
	}
}

func TestLeaderboardApplyIsIdempotent(t *testing.T) {
	board := NewLeaderboard()
	update := page(
		models.LeaderboardEntry{Name: "Ada", TotalPoints: 90, Rank: rank(1)},
		models.LeaderboardEntry{Name: "Grace", TotalPoints: 80, Rank: rank(2)},
	)

	board.Apply(update)
	first := board.Rows()
	board.Apply(update)
	second := board.Rows()

	if len(first) != len(second) {
		t.Fatalf("row count changed from %d to %d on re-apply", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("row %d changed on re-apply: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestLeaderboardTieDerivation(t *testing.T) {
	board := NewLeaderboard()
	board.Apply(page(
		models.LeaderboardEntry{Name: "Ada", TotalPoints: 90, Rank: rank(1)},
		models.LeaderboardEntry{Name: "Grace", TotalPoints: 90, Rank: rank(1)},
		models.LeaderboardEntry{Name: "Edsger", TotalPoints: 70, Rank: rank(3)},
		models.LeaderboardEntry{Name: "Barbara", TotalPoints: 60},
	))

	rows := board.Rows()
	want := []bool{true, true, false, false}
	for i, row := range rows {
		if row.Tied != want[i] {
			t.Errorf("row %s tied = %v, want %v", row.Name, row.Tied, want[i])
		}
	}

	// Ties do not survive a page where the rank is unique again
	board.Apply(page(
		models.LeaderboardEntry{Name: "Ada", TotalPoints: 95, Rank: rank(1)},
		models.LeaderboardEntry{Name: "Grace", TotalPoints: 90, Rank: rank(2)},
	))
	for _, row := range board.Rows() {
		if row.Tied {
			t.Errorf("row %s still tied after ranks diverged", row.Name)
		}
	}
}

func TestLeaderboardTeardownDiscardsStalePull(t *testing.T) {
	board := NewLeaderboard()
	gen := board.Generation()

	board.Teardown()

	applied := board.ApplyPull(gen, page(
		models.LeaderboardEntry{Name: "Ada", Rank: rank(1)},
	))
	if applied {
		t.Fatal("a pull issued before teardown must be discarded")
	}
	if len(board.Rows()) != 0 {
		t.Error("the stale pull must leave the cleared view untouched")
	}

	if !board.ApplyPull(board.Generation(), page(models.LeaderboardEntry{Name: "Grace", Rank: rank(1)})) {
		t.Error("a pull issued after teardown must apply")
	}
}

func TestLeaderboardPushStillAppliesAfterTeardownCycle(t *testing.T) {
	board := NewLeaderboard()
	board.Teardown()

	board.Apply(page(models.LeaderboardEntry{Name: "Ada", Rank: rank(1)}))
	if len(board.Rows()) != 1 {
		t.Error("pushed updates are not generation-gated")
	}
}

func TestCollegeBoardReplaceAndTies(t *testing.T) {
	board := NewCollegeBoard()
	board.Apply([]models.CollegeStanding{
		{College: "MEC", TotalPoints: 300, Rank: rank(1)},
		{College: "CET", TotalPoints: 300, Rank: rank(1)},
		{College: "TKM", TotalPoints: 100, Rank: rank(3)},
	})

	rows := board.Rows()
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if !rows[0].Tied || !rows[1].Tied || rows[2].Tied {
		t.Errorf("tie flags = [%v %v %v], want [true true false]",
			rows[0].Tied, rows[1].Tied, rows[2].Tied)
	}

	board.Apply([]models.CollegeStanding{{College: "MEC", TotalPoints: 350, Rank: rank(1)}})
	if got := len(board.Rows()); got != 1 {
		t.Errorf("got %d rows after replacement, want 1", got)
	}
}

func TestCollegeBoardTeardownDiscardsStalePull(t *testing.T) {
	board := NewCollegeBoard()
	gen := board.Generation()
	board.Teardown()

	if board.ApplyPull(gen, []models.CollegeStanding{{College: "MEC"}}) {
		t.Fatal("a pull issued before teardown must be discarded")
	}
	if len(board.Rows()) != 0 {
		t.Error("the stale pull must leave the cleared view untouched")
	}
}
