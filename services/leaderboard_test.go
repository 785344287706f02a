package services

import (
	"sort"
	"testing"

	"github.com/pitchlab-hq/pitch_api/model"
)

type fakeRankSource struct {
	rows      []model.UserProgress
	usernames map[string]string
}

func (f *fakeRankSource) GetProgress(userID string) (*model.UserProgress, error) {
	for i := range f.rows {
		if f.rows[i].UserID == userID {
			cp := f.rows[i]
			return &cp, nil
		}
	}
	return nil, errNotFound()
}

func (f *fakeRankSource) GetTopByXP(limit int) ([]model.UserProgress, error) {
	sorted := make([]model.UserProgress, len(f.rows))
	copy(sorted, f.rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TotalXP > sorted[j].TotalXP
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted, nil
}

func (f *fakeRankSource) GetProgressByUserIDs(userIDs []string) (map[string]*model.UserProgress, error) {
	byUser := map[string]*model.UserProgress{}
	for i := range f.rows {
		for _, id := range userIDs {
			if f.rows[i].UserID == id {
				cp := f.rows[i]
				byUser[id] = &cp
			}
		}
	}
	return byUser, nil
}

func (f *fakeRankSource) GetAllProgress() ([]model.UserProgress, error) {
	return f.rows, nil
}

func (f *fakeRankSource) CountWithMoreXP(totalXP int) (int64, error) {
	var count int64
	for _, row := range f.rows {
		if row.TotalXP > totalXP {
			count++
		}
	}
	return count, nil
}

func (f *fakeRankSource) GetUsernames(userIDs []string) (map[string]string, error) {
	names := map[string]string{}
	for _, id := range userIDs {
		if name, ok := f.usernames[id]; ok {
			names[id] = name
		}
	}
	return names, nil
}

func errNotFound() error {
	return &notFoundErr{}
}

type notFoundErr struct{}

func (e *notFoundErr) Error() string { return "not found" }

// The zero-value redis service fails every mirror call, forcing TopN through
// the SQL fallback.
func leaderboardFixture(rows ...model.UserProgress) (*LeaderboardService, *fakeRankSource) {
	source := &fakeRankSource{
		rows: rows,
		usernames: map[string]string{
			"u1": "ava",
			"u2": "ben",
			"u3": "cal",
			"u4": "dee",
		},
	}
	return &LeaderboardService{source: source, redisSvc: &RedisService{}}, source
}

func TestTopNOrdersByXPDescending(t *testing.T) {
	svc, _ := leaderboardFixture(
		model.UserProgress{UserID: "u1", TotalXP: 300, CurrentLevel: 2},
		model.UserProgress{UserID: "u2", TotalXP: 900, CurrentLevel: 4},
		model.UserProgress{UserID: "u3", TotalXP: 500, CurrentLevel: 3},
	)

	resp, err := svc.TopN(10, "")
	if err != nil {
		t.Fatalf("TopN returned error: %v", err)
	}

	wantOrder := []string{"u2", "u3", "u1"}
	if len(resp.TopUsers) != len(wantOrder) {
		t.Fatalf("got %d entries, want %d", len(resp.TopUsers), len(wantOrder))
	}
	for i, want := range wantOrder {
		entry := resp.TopUsers[i]
		if entry.UserID != want {
			t.Errorf("position %d = %s, want %s", i, entry.UserID, want)
		}
		if entry.Rank != i+1 {
			t.Errorf("position %d has rank %d, want %d", i, entry.Rank, i+1)
		}
	}
	if resp.TopUsers[0].Username != "ben" {
		t.Errorf("top entry username = %q, want ben", resp.TopUsers[0].Username)
	}
}

func TestTopNRespectsLimit(t *testing.T) {
	svc, _ := leaderboardFixture(
		model.UserProgress{UserID: "u1", TotalXP: 300},
		model.UserProgress{UserID: "u2", TotalXP: 900},
		model.UserProgress{UserID: "u3", TotalXP: 500},
	)

	resp, err := svc.TopN(2, "")
	if err != nil {
		t.Fatalf("TopN returned error: %v", err)
	}
	if len(resp.TopUsers) != 2 {
		t.Fatalf("got %d entries, want 2", len(resp.TopUsers))
	}
}

func TestTopNAttachesCurrentUserInsideSlice(t *testing.T) {
	svc, _ := leaderboardFixture(
		model.UserProgress{UserID: "u1", TotalXP: 300},
		model.UserProgress{UserID: "u2", TotalXP: 900},
	)

	resp, err := svc.TopN(10, "u1")
	if err != nil {
		t.Fatalf("TopN returned error: %v", err)
	}
	if resp.CurrentUser == nil {
		t.Fatal("CurrentUser should be set for an authenticated caller")
	}
	if resp.CurrentUser.UserID != "u1" || resp.CurrentUser.Rank != 2 {
		t.Errorf("CurrentUser = %s rank %d, want u1 rank 2", resp.CurrentUser.UserID, resp.CurrentUser.Rank)
	}
}

func TestTopNAttachesCurrentUserOutsideSlice(t *testing.T) {
	svc, _ := leaderboardFixture(
		model.UserProgress{UserID: "u1", TotalXP: 900},
		model.UserProgress{UserID: "u2", TotalXP: 800},
		model.UserProgress{UserID: "u3", TotalXP: 700},
		model.UserProgress{UserID: "u4", TotalXP: 100},
	)

	resp, err := svc.TopN(2, "u4")
	if err != nil {
		t.Fatalf("TopN returned error: %v", err)
	}
	if resp.CurrentUser == nil {
		t.Fatal("CurrentUser should be attached even outside the slice")
	}
	if resp.CurrentUser.Rank != 4 {
		t.Errorf("CurrentUser rank = %d, want 4", resp.CurrentUser.Rank)
	}
	if resp.CurrentUser.Username != "dee" {
		t.Errorf("CurrentUser username = %q, want dee", resp.CurrentUser.Username)
	}
}

// Tied users share the same rank: rank is the count of users with strictly
// more XP plus one, never a position in some tie-broken ordering.
func TestRankOfWithTies(t *testing.T) {
	svc, _ := leaderboardFixture(
		model.UserProgress{UserID: "u1", TotalXP: 900},
		model.UserProgress{UserID: "u2", TotalXP: 500},
		model.UserProgress{UserID: "u3", TotalXP: 500},
		model.UserProgress{UserID: "u4", TotalXP: 100},
	)

	for _, userID := range []string{"u2", "u3"} {
		rank, err := svc.RankOf(userID)
		if err != nil {
			t.Fatalf("RankOf(%s) returned error: %v", userID, err)
		}
		if rank.Rank != 2 {
			t.Errorf("RankOf(%s) = %d, want 2", userID, rank.Rank)
		}
	}

	rank, err := svc.RankOf("u4")
	if err != nil {
		t.Fatalf("RankOf(u4) returned error: %v", err)
	}
	if rank.Rank != 4 {
		t.Errorf("RankOf(u4) = %d, want 4", rank.Rank)
	}
}

func TestRankOfTop(t *testing.T) {
	svc, _ := leaderboardFixture(
		model.UserProgress{UserID: "u1", TotalXP: 900},
		model.UserProgress{UserID: "u2", TotalXP: 100},
	)

	rank, err := svc.RankOf("u1")
	if err != nil {
		t.Fatalf("RankOf returned error: %v", err)
	}
	if rank.Rank != 1 || rank.TotalXP != 900 {
		t.Errorf("RankOf(u1) = rank %d xp %d, want rank 1 xp 900", rank.Rank, rank.TotalXP)
	}
}
