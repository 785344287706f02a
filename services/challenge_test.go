package services

import (
	"testing"
	"time"

	"github.com/pitchlab-hq/pitch_api/model"
	"github.com/pitchlab-hq/pitch_api/shared"
)

type fakeChallengeStore struct {
	challenges []model.Challenge
	progress   map[string]*model.UserChallengeProgress
	saves      int
}

func newFakeChallengeStore(challenges ...model.Challenge) *fakeChallengeStore {
	return &fakeChallengeStore{
		challenges: challenges,
		progress:   map[string]*model.UserChallengeProgress{},
	}
}

func (f *fakeChallengeStore) GetActiveChallenges(now time.Time) ([]model.Challenge, error) {
	var active []model.Challenge
	for _, c := range f.challenges {
		if c.IsActive && !now.Before(c.StartDate) && !now.After(c.EndDate) {
			active = append(active, c)
		}
	}
	return active, nil
}

func (f *fakeChallengeStore) GetOrCreateProgress(userID, challengeID string) (*model.UserChallengeProgress, error) {
	key := userID + "|" + challengeID
	if p, ok := f.progress[key]; ok {
		return p, nil
	}
	p := &model.UserChallengeProgress{
		UserID:      userID,
		ChallengeID: challengeID,
		Progress:    model.RequirementMap{},
	}
	f.progress[key] = p
	return p, nil
}

func (f *fakeChallengeStore) SaveProgress(progress *model.UserChallengeProgress) error {
	f.saves++
	f.progress[progress.UserID+"|"+progress.ChallengeID] = progress
	return nil
}

func (f *fakeChallengeStore) MarkCompleted(userID, challengeID string) (bool, error) {
	p, ok := f.progress[userID+"|"+challengeID]
	if !ok || p.Completed {
		return false, nil
	}
	now := time.Now()
	p.Completed = true
	p.CompletedAt = &now
	return true, nil
}

func (f *fakeChallengeStore) GetUserProgress(userID string, challengeIDs []string) (map[string]*model.UserChallengeProgress, error) {
	byID := map[string]*model.UserChallengeProgress{}
	for _, id := range challengeIDs {
		if p, ok := f.progress[userID+"|"+id]; ok {
			byID[id] = p
		}
	}
	return byID, nil
}

func challengeFixture(id, counter string, target int, start, end time.Time) model.Challenge {
	return model.Challenge{
		ID:            id,
		Title:         id,
		ChallengeType: shared.ChallengeTypeDaily,
		Requirements:  model.RequirementMap{counter: target},
		XPReward:      50,
		StartDate:     start,
		EndDate:       end,
		IsActive:      true,
	}
}

func challengeServiceAt(store challengeStore, now time.Time) *ChallengeService {
	return &ChallengeService{store: store, now: func() time.Time { return now }}
}

func TestUpdateIgnoresOutOfWindowChallenges(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	store := newFakeChallengeStore(
		challengeFixture("expired", shared.CounterModulesCompleted, 1, now.AddDate(0, 0, -7), now.AddDate(0, 0, -1)),
		challengeFixture("upcoming", shared.CounterModulesCompleted, 1, now.AddDate(0, 0, 1), now.AddDate(0, 0, 7)),
		challengeFixture("live", shared.CounterModulesCompleted, 1, now.AddDate(0, 0, -1), now.AddDate(0, 0, 1)),
	)
	svc := challengeServiceAt(store, now)

	snapshot := &model.UserProgress{UserID: "u1", ModulesCompleted: 1}
	completed, err := svc.Update("u1", shared.ActivityTypeModule, snapshot)
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if len(completed) != 1 || completed[0].ID != "live" {
		t.Fatalf("expected only live challenge to complete, got %v", completed)
	}
}

func TestUpdateOnlyTouchesAffectedCounters(t *testing.T) {
	now := time.Now()
	store := newFakeChallengeStore(
		challengeFixture("quiz_chal", shared.CounterQuizzesCompleted, 1, now.Add(-time.Hour), now.Add(time.Hour)),
	)
	svc := challengeServiceAt(store, now)

	snapshot := &model.UserProgress{UserID: "u1", ModulesCompleted: 1, QuizzesCompleted: 3}
	completed, err := svc.Update("u1", shared.ActivityTypeModule, snapshot)
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if len(completed) != 0 {
		t.Fatalf("module activity should not advance a quiz challenge, got %v", completed)
	}
	if store.saves != 0 {
		t.Errorf("expected no progress writes, got %d", store.saves)
	}
}

// Challenge progress mirrors the lifetime counter, so a user who already
// exceeds the target completes on their first matching activity in the window.
func TestUpdateMirrorsLifetimeCounter(t *testing.T) {
	now := time.Now()
	store := newFakeChallengeStore(
		challengeFixture("five_sims", shared.CounterSimulationsCompleted, 5, now.Add(-time.Hour), now.Add(time.Hour)),
	)
	svc := challengeServiceAt(store, now)

	snapshot := &model.UserProgress{UserID: "u1", SimulationsCompleted: 7}
	completed, err := svc.Update("u1", shared.ActivityTypeSimulation, snapshot)
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if len(completed) != 1 {
		t.Fatalf("expected completion, got %d", len(completed))
	}

	p := store.progress["u1|five_sims"]
	if p.Progress[shared.CounterSimulationsCompleted] != 7 {
		t.Errorf("stored progress = %d, want the lifetime value 7", p.Progress[shared.CounterSimulationsCompleted])
	}
}

func TestUpdateCompletesOnce(t *testing.T) {
	now := time.Now()
	store := newFakeChallengeStore(
		challengeFixture("one_module", shared.CounterModulesCompleted, 1, now.Add(-time.Hour), now.Add(time.Hour)),
	)
	svc := challengeServiceAt(store, now)

	snapshot := &model.UserProgress{UserID: "u1", ModulesCompleted: 1}
	first, err := svc.Update("u1", shared.ActivityTypeModule, snapshot)
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("expected first update to complete, got %d", len(first))
	}

	snapshot.ModulesCompleted = 2
	second, err := svc.Update("u1", shared.ActivityTypeModule, snapshot)
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if len(second) != 0 {
		t.Fatalf("completed challenge was credited again: %v", second)
	}
}

func TestUpdateSkipsMalformedChallenges(t *testing.T) {
	now := time.Now()
	twoKeys := challengeFixture("two_keys", shared.CounterModulesCompleted, 1, now.Add(-time.Hour), now.Add(time.Hour))
	twoKeys.Requirements[shared.CounterQuizzesCompleted] = 1
	zeroTarget := challengeFixture("zero_target", shared.CounterModulesCompleted, 0, now.Add(-time.Hour), now.Add(time.Hour))
	store := newFakeChallengeStore(twoKeys, zeroTarget)
	svc := challengeServiceAt(store, now)

	snapshot := &model.UserProgress{UserID: "u1", ModulesCompleted: 10}
	completed, err := svc.Update("u1", shared.ActivityTypeModule, snapshot)
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if len(completed) != 0 {
		t.Fatalf("malformed challenges should be skipped, got %v", completed)
	}
}

func TestGetUserChallengesClampsPercent(t *testing.T) {
	now := time.Now()
	store := newFakeChallengeStore(
		challengeFixture("five_quizzes", shared.CounterQuizzesCompleted, 5, now.Add(-time.Hour), now.Add(time.Hour)),
	)
	svc := challengeServiceAt(store, now)

	snapshot := &model.UserProgress{UserID: "u1", QuizzesCompleted: 12}
	if _, err := svc.Update("u1", shared.ActivityTypeQuiz, snapshot); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	list, err := svc.GetUserChallenges("u1")
	if err != nil {
		t.Fatalf("GetUserChallenges returned error: %v", err)
	}
	if list.Total != 1 {
		t.Fatalf("expected 1 challenge, got %d", list.Total)
	}
	if got := list.Challenges[0].ProgressPercent; got != 100 {
		t.Errorf("ProgressPercent = %f, want clamped 100", got)
	}
	if !list.Challenges[0].Completed {
		t.Error("challenge should be marked completed")
	}
}
