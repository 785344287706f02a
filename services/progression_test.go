package services

import (
	"errors"
	"testing"

	"github.com/pitchlab-hq/pitch_api/dto"
	"github.com/pitchlab-hq/pitch_api/model"
	"github.com/pitchlab-hq/pitch_api/shared"
)

type fakeProgressStore struct {
	record *model.UserProgress

	conflictsLeft int
	applyCalls    int
	initCalls     int
}

func (f *fakeProgressStore) GetProgress(userID string) (*model.UserProgress, error) {
	if f.record == nil {
		return nil, shared.NewNotFoundError(nil, "Progress record not found")
	}
	cp := *f.record
	return &cp, nil
}

func (f *fakeProgressStore) InitializeProgress(userID string, startingXP int) (*model.UserProgress, error) {
	f.initCalls++
	if f.record == nil {
		f.record = &model.UserProgress{
			UserID:       userID,
			TotalXP:      startingXP,
			CurrentLevel: shared.Level(startingXP),
		}
	}
	cp := *f.record
	return &cp, nil
}

func (f *fakeProgressStore) ApplyDelta(userID string, delta model.ProgressDelta) (*model.UserProgress, error) {
	f.applyCalls++
	if f.conflictsLeft > 0 {
		f.conflictsLeft--
		return nil, shared.NewConflictError(nil, "row contention")
	}
	if f.record == nil {
		return nil, shared.NewNotFoundError(nil, "Progress record not found")
	}

	for counter, amount := range delta.Counters {
		switch counter {
		case shared.CounterModulesCompleted:
			f.record.ModulesCompleted += amount
		case shared.CounterQuizzesCompleted:
			f.record.QuizzesCompleted += amount
		case shared.CounterSimulationsCompleted:
			f.record.SimulationsCompleted += amount
		case shared.CounterPerfectScores:
			f.record.PerfectScores += amount
		}
	}

	f.record.TotalXP += delta.XP
	if f.record.TotalXP < 0 {
		f.record.TotalXP = 0
	}
	f.record.CurrentLevel = shared.Level(f.record.TotalXP)

	cp := *f.record
	return &cp, nil
}

type fakeEvaluator struct {
	unlocks []model.Achievement
	err     error
	calls   int
}

func (f *fakeEvaluator) Evaluate(userID string, snapshot *model.UserProgress) ([]model.Achievement, error) {
	f.calls++
	return f.unlocks, f.err
}

type fakeChallengeUpdater struct {
	completed []model.Challenge
	err       error
}

func (f *fakeChallengeUpdater) Update(userID, activityType string, snapshot *model.UserProgress) ([]model.Challenge, error) {
	return f.completed, f.err
}

type fakeBoard struct {
	lastUserID string
	lastXP     int
	calls      int
}

func (f *fakeBoard) UpdateScore(userID string, totalXP int) {
	f.calls++
	f.lastUserID = userID
	f.lastXP = totalXP
}

func newProgressionFixture(record *model.UserProgress) (*ProgressionService, *fakeProgressStore, *fakeEvaluator, *fakeChallengeUpdater, *fakeBoard) {
	store := &fakeProgressStore{record: record}
	evaluator := &fakeEvaluator{}
	updater := &fakeChallengeUpdater{}
	board := &fakeBoard{}
	svc := &ProgressionService{
		store:           store,
		achievements:    evaluator,
		challenges:      updater,
		board:           board,
		conflictRetries: 3,
	}
	return svc, store, evaluator, updater, board
}

func intPtr(v int) *int { return &v }

func TestApplyActivityModule(t *testing.T) {
	svc, store, _, _, board := newProgressionFixture(&model.UserProgress{
		UserID: "u1", TotalXP: 500, CurrentLevel: 3,
	})

	resp, err := svc.ApplyActivity("u1", dto.ActivityRequest{ActivityType: shared.ActivityTypeModule})
	if err != nil {
		t.Fatalf("ApplyActivity returned error: %v", err)
	}

	if resp.Progress.TotalXP != 550 {
		t.Errorf("TotalXP = %d, want 550", resp.Progress.TotalXP)
	}
	if store.record.ModulesCompleted != 1 {
		t.Errorf("ModulesCompleted = %d, want 1", store.record.ModulesCompleted)
	}
	if resp.LeveledUp {
		t.Error("550 xp is still level 3, should not report a level up")
	}
	if board.lastXP != 550 {
		t.Errorf("leaderboard mirror got %d xp, want 550", board.lastXP)
	}
}

func TestApplyActivityQuizScoreAndPerfect(t *testing.T) {
	svc, store, _, _, _ := newProgressionFixture(&model.UserProgress{UserID: "u1"})

	resp, err := svc.ApplyActivity("u1", dto.ActivityRequest{
		ActivityType: shared.ActivityTypeQuiz,
		Score:        intPtr(100),
		IsPerfect:    true,
	})
	if err != nil {
		t.Fatalf("ApplyActivity returned error: %v", err)
	}

	if resp.Progress.TotalXP != 100 {
		t.Errorf("TotalXP = %d, want the submitted score 100", resp.Progress.TotalXP)
	}
	if store.record.QuizzesCompleted != 1 || store.record.PerfectScores != 1 {
		t.Errorf("counters = %d quizzes / %d perfect, want 1/1",
			store.record.QuizzesCompleted, store.record.PerfectScores)
	}
}

func TestApplyActivityDefaultXP(t *testing.T) {
	cases := []struct {
		activityType string
		want         int
	}{
		{shared.ActivityTypeQuiz, shared.DefaultQuizXP},
		{shared.ActivityTypeSimulation, shared.DefaultSimulationXP},
	}

	for _, tc := range cases {
		svc, _, _, _, _ := newProgressionFixture(&model.UserProgress{UserID: "u1"})
		resp, err := svc.ApplyActivity("u1", dto.ActivityRequest{ActivityType: tc.activityType})
		if err != nil {
			t.Fatalf("ApplyActivity(%s) returned error: %v", tc.activityType, err)
		}
		if resp.Progress.TotalXP != tc.want {
			t.Errorf("%s without score awarded %d xp, want %d", tc.activityType, resp.Progress.TotalXP, tc.want)
		}
	}
}

func TestApplyActivityRejectsInvalidRequests(t *testing.T) {
	cases := []dto.ActivityRequest{
		{ActivityType: "webinar"},
		{ActivityType: ""},
		{ActivityType: shared.ActivityTypeQuiz, Score: intPtr(-10)},
	}

	for _, req := range cases {
		svc, store, _, _, _ := newProgressionFixture(&model.UserProgress{UserID: "u1", TotalXP: 200, CurrentLevel: 2})
		_, err := svc.ApplyActivity("u1", req)
		if err == nil {
			t.Fatalf("request %+v should have been rejected", req)
		}
		appErr, ok := shared.GetAppError(err)
		if !ok || appErr.StatusCode != 400 {
			t.Errorf("request %+v: got %v, want a 400 AppError", req, err)
		}
		if store.record.TotalXP != 200 {
			t.Errorf("rejected request mutated progress to %d xp", store.record.TotalXP)
		}
	}
}

func TestApplyActivityLevelUp(t *testing.T) {
	svc, _, _, _, _ := newProgressionFixture(&model.UserProgress{
		UserID: "u1", TotalXP: 80, CurrentLevel: 1,
	})

	resp, err := svc.ApplyActivity("u1", dto.ActivityRequest{ActivityType: shared.ActivityTypeModule})
	if err != nil {
		t.Fatalf("ApplyActivity returned error: %v", err)
	}

	if !resp.LeveledUp {
		t.Error("80 + 50 xp crosses level 2, expected LeveledUp")
	}
	if resp.PreviousLevel != 1 {
		t.Errorf("PreviousLevel = %d, want 1", resp.PreviousLevel)
	}
	if resp.Progress.CurrentLevel != 2 {
		t.Errorf("CurrentLevel = %d, want 2", resp.Progress.CurrentLevel)
	}
}

func TestApplyActivityCreditsAchievementRewardOnce(t *testing.T) {
	svc, store, evaluator, _, _ := newProgressionFixture(&model.UserProgress{UserID: "u1", TotalXP: 100, CurrentLevel: 2})
	evaluator.unlocks = []model.Achievement{
		{ID: "ach_first", Name: "First Steps", Rarity: shared.RarityCommon, XPReward: 25},
	}

	resp, err := svc.ApplyActivity("u1", dto.ActivityRequest{ActivityType: shared.ActivityTypeModule})
	if err != nil {
		t.Fatalf("ApplyActivity returned error: %v", err)
	}

	if evaluator.calls != 1 {
		t.Errorf("achievement evaluation ran %d times, want exactly 1", evaluator.calls)
	}
	if store.record.TotalXP != 175 {
		t.Errorf("TotalXP = %d, want 100 + 50 activity + 25 reward = 175", store.record.TotalXP)
	}
	if len(resp.UnlockedAchievements) != 1 || resp.UnlockedAchievements[0].ID != "ach_first" {
		t.Errorf("UnlockedAchievements = %v, want ach_first", resp.UnlockedAchievements)
	}
	if resp.Progress.TotalXP != 175 {
		t.Errorf("response progress shows %d xp, want the post-reward 175", resp.Progress.TotalXP)
	}
}

func TestApplyActivityCreditsChallengeReward(t *testing.T) {
	svc, store, _, updater, board := newProgressionFixture(&model.UserProgress{UserID: "u1", TotalXP: 100, CurrentLevel: 2})
	updater.completed = []model.Challenge{
		{ID: "chal_daily", Title: "Daily Grind", ChallengeType: shared.ChallengeTypeDaily, XPReward: 20},
	}

	resp, err := svc.ApplyActivity("u1", dto.ActivityRequest{ActivityType: shared.ActivityTypeModule})
	if err != nil {
		t.Fatalf("ApplyActivity returned error: %v", err)
	}

	if store.record.TotalXP != 170 {
		t.Errorf("TotalXP = %d, want 100 + 50 activity + 20 reward = 170", store.record.TotalXP)
	}
	if len(resp.CompletedChallenges) != 1 {
		t.Errorf("CompletedChallenges = %v, want 1 entry", resp.CompletedChallenges)
	}
	if board.lastXP != 170 {
		t.Errorf("leaderboard mirror got %d xp, want the final 170", board.lastXP)
	}
}

// The base commit must survive downstream failures: a broken achievement or
// challenge step degrades the response, it never rolls back the activity.
func TestApplyActivitySurvivesDownstreamFailures(t *testing.T) {
	svc, store, evaluator, updater, _ := newProgressionFixture(&model.UserProgress{UserID: "u1", TotalXP: 100, CurrentLevel: 2})
	evaluator.err = errors.New("achievement table offline")
	updater.err = errors.New("challenge table offline")

	resp, err := svc.ApplyActivity("u1", dto.ActivityRequest{ActivityType: shared.ActivityTypeModule})
	if err != nil {
		t.Fatalf("ApplyActivity returned error despite committed base delta: %v", err)
	}

	if store.record.TotalXP != 150 {
		t.Errorf("TotalXP = %d, want the committed 150", store.record.TotalXP)
	}
	if len(resp.UnlockedAchievements) != 0 || len(resp.CompletedChallenges) != 0 {
		t.Error("failed downstream steps should report empty result sets")
	}
}

func TestApplyActivityInitializesMissingRecord(t *testing.T) {
	svc, store, _, _, _ := newProgressionFixture(nil)

	resp, err := svc.ApplyActivity("u1", dto.ActivityRequest{ActivityType: shared.ActivityTypeModule})
	if err != nil {
		t.Fatalf("ApplyActivity returned error: %v", err)
	}

	if store.initCalls != 1 {
		t.Errorf("InitializeProgress called %d times, want 1", store.initCalls)
	}
	want := shared.StartingXPBonus + shared.DefaultModuleXP
	if resp.Progress.TotalXP != want {
		t.Errorf("TotalXP = %d, want onboarding bonus + module award = %d", resp.Progress.TotalXP, want)
	}
}

func TestApplyActivityRetriesContention(t *testing.T) {
	svc, store, _, _, _ := newProgressionFixture(&model.UserProgress{UserID: "u1", TotalXP: 100, CurrentLevel: 2})
	store.conflictsLeft = 2

	resp, err := svc.ApplyActivity("u1", dto.ActivityRequest{ActivityType: shared.ActivityTypeModule})
	if err != nil {
		t.Fatalf("ApplyActivity should succeed after retrying contention: %v", err)
	}
	if resp.Progress.TotalXP != 150 {
		t.Errorf("TotalXP = %d, want 150", resp.Progress.TotalXP)
	}
}

func TestGetProgressDetectsInconsistency(t *testing.T) {
	svc, _, _, _, _ := newProgressionFixture(&model.UserProgress{
		UserID: "u1", TotalXP: 500, CurrentLevel: 9,
	})

	_, err := svc.GetProgress("u1")
	if err == nil {
		t.Fatal("expected a consistency error for level 9 at 500 xp")
	}
	appErr, ok := shared.GetAppError(err)
	if !ok || appErr.StatusCode != 500 {
		t.Errorf("got %v, want a 500 AppError", err)
	}
}

func TestRecheckAchievementsCreditsMissedUnlocks(t *testing.T) {
	svc, store, evaluator, _, board := newProgressionFixture(&model.UserProgress{UserID: "u1", TotalXP: 400, CurrentLevel: 3})
	evaluator.unlocks = []model.Achievement{
		{ID: "ach_missed", Name: "Missed", Rarity: shared.RarityRare, XPReward: 50},
	}

	resp, err := svc.RecheckAchievements("u1")
	if err != nil {
		t.Fatalf("RecheckAchievements returned error: %v", err)
	}

	if store.record.TotalXP != 450 {
		t.Errorf("TotalXP = %d, want 400 + 50 reward = 450", store.record.TotalXP)
	}
	if len(resp.UnlockedAchievements) != 1 {
		t.Errorf("UnlockedAchievements = %v, want 1 entry", resp.UnlockedAchievements)
	}
	if board.calls != 1 || board.lastXP != 450 {
		t.Errorf("leaderboard mirror update = %d calls / %d xp, want 1 / 450", board.calls, board.lastXP)
	}
}
