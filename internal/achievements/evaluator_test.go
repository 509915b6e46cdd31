package achievements

import (
	"context"
	"errors"
	"testing"

	"github.com/rubenfitness/backend/internal/telemetry/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type totalsStub struct {
	workouts    int
	streak      int
	workoutsErr error
	streakErr   error
}

func (s *totalsStub) CountForUser(context.Context, string) (int, error) {
	return s.workouts, s.workoutsErr
}

func (s *totalsStub) CurrentStreak(context.Context, string) (int, error) {
	return s.streak, s.streakErr
}

func typesOf(unlocked []Achievement) []Type {
	var types []Type
	for _, a := range unlocked {
		types = append(types, a.Type)
	}
	return types
}

func TestEvaluator_noWorkoutsNoAchievements(t *testing.T) {
	totals := &totalsStub{}
	evaluator := NewEvaluator(NewMockRepo(), totals, totals, metrics.NewTestManager())

	unlocked, err := evaluator.Evaluate(context.Background(), "user1")
	require.NoError(t, err)
	assert.Empty(t, unlocked)
}

func TestEvaluator_firstWorkoutUnlockedOnce(t *testing.T) {
	totals := &totalsStub{workouts: 1, streak: 1}
	evaluator := NewEvaluator(NewMockRepo(), totals, totals, metrics.NewTestManager())
	ctx := context.Background()

	unlocked, err := evaluator.Evaluate(ctx, "user1")
	require.NoError(t, err)
	require.Len(t, unlocked, 1)
	assert.Equal(t, TypeFirstWorkout, unlocked[0].Type)
	assert.Equal(t, "First Steps", unlocked[0].Title)
	assert.Equal(t, "Completed your first workout!", unlocked[0].Description)
	assert.Equal(t, "star", unlocked[0].Icon)
	assert.False(t, unlocked[0].UnlockedAt.IsZero())

	// running the evaluation again must not unlock it a second time
	for i := 0; i < 3; i++ {
		unlocked, err = evaluator.Evaluate(ctx, "user1")
		require.NoError(t, err)
		assert.Empty(t, unlocked)
	}
}

func TestEvaluator_weekStreakAtSevenAndBeyond(t *testing.T) {
	totals := &totalsStub{workouts: 7, streak: 7}
	evaluator := NewEvaluator(NewMockRepo(), totals, totals, metrics.NewTestManager())
	ctx := context.Background()

	unlocked, err := evaluator.Evaluate(ctx, "user1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []Type{TypeFirstWorkout, TypeWeekStreak}, typesOf(unlocked))

	// streak keeps growing, week_streak stays unlocked-once
	for _, streak := range []int{8, 9} {
		totals.streak = streak
		totals.workouts++
		unlocked, err = evaluator.Evaluate(ctx, "user1")
		require.NoError(t, err)
		assert.Empty(t, unlocked)
	}
}

func TestEvaluator_monthStreak(t *testing.T) {
	totals := &totalsStub{workouts: 30, streak: 30}
	evaluator := NewEvaluator(NewMockRepo(), totals, totals, metrics.NewTestManager())

	unlocked, err := evaluator.Evaluate(context.Background(), "user1")
	require.NoError(t, err)
	assert.ElementsMatch(
		t,
		[]Type{TypeFirstWorkout, TypeWeekStreak, TypeMonthStreak, TypeTotalWorkouts},
		typesOf(unlocked),
	)
}

func TestEvaluator_totalWorkoutsProgress(t *testing.T) {
	totals := &totalsStub{workouts: 12, streak: 1}
	evaluator := NewEvaluator(NewMockRepo(), totals, totals, metrics.NewTestManager())

	unlocked, err := evaluator.Evaluate(context.Background(), "user1")
	require.NoError(t, err)

	var totalWorkouts *Achievement
	for i := range unlocked {
		if unlocked[i].Type == TypeTotalWorkouts {
			totalWorkouts = &unlocked[i]
		}
	}
	require.NotNil(t, totalWorkouts)
	assert.Equal(t, "10 Workouts", totalWorkouts.Title)
	assert.Equal(t, "fitness_center", totalWorkouts.Icon)
	assert.Equal(t, 12, totalWorkouts.Progress)
	assert.Equal(t, 10, totalWorkouts.Target)
}

func TestEvaluator_insertFailureDoesNotAbortRun(t *testing.T) {
	repo := NewMockRepo()
	repo.AddErr = errors.New("insert broken")
	totals := &totalsStub{workouts: 12, streak: 7}
	evaluator := NewEvaluator(repo, totals, totals, metrics.NewTestManager())

	unlocked, err := evaluator.Evaluate(context.Background(), "user1")
	require.NoError(t, err)
	assert.Empty(t, unlocked)

	// once inserts work again, the missed milestones are picked up
	repo.AddErr = nil
	unlocked, err = evaluator.Evaluate(context.Background(), "user1")
	require.NoError(t, err)
	assert.Len(t, unlocked, 3)
}

func TestEvaluator_prerequisiteErrors(t *testing.T) {
	ctx := context.Background()

	totals := &totalsStub{workoutsErr: errors.New("count failed")}
	evaluator := NewEvaluator(NewMockRepo(), totals, totals, metrics.NewTestManager())
	_, err := evaluator.Evaluate(ctx, "user1")
	require.ErrorContains(t, err, "count failed")

	totals = &totalsStub{workouts: 5, streakErr: errors.New("streak failed")}
	evaluator = NewEvaluator(NewMockRepo(), totals, totals, metrics.NewTestManager())
	_, err = evaluator.Evaluate(ctx, "user1")
	require.ErrorContains(t, err, "streak failed")

	repo := NewMockRepo()
	repo.ListTypesErr = errors.New("list failed")
	totals = &totalsStub{workouts: 5, streak: 2}
	evaluator = NewEvaluator(repo, totals, totals, metrics.NewTestManager())
	_, err = evaluator.Evaluate(ctx, "user1")
	require.ErrorContains(t, err, "list failed")
}
