package workouts

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rubenfitness/backend/internal/achievements"
	"github.com/rubenfitness/backend/internal/streaks"
	"github.com/rubenfitness/backend/internal/telemetry/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// TestMain will run goleak after all tests have been run in the package
// to detect any goroutine leaks
func TestMain(m *testing.M) {
	m.Run()
	goleak.VerifyTestMain(m)
}

type evaluatorStub struct {
	mutex     sync.Mutex
	evaluated []string
	err       error
}

func (e *evaluatorStub) Evaluate(_ context.Context, userID string) ([]achievements.Achievement, error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.evaluated = append(e.evaluated, userID)
	return nil, e.err
}

func (e *evaluatorStub) evaluatedUsers() []string {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return append([]string{}, e.evaluated...)
}

type failingStreakEngine struct{}

func (failingStreakEngine) RecordWorkout(context.Context, string, time.Time) (*streaks.Streak, error) {
	return nil, errors.New("streaks db gone")
}

func (failingStreakEngine) CurrentStreak(context.Context, string) (int, error) {
	return 0, errors.New("streaks db gone")
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func newTestService(repo *repoMock, evaluator *evaluatorStub) *Service {
	engine := streaks.NewEngine(streaks.NewMockRepo())
	return NewService(repo, engine, evaluator, metrics.NewTestManager())
}

func TestService_LogWorkout(t *testing.T) {
	repo := NewMockRepo()
	evaluator := &evaluatorStub{}
	service := newTestService(repo, evaluator)
	ctx := context.Background()

	workout := &Workout{
		UserID:      "user1",
		WorkoutDate: day(2024, time.June, 1),
		Exercises: []ExerciseSet{
			{Exercise: "bench press", Reps: 10, Weight: 60},
			{Exercise: "bench press", Reps: 8, Weight: 70},
		},
	}

	added, streak, err := service.LogWorkout(ctx, workout)
	require.NoError(t, err)
	require.NotNil(t, added)
	assert.NotZero(t, added.ID)
	assert.Equal(t, float64(10*60+8*70), added.TotalVolume)

	require.NotNil(t, streak)
	assert.Equal(t, 1, streak.CurrentStreak)

	service.Wait()
	assert.Equal(t, []string{"user1"}, evaluator.evaluatedUsers())

	stored, err := repo.Get(ctx, added.ID)
	require.NoError(t, err)
	assert.Equal(t, added.TotalVolume, stored.TotalVolume)
}

func TestService_LogWorkout_streakFailureIsBestEffort(t *testing.T) {
	repo := NewMockRepo()
	evaluator := &evaluatorStub{}
	service := NewService(repo, failingStreakEngine{}, evaluator, metrics.NewTestManager())
	ctx := context.Background()

	workout := &Workout{UserID: "user1", WorkoutDate: day(2024, time.June, 1)}
	added, streak, err := service.LogWorkout(ctx, workout)
	require.NoError(t, err)
	require.NotNil(t, added)
	assert.Nil(t, streak)

	// the workout made it to storage despite the streak failure
	count, err := repo.CountForUser(ctx, "user1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// and the achievement check still ran
	service.Wait()
	assert.Equal(t, []string{"user1"}, evaluator.evaluatedUsers())
}

func TestService_LogWorkout_repoFailure(t *testing.T) {
	repo := NewMockRepo()
	repo.AddErr = errors.New("workouts db gone")
	service := newTestService(repo, &evaluatorStub{})

	_, _, err := service.LogWorkout(context.Background(), &Workout{
		UserID:      "user1",
		WorkoutDate: day(2024, time.June, 1),
	})
	require.ErrorContains(t, err, "workouts db gone")
	service.Wait()
}

func TestService_LogWorkout_evaluatorFailureIsSwallowed(t *testing.T) {
	repo := NewMockRepo()
	evaluator := &evaluatorStub{err: errors.New("evaluation broken")}
	service := newTestService(repo, evaluator)

	_, _, err := service.LogWorkout(context.Background(), &Workout{
		UserID:      "user1",
		WorkoutDate: day(2024, time.June, 1),
	})
	require.NoError(t, err)
	service.Wait()
}

func TestService_Calendar(t *testing.T) {
	repo := NewMockRepo()
	service := newTestService(repo, &evaluatorStub{})
	ctx := context.Background()

	for _, d := range []time.Time{
		day(2024, time.June, 3),
		day(2024, time.June, 3), // two workouts on the same day
		day(2024, time.June, 10),
		day(2024, time.May, 30),  // outside the month
		day(2024, time.July, 1),  // outside the month
	} {
		_, _, err := service.LogWorkout(ctx, &Workout{UserID: "user1", WorkoutDate: d})
		require.NoError(t, err)
	}
	_, _, err := service.LogWorkout(ctx, &Workout{UserID: "user2", WorkoutDate: day(2024, time.June, 5)})
	require.NoError(t, err)

	workoutDays, err := service.Calendar(ctx, "user1", 2024, 6)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-06-03", "2024-06-10"}, workoutDays)

	service.Wait()
}

func TestService_Progress(t *testing.T) {
	repo := NewMockRepo()
	service := newTestService(repo, &evaluatorStub{})
	ctx := context.Background()

	for i := 1; i <= 12; i++ {
		_, _, err := service.LogWorkout(ctx, &Workout{
			UserID:      "user1",
			WorkoutDate: day(2024, time.June, i),
		})
		require.NoError(t, err)
	}

	summary, err := service.Progress(ctx, "user1")
	require.NoError(t, err)
	assert.Equal(t, 12, summary.TotalWorkouts)
	assert.Equal(t, 12, summary.CurrentStreak)
	assert.Len(t, summary.RecentWorkouts, 10)
	// most recent first
	assert.Equal(t, day(2024, time.June, 12), summary.RecentWorkouts[0].WorkoutDate)

	service.Wait()
}

func TestService_DeleteWorkout(t *testing.T) {
	repo := NewMockRepo()
	service := newTestService(repo, &evaluatorStub{})
	ctx := context.Background()

	added, _, err := service.LogWorkout(ctx, &Workout{
		UserID:      "user1",
		WorkoutDate: day(2024, time.June, 1),
	})
	require.NoError(t, err)

	require.NoError(t, service.DeleteWorkout(ctx, added.ID))
	require.ErrorIs(t, service.DeleteWorkout(ctx, added.ID), ErrWorkoutNotFound)

	_, err = service.GetWorkout(ctx, added.ID)
	require.ErrorIs(t, err, ErrWorkoutNotFound)

	service.Wait()
}
