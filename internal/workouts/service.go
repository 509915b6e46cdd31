package workouts

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rubenfitness/backend/internal/achievements"
	"github.com/rubenfitness/backend/internal/streaks"
	"github.com/rubenfitness/backend/internal/telemetry/metrics"
	"github.com/rubenfitness/backend/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const (
	recentWorkoutsLimit       = 10
	achievementsCheckDeadline = 10 * time.Second
)

type workoutsRepo interface {
	Add(ctx context.Context, workout *Workout) (*Workout, error)
	Get(ctx context.Context, id int) (*Workout, error)
	Delete(ctx context.Context, id int) error
	ListForUser(ctx context.Context, userID string, from, to time.Time) ([]Workout, error)
	RecentForUser(ctx context.Context, userID string, limit int) ([]Workout, error)
	CountForUser(ctx context.Context, userID string) (int, error)
}

type streakEngine interface {
	RecordWorkout(ctx context.Context, userID string, workoutDate time.Time) (*streaks.Streak, error)
	CurrentStreak(ctx context.Context, userID string) (int, error)
}

type achievementsEvaluator interface {
	Evaluate(ctx context.Context, userID string) ([]achievements.Achievement, error)
}

// Service logs workouts and drives the follow-up work: the streak
// update (best effort, a failure never loses the workout itself) and
// the achievement evaluation (fire and forget).
type Service struct {
	repo         workoutsRepo
	streaks      streakEngine
	achievements achievementsEvaluator
	metrics      *metrics.Manager

	evalWg sync.WaitGroup
}

func NewService(
	repo workoutsRepo,
	streaks streakEngine,
	achievements achievementsEvaluator,
	metrics *metrics.Manager,
) *Service {
	return &Service{
		repo:         repo,
		streaks:      streaks,
		achievements: achievements,
		metrics:      metrics,
	}
}

// LogWorkout stores the workout, updates the streak and kicks off the
// achievement check in the background. The returned streak is nil when
// the streak update failed, the workout is stored regardless.
func (s *Service) LogWorkout(ctx context.Context, workout *Workout) (_ *Workout, _ *streaks.Streak, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "workouts.service.logWorkout")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", workout.UserID))

	workout.WorkoutDate = streaks.DateOnly(workout.WorkoutDate)
	workout.TotalVolume = workout.CalcTotalVolume()

	added, err := s.repo.Add(ctx, workout)
	if err != nil {
		return nil, nil, fmt.Errorf("add workout: %w", err)
	}

	s.metrics.CounterWorkoutsLogged.Inc()

	streak, err := s.streaks.RecordWorkout(ctx, workout.UserID, workout.WorkoutDate)
	if err != nil {
		log.Errorf("workout %d stored, but streak update for user %s failed: %s", added.ID, workout.UserID, err)
		s.metrics.CounterStreakUpdateFailed.Inc()
		streak = nil
	}

	s.evalWg.Add(1)
	go func() {
		defer s.evalWg.Done()
		evalCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), achievementsCheckDeadline)
		defer cancel()
		if _, err := s.achievements.Evaluate(evalCtx, workout.UserID); err != nil {
			log.Errorf("achievements check for user %s failed: %s", workout.UserID, err)
		}
	}()

	return added, streak, nil
}

// DeleteWorkout removes a logged workout. Streak counters are not
// recomputed, the next logged workout corrects them.
func (s *Service) DeleteWorkout(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) GetWorkout(ctx context.Context, id int) (*Workout, error) {
	return s.repo.Get(ctx, id)
}

// Calendar returns the distinct workout dates (as "2006-01-02") in the
// given month
func (s *Service) Calendar(ctx context.Context, userID string, year, month int) (_ []string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "workouts.service.calendar")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, -1)

	workouts, err := s.repo.ListForUser(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list workouts: %w", err)
	}

	seen := make(map[string]bool)
	var workoutDays []string
	for _, w := range workouts {
		day := w.WorkoutDate.Format("2006-01-02")
		if !seen[day] {
			seen[day] = true
			workoutDays = append(workoutDays, day)
		}
	}

	return workoutDays, nil
}

func (s *Service) Progress(ctx context.Context, userID string) (_ *ProgressSummary, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "workouts.service.progress")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	totalWorkouts, err := s.repo.CountForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count workouts: %w", err)
	}
	currentStreak, err := s.streaks.CurrentStreak(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get current streak: %w", err)
	}
	recent, err := s.repo.RecentForUser(ctx, userID, recentWorkoutsLimit)
	if err != nil {
		return nil, fmt.Errorf("recent workouts: %w", err)
	}
	if len(recent) == 0 {
		recent = []Workout{}
	}

	return &ProgressSummary{
		UserID:         userID,
		TotalWorkouts:  totalWorkouts,
		CurrentStreak:  currentStreak,
		RecentWorkouts: recent,
	}, nil
}

// Wait blocks until in-flight achievement checks are done, used on
// graceful shutdown and in tests
func (s *Service) Wait() {
	s.evalWg.Wait()
}
