package streaks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rubenfitness/backend/internal/telemetry/tracing"

	"go.opentelemetry.io/otel/attribute"
)

type streaksRepo interface {
	Get(ctx context.Context, userID string) (*Streak, error)
	Upsert(ctx context.Context, streak *Streak) error
}

// Engine maintains per-user streak records from workout-completion events.
// Read-modify-write on a streak row is serialized per user, so that two
// concurrent workout logs for the same user cannot drop an increment.
type Engine struct {
	repo streaksRepo

	locksMutex sync.Mutex
	userLocks  map[string]*sync.Mutex
}

func NewEngine(repo streaksRepo) *Engine {
	return &Engine{
		repo:      repo,
		userLocks: make(map[string]*sync.Mutex),
	}
}

func (e *Engine) lockUser(userID string) *sync.Mutex {
	e.locksMutex.Lock()
	defer e.locksMutex.Unlock()

	lock, ok := e.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		e.userLocks[userID] = lock
	}
	return lock
}

// RecordWorkout updates the user's streak record for a workout done on
// workoutDate and returns the updated record.
//
// A workout on the day after the last one extends the current streak, a
// repeated log on the same day leaves it unchanged, and anything else
// (a gap, or a backfilled earlier date) resets it to 1. The last workout
// date is always advanced to the submitted date, even for backfills -
// longstanding behavior the clients rely on.
func (e *Engine) RecordWorkout(ctx context.Context, userID string, workoutDate time.Time) (_ *Streak, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "streaks.engine.recordWorkout")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", userID))

	userLock := e.lockUser(userID)
	userLock.Lock()
	defer userLock.Unlock()

	streak, err := e.repo.Get(ctx, userID)
	if err != nil && !errors.Is(err, ErrStreakNotFound) {
		return nil, fmt.Errorf("get streak: %w", err)
	}

	if streak == nil || errors.Is(err, ErrStreakNotFound) {
		streak = NewStreak(userID, workoutDate)
		if err := e.repo.Upsert(ctx, streak); err != nil {
			return nil, fmt.Errorf("insert streak: %w", err)
		}
		return streak, nil
	}

	daysDiff := DaysBetween(streak.LastWorkoutDate, workoutDate)
	span.SetAttributes(attribute.Int("streak.days_diff", daysDiff))

	switch {
	case daysDiff == 0:
		// same-day re-log, current streak unchanged
	case daysDiff == 1:
		streak.CurrentStreak++
	default:
		streak.CurrentStreak = 1
	}

	if streak.CurrentStreak > streak.LongestStreak {
		streak.LongestStreak = streak.CurrentStreak
	}

	if daysDiff <= weeklyWindowDays {
		streak.WeeklyStreak = min(streak.WeeklyStreak+1, weeklyWindowDays)
	} else {
		streak.WeeklyStreak = 1
	}
	if daysDiff <= monthlyWindowDays {
		streak.MonthlyStreak = min(streak.MonthlyStreak+1, monthlyWindowDays)
	} else {
		streak.MonthlyStreak = 1
	}

	streak.LastWorkoutDate = DateOnly(workoutDate)

	if err := e.repo.Upsert(ctx, streak); err != nil {
		return nil, fmt.Errorf("update streak: %w", err)
	}

	return streak, nil
}

// GetStreak returns the user's streak record, or a zero-state record
// when the user never logged a workout.
func (e *Engine) GetStreak(ctx context.Context, userID string) (_ *Streak, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "streaks.engine.getStreak")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	streak, err := e.repo.Get(ctx, userID)
	if errors.Is(err, ErrStreakNotFound) {
		return &Streak{UserID: userID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get streak: %w", err)
	}
	return streak, nil
}

// CurrentStreak is used by the achievement evaluator
func (e *Engine) CurrentStreak(ctx context.Context, userID string) (int, error) {
	streak, err := e.GetStreak(ctx, userID)
	if err != nil {
		return 0, err
	}
	return streak.CurrentStreak, nil
}
