package achievements

import (
	"context"
	"errors"
	"fmt"

	"github.com/rubenfitness/backend/internal/telemetry/metrics"
	"github.com/rubenfitness/backend/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

type achievementsRepo interface {
	Add(ctx context.Context, achievement *Achievement) (*Achievement, error)
	List(ctx context.Context, userID string) ([]Achievement, error)
	ListTypes(ctx context.Context, userID string) (map[Type]bool, error)
}

type workoutsCounter interface {
	CountForUser(ctx context.Context, userID string) (int, error)
}

type streakReader interface {
	CurrentStreak(ctx context.Context, userID string) (int, error)
}

// Evaluator checks a user's totals against the milestone catalog and
// unlocks whatever they newly qualify for.
type Evaluator struct {
	repo     achievementsRepo
	workouts workoutsCounter
	streaks  streakReader
	metrics  *metrics.Manager
}

func NewEvaluator(
	repo achievementsRepo,
	workouts workoutsCounter,
	streaks streakReader,
	metrics *metrics.Manager,
) *Evaluator {
	return &Evaluator{
		repo:     repo,
		workouts: workouts,
		streaks:  streaks,
		metrics:  metrics,
	}
}

// Evaluate returns the achievements newly unlocked by this run. Failure
// to insert one milestone does not stop the others, a milestone missed
// here is picked up by the next evaluation.
func (e *Evaluator) Evaluate(ctx context.Context, userID string) (_ []Achievement, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "achievements.evaluator.evaluate")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", userID))

	totalWorkouts, err := e.workouts.CountForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count workouts: %w", err)
	}
	currentStreak, err := e.streaks.CurrentStreak(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get current streak: %w", err)
	}
	existing, err := e.repo.ListTypes(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list unlocked types: %w", err)
	}

	var newlyUnlocked []Achievement
	for _, m := range milestones {
		if existing[m.achievementType] || !m.reached(totalWorkouts, currentStreak) {
			continue
		}

		achievement := &Achievement{
			UserID:      userID,
			Type:        m.achievementType,
			Title:       m.title,
			Description: m.description,
			Icon:        m.icon,
		}
		if m.target > 0 {
			achievement.Progress = totalWorkouts
			achievement.Target = m.target
		}

		added, err := e.repo.Add(ctx, achievement)
		if errors.Is(err, ErrAlreadyUnlocked) {
			// another evaluation run got there first
			continue
		}
		if err != nil {
			log.Errorf("unlock achievement %s for user %s: %s", m.achievementType, userID, err)
			continue
		}

		e.metrics.CounterAchievementsUnlocked.Inc()
		newlyUnlocked = append(newlyUnlocked, *added)
	}

	span.SetAttributes(attribute.Int("achievements.newly_unlocked", len(newlyUnlocked)))
	return newlyUnlocked, nil
}

// List returns all achievements the user unlocked so far
func (e *Evaluator) List(ctx context.Context, userID string) ([]Achievement, error) {
	return e.repo.List(ctx, userID)
}
