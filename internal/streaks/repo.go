package streaks

import (
	"context"
	"errors"
	"time"

	"github.com/rubenfitness/backend/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrStreakNotFound = errors.New("streak not found")

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Get(ctx context.Context, userID string) (_ *Streak, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.streaks.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	streak := &Streak{}
	err = r.db.
		QueryRow(ctx, `
			SELECT user_id, current_streak, longest_streak, weekly_streak, monthly_streak, last_workout_date, updated_at
			FROM streak
			WHERE user_id = $1
		`, userID).
		Scan(
			&streak.UserID,
			&streak.CurrentStreak, &streak.LongestStreak,
			&streak.WeeklyStreak, &streak.MonthlyStreak,
			&streak.LastWorkoutDate, &streak.UpdatedAt,
		)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrStreakNotFound
	}
	if err != nil {
		return nil, err
	}
	return streak, nil
}

func (r *Repo) Upsert(ctx context.Context, streak *Streak) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.streaks.upsert")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	streak.UpdatedAt = time.Now()
	_, err = r.db.Exec(ctx, `
		INSERT INTO streak (user_id, current_streak, longest_streak, weekly_streak, monthly_streak, last_workout_date, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE SET
			current_streak = EXCLUDED.current_streak,
			longest_streak = EXCLUDED.longest_streak,
			weekly_streak = EXCLUDED.weekly_streak,
			monthly_streak = EXCLUDED.monthly_streak,
			last_workout_date = EXCLUDED.last_workout_date,
			updated_at = EXCLUDED.updated_at
	`,
		streak.UserID,
		streak.CurrentStreak, streak.LongestStreak,
		streak.WeeklyStreak, streak.MonthlyStreak,
		streak.LastWorkoutDate, streak.UpdatedAt,
	)
	return err
}

// GetAll returns all streak records, keyed by user id (admin dashboard)
func (r *Repo) GetAll(ctx context.Context) (_ map[string]Streak, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.streaks.getall")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx, `
		SELECT user_id, current_streak, longest_streak, weekly_streak, monthly_streak, last_workout_date, updated_at
		FROM streak
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	streaks := make(map[string]Streak)
	for rows.Next() {
		var streak Streak
		if err := rows.Scan(
			&streak.UserID,
			&streak.CurrentStreak, &streak.LongestStreak,
			&streak.WeeklyStreak, &streak.MonthlyStreak,
			&streak.LastWorkoutDate, &streak.UpdatedAt,
		); err != nil {
			return nil, err
		}
		streaks[streak.UserID] = streak
	}

	return streaks, nil
}
