package workouts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rubenfitness/backend/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrWorkoutNotFound = errors.New("workout not found")

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Add(ctx context.Context, workout *Workout) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var exercisesJson []byte
	if len(workout.Exercises) > 0 {
		exercisesJson, err = json.Marshal(workout.Exercises)
		if err != nil {
			return nil, fmt.Errorf("marshal exercises: %w", err)
		}
	}

	if workout.CreatedAt.IsZero() {
		workout.CreatedAt = time.Now()
	}

	err = r.db.
		QueryRow(ctx, `
			INSERT INTO workout_event (user_id, workout_date, duration_minutes, notes, exercises, total_volume, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id
		`,
			workout.UserID, workout.WorkoutDate,
			workout.DurationMinutes, workout.Notes,
			exercisesJson, workout.TotalVolume,
			workout.CreatedAt,
		).
		Scan(&workout.ID)
	if err != nil {
		return nil, err
	}

	return workout, nil
}

func (r *Repo) Get(ctx context.Context, id int) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	workout, err := scanWorkout(r.db.QueryRow(ctx, `
		SELECT id, user_id, workout_date, duration_minutes, notes, exercises, total_volume, created_at
		FROM workout_event
		WHERE id = $1
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrWorkoutNotFound
	}
	if err != nil {
		return nil, err
	}
	return workout, nil
}

func (r *Repo) Delete(ctx context.Context, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tag, err := r.db.Exec(ctx, `DELETE FROM workout_event WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrWorkoutNotFound
	}
	return nil
}

// ListForUser returns the user's workouts with workout_date in [from, to]
func (r *Repo) ListForUser(ctx context.Context, userID string, from, to time.Time) (_ []Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.listForUser")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, workout_date, duration_minutes, notes, exercises, total_volume, created_at
		FROM workout_event
		WHERE user_id = $1 AND workout_date >= $2 AND workout_date <= $3
		ORDER BY workout_date
	`, userID, from, to)
	if err != nil {
		return nil, err
	}
	return scanWorkouts(rows)
}

// ListAllInRange returns every user's workouts with workout_date in
// [from, to] (admin aggregation)
func (r *Repo) ListAllInRange(ctx context.Context, from, to time.Time) (_ []Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.listAllInRange")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, workout_date, duration_minutes, notes, exercises, total_volume, created_at
		FROM workout_event
		WHERE workout_date >= $1 AND workout_date <= $2
		ORDER BY workout_date
	`, from, to)
	if err != nil {
		return nil, err
	}
	return scanWorkouts(rows)
}

func (r *Repo) RecentForUser(ctx context.Context, userID string, limit int) (_ []Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.recentForUser")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, workout_date, duration_minutes, notes, exercises, total_volume, created_at
		FROM workout_event
		WHERE user_id = $1
		ORDER BY workout_date DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	return scanWorkouts(rows)
}

func (r *Repo) CountForUser(ctx context.Context, userID string) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.countForUser")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var count int
	err = r.db.
		QueryRow(ctx, `SELECT COUNT(*) FROM workout_event WHERE user_id = $1`, userID).
		Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// LastWorkoutPerUser returns each user's most recent workout date
func (r *Repo) LastWorkoutPerUser(ctx context.Context) (_ map[string]time.Time, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.lastWorkoutPerUser")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx, `
		SELECT user_id, MAX(workout_date)
		FROM workout_event
		GROUP BY user_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	lastWorkouts := make(map[string]time.Time)
	for rows.Next() {
		var userID string
		var lastDate time.Time
		if err := rows.Scan(&userID, &lastDate); err != nil {
			return nil, err
		}
		lastWorkouts[userID] = lastDate
	}

	return lastWorkouts, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkout(row rowScanner) (*Workout, error) {
	workout := &Workout{}
	var exercisesJson []byte
	if err := row.Scan(
		&workout.ID, &workout.UserID, &workout.WorkoutDate,
		&workout.DurationMinutes, &workout.Notes,
		&exercisesJson, &workout.TotalVolume,
		&workout.CreatedAt,
	); err != nil {
		return nil, err
	}
	if len(exercisesJson) > 0 {
		if err := json.Unmarshal(exercisesJson, &workout.Exercises); err != nil {
			return nil, fmt.Errorf("unmarshal exercises: %w", err)
		}
	}
	return workout, nil
}

func scanWorkouts(rows pgx.Rows) ([]Workout, error) {
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	var workouts []Workout
	for rows.Next() {
		workout, err := scanWorkout(rows)
		if err != nil {
			return nil, err
		}
		workouts = append(workouts, *workout)
	}

	return workouts, nil
}
