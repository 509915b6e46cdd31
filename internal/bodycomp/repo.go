package bodycomp

import (
	"context"
	"time"

	"github.com/rubenfitness/backend/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Add(ctx context.Context, m *Measurement) (_ *Measurement, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.bodycomp.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if m.MeasuredAt.IsZero() {
		m.MeasuredAt = time.Now()
	}

	err = r.db.
		QueryRow(ctx, `
			INSERT INTO body_composition (user_id, weight, fat, muscle, measured_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, m.UserID, m.Weight, m.Fat, m.Muscle, m.MeasuredAt).
		Scan(&m.ID)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ListForUser returns the user's measurements, newest first
func (r *Repo) ListForUser(ctx context.Context, userID string, limit int) (_ []Measurement, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.bodycomp.listForUser")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, weight, fat, muscle, measured_at
		FROM body_composition
		WHERE user_id = $1
		ORDER BY measured_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	var measurements []Measurement
	for rows.Next() {
		var m Measurement
		if err := rows.Scan(&m.ID, &m.UserID, &m.Weight, &m.Fat, &m.Muscle, &m.MeasuredAt); err != nil {
			return nil, err
		}
		measurements = append(measurements, m)
	}

	return measurements, nil
}

// LatestPerUser returns each user's most recent measurement
func (r *Repo) LatestPerUser(ctx context.Context) (_ map[string]Measurement, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.bodycomp.latestPerUser")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx, `
		SELECT DISTINCT ON (user_id) id, user_id, weight, fat, muscle, measured_at
		FROM body_composition
		ORDER BY user_id, measured_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	latest := make(map[string]Measurement)
	for rows.Next() {
		var m Measurement
		if err := rows.Scan(&m.ID, &m.UserID, &m.Weight, &m.Fat, &m.Muscle, &m.MeasuredAt); err != nil {
			return nil, err
		}
		latest[m.UserID] = m
	}

	return latest, nil
}
