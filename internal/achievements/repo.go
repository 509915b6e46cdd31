package achievements

import (
	"context"
	"errors"
	"time"

	"github.com/rubenfitness/backend/internal/telemetry/tracing"
	"github.com/rubenfitness/backend/pkg"

	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrAlreadyUnlocked = errors.New("achievement already unlocked")

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// Add unlocks an achievement. ErrAlreadyUnlocked is returned when the
// user already has one of this type, the (user_id, type) unique
// constraint is the backstop against concurrent evaluators.
func (r *Repo) Add(ctx context.Context, achievement *Achievement) (_ *Achievement, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.achievements.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if achievement.UnlockedAt.IsZero() {
		achievement.UnlockedAt = time.Now()
	}

	err = r.db.
		QueryRow(ctx, `
			INSERT INTO achievement (user_id, type, title, description, icon, progress, target, unlocked_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id
		`,
			achievement.UserID, achievement.Type,
			achievement.Title, achievement.Description, achievement.Icon,
			achievement.Progress, achievement.Target,
			achievement.UnlockedAt,
		).
		Scan(&achievement.ID)
	if err != nil {
		if pkg.IsUniqueViolationError(err) {
			return nil, ErrAlreadyUnlocked
		}
		return nil, err
	}

	return achievement, nil
}

func (r *Repo) List(ctx context.Context, userID string) (_ []Achievement, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.achievements.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, type, title, description, icon, progress, target, unlocked_at
		FROM achievement
		WHERE user_id = $1
		ORDER BY unlocked_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	var unlocked []Achievement
	for rows.Next() {
		var a Achievement
		if err := rows.Scan(
			&a.ID, &a.UserID, &a.Type,
			&a.Title, &a.Description, &a.Icon,
			&a.Progress, &a.Target,
			&a.UnlockedAt,
		); err != nil {
			return nil, err
		}
		unlocked = append(unlocked, a)
	}

	return unlocked, nil
}

// ListTypes returns the set of achievement types the user already has
func (r *Repo) ListTypes(ctx context.Context, userID string) (_ map[Type]bool, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.achievements.listTypes")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx, `
		SELECT type FROM achievement WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	types := make(map[Type]bool)
	for rows.Next() {
		var t Type
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		types[t] = true
	}

	return types, nil
}
