package users

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rubenfitness/backend/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrProfileNotFound = errors.New("profile not found")
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Get(ctx context.Context, id string) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	user := &User{}
	var goalsJson []byte
	err = r.db.
		QueryRow(ctx, `
			SELECT id, email, full_name, fitness_level, goals, created_at
			FROM users
			WHERE id = $1
		`, id).
		Scan(&user.ID, &user.Email, &user.FullName, &user.FitnessLevel, &goalsJson, &user.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := unmarshalGoals(goalsJson, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (r *Repo) GetAll(ctx context.Context) (_ []User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.getAll")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx, `
		SELECT id, email, full_name, fitness_level, goals, created_at
		FROM users
		ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	var all []User
	for rows.Next() {
		var user User
		var goalsJson []byte
		if err := rows.Scan(
			&user.ID, &user.Email, &user.FullName, &user.FitnessLevel, &goalsJson, &user.CreatedAt,
		); err != nil {
			return nil, err
		}
		if err := unmarshalGoals(goalsJson, &user); err != nil {
			return nil, err
		}
		all = append(all, user)
	}

	return all, nil
}

func (r *Repo) GetProfile(ctx context.Context, userID string) (_ *Profile, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.getProfile")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	profile := &Profile{}
	err = r.db.
		QueryRow(ctx, `
			SELECT user_id, full_name, goal, phone, weight_kg, body_fat_percent, muscle_mass_kg
			FROM user_profiles
			WHERE user_id = $1
		`, userID).
		Scan(
			&profile.UserID, &profile.FullName, &profile.Goal, &profile.Phone,
			&profile.WeightKg, &profile.BodyFatPercent, &profile.MuscleMassKg,
		)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// GetAllProfiles returns profiles keyed by user id
func (r *Repo) GetAllProfiles(ctx context.Context) (_ map[string]Profile, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.getAllProfiles")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx, `
		SELECT user_id, full_name, goal, phone, weight_kg, body_fat_percent, muscle_mass_kg
		FROM user_profiles
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	profiles := make(map[string]Profile)
	for rows.Next() {
		var profile Profile
		if err := rows.Scan(
			&profile.UserID, &profile.FullName, &profile.Goal, &profile.Phone,
			&profile.WeightKg, &profile.BodyFatPercent, &profile.MuscleMassKg,
		); err != nil {
			return nil, err
		}
		profiles[profile.UserID] = profile
	}

	return profiles, nil
}

func unmarshalGoals(goalsJson []byte, user *User) error {
	if len(goalsJson) == 0 {
		return nil
	}
	if err := json.Unmarshal(goalsJson, &user.Goals); err != nil {
		return fmt.Errorf("unmarshal goals for user %s: %w", user.ID, err)
	}
	return nil
}
