package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"certprep-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

const profileColumns = "username, currentjobrole, aspiringjobrole, clearedcertifications, interestareas, recommended_cert"

// Columns UpdateProfile may touch; anything else is dropped.
var updatableColumns = map[string]bool{
	"currentjobrole":        true,
	"aspiringjobrole":       true,
	"clearedcertifications": true,
	"interestareas":         true,
	"recommended_cert":      true,
}

// ProfileStore reads and upserts user profiles in Postgres.
type ProfileStore struct {
	pool *pgxpool.Pool
}

func NewProfileStore(pool *pgxpool.Pool) *ProfileStore {
	return &ProfileStore{pool: pool}
}

func (s *ProfileStore) GetProfile(ctx context.Context, username string) (domain.UserProfile, error) {
	var profile domain.UserProfile
	err := s.pool.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM user_profile WHERE username=$1`, username,
	).Scan(
		&profile.Username,
		&profile.CurrentJobRole,
		&profile.AspiringJobRole,
		&profile.ClearedCertifications,
		&profile.InterestAreas,
		&profile.RecommendedCert,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.UserProfile{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.UserProfile{}, fmt.Errorf("get profile: %w", err)
	}
	return profile, nil
}

// UpdateProfile upserts the given fields, creating the profile if absent.
func (s *ProfileStore) UpdateProfile(ctx context.Context, username string, fields map[string]string) (domain.UserProfile, error) {
	columns := []string{"username"}
	args := []interface{}{username}
	assignments := make([]string, 0, len(fields))

	for name, value := range fields {
		if !updatableColumns[name] {
			continue
		}
		columns = append(columns, name)
		args = append(args, value)
		assignments = append(assignments, fmt.Sprintf("%s = EXCLUDED.%s", name, name))
	}
	if len(assignments) == 0 {
		return domain.UserProfile{}, domain.Validationf("no valid fields to update")
	}

	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf(
		`INSERT INTO user_profile (%s) VALUES (%s)
		 ON CONFLICT (username) DO UPDATE SET %s
		 RETURNING `+profileColumns,
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(assignments, ", "),
	)

	var profile domain.UserProfile
	err := s.pool.QueryRow(ctx, query, args...).Scan(
		&profile.Username,
		&profile.CurrentJobRole,
		&profile.AspiringJobRole,
		&profile.ClearedCertifications,
		&profile.InterestAreas,
		&profile.RecommendedCert,
	)
	if err != nil {
		return domain.UserProfile{}, fmt.Errorf("update profile: %w", err)
	}
	return profile, nil
}
