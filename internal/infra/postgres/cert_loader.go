package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"certprep-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// CertInfoLoader loads certification JSONB from Postgres.
type CertInfoLoader struct {
	pool *pgxpool.Pool
}

func NewCertInfoLoader(pool *pgxpool.Pool) *CertInfoLoader {
	return &CertInfoLoader{pool: pool}
}

func (l *CertInfoLoader) GetCertInfo(ctx context.Context, certificationName string) (domain.CertInfo, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM cert_info WHERE name=$1`, certificationName).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.CertInfo{}, fmt.Errorf("%w: %q", domain.ErrCertNotFound, certificationName)
	}
	if err != nil {
		return domain.CertInfo{}, fmt.Errorf("load cert info: %w", err)
	}
	var info domain.CertInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return domain.CertInfo{}, fmt.Errorf("unmarshal cert info: %w", err)
	}
	if info.CertificationName == "" {
		info.CertificationName = certificationName
	}
	return info, nil
}
