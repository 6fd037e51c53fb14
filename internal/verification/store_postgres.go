package verification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"time"

	"landq/pkg/platform/sentinel"
)

// Postgres persists verification requests in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Schema is the DDL for the verification_requests table; applied by the
// deployment's migration step, kept here so the store and its table stay in
// one review unit.
const Schema = `
CREATE TABLE IF NOT EXISTS verification_requests (
    token_id     BIGINT PRIMARY KEY,
    requester    TEXT NOT NULL,
    region       TEXT NOT NULL,
    agency       TEXT NOT NULL,
    fee          NUMERIC(78,0) NOT NULL,
    metadata_uri TEXT NOT NULL,
    status       TEXT NOT NULL,
    requested_at TIMESTAMPTZ NOT NULL,
    verified_at  TIMESTAMPTZ
)`

func (s *Postgres) Save(ctx context.Context, req *Request) error {
	fee := "0"
	if req.Fee != nil {
		fee = req.Fee.String()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO verification_requests
			(token_id, requester, region, agency, fee, metadata_uri, status, requested_at, verified_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (token_id) DO UPDATE SET
			requester = EXCLUDED.requester,
			region = EXCLUDED.region,
			agency = EXCLUDED.agency,
			fee = EXCLUDED.fee,
			metadata_uri = EXCLUDED.metadata_uri,
			status = EXCLUDED.status,
			verified_at = EXCLUDED.verified_at`,
		req.TokenID, req.Requester, req.Region, req.Agency, fee,
		req.MetadataURI, string(req.Status), req.RequestedAt, req.VerifiedAt,
	)
	if err != nil {
		return fmt.Errorf("save verification request: %w", err)
	}
	return nil
}

func (s *Postgres) Find(ctx context.Context, tokenID uint64) (*Request, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT token_id, requester, region, agency, fee, metadata_uri, status, requested_at, verified_at
		FROM verification_requests
		WHERE token_id = $1`, tokenID)

	var (
		rec        Request
		fee        string
		status     string
		verifiedAt sql.NullTime
	)
	err := row.Scan(&rec.TokenID, &rec.Requester, &rec.Region, &rec.Agency,
		&fee, &rec.MetadataURI, &status, &rec.RequestedAt, &verifiedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find verification request: %w", err)
	}

	rec.Fee, _ = new(big.Int).SetString(fee, 10)
	rec.Status = Status(status)
	if verifiedAt.Valid {
		rec.VerifiedAt = &verifiedAt.Time
	}
	return &rec, nil
}

func (s *Postgres) MarkVerified(ctx context.Context, tokenID uint64, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE verification_requests
		SET status = $1, verified_at = $2
		WHERE token_id = $3`,
		string(StatusVerified), at, tokenID)
	if err != nil {
		return fmt.Errorf("mark verified: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark verified: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
