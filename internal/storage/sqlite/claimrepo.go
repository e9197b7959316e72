package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/diamondburned/arikawa/v3/discord"
	"yeetbot.dev/yeet/internal/afd"
)

var _ afd.Store = (*ClaimRepo)(nil)

type ClaimRepo struct {
	db *DB
}

func NewClaimRepo(db *DB) *ClaimRepo {
	return &ClaimRepo{db: db}
}

const claimColumns = `pokemon, dex_id, user_id, status, image_url, claimed_at, submitted_at, reviewed_by, note`

func millis(t time.Time) sql.NullInt64 {
	if t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func fromMillis(n sql.NullInt64) time.Time {
	if !n.Valid {
		return time.Time{}
	}
	return time.UnixMilli(n.Int64).UTC()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanClaim(s scanner) (afd.Claim, error) {
	var (
		c                  afd.Claim
		user, reviewer     int64
		status             string
		claimed, submitted sql.NullInt64
	)
	err := s.Scan(&c.Pokemon, &c.DexID, &user, &status, &c.ImageURL, &claimed, &submitted, &reviewer, &c.Note)
	if err != nil {
		return afd.Claim{}, err
	}
	c.UserID = discord.UserID(user)
	c.ReviewedBy = discord.UserID(reviewer)
	c.Status = afd.Status(status)
	c.ClaimedAt = fromMillis(claimed)
	c.SubmittedAt = fromMillis(submitted)
	return c, nil
}

func (r *ClaimRepo) Get(ctx context.Context, pokemon string) (afd.Claim, error) {
	const query = `SELECT ` + claimColumns + ` FROM claims WHERE pokemon = ?`
	c, err := scanClaim(r.db.Reader.QueryRowContext(ctx, query, pokemon))
	if errors.Is(err, sql.ErrNoRows) {
		return afd.Claim{}, afd.ErrNotClaimed
	}
	if err != nil {
		return afd.Claim{}, fmt.Errorf("get claim %s: %w", pokemon, err)
	}
	return c, nil
}

func (r *ClaimRepo) Create(ctx context.Context, c afd.Claim) error {
	const query = `INSERT INTO claims (` + claimColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.Writer.ExecContext(ctx, query,
		c.Pokemon, c.DexID, int64(c.UserID), string(c.Status), c.ImageURL,
		millis(c.ClaimedAt).Int64, millis(c.SubmittedAt), int64(c.ReviewedBy), c.Note,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return afd.ErrAlreadyClaimed
		}
		return fmt.Errorf("create claim %s: %w", c.Pokemon, err)
	}
	return nil
}

func affected(result sql.Result, err error, what string) error {
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return afd.ErrClaimChanged
	}
	return nil
}

func (r *ClaimRepo) Update(ctx context.Context, c afd.Claim, from afd.Status) error {
	const query = `UPDATE claims SET status = ?, image_url = ?, submitted_at = ?, reviewed_by = ?, note = ?
		WHERE pokemon = ? AND user_id = ? AND status = ?`
	result, err := r.db.Writer.ExecContext(ctx, query,
		string(c.Status), c.ImageURL, millis(c.SubmittedAt), int64(c.ReviewedBy), c.Note,
		c.Pokemon, int64(c.UserID), string(from),
	)
	return affected(result, err, "update claim "+c.Pokemon)
}

func (r *ClaimRepo) Delete(ctx context.Context, c afd.Claim) error {
	const query = `DELETE FROM claims WHERE pokemon = ? AND user_id = ? AND status = ?`
	result, err := r.db.Writer.ExecContext(ctx, query, c.Pokemon, int64(c.UserID), string(c.Status))
	return affected(result, err, "delete claim "+c.Pokemon)
}

func (r *ClaimRepo) query(ctx context.Context, query string, args ...any) ([]afd.Claim, error) {
	rows, err := r.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}
	defer rows.Close()

	claims := []afd.Claim{}
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, fmt.Errorf("scan claim: %w", err)
		}
		claims = append(claims, c)
	}
	return claims, rows.Err()
}

func (r *ClaimRepo) ListByUser(ctx context.Context, user discord.UserID) ([]afd.Claim, error) {
	return r.query(ctx, `SELECT `+claimColumns+` FROM claims WHERE user_id = ? ORDER BY dex_id, pokemon`, int64(user))
}

func (r *ClaimRepo) List(ctx context.Context) ([]afd.Claim, error) {
	return r.query(ctx, `SELECT `+claimColumns+` FROM claims ORDER BY dex_id, pokemon`)
}

func (r *ClaimRepo) Counts(ctx context.Context) (map[afd.Status]int, error) {
	rows, err := r.db.Reader.QueryContext(ctx, `SELECT status, COUNT(*) FROM claims GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count claims: %w", err)
	}
	defer rows.Close()

	counts := map[afd.Status]int{}
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[afd.Status(status)] = n
	}
	return counts, rows.Err()
}
