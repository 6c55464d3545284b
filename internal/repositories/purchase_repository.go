package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"dynamoBack/internal/models"
)

const purchaseColumns = `id, amount, currency, razorpay_order_id, razorpay_payment_id, payment_status,
	download_token, token_expires_at, created_at, updated_at`

const (
	purchaseByTokenQuery = `SELECT ` + purchaseColumns + ` FROM purchases WHERE download_token = ?`
	stalePurchasesQuery  = `SELECT ` + purchaseColumns + ` FROM purchases
		WHERE payment_status = ? AND created_at < ?
		ORDER BY created_at`
)

// PurchaseRepository persists purchase rows.
type PurchaseRepository struct {
	DB      *sql.DB
	Dialect Dialect
}

func NewPurchaseRepository(db *sql.DB, dialect Dialect) *PurchaseRepository {
	return &PurchaseRepository{DB: db, Dialect: dialect}
}

func (r *PurchaseRepository) q(query string) string { return rebind(r.Dialect, query) }

// Create inserts a purchase in the created state.
func (r *PurchaseRepository) Create(ctx context.Context, p *models.Purchase) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = p.CreatedAt
	if p.Status == "" {
		p.Status = models.PurchaseStatusCreated
	}

	_, err := r.DB.ExecContext(ctx, r.q(`
		INSERT INTO purchases (id, amount, currency, razorpay_order_id, payment_status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		p.ID, p.Amount, p.Currency, p.GatewayOrderID, string(p.Status), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert purchase: %w", err)
	}
	return nil
}

func (r *PurchaseRepository) GetByID(ctx context.Context, id string) (*models.Purchase, error) {
	row := r.DB.QueryRowContext(ctx, r.q(`SELECT `+purchaseColumns+` FROM purchases WHERE id = ?`), id)
	p, err := scanPurchase(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrPurchaseNotFound
		}
		return nil, fmt.Errorf("get purchase by id: %w", err)
	}
	return p, nil
}

func (r *PurchaseRepository) GetByToken(ctx context.Context, token string) (*models.Purchase, error) {
	row := r.DB.QueryRowContext(ctx, r.q(purchaseByTokenQuery), token)
	p, err := scanPurchase(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrTokenNotFound
		}
		return nil, fmt.Errorf("get purchase by token: %w", err)
	}
	return p, nil
}

const (
	completePurchaseQuery = `UPDATE purchases
		SET razorpay_payment_id = ?, razorpay_order_id = ?, payment_status = ?,
		    download_token = ?, token_expires_at = ?, updated_at = ?
		WHERE id = ? AND payment_status = ?`
	purchaseStatusQuery = `SELECT payment_status FROM purchases WHERE id = ?`
)

// Complete marks a created purchase paid and stores a fresh download token in one UPDATE.
// A purchase that is no longer created is left alone and reported as ErrAlreadyCompleted.
func (r *PurchaseRepository) Complete(ctx context.Context, id string, c models.Completion) error {
	res, err := r.DB.ExecContext(ctx, r.q(completePurchaseQuery),
		c.GatewayPaymentID, c.GatewayOrderID, string(models.PurchaseStatusCompleted),
		c.DownloadToken, c.TokenExpiresAt.UTC(), time.Now().UTC(), id,
		string(models.PurchaseStatusCreated))
	if err != nil {
		if isDuplicateKeyError(err) {
			return models.ErrDuplicateToken
		}
		return fmt.Errorf("complete purchase: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}

	var status string
	err = r.DB.QueryRowContext(ctx, r.q(purchaseStatusQuery), id).Scan(&status)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return models.ErrPurchaseNotFound
	case err != nil:
		return fmt.Errorf("check purchase status: %w", err)
	default:
		return models.ErrAlreadyCompleted
	}
}

// ReissueToken replaces the download token of a completed purchase.
func (r *PurchaseRepository) ReissueToken(ctx context.Context, id, token string, expiresAt time.Time) error {
	res, err := r.DB.ExecContext(ctx, r.q(`
		UPDATE purchases SET download_token = ?, token_expires_at = ?, updated_at = ?
		WHERE id = ? AND payment_status = ?`),
		token, expiresAt.UTC(), time.Now().UTC(), id, string(models.PurchaseStatusCompleted))
	if err != nil {
		if isDuplicateKeyError(err) {
			return models.ErrDuplicateToken
		}
		return fmt.Errorf("reissue token: %w", err)
	}
	return requireOneRow(res)
}

// List returns the newest purchases, optionally filtered by status.
func (r *PurchaseRepository) List(ctx context.Context, status models.PurchaseStatus, limit int) ([]models.Purchase, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := `SELECT ` + purchaseColumns + ` FROM purchases`
	args := []any{}
	if status != "" {
		query += ` WHERE payment_status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	return r.queryPurchases(ctx, r.q(query), args...)
}

// ListStale returns purchases still in the created state that were created before the cutoff.
func (r *PurchaseRepository) ListStale(ctx context.Context, createdBefore time.Time) ([]models.Purchase, error) {
	return r.queryPurchases(ctx, r.q(stalePurchasesQuery),
		string(models.PurchaseStatusCreated), createdBefore.UTC())
}

func (r *PurchaseRepository) queryPurchases(ctx context.Context, query string, args ...any) ([]models.Purchase, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query purchases: %w", err)
	}
	defer rows.Close()

	var out []models.Purchase
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, fmt.Errorf("scan purchase: %w", err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPurchase(row rowScanner) (*models.Purchase, error) {
	var (
		p         models.Purchase
		status    string
		orderID   sql.NullString
		paymentID sql.NullString
		token     sql.NullString
		expiresAt sql.NullTime
	)
	if err := row.Scan(&p.ID, &p.Amount, &p.Currency, &orderID, &paymentID, &status,
		&token, &expiresAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Status = models.PurchaseStatus(status)
	if orderID.Valid {
		p.GatewayOrderID = &orderID.String
	}
	if paymentID.Valid {
		p.GatewayPaymentID = &paymentID.String
	}
	if token.Valid {
		p.DownloadToken = &token.String
	}
	if expiresAt.Valid {
		t := expiresAt.Time.UTC()
		p.TokenExpiresAt = &t
	}
	return &p, nil
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return models.ErrPurchaseNotFound
	}
	return nil
}
