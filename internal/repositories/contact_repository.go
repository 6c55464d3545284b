package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"dynamoBack/internal/models"
)

type ContactRepository struct {
	DB      *sql.DB
	Dialect Dialect
}

func NewContactRepository(db *sql.DB, dialect Dialect) *ContactRepository {
	return &ContactRepository{DB: db, Dialect: dialect}
}

func (r *ContactRepository) Create(ctx context.Context, s *models.ContactSubmission) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	_, err := r.DB.ExecContext(ctx, rebind(r.Dialect,
		`INSERT INTO contact_submissions (name, email, message, created_at) VALUES (?, ?, ?, ?)`),
		s.Name, s.Email, s.Message, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert contact submission: %w", err)
	}
	return nil
}
