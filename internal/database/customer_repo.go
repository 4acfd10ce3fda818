package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/omnidesk/mailsync/pkg/models"
)

// CreateCustomer creates a new customer
func (db *DB) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	if customer.AlternateEmails == "" {
		customer.AlternateEmails = "[]"
	}
	query := `
		INSERT INTO customers (business_id, email, alternate_emails, first_name, last_name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		customer.BusinessID,
		customer.Email,
		customer.AlternateEmails,
		customer.FirstName,
		customer.LastName,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create customer: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	customer.ID = id
	customer.CreatedAt = now
	customer.UpdatedAt = now
	return nil
}

// GetCustomerByEmail matches a customer by primary email or by an entry
// in the alternate_emails JSON array.
func (db *DB) GetCustomerByEmail(ctx context.Context, businessID int64, email string) (*models.Customer, error) {
	var customer models.Customer
	query := `
		SELECT * FROM customers
		WHERE business_id = ?
		  AND (email = ? COLLATE NOCASE
		       OR EXISTS (SELECT 1 FROM json_each(alternate_emails) WHERE json_each.value = ? COLLATE NOCASE))
		LIMIT 1
	`
	err := db.GetContext(ctx, &customer, query, businessID, email, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return &customer, nil
}
