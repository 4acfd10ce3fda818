package models

import "time"

// Customer is a person the business talks to. A customer is matched by
// primary email or any entry in AlternateEmails before a new record is
// created.
type Customer struct {
	ID              int64     `db:"id" json:"id"`
	BusinessID      int64     `db:"business_id" json:"business_id"`
	Email           string    `db:"email" json:"email"`
	AlternateEmails string    `db:"alternate_emails" json:"alternate_emails"` // JSON array
	FirstName       string    `db:"first_name" json:"first_name"`
	LastName        string    `db:"last_name" json:"last_name"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}
