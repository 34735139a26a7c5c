package models

import "time"

// Course is the authoritative pricing row for a branch and card combination.
// Client-submitted MRP and installment are always validated against it.
type Course struct {
	ID          string    `db:"id" json:"id"`
	BranchName  string    `db:"branch_name" json:"branch_name"`
	CardName    string    `db:"card_name" json:"card_name"`
	MRP         float64   `db:"mrp" json:"mrp"`
	Installment float64   `db:"installment" json:"installment"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
