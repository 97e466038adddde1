package schema

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
)

// RequiredColumn is one table column the repositories depend on
type RequiredColumn struct {
	Table  string
	Column string
}

// DefaultRequiredColumns lists the columns read or written by the user and complaint repositories
// that older databases may lack.
var DefaultRequiredColumns = []RequiredColumn{
	{Table: tableUsers, Column: "password_hash"},
	{Table: tableUsers, Column: "role"},
	{Table: tableComplaints, Column: "booked_by_id"},
	{Table: tableComplaints, Column: "tech_employee_id"},
	{Table: tableComplaints, Column: "customer_feedback"},
	{Table: tableComplaints, Column: "reopened_at"},
	{Table: tableComplaints, Column: "closed_at"},
}

// MissingColumns returns "table.column" for every required column the database does not have
func MissingColumns(db *sql.DB, required []RequiredColumn) ([]string, error) {
	var missing []string
	for _, rc := range required {
		exists, err := columnExists(db, rc.Table, rc.Column)
		if err != nil {
			return nil, fmt.Errorf("check column %s.%s: %w", rc.Table, rc.Column, err)
		}
		if !exists {
			missing = append(missing, rc.Table+"."+rc.Column)
		}
	}
	return missing, nil
}

// ValidateRequiredColumns stops the process when a required column is missing.
// A nil list checks DefaultRequiredColumns.
func ValidateRequiredColumns(db *sql.DB, required []RequiredColumn) {
	if required == nil {
		required = DefaultRequiredColumns
	}
	missing, err := MissingColumns(db, required)
	if err != nil {
		log.Fatalf("[SCHEMA] %v", err)
	}
	if len(missing) > 0 {
		log.Fatalf("[SCHEMA] Missing required columns (run migrations to fix): %s", strings.Join(missing, ", "))
	}
	log.Printf("[SCHEMA] %d required columns verified", len(required))
}

func columnExists(db *sql.DB, table, column string) (bool, error) {
	var count int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM information_schema.COLUMNS
		 WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ? AND COLUMN_NAME = ?`,
		table, column,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
