package schema

import (
	"database/sql"
	"log"
)

// EnsureComplaintColumns adds the feedback and lifecycle columns to complaints if they are missing.
// Adds only missing columns; never drops or rewrites existing ones.
func EnsureComplaintColumns(db *sql.DB) {
	ensureColumn(db, tableComplaints, "technician_feedback", "TEXT NULL")
	ensureColumn(db, tableComplaints, "customer_feedback", "TEXT NULL COMMENT 'Only set while RESOLVED'")
	ensureColumn(db, tableComplaints, "reopened_at", "DATETIME(6) NULL")
	ensureColumn(db, tableComplaints, "closed_at", "DATETIME(6) NULL COMMENT 'Set when status becomes RESOLVED'")
	log.Println("[SCHEMA] Schema check passed")
}

func tableExists(db *sql.DB, table string) (bool, error) {
	var count int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM information_schema.TABLES WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?`,
		table,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func ensureColumn(db *sql.DB, table, column, definition string) {
	exists, err := columnExists(db, table, column)
	if err != nil {
		log.Fatalf("[SCHEMA] Failed to check column %s.%s: %v", table, column, err)
	}
	if exists {
		return
	}
	if _, err := db.Exec("ALTER TABLE " + table + " ADD COLUMN " + column + " " + definition); err != nil {
		log.Fatalf("[SCHEMA] Failed to add column %s.%s: %v", table, column, err)
	}
	log.Printf("[SCHEMA] added column %s.%s", table, column)
}
