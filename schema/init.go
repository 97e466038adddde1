// Package schema: safe database initialization - create only missing tables, never drop or overwrite.

package schema

import (
	"database/sql"
	"log"
)

const (
	tableUsers      = "users"
	tableComplaints = "complaints"
)

// InitializeDatabase ensures core tables exist. Checks INFORMATION_SCHEMA.TABLES and creates only missing
// tables in order: users → complaints. Then runs EnsureComplaintColumns to add columns introduced
// after the first deploy. Does not drop or recreate tables; does not remove data.
func InitializeDatabase(db *sql.DB) {
	// 1. users
	if exists, err := tableExists(db, tableUsers); err != nil {
		log.Fatalf("[SCHEMA] Failed to check if table %s exists: %v", tableUsers, err)
	} else if exists {
		log.Println("[SCHEMA] users table exists")
	} else {
		createUsersTable(db)
		log.Println("[SCHEMA] created users table")
	}

	// 2. complaints (depends on users)
	if exists, err := tableExists(db, tableComplaints); err != nil {
		log.Fatalf("[SCHEMA] Failed to check if table %s exists: %v", tableComplaints, err)
	} else if exists {
		log.Println("[SCHEMA] complaints table exists")
	} else {
		createComplaintsTable(db)
		log.Println("[SCHEMA] created complaints table")
	}

	EnsureComplaintColumns(db)
}

func createUsersTable(db *sql.DB) {
	q := `
CREATE TABLE IF NOT EXISTS users (
    user_id VARCHAR(20) PRIMARY KEY COMMENT 'Role-prefixed id, e.g. EMP-1a2b3c4d',
    username VARCHAR(32) UNIQUE NOT NULL,
    password_hash VARCHAR(100) NOT NULL COMMENT 'bcrypt',
    full_name VARCHAR(255) NOT NULL,
    phone_number VARCHAR(10) UNIQUE NOT NULL COMMENT '10 digits, no country code',
    email VARCHAR(255) NULL,
    role ENUM('OWNER', 'EMPLOYEE', 'CUSTOMER') NOT NULL,
    designation VARCHAR(100) NULL COMMENT 'Employees only',
    created_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
    INDEX idx_role (role),
    INDEX idx_email (email)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`
	if _, err := db.Exec(q); err != nil {
		log.Fatalf("[SCHEMA] Failed to create table %s: %v", tableUsers, err)
	}
}

func createComplaintsTable(db *sql.DB) {
	q := `
CREATE TABLE IF NOT EXISTS complaints (
    complaint_id VARCHAR(30) PRIMARY KEY COMMENT 'CMP-YYYYMMDD-xxxxxxxx',
    booked_by_id VARCHAR(20) NOT NULL COMMENT 'Owning customer; never changes',
    customer_name VARCHAR(255) NOT NULL,
    contact_number VARCHAR(10) NOT NULL,
    email VARCHAR(255) NULL,
    door_number VARCHAR(50) NOT NULL,
    street VARCHAR(255) NOT NULL,
    landmark VARCHAR(255) NULL,
    city VARCHAR(100) NOT NULL,
    district VARCHAR(100) NOT NULL,
    state VARCHAR(100) NOT NULL,
    pincode VARCHAR(6) NOT NULL,
    country VARCHAR(100) NOT NULL,
    product_type VARCHAR(100) NOT NULL,
    brand VARCHAR(100) NOT NULL,
    product_model VARCHAR(100) NOT NULL,
    description TEXT NOT NULL,
    status ENUM('PENDING', 'IN_PROGRESS', 'RESOLVED') NOT NULL DEFAULT 'PENDING',
    tech_employee_id VARCHAR(20) NULL COMMENT 'NULL while unassigned',
    tech_full_name VARCHAR(255) NULL,
    tech_phone_number VARCHAR(10) NULL,
    tech_designation VARCHAR(100) NULL,
    created_at DATETIME(6) NOT NULL,
    updated_at DATETIME(6) NOT NULL,
    FOREIGN KEY (booked_by_id) REFERENCES users(user_id) ON DELETE RESTRICT,
    INDEX idx_booked_by (booked_by_id),
    INDEX idx_tech_employee (tech_employee_id),
    INDEX idx_status (status),
    INDEX idx_created_at (created_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`
	if _, err := db.Exec(q); err != nil {
		log.Fatalf("[SCHEMA] Failed to create table %s: %v", tableComplaints, err)
	}
}
