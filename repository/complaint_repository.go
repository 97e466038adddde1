package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"repairdesk/models"
)

// ErrStaleComplaint is returned when the stored row changed since the caller read it
var ErrStaleComplaint = errors.New("complaint was modified concurrently")

// ComplaintRepository handles database operations for complaints
type ComplaintRepository struct {
	db *sql.DB
}

// NewComplaintRepository creates a new complaint repository
func NewComplaintRepository(db *sql.DB) *ComplaintRepository {
	return &ComplaintRepository{db: db}
}

const complaintColumns = `
	complaint_id, booked_by_id, customer_name, contact_number, email,
	door_number, street, landmark, city, district, state, pincode, country,
	product_type, brand, product_model, description, status,
	tech_employee_id, tech_full_name, tech_phone_number, tech_designation,
	technician_feedback, customer_feedback,
	created_at, updated_at, reopened_at, closed_at`

func scanComplaint(row interface{ Scan(...any) error }) (*models.Complaint, error) {
	var c models.Complaint
	var email, landmark sql.NullString
	var techID, techName, techPhone, techDesignation sql.NullString
	var techFeedback, custFeedback sql.NullString
	var reopenedAt, closedAt sql.NullTime

	err := row.Scan(
		&c.ComplaintID, &c.BookedByID, &c.CustomerName, &c.ContactNumber, &email,
		&c.Address.DoorNumber, &c.Address.Street, &landmark, &c.Address.City,
		&c.Address.District, &c.Address.State, &c.Address.Pincode, &c.Address.Country,
		&c.ProductType, &c.Brand, &c.ProductModel, &c.Description, &c.Status,
		&techID, &techName, &techPhone, &techDesignation,
		&techFeedback, &custFeedback,
		&c.CreatedAt, &c.UpdatedAt, &reopenedAt, &closedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Email = email.String
	c.Address.Landmark = landmark.String
	if techID.Valid && techID.String != "" {
		c.TechnicianDetails = &models.TechnicianDetails{
			EmployeeID:  techID.String,
			FullName:    techName.String,
			PhoneNumber: techPhone.String,
			Designation: techDesignation.String,
		}
	}
	if techFeedback.Valid {
		c.TechnicianFeedback = &techFeedback.String
	}
	if custFeedback.Valid {
		c.CustomerFeedback = &custFeedback.String
	}
	if reopenedAt.Valid {
		c.ReopenedAt = &reopenedAt.Time
	}
	if closedAt.Valid {
		c.ClosedAt = &closedAt.Time
	}
	return &c, nil
}

// CreateComplaint creates a new complaint in the database
func (r *ComplaintRepository) CreateComplaint(ctx context.Context, c *models.Complaint) error {
	query := `
		INSERT INTO complaints (
			complaint_id, booked_by_id, customer_name, contact_number, email,
			door_number, street, landmark, city, district, state, pincode, country,
			product_type, brand, product_model, description, status,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		c.ComplaintID, c.BookedByID, c.CustomerName, c.ContactNumber, nullString(c.Email),
		c.Address.DoorNumber, c.Address.Street, nullString(c.Address.Landmark), c.Address.City,
		c.Address.District, c.Address.State, c.Address.Pincode, c.Address.Country,
		c.ProductType, c.Brand, c.ProductModel, c.Description, c.Status,
		c.CreatedAt, c.UpdatedAt,
	)
	if isDuplicate(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to create complaint: %w", err)
	}
	return nil
}

// GetComplaintByID retrieves a complaint by its ID. Returns nil, nil when absent.
func (r *ComplaintRepository) GetComplaintByID(ctx context.Context, complaintID string) (*models.Complaint, error) {
	query := `SELECT ` + complaintColumns + ` FROM complaints WHERE complaint_id = ?`
	c, err := scanComplaint(r.db.QueryRowContext(ctx, query, complaintID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get complaint: %w", err)
	}
	return c, nil
}

// UpdateComplaint writes every mutable column of c in one statement.
// The write only lands if the row still carries expectedUpdatedAt, otherwise ErrStaleComplaint.
// Assignee and status always travel together, so no reader sees one without the other.
func (r *ComplaintRepository) UpdateComplaint(ctx context.Context, c *models.Complaint, expectedUpdatedAt time.Time) error {
	var techID, techName, techPhone, techDesignation sql.NullString
	if c.TechnicianDetails.Assigned() {
		techID = nullString(c.TechnicianDetails.EmployeeID)
		techName = nullString(c.TechnicianDetails.FullName)
		techPhone = nullString(c.TechnicianDetails.PhoneNumber)
		techDesignation = nullString(c.TechnicianDetails.Designation)
	}

	query := `
		UPDATE complaints SET
			customer_name = ?, contact_number = ?, email = ?,
			door_number = ?, street = ?, landmark = ?, city = ?, district = ?, state = ?, pincode = ?, country = ?,
			product_type = ?, brand = ?, product_model = ?, description = ?,
			status = ?,
			tech_employee_id = ?, tech_full_name = ?, tech_phone_number = ?, tech_designation = ?,
			technician_feedback = ?, customer_feedback = ?,
			updated_at = ?, reopened_at = ?, closed_at = ?
		WHERE complaint_id = ? AND updated_at = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		c.CustomerName, c.ContactNumber, nullString(c.Email),
		c.Address.DoorNumber, c.Address.Street, nullString(c.Address.Landmark), c.Address.City,
		c.Address.District, c.Address.State, c.Address.Pincode, c.Address.Country,
		c.ProductType, c.Brand, c.ProductModel, c.Description,
		c.Status,
		techID, techName, techPhone, techDesignation,
		c.TechnicianFeedback, c.CustomerFeedback,
		c.UpdatedAt, c.ReopenedAt, c.ClosedAt,
		c.ComplaintID, expectedUpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update complaint: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return ErrStaleComplaint
	}
	return nil
}

func (r *ComplaintRepository) list(ctx context.Context, where string, args ...any) ([]models.Complaint, error) {
	query := `SELECT ` + complaintColumns + ` FROM complaints`
	if where != "" {
		query += ` WHERE ` + where
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query complaints: %w", err)
	}
	defer rows.Close()

	complaints := []models.Complaint{}
	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan complaint: %w", err)
		}
		complaints = append(complaints, *c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating complaints: %w", err)
	}
	return complaints, nil
}

// ListByBooker retrieves all complaints booked by a customer
func (r *ComplaintRepository) ListByBooker(ctx context.Context, userID string) ([]models.Complaint, error) {
	return r.list(ctx, "booked_by_id = ?", userID)
}

// ListByEmployee retrieves all complaints assigned to an employee
func (r *ComplaintRepository) ListByEmployee(ctx context.Context, employeeID string) ([]models.Complaint, error) {
	return r.list(ctx, "tech_employee_id = ?", employeeID)
}

// ListResolvedByBooker retrieves the customer's resolved complaints (feedback-eligible)
func (r *ComplaintRepository) ListResolvedByBooker(ctx context.Context, userID string) ([]models.Complaint, error) {
	return r.list(ctx, "booked_by_id = ? AND status = ?", userID, models.StatusResolved)
}

// ListAll retrieves every complaint, newest first
func (r *ComplaintRepository) ListAll(ctx context.Context) ([]models.Complaint, error) {
	return r.list(ctx, "")
}

// CountByStatus returns how many complaints sit in each status
func (r *ComplaintRepository) CountByStatus(ctx context.Context) (map[models.ComplaintStatus]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM complaints GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count complaints: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.ComplaintStatus]int)
	for rows.Next() {
		var status models.ComplaintStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan complaint count: %w", err)
		}
		counts[status] = n
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating complaint counts: %w", err)
	}
	return counts, nil
}
