package models

import (
	"time"
)

// Role is the user role carried in every session token
type Role string

const (
	RoleOwner    Role = "OWNER"
	RoleEmployee Role = "EMPLOYEE"
	RoleCustomer Role = "CUSTOMER"
)

// Valid reports whether r is one of the three known roles
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleEmployee, RoleCustomer:
		return true
	}
	return false
}

// ComplaintStatus represents the lifecycle status of a complaint
type ComplaintStatus string

const (
	StatusPending    ComplaintStatus = "PENDING"
	StatusInProgress ComplaintStatus = "IN_PROGRESS"
	StatusResolved   ComplaintStatus = "RESOLVED"
)

// Valid reports whether s is a known status
func (s ComplaintStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusResolved:
		return true
	}
	return false
}

// UnassignedEmployeeID is the placeholder some clients send instead of an empty assignee.
const UnassignedEmployeeID = "N/A"

// User represents an account (owner, employee or customer)
type User struct {
	UserID       string    `db:"user_id" json:"userId"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FullName     string    `db:"full_name" json:"fullName"`
	PhoneNumber  string    `db:"phone_number" json:"phoneNumber"`
	Email        string    `db:"email" json:"email"`
	Role         Role      `db:"role" json:"role"`
	Designation  string    `db:"designation" json:"designation,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// Address is the structured service address of a complaint
type Address struct {
	DoorNumber string `db:"door_number" json:"doorNumber" validate:"required"`
	Street     string `db:"street" json:"street" validate:"required"`
	Landmark   string `db:"landmark" json:"landmark"`
	City       string `db:"city" json:"city" validate:"required"`
	District   string `db:"district" json:"district" validate:"required"`
	State      string `db:"state" json:"state" validate:"required"`
	Pincode    string `db:"pincode" json:"pincode" validate:"required,numeric,len=6"`
	Country    string `db:"country" json:"country" validate:"required"`
}

// TechnicianDetails identifies the employee assigned to a complaint
type TechnicianDetails struct {
	EmployeeID  string `db:"tech_employee_id" json:"employeeId"`
	FullName    string `db:"tech_full_name" json:"fullName"`
	PhoneNumber string `db:"tech_phone_number" json:"phoneNumber"`
	Designation string `db:"tech_designation" json:"designation"`
}

// Assigned reports whether the details name a real employee.
// A nil receiver is unassigned.
func (t *TechnicianDetails) Assigned() bool {
	return t != nil && t.EmployeeID != "" && t.EmployeeID != UnassignedEmployeeID
}

// Complaint represents a service complaint for one appliance
type Complaint struct {
	ComplaintID        string             `db:"complaint_id" json:"complaintId"`
	BookedByID         string             `db:"booked_by_id" json:"bookedById"`
	CustomerName       string             `db:"customer_name" json:"customerName"`
	ContactNumber      string             `db:"contact_number" json:"contactNumber"`
	Email              string             `db:"email" json:"email"`
	Address            Address            `json:"address"`
	ProductType        string             `db:"product_type" json:"productType"`
	Brand              string             `db:"brand" json:"brand"`
	ProductModel       string             `db:"product_model" json:"productModel"`
	Description        string             `db:"description" json:"description"`
	Status             ComplaintStatus    `db:"status" json:"status"`
	TechnicianDetails  *TechnicianDetails `json:"technicianDetails"`
	TechnicianFeedback *string            `db:"technician_feedback" json:"technicianFeedback"`
	CustomerFeedback   *string            `db:"customer_feedback" json:"customerFeedback"`
	CreatedAt          time.Time          `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time          `db:"updated_at" json:"updatedAt"`
	ReopenedAt         *time.Time         `db:"reopened_at" json:"reopenedAt"`
	ClosedAt           *time.Time         `db:"closed_at" json:"closedAt"`
}

// AssignedEmployeeID returns the assigned employee id, or "" when unassigned
func (c *Complaint) AssignedEmployeeID() string {
	if !c.TechnicianDetails.Assigned() {
		return ""
	}
	return c.TechnicianDetails.EmployeeID
}

// Clone returns a deep copy so callers can propose a next state without touching the original.
func (c *Complaint) Clone() *Complaint {
	out := *c
	if c.TechnicianDetails != nil {
		td := *c.TechnicianDetails
		out.TechnicianDetails = &td
	}
	out.TechnicianFeedback = cloneString(c.TechnicianFeedback)
	out.CustomerFeedback = cloneString(c.CustomerFeedback)
	out.ReopenedAt = cloneTime(c.ReopenedAt)
	out.ClosedAt = cloneTime(c.ClosedAt)
	return &out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
