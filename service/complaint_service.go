package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"repairdesk/metrics"
	"repairdesk/models"
	"repairdesk/permission"
	"repairdesk/repository"
	"repairdesk/utils"
)

// ComplaintService handles business logic for complaints.
// Every write goes through the permission evaluator and lands as one optimistic UPDATE.
type ComplaintService struct {
	complaints ComplaintStore
	users      UserStore
	now        func() time.Time
}

// NewComplaintService creates a new complaint service
func NewComplaintService(complaints ComplaintStore, users UserStore) *ComplaintService {
	return &ComplaintService{
		complaints: complaints,
		users:      users,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// timestamp returns the current time at the storage precision, strictly after prev
// so the optimistic updated_at check always sees a change
func (s *ComplaintService) timestamp(prev time.Time) time.Time {
	t := s.now().Truncate(time.Microsecond)
	if !t.After(prev) {
		t = prev.Add(time.Microsecond)
	}
	return t
}

// Register books a new complaint. A CUSTOMER always books for itself; staff must name the
// customer the complaint is booked for.
func (s *ComplaintService) Register(ctx context.Context, v permission.Viewer, req models.RegisterComplaintRequest) (*models.Complaint, error) {
	bookedBy := v.UserID
	switch v.Role {
	case models.RoleCustomer:
	case models.RoleOwner, models.RoleEmployee:
		if req.BookedByID == "" {
			return nil, invalidField("bookedById", "Select the customer this complaint is for")
		}
		customer, err := s.users.GetUserByID(ctx, req.BookedByID)
		if err != nil {
			return nil, fmt.Errorf("failed to load customer: %w", err)
		}
		if customer == nil || customer.Role != models.RoleCustomer {
			return nil, invalidField("bookedById", "Unknown customer")
		}
		bookedBy = customer.UserID
	default:
		return nil, ErrForbidden
	}

	phone, email, err := normalizeContact(req.ContactNumber, req.Email)
	if err != nil {
		return nil, err
	}

	now := s.timestamp(time.Time{})
	c := &models.Complaint{
		ComplaintID:   utils.GenerateComplaintID(),
		BookedByID:    bookedBy,
		CustomerName:  strings.TrimSpace(req.CustomerName),
		ContactNumber: phone,
		Email:         email,
		Address:       req.Address,
		ProductType:   strings.TrimSpace(req.ProductType),
		Brand:         strings.TrimSpace(req.Brand),
		ProductModel:  strings.TrimSpace(req.ProductModel),
		Description:   strings.TrimSpace(req.Description),
		Status:        models.StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.complaints.CreateComplaint(ctx, c); err != nil {
		metrics.ComplaintUpdates.WithLabelValues("register", "error").Inc()
		return nil, err
	}
	metrics.ComplaintUpdates.WithLabelValues("register", "ok").Inc()
	log.Printf("[complaint] %s booked by %s for %s", c.ComplaintID, v.UserID, bookedBy)
	return c, nil
}

func normalizeContact(phone, email string) (string, string, error) {
	p, ok := utils.NormalizePhone(phone)
	if !ok {
		return "", "", invalidField("contactNumber", "Enter a valid 10-digit phone number")
	}
	if email == "" {
		return p, "", nil
	}
	e, ok := utils.NormalizeEmail(email)
	if !ok {
		return "", "", invalidField("email", "Enter a valid email address")
	}
	return p, e, nil
}

// GetByID returns one complaint the viewer may see
func (s *ComplaintService) GetByID(ctx context.Context, v permission.Viewer, complaintID string) (*models.Complaint, error) {
	c, err := s.complaints.GetComplaintByID(ctx, complaintID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrNotFound
	}
	if !permission.CanView(v, c) {
		return nil, ErrForbidden
	}
	return c, nil
}

// ListRaisedBy lists complaints booked by userID. Callers other than OWNER only see their own.
func (s *ComplaintService) ListRaisedBy(ctx context.Context, v permission.Viewer, userID string) ([]models.Complaint, error) {
	userID = selfOr(v, userID)
	if !selfOrOwner(v, userID) {
		return nil, ErrForbidden
	}
	return s.complaints.ListByBooker(ctx, userID)
}

// ListAssignedTo lists complaints assigned to employeeID; the employee itself or an OWNER
func (s *ComplaintService) ListAssignedTo(ctx context.Context, v permission.Viewer, employeeID string) ([]models.Complaint, error) {
	employeeID = selfOr(v, employeeID)
	if v.Role == models.RoleCustomer || !selfOrOwner(v, employeeID) {
		return nil, ErrForbidden
	}
	return s.complaints.ListByEmployee(ctx, employeeID)
}

// ListAll lists every complaint; OWNER only
func (s *ComplaintService) ListAll(ctx context.Context, v permission.Viewer) ([]models.Complaint, error) {
	if v.Role != models.RoleOwner {
		return nil, ErrForbidden
	}
	return s.complaints.ListAll(ctx)
}

// ListResolved lists the resolved complaints userID booked, the set eligible for feedback
func (s *ComplaintService) ListResolved(ctx context.Context, v permission.Viewer, userID string) ([]models.Complaint, error) {
	userID = selfOr(v, userID)
	if !selfOrOwner(v, userID) {
		return nil, ErrForbidden
	}
	return s.complaints.ListResolvedByBooker(ctx, userID)
}

func selfOr(v permission.Viewer, id string) string {
	if id == "" {
		return v.UserID
	}
	return id
}

func selfOrOwner(v permission.Viewer, id string) bool {
	return v.Role == models.RoleOwner || (v.UserID != "" && v.UserID == id)
}

// Permissions returns the per-field access of the viewer on one complaint
func (s *ComplaintService) Permissions(ctx context.Context, v permission.Viewer, complaintID string) (map[permission.Field]permission.FieldAccess, error) {
	c, err := s.GetByID(ctx, v, complaintID)
	if err != nil {
		return nil, err
	}
	return permission.AccessMap(v, c), nil
}

// Update replaces a complaint with the proposed record.
// Every changed field must be editable by the viewer on the stored state. A changed assignee goes
// through ApplyAssignment first, so clearing it forces PENDING in the same write. The status change
// is then checked against the post-assignment state.
func (s *ComplaintService) Update(ctx context.Context, v permission.Viewer, req models.UpdateComplaintRequest) (*models.Complaint, error) {
	stored, err := s.GetByID(ctx, v, req.ComplaintID)
	if err != nil {
		return nil, err
	}

	phone, email, err := normalizeContact(req.ContactNumber, req.Email)
	if err != nil {
		return nil, err
	}
	proposed := stored.Clone()
	proposed.CustomerName = strings.TrimSpace(req.CustomerName)
	proposed.ContactNumber = phone
	proposed.Email = email
	proposed.Address = req.Address
	proposed.ProductType = strings.TrimSpace(req.ProductType)
	proposed.Brand = strings.TrimSpace(req.Brand)
	proposed.ProductModel = strings.TrimSpace(req.ProductModel)
	proposed.Description = strings.TrimSpace(req.Description)
	proposed.TechnicianFeedback = req.TechnicianFeedback
	proposed.CustomerFeedback = req.CustomerFeedback

	assigneeChanged := req.TechnicianDetails.Assigned() != stored.TechnicianDetails.Assigned() ||
		(req.TechnicianDetails.Assigned() && req.TechnicianDetails.EmployeeID != stored.AssignedEmployeeID())

	var denied []string
	for _, name := range changedFields(stored, proposed) {
		if !permission.CanEditField(permission.FieldOf(name), v, stored) {
			denied = append(denied, name)
		}
	}
	if assigneeChanged && !permission.CanEditField(permission.FieldTechnicianDetails, v, stored) {
		denied = append(denied, "technicianDetails")
	}
	if len(denied) > 0 {
		metrics.ComplaintUpdates.WithLabelValues("update", "forbidden").Inc()
		return nil, &FieldForbiddenError{Fields: denied}
	}

	next := proposed
	if assigneeChanged {
		tech, err := s.resolveTechnician(ctx, req.TechnicianDetails)
		if err != nil {
			return nil, err
		}
		next = permission.ApplyAssignment(proposed, tech)
	}

	cleared := assigneeChanged && !next.TechnicianDetails.Assigned()
	if !cleared && req.Status != next.Status {
		if !permission.CanTransition(v, next, req.Status) {
			metrics.ComplaintUpdates.WithLabelValues("update", "invalid_transition").Inc()
			if !permission.CanEditField(permission.FieldStatus, v, next) {
				return nil, &FieldForbiddenError{Fields: []string{"status"}}
			}
			return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, next.Status, req.Status)
		}
		next.Status = req.Status
	}
	if !permission.Consistent(next) {
		return nil, fmt.Errorf("%w: %s requires an assigned technician", ErrInvalidTransition, next.Status)
	}

	if next.Status == models.StatusResolved && stored.Status != models.StatusResolved {
		closed := s.timestamp(stored.UpdatedAt)
		next.ClosedAt = &closed
	}
	if next.Status != models.StatusResolved {
		next.ClosedAt = nil
	}

	if !assigneeChanged && next.Status == stored.Status && len(changedFields(stored, next)) == 0 {
		return stored, nil
	}
	return s.persist(ctx, "update", next, stored.UpdatedAt)
}

// resolveTechnician turns the requested assignee into the employee's stored details.
// An unassigned request passes through so ApplyAssignment can clear it.
func (s *ComplaintService) resolveTechnician(ctx context.Context, req *models.TechnicianDetails) (*models.TechnicianDetails, error) {
	if !req.Assigned() {
		return nil, nil
	}
	emp, err := s.users.GetUserByID(ctx, req.EmployeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load employee: %w", err)
	}
	if emp == nil || emp.Role != models.RoleEmployee {
		return nil, invalidField("technicianDetails", "Unknown employee")
	}
	return &models.TechnicianDetails{
		EmployeeID:  emp.UserID,
		FullName:    emp.FullName,
		PhoneNumber: emp.PhoneNumber,
		Designation: emp.Designation,
	}, nil
}

// changedFields names the form fields whose value differs between a and b.
// The assignee and status are compared by the caller.
func changedFields(a, b *models.Complaint) []string {
	var out []string
	add := func(name string, changed bool) {
		if changed {
			out = append(out, name)
		}
	}
	add("customerName", a.CustomerName != b.CustomerName)
	add("contactNumber", a.ContactNumber != b.ContactNumber)
	add("email", a.Email != b.Email)
	add("address", a.Address != b.Address)
	add("productType", a.ProductType != b.ProductType)
	add("brand", a.Brand != b.Brand)
	add("productModel", a.ProductModel != b.ProductModel)
	add("description", a.Description != b.Description)
	add("technicianFeedback", !sameText(a.TechnicianFeedback, b.TechnicianFeedback))
	add("customerFeedback", !sameText(a.CustomerFeedback, b.CustomerFeedback))
	return out
}

// sameText treats nil and empty feedback as equal
func sameText(a, b *string) bool {
	var x, y string
	if a != nil {
		x = *a
	}
	if b != nil {
		y = *b
	}
	return x == y
}

// UserFeedback records the booking customer's feedback on a resolved complaint
func (s *ComplaintService) UserFeedback(ctx context.Context, v permission.Viewer, req models.UserFeedbackRequest) (*models.Complaint, error) {
	stored, err := s.GetByID(ctx, v, req.ComplaintID)
	if err != nil {
		return nil, err
	}
	if !permission.CanEditField(permission.FieldCustomerFeedback, v, stored) {
		metrics.ComplaintUpdates.WithLabelValues("feedback", "forbidden").Inc()
		return nil, &FieldForbiddenError{Fields: []string{"customerFeedback"}}
	}
	next := stored.Clone()
	feedback := strings.TrimSpace(req.CustomerFeedback)
	next.CustomerFeedback = &feedback
	return s.persist(ctx, "feedback", next, stored.UpdatedAt)
}

// Reopen moves a RESOLVED complaint back into work. Only the booking customer or an OWNER may
// reopen. It returns to IN_PROGRESS when a technician is still assigned, otherwise to PENDING.
func (s *ComplaintService) Reopen(ctx context.Context, v permission.Viewer, complaintID string) (*models.Complaint, error) {
	stored, err := s.GetByID(ctx, v, complaintID)
	if err != nil {
		return nil, err
	}
	if v.Role != models.RoleOwner && v.UserID != stored.BookedByID {
		return nil, ErrForbidden
	}
	if stored.Status != models.StatusResolved {
		metrics.ComplaintUpdates.WithLabelValues("reopen", "invalid_transition").Inc()
		return nil, fmt.Errorf("%w: only a resolved complaint can be reopened", ErrInvalidTransition)
	}

	next := stored.Clone()
	next.Status = models.StatusPending
	if next.TechnicianDetails.Assigned() {
		next.Status = models.StatusInProgress
	}
	reopened := s.timestamp(stored.UpdatedAt)
	next.ReopenedAt = &reopened
	next.ClosedAt = nil
	return s.persist(ctx, "reopen", next, stored.UpdatedAt)
}

func (s *ComplaintService) persist(ctx context.Context, op string, next *models.Complaint, expected time.Time) (*models.Complaint, error) {
	next.UpdatedAt = s.timestamp(expected)
	if err := s.complaints.UpdateComplaint(ctx, next, expected); err != nil {
		if errors.Is(err, repository.ErrStaleComplaint) {
			metrics.ComplaintUpdates.WithLabelValues(op, "conflict").Inc()
			return nil, fmt.Errorf("%w: complaint was changed by someone else, reload and retry", ErrConflict)
		}
		metrics.ComplaintUpdates.WithLabelValues(op, "error").Inc()
		return nil, err
	}
	metrics.ComplaintUpdates.WithLabelValues(op, "ok").Inc()
	log.Printf("[complaint] %s %s -> %s", op, next.ComplaintID, next.Status)
	return next, nil
}
