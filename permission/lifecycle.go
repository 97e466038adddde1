package permission

import (
	"repairdesk/models"
)

// forward lists the single legal successor of each status
var forward = map[models.ComplaintStatus]models.ComplaintStatus{
	models.StatusPending:    models.StatusInProgress,
	models.StatusInProgress: models.StatusResolved,
}

// IsForward reports whether from → to is the next step of PENDING → IN_PROGRESS → RESOLVED.
// Staying on the same status counts as legal.
func IsForward(from, to models.ComplaintStatus) bool {
	if !to.Valid() {
		return false
	}
	if from == to {
		return true
	}
	return forward[from] == to
}

// CanTransition reports whether viewer may move complaint c to next.
// c is the state after any assignment change has been applied.
func CanTransition(v Viewer, c *models.Complaint, next models.ComplaintStatus) bool {
	if c == nil {
		return false
	}
	if c.Status == next {
		return true
	}
	if !CanEditField(FieldStatus, v, c) {
		return false
	}
	return IsForward(c.Status, next)
}

// ApplyAssignment returns the state of c after the assignee becomes tech.
// An empty or "N/A" assignee clears the details and forces PENDING in the same value,
// so no caller can observe an unassigned complaint that is not pending.
func ApplyAssignment(c *models.Complaint, tech *models.TechnicianDetails) *models.Complaint {
	next := c.Clone()
	if !tech.Assigned() {
		next.TechnicianDetails = nil
		next.Status = models.StatusPending
		return next
	}
	td := *tech
	next.TechnicianDetails = &td
	return next
}

// Consistent reports whether c satisfies the assignment invariant:
// any status past PENDING needs an assigned technician.
func Consistent(c *models.Complaint) bool {
	if c.Status == models.StatusPending {
		return true
	}
	return c.TechnicianDetails.Assigned()
}
