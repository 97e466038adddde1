package permission_test

import (
	"testing"

	"repairdesk/models"
	"repairdesk/permission"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsForward(t *testing.T) {
	assert.True(t, permission.IsForward(models.StatusPending, models.StatusInProgress))
	assert.True(t, permission.IsForward(models.StatusInProgress, models.StatusResolved))
	assert.True(t, permission.IsForward(models.StatusResolved, models.StatusResolved))
	assert.False(t, permission.IsForward(models.StatusPending, models.StatusResolved))
	assert.False(t, permission.IsForward(models.StatusResolved, models.StatusPending))
	assert.False(t, permission.IsForward(models.StatusPending, "CLOSED"))
}

func TestCanTransition(t *testing.T) {
	assigned := complaint(models.StatusPending, "EMP01")
	assert.True(t, permission.CanTransition(owner, assigned, models.StatusInProgress))
	assert.True(t, permission.CanTransition(employee, assigned, models.StatusInProgress))
	assert.False(t, permission.CanTransition(customer, assigned, models.StatusInProgress))
	assert.False(t, permission.CanTransition(owner, assigned, models.StatusResolved), "cannot skip a step")

	unassigned := complaint(models.StatusPending, "")
	assert.False(t, permission.CanTransition(owner, unassigned, models.StatusInProgress))
	assert.True(t, permission.CanTransition(customer, unassigned, models.StatusPending), "no-op is always fine")
}

func TestCanTransition_ToleratesReopenedComplaint(t *testing.T) {
	// reopened externally: RESOLVED came back to IN_PROGRESS
	c := complaint(models.StatusInProgress, "EMP01")
	c.CustomerFeedback = ptr("fixed, then broke again")

	assert.True(t, permission.CanTransition(employee, c, models.StatusResolved))
	assert.False(t, permission.CanEditField(permission.FieldCustomerFeedback, customer, c))
}

func TestApplyAssignment_ClearingForcesPending(t *testing.T) {
	for _, assignee := range []*models.TechnicianDetails{
		nil,
		{EmployeeID: ""},
		{EmployeeID: models.UnassignedEmployeeID, FullName: "N/A"},
	} {
		for _, status := range []models.ComplaintStatus{models.StatusInProgress, models.StatusResolved} {
			c := complaint(status, "EMP01")
			next := permission.ApplyAssignment(c, assignee)

			require.NotNil(t, next)
			assert.Nil(t, next.TechnicianDetails)
			assert.Equal(t, models.StatusPending, next.Status)
			assert.True(t, permission.Consistent(next))
			assert.Equal(t, status, c.Status, "input untouched")
		}
	}
}

func TestApplyAssignment_KeepsStatusOnReassign(t *testing.T) {
	c := complaint(models.StatusInProgress, "EMP01")
	next := permission.ApplyAssignment(c, &models.TechnicianDetails{EmployeeID: "EMP02", FullName: "Meena"})

	assert.Equal(t, models.StatusInProgress, next.Status)
	assert.Equal(t, "EMP02", next.AssignedEmployeeID())
	assert.Equal(t, "EMP01", c.AssignedEmployeeID())
}

func TestConsistent(t *testing.T) {
	assert.True(t, permission.Consistent(complaint(models.StatusPending, "")))
	assert.True(t, permission.Consistent(complaint(models.StatusPending, "EMP01")))
	assert.False(t, permission.Consistent(complaint(models.StatusInProgress, "")))
	assert.True(t, permission.Consistent(complaint(models.StatusResolved, "EMP01")))
}

func ptr(s string) *string { return &s }
