// Package permission decides who may change which part of a complaint.
//
// Every rule lives in one dispatch table keyed by (field, role). Each entry is a guard
// over the viewer and the stored complaint. A missing entry denies. Nothing here mutates
// its inputs: ApplyAssignment returns a proposed next state that the caller persists.
package permission

import (
	"repairdesk/models"
)

// Field is a permission class of complaint form fields
type Field string

const (
	FieldBasic              Field = "basic"
	FieldTechnicianDetails  Field = "technicianDetails"
	FieldStatus             Field = "status"
	FieldTechnicianFeedback Field = "technicianFeedback"
	FieldCustomerFeedback   Field = "customerFeedback"
)

// Fields lists every field class in a stable order
var Fields = []Field{
	FieldBasic,
	FieldTechnicianDetails,
	FieldStatus,
	FieldTechnicianFeedback,
	FieldCustomerFeedback,
}

// Viewer is the authenticated caller
type Viewer struct {
	UserID string
	Role   models.Role
}

// FieldAccess is what a form renderer needs for one field
type FieldAccess struct {
	Editable bool `json:"editable"`
	Visible  bool `json:"visible"`
	Required bool `json:"required"`
}

type guard func(v Viewer, c *models.Complaint) bool

func always(Viewer, *models.Complaint) bool { return true }

func isBooker(v Viewer, c *models.Complaint) bool {
	return v.UserID != "" && v.UserID == c.BookedByID
}

func hasTechnician(_ Viewer, c *models.Complaint) bool {
	return c.TechnicianDetails.Assigned()
}

func isAssignedTechnician(v Viewer, c *models.Complaint) bool {
	return v.UserID != "" && v.UserID == c.AssignedEmployeeID()
}

func bookerOfResolved(v Viewer, c *models.Complaint) bool {
	return isBooker(v, c) && c.Status == models.StatusResolved
}

var rules = map[Field]map[models.Role]guard{
	FieldBasic: {
		models.RoleOwner:    always,
		models.RoleCustomer: isBooker,
	},
	FieldTechnicianDetails: {
		models.RoleOwner: always,
	},
	FieldStatus: {
		models.RoleOwner:    hasTechnician,
		models.RoleEmployee: hasTechnician,
	},
	FieldTechnicianFeedback: {
		models.RoleOwner:    always,
		models.RoleEmployee: isAssignedTechnician,
	},
	// Ownership plus resolution decides; the role is irrelevant.
	FieldCustomerFeedback: {
		models.RoleOwner:    bookerOfResolved,
		models.RoleEmployee: bookerOfResolved,
		models.RoleCustomer: bookerOfResolved,
	},
}

// CanEditField reports whether viewer may change field on complaint c.
// Unknown fields, unknown roles and a nil complaint are denied.
func CanEditField(field Field, v Viewer, c *models.Complaint) bool {
	if c == nil {
		return false
	}
	byRole, ok := rules[field]
	if !ok {
		return false
	}
	g, ok := byRole[v.Role]
	if !ok {
		return false
	}
	return g(v, c)
}

// CanView reports whether viewer may read complaint c at all
func CanView(v Viewer, c *models.Complaint) bool {
	if c == nil {
		return false
	}
	switch v.Role {
	case models.RoleOwner:
		return true
	case models.RoleEmployee:
		return isAssignedTechnician(v, c)
	case models.RoleCustomer:
		return isBooker(v, c)
	}
	return false
}

// Access returns the rendering hints for one field
func Access(field Field, v Viewer, c *models.Complaint) FieldAccess {
	editable := CanEditField(field, v, c)
	return FieldAccess{
		Editable: editable,
		Visible:  CanView(v, c),
		Required: editable && field == FieldBasic,
	}
}

// AccessMap returns Access for every field class
func AccessMap(v Viewer, c *models.Complaint) map[Field]FieldAccess {
	out := make(map[Field]FieldAccess, len(Fields))
	for _, f := range Fields {
		out[f] = Access(f, v, c)
	}
	return out
}

var fieldNames = map[string]Field{
	"customerName":       FieldBasic,
	"contactNumber":      FieldBasic,
	"email":              FieldBasic,
	"address":            FieldBasic,
	"productType":        FieldBasic,
	"brand":              FieldBasic,
	"productModel":       FieldBasic,
	"description":        FieldBasic,
	"technicianDetails":  FieldTechnicianDetails,
	"assignTo":           FieldTechnicianDetails,
	"status":             FieldStatus,
	"technicianFeedback": FieldTechnicianFeedback,
	"customerFeedback":   FieldCustomerFeedback,
}

// FieldOf maps a form field name to its permission class.
// Unknown names return "" which CanEditField always denies.
func FieldOf(name string) Field {
	return fieldNames[name]
}
