package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"repairdesk/models"
	"repairdesk/service"
)

// ComplaintHandler handles HTTP requests for complaints
type ComplaintHandler struct {
	service *service.ComplaintService
}

// NewComplaintHandler creates a new complaint handler
func NewComplaintHandler(svc *service.ComplaintService) *ComplaintHandler {
	return &ComplaintHandler{service: svc}
}

// RegisterComplaint handles POST /complaint/register
// Customers book for themselves; staff pass bookedById of the customer.
func (h *ComplaintHandler) RegisterComplaint(w http.ResponseWriter, r *http.Request) {
	v, ok := viewer(w, r)
	if !ok {
		return
	}
	var req models.RegisterComplaintRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	c, err := h.service.Register(r.Context(), v, req)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, c)
}

// GetComplaintByID handles GET /complaint/by-id?complaintId=
func (h *ComplaintHandler) GetComplaintByID(w http.ResponseWriter, r *http.Request) {
	v, ok := viewer(w, r)
	if !ok {
		return
	}
	complaintID := r.URL.Query().Get("complaintId")
	if complaintID == "" {
		respondWithError(w, http.StatusBadRequest, "Bad Request", "complaintId required")
		return
	}

	c, err := h.service.GetByID(r.Context(), v, complaintID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, c)
}

func respondWithComplaints(w http.ResponseWriter, list []models.Complaint, err error) {
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	if list == nil {
		list = []models.Complaint{}
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"complaints": list,
		"count":      len(list),
	})
}

// GetRaisedBy handles GET /complaint/raised-by?userId=
func (h *ComplaintHandler) GetRaisedBy(w http.ResponseWriter, r *http.Request) {
	v, ok := viewer(w, r)
	if !ok {
		return
	}
	list, err := h.service.ListRaisedBy(r.Context(), v, r.URL.Query().Get("userId"))
	respondWithComplaints(w, list, err)
}

// GetAssignedTo handles GET /complaint/assigned-to?employeeId=
func (h *ComplaintHandler) GetAssignedTo(w http.ResponseWriter, r *http.Request) {
	v, ok := viewer(w, r)
	if !ok {
		return
	}
	list, err := h.service.ListAssignedTo(r.Context(), v, r.URL.Query().Get("employeeId"))
	respondWithComplaints(w, list, err)
}

// ListComplaints handles GET /complaint/list (OWNER)
func (h *ComplaintHandler) ListComplaints(w http.ResponseWriter, r *http.Request) {
	v, ok := viewer(w, r)
	if !ok {
		return
	}
	list, err := h.service.ListAll(r.Context(), v)
	respondWithComplaints(w, list, err)
}

// GetResolvedList handles GET /complaint/resolved-list?userId=
func (h *ComplaintHandler) GetResolvedList(w http.ResponseWriter, r *http.Request) {
	v, ok := viewer(w, r)
	if !ok {
		return
	}
	list, err := h.service.ListResolved(r.Context(), v, r.URL.Query().Get("userId"))
	respondWithComplaints(w, list, err)
}

// UpdateComplaint handles PUT /complaint/update
// The body is the complete record. Changed fields the caller may not edit are rejected with 403.
func (h *ComplaintHandler) UpdateComplaint(w http.ResponseWriter, r *http.Request) {
	v, ok := viewer(w, r)
	if !ok {
		return
	}
	var req models.UpdateComplaintRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	c, err := h.service.Update(r.Context(), v, req)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, c)
}

// UserFeedback handles POST /complaint/user-feedback
func (h *ComplaintHandler) UserFeedback(w http.ResponseWriter, r *http.Request) {
	v, ok := viewer(w, r)
	if !ok {
		return
	}
	var req models.UserFeedbackRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	c, err := h.service.UserFeedback(r.Context(), v, req)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, c)
}

// ReopenComplaint handles POST /complaint/reopen
func (h *ComplaintHandler) ReopenComplaint(w http.ResponseWriter, r *http.Request) {
	v, ok := viewer(w, r)
	if !ok {
		return
	}
	var req models.ReopenComplaintRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	c, err := h.service.Reopen(r.Context(), v, req.ComplaintID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, c)
}

// GetPermissions handles GET /complaint/{id}/permissions
// Returns editable/visible/required per field class for rendering the complaint form.
func (h *ComplaintHandler) GetPermissions(w http.ResponseWriter, r *http.Request) {
	v, ok := viewer(w, r)
	if !ok {
		return
	}
	complaintID := mux.Vars(r)["id"]

	access, err := h.service.Permissions(r.Context(), v, complaintID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"complaintId": complaintID,
		"fields":      access,
	})
}
