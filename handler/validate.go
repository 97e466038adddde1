package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"repairdesk/models"
	"repairdesk/utils"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names so the front end can attach messages to inputs
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	// phone10: a 10-digit national number, optionally written with +91 or a leading 0
	_ = v.RegisterValidation("phone10", func(fl validator.FieldLevel) bool {
		_, ok := utils.NormalizePhone(fl.Field().String())
		return ok
	})
	return v
}

// fieldPath turns "RegisterComplaintRequest.address.pincode" into "address.pincode"
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	label := fe.Field()
	switch fe.Tag() {
	case "required", "required_without":
		return fmt.Sprintf("%s is required", label)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", label, fe.Param())
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters", label, fe.Param())
	case "email":
		return "Enter a valid email address"
	case "phone10":
		return "Enter a valid 10-digit phone number"
	case "numeric":
		return fmt.Sprintf("%s must contain digits only", label)
	case "alphanum":
		return fmt.Sprintf("%s may only contain letters and digits", label)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", label, fe.Param())
	}
	return fmt.Sprintf("%s is invalid", label)
}

// validationFields converts validator errors into per-field messages
func validationFields(err error) []models.FieldError {
	var verr validator.ValidationErrors
	if !errors.As(err, &verr) {
		return nil
	}
	out := make([]models.FieldError, 0, len(verr))
	for _, fe := range verr {
		out = append(out, models.FieldError{Field: fieldPath(fe), Message: fieldMessage(fe)})
	}
	return out
}

// decodeAndValidate parses a JSON body into dst and runs its validate tags.
// On failure it writes the 400 response and returns false.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request", "Failed to parse request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		fields := validationFields(err)
		if fields == nil {
			respondWithError(w, http.StatusBadRequest, "Validation error", err.Error())
			return false
		}
		respondWithJSON(w, http.StatusBadRequest, models.ErrorResponse{
			Error:     "Validation error",
			Message:   fields[0].Message,
			Code:      http.StatusBadRequest,
			ErrorCode: models.ErrCodeValidation,
			Fields:    fields,
		})
		return false
	}
	return true
}
