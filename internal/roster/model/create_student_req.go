package model

import "strings"

type CreateStudentReq struct {
	Handle string `json:"handle" validate:"required,min=1,max=24"`
	Name   string `json:"name" validate:"omitempty,max=100"`
	Email  string `json:"email" validate:"omitempty,email,max=254"`
	Phone  string `json:"phone" validate:"omitempty,max=30"`

	// Opt-in defaults to true unless the caller says otherwise.
	InactivityReminders *bool `json:"inactivity_reminders,omitempty"`
}

func (r *CreateStudentReq) Validate() error {
	r.Handle = NormalizeHandle(r.Handle)
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)

	if err := GetValidator().Struct(r); err != nil {
		return FormatValidationError(err)
	}

	if _, err := ValidateHandle(r.Handle, HandleModeCreate); err != nil {
		return &ErrorDetail{Code: "bad_request", Message: err.Error()}
	}

	return nil
}

// RemindersEnabled resolves the opt-in flag with its default.
func (r *CreateStudentReq) RemindersEnabled() bool {
	if r.InactivityReminders == nil {
		return true
	}
	return *r.InactivityReminders
}
