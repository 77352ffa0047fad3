package model

import "strings"

// UpdateStudentReq is a partial update: nil fields are left unchanged.
type UpdateStudentReq struct {
	Name                *string `json:"name,omitempty" validate:"omitempty,max=100"`
	Email               *string `json:"email,omitempty" validate:"omitempty,max=254"`
	Phone               *string `json:"phone,omitempty" validate:"omitempty,max=30"`
	Rating              *int    `json:"rating,omitempty" validate:"omitempty,min=0"`
	MaxRating           *int    `json:"max_rating,omitempty" validate:"omitempty,min=0"`
	InactivityReminders *bool   `json:"inactivity_reminders,omitempty"`
}

func (r *UpdateStudentReq) Validate() error {
	if r.Name != nil {
		*r.Name = strings.TrimSpace(*r.Name)
	}
	if r.Email != nil {
		*r.Email = strings.TrimSpace(*r.Email)
		if *r.Email != "" {
			if err := GetValidator().Var(*r.Email, "email"); err != nil {
				return &ErrorDetail{Code: "bad_request", Message: "invalid email address"}
			}
		}
	}
	if r.Phone != nil {
		*r.Phone = strings.TrimSpace(*r.Phone)
	}

	if err := GetValidator().Struct(r); err != nil {
		return FormatValidationError(err)
	}

	return nil
}

// Apply copies the set fields onto s. Rating edits keep maxRating >= rating.
func (r *UpdateStudentReq) Apply(s *Student) {
	if r.Name != nil {
		s.Name = *r.Name
	}
	if r.Email != nil {
		s.Email = *r.Email
	}
	if r.Phone != nil {
		s.Phone = *r.Phone
	}
	if r.Rating != nil {
		s.Rating = *r.Rating
	}
	if r.MaxRating != nil {
		s.MaxRating = *r.MaxRating
	}
	if r.InactivityReminders != nil {
		s.EmailNotifications.InactivityReminders = *r.InactivityReminders
	}
	s.Clamp()
}
