package models

import "time"

// Psychologist is the public profile created when a therapist application is approved.
type Psychologist struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID         string   `json:"user_id"`
	DisplayName    string   `json:"display_name"`
	Email          string   `json:"email"`
	Specialty      *string  `json:"specialty,omitempty"`
	Specialization []string `json:"specialization"`
	Bio            *string  `json:"bio,omitempty"`
	Location       *string  `json:"location,omitempty"`
	Languages      []string `json:"languages"`

	// Verification
	IsVerified         bool               `json:"is_verified"`
	VerificationStatus VerificationStatus `json:"verification_status"`
	Version            int64              `json:"version"`
}

// NewPsychologistFromApplication copies the professional details of an approved application into
// a verified profile.
func NewPsychologistFromApplication(id string, app *TherapistApplication, now time.Time) *Psychologist {
	return &Psychologist{
		ID:                 id,
		CreatedAt:          now,
		UpdatedAt:          now,
		UserID:             app.UserID,
		DisplayName:        app.ProfessionalName,
		Email:              app.Email,
		Specialty:          app.Specialty,
		Specialization:     append([]string{}, app.Specialization...),
		Bio:                app.Bio,
		Location:           app.Location,
		Languages:          append([]string{}, app.Languages...),
		IsVerified:         true,
		VerificationStatus: VerificationVerified,
	}
}

func (p *Psychologist) SetVerification(status VerificationStatus, now time.Time) {
	p.VerificationStatus = status
	p.IsVerified = status == VerificationVerified
	p.UpdatedAt = now
}

// Clinic is the public profile created when a clinic application is approved.
type Clinic struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name         string  `json:"name"`
	Country      string  `json:"country"`
	ContactEmail string  `json:"contact_email"`
	ContactPhone *string `json:"contact_phone,omitempty"`
	Description  *string `json:"description,omitempty"`

	VerificationStatus VerificationStatus `json:"verification_status"`
	Version            int64              `json:"version"`
}

func NewClinicFromApplication(id string, app *ClinicApplication, now time.Time) *Clinic {
	return &Clinic{
		ID:                 id,
		CreatedAt:          now,
		UpdatedAt:          now,
		Name:               app.ClinicName,
		Country:            app.Country,
		ContactEmail:       app.ContactEmail,
		ContactPhone:       app.ContactPhone,
		Description:        app.Description,
		VerificationStatus: VerificationVerified,
	}
}

func (c *Clinic) SetVerification(status VerificationStatus, now time.Time) {
	c.VerificationStatus = status
	c.UpdatedAt = now
}
