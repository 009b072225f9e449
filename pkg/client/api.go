package client

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/AnshRaj112/mindfulkids-backend/internal/apperrors"
	"github.com/AnshRaj112/mindfulkids-backend/internal/models"
)

const minPasswordLength = 8

type SignUpRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

type Session struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Review is an admin decision on an application. Version is the one the admin looked at; leave
// it nil to skip the staleness check.
type Review struct {
	Status          string  `json:"status"`
	RejectionReason *string `json:"rejection_reason,omitempty"`
	Version         *int64  `json:"version,omitempty"`
}

type ReportRequest struct {
	PsychologistID string  `json:"psychologist_id"`
	Reason         string  `json:"reason,omitempty"`
	Details        *string `json:"details,omitempty"`
}

type ReportUpdate struct {
	Status      *string `json:"status,omitempty"`
	ActionTaken *string `json:"action_taken,omitempty"`
	Version     *int64  `json:"version,omitempty"`
}

type DocumentURL struct {
	URL              string `json:"url"`
	ExpiresInSeconds int    `json:"expires_in_seconds"`
}

// --- Auth ---

// SignUp registers a parent or therapist and keeps the returned token.
func (c *Client) SignUp(ctx context.Context, in SignUpRequest) (*Session, error) {
	if len(in.Password) < minPasswordLength {
		return nil, apperrors.Validation("password must be at least 8 characters")
	}
	var out Session
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/signup", nil, in, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return &out, nil
}

// SignIn keeps the returned token for later calls.
func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	if email == "" || password == "" {
		return nil, apperrors.Validation("email and password are required")
	}
	var out Session
	body := map[string]string{"email": email, "password": password}
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/signin", nil, body, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return &out, nil
}

func (c *Client) SignOut(ctx context.Context) error {
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/signout", nil, nil, nil)
	c.SetToken("")
	return err
}

func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var out struct {
		User *models.User `json:"user"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/auth/me", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

// SetPasswordFromInvite redeems a clinic invite. It does not sign in.
func (c *Client) SetPasswordFromInvite(ctx context.Context, token, password string) (*models.User, error) {
	if token == "" {
		return nil, apperrors.InvalidOrExpiredToken()
	}
	if len(password) < minPasswordLength {
		return nil, apperrors.Validation("password must be at least 8 characters")
	}
	var out struct {
		User *models.User `json:"user"`
	}
	body := map[string]string{"token": token, "password": password}
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/set-password-from-invite", nil, body, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

// --- Therapist applications ---

type applicationEnvelope struct {
	Application *models.TherapistApplication `json:"application"`
}

// MyTherapistApplication returns nil when the caller has not started one.
func (c *Client) MyTherapistApplication(ctx context.Context) (*models.TherapistApplication, error) {
	var out applicationEnvelope
	found, err := optional(c.doJSON(ctx, http.MethodGet, "/api/therapist-applications/me", nil, nil, &out))
	if !found {
		return nil, err
	}
	return out.Application, nil
}

func (c *Client) SaveTherapistApplication(ctx context.Context, draft models.TherapistApplicationDraft) (*models.TherapistApplication, error) {
	var out applicationEnvelope
	if err := c.doJSON(ctx, http.MethodPut, "/api/therapist-applications/me", nil, draft, &out); err != nil {
		return nil, err
	}
	return out.Application, nil
}

func (c *Client) SubmitTherapistApplication(ctx context.Context) (*models.TherapistApplication, error) {
	var out applicationEnvelope
	if err := c.doJSON(ctx, http.MethodPost, "/api/therapist-applications/me/submit", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Application, nil
}

// UploadCredential stores a credential document and returns its URL for the application draft.
func (c *Client) UploadCredential(ctx context.Context, filename string, content io.Reader) (string, error) {
	var out struct {
		URL string `json:"url"`
	}
	file := FormFile{Field: "file", Filename: filename, Content: content}
	if err := c.doMultipart(ctx, "/api/uploads/credentials", nil, file, &out); err != nil {
		return "", err
	}
	return out.URL, nil
}

func (c *Client) ListTherapistApplications(ctx context.Context, status string) ([]models.TherapistApplication, error) {
	var query url.Values
	if status != "" {
		if _, err := models.ParseTherapistApplicationStatus(status); err != nil {
			return nil, err
		}
		query = url.Values{"status": {status}}
	}
	var out struct {
		Applications []models.TherapistApplication `json:"applications"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/admin/therapist-applications", query, nil, &out); err != nil {
		return nil, err
	}
	return out.Applications, nil
}

// TherapistApplication returns nil when the id does not resolve.
func (c *Client) TherapistApplication(ctx context.Context, id string) (*models.TherapistApplication, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	var out applicationEnvelope
	found, err := optional(c.doJSON(ctx, http.MethodGet, "/api/admin/therapist-applications/"+url.PathEscape(id), nil, nil, &out))
	if !found {
		return nil, err
	}
	return out.Application, nil
}

func (c *Client) ReviewTherapistApplication(ctx context.Context, id string, review Review) (*models.TherapistApplication, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	if _, err := models.ParseReviewDecision(review.Status); err != nil {
		return nil, err
	}
	var out applicationEnvelope
	if err := c.doJSON(ctx, http.MethodPatch, "/api/admin/therapist-applications/"+url.PathEscape(id), nil, review, &out); err != nil {
		return nil, err
	}
	return out.Application, nil
}

// --- Verification ---

type psychologistEnvelope struct {
	Psychologist *models.Psychologist `json:"psychologist"`
}

func (c *Client) SetPsychologistVerified(ctx context.Context, id string, verified bool) (*models.Psychologist, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	var out psychologistEnvelope
	body := map[string]bool{"is_verified": verified}
	if err := c.doJSON(ctx, http.MethodPatch, "/api/admin/psychologists/"+url.PathEscape(id), nil, body, &out); err != nil {
		return nil, err
	}
	return out.Psychologist, nil
}

func (c *Client) SetPsychologistStatus(ctx context.Context, id, status string) (*models.Psychologist, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	if _, err := models.ParseVerificationStatus(status); err != nil {
		return nil, err
	}
	var out psychologistEnvelope
	body := map[string]string{"status": status}
	if err := c.doJSON(ctx, http.MethodPatch, "/api/admin/psychologists/"+url.PathEscape(id)+"/status", nil, body, &out); err != nil {
		return nil, err
	}
	return out.Psychologist, nil
}

func (c *Client) SetClinicStatus(ctx context.Context, id, status string) (*models.Clinic, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	if _, err := models.ParseVerificationStatus(status); err != nil {
		return nil, err
	}
	var out struct {
		Clinic *models.Clinic `json:"clinic"`
	}
	body := map[string]string{"status": status}
	if err := c.doJSON(ctx, http.MethodPatch, "/api/admin/clinics/"+url.PathEscape(id)+"/status", nil, body, &out); err != nil {
		return nil, err
	}
	return out.Clinic, nil
}

// --- Clinic applications ---

type clinicApplicationEnvelope struct {
	Application *models.ClinicApplication `json:"application"`
}

// SubmitClinicApplication sends the public clinic application with its license document.
func (c *Client) SubmitClinicApplication(ctx context.Context, sub models.ClinicApplicationSubmission, filename string, document io.Reader) (*models.ClinicApplication, error) {
	if sub.ClinicName == "" || sub.Country == "" || sub.ContactEmail == "" {
		return nil, apperrors.Validation("clinic name, country and contact e-mail are required")
	}
	if document == nil {
		return nil, apperrors.Validation("document is required")
	}
	fields := map[string]string{
		"clinic_name":   sub.ClinicName,
		"country":       sub.Country,
		"contact_email": sub.ContactEmail,
	}
	if sub.ContactPhone != nil {
		fields["contact_phone"] = *sub.ContactPhone
	}
	if sub.Description != nil {
		fields["description"] = *sub.Description
	}
	var out clinicApplicationEnvelope
	file := FormFile{Field: "document", Filename: filename, Content: document}
	if err := c.doMultipart(ctx, "/api/clinic-applications", fields, file, &out); err != nil {
		return nil, err
	}
	return out.Application, nil
}

func (c *Client) ListClinicApplications(ctx context.Context, status string) ([]models.ClinicApplication, error) {
	var query url.Values
	if status != "" {
		if _, err := models.ParseClinicApplicationStatus(status); err != nil {
			return nil, err
		}
		query = url.Values{"status": {status}}
	}
	var out struct {
		Applications []models.ClinicApplication `json:"applications"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/admin/clinic-applications", query, nil, &out); err != nil {
		return nil, err
	}
	return out.Applications, nil
}

// ClinicApplication returns nil when the id does not resolve.
func (c *Client) ClinicApplication(ctx context.Context, id string) (*models.ClinicApplication, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	var out clinicApplicationEnvelope
	found, err := optional(c.doJSON(ctx, http.MethodGet, "/api/admin/clinic-applications/"+url.PathEscape(id), nil, nil, &out))
	if !found {
		return nil, err
	}
	return out.Application, nil
}

func (c *Client) ReviewClinicApplication(ctx context.Context, id string, review Review) (*models.ClinicApplication, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	if _, err := models.ParseReviewDecision(review.Status); err != nil {
		return nil, err
	}
	var out clinicApplicationEnvelope
	if err := c.doJSON(ctx, http.MethodPatch, "/api/admin/clinic-applications/"+url.PathEscape(id), nil, review, &out); err != nil {
		return nil, err
	}
	return out.Application, nil
}

// ClinicDocumentURL returns a short-lived link. Request a new one each time it is opened.
func (c *Client) ClinicDocumentURL(ctx context.Context, id string) (*DocumentURL, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	var out DocumentURL
	if err := c.doJSON(ctx, http.MethodGet, "/api/admin/clinic-applications/"+url.PathEscape(id)+"/document", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- Reports ---

type reportEnvelope struct {
	Report *models.ProfessionalReport `json:"report"`
}

func (c *Client) ReportProfessional(ctx context.Context, in ReportRequest) (*models.ProfessionalReport, error) {
	if err := requireID(in.PsychologistID); err != nil {
		return nil, err
	}
	if in.Reason != "" {
		if _, err := models.ParseReportReason(in.Reason); err != nil {
			return nil, err
		}
	}
	var out reportEnvelope
	if err := c.doJSON(ctx, http.MethodPost, "/api/reports/professional", nil, in, &out); err != nil {
		return nil, err
	}
	return out.Report, nil
}

func (c *Client) ListReports(ctx context.Context, status string) ([]models.ProfessionalReport, error) {
	var query url.Values
	if status != "" {
		if _, err := models.ParseReportStatus(status); err != nil {
			return nil, err
		}
		query = url.Values{"status": {status}}
	}
	var out struct {
		Reports []models.ProfessionalReport `json:"reports"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/admin/reports", query, nil, &out); err != nil {
		return nil, err
	}
	return out.Reports, nil
}

// Report returns nil when the id does not resolve.
func (c *Client) Report(ctx context.Context, id string) (*models.ProfessionalReport, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	var out reportEnvelope
	found, err := optional(c.doJSON(ctx, http.MethodGet, "/api/admin/reports/"+url.PathEscape(id), nil, nil, &out))
	if !found {
		return nil, err
	}
	return out.Report, nil
}

func (c *Client) UpdateReport(ctx context.Context, id string, update ReportUpdate) (*models.ProfessionalReport, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	if update.Status == nil && update.ActionTaken == nil {
		return nil, apperrors.Validation("status or action_taken is required")
	}
	if update.Status != nil {
		if _, err := models.ParseReportStatus(*update.Status); err != nil {
			return nil, err
		}
	}
	if update.ActionTaken != nil {
		if _, err := models.ParseReportAction(*update.ActionTaken); err != nil {
			return nil, err
		}
	}
	var out reportEnvelope
	if err := c.doJSON(ctx, http.MethodPatch, "/api/admin/reports/"+url.PathEscape(id), nil, update, &out); err != nil {
		return nil, err
	}
	return out.Report, nil
}

// --- Directory ---

func (c *Client) Psychologists(ctx context.Context) ([]models.Psychologist, error) {
	var out struct {
		Psychologists []models.Psychologist `json:"psychologists"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/psychologists", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Psychologists, nil
}

func (c *Client) Clinics(ctx context.Context) ([]models.Clinic, error) {
	var out struct {
		Clinics []models.Clinic `json:"clinics"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/clinics", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Clinics, nil
}
