package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/AnshRaj112/mindfulkids-backend/internal/apperrors"
	"github.com/AnshRaj112/mindfulkids-backend/internal/models"
)

// MemoryStore keeps everything in process. It backs STORE_DRIVER=memory and the service tests.
// Transactions work on a copy of the data that replaces the original on success.
type MemoryStore struct {
	mu   sync.Mutex
	data *memData
	inTx bool
}

type memData struct {
	users         map[string]models.User
	therapistApps map[string]models.TherapistApplication
	clinicApps    map[string]models.ClinicApplication
	psychologists map[string]models.Psychologist
	clinics       map[string]models.Clinic
	reports       map[string]models.ProfessionalReport
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: &memData{
		users:         map[string]models.User{},
		therapistApps: map[string]models.TherapistApplication{},
		clinicApps:    map[string]models.ClinicApplication{},
		psychologists: map[string]models.Psychologist{},
		clinics:       map[string]models.Clinic{},
		reports:       map[string]models.ProfessionalReport{},
	}}
}

func (d *memData) clone() *memData {
	c := &memData{
		users:         make(map[string]models.User, len(d.users)),
		therapistApps: make(map[string]models.TherapistApplication, len(d.therapistApps)),
		clinicApps:    make(map[string]models.ClinicApplication, len(d.clinicApps)),
		psychologists: make(map[string]models.Psychologist, len(d.psychologists)),
		clinics:       make(map[string]models.Clinic, len(d.clinics)),
		reports:       make(map[string]models.ProfessionalReport, len(d.reports)),
	}
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.therapistApps {
		c.therapistApps[k] = copyTherapistApplication(v)
	}
	for k, v := range d.clinicApps {
		c.clinicApps[k] = v
	}
	for k, v := range d.psychologists {
		c.psychologists[k] = copyPsychologist(v)
	}
	for k, v := range d.clinics {
		c.clinics[k] = v
	}
	for k, v := range d.reports {
		c.reports[k] = v
	}
	return c
}

func copyTherapistApplication(a models.TherapistApplication) models.TherapistApplication {
	a.Specialization = append([]string{}, a.Specialization...)
	a.Languages = append([]string{}, a.Languages...)
	a.Credentials = append([]models.Credential{}, a.Credentials...)
	a.ClinicAffiliations = append([]models.ClinicAffiliation{}, a.ClinicAffiliations...)
	return a
}

func copyPsychologist(p models.Psychologist) models.Psychologist {
	p.Specialization = append([]string{}, p.Specialization...)
	p.Languages = append([]string{}, p.Languages...)
	return p
}

func (s *MemoryStore) WithinTx(ctx context.Context, fn func(Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &MemoryStore{data: s.data.clone(), inTx: true}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.data = tx.data
	return nil
}

func (s *MemoryStore) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	email := models.NormalizeEmail(u.Email)
	for _, existing := range s.data.users {
		if existing.Email == email {
			return apperrors.New(apperrors.CodeConflict, "an account with this email already exists")
		}
	}
	u.Email = email
	s.data.users[u.ID] = *u
	return nil
}

func (s *MemoryStore) GetUser(_ context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.data.users[id]
	if !ok {
		return nil, apperrors.NotFound("user")
	}
	return &u, nil
}

func (s *MemoryStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email = models.NormalizeEmail(email)
	for _, u := range s.data.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, apperrors.NotFound("user")
}

func (s *MemoryStore) CreateTherapistApplication(_ context.Context, a *models.TherapistApplication) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.data.therapistApps {
		if existing.UserID == a.UserID {
			return apperrors.New(apperrors.CodeConflict, "an application already exists for this account")
		}
	}
	a.Version = 1
	s.data.therapistApps[a.ID] = copyTherapistApplication(*a)
	return nil
}

func (s *MemoryStore) GetTherapistApplication(_ context.Context, id string) (*models.TherapistApplication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.data.therapistApps[id]
	if !ok {
		return nil, apperrors.NotFound("therapist application")
	}
	a = copyTherapistApplication(a)
	return &a, nil
}

func (s *MemoryStore) GetTherapistApplicationByUser(_ context.Context, userID string) (*models.TherapistApplication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.data.therapistApps {
		if a.UserID == userID {
			a = copyTherapistApplication(a)
			return &a, nil
		}
	}
	return nil, apperrors.NotFound("therapist application")
}

func (s *MemoryStore) ListTherapistApplications(_ context.Context, status models.TherapistApplicationStatus) ([]models.TherapistApplication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.TherapistApplication{}
	for _, a := range s.data.therapistApps {
		if status == "" || a.Status == status {
			out = append(out, copyTherapistApplication(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) UpdateTherapistApplication(_ context.Context, a *models.TherapistApplication) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.data.therapistApps[a.ID]
	if !ok || current.Version != a.Version {
		return apperrors.Conflict("therapist application")
	}
	a.Version++
	s.data.therapistApps[a.ID] = copyTherapistApplication(*a)
	return nil
}

func (s *MemoryStore) CreateClinicApplication(_ context.Context, c *models.ClinicApplication) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.Version = 1
	s.data.clinicApps[c.ID] = *c
	return nil
}

func (s *MemoryStore) GetClinicApplication(_ context.Context, id string) (*models.ClinicApplication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.data.clinicApps[id]
	if !ok {
		return nil, apperrors.NotFound("clinic application")
	}
	return &c, nil
}

func (s *MemoryStore) ListClinicApplications(_ context.Context, status models.ClinicApplicationStatus) ([]models.ClinicApplication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.ClinicApplication{}
	for _, c := range s.data.clinicApps {
		if status == "" || c.Status == status {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	return out, nil
}

func (s *MemoryStore) UpdateClinicApplication(_ context.Context, c *models.ClinicApplication) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.data.clinicApps[c.ID]
	if !ok || current.Version != c.Version {
		return apperrors.Conflict("clinic application")
	}
	c.Version++
	s.data.clinicApps[c.ID] = *c
	return nil
}

func (s *MemoryStore) CreatePsychologist(_ context.Context, p *models.Psychologist) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.data.psychologists {
		if existing.UserID == p.UserID {
			return apperrors.New(apperrors.CodeConflict, "a psychologist profile already exists for this account")
		}
	}
	p.Version = 1
	s.data.psychologists[p.ID] = copyPsychologist(*p)
	return nil
}

func (s *MemoryStore) GetPsychologist(_ context.Context, id string) (*models.Psychologist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.data.psychologists[id]
	if !ok {
		return nil, apperrors.NotFound("psychologist")
	}
	p = copyPsychologist(p)
	return &p, nil
}

func (s *MemoryStore) ListPsychologists(_ context.Context, status models.VerificationStatus) ([]models.Psychologist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Psychologist{}
	for _, p := range s.data.psychologists {
		if status == "" || p.VerificationStatus == status {
			out = append(out, copyPsychologist(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayName < out[j].DisplayName })
	return out, nil
}

func (s *MemoryStore) UpdatePsychologist(_ context.Context, p *models.Psychologist) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.data.psychologists[p.ID]
	if !ok || current.Version != p.Version {
		return apperrors.Conflict("psychologist")
	}
	p.Version++
	s.data.psychologists[p.ID] = copyPsychologist(*p)
	return nil
}

func (s *MemoryStore) CreateClinic(_ context.Context, c *models.Clinic) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.Version = 1
	s.data.clinics[c.ID] = *c
	return nil
}

func (s *MemoryStore) GetClinic(_ context.Context, id string) (*models.Clinic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.data.clinics[id]
	if !ok {
		return nil, apperrors.NotFound("clinic")
	}
	return &c, nil
}

func (s *MemoryStore) ListClinics(_ context.Context, status models.VerificationStatus) ([]models.Clinic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Clinic{}
	for _, c := range s.data.clinics {
		if status == "" || c.VerificationStatus == status {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) UpdateClinic(_ context.Context, c *models.Clinic) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.data.clinics[c.ID]
	if !ok || current.Version != c.Version {
		return apperrors.Conflict("clinic")
	}
	c.Version++
	s.data.clinics[c.ID] = *c
	return nil
}

func (s *MemoryStore) CreateReport(_ context.Context, r *models.ProfessionalReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.Version = 1
	s.data.reports[r.ID] = *r
	return nil
}

func (s *MemoryStore) GetReport(_ context.Context, id string) (*models.ProfessionalReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.data.reports[id]
	if !ok {
		return nil, apperrors.NotFound("report")
	}
	return &r, nil
}

func (s *MemoryStore) ListReports(_ context.Context, status models.ReportStatus) ([]models.ProfessionalReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.ProfessionalReport{}
	for _, r := range s.data.reports {
		if status == "" || r.Status == status {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) UpdateReport(_ context.Context, r *models.ProfessionalReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.data.reports[r.ID]
	if !ok || current.Version != r.Version {
		return apperrors.Conflict("report")
	}
	r.Version++
	s.data.reports[r.ID] = *r
	return nil
}
