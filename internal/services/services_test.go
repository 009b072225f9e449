package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/AnshRaj112/mindfulkids-backend/internal/logger"
	"github.com/AnshRaj112/mindfulkids-backend/internal/models"
	"github.com/AnshRaj112/mindfulkids-backend/internal/repository"
)

var (
	admin     = models.Identity{UserID: "admin-1", Role: models.RolePlatformAdmin}
	therapist = models.Identity{UserID: "therapist-1", Role: models.RoleTherapist}
	parent    = models.Identity{UserID: "parent-1", Role: models.RoleParent}
)

type fakeDocuments struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func (f *fakeDocuments) Put(_ context.Context, key string, upload *Upload) error {
	if f.putErr != nil {
		return f.putErr
	}
	data, err := io.ReadAll(upload.Body)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.objects == nil {
		f.objects = map[string][]byte{}
	}
	f.objects[key] = data
	return nil
}

func (f *fakeDocuments) PresignedURL(_ context.Context, key string, ttl time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.objects[key]; !ok {
		return "", errors.New("no such object")
	}
	return "https://files.test/" + key + "?expires=" + ttl.String(), nil
}

type fakeUploader struct{}

func (fakeUploader) UploadCredential(_ context.Context, userID string, upload *Upload) (string, error) {
	return "https://cdn.test/therapist-credentials/" + userID + "/" + upload.Filename, nil
}

type recordingNotifier struct {
	mu        sync.Mutex
	therapist []models.TherapistApplicationStatus
	clinic    []models.ClinicApplicationStatus
	err       error
}

func (n *recordingNotifier) TherapistApplicationReviewed(_ context.Context, app *models.TherapistApplication) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.therapist = append(n.therapist, app.Status)
	return n.err
}

func (n *recordingNotifier) ClinicApplicationReviewed(_ context.Context, app *models.ClinicApplication) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.clinic = append(n.clinic, app.Status)
	return n.err
}

type recordingAudit struct {
	mu     sync.Mutex
	events []models.ModerationEvent
}

func (a *recordingAudit) Record(_ context.Context, e models.ModerationEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, e)
}

func (a *recordingAudit) actions(entityType string) []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []string
	for _, e := range a.events {
		if e.EntityType == entityType {
			out = append(out, e.Action+":"+e.From+"->"+e.To)
		}
	}
	return out
}

type testEnv struct {
	store        *repository.MemoryStore
	redis        *miniredis.Miniredis
	rdb          *redis.Client
	documents    *fakeDocuments
	notifier     *recordingNotifier
	audit        *recordingAudit
	cache        *CacheService
	invites      *InviteStore
	verification *VerificationService
	therapists   *TherapistApplicationService
	clinics      *ClinicApplicationService
	reports      *ReportService
	auth         *AuthService
	directory    *DirectoryService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	log := logger.NewTestLogger(t)
	env := &testEnv{
		store:     repository.NewMemoryStore(),
		redis:     mr,
		rdb:       rdb,
		documents: &fakeDocuments{},
		notifier:  &recordingNotifier{},
		audit:     &recordingAudit{},
	}
	env.cache = NewCacheService(rdb, time.Hour)
	env.invites = NewInviteStore(rdb, 7*24*time.Hour, "https://app.test/clinic-invite")
	env.verification = NewVerificationService(env.store, env.cache, env.audit, log)
	env.therapists = NewTherapistApplicationService(env.store, env.verification, fakeUploader{}, env.notifier, env.audit, log)
	env.clinics = NewClinicApplicationService(env.store, env.verification, env.documents, env.invites, env.notifier, env.audit, log, 5*time.Minute)
	env.reports = NewReportService(env.store, env.verification, env.audit, log)
	env.auth = NewAuthService(env.store, NewSessionStore(rdb, time.Hour), log)
	env.directory = NewDirectoryService(env.store, env.cache, log)
	return env
}

func strPtr(s string) *string { return &s }

// pdfUpload returns a minimal document that sniffs as a PDF.
func pdfUpload(t *testing.T) *Upload {
	t.Helper()
	body := []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n%%EOF\n")
	upload, err := NewUpload("license.pdf", int64(len(body)), bytes.NewReader(body))
	require.NoError(t, err)
	return upload
}

// approvedPsychologist walks a therapist application through approval and returns the profile id.
func (e *testEnv) approvedPsychologist(t *testing.T, who models.Identity, name string) string {
	t.Helper()
	ctx := context.Background()
	_, err := e.therapists.Upsert(ctx, who, models.TherapistApplicationDraft{
		ProfessionalName: strPtr(name),
		Email:            strPtr(who.UserID + "@example.com"),
	})
	require.NoError(t, err)
	app, err := e.therapists.Submit(ctx, who)
	require.NoError(t, err)
	app, err = e.therapists.Review(ctx, admin, app.ID, ReviewInput{Status: "approved"})
	require.NoError(t, err)
	require.NotNil(t, app.PsychologistID)
	return *app.PsychologistID
}
