// Package apptest runs the full HTTP stack over the in-memory store and miniredis.
package apptest

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/AnshRaj112/mindfulkids-backend/internal/handlers"
	"github.com/AnshRaj112/mindfulkids-backend/internal/logger"
	"github.com/AnshRaj112/mindfulkids-backend/internal/middleware"
	"github.com/AnshRaj112/mindfulkids-backend/internal/repository"
	"github.com/AnshRaj112/mindfulkids-backend/internal/routes"
	"github.com/AnshRaj112/mindfulkids-backend/internal/services"
	"github.com/AnshRaj112/mindfulkids-backend/pkg/clientip"
)

const (
	AdminEmail    = "admin@mindfulkids.test"
	AdminPassword = "admin-password"
	InviteBaseURL = "https://app.test/clinic-invite"
)

// Documents keeps clinic documents in memory.
type Documents struct {
	mu      sync.Mutex
	Objects map[string][]byte
}

func (d *Documents) Put(_ context.Context, key string, upload *services.Upload) error {
	data, err := io.ReadAll(upload.Body)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Objects == nil {
		d.Objects = map[string][]byte{}
	}
	d.Objects[key] = data
	return nil
}

func (d *Documents) PresignedURL(_ context.Context, key string, ttl time.Duration) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.Objects[key]; !ok {
		return "", errors.New("no such object")
	}
	return "https://files.test/" + key + "?expires=" + ttl.String(), nil
}

type uploader struct{}

func (uploader) UploadCredential(_ context.Context, userID string, upload *services.Upload) (string, error) {
	return "https://cdn.test/therapist-credentials/" + userID + "/" + upload.Filename, nil
}

type Server struct {
	*httptest.Server
	Store     *repository.MemoryStore
	Redis     *miniredis.Miniredis
	Documents *Documents
	Auth      *services.AuthService
}

// New starts a server with a provisioned platform admin. SubmissionLimit caps both public
// submission limiters; zero disables them.
func New(t testing.TB, submissionLimit int) *Server {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	log := logger.NewTestLogger(t)
	store := repository.NewMemoryStore()
	docs := &Documents{}
	audit := services.NewLogAuditRecorder(log)
	notifier := services.NewLogNotifier(log)
	cache := services.NewCacheService(rdb, 0)

	verification := services.NewVerificationService(store, cache, audit, log)
	auth := services.NewAuthService(store, services.NewSessionStore(rdb, time.Hour), log)
	h := handlers.New(handlers.Services{
		Auth:                  auth,
		TherapistApplications: services.NewTherapistApplicationService(store, verification, uploader{}, notifier, audit, log),
		ClinicApplications: services.NewClinicApplicationService(store, verification, docs,
			services.NewInviteStore(rdb, 7*24*time.Hour, InviteBaseURL), notifier, audit, log, 5*time.Minute),
		Verification: verification,
		Reports:      services.NewReportService(store, verification, audit, log),
		Directory:    services.NewDirectoryService(store, cache, log),
	}, log)

	opts := routes.Options{}
	if submissionLimit > 0 {
		opts.ClinicSubmissions = middleware.NewSubmissionLimiter(rdb, "clinic_applications", submissionLimit, time.Hour, clientip.RealClientIP, log)
		opts.Reports = middleware.NewSubmissionLimiter(rdb, "reports", submissionLimit, time.Hour, clientip.RealClientIP, log)
	}
	srv := httptest.NewServer(routes.NewRouter(h, auth, log, opts))
	t.Cleanup(srv.Close)

	_, err := auth.ProvisionAdmin(context.Background(), AdminEmail, AdminPassword, "Admin")
	require.NoError(t, err)

	return &Server{Server: srv, Store: store, Redis: mr, Documents: docs, Auth: auth}
}
