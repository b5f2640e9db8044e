package certifications_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/JaimeStill/certify/internal/certifications"
	"github.com/JaimeStill/certify/internal/events"
	"github.com/JaimeStill/certify/internal/progress"
	"github.com/JaimeStill/certify/pkg/auth"
	"github.com/JaimeStill/certify/pkg/routes"
)

type mockSystem struct {
	certifyScoresFn  func(ctx context.Context, id uuid.UUID, cmd certifications.SignCommand, actor auth.Identity) (*certifications.CertifyResult, error)
	finalStatusFn    func(ctx context.Context, id uuid.UUID) (*progress.Category, error)
	submitFinalFn    func(ctx context.Context, id uuid.UUID, cmd certifications.SignCommand, actor auth.Identity) (*certifications.Certification, error)
	certifyContestFn func(ctx context.Context, id uuid.UUID, cmd certifications.SignCommand, actor auth.Identity) (*certifications.Certification, error)
	resetFn          func(ctx context.Context, id uuid.UUID, cmd certifications.ResetCommand, actor auth.Identity) (*certifications.ResetResult, error)
	listFn           func(ctx context.Context, id uuid.UUID) ([]certifications.Certification, error)
	listContestFn    func(ctx context.Context, id uuid.UUID, filters certifications.HistoryFilters) ([]certifications.Certification, error)
}

func (m *mockSystem) Handler() *certifications.Handler {
	return certifications.NewHandler(m, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func (m *mockSystem) CertifyScores(ctx context.Context, id uuid.UUID, cmd certifications.SignCommand, actor auth.Identity) (*certifications.CertifyResult, error) {
	return m.certifyScoresFn(ctx, id, cmd, actor)
}

func (m *mockSystem) FinalStatus(ctx context.Context, id uuid.UUID) (*progress.Category, error) {
	return m.finalStatusFn(ctx, id)
}

func (m *mockSystem) SubmitFinal(ctx context.Context, id uuid.UUID, cmd certifications.SignCommand, actor auth.Identity) (*certifications.Certification, error) {
	return m.submitFinalFn(ctx, id, cmd, actor)
}

func (m *mockSystem) CertifyContest(ctx context.Context, id uuid.UUID, cmd certifications.SignCommand, actor auth.Identity) (*certifications.Certification, error) {
	return m.certifyContestFn(ctx, id, cmd, actor)
}

func (m *mockSystem) Reset(ctx context.Context, id uuid.UUID, cmd certifications.ResetCommand, actor auth.Identity) (*certifications.ResetResult, error) {
	return m.resetFn(ctx, id, cmd, actor)
}

func (m *mockSystem) List(ctx context.Context, id uuid.UUID) ([]certifications.Certification, error) {
	return m.listFn(ctx, id)
}

func (m *mockSystem) ListContest(ctx context.Context, id uuid.UUID, filters certifications.HistoryFilters) ([]certifications.Certification, error) {
	return m.listContestFn(ctx, id, filters)
}

func do(sys *mockSystem, role, method, target, body string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	routes.Register(mux, sys.Handler().Routes())

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req = req.WithContext(auth.WithIdentity(req.Context(), &auth.Identity{ID: "user-1", Role: role}))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHandlerCertifyScores(t *testing.T) {
	categoryID := uuid.New()

	tests := []struct {
		name       string
		role       string
		body       string
		err        error
		wantStatus int
	}{
		{"judge without body", "JUDGE", "", nil, http.StatusOK},
		{"tally with signature", "TALLY_MASTER", `{"signatureName":"T. M."}`, nil, http.StatusOK},
		{"incomplete grid", "TALLY_MASTER", "", certifications.ErrIncomplete, http.StatusUnprocessableEntity},
		{"already certified", "JUDGE", "", certifications.ErrAlreadyCertified, http.StatusConflict},
		{"locked event", "JUDGE", "", events.ErrLocked, http.StatusConflict},
		{"role mismatch", "JUDGE", `{"role":"TALLY_MASTER"}`, certifications.ErrRoleMismatch, http.StatusForbidden},
		{"auditor not permitted", "AUDITOR", "", nil, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys := &mockSystem{
				certifyScoresFn: func(_ context.Context, _ uuid.UUID, _ certifications.SignCommand, actor auth.Identity) (*certifications.CertifyResult, error) {
					if tt.err != nil {
						return nil, tt.err
					}
					return &certifications.CertifyResult{Role: actor.Role}, nil
				},
			}

			rec := do(sys, tt.role, "POST", "/categories/"+categoryID.String()+"/certify", tt.body)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestHandlerSubmitFinal(t *testing.T) {
	categoryID := uuid.New()
	var submitted certifications.SignCommand

	sys := &mockSystem{
		submitFinalFn: func(_ context.Context, id uuid.UUID, cmd certifications.SignCommand, actor auth.Identity) (*certifications.Certification, error) {
			submitted = cmd
			return &certifications.Certification{ID: uuid.New(), CategoryID: &id, Role: "AUDITOR", UserID: actor.ID}, nil
		},
		finalStatusFn: func(_ context.Context, id uuid.UUID) (*progress.Category, error) {
			return &progress.Category{CategoryID: id}, nil
		},
	}

	rec := do(sys, "AUDITOR", "POST", "/categories/"+categoryID.String()+"/final-certification", `{"signatureName":"Dana","comments":"verified"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	if submitted.SignatureName != "Dana" || submitted.Comments != "verified" {
		t.Errorf("cmd = %+v", submitted)
	}

	rec = do(sys, "ADMIN", "GET", "/categories/"+categoryID.String()+"/final-certification", "")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}

	rec = do(sys, "TALLY_MASTER", "POST", "/categories/"+categoryID.String()+"/final-certification", "")
	if rec.Code != http.StatusForbidden {
		t.Errorf("tally: status = %d, want 403", rec.Code)
	}

	sys.submitFinalFn = func(context.Context, uuid.UUID, certifications.SignCommand, auth.Identity) (*certifications.Certification, error) {
		return nil, certifications.ErrAlreadyCertified
	}
	rec = do(sys, "AUDITOR", "POST", "/categories/"+categoryID.String()+"/final-certification", "")
	if rec.Code != http.StatusConflict {
		t.Errorf("resubmit: status = %d, want 409", rec.Code)
	}
}

func TestHandlerCertifyContest(t *testing.T) {
	contestID := uuid.New()
	sys := &mockSystem{
		certifyContestFn: func(_ context.Context, id uuid.UUID, _ certifications.SignCommand, _ auth.Identity) (*certifications.Certification, error) {
			return &certifications.Certification{ID: uuid.New(), ContestID: &id, Role: "BOARD"}, nil
		},
	}

	if rec := do(sys, "BOARD", "POST", "/contests/"+contestID.String()+"/certify", ""); rec.Code != http.StatusCreated {
		t.Errorf("board: status = %d, want 201", rec.Code)
	}
	if rec := do(sys, "AUDITOR", "POST", "/contests/"+contestID.String()+"/certify", ""); rec.Code != http.StatusForbidden {
		t.Errorf("auditor: status = %d, want 403", rec.Code)
	}
}

func TestHandlerReset(t *testing.T) {
	categoryID := uuid.New()
	var captured certifications.ResetCommand

	sys := &mockSystem{
		resetFn: func(_ context.Context, _ uuid.UUID, cmd certifications.ResetCommand, actor auth.Identity) (*certifications.ResetResult, error) {
			captured = cmd
			if err := cmd.Normalize(actor); err != nil {
				return nil, err
			}
			return &certifications.ResetResult{Revoked: []certifications.Certification{}}, nil
		},
	}

	rec := do(sys, "TALLY_MASTER", "POST", "/categories/"+categoryID.String()+"/certifications/reset", `{"role":"TALLY_MASTER","reason":"recount"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if captured.Reason != "recount" {
		t.Errorf("reason = %q", captured.Reason)
	}

	rec = do(sys, "TALLY_MASTER", "POST", "/categories/"+categoryID.String()+"/certifications/reset", `{"role":"BOARD"}`)
	if rec.Code != http.StatusForbidden {
		t.Errorf("escalation: status = %d, want 403", rec.Code)
	}

	rec = do(sys, "ORGANIZER", "POST", "/categories/"+categoryID.String()+"/certifications/reset", `{"role":"JUDGE"}`)
	if rec.Code != http.StatusForbidden {
		t.Errorf("organizer: status = %d, want 403", rec.Code)
	}
}

func TestHandlerListContestFilters(t *testing.T) {
	contestID := uuid.New()

	tests := []struct {
		name       string
		query      string
		wantRoles  []string
		wantActive *bool
	}{
		{"no filters", "", nil, nil},
		{"repeated roles", "?role=tally_master&role=AUDITOR", []string{"TALLY_MASTER", "AUDITOR"}, nil},
		{"comma roles", "?role=JUDGE,%20BOARD", []string{"JUDGE", "BOARD"}, nil},
		{"revoked only", "?active=false", nil, ptr(false)},
		{"active only", "?active=true&role=JUDGE", []string{"JUDGE"}, ptr(true)},
		{"unparsable active", "?active=maybe", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got certifications.HistoryFilters
			sys := &mockSystem{
				listContestFn: func(_ context.Context, id uuid.UUID, filters certifications.HistoryFilters) ([]certifications.Certification, error) {
					if id != contestID {
						t.Errorf("contest = %s, want %s", id, contestID)
					}
					got = filters
					return []certifications.Certification{}, nil
				},
			}

			rec := do(sys, "ORGANIZER", "GET", "/contests/"+contestID.String()+"/certifications"+tt.query, "")
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
			}
			if !slices.Equal(got.Roles, tt.wantRoles) {
				t.Errorf("roles = %v, want %v", got.Roles, tt.wantRoles)
			}
			switch {
			case tt.wantActive == nil && got.Active != nil:
				t.Errorf("active = %v, want nil", *got.Active)
			case tt.wantActive != nil && (got.Active == nil || *got.Active != *tt.wantActive):
				t.Errorf("active = %v, want %v", got.Active, *tt.wantActive)
			}
		})
	}
}

func ptr[T any](v T) *T { return &v }
