package removals_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/JaimeStill/certify/internal/events"
	"github.com/JaimeStill/certify/internal/removals"
	"github.com/JaimeStill/certify/pkg/auth"
	"github.com/JaimeStill/certify/pkg/pagination"
	"github.com/JaimeStill/certify/pkg/routes"
)

type mockSystem struct {
	listFn    func(ctx context.Context, page pagination.PageRequest, filters removals.Filters) (*pagination.PageResult[removals.Request], error)
	findFn    func(ctx context.Context, id uuid.UUID) (*removals.Request, error)
	createFn  func(ctx context.Context, cmd removals.CreateCommand, actor auth.Identity) (*removals.Request, error)
	signFn    func(ctx context.Context, id uuid.UUID, cmd removals.SignCommand, actor auth.Identity) (*removals.SignResult, error)
	rejectFn  func(ctx context.Context, id uuid.UUID, cmd removals.RejectCommand, actor auth.Identity) (*removals.Request, error)
	executeFn func(ctx context.Context, id uuid.UUID, actor auth.Identity) (*removals.ExecuteResult, error)
}

func (m *mockSystem) Handler() *removals.Handler {
	return removals.NewHandler(m, slog.New(slog.NewTextHandler(io.Discard, nil)), pagination.Config{DefaultPageSize: 20, MaxPageSize: 100})
}

func (m *mockSystem) List(ctx context.Context, page pagination.PageRequest, filters removals.Filters) (*pagination.PageResult[removals.Request], error) {
	return m.listFn(ctx, page, filters)
}

func (m *mockSystem) Find(ctx context.Context, id uuid.UUID) (*removals.Request, error) {
	return m.findFn(ctx, id)
}

func (m *mockSystem) Create(ctx context.Context, cmd removals.CreateCommand, actor auth.Identity) (*removals.Request, error) {
	return m.createFn(ctx, cmd, actor)
}

func (m *mockSystem) Sign(ctx context.Context, id uuid.UUID, cmd removals.SignCommand, actor auth.Identity) (*removals.SignResult, error) {
	return m.signFn(ctx, id, cmd, actor)
}

func (m *mockSystem) Reject(ctx context.Context, id uuid.UUID, cmd removals.RejectCommand, actor auth.Identity) (*removals.Request, error) {
	return m.rejectFn(ctx, id, cmd, actor)
}

func (m *mockSystem) Execute(ctx context.Context, id uuid.UUID, actor auth.Identity) (*removals.ExecuteResult, error) {
	return m.executeFn(ctx, id, actor)
}

func do(sys *mockSystem, actor auth.Identity, method, target, body string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	routes.Register(mux, sys.Handler().Routes())

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req = req.WithContext(auth.WithIdentity(req.Context(), &actor))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHandlerListScopesJudges(t *testing.T) {
	var got removals.Filters
	sys := &mockSystem{
		listFn: func(_ context.Context, _ pagination.PageRequest, filters removals.Filters) (*pagination.PageResult[removals.Request], error) {
			got = filters
			result := pagination.NewPageResult[removals.Request](nil, 0, 1, 20)
			return &result, nil
		},
	}

	rec := do(sys, auth.Identity{ID: "judge-1", Role: "JUDGE"}, "GET", "/score-removal-requests?judgeId=judge-9&status=pending", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if got.JudgeID == nil || *got.JudgeID != "judge-1" {
		t.Errorf("judgeId = %v, want judge-1", got.JudgeID)
	}
	if got.Status == nil || *got.Status != "PENDING" {
		t.Errorf("status = %v", got.Status)
	}

	do(sys, auth.Identity{ID: "board-1", Role: "BOARD"}, "GET", "/score-removal-requests?judgeId=judge-9", "")
	if got.JudgeID == nil || *got.JudgeID != "judge-9" {
		t.Errorf("board judgeId = %v, want judge-9", got.JudgeID)
	}
}

func TestHandlerCreate(t *testing.T) {
	categoryID := uuid.New()

	tests := []struct {
		name       string
		role       string
		err        error
		wantStatus int
	}{
		{"judge", "JUDGE", nil, http.StatusCreated},
		{"tally", "TALLY_MASTER", nil, http.StatusCreated},
		{"admin", "ADMIN", nil, http.StatusCreated},
		{"duplicate pending", "JUDGE", removals.ErrDuplicatePending, http.StatusConflict},
		{"invalid", "JUDGE", removals.ErrInvalid, http.StatusUnprocessableEntity},
		{"auditor not permitted", "AUDITOR", nil, http.StatusForbidden},
		{"board not permitted", "BOARD", nil, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys := &mockSystem{
				createFn: func(_ context.Context, cmd removals.CreateCommand, actor auth.Identity) (*removals.Request, error) {
					if tt.err != nil {
						return nil, tt.err
					}
					return &removals.Request{ID: uuid.New(), CategoryID: cmd.CategoryID, JudgeID: cmd.JudgeID, RequestedBy: actor.ID, Status: removals.StatusPending}, nil
				},
			}

			body := `{"categoryId":"` + categoryID.String() + `","judgeId":"judge-1","reason":"wrong contestant"}`
			rec := do(sys, auth.Identity{ID: "judge-1", Role: tt.role}, "POST", "/score-removal-requests", body)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestHandlerSign(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name       string
		role       string
		body       string
		err        error
		wantStatus int
	}{
		{"tally without body", "TALLY_MASTER", "", nil, http.StatusOK},
		{"auditor with signature", "AUDITOR", `{"signatureName":"A. U."}`, nil, http.StatusOK},
		{"already signed", "BOARD", "", removals.ErrAlreadySigned, http.StatusConflict},
		{"role mismatch", "BOARD", `{"role":"AUDITOR"}`, removals.ErrSignerRole, http.StatusForbidden},
		{"missing", "BOARD", "", removals.ErrNotFound, http.StatusNotFound},
		{"judge not permitted", "JUDGE", "", nil, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys := &mockSystem{
				signFn: func(_ context.Context, got uuid.UUID, _ removals.SignCommand, _ auth.Identity) (*removals.SignResult, error) {
					if tt.err != nil {
						return nil, tt.err
					}
					return &removals.SignResult{Request: &removals.Request{ID: got}, AllSigned: false}, nil
				},
			}

			rec := do(sys, auth.Identity{ID: "u1", Role: tt.role}, "POST", "/score-removal-requests/"+id.String()+"/sign", tt.body)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestHandlerReject(t *testing.T) {
	id := uuid.New()
	var reason string

	sys := &mockSystem{
		rejectFn: func(_ context.Context, got uuid.UUID, cmd removals.RejectCommand, _ auth.Identity) (*removals.Request, error) {
			reason = cmd.Reason
			return &removals.Request{ID: got, Status: removals.StatusRejected}, nil
		},
	}

	rec := do(sys, auth.Identity{ID: "a1", Role: "ADMIN"}, "POST", "/score-removal-requests/"+id.String()+"/reject", `{"reason":"duplicate"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if reason != "duplicate" {
		t.Errorf("reason = %q", reason)
	}

	rec = do(sys, auth.Identity{ID: "j1", Role: "JUDGE"}, "POST", "/score-removal-requests/"+id.String()+"/reject", "")
	if rec.Code != http.StatusForbidden {
		t.Errorf("judge reject status = %d, want 403", rec.Code)
	}
}

func TestHandlerExecute(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name       string
		role       string
		err        error
		wantStatus int
	}{
		{"board", "BOARD", nil, http.StatusOK},
		{"admin", "ADMIN", nil, http.StatusOK},
		{"unsigned", "BOARD", removals.ErrNotSigned, http.StatusUnprocessableEntity},
		{"terminal", "BOARD", removals.ErrTerminal, http.StatusConflict},
		{"locked event", "BOARD", events.ErrLocked, http.StatusConflict},
		{"tally not permitted", "TALLY_MASTER", nil, http.StatusForbidden},
		{"auditor not permitted", "AUDITOR", nil, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys := &mockSystem{
				executeFn: func(_ context.Context, got uuid.UUID, _ auth.Identity) (*removals.ExecuteResult, error) {
					if tt.err != nil {
						return nil, tt.err
					}
					return &removals.ExecuteResult{DeletedCount: 6, Request: &removals.Request{ID: got, Status: removals.StatusExecuted}}, nil
				},
			}

			rec := do(sys, auth.Identity{ID: "u1", Role: tt.role}, "POST", "/score-removal-requests/"+id.String()+"/execute", "")
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			var env struct {
				Data struct {
					DeletedCount int `json:"deletedCount"`
				} `json:"data"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
				t.Fatal(err)
			}
			if env.Data.DeletedCount != 6 {
				t.Errorf("deletedCount = %d, want 6", env.Data.DeletedCount)
			}
		})
	}
}

func TestHandlerFindInvalidID(t *testing.T) {
	rec := do(&mockSystem{}, auth.Identity{ID: "u1", Role: "BOARD"}, "GET", "/score-removal-requests/not-a-uuid", "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rec.Code)
	}
}
