package scores_test

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
	"github.com/JaimeStill/certify/internal/scores"
	"github.com/JaimeStill/certify/pkg/auth"
	"github.com/JaimeStill/certify/pkg/pagination"
	"github.com/JaimeStill/certify/pkg/routes"
)

type mockSystem struct {
	submitFn func(ctx context.Context, categoryID uuid.UUID, cmd scores.SubmitCommand, judge auth.Identity) (*scores.Score, bool, error)
	listFn   func(ctx context.Context, categoryID uuid.UUID, page pagination.PageRequest, filters scores.Filters) (*pagination.PageResult[scores.Score], error)
	statusFn func(ctx context.Context, categoryID uuid.UUID) (*scores.Status, error)
}

func (m *mockSystem) Handler() *scores.Handler {
	return scores.NewHandler(m, slog.New(slog.NewTextHandler(io.Discard, nil)), pagination.Config{DefaultPageSize: 20, MaxPageSize: 100})
}

func (m *mockSystem) Submit(ctx context.Context, categoryID uuid.UUID, cmd scores.SubmitCommand, judge auth.Identity) (*scores.Score, bool, error) {
	return m.submitFn(ctx, categoryID, cmd, judge)
}

func (m *mockSystem) List(ctx context.Context, categoryID uuid.UUID, page pagination.PageRequest, filters scores.Filters) (*pagination.PageResult[scores.Score], error) {
	return m.listFn(ctx, categoryID, page, filters)
}

func (m *mockSystem) Status(ctx context.Context, categoryID uuid.UUID) (*scores.Status, error) {
	return m.statusFn(ctx, categoryID)
}

func do(sys *mockSystem, id *auth.Identity, method, target, body string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	routes.Register(mux, sys.Handler().Routes())

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if id != nil {
		req = req.WithContext(auth.WithIdentity(req.Context(), id))
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHandlerSubmit(t *testing.T) {
	categoryID := uuid.New()
	judge := &auth.Identity{ID: "judge-1", Role: "JUDGE"}

	tests := []struct {
		name       string
		id         *auth.Identity
		created    bool
		err        error
		wantStatus int
	}{
		{"new score", judge, true, nil, http.StatusCreated},
		{"updated score", judge, false, nil, http.StatusOK},
		{"certified conflict", judge, false, scores.ErrCertified, http.StatusConflict},
		{"locked event", judge, false, events.ErrLocked, http.StatusConflict},
		{"unknown category", judge, false, events.ErrCategoryNotFound, http.StatusNotFound},
		{"auditor forbidden", &auth.Identity{ID: "a", Role: "AUDITOR"}, false, nil, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys := &mockSystem{
				submitFn: func(_ context.Context, id uuid.UUID, cmd scores.SubmitCommand, actor auth.Identity) (*scores.Score, bool, error) {
					if tt.err != nil {
						return nil, false, tt.err
					}
					return &scores.Score{CategoryID: id, JudgeID: actor.ID, ContestantID: cmd.ContestantID, Value: cmd.Value}, tt.created, nil
				},
			}

			body := `{"contestantId":"c-1","criterionId":"` + uuid.NewString() + `","value":"8.5"}`
			rec := do(sys, tt.id, "POST", "/categories/"+categoryID.String()+"/scores", body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestHandlerListScopesJudges(t *testing.T) {
	var captured scores.Filters
	sys := &mockSystem{
		listFn: func(_ context.Context, _ uuid.UUID, _ pagination.PageRequest, f scores.Filters) (*pagination.PageResult[scores.Score], error) {
			captured = f
			result := pagination.NewPageResult([]scores.Score{}, 0, 1, 20)
			return &result, nil
		},
	}
	target := "/categories/" + uuid.NewString() + "/scores?judgeId=judge-2&certified=false"

	rec := do(sys, &auth.Identity{ID: "judge-1", Role: "JUDGE"}, "GET", target, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if captured.JudgeID == nil || *captured.JudgeID != "judge-1" {
		t.Errorf("judge filter = %v, want judge-1", captured.JudgeID)
	}
	if captured.Certified == nil || *captured.Certified {
		t.Errorf("certified filter = %v, want false", captured.Certified)
	}

	rec = do(sys, &auth.Identity{ID: "t", Role: "TALLY_MASTER"}, "GET", target, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if captured.JudgeID == nil || *captured.JudgeID != "judge-2" {
		t.Errorf("judge filter = %v, want judge-2", captured.JudgeID)
	}
}

func TestHandlerStatus(t *testing.T) {
	sys := &mockSystem{
		statusFn: func(context.Context, uuid.UUID) (*scores.Status, error) {
			s := scores.NewStatus(12, 0)
			return &s, nil
		},
	}

	rec := do(sys, &auth.Identity{ID: "a", Role: "AUDITOR"}, "GET", "/categories/"+uuid.NewString()+"/score-status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var env struct {
		Data scores.Status `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Data.Total != 12 || !env.Data.Completed {
		t.Errorf("status = %+v", env.Data)
	}
}
