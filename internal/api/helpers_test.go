package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/huddle-api/internal/api/shared"
	"github.com/phrazzld/huddle-api/internal/mocks"
	"github.com/stretchr/testify/require"
)

// newTestRouter mounts the handlers the way the server does, with the member
// set directly instead of through token authentication.
func newTestRouter(
	cycles *mocks.MockCycleService,
	memberships *mocks.MockMembershipService,
	memberID uuid.UUID,
) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := shared.SetTraceID(req.Context())
			if memberID != uuid.Nil {
				ctx = shared.WithMemberID(ctx, memberID)
			}
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})

	if cycles != nil {
		h := NewCycleHandler(cycles, nil)
		r.Post("/api/admin/cycles", h.RunCycle)
		r.Get("/api/admin/cycles/{cycle}", h.GetCycle)
	}
	if memberships != nil {
		h := NewGroupHandler(memberships, nil)
		r.Get("/api/groups", h.ListGroups)
		r.Post("/api/groups/{id}/join", h.JoinGroup)
		r.Post("/api/groups/{id}/pass", h.PassGroup)
	}
	return r
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}
