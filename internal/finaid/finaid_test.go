package finaid

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/micromasters/dashboard-api/internal/common"
)

func TestPending(t *testing.T) {
	cases := []struct {
		name    string
		state   State
		pending bool
	}{
		{"never applied", State{}, false},
		{"created", State{HasUserApplied: true, ApplicationStatus: StatusCreated}, true},
		{"pending docs", State{HasUserApplied: true, ApplicationStatus: StatusPendingDocs}, true},
		{"docs sent", State{HasUserApplied: true, ApplicationStatus: StatusDocsSent}, true},
		{"manual review", State{HasUserApplied: true, ApplicationStatus: StatusPendingManualApproval}, true},
		{"approved", State{HasUserApplied: true, ApplicationStatus: StatusApproved}, false},
		{"auto approved", State{HasUserApplied: true, ApplicationStatus: StatusAutoApproved}, false},
		{"skipped", State{HasUserApplied: true, ApplicationStatus: StatusSkipped}, false},
		{"reset", State{HasUserApplied: true, ApplicationStatus: StatusReset}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.pending, tc.state.Pending())
		})
	}
}

type fakeStateLoader struct {
	state State
	err   error
}

func (f fakeStateLoader) StateFor(ctx context.Context, userID uuid.UUID, programID int64) (State, error) {
	if f.err != nil {
		return State{}, f.err
	}
	state := f.state
	state.ProgramID = programID
	return state, nil
}

func serveState(t *testing.T, handler *Handler, target string, userID string) *httptest.ResponseRecorder {
	t.Helper()
	router := chi.NewRouter()
	router.Get("/api/v1/financial_aid/{programID}", handler.State)

	req := httptest.NewRequest(http.MethodGet, target, nil)
	if userID != "" {
		req = req.WithContext(common.WithUserID(req.Context(), userID))
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestStateHandler(t *testing.T) {
	handler := &Handler{Store: fakeStateLoader{state: State{
		HasUserApplied:    true,
		ApplicationStatus: StatusPendingDocs,
		MinPossibleCost:   decimal.NewFromInt(100),
		MaxPossibleCost:   decimal.NewFromInt(1000),
	}}}

	rec := serveState(t, handler, "/api/v1/financial_aid/7", uuid.New().String())

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"program_id":7`)
	require.Contains(t, rec.Body.String(), string(StatusPendingDocs))
}

func TestStateHandlerRequiresAuth(t *testing.T) {
	handler := &Handler{Store: fakeStateLoader{}}

	rec := serveState(t, handler, "/api/v1/financial_aid/7", "")

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStateHandlerRejectsBadProgramID(t *testing.T) {
	handler := &Handler{Store: fakeStateLoader{}}

	rec := serveState(t, handler, "/api/v1/financial_aid/abc", uuid.New().String())

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
