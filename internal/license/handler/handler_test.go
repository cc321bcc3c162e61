package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	applicantmodels "dlms/internal/applicant/models"
	applicantstore "dlms/internal/applicant/store"
	"dlms/internal/license/models"
	"dlms/internal/license/service"
	"dlms/internal/license/store"
	id "dlms/pkg/domain"
	"dlms/pkg/platform/tx"
	"dlms/pkg/requestcontext"
	"dlms/pkg/testutil"
)

func TestLicenseEndpoints(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)

	applicants := applicantstore.NewInMemoryStore()
	a, err := applicantmodels.NewApplicant(id.NewApplicantID(), "40111222", "Ana", "Ruiz", now.AddDate(-30, 0, 0), now)
	require.NoError(t, err)
	require.NoError(t, applicants.Create(ctx, a))

	svc := service.New(store.NewInMemoryStore(), applicants, tx.NewShardedRunner(0))
	issued, err := svc.Issue(ctx, service.IssueRequest{ProcedureID: id.NewProcedureID(), ApplicantID: a.ID, ProcedureType: id.ProcedureFirstIssuance, Class: id.ClassB})
	require.NoError(t, err)

	r := chi.NewRouter()
	New(svc, nil).Register(r)

	t.Run("get by id and number", func(t *testing.T) {
		rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/licenses/"+issued.ID.String()))
		testutil.AssertStatusOK(t, rr)
		testutil.AssertJSONContains(t, rr, "status", "valid")

		rr = testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/licenses/by-number/"+issued.Number))
		testutil.AssertStatusOK(t, rr)
		testutil.AssertJSONContains(t, rr, "id", issued.ID.String())
	})

	t.Run("list by applicant requires a valid id", func(t *testing.T) {
		rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/licenses?applicant_id=nope"))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "invalid_input")

		rr = testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/licenses?applicant_id="+a.ID.String()))
		testutil.AssertStatusOK(t, rr)
		list := testutil.UnmarshalResponse[[]models.License](t, rr)
		require.Len(t, *list, 1)
		assert.Equal(t, issued.ProcedureID, (*list)[0].ProcedureID)
		assert.Nil(t, (*list)[0].SupersededBy)
	})

	t.Run("expiring rejects non-numeric days", func(t *testing.T) {
		rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/licenses/expiring?days=soon"))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "invalid_input")
	})

	t.Run("suspend then reinstate", func(t *testing.T) {
		req := testutil.WithTime(testutil.NewJSONRequest(t, http.MethodPost, "/licenses/"+issued.ID.String()+"/suspend", map[string]any{"reason": "medical review"}), now)
		rr := testutil.DoRequest(r, req)
		testutil.AssertStatusOK(t, rr)
		testutil.AssertJSONContains(t, rr, "status", "suspended")

		rr = testutil.DoRequest(r, testutil.WithTime(testutil.NewRequest(t, http.MethodPost, "/licenses/"+issued.ID.String()+"/reinstate"), now))
		testutil.AssertStatusOK(t, rr)
		testutil.AssertJSONContains(t, rr, "status", "valid")
	})

	t.Run("suspend without reason", func(t *testing.T) {
		rr := testutil.DoRequest(r, testutil.NewJSONRequest(t, http.MethodPost, "/licenses/"+issued.ID.String()+"/suspend", map[string]any{}))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "invalid_input")
	})

	t.Run("expire overdue reports count", func(t *testing.T) {
		rr := testutil.DoRequest(r, testutil.WithTime(testutil.NewRequest(t, http.MethodPost, "/licenses/expire-overdue"), now))
		testutil.AssertStatusOK(t, rr)
		testutil.AssertJSONContains(t, rr, "expired", float64(0))
	})

	t.Run("unknown number is 404", func(t *testing.T) {
		rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/licenses/by-number/19990101-000000"))
		testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
	})
}
