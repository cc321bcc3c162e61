package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dlms/internal/platform/config"
	httptransport "dlms/internal/transport/http"
	"dlms/pkg/testutil"
)

// TestInMemoryApp drives a full first issuance and a booking conflict through
// the wired router with in-memory stores.
func TestInMemoryApp(t *testing.T) {
	a, err := newApp(context.Background(), config.Server{TxTimeout: time.Second}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(a.Close)
	router := httptransport.NewRouter(a.routerConfig())

	post := func(t *testing.T, path string, body any) map[string]any {
		t.Helper()
		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, path, body))
		require.Less(t, rr.Code, 300, rr.Body.String())
		return *testutil.UnmarshalResponse[map[string]any](t, rr)
	}

	now := time.Now().UTC()
	applicant := post(t, "/applicants", map[string]any{
		"national_id": "X-1001",
		"first_name":  "Lucia",
		"last_name":   "Prieto",
		"birth_date":  now.AddDate(-30, 0, -1).Format(time.DateOnly),
		"address":     "Calle Sol 4",
	})
	applicantID := applicant["id"].(string)

	testutil.Given(t, "a first issuance procedure", func(t *testing.T) {
		procedure := post(t, "/procedures", map[string]any{"applicant_id": applicantID, "type": "first_issuance", "class": "B"})
		base := "/procedures/" + procedure["id"].(string)

		testutil.When(t, "every gate passes in order", func(t *testing.T) {
			post(t, base+"/documentation", map[string]any{"agent": "clerk-1"})
			post(t, base+"/medical", map[string]any{"passed": true})
			post(t, base+"/theory", map[string]any{"passed": true})
			post(t, base+"/practical", map[string]any{"passed": true})
			paid := post(t, base+"/payment", map[string]any{"confirmed": true})
			assert.Equal(t, "payment_ok", paid["status"])
			issued := post(t, base+"/issue", nil)

			testutil.Then(t, "the procedure is issued and the license is valid", func(t *testing.T) {
				assert.Equal(t, "issued", issued["status"])
				require.NotEmpty(t, issued["license_id"])

				rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/licenses/"+issued["license_id"].(string)))
				testutil.AssertStatusOK(t, rr)
				testutil.AssertJSONContains(t, rr, "status", "valid")
			})
		})
	})

	testutil.Given(t, "a booked exam track", func(t *testing.T) {
		track := post(t, "/resources", map[string]any{"name": "Track A", "type": "exam_track", "opens_at": "08:00", "closes_at": "18:00"})
		tomorrow := time.Date(now.Year(), now.Month(), now.Day()+1, 10, 0, 0, 0, time.UTC)
		post(t, "/appointments", map[string]any{
			"applicant_id": applicantID,
			"resource_id":  track["id"],
			"type":         "practical_exam",
			"starts_at":    tomorrow.Format(time.RFC3339),
			"ends_at":      tomorrow.Add(time.Hour).Format(time.RFC3339),
		})

		testutil.When(t, "another applicant asks for an overlapping slot", func(t *testing.T) {
			other := post(t, "/applicants", map[string]any{
				"national_id": "X-1002", "first_name": "Raul", "last_name": "Vega",
				"birth_date": now.AddDate(-40, 0, 0).Format(time.DateOnly),
			})
			rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/appointments", map[string]any{
				"applicant_id": other["id"],
				"resource_id":  track["id"],
				"type":         "practical_exam",
				"starts_at":    tomorrow.Add(30 * time.Minute).Format(time.RFC3339),
				"ends_at":      tomorrow.Add(90 * time.Minute).Format(time.RFC3339),
			}))

			testutil.Then(t, "the booking is refused with a conflict", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rr, http.StatusConflict, "conflict")
			})
		})
	})

	testutil.Then(t, "the health endpoint reports ok without backing services", func(t *testing.T) {
		testutil.AssertStatusOK(t, testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/healthz")))
	})
}
