package testutil

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResponseAssertionsShareOneBody(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"conflict","error_description":"slot taken"}`))
	})
	rr := DoRequest(handler, NewRequest(t, http.MethodGet, "/"))

	AssertStatusAndError(t, rr, http.StatusConflict, "conflict")
	AssertJSONContains(t, rr, "error_description", "slot taken")
	AssertJSONContains(t, rr, "error", "conflict")

	body := UnmarshalResponse[map[string]string](t, rr)
	assert.Equal(t, "slot taken", (*body)["error_description"])
}
