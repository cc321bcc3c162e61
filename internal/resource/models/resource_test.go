package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "dlms/pkg/domain"
	dErrors "dlms/pkg/domain-errors"
)

func TestParseTimeOfDay(t *testing.T) {
	v, err := ParseTimeOfDay("08:30")
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay(510), v)
	assert.Equal(t, "08:30", v.String())

	end, err := ParseTimeOfDay("24:00")
	require.NoError(t, err)
	assert.Equal(t, endOfDay, end)

	for _, bad := range []string{"", "8", "25:00", "10:75", "aa:bb"} {
		_, err := ParseTimeOfDay(bad)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput), bad)
	}
}

func TestTimeOfDayJSON(t *testing.T) {
	var req CreateRequest
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Track 1","type":"exam_track","opens_at":"08:00","closes_at":"17:30"}`), &req))
	assert.Equal(t, TimeOfDay(480), req.OpensAt)
	assert.Equal(t, TimeOfDay(1050), req.ClosesAt)

	out, err := json.Marshal(Resource{OpensAt: 480})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"opens_at":"08:00"`)
}

func TestWithinHours(t *testing.T) {
	r, err := NewResource(id.NewResourceID(), "Office A", ResourceTypeMedicalOffice, 1, 8*60, 18*60)
	require.NoError(t, err)

	at := func(h, m int) time.Time { return time.Date(2025, 5, 5, h, m, 0, 0, time.UTC) }

	assert.True(t, r.WithinHours(at(8, 0), at(9, 0)), "opening bound is inclusive")
	assert.True(t, r.WithinHours(at(17, 0), at(18, 0)), "closing bound is inclusive")
	assert.False(t, r.WithinHours(at(7, 59), at(9, 0)))
	assert.False(t, r.WithinHours(at(17, 30), at(18, 30)))
}

func TestNewResourceValidation(t *testing.T) {
	_, err := NewResource(id.NewResourceID(), " ", ResourceTypeExamTrack, 1, 0, 60)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = NewResource(id.NewResourceID(), "x", "garage", 1, 0, 60)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = NewResource(id.NewResourceID(), "x", ResourceTypeExamTrack, 1, 600, 600)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	r, err := NewResource(id.NewResourceID(), "x", ResourceTypeExamTrack, 0, 0, 60)
	require.NoError(t, err)
	assert.Equal(t, 1, r.Capacity)
	assert.True(t, r.Active)
}
