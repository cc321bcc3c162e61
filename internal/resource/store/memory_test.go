package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dlms/internal/resource/models"
	id "dlms/pkg/domain"
	"dlms/pkg/platform/sentinel"
)

func newResource(t *testing.T, name string, typ models.ResourceType) *models.Resource {
	t.Helper()
	r, err := models.NewResource(id.NewResourceID(), name, typ, 1, 8*60, 18*60)
	require.NoError(t, err)
	return r
}

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()

	track := newResource(t, "Track North", models.ResourceTypeExamTrack)
	office := newResource(t, "Office 1", models.ResourceTypeMedicalOffice)
	require.NoError(t, s.Create(ctx, track))
	require.NoError(t, s.Create(ctx, office))

	t.Run("name uniqueness ignores case", func(t *testing.T) {
		err := s.Create(ctx, newResource(t, "track north", models.ResourceTypeExamTrack))
		assert.ErrorIs(t, err, sentinel.ErrAlreadyUsed)
	})

	t.Run("lists active by type", func(t *testing.T) {
		tracks, err := s.ListActiveByType(ctx, models.ResourceTypeExamTrack)
		require.NoError(t, err)
		require.Len(t, tracks, 1)
		assert.Equal(t, track.ID, tracks[0].ID)
	})

	t.Run("deactivated resources drop out of active listing", func(t *testing.T) {
		require.NoError(t, s.SetActive(ctx, track.ID, false))
		tracks, err := s.ListActiveByType(ctx, models.ResourceTypeExamTrack)
		require.NoError(t, err)
		assert.Empty(t, tracks)

		all, err := s.List(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := s.FindByID(ctx, id.NewResourceID())
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
		assert.ErrorIs(t, s.SetActive(ctx, id.NewResourceID(), true), sentinel.ErrNotFound)
	})
}
