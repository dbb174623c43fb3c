package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nutriconsultas/backend/internal/models"
	"github.com/nutriconsultas/backend/internal/storage"
	apperrors "github.com/nutriconsultas/backend/pkg/errors"
)

func newBodyEvolutionFixture(t *testing.T) (*BodyEvolutionService, *storage.FileStore, clinicFixture) {
	t.Helper()

	db := openServiceTestDB(t)
	fixture := seedClinic(t, db)

	store := storage.NewMemStore()
	svc, err := NewBodyEvolutionService(db, store, "https://cdn.example.com")
	require.NoError(t, err)

	return svc, store, fixture
}

func TestUploadStoresImageAndRecord(t *testing.T) {
	svc, store, fixture := newBodyEvolutionFixture(t)

	row, err := svc.Upload(context.Background(), fixture.Patient.ID, "photo.jpg", strings.NewReader("jpeg-bytes"))
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(row.StorageKey, ".jpg"))
	require.True(t, strings.HasPrefix(row.ImageURL, "https://cdn.example.com/body-evolution/"))

	exists, err := store.Exists(row.StorageKey)
	require.NoError(t, err)
	require.True(t, exists)
}

func TestUploadEnforcesDailyLimit(t *testing.T) {
	svc, _, fixture := newBodyEvolutionFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Upload(ctx, fixture.Patient.ID, "photo.jpg", strings.NewReader("x"))
		require.NoError(t, err)
	}

	_, err := svc.Upload(ctx, fixture.Patient.ID, "photo.jpg", strings.NewReader("x"))
	require.True(t, errors.Is(err, apperrors.ErrUploadLimitReached))
}

func TestUploadLimitIsPerDay(t *testing.T) {
	svc, _, fixture := newBodyEvolutionFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Upload(ctx, fixture.Patient.ID, "photo.jpg", strings.NewReader("x"))
		require.NoError(t, err)
	}

	// Yesterday's uploads do not count against today.
	require.NoError(t, svc.db.Model(&models.BodyEvolution{}).
		Where("patient_id = ?", fixture.Patient.ID).
		Update("upload_date", time.Now().UTC().Add(-36*time.Hour)).Error)

	_, err := svc.Upload(ctx, fixture.Patient.ID, "photo.jpg", strings.NewReader("x"))
	require.NoError(t, err)
}

func TestDeleteWithinWindow(t *testing.T) {
	svc, store, fixture := newBodyEvolutionFixture(t)
	ctx := context.Background()

	row, err := svc.Upload(ctx, fixture.Patient.ID, "photo.png", strings.NewReader("x"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, fixture.Patient.ID, row.ID))

	exists, err := store.Exists(row.StorageKey)
	require.NoError(t, err)
	require.False(t, exists)

	var count int64
	require.NoError(t, svc.db.Model(&models.BodyEvolution{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestDeleteAfterWindowIsRejected(t *testing.T) {
	svc, _, fixture := newBodyEvolutionFixture(t)
	ctx := context.Background()

	row, err := svc.Upload(ctx, fixture.Patient.ID, "photo.png", strings.NewReader("x"))
	require.NoError(t, err)

	require.NoError(t, svc.db.Model(&models.BodyEvolution{}).
		Where("id = ?", row.ID).
		Update("upload_date", time.Now().UTC().Add(-2*time.Hour)).Error)

	require.Error(t, svc.Delete(ctx, fixture.Patient.ID, row.ID))
}

func TestDeleteOtherPatientsUploadIsRejected(t *testing.T) {
	svc, _, fixture := newBodyEvolutionFixture(t)
	ctx := context.Background()

	row, err := svc.Upload(ctx, fixture.Patient.ID, "photo.png", strings.NewReader("x"))
	require.NoError(t, err)

	require.Error(t, svc.Delete(ctx, "another-patient", row.ID))
}
