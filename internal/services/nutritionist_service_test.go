package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nutriconsultas/backend/internal/models"
)

func newNutritionistFixture(t *testing.T) *NutritionistService {
	t.Helper()

	db := openServiceTestDB(t)

	users, err := NewUserService(db)
	require.NoError(t, err)

	svc, err := NewNutritionistService(db, users)
	require.NoError(t, err)

	return svc
}

func TestRegisterNutritionist(t *testing.T) {
	svc := newNutritionistFixture(t)

	dto, err := svc.Register(context.Background(), RegisterNutritionistInput{
		Name:         "Gustavo Nunes",
		CPF:          testCPFNutritionist,
		BirthdayDate: time.Date(1985, 3, 30, 0, 0, 0, 0, time.UTC),
		CRN:          "CRN-3 54321",
	})
	require.NoError(t, err)
	require.Equal(t, "CRN-3 54321", dto.CRN)
	require.Equal(t, "Gustavo Nunes", dto.Name)

	var user models.User
	require.NoError(t, svc.db.First(&user, "person_id = ?", dto.PersonID).Error)
	require.Equal(t, models.RoleNutritionist, user.Role)
	require.True(t, user.IsCreator)
}

func TestRegisterNutritionistRejectsDuplicateCRN(t *testing.T) {
	svc := newNutritionistFixture(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterNutritionistInput{
		Name:         "Primeira",
		CPF:          testCPFNutritionist,
		BirthdayDate: time.Date(1985, 3, 30, 0, 0, 0, 0, time.UTC),
		CRN:          "CRN-3 11111",
	})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterNutritionistInput{
		Name:         "Segunda",
		CPF:          testCPFSpare,
		BirthdayDate: time.Date(1987, 6, 15, 0, 0, 0, 0, time.UTC),
		CRN:          "CRN-3 11111",
	})
	require.Error(t, err)

	var count int64
	require.NoError(t, svc.db.Model(&models.Nutritionist{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestGetNutritionistByPersonID(t *testing.T) {
	svc := newNutritionistFixture(t)

	dto, err := svc.Register(context.Background(), RegisterNutritionistInput{
		Name:         "Helena Prado",
		CPF:          testCPFNutritionist,
		BirthdayDate: time.Date(1990, 12, 1, 0, 0, 0, 0, time.UTC),
		CRN:          "CRN-2 22222",
	})
	require.NoError(t, err)

	found, err := svc.GetByPersonID(context.Background(), dto.PersonID)
	require.NoError(t, err)
	require.Equal(t, dto.ID, found.ID)
	require.NotNil(t, found.Person)
}
