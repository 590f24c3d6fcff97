package servicearea

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSave_Validation(t *testing.T) {
	svc := NewService(nil)
	ctx := context.Background()
	id := uuid.New()
	zero := 0

	_, err := svc.Save(ctx, id, Input{State: "Texas", StandardDeliveryDays: 3})
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = svc.Save(ctx, id, Input{State: "T1", StandardDeliveryDays: 3})
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = svc.Save(ctx, id, Input{State: "tx"})
	assert.ErrorIs(t, err, ErrInvalidDelivery)
	_, err = svc.Save(ctx, id, Input{State: "tx", StandardDeliveryDays: 2, ExpeditedDeliveryDays: &zero})
	assert.ErrorIs(t, err, ErrInvalidDelivery)
}

func TestSave_UpsertsByState(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	supplierID := uuid.New()
	existingID := uuid.New()
	now := time.Now()
	mock.ExpectQuery(`INSERT INTO service_areas .+ ON CONFLICT \(supplier_id, state\) DO UPDATE`).
		WithArgs(sqlmock.AnyArg(), supplierID, "TX", sqlmock.AnyArg(), sqlmock.AnyArg(), 2, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(existingID.String(), now, now))

	svc := NewService(NewPostgresRepository(db))
	area, err := svc.Save(context.Background(), supplierID, Input{
		State:                " tx ",
		Cities:               []string{"Austin", " ", "Dallas", "Austin"},
		ZipCodes:             []string{"73301"},
		StandardDeliveryDays: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, existingID, area.ID)
	assert.Equal(t, "TX", area.State)
	assert.Equal(t, []string{"Austin", "Dallas"}, area.Cities)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestList_ScansOptionalColumns(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	supplierID := uuid.New()
	now := time.Now()
	mock.ExpectQuery(`FROM service_areas WHERE supplier_id=\$1`).
		WithArgs(supplierID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "supplier_id", "state", "cities", "zip_codes",
			"standard_delivery_days", "expedited_delivery_days", "created_at", "updated_at"}).
			AddRow(uuid.NewString(), supplierID.String(), "TX", nil, nil, 3, 1, now, now))

	areas, err := NewService(NewPostgresRepository(db)).List(context.Background(), supplierID)
	require.NoError(t, err)
	require.Len(t, areas, 1)
	assert.Nil(t, areas[0].Cities)
	assert.Equal(t, 3, areas[0].StandardDeliveryDays)
	require.NotNil(t, areas[0].ExpeditedDeliveryDays)
	assert.Equal(t, 1, *areas[0].ExpeditedDeliveryDays)
}

func TestHandler_DeleteMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM service_areas`).WillReturnResult(sqlmock.NewResult(0, 0))

	router := chi.NewRouter()
	NewHandler(NewService(NewPostgresRepository(db))).RegisterRoutes(router, func(next http.Handler) http.Handler { return next })

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/suppliers/"+uuid.NewString()+"/service-areas/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/suppliers/"+uuid.NewString()+"/service-areas", strings.NewReader(`{"state":"TXX","standard_delivery_days":2}`))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
