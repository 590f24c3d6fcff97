package servicearea

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) Upsert(ctx context.Context, a *ServiceArea) error {
	var expedited sql.NullInt64
	if a.ExpeditedDeliveryDays != nil {
		expedited = sql.NullInt64{Int64: int64(*a.ExpeditedDeliveryDays), Valid: true}
	}
	return r.db.QueryRowContext(ctx, `
		INSERT INTO service_areas
		  (id, supplier_id, state, cities, zip_codes, standard_delivery_days, expedited_delivery_days)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (supplier_id, state) DO UPDATE
		SET cities=EXCLUDED.cities, zip_codes=EXCLUDED.zip_codes,
		    standard_delivery_days=EXCLUDED.standard_delivery_days,
		    expedited_delivery_days=EXCLUDED.expedited_delivery_days,
		    updated_at=NOW()
		RETURNING id, created_at, updated_at`,
		a.ID, a.SupplierID, a.State, pq.Array(a.Cities), pq.Array(a.ZipCodes),
		a.StandardDeliveryDays, expedited).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
}

func (r *postgresRepo) ListBySupplier(ctx context.Context, supplierID uuid.UUID) ([]*ServiceArea, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, supplier_id, state, cities, zip_codes, standard_delivery_days, expedited_delivery_days,
		       created_at, updated_at
		FROM service_areas WHERE supplier_id=$1 ORDER BY created_at`, supplierID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	areas := []*ServiceArea{}
	for rows.Next() {
		a := &ServiceArea{}
		var standard, expedited sql.NullInt64
		if err := rows.Scan(&a.ID, &a.SupplierID, &a.State, pq.Array(&a.Cities), pq.Array(&a.ZipCodes),
			&standard, &expedited, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		a.StandardDeliveryDays = int(standard.Int64)
		if expedited.Valid {
			days := int(expedited.Int64)
			a.ExpeditedDeliveryDays = &days
		}
		areas = append(areas, a)
	}
	return areas, rows.Err()
}

func (r *postgresRepo) Delete(ctx context.Context, supplierID, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM service_areas WHERE id=$1 AND supplier_id=$2`, id, supplierID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
