package payer

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) CreatePayer(ctx context.Context, p *Payer) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO payers (id, supplier_id, payer_name, network_type)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at`,
		p.ID, p.SupplierID, p.PayerName, p.NetworkType).Scan(&p.CreatedAt)
}

func (r *postgresRepo) GetPayer(ctx context.Context, supplierID, id uuid.UUID) (*Payer, error) {
	p := &Payer{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, supplier_id, payer_name, network_type, created_at
		FROM payers WHERE id=$1 AND supplier_id=$2`, id, supplierID).
		Scan(&p.ID, &p.SupplierID, &p.PayerName, &p.NetworkType, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *postgresRepo) ListPayers(ctx context.Context, supplierID uuid.UUID) ([]*Payer, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, supplier_id, payer_name, network_type, created_at
		FROM payers WHERE supplier_id=$1 ORDER BY created_at`, supplierID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payers := []*Payer{}
	for rows.Next() {
		p := &Payer{}
		if err := rows.Scan(&p.ID, &p.SupplierID, &p.PayerName, &p.NetworkType, &p.CreatedAt); err != nil {
			return nil, err
		}
		payers = append(payers, p)
	}
	return payers, rows.Err()
}

// DeletePayer removes the payer; its exclusions go with it through ON DELETE CASCADE.
func (r *postgresRepo) DeletePayer(ctx context.Context, supplierID, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM payers WHERE id=$1 AND supplier_id=$2`, id, supplierID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresRepo) CreateExclusion(ctx context.Context, e *Exclusion) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO payer_exclusions (id, supplier_id, payer_id, product_id, category)
		VALUES ($1,$2,$3,$4,NULLIF($5,''))
		RETURNING created_at`,
		e.ID, e.SupplierID, e.PayerID, e.ProductID, e.Category).Scan(&e.CreatedAt)
}

func (r *postgresRepo) ListExclusions(ctx context.Context, supplierID uuid.UUID) ([]*Exclusion, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, supplier_id, payer_id, product_id, COALESCE(category,''), created_at
		FROM payer_exclusions WHERE supplier_id=$1 ORDER BY created_at`, supplierID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	exclusions := []*Exclusion{}
	for rows.Next() {
		e := &Exclusion{}
		var productID uuid.NullUUID
		if err := rows.Scan(&e.ID, &e.SupplierID, &e.PayerID, &productID, &e.Category, &e.CreatedAt); err != nil {
			return nil, err
		}
		if productID.Valid {
			id := productID.UUID
			e.ProductID = &id
		}
		exclusions = append(exclusions, e)
	}
	return exclusions, rows.Err()
}

func (r *postgresRepo) DeleteExclusion(ctx context.Context, supplierID, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM payer_exclusions WHERE id=$1 AND supplier_id=$2`, id, supplierID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrExclusionNotFound
	}
	return nil
}
