package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const productColumns = `id, supplier_id, product_name, COALESCE(hcpcs_code,''), COALESCE(category,''),
	retail_price, hcpcs_fee_schedule, COALESCE(sku,''), COALESCE(manufacturer,''), COALESCE(variant_size,''),
	fulfillment_types, ai_confidence, approved_by_supplier, created_at, updated_at`

const insertProduct = `
	INSERT INTO products
	  (id, supplier_id, product_name, hcpcs_code, category, retail_price, hcpcs_fee_schedule,
	   sku, manufacturer, variant_size, fulfillment_types, ai_confidence, approved_by_supplier)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	RETURNING created_at, updated_at`

func productArgs(p *Product) []interface{} {
	return []interface{}{
		p.ID, p.SupplierID, p.ProductName, p.HCPCSCode, p.Category, p.RetailPrice, p.HCPCSFeeSchedule,
		p.SKU, p.Manufacturer, p.VariantSize, pq.Array(p.FulfillmentTypes), p.AIConfidence, p.ApprovedBySupplier,
	}
}

func (r *postgresRepo) Create(ctx context.Context, p *Product) error {
	return r.db.QueryRowContext(ctx, insertProduct, productArgs(p)...).Scan(&p.CreatedAt, &p.UpdatedAt)
}

// CreateBatch inserts parsed catalog rows in one transaction so a job either lands fully or not at all.
func (r *postgresRepo) CreateBatch(ctx context.Context, products []*Product) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertProduct)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range products {
		if err := stmt.QueryRowContext(ctx, productArgs(p)...).Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
			return fmt.Errorf("insert product %q: %w", p.ProductName, err)
		}
	}
	return tx.Commit()
}

func scanProduct(scan func(...interface{}) error) (*Product, error) {
	p := &Product{}
	var retail, schedule sql.NullFloat64
	err := scan(&p.ID, &p.SupplierID, &p.ProductName, &p.HCPCSCode, &p.Category,
		&retail, &schedule, &p.SKU, &p.Manufacturer, &p.VariantSize,
		pq.Array(&p.FulfillmentTypes), &p.AIConfidence, &p.ApprovedBySupplier,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if retail.Valid {
		p.RetailPrice = &retail.Float64
	}
	if schedule.Valid {
		p.HCPCSFeeSchedule = &schedule.Float64
	}
	return p, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, supplierID, id uuid.UUID) (*Product, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+productColumns+`
		FROM products WHERE id=$1 AND supplier_id=$2`, id, supplierID)
	p, err := scanProduct(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

func (r *postgresRepo) ListBySupplier(ctx context.Context, supplierID uuid.UUID) ([]*Product, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+productColumns+`
		FROM products WHERE supplier_id=$1 ORDER BY created_at`, supplierID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []*Product{}
	for rows.Next() {
		p, err := scanProduct(rows.Scan)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *postgresRepo) Update(ctx context.Context, p *Product) error {
	err := r.db.QueryRowContext(ctx, `
		UPDATE products
		SET product_name=$1, hcpcs_code=$2, category=$3, retail_price=$4, hcpcs_fee_schedule=$5,
		    sku=$6, manufacturer=$7, variant_size=$8, fulfillment_types=$9, approved_by_supplier=$10,
		    updated_at=NOW()
		WHERE id=$11 AND supplier_id=$12
		RETURNING updated_at`,
		p.ProductName, p.HCPCSCode, p.Category, p.RetailPrice, p.HCPCSFeeSchedule,
		p.SKU, p.Manufacturer, p.VariantSize, pq.Array(p.FulfillmentTypes), p.ApprovedBySupplier,
		p.ID, p.SupplierID).Scan(&p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (r *postgresRepo) Delete(ctx context.Context, supplierID, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id=$1 AND supplier_id=$2`, id, supplierID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresRepo) ApproveAll(ctx context.Context, supplierID uuid.UUID) (int, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE products SET approved_by_supplier=true, updated_at=NOW()
		WHERE supplier_id=$1 AND approved_by_supplier=false`, supplierID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (r *postgresRepo) CountBySupplier(ctx context.Context, supplierID uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products WHERE supplier_id=$1`, supplierID).Scan(&n)
	return n, err
}

// ── Catalog uploads ─────────────────────────────────────────

const uploadColumns = `id, supplier_id, original_filename, file_path, file_type, processing_status,
	COALESCE(error_message,''), created_at, updated_at`

func scanUpload(scan func(...interface{}) error) (*Upload, error) {
	u := &Upload{}
	err := scan(&u.ID, &u.SupplierID, &u.OriginalFilename, &u.FilePath, &u.FileType, &u.Status,
		&u.Error, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUploadNotFound
	}
	return u, err
}

func (r *postgresRepo) CreateUpload(ctx context.Context, u *Upload) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO catalog_uploads (id, supplier_id, original_filename, file_path, file_type, processing_status)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at, updated_at`,
		u.ID, u.SupplierID, u.OriginalFilename, u.FilePath, u.FileType, u.Status).Scan(&u.CreatedAt, &u.UpdatedAt)
}

func (r *postgresRepo) GetUpload(ctx context.Context, id uuid.UUID) (*Upload, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+uploadColumns+` FROM catalog_uploads WHERE id=$1`, id)
	return scanUpload(row.Scan)
}

func (r *postgresRepo) LatestUpload(ctx context.Context, supplierID uuid.UUID) (*Upload, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+uploadColumns+`
		FROM catalog_uploads WHERE supplier_id=$1
		ORDER BY created_at DESC LIMIT 1`, supplierID)
	return scanUpload(row.Scan)
}

func (r *postgresRepo) SetUploadStatus(ctx context.Context, id uuid.UUID, status ProcessingStatus, errMsg string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE catalog_uploads SET processing_status=$1, error_message=NULLIF($2,''), updated_at=NOW()
		WHERE id=$3`, status, errMsg, id)
	return err
}
