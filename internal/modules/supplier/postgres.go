package supplier

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const supplierColumns = `id, invite_token, email, email_verified,
	COALESCE(company_name,''), COALESCE(company_address,''), COALESCE(tax_id,''), COALESCE(npi,''),
	COALESCE(operations_contact_name,''), COALESCE(operations_contact_title,''),
	COALESCE(operations_contact_email,''), COALESCE(operations_contact_phone,''),
	COALESCE(escalation_contact_name,''), COALESCE(escalation_contact_title,''),
	COALESCE(escalation_contact_email,''), COALESCE(escalation_contact_phone,''),
	COALESCE(tier,''), COALESCE(order_transmittal_preference,''), COALESCE(transmittal_destination,''),
	shipping_fee_structure, return_policy,
	COALESCE(support_hours,''), COALESCE(support_phone,''), COALESCE(support_email,''), COALESCE(after_hours_process,''),
	COALESCE(stripe_account_id,''), stripe_onboarding_complete,
	sla_acknowledged, COALESCE(sla_acknowledged_by,''), sla_acknowledged_at,
	current_step, max_step_reached, status,
	submitted_at, approved_at, created_at, updated_at`

func scanSupplier(scan func(...interface{}) error) (*Supplier, error) {
	s := &Supplier{}
	var (
		shipping, returns             []byte
		slaAt, submittedAt, approvedAt sql.NullTime
	)
	err := scan(&s.ID, &s.InviteToken, &s.Email, &s.EmailVerified,
		&s.CompanyName, &s.CompanyAddress, &s.TaxID, &s.NPI,
		&s.OperationsContactName, &s.OperationsContactTitle,
		&s.OperationsContactEmail, &s.OperationsContactPhone,
		&s.EscalationContactName, &s.EscalationContactTitle,
		&s.EscalationContactEmail, &s.EscalationContactPhone,
		&s.Tier, &s.OrderTransmittalPreference, &s.TransmittalDestination,
		&shipping, &returns,
		&s.SupportHours, &s.SupportPhone, &s.SupportEmail, &s.AfterHoursProcess,
		&s.StripeAccountID, &s.StripeOnboardingComplete,
		&s.SLAAcknowledged, &s.SLAAcknowledgedBy, &slaAt,
		&s.CurrentStep, &s.MaxStepReached, &s.Status,
		&submittedAt, &approvedAt, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(shipping) > 0 {
		s.ShippingFeeStructure = &ShippingFeeStructure{}
		if err := json.Unmarshal(shipping, s.ShippingFeeStructure); err != nil {
			return nil, fmt.Errorf("decode shipping_fee_structure: %w", err)
		}
	}
	if len(returns) > 0 {
		s.ReturnPolicy = &ReturnPolicy{}
		if err := json.Unmarshal(returns, s.ReturnPolicy); err != nil {
			return nil, fmt.Errorf("decode return_policy: %w", err)
		}
	}
	s.SLAAcknowledgedAt = nullTime(slaAt)
	s.SubmittedAt = nullTime(submittedAt)
	s.ApprovedAt = nullTime(approvedAt)
	return s, nil
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func (r *postgresRepo) getOne(ctx context.Context, where string, arg interface{}) (*Supplier, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+supplierColumns+` FROM suppliers WHERE `+where, arg)
	s, err := scanSupplier(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return s, err
}

func (r *postgresRepo) Create(ctx context.Context, s *Supplier) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO suppliers (id, invite_token, email, email_verified, company_name, status, current_step, max_step_reached)
		VALUES ($1,$2,$3,$4,NULLIF($5,''),$6,$7,$8)
		RETURNING created_at, updated_at`,
		s.ID, s.InviteToken, s.Email, s.EmailVerified, s.CompanyName, s.Status, s.CurrentStep, s.MaxStepReached,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
}

func (r *postgresRepo) GetByID(ctx context.Context, id uuid.UUID) (*Supplier, error) {
	return r.getOne(ctx, `id=$1`, id)
}

func (r *postgresRepo) GetByInviteToken(ctx context.Context, token string) (*Supplier, error) {
	return r.getOne(ctx, `invite_token=$1`, token)
}

func (r *postgresRepo) GetByStripeAccountID(ctx context.Context, accountID string) (*Supplier, error) {
	return r.getOne(ctx, `stripe_account_id=$1`, accountID)
}

func (r *postgresRepo) List(ctx context.Context, status Status) ([]*Supplier, error) {
	query := `SELECT ` + supplierColumns + ` FROM suppliers`
	var args []interface{}
	if status != "" {
		query += ` WHERE status=$1`
		args = append(args, status)
	}
	query += ` ORDER BY submitted_at DESC NULLS LAST, updated_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*Supplier{}
	for rows.Next() {
		s, err := scanSupplier(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *postgresRepo) Update(ctx context.Context, id uuid.UUID, p Patch, now time.Time) (*Supplier, error) {
	assigns := p.assignments(now)
	if len(assigns) == 0 {
		return r.GetByID(ctx, id)
	}

	sets := make([]string, 0, len(assigns)+1)
	args := make([]interface{}, 0, len(assigns)+2)
	for _, a := range assigns {
		args = append(args, a.value)
		sets = append(sets, a.clause(len(args)))
	}
	args = append(args, now)
	sets = append(sets, fmt.Sprintf("updated_at = $%d", len(args)))
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE suppliers SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), supplierColumns)
	s, err := scanSupplier(r.db.QueryRowContext(ctx, query, args...).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return s, err
}

func (r *postgresRepo) SetStripeAccount(ctx context.Context, id uuid.UUID, accountID string) error {
	return r.execOne(ctx, `UPDATE suppliers SET stripe_account_id=$1, updated_at=NOW() WHERE id=$2`, accountID, id)
}

func (r *postgresRepo) SetStripeOnboardingComplete(ctx context.Context, id uuid.UUID, complete bool) error {
	return r.execOne(ctx, `UPDATE suppliers SET stripe_onboarding_complete=$1, updated_at=NOW() WHERE id=$2`, complete, id)
}

func (r *postgresRepo) execOne(ctx context.Context, query string, args ...interface{}) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ── Pipeline transitions ────────────────────────────────────

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

var transitionStamps = map[Action]string{
	ActionSubmit:  "submitted_at",
	ActionApprove: "approved_at",
}

// transition runs the conditional status update. sql.ErrNoRows means the
// supplier is missing or in a status the action does not accept.
func transition(ctx context.Context, q querier, id uuid.UUID, a Action, now time.Time) (*Supplier, error) {
	t, err := TransitionFor(a)
	if err != nil {
		return nil, err
	}
	from := make([]string, len(t.From))
	for i, s := range t.From {
		from[i] = string(s)
	}

	set := "status = $1, updated_at = $2"
	if col, ok := transitionStamps[a]; ok {
		set += ", " + col + " = $2"
	}
	query := `UPDATE suppliers SET ` + set + ` WHERE id = $3 AND status = ANY($4) RETURNING ` + supplierColumns
	return scanSupplier(q.QueryRowContext(ctx, query, t.To, now, id, pq.Array(from)).Scan)
}

// refusal explains why a conditional update matched no row.
func (r *postgresRepo) refusal(ctx context.Context, id uuid.UUID, a Action) error {
	var current Status
	err := r.db.QueryRowContext(ctx, `SELECT status FROM suppliers WHERE id=$1`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return &IllegalTransitionError{Action: a, Status: current}
}

func (r *postgresRepo) Transition(ctx context.Context, id uuid.UUID, a Action, now time.Time) (*Supplier, error) {
	s, err := transition(ctx, r.db, id, a, now)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, r.refusal(ctx, id, a)
	}
	return s, err
}

func (r *postgresRepo) RequestCorrections(ctx context.Context, id uuid.UUID, reviewer string, items []CorrectionRequest, now time.Time) (*Supplier, []*Correction, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	s, err := transition(ctx, tx, id, ActionRequestCorrections, now)
	if errors.Is(err, sql.ErrNoRows) {
		tx.Rollback()
		return nil, nil, r.refusal(ctx, id, ActionRequestCorrections)
	}
	if err != nil {
		return nil, nil, err
	}

	notes := make([]*Correction, 0, len(items))
	for _, item := range items {
		c := &Correction{
			ID:         uuid.New(),
			SupplierID: id,
			StepNumber: item.StepNumber,
			Comment:    item.Comment,
			CreatedBy:  reviewer,
		}
		err := tx.QueryRowContext(ctx, `
			INSERT INTO corrections (id, supplier_id, step_number, comment, resolved, created_by)
			VALUES ($1,$2,$3,$4,false,$5)
			RETURNING created_at`,
			c.ID, c.SupplierID, c.StepNumber, c.Comment, c.CreatedBy).Scan(&c.CreatedAt)
		if err != nil {
			return nil, nil, fmt.Errorf("insert correction for step %d: %w", c.StepNumber, err)
		}
		notes = append(notes, c)
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	return s, notes, nil
}

func (r *postgresRepo) ListCorrections(ctx context.Context, supplierID uuid.UUID, unresolvedOnly bool) ([]*Correction, error) {
	query := `SELECT id, supplier_id, step_number, comment, resolved, created_by, created_at
		FROM corrections WHERE supplier_id=$1`
	if unresolvedOnly {
		query += ` AND resolved=false`
	}
	query += ` ORDER BY step_number, created_at`

	rows, err := r.db.QueryContext(ctx, query, supplierID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*Correction{}
	for rows.Next() {
		c := &Correction{}
		if err := rows.Scan(&c.ID, &c.SupplierID, &c.StepNumber, &c.Comment, &c.Resolved, &c.CreatedBy, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
