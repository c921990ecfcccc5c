package laborder

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/telecare/telecare/internal/platform/db"
	"github.com/telecare/telecare/internal/workflow"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Queryable {
	if q := db.FromContext(ctx); q != nil {
		return q
	}
	return r.pool
}

const labOrderCols = `id, consultation_id, patient_id, patient_name, patient_phone,
	lab_partner, lab_partner_phone, phlebotomist_name, test_panel, status,
	ordered_at, slot_booked_at, phlebotomist_assigned_at, sample_collected_at,
	delivered_to_lab_at, sample_received_at, results_uploaded_at, results_reviewed_at,
	created_at, updated_at`

// anchorCols whitelists the columns CountStatusOlderThan may interpolate.
// The column name comes from the SLA rule table, never from user input, but
// interpolated identifiers stay whitelisted regardless.
var anchorCols = map[string]bool{
	workflow.AnchorOrderedAt:         true,
	workflow.AnchorSlotBookedAt:      true,
	workflow.AnchorDeliveredToLabAt:  true,
	workflow.AnchorSampleReceivedAt:  true,
	workflow.AnchorResultsUploadedAt: true,
}

func (r *repoPG) scan(row pgx.Row) (*LabOrder, error) {
	var o LabOrder
	err := row.Scan(&o.ID, &o.ConsultationID, &o.PatientID, &o.PatientName, &o.PatientPhone,
		&o.LabPartner, &o.LabPartnerPhone, &o.PhlebotomistName, &o.TestPanel, &o.Status,
		&o.OrderedAt, &o.SlotBookedAt, &o.PhlebotomistAssignedAt, &o.SampleCollectedAt,
		&o.DeliveredToLabAt, &o.SampleReceivedAt, &o.ResultsUploadedAt, &o.ResultsReviewedAt,
		&o.CreatedAt, &o.UpdatedAt)
	return &o, err
}

func (r *repoPG) Create(ctx context.Context, o *LabOrder) error {
	o.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO lab_order (id, consultation_id, patient_id, patient_name, patient_phone,
			lab_partner, lab_partner_phone, test_panel, status, ordered_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		o.ID, o.ConsultationID, o.PatientID, o.PatientName, o.PatientPhone,
		o.LabPartner, o.LabPartnerPhone, o.TestPanel, o.Status, o.OrderedAt)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*LabOrder, error) {
	return r.scan(r.conn(ctx).QueryRow(ctx, `SELECT `+labOrderCols+` FROM lab_order WHERE id = $1`, id))
}

func (r *repoPG) UpdateStatus(ctx context.Context, o *LabOrder, from workflow.Status) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE lab_order SET status=$3, phlebotomist_name=$4,
			slot_booked_at=$5, phlebotomist_assigned_at=$6, sample_collected_at=$7,
			delivered_to_lab_at=$8, sample_received_at=$9, results_uploaded_at=$10,
			results_reviewed_at=$11, updated_at=NOW()
		WHERE id = $1 AND status = $2`,
		o.ID, from, o.Status, o.PhlebotomistName,
		o.SlotBookedAt, o.PhlebotomistAssignedAt, o.SampleCollectedAt,
		o.DeliveredToLabAt, o.SampleReceivedAt, o.ResultsUploadedAt,
		o.ResultsReviewedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStatusConflict
	}
	return nil
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*LabOrder, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM lab_order WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+labOrderCols+` FROM lab_order WHERE patient_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items, err := r.collect(rows)
	return items, total, err
}

func (r *repoPG) ListByStatus(ctx context.Context, status workflow.Status, limit, offset int) ([]*LabOrder, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM lab_order WHERE status = $1`, status).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+labOrderCols+` FROM lab_order WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items, err := r.collect(rows)
	return items, total, err
}

func (r *repoPG) ListActive(ctx context.Context) ([]*LabOrder, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+labOrderCols+` FROM lab_order
		WHERE status NOT IN ($1,$2) ORDER BY ordered_at`,
		workflow.LabResultsReviewed, workflow.LabCancelled)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collect(rows)
}

func (r *repoPG) CountStatusOlderThan(ctx context.Context, status workflow.Status, anchorCol string, cutoff time.Time) (int, error) {
	if !anchorCols[anchorCol] {
		return 0, fmt.Errorf("unknown anchor column %q", anchorCol)
	}
	var n int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM lab_order WHERE status = $1 AND `+anchorCol+` < $2`,
		status, cutoff).Scan(&n)
	return n, err
}

func (r *repoPG) collect(rows pgx.Rows) ([]*LabOrder, error) {
	var items []*LabOrder
	for rows.Next() {
		o, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, o)
	}
	return items, rows.Err()
}
