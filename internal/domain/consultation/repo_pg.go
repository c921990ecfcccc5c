package consultation

import (
	"context"

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

const consultationCols = `id, patient_id, patient_name, patient_phone, symptoms,
	status, rejection_reason, doctor_id,
	ai_review_started_at, ai_reviewed_at, doctor_assigned_at,
	video_scheduled_at, completed_at, created_at, updated_at`

func (r *repoPG) scan(row pgx.Row) (*Consultation, error) {
	var c Consultation
	err := row.Scan(&c.ID, &c.PatientID, &c.PatientName, &c.PatientPhone, &c.Symptoms,
		&c.Status, &c.RejectionReason, &c.DoctorID,
		&c.AIReviewStartedAt, &c.AIReviewedAt, &c.DoctorAssignedAt,
		&c.VideoScheduledAt, &c.CompletedAt, &c.CreatedAt, &c.UpdatedAt)
	return &c, err
}

func (r *repoPG) Create(ctx context.Context, c *Consultation) error {
	c.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO consultation (id, patient_id, patient_name, patient_phone, symptoms, status)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		c.ID, c.PatientID, c.PatientName, c.PatientPhone, c.Symptoms, c.Status)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Consultation, error) {
	return r.scan(r.conn(ctx).QueryRow(ctx, `SELECT `+consultationCols+` FROM consultation WHERE id = $1`, id))
}

func (r *repoPG) UpdateStatus(ctx context.Context, c *Consultation, from workflow.Status) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE consultation SET status=$3, rejection_reason=$4, doctor_id=$5,
			ai_review_started_at=$6, ai_reviewed_at=$7, doctor_assigned_at=$8,
			video_scheduled_at=$9, completed_at=$10, updated_at=NOW()
		WHERE id = $1 AND status = $2`,
		c.ID, from, c.Status, c.RejectionReason, c.DoctorID,
		c.AIReviewStartedAt, c.AIReviewedAt, c.DoctorAssignedAt,
		c.VideoScheduledAt, c.CompletedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStatusConflict
	}
	return nil
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Consultation, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM consultation WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+consultationCols+` FROM consultation WHERE patient_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items, err := r.collect(rows)
	return items, total, err
}

func (r *repoPG) ListByStatus(ctx context.Context, status workflow.Status, limit, offset int) ([]*Consultation, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM consultation WHERE status = $1`, status).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+consultationCols+` FROM consultation WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items, err := r.collect(rows)
	return items, total, err
}

func (r *repoPG) ListActive(ctx context.Context) ([]*Consultation, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+consultationCols+` FROM consultation
		WHERE status NOT IN ($1,$2,$3,$4) ORDER BY created_at`,
		workflow.ConsultApproved, workflow.ConsultRejected, workflow.ConsultClosed, workflow.ConsultCancelled)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collect(rows)
}

func (r *repoPG) collect(rows pgx.Rows) ([]*Consultation, error) {
	var items []*Consultation
	for rows.Next() {
		c, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}
