package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/danuarta/hr-promotion-api/internal/models"
)

// ExamRepository handles the append-only exam attempt ledger.
type ExamRepository struct {
	db *sqlx.DB
}

// NewExamRepository creates a new exam repository.
func NewExamRepository(db *sqlx.DB) *ExamRepository {
	return &ExamRepository{db: db}
}

const attemptColumns = `id, employee_id, exam_date, grade, min_grade_required, passed, position, created_at`

// Append records one attempt. Attempts are never mutated afterwards except
// through UpdateDerived during an administrative recompute.
func (r *ExamRepository) Append(ctx context.Context, attempt *models.ExamAttempt) error {
	if attempt.ID == "" {
		attempt.ID = uuid.NewString()
	}
	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO exam_attempts (id, employee_id, exam_date, grade, min_grade_required, passed, position, created_at)
        VALUES (:id, :employee_id, :exam_date, :grade, :min_grade_required, :passed, :position, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, attempt); err != nil {
		return fmt.Errorf("append exam attempt: %w", err)
	}
	return nil
}

// ListByEmployee returns an employee's attempts, most recent exam date
// first; same-day attempts keep insertion order (created_at breaks the tie).
func (r *ExamRepository) ListByEmployee(ctx context.Context, employeeID string) ([]models.ExamAttempt, error) {
	query := fmt.Sprintf(`SELECT %s FROM exam_attempts WHERE employee_id = $1 ORDER BY exam_date DESC, created_at DESC`, attemptColumns)
	var attempts []models.ExamAttempt
	if err := r.db.SelectContext(ctx, &attempts, query, employeeID); err != nil {
		return nil, fmt.Errorf("list exam attempts: %w", err)
	}
	return attempts, nil
}

// ListAll returns every stored attempt, used by the recompute batch.
func (r *ExamRepository) ListAll(ctx context.Context) ([]models.ExamAttempt, error) {
	query := fmt.Sprintf(`SELECT %s FROM exam_attempts ORDER BY exam_date DESC, created_at DESC`, attemptColumns)
	var attempts []models.ExamAttempt
	if err := r.db.SelectContext(ctx, &attempts, query); err != nil {
		return nil, fmt.Errorf("list all exam attempts: %w", err)
	}
	return attempts, nil
}

// UpdateDerived overwrites the derived pass state of one attempt. Only the
// recompute path calls this.
func (r *ExamRepository) UpdateDerived(ctx context.Context, id string, passed bool, minGradeRequired float64) error {
	const query = `UPDATE exam_attempts SET passed = $2, min_grade_required = $3 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, passed, minGradeRequired)
	if err != nil {
		return fmt.Errorf("update exam attempt: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("update exam attempt %s: no rows affected", id)
	}
	return nil
}
