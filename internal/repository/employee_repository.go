package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/danuarta/hr-promotion-api/internal/models"
)

// EmployeeRepository handles employee and metrics persistence.
type EmployeeRepository struct {
	db *sqlx.DB
}

// NewEmployeeRepository creates a new employee repository.
func NewEmployeeRepository(db *sqlx.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

const employeeColumns = `id, nik, full_name, position, active, created_at, updated_at`

// List returns employees matching the filter with pagination.
func (r *EmployeeRepository) List(ctx context.Context, filter models.EmployeeFilter) ([]models.Employee, int, error) {
	query := fmt.Sprintf(`SELECT %s FROM employees WHERE 1=1`, employeeColumns)
	countQuery := `SELECT COUNT(*) FROM employees WHERE 1=1`
	var args []interface{}

	if filter.Position != "" {
		clause := fmt.Sprintf(" AND position = $%d", len(args)+1)
		query += clause
		countQuery += clause
		args = append(args, filter.Position)
	}
	if filter.Active != nil {
		clause := fmt.Sprintf(" AND active = $%d", len(args)+1)
		query += clause
		countQuery += clause
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		clause := fmt.Sprintf(" AND (full_name ILIKE $%d OR nik ILIKE $%d)", len(args)+1, len(args)+1)
		query += clause
		countQuery += clause
		args = append(args, "%"+filter.Search+"%")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	query += fmt.Sprintf(" ORDER BY full_name ASC LIMIT %d OFFSET %d", pageSize, (page-1)*pageSize)

	var employees []models.Employee
	if err := r.db.SelectContext(ctx, &employees, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list employees: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count employees: %w", err)
	}

	return employees, total, nil
}

// FindByID returns an employee by identifier.
func (r *EmployeeRepository) FindByID(ctx context.Context, id string) (*models.Employee, error) {
	query := fmt.Sprintf(`SELECT %s FROM employees WHERE id = $1 LIMIT 1`, employeeColumns)
	var employee models.Employee
	if err := r.db.GetContext(ctx, &employee, query, id); err != nil {
		return nil, err
	}
	return &employee, nil
}

// Create inserts an employee.
func (r *EmployeeRepository) Create(ctx context.Context, employee *models.Employee) error {
	if employee.ID == "" {
		employee.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	employee.CreatedAt = now
	employee.UpdatedAt = now

	const query = `INSERT INTO employees (id, nik, full_name, position, active, created_at, updated_at)
        VALUES (:id, :nik, :full_name, :position, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, employee); err != nil {
		return fmt.Errorf("create employee: %w", err)
	}
	return nil
}

// Update rewrites an employee record.
func (r *EmployeeRepository) Update(ctx context.Context, employee *models.Employee) error {
	employee.UpdatedAt = time.Now().UTC()
	const query = `UPDATE employees SET nik = :nik, full_name = :full_name, position = :position,
        active = :active, updated_at = :updated_at WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, employee)
	if err != nil {
		return fmt.Errorf("update employee: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("update employee %s: no rows affected", employee.ID)
	}
	return nil
}

const metricsColumns = `id, employee_id, performance_rating, position_start_date, course_coverage, exam_grade,
        step, eligible, can_take_exam, failed_at, last_evaluated_at, created_at, updated_at`

// GetMetrics returns the active metrics record for an employee, or nil when
// none has been entered yet.
func (r *EmployeeRepository) GetMetrics(ctx context.Context, employeeID string) (*models.EmployeeMetrics, error) {
	query := fmt.Sprintf(`SELECT %s FROM employee_metrics WHERE employee_id = $1 LIMIT 1`, metricsColumns)
	var metrics models.EmployeeMetrics
	if err := r.db.GetContext(ctx, &metrics, query, employeeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get metrics: %w", err)
	}
	return &metrics, nil
}

// PutMetrics writes the metrics record together with its derived evaluation
// fields. One active record per employee; the upsert keeps it that way.
func (r *EmployeeRepository) PutMetrics(ctx context.Context, metrics *models.EmployeeMetrics) error {
	if metrics.ID == "" {
		metrics.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if metrics.CreatedAt.IsZero() {
		metrics.CreatedAt = now
	}
	metrics.UpdatedAt = now

	const query = `INSERT INTO employee_metrics (id, employee_id, performance_rating, position_start_date, course_coverage, exam_grade,
            step, eligible, can_take_exam, failed_at, last_evaluated_at, created_at, updated_at)
        VALUES (:id, :employee_id, :performance_rating, :position_start_date, :course_coverage, :exam_grade,
            :step, :eligible, :can_take_exam, :failed_at, :last_evaluated_at, :created_at, :updated_at)
        ON CONFLICT (employee_id)
        DO UPDATE SET performance_rating = EXCLUDED.performance_rating,
            position_start_date = EXCLUDED.position_start_date,
            course_coverage = EXCLUDED.course_coverage,
            exam_grade = EXCLUDED.exam_grade,
            step = EXCLUDED.step,
            eligible = EXCLUDED.eligible,
            can_take_exam = EXCLUDED.can_take_exam,
            failed_at = EXCLUDED.failed_at,
            last_evaluated_at = EXCLUDED.last_evaluated_at,
            updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, metrics); err != nil {
		return fmt.Errorf("put metrics: %w", err)
	}
	return nil
}

// ListEligibility joins employees with their metrics for roster reporting.
func (r *EmployeeRepository) ListEligibility(ctx context.Context, filter models.EmployeeFilter) ([]models.EmployeeEligibility, error) {
	query := `SELECT e.id, e.nik, e.full_name, e.position, e.active, e.created_at, e.updated_at,
            m.id AS metrics_id, m.performance_rating, m.position_start_date, m.course_coverage, m.exam_grade,
            m.step, m.eligible, m.can_take_exam, m.failed_at, m.last_evaluated_at
        FROM employees e
        LEFT JOIN employee_metrics m ON m.employee_id = e.id
        WHERE e.active = TRUE`
	var args []interface{}
	if filter.Position != "" {
		query += fmt.Sprintf(" AND e.position = $%d", len(args)+1)
		args = append(args, filter.Position)
	}
	query += " ORDER BY e.full_name ASC"

	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list eligibility: %w", err)
	}
	defer rows.Close()

	var result []models.EmployeeEligibility
	for rows.Next() {
		var row struct {
			models.Employee
			MetricsID         *string    `db:"metrics_id"`
			PerformanceRating *float64   `db:"performance_rating"`
			PositionStartDate *time.Time `db:"position_start_date"`
			CourseCoverage    *float64   `db:"course_coverage"`
			ExamGrade         *float64   `db:"exam_grade"`
			Step              *int       `db:"step"`
			Eligible          *bool      `db:"eligible"`
			CanTakeExam       *bool      `db:"can_take_exam"`
			FailedAt          *string    `db:"failed_at"`
			LastEvaluatedAt   *time.Time `db:"last_evaluated_at"`
		}
		if err := rows.StructScan(&row); err != nil {
			return nil, fmt.Errorf("scan eligibility row: %w", err)
		}

		entry := models.EmployeeEligibility{Employee: row.Employee}
		if row.MetricsID != nil {
			entry.Metrics = &models.EmployeeMetrics{
				ID:                *row.MetricsID,
				EmployeeID:        row.Employee.ID,
				PerformanceRating: deref(row.PerformanceRating),
				PositionStartDate: row.PositionStartDate,
				CourseCoverage:    deref(row.CourseCoverage),
				ExamGrade:         deref(row.ExamGrade),
				Step:              derefInt(row.Step),
				Eligible:          derefBool(row.Eligible),
				CanTakeExam:       derefBool(row.CanTakeExam),
				FailedAt:          derefString(row.FailedAt),
				LastEvaluatedAt:   row.LastEvaluatedAt,
			}
		}
		result = append(result, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate eligibility rows: %w", err)
	}
	return result, nil
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func derefInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func derefBool(v *bool) bool {
	if v == nil {
		return false
	}
	return *v
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
