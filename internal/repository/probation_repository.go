package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/danuarta/hr-promotion-api/internal/models"
)

// ProbationRepository handles probationary contract persistence.
type ProbationRepository struct {
	db *sqlx.DB
}

// NewProbationRepository creates a new probation repository.
func NewProbationRepository(db *sqlx.DB) *ProbationRepository {
	return &ProbationRepository{db: db}
}

const contractColumns = `id, employee_id, start_date, end_date, evaluation_date, training_deadline, status, notes, created_at, updated_at`

// List returns contracts matching the filter with pagination.
func (r *ProbationRepository) List(ctx context.Context, filter models.ProbationFilter) ([]models.ProbationContract, int, error) {
	query := fmt.Sprintf(`SELECT %s FROM probation_contracts WHERE 1=1`, contractColumns)
	countQuery := `SELECT COUNT(*) FROM probation_contracts WHERE 1=1`
	var args []interface{}

	if filter.EmployeeID != "" {
		clause := fmt.Sprintf(" AND employee_id = $%d", len(args)+1)
		query += clause
		countQuery += clause
		args = append(args, filter.EmployeeID)
	}
	if filter.Status != "" {
		clause := fmt.Sprintf(" AND status = $%d", len(args)+1)
		query += clause
		countQuery += clause
		args = append(args, filter.Status)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	query += fmt.Sprintf(" ORDER BY end_date ASC LIMIT %d OFFSET %d", pageSize, (page-1)*pageSize)

	var contracts []models.ProbationContract
	if err := r.db.SelectContext(ctx, &contracts, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list contracts: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count contracts: %w", err)
	}

	return contracts, total, nil
}

// FindByID returns a contract by identifier.
func (r *ProbationRepository) FindByID(ctx context.Context, id string) (*models.ProbationContract, error) {
	query := fmt.Sprintf(`SELECT %s FROM probation_contracts WHERE id = $1 LIMIT 1`, contractColumns)
	var contract models.ProbationContract
	if err := r.db.GetContext(ctx, &contract, query, id); err != nil {
		return nil, err
	}
	return &contract, nil
}

// Create inserts a contract.
func (r *ProbationRepository) Create(ctx context.Context, contract *models.ProbationContract) error {
	if contract.ID == "" {
		contract.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	contract.CreatedAt = now
	contract.UpdatedAt = now
	if contract.Status == "" {
		contract.Status = models.ProbationActive
	}

	const query = `INSERT INTO probation_contracts (id, employee_id, start_date, end_date, evaluation_date, training_deadline, status, notes, created_at, updated_at)
        VALUES (:id, :employee_id, :start_date, :end_date, :evaluation_date, :training_deadline, :status, :notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, contract); err != nil {
		return fmt.Errorf("create contract: %w", err)
	}
	return nil
}

// Update rewrites a contract.
func (r *ProbationRepository) Update(ctx context.Context, contract *models.ProbationContract) error {
	contract.UpdatedAt = time.Now().UTC()
	const query = `UPDATE probation_contracts SET start_date = :start_date, end_date = :end_date,
        evaluation_date = :evaluation_date, training_deadline = :training_deadline,
        status = :status, notes = :notes, updated_at = :updated_at WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, contract)
	if err != nil {
		return fmt.Errorf("update contract: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("update contract %s: no rows affected", contract.ID)
	}
	return nil
}

// Expiring returns active contracts whose end date falls inside the window.
func (r *ProbationRepository) Expiring(ctx context.Context, from, until time.Time) ([]models.ProbationContract, error) {
	query := fmt.Sprintf(`SELECT %s FROM probation_contracts WHERE status = $1 AND end_date >= $2 AND end_date <= $3 ORDER BY end_date ASC`, contractColumns)
	var contracts []models.ProbationContract
	if err := r.db.SelectContext(ctx, &contracts, query, models.ProbationActive, from, until); err != nil {
		return nil, fmt.Errorf("list expiring contracts: %w", err)
	}
	return contracts, nil
}

// EvaluationsDue returns active contracts with a scheduled evaluation inside
// the window.
func (r *ProbationRepository) EvaluationsDue(ctx context.Context, from, until time.Time) ([]models.ProbationContract, error) {
	query := fmt.Sprintf(`SELECT %s FROM probation_contracts WHERE status = $1 AND evaluation_date IS NOT NULL AND evaluation_date >= $2 AND evaluation_date <= $3 ORDER BY evaluation_date ASC`, contractColumns)
	var contracts []models.ProbationContract
	if err := r.db.SelectContext(ctx, &contracts, query, models.ProbationActive, from, until); err != nil {
		return nil, fmt.Errorf("list due evaluations: %w", err)
	}
	return contracts, nil
}

// TrainingOverdue returns active contracts whose training-plan deadline has
// already passed.
func (r *ProbationRepository) TrainingOverdue(ctx context.Context, asOf time.Time) ([]models.ProbationContract, error) {
	query := fmt.Sprintf(`SELECT %s FROM probation_contracts WHERE status = $1 AND training_deadline IS NOT NULL AND training_deadline < $2 ORDER BY training_deadline ASC`, contractColumns)
	var contracts []models.ProbationContract
	if err := r.db.SelectContext(ctx, &contracts, query, models.ProbationActive, asOf); err != nil {
		return nil, fmt.Errorf("list overdue training: %w", err)
	}
	return contracts, nil
}
