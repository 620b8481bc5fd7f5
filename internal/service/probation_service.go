package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/danuarta/hr-promotion-api/internal/models"
	appErrors "github.com/danuarta/hr-promotion-api/pkg/errors"
)

// probationRepository is the persistence surface for probation contracts.
type probationRepository interface {
	List(ctx context.Context, filter models.ProbationFilter) ([]models.ProbationContract, int, error)
	FindByID(ctx context.Context, id string) (*models.ProbationContract, error)
	Create(ctx context.Context, contract *models.ProbationContract) error
	Update(ctx context.Context, contract *models.ProbationContract) error
	Expiring(ctx context.Context, from, until time.Time) ([]models.ProbationContract, error)
	EvaluationsDue(ctx context.Context, from, until time.Time) ([]models.ProbationContract, error)
	TrainingOverdue(ctx context.Context, asOf time.Time) ([]models.ProbationContract, error)
}

// UpsertProbationRequest is the payload for creating or updating a contract.
// Dates are ISO form strings; EvaluationDate and TrainingDeadline are
// optional.
type UpsertProbationRequest struct {
	EmployeeID       string `json:"employee_id" validate:"required"`
	StartDate        string `json:"start_date" validate:"required"`
	EndDate          string `json:"end_date" validate:"required"`
	EvaluationDate   string `json:"evaluation_date"`
	TrainingDeadline string `json:"training_deadline"`
	Status           string `json:"status" validate:"omitempty,oneof=ACTIVE COMPLETED TERMINATED"`
	Notes            string `json:"notes" validate:"max=1000"`
}

// ProbationAlerts groups the contracts that need HR attention within the
// configured windows.
type ProbationAlerts struct {
	Expiring        []models.ProbationContract `json:"expiring"`
	EvaluationsDue  []models.ProbationContract `json:"evaluations_due"`
	TrainingOverdue []models.ProbationContract `json:"training_overdue"`
}

// ProbationService tracks probationary contracts and surfaces the upcoming
// expiries, evaluations and overdue training plans.
type ProbationService struct {
	repo             probationRepository
	employees        examEmployeeLookup
	validate         *validator.Validate
	logger           *zap.Logger
	expiryWindow     time.Duration
	evaluationWindow time.Duration
	now              func() time.Time
}

// NewProbationService constructs a probation service. The windows control
// how far ahead the alert queries look.
func NewProbationService(repo probationRepository, employees examEmployeeLookup, expiryWindowDays, evaluationWindowDays int, logger *zap.Logger) *ProbationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if expiryWindowDays <= 0 {
		expiryWindowDays = 30
	}
	if evaluationWindowDays <= 0 {
		evaluationWindowDays = 14
	}
	return &ProbationService{
		repo:             repo,
		employees:        employees,
		validate:         validator.New(),
		logger:           logger,
		expiryWindow:     time.Duration(expiryWindowDays) * 24 * time.Hour,
		evaluationWindow: time.Duration(evaluationWindowDays) * 24 * time.Hour,
		now:              time.Now,
	}
}

// List returns a page of contracts.
func (s *ProbationService) List(ctx context.Context, filter models.ProbationFilter) ([]models.ProbationContract, *models.Pagination, error) {
	contracts, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list probation contracts")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	return contracts, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Get returns one contract by identifier.
func (s *ProbationService) Get(ctx context.Context, id string) (*models.ProbationContract, error) {
	contract, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load probation contract")
	}
	return contract, nil
}

// Create registers a contract for an existing employee.
func (s *ProbationService) Create(ctx context.Context, req UpsertProbationRequest) (*models.ProbationContract, error) {
	contract, err := s.buildContract(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, contract); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create probation contract")
	}
	return contract, nil
}

// Update rewrites a contract.
func (s *ProbationService) Update(ctx context.Context, id string, req UpsertProbationRequest) (*models.ProbationContract, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	contract, err := s.buildContract(ctx, req)
	if err != nil {
		return nil, err
	}
	contract.ID = existing.ID
	contract.CreatedAt = existing.CreatedAt
	if err := s.repo.Update(ctx, contract); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update probation contract")
	}
	return contract, nil
}

// Alerts gathers the contracts expiring soon, evaluations coming due and
// training plans already overdue.
func (s *ProbationService) Alerts(ctx context.Context) (*ProbationAlerts, error) {
	today := s.now().UTC()

	expiring, err := s.repo.Expiring(ctx, today, today.Add(s.expiryWindow))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load expiring contracts")
	}
	evaluations, err := s.repo.EvaluationsDue(ctx, today, today.Add(s.evaluationWindow))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load due evaluations")
	}
	overdue, err := s.repo.TrainingOverdue(ctx, today)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load overdue training plans")
	}

	return &ProbationAlerts{
		Expiring:        expiring,
		EvaluationsDue:  evaluations,
		TrainingOverdue: overdue,
	}, nil
}

func (s *ProbationService) buildContract(ctx context.Context, req UpsertProbationRequest) (*models.ProbationContract, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid probation payload")
	}
	if _, err := s.employees.GetEmployee(ctx, req.EmployeeID); err != nil {
		return nil, err
	}

	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return nil, appErrors.New(appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "start_date must be an ISO date")
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return nil, appErrors.New(appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "end_date must be an ISO date")
	}
	if !end.After(start) {
		return nil, appErrors.New(appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "end_date must be after start_date")
	}

	status := models.ProbationActive
	if req.Status != "" {
		status = models.ProbationStatus(req.Status)
	}
	contract := &models.ProbationContract{
		EmployeeID: req.EmployeeID,
		StartDate:  start,
		EndDate:    end,
		Status:     status,
		Notes:      req.Notes,
	}
	if req.EvaluationDate != "" {
		evaluation, err := time.Parse("2006-01-02", req.EvaluationDate)
		if err != nil {
			return nil, appErrors.New(appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "evaluation_date must be an ISO date")
		}
		contract.EvaluationDate = &evaluation
	}
	if req.TrainingDeadline != "" {
		deadline, err := time.Parse("2006-01-02", req.TrainingDeadline)
		if err != nil {
			return nil, appErrors.New(appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "training_deadline must be an ISO date")
		}
		contract.TrainingDeadline = &deadline
	}
	return contract, nil
}
