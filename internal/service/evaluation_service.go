package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/danuarta/hr-promotion-api/internal/eligibility"
	"github.com/danuarta/hr-promotion-api/internal/models"
	appErrors "github.com/danuarta/hr-promotion-api/pkg/errors"
	"github.com/danuarta/hr-promotion-api/pkg/jobs"
)

// evaluationEmployeeRepository is the persistence surface the evaluation
// service needs.
type evaluationEmployeeRepository interface {
	List(ctx context.Context, filter models.EmployeeFilter) ([]models.Employee, int, error)
	FindByID(ctx context.Context, id string) (*models.Employee, error)
	Create(ctx context.Context, employee *models.Employee) error
	Update(ctx context.Context, employee *models.Employee) error
	GetMetrics(ctx context.Context, employeeID string) (*models.EmployeeMetrics, error)
	PutMetrics(ctx context.Context, metrics *models.EmployeeMetrics) error
	ListEligibility(ctx context.Context, filter models.EmployeeFilter) ([]models.EmployeeEligibility, error)
}

// ruleLookup resolves the promotion rule matching a position, if any.
type ruleLookup interface {
	Lookup(position string) (*eligibility.Rule, bool)
}

// CreateEmployeeRequest is the payload for registering an employee.
type CreateEmployeeRequest struct {
	NIK      string `json:"nik" validate:"required,min=3,max=32"`
	FullName string `json:"full_name" validate:"required,min=2,max=150"`
	Position string `json:"position" validate:"required,min=2,max=100"`
	Active   *bool  `json:"active"`
}

// UpdateEmployeeRequest is the payload for updating an employee.
type UpdateEmployeeRequest struct {
	NIK      string `json:"nik" validate:"required,min=3,max=32"`
	FullName string `json:"full_name" validate:"required,min=2,max=150"`
	Position string `json:"position" validate:"required,min=2,max=100"`
	Active   *bool  `json:"active"`
}

// MetricsInput carries the editable metric fields for one employee. Grades
// and coverage are clamped to [0,100] on write rather than rejected, so a
// form that posts 103 lands at 100. ExamGrade 0 means "no exam taken yet".
type MetricsInput struct {
	PerformanceRating float64 `json:"performance_rating" validate:"gte=0"`
	PositionStartDate string  `json:"position_start_date"`
	CourseCoverage    float64 `json:"course_coverage"`
	ExamGrade         float64 `json:"exam_grade"`
}

// EvaluationSnapshot bundles an employee with their stored metrics and the
// rule currently governing their position.
type EvaluationSnapshot struct {
	Employee *models.Employee        `json:"employee"`
	Metrics  *models.EmployeeMetrics `json:"metrics,omitempty"`
	Rule     *eligibility.Rule       `json:"rule,omitempty"`
	// Current is evaluated on read. It should always agree with the derived
	// columns stored on Metrics; a mismatch means a stale row.
	Current *eligibility.Outcome `json:"current,omitempty"`
}

// EvaluationService owns employee records and keeps the derived eligibility
// columns synchronized with the metric inputs. Every write path funnels
// through one evaluation so the stored derived state never drifts from what
// the pure evaluation would produce.
type EvaluationService struct {
	repo      evaluationEmployeeRepository
	rules     ruleLookup
	cache     *CacheService
	metrics   *MetricsService
	debouncer *jobs.Debouncer
	validate  *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewEvaluationService constructs an evaluation service.
func NewEvaluationService(repo evaluationEmployeeRepository, rules ruleLookup, cache *CacheService, metrics *MetricsService, debouncer *jobs.Debouncer, logger *zap.Logger) *EvaluationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EvaluationService{
		repo:      repo,
		rules:     rules,
		cache:     cache,
		metrics:   metrics,
		debouncer: debouncer,
		validate:  validator.New(),
		logger:    logger,
		now:       time.Now,
	}
}

// ListEmployees returns a page of employees.
func (s *EvaluationService) ListEmployees(ctx context.Context, filter models.EmployeeFilter) ([]models.Employee, *models.Pagination, error) {
	employees, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list employees")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	return employees, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// GetEmployee returns one employee by identifier.
func (s *EvaluationService) GetEmployee(ctx context.Context, id string) (*models.Employee, error) {
	employee, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employee")
	}
	return employee, nil
}

// CreateEmployee registers an employee. The position is normalized so the
// rule catalog matches regardless of input casing.
func (s *EvaluationService) CreateEmployee(ctx context.Context, req CreateEmployeeRequest) (*models.Employee, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid employee payload")
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	employee := &models.Employee{
		NIK:      req.NIK,
		FullName: req.FullName,
		Position: eligibility.NormalizePosition(req.Position),
		Active:   active,
	}
	if err := s.repo.Create(ctx, employee); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create employee")
	}
	s.invalidateReports(ctx)
	return employee, nil
}

// UpdateEmployee rewrites an employee record. A position change re-evaluates
// the stored metrics against the new position's rule.
func (s *EvaluationService) UpdateEmployee(ctx context.Context, id string, req UpdateEmployeeRequest) (*models.Employee, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid employee payload")
	}
	employee, err := s.GetEmployee(ctx, id)
	if err != nil {
		return nil, err
	}

	previousPosition := employee.Position
	employee.NIK = req.NIK
	employee.FullName = req.FullName
	employee.Position = eligibility.NormalizePosition(req.Position)
	if req.Active != nil {
		employee.Active = *req.Active
	}
	if err := s.repo.Update(ctx, employee); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update employee")
	}

	if employee.Position != previousPosition {
		if err := s.reevaluateStored(ctx, employee); err != nil {
			s.logger.Warn("re-evaluation after position change failed",
				zap.String("employee_id", employee.ID), zap.Error(err))
		}
	}
	s.invalidateReports(ctx)
	return employee, nil
}

// Snapshot returns the employee together with stored metrics and the rule
// for their position.
func (s *EvaluationService) Snapshot(ctx context.Context, employeeID string) (*EvaluationSnapshot, error) {
	employee, err := s.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	metrics, err := s.repo.GetMetrics(ctx, employeeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load metrics")
	}
	snapshot := &EvaluationSnapshot{Employee: employee, Metrics: metrics}
	if rule, ok := s.rules.Lookup(employee.Position); ok {
		snapshot.Rule = rule
	}
	if metrics != nil {
		input := eligibility.Metrics{
			PerformanceRating: metrics.PerformanceRating,
			CourseCoverage:    metrics.CourseCoverage,
			ExamGrade:         metrics.ExamGrade,
		}
		if metrics.PositionStartDate != nil {
			input.PositionStart = eligibility.TimeDate(*metrics.PositionStartDate)
		}
		outcome := eligibility.Evaluate(snapshot.Rule, input, s.now().UTC())
		snapshot.Current = &outcome
	}
	return snapshot, nil
}

// Persist writes the metric inputs and their derived evaluation in one
// synchronous pass.
func (s *EvaluationService) Persist(ctx context.Context, employeeID string, input MetricsInput) (*models.EmployeeMetrics, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid metrics payload")
	}
	employee, err := s.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	metrics, err := s.repo.GetMetrics(ctx, employeeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load metrics")
	}
	if metrics == nil {
		metrics = &models.EmployeeMetrics{EmployeeID: employeeID}
	}

	metrics.PerformanceRating = clampPercent(input.PerformanceRating)
	metrics.CourseCoverage = clampPercent(input.CourseCoverage)
	metrics.ExamGrade = clampPercent(input.ExamGrade)
	metrics.PositionStartDate = parseStoredDate(input.PositionStartDate)

	return s.persistEvaluated(ctx, employee, metrics)
}

// Submit schedules a debounced write of the metric inputs. Rapid edits to
// the same employee coalesce into one evaluation; only the last submitted
// payload is persisted.
func (s *EvaluationService) Submit(employeeID string, input MetricsInput) error {
	if err := s.validate.Struct(input); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid metrics payload")
	}
	if s.debouncer == nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_, err := s.Persist(ctx, employeeID, input)
		return err
	}
	s.debouncer.Schedule(employeeID, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if _, err := s.Persist(ctx, employeeID, input); err != nil {
			s.logger.Error("debounced metrics write failed",
				zap.String("employee_id", employeeID), zap.Error(err))
		}
	})
	return nil
}

// SyncExamGrade pushes a freshly recorded exam grade into the employee's
// metrics and re-derives the evaluation. A missing metrics record is created
// so an exam recorded before any metric entry still lands.
func (s *EvaluationService) SyncExamGrade(ctx context.Context, employeeID string, grade float64) error {
	employee, err := s.GetEmployee(ctx, employeeID)
	if err != nil {
		return err
	}
	metrics, err := s.repo.GetMetrics(ctx, employeeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load metrics")
	}
	if metrics == nil {
		metrics = &models.EmployeeMetrics{EmployeeID: employeeID}
	}
	metrics.ExamGrade = clampPercent(grade)
	_, err = s.persistEvaluated(ctx, employee, metrics)
	return err
}

// ListEligibility returns the roster of active employees with their stored
// evaluation state, used by the report surfaces.
func (s *EvaluationService) ListEligibility(ctx context.Context, filter models.EmployeeFilter) ([]models.EmployeeEligibility, error) {
	entries, err := s.repo.ListEligibility(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list eligibility")
	}
	for i := range entries {
		if rule, ok := s.rules.Lookup(entries[i].Employee.Position); ok {
			entries[i].Rule = ruleToModel(rule)
		}
	}
	return entries, nil
}

// reevaluateStored re-derives the evaluation for whatever metrics are
// currently stored, without touching the inputs.
func (s *EvaluationService) reevaluateStored(ctx context.Context, employee *models.Employee) error {
	metrics, err := s.repo.GetMetrics(ctx, employee.ID)
	if err != nil || metrics == nil {
		return err
	}
	_, err = s.persistEvaluated(ctx, employee, metrics)
	return err
}

func (s *EvaluationService) persistEvaluated(ctx context.Context, employee *models.Employee, metrics *models.EmployeeMetrics) (*models.EmployeeMetrics, error) {
	rule, _ := s.rules.Lookup(employee.Position)

	input := eligibility.Metrics{
		PerformanceRating: metrics.PerformanceRating,
		CourseCoverage:    metrics.CourseCoverage,
		ExamGrade:         metrics.ExamGrade,
	}
	if metrics.PositionStartDate != nil {
		input.PositionStart = eligibility.TimeDate(*metrics.PositionStartDate)
	}

	today := s.now().UTC()
	outcome := eligibility.Evaluate(rule, input, today)

	metrics.Step = outcome.Step
	metrics.Eligible = outcome.Eligible
	metrics.CanTakeExam = outcome.CanTakeExam
	metrics.FailedAt = string(outcome.FailedAt)
	metrics.LastEvaluatedAt = &today

	if err := s.repo.PutMetrics(ctx, metrics); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist metrics")
	}
	s.metrics.RecordEvaluation(metrics.FailedAt)
	s.invalidateReports(ctx)
	return metrics, nil
}

func (s *EvaluationService) invalidateReports(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, "report:*"); err != nil {
		s.logger.Warn("report cache invalidation failed", zap.Error(err))
	}
}

// clampPercent pins a grade or coverage value into [0,100].
func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// parseStoredDate parses an ISO form date for storage. Unparseable input is
// stored as absent; the evaluation treats an absent start date as zero
// elapsed tenure, which fails the time gate rather than erroring.
func parseStoredDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &t
}

func ruleToModel(rule *eligibility.Rule) *models.PromotionRule {
	if rule == nil {
		return nil
	}
	return &models.PromotionRule{
		CurrentPosition:      rule.CurrentPosition,
		Promotion:            rule.Promotion,
		MinTenureMonths:      rule.MinTenureMonths,
		MinExamGrade:         rule.MinExamGrade,
		MinCourseCoverage:    rule.MinCourseCoverage,
		MinPerformanceRating: rule.MinPerformanceRating,
	}
}
