package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/danuarta/hr-promotion-api/internal/eligibility"
	"github.com/danuarta/hr-promotion-api/internal/models"
	appErrors "github.com/danuarta/hr-promotion-api/pkg/errors"
)

// examAttemptRepository is the persistence surface for the exam ledger.
type examAttemptRepository interface {
	Append(ctx context.Context, attempt *models.ExamAttempt) error
	ListByEmployee(ctx context.Context, employeeID string) ([]models.ExamAttempt, error)
	ListAll(ctx context.Context) ([]models.ExamAttempt, error)
	UpdateDerived(ctx context.Context, id string, passed bool, minGradeRequired float64) error
}

// gradeSynchronizer pushes a recorded exam grade back into the employee's
// metrics so the derived eligibility state stays current.
type gradeSynchronizer interface {
	SyncExamGrade(ctx context.Context, employeeID string, grade float64) error
}

// examEmployeeLookup resolves the employee an attempt belongs to.
type examEmployeeLookup interface {
	GetEmployee(ctx context.Context, id string) (*models.Employee, error)
}

// RecordAttemptRequest is the payload for recording one exam sitting. Force
// lets an administrator bypass the cooldown gate for corrections.
type RecordAttemptRequest struct {
	ExamDate string  `json:"exam_date" validate:"required"`
	Grade    float64 `json:"grade" validate:"gte=0,lte=100"`
	Force    bool    `json:"force"`
}

// ExamHistory bundles an employee's full attempt ledger with the current
// cooldown verdict.
type ExamHistory struct {
	Attempts []models.ExamAttempt       `json:"attempts"`
	Cooldown eligibility.CooldownStatus `json:"cooldown"`
}

// ExamService owns the append-only exam ledger and enforces the retake
// cooldown policy at the single point where attempts enter the system.
type ExamService struct {
	repo      examAttemptRepository
	employees examEmployeeLookup
	rules     ruleLookup
	sync      gradeSynchronizer
	metrics   *MetricsService
	validate  *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewExamService constructs an exam service.
func NewExamService(repo examAttemptRepository, employees examEmployeeLookup, rules ruleLookup, sync gradeSynchronizer, metrics *MetricsService, logger *zap.Logger) *ExamService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExamService{
		repo:      repo,
		employees: employees,
		rules:     rules,
		sync:      sync,
		metrics:   metrics,
		validate:  validator.New(),
		logger:    logger,
		now:       time.Now,
	}
}

// RecordAttempt appends one exam sitting. The pass verdict and required
// minimum are snapshotted from the rule governing the employee's position at
// record time; the cooldown policy blocks the write unless Force is set.
func (s *ExamService) RecordAttempt(ctx context.Context, employeeID string, req RecordAttemptRequest) (*models.ExamAttempt, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid exam payload")
	}
	examDate, err := time.Parse("2006-01-02", req.ExamDate)
	if err != nil {
		return nil, appErrors.New(appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "exam_date must be an ISO date")
	}

	employee, err := s.employees.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	rule, ok := s.rules.Lookup(employee.Position)
	if !ok {
		return nil, appErrors.New(appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "no promotion rule exists for this position")
	}

	history, err := s.repo.ListByEmployee(ctx, employeeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam history")
	}
	if !req.Force {
		status := eligibility.Cooldown(toCooldownAttempts(history), s.now().UTC())
		if !status.CanRetake {
			return nil, appErrors.ErrCooldownActive
		}
	}

	attempt := &models.ExamAttempt{
		EmployeeID:       employeeID,
		ExamDate:         examDate,
		Grade:            clampPercent(req.Grade),
		MinGradeRequired: rule.MinExamGrade,
		Passed:           clampPercent(req.Grade) >= rule.MinExamGrade,
		Position:         employee.Position,
	}
	if err := s.repo.Append(ctx, attempt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record exam attempt")
	}
	s.metrics.RecordExamAttempt(attempt.Passed)

	if err := s.sync.SyncExamGrade(ctx, employeeID, attempt.Grade); err != nil {
		s.logger.Warn("exam grade synchronization failed",
			zap.String("employee_id", employeeID), zap.Error(err))
	}
	return attempt, nil
}

// History returns the employee's attempt ledger, newest first, together
// with the cooldown verdict as of now.
func (s *ExamService) History(ctx context.Context, employeeID string) (*ExamHistory, error) {
	if _, err := s.employees.GetEmployee(ctx, employeeID); err != nil {
		return nil, err
	}
	attempts, err := s.repo.ListByEmployee(ctx, employeeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam history")
	}
	return &ExamHistory{
		Attempts: attempts,
		Cooldown: eligibility.Cooldown(toCooldownAttempts(attempts), s.now().UTC()),
	}, nil
}

// CooldownStatus returns only the retake verdict for an employee.
func (s *ExamService) CooldownStatus(ctx context.Context, employeeID string) (*eligibility.CooldownStatus, error) {
	history, err := s.History(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	return &history.Cooldown, nil
}

// RecomputeAll re-derives the pass verdict for every stored attempt against
// the catalog as it stands now. Attempts whose snapshotted position no longer
// has a rule are skipped, rows whose derived values already match are left
// untouched, and individual write failures are counted without aborting the
// sweep. Running it twice in a row changes nothing the second time.
func (s *ExamService) RecomputeAll(ctx context.Context) (*models.RecomputeSummary, error) {
	attempts, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam attempts")
	}

	summary := &models.RecomputeSummary{}
	for _, attempt := range attempts {
		rule, ok := s.rules.Lookup(attempt.Position)
		if !ok {
			continue
		}
		summary.Processed++

		passed := attempt.Grade >= rule.MinExamGrade
		if passed == attempt.Passed && attempt.MinGradeRequired == rule.MinExamGrade {
			continue
		}
		if err := s.repo.UpdateDerived(ctx, attempt.ID, passed, rule.MinExamGrade); err != nil {
			summary.Failed++
			s.logger.Error("recompute failed for attempt",
				zap.String("attempt_id", attempt.ID), zap.Error(err))
			continue
		}
		summary.Changed++
	}

	s.metrics.RecordRecompute(summary.Changed)
	s.logger.Info("exam recompute finished",
		zap.Int("processed", summary.Processed),
		zap.Int("changed", summary.Changed),
		zap.Int("failed", summary.Failed))
	return summary, nil
}

func toCooldownAttempts(attempts []models.ExamAttempt) []eligibility.Attempt {
	out := make([]eligibility.Attempt, 0, len(attempts))
	for _, attempt := range attempts {
		out = append(out, eligibility.Attempt{Date: attempt.ExamDate, Passed: attempt.Passed})
	}
	return out
}
