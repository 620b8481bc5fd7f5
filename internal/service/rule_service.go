package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/danuarta/hr-promotion-api/internal/eligibility"
	"github.com/danuarta/hr-promotion-api/internal/models"
	appErrors "github.com/danuarta/hr-promotion-api/pkg/errors"
)

type ruleRepo interface {
	ListAll(ctx context.Context) ([]models.PromotionRule, error)
	List(ctx context.Context, filter models.PromotionRuleFilter) ([]models.PromotionRule, int, error)
	FindByID(ctx context.Context, id string) (*models.PromotionRule, error)
	FindByPosition(ctx context.Context, position string) (*models.PromotionRule, error)
	Create(ctx context.Context, rule *models.PromotionRule) error
	Update(ctx context.Context, rule *models.PromotionRule) error
	Delete(ctx context.Context, id string) error
}

// UpsertRuleRequest carries a promotion rule payload.
type UpsertRuleRequest struct {
	CurrentPosition      string  `json:"current_position" validate:"required"`
	Promotion            string  `json:"promotion" validate:"required"`
	MinTenureMonths      int     `json:"min_tenure_months" validate:"gte=0"`
	MinExamGrade         float64 `json:"min_exam_grade" validate:"gte=0,lte=100"`
	MinCourseCoverage    float64 `json:"min_course_coverage" validate:"gte=0,lte=100"`
	MinPerformanceRating float64 `json:"min_performance_rating" validate:"gte=0,lte=100"`
}

// RuleService administers promotion rules and owns the in-memory catalog the
// evaluator reads. Rule writes swap in a freshly built catalog, so readers
// always see a complete snapshot of the current rule set.
type RuleService struct {
	repo      ruleRepo
	validator *validator.Validate
	logger    *zap.Logger

	mu      sync.RWMutex
	catalog *eligibility.Catalog
}

// NewRuleService constructs a RuleService.
func NewRuleService(repo ruleRepo, validate *validator.Validate, logger *zap.Logger) *RuleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RuleService{repo: repo, validator: validate, logger: logger}
}

// LoadCatalog rebuilds the lookup from the full stored rule set. Called once
// at startup and after every rule write.
func (s *RuleService) LoadCatalog(ctx context.Context) error {
	rules, err := s.repo.ListAll(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rule catalog")
	}

	engineRules := make([]eligibility.Rule, 0, len(rules))
	for _, rule := range rules {
		engineRules = append(engineRules, toEngineRule(rule))
	}

	s.mu.Lock()
	s.catalog = eligibility.NewCatalog(engineRules)
	s.mu.Unlock()

	s.logger.Info("rule catalog loaded", zap.Int("rules", len(engineRules)))
	return nil
}

// Catalog returns the current catalog snapshot.
func (s *RuleService) Catalog() *eligibility.Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog
}

// Lookup finds the rule for a position in the current snapshot.
func (s *RuleService) Lookup(position string) (*eligibility.Rule, bool) {
	return s.Catalog().Lookup(position)
}

// List returns rules with pagination metadata.
func (s *RuleService) List(ctx context.Context, filter models.PromotionRuleFilter) ([]models.PromotionRule, *models.Pagination, error) {
	rules, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rules")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	return rules, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Get returns a rule by id.
func (s *RuleService) Get(ctx context.Context, id string) (*models.PromotionRule, error) {
	rule, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "rule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rule")
	}
	return rule, nil
}

// Create stores a new rule for a position that does not have one yet.
func (s *RuleService) Create(ctx context.Context, req UpsertRuleRequest) (*models.PromotionRule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rule payload")
	}

	existing, err := s.repo.FindByPosition(ctx, req.CurrentPosition)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing rule")
	}
	if existing != nil {
		return nil, appErrors.Clone(appErrors.ErrRuleExists, "")
	}

	rule := &models.PromotionRule{
		CurrentPosition:      req.CurrentPosition,
		Promotion:            req.Promotion,
		MinTenureMonths:      req.MinTenureMonths,
		MinExamGrade:         req.MinExamGrade,
		MinCourseCoverage:    req.MinCourseCoverage,
		MinPerformanceRating: req.MinPerformanceRating,
	}
	if err := s.repo.Create(ctx, rule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create rule")
	}

	if err := s.LoadCatalog(ctx); err != nil {
		s.logger.Warn("catalog reload after create failed", zap.Error(err))
	}
	return rule, nil
}

// Update rewrites an existing rule. Changing a rule changes future
// evaluations only; recorded exam attempts keep their snapshot thresholds
// until an explicit recompute.
func (s *RuleService) Update(ctx context.Context, id string, req UpsertRuleRequest) (*models.PromotionRule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rule payload")
	}

	rule, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if other, err := s.repo.FindByPosition(ctx, req.CurrentPosition); err == nil && other != nil && other.ID != id {
		return nil, appErrors.Clone(appErrors.ErrRuleExists, "")
	} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing rule")
	}

	rule.CurrentPosition = req.CurrentPosition
	rule.Promotion = req.Promotion
	rule.MinTenureMonths = req.MinTenureMonths
	rule.MinExamGrade = req.MinExamGrade
	rule.MinCourseCoverage = req.MinCourseCoverage
	rule.MinPerformanceRating = req.MinPerformanceRating

	if err := s.repo.Update(ctx, rule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update rule")
	}

	if err := s.LoadCatalog(ctx); err != nil {
		s.logger.Warn("catalog reload after update failed", zap.Error(err))
	}
	return rule, nil
}

// Delete removes a rule; employees on that position lose their promotion
// path, which the evaluator reports as the terminal step-0 state.
func (s *RuleService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete rule")
	}
	if err := s.LoadCatalog(ctx); err != nil {
		s.logger.Warn("catalog reload after delete failed", zap.Error(err))
	}
	return nil
}

func toEngineRule(rule models.PromotionRule) eligibility.Rule {
	return eligibility.Rule{
		CurrentPosition:      rule.CurrentPosition,
		Promotion:            rule.Promotion,
		MinTenureMonths:      rule.MinTenureMonths,
		MinExamGrade:         rule.MinExamGrade,
		MinCourseCoverage:    rule.MinCourseCoverage,
		MinPerformanceRating: rule.MinPerformanceRating,
	}
}
