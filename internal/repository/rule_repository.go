package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/danuarta/hr-promotion-api/internal/eligibility"
	"github.com/danuarta/hr-promotion-api/internal/models"
)

// RuleRepository handles promotion rule persistence.
type RuleRepository struct {
	db *sqlx.DB
}

// NewRuleRepository creates a new rule repository.
func NewRuleRepository(db *sqlx.DB) *RuleRepository {
	return &RuleRepository{db: db}
}

const ruleColumns = `id, current_position, promotion, min_tenure_months, min_exam_grade, min_course_coverage, min_performance_rating, created_at, updated_at`

// ListAll returns every rule, used to build the in-memory catalog.
func (r *RuleRepository) ListAll(ctx context.Context) ([]models.PromotionRule, error) {
	query := fmt.Sprintf(`SELECT %s FROM promotion_rules ORDER BY current_position ASC`, ruleColumns)
	var rules []models.PromotionRule
	if err := r.db.SelectContext(ctx, &rules, query); err != nil {
		return nil, fmt.Errorf("list all rules: %w", err)
	}
	return rules, nil
}

// List returns rules matching the filter with pagination.
func (r *RuleRepository) List(ctx context.Context, filter models.PromotionRuleFilter) ([]models.PromotionRule, int, error) {
	query := fmt.Sprintf(`SELECT %s FROM promotion_rules WHERE 1=1`, ruleColumns)
	countQuery := `SELECT COUNT(*) FROM promotion_rules WHERE 1=1`
	var args []interface{}

	if filter.Search != "" {
		clause := fmt.Sprintf(" AND (current_position ILIKE $%d OR promotion ILIKE $%d)", len(args)+1, len(args)+1)
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

	query += fmt.Sprintf(" ORDER BY current_position ASC LIMIT %d OFFSET %d", pageSize, (page-1)*pageSize)

	var rules []models.PromotionRule
	if err := r.db.SelectContext(ctx, &rules, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list rules: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count rules: %w", err)
	}

	return rules, total, nil
}

// FindByID returns a rule by identifier.
func (r *RuleRepository) FindByID(ctx context.Context, id string) (*models.PromotionRule, error) {
	query := fmt.Sprintf(`SELECT %s FROM promotion_rules WHERE id = $1 LIMIT 1`, ruleColumns)
	var rule models.PromotionRule
	if err := r.db.GetContext(ctx, &rule, query, id); err != nil {
		return nil, err
	}
	return &rule, nil
}

// FindByPosition returns the rule for a normalized position name.
func (r *RuleRepository) FindByPosition(ctx context.Context, position string) (*models.PromotionRule, error) {
	query := fmt.Sprintf(`SELECT %s FROM promotion_rules WHERE current_position = $1 LIMIT 1`, ruleColumns)
	var rule models.PromotionRule
	if err := r.db.GetContext(ctx, &rule, query, eligibility.NormalizePosition(position)); err != nil {
		return nil, err
	}
	return &rule, nil
}

// Create inserts a rule. The position is stored normalized so the unique
// index enforces the one-rule-per-position invariant.
func (r *RuleRepository) Create(ctx context.Context, rule *models.PromotionRule) error {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	rule.CurrentPosition = eligibility.NormalizePosition(rule.CurrentPosition)
	rule.CreatedAt = now
	rule.UpdatedAt = now

	const query = `INSERT INTO promotion_rules (id, current_position, promotion, min_tenure_months, min_exam_grade, min_course_coverage, min_performance_rating, created_at, updated_at)
        VALUES (:id, :current_position, :promotion, :min_tenure_months, :min_exam_grade, :min_course_coverage, :min_performance_rating, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, rule); err != nil {
		return fmt.Errorf("create rule: %w", err)
	}
	return nil
}

// Update rewrites a rule's thresholds and target.
func (r *RuleRepository) Update(ctx context.Context, rule *models.PromotionRule) error {
	rule.CurrentPosition = eligibility.NormalizePosition(rule.CurrentPosition)
	rule.UpdatedAt = time.Now().UTC()

	const query = `UPDATE promotion_rules SET current_position = :current_position, promotion = :promotion,
        min_tenure_months = :min_tenure_months, min_exam_grade = :min_exam_grade,
        min_course_coverage = :min_course_coverage, min_performance_rating = :min_performance_rating,
        updated_at = :updated_at WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, rule)
	if err != nil {
		return fmt.Errorf("update rule: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("update rule %s: no rows affected", rule.ID)
	}
	return nil
}

// Delete removes a rule.
func (r *RuleRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM promotion_rules WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	return nil
}
