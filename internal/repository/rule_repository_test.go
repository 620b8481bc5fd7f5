package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danuarta/hr-promotion-api/internal/models"
)

func newRuleMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestRuleRepositoryListAll(t *testing.T) {
	db, mock, cleanup := newRuleMock(t)
	defer cleanup()
	repo := NewRuleRepository(db)

	rows := sqlmock.NewRows([]string{"id", "current_position", "promotion", "min_tenure_months", "min_exam_grade", "min_course_coverage", "min_performance_rating", "created_at", "updated_at"}).
		AddRow("r1", "OPERATOR C", "OPERATOR B", 6, 80.0, 60.0, 80.0, time.Now(), time.Now()).
		AddRow("r2", "OPERATOR B", "OPERATOR A", 12, 85.0, 70.0, 85.0, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, current_position, promotion, min_tenure_months, min_exam_grade, min_course_coverage, min_performance_rating, created_at, updated_at FROM promotion_rules ORDER BY current_position ASC")).
		WillReturnRows(rows)

	rules, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, rules, 2)
	assert.Equal(t, "OPERATOR C", rules[0].CurrentPosition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRuleRepositoryFindByPositionNormalizes(t *testing.T) {
	db, mock, cleanup := newRuleMock(t)
	defer cleanup()
	repo := NewRuleRepository(db)

	rows := sqlmock.NewRows([]string{"id", "current_position", "promotion", "min_tenure_months", "min_exam_grade", "min_course_coverage", "min_performance_rating", "created_at", "updated_at"}).
		AddRow("r1", "OPERATOR C", "OPERATOR B", 6, 80.0, 60.0, 80.0, time.Now(), time.Now())
	mock.ExpectQuery("SELECT .+ FROM promotion_rules WHERE current_position").
		WithArgs("OPERATOR C").
		WillReturnRows(rows)

	rule, err := repo.FindByPosition(context.Background(), "  operator c ")
	require.NoError(t, err)
	assert.Equal(t, "OPERATOR B", rule.Promotion)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRuleRepositoryCreateStoresNormalizedPosition(t *testing.T) {
	db, mock, cleanup := newRuleMock(t)
	defer cleanup()
	repo := NewRuleRepository(db)

	mock.ExpectExec("INSERT INTO promotion_rules").
		WithArgs(sqlmock.AnyArg(), "OPERATOR C", "OPERATOR B", 6, 80.0, 60.0, 80.0, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	rule := &models.PromotionRule{
		CurrentPosition:      " operator c ",
		Promotion:            "OPERATOR B",
		MinTenureMonths:      6,
		MinExamGrade:         80,
		MinCourseCoverage:    60,
		MinPerformanceRating: 80,
	}
	err := repo.Create(context.Background(), rule)
	require.NoError(t, err)
	assert.Equal(t, "OPERATOR C", rule.CurrentPosition)
	assert.NotEmpty(t, rule.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRuleRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newRuleMock(t)
	defer cleanup()
	repo := NewRuleRepository(db)

	mock.ExpectExec("DELETE FROM promotion_rules").
		WithArgs("r1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "r1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
