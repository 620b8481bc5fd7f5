package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danuarta/hr-promotion-api/internal/models"
)

func newEmployeeMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestEmployeeRepositoryList(t *testing.T) {
	db, mock, cleanup := newEmployeeMock(t)
	defer cleanup()
	repo := NewEmployeeRepository(db)

	rows := sqlmock.NewRows([]string{"id", "nik", "full_name", "position", "active", "created_at", "updated_at"}).
		AddRow("emp-1", "1001", "Employee One", "OPERATOR C", true, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, nik, full_name, position, active, created_at, updated_at FROM employees WHERE 1=1 AND position = $1 ORDER BY full_name ASC LIMIT 20 OFFSET 0")).
		WithArgs("OPERATOR C").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM employees WHERE 1=1 AND position = $1")).
		WithArgs("OPERATOR C").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	employees, total, err := repo.List(context.Background(), models.EmployeeFilter{Position: "OPERATOR C"})
	require.NoError(t, err)
	assert.Len(t, employees, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmployeeRepositoryGetMetricsNoRecord(t *testing.T) {
	db, mock, cleanup := newEmployeeMock(t)
	defer cleanup()
	repo := NewEmployeeRepository(db)

	mock.ExpectQuery("SELECT .+ FROM employee_metrics WHERE employee_id").
		WithArgs("emp-1").
		WillReturnError(sql.ErrNoRows)

	metrics, err := repo.GetMetrics(context.Background(), "emp-1")
	require.NoError(t, err)
	assert.Nil(t, metrics)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmployeeRepositoryPutMetrics(t *testing.T) {
	db, mock, cleanup := newEmployeeMock(t)
	defer cleanup()
	repo := NewEmployeeRepository(db)

	mock.ExpectExec("INSERT INTO employee_metrics").
		WillReturnResult(sqlmock.NewResult(1, 1))

	start := time.Date(2023, time.November, 1, 0, 0, 0, 0, time.UTC)
	metrics := &models.EmployeeMetrics{
		EmployeeID:        "emp-1",
		PerformanceRating: 85,
		PositionStartDate: &start,
		CourseCoverage:    70,
		Step:              4,
		CanTakeExam:       true,
		FailedAt:          "none",
	}
	require.NoError(t, repo.PutMetrics(context.Background(), metrics))
	assert.NotEmpty(t, metrics.ID)
	assert.False(t, metrics.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}
