package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/danuarta/hr-promotion-api/internal/eligibility"
	"github.com/danuarta/hr-promotion-api/internal/models"
	appErrors "github.com/danuarta/hr-promotion-api/pkg/errors"
	"github.com/danuarta/hr-promotion-api/pkg/export"
)

// ReportFormat enumerates supported export encodings.
type ReportFormat string

const (
	FormatCSV ReportFormat = "csv"
	FormatPDF ReportFormat = "pdf"
)

// ReportFile is an exported document ready for download.
type ReportFile struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Content     []byte `json:"content"`
}

// eligibilityLister is the roster surface the report service reads.
type eligibilityLister interface {
	ListEligibility(ctx context.Context, filter models.EmployeeFilter) ([]models.EmployeeEligibility, error)
}

// probationAlerter provides the probation attention lists for export.
type probationAlerter interface {
	Alerts(ctx context.Context) (*ProbationAlerts, error)
}

// attemptLister exposes the exam ledger so roster rows can show retake
// cooldowns. Optional; a nil lister leaves the column blank.
type attemptLister interface {
	ListAll(ctx context.Context) ([]models.ExamAttempt, error)
}

// ReportService renders the eligibility roster and probation alerts into
// downloadable documents. Roster datasets are cached; any metrics or rule
// write invalidates the report keys.
type ReportService struct {
	roster    eligibilityLister
	probation probationAlerter
	attempts  attemptLister
	cache     *CacheService
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	cacheTTL  time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewReportService constructs a report service.
func NewReportService(roster eligibilityLister, probation probationAlerter, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		roster:    roster,
		probation: probation,
		cache:     cache,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		cacheTTL:  cacheTTL,
		logger:    logger,
		now:       time.Now,
	}
}

// WithAttempts wires the exam ledger in for the roster cooldown column.
func (s *ReportService) WithAttempts(attempts attemptLister) *ReportService {
	s.attempts = attempts
	return s
}

var rosterHeaders = []string{"NIK", "Name", "Position", "Promotion To", "Step", "Eligible", "Can Take Exam", "Blocked At", "Cooldown Until", "Last Evaluated"}

// EligibilityRoster exports the active-employee eligibility roster in the
// requested format.
func (s *ReportService) EligibilityRoster(ctx context.Context, position string, format ReportFormat) (*ReportFile, error) {
	dataset, err := s.rosterDataset(ctx, position)
	if err != nil {
		return nil, err
	}
	return s.render("eligibility-roster", "Promotion Eligibility Roster", dataset, format)
}

// ProbationAlerts exports the probation attention lists in the requested
// format.
func (s *ReportService) ProbationAlerts(ctx context.Context, format ReportFormat) (*ReportFile, error) {
	alerts, err := s.probation.Alerts(ctx)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{
		Headers: []string{"Category", "Employee ID", "Start Date", "End Date", "Status", "Notes"},
	}
	appendRows := func(category string, contracts []models.ProbationContract) {
		for _, contract := range contracts {
			dataset.Rows = append(dataset.Rows, map[string]string{
				"Category":    category,
				"Employee ID": contract.EmployeeID,
				"Start Date":  contract.StartDate.Format("2006-01-02"),
				"End Date":    contract.EndDate.Format("2006-01-02"),
				"Status":      string(contract.Status),
				"Notes":       contract.Notes,
			})
		}
	}
	appendRows("Expiring", alerts.Expiring)
	appendRows("Evaluation Due", alerts.EvaluationsDue)
	appendRows("Training Overdue", alerts.TrainingOverdue)

	return s.render("probation-alerts", "Probation Alerts", dataset, format)
}

// rosterDataset builds the roster table, serving from cache when possible.
func (s *ReportService) rosterDataset(ctx context.Context, position string) (export.Dataset, error) {
	key := "report:roster"
	if position != "" {
		key = "report:roster:" + position
	}

	var dataset export.Dataset
	if hit, err := s.cache.Get(ctx, key, &dataset); err == nil && hit {
		return dataset, nil
	}

	entries, err := s.roster.ListEligibility(ctx, models.EmployeeFilter{Position: position})
	if err != nil {
		return export.Dataset{}, err
	}

	cooldowns, err := s.cooldownIndex(ctx)
	if err != nil {
		s.logger.Warn("roster cooldown lookup failed", zap.Error(err))
	}

	dataset = export.Dataset{Headers: rosterHeaders}
	for _, entry := range entries {
		row := map[string]string{
			"NIK":      entry.Employee.NIK,
			"Name":     entry.Employee.FullName,
			"Position": entry.Employee.Position,
		}
		if until, ok := cooldowns[entry.Employee.ID]; ok {
			row["Cooldown Until"] = until
		}
		if entry.Rule != nil {
			row["Promotion To"] = entry.Rule.Promotion
		}
		if entry.Metrics != nil {
			row["Step"] = strconv.Itoa(entry.Metrics.Step)
			row["Eligible"] = strconv.FormatBool(entry.Metrics.Eligible)
			row["Can Take Exam"] = strconv.FormatBool(entry.Metrics.CanTakeExam)
			row["Blocked At"] = entry.Metrics.FailedAt
			if entry.Metrics.LastEvaluatedAt != nil {
				row["Last Evaluated"] = entry.Metrics.LastEvaluatedAt.Format("2006-01-02")
			}
		}
		dataset.Rows = append(dataset.Rows, row)
	}

	if err := s.cache.Set(ctx, key, dataset, s.cacheTTL); err != nil {
		s.logger.Warn("roster cache write failed", zap.Error(err))
	}
	return dataset, nil
}

// cooldownIndex maps employee id to the date their retake wait ends, for
// employees currently blocked from the exam.
func (s *ReportService) cooldownIndex(ctx context.Context) (map[string]string, error) {
	if s.attempts == nil {
		return nil, nil
	}
	all, err := s.attempts.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	byEmployee := make(map[string][]eligibility.Attempt)
	for _, attempt := range all {
		byEmployee[attempt.EmployeeID] = append(byEmployee[attempt.EmployeeID], eligibility.Attempt{Date: attempt.ExamDate, Passed: attempt.Passed})
	}

	today := s.now().UTC()
	index := make(map[string]string, len(byEmployee))
	for id, attempts := range byEmployee {
		status := eligibility.Cooldown(attempts, today)
		if !status.CanRetake && status.NextDate != nil {
			index[id] = status.NextDate.Format("2006-01-02")
		}
	}
	return index, nil
}

func (s *ReportService) render(name, title string, dataset export.Dataset, format ReportFormat) (*ReportFile, error) {
	stamp := s.now().UTC().Format("20060102")
	switch format {
	case FormatCSV, "":
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ReportFile{
			Filename:    fmt.Sprintf("%s-%s.csv", name, stamp),
			ContentType: "text/csv",
			Content:     content,
		}, nil
	case FormatPDF:
		content, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ReportFile{
			Filename:    fmt.Sprintf("%s-%s.pdf", name, stamp),
			ContentType: "application/pdf",
			Content:     content,
		}, nil
	default:
		return nil, appErrors.New(appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unsupported report format")
	}
}
