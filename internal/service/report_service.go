package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/presenza/attendance-api/internal/models"
	"github.com/presenza/attendance-api/pkg/export"
	appErrors "github.com/presenza/attendance-api/pkg/errors"
)

type reportAttendanceRepository interface {
	ListByClass(ctx context.Context, classID string) ([]models.AttendanceRecord, error)
}

type reportClassRepository interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

type reportUserRepository interface {
	ListByIDs(ctx context.Context, ids []string) ([]models.User, error)
}

type summaryGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ReportFormat enumerates supported export formats.
type ReportFormat string

const (
	FormatCSV ReportFormat = "csv"
	FormatPDF ReportFormat = "pdf"
)

// ReportExport is a rendered report file ready for download.
type ReportExport struct {
	Content     []byte
	Filename    string
	ContentType string
}

// ReportServiceConfig tunes report assembly behaviour.
type ReportServiceConfig struct {
	LowAttendanceThreshold int
	CacheTTL               time.Duration
}

// ReportService assembles class attendance reports, exports, and narrative
// summaries.
type ReportService struct {
	attendance reportAttendanceRepository
	classes    reportClassRepository
	users      reportUserRepository
	cache      *CacheService
	metrics    *MetricsService
	generator  summaryGenerator
	csv        csvRenderer
	pdf        pdfRenderer
	logger     *zap.Logger
	cfg        ReportServiceConfig
}

// NewReportService constructs the report service. generator may be nil when
// the summary relay is disabled.
func NewReportService(attendance reportAttendanceRepository, classes reportClassRepository, users reportUserRepository, cache *CacheService, metrics *MetricsService, generator summaryGenerator, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger, cfg ReportServiceConfig) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.LowAttendanceThreshold <= 0 {
		cfg.LowAttendanceThreshold = DefaultLowAttendanceThreshold
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ReportService{
		attendance: attendance,
		classes:    classes,
		users:      users,
		cache:      cache,
		metrics:    metrics,
		generator:  generator,
		csv:        csv,
		pdf:        pdf,
		logger:     logger,
		cfg:        cfg,
	}
}

// BuildClassReport aggregates a class's attendance history into a report with
// narrative insight lines. Results are cached per class and invalidated on
// new submissions.
func (s *ReportService) BuildClassReport(ctx context.Context, classID string) (*models.ClassReport, error) {
	if classID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "classId is required")
	}

	cacheKey := fmt.Sprintf("report:class:%s", classID)
	var cached models.ClassReport
	if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
		return &cached, nil
	}

	if _, err := s.classes.FindByID(ctx, classID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	records, err := s.attendance.ListByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance records")
	}

	report := s.assemble(records)

	if s.metrics != nil {
		s.metrics.ReportBuilt()
	}
	s.cache.Set(ctx, cacheKey, report, s.cfg.CacheTTL)

	return report, nil
}

func (s *ReportService) assemble(records []models.AttendanceRecord) *models.ClassReport {
	if len(records) == 0 {
		return &models.ClassReport{
			OverallPercentage:     0,
			LowAttendanceStudents: []models.LowAttendanceStudent{},
			Insights:              []string{"No attendance data available to generate a report."},
		}
	}

	aggregate := AggregateClass(records, s.cfg.LowAttendanceThreshold)

	insights := []string{
		fmt.Sprintf("Overall class attendance is %d%%.", aggregate.OverallPercentage),
		fmt.Sprintf("%d student(s) have an attendance rate below %d%%.", len(aggregate.LowAttendanceStudents), s.cfg.LowAttendanceThreshold),
		"Consistent attendance is key to success. Consider reaching out to students with low attendance.",
	}

	return &models.ClassReport{
		OverallPercentage:     aggregate.OverallPercentage,
		LowAttendanceStudents: aggregate.LowAttendanceStudents,
		Insights:              insights,
	}
}

// Export renders a class's per-student attendance statistics as CSV or PDF.
func (s *ReportService) Export(ctx context.Context, classID string, format ReportFormat) (*ReportExport, error) {
	if format != FormatCSV && format != FormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	records, err := s.attendance.ListByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance records")
	}

	aggregate := AggregateClass(records, s.cfg.LowAttendanceThreshold)

	names, err := s.studentNames(ctx, aggregate.PerStudentStats)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{
		Headers: []string{"Student", "Present", "Absent", "Late", "Total Sessions", "Attendance %"},
	}
	for _, stat := range aggregate.PerStudentStats {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Student":        names[stat.StudentID],
			"Present":        strconv.Itoa(stat.Present),
			"Absent":         strconv.Itoa(stat.Absent),
			"Late":           strconv.Itoa(stat.Late),
			"Total Sessions": strconv.Itoa(stat.Total),
			"Attendance %":   strconv.Itoa(stat.Percentage),
		})
	}

	filename := fmt.Sprintf("attendance-%s-%s", class.Code, time.Now().UTC().Format(dateLayout))
	switch format {
	case FormatPDF:
		content, err := s.pdf.Render(dataset, fmt.Sprintf("Attendance Report - %s", class.Name))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render PDF export")
		}
		return &ReportExport{Content: content, Filename: filename + ".pdf", ContentType: "application/pdf"}, nil
	default:
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render CSV export")
		}
		return &ReportExport{Content: content, Filename: filename + ".csv", ContentType: "text/csv"}, nil
	}
}

// Summarize relays the class's attendance log to the narrative text service
// and returns the generated summary.
func (s *ReportService) Summarize(ctx context.Context, classID string) (string, error) {
	if s.generator == nil {
		return "", appErrors.Clone(appErrors.ErrInternal, "summary generation is not configured")
	}

	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	records, err := s.attendance.ListByClass(ctx, classID)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance records")
	}
	if len(records) == 0 {
		return "No attendance records found for this class. Cannot generate a summary.", nil
	}

	names, err := s.rosterNames(ctx, class.StudentIDs)
	if err != nil {
		return "", err
	}

	prompt := BuildSummaryPrompt(class.Name, records, names)

	summary, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate summary")
	}
	return summary, nil
}

// BuildSummaryPrompt renders the attendance log into the analysis prompt sent
// to the text generation service. Records are ordered by date ascending and
// entries within a record by student ID so the prompt is deterministic.
func BuildSummaryPrompt(className string, records []models.AttendanceRecord, studentNames map[string]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze the following attendance data for the class %q. "+
		"Provide a concise summary of attendance patterns. Identify students with excellent (near 100%%) attendance, "+
		"students with poor attendance (frequently absent or late), and any noticeable trends "+
		"(e.g., specific days with high absenteeism). Format the output clearly.\n\n", className)

	sorted := make([]models.AttendanceRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date < sorted[j].Date })

	b.WriteString("Attendance Log:\n")
	for _, record := range sorted {
		fmt.Fprintf(&b, "Date: %s\n", record.Date)
		studentIDs := make([]string, 0, len(record.Records))
		for studentID := range record.Records {
			studentIDs = append(studentIDs, studentID)
		}
		sort.Strings(studentIDs)
		for _, studentID := range studentIDs {
			name, ok := studentNames[studentID]
			if !ok || name == "" {
				name = "Unknown Student"
			}
			fmt.Fprintf(&b, "- %s: %s\n", name, record.Records[studentID])
		}
	}
	return b.String()
}

func (s *ReportService) studentNames(ctx context.Context, stats []models.PerStudentSummary) (map[string]string, error) {
	ids := make([]string, 0, len(stats))
	for _, stat := range stats {
		ids = append(ids, stat.StudentID)
	}
	names, err := s.rosterNames(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, stat := range stats {
		if names[stat.StudentID] == "" {
			names[stat.StudentID] = stat.StudentID
		}
	}
	return names, nil
}

func (s *ReportService) rosterNames(ctx context.Context, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	users, err := s.users.ListByIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students")
	}
	for _, user := range users {
		names[user.ID] = user.FullName
	}
	return names, nil
}
