// Package reports generates the admin report exports: circulation,
// member activity, reading trends and overdue analysis over a date
// range, as JSON payloads or CSV files on disk.
package reports

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/digishelf/digishelf/internal/config"
	reportsrepo "github.com/digishelf/digishelf/internal/database/reports"
	"github.com/digishelf/digishelf/internal/lending"
)

// ErrInvalidRange is returned when the requested range ends before it
// starts.
var ErrInvalidRange = errors.New("report range ends before it starts")

// Store is the query surface the report service needs.
type Store interface {
	Circulation(from, to time.Time) ([]reportsrepo.CirculationRow, error)
	MemberActivity(from, to time.Time) ([]reportsrepo.MemberActivityRow, error)
	ReadingTrends(from, to time.Time) ([]reportsrepo.ReadingTrendRow, error)
	CurrentlyOverdue(now time.Time) ([]reportsrepo.OverdueRow, error)
}

// Service builds report payloads and CSV exports.
type Service struct {
	store  Store
	dir    string
	policy config.Lending

	now func() time.Time
}

// NewService creates a report service writing CSV files under dir.
func NewService(store Store, dir string, policy config.Lending) *Service {
	return &Service{
		store:  store,
		dir:    dir,
		policy: policy,
		now:    time.Now,
	}
}

// CirculationReport is the JSON form of a circulation report.
type CirculationReport struct {
	From        time.Time                    `json:"from"`
	To          time.Time                    `json:"to"`
	TotalIssued int                          `json:"total_issued"`
	Rows        []reportsrepo.CirculationRow `json:"rows"`
}

// Circulation builds a circulation report over [from, to].
func (s *Service) Circulation(from, to time.Time) (*CirculationReport, error) {
	if to.Before(from) {
		return nil, ErrInvalidRange
	}
	rows, err := s.store.Circulation(from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query circulation: %w", err)
	}
	return &CirculationReport{From: from, To: to, TotalIssued: len(rows), Rows: rows}, nil
}

// MemberActivityReport is the JSON form of a member-activity report.
type MemberActivityReport struct {
	From time.Time                       `json:"from"`
	To   time.Time                       `json:"to"`
	Rows []reportsrepo.MemberActivityRow `json:"rows"`
}

// MemberActivity builds a per-member activity report over [from, to].
func (s *Service) MemberActivity(from, to time.Time) (*MemberActivityReport, error) {
	if to.Before(from) {
		return nil, ErrInvalidRange
	}
	rows, err := s.store.MemberActivity(from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query member activity: %w", err)
	}
	return &MemberActivityReport{From: from, To: to, Rows: rows}, nil
}

// ReadingTrendsReport is the JSON form of a reading-trends report.
type ReadingTrendsReport struct {
	From          time.Time                     `json:"from"`
	To            time.Time                     `json:"to"`
	TotalSessions int64                         `json:"total_sessions"`
	TotalMinutes  int64                         `json:"total_minutes"`
	Rows          []reportsrepo.ReadingTrendRow `json:"rows"`
}

// ReadingTrends builds a day-by-day reading activity report over
// [from, to].
func (s *Service) ReadingTrends(from, to time.Time) (*ReadingTrendsReport, error) {
	if to.Before(from) {
		return nil, ErrInvalidRange
	}
	rows, err := s.store.ReadingTrends(from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query reading trends: %w", err)
	}

	report := &ReadingTrendsReport{From: from, To: to, Rows: rows}
	for _, row := range rows {
		report.TotalSessions += row.Sessions
		report.TotalMinutes += row.MinutesSpent
	}
	return report, nil
}

// OverdueEntry is one overdue loan with its projected fine.
type OverdueEntry struct {
	reportsrepo.OverdueRow
	DaysLate      int     `json:"days_late"`
	ProjectedFine float64 `json:"projected_fine"`
}

// OverdueReport is the JSON form of an overdue-analysis report.
type OverdueReport struct {
	GeneratedAt    time.Time      `json:"generated_at"`
	TotalOverdue   int            `json:"total_overdue"`
	ProjectedFines float64        `json:"projected_fines"`
	Entries        []OverdueEntry `json:"entries"`
}

// OverdueAnalysis builds a snapshot of every overdue loan with days
// late and the fine it would attract if returned now.
func (s *Service) OverdueAnalysis() (*OverdueReport, error) {
	now := s.now()
	rows, err := s.store.CurrentlyOverdue(now)
	if err != nil {
		return nil, fmt.Errorf("failed to query overdue loans: %w", err)
	}

	report := &OverdueReport{GeneratedAt: now, TotalOverdue: len(rows)}
	for _, row := range rows {
		days := lending.DaysLate(row.DueDate, now)
		fine := float64(days) * s.policy.FinePerDay
		report.Entries = append(report.Entries, OverdueEntry{
			OverdueRow:    row,
			DaysLate:      days,
			ProjectedFine: fine,
		})
		report.ProjectedFines += fine
	}
	return report, nil
}

// ExportCirculationCSV writes a circulation report as a CSV file and
// returns its path.
func (s *Service) ExportCirculationCSV(from, to time.Time) (string, error) {
	report, err := s.Circulation(from, to)
	if err != nil {
		return "", err
	}

	records := [][]string{{"transaction_id", "student_id", "member", "book", "issued", "due", "returned", "status", "fine"}}
	for _, row := range report.Rows {
		returned := ""
		if row.ReturnDate != nil {
			returned = row.ReturnDate.Format("2006-01-02")
		}
		records = append(records, []string{
			strconv.FormatUint(uint64(row.TransactionID), 10),
			row.StudentID,
			row.MemberName,
			row.BookTitle,
			row.IssueDate.Format("2006-01-02"),
			row.DueDate.Format("2006-01-02"),
			returned,
			string(row.Status),
			strconv.FormatFloat(row.FineAmount, 'f', 2, 64),
		})
	}
	return s.writeCSV("circulation", records)
}

// ExportMemberActivityCSV writes a member-activity report as a CSV
// file and returns its path.
func (s *Service) ExportMemberActivityCSV(from, to time.Time) (string, error) {
	report, err := s.MemberActivity(from, to)
	if err != nil {
		return "", err
	}

	records := [][]string{{"student_id", "member", "email", "loans_taken", "loans_closed", "fines_accrued"}}
	for _, row := range report.Rows {
		records = append(records, []string{
			row.StudentID,
			row.MemberName,
			row.Email,
			strconv.FormatInt(row.LoansTaken, 10),
			strconv.FormatInt(row.LoansClosed, 10),
			strconv.FormatFloat(row.FinesAccrued, 'f', 2, 64),
		})
	}
	return s.writeCSV("member_activity", records)
}

// ExportReadingTrendsCSV writes a reading-trends report as a CSV file
// and returns its path.
func (s *Service) ExportReadingTrendsCSV(from, to time.Time) (string, error) {
	report, err := s.ReadingTrends(from, to)
	if err != nil {
		return "", err
	}

	records := [][]string{{"day", "sessions", "readers", "pages_read", "minutes_spent"}}
	for _, row := range report.Rows {
		records = append(records, []string{
			row.Day,
			strconv.FormatInt(row.Sessions, 10),
			strconv.FormatInt(row.Readers, 10),
			strconv.FormatInt(row.PagesRead, 10),
			strconv.FormatInt(row.MinutesSpent, 10),
		})
	}
	return s.writeCSV("reading_trends", records)
}

// ExportOverdueCSV writes an overdue-analysis report as a CSV file and
// returns its path.
func (s *Service) ExportOverdueCSV() (string, error) {
	report, err := s.OverdueAnalysis()
	if err != nil {
		return "", err
	}

	records := [][]string{{"transaction_id", "student_id", "member", "email", "book", "due", "days_late", "projected_fine"}}
	for _, entry := range report.Entries {
		records = append(records, []string{
			strconv.FormatUint(uint64(entry.TransactionID), 10),
			entry.StudentID,
			entry.MemberName,
			entry.Email,
			entry.BookTitle,
			entry.DueDate.Format("2006-01-02"),
			strconv.Itoa(entry.DaysLate),
			strconv.FormatFloat(entry.ProjectedFine, 'f', 2, 64),
		})
	}
	return s.writeCSV("overdue", records)
}

func (s *Service) writeCSV(kind string, records [][]string) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create reports directory: %w", err)
	}

	name := fmt.Sprintf("%s_%s.csv", kind, uuid.New().String())
	path := filepath.Join(s.dir, name)

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.WriteAll(records); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}
	return path, nil
}
