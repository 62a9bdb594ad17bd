package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/robfig/cron/v3"

	"github.com/digishelf/digishelf/internal/lending"
	"github.com/digishelf/digishelf/internal/tasks"
)

// TaskEnqueuer enqueues background tasks. Satisfied by tasks.Client.
type TaskEnqueuer interface {
	Add(tasks ...backlite.Task) *backlite.TaskAddOp
}

// OverdueLister returns open loans past their due date. Satisfied by
// lending.Service.
type OverdueLister interface {
	ListOverdue() ([]lending.IssuedLoanView, error)
}

// Config controls the daily library housekeeping run.
type Config struct {
	Schedule              string // cron format, e.g. "0 8 * * *"
	ActivityRetentionDays int
}

// OverdueScanScheduler runs the daily circulation scan: it finds overdue
// loans, enqueues a notice per loan, and schedules activity log cleanup.
type OverdueScanScheduler struct {
	loans  OverdueLister
	queue  TaskEnqueuer
	config Config

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	isScanning bool
	cancelFunc context.CancelFunc
}

func NewOverdueScanScheduler(loans OverdueLister, queue TaskEnqueuer, cfg Config) *OverdueScanScheduler {
	return &OverdueScanScheduler{
		loans:  loans,
		queue:  queue,
		config: cfg,
		cron:   cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins the scheduler.
func (s *OverdueScanScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	entryID, err := s.cron.AddFunc(s.config.Schedule, func() {
		s.runScan()
	})
	if err != nil {
		return fmt.Errorf("invalid overdue scan schedule '%s': %w", s.config.Schedule, err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	log.Printf("Overdue scan scheduler: started with schedule '%s'", s.config.Schedule)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler, waiting for a running scan to finish.
func (s *OverdueScanScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	s.cancelFunc = nil

	log.Printf("Overdue scan scheduler: stopped")
}

// RunNow triggers an immediate scan.
func (s *OverdueScanScheduler) RunNow() {
	go s.runScan()
}

// IsRunning reports whether the scheduler is active.
func (s *OverdueScanScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRunTime returns when the next scan will occur.
func (s *OverdueScanScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

func (s *OverdueScanScheduler) runScan() {
	s.mu.Lock()
	if s.isScanning {
		s.mu.Unlock()
		log.Printf("Overdue scan: skipped (already scanning)")
		return
	}
	s.isScanning = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isScanning = false
		s.mu.Unlock()
	}()

	startTime := time.Now()
	loans, err := s.loans.ListOverdue()
	if err != nil {
		log.Printf("Overdue scan: failed to list overdue loans: %v", err)
		return
	}

	notices := 0
	for _, loan := range loans {
		daysLate := -loan.DaysRemaining
		if daysLate < 1 {
			daysLate = 1
		}
		task := tasks.OverdueNoticeTask{
			TransactionID: loan.ID,
			UserID:        loan.UserID,
			BookTitle:     loan.BookTitle,
			DueDate:       loan.DueDate,
			DaysLate:      daysLate,
		}
		if _, err := s.queue.Add(task).Save(); err != nil {
			log.Printf("Overdue scan: failed to enqueue notice for transaction %d: %v", loan.ID, err)
			continue
		}
		notices++
	}

	if _, err := s.queue.Add(tasks.CleanupActivityLogsTask{RetentionDays: s.config.ActivityRetentionDays}).Save(); err != nil {
		log.Printf("Overdue scan: failed to enqueue activity cleanup: %v", err)
	}

	log.Printf("Overdue scan: %d overdue loan(s), %d notice(s) enqueued in %v",
		len(loans), notices, time.Since(startTime).Round(time.Millisecond))
}
