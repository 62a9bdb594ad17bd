// Package reading implements reading-session tracking: start and end
// sittings, record page progress and derive per-user statistics and the
// daily reading streak.
package reading

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	readingrepo "github.com/digishelf/digishelf/internal/database/reading"
	"github.com/digishelf/digishelf/internal/entities"
)

var (
	// ErrSessionNotFound is returned for a missing session.
	ErrSessionNotFound = errors.New("reading session not found")

	// ErrSessionClosed is returned when updating or ending a session that
	// has already ended.
	ErrSessionClosed = errors.New("reading session already ended")

	// ErrNotOwner is returned when a session belongs to another user.
	ErrNotOwner = errors.New("session belongs to another user")
)

// Store is the persistence surface the session tracker needs.
type Store interface {
	CreateSession(session *entities.ReadingSession) error
	GetSessionByID(id uint) (*entities.ReadingSession, error)
	GetOpenSession(userID, bookID uint) (*entities.ReadingSession, error)
	UpdateSession(session *entities.ReadingSession) error
	LatestSessionForBook(userID, bookID uint) (*entities.ReadingSession, error)
	ListSessionsForUser(userID uint, limit int) ([]entities.ReadingSession, error)
	FinishedSessionDays(userID uint) ([]string, error)
	MonthlyStats(userID uint, months int) ([]readingrepo.MonthlyStat, error)
	StatsByCategory(userID uint) ([]readingrepo.CategoryStat, error)
	CurrentMonthTotals(userID uint, now time.Time) (int64, int64, error)
}

// Service drives reading-session tracking.
type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// StartSession opens a sitting at the given page. A dangling open session
// for the same book is closed first, its progress preserved.
func (s *Service) StartSession(userID, bookID uint, startPage int, device entities.DeviceType) (*entities.ReadingSession, error) {
	if open, err := s.store.GetOpenSession(userID, bookID); err == nil {
		if _, endErr := s.closeSession(open, open.CurrentPage); endErr != nil {
			return nil, endErr
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check open session: %w", err)
	}

	if device == "" {
		device = entities.DeviceTypeWeb
	}
	if startPage < 0 {
		startPage = 0
	}

	session := &entities.ReadingSession{
		UserID:      userID,
		BookID:      bookID,
		StartTime:   s.now(),
		CurrentPage: startPage,
		DeviceType:  device,
	}
	if err := s.store.CreateSession(session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// UpdateProgress records the page the reader is on in an open session.
func (s *Service) UpdateProgress(sessionID, userID uint, currentPage int) (*entities.ReadingSession, error) {
	session, err := s.ownedSession(sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session.EndTime != nil {
		return nil, ErrSessionClosed
	}

	if currentPage > session.CurrentPage {
		session.CurrentPage = currentPage
	}
	if err := s.store.UpdateSession(session); err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}
	return session, nil
}

// EndSession closes a sitting at the given page. Pages read never go
// negative even if the reader flipped backwards.
func (s *Service) EndSession(sessionID, userID uint, finalPage int) (*entities.ReadingSession, error) {
	session, err := s.ownedSession(sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session.EndTime != nil {
		return nil, ErrSessionClosed
	}
	return s.closeSession(session, finalPage)
}

func (s *Service) closeSession(session *entities.ReadingSession, finalPage int) (*entities.ReadingSession, error) {
	startPage := session.CurrentPage
	pagesRead := finalPage - startPage
	if pagesRead < 0 {
		pagesRead = 0
	}

	endTime := s.now()
	session.EndTime = &endTime
	session.PagesRead = pagesRead
	if finalPage > session.CurrentPage {
		session.CurrentPage = finalPage
	}

	if err := s.store.UpdateSession(session); err != nil {
		return nil, fmt.Errorf("failed to close session: %w", err)
	}
	return session, nil
}

func (s *Service) ownedSession(sessionID, userID uint) (*entities.ReadingSession, error) {
	session, err := s.store.GetSessionByID(sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session.UserID != userID {
		return nil, ErrNotOwner
	}
	return session, nil
}

// Stats bundles the per-user reading statistics.
type Stats struct {
	Monthly        []readingrepo.MonthlyStat  `json:"monthly"`
	ByCategory     []readingrepo.CategoryStat `json:"by_category"`
	MonthSessions  int64                      `json:"month_sessions"`
	MonthPagesRead int64                      `json:"month_pages_read"`
	CurrentStreak  int                        `json:"current_streak"`
	RecentSessions []entities.ReadingSession  `json:"recent_sessions"`
}

// GetStats assembles the user's reading statistics.
func (s *Service) GetStats(userID uint) (*Stats, error) {
	monthly, err := s.store.MonthlyStats(userID, 6)
	if err != nil {
		return nil, fmt.Errorf("failed to load monthly stats: %w", err)
	}

	byCategory, err := s.store.StatsByCategory(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load category stats: %w", err)
	}

	sessions, pages, err := s.store.CurrentMonthTotals(userID, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to load month totals: %w", err)
	}

	streak, err := s.Streak(userID)
	if err != nil {
		return nil, err
	}

	recent, err := s.store.ListSessionsForUser(userID, 10)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent sessions: %w", err)
	}

	return &Stats{
		Monthly:        monthly,
		ByCategory:     byCategory,
		MonthSessions:  sessions,
		MonthPagesRead: pages,
		CurrentStreak:  streak,
		RecentSessions: recent,
	}, nil
}

// Streak counts consecutive calendar days with at least one finished
// session, walking back from today. A day without reading breaks it; a
// streak may start yesterday if today has no session yet.
func (s *Service) Streak(userID uint) (int, error) {
	days, err := s.store.FinishedSessionDays(userID)
	if err != nil {
		return 0, fmt.Errorf("failed to load session days: %w", err)
	}
	if len(days) == 0 {
		return 0, nil
	}

	read := make(map[string]bool, len(days))
	for _, day := range days {
		read[day] = true
	}

	today := s.now()
	cursor := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())

	// No session today yet: the streak may still be alive from yesterday
	if !read[cursor.Format("2006-01-02")] {
		cursor = cursor.AddDate(0, 0, -1)
	}

	streak := 0
	for read[cursor.Format("2006-01-02")] {
		streak++
		cursor = cursor.AddDate(0, 0, -1)
	}
	return streak, nil
}

// ListRecent returns the user's latest sessions.
func (s *Service) ListRecent(userID uint, limit int) ([]entities.ReadingSession, error) {
	return s.store.ListSessionsForUser(userID, limit)
}
