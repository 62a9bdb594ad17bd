// Package recommend suggests books: available titles from the genres a
// member has actually finished, falling back to the most borrowed books
// for members with no history.
package recommend

import (
	"fmt"

	recommendrepo "github.com/digishelf/digishelf/internal/database/recommend"
)

// Store is the query surface recommendations need.
type Store interface {
	TopCategoriesForUser(userID uint, limit int) ([]uint, error)
	AvailableInCategories(userID uint, categoryIDs []uint, limit int) ([]recommendrepo.Candidate, error)
	MostBorrowed(userID uint, limit int) ([]recommendrepo.Candidate, error)
}

// Service produces per-user book recommendations.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// ForUser returns up to limit recommendations for the member.
func (s *Service) ForUser(userID uint, limit int) ([]recommendrepo.Candidate, error) {
	if limit <= 0 {
		limit = 10
	}

	categories, err := s.store.TopCategoriesForUser(userID, 3)
	if err != nil {
		return nil, fmt.Errorf("failed to derive favorite categories: %w", err)
	}

	if len(categories) == 0 {
		candidates, err := s.store.MostBorrowed(userID, limit)
		if err != nil {
			return nil, fmt.Errorf("failed to list most borrowed: %w", err)
		}
		return candidates, nil
	}

	candidates, err := s.store.AvailableInCategories(userID, categories, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}

	// Pad with popular books when the member's genres run dry
	if len(candidates) < limit {
		popular, err := s.store.MostBorrowed(userID, limit)
		if err != nil {
			return nil, fmt.Errorf("failed to list most borrowed: %w", err)
		}
		seen := make(map[uint]bool, len(candidates))
		for _, c := range candidates {
			seen[c.BookID] = true
		}
		for _, c := range popular {
			if len(candidates) >= limit {
				break
			}
			if !seen[c.BookID] {
				candidates = append(candidates, c)
			}
		}
	}

	return candidates, nil
}

// FavoriteGenres returns the member's most borrowed category IDs.
func (s *Service) FavoriteGenres(userID uint) ([]uint, error) {
	return s.store.TopCategoriesForUser(userID, 3)
}
