package dashboard

import (
	"time"

	"gorm.io/gorm"

	"library-system/pkg/models"
)

// Stats is the admin dashboard payload.
type Stats struct {
	Users        int64
	Books        int64
	ActiveLoans  int64
	DueSoon      int64
	TopBorrowers []BorrowerCount
	LoansByMonth []MonthCount
}

type BorrowerCount struct {
	Borrower string
	Loans    int64
}

type MonthCount struct {
	Month string // "2026-08"
	Loans int64
}

const (
	dueSoonWindow      = 3 * 24 * time.Hour
	topBorrowerWindow  = 90 * 24 * time.Hour
	topBorrowerLimit   = 5
	loansByMonthMonths = 6
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Collect runs all dashboard aggregations. Read-only.
func (s *Service) Collect() (*Stats, error) {
	now := time.Now()
	stats := &Stats{}

	if err := s.db.Model(&models.User{}).Count(&stats.Users).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.Book{}).Count(&stats.Books).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.Loan{}).
		Where("returned_at IS NULL").
		Count(&stats.ActiveLoans).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.Loan{}).
		Where("returned_at IS NULL AND due_date <= ?", now.Add(dueSoonWindow)).
		Count(&stats.DueSoon).Error; err != nil {
		return nil, err
	}

	topBorrowers, err := s.topBorrowers(now)
	if err != nil {
		return nil, err
	}
	stats.TopBorrowers = topBorrowers

	loansByMonth, err := s.loansByMonth(now)
	if err != nil {
		return nil, err
	}
	stats.LoansByMonth = loansByMonth

	return stats, nil
}

func (s *Service) topBorrowers(now time.Time) ([]BorrowerCount, error) {
	rows := make([]BorrowerCount, 0, topBorrowerLimit)
	err := s.db.Model(&models.Loan{}).
		Select("borrower, COUNT(*) AS loans").
		Where("loaned_at >= ?", now.Add(-topBorrowerWindow)).
		Group("borrower").
		Order("loans DESC").
		Limit(topBorrowerLimit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// loansByMonth buckets the trailing six months (current month included)
// in Go so the query stays portable across postgres and sqlite. Months
// with no loans appear with a zero count.
func (s *Service) loansByMonth(now time.Time) ([]MonthCount, error) {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).
		AddDate(0, -(loansByMonthMonths - 1), 0)

	var loanedAt []time.Time
	err := s.db.Model(&models.Loan{}).
		Where("loaned_at >= ?", first).
		Pluck("loaned_at", &loanedAt).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, loansByMonthMonths)
	for _, t := range loanedAt {
		counts[t.Format("2006-01")]++
	}

	series := make([]MonthCount, 0, loansByMonthMonths)
	for i := 0; i < loansByMonthMonths; i++ {
		month := first.AddDate(0, i, 0).Format("2006-01")
		series = append(series, MonthCount{Month: month, Loans: counts[month]})
	}
	return series, nil
}
