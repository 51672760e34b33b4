package loans

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"library-system/pkg/auth"
	"library-system/pkg/locks"
	"library-system/pkg/models"
	"library-system/pkg/pagination"
)

// DefaultLoanTerm is applied when no due date is supplied.
const DefaultLoanTerm = 14 * 24 * time.Hour

var (
	ErrBookNotFound     = errors.New("book not found")
	ErrBookNotAvailable = errors.New("book is not available")
	ErrLoanNotFound     = errors.New("loan not found")
	ErrNotLoanOwner     = errors.New("only the borrower or an admin may return this loan")
	ErrBorrowerRequired = errors.New("borrower is required")
	ErrAlreadyReturned  = errors.New("loan is already returned")
)

// Manager owns every availability transition. A book is loaned iff
// exactly one active loan references it; to keep that true under
// concurrent requests, transitions for a given book are serialized
// through a per-book lock and both writes happen in one transaction
// with a conditional status flip.
type Manager struct {
	db    *gorm.DB
	locks *locks.KeyedMutex
}

func NewManager(db *gorm.DB) *Manager {
	return &Manager{
		db:    db,
		locks: locks.NewKeyedMutex(),
	}
}

type Page struct {
	Items         []models.Loan
	Page          int
	PageSize      int
	TotalElements int64
	TotalPages    int
}

// Create loans the book out. Non-admin actors always borrow for
// themselves no matter what borrower was requested; admins must name a
// borrower explicitly.
func (m *Manager) Create(bookUid, requestedBorrower string, dueDate time.Time, actor auth.Identity) (*models.Loan, error) {
	borrower := actor.Username
	if actor.IsAdmin() {
		borrower = strings.TrimSpace(requestedBorrower)
		if borrower == "" {
			return nil, ErrBorrowerRequired
		}
	}

	m.locks.Lock(bookUid)
	defer m.locks.Unlock(bookUid)

	var book models.Book
	if err := m.db.Where("book_uid = ?", bookUid).First(&book).Error; err != nil {
		return nil, ErrBookNotFound
	}
	if book.Status != models.BookAvailable {
		return nil, ErrBookNotAvailable
	}

	now := time.Now()
	if dueDate.IsZero() {
		dueDate = now.Add(DefaultLoanTerm)
	}

	loan := models.Loan{
		LoanUid:  uuid.New().String(),
		BookID:   book.ID,
		Borrower: borrower,
		LoanedAt: now,
		DueDate:  dueDate,
	}

	err := m.db.Transaction(func(tx *gorm.DB) error {
		// The status guard makes the flip fail if another writer got
		// there first, even one in a different process.
		flip := tx.Model(&models.Book{}).
			Where("id = ? AND status = ?", book.ID, models.BookAvailable).
			Update("status", models.BookLoaned)
		if flip.Error != nil {
			return flip.Error
		}
		if flip.RowsAffected == 0 {
			return ErrBookNotAvailable
		}
		return tx.Create(&loan).Error
	})
	if err != nil {
		return nil, err
	}

	book.Status = models.BookLoaned
	loan.Book = book
	return &loan, nil
}

// Return closes the loan and frees the book. Allowed for the borrower
// and for admins; closing an already-closed loan is rejected rather
// than overwriting the return timestamp.
func (m *Manager) Return(loanUid string, actor auth.Identity) (*models.Loan, error) {
	var loan models.Loan
	if err := m.db.Preload("Book").Where("loan_uid = ?", loanUid).First(&loan).Error; err != nil {
		return nil, ErrLoanNotFound
	}

	if !actor.IsAdmin() && actor.Username != loan.Borrower {
		return nil, ErrNotLoanOwner
	}

	m.locks.Lock(loan.Book.BookUid)
	defer m.locks.Unlock(loan.Book.BookUid)

	// Re-read under the lock; a concurrent return may have closed it.
	if err := m.db.Where("loan_uid = ?", loanUid).First(&loan).Error; err != nil {
		return nil, ErrLoanNotFound
	}
	if loan.ReturnedAt != nil {
		return nil, ErrAlreadyReturned
	}

	now := time.Now()
	err := m.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Loan{}).Where("id = ?", loan.ID).
			Update("returned_at", now).Error; err != nil {
			return err
		}
		return tx.Model(&models.Book{}).Where("id = ?", loan.BookID).
			Update("status", models.BookAvailable).Error
	})
	if err != nil {
		return nil, err
	}

	if err := m.db.Preload("Book").First(&loan, loan.ID).Error; err != nil {
		return nil, err
	}
	return &loan, nil
}

// List returns all loans, newest first, with their books embedded.
func (m *Manager) List(page int) (*Page, error) {
	return m.list(m.db.Model(&models.Loan{}), page)
}

// ListForBorrower returns one borrower's loans, newest first.
func (m *Manager) ListForBorrower(borrower string, page int) (*Page, error) {
	return m.list(m.db.Model(&models.Loan{}).Where("borrower = ?", borrower), page)
}

func (m *Manager) list(query *gorm.DB, page int) (*Page, error) {
	page = pagination.Clamp(page)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var items []models.Loan
	err := query.Preload("Book").
		Order("loaned_at DESC").
		Offset(pagination.Offset(page)).
		Limit(pagination.PageSize).
		Find(&items).Error
	if err != nil {
		return nil, err
	}

	return &Page{
		Items:         items,
		Page:          page,
		PageSize:      pagination.PageSize,
		TotalElements: total,
		TotalPages:    pagination.TotalPages(total),
	}, nil
}
