package books

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"library-system/pkg/models"
	"library-system/pkg/pagination"
)

var (
	ErrNotFound       = errors.New("book not found")
	ErrTitleRequired  = errors.New("title is required")
	ErrAuthorRequired = errors.New("author is required")
	ErrBadStatus      = errors.New("status must be available or loaned")
)

// Catalog is the read/write surface for book metadata. Availability is
// not writable here: the loan manager is the only component that flips
// a book's status.
type Catalog struct {
	db *gorm.DB
}

func NewCatalog(db *gorm.DB) *Catalog {
	return &Catalog{db: db}
}

type Page struct {
	Items         []models.Book
	Page          int
	PageSize      int
	TotalElements int64
	TotalPages    int
}

// Search matches the query case-insensitively against title or author,
// optionally filtered to an exact status.
func (cat *Catalog) Search(query, status string, page int) (*Page, error) {
	page = pagination.Clamp(page)

	q := cat.db.Model(&models.Book{})
	if query != "" {
		pattern := "%" + strings.ToLower(query) + "%"
		q = q.Where("LOWER(title) LIKE ? OR LOWER(author) LIKE ?", pattern, pattern)
	}
	if status != "" {
		if status != models.BookAvailable && status != models.BookLoaned {
			return nil, ErrBadStatus
		}
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}

	var items []models.Book
	err := q.Order("title ASC").
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

func (cat *Catalog) Get(bookUid string) (*models.Book, error) {
	var book models.Book
	if err := cat.db.Where("book_uid = ?", bookUid).First(&book).Error; err != nil {
		return nil, ErrNotFound
	}
	return &book, nil
}

// ListAvailable returns every book currently free to loan.
func (cat *Catalog) ListAvailable() ([]models.Book, error) {
	var items []models.Book
	err := cat.db.Where("status = ?", models.BookAvailable).Order("title ASC").Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (cat *Catalog) Create(title, author, isbn string) (*models.Book, error) {
	title = strings.TrimSpace(title)
	author = strings.TrimSpace(author)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if author == "" {
		return nil, ErrAuthorRequired
	}

	book := models.Book{
		BookUid: uuid.New().String(),
		Title:   title,
		Author:  author,
		ISBN:    strings.TrimSpace(isbn),
		Status:  models.BookAvailable,
	}
	if err := cat.db.Create(&book).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

// Update rewrites catalog metadata. Status is deliberately untouched.
func (cat *Catalog) Update(bookUid, title, author, isbn string) (*models.Book, error) {
	book, err := cat.Get(bookUid)
	if err != nil {
		return nil, err
	}

	title = strings.TrimSpace(title)
	author = strings.TrimSpace(author)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if author == "" {
		return nil, ErrAuthorRequired
	}

	book.Title = title
	book.Author = author
	book.ISBN = strings.TrimSpace(isbn)
	if err := cat.db.Save(book).Error; err != nil {
		return nil, err
	}
	return book, nil
}

// Delete removes the book record. Historical loans keep their book_id
// and become orphaned; loans are never deleted.
func (cat *Catalog) Delete(bookUid string) error {
	book, err := cat.Get(bookUid)
	if err != nil {
		return err
	}
	return cat.db.Delete(book).Error
}
