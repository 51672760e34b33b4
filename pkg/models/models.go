package models

import (
	"time"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

const (
	BookAvailable = "available"
	BookLoaned    = "loaned"
)

type User struct {
	ID           uint   `gorm:"primaryKey"`
	UserUid      string `gorm:"type:uuid;uniqueIndex;not null"`
	Username     string `gorm:"size:80;not null;uniqueIndex"`
	PasswordHash string `gorm:"not null" json:"-"`
	Role         string `gorm:"size:20;not null;default:'user'"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Book struct {
	ID        uint   `gorm:"primaryKey"`
	BookUid   string `gorm:"type:uuid;uniqueIndex;not null"`
	Title     string `gorm:"not null"`
	Author    string `gorm:"not null"`
	ISBN      string
	Status    string `gorm:"size:20;not null;default:'available'"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Loan struct {
	ID         uint   `gorm:"primaryKey"`
	LoanUid    string `gorm:"type:uuid;uniqueIndex;not null"`
	BookID     uint   `gorm:"index;not null"`
	Borrower   string `gorm:"size:80;not null;index"`
	LoanedAt   time.Time
	DueDate    time.Time
	ReturnedAt *time.Time `gorm:"index"`
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Book Book `gorm:"foreignKey:BookID"`
}

// Active reports whether the loan has not been returned yet.
func (l *Loan) Active() bool {
	return l.ReturnedAt == nil
}

type Session struct {
	ID        uint   `gorm:"primaryKey"`
	Token     string `gorm:"size:64;uniqueIndex;not null"`
	Username  string `gorm:"size:80;not null"`
	Role      string `gorm:"size:20;not null"`
	ExpiresAt time.Time
	CreatedAt time.Time
}
