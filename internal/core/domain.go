package core

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// UncategorizedName and UncategorizedColor are shown for transactions without a category.
const (
	UncategorizedName  = "Uncategorized"
	UncategorizedColor = "#000000"
	DefaultColor       = "#ffffff"
)

const (
	maxDescriptionLen  = 100
	maxCategoryNameLen = 50
)

type (
	TransactionType string

	Money struct {
		Cents int64
	}

	Category struct {
		ID    int64
		Name  string
		Color string // #RRGGBB
	}

	Transaction struct {
		ID          int64
		Amount      Money
		Description string
		Date        time.Time
		Type        TransactionType
		CategoryID  *int64 // nil when uncategorized
		// Populated on reads only.
		CategoryName  string
		CategoryColor string
	}

	Budget struct {
		ID         int64
		CategoryID int64
		Year       int
		Month      int // 1-12
		Amount     Money
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidType     = errors.New("invalid transaction type")
	ErrInvalidMonth    = errors.New("invalid month")
	ErrInvalidYear     = errors.New("invalid year")
	ErrInvalidColor    = errors.New("invalid color")
	ErrEmptyName       = errors.New("empty category name")
	ErrDescriptionLong = errors.New("description too long (max 100 characters)")
	ErrZeroDate        = errors.New("date cannot be zero")
	ErrNotFound        = errors.New("not found")
)

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// DefaultCategories is the seed set installed on first start.
var DefaultCategories = []Category{
	{Name: "Food", Color: "#FF6384"},
	{Name: "Transport", Color: "#36A2EB"},
	{Name: "Shopping", Color: "#FFCE56"},
	{Name: "Bills", Color: "#4BC0C0"},
	{Name: "Entertainment", Color: "#9966FF"},
	{Name: "Other", Color: "#C9CBCF"},
}

// ParseTransactionType accepts "income" or "expense", case-insensitively.
func ParseTransactionType(s string) (TransactionType, error) {
	switch TransactionType(strings.ToLower(strings.TrimSpace(s))) {
	case Income:
		return Income, nil
	case Expense:
		return Expense, nil
	}
	return "", ErrInvalidType
}

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (c Category) Validate() error {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return ErrEmptyName
	}
	if len(name) > maxCategoryNameLen {
		return errors.New("category name too long (max 50 characters)")
	}
	if !colorPattern.MatchString(c.Color) {
		return ErrInvalidColor
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if t.Date.IsZero() {
		return ErrZeroDate
	}
	if len(t.Description) > maxDescriptionLen {
		return ErrDescriptionLong
	}
	return nil
}

// DisplayCategory returns the category name and color, falling back to the
// uncategorized placeholder.
func (t Transaction) DisplayCategory() (name, color string) {
	if t.CategoryID == nil || t.CategoryName == "" {
		return UncategorizedName, UncategorizedColor
	}
	return t.CategoryName, t.CategoryColor
}

// Signed returns the amount as income-positive, expense-negative cents.
func (t Transaction) Signed() int64 {
	if t.Type == Expense {
		return -t.Amount.Cents
	}
	return t.Amount.Cents
}

func (b Budget) Validate() error {
	if b.Month < 1 || b.Month > 12 {
		return ErrInvalidMonth
	}
	if b.Year < 1970 || b.Year > 9999 {
		return ErrInvalidYear
	}
	if b.Amount.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}
