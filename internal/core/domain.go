package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Daily     Frequency = "daily"
	Weekly    Frequency = "weekly"
	Biweekly  Frequency = "biweekly"
	Monthly   Frequency = "monthly"
	Quarterly Frequency = "quarterly"
	Yearly    Frequency = "yearly"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	PeriodMonthly PeriodType = "monthly"
	PeriodYearly  PeriodType = "yearly"
)

// AutoOriginMarker is appended to the description of every transaction
// created from a recurring template.
const AutoOriginMarker = " (auto)"

const maxDescriptionLen = 200

type (
	Frequency       string
	TransactionType string
	PeriodType      string

	// Date is a calendar date. The wrapped time is always midnight UTC.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	RecurringTemplate struct {
		ID          int64
		AccountID   int64
		CategoryID  int64
		Type        TransactionType
		Amount      Money
		Description string
		Frequency   Frequency
		NextDueDate Date
		IsActive    bool
	}

	Transaction struct {
		ID                  int64
		AccountID           int64
		CategoryID          int64
		Type                TransactionType
		Amount              Money
		Description         string
		TransactionDate     Date
		IsRecurring         bool
		RecurringTemplateID int64 // 0 for manual transactions
	}

	Budget struct {
		ID          int64
		OwnerID     int64
		CategoryID  int64
		Amount      Money // spending ceiling for the period
		PeriodType  PeriodType
		PeriodYear  int
		PeriodMonth int // 1-12, only meaningful for monthly budgets
		IsActive    bool
	}

	Goal struct {
		ID            int64
		OwnerID       int64
		Name          string
		TargetAmount  Money
		CurrentAmount Money
		TargetDate    Date // zero when the goal has no deadline
		IsCompleted   bool
		IsActive      bool
	}
)

var (
	ErrInvalidDay         = errors.New("invalid day")
	ErrInvalidMonth       = errors.New("invalid month")
	ErrInvalidYear        = errors.New("invalid year")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrEmptyDescription   = errors.New("empty description")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
	ErrInvalidType        = errors.New("invalid transaction type")
	ErrInvalidPeriodType  = errors.New("invalid period type")
	ErrEmptyName          = errors.New("empty name")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf drops the time-of-day of t, keeping the calendar date as seen in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a date in YYYY-MM-DD format.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(time.DateOnly)
}

func (d Date) Month() int {
	return int(d.Time.Month())
}

// AddDays returns the date n days later.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.AddDate(0, 0, n)}
}

// AddMonths adds calendar months. Overflowing days roll into the following
// month, e.g. Jan 31 + 1 month is Mar 2 (or Mar 3 in a non-leap year).
func (d Date) AddMonths(n int) Date {
	return Date{Time: d.AddDate(0, n, 0)}
}

func (d Date) After(o Date) bool  { return d.Time.After(o.Time) }
func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }
func (d Date) Equal(o Date) bool  { return d.Time.Equal(o.Time) }

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// Known reports whether f is one of the supported frequencies. Unknown values
// are still accepted by the scheduler, which treats them as monthly.
func (f Frequency) Known() bool {
	switch f {
	case Daily, Weekly, Biweekly, Monthly, Quarterly, Yearly:
		return true
	}
	return false
}

func validateDescription(s string) error {
	if len(strings.TrimSpace(s)) == 0 {
		return ErrEmptyDescription
	}
	if len(s) > maxDescriptionLen {
		return ErrDescriptionTooLong
	}
	return nil
}

func (rt RecurringTemplate) Validate() error {
	if err := rt.NextDueDate.Validate(); err != nil {
		return errors.New("invalid next due date: " + err.Error())
	}
	if !rt.Type.Valid() {
		return ErrInvalidType
	}
	if err := validateDescription(rt.Description); err != nil {
		return err
	}
	return rt.Amount.Validate()
}

func (t Transaction) Validate() error {
	if err := t.TransactionDate.Validate(); err != nil {
		return err
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	// Generated descriptions carry the marker on top of a valid template description.
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	return t.Amount.Validate()
}

func (b Budget) Validate() error {
	if b.Amount.Cents < 0 {
		return ErrInvalidAmount
	}
	if b.PeriodYear < 1 {
		return ErrInvalidYear
	}
	switch b.PeriodType {
	case PeriodMonthly:
		if b.PeriodMonth < 1 || b.PeriodMonth > 12 {
			return ErrInvalidMonth
		}
	case PeriodYearly:
		if b.PeriodMonth != 0 {
			return ErrInvalidMonth
		}
	default:
		return ErrInvalidPeriodType
	}
	return nil
}

// Period returns the half-open window [start, end) the budget tracks: the
// calendar month for monthly budgets, the calendar year otherwise.
func (b Budget) Period() (start, end Date) {
	if b.PeriodType == PeriodMonthly {
		start = NewDate(b.PeriodYear, b.PeriodMonth, 1)
		return start, start.AddMonths(1)
	}
	start = NewDate(b.PeriodYear, 1, 1)
	return start, NewDate(b.PeriodYear+1, 1, 1)
}

// Covers reports whether d falls inside the budget's period window.
func (b Budget) Covers(d Date) bool {
	start, end := b.Period()
	return !d.Before(start) && d.Before(end)
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	if g.TargetAmount.Cents < 0 || g.CurrentAmount.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}
