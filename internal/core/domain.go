package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

const (
	Stocks     InvestmentType = "Stocks"
	MutualFund InvestmentType = "Mutual Fund"
	Crypto     InvestmentType = "Crypto"
	FD         InvestmentType = "FD"
	Bonds      InvestmentType = "Bonds"
	RealEstate InvestmentType = "Real Estate"
	Other      InvestmentType = "Other"
)

type (
	InvestmentType string

	Date struct {
		time.Time
	}

	BudgetCategory struct {
		ID          string          `json:"id"`
		Name        string          `json:"name"`
		BudgetLimit decimal.Decimal `json:"budget"`
		SpentTotal  decimal.Decimal `json:"spent"`
	}

	Expense struct {
		ID       string          `json:"id"`
		Category string          `json:"category"` // BudgetCategory.Name, not an id
		Amount   decimal.Decimal `json:"amount"`
		Date     Date            `json:"date"`
		Notes    string          `json:"notes"`
	}

	IncomeEntry struct {
		ID         string          `json:"id"`
		SourceName string          `json:"sourceName"`
		Amount     decimal.Decimal `json:"amount"`
		Date       Date            `json:"date"`
	}

	SavingsEntry struct {
		ID     string          `json:"id"`
		Amount decimal.Decimal `json:"amount"`
		Date   Date            `json:"date"`
		Note   string          `json:"note"`
	}

	Goal struct {
		ID            string          `json:"id"`
		Name          string          `json:"name"`
		TargetAmount  decimal.Decimal `json:"targetAmount"`
		CurrentAmount decimal.Decimal `json:"currentAmount"`
		TargetDate    Date            `json:"targetDate"`
	}

	Investment struct {
		ID     string          `json:"id"`
		Name   string          `json:"name"`
		Type   InvestmentType  `json:"type"`
		Amount decimal.Decimal `json:"amount"`
	}

	Group struct {
		ID      string   `json:"id"`
		Name    string   `json:"name"`
		Members []string `json:"members"`
	}

	GroupExpense struct {
		ID           string          `json:"id"`
		GroupID      string          `json:"groupId"`
		Description  string          `json:"description"`
		Amount       decimal.Decimal `json:"amount"`
		Date         Date            `json:"date"`
		PaidBy       string          `json:"paidBy"`
		SplitBetween []string        `json:"splitBetween"`
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidDate        = errors.New("invalid date")
	ErrEmptyName          = errors.New("empty name")
	ErrEmptyDescription   = errors.New("empty description")
	ErrInvalidType        = errors.New("invalid investment type")
	ErrExceedsTarget      = errors.New("amount exceeds remaining target")
	ErrDuplicateCategory  = errors.New("budget category already exists")
	ErrDuplicateMember    = errors.New("member already in group")
	ErrEmptySplit         = errors.New("expense must be split between at least one member")
	ErrNotMember          = errors.New("not a member of the group")
	ErrNegativeLimit      = errors.New("budget limit cannot be negative")
	ErrCurrentAboveTarget = errors.New("current amount cannot exceed target amount")
)

// InvestmentTypes lists the accepted investment types in display order.
var InvestmentTypes = []InvestmentType{Stocks, MutualFund, Crypto, FD, Bonds, RealEstate, Other}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// String formats the date as YYYY-MM-DD, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// MonthKey returns the YYYY-MM bucket the date falls in.
func (d Date) MonthKey() string {
	return d.Format("2006-01")
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	// Older snapshots carry full timestamps.
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (t InvestmentType) Validate() error {
	for _, known := range InvestmentTypes {
		if t == known {
			return nil
		}
	}
	return ErrInvalidType
}

func (c BudgetCategory) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return invalid("name", ErrEmptyName)
	}
	if c.BudgetLimit.IsNegative() {
		return invalid("budget", ErrNegativeLimit)
	}
	return nil
}

func (e Expense) Validate() error {
	if err := validateAmount("amount", e.Amount); err != nil {
		return err
	}
	if err := e.Date.Validate(); err != nil {
		return invalid("date", err)
	}
	return nil
}

func (i IncomeEntry) Validate() error {
	if strings.TrimSpace(i.SourceName) == "" {
		return invalid("sourceName", ErrEmptyName)
	}
	if err := validateAmount("amount", i.Amount); err != nil {
		return err
	}
	if err := i.Date.Validate(); err != nil {
		return invalid("date", err)
	}
	return nil
}

func (s SavingsEntry) Validate() error {
	if err := validateAmount("amount", s.Amount); err != nil {
		return err
	}
	if err := s.Date.Validate(); err != nil {
		return invalid("date", err)
	}
	return nil
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return invalid("name", ErrEmptyName)
	}
	if err := validateAmount("targetAmount", g.TargetAmount); err != nil {
		return err
	}
	if g.CurrentAmount.IsNegative() {
		return invalid("currentAmount", ErrInvalidAmount)
	}
	if g.CurrentAmount.GreaterThan(g.TargetAmount) {
		return invalid("currentAmount", ErrCurrentAboveTarget)
	}
	return nil
}

// Active reports whether the goal still has an amount left to reach.
func (g Goal) Active() bool {
	return g.CurrentAmount.LessThan(g.TargetAmount)
}

// Completed reports whether the goal target has been reached.
func (g Goal) Completed() bool {
	return !g.Active()
}

// Remaining returns how much can still be added, never below zero.
func (g Goal) Remaining() decimal.Decimal {
	return decimal.Max(decimal.Zero, g.TargetAmount.Sub(g.CurrentAmount))
}

// Progress returns the completion percentage capped at 100.
func (g Goal) Progress() decimal.Decimal {
	if !g.TargetAmount.IsPositive() {
		return decimal.Zero
	}
	pct := g.CurrentAmount.Div(g.TargetAmount).Mul(decimal.NewFromInt(100))
	return decimal.Min(pct, decimal.NewFromInt(100))
}

func (i Investment) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return invalid("name", ErrEmptyName)
	}
	if err := i.Type.Validate(); err != nil {
		return invalid("type", err)
	}
	return validateAmount("amount", i.Amount)
}

func (g Group) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return invalid("name", ErrEmptyName)
	}
	seen := make(map[string]struct{}, len(g.Members))
	for _, m := range g.Members {
		if strings.TrimSpace(m) == "" {
			return invalid("members", ErrEmptyName)
		}
		if _, dup := seen[m]; dup {
			return invalid("members", ErrDuplicateMember)
		}
		seen[m] = struct{}{}
	}
	return nil
}

// HasMember reports whether member belongs to the group.
func (g Group) HasMember(member string) bool {
	for _, m := range g.Members {
		if m == member {
			return true
		}
	}
	return false
}

// Validate checks the expense on its own. Membership checks need the group,
// see ValidateAgainst.
func (e GroupExpense) Validate() error {
	if strings.TrimSpace(e.Description) == "" {
		return invalid("description", ErrEmptyDescription)
	}
	if err := validateAmount("amount", e.Amount); err != nil {
		return err
	}
	if err := e.Date.Validate(); err != nil {
		return invalid("date", err)
	}
	if len(e.SplitBetween) == 0 {
		return invalid("splitBetween", ErrEmptySplit)
	}
	return nil
}

// ValidateAgainst checks paidBy and splitBetween against the group's current members.
func (e GroupExpense) ValidateAgainst(g Group) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if !g.HasMember(e.PaidBy) {
		return invalid("paidBy", ErrNotMember)
	}
	for _, m := range e.SplitBetween {
		if !g.HasMember(m) {
			return invalid("splitBetween", ErrNotMember)
		}
	}
	return nil
}

// SplitShare is the equal share each split member owes for this expense.
func (e GroupExpense) SplitShare() decimal.Decimal {
	if len(e.SplitBetween) == 0 {
		return decimal.Zero
	}
	return e.Amount.Div(decimal.NewFromInt(int64(len(e.SplitBetween))))
}
