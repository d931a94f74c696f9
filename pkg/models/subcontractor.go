package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CIS verification outcomes reported by HMRC. The outcome fixes the statutory
// deduction rate applied to the subcontractor's invoices.
const (
	VerificationGross     = "GROSS"     // Verified for gross payment, no deduction
	VerificationMatched   = "MATCHED"   // Verified and matched, standard 20% deduction
	VerificationUnmatched = "UNMATCHED" // Could not be matched, higher 30% deduction
)

type Subcontractor struct {
	ID          uuid.UUID
	CompanyName string
	ContactName string
	UTR         string // Unique Taxpayer Reference used for CIS verification

	// CIS status
	VerificationStatus string           // GROSS, MATCHED or UNMATCHED
	VerificationNumber string           // HMRC verification reference
	DeductionRate      *decimal.Decimal // Verified rate; nil until verified
	VerifiedAt         *time.Time

	// Bank details required for BACS inclusion. An invoice whose subcontractor
	// lacks any of these is skipped from the bank file but still appears in the
	// CSV output.
	BankSortCode      string
	BankAccountNumber string
	BankAccountName   string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasBankDetails reports whether the subcontractor can be paid by BACS.
func (s *Subcontractor) HasBankDetails() bool {
	return s.BankSortCode != "" && s.BankAccountNumber != ""
}

// PayeeName returns the name to print on a payment line, falling back to the
// company name when no separate account name is held.
func (s *Subcontractor) PayeeName() string {
	if s.BankAccountName != "" {
		return s.BankAccountName
	}
	return s.CompanyName
}
