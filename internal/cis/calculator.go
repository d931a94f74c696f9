// Package cis implements the Construction Industry Scheme deduction rules.
//
// Under CIS a contractor withholds a percentage of each subcontractor invoice
// and pays it to HMRC. The rate depends on the subcontractor's verification
// outcome: 0% for gross payment status, 20% when verified and matched, 30%
// when HMRC could not match the subcontractor.
//
// All money is handled as decimals and rounded to 2 places half-up, so
// recomputing a deduction from the same inputs is always cent-exact.
package cis

import (
	"time"

	"github.com/shopspring/decimal"

	"cispay/pkg/models"
)

// MaxRate is the highest statutory deduction rate (unverified subcontractors).
var MaxRate = decimal.NewFromInt(30)

var (
	rateGross    = decimal.Zero
	rateStandard = decimal.NewFromInt(20)
	rateHigher   = decimal.NewFromInt(30)

	oneHundred = decimal.NewFromInt(100)
)

// Result holds the outcome of a CIS deduction calculation.
type Result struct {
	CISDeduction decimal.Decimal // Amount withheld for HMRC
	NetPayment   decimal.Decimal // Amount payable to the subcontractor
}

// Calculate computes the CIS deduction and net payment for an invoice amount.
// A nil rate means no deduction applies and is treated as zero.
//
// The deduction is amount * rate / 100 rounded to 2 decimal places half-up;
// the net payment is the exact remainder, so CISDeduction + NetPayment always
// equals the original amount.
func Calculate(amount decimal.Decimal, rate *decimal.Decimal) (Result, error) {
	r := decimal.Zero
	if rate != nil {
		r = *rate
	}

	if amount.LessThanOrEqual(decimal.Zero) {
		return Result{}, newCalculationError(amount, r, ErrInvalidAmount)
	}
	if r.IsNegative() || r.GreaterThan(MaxRate) {
		return Result{}, newCalculationError(amount, r, ErrInvalidRate)
	}

	deduction := amount.Mul(r).Div(oneHundred).Round(2)
	return Result{
		CISDeduction: deduction,
		NetPayment:   amount.Sub(deduction),
	}, nil
}

// RateForStatus maps a CIS verification outcome to its statutory rate.
func RateForStatus(status string) (decimal.Decimal, error) {
	switch status {
	case models.VerificationGross:
		return rateGross, nil
	case models.VerificationMatched:
		return rateStandard, nil
	case models.VerificationUnmatched:
		return rateHigher, nil
	default:
		return decimal.Zero, ErrUnknownVerificationStatus
	}
}

// Apply recomputes an invoice's derived amounts from its gross amount and
// deduction rate, restoring the NetPayment = Amount - CISDeduction invariant.
// It must be called whenever the amount or rate changes.
func Apply(inv *models.Invoice) error {
	result, err := Calculate(inv.Amount, inv.DeductionRate)
	if err != nil {
		return err
	}
	inv.CISDeduction = result.CISDeduction
	inv.NetPayment = result.NetPayment
	inv.UpdatedAt = time.Now()
	return nil
}
