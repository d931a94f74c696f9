package cis_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"cispay/internal/cis"
	"cispay/pkg/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestCalculate(t *testing.T) {
	tests := []struct {
		name          string
		amount        string
		rate          *decimal.Decimal
		wantDeduction string
		wantNet       string
	}{
		{
			name:          "standard 20 percent",
			amount:        "1000.00",
			rate:          decPtr("20"),
			wantDeduction: "200.00",
			wantNet:       "800.00",
		},
		{
			name:          "higher 30 percent",
			amount:        "1000.00",
			rate:          decPtr("30"),
			wantDeduction: "300.00",
			wantNet:       "700.00",
		},
		{
			name:          "gross status zero rate",
			amount:        "1234.56",
			rate:          decPtr("0"),
			wantDeduction: "0.00",
			wantNet:       "1234.56",
		},
		{
			name:          "nil rate treated as zero",
			amount:        "500.00",
			rate:          nil,
			wantDeduction: "0.00",
			wantNet:       "500.00",
		},
		{
			name:          "rounding half up",
			amount:        "33.33",
			rate:          decPtr("20"),
			wantDeduction: "6.67", // 6.666 rounds up
			wantNet:       "26.66",
		},
		{
			name:          "penny amount",
			amount:        "0.01",
			rate:          decPtr("20"),
			wantDeduction: "0.00",
			wantNet:       "0.01",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := cis.Calculate(dec(tt.amount), tt.rate)
			if err != nil {
				t.Fatalf("Calculate() error = %v", err)
			}
			if got := result.CISDeduction.StringFixed(2); got != tt.wantDeduction {
				t.Errorf("CISDeduction = %s, want %s", got, tt.wantDeduction)
			}
			if got := result.NetPayment.StringFixed(2); got != tt.wantNet {
				t.Errorf("NetPayment = %s, want %s", got, tt.wantNet)
			}

			// Deduction and net must always reassemble the gross amount
			sum := result.CISDeduction.Add(result.NetPayment)
			if !sum.Equal(dec(tt.amount)) {
				t.Errorf("CISDeduction + NetPayment = %s, want %s", sum, tt.amount)
			}
		})
	}
}

func TestCalculateIdempotent(t *testing.T) {
	amount := dec("7303.08")
	rate := decPtr("20")

	first, err := cis.Calculate(amount, rate)
	if err != nil {
		t.Fatalf("Calculate() error = %v", err)
	}
	second, err := cis.Calculate(amount, rate)
	if err != nil {
		t.Fatalf("Calculate() error = %v", err)
	}

	if !first.CISDeduction.Equal(second.CISDeduction) || !first.NetPayment.Equal(second.NetPayment) {
		t.Errorf("recomputation drifted: first = %+v, second = %+v", first, second)
	}
}

func TestCalculateErrors(t *testing.T) {
	tests := []struct {
		name    string
		amount  string
		rate    *decimal.Decimal
		wantErr error
	}{
		{name: "zero amount", amount: "0", rate: decPtr("20"), wantErr: cis.ErrInvalidAmount},
		{name: "negative amount", amount: "-10.00", rate: decPtr("20"), wantErr: cis.ErrInvalidAmount},
		{name: "negative rate", amount: "100.00", rate: decPtr("-1"), wantErr: cis.ErrInvalidRate},
		{name: "rate above 30", amount: "100.00", rate: decPtr("30.01"), wantErr: cis.ErrInvalidRate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := cis.Calculate(dec(tt.amount), tt.rate)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Calculate() error = %v, want %v", err, tt.wantErr)
			}

			var calcErr *cis.CalculationError
			if !errors.As(err, &calcErr) {
				t.Fatalf("error should carry the offending inputs, got %T", err)
			}
		})
	}
}

func TestRateForStatus(t *testing.T) {
	tests := []struct {
		status   string
		wantRate string
		wantErr  bool
	}{
		{status: models.VerificationGross, wantRate: "0"},
		{status: models.VerificationMatched, wantRate: "20"},
		{status: models.VerificationUnmatched, wantRate: "30"},
		{status: "PENDING", wantErr: true},
		{status: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			rate, err := cis.RateForStatus(tt.status)
			if tt.wantErr {
				if !errors.Is(err, cis.ErrUnknownVerificationStatus) {
					t.Errorf("RateForStatus(%q) error = %v, want ErrUnknownVerificationStatus", tt.status, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("RateForStatus(%q) error = %v", tt.status, err)
			}
			if !rate.Equal(dec(tt.wantRate)) {
				t.Errorf("RateForStatus(%q) = %s, want %s", tt.status, rate, tt.wantRate)
			}
		})
	}
}

func TestApplyRestoresInvariant(t *testing.T) {
	inv := &models.Invoice{
		InvoiceNumber: "1001",
		Amount:        dec("1500.00"),
		DeductionRate: decPtr("20"),
		Status:        models.InvoiceStatusApproved,
	}

	if err := cis.Apply(inv); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if got := inv.CISDeduction.StringFixed(2); got != "300.00" {
		t.Errorf("CISDeduction = %s, want 300.00", got)
	}
	if got := inv.NetPayment.StringFixed(2); got != "1200.00" {
		t.Errorf("NetPayment = %s, want 1200.00", got)
	}

	// Amount change requires recomputation of the derived fields
	inv.Amount = dec("2000.00")
	if err := cis.Apply(inv); err != nil {
		t.Fatalf("Apply() after amount change error = %v", err)
	}
	if !inv.CISDeduction.Add(inv.NetPayment).Equal(inv.Amount) {
		t.Errorf("invariant broken: %s + %s != %s", inv.CISDeduction, inv.NetPayment, inv.Amount)
	}
}
