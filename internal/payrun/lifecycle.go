package payrun

import (
	"time"

	"cispay/pkg/models"
)

// transitions lists the permitted one-way lifecycle moves.
var transitions = map[string]string{
	models.RunStatusDraft:    models.RunStatusReady,
	models.RunStatusReady:    models.RunStatusExported,
	models.RunStatusExported: models.RunStatusPaid,
}

func canMove(from, to string) bool {
	return transitions[from] == to
}

// MarkReady moves a draft run to READY once the operator has reviewed it.
func MarkReady(run *models.PaymentRun) error {
	if !canMove(run.Status, models.RunStatusReady) {
		return &TransitionError{RunName: run.Name, From: run.Status, To: models.RunStatusReady}
	}
	run.Status = models.RunStatusReady
	return nil
}

// MarkExported records that a bank file was generated for the run. The
// transition is one-way: an exported run can never return to READY.
func MarkExported(run *models.PaymentRun, exportedAt time.Time) error {
	if !canMove(run.Status, models.RunStatusExported) {
		return &TransitionError{RunName: run.Name, From: run.Status, To: models.RunStatusExported}
	}
	run.Status = models.RunStatusExported
	run.ExportedAt = &exportedAt
	return nil
}

// MarkPaid settles the run. The transition cascades: every constituent
// invoice is marked PAID with the run's name as payment reference and the
// same payment date, so run and invoices never disagree.
//
// Callers persisting this state must write the run and all invoices in a
// single transaction; a partial cascade would leave them inconsistent.
func MarkPaid(run *models.PaymentRun, paidAt time.Time) error {
	if !canMove(run.Status, models.RunStatusPaid) {
		return &TransitionError{RunName: run.Name, From: run.Status, To: models.RunStatusPaid}
	}
	run.Status = models.RunStatusPaid
	run.PaidAt = &paidAt
	for _, inv := range run.Invoices {
		inv.MarkPaid(run.Name, paidAt)
	}
	return nil
}
