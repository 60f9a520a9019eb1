package domain

import "time"

// WarningWindowDays is how far ahead a due date turns equipment YELLOW. Inclusive.
const WarningWindowDays = 15

// PendingAgreementStoplight is the classification for equipment whose effective agreement
// is PENDING. Two historical variants disagreed (RED vs YELLOW); this engine uses RED, which
// makes a lapsed contract block servicing without a reason code.
const PendingAgreementStoplight = StoplightRed

// EffectiveAgreement returns the linked customer's agreement when the equipment sits at a
// site, and the equipment's own agreement otherwise.
func EffectiveAgreement(s Snapshot) AgreementStatus {
	if _, linked := SiteOf(s.Equipment.Owner); linked && s.CustomerAgreement != nil {
		return *s.CustomerAgreement
	}
	return s.Equipment.AgreementStatus
}

// CalculateStatus classifies equipment as of today (a calendar date, see DateOf).
// Pure and total: every combination of nil dates yields a status.
func CalculateStatus(s Snapshot, today time.Time) Stoplight {
	if s.Equipment.Deletion.IsDeleted() {
		return StoplightRed
	}

	switch EffectiveAgreement(s) {
	case AgreementOutOfScope:
		return StoplightRed
	case AgreementPending:
		return PendingAgreementStoplight
	}

	next := s.Equipment.NextService
	if next == nil {
		return StoplightGreen
	}
	if next.Before(today) {
		return StoplightRed
	}
	if !next.After(today.AddDate(0, 0, WarningWindowDays)) {
		return StoplightYellow
	}
	return StoplightGreen
}

// IsOverdue reports nextService strictly before today.
func IsOverdue(e Equipment, today time.Time) bool {
	return e.NextService != nil && e.NextService.Before(today)
}
