package service

import (
	"math"
	"time"

	"compliance_backend/internal/domain"
	"compliance_backend/internal/dashboard/transport"
)

// Summarize classifies every snapshot as of today. The compliance percentage is the
// share of GREEN items, 100 when there is no equipment, rounded to two decimals.
func Summarize(snaps []domain.Snapshot, today time.Time) transport.SummaryResponse {
	var s transport.SummaryResponse
	warnUntil := today.AddDate(0, 0, domain.WarningWindowDays)

	for _, snap := range snaps {
		e := snap.Equipment
		s.TotalEquipment++
		switch domain.CalculateStatus(snap, today) {
		case domain.StoplightGreen:
			s.Green++
		case domain.StoplightYellow:
			s.Yellow++
		case domain.StoplightRed:
			s.Red++
		}
		if domain.IsOverdue(e, today) {
			s.Overdue++
		} else if e.NextService != nil && !e.NextService.After(warnUntil) {
			s.Warning++
		}
		if _, sited := domain.SiteOf(e.Owner); !sited {
			s.Orphaned++
		}
		if e.Provisional {
			s.Provisional++
		}
	}

	s.CompliancePercentage = 100
	if s.TotalEquipment > 0 {
		pct := float64(s.Green) * 100 / float64(s.TotalEquipment)
		s.CompliancePercentage = math.Round(pct*100) / 100
	}
	return s
}
