package service

import (
	"sort"
	"time"

	"compliance_backend/internal/domain"
	"compliance_backend/internal/equipment/transport"
)

// recentWindow is how far back service visits are listed individually.
const recentWindow = 365 * 24 * time.Hour

// BuildHistory splits service records into recent visits and per-month counts of
// older ones. Months are formatted in loc. Both lists are newest first.
func BuildHistory(records []domain.ServiceRecord, now time.Time, loc *time.Location) transport.HistoryResponse {
	if loc == nil {
		loc = time.UTC
	}
	cutoff := now.Add(-recentWindow)

	sorted := make([]domain.ServiceRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ServicedAt.After(sorted[j].ServicedAt)
	})

	resp := transport.HistoryResponse{
		RecentServices:   []transport.ServiceRecordResponse{},
		MonthlySummaries: []transport.MonthlySummary{},
	}
	index := map[string]int{}
	for _, rec := range sorted {
		if !rec.ServicedAt.Before(cutoff) {
			resp.RecentServices = append(resp.RecentServices, toRecordResponse(rec))
			continue
		}
		month := rec.ServicedAt.In(loc).Format("2006-01")
		if i, ok := index[month]; ok {
			resp.MonthlySummaries[i].ServiceCount++
			continue
		}
		index[month] = len(resp.MonthlySummaries)
		resp.MonthlySummaries = append(resp.MonthlySummaries, transport.MonthlySummary{Month: month, ServiceCount: 1})
	}
	return resp
}

func toRecordResponse(rec domain.ServiceRecord) transport.ServiceRecordResponse {
	resp := transport.ServiceRecordResponse{
		ID:          rec.ID,
		EquipmentID: rec.EquipmentID,
		ServicedBy:  rec.ServicedBy,
		ServicedAt:  rec.ServicedAt,
	}
	if rec.ReasonCode != nil {
		code := string(*rec.ReasonCode)
		resp.ReasonCode = &code
	}
	return resp
}
