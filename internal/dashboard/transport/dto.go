package transport

import "time"

// SummaryResponse is the compliance overview of one organization.
type SummaryResponse struct {
	TotalEquipment       int       `json:"totalEquipment"`
	Green                int       `json:"green"`
	Yellow               int       `json:"yellow"`
	Red                  int       `json:"red"`
	Overdue              int       `json:"overdue"`
	Warning              int       `json:"warning"`
	Orphaned             int       `json:"orphaned"`
	Provisional          int       `json:"provisional"`
	CompliancePercentage float64   `json:"compliancePercentage"`
	TotalCustomers       int       `json:"totalCustomers"`
	TotalSites           int       `json:"totalSites"`
	GeneratedAt          time.Time `json:"generatedAt"`
}
