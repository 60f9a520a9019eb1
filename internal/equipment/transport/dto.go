package transport

import (
	"time"

	"github.com/google/uuid"
)

// CreateEquipmentRequest creates an equipment item. Dates are YYYY-MM-DD.
type CreateEquipmentRequest struct {
	SerialNumber    string     `json:"serialNumber" validate:"required,min=1,max=100"`
	CustAssetID     *string    `json:"custAssetId" validate:"omitempty,max=100"`
	QRCodeValue     *string    `json:"qrCodeValue" validate:"omitempty,max=255"`
	AgreementStatus string     `json:"agreementStatus" validate:"required,agreement_status"`
	ServiceCycle    string     `json:"serviceCycle" validate:"required,service_cycle"`
	SiteID          *uuid.UUID `json:"siteId"`
	EquipmentTypeID *uuid.UUID `json:"equipmentTypeId"`
	NextService     *string    `json:"nextService" validate:"omitempty,datetime=2006-01-02"`
	Provisional     bool       `json:"provisional"`
	// ProvisionalExpiresAt defaults to now plus the configured TTL.
	ProvisionalExpiresAt *time.Time `json:"provisionalExpiresAt"`
}

// UpdateEquipmentRequest patches an equipment item. Omitted fields stay unchanged.
type UpdateEquipmentRequest struct {
	Version             *int64     `json:"version" validate:"omitempty,min=0"`
	CustAssetID         *string    `json:"custAssetId" validate:"omitempty,max=100"`
	QRCodeValue         *string    `json:"qrCodeValue" validate:"omitempty,max=255"`
	AgreementStatus     *string    `json:"agreementStatus" validate:"omitempty,agreement_status"`
	LifecycleStatus     *string    `json:"lifecycleStatus" validate:"omitempty,lifecycle_status"`
	ServiceCycle        *string    `json:"serviceCycle" validate:"omitempty,service_cycle"`
	EquipmentTypeID     *uuid.UUID `json:"equipmentTypeId"`
	SiteID              *uuid.UUID `json:"siteId"`
	DetachFromSite      bool       `json:"detachFromSite"`
	NextService         *string    `json:"nextService" validate:"omitempty,datetime=2006-01-02"`
	NextServiceOverride *bool      `json:"nextServiceOverride"`
	Formalize           bool       `json:"formalize"`
}

// UpdateAssetIDRequest replaces the customer asset id. An empty value clears it.
type UpdateAssetIDRequest struct {
	CustAssetID string `json:"custAssetId" validate:"max=100"`
}

// MarkServicedRequest records a service visit. ReasonCode is required while the item is RED.
type MarkServicedRequest struct {
	ReasonCode *string `json:"reasonCode" validate:"omitempty,reason_code"`
}

type BulkDeleteRequest struct {
	IDs []uuid.UUID `json:"ids" validate:"required,min=1,max=500"`
}

type BulkUpdateStatusRequest struct {
	IDs             []uuid.UUID `json:"ids" validate:"required,min=1,max=500"`
	AgreementStatus string      `json:"agreementStatus" validate:"required,agreement_status"`
}

type BulkUpdateCycleRequest struct {
	IDs          []uuid.UUID `json:"ids" validate:"required,min=1,max=500"`
	ServiceCycle string      `json:"serviceCycle" validate:"required,service_cycle"`
}

// ListEquipmentRequest are the list filters.
type ListEquipmentRequest struct {
	AgreementStatus string `form:"agreementStatus" validate:"omitempty,agreement_status"`
	ServiceCycle    string `form:"serviceCycle" validate:"omitempty,service_cycle"`
	LifecycleStatus string `form:"lifecycleStatus" validate:"omitempty,lifecycle_status"`
	NextServiceFrom string `form:"nextServiceFrom" validate:"omitempty,datetime=2006-01-02"`
	NextServiceTo   string `form:"nextServiceTo" validate:"omitempty,datetime=2006-01-02"`
	Search          string `form:"search" validate:"max=100"`
	CustomerID      string `form:"customerId" validate:"omitempty,uuid"`
	SiteID          string `form:"siteId" validate:"omitempty,uuid"`
	EquipmentTypeID string `form:"equipmentTypeId" validate:"omitempty,uuid"`
	OrphanedOnly    bool   `form:"orphanedOnly"`
	Page            int    `form:"page" validate:"omitempty,min=1"`
	PageSize        int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
	SortBy          string `form:"sortBy" validate:"omitempty,oneof=serialNumber custAssetId nextService lastService agreementStatus createdAt"`
	SortOrder       string `form:"sortOrder" validate:"omitempty,oneof=asc desc"`
}

type LookupRequest struct {
	Query string `form:"q" validate:"required,min=1,max=255"`
}

type EquipmentResponse struct {
	ID                   uuid.UUID  `json:"id"`
	SerialNumber         string     `json:"serialNumber"`
	CustAssetID          *string    `json:"custAssetId,omitempty"`
	QRCodeValue          string     `json:"qrCodeValue"`
	SiteID               *uuid.UUID `json:"siteId,omitempty"`
	EquipmentTypeID      *uuid.UUID `json:"equipmentTypeId,omitempty"`
	AgreementStatus      string     `json:"agreementStatus"`
	EffectiveAgreement   string     `json:"effectiveAgreementStatus"`
	LifecycleStatus      string     `json:"lifecycleStatus"`
	ServiceCycle         string     `json:"serviceCycle"`
	LastService          *time.Time `json:"lastService,omitempty"`
	NextService          *string    `json:"nextService,omitempty"`
	NextServiceOverride  bool       `json:"nextServiceOverride"`
	StoplightStatus      string     `json:"stoplightStatus"`
	Provisional          bool       `json:"provisional"`
	ProvisionalExpiresAt *time.Time `json:"provisionalExpiresAt,omitempty"`
	PredecessorID        *uuid.UUID `json:"predecessorId,omitempty"`
	Version              int64      `json:"version"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

type EquipmentListResponse struct {
	Items      []EquipmentResponse `json:"items"`
	Total      int                 `json:"total"`
	Page       int                 `json:"page"`
	PageSize   int                 `json:"pageSize"`
	TotalPages int                 `json:"totalPages"`
}

type ServiceRecordResponse struct {
	ID          uuid.UUID `json:"id"`
	EquipmentID uuid.UUID `json:"equipmentId"`
	ServicedBy  uuid.UUID `json:"servicedBy"`
	ServicedAt  time.Time `json:"servicedAt"`
	ReasonCode  *string   `json:"reasonCode,omitempty"`
}

// ServicedResponse is the visit just recorded together with the refreshed equipment.
type ServicedResponse struct {
	ServiceRecord ServiceRecordResponse `json:"serviceRecord"`
	Equipment     EquipmentResponse     `json:"equipment"`
}

// MonthlySummary counts older service visits of one month (YYYY-MM).
type MonthlySummary struct {
	Month        string `json:"month"`
	ServiceCount int    `json:"serviceCount"`
}

// HistoryResponse lists recent visits in detail and older ones per month, newest first.
type HistoryResponse struct {
	RecentServices   []ServiceRecordResponse `json:"recentServices"`
	MonthlySummaries []MonthlySummary        `json:"monthlySummaries"`
}

type OrphanCountResponse struct {
	Count int `json:"count"`
}

type BulkResultResponse struct {
	SuccessCount int    `json:"successCount"`
	FailureCount int    `json:"failureCount"`
	Message      string `json:"message"`
}

// LabelURLResponse points at a stored QR label.
type LabelURLResponse struct {
	URL       string    `json:"url"`
	FileKey   string    `json:"fileKey"`
	ExpiresAt time.Time `json:"expiresAt"`
}
