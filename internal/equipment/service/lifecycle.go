package service

import (
	"context"

	"compliance_backend/internal/domain"
	"compliance_backend/internal/equipment/transport"
	"compliance_backend/internal/lifecycle"

	"github.com/google/uuid"
)

// Update applies a partial update through the lifecycle coordinator so derived
// fields and formalization stay consistent.
func (s *Service) Update(ctx context.Context, tenantID, userID, id uuid.UUID, req transport.UpdateEquipmentRequest) (transport.EquipmentResponse, error) {
	patch, err := toPatch(req)
	if err != nil {
		return transport.EquipmentResponse{}, err
	}
	snap, err := s.engine.UpdateEquipment(ctx, tenantID, userID, id, patch)
	if err != nil {
		return transport.EquipmentResponse{}, err
	}
	return s.toResponse(snap, s.now()), nil
}

// UpdateAssetID changes the customer asset id. If another active item already holds that
// id, it is soft-deleted and linked as this item's predecessor. Its service history stays
// with it under its own id.
func (s *Service) UpdateAssetID(ctx context.Context, tenantID, userID, id uuid.UUID, req transport.UpdateAssetIDRequest) (transport.EquipmentResponse, error) {
	snap, err := s.engine.UpdateEquipmentAssetID(ctx, tenantID, userID, id, req.CustAssetID)
	if err != nil {
		return transport.EquipmentResponse{}, err
	}
	return s.toResponse(snap, s.now()), nil
}

func (s *Service) Delete(ctx context.Context, tenantID, userID, id uuid.UUID) error {
	return s.engine.DeleteEquipment(ctx, tenantID, userID, id)
}

// MarkServiced records a service visit and returns the stored record with the
// refreshed equipment.
func (s *Service) MarkServiced(ctx context.Context, tenantID, userID, id uuid.UUID, req transport.MarkServicedRequest) (transport.ServicedResponse, error) {
	var reason *domain.ReasonCode
	if req.ReasonCode != nil && *req.ReasonCode != "" {
		code, err := domain.ParseReasonCode(*req.ReasonCode)
		if err != nil {
			return transport.ServicedResponse{}, err
		}
		reason = &code
	}
	rec, err := s.recorder.MarkServiced(ctx, tenantID, userID, id, reason)
	if err != nil {
		return transport.ServicedResponse{}, err
	}
	equipment, err := s.GetByID(ctx, tenantID, id)
	if err != nil {
		return transport.ServicedResponse{}, err
	}
	return transport.ServicedResponse{ServiceRecord: toRecordResponse(rec), Equipment: equipment}, nil
}

func (s *Service) BulkDelete(ctx context.Context, tenantID, userID uuid.UUID, req transport.BulkDeleteRequest) (transport.BulkResultResponse, error) {
	res, err := s.engine.BulkDelete(ctx, tenantID, userID, req.IDs)
	return toBulkResponse(res), err
}

func (s *Service) BulkUpdateAgreement(ctx context.Context, tenantID, userID uuid.UUID, req transport.BulkUpdateStatusRequest) (transport.BulkResultResponse, error) {
	status, err := domain.ParseAgreementStatus(req.AgreementStatus)
	if err != nil {
		return transport.BulkResultResponse{}, err
	}
	res, err := s.engine.BulkUpdateAgreement(ctx, tenantID, userID, req.IDs, status)
	return toBulkResponse(res), err
}

func (s *Service) BulkUpdateCycle(ctx context.Context, tenantID, userID uuid.UUID, req transport.BulkUpdateCycleRequest) (transport.BulkResultResponse, error) {
	cycle, err := domain.ParseServiceCycle(req.ServiceCycle)
	if err != nil {
		return transport.BulkResultResponse{}, err
	}
	res, err := s.engine.BulkUpdateCycle(ctx, tenantID, userID, req.IDs, cycle)
	return toBulkResponse(res), err
}

func toBulkResponse(res lifecycle.BulkResult) transport.BulkResultResponse {
	return transport.BulkResultResponse{
		SuccessCount: res.Success,
		FailureCount: res.Failure,
		Message:      res.Message,
	}
}

func toPatch(req transport.UpdateEquipmentRequest) (lifecycle.EquipmentPatch, error) {
	patch := lifecycle.EquipmentPatch{
		ExpectedVersion:     req.Version,
		CustAssetID:         req.CustAssetID,
		QRCodeValue:         req.QRCodeValue,
		EquipmentTypeID:     req.EquipmentTypeID,
		SiteID:              req.SiteID,
		Detach:              req.DetachFromSite,
		NextServiceOverride: req.NextServiceOverride,
		Formalize:           req.Formalize,
	}
	if req.AgreementStatus != nil {
		v, err := domain.ParseAgreementStatus(*req.AgreementStatus)
		if err != nil {
			return patch, err
		}
		patch.AgreementStatus = &v
	}
	if req.LifecycleStatus != nil {
		v, err := domain.ParseLifecycleStatus(*req.LifecycleStatus)
		if err != nil {
			return patch, err
		}
		patch.LifecycleStatus = &v
	}
	if req.ServiceCycle != nil {
		v, err := domain.ParseServiceCycle(*req.ServiceCycle)
		if err != nil {
			return patch, err
		}
		patch.ServiceCycle = &v
	}
	if req.NextService != nil {
		d, err := parseDate(*req.NextService)
		if err != nil {
			return patch, err
		}
		patch.NextService = &d
	}
	return patch, nil
}
