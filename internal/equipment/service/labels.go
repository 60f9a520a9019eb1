package service

import (
	"bytes"
	"context"
	"fmt"

	"compliance_backend/internal/equipment/transport"
	"compliance_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
)

const (
	labelSize        = 256
	labelContentType = "image/png"
)

// Label renders the QR label of an equipment item as PNG.
func (s *Service) Label(ctx context.Context, tenantID, id uuid.UUID) ([]byte, error) {
	snap, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	png, err := qrcode.Encode(snap.Equipment.QRCodeValue, qrcode.Medium, labelSize)
	if err != nil {
		return nil, fmt.Errorf("render qr label: %w", err)
	}
	return png, nil
}

// PublishLabel stores the QR label in object storage and returns a short-lived download link.
func (s *Service) PublishLabel(ctx context.Context, tenantID, id uuid.UUID) (transport.LabelURLResponse, error) {
	if s.labels == nil {
		return transport.LabelURLResponse{}, apperr.BusinessRule("label storage is not configured")
	}
	png, err := s.Label(ctx, tenantID, id)
	if err != nil {
		return transport.LabelURLResponse{}, err
	}

	fileKey := LabelKey(tenantID, id)
	if err := s.labels.Put(ctx, s.opts.LabelBucket, fileKey, labelContentType, bytes.NewReader(png), int64(len(png))); err != nil {
		return transport.LabelURLResponse{}, err
	}
	url, err := s.labels.GenerateDownloadURL(ctx, s.opts.LabelBucket, fileKey)
	if err != nil {
		return transport.LabelURLResponse{}, err
	}

	s.log.WithContext(ctx).Info("equipment label published", "id", id, "key", fileKey)
	return transport.LabelURLResponse{URL: url.URL, FileKey: url.FileKey, ExpiresAt: url.ExpiresAt}, nil
}

// LabelKey is the object key of an equipment label, scoped per tenant.
func LabelKey(tenantID, id uuid.UUID) string {
	return fmt.Sprintf("%s/%s.png", tenantID, id)
}
