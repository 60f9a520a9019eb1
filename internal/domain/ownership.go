package domain

import (
	"context"

	"github.com/google/uuid"
)

// Ownership says how equipment belongs to its organization: directly, or through a site.
// Implemented by Owned and SitedOwned only.
type Ownership interface {
	isOwnership()
}

// Owned is equipment held directly by an organization. Orphaned equipment ends up here.
type Owned struct {
	OrganizationID uuid.UUID
}

// SitedOwned is equipment installed at a site; the organization is inherited through
// site -> customer -> organization.
type SitedOwned struct {
	SiteID uuid.UUID
}

func (Owned) isOwnership()      {}
func (SitedOwned) isOwnership() {}

// SiteOf returns the linked site, if any.
func SiteOf(o Ownership) (uuid.UUID, bool) {
	if s, ok := o.(SitedOwned); ok {
		return s.SiteID, true
	}
	return uuid.Nil, false
}

// OwnershipFromColumns builds the variant from the persisted columns.
func OwnershipFromColumns(organizationID uuid.UUID, siteID *uuid.UUID) Ownership {
	if siteID != nil {
		return SitedOwned{SiteID: *siteID}
	}
	return Owned{OrganizationID: organizationID}
}

// SiteOrganizationLookup resolves the organization owning a non-deleted site.
type SiteOrganizationLookup interface {
	SiteOrganization(ctx context.Context, siteID uuid.UUID) (uuid.UUID, error)
}

// ResolveOrganization returns the effective organization of an ownership variant.
func ResolveOrganization(ctx context.Context, o Ownership, sites SiteOrganizationLookup) (uuid.UUID, error) {
	switch v := o.(type) {
	case Owned:
		return v.OrganizationID, nil
	case SitedOwned:
		return sites.SiteOrganization(ctx, v.SiteID)
	default:
		panic("domain: unknown ownership variant")
	}
}
