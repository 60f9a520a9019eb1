package domain

import (
	"fmt"
	"strings"

	"compliance_backend/platform/apperr"
)

// AgreementStatus is the contractual coverage of a customer or of unlinked equipment.
type AgreementStatus string

const (
	AgreementCovered    AgreementStatus = "COVERED"
	AgreementPending    AgreementStatus = "PENDING"
	AgreementOutOfScope AgreementStatus = "OUT_OF_SCOPE"
)

// AgreementStatuses lists every valid value.
var AgreementStatuses = []AgreementStatus{AgreementCovered, AgreementPending, AgreementOutOfScope}

func (s AgreementStatus) Valid() bool {
	switch s {
	case AgreementCovered, AgreementPending, AgreementOutOfScope:
		return true
	}
	return false
}

// ParseAgreementStatus accepts any casing and returns a business-rule error for unknown values.
func ParseAgreementStatus(raw string) (AgreementStatus, error) {
	s := AgreementStatus(normalizeEnum(raw))
	if !s.Valid() {
		return "", invalidEnum("agreement status", raw)
	}
	return s, nil
}

// LifecycleStatus tracks whether equipment is still in use.
type LifecycleStatus string

const (
	LifecycleActive  LifecycleStatus = "ACTIVE"
	LifecycleRetired LifecycleStatus = "RETIRED"
)

var LifecycleStatuses = []LifecycleStatus{LifecycleActive, LifecycleRetired}

func (s LifecycleStatus) Valid() bool {
	switch s {
	case LifecycleActive, LifecycleRetired:
		return true
	}
	return false
}

func ParseLifecycleStatus(raw string) (LifecycleStatus, error) {
	s := LifecycleStatus(normalizeEnum(raw))
	if !s.Valid() {
		return "", invalidEnum("lifecycle status", raw)
	}
	return s, nil
}

// ServiceCycle is the maintenance interval of a piece of equipment.
type ServiceCycle string

const (
	CycleMonthly    ServiceCycle = "MONTHLY"
	CycleQuarterly  ServiceCycle = "QUARTERLY"
	CycleSemesterly ServiceCycle = "SEMESTERLY"
	CycleAnnually   ServiceCycle = "ANNUALLY"
)

var ServiceCycles = []ServiceCycle{CycleMonthly, CycleQuarterly, CycleSemesterly, CycleAnnually}

func (c ServiceCycle) Valid() bool {
	_, ok := c.months()
	return ok
}

func ParseServiceCycle(raw string) (ServiceCycle, error) {
	c := ServiceCycle(normalizeEnum(raw))
	if !c.Valid() {
		return "", invalidEnum("service cycle", raw)
	}
	return c, nil
}

func (c ServiceCycle) months() (int, bool) {
	switch c {
	case CycleMonthly:
		return 1, true
	case CycleQuarterly:
		return 3, true
	case CycleSemesterly:
		return 6, true
	case CycleAnnually:
		return 12, true
	}
	return 0, false
}

// ReasonCode explains why equipment was serviced while RED.
type ReasonCode string

const (
	ReasonEmergency            ReasonCode = "EMERGENCY"
	ReasonCustomerRequest      ReasonCode = "CUSTOMER_REQUEST"
	ReasonTechnicianDiscretion ReasonCode = "TECHNICIAN_DISCRETION"
	ReasonOther                ReasonCode = "OTHER"
)

var ReasonCodes = []ReasonCode{ReasonEmergency, ReasonCustomerRequest, ReasonTechnicianDiscretion, ReasonOther}

func (r ReasonCode) Valid() bool {
	switch r {
	case ReasonEmergency, ReasonCustomerRequest, ReasonTechnicianDiscretion, ReasonOther:
		return true
	}
	return false
}

func ParseReasonCode(raw string) (ReasonCode, error) {
	r := ReasonCode(normalizeEnum(raw))
	if !r.Valid() {
		return "", invalidEnum("reason code", raw)
	}
	return r, nil
}

// Stoplight is the derived compliance classification.
type Stoplight string

const (
	StoplightGreen  Stoplight = "GREEN"
	StoplightYellow Stoplight = "YELLOW"
	StoplightRed    Stoplight = "RED"
)

func normalizeEnum(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

func invalidEnum(field, raw string) error {
	return apperr.BusinessRule(fmt.Sprintf("invalid %s %q", field, raw))
}
