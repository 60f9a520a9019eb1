package validator

import "testing"

type enumRequest struct {
	Agreement string  `validate:"required,agreement_status"`
	Cycle     *string `validate:"omitempty,service_cycle"`
}

func newTestValidator() *Validator {
	return New(
		Enum("agreement_status", "COVERED", "PENDING", "OUT_OF_SCOPE"),
		Enum("service_cycle", "MONTHLY", "QUARTERLY"),
	)
}

func TestEnumTagsAcceptAnyCasing(t *testing.T) {
	cycle := " quarterly"
	req := enumRequest{Agreement: "covered", Cycle: &cycle}
	if err := newTestValidator().Struct(req); err != nil {
		t.Fatalf("expected valid request, got %v", err)
	}
}

func TestEnumTagsRejectUnknownValues(t *testing.T) {
	cycle := "weekly"
	cases := []enumRequest{
		{Agreement: "EXPIRED"},
		{Agreement: "COVERED", Cycle: &cycle},
	}
	val := newTestValidator()
	for _, req := range cases {
		if err := val.Struct(req); err == nil {
			t.Fatalf("expected validation error for %+v", req)
		}
	}
}
