package helpers

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	pkgerrors "github.com/atacadobras/atacado-backend/pkg/errors"
)

// NormalizeCEP strips formatting from a Brazilian postal code and validates
// the 8-digit form.
func NormalizeCEP(raw string) (string, error) {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	cep := digits.String()
	if len(cep) != 8 {
		return "", pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("postal code %q must have 8 digits", raw))
	}
	return cep, nil
}

// GateInput is everything the confirm gate inspects.
type GateInput struct {
	Groups               []Group
	MinimumPhysicalUnits int
	DestinationCEP       string
	SelectedRates        map[uuid.UUID]int64
}

// ValidateConfirmGate checks every confirm precondition and reports all
// violations at once, so the buyer sees the complete list rather than fixing
// one problem per attempt.
func ValidateConfirmGate(input GateInput) []string {
	var violations []string

	if len(input.Groups) == 0 {
		violations = append(violations, "cart is empty")
		return violations
	}

	if _, err := NormalizeCEP(input.DestinationCEP); err != nil {
		violations = append(violations, "destination postal code is missing or invalid")
	}

	for _, group := range input.Groups {
		if !group.MeetsMinimum(input.MinimumPhysicalUnits) {
			violations = append(violations, fmt.Sprintf(
				"supplier %s group has %d physical units, minimum is %d",
				group.SupplierName, group.PhysicalUnits(), input.MinimumPhysicalUnits))
		}
		if _, ok := input.SelectedRates[group.SupplierID]; !ok {
			violations = append(violations, fmt.Sprintf(
				"supplier %s group has no shipping rate selected", group.SupplierName))
		}
	}

	return violations
}
