package service

import (
	"strings"

	"parkeaya-panel/internal/db"
	"parkeaya-panel/internal/entities"
	apperrors "parkeaya-panel/internal/errors"
)

// validateParking checks the fields every approval submission needs.
// hasTotal is false when the payload carried no totalSpaces at all.
func validateParking(p db.ParkingConfig, hasTotal bool) error {
	var problems []string
	if strings.TrimSpace(p.Name) == "" {
		problems = append(problems, "name is required")
	}
	if strings.TrimSpace(p.Address) == "" {
		problems = append(problems, "address is required")
	}
	if !hasTotal {
		problems = append(problems, "totalSpaces is required")
	}
	problems = append(problems, capacityProblems(p)...)

	if len(problems) > 0 {
		return apperrors.Validation(strings.Join(problems, "; "))
	}
	return nil
}

// validateCapacity enforces availableSpaces <= totalSpaces and non-negative
// numbers. Values are never clamped.
func validateCapacity(p db.ParkingConfig) error {
	if problems := capacityProblems(p); len(problems) > 0 {
		return apperrors.Validation(strings.Join(problems, "; "))
	}
	return nil
}

func capacityProblems(p db.ParkingConfig) []string {
	var problems []string
	if p.TotalSpaces < 0 {
		problems = append(problems, "totalSpaces must be zero or more")
	}
	if p.AvailableSpaces < 0 {
		problems = append(problems, "availableSpaces must be zero or more")
	}
	if p.AvailableSpaces > p.TotalSpaces {
		problems = append(problems, "availableSpaces cannot exceed totalSpaces")
	}
	switch {
	case !entities.IsFinite(p.HourlyRate):
		problems = append(problems, "hourlyRate must be a finite number")
	case p.HourlyRate < 0:
		problems = append(problems, "hourlyRate must be zero or more")
	}
	return problems
}
