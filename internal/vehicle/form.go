package vehicle

import (
	"fmt"
	"strings"
	"time"

	"autoservice-dashboard/internal/apperror"
	"autoservice-dashboard/internal/model"
)

const minYear = 1900

// Form is the add/edit vehicle form.
type Form struct {
	VehicleType  string `json:"vehicleType"`
	Brand        string `json:"brand"`
	Model        string `json:"model"`
	Year         int    `json:"year"`
	LicensePlate string `json:"licensePlate"`
	Color        string `json:"color"`
	Notes        string `json:"notes"`
}

// FormFrom pre-fills a form from v.
func FormFrom(v model.Vehicle) Form {
	return Form{
		VehicleType:  v.VehicleType,
		Brand:        v.Brand,
		Model:        v.Model,
		Year:         v.Year,
		LicensePlate: v.LicensePlate,
		Color:        v.Color,
		Notes:        v.Notes,
	}
}

// Validate checks the form against the accepted types and the year range [1900, now+1].
func (f Form) Validate(now time.Time) error {
	if !validType(f.VehicleType) {
		return apperror.NewValidation("vehicleType",
			fmt.Sprintf("Vehicle type must be one of %s", strings.Join(model.VehicleTypes, ", ")))
	}
	if strings.TrimSpace(f.Brand) == "" {
		return apperror.NewValidation("brand", "Brand is required")
	}
	if strings.TrimSpace(f.Model) == "" {
		return apperror.NewValidation("model", "Model is required")
	}
	if maxYear := now.Year() + 1; f.Year < minYear || f.Year > maxYear {
		return apperror.NewValidation("year", fmt.Sprintf("Year must be between %d and %d", minYear, maxYear))
	}
	if strings.TrimSpace(f.LicensePlate) == "" {
		return apperror.NewValidation("licensePlate", "License plate is required")
	}
	return nil
}

// Request converts the form into the wire request, trimming text fields.
func (f Form) Request() model.VehicleRequest {
	return model.VehicleRequest{
		VehicleType:  f.VehicleType,
		Brand:        strings.TrimSpace(f.Brand),
		Model:        strings.TrimSpace(f.Model),
		Year:         f.Year,
		LicensePlate: strings.ToUpper(strings.TrimSpace(f.LicensePlate)),
		Color:        strings.TrimSpace(f.Color),
		Notes:        strings.TrimSpace(f.Notes),
	}
}

func validType(t string) bool {
	for _, v := range model.VehicleTypes {
		if v == t {
			return true
		}
	}
	return false
}
