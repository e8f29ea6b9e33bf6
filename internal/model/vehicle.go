package model

// VehicleTypes are the accepted vehicle categories.
var VehicleTypes = []string{"Car", "Bike", "Van", "Truck", "SUV"}

// Vehicle is a customer-owned vehicle as returned by the workshop API.
type Vehicle struct {
	ID           string `json:"_id"`
	VehicleType  string `json:"vehicleType"`
	Brand        string `json:"brand"`
	Model        string `json:"model"`
	Year         int    `json:"year"`
	LicensePlate string `json:"licensePlate"`
	Color        string `json:"color"`
	Notes        string `json:"notes,omitempty"`
}

// DisplayName is the label sent with a booking, e.g. "Toyota Corolla (ABC-1234)".
func (v Vehicle) DisplayName() string {
	name := v.Brand
	if v.Model != "" {
		if name != "" {
			name += " "
		}
		name += v.Model
	}
	if name == "" {
		name = v.VehicleType
	}
	if v.LicensePlate != "" {
		name += " (" + v.LicensePlate + ")"
	}
	return name
}

// VehicleRequest is the body of a vehicle create call.
type VehicleRequest struct {
	VehicleType  string `json:"vehicleType"`
	Brand        string `json:"brand"`
	Model        string `json:"model"`
	Year         int    `json:"year"`
	LicensePlate string `json:"licensePlate"`
	Color        string `json:"color"`
	Notes        string `json:"notes,omitempty"`
}

// VehiclePatch is a partial vehicle update. Nil fields are left unchanged.
type VehiclePatch struct {
	VehicleType  *string `json:"vehicleType,omitempty"`
	Brand        *string `json:"brand,omitempty"`
	Model        *string `json:"model,omitempty"`
	Year         *int    `json:"year,omitempty"`
	LicensePlate *string `json:"licensePlate,omitempty"`
	Color        *string `json:"color,omitempty"`
	Notes        *string `json:"notes,omitempty"`
}

// Apply returns a copy of v with the non-nil fields of p applied.
func (p VehiclePatch) Apply(v Vehicle) Vehicle {
	if p.VehicleType != nil {
		v.VehicleType = *p.VehicleType
	}
	if p.Brand != nil {
		v.Brand = *p.Brand
	}
	if p.Model != nil {
		v.Model = *p.Model
	}
	if p.Year != nil {
		v.Year = *p.Year
	}
	if p.LicensePlate != nil {
		v.LicensePlate = *p.LicensePlate
	}
	if p.Color != nil {
		v.Color = *p.Color
	}
	if p.Notes != nil {
		v.Notes = *p.Notes
	}
	return v
}

// PatchFromRequest builds a full patch from a request.
func PatchFromRequest(r VehicleRequest) VehiclePatch {
	return VehiclePatch{
		VehicleType:  &r.VehicleType,
		Brand:        &r.Brand,
		Model:        &r.Model,
		Year:         &r.Year,
		LicensePlate: &r.LicensePlate,
		Color:        &r.Color,
		Notes:        &r.Notes,
	}
}
