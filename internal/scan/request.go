package scan

import (
	"fmt"
	"strings"

	"bid-advisor/internal/engine"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Request is one vehicle to scan. Optional fields carry what the dealer
// knows about the specific car; the decoder cannot supply them.
type Request struct {
	VIN                string `json:"vin" validate:"required"`
	Mileage            *int   `json:"mileage,omitempty" validate:"omitempty,gte=0"`
	TitleStatus        string `json:"title_status,omitempty" validate:"omitempty,oneof=clean salvage rebuilt unknown"`
	OwnerCount         *int   `json:"owner_count,omitempty" validate:"omitempty,gte=0"`
	AccidentCount      *int   `json:"accident_count,omitempty" validate:"omitempty,gte=0"`
	ServiceRecordCount *int   `json:"service_record_count,omitempty" validate:"omitempty,gte=0"`
}

// Validate checks field ranges. VIN format is checked separately.
func (r Request) Validate() error {
	r.TitleStatus = strings.ToLower(strings.TrimSpace(r.TitleStatus))
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return nil
}

// apply overlays the dealer-supplied condition data onto the decoded vehicle.
func (r Request) apply(v engine.DecodedVehicle) engine.DecodedVehicle {
	if r.Mileage != nil {
		v.Mileage = copyInt(r.Mileage)
	}
	if strings.TrimSpace(r.TitleStatus) != "" {
		v.TitleStatus = engine.TitleStatus(r.TitleStatus)
	}
	v.TitleStatus = engine.ParseTitleStatus(string(v.TitleStatus))
	if r.OwnerCount != nil {
		v.OwnerCount = copyInt(r.OwnerCount)
	}
	if r.AccidentCount != nil {
		v.AccidentCount = copyInt(r.AccidentCount)
	}
	if r.ServiceRecordCount != nil {
		v.ServiceRecordCount = copyInt(r.ServiceRecordCount)
	}
	return v
}

func copyInt(p *int) *int {
	n := *p
	return &n
}
