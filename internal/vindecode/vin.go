package vindecode

import (
	"errors"
	"strings"
)

// ErrInvalidVIN is returned for VINs that fail the format check.
var ErrInvalidVIN = errors.New("invalid VIN")

// NormalizeVIN upper-cases and trims a VIN.
func NormalizeVIN(vin string) string {
	return strings.ToUpper(strings.TrimSpace(vin))
}

// ValidateVIN checks the 17-character format. I, O and Q never appear in a VIN.
// The check digit is not verified; vPIC reports it and pre-1981 VINs lack one.
func ValidateVIN(vin string) error {
	vin = NormalizeVIN(vin)
	if len(vin) != 17 {
		return ErrInvalidVIN
	}
	for _, r := range vin {
		switch {
		case r == 'I' || r == 'O' || r == 'Q':
			return ErrInvalidVIN
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		default:
			return ErrInvalidVIN
		}
	}
	return nil
}
