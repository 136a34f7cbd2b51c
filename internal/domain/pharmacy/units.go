package pharmacy

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
)

// Units is a medicine quantity in hundredths of a dosage unit, so that a
// child's half dose is exact.
type Units int64

const unitScale = 100

// maxUnits keeps quantities well inside float64's exact integer range.
const maxUnits Units = 1 << 50

func UnitsFromFloat(f float64) (Units, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("quantity must be a finite number")
	}
	scaled := math.Round(f * unitScale)
	if math.Abs(f*unitScale-scaled) > 1e-6 {
		return 0, fmt.Errorf("quantity %v has more than two decimal places", f)
	}
	if math.Abs(scaled) > float64(maxUnits) {
		return 0, fmt.Errorf("quantity %v is out of range", f)
	}
	return Units(scaled), nil
}

func (u Units) Float() float64 { return float64(u) / unitScale }

func (u Units) String() string {
	return strconv.FormatFloat(u.Float(), 'f', -1, 64)
}

func (u Units) MarshalJSON() ([]byte, error) {
	return []byte(u.String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string.
func (u *Units) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) >= 2 && data[0] == '"' {
		data = data[1 : len(data)-1]
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("invalid quantity %s", data)
	}
	v, err := UnitsFromFloat(f)
	if err != nil {
		return err
	}
	*u = v
	return nil
}

// DosePolicy decides how much stock one dispensation consumes. Patients
// younger than ChildAgeThreshold consume Child units, everyone else Adult.
type DosePolicy struct {
	ChildAgeThreshold int
	Adult             Units
	Child             Units
}

func DefaultDosePolicy() DosePolicy {
	return DosePolicy{ChildAgeThreshold: 12, Adult: 100, Child: 50}
}

// NewDosePolicy builds a policy from unit amounts as configured.
func NewDosePolicy(childAgeThreshold int, adultUnits, childUnits float64) (DosePolicy, error) {
	adult, err := UnitsFromFloat(adultUnits)
	if err != nil {
		return DosePolicy{}, fmt.Errorf("adult dose: %w", err)
	}
	child, err := UnitsFromFloat(childUnits)
	if err != nil {
		return DosePolicy{}, fmt.Errorf("child dose: %w", err)
	}
	if adult <= 0 || child <= 0 {
		return DosePolicy{}, fmt.Errorf("dose units must be positive")
	}
	return DosePolicy{ChildAgeThreshold: childAgeThreshold, Adult: adult, Child: child}, nil
}

func (p DosePolicy) Consumption(age int) Units {
	if age < p.ChildAgeThreshold {
		return p.Child
	}
	return p.Adult
}
