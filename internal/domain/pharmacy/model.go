package pharmacy

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/zealousMW/hospital-management-system-sub000/internal/platform/apperr"
)

const dateLayout = "2006-01-02"

// Medicine is a catalog entry with its current stock. Version increases on
// every stock change.
type Medicine struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	DosageUnit string    `json:"dosage_unit"`
	Stock      Units     `json:"stock_quantity"`
	Version    int       `json:"version"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type CreateMedicineRequest struct {
	Name          string `json:"name"`
	Type          string `json:"type"`
	DosageUnit    string `json:"dosage_unit"`
	StockQuantity Units  `json:"stock_quantity"`
}

func (r *CreateMedicineRequest) Medicine() (*Medicine, error) {
	m := &Medicine{
		Name:       strings.TrimSpace(r.Name),
		Type:       strings.ToLower(strings.TrimSpace(r.Type)),
		DosageUnit: strings.ToLower(strings.TrimSpace(r.DosageUnit)),
		Stock:      r.StockQuantity,
	}
	var missing []string
	if m.Name == "" {
		missing = append(missing, "name")
	}
	if m.Type == "" {
		missing = append(missing, "type")
	}
	if m.DosageUnit == "" {
		missing = append(missing, "dosage_unit")
	}
	if len(missing) > 0 {
		return nil, apperr.Validation("missing required fields: %s", strings.Join(missing, ", "))
	}
	if m.Stock < 0 {
		return nil, apperr.Validation("stock_quantity must not be negative")
	}
	return m, nil
}

// SetStockRequest overwrites stock if Version still matches.
type SetStockRequest struct {
	MedicineID    int64  `json:"medicine_id"`
	StockQuantity *Units `json:"stock_quantity"`
	Version       int    `json:"version"`
}

func (r *SetStockRequest) Validate() error {
	if r.MedicineID <= 0 {
		return apperr.Validation("medicine_id is required")
	}
	if r.StockQuantity == nil {
		return apperr.Validation("stock_quantity is required")
	}
	if *r.StockQuantity < 0 {
		return apperr.Validation("stock_quantity must not be negative")
	}
	if r.Version <= 0 {
		return apperr.Validation("version is required")
	}
	return nil
}

type RestockRequest struct {
	Quantity Units `json:"quantity"`
}

// TargetKind says what a prescription line is written against.
type TargetKind string

const (
	TargetVisit TargetKind = "visit"
	TargetStay  TargetKind = "inpatient"
)

// Target is either an outpatient visit or an inpatient stay, never both.
// The zero Target is invalid.
type Target struct {
	kind TargetKind
	id   int64
}

func VisitTarget(visitID int64) Target { return Target{kind: TargetVisit, id: visitID} }
func StayTarget(stayID int64) Target   { return Target{kind: TargetStay, id: stayID} }

func (t Target) Kind() TargetKind { return t.kind }
func (t Target) ID() int64        { return t.id }

func (t Target) VisitID() (int64, bool) { return t.id, t.kind == TargetVisit }
func (t Target) StayID() (int64, bool)  { return t.id, t.kind == TargetStay }

func (t Target) String() string { return fmt.Sprintf("%s %d", t.kind, t.id) }

// NewTarget builds a Target from the two optional request ids. Exactly one
// must be set.
func NewTarget(visitID, stayID *int64) (Target, error) {
	switch {
	case visitID != nil && stayID != nil:
		return Target{}, apperr.Validation("give either visit_id or inpatient_id, not both")
	case visitID != nil:
		if *visitID <= 0 {
			return Target{}, apperr.Validation("invalid visit_id %d", *visitID)
		}
		return VisitTarget(*visitID), nil
	case stayID != nil:
		if *stayID <= 0 {
			return Target{}, apperr.Validation("invalid inpatient_id %d", *stayID)
		}
		return StayTarget(*stayID), nil
	default:
		return Target{}, apperr.Validation("one of visit_id or inpatient_id is required")
	}
}

type targetJSON struct {
	Kind TargetKind `json:"kind"`
	ID   int64      `json:"id"`
}

func (t Target) MarshalJSON() ([]byte, error) {
	return json.Marshal(targetJSON{Kind: t.kind, ID: t.id})
}

func (t *Target) UnmarshalJSON(data []byte) error {
	var v targetJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v.Kind != TargetVisit && v.Kind != TargetStay {
		return fmt.Errorf("unknown prescription target %q", v.Kind)
	}
	*t = Target{kind: v.Kind, id: v.ID}
	return nil
}

type DosageType string

const (
	DosageInternal DosageType = "internal"
	DosageExternal DosageType = "external"
)

// Timing is a morning-noon-night pattern such as "1-0-1", or "sos" for
// as-needed.
type Timing string

var validTimings = map[Timing]bool{
	"1-0-0": true, "0-1-0": true, "0-0-1": true,
	"1-1-0": true, "1-0-1": true, "0-1-1": true,
	"1-1-1": true, "sos": true,
}

// Line is one prescribed medicine.
type Line struct {
	ID               int64      `json:"id"`
	Target           Target     `json:"target"`
	MedicineID       int64      `json:"medicine_id"`
	Dosage           Units      `json:"dosage"`
	DosageUnit       string     `json:"dosage_unit"`
	DosageType       DosageType `json:"dosage_type"`
	DosageTiming     Timing     `json:"dosage_timing"`
	PrescriptionDate string     `json:"prescription_date"`
	IsReceived       bool       `json:"is_received"`
	Dispensed        Units      `json:"dispensed_quantity"`
	DispensedAt      *time.Time `json:"dispensed_at"`
	CreatedAt        time.Time  `json:"created_at"`
}

// Entry is a line joined with its patient and medicine.
type Entry struct {
	Line
	PatientID    int64  `json:"patient_id"`
	PatientName  string `json:"patient_name"`
	PatientAge   int    `json:"patient_age"`
	MedicineName string `json:"medicine_name"`
}

type AddLineRequest struct {
	MedicineID       int64  `json:"medicine_id"`
	Dosage           Units  `json:"dosage"`
	DosageUnit       string `json:"dosage_unit"`
	DosageType       string `json:"dosage_type"`
	DosageTiming     string `json:"dosage_timing"`
	PrescriptionDate string `json:"prescription_date"`
	VisitID          *int64 `json:"visit_id"`
	InpatientID      *int64 `json:"inpatient_id"`
}

// Line validates the request. An empty dosage unit is filled in later
// from the medicine.
func (r *AddLineRequest) Line() (*Line, error) {
	if r.MedicineID <= 0 {
		return nil, apperr.Validation("medicine_id is required")
	}
	target, err := NewTarget(r.VisitID, r.InpatientID)
	if err != nil {
		return nil, err
	}
	if r.Dosage <= 0 {
		return nil, apperr.Validation("dosage must be positive")
	}
	l := &Line{
		Target:       target,
		MedicineID:   r.MedicineID,
		Dosage:       r.Dosage,
		DosageUnit:   strings.ToLower(strings.TrimSpace(r.DosageUnit)),
		DosageType:   DosageType(strings.ToLower(strings.TrimSpace(r.DosageType))),
		DosageTiming: Timing(strings.ToLower(strings.TrimSpace(r.DosageTiming))),
	}
	if l.DosageType == "" {
		l.DosageType = DosageInternal
	}
	if l.DosageType != DosageInternal && l.DosageType != DosageExternal {
		return nil, apperr.Validation("dosage_type must be internal or external")
	}
	if !validTimings[l.DosageTiming] {
		return nil, apperr.Validation("invalid dosage_timing %q", r.DosageTiming)
	}
	d, err := time.Parse(dateLayout, strings.TrimSpace(r.PrescriptionDate))
	if err != nil {
		return nil, apperr.Validation("prescription_date must be YYYY-MM-DD, got %q", r.PrescriptionDate)
	}
	l.PrescriptionDate = d.Format(dateLayout)
	return l, nil
}

// DispenseResult reports one completed dispensation.
type DispenseResult struct {
	Line     *Line     `json:"prescription"`
	Medicine *Medicine `json:"medicine"`
	Consumed Units     `json:"consumed"`
}

// BatchResult is the outcome of one line in a batch.
type BatchResult struct {
	ID       int64       `json:"id"`
	OK       bool        `json:"ok"`
	Kind     apperr.Kind `json:"kind,omitempty"`
	Message  string      `json:"message,omitempty"`
	Consumed *Units      `json:"consumed,omitempty"`
}
