package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/zealousMW/hospital-management-system-sub000/internal/config"
	"github.com/zealousMW/hospital-management-system-sub000/internal/domain/department"
	"github.com/zealousMW/hospital-management-system-sub000/internal/domain/pharmacy"
	"github.com/zealousMW/hospital-management-system-sub000/internal/domain/ward"
	"github.com/zealousMW/hospital-management-system-sub000/internal/platform/apperr"
	"github.com/zealousMW/hospital-management-system-sub000/internal/platform/db"
	"github.com/zealousMW/hospital-management-system-sub000/internal/platform/telemetry"
)

type seedWard struct {
	name   string
	typ    ward.Type
	gender ward.GenderRestriction
	beds   int
}

type seedDepartment struct {
	name  string
	typ   department.Type
	wards []seedWard
}

var demoDepartments = []seedDepartment{
	{name: "General Medicine", typ: department.TypeGeneral, wards: []seedWard{
		{name: "Male General", typ: ward.TypeGeneral, gender: ward.RestrictMale, beds: 20},
		{name: "Female General", typ: ward.TypeGeneral, gender: ward.RestrictFemale, beds: 20},
	}},
	{name: "Paediatrics", typ: department.TypeSpecialty, wards: []seedWard{
		{name: "Children", typ: ward.TypeGeneral, gender: ward.RestrictMixed, beds: 12},
	}},
	{name: "Emergency", typ: department.TypeEmergency, wards: []seedWard{
		{name: "Casualty ICU", typ: ward.TypeICU, gender: ward.RestrictMixed, beds: 6},
	}},
	{name: "Radiology", typ: department.TypeDiagnostic},
}

var demoMedicines = []pharmacy.CreateMedicineRequest{
	{Name: "Paracetamol 500", Type: "tablet", DosageUnit: "tablet", StockQuantity: 50000},
	{Name: "Paracetamol Syrup", Type: "syrup", DosageUnit: "ml", StockQuantity: 20000},
	{Name: "Amoxicillin 250", Type: "capsule", DosageUnit: "capsule", StockQuantity: 10000},
	{Name: "ORS", Type: "powder", DosageUnit: "sachet", StockQuantity: 5000},
	{Name: "Ceftriaxone 1g", Type: "injection", DosageUnit: "vial", StockQuantity: 800},
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load demo departments, wards, beds and medicines",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(cmd.Context(), func(ctx context.Context, cfg *config.Config, pool db.Pool) error {
				svcs, err := newServices(cfg, pool, telemetry.NewProvider(), newLogger(cfg))
				if err != nil {
					return err
				}
				return seed(ctx, svcs, newLogger(cfg))
			})
		},
	}
}

// seed skips records that already exist, so it can be re-run.
func seed(ctx context.Context, svcs *services, logger zerolog.Logger) error {
	for _, sd := range demoDepartments {
		d := &department.Department{Name: sd.name, Type: sd.typ}
		if err := svcs.departments.Create(ctx, d); err != nil {
			if apperr.IsKind(err, apperr.KindConflict) {
				logger.Info().Str("department", sd.name).Msg("already seeded, skipping")
				continue
			}
			return fmt.Errorf("seed department %s: %w", sd.name, err)
		}
		for _, sw := range sd.wards {
			w := &ward.Ward{DepartmentID: d.ID, Name: sw.name, Type: sw.typ, GenderRestriction: sw.gender, BedCount: sw.beds}
			if err := svcs.wards.CreateWard(ctx, w); err != nil && !apperr.IsKind(err, apperr.KindConflict) {
				return fmt.Errorf("seed ward %s: %w", sw.name, err)
			}
		}
	}

	for _, req := range demoMedicines {
		if _, err := svcs.pharmacy.CreateMedicine(ctx, req); err != nil && !apperr.IsKind(err, apperr.KindConflict) {
			return fmt.Errorf("seed medicine %s: %w", req.Name, err)
		}
	}
	logger.Info().Int("departments", len(demoDepartments)).Int("medicines", len(demoMedicines)).Msg("seed complete")
	return nil
}
