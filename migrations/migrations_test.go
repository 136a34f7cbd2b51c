package migrations

import (
	"strings"
	"testing"

	"github.com/zealousMW/hospital-management-system-sub000/internal/platform/db"
)

// statements returns every statement of the embedded migrations, in the
// order they are applied, with comments removed.
func statements(t *testing.T) []string {
	t.Helper()
	migs, err := db.NewMigrator(nil, FS).LoadMigrations()
	if err != nil {
		t.Fatalf("load migrations: %v", err)
	}
	for i, m := range migs {
		if m.Version != i+1 {
			t.Fatalf("migration %s has version %d, expected %d", m.Name, m.Version, i+1)
		}
	}

	var out []string
	for _, m := range migs {
		var b strings.Builder
		for _, line := range strings.Split(m.SQL, "\n") {
			if !strings.HasPrefix(strings.TrimSpace(line), "--") {
				b.WriteString(line)
				b.WriteString("\n")
			}
		}
		for _, stmt := range strings.Split(b.String(), ";") {
			if s := strings.Join(strings.Fields(stmt), " "); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func lastMatching(stmts []string, fragment string) string {
	found := ""
	for _, s := range stmts {
		if strings.Contains(s, fragment) {
			found = s
		}
	}
	return found
}

func TestPrescriptionForeignKeysDoNotCascade(t *testing.T) {
	stmts := statements(t)
	for _, name := range []string{"prescription_visit_id_fkey", "prescription_inpatient_id_fkey"} {
		def := lastMatching(stmts, "ADD CONSTRAINT "+name)
		if def == "" {
			t.Fatalf("no final definition of %s", name)
		}
		if strings.Contains(def, "CASCADE") {
			t.Errorf("%s still cascades: %s", name, def)
		}
	}
}

func TestOneActiveStayPerPatient(t *testing.T) {
	def := lastMatching(statements(t), "idx_inpatient_active_patient")
	if !strings.Contains(def, "CREATE UNIQUE INDEX") || !strings.Contains(def, "(patient_id) WHERE discharge_date IS NULL") {
		t.Fatalf("expected a partial unique index on active stays, got %q", def)
	}
}
