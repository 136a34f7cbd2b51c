package ward

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zealousMW/hospital-management-system-sub000/internal/platform/apperr"
)

// mockRepo guards all state with one mutex so MarkOccupied/MarkFree are
// atomic check-and-set operations, like the conditional UPDATE.
type mockRepo struct {
	mu      sync.Mutex
	wards   map[int64]*Ward
	beds    map[int64]*Bed
	held    map[int64]bool // beds referenced by an active inpatient stay
	nextBed int64
}

func newMockRepo() *mockRepo {
	return &mockRepo{wards: map[int64]*Ward{}, beds: map[int64]*Bed{}, held: map[int64]bool{}}
}

func (m *mockRepo) hold(bedID int64, held bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.held[bedID] = held
}

func (m *mockRepo) CreateWard(_ context.Context, w *Ward) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	w.ID = int64(len(m.wards) + 1)
	w.CreatedAt = time.Now()
	cp := *w
	m.wards[w.ID] = &cp
	return nil
}

func (m *mockRepo) CreateBeds(_ context.Context, wardID int64, first, count int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.wards[wardID]; !ok {
		return apperr.NotFound("ward not found")
	}
	for i := 0; i < count; i++ {
		m.nextBed++
		m.beds[m.nextBed] = &Bed{ID: m.nextBed, WardID: wardID, BedNumber: first + i}
	}
	return nil
}

// addBed seeds a bed with an explicit id.
func (m *mockRepo) addBed(b Bed) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.beds[b.ID] = &b
	if b.ID > m.nextBed {
		m.nextBed = b.ID
	}
}

func (m *mockRepo) GetWard(_ context.Context, id int64) (*Ward, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.wards[id]
	if !ok {
		return nil, apperr.NotFound("ward not found")
	}
	cp := *w
	return &cp, nil
}

func (m *mockRepo) ListWardsByDepartment(_ context.Context, departmentID int64) ([]*Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*Summary{}
	for _, w := range m.wards {
		if w.DepartmentID != departmentID {
			continue
		}
		s := &Summary{Ward: *w}
		for _, b := range m.beds {
			if b.WardID == w.ID {
				s.TotalBeds++
				if !b.IsOccupied {
					s.FreeBeds++
				}
			}
		}
		out = append(out, s)
	}
	return out, nil
}

func (m *mockRepo) GetBed(_ context.Context, id int64) (*Bed, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.beds[id]
	if !ok {
		return nil, apperr.NotFound("bed not found")
	}
	cp := *b
	return &cp, nil
}

func (m *mockRepo) ListBeds(_ context.Context, wardID int64, onlyFree bool) ([]*Bed, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*Bed{}
	for _, b := range m.beds {
		if b.WardID == wardID && (!onlyFree || !b.IsOccupied) {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BedNumber < out[j].BedNumber })
	return out, nil
}

func (m *mockRepo) MarkOccupied(_ context.Context, bedID, wardID int64) (*Bed, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.beds[bedID]
	if !ok || b.IsOccupied || (wardID != 0 && b.WardID != wardID) {
		return nil, false, nil
	}
	b.IsOccupied = true
	cp := *b
	return &cp, true, nil
}

func (m *mockRepo) MarkFree(_ context.Context, bedID int64) (*Bed, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.beds[bedID]
	if !ok || !b.IsOccupied || m.held[bedID] {
		return nil, false, nil
	}
	b.IsOccupied = false
	cp := *b
	return &cp, true, nil
}

type inlineTx struct{ calls int }

func (t *inlineTx) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	return fn(ctx)
}

type countingMetrics struct {
	mu     sync.Mutex
	counts map[string]int
}

func (c *countingMetrics) BedOperation(op, result string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts == nil {
		c.counts = map[string]int{}
	}
	c.counts[op+":"+result]++
}

func newTestService() (*Service, *mockRepo, *countingMetrics) {
	repo := newMockRepo()
	m := &countingMetrics{}
	return NewService(repo, &inlineTx{}, m, zerolog.Nop()), repo, m
}

// wardA seeds ward 1 with beds 101 (free) and 102 (occupied).
func wardA(repo *mockRepo) {
	repo.wards[1] = &Ward{ID: 1, DepartmentID: 1, Name: "A", Type: TypeGeneral, GenderRestriction: RestrictMixed, BedCount: 2}
	repo.addBed(Bed{ID: 101, WardID: 1, BedNumber: 1})
	repo.addBed(Bed{ID: 102, WardID: 1, BedNumber: 2, IsOccupied: true})
}

func TestListAvailableBeds_OnlyFree(t *testing.T) {
	svc, repo, _ := newTestService()
	wardA(repo)

	beds, err := svc.ListAvailableBeds(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, beds, 1)
	assert.Equal(t, int64(101), beds[0].ID)
	assert.False(t, beds[0].IsOccupied)

	all, err := svc.ListBeds(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestListAvailableBeds_RequiresWard(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.ListAvailableBeds(context.Background(), 0)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestReserve_WardAScenario(t *testing.T) {
	svc, repo, m := newTestService()
	wardA(repo)
	ctx := context.Background()

	bed, err := svc.Reserve(ctx, 101)
	require.NoError(t, err)
	assert.True(t, bed.IsOccupied)

	beds, err := svc.ListAvailableBeds(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, beds)

	_, err = svc.Reserve(ctx, 102)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))

	_, err = svc.Reserve(ctx, 999)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	assert.Equal(t, 1, m.counts["reserve:ok"])
	assert.Equal(t, 1, m.counts["reserve:conflict"])
	assert.Equal(t, 1, m.counts["reserve:not_found"])
}

func TestReserve_ConcurrentExactlyOneWinner(t *testing.T) {
	svc, repo, _ := newTestService()
	wardA(repo)

	const n = 64
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins, conflicts := 0, 0
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := svc.Reserve(context.Background(), 101)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case apperr.IsKind(err, apperr.KindConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, n-1, conflicts)
}

func TestReserveInWard_WrongWard(t *testing.T) {
	svc, repo, _ := newTestService()
	wardA(repo)
	repo.wards[2] = &Ward{ID: 2, DepartmentID: 1, Name: "B", Type: TypeICU}

	_, err := svc.ReserveInWard(context.Background(), 2, 101)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	b, _ := repo.GetBed(context.Background(), 101)
	assert.False(t, b.IsOccupied, "bed must stay free")

	_, err = svc.ReserveInWard(context.Background(), 1, 101)
	assert.NoError(t, err)
}

func TestRelease(t *testing.T) {
	svc, repo, _ := newTestService()
	wardA(repo)
	ctx := context.Background()

	bed, err := svc.Release(ctx, 102)
	require.NoError(t, err)
	assert.False(t, bed.IsOccupied)

	_, err = svc.Release(ctx, 102)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))

	_, err = svc.Release(ctx, 555)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	_, err = svc.Release(ctx, 0)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestRelease_RefusesBedOfActiveStay(t *testing.T) {
	svc, repo, metrics := newTestService()
	wardA(repo)
	repo.hold(102, true)
	ctx := context.Background()

	_, err := svc.Release(ctx, 102)
	require.True(t, apperr.IsKind(err, apperr.KindConflict))
	assert.Contains(t, apperr.From(err).Message, "active inpatient stay")
	bed, err := repo.GetBed(ctx, 102)
	require.NoError(t, err)
	assert.True(t, bed.IsOccupied)
	assert.Equal(t, 1, metrics.counts["release:conflict"])

	// once the stay lets go of the bed it can be released
	repo.hold(102, false)
	bed, err = svc.Release(ctx, 102)
	require.NoError(t, err)
	assert.False(t, bed.IsOccupied)
	assert.Equal(t, 1, metrics.counts["release:ok"])
}

func TestCreateWard_CreatesBeds(t *testing.T) {
	repo := newMockRepo()
	tx := &inlineTx{}
	svc := NewService(repo, tx, nil, zerolog.Nop())

	w := &Ward{DepartmentID: 3, Name: " Maternity ", Type: TypePrivate, GenderRestriction: RestrictFemale, BedCount: 4, FirstBedNumber: 201}
	require.NoError(t, svc.CreateWard(context.Background(), w))
	assert.Equal(t, 1, tx.calls)
	assert.Equal(t, "Maternity", w.Name)

	beds, err := svc.ListAvailableBeds(context.Background(), w.ID)
	require.NoError(t, err)
	require.Len(t, beds, 4)
	assert.Equal(t, 201, beds[0].BedNumber)
	assert.Equal(t, 204, beds[3].BedNumber)

	summaries, err := svc.ListWardsByDepartment(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, 4, summaries[0].FreeBeds)
}

func TestCreateWard_Validation(t *testing.T) {
	svc, _, _ := newTestService()
	cases := []*Ward{
		{Name: "A", Type: TypeGeneral, BedCount: 1},
		{DepartmentID: 1, Type: TypeGeneral},
		{DepartmentID: 1, Name: "A", Type: "suite"},
		{DepartmentID: 1, Name: "A", Type: TypeGeneral, GenderRestriction: "children"},
		{DepartmentID: 1, Name: "A", Type: TypeGeneral, BedCount: -1},
		{DepartmentID: 1, Name: "A", Type: TypeGeneral, BedCount: maxBedsPerWard + 1},
	}
	for _, w := range cases {
		err := svc.CreateWard(context.Background(), w)
		assert.True(t, apperr.IsKind(err, apperr.KindValidation), "%+v", w)
	}
}

func TestGenderRestriction_Admits(t *testing.T) {
	assert.True(t, RestrictMixed.Admits("male"))
	assert.True(t, RestrictFemale.Admits("female"))
	assert.False(t, RestrictFemale.Admits("male"))
	assert.True(t, RestrictMale.Admits("unspecified"))
	assert.True(t, RestrictMale.Admits("other"))
}
