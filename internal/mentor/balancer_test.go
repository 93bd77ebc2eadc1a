package mentor

import (
	"context"
	"fmt"
	"testing"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sahanabu/MentorAI-sub000/internal/shared"
)

// fakeStore is an in-memory Store for balancer tests.
type fakeStore struct {
	assignments map[string]*shared.MentorAssignment
	profiles    map[string]*shared.StudentAcademicProfile
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		assignments: make(map[string]*shared.MentorAssignment),
		profiles:    make(map[string]*shared.StudentAcademicProfile),
	}
}

func (s *fakeStore) Assignment(_ context.Context, mentorID string) (*shared.MentorAssignment, error) {
	a, ok := s.assignments[mentorID]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (s *fakeStore) SaveAssignment(_ context.Context, a *shared.MentorAssignment) error {
	cp := *a
	s.assignments[a.ID] = &cp
	return nil
}

func (s *fakeStore) SetStudentMentor(_ context.Context, studentID, mentorID string) error {
	p, ok := s.profiles[studentID]
	if !ok {
		return shared.Errorf(shared.CodeNotFound, "student %s not found", studentID)
	}
	p.MentorID = mentorID
	return nil
}

func (s *fakeStore) Profile(_ context.Context, studentID string) (*shared.StudentAcademicProfile, error) {
	p, ok := s.profiles[studentID]
	if !ok {
		return nil, shared.Errorf(shared.CodeNotFound, "student %s not found", studentID)
	}
	cp := *p
	return &cp, nil
}

func (s *fakeStore) Profiles(_ context.Context, ids []string) ([]shared.StudentAcademicProfile, error) {
	var out []shared.StudentAcademicProfile
	for _, id := range ids {
		if p, ok := s.profiles[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *fakeStore) UnassignedStudents(_ context.Context, department string, semester int) ([]shared.StudentAcademicProfile, error) {
	var out []shared.StudentAcademicProfile
	for _, p := range s.profiles {
		if p.Department != department || p.MentorID != "" || !p.IsActive || p.Graduated {
			continue
		}
		if semester != 0 && p.CurrentSemester != semester {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (s *fakeStore) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (s *fakeStore) addStudents(n int, entry shared.EntryType) {
	base := 1
	if entry == shared.EntryLateral {
		base = 401
	}
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("1CR21CS%03d", base+i)
		s.profiles[id] = &shared.StudentAcademicProfile{
			ID:              id,
			Department:      "CS",
			EntryType:       entry,
			CurrentSemester: 3,
			IsActive:        true,
		}
	}
}

func newBalancer(store Store) *Balancer {
	return NewBalancer(store, 20, shared.NewKeyedMutex(), log.NewNopLogger())
}

func TestAutoDistribute_Even(t *testing.T) {
	store := newFakeStore()
	store.addStudents(47, shared.EntryRegular)
	balancer := newBalancer(store)

	mentors := []string{"m1", "m2", "m3", "m4", "m5"}
	report, err := balancer.AutoDistribute(context.Background(), "CS", 0, mentors, 20)
	require.NoError(t, err)

	assert.Equal(t, 47, report.TotalStudents)
	assert.Equal(t, 47, report.Assigned)
	assert.Equal(t, 0, report.Unassigned)
	assert.Equal(t, 10, report.Limit) // ceil(47/5)

	// Chunks in mentor order: 10,10,10,10,7.
	require.Len(t, report.PerMentor, 5)
	assert.Equal(t, []int{10, 10, 10, 10, 7}, []int{
		report.PerMentor[0].Assigned, report.PerMentor[1].Assigned,
		report.PerMentor[2].Assigned, report.PerMentor[3].Assigned,
		report.PerMentor[4].Assigned,
	})

	// Profiles and rosters agree.
	for _, mentorID := range mentors {
		a := store.assignments[mentorID]
		require.NotNil(t, a)
		for _, studentID := range a.AssignedStudents {
			assert.Equal(t, mentorID, store.profiles[studentID].MentorID)
		}
	}
}

func TestAutoDistribute_CapacityShortfall(t *testing.T) {
	store := newFakeStore()
	store.addStudents(50, shared.EntryRegular)
	balancer := newBalancer(store)

	report, err := balancer.AutoDistribute(context.Background(), "CS", 0, []string{"m1", "m2"}, 20)
	require.NoError(t, err)

	assert.Equal(t, 20, report.Limit) // ceil(50/2)=25 capped at 20
	assert.Equal(t, 40, report.Assigned)
	assert.Equal(t, 10, report.Unassigned)
}

func TestAutoDistribute_EntryTypeSplit(t *testing.T) {
	store := newFakeStore()
	store.addStudents(6, shared.EntryRegular)
	store.addStudents(4, shared.EntryLateral)
	balancer := newBalancer(store)

	report, err := balancer.AutoDistribute(context.Background(), "CS", 0, []string{"m1"}, 20)
	require.NoError(t, err)
	require.Len(t, report.PerMentor, 1)
	assert.Equal(t, 6, report.PerMentor[0].Regular)
	assert.Equal(t, 4, report.PerMentor[0].Lateral)

	a := store.assignments["m1"]
	assert.Len(t, a.AssignedStudents, 10)
	assert.Len(t, a.RegularStudents, 6)
	assert.Len(t, a.LateralStudents, 4)
}

func TestAutoDistribute_ReleasesPreviousRoster(t *testing.T) {
	store := newFakeStore()
	store.addStudents(5, shared.EntryRegular)
	balancer := newBalancer(store)
	ctx := context.Background()

	_, err := balancer.Assign(ctx, "m1", []string{"1CR21CS001"})
	require.NoError(t, err)

	// 001 already has a mentor, so the cohort is 002-005 and the rebuilt
	// roster replaces 001's seat.
	report, err := balancer.AutoDistribute(ctx, "CS", 0, []string{"m1"}, 20)
	require.NoError(t, err)
	assert.Equal(t, 4, report.TotalStudents)
	assert.Equal(t, 4, report.Assigned)

	// The dropped student goes back to the unassigned pool on both sides.
	assert.Empty(t, store.profiles["1CR21CS001"].MentorID)
	assert.False(t, store.assignments["m1"].Holds("1CR21CS001"))

	// Both directions of the bookkeeping agree for everyone.
	for id, p := range store.profiles {
		if p.MentorID != "" {
			assert.True(t, store.assignments[p.MentorID].Holds(id), "profile %s points at a roster that does not hold it", id)
		}
	}
	for mentorID, a := range store.assignments {
		for _, id := range a.AssignedStudents {
			assert.Equal(t, mentorID, store.profiles[id].MentorID)
		}
	}

	// A follow-up run picks the released student up again.
	report, err = balancer.AutoDistribute(ctx, "CS", 0, []string{"m2"}, 20)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Assigned)
	assert.Equal(t, "m2", store.profiles["1CR21CS001"].MentorID)
}

func TestAutoDistribute_NoMentors(t *testing.T) {
	balancer := newBalancer(newFakeStore())
	_, err := balancer.AutoDistribute(context.Background(), "CS", 0, nil, 20)
	assert.True(t, shared.IsCode(err, shared.CodeNoMentorsAvailable))
}

func TestAssign(t *testing.T) {
	store := newFakeStore()
	store.addStudents(3, shared.EntryRegular)
	balancer := newBalancer(store)
	ctx := context.Background()

	a, err := balancer.Assign(ctx, "m1", []string{"1CR21CS001", "1CR21CS002"})
	require.NoError(t, err)
	assert.Len(t, a.AssignedStudents, 2)
	assert.Equal(t, "m1", store.profiles["1CR21CS001"].MentorID)

	// Set-union: re-adding an assigned student plus one new.
	a, err = balancer.Assign(ctx, "m1", []string{"1CR21CS002", "1CR21CS003"})
	require.NoError(t, err)
	assert.Len(t, a.AssignedStudents, 3)

	// Unknown student rejects the whole call.
	_, err = balancer.Assign(ctx, "m1", []string{"1CR21CS999"})
	assert.True(t, shared.IsCode(err, shared.CodeNotFound))

	// Empty input.
	_, err = balancer.Assign(ctx, "m1", nil)
	assert.True(t, shared.IsCode(err, shared.CodeValidation))
}

func TestAssign_CapacityEnforced(t *testing.T) {
	store := newFakeStore()
	store.addStudents(3, shared.EntryRegular)
	store.assignments["m1"] = &shared.MentorAssignment{
		ID: "m1", Department: "CS",
		AssignedStudents: []string{"x1", "x2"},
		MaxStudentCount:  3,
	}
	balancer := newBalancer(store)

	_, err := balancer.Assign(context.Background(), "m1", []string{"1CR21CS001", "1CR21CS002"})
	require.Error(t, err)
	assert.True(t, shared.IsCode(err, shared.CodeCapacity))

	// Roster unchanged after the rejection.
	assert.Len(t, store.assignments["m1"].AssignedStudents, 2)
}

func TestRemove(t *testing.T) {
	store := newFakeStore()
	store.addStudents(2, shared.EntryRegular)
	balancer := newBalancer(store)
	ctx := context.Background()

	_, err := balancer.Assign(ctx, "m1", []string{"1CR21CS001"})
	require.NoError(t, err)

	require.NoError(t, balancer.Remove(ctx, "1CR21CS001", "m1"))
	assert.Empty(t, store.assignments["m1"].AssignedStudents)
	assert.Empty(t, store.profiles["1CR21CS001"].MentorID)

	// No-op when not on the roster.
	require.NoError(t, balancer.Remove(ctx, "1CR21CS002", "m1"))
	require.NoError(t, balancer.Remove(ctx, "1CR21CS001", "missing-mentor"))
}

func TestReassign(t *testing.T) {
	store := newFakeStore()
	store.addStudents(1, shared.EntryRegular)
	balancer := newBalancer(store)
	ctx := context.Background()

	_, err := balancer.Assign(ctx, "m1", []string{"1CR21CS001"})
	require.NoError(t, err)

	require.NoError(t, balancer.Reassign(ctx, "1CR21CS001", "m2"))
	assert.Empty(t, store.assignments["m1"].AssignedStudents)
	assert.Equal(t, []string{"1CR21CS001"}, store.assignments["m2"].AssignedStudents)
	assert.Equal(t, "m2", store.profiles["1CR21CS001"].MentorID)

	// Already held: no-op.
	require.NoError(t, balancer.Reassign(ctx, "1CR21CS001", "m2"))
	assert.Len(t, store.assignments["m2"].AssignedStudents, 1)
}

func TestReassign_TargetAtCapacity(t *testing.T) {
	store := newFakeStore()
	store.addStudents(1, shared.EntryRegular)
	store.assignments["m2"] = &shared.MentorAssignment{
		ID: "m2", Department: "CS",
		AssignedStudents: []string{"x1"},
		MaxStudentCount:  1,
	}
	balancer := newBalancer(store)

	err := balancer.Reassign(context.Background(), "1CR21CS001", "m2")
	assert.True(t, shared.IsCode(err, shared.CodeCapacity))
}

func TestUpdateCapacity(t *testing.T) {
	store := newFakeStore()
	store.assignments["m1"] = &shared.MentorAssignment{
		ID: "m1", AssignedStudents: []string{"a", "b", "c"}, MaxStudentCount: 20,
	}
	balancer := newBalancer(store)
	ctx := context.Background()

	a, err := balancer.UpdateCapacity(ctx, "m1", 5)
	require.NoError(t, err)
	assert.Equal(t, 5, a.MaxStudentCount)

	_, err = balancer.UpdateCapacity(ctx, "m1", 2)
	assert.True(t, shared.IsCode(err, shared.CodeCapacity))

	_, err = balancer.UpdateCapacity(ctx, "m1", 0)
	assert.True(t, shared.IsCode(err, shared.CodeValidation))

	_, err = balancer.UpdateCapacity(ctx, "missing", 10)
	assert.True(t, shared.IsCode(err, shared.CodeNotFound))
}
