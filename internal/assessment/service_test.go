package assessment

import (
	"context"
	"testing"
	"time"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sahanabu/MentorAI-sub000/internal/backlog"
	"github.com/Sahanabu/MentorAI-sub000/internal/grading"
	"github.com/Sahanabu/MentorAI-sub000/internal/shared"
)

// fakeStore is an in-memory Store for service tests.
type fakeStore struct {
	records  map[string]*shared.AssessmentRecord
	subjects map[string]*shared.SubjectRecord
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		records:  make(map[string]*shared.AssessmentRecord),
		subjects: make(map[string]*shared.SubjectRecord),
	}
}

func recKey(studentID, subjectCode string, semester int) string {
	return studentID + "|" + subjectCode + "|" + string(rune('0'+semester))
}

func (s *fakeStore) Find(_ context.Context, studentID, subjectCode string, semester int) (*shared.AssessmentRecord, error) {
	rec, ok := s.records[recKey(studentID, subjectCode, semester)]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (s *fakeStore) Save(_ context.Context, rec *shared.AssessmentRecord) error {
	cp := *rec
	s.records[recKey(rec.StudentID, rec.SubjectCode, rec.Semester)] = &cp
	return nil
}

func (s *fakeStore) Subject(_ context.Context, code string) (*shared.SubjectRecord, error) {
	subj, ok := s.subjects[code]
	if !ok {
		return nil, shared.Errorf(shared.CodeNotFound, "subject %s not found", code)
	}
	return subj, nil
}

// fakeOpener records backlog Open calls.
type fakeOpener struct {
	opened []string
}

func (o *fakeOpener) Open(_ context.Context, studentID, subjectCode string, _ int) error {
	o.opened = append(o.opened, studentID+"|"+subjectCode)
	return nil
}

// fakeBacklogStore is an in-memory backlog.Store for wiring a real
// Tracker behind the service.
type fakeBacklogStore struct {
	records map[string]*shared.BacklogRecord
	counts  map[string]int
}

func newFakeBacklogStore() *fakeBacklogStore {
	return &fakeBacklogStore{
		records: make(map[string]*shared.BacklogRecord),
		counts:  make(map[string]int),
	}
}

func (s *fakeBacklogStore) Find(_ context.Context, studentID, subjectCode string) (*shared.BacklogRecord, error) {
	rec, ok := s.records[studentID+"|"+subjectCode]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (s *fakeBacklogStore) ListByStudent(_ context.Context, studentID string, openOnly bool) ([]shared.BacklogRecord, error) {
	var out []shared.BacklogRecord
	for _, rec := range s.records {
		if rec.StudentID == studentID && (!openOnly || !rec.IsCleared) {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (s *fakeBacklogStore) Save(_ context.Context, rec *shared.BacklogRecord) error {
	cp := *rec
	s.records[rec.StudentID+"|"+rec.SubjectCode] = &cp
	return nil
}

func (s *fakeBacklogStore) FailedFinals(_ context.Context) ([]shared.AssessmentRecord, error) {
	return nil, nil
}

func (s *fakeBacklogStore) CountOpen(_ context.Context, studentID string) (int, error) {
	n := 0
	for _, rec := range s.records {
		if rec.StudentID == studentID && !rec.IsCleared {
			n++
		}
	}
	return n, nil
}

func (s *fakeBacklogStore) SetActiveBacklogCount(_ context.Context, studentID string, count int) error {
	s.counts[studentID] = count
	return nil
}

func (s *fakeBacklogStore) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func f(v float64) *float64 { return &v }
func i(v int) *int         { return &v }
func b(v bool) *bool       { return &v }

func newService(store *fakeStore, opener *fakeOpener) *Service {
	return NewService(store, opener, grading.DefaultScale(), shared.NewKeyedMutex(), log.NewNopLogger())
}

func seedSubject(store *fakeStore, code string) {
	store.subjects[code] = &shared.SubjectRecord{Code: code, Published: true}
}

func TestUpsertMarks_CreateAndDerive(t *testing.T) {
	store := newFakeStore()
	seedSubject(store, "CS301")
	svc := newService(store, &fakeOpener{})

	rec, err := svc.UpsertMarks(context.Background(), MarksInput{
		StudentID:   "1CR21CS042",
		SubjectCode: "CS301",
		Semester:    3,
		Internal1:   f(18),
		Internal2:   f(22),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, 8.0, rec.BehaviorScore) // default
	require.NotNil(t, rec.BestOfTwoInternal)
	assert.Equal(t, 20.0, *rec.BestOfTwoInternal)
	assert.Nil(t, rec.TotalMarks) // no final yet
	assert.Empty(t, rec.Grade)
}

func TestUpsertMarks_PartialUpdatesAccumulate(t *testing.T) {
	store := newFakeStore()
	seedSubject(store, "CS301")
	svc := newService(store, &fakeOpener{})
	ctx := context.Background()

	in := MarksInput{StudentID: "s", SubjectCode: "CS301", Semester: 3, Internal1: f(18), Internal2: f(22)}
	_, err := svc.UpsertMarks(ctx, in)
	require.NoError(t, err)

	_, err = svc.UpsertMarks(ctx, MarksInput{
		StudentID: "s", SubjectCode: "CS301", Semester: 3,
		AssignmentTotal: f(15), LabTotal: f(8),
		ClassesAttended: i(40), TotalClasses: i(45),
	})
	require.NoError(t, err)

	rec, err := svc.UpsertMarks(ctx, MarksInput{
		StudentID: "s", SubjectCode: "CS301", Semester: 3, FinalExam: f(80),
	})
	require.NoError(t, err)

	// Earlier partial inputs survived: 40 + 20 + 15 + 8 = 83.
	require.NotNil(t, rec.TotalMarks)
	assert.Equal(t, 83.0, *rec.TotalMarks)
	assert.Equal(t, "A", rec.Grade)
	assert.True(t, rec.IsPassed)
	assert.Equal(t, 89.0, rec.AttendancePercentage)
}

func TestUpsertMarks_FailedFinalOpensBacklog(t *testing.T) {
	store := newFakeStore()
	seedSubject(store, "CS301")
	opener := &fakeOpener{}
	svc := newService(store, opener)

	rec, err := svc.UpsertMarks(context.Background(), MarksInput{
		StudentID: "s", SubjectCode: "CS301", Semester: 3,
		Internal1: f(5), Internal2: f(8), FinalExam: f(30),
	})
	require.NoError(t, err)

	assert.Equal(t, shared.GradeF, rec.Grade)
	assert.False(t, rec.IsPassed)
	assert.Equal(t, []string{"s|CS301"}, opener.opened)
}

func TestUpsertMarks_FailedFinalWithSharedLockTracker(t *testing.T) {
	locks := shared.NewKeyedMutex()
	store := newFakeStore()
	seedSubject(store, "CS301")

	blStore := newFakeBacklogStore()
	tracker := backlog.NewTracker(blStore, grading.DefaultScale(), 40, locks, log.NewNopLogger())
	svc := NewService(store, tracker, grading.DefaultScale(), locks, log.NewNopLogger())

	// The service and the tracker serialize on the same per-student key;
	// a failing final must still complete and open the backlog.
	done := make(chan error, 1)
	go func() {
		_, err := svc.UpsertMarks(context.Background(), MarksInput{
			StudentID: "s", SubjectCode: "CS301", Semester: 3,
			Internal1: f(5), Internal2: f(8), FinalExam: f(30),
		})
		done <- err
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("marks entry hung on the per-student lock it shares with the backlog tracker")
	}

	rec, err := blStore.Find(context.Background(), "s", "CS301")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.False(t, rec.IsCleared)
	assert.Equal(t, 1, blStore.counts["s"])
}

func TestUpsertMarks_AbsentFinal(t *testing.T) {
	store := newFakeStore()
	seedSubject(store, "CS301")
	opener := &fakeOpener{}
	svc := newService(store, opener)
	ctx := context.Background()

	rec, err := svc.UpsertMarks(ctx, MarksInput{
		StudentID: "s", SubjectCode: "CS301", Semester: 3, FinalAbsent: b(true),
	})
	require.NoError(t, err)
	assert.True(t, rec.FinalAbsent)
	assert.Equal(t, shared.GradeAbsent, rec.Grade)
	assert.False(t, rec.IsPassed)
	assert.Nil(t, rec.TotalMarks)
	assert.Equal(t, []string{"s|CS301"}, opener.opened)

	// A later exam score supersedes the absence.
	rec, err = svc.UpsertMarks(ctx, MarksInput{
		StudentID: "s", SubjectCode: "CS301", Semester: 3,
		Internal1: f(18), Internal2: f(22), FinalExam: f(80),
	})
	require.NoError(t, err)
	assert.False(t, rec.FinalAbsent)
	// 80*0.5 + 20 + 0 + 0 = 60
	require.NotNil(t, rec.TotalMarks)
	assert.Equal(t, 60.0, *rec.TotalMarks)
	assert.True(t, rec.IsPassed)
}

func TestUpsertMarks_PassingFinalDoesNotOpenBacklog(t *testing.T) {
	store := newFakeStore()
	seedSubject(store, "CS301")
	opener := &fakeOpener{}
	svc := newService(store, opener)

	_, err := svc.UpsertMarks(context.Background(), MarksInput{
		StudentID: "s", SubjectCode: "CS301", Semester: 3,
		Internal1: f(20), Internal2: f(22), FinalExam: f(80),
	})
	require.NoError(t, err)
	assert.Empty(t, opener.opened)
}

func TestUpsertMarks_Validation(t *testing.T) {
	store := newFakeStore()
	seedSubject(store, "CS301")
	svc := newService(store, &fakeOpener{})
	ctx := context.Background()

	tests := []struct {
		name string
		in   MarksInput
	}{
		{"missing ids", MarksInput{Semester: 3}},
		{"semester out of range", MarksInput{StudentID: "s", SubjectCode: "CS301", Semester: 9}},
		{"internal above 25", MarksInput{StudentID: "s", SubjectCode: "CS301", Semester: 3, Internal1: f(26)}},
		{"negative internal", MarksInput{StudentID: "s", SubjectCode: "CS301", Semester: 3, Internal2: f(-1)}},
		{"assignment above 20", MarksInput{StudentID: "s", SubjectCode: "CS301", Semester: 3, AssignmentTotal: f(21)}},
		{"lab above 10", MarksInput{StudentID: "s", SubjectCode: "CS301", Semester: 3, LabTotal: f(11)}},
		{"behavior above 10", MarksInput{StudentID: "s", SubjectCode: "CS301", Semester: 3, BehaviorScore: f(10.5)}},
		{"final above 100", MarksInput{StudentID: "s", SubjectCode: "CS301", Semester: 3, FinalExam: f(101)}},
		{"attended above total", MarksInput{StudentID: "s", SubjectCode: "CS301", Semester: 3, ClassesAttended: i(46), TotalClasses: i(45)}},
		{"score with absence", MarksInput{StudentID: "s", SubjectCode: "CS301", Semester: 3, FinalExam: f(50), FinalAbsent: b(true)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UpsertMarks(ctx, tt.in)
			require.Error(t, err)
			assert.True(t, shared.IsCode(err, shared.CodeValidation))
		})
	}

	t.Run("unknown subject", func(t *testing.T) {
		_, err := svc.UpsertMarks(ctx, MarksInput{StudentID: "s", SubjectCode: "CS999", Semester: 3})
		assert.True(t, shared.IsCode(err, shared.CodeNotFound))
	})

	t.Run("final without two internals", func(t *testing.T) {
		_, err := svc.UpsertMarks(ctx, MarksInput{
			StudentID: "s2", SubjectCode: "CS301", Semester: 3,
			Internal1: f(20), FinalExam: f(75),
		})
		assert.True(t, shared.IsCode(err, shared.CodeValidation))
	})
}

func TestGet(t *testing.T) {
	store := newFakeStore()
	seedSubject(store, "CS301")
	svc := newService(store, &fakeOpener{})
	ctx := context.Background()

	_, err := svc.Get(ctx, "s", "CS301", 3)
	assert.True(t, shared.IsCode(err, shared.CodeNotFound))

	_, err = svc.UpsertMarks(ctx, MarksInput{StudentID: "s", SubjectCode: "CS301", Semester: 3, Internal1: f(10)})
	require.NoError(t, err)

	rec, err := svc.Get(ctx, "s", "CS301", 3)
	require.NoError(t, err)
	assert.Equal(t, "CS301", rec.SubjectCode)
}
