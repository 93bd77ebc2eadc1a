// Package mentor distributes students across mentors under capacity
// constraints and keeps the dual bookkeeping between a student's mentor
// reference and the mentor's roster consistent.
//
// Every operation updates both sides (assignment.assigned_students and
// profile.mentor_id) inside one transaction, and operations touching the
// same student serialize, so a student always ends up in exactly one
// mentor's set.
package mentor

import (
	"context"
	"sort"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/Sahanabu/MentorAI-sub000/internal/shared"
)

// Store is the persistence boundary for the balancer. Assignment returns
// (nil, nil) when the mentor has no roster yet.
type Store interface {
	Assignment(ctx context.Context, mentorID string) (*shared.MentorAssignment, error)
	SaveAssignment(ctx context.Context, a *shared.MentorAssignment) error
	SetStudentMentor(ctx context.Context, studentID, mentorID string) error
	Profile(ctx context.Context, studentID string) (*shared.StudentAcademicProfile, error)
	Profiles(ctx context.Context, ids []string) ([]shared.StudentAcademicProfile, error)
	UnassignedStudents(ctx context.Context, department string, semester int) ([]shared.StudentAcademicProfile, error)
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Balancer implements mentor assignment operations.
type Balancer struct {
	store           Store
	defaultCapacity int
	locks           *shared.KeyedMutex
	logger          log.Logger
}

// NewBalancer creates a Balancer. defaultCapacity seeds max_student_count
// on rosters created by manual assignment.
func NewBalancer(store Store, defaultCapacity int, locks *shared.KeyedMutex, logger log.Logger) *Balancer {
	return &Balancer{store: store, defaultCapacity: defaultCapacity, locks: locks, logger: logger}
}

// ============================================================================
// Auto distribution
// ============================================================================

// MentorLoad is the per-mentor slice of a distribution report.
type MentorLoad struct {
	MentorID string `json:"mentor_id"`
	Assigned int    `json:"assigned"`
	Regular  int    `json:"regular"`
	Lateral  int    `json:"lateral"`
}

// DistributionReport summarizes an auto-distribute run. Unassigned is the
// capacity shortfall left over when mentors*limit < cohort size; it is
// reported, never silently dropped.
type DistributionReport struct {
	TotalStudents int          `json:"total_students"`
	Assigned      int          `json:"assigned"`
	Unassigned    int          `json:"unassigned"`
	Limit         int          `json:"limit_per_mentor"`
	PerMentor     []MentorLoad `json:"per_mentor"`
}

// AutoDistribute partitions the currently unassigned students of a
// department (optionally filtered by semester; 0 means all) into
// contiguous chunks, one per mentor in mentor-list order. The chunk size
// is min(ceil(cohort/mentors), maxPerMentor). Deterministic: the cohort is
// sorted by USN and mentors are taken in the order given. Replaces each
// mentor's roster, stamps mentor_id on every assigned student, and clears
// the reference on students dropped from the old roster, all in a single
// transaction.
func (b *Balancer) AutoDistribute(ctx context.Context, department string, semester int, mentorIDs []string, maxPerMentor int) (*DistributionReport, error) {
	if len(mentorIDs) == 0 {
		return nil, shared.Errorf(shared.CodeNoMentorsAvailable, "no mentors available in department %s", department)
	}
	if maxPerMentor <= 0 {
		maxPerMentor = b.defaultCapacity
	}

	cohort, err := b.store.UnassignedStudents(ctx, department, semester)
	if err != nil {
		return nil, err
	}
	sort.Slice(cohort, func(i, j int) bool { return cohort[i].ID < cohort[j].ID })

	target := (len(cohort) + len(mentorIDs) - 1) / len(mentorIDs) // ceil
	limit := target
	if limit > maxPerMentor {
		limit = maxPerMentor
	}

	report := &DistributionReport{
		TotalStudents: len(cohort),
		Limit:         limit,
		PerMentor:     make([]MentorLoad, 0, len(mentorIDs)),
	}

	err = b.store.InTransaction(ctx, func(ctx context.Context) error {
		for i, mentorID := range mentorIDs {
			start := i * limit
			if start > len(cohort) {
				start = len(cohort)
			}
			end := start + limit
			if end > len(cohort) {
				end = len(cohort)
			}
			chunk := cohort[start:end]

			assignment := &shared.MentorAssignment{
				ID:              mentorID,
				Department:      department,
				MaxStudentCount: maxPerMentor,
				UpdatedAt:       time.Now(),
			}
			newSet := make(map[string]struct{}, len(chunk))
			for _, student := range chunk {
				newSet[student.ID] = struct{}{}
				assignment.AssignedStudents = append(assignment.AssignedStudents, student.ID)
				if student.EntryType == shared.EntryLateral {
					assignment.LateralStudents = append(assignment.LateralStudents, student.ID)
				} else {
					assignment.RegularStudents = append(assignment.RegularStudents, student.ID)
				}
			}

			// Students on the old roster but not in the new chunk return to
			// the unassigned pool; their mentor reference must not keep
			// pointing here.
			previous, err := b.store.Assignment(ctx, mentorID)
			if err != nil {
				return err
			}
			if previous != nil {
				for _, studentID := range previous.AssignedStudents {
					if _, ok := newSet[studentID]; ok {
						continue
					}
					if err := b.store.SetStudentMentor(ctx, studentID, ""); err != nil {
						return err
					}
				}
			}

			if err := b.store.SaveAssignment(ctx, assignment); err != nil {
				return err
			}
			for _, student := range chunk {
				if err := b.store.SetStudentMentor(ctx, student.ID, mentorID); err != nil {
					return err
				}
			}

			report.Assigned += len(chunk)
			report.PerMentor = append(report.PerMentor, MentorLoad{
				MentorID: mentorID,
				Assigned: len(chunk),
				Regular:  len(assignment.RegularStudents),
				Lateral:  len(assignment.LateralStudents),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	report.Unassigned = report.TotalStudents - report.Assigned
	level.Info(b.logger).Log("msg", "auto-distribute complete", "department", department,
		"students", report.TotalStudents, "assigned", report.Assigned,
		"unassigned", report.Unassigned, "mentors", len(mentorIDs), "limit", limit)
	return report, nil
}

// ============================================================================
// Manual operations
// ============================================================================

// Assign adds students to a mentor's roster with set-union semantics, so
// re-adding an already-assigned student is idempotent. Capacity is
// enforced: if the union would exceed max_student_count the whole call is
// rejected. Creates the roster on first use.
func (b *Balancer) Assign(ctx context.Context, mentorID string, studentIDs []string) (*shared.MentorAssignment, error) {
	if len(studentIDs) == 0 {
		return nil, shared.Errorf(shared.CodeValidation, "no students given")
	}
	studentIDs = dedupe(studentIDs)

	// Lock in sorted order so overlapping Assign calls cannot deadlock.
	locked := append([]string(nil), studentIDs...)
	sort.Strings(locked)
	for _, id := range locked {
		b.locks.Lock(id)
	}
	defer func() {
		for _, id := range locked {
			b.locks.Unlock(id)
		}
	}()

	var out *shared.MentorAssignment
	err := b.store.InTransaction(ctx, func(ctx context.Context) error {
		profiles, err := b.store.Profiles(ctx, studentIDs)
		if err != nil {
			return err
		}
		if len(profiles) != len(studentIDs) {
			return shared.Errorf(shared.CodeNotFound, "one or more students not found (%d of %d)", len(profiles), len(studentIDs))
		}

		assignment, err := b.store.Assignment(ctx, mentorID)
		if err != nil {
			return err
		}
		if assignment == nil {
			assignment = &shared.MentorAssignment{
				ID:              mentorID,
				Department:      profiles[0].Department,
				MaxStudentCount: b.defaultCapacity,
			}
		}

		added := 0
		for _, p := range profiles {
			if !assignment.Holds(p.ID) {
				added++
			}
		}
		if len(assignment.AssignedStudents)+added > assignment.MaxStudentCount {
			return shared.Errorf(shared.CodeCapacity,
				"mentor %s would hold %d students, capacity is %d",
				mentorID, len(assignment.AssignedStudents)+added, assignment.MaxStudentCount)
		}

		for _, p := range profiles {
			if assignment.Holds(p.ID) {
				continue
			}
			assignment.AssignedStudents = append(assignment.AssignedStudents, p.ID)
			if p.EntryType == shared.EntryLateral {
				assignment.LateralStudents = append(assignment.LateralStudents, p.ID)
			} else {
				assignment.RegularStudents = append(assignment.RegularStudents, p.ID)
			}
		}
		assignment.UpdatedAt = time.Now()

		if err := b.store.SaveAssignment(ctx, assignment); err != nil {
			return err
		}
		for _, p := range profiles {
			if err := b.store.SetStudentMentor(ctx, p.ID, mentorID); err != nil {
				return err
			}
		}
		out = assignment
		return nil
	})
	if err != nil {
		return nil, err
	}

	level.Info(b.logger).Log("msg", "students assigned", "mentor", mentorID, "students", len(studentIDs))
	return out, nil
}

// Remove pulls a student from a mentor's roster and clears the student's
// mentor reference. A no-op, not an error, when the student is not
// actually on that mentor's roster.
func (b *Balancer) Remove(ctx context.Context, studentID, mentorID string) error {
	b.locks.Lock(studentID)
	defer b.locks.Unlock(studentID)

	return b.store.InTransaction(ctx, func(ctx context.Context) error {
		assignment, err := b.store.Assignment(ctx, mentorID)
		if err != nil {
			return err
		}
		if assignment == nil || !assignment.Holds(studentID) {
			return nil
		}

		assignment.AssignedStudents = without(assignment.AssignedStudents, studentID)
		assignment.RegularStudents = without(assignment.RegularStudents, studentID)
		assignment.LateralStudents = without(assignment.LateralStudents, studentID)
		assignment.UpdatedAt = time.Now()

		if err := b.store.SaveAssignment(ctx, assignment); err != nil {
			return err
		}
		return b.store.SetStudentMentor(ctx, studentID, "")
	})
}

// Reassign moves a student from their current mentor (if any) to a new
// one. Both halves apply together, and the new mentor's capacity is
// honored.
func (b *Balancer) Reassign(ctx context.Context, studentID, newMentorID string) error {
	b.locks.Lock(studentID)
	defer b.locks.Unlock(studentID)

	return b.store.InTransaction(ctx, func(ctx context.Context) error {
		profile, err := b.store.Profile(ctx, studentID)
		if err != nil {
			return err
		}

		target, err := b.store.Assignment(ctx, newMentorID)
		if err != nil {
			return err
		}
		if target == nil {
			target = &shared.MentorAssignment{
				ID:              newMentorID,
				Department:      profile.Department,
				MaxStudentCount: b.defaultCapacity,
			}
		}
		if target.Holds(studentID) {
			return nil
		}
		if len(target.AssignedStudents)+1 > target.MaxStudentCount {
			return shared.Errorf(shared.CodeCapacity,
				"mentor %s is at capacity (%d)", newMentorID, target.MaxStudentCount)
		}

		if profile.MentorID != "" && profile.MentorID != newMentorID {
			old, err := b.store.Assignment(ctx, profile.MentorID)
			if err != nil {
				return err
			}
			if old != nil && old.Holds(studentID) {
				old.AssignedStudents = without(old.AssignedStudents, studentID)
				old.RegularStudents = without(old.RegularStudents, studentID)
				old.LateralStudents = without(old.LateralStudents, studentID)
				old.UpdatedAt = time.Now()
				if err := b.store.SaveAssignment(ctx, old); err != nil {
					return err
				}
			}
		}

		target.AssignedStudents = append(target.AssignedStudents, studentID)
		if profile.EntryType == shared.EntryLateral {
			target.LateralStudents = append(target.LateralStudents, studentID)
		} else {
			target.RegularStudents = append(target.RegularStudents, studentID)
		}
		target.UpdatedAt = time.Now()

		if err := b.store.SaveAssignment(ctx, target); err != nil {
			return err
		}
		if err := b.store.SetStudentMentor(ctx, studentID, newMentorID); err != nil {
			return err
		}

		level.Info(b.logger).Log("msg", "student reassigned",
			"student", studentID, "from", profile.MentorID, "to", newMentorID)
		return nil
	})
}

// UpdateCapacity changes a mentor's capacity ceiling. Rejected when the
// new ceiling is below the current roster size.
func (b *Balancer) UpdateCapacity(ctx context.Context, mentorID string, newCapacity int) (*shared.MentorAssignment, error) {
	if newCapacity <= 0 {
		return nil, shared.Errorf(shared.CodeValidation, "capacity must be positive, got %d", newCapacity)
	}

	assignment, err := b.store.Assignment(ctx, mentorID)
	if err != nil {
		return nil, err
	}
	if assignment == nil {
		return nil, shared.Errorf(shared.CodeNotFound, "mentor %s has no assignment record", mentorID)
	}
	if newCapacity < len(assignment.AssignedStudents) {
		return nil, shared.Errorf(shared.CodeCapacity,
			"mentor %s already holds %d students, cannot lower capacity to %d",
			mentorID, len(assignment.AssignedStudents), newCapacity)
	}

	assignment.MaxStudentCount = newCapacity
	assignment.UpdatedAt = time.Now()
	if err := b.store.SaveAssignment(ctx, assignment); err != nil {
		return nil, err
	}
	return assignment, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func without(ids []string, remove string) []string {
	out := ids[:0]
	for _, id := range ids {
		if id != remove {
			out = append(out, id)
		}
	}
	return out
}
