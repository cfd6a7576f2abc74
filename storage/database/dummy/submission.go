package dummydb

import (
	"context"
	"fmt"

	"github.com/trezcool/tathmini/core/assessment"
)

type submissionRepository struct {
	db *submissionTable
}

var (
	_ assessment.SubmissionRepository = (*submissionRepository)(nil) // interface compliance check
	_ assessment.GateRepository       = (*submissionRepository)(nil)
)

func NewSubmissionRepository(db *DB) *submissionRepository {
	return &submissionRepository{db: db.submissions}
}

func (repo *submissionRepository) GetSubmission(ctx context.Context, learnerID, assignmentID string) (assessment.Submission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if sub, ok := repo.db.table[submissionKey{learnerID, assignmentID}]; ok {
		return *sub, nil
	}
	return assessment.Submission{}, assessment.ErrSubmissionNotFound
}

// CreateSubmission inserts the submission and flips the matching gate flag
// under one lock, mirroring the single transaction the real store uses.
func (repo *submissionRepository) CreateSubmission(ctx context.Context, sub assessment.Submission, asg assessment.Assignment) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	key := submissionKey{sub.LearnerID, sub.AssignmentID}
	if _, exists := repo.db.table[key]; exists {
		return assessment.ErrAlreadySubmitted
	}

	if err := repo.flipGate(sub.LearnerID, asg); err != nil {
		return err
	}
	repo.db.table[key] = &sub
	return nil
}

func (repo *submissionRepository) flipGate(learnerID string, asg assessment.Assignment) error {
	switch asg.Scope.Level {
	case assessment.ScopeCourse:
		key := enrollmentKey{learnerID, asg.Scope.CourseID}
		gate, ok := repo.db.enrollments[key]
		if !ok {
			gate = &assessment.EnrollmentGate{LearnerID: learnerID, CourseID: asg.Scope.CourseID}
			repo.db.enrollments[key] = gate
		}
		switch asg.Timing {
		case assessment.TimingPre:
			gate.PreCourseDone = true
		case assessment.TimingPost:
			gate.PostCourseDone = true
		default:
			return fmt.Errorf("unknown timing %q", asg.Timing)
		}
	case assessment.ScopeModule:
		key := progressKey{learnerID, asg.Scope.CourseID, asg.Scope.ModuleID}
		gate, ok := repo.db.progresses[key]
		if !ok {
			gate = &assessment.ProgressGate{
				LearnerID: learnerID,
				CourseID:  asg.Scope.CourseID,
				ModuleID:  asg.Scope.ModuleID,
			}
			repo.db.progresses[key] = gate
		}
		switch asg.Timing {
		case assessment.TimingPre:
			gate.PreModuleDone = true
		case assessment.TimingPost:
			gate.PostModuleDone = true
		default:
			return fmt.Errorf("unknown timing %q", asg.Timing)
		}
	default:
		return fmt.Errorf("unknown scope level %q", asg.Scope.Level)
	}
	return nil
}

func (repo *submissionRepository) GetEnrollmentGate(ctx context.Context, learnerID, courseID string) (assessment.EnrollmentGate, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if gate, ok := repo.db.enrollments[enrollmentKey{learnerID, courseID}]; ok {
		return *gate, nil
	}
	// gates are created implicitly; absent reads as all-false
	return assessment.EnrollmentGate{LearnerID: learnerID, CourseID: courseID}, nil
}

func (repo *submissionRepository) GetProgressGate(ctx context.Context, learnerID, courseID, moduleID string) (assessment.ProgressGate, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if gate, ok := repo.db.progresses[progressKey{learnerID, courseID, moduleID}]; ok {
		return *gate, nil
	}
	return assessment.ProgressGate{LearnerID: learnerID, CourseID: courseID, ModuleID: moduleID}, nil
}
