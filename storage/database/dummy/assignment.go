package dummydb

import (
	"context"

	"github.com/trezcool/tathmini/core/assessment"
)

type assignmentRepository struct {
	db *assignmentTable
}

var _ assessment.AssignmentRepository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(db *DB) assessment.AssignmentRepository {
	return &assignmentRepository{db: db.assignments}
}

func (repo *assignmentRepository) CreateAssignment(ctx context.Context, asg assessment.Assignment) (assessment.Assignment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.table[asg.ID] = &asg
	return asg, nil
}

func (repo *assignmentRepository) GetAssignment(ctx context.Context, id string) (assessment.Assignment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if asg, ok := repo.db.table[id]; ok {
		return *asg, nil
	}
	return assessment.Assignment{}, assessment.ErrAssignmentNotFound
}

func (repo *assignmentRepository) FindActiveAssignments(ctx context.Context, courseID, moduleID string) ([]assessment.Assignment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var asgs []assessment.Assignment
	for _, asg := range repo.db.table {
		if !asg.Active || asg.Archived || asg.Scope.CourseID != courseID {
			continue
		}
		if asg.Scope.Level == assessment.ScopeModule && (moduleID == "" || asg.Scope.ModuleID != moduleID) {
			continue
		}
		asgs = append(asgs, *asg)
	}
	return asgs, nil
}

func (repo *assignmentRepository) DeactivateAssignment(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	asg, ok := repo.db.table[id]
	if !ok {
		return assessment.ErrAssignmentNotFound
	}
	asg.Active = false
	return nil
}
