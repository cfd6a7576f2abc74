package assessment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/tathmini/core"
)

var (
	// errors
	ErrAssignmentNotFound = errors.New("assignment not found")
	ErrAssignmentInactive = errors.New("assignment is inactive")
	ErrDuplicateSlot      = errors.New("multiple active assignments for one (scope, timing) slot")
)

type (
	AssignmentRepository interface {
		CreateAssignment(ctx context.Context, asg Assignment) (Assignment, error)
		GetAssignment(ctx context.Context, id string) (Assignment, error)
		// FindActiveAssignments returns all active, non-archived assignments
		// scoped to the course or to (course, module) when moduleID is set.
		FindActiveAssignments(ctx context.Context, courseID, moduleID string) ([]Assignment, error)
		DeactivateAssignment(ctx context.Context, id string) error
	}

	AssignmentServiceInterface interface {
		Create(ctx context.Context, na NewAssignment) (Assignment, error)
		Get(ctx context.Context, id string) (Assignment, error)
		ResolveContext(ctx context.Context, courseID, moduleID string) (ResolvedAssignments, error)
		LoadFrozen(ctx context.Context, assignmentID string) (Assignment, Template, error)
		Deactivate(ctx context.Context, id string) error
	}

	AssignmentService struct {
		repo      AssignmentRepository
		templates TemplateRepository
	}
)

var _ AssignmentServiceInterface = (*AssignmentService)(nil)

func NewAssignmentService(repo AssignmentRepository, templates TemplateRepository) *AssignmentService {
	return &AssignmentService{repo: repo, templates: templates}
}

// Create binds the template's current version to the (scope, timing) slot.
// The version is frozen on the assignment record and never updated afterwards.
func (svc *AssignmentService) Create(ctx context.Context, na NewAssignment) (Assignment, error) {
	tpl, err := svc.templates.GetTemplate(ctx, na.TemplateID)
	if err != nil {
		return Assignment{}, err
	}
	if !tpl.Assignable() {
		return Assignment{}, ErrTemplateArchived
	}

	// the store's unique index backs this check under races
	if na.Active {
		existing, err := svc.repo.FindActiveAssignments(ctx, na.CourseID, na.ModuleID)
		if err != nil {
			return Assignment{}, err
		}
		for _, other := range existing {
			if other.Scope.Level == na.ScopeLevel && other.Timing == na.Timing &&
				other.Scope.ModuleID == na.ModuleID {
				return Assignment{}, ErrDuplicateSlot
			}
		}
	}

	asg := Assignment{
		ID:              uuid.New().String(),
		Scope:           na.scope(),
		Timing:          na.Timing,
		Active:          na.Active,
		TemplateID:      tpl.ID,
		TemplateVersion: tpl.Version,
		CreatedAt:       time.Now().UTC(),
	}
	return svc.repo.CreateAssignment(ctx, asg)
}

func (svc *AssignmentService) Get(ctx context.Context, id string) (Assignment, error) {
	return svc.repo.GetAssignment(ctx, id)
}

// ResolveContext maps a (course, optional module) context to the active
// assignment per applicable slot. Module slots are omitted when moduleID is
// empty. A slot holding more than one active assignment is a data-integrity
// error; it is never silently reduced to one.
func (svc *AssignmentService) ResolveContext(ctx context.Context, courseID, moduleID string) (ResolvedAssignments, error) {
	asgs, err := svc.repo.FindActiveAssignments(ctx, courseID, moduleID)
	if err != nil {
		return ResolvedAssignments{}, err
	}

	var resolved ResolvedAssignments
	for i := range asgs {
		asg := asgs[i]
		slot, err := slotFor(&resolved, asg, moduleID)
		if err != nil {
			return ResolvedAssignments{}, err
		}
		if slot == nil {
			continue
		}
		if *slot != nil {
			return ResolvedAssignments{}, core.NewIntegrityError(
				fmt.Errorf("%w: scope=%s timing=%s course=%s", ErrDuplicateSlot, asg.Scope.Level, asg.Timing, courseID))
		}
		*slot = &asg
	}
	return resolved, nil
}

// slotFor selects the ResolvedAssignments field asg belongs to, or nil when
// the slot does not apply to the context.
func slotFor(resolved *ResolvedAssignments, asg Assignment, moduleID string) (**Assignment, error) {
	switch asg.Scope.Level {
	case ScopeCourse:
		switch asg.Timing {
		case TimingPre:
			return &resolved.PreCourse, nil
		case TimingPost:
			return &resolved.PostCourse, nil
		}
	case ScopeModule:
		if moduleID == "" || asg.Scope.ModuleID != moduleID {
			return nil, nil
		}
		switch asg.Timing {
		case TimingPre:
			return &resolved.PreModule, nil
		case TimingPost:
			return &resolved.PostModule, nil
		}
	}
	return nil, core.NewIntegrityError(
		fmt.Errorf("assignment %s: unknown scope/timing %q/%q", asg.ID, asg.Scope.Level, asg.Timing))
}

// LoadFrozen fetches the assignment and the exact template version it was
// frozen against. A missing frozen version is surfaced as a distinct
// integrity error, never as an ordinary not-found, so operators can detect
// store corruption.
func (svc *AssignmentService) LoadFrozen(ctx context.Context, assignmentID string) (Assignment, Template, error) {
	asg, err := svc.repo.GetAssignment(ctx, assignmentID)
	if err != nil {
		return Assignment{}, Template{}, err
	}

	tpl, err := svc.templates.GetTemplateVersion(ctx, asg.TemplateID, asg.TemplateVersion)
	if err != nil {
		if err == ErrTemplateNotFound {
			return Assignment{}, Template{}, core.NewIntegrityError(
				fmt.Errorf("%w: assignment=%s template=%s version=%d",
					ErrVersionMismatch, asg.ID, asg.TemplateID, asg.TemplateVersion))
		}
		return Assignment{}, Template{}, err
	}
	return asg, tpl, nil
}

func (svc *AssignmentService) Deactivate(ctx context.Context, id string) error {
	if _, err := svc.repo.GetAssignment(ctx, id); err != nil {
		return err
	}
	return svc.repo.DeactivateAssignment(ctx, id)
}
