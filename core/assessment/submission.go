package assessment

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/tathmini/core"
)

var (
	// errors
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrAlreadySubmitted   = errors.New("a submission already exists for this assignment")

	errMissingAnswer = errors.New("an answer is required for this question")
)

type (
	// SubmissionRepository persists submissions and the gate flags they flip.
	SubmissionRepository interface {
		GetSubmission(ctx context.Context, learnerID, assignmentID string) (Submission, error)
		// CreateSubmission stores the submission and flips the gate flag
		// selected by the assignment's (scope, timing) in one atomic unit:
		// either both writes land or neither does. A submission already
		// existing for (LearnerID, AssignmentID) fails with
		// ErrAlreadySubmitted and writes nothing.
		CreateSubmission(ctx context.Context, sub Submission, asg Assignment) error
	}

	// GateRepository reads gate flag documents. Absent rows read as zero
	// values: gates are created implicitly on first submission.
	GateRepository interface {
		GetEnrollmentGate(ctx context.Context, learnerID, courseID string) (EnrollmentGate, error)
		GetProgressGate(ctx context.Context, learnerID, courseID, moduleID string) (ProgressGate, error)
	}

	SubmissionServiceInterface interface {
		Submit(ctx context.Context, learnerID, assignmentID string, ns NewSubmission) (Submission, error)
		Get(ctx context.Context, learnerID, assignmentID string) (Submission, error)
		StartQuestionnaire(ctx context.Context, assignmentID string) (Assignment, Template, error)
		CheckGate(ctx context.Context, learnerID, courseID, moduleID, action string) (Decision, error)
	}

	SubmissionService struct {
		assignments AssignmentServiceInterface
		repo        SubmissionRepository
		gates       GateRepository
		logger      core.Logger
	}
)

// Gate check actions
const (
	ActionStart    = "start"
	ActionComplete = "complete"
)

var errUnknownGateAction = errors.New("unknown gate action")

var _ SubmissionServiceInterface = (*SubmissionService)(nil)

func NewSubmissionService(
	assignments AssignmentServiceInterface,
	repo SubmissionRepository,
	gates GateRepository,
	logger core.Logger,
) *SubmissionService {
	return &SubmissionService{
		assignments: assignments,
		repo:        repo,
		gates:       gates,
		logger:      logger,
	}
}

// StartQuestionnaire returns the assignment and the frozen question set a
// learner must answer. Inactive or archived assignments are rejected.
func (svc *SubmissionService) StartQuestionnaire(ctx context.Context, assignmentID string) (Assignment, Template, error) {
	asg, tpl, err := svc.assignments.LoadFrozen(ctx, assignmentID)
	if err != nil {
		return Assignment{}, Template{}, err
	}
	if !asg.Active || asg.Archived {
		return Assignment{}, Template{}, ErrAssignmentInactive
	}
	return asg, tpl, nil
}

// Submit grades a learner's answers against the assignment's frozen template
// version and records the result.
//
// Resubmission policy: duplicates are rejected. A second call for the same
// (learnerID, assignmentID) fails with ErrAlreadySubmitted and leaves the
// stored submission and gate flags untouched.
func (svc *SubmissionService) Submit(ctx context.Context, learnerID, assignmentID string, ns NewSubmission) (Submission, error) {
	asg, tpl, err := svc.assignments.LoadFrozen(ctx, assignmentID)
	if err != nil {
		if core.IsIntegrity(err) {
			svc.logger.Error("frozen template version missing; possible store corruption", err)
		}
		return Submission{}, err
	}
	if !asg.Active || asg.Archived {
		return Submission{}, ErrAssignmentInactive
	}

	if err := validateRequired(tpl.Questions, ns.Answers); err != nil {
		return Submission{}, err
	}

	sub := Submission{
		LearnerID:    learnerID,
		AssignmentID: assignmentID,
		Answers:      ns.Answers,
		Score:        Grade(tpl.Questions, ns.Answers),
		SubmittedAt:  time.Now().UTC(),
	}
	if err := svc.repo.CreateSubmission(ctx, sub, asg); err != nil {
		if err == ErrAlreadySubmitted {
			return Submission{}, err
		}
		return Submission{}, errors.Wrap(err, "recording submission")
	}
	return sub, nil
}

func (svc *SubmissionService) Get(ctx context.Context, learnerID, assignmentID string) (Submission, error) {
	return svc.repo.GetSubmission(ctx, learnerID, assignmentID)
}

// CheckGate resolves the context's assignments and gate flags and dispatches
// to the pure evaluators. Reads are lock-free; flags are monotonic so a read
// racing a submission can only deny conservatively.
func (svc *SubmissionService) CheckGate(ctx context.Context, learnerID, courseID, moduleID, action string) (Decision, error) {
	resolved, err := svc.assignments.ResolveContext(ctx, courseID, moduleID)
	if err != nil {
		return Decision{}, err
	}

	enr, err := svc.gates.GetEnrollmentGate(ctx, learnerID, courseID)
	if err != nil {
		return Decision{}, errors.Wrap(err, "reading enrollment gate")
	}

	var prog ProgressGate
	if moduleID != "" {
		if prog, err = svc.gates.GetProgressGate(ctx, learnerID, courseID, moduleID); err != nil {
			return Decision{}, errors.Wrap(err, "reading progress gate")
		}
	}

	switch action {
	case ActionStart:
		if moduleID == "" {
			return CanStartCourse(enr, resolved), nil
		}
		return CanStartModule(enr, prog, resolved), nil
	case ActionComplete:
		if moduleID == "" {
			return CanCompleteCourse(enr, resolved), nil
		}
		return CanCompleteModule(prog, resolved), nil
	}
	return Decision{}, errUnknownGateAction
}

// validateRequired fails with a ValidationError listing every required
// question left unanswered. This is the only user-correctable error in the
// submit pipeline.
func validateRequired(questions []Question, answers []Answer) error {
	answered := make(map[string]bool, len(answers))
	for _, ans := range answers {
		if hasValue(ans) {
			answered[ans.QuestionID] = true
		}
	}

	var flds []core.FieldError
	for _, q := range questions {
		if q.Required && !answered[q.ID] {
			flds = append(flds, core.FieldError{Field: q.ID, Error: errMissingAnswer.Error()})
		}
	}
	if flds != nil {
		return core.NewValidationError(errMissingAnswer, flds...)
	}
	return nil
}

// hasValue reports whether the answer carries any value at all.
func hasValue(ans Answer) bool {
	return ans.Choice != "" || len(ans.Choices) > 0 || ans.Value != nil || ans.Text != ""
}
