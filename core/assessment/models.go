package assessment

import (
	"time"

	"github.com/trezcool/tathmini/core"
)

// Template purposes
const (
	PurposeSurvey     = "survey"
	PurposeQuiz       = "quiz"
	PurposeAssessment = "assessment"
)

// Question types
const (
	QuestionSingle = "single"
	QuestionMulti  = "multi"
	QuestionScale  = "scale"
	QuestionText   = "text"
)

// Assignment timings
const (
	TimingPre  = "pre"
	TimingPost = "post"
)

// Assignment scope levels
const (
	ScopeCourse = "course"
	ScopeModule = "module"
)

type (
	// Option is a selectable choice on a single/multi question.
	Option struct {
		ID      string `json:"id"`
		Label   string `json:"label"`
		Correct bool   `json:"correct"`
	}

	// Bounds delimits a scale question.
	Bounds struct {
		Min int `json:"min"`
		Max int `json:"max"`
	}

	Question struct {
		ID       string   `json:"id"`
		Type     string   `json:"type"`
		Prompt   string   `json:"prompt"`
		Required bool     `json:"required"`
		Options  []Option `json:"options,omitempty"` // single/multi only
		Scale    *Bounds  `json:"scale,omitempty"`   // scale only
		Points   int      `json:"points,omitempty"`  // 0 = not scored
	}

	// Template is a versioned, reusable set of questions.
	// Question order is significant (display and grading indexing).
	Template struct {
		ID        string     `json:"id"`
		Title     string     `json:"title"`
		Purpose   string     `json:"purpose"`
		Version   int        `json:"version"`
		Archived  bool       `json:"archived"`
		Questions []Question `json:"questions"`
		CreatedAt time.Time  `json:"created_at"` // UTC
		UpdatedAt time.Time  `json:"updated_at"` // UTC
	}

	// Scope binds an assignment to a course or to a specific module of a course.
	// ModuleID is set if and only if Level == ScopeModule.
	Scope struct {
		Level    string `json:"level"`
		CourseID string `json:"course_id"`
		ModuleID string `json:"module_id,omitempty"`
	}

	// Assignment binds a frozen template version to a (scope, timing) slot.
	// TemplateVersion is captured at creation time and never updated, so
	// later template revisions cannot retroactively change an in-flight
	// assignment.
	Assignment struct {
		ID              string    `json:"id"`
		Scope           Scope     `json:"scope"`
		Timing          string    `json:"timing"`
		Active          bool      `json:"active"`
		Archived        bool      `json:"archived"`
		TemplateID      string    `json:"questionnaire_id"`
		TemplateVersion int       `json:"questionnaire_version"`
		CreatedAt       time.Time `json:"created_at"` // UTC
	}

	// Answer carries one submitted value; exactly one value field applies,
	// selected by the declared type of the question it answers.
	Answer struct {
		QuestionID string   `json:"question_id" validate:"required"`
		Choice     string   `json:"choice,omitempty"`  // single
		Choices    []string `json:"choices,omitempty"` // multi
		Value      *int     `json:"value,omitempty"`   // scale
		Text       string   `json:"text,omitempty"`    // text
	}

	Score struct {
		Earned int `json:"earned"`
		Total  int `json:"total"`
	}

	// Submission is a learner's graded answer set for one assignment.
	// At most one exists per (LearnerID, AssignmentID).
	Submission struct {
		LearnerID    string    `json:"learner_id"`
		AssignmentID string    `json:"assignment_id"`
		Answers      []Answer  `json:"answers"`
		Score        Score     `json:"score"`
		SubmittedAt  time.Time `json:"submitted_at"` // UTC
	}

	// EnrollmentGate tracks course-level completion flags for one learner.
	// Flags only ever transition false -> true.
	EnrollmentGate struct {
		LearnerID      string `json:"learner_id"`
		CourseID       string `json:"course_id"`
		PreCourseDone  bool   `json:"pre_course_complete"`
		PostCourseDone bool   `json:"post_course_complete"`
	}

	// ProgressGate tracks module-level completion flags for one learner.
	ProgressGate struct {
		LearnerID      string `json:"learner_id"`
		CourseID       string `json:"course_id"`
		ModuleID       string `json:"module_id"`
		PreModuleDone  bool   `json:"pre_module_complete"`
		PostModuleDone bool   `json:"post_module_complete"`
	}

	// ResolvedAssignments holds, per (scope, timing) slot applicable to a
	// context, the active non-archived assignment if any. Module slots are
	// nil when the context has no module.
	ResolvedAssignments struct {
		PreCourse  *Assignment `json:"pre_course,omitempty"`
		PostCourse *Assignment `json:"post_course,omitempty"`
		PreModule  *Assignment `json:"pre_module,omitempty"`
		PostModule *Assignment `json:"post_module,omitempty"`
	}
)

// IsScorable reports whether q contributes to a submission's total:
// it must declare points and, for choice types, at least one correct option.
func (q Question) IsScorable() bool {
	if q.Points <= 0 {
		return false
	}
	switch q.Type {
	case QuestionSingle, QuestionMulti:
		for _, opt := range q.Options {
			if opt.Correct {
				return true
			}
		}
		return false
	default: // scale/text carry no correctness under the current model
		return false
	}
}

// CorrectOptionIDs returns the set of option ids marked correct.
func (q Question) CorrectOptionIDs() map[string]bool {
	ids := make(map[string]bool, len(q.Options))
	for _, opt := range q.Options {
		if opt.Correct {
			ids[opt.ID] = true
		}
	}
	return ids
}

// Assignable reports whether new assignments may reference this template.
func (t Template) Assignable() bool {
	return !t.Archived
}

// NewQuestion contains information needed to add a Question to a template.
type NewQuestion struct {
	Type     string      `json:"type" validate:"required,qtype"`
	Prompt   string      `json:"prompt" validate:"required"`
	Required bool        `json:"required"`
	Options  []NewOption `json:"options" validate:"omitempty,dive"`
	Scale    *Bounds     `json:"scale"`
	Points   int         `json:"points" validate:"omitempty,min=0"`
}

type NewOption struct {
	Label   string `json:"label" validate:"required"`
	Correct bool   `json:"correct"`
}

// NewTemplate contains information needed to create a new Template.
type NewTemplate struct {
	Title     string        `json:"title" validate:"required"`
	Purpose   string        `json:"purpose" validate:"required,purpose"`
	Questions []NewQuestion `json:"questions" validate:"required,min=1,dive"`
}

func (nt *NewTemplate) Validate() error {
	nt.Title = core.CleanString(nt.Title)
	nt.Purpose = core.CleanString(nt.Purpose, true /* lower */)
	return core.Validate.Struct(nt)
}

// ReviseTemplate carries the replacement question set for a new version.
type ReviseTemplate struct {
	Questions []NewQuestion `json:"questions" validate:"required,min=1,dive"`
}

func (rt *ReviseTemplate) Validate() error {
	return core.Validate.Struct(rt)
}

// NewAssignment contains information needed to create a new Assignment.
// The referenced template's current version is frozen at creation time.
type NewAssignment struct {
	ScopeLevel string `json:"scope_level" validate:"required,scopelevel"`
	CourseID   string `json:"course_id" validate:"required"`
	ModuleID   string `json:"module_id"`
	Timing     string `json:"timing" validate:"required,timing"`
	TemplateID string `json:"questionnaire_id" validate:"required"`
	Active     bool   `json:"active"`
}

func (na *NewAssignment) Validate() error {
	na.ScopeLevel = core.CleanString(na.ScopeLevel, true /* lower */)
	na.Timing = core.CleanString(na.Timing, true /* lower */)
	na.CourseID = core.CleanString(na.CourseID)
	na.ModuleID = core.CleanString(na.ModuleID)

	if err := core.Validate.StructExcept(na, "ModuleID"); err != nil {
		return err
	}
	// ModuleID is required iff scope is module level
	if na.ScopeLevel == ScopeModule && na.ModuleID == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "module_id", Error: "this field is required"})
	}
	if na.ScopeLevel == ScopeCourse && na.ModuleID != "" {
		return core.NewValidationError(nil, core.FieldError{Field: "module_id", Error: "must be empty for course scope"})
	}
	return nil
}

func (na NewAssignment) scope() Scope {
	return Scope{Level: na.ScopeLevel, CourseID: na.CourseID, ModuleID: na.ModuleID}
}

// NewSubmission contains a learner's submitted answers for an assignment.
type NewSubmission struct {
	Answers []Answer `json:"answers" validate:"required,dive"`
}

func (ns *NewSubmission) Validate() error {
	return core.Validate.Struct(ns)
}
