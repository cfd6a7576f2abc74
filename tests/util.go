package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/tathmini/core/assessment"
)

// SingleQuestion builds a single-choice question with the given option ids;
// the option whose id equals correctID is marked correct.
func SingleQuestion(id string, points int, correctID string, optionIDs ...string) assessment.Question {
	q := assessment.Question{
		ID:     id,
		Type:   assessment.QuestionSingle,
		Prompt: "Pick one",
		Points: points,
	}
	for _, optID := range optionIDs {
		q.Options = append(q.Options, assessment.Option{ID: optID, Label: optID, Correct: optID == correctID})
	}
	return q
}

// MultiQuestion builds a multi-choice question; options whose ids appear in
// correctIDs are marked correct.
func MultiQuestion(id string, points int, correctIDs []string, optionIDs ...string) assessment.Question {
	correct := make(map[string]bool, len(correctIDs))
	for _, cid := range correctIDs {
		correct[cid] = true
	}
	q := assessment.Question{
		ID:     id,
		Type:   assessment.QuestionMulti,
		Prompt: "Pick all that apply",
		Points: points,
	}
	for _, optID := range optionIDs {
		q.Options = append(q.Options, assessment.Option{ID: optID, Label: optID, Correct: correct[optID]})
	}
	return q
}

func CreateTemplate(
	t *testing.T,
	repo assessment.TemplateRepository,
	title, purpose string,
	questions ...assessment.Question,
) assessment.Template {
	t.Helper()

	if questions == nil {
		questions = []assessment.Question{SingleQuestion("q1", 10, "b", "a", "b", "c")}
	}
	now := time.Now().UTC()
	tpl := assessment.Template{
		ID:        uuid.New().String(),
		Title:     title,
		Purpose:   purpose,
		Version:   1,
		Questions: questions,
		CreatedAt: now,
		UpdatedAt: now,
	}
	tpl, err := repo.CreateTemplate(context.Background(), tpl)
	if err != nil {
		t.Fatalf("CreateTemplate() failed: %v", err)
	}
	return tpl
}

func CreateAssignment(
	t *testing.T,
	repo assessment.AssignmentRepository,
	scope assessment.Scope,
	timing string,
	tpl assessment.Template,
	active bool,
) assessment.Assignment {
	t.Helper()

	asg := assessment.Assignment{
		ID:              uuid.New().String(),
		Scope:           scope,
		Timing:          timing,
		Active:          active,
		TemplateID:      tpl.ID,
		TemplateVersion: tpl.Version,
		CreatedAt:       time.Now().UTC(),
	}
	asg, err := repo.CreateAssignment(context.Background(), asg)
	if err != nil {
		t.Fatalf("CreateAssignment() failed: %v", err)
	}
	return asg
}

func CourseScope(courseID string) assessment.Scope {
	return assessment.Scope{Level: assessment.ScopeCourse, CourseID: courseID}
}

func ModuleScope(courseID, moduleID string) assessment.Scope {
	return assessment.Scope{Level: assessment.ScopeModule, CourseID: courseID, ModuleID: moduleID}
}
