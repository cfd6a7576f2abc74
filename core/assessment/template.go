package assessment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// errors
	ErrTemplateNotFound = errors.New("questionnaire template not found")
	ErrTemplateArchived = errors.New("questionnaire template is archived")
	// ErrVersionMismatch means a frozen template version referenced by an
	// assignment is missing from the store. It is always wrapped in a
	// core.IntegrityError before leaving this package.
	ErrVersionMismatch = errors.New("frozen questionnaire version missing from store")
)

type (
	// TemplateRepository persists templates as an append-only version log
	// plus a current-version pointer; superseded versions remain fetchable
	// for as long as any assignment may reference them.
	TemplateRepository interface {
		CreateTemplate(ctx context.Context, tpl Template) (Template, error)
		// GetTemplate returns the current version of the template.
		GetTemplate(ctx context.Context, id string) (Template, error)
		// GetTemplateVersion returns the exact version requested.
		GetTemplateVersion(ctx context.Context, id string, version int) (Template, error)
		QueryAllTemplates(ctx context.Context) ([]Template, error)
		// ReviseTemplate appends the new version row and moves the current
		// pointer; it never mutates prior versions.
		ReviseTemplate(ctx context.Context, tpl Template) (Template, error)
		ArchiveTemplate(ctx context.Context, id string) error
	}

	TemplateServiceInterface interface {
		Create(ctx context.Context, nt NewTemplate) (Template, error)
		Get(ctx context.Context, id string) (Template, error)
		QueryAll(ctx context.Context) ([]Template, error)
		Revise(ctx context.Context, id string, rt ReviseTemplate) (Template, error)
		Archive(ctx context.Context, id string) error
	}

	TemplateService struct {
		repo TemplateRepository
	}
)

var _ TemplateServiceInterface = (*TemplateService)(nil)

func NewTemplateService(repo TemplateRepository) *TemplateService {
	return &TemplateService{repo: repo}
}

// Create stores a new template at version 1.
func (svc *TemplateService) Create(ctx context.Context, nt NewTemplate) (Template, error) {
	now := time.Now().UTC()
	tpl := Template{
		ID:        uuid.New().String(),
		Title:     nt.Title,
		Purpose:   nt.Purpose,
		Version:   1,
		Questions: buildQuestions(nt.Questions),
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateTemplate(ctx, tpl)
}

func (svc *TemplateService) Get(ctx context.Context, id string) (Template, error) {
	return svc.repo.GetTemplate(ctx, id)
}

func (svc *TemplateService) QueryAll(ctx context.Context) ([]Template, error) {
	return svc.repo.QueryAllTemplates(ctx)
}

// Revise replaces the question set under a new, strictly greater version.
// The prior version stays fetchable so assignments frozen against it keep
// grading correctly.
func (svc *TemplateService) Revise(ctx context.Context, id string, rt ReviseTemplate) (Template, error) {
	tpl, err := svc.repo.GetTemplate(ctx, id)
	if err != nil {
		return Template{}, err
	}
	if tpl.Archived {
		return Template{}, ErrTemplateArchived
	}

	tpl.Version++
	tpl.Questions = buildQuestions(rt.Questions)
	tpl.UpdatedAt = time.Now().UTC()
	return svc.repo.ReviseTemplate(ctx, tpl)
}

// Archive marks the template archived. Archived templates may still be read
// (frozen assignments grade against them) but may not be assigned anymore.
func (svc *TemplateService) Archive(ctx context.Context, id string) error {
	if _, err := svc.repo.GetTemplate(ctx, id); err != nil {
		return err
	}
	return svc.repo.ArchiveTemplate(ctx, id)
}

func buildQuestions(nqs []NewQuestion) []Question {
	questions := make([]Question, 0, len(nqs))
	for _, nq := range nqs {
		q := Question{
			ID:       uuid.New().String(),
			Type:     nq.Type,
			Prompt:   nq.Prompt,
			Required: nq.Required,
			Points:   nq.Points,
		}
		switch nq.Type {
		case QuestionSingle, QuestionMulti:
			q.Options = make([]Option, 0, len(nq.Options))
			for _, no := range nq.Options {
				q.Options = append(q.Options, Option{
					ID:      uuid.New().String(),
					Label:   no.Label,
					Correct: no.Correct,
				})
			}
		case QuestionScale:
			q.Scale = nq.Scale
		}
		questions = append(questions, q)
	}
	return questions
}
