package dummydb

import (
	"context"

	"github.com/trezcool/tathmini/core/assessment"
)

type templateRepository struct {
	db *templateTable
}

var _ assessment.TemplateRepository = (*templateRepository)(nil) // interface compliance check

func NewTemplateRepository(db *DB) assessment.TemplateRepository {
	return &templateRepository{db: db.templates}
}

func (repo *templateRepository) CreateTemplate(ctx context.Context, tpl assessment.Template) (assessment.Template, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.table[tpl.ID] = &templateVersions{
		head:     tpl.Version,
		versions: map[int]*assessment.Template{tpl.Version: &tpl},
	}
	return tpl, nil
}

func (repo *templateRepository) GetTemplate(ctx context.Context, id string) (assessment.Template, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if vers, ok := repo.db.table[id]; ok {
		tpl := *vers.versions[vers.head]
		tpl.Archived = vers.archived
		return tpl, nil
	}
	return assessment.Template{}, assessment.ErrTemplateNotFound
}

func (repo *templateRepository) GetTemplateVersion(ctx context.Context, id string, version int) (assessment.Template, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if vers, ok := repo.db.table[id]; ok {
		if tpl, ok := vers.versions[version]; ok {
			cp := *tpl
			cp.Archived = vers.archived
			return cp, nil
		}
	}
	return assessment.Template{}, assessment.ErrTemplateNotFound
}

func (repo *templateRepository) QueryAllTemplates(ctx context.Context) ([]assessment.Template, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	tpls := make([]assessment.Template, 0, len(repo.db.table))
	for _, vers := range repo.db.table {
		tpl := *vers.versions[vers.head]
		tpl.Archived = vers.archived
		tpls = append(tpls, tpl)
	}
	return tpls, nil
}

func (repo *templateRepository) ReviseTemplate(ctx context.Context, tpl assessment.Template) (assessment.Template, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	vers, ok := repo.db.table[tpl.ID]
	if !ok {
		return assessment.Template{}, assessment.ErrTemplateNotFound
	}
	vers.versions[tpl.Version] = &tpl
	vers.head = tpl.Version
	return tpl, nil
}

func (repo *templateRepository) ArchiveTemplate(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	vers, ok := repo.db.table[id]
	if !ok {
		return assessment.ErrTemplateNotFound
	}
	vers.archived = true
	return nil
}
