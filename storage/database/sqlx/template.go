package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/pkg/errors"

	"github.com/trezcool/tathmini/core/assessment"
)

type templateRepository struct {
	db *sqlx.DB
}

var _ assessment.TemplateRepository = (*templateRepository)(nil) // interface compliance check

func NewTemplateRepository(db *sqlx.DB) assessment.TemplateRepository {
	return &templateRepository{db: db}
}

type templateRow struct {
	ID        string         `db:"id"`
	Title     string         `db:"title"`
	Purpose   string         `db:"purpose"`
	Version   int            `db:"version"`
	Archived  bool           `db:"archived"`
	Questions types.JSONText `db:"questions"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

func (row templateRow) toTemplate() (assessment.Template, error) {
	tpl := assessment.Template{
		ID:        row.ID,
		Title:     row.Title,
		Purpose:   row.Purpose,
		Version:   row.Version,
		Archived:  row.Archived,
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}
	if err := json.Unmarshal(row.Questions, &tpl.Questions); err != nil {
		return assessment.Template{}, errors.Wrap(err, "unmarshalling questions")
	}
	return tpl, nil
}

const selectTemplateQuery = `
SELECT t.id, t.title, t.purpose, v.version, t.archived, v.questions, t.created_at, t.updated_at
FROM questionnaire_templates t
JOIN questionnaire_template_versions v ON v.template_id = t.id`

func (repo *templateRepository) CreateTemplate(ctx context.Context, tpl assessment.Template) (assessment.Template, error) {
	questions, err := json.Marshal(tpl.Questions)
	if err != nil {
		return assessment.Template{}, errors.Wrap(err, "marshalling questions")
	}

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return assessment.Template{}, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO questionnaire_templates (id, title, purpose, current_version, archived, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, FALSE, $5, $5)`,
		tpl.ID, tpl.Title, tpl.Purpose, tpl.Version, tpl.CreatedAt,
	); err != nil {
		return assessment.Template{}, errors.Wrap(err, "inserting template")
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO questionnaire_template_versions (template_id, version, questions, created_at)
		 VALUES ($1, $2, $3, $4)`,
		tpl.ID, tpl.Version, types.JSONText(questions), tpl.CreatedAt,
	); err != nil {
		return assessment.Template{}, errors.Wrap(err, "inserting template version")
	}

	if err = tx.Commit(); err != nil {
		return assessment.Template{}, errors.Wrap(err, "committing transaction")
	}
	return tpl, nil
}

func (repo *templateRepository) GetTemplate(ctx context.Context, id string) (assessment.Template, error) {
	var row templateRow
	err := repo.db.GetContext(ctx, &row, selectTemplateQuery+` AND v.version = t.current_version WHERE t.id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return assessment.Template{}, assessment.ErrTemplateNotFound
		}
		return assessment.Template{}, errors.Wrap(err, "getting template")
	}
	return row.toTemplate()
}

func (repo *templateRepository) GetTemplateVersion(ctx context.Context, id string, version int) (assessment.Template, error) {
	var row templateRow
	err := repo.db.GetContext(ctx, &row, selectTemplateQuery+` AND v.version = $2 WHERE t.id = $1`, id, version)
	if err != nil {
		if err == sql.ErrNoRows {
			return assessment.Template{}, assessment.ErrTemplateNotFound
		}
		return assessment.Template{}, errors.Wrap(err, "getting template version")
	}
	return row.toTemplate()
}

func (repo *templateRepository) QueryAllTemplates(ctx context.Context) ([]assessment.Template, error) {
	var rows []templateRow
	err := repo.db.SelectContext(ctx, &rows, selectTemplateQuery+` AND v.version = t.current_version ORDER BY t.created_at`)
	if err != nil {
		return nil, errors.Wrap(err, "querying templates")
	}

	tpls := make([]assessment.Template, 0, len(rows))
	for _, row := range rows {
		tpl, err := row.toTemplate()
		if err != nil {
			return nil, err
		}
		tpls = append(tpls, tpl)
	}
	return tpls, nil
}

func (repo *templateRepository) ReviseTemplate(ctx context.Context, tpl assessment.Template) (assessment.Template, error) {
	questions, err := json.Marshal(tpl.Questions)
	if err != nil {
		return assessment.Template{}, errors.Wrap(err, "marshalling questions")
	}

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return assessment.Template{}, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO questionnaire_template_versions (template_id, version, questions, created_at)
		 VALUES ($1, $2, $3, $4)`,
		tpl.ID, tpl.Version, types.JSONText(questions), tpl.UpdatedAt,
	); err != nil {
		return assessment.Template{}, errors.Wrap(err, "inserting template version")
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE questionnaire_templates SET current_version = $2, updated_at = $3 WHERE id = $1`,
		tpl.ID, tpl.Version, tpl.UpdatedAt,
	)
	if err != nil {
		return assessment.Template{}, errors.Wrap(err, "moving current version")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return assessment.Template{}, assessment.ErrTemplateNotFound
	}

	if err = tx.Commit(); err != nil {
		return assessment.Template{}, errors.Wrap(err, "committing transaction")
	}
	return tpl, nil
}

func (repo *templateRepository) ArchiveTemplate(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE questionnaire_templates SET archived = TRUE, updated_at = $2 WHERE id = $1`,
		id, time.Now().UTC(),
	)
	if err != nil {
		return errors.Wrap(err, "archiving template")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return assessment.ErrTemplateNotFound
	}
	return nil
}
