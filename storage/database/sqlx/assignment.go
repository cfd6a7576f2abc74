package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/tathmini/core/assessment"
)

type assignmentRepository struct {
	db *sqlx.DB
}

var _ assessment.AssignmentRepository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(db *sqlx.DB) assessment.AssignmentRepository {
	return &assignmentRepository{db: db}
}

type assignmentRow struct {
	ID              string      `db:"id"`
	ScopeLevel      string      `db:"scope_level"`
	CourseID        string      `db:"course_id"`
	ModuleID        null.String `db:"module_id"`
	Timing          string      `db:"timing"`
	Active          bool        `db:"active"`
	Archived        bool        `db:"archived"`
	TemplateID      string      `db:"template_id"`
	TemplateVersion int         `db:"template_version"`
	CreatedAt       time.Time   `db:"created_at"`
}

func (row assignmentRow) toAssignment() assessment.Assignment {
	return assessment.Assignment{
		ID: row.ID,
		Scope: assessment.Scope{
			Level:    row.ScopeLevel,
			CourseID: row.CourseID,
			ModuleID: row.ModuleID.String,
		},
		Timing:          row.Timing,
		Active:          row.Active,
		Archived:        row.Archived,
		TemplateID:      row.TemplateID,
		TemplateVersion: row.TemplateVersion,
		CreatedAt:       row.CreatedAt.UTC(),
	}
}

const selectAssignmentQuery = `
SELECT id, scope_level, course_id, module_id, timing, active, archived, template_id, template_version, created_at
FROM assignments`

func (repo *assignmentRepository) CreateAssignment(ctx context.Context, asg assessment.Assignment) (assessment.Assignment, error) {
	moduleID := null.NewString(asg.Scope.ModuleID, asg.Scope.ModuleID != "")

	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO assignments
		 (id, scope_level, course_id, module_id, timing, active, archived, template_id, template_version, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7, $8, $9)`,
		asg.ID, asg.Scope.Level, asg.Scope.CourseID, moduleID, asg.Timing,
		asg.Active, asg.TemplateID, asg.TemplateVersion, asg.CreatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return assessment.Assignment{}, assessment.ErrDuplicateSlot
		}
		return assessment.Assignment{}, errors.Wrap(err, "inserting assignment")
	}
	return asg, nil
}

func (repo *assignmentRepository) GetAssignment(ctx context.Context, id string) (assessment.Assignment, error) {
	var row assignmentRow
	err := repo.db.GetContext(ctx, &row, selectAssignmentQuery+` WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return assessment.Assignment{}, assessment.ErrAssignmentNotFound
		}
		return assessment.Assignment{}, errors.Wrap(err, "getting assignment")
	}
	return row.toAssignment(), nil
}

func (repo *assignmentRepository) FindActiveAssignments(ctx context.Context, courseID, moduleID string) ([]assessment.Assignment, error) {
	var rows []assignmentRow
	err := repo.db.SelectContext(ctx, &rows,
		selectAssignmentQuery+`
		 WHERE active AND NOT archived AND course_id = $1
		   AND (scope_level = 'course' OR ($2 <> '' AND module_id = $2))`,
		courseID, moduleID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying active assignments")
	}

	asgs := make([]assessment.Assignment, 0, len(rows))
	for _, row := range rows {
		asgs = append(asgs, row.toAssignment())
	}
	return asgs, nil
}

func (repo *assignmentRepository) DeactivateAssignment(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `UPDATE assignments SET active = FALSE WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deactivating assignment")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return assessment.ErrAssignmentNotFound
	}
	return nil
}
