package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/pkg/errors"

	"github.com/trezcool/tathmini/core/assessment"
)

type submissionRepository struct {
	db *sqlx.DB
}

var (
	_ assessment.SubmissionRepository = (*submissionRepository)(nil) // interface compliance check
	_ assessment.GateRepository       = (*submissionRepository)(nil)
)

func NewSubmissionRepository(db *sqlx.DB) *submissionRepository {
	return &submissionRepository{db: db}
}

type submissionRow struct {
	LearnerID    string         `db:"learner_id"`
	AssignmentID string         `db:"assignment_id"`
	Answers      types.JSONText `db:"answers"`
	Earned       int            `db:"earned"`
	Total        int            `db:"total"`
	SubmittedAt  time.Time      `db:"submitted_at"`
}

func (row submissionRow) toSubmission() (assessment.Submission, error) {
	sub := assessment.Submission{
		LearnerID:    row.LearnerID,
		AssignmentID: row.AssignmentID,
		Score:        assessment.Score{Earned: row.Earned, Total: row.Total},
		SubmittedAt:  row.SubmittedAt.UTC(),
	}
	if err := json.Unmarshal(row.Answers, &sub.Answers); err != nil {
		return assessment.Submission{}, errors.Wrap(err, "unmarshalling answers")
	}
	return sub, nil
}

func (repo *submissionRepository) GetSubmission(ctx context.Context, learnerID, assignmentID string) (assessment.Submission, error) {
	var row submissionRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT learner_id, assignment_id, answers, earned, total, submitted_at
		 FROM submissions WHERE learner_id = $1 AND assignment_id = $2`,
		learnerID, assignmentID,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return assessment.Submission{}, assessment.ErrSubmissionNotFound
		}
		return assessment.Submission{}, errors.Wrap(err, "getting submission")
	}
	return row.toSubmission()
}

// CreateSubmission runs the submission insert and the gate flag flip in one
// transaction scoped to the (learner, assignment) pair: either both writes
// land or neither does. The primary key on submissions makes concurrent or
// repeated submits deterministic: exactly one insert wins, the rest fail
// with ErrAlreadySubmitted and leave no side effect.
func (repo *submissionRepository) CreateSubmission(ctx context.Context, sub assessment.Submission, asg assessment.Assignment) error {
	answers, err := json.Marshal(sub.Answers)
	if err != nil {
		return errors.Wrap(err, "marshalling answers")
	}

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO submissions (learner_id, assignment_id, answers, earned, total, submitted_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (learner_id, assignment_id) DO NOTHING`,
		sub.LearnerID, sub.AssignmentID, types.JSONText(answers), sub.Score.Earned, sub.Score.Total, sub.SubmittedAt,
	)
	if err != nil {
		return errors.Wrap(err, "inserting submission")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return assessment.ErrAlreadySubmitted
	}

	if err = flipGate(ctx, tx, sub.LearnerID, asg); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "committing transaction")
	}
	return nil
}

// flipGate upserts the gate row for the assignment's scope, turning on the
// flag selected by its timing. Flags only ever go false -> true; the OR in
// the upsert keeps previously set flags set.
func flipGate(ctx context.Context, tx *sqlx.Tx, learnerID string, asg assessment.Assignment) error {
	switch asg.Scope.Level {
	case assessment.ScopeCourse:
		pre, post, err := timingFlags(asg.Timing)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO enrollment_gates (learner_id, course_id, pre_course_done, post_course_done)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (learner_id, course_id) DO UPDATE SET
			   pre_course_done = enrollment_gates.pre_course_done OR EXCLUDED.pre_course_done,
			   post_course_done = enrollment_gates.post_course_done OR EXCLUDED.post_course_done`,
			learnerID, asg.Scope.CourseID, pre, post,
		)
		return errors.Wrap(err, "flipping enrollment gate")
	case assessment.ScopeModule:
		pre, post, err := timingFlags(asg.Timing)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO progress_gates (learner_id, course_id, module_id, pre_module_done, post_module_done)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (learner_id, course_id, module_id) DO UPDATE SET
			   pre_module_done = progress_gates.pre_module_done OR EXCLUDED.pre_module_done,
			   post_module_done = progress_gates.post_module_done OR EXCLUDED.post_module_done`,
			learnerID, asg.Scope.CourseID, asg.Scope.ModuleID, pre, post,
		)
		return errors.Wrap(err, "flipping progress gate")
	}
	return fmt.Errorf("unknown scope level %q", asg.Scope.Level)
}

func timingFlags(timing string) (pre, post bool, err error) {
	switch timing {
	case assessment.TimingPre:
		return true, false, nil
	case assessment.TimingPost:
		return false, true, nil
	}
	return false, false, fmt.Errorf("unknown timing %q", timing)
}

func (repo *submissionRepository) GetEnrollmentGate(ctx context.Context, learnerID, courseID string) (assessment.EnrollmentGate, error) {
	gate := assessment.EnrollmentGate{LearnerID: learnerID, CourseID: courseID}
	err := repo.db.QueryRowContext(ctx,
		`SELECT pre_course_done, post_course_done FROM enrollment_gates
		 WHERE learner_id = $1 AND course_id = $2`,
		learnerID, courseID,
	).Scan(&gate.PreCourseDone, &gate.PostCourseDone)
	if err != nil && err != sql.ErrNoRows {
		return assessment.EnrollmentGate{}, errors.Wrap(err, "getting enrollment gate")
	}
	// absent row reads as all-false: gates are created implicitly
	return gate, nil
}

func (repo *submissionRepository) GetProgressGate(ctx context.Context, learnerID, courseID, moduleID string) (assessment.ProgressGate, error) {
	gate := assessment.ProgressGate{LearnerID: learnerID, CourseID: courseID, ModuleID: moduleID}
	err := repo.db.QueryRowContext(ctx,
		`SELECT pre_module_done, post_module_done FROM progress_gates
		 WHERE learner_id = $1 AND course_id = $2 AND module_id = $3`,
		learnerID, courseID, moduleID,
	).Scan(&gate.PreModuleDone, &gate.PostModuleDone)
	if err != nil && err != sql.ErrNoRows {
		return assessment.ProgressGate{}, errors.Wrap(err, "getting progress gate")
	}
	return gate, nil
}
