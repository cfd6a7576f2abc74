package dummydb

import (
	"sync"

	"github.com/trezcool/tathmini/core/assessment"
)

type (
	// DB is an in-memory stand-in for the document store, used by tests.
	DB struct {
		templates   *templateTable
		assignments *assignmentTable
		submissions *submissionTable
	}

	// templateVersions is the append-only version log for one template id;
	// head points at the current version.
	templateVersions struct {
		head     int
		archived bool
		versions map[int]*assessment.Template
	}

	templateTable struct {
		sync.RWMutex
		table map[string]*templateVersions
	}

	assignmentTable struct {
		sync.RWMutex
		table map[string]*assessment.Assignment
	}

	submissionKey struct {
		learnerID    string
		assignmentID string
	}

	enrollmentKey struct {
		learnerID string
		courseID  string
	}

	progressKey struct {
		learnerID string
		courseID  string
		moduleID  string
	}

	// submissionTable holds submissions and gate rows under one lock so the
	// submission insert and the flag flip stay atomic, as the real store's
	// transaction guarantees.
	submissionTable struct {
		sync.RWMutex
		table       map[submissionKey]*assessment.Submission
		enrollments map[enrollmentKey]*assessment.EnrollmentGate
		progresses  map[progressKey]*assessment.ProgressGate
	}
)

func Open() (*DB, error) {
	db := &DB{
		templates:   &templateTable{table: make(map[string]*templateVersions)},
		assignments: &assignmentTable{table: make(map[string]*assessment.Assignment)},
		submissions: &submissionTable{
			table:       make(map[submissionKey]*assessment.Submission),
			enrollments: make(map[enrollmentKey]*assessment.EnrollmentGate),
			progresses:  make(map[progressKey]*assessment.ProgressGate),
		},
	}
	return db, nil
}
