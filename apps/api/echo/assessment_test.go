package echoapi

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/trezcool/tathmini/core/assessment"
	"github.com/trezcool/tathmini/tests"
)

func Test_assessmentApi_templates(t *testing.T) {
	app, _ := setup(t)

	staffToken := getToken(t, "staff1", true /* staff */)
	learnerToken := getToken(t, "learner1", false)

	newTpl := marchallObj(t, assessment.NewTemplate{
		Title:   "Onboarding Quiz",
		Purpose: assessment.PurposeQuiz,
		Questions: []assessment.NewQuestion{
			{
				Type:     assessment.QuestionSingle,
				Prompt:   "What is 2 + 2?",
				Required: true,
				Points:   10,
				Options:  []assessment.NewOption{{Label: "3"}, {Label: "4", Correct: true}},
			},
			{Type: assessment.QuestionText, Prompt: "Any feedback?"},
		},
	})

	tests := []httpTest{
		{
			name: "auth required", method: http.MethodGet, path: "/v1/templates",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "staff only", method: http.MethodGet, path: "/v1/templates", token: learnerToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "create: empty payload", method: http.MethodPost, path: "/v1/templates",
			body: []byte("{}"), token: staffToken,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"title":     "this field is required",
				"purpose":   "this field is required",
				"questions": "this field is required",
			}),
		},
		{
			name: "create: unknown purpose", method: http.MethodPost, path: "/v1/templates",
			body: marchallObj(t, assessment.NewTemplate{
				Title:     "Survey",
				Purpose:   "lol",
				Questions: []assessment.NewQuestion{{Type: assessment.QuestionText, Prompt: "?"}},
			}),
			token:    staffToken,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"purpose": "must be one of: survey, quiz, assessment"}),
		},
		{
			name: "retrieve: not found", method: http.MethodGet, path: "/v1/templates/lol", token: staffToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "questionnaire template not found"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	var tpl assessment.Template

	t.Run("create", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/templates", staffToken, newTpl)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		decodeObj(t, rec, &tpl)
		if tpl.Version != 1 {
			t.Errorf("version = %d, want 1", tpl.Version)
		}
		if len(tpl.Questions) != 2 {
			t.Fatalf("len(questions) = %d, want 2", len(tpl.Questions))
		}
		if q := tpl.Questions[0]; q.ID == "" || len(q.Options) != 2 || !q.Options[1].Correct {
			t.Errorf("question not built as declared: %+v", q)
		}
	})

	t.Run("revise bumps version", func(t *testing.T) {
		body := marchallObj(t, assessment.ReviseTemplate{
			Questions: []assessment.NewQuestion{{Type: assessment.QuestionText, Prompt: "Anything else?"}},
		})
		req, rec := newAuthRequest(http.MethodPut, "/v1/templates/"+tpl.ID, staffToken, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var revised assessment.Template
		decodeObj(t, rec, &revised)
		if revised.Version != 2 {
			t.Errorf("version = %d, want 2", revised.Version)
		}
	})

	t.Run("archive", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/templates/"+tpl.ID+"/archive", staffToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}

		// archived templates may no longer be revised
		body := marchallObj(t, assessment.ReviseTemplate{
			Questions: []assessment.NewQuestion{{Type: assessment.QuestionText, Prompt: "?"}},
		})
		req, rec = newAuthRequest(http.MethodPut, "/v1/templates/"+tpl.ID, staffToken, body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Error: "questionnaire template is archived"}),
		}, rec)
	})
}

func Test_assessmentApi_assignments(t *testing.T) {
	app, repos := setup(t)

	staffToken := getToken(t, "staff1", true /* staff */)
	learnerToken := getToken(t, "learner1", false)

	tpl := testutil.CreateTemplate(t, repos.tpl, "Module Quiz", assessment.PurposeQuiz)
	archived := testutil.CreateTemplate(t, repos.tpl, "Old Quiz", assessment.PurposeQuiz)
	if err := repos.tpl.ArchiveTemplate(context.Background(), archived.ID); err != nil {
		t.Fatalf("ArchiveTemplate() failed: %v", err)
	}

	newAsg := func(scopeLevel, moduleID, timing, tplID string) []byte {
		return marchallObj(t, assessment.NewAssignment{
			ScopeLevel: scopeLevel,
			CourseID:   "C",
			ModuleID:   moduleID,
			Timing:     timing,
			TemplateID: tplID,
			Active:     true,
		})
	}

	tests := []httpTest{
		{
			name: "create: staff only", method: http.MethodPost, path: "/v1/assignments", token: learnerToken,
			body:     newAsg(assessment.ScopeCourse, "", assessment.TimingPre, tpl.ID),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "create: module scope requires module id", method: http.MethodPost, path: "/v1/assignments", token: staffToken,
			body:     newAsg(assessment.ScopeModule, "", assessment.TimingPre, tpl.ID),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"module_id": "this field is required"}),
		},
		{
			name: "create: course scope rejects module id", method: http.MethodPost, path: "/v1/assignments", token: staffToken,
			body:     newAsg(assessment.ScopeCourse, "M", assessment.TimingPre, tpl.ID),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"module_id": "must be empty for course scope"}),
		},
		{
			name: "create: unknown timing", method: http.MethodPost, path: "/v1/assignments", token: staffToken,
			body:     newAsg(assessment.ScopeCourse, "", "mid", tpl.ID),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"timing": "must be one of: pre, post"}),
		},
		{
			name: "create: unknown template", method: http.MethodPost, path: "/v1/assignments", token: staffToken,
			body:     newAsg(assessment.ScopeCourse, "", assessment.TimingPre, "lol"),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "questionnaire template not found"}),
		},
		{
			name: "create: archived template", method: http.MethodPost, path: "/v1/assignments", token: staffToken,
			body:     newAsg(assessment.ScopeModule, "M", assessment.TimingPre, archived.ID),
			wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: "questionnaire template is archived"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	var asg assessment.Assignment

	t.Run("create freezes current version", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/assignments", staffToken,
			newAsg(assessment.ScopeModule, "M", assessment.TimingPre, tpl.ID))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		decodeObj(t, rec, &asg)
		if asg.TemplateVersion != tpl.Version {
			t.Errorf("questionnaire_version = %d, want %d", asg.TemplateVersion, tpl.Version)
		}
		if asg.Scope.Level != assessment.ScopeModule || asg.Scope.ModuleID != "M" {
			t.Errorf("scope = %+v, want module/M", asg.Scope)
		}
	})

	t.Run("deactivate", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/assignments/"+asg.ID+"/deactivate", staffToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}

		// deactivated assignments can no longer be started
		req, rec = newAuthRequest(http.MethodGet, "/v1/assignments/"+asg.ID+"/start", learnerToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Error: "assignment is inactive"}),
		}, rec)
	})
}

func Test_assessmentApi_submissions(t *testing.T) {
	app, repos := setup(t)

	learnerToken := getToken(t, "learner1", false)

	q := testutil.SingleQuestion("q1", 10, "b", "a", "b")
	q.Required = true
	tpl := testutil.CreateTemplate(t, repos.tpl, "Pre-module Quiz", assessment.PurposeQuiz, q)
	asg := testutil.CreateAssignment(t, repos.asg, testutil.ModuleScope("C", "M"), assessment.TimingPre, tpl, true)

	submitPath := fmt.Sprintf("/v1/assignments/%s/submissions", asg.ID)
	answers := marchallObj(t, assessment.NewSubmission{
		Answers: []assessment.Answer{{QuestionID: "q1", Choice: "b"}},
	})

	t.Run("start returns the frozen question set", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/assignments/"+asg.ID+"/start", learnerToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var data struct {
			Assignment    assessment.Assignment `json:"assignment"`
			Questionnaire assessment.Template   `json:"questionnaire"`
		}
		decodeObj(t, rec, &data)
		if data.Questionnaire.Version != asg.TemplateVersion {
			t.Errorf("questionnaire version = %d, want %d", data.Questionnaire.Version, asg.TemplateVersion)
		}
		if len(data.Questionnaire.Questions) != 1 {
			t.Errorf("len(questions) = %d, want 1", len(data.Questionnaire.Questions))
		}
	})

	tests := []httpTest{
		{
			name: "auth required", method: http.MethodPost, path: submitPath, body: answers,
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "no answers", method: http.MethodPost, path: submitPath, token: learnerToken,
			body:     []byte("{}"),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"answers": "this field is required"}),
		},
		{
			name: "required question unanswered", method: http.MethodPost, path: submitPath, token: learnerToken,
			body:     marchallObj(t, assessment.NewSubmission{Answers: []assessment.Answer{{QuestionID: "lol", Text: "hi"}}}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"q1": "an answer is required for this question"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("submit grades and records", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, submitPath, learnerToken, answers)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var sub assessment.Submission
		decodeObj(t, rec, &sub)
		if want := (assessment.Score{Earned: 10, Total: 10}); sub.Score != want {
			t.Errorf("score = %+v, want %+v", sub.Score, want)
		}
		if sub.LearnerID != "learner1" || sub.AssignmentID != asg.ID {
			t.Errorf("submission keyed %s/%s, want learner1/%s", sub.LearnerID, sub.AssignmentID, asg.ID)
		}
	})

	t.Run("resubmission is rejected", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, submitPath, learnerToken, answers)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Error: "a submission already exists for this assignment"}),
		}, rec)
	})

	t.Run("retrieve own submission", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, submitPath, learnerToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var sub assessment.Submission
		decodeObj(t, rec, &sub)
		if want := (assessment.Score{Earned: 10, Total: 10}); sub.Score != want {
			t.Errorf("score = %+v, want %+v", sub.Score, want)
		}
	})

	t.Run("other learners have no submission", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, submitPath, getToken(t, "learner2", false))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "submission not found"}),
		}, rec)
	})
}

func Test_assessmentApi_gate(t *testing.T) {
	app, repos := setup(t)

	learnerToken := getToken(t, "learner1", false)

	tpl := testutil.CreateTemplate(t, repos.tpl, "Check-in Survey", assessment.PurposeSurvey)
	preCourse := testutil.CreateAssignment(t, repos.asg, testutil.CourseScope("C"), assessment.TimingPre, tpl, true)
	preModule := testutil.CreateAssignment(t, repos.asg, testutil.ModuleScope("C", "M"), assessment.TimingPre, tpl, true)

	submit := func(t *testing.T, asgID string) {
		t.Helper()
		body := marchallObj(t, assessment.NewSubmission{
			Answers: []assessment.Answer{{QuestionID: "q1", Choice: "b"}},
		})
		req, rec := newAuthRequest(http.MethodPost, fmt.Sprintf("/v1/assignments/%s/submissions", asgID), learnerToken, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("submit failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
	}

	t.Run("resolve context", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/courses/C/assignments?module_id=M", learnerToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var resolved assessment.ResolvedAssignments
		decodeObj(t, rec, &resolved)
		if resolved.PreCourse == nil || resolved.PreCourse.ID != preCourse.ID {
			t.Error("pre_course slot not resolved")
		}
		if resolved.PreModule == nil || resolved.PreModule.ID != preModule.ID {
			t.Error("pre_module slot not resolved")
		}
	})

	t.Run("unknown action", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/courses/C/gate?action=lol", learnerToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "action must be one of: start, complete"}),
		}, rec)
	})

	gate := func(path string, want assessment.Decision) httpTest {
		return httpTest{
			name: path, method: http.MethodGet, path: path, token: learnerToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, want),
		}
	}
	run := func(t *testing.T, tt httpTest) {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	// pre-course questionnaire gates both the course and its modules
	run(t, gate("/v1/courses/C/gate?action=start", assessment.Decision{Reason: assessment.ReasonPreCourseRequired}))
	run(t, gate("/v1/courses/C/gate?action=start&module_id=M", assessment.Decision{Reason: assessment.ReasonPreCourseRequired}))

	submit(t, preCourse.ID)

	// the course opens; the module still awaits its own questionnaire
	run(t, gate("/v1/courses/C/gate?action=start", assessment.Decision{Allowed: true}))
	run(t, gate("/v1/courses/C/gate?action=start&module_id=M", assessment.Decision{Reason: assessment.ReasonPreModuleRequired}))

	submit(t, preModule.ID)

	run(t, gate("/v1/courses/C/gate?action=start&module_id=M", assessment.Decision{Allowed: true}))

	// completion is not gated: no post questionnaires are assigned
	run(t, gate("/v1/courses/C/gate?action=complete", assessment.Decision{Allowed: true}))
	run(t, gate("/v1/courses/C/gate?action=complete&module_id=M", assessment.Decision{Allowed: true}))
}
