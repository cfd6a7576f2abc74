package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/tathmini/core/assessment"
)

type assessmentApi struct {
	templateSvc   assessment.TemplateServiceInterface
	assignmentSvc assessment.AssignmentServiceInterface
	submissionSvc assessment.SubmissionServiceInterface
}

func registerAssessmentAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	templateSvc assessment.TemplateServiceInterface,
	assignmentSvc assessment.AssignmentServiceInterface,
	submissionSvc assessment.SubmissionServiceInterface,
) {
	api := assessmentApi{
		templateSvc:   templateSvc,
		assignmentSvc: assignmentSvc,
		submissionSvc: submissionSvc,
	}

	// authoring endpoints (staff tokens only)
	tg := g.Group("/templates", jwt, staffMiddleware())
	tg.POST("", api.templateCreate)
	tg.GET("", api.templateQuery)
	tg.GET("/:id", api.templateRetrieve)
	tg.PUT("/:id", api.templateRevise)
	tg.POST("/:id/archive", api.templateArchive)

	ag := g.Group("/assignments", jwt)
	ag.POST("", api.assignmentCreate, staffMiddleware())
	ag.POST("/:id/deactivate", api.assignmentDeactivate, staffMiddleware())

	// learner endpoints
	ag.GET("/:id/start", api.startQuestionnaire)
	ag.POST("/:id/submissions", api.submit)
	ag.GET("/:id/submissions", api.submissionRetrieve)

	cg := g.Group("/courses/:courseId", jwt)
	cg.GET("/assignments", api.resolveContext)
	cg.GET("/gate", api.checkGate)
}

// Handlers

func (api *assessmentApi) templateCreate(ctx echo.Context) error {
	var data assessment.NewTemplate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTemplate")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	tpl, err := api.templateSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating template")
	}
	return ctx.JSON(http.StatusCreated, tpl)
}

func (api *assessmentApi) templateQuery(ctx echo.Context) error {
	tpls, err := api.templateSvc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying templates")
	}
	return ctx.JSON(http.StatusOK, tpls)
}

func (api *assessmentApi) templateRetrieve(ctx echo.Context) error {
	tpl, err := api.templateSvc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, tpl)
}

func (api *assessmentApi) templateRevise(ctx echo.Context) error {
	var data assessment.ReviseTemplate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ReviseTemplate")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	tpl, err := api.templateSvc.Revise(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, tpl)
}

func (api *assessmentApi) templateArchive(ctx echo.Context) error {
	if err := api.templateSvc.Archive(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *assessmentApi) assignmentCreate(ctx echo.Context) error {
	var data assessment.NewAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	asg, err := api.assignmentSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, asg)
}

func (api *assessmentApi) assignmentDeactivate(ctx echo.Context) error {
	if err := api.assignmentSvc.Deactivate(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// startQuestionnaire returns the assignment and the frozen question set the
// learner must answer.
func (api *assessmentApi) startQuestionnaire(ctx echo.Context) error {
	asg, tpl, err := api.submissionSvc.StartQuestionnaire(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"assignment": asg, "questionnaire": tpl})
}

func (api *assessmentApi) submit(ctx echo.Context) error {
	learnerID, err := getContextLearnerID(ctx)
	if err != nil {
		return err
	}

	var data assessment.NewSubmission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubmission")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	sub, err := api.submissionSvc.Submit(ctx.Request().Context(), learnerID, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *assessmentApi) submissionRetrieve(ctx echo.Context) error {
	learnerID, err := getContextLearnerID(ctx)
	if err != nil {
		return err
	}

	sub, err := api.submissionSvc.Get(ctx.Request().Context(), learnerID, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *assessmentApi) resolveContext(ctx echo.Context) error {
	resolved, err := api.assignmentSvc.ResolveContext(
		ctx.Request().Context(), ctx.Param("courseId"), ctx.QueryParam("module_id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, resolved)
}

func (api *assessmentApi) checkGate(ctx echo.Context) error {
	learnerID, err := getContextLearnerID(ctx)
	if err != nil {
		return err
	}

	action := ctx.QueryParam("action")
	if action != assessment.ActionStart && action != assessment.ActionComplete {
		return echo.NewHTTPError(http.StatusBadRequest, "action must be one of: start, complete")
	}

	decision, err := api.submissionSvc.CheckGate(
		ctx.Request().Context(), learnerID, ctx.Param("courseId"), ctx.QueryParam("module_id"), action)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, decision)
}
