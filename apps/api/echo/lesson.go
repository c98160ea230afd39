package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tmwangi/darasa/core"
	"github.com/tmwangi/darasa/core/lesson"
)

type lessonApi struct {
	deps ServerDeps
}

func registerLessonAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := lessonApi{deps: deps}

	lg := g.Group("/lessons", jwt)
	lg.GET("", api.query)
	lg.POST("", api.create, adminMiddleware(deps))
	lg.POST("/complete", api.complete)
	lg.GET("/:id", api.retrieve)
}

// Handlers

func (api *lessonApi) query(ctx echo.Context) error {
	assignee := core.CleanString(ctx.QueryParam("username"), true /* lower */)

	lessons, err := api.deps.LessonSvc.Query(ctx.Request().Context(), assignee)
	if err != nil {
		return errors.Wrap(err, "querying lessons")
	}
	if lessons == nil {
		lessons = []lesson.Lesson{}
	}
	return ctx.JSON(http.StatusOK, lessons)
}

func (api *lessonApi) retrieve(ctx echo.Context) error {
	les, err := api.deps.LessonSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, les)
}

func (api *lessonApi) create(ctx echo.Context) error {
	var data lesson.NewLesson
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLesson")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	les, err := api.deps.LessonSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating lesson")
	}
	return ctx.JSON(http.StatusCreated, les)
}

// complete records a completion for the authenticated caller; the user is
// never taken from the payload.
func (api *lessonApi) complete(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.deps.UserSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data CompleteLessonRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CompleteLessonRequest")
	}
	if err := api.deps.Validate.Struct(&data); err != nil {
		return err
	}

	if err := api.deps.LessonSvc.Complete(ctx.Request().Context(), usr.ID, data.LessonID, data.Mistakes); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Lesson completed."})
}

type CompleteLessonRequest struct {
	LessonID string `json:"lesson_id" validate:"required"`
	Mistakes int    `json:"mistakes" validate:"min=0"`
}
