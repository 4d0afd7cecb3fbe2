package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/dhamira/core"
	"github.com/trezcool/dhamira/core/course"
	"github.com/trezcool/dhamira/core/group"
)

type courseApi struct {
	svc      *course.Service
	groupSvc *group.Service
	validate *validator.Validate
}

func registerCourseAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := courseApi{
		svc:      deps.CourseSvc,
		groupSvc: deps.GroupSvc,
		validate: deps.Validate,
	}

	cg := g.Group("/courses", jwt)
	cg.GET("", api.query)
	cg.POST("", api.create, staffMiddleware())
	cg.GET("/:id", api.retrieve)
	cg.PUT("/:id", api.update, staffMiddleware())
	cg.DELETE("/:id", api.destroy, adminMiddleware())
	cg.GET("/:id/groups", api.queryGroups)
	cg.POST("/:id/groups", api.linkGroup, staffMiddleware())
	cg.DELETE("/:id/groups/:groupID", api.unlinkGroup, staffMiddleware())
}

func (api *courseApi) create(ctx echo.Context) error {
	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *courseApi) query(ctx echo.Context) error {
	courses, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	c, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *courseApi) update(ctx echo.Context) error {
	c, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}

	var data course.UpdateCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}
	if err := data.Validate(c, api.validate); err != nil {
		return err
	}

	c, err = api.svc.Update(ctx.Request().Context(), c.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *courseApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) queryGroups(ctx echo.Context) error {
	ids, err := api.svc.QueryLinkedGroupIDs(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying linked groups")
	}

	groups := make([]group.Group, 0, len(ids))
	for _, id := range ids {
		g, err := api.groupSvc.GetByID(ctx.Request().Context(), id)
		if err != nil {
			if errors.Cause(err) == group.ErrNotFound {
				continue
			}
			return errors.Wrap(err, "finding linked group")
		}
		groups = append(groups, g)
	}
	return ctx.JSON(http.StatusOK, groups)
}

func (api *courseApi) linkGroup(ctx echo.Context) error {
	var data course.LinkGroup
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LinkGroup")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	// the group must exist
	if _, err := api.groupSvc.GetByID(ctx.Request().Context(), data.GroupID); err != nil {
		return err
	}

	if err := api.svc.LinkGroup(ctx.Request().Context(), ctx.Param("id"), data.GroupID); err != nil {
		if errors.Cause(err) == course.ErrGroupLinked {
			return core.NewValidationError(err, core.FieldError{Field: "group_id", Error: err.Error()})
		}
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) unlinkGroup(ctx echo.Context) error {
	if err := api.svc.UnlinkGroup(ctx.Request().Context(), ctx.Param("id"), ctx.Param("groupID")); err != nil {
		return errors.Wrap(err, "unlinking group")
	}
	return ctx.NoContent(http.StatusNoContent)
}
