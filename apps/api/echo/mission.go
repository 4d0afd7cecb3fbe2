package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/dhamira/core/mission"
	"github.com/trezcool/dhamira/core/user"
)

type missionApi struct {
	svc      *mission.Service
	userSvc  user.Service
	validate *validator.Validate
}

func registerMissionAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := missionApi{
		svc:      deps.MissionSvc,
		userSvc:  deps.UserSvc,
		validate: deps.Validate,
	}

	mg := g.Group("/missions", jwt)
	mg.GET("", api.query)
	mg.POST("", api.create, staffMiddleware())
	mg.GET("/:id", api.retrieve)
	mg.PUT("/:id", api.update, staffMiddleware())
	mg.DELETE("/:id", api.destroy, adminMiddleware())
	mg.GET("/:id/participants", api.listParticipants, staffMiddleware())
	mg.POST("/:id/start", api.start)
	mg.POST("/:id/complete", api.complete)
}

func (api *missionApi) create(ctx echo.Context) error {
	var data mission.NewMission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMission")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	m, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating mission")
	}
	return ctx.JSON(http.StatusCreated, m)
}

func (api *missionApi) query(ctx echo.Context) error {
	courseID := ctx.QueryParam("course_id")
	missions, err := api.svc.QueryByCourse(ctx.Request().Context(), courseID)
	if err != nil {
		return errors.Wrap(err, "querying missions")
	}
	if missions == nil {
		missions = []mission.Mission{}
	}
	return ctx.JSON(http.StatusOK, missions)
}

func (api *missionApi) retrieve(ctx echo.Context) error {
	m, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, m)
}

func (api *missionApi) update(ctx echo.Context) error {
	m, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}

	var data mission.UpdateMission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateMission")
	}
	if err := data.Validate(m, api.validate); err != nil {
		return err
	}

	m, err = api.svc.Update(ctx.Request().Context(), m.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating mission")
	}
	return ctx.JSON(http.StatusOK, m)
}

func (api *missionApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting mission")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *missionApi) listParticipants(ctx echo.Context) error {
	var pg Pagination
	if err := pg.Bind(ctx); err != nil {
		return err
	}

	page, err := api.svc.ListParticipants(ctx.Request().Context(), ctx.Param("id"), pg.Page, pg.Limit)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, page)
}

func (api *missionApi) start(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	p, err := api.svc.Start(ctx.Request().Context(), ctx.Param("id"), ctxUsr.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *missionApi) complete(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	p, err := api.svc.Complete(ctx.Request().Context(), ctx.Param("id"), ctxUsr.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, p)
}
