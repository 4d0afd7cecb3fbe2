package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/dhamira/core/group"
	"github.com/trezcool/dhamira/core/user"
)

type groupApi struct {
	svc      *group.Service
	userSvc  user.Service
	validate *validator.Validate
}

func registerGroupAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := groupApi{
		svc:      deps.GroupSvc,
		userSvc:  deps.UserSvc,
		validate: deps.Validate,
	}

	gg := g.Group("/groups", jwt)
	gg.GET("", api.query)
	gg.POST("", api.create, staffMiddleware())
	gg.GET("/:id", api.retrieve)
	gg.PUT("/:id", api.update, staffMiddleware())
	gg.DELETE("/:id", api.destroy, adminMiddleware())
	gg.GET("/:id/members", api.queryMembers)
	gg.POST("/:id/members", api.addMember, staffMiddleware())
	gg.PUT("/:id/members/:userID", api.updateMember, staffMiddleware())
	gg.DELETE("/:id/members/:userID", api.removeMember, staffMiddleware())
}

func (api *groupApi) create(ctx echo.Context) error {
	var data group.NewGroup
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGroup")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	g, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating group")
	}
	return ctx.JSON(http.StatusCreated, g)
}

func (api *groupApi) query(ctx echo.Context) error {
	filter := new(group.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []group.Group{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	groups, err := api.svc.Filter(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying groups")
	}
	if groups == nil {
		groups = []group.Group{}
	}
	return ctx.JSON(http.StatusOK, groups)
}

func (api *groupApi) retrieve(ctx echo.Context) error {
	g, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, g)
}

func (api *groupApi) update(ctx echo.Context) error {
	g, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}

	var data group.UpdateGroup
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateGroup")
	}
	if err := data.Validate(g, api.validate); err != nil {
		return err
	}

	g, err = api.svc.Update(ctx.Request().Context(), g.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating group")
	}
	return ctx.JSON(http.StatusOK, g)
}

func (api *groupApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting group")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *groupApi) queryMembers(ctx echo.Context) error {
	mbs, err := api.svc.QueryMembers(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	if mbs == nil {
		mbs = []group.Membership{}
	}
	return ctx.JSON(http.StatusOK, mbs)
}

func (api *groupApi) addMember(ctx echo.Context) error {
	var data group.NewMembership
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMembership")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	// the user must exist
	if _, err := api.userSvc.GetByID(ctx.Request().Context(), data.UserID); err != nil {
		return err
	}

	m, err := api.svc.AddMember(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, m)
}

func (api *groupApi) updateMember(ctx echo.Context) error {
	var data group.UpdateMembership
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateMembership")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	m, err := api.svc.UpdateMember(ctx.Request().Context(), ctx.Param("id"), ctx.Param("userID"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, m)
}

func (api *groupApi) removeMember(ctx echo.Context) error {
	if err := api.svc.RemoveMember(ctx.Request().Context(), ctx.Param("id"), ctx.Param("userID")); err != nil {
		return errors.Wrap(err, "removing group member")
	}
	return ctx.NoContent(http.StatusNoContent)
}
