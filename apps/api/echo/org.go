package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/dhamira/core/org"
	"github.com/trezcool/dhamira/core/user"
)

type orgApi struct {
	svc      *org.Service
	userSvc  user.Service
	validate *validator.Validate
}

func registerOrgAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := orgApi{
		svc:      deps.OrgSvc,
		userSvc:  deps.UserSvc,
		validate: deps.Validate,
	}

	og := g.Group("/organizations", jwt)
	og.GET("", api.query)
	og.POST("", api.create, adminMiddleware())
	og.GET("/:id", api.retrieve)
	og.PUT("/:id", api.update, adminMiddleware())
	og.DELETE("/:id", api.destroy, adminMiddleware())
	og.POST("/:id/members", api.addMember, adminMiddleware())
	og.DELETE("/:id/members/:userID", api.removeMember, adminMiddleware())
}

func (api *orgApi) create(ctx echo.Context) error {
	var data org.NewOrganization
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewOrganization")
	}
	if err := data.Validate(ctx.Request().Context(), api.validate, api.svc); err != nil {
		return err
	}

	o, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating organization")
	}
	return ctx.JSON(http.StatusCreated, o)
}

func (api *orgApi) query(ctx echo.Context) error {
	orgs, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying organizations")
	}
	if orgs == nil {
		orgs = []org.Organization{}
	}
	return ctx.JSON(http.StatusOK, orgs)
}

func (api *orgApi) retrieve(ctx echo.Context) error {
	o, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, o)
}

func (api *orgApi) update(ctx echo.Context) error {
	o, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}

	var data org.UpdateOrganization
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateOrganization")
	}
	if err := data.Validate(ctx.Request().Context(), o, api.validate, api.svc); err != nil {
		return err
	}

	o, err = api.svc.Update(ctx.Request().Context(), o.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating organization")
	}
	return ctx.JSON(http.StatusOK, o)
}

func (api *orgApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting organization")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *orgApi) addMember(ctx echo.Context) error {
	var data MemberRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MemberRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	// the user must exist
	if _, err := api.userSvc.GetByID(ctx.Request().Context(), data.UserID); err != nil {
		return err
	}

	if err := api.svc.AddMember(ctx.Request().Context(), ctx.Param("id"), data.UserID); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *orgApi) removeMember(ctx echo.Context) error {
	if err := api.svc.RemoveMember(ctx.Request().Context(), ctx.Param("id"), ctx.Param("userID")); err != nil {
		return errors.Wrap(err, "removing organization member")
	}
	return ctx.NoContent(http.StatusNoContent)
}

type MemberRequest struct {
	UserID string `json:"user_id" validate:"required,uuid4_"`
}

func (mr MemberRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(mr)
}
