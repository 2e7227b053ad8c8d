package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/vishvavidya/traininghub/core"
	"github.com/vishvavidya/traininghub/core/user"
)

var errUsrNotFoundInCtx = errors.New("User not found in context")

const passwordResetRequested = "If the email address supplied is associated with an active account on this system, " +
	"an email will arrive in your inbox shortly with instructions to reset your password."

type userApi struct {
	svc        *user.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerUserAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *user.Service) {
	validate, translator := core.NewValidator()
	api := userApi{svc: svc, validate: validate, translator: translator}

	// un-authed endpoints
	g.POST("/login", api.login)
	g.POST("/password-reset", api.resetPassword)
	g.POST("/password-reset-confirm", api.confirmPasswordReset)

	// authed endpoints
	ag := g.Group("", jwt)
	ag.POST("/token-refresh", api.refreshToken)
	ag.POST("/addAdmin", api.createStaff(user.RoleAdmin, "Admin added successfully"), adminMiddleware())
	ag.POST("/addManager", api.createStaff(user.RoleManager, "Manager added successfully"), adminMiddleware())
	ag.POST("/addInstructor", api.createStaff(user.RoleTrainer, "Instructor added successfully"), adminMiddleware())
	ag.GET("/adminlist", api.list(user.RoleAdmin), staffMiddleware())
	ag.GET("/managerlist", api.list(user.RoleManager), staffMiddleware())
	ag.GET("/instructorlist", api.list(user.RoleTrainer), staffMiddleware())
	ag.GET("/users/:id", api.retrieve, staffMiddleware(), staffObjectMiddleware(svc, ""))
	ag.DELETE("/users", api.destroyMultiple, adminMiddleware())

	for _, r := range []struct{ role, editPath, deletePath string }{
		{user.RoleAdmin, "/editAdmin/:id", "/admins/:id"},
		{user.RoleManager, "/editManager/:id", "/managers/:id"},
		{user.RoleTrainer, "/editInstructor/:id", "/deleteInstructor/:id"},
	} {
		ag.PUT(r.editPath, api.update, adminMiddleware(), staffObjectMiddleware(svc, r.role))
		ag.DELETE(r.deletePath, api.destroy, adminMiddleware(), staffObjectMiddleware(svc, r.role))
	}
}

var roleLabels = map[string]string{
	user.RoleAdmin:   "Admin",
	user.RoleManager: "Manager",
	user.RoleTrainer: "Instructor",
	"":               "User",
}

func (api *userApi) validationError(err error) error {
	return core.NewRulesError("Validation failed", core.TranslateAll(err, api.translator)...)
}

// Handlers

func (api *userApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	data.Username = core.CleanString(data.Username)
	if err := api.validate.Struct(data); err != nil {
		return api.validationError(err)
	}

	id, err := api.svc.Login(ctx.Request().Context(), data.Username, data.Password)
	if err != nil {
		if errors.Cause(err) == user.ErrInvalidCredentials {
			return echo.NewHTTPError(http.StatusUnauthorized, MessageResponse{Message: err.Error()})
		}
		return asMessage(errors.Wrap(err, "authenticating"))
	}
	token, err := GenerateToken(GetUserClaims(id))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Message: "Login successful", Token: token, Identity: id})
}

func (api *userApi) refreshToken(ctx echo.Context) error {
	token, id, err := refreshToken(ctx, api.svc)
	if err != nil {
		return asMessage(errors.Wrap(err, "refreshing token"))
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Message: "Token refreshed", Token: token, Identity: id})
}

func (api *userApi) resetPassword(ctx echo.Context) error {
	var data PasswordResetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordResetRequest")
	}
	data.Email = core.CleanString(data.Email, true /* lower */)
	if err := api.validate.Struct(data); err != nil {
		return api.validationError(err)
	}

	if err := api.svc.RequestPasswordReset(ctx.Request().Context(), data.Email); err != nil && !core.IsNotFound(err) {
		// do not return errors to attackers
		ctx.Logger().Errorf("%+v", errors.Wrap(err, "requesting password reset"))
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: passwordResetRequested})
}

func (api *userApi) confirmPasswordReset(ctx echo.Context) error {
	var data user.ResetUserPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetUserPassword")
	}
	if err := api.svc.ResetPassword(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "resetting password")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "Password has been reset with the new password."})
}

func (api *userApi) createStaff(role, successMsg string) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		var data StaffRequest
		if err := ctx.Bind(&data); err != nil {
			return errors.Wrap(err, "binding to StaffRequest")
		}
		ns := data.NewStaff
		if ns.Name == "" {
			ns.Name = data.InstructorName
		}
		ns.Role = role

		creds, err := api.svc.CreateStaff(ctx.Request().Context(), contextActor(ctx), ns)
		if err != nil {
			return asMessage(errors.Wrap(err, "creating staff user"))
		}
		return ctx.JSON(http.StatusCreated, StaffCreatedResponse{
			Message:  successMsg,
			UserID:   creds.User.ID,
			Password: creds.Password,
		})
	}
}

func (api *userApi) list(role string) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		users, err := api.svc.List(ctx.Request().Context(), role)
		if err != nil {
			return errors.Wrap(err, "listing users")
		}
		return ctx.JSON(http.StatusOK, users)
	}
}

func (api *userApi) retrieve(ctx echo.Context) error {
	usr, ok := ctx.Get("object").(user.User)
	if !ok {
		return errors.Wrap(errUsrNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) update(ctx echo.Context) error {
	usr, ok := ctx.Get("object").(user.User)
	if !ok {
		return errors.Wrap(errUsrNotFoundInCtx, "retrieving object from context")
	}

	var data StaffRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StaffRequest")
	}
	us := user.UpdateStaff{
		Name:       data.Name,
		Email:      data.Email,
		Contact:    data.Contact,
		Technology: data.Technology,
	}
	if us.Name == "" {
		us.Name = data.InstructorName
	}

	usr, err := api.svc.Update(ctx.Request().Context(), contextActor(ctx), usr.ID, usr.Role, us)
	if err != nil {
		return asMessage(errors.Wrap(err, "updating staff user"))
	}
	return ctx.JSON(http.StatusOK, StaffUpdatedResponse{Message: roleLabels[usr.Role] + " updated successfully", User: usr})
}

func (api *userApi) destroy(ctx echo.Context) error {
	usr, ok := ctx.Get("object").(user.User)
	if !ok {
		return errors.Wrap(errUsrNotFoundInCtx, "retrieving object from context")
	}
	if err := api.svc.Delete(ctx.Request().Context(), contextActor(ctx), usr.Role, usr.ID); err != nil {
		return asMessage(errors.Wrap(err, "deleting staff user"))
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: roleLabels[usr.Role] + " deleted successfully"})
}

func (api *userApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if len(query.IDs) == 0 {
		return ctx.NoContent(http.StatusNoContent)
	}
	err := api.svc.Delete(ctx.Request().Context(), contextActor(ctx), "", query.IDs...)
	if err != nil && !core.IsNotFound(err) {
		return asMessage(errors.Wrap(err, "deleting staff users"))
	}
	return ctx.NoContent(http.StatusNoContent)
}

// staffObjectMiddleware puts the staff User of role named by the `id` param in the context as "object".
func staffObjectMiddleware(svc *user.Service, role string) echo.MiddlewareFunc {
	notFound := echo.NewHTTPError(http.StatusNotFound, MessageResponse{Message: roleLabels[role] + " not found"})
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := svc.GetStaff(ctx.Request().Context(), ctx.Param("id"), role)
			if err != nil {
				if core.IsNotFound(err) {
					return notFound
				}
				return errors.Wrap(err, "finding user by ID")
			}
			ctx.Set("object", usr)
			return next(ctx)
		}
	}
}

type (
	LoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Message string `json:"message"`
		Token   string `json:"token"`
		user.Identity
	}

	PasswordResetRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	// StaffRequest also accepts the instructor form, which names the user "instructorName".
	StaffRequest struct {
		user.NewStaff
		InstructorName string `json:"instructorName"`
	}

	StaffUpdatedResponse struct {
		Message string    `json:"message"`
		User    user.User `json:"user"`
	}

	DestroyMultipleRequest struct {
		IDs []string `query:"id"`
	}

	StaffCreatedResponse struct {
		Message  string `json:"message"`
		UserID   string `json:"userid"`
		Password string `json:"password"`
	}
)
