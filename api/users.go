package api

import (
	"github.com/gin-gonic/gin"

	"github.com/kbukum/shoplist/domain"
	"github.com/kbukum/shoplist/errors"
	"github.com/kbukum/shoplist/logger"
	"github.com/kbukum/shoplist/server"
	"github.com/kbukum/shoplist/validation"
)

type registerRequest struct {
	Name       string `json:"name" form:"name" validate:"required,max=128"`
	Email      string `json:"email" form:"email" validate:"required,email,max=254"`
	Password   string `json:"password" form:"password"`
	Visibility string `json:"visibility" form:"visibility" validate:"omitempty,oneof=PUBLIC PRIVATE"`
}

// handleRegister handles POST /api/v1/users.
func handleRegister(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerRequest
		if !server.Bind(c, &req) {
			return
		}
		u, err := domain.NewUser(req.Name, req.Email, domain.Visibility(req.Visibility))
		if err != nil {
			server.RespondWithError(c, err)
			return
		}
		if _, err := deps.SecuredUsers.Create(c.Request.Context(), u, req.Password); err != nil {
			server.RespondWithError(c, err)
			return
		}
		deps.Log.WithContext(c.Request.Context()).Info("User registered", logger.Fields(logger.FieldUserID, u.ID.String()))
		server.RespondCreated(c, u)
	}
}

// handleGetMe handles GET /api/v1/users/me.
func handleGetMe() gin.HandlerFunc {
	return func(c *gin.Context) {
		server.RespondOK(c, principal(c).User)
	}
}

type updateUserRequest struct {
	Name       *string `json:"name" validate:"omitempty,min=1,max=128"`
	Visibility *string `json:"visibility" validate:"omitempty,oneof=PUBLIC PRIVATE"`
}

// handleUpdateMe handles PUT /api/v1/users/me. The email is immutable.
func handleUpdateMe(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req updateUserRequest
		if !server.Bind(c, &req) {
			return
		}
		u := principal(c).User
		if req.Name != nil {
			u.Name = *req.Name
		}
		if req.Visibility != nil {
			u.Visibility = domain.Visibility(*req.Visibility)
		}
		updated, err := deps.Users.Update(c.Request.Context(), &u)
		if err != nil {
			server.RespondWithError(c, err)
			return
		}
		server.RespondOK(c, updated)
	}
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"`
}

// handleChangePassword handles PUT /api/v1/users/me/password. The current
// password is required even for bearer principals.
func handleChangePassword(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req changePasswordRequest
		if !server.Bind(c, &req) {
			return
		}
		ctx := c.Request.Context()
		id := principal(c).UserID()

		su, found, err := deps.SecuredUsers.GetByID(ctx, id)
		if err != nil {
			server.RespondWithError(c, err)
			return
		}
		if !found {
			server.RespondWithError(c, errors.NotFound("user", id.String()))
			return
		}
		if !deps.SecuredUsers.VerifyPassword(su, req.CurrentPassword) {
			server.RespondWithError(c, errors.InvalidInput("current_password", "is incorrect"))
			return
		}
		u, err := deps.SecuredUsers.ChangePassword(ctx, id, req.NewPassword)
		if err != nil {
			server.RespondWithError(c, err)
			return
		}
		server.RespondOK(c, u)
	}
}

// handleDeleteMe handles DELETE /api/v1/users/me. Outstanding tokens stop
// resolving because their owner no longer exists.
func handleDeleteMe(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := principal(c).UserID()
		if err := deps.Users.DeleteByID(c.Request.Context(), id); err != nil {
			server.RespondWithError(c, err)
			return
		}
		deps.Log.WithContext(c.Request.Context()).Info("User deleted", logger.Fields(logger.FieldUserID, id.String()))
		server.RespondNoContent(c)
	}
}

// handleGetUser handles GET /api/v1/users/:id. Private profiles are
// NOT_FOUND to everyone but their owner.
func handleGetUser(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := validation.ParseUUID("id", c.Param("id"))
		if err != nil {
			server.RespondWithError(c, err)
			return
		}
		u, found, err := deps.Users.GetByID(c.Request.Context(), id)
		if err != nil {
			server.RespondWithError(c, err)
			return
		}
		if !found || (!u.IsPublic() && principal(c).UserID() != u.ID) {
			server.RespondWithError(c, errors.NotFound("user", id.String()))
			return
		}
		server.RespondOK(c, u)
	}
}
