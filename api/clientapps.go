package api

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/shoplist/auth/password"
	"github.com/kbukum/shoplist/domain"
	"github.com/kbukum/shoplist/errors"
	"github.com/kbukum/shoplist/server"
	"github.com/kbukum/shoplist/validation"
)

// clientAppWithSecret is returned once, when a secret is generated.
type clientAppWithSecret struct {
	domain.ClientApp
	ClientSecret string `json:"client_secret"`
}

type createClientAppRequest struct {
	Name        string `json:"name" validate:"required,max=128"`
	RedirectURI string `json:"redirect_uri" validate:"required,url"`
}

// handleCreateClientApp handles POST /api/v1/clientapps.
func handleCreateClientApp(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createClientAppRequest
		if !server.Bind(c, &req) {
			return
		}
		app, err := domain.NewClientApp(req.Name, principal(c).UserID(), req.RedirectURI)
		if err != nil {
			server.RespondWithError(c, err)
			return
		}
		secret, err := password.GenerateToken(deps.SecretBytes)
		if err != nil {
			server.RespondWithError(c, errors.Internal(fmt.Errorf("generate client secret: %w", err)))
			return
		}
		if err := deps.ClientApps.Create(c.Request.Context(), app, secret); err != nil {
			server.RespondWithError(c, err)
			return
		}
		server.RespondCreated(c, clientAppWithSecret{ClientApp: *app, ClientSecret: secret})
	}
}

// handleListClientApps handles GET /api/v1/clientapps.
func handleListClientApps(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		apps, err := deps.ClientApps.ListByOwner(c.Request.Context(), principal(c).UserID())
		if err != nil {
			server.RespondWithError(c, err)
			return
		}
		if apps == nil {
			apps = []domain.ClientApp{}
		}
		server.RespondOKWithMeta(c, apps, &server.Meta{Total: len(apps)})
	}
}

// ownedClientApp loads the app named by the :id parameter. Apps of other
// users are FORBIDDEN. On failure it has already responded.
func ownedClientApp(c *gin.Context, deps Deps) (domain.ClientApp, bool) {
	id, err := validation.ParseUUID("id", c.Param("id"))
	if err != nil {
		server.RespondWithError(c, err)
		return domain.ClientApp{}, false
	}
	app, err := deps.ClientApps.FindByID(c.Request.Context(), id)
	if err != nil {
		server.RespondWithError(c, err)
		return domain.ClientApp{}, false
	}
	if !app.OwnedBy(principal(c).UserID()) {
		server.RespondWithError(c, errors.Forbidden(""))
		return domain.ClientApp{}, false
	}
	return app, true
}

// handleGetClientApp handles GET /api/v1/clientapps/:id.
func handleGetClientApp(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		if app, ok := ownedClientApp(c, deps); ok {
			server.RespondOK(c, app)
		}
	}
}

type updateClientAppRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=128"`
	RedirectURI *string `json:"redirect_uri" validate:"omitempty,url"`
}

// handleUpdateClientApp handles PUT /api/v1/clientapps/:id.
func handleUpdateClientApp(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		app, ok := ownedClientApp(c, deps)
		if !ok {
			return
		}
		var req updateClientAppRequest
		if !server.Bind(c, &req) {
			return
		}
		if req.Name != nil {
			app.Name = *req.Name
		}
		if req.RedirectURI != nil {
			app.RedirectURI = *req.RedirectURI
		}
		updated, err := deps.ClientApps.Update(c.Request.Context(), &app)
		if err != nil {
			server.RespondWithError(c, err)
			return
		}
		server.RespondOK(c, updated)
	}
}

// handleRotateClientSecret handles PUT /api/v1/clientapps/:id/secret.
// The previous secret stops working immediately.
func handleRotateClientSecret(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		app, ok := ownedClientApp(c, deps)
		if !ok {
			return
		}
		secret, err := password.GenerateToken(deps.SecretBytes)
		if err != nil {
			server.RespondWithError(c, errors.Internal(fmt.Errorf("generate client secret: %w", err)))
			return
		}
		updated, err := deps.ClientApps.ChangeSecret(c.Request.Context(), app.ID, secret)
		if err != nil {
			server.RespondWithError(c, err)
			return
		}
		server.RespondOK(c, clientAppWithSecret{ClientApp: updated, ClientSecret: secret})
	}
}

// handleDeleteClientApp handles DELETE /api/v1/clientapps/:id.
func handleDeleteClientApp(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		app, ok := ownedClientApp(c, deps)
		if !ok {
			return
		}
		if err := deps.ClientApps.DeleteByID(c.Request.Context(), app.ID); err != nil {
			server.RespondWithError(c, err)
			return
		}
		server.RespondNoContent(c)
	}
}
