package api

import (
	"github.com/gin-gonic/gin"

	"github.com/kbukum/shoplist/auth"
	"github.com/kbukum/shoplist/logger"
	"github.com/kbukum/shoplist/repository"
	"github.com/kbukum/shoplist/server/middleware"
)

const defaultSecretBytes = 32

// Deps are the collaborators of the handlers.
type Deps struct {
	Users        *repository.UserRepository
	SecuredUsers *repository.SecuredUserRepository
	ClientApps   *repository.ClientAppRepository
	Tokens       *repository.AccessTokenRepository
	Issuer       *auth.Issuer
	Dispatcher   *auth.Dispatcher
	// SecretBytes is the entropy of generated client secrets.
	SecretBytes int
	// RateLimit caps requests per minute and client IP on registration,
	// token and OAuth2 routes. It runs before authentication so rejected
	// credentials count too. Zero disables it.
	RateLimit int
	Log       *logger.Logger
}

// Register mounts every route on r.
func Register(r gin.IRouter, deps Deps) {
	if deps.SecretBytes <= 0 {
		deps.SecretBytes = defaultSecretBytes
	}
	if deps.Log == nil {
		deps.Log = logger.NewNop()
	}
	deps.Log = deps.Log.WithComponent("api")

	d := deps.Dispatcher
	authenticate := middleware.Authenticate(d)
	credentials := []gin.HandlerFunc{authenticate}
	if deps.RateLimit > 0 {
		limit := middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerMinute: deps.RateLimit,
			KeyFunc:           middleware.IPBasedKey,
		})
		credentials = []gin.HandlerFunc{limit, authenticate}
	}
	requireAuth := middleware.RequireAuth(d)

	v1 := r.Group("/api/v1")
	v1.POST("/users", chain(credentials, handleRegister(deps))...)
	v1.POST("/tokens", chain(credentials, middleware.RequireScheme(d, auth.SchemeBasic), handleIssueToken(deps))...)

	authed := v1.Group("", authenticate)

	users := authed.Group("/users")
	users.GET("/me", requireAuth, handleGetMe())
	users.PUT("/me", requireAuth, handleUpdateMe(deps))
	users.PUT("/me/password", requireAuth, handleChangePassword(deps))
	users.DELETE("/me", requireAuth, handleDeleteMe(deps))
	users.GET("/:id", handleGetUser(deps))

	apps := authed.Group("/clientapps", requireAuth)
	apps.POST("", handleCreateClientApp(deps))
	apps.GET("", handleListClientApps(deps))
	apps.GET("/:id", handleGetClientApp(deps))
	apps.PUT("/:id", handleUpdateClientApp(deps))
	apps.PUT("/:id/secret", handleRotateClientSecret(deps))
	apps.DELETE("/:id", handleDeleteClientApp(deps))

	oauth := r.Group("/oauth2", credentials...)
	oauth.POST("/authorize", requireAuth, handleAuthorize(deps))
	oauth.POST("/token", handleToken(deps))
	oauth.POST("/refresh", middleware.RequireScheme(d, auth.SchemeBearer), handleRefresh(deps))
	oauth.POST("/revoke", middleware.RequireScheme(d, auth.SchemeBearer), handleRevoke(deps))
}

func principal(c *gin.Context) auth.Principal {
	return auth.PrincipalFrom(c.Request.Context())
}

// chain returns a new slice of head followed by tail.
func chain(head []gin.HandlerFunc, tail ...gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(head)+len(tail))
	return append(append(out, head...), tail...)
}
