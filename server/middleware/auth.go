package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/kbukum/shoplist/auth"
	apperrors "github.com/kbukum/shoplist/errors"
	"github.com/kbukum/shoplist/logger"
)

const (
	headerAuthorization   = "Authorization"
	headerWWWAuthenticate = "WWW-Authenticate"

	// ContextKeyUserID holds the authenticated user id as a string in the
	// gin context. Empty for anonymous requests.
	ContextKeyUserID = "user_id"
)

// Authenticate resolves the Authorization header through d and binds the
// resulting principal to the request context. Anonymous requests pass
// through. Refused credentials get 401 with a challenge for the presented
// scheme; a storage failure aborts with its AppError.
func Authenticate(d *auth.Dispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		res, err := d.Dispatch(ctx, c.GetHeader(headerAuthorization))
		if err != nil {
			AbortWithError(c, err)
			return
		}
		if res.Rejected {
			challenge(c, res.Challenges, apperrors.Unauthorized("Invalid credentials."))
			return
		}

		ctx = auth.WithPrincipal(ctx, res.Principal)
		if res.Authenticated() {
			id := res.Principal.UserID().String()
			ctx = logger.ContextWithUserID(ctx, id)
			c.Set(ContextKeyUserID, id)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireAuth answers 401 with a challenge per registered scheme unless an
// earlier Authenticate resolved a user.
func RequireAuth(d *auth.Dispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !auth.PrincipalFrom(c.Request.Context()).Authenticated() {
			challenge(c, d.Challenges(), apperrors.Unauthorized(""))
			return
		}
		c.Next()
	}
}

// RequireScheme is RequireAuth restricted to principals authenticated via
// scheme.
func RequireScheme(d *auth.Dispatcher, scheme auth.Scheme) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := auth.PrincipalFrom(c.Request.Context())
		if p.Authenticated() && p.Scheme == scheme {
			c.Next()
			return
		}
		var challenges []string
		if a, ok := d.Get(string(scheme)); ok {
			challenges = []string{a.Challenge(d.Realm(), false)}
		}
		challenge(c, challenges, apperrors.Unauthorized(string(scheme)+" authentication required."))
	}
}

func challenge(c *gin.Context, challenges []string, err *apperrors.AppError) {
	for _, ch := range challenges {
		c.Writer.Header().Add(headerWWWAuthenticate, ch)
	}
	c.AbortWithStatusJSON(err.HTTPStatus, err.ToResponse())
}

// AbortWithError aborts with err rendered as an AppError body. Foreign
// errors become INTERNAL_ERROR.
func AbortWithError(c *gin.Context, err error) {
	appErr := apperrors.Wrap(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
}
