package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kbukum/shoplist/auth"
	"github.com/kbukum/shoplist/domain"
	"github.com/kbukum/shoplist/errors"
	"github.com/kbukum/shoplist/server"
)

const grantAuthorizationCode = "authorization_code"

// tokenResponse follows the RFC 6749 access token response.
type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int64     `json:"expires_in"`
	ExpiresAt   time.Time `json:"expires_at"`
	ClientID    string    `json:"client_id,omitempty"`
}

func newTokenResponse(at domain.AccessToken) tokenResponse {
	resp := tokenResponse{
		AccessToken: at.Token,
		TokenType:   string(auth.SchemeBearer),
		ExpiresIn:   int64(time.Until(at.ExpiresAt).Round(time.Second) / time.Second),
		ExpiresAt:   at.ExpiresAt,
	}
	if resp.ExpiresIn < 0 {
		resp.ExpiresIn = 0
	}
	if at.ClientID != uuid.Nil {
		resp.ClientID = at.ClientID.String()
	}
	return resp
}

// respondToken renders at, treating a nil token as an internal failure.
func respondToken(c *gin.Context, at *domain.AccessToken, created bool) {
	if at == nil {
		server.RespondWithError(c, errors.Internal(fmt.Errorf("token was not stored")))
		return
	}
	c.Header("Cache-Control", "no-store")
	if created {
		server.RespondCreated(c, newTokenResponse(*at))
		return
	}
	server.RespondOK(c, newTokenResponse(*at))
}

// handleIssueToken handles POST /api/v1/tokens: a Basic-authenticated user
// trades its credentials for a first-party bearer token.
func handleIssueToken(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		at, err := deps.Issuer.IssueAccessToken(c.Request.Context(), principal(c).UserID())
		if err != nil {
			server.RespondWithError(c, err)
			return
		}
		respondToken(c, at, true)
	}
}

type authorizeRequest struct {
	ClientID    string `json:"client_id" form:"client_id" validate:"required,uuid"`
	RedirectURI string `json:"redirect_uri" form:"redirect_uri" validate:"omitempty,url"`
	State       string `json:"state" form:"state" validate:"max=512"`
}

type authorizeResponse struct {
	Code        string    `json:"code"`
	RedirectURI string    `json:"redirect_uri"`
	State       string    `json:"state,omitempty"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// handleAuthorize handles POST /oauth2/authorize.
func handleAuthorize(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req authorizeRequest
		if !server.Bind(c, &req) {
			return
		}
		code, err := deps.Issuer.IssueAuthorizationCode(c.Request.Context(),
			principal(c).UserID(), uuid.MustParse(req.ClientID), req.RedirectURI)
		if err != nil {
			server.RespondWithError(c, err)
			return
		}
		if code == nil {
			server.RespondWithError(c, errors.Internal(fmt.Errorf("authorization code was not stored")))
			return
		}
		c.Header("Cache-Control", "no-store")
		server.RespondCreated(c, authorizeResponse{
			Code:        code.Code,
			RedirectURI: code.RedirectURI,
			State:       req.State,
			ExpiresAt:   code.ExpiresAt,
		})
	}
}

type tokenRequest struct {
	GrantType    string `json:"grant_type" form:"grant_type" validate:"required,oneof=authorization_code"`
	Code         string `json:"code" form:"code" validate:"required"`
	ClientID     string `json:"client_id" form:"client_id" validate:"required,uuid"`
	ClientSecret string `json:"client_secret" form:"client_secret" validate:"required"`
	RedirectURI  string `json:"redirect_uri" form:"redirect_uri" validate:"omitempty,url"`
}

// handleToken handles POST /oauth2/token with grant_type=authorization_code.
func handleToken(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req tokenRequest
		if !server.Bind(c, &req) {
			return
		}
		at, err := deps.Issuer.ExchangeCode(c.Request.Context(),
			req.Code, uuid.MustParse(req.ClientID), req.ClientSecret, req.RedirectURI)
		if err != nil {
			server.RespondWithError(c, err)
			return
		}
		respondToken(c, at, false)
	}
}

// presentedToken returns the bearer token of the request.
func presentedToken(c *gin.Context) string {
	_, token, _ := auth.ParseAuthorization(c.GetHeader("Authorization"))
	return token
}

// handleRefresh handles POST /oauth2/refresh. The presented token gets a
// fresh TTL.
func handleRefresh(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		at, err := deps.Issuer.Refresh(c.Request.Context(), presentedToken(c))
		if err != nil {
			server.RespondWithError(c, err)
			return
		}
		respondToken(c, &at, false)
	}
}

type revokeRequest struct {
	Token string `json:"token" form:"token"`
}

// handleRevoke handles POST /oauth2/revoke. Without a body it revokes the
// presented token. Tokens of other users and unknown tokens are ignored, as
// in RFC 7009.
func handleRevoke(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req revokeRequest
		if c.Request.ContentLength > 0 && !server.Bind(c, &req) {
			return
		}
		ctx := c.Request.Context()
		token := req.Token
		if token == "" {
			token = presentedToken(c)
		}

		at, found, err := deps.Tokens.GetByToken(ctx, token)
		if err != nil {
			server.RespondWithError(c, err)
			return
		}
		if found && at.UserID == principal(c).UserID() {
			if err := deps.Issuer.Revoke(ctx, token); err != nil {
				server.RespondWithError(c, err)
				return
			}
		}
		server.RespondNoContent(c)
	}
}
