// Package api exposes the shoplist repositories and the OAuth2 issuer over
// HTTP with gin.
//
//	POST   /api/v1/users                 register
//	GET    /api/v1/users/me              own profile
//	PUT    /api/v1/users/me              update name and visibility
//	PUT    /api/v1/users/me/password     change password
//	DELETE /api/v1/users/me              delete account
//	GET    /api/v1/users/:id             public profile
//	POST   /api/v1/tokens                first-party token (Basic only)
//	POST   /api/v1/clientapps            register a client app
//	GET    /api/v1/clientapps            list own apps
//	GET    /api/v1/clientapps/:id        read own app
//	PUT    /api/v1/clientapps/:id        update own app
//	PUT    /api/v1/clientapps/:id/secret rotate the client secret
//	DELETE /api/v1/clientapps/:id        delete own app
//	POST   /oauth2/authorize             issue an authorization code
//	POST   /oauth2/token                 exchange a code for a token
//	POST   /oauth2/refresh               extend the presented token (Bearer only)
//	POST   /oauth2/revoke                revoke a token (Bearer only)
//
// Errors are rendered as AppError bodies. Unauthenticated requests to
// protected routes get 401 with one WWW-Authenticate challenge per scheme.
package api
