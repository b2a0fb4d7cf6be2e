package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/kbukum/shoplist/auth/password"
	"github.com/kbukum/shoplist/domain"
	"github.com/kbukum/shoplist/errors"
	"github.com/kbukum/shoplist/logger"
	"github.com/kbukum/shoplist/repository"
)

// Issuer runs the authorization code flow: codes for authenticated users,
// exchanged by client apps for access tokens.
type Issuer struct {
	clients   *repository.ClientAppRepository
	tokens    *repository.AccessTokenRepository
	codes     *repository.AuthorizationCodeRepository
	generator TokenGenerator
	codeBytes int
	log       *logger.Logger
}

// NewIssuer wires an Issuer. codeBytes is the entropy of authorization
// codes.
func NewIssuer(
	clients *repository.ClientAppRepository,
	tokens *repository.AccessTokenRepository,
	codes *repository.AuthorizationCodeRepository,
	generator TokenGenerator,
	codeBytes int,
	log *logger.Logger,
) *Issuer {
	return &Issuer{
		clients:   clients,
		tokens:    tokens,
		codes:     codes,
		generator: generator,
		codeBytes: codeBytes,
		log:       log.WithComponent("issuer"),
	}
}

// IssueAccessToken issues a first-party token to userID.
func (i *Issuer) IssueAccessToken(ctx context.Context, userID uuid.UUID) (*domain.AccessToken, error) {
	return i.issue(ctx, userID, uuid.Nil)
}

func (i *Issuer) issue(ctx context.Context, userID, clientID uuid.UUID) (*domain.AccessToken, error) {
	if userID == uuid.Nil {
		return nil, errors.Unauthorized("")
	}
	token, err := i.generator.GenerateToken(userID, clientID)
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("generate token: %w", err))
	}
	at, err := i.tokens.CreateForClient(ctx, token, userID, clientID)
	if err != nil {
		return nil, err
	}
	if at == nil {
		return nil, errors.Internal(fmt.Errorf("access token for user %s not stored", userID))
	}
	i.log.WithContext(ctx).Info("Access token issued", logger.Fields(
		logger.FieldUserID, userID.String(), "client_id", clientID.String()))
	return at, nil
}

// IssueAuthorizationCode issues a code to userID for clientID. redirectURI
// must be blank or equal the registered one.
func (i *Issuer) IssueAuthorizationCode(ctx context.Context, userID, clientID uuid.UUID, redirectURI string) (*domain.AuthorizationCode, error) {
	if userID == uuid.Nil {
		return nil, errors.Unauthorized("")
	}
	app, found, err := i.clients.GetByID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.InvalidClient()
	}
	if redirectURI == "" {
		redirectURI = app.RedirectURI
	}
	if redirectURI != app.RedirectURI {
		return nil, errors.InvalidInput("redirect_uri", "does not match the registered redirect URI")
	}
	code, err := password.GenerateToken(i.codeBytes)
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("generate code: %w", err))
	}
	ac, err := i.codes.CreateForClient(ctx, code, userID, app.ID, redirectURI)
	if err != nil {
		return nil, err
	}
	if ac == nil {
		return nil, errors.Internal(fmt.Errorf("authorization code for user %s not stored", userID))
	}
	return ac, nil
}

// ExchangeCode authenticates the client app, consumes code and issues an
// access token to the user the code was issued to. A code is usable once.
func (i *Issuer) ExchangeCode(ctx context.Context, code string, clientID uuid.UUID, clientSecret, redirectURI string) (*domain.AccessToken, error) {
	app, found, err := i.clients.GetByID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if !found || !i.clients.VerifySecret(app, clientSecret) {
		return nil, errors.InvalidClient()
	}

	ac, found, err := i.codes.Consume(ctx, code)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.InvalidGrant("The authorization code is invalid or expired.")
	}
	if ac.ClientID != app.ID {
		i.log.WithContext(ctx).Warn("Authorization code presented by another client",
			logger.Fields("client_id", app.ID.String()))
		return nil, errors.InvalidGrant("The authorization code was issued to another client.")
	}
	if redirectURI != "" && redirectURI != ac.RedirectURI {
		return nil, errors.InvalidGrant("The redirect URI does not match the authorization request.")
	}
	return i.issue(ctx, ac.UserID, app.ID)
}

// Refresh extends a live token.
func (i *Issuer) Refresh(ctx context.Context, token string) (domain.AccessToken, error) {
	at, found, err := i.tokens.Refresh(ctx, token)
	if err != nil {
		return at, err
	}
	if !found {
		return at, errors.InvalidToken()
	}
	return at, nil
}

// Revoke deletes token. Unknown tokens are not an error.
func (i *Issuer) Revoke(ctx context.Context, token string) error {
	return i.tokens.DeleteByToken(ctx, token)
}
