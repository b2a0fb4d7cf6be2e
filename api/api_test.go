package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/shoplist/auth"
	"github.com/kbukum/shoplist/auth/password"
	"github.com/kbukum/shoplist/domain"
	apperrors "github.com/kbukum/shoplist/errors"
	"github.com/kbukum/shoplist/logger"
	"github.com/kbukum/shoplist/repository"
	"github.com/kbukum/shoplist/repository/memstore"
)

func init() { gin.SetMode(gin.TestMode) }

type testAPI struct {
	t      *testing.T
	engine *gin.Engine
}

func newTestAPI(t *testing.T, configure ...func(*Deps)) *testAPI {
	t.Helper()
	opts := []repository.Option{repository.WithHasher(password.NewPBKDF2Hasher(1000))}
	users := memstore.NewUsers()
	deps := Deps{
		Users:        repository.NewUserRepository(users, opts...),
		SecuredUsers: repository.NewSecuredUserRepository(users, opts...),
		ClientApps:   repository.NewClientAppRepository(memstore.NewClientApps(), opts...),
		Tokens:       repository.NewAccessTokenRepository(memstore.NewTokens[domain.AccessToken](), opts...),
		Log:          logger.NewNop(),
	}
	codes := repository.NewAuthorizationCodeRepository(memstore.NewTokens[domain.AuthorizationCode](), opts...)
	deps.Issuer = auth.NewIssuer(deps.ClientApps, deps.Tokens, codes, auth.OpaqueGenerator(32), 16, logger.NewNop())
	deps.Dispatcher = auth.NewDispatcher([]auth.Authenticator{
		auth.NewBasicAuthenticator(deps.SecuredUsers),
		auth.NewBearerAuthenticator(deps.Tokens, deps.Users),
	})

	for _, fn := range configure {
		fn(&deps)
	}

	engine := gin.New()
	Register(engine, deps)
	return &testAPI{t: t, engine: engine}
}

type response struct {
	*httptest.ResponseRecorder
}

func (r response) decode(dst any) {
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(r.Body.Bytes(), &env); err != nil {
		panic(err)
	}
	if err := json.Unmarshal(env.Data, dst); err != nil {
		panic(err)
	}
}

func (r response) errorCode() apperrors.ErrorCode {
	var body apperrors.ErrorResponse
	_ = json.Unmarshal(r.Body.Bytes(), &body)
	return body.Error.Code
}

func (a *testAPI) do(method, path, authorization string, body any) response {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			a.t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rr := httptest.NewRecorder()
	a.engine.ServeHTTP(rr, req)
	return response{rr}
}

func (a *testAPI) form(path string, values url.Values) response {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	a.engine.ServeHTTP(rr, req)
	return response{rr}
}

func (a *testAPI) register(name, email, pw, visibility string) domain.User {
	a.t.Helper()
	rr := a.do(http.MethodPost, "/api/v1/users", "", map[string]string{
		"name": name, "email": email, "password": pw, "visibility": visibility,
	})
	if rr.Code != http.StatusCreated {
		a.t.Fatalf("register %s: %d %s", email, rr.Code, rr.Body.String())
	}
	var u domain.User
	rr.decode(&u)
	return u
}

func basic(email, pw string) string { return "Basic " + auth.BasicCredentials(email, pw) }

func (a *testAPI) login(email, pw string) string {
	a.t.Helper()
	rr := a.do(http.MethodPost, "/api/v1/tokens", basic(email, pw), nil)
	if rr.Code != http.StatusCreated {
		a.t.Fatalf("login: %d %s", rr.Code, rr.Body.String())
	}
	var tok tokenResponse
	rr.decode(&tok)
	if tok.TokenType != "Bearer" || tok.AccessToken == "" || tok.ExpiresIn <= 0 || tok.ExpiresIn > 600 {
		a.t.Fatalf("unexpected token response %+v", tok)
	}
	return "Bearer " + tok.AccessToken
}

func TestRegister(t *testing.T) {
	a := newTestAPI(t)
	u := a.register("Ann", "Ann@Example.com", "correct horse", "")
	if u.Email != "ann@example.com" || u.Visibility != domain.VisibilityPrivate {
		t.Errorf("unexpected user %+v", u)
	}
	if strings.Contains(a.do(http.MethodGet, "/api/v1/users/me", basic("ann@example.com", "correct horse"), nil).Body.String(), "password") {
		t.Error("credential fields must not be rendered")
	}

	tests := []struct {
		name     string
		body     map[string]string
		wantCode int
		wantErr  apperrors.ErrorCode
	}{
		{"duplicate email", map[string]string{"name": "Ann", "email": "ANN@example.com", "password": "correct horse"}, http.StatusConflict, apperrors.ErrCodeAlreadyExisting},
		{"short password", map[string]string{"name": "Bob", "email": "bob@example.com", "password": "short"}, http.StatusBadRequest, apperrors.ErrCodeUnsecurePassword},
		{"blank password", map[string]string{"name": "Bob", "email": "bob@example.com", "password": "        "}, http.StatusBadRequest, apperrors.ErrCodeUnsecurePassword},
		{"empty password", map[string]string{"name": "Bob", "email": "bob@example.com", "password": ""}, http.StatusBadRequest, apperrors.ErrCodeUnsecurePassword},
		{"missing password", map[string]string{"name": "Bob", "email": "bob@example.com"}, http.StatusBadRequest, apperrors.ErrCodeUnsecurePassword},
		{"bad email", map[string]string{"name": "Bob", "email": "bob", "password": "correct horse"}, http.StatusBadRequest, ""},
		{"bad visibility", map[string]string{"name": "Bob", "email": "bob@example.com", "password": "correct horse", "visibility": "FRIENDS"}, http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := a.do(http.MethodPost, "/api/v1/users", "", tt.body)
			if rr.Code != tt.wantCode {
				t.Fatalf("code = %d, want %d: %s", rr.Code, tt.wantCode, rr.Body.String())
			}
			if tt.wantErr != "" && rr.errorCode() != tt.wantErr {
				t.Errorf("error code = %s, want %s", rr.errorCode(), tt.wantErr)
			}
		})
	}
}

func TestProtectedRoutesChallenge(t *testing.T) {
	a := newTestAPI(t)
	for _, path := range []string{"/api/v1/users/me", "/api/v1/clientapps"} {
		rr := a.do(http.MethodGet, path, "", nil)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("%s: code = %d", path, rr.Code)
		}
		got := rr.Header().Values("WWW-Authenticate")
		if len(got) != 2 || !strings.HasPrefix(got[0], "Basic ") || !strings.HasPrefix(got[1], "Bearer ") {
			t.Errorf("%s: challenges = %v", path, got)
		}
	}
}

func TestProfileLifecycle(t *testing.T) {
	a := newTestAPI(t)
	ann := a.register("Ann", "ann@example.com", "correct horse", "PRIVATE")
	bob := a.register("Bob", "bob@example.com", "battery staple", "PUBLIC")
	annToken := a.login("ann@example.com", "correct horse")

	rr := a.do(http.MethodGet, "/api/v1/users/me", annToken, nil)
	var me domain.User
	rr.decode(&me)
	if rr.Code != http.StatusOK || me.ID != ann.ID {
		t.Fatalf("me: %d %+v", rr.Code, me)
	}

	// visibility
	if rr := a.do(http.MethodGet, "/api/v1/users/"+bob.ID.String(), "", nil); rr.Code != http.StatusOK {
		t.Errorf("public profile: %d", rr.Code)
	}
	if rr := a.do(http.MethodGet, "/api/v1/users/"+ann.ID.String(), basic("bob@example.com", "battery staple"), nil); rr.Code != http.StatusNotFound {
		t.Errorf("private profile to others: %d", rr.Code)
	}
	if rr := a.do(http.MethodGet, "/api/v1/users/"+ann.ID.String(), annToken, nil); rr.Code != http.StatusOK {
		t.Errorf("private profile to owner: %d", rr.Code)
	}
	if rr := a.do(http.MethodGet, "/api/v1/users/not-a-uuid", "", nil); rr.Code != http.StatusBadRequest {
		t.Errorf("bad id: %d", rr.Code)
	}

	// update keeps the email
	rr = a.do(http.MethodPut, "/api/v1/users/me", annToken, map[string]string{"name": "Annie", "visibility": "PUBLIC"})
	var updated domain.User
	rr.decode(&updated)
	if rr.Code != http.StatusOK || updated.Name != "Annie" || updated.Email != "ann@example.com" || !updated.IsPublic() {
		t.Fatalf("update: %d %+v", rr.Code, updated)
	}

	// password change
	rr = a.do(http.MethodPut, "/api/v1/users/me/password", annToken, map[string]string{"current_password": "wrong", "new_password": "tr0ub4dor&3"})
	if rr.Code != http.StatusBadRequest || rr.errorCode() != apperrors.ErrCodeInvalidInput {
		t.Fatalf("wrong current password: %d %s", rr.Code, rr.Body.String())
	}
	for _, blank := range []string{"", "   "} {
		rr = a.do(http.MethodPut, "/api/v1/users/me/password", annToken, map[string]string{"current_password": "correct horse", "new_password": blank})
		if rr.Code != http.StatusBadRequest || rr.errorCode() != apperrors.ErrCodeUnsecurePassword {
			t.Fatalf("blank new password %q: %d %s", blank, rr.Code, rr.Body.String())
		}
	}
	rr = a.do(http.MethodPut, "/api/v1/users/me/password", annToken, map[string]string{"current_password": "correct horse", "new_password": "tr0ub4dor&3"})
	if rr.Code != http.StatusOK {
		t.Fatalf("change password: %d %s", rr.Code, rr.Body.String())
	}
	if rr := a.do(http.MethodGet, "/api/v1/users/me", basic("ann@example.com", "correct horse"), nil); rr.Code != http.StatusUnauthorized {
		t.Errorf("old password still accepted: %d", rr.Code)
	}
	if rr := a.do(http.MethodGet, "/api/v1/users/me", basic("ann@example.com", "tr0ub4dor&3"), nil); rr.Code != http.StatusOK {
		t.Errorf("new password rejected: %d", rr.Code)
	}

	// delete
	if rr := a.do(http.MethodDelete, "/api/v1/users/me", annToken, nil); rr.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", rr.Code)
	}
	if rr := a.do(http.MethodGet, "/api/v1/users/me", annToken, nil); rr.Code != http.StatusUnauthorized {
		t.Errorf("token of deleted user still resolves: %d", rr.Code)
	}
}

func TestIssueTokenRequiresBasic(t *testing.T) {
	a := newTestAPI(t)
	a.register("Ann", "ann@example.com", "correct horse", "")
	token := a.login("ann@example.com", "correct horse")

	rr := a.do(http.MethodPost, "/api/v1/tokens", token, nil)
	if rr.Code != http.StatusUnauthorized || !strings.HasPrefix(rr.Header().Get("WWW-Authenticate"), "Basic ") {
		t.Fatalf("bearer login: %d %v", rr.Code, rr.Header().Values("WWW-Authenticate"))
	}
}

func TestCredentialRateLimitCountsRejectedLogins(t *testing.T) {
	a := newTestAPI(t, func(d *Deps) { d.RateLimit = 3 })
	a.register("Ann", "ann@example.com", "correct horse", "")

	for i := 0; i < 2; i++ {
		rr := a.do(http.MethodPost, "/api/v1/tokens", basic("ann@example.com", "wrong horse"), nil)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: code = %d, want 401", i+1, rr.Code)
		}
	}
	rr := a.do(http.MethodPost, "/api/v1/tokens", basic("ann@example.com", "correct horse"), nil)
	if rr.Code != http.StatusTooManyRequests || rr.errorCode() != apperrors.ErrCodeRateLimited {
		t.Fatalf("over budget: %d %s", rr.Code, rr.Body.String())
	}

	rr = a.form("/oauth2/token", url.Values{"grant_type": {"authorization_code"}, "code": {"nope"}})
	if rr.Code != http.StatusTooManyRequests {
		t.Errorf("oauth2 shares the budget: code = %d", rr.Code)
	}
	rr = a.do(http.MethodGet, "/api/v1/users/me", basic("ann@example.com", "correct horse"), nil)
	if rr.Code != http.StatusOK {
		t.Errorf("unlimited route: code = %d", rr.Code)
	}
}

func createApp(t *testing.T, a *testAPI, authorization string) clientAppWithSecret {
	t.Helper()
	rr := a.do(http.MethodPost, "/api/v1/clientapps", authorization, map[string]string{
		"name": "Shopper", "redirect_uri": "https://shopper.example.com/cb",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create app: %d %s", rr.Code, rr.Body.String())
	}
	var app clientAppWithSecret
	rr.decode(&app)
	if app.ClientSecret == "" {
		t.Fatal("secret not returned on creation")
	}
	return app
}

func TestClientApps(t *testing.T) {
	a := newTestAPI(t)
	a.register("Ann", "ann@example.com", "correct horse", "")
	a.register("Bob", "bob@example.com", "battery staple", "")
	ann := a.login("ann@example.com", "correct horse")
	bob := a.login("bob@example.com", "battery staple")

	app := createApp(t, a, ann)
	path := "/api/v1/clientapps/" + app.ID.String()

	rr := a.do(http.MethodGet, "/api/v1/clientapps", ann, nil)
	var apps []domain.ClientApp
	rr.decode(&apps)
	if len(apps) != 1 || apps[0].ID != app.ID {
		t.Fatalf("list: %s", rr.Body.String())
	}
	if strings.Contains(rr.Body.String(), "client_secret") {
		t.Error("list must not render secrets")
	}
	rr = a.do(http.MethodGet, "/api/v1/clientapps", bob, nil)
	rr.decode(&apps)
	if len(apps) != 0 {
		t.Errorf("bob sees %d apps", len(apps))
	}

	for _, m := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		if rr := a.do(m, path, bob, map[string]string{"name": "x"}); rr.Code != http.StatusForbidden {
			t.Errorf("%s by non-owner: %d", m, rr.Code)
		}
	}

	rr = a.do(http.MethodPut, path, ann, map[string]string{"name": "Shopper 2"})
	var updated domain.ClientApp
	rr.decode(&updated)
	if rr.Code != http.StatusOK || updated.Name != "Shopper 2" || updated.RedirectURI != app.RedirectURI {
		t.Fatalf("update: %d %+v", rr.Code, updated)
	}

	rr = a.do(http.MethodPut, path+"/secret", ann, nil)
	var rotated clientAppWithSecret
	rr.decode(&rotated)
	if rr.Code != http.StatusOK || rotated.ClientSecret == "" || rotated.ClientSecret == app.ClientSecret {
		t.Fatalf("rotate: %d %s", rr.Code, rr.Body.String())
	}

	if rr := a.do(http.MethodDelete, path, ann, nil); rr.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", rr.Code)
	}
	if rr := a.do(http.MethodGet, path, ann, nil); rr.Code != http.StatusNotFound {
		t.Errorf("deleted app: %d", rr.Code)
	}
}

func authorize(t *testing.T, a *testAPI, authorization string, app clientAppWithSecret) string {
	t.Helper()
	rr := a.do(http.MethodPost, "/oauth2/authorize", authorization, map[string]string{
		"client_id": app.ID.String(), "state": "xyz",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("authorize: %d %s", rr.Code, rr.Body.String())
	}
	var resp authorizeResponse
	rr.decode(&resp)
	if resp.Code == "" || resp.State != "xyz" || resp.RedirectURI != app.RedirectURI {
		t.Fatalf("unexpected authorize response %+v", resp)
	}
	return resp.Code
}

func TestAuthorizationCodeFlow(t *testing.T) {
	a := newTestAPI(t)
	ann := a.register("Ann", "ann@example.com", "correct horse", "")
	annBasic := basic("ann@example.com", "correct horse")
	app := createApp(t, a, annBasic)

	code := authorize(t, a, annBasic, app)
	exchange := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"client_id":     {app.ID.String()},
		"client_secret": {app.ClientSecret},
	}

	bad := url.Values{}
	for k, v := range exchange {
		bad[k] = v
	}
	bad.Set("client_secret", "wrong")
	if rr := a.form("/oauth2/token", bad); rr.Code != http.StatusUnauthorized || rr.errorCode() != apperrors.ErrCodeInvalidClient {
		t.Fatalf("wrong secret: %d %s", rr.Code, rr.Body.String())
	}

	rr := a.form("/oauth2/token", exchange)
	if rr.Code != http.StatusOK {
		t.Fatalf("exchange: %d %s", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("Cache-Control") != "no-store" {
		t.Error("token responses must not be cached")
	}
	var tok tokenResponse
	rr.decode(&tok)
	if tok.ClientID != app.ID.String() {
		t.Errorf("client id = %q", tok.ClientID)
	}

	// single use
	if rr := a.form("/oauth2/token", exchange); rr.Code != http.StatusBadRequest || rr.errorCode() != apperrors.ErrCodeInvalidGrant {
		t.Fatalf("replayed code: %d %s", rr.Code, rr.Body.String())
	}

	bearer := "Bearer " + tok.AccessToken
	rr = a.do(http.MethodGet, "/api/v1/users/me", bearer, nil)
	var me domain.User
	rr.decode(&me)
	if me.ID != ann.ID {
		t.Fatalf("token resolves to %v", me.ID)
	}

	// refresh is bearer only
	if rr := a.do(http.MethodPost, "/oauth2/refresh", annBasic, nil); rr.Code != http.StatusUnauthorized {
		t.Errorf("refresh with basic: %d", rr.Code)
	}
	rr = a.do(http.MethodPost, "/oauth2/refresh", bearer, nil)
	var refreshed tokenResponse
	rr.decode(&refreshed)
	if rr.Code != http.StatusOK || refreshed.AccessToken != tok.AccessToken {
		t.Fatalf("refresh: %d %s", rr.Code, rr.Body.String())
	}

	if rr := a.do(http.MethodPost, "/oauth2/revoke", bearer, nil); rr.Code != http.StatusNoContent {
		t.Fatalf("revoke: %d", rr.Code)
	}
	if rr := a.do(http.MethodGet, "/api/v1/users/me", bearer, nil); rr.Code != http.StatusUnauthorized {
		t.Errorf("revoked token still resolves: %d", rr.Code)
	}
}

func TestAuthorizeValidation(t *testing.T) {
	a := newTestAPI(t)
	a.register("Ann", "ann@example.com", "correct horse", "")
	annBasic := basic("ann@example.com", "correct horse")
	app := createApp(t, a, annBasic)

	tests := []struct {
		name     string
		body     map[string]string
		wantCode int
	}{
		{"unknown client", map[string]string{"client_id": "9b2f0c3e-4b8a-4d55-9a39-1f0e6c7d8e9f"}, http.StatusUnauthorized},
		{"redirect mismatch", map[string]string{"client_id": app.ID.String(), "redirect_uri": "https://evil.example.com/cb"}, http.StatusBadRequest},
		{"malformed client id", map[string]string{"client_id": "nope"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rr := a.do(http.MethodPost, "/oauth2/authorize", annBasic, tt.body); rr.Code != tt.wantCode {
				t.Errorf("code = %d, want %d: %s", rr.Code, tt.wantCode, rr.Body.String())
			}
		})
	}
	if rr := a.do(http.MethodPost, "/oauth2/authorize", "", map[string]string{"client_id": app.ID.String()}); rr.Code != http.StatusUnauthorized {
		t.Errorf("anonymous authorize: %d", rr.Code)
	}
}

func TestRevokeIgnoresForeignTokens(t *testing.T) {
	a := newTestAPI(t)
	a.register("Ann", "ann@example.com", "correct horse", "")
	a.register("Bob", "bob@example.com", "battery staple", "")
	ann := a.login("ann@example.com", "correct horse")
	bob := a.login("bob@example.com", "battery staple")

	rr := a.do(http.MethodPost, "/oauth2/revoke", bob, map[string]string{"token": strings.TrimPrefix(ann, "Bearer ")})
	if rr.Code != http.StatusNoContent {
		t.Fatalf("revoke: %d", rr.Code)
	}
	if rr := a.do(http.MethodGet, "/api/v1/users/me", ann, nil); rr.Code != http.StatusOK {
		t.Errorf("foreign revoke took effect: %d", rr.Code)
	}
}
