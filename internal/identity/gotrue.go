package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// GoTrueConfig holds the settings of a GoTrue (Supabase Auth) server.
type GoTrueConfig struct {
	URL     string
	AnonKey string
	// RedirectURL is where password reset e-mails send the learner.
	RedirectURL string
}

// GoTrueProvider signs learners in against the GoTrue REST API.
type GoTrueProvider struct {
	client      *resty.Client
	tokens      TokenStore
	redirectURL string
	now         func() time.Time
	logger      *slog.Logger
	events      *broadcaster
}

// GoTrueOption configures a GoTrueProvider.
type GoTrueOption func(*GoTrueProvider)

// WithGoTrueClock replaces time.Now.
func WithGoTrueClock(now func() time.Time) GoTrueOption {
	return func(p *GoTrueProvider) {
		p.now = now
	}
}

// WithGoTrueLogger sets the logger.
func WithGoTrueLogger(logger *slog.Logger) GoTrueOption {
	return func(p *GoTrueProvider) {
		p.logger = logger
	}
}

// NewGoTrueProvider creates a provider. Sessions are kept in tokens.
func NewGoTrueProvider(cfg GoTrueConfig, tokens TokenStore, opts ...GoTrueOption) *GoTrueProvider {
	client := resty.New()
	client.SetBaseURL(strings.TrimRight(cfg.URL, "/") + "/auth/v1")
	client.SetHeader("apikey", cfg.AnonKey)
	client.SetHeader("Content-Type", "application/json")

	p := &GoTrueProvider{
		client:      client,
		tokens:      tokens,
		redirectURL: cfg.RedirectURL,
		now:         time.Now,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.events = newBroadcaster(p.logger)
	return p
}

type userResponse struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	EmailConfirmedAt *time.Time `json:"email_confirmed_at"`
	UserMetadata     struct {
		FullName string `json:"full_name"`
	} `json:"user_metadata"`
}

type tokenResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresIn    int64         `json:"expires_in"`
	ExpiresAt    int64         `json:"expires_at"`
	User         *userResponse `json:"user"`
}

// signUpResponse is a session when e-mail confirmation is disabled and a
// bare user otherwise.
type signUpResponse struct {
	userResponse
	tokenResponse
}

type errorResponse struct {
	ErrorName        string `json:"error"`
	ErrorDescription string `json:"error_description"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

func (p *GoTrueProvider) SignUp(ctx context.Context, email, password, fullName string) (*Identity, error) {
	body := map[string]any{
		"email":    email,
		"password": password,
		"data":     map[string]string{"full_name": fullName},
	}
	var result signUpResponse
	response, err := p.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&result).
		Post("/signup")
	if err != nil {
		return nil, fmt.Errorf("client.R.Post(/signup) > %w", err)
	}
	if response.IsError() {
		return nil, responseError(response)
	}

	if result.AccessToken != "" && result.tokenResponse.User != nil {
		session, err := p.newSession(result.tokenResponse)
		if err != nil {
			return nil, err
		}
		if err := p.tokens.Save(session); err != nil {
			return nil, fmt.Errorf("save session: %w", err)
		}
		p.events.publish(Event{Type: EventSignedIn, Session: session})
		identity := session.Identity
		return &identity, nil
	}

	identity, err := toIdentity(result.userResponse)
	if err != nil {
		return nil, err
	}
	p.logger.Info("signed up, waiting for e-mail confirmation", "user_id", identity.ID)
	return &identity, nil
}

func (p *GoTrueProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	session, err := p.grantToken(ctx, "password", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	if err := p.tokens.Save(session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	p.logger.Info("signed in", "user_id", session.Identity.ID)
	p.events.publish(Event{Type: EventSignedIn, Session: session})
	return session, nil
}

// SignOut revokes the session. An access token the server no longer accepts
// still signs the learner out locally.
func (p *GoTrueProvider) SignOut(ctx context.Context) error {
	session, err := p.tokens.Load()
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}

	if session != nil {
		response, err := p.client.R().
			SetContext(ctx).
			SetAuthToken(session.AccessToken).
			Post("/logout")
		if err != nil {
			return fmt.Errorf("client.R.Post(/logout) > %w", err)
		}
		if response.IsError() &&
			response.StatusCode() != http.StatusUnauthorized &&
			response.StatusCode() != http.StatusNotFound {
			return responseError(response)
		}
	}

	if err := p.tokens.Clear(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	p.logger.Info("signed out")
	p.events.publish(Event{Type: EventSignedOut})
	return nil
}

// CurrentSession returns the saved session, refreshed when the access token
// has expired. A refresh token the server rejects signs the learner out.
func (p *GoTrueProvider) CurrentSession(ctx context.Context) (*Session, error) {
	session, err := p.tokens.Load()
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session == nil || !session.Expired(p.now()) {
		return session, nil
	}

	refreshed, err := p.grantToken(ctx, "refresh_token", map[string]string{
		"refresh_token": session.RefreshToken,
	})
	if err != nil {
		var authErr *AuthError
		if !errors.As(err, &authErr) {
			return nil, err
		}
		p.logger.Warn("refresh token was rejected", "user_id", session.Identity.ID, "error", err)
		if err := p.tokens.Clear(); err != nil {
			return nil, fmt.Errorf("clear session: %w", err)
		}
		p.events.publish(Event{Type: EventSignedOut})
		return nil, nil
	}
	if err := p.tokens.Save(refreshed); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	p.events.publish(Event{Type: EventTokenRefreshed, Session: refreshed})
	return refreshed, nil
}

// Subscribe emits EventSignedIn for a saved session, EventSignedOut otherwise,
// followed by every later change.
func (p *GoTrueProvider) Subscribe(ctx context.Context) (<-chan Event, func()) {
	initial := Event{Type: EventSignedOut}
	session, err := p.tokens.Load()
	if err != nil {
		p.logger.Warn("cannot read the saved session", "error", err)
	} else if session != nil {
		initial = Event{Type: EventSignedIn, Session: session}
	}
	return p.events.subscribe(initial)
}

func (p *GoTrueProvider) ResetPassword(ctx context.Context, email string) error {
	request := p.client.R().
		SetContext(ctx).
		SetBody(map[string]string{"email": email})
	if p.redirectURL != "" {
		request.SetQueryParam("redirect_to", p.redirectURL)
	}
	response, err := request.Post("/recover")
	if err != nil {
		return fmt.Errorf("client.R.Post(/recover) > %w", err)
	}
	if response.IsError() {
		return responseError(response)
	}
	return nil
}

// VerifyEmail reloads the signed-in identity and reports whether its e-mail
// address was confirmed. A newly confirmed address emits EventUserUpdated.
func (p *GoTrueProvider) VerifyEmail(ctx context.Context) (bool, error) {
	session, err := p.CurrentSession(ctx)
	if err != nil {
		return false, err
	}
	if session == nil {
		return false, &AuthError{Code: "session_missing", Message: "Auth session missing!"}
	}

	var user userResponse
	response, err := p.client.R().
		SetContext(ctx).
		SetAuthToken(session.AccessToken).
		SetResult(&user).
		Get("/user")
	if err != nil {
		return false, fmt.Errorf("client.R.Get(/user) > %w", err)
	}
	if response.IsError() {
		return false, responseError(response)
	}

	identity, err := toIdentity(user)
	if err != nil {
		return false, err
	}
	if !identity.Confirmed() {
		return false, nil
	}

	wasConfirmed := session.Identity.Confirmed()
	session.Identity = identity
	if err := p.tokens.Save(session); err != nil {
		return true, fmt.Errorf("save session: %w", err)
	}
	if !wasConfirmed {
		p.events.publish(Event{Type: EventUserUpdated, Session: session})
	}
	return true, nil
}

func (p *GoTrueProvider) grantToken(ctx context.Context, grantType string, body map[string]string) (*Session, error) {
	var result tokenResponse
	response, err := p.client.R().
		SetContext(ctx).
		SetQueryParam("grant_type", grantType).
		SetBody(body).
		SetResult(&result).
		Post("/token")
	if err != nil {
		return nil, fmt.Errorf("client.R.Post(/token) > %w", err)
	}
	if response.IsError() {
		return nil, responseError(response)
	}
	return p.newSession(result)
}

func (p *GoTrueProvider) newSession(result tokenResponse) (*Session, error) {
	if result.AccessToken == "" || result.User == nil {
		return nil, fmt.Errorf("token response has no session")
	}
	identity, err := toIdentity(*result.User)
	if err != nil {
		return nil, err
	}

	expiresAt := p.now().Add(time.Duration(result.ExpiresIn) * time.Second)
	if result.ExpiresAt > 0 {
		expiresAt = time.Unix(result.ExpiresAt, 0)
	}
	return &Session{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		ExpiresAt:    expiresAt,
		Identity:     identity,
	}, nil
}

func toIdentity(user userResponse) (Identity, error) {
	id, err := ParseID(user.ID)
	if err != nil {
		return Identity{}, err
	}
	return Identity{
		ID:               id,
		Email:            user.Email,
		FullName:         user.UserMetadata.FullName,
		EmailConfirmedAt: user.EmailConfirmedAt,
	}, nil
}

// responseError turns a 4xx response into an AuthError. Other failures are
// returned as plain errors.
func responseError(response *resty.Response) error {
	if response.StatusCode() >= http.StatusInternalServerError {
		return fmt.Errorf("response error %d: %s", response.StatusCode(), response.String())
	}

	var body errorResponse
	if err := json.Unmarshal(response.Body(), &body); err != nil {
		return &AuthError{Message: response.String()}
	}
	authErr := &AuthError{Code: body.ErrorCode, Message: body.ErrorDescription}
	if authErr.Code == "" {
		authErr.Code = body.ErrorName
	}
	for _, message := range []string{body.Msg, body.Message, response.String()} {
		if authErr.Message != "" {
			break
		}
		authErr.Message = message
	}
	return authErr
}
