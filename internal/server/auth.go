package server

import (
	"context"
	"errors"
	"strings"

	"connectrpc.com/connect"

	"github.com/at-ishikawa/wordday/internal/identity"
	"github.com/at-ishikawa/wordday/internal/storage"
	"github.com/at-ishikawa/wordday/internal/supabase"
)

var errMissingToken = errors.New("missing bearer token")

// Caller is the learner making a request.
type Caller struct {
	// Identity is nil for the local user.
	Identity    *identity.Identity
	AccessToken string
}

// UserID returns the id progress is stored under.
func (c Caller) UserID() string {
	if c.Identity == nil {
		return storage.LocalUserID
	}
	return c.Identity.ID
}

type callerKey struct{}

// CallerFrom returns the caller set by the authenticator. Requests that were
// not authenticated are the local user.
func CallerFrom(ctx context.Context) Caller {
	caller, _ := ctx.Value(callerKey{}).(Caller)
	return caller
}

// Authenticator resolves the caller from the Authorization header.
type Authenticator struct {
	jwtSecret      string
	allowLocalUser bool
	// public procedures accept anonymous callers even when the local user is
	// not allowed.
	public map[string]bool
}

// NewAuthenticator creates an Authenticator verifying tokens signed with
// jwtSecret.
func NewAuthenticator(jwtSecret string, allowLocalUser bool) *Authenticator {
	return &Authenticator{
		jwtSecret:      jwtSecret,
		allowLocalUser: allowLocalUser,
		public: map[string]bool{
			SignUpProcedure:        true,
			SignInProcedure:        true,
			ResetPasswordProcedure: true,
		},
	}
}

// Authenticate returns the caller of a request carrying header.
func (a *Authenticator) Authenticate(procedure, header string) (Caller, error) {
	token, ok := bearerToken(header)
	if !ok {
		if a.allowLocalUser || a.public[procedure] {
			return Caller{}, nil
		}
		return Caller{}, connect.NewError(connect.CodeUnauthenticated, errMissingToken)
	}

	ident, err := identity.VerifyToken(a.jwtSecret, token)
	if err != nil {
		if errors.Is(err, identity.ErrNotConfigured) {
			return Caller{}, connect.NewError(connect.CodeFailedPrecondition, err)
		}
		return Caller{}, connect.NewError(connect.CodeUnauthenticated, err)
	}
	return Caller{Identity: ident, AccessToken: token}, nil
}

// Interceptor authenticates every unary call. The access token is forwarded
// to the hosted data store so its row level security applies.
func (a *Authenticator) Interceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			caller, err := a.Authenticate(req.Spec().Procedure, req.Header().Get("Authorization"))
			if err != nil {
				return nil, err
			}
			ctx = context.WithValue(ctx, callerKey{}, caller)
			if caller.AccessToken != "" {
				ctx = supabase.WithAccessToken(ctx, caller.AccessToken)
			}
			return next(ctx, req)
		}
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
