// Package server exposes the progress engine and the identity provider as
// Connect RPC services.
//
// Messages are google.protobuf.Struct values, so any Connect, gRPC or gRPC-Web
// client can call the services without generated stubs.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/at-ishikawa/wordday/internal/identity"
	"github.com/at-ishikawa/wordday/internal/profile"
	"github.com/at-ishikawa/wordday/internal/session"
	"github.com/at-ishikawa/wordday/internal/vocabulary"
)

const (
	ProgressServiceName = "wordday.v1.ProgressService"
	AuthServiceName     = "wordday.v1.AuthService"
)

// Procedures of the progress service.
const (
	GetProgressProcedure       = "/" + ProgressServiceName + "/GetProgress"
	GetStatsProcedure          = "/" + ProgressServiceName + "/GetStats"
	GetDayWordsProcedure       = "/" + ProgressServiceName + "/GetDayWords"
	CompleteDayProcedure       = "/" + ProgressServiceName + "/CompleteDay"
	IncrementAttemptsProcedure = "/" + ProgressServiceName + "/IncrementAttempts"
	GetHistoryProcedure        = "/" + ProgressServiceName + "/GetHistory"
)

// Procedures of the auth service.
const (
	SignUpProcedure        = "/" + AuthServiceName + "/SignUp"
	SignInProcedure        = "/" + AuthServiceName + "/SignIn"
	SignOutProcedure       = "/" + AuthServiceName + "/SignOut"
	ResetPasswordProcedure = "/" + AuthServiceName + "/ResetPassword"
)

// ProviderFactory creates an identity provider keeping its session in tokens.
// The server creates one per request, so sessions are never shared between
// callers.
type ProviderFactory func(tokens identity.TokenStore) identity.Provider

// Handler serves both services.
type Handler struct {
	table       vocabulary.Table
	plan        vocabulary.Plan
	trackers    *session.Manager
	profiles    profile.Repository
	newProvider ProviderFactory
	auth        *Authenticator
	validate    *requestValidator
	now         func() time.Time
	logger      *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) {
		h.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithProfiles creates the profile of every learner who signs up or in.
func WithProfiles(profiles profile.Repository) Option {
	return func(h *Handler) {
		h.profiles = profiles
	}
}

// NewHandler creates a Handler.
func NewHandler(
	table vocabulary.Table,
	plan vocabulary.Plan,
	trackers *session.Manager,
	newProvider ProviderFactory,
	auth *Authenticator,
	opts ...Option,
) (*Handler, error) {
	validate, err := newRequestValidator()
	if err != nil {
		return nil, err
	}

	h := &Handler{
		table:       table,
		plan:        plan,
		trackers:    trackers,
		newProvider: newProvider,
		auth:        auth,
		validate:    validate,
		now:         time.Now,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

type unaryFunc func(ctx context.Context, caller Caller, msg *structpb.Struct) (map[string]any, error)

// Register mounts every procedure on mux.
func (h *Handler) Register(mux *http.ServeMux, opts ...connect.HandlerOption) {
	opts = append([]connect.HandlerOption{connect.WithInterceptors(h.auth.Interceptor())}, opts...)

	routes := map[string]unaryFunc{
		GetProgressProcedure:       h.getProgress,
		GetStatsProcedure:          h.getStats,
		GetDayWordsProcedure:       h.getDayWords,
		CompleteDayProcedure:       h.completeDay,
		IncrementAttemptsProcedure: h.incrementAttempts,
		GetHistoryProcedure:        h.getHistory,
		SignUpProcedure:            h.signUp,
		SignInProcedure:            h.signIn,
		SignOutProcedure:           h.signOut,
		ResetPasswordProcedure:     h.resetPassword,
	}
	for procedure, fn := range routes {
		mux.Handle(procedure, connect.NewUnaryHandler(procedure, h.unary(fn), opts...))
	}
}

func (h *Handler) unary(fn unaryFunc) func(context.Context, *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	return func(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
		result, err := fn(ctx, CallerFrom(ctx), req.Msg)
		if err != nil {
			return nil, h.toConnectError(req.Spec().Procedure, err)
		}
		msg, err := structpb.NewStruct(result)
		if err != nil {
			return nil, connect.NewError(connect.CodeInternal, fmt.Errorf("encode response: %w", err))
		}
		return connect.NewResponse(msg), nil
	}
}

// CORS allows browser clients from origins to call the services.
func CORS(origins []string, next http.Handler) http.Handler {
	allowed := make(map[string]bool, len(origins))
	for _, origin := range origins {
		allowed[strings.TrimRight(origin, "/")] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowed[origin] || allowed["*"] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Connect-Protocol-Version, Connect-Timeout-Ms")
			w.Header().Set("Access-Control-Expose-Headers", "Grpc-Status, Grpc-Message, Grpc-Status-Details-Bin")
			w.Header().Set("Access-Control-Max-Age", "3600")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
