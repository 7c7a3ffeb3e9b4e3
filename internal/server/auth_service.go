package server

import (
	"context"
	"errors"
	"time"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/at-ishikawa/wordday/internal/identity"
	"github.com/at-ishikawa/wordday/internal/profile"
	"github.com/at-ishikawa/wordday/internal/supabase"
)

type signUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	FullName string `json:"fullName" validate:"max=255"`
}

type signInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type resetPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (h *Handler) signUp(ctx context.Context, _ Caller, msg *structpb.Struct) (map[string]any, error) {
	var req signUpRequest
	if err := h.validate.decode(msg, &req); err != nil {
		return nil, err
	}

	provider := h.newProvider(&identity.MemoryTokenStore{})
	ident, err := provider.SignUp(ctx, req.Email, req.Password, req.FullName)
	if err != nil {
		return nil, err
	}
	if h.profiles != nil {
		// A missing profile is created again on the first sign in.
		if err := h.profiles.CreateIfAbsent(ctx, profile.New(*ident, h.now())); err != nil {
			h.logger.Warn("cannot create profile after sign up", "user_id", ident.ID, "error", err)
		}
	}

	return map[string]any{
		"user":                 identityFields(*ident),
		"confirmationRequired": !ident.Confirmed(),
	}, nil
}

func (h *Handler) signIn(ctx context.Context, _ Caller, msg *structpb.Struct) (map[string]any, error) {
	var req signInRequest
	if err := h.validate.decode(msg, &req); err != nil {
		return nil, err
	}

	provider := h.newProvider(&identity.MemoryTokenStore{})
	session, err := provider.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	ctx = supabase.WithAccessToken(ctx, session.AccessToken)

	result := map[string]any{
		"accessToken":  session.AccessToken,
		"refreshToken": session.RefreshToken,
		"expiresAt":    session.ExpiresAt.UTC().Format(time.RFC3339),
		"user":         identityFields(session.Identity),
		"displayName":  profile.DefaultDisplayName(session.Identity),
	}
	if h.profiles != nil {
		p, _, err := profile.Ensure(ctx, h.profiles, session.Identity, h.now())
		if err != nil {
			h.logger.Warn("cannot load profile", "user_id", session.Identity.ID, "error", err)
		} else if p != nil {
			result["displayName"] = p.FullName
		}
	}

	// Progress is loaded now so the first progress call of the client is served
	// from memory.
	if _, err := h.trackers.Tracker(ctx, session.Identity.ID); err != nil {
		h.logger.Warn("cannot load progress", "user_id", session.Identity.ID, "error", err)
	}
	return result, nil
}

func (h *Handler) signOut(ctx context.Context, caller Caller, _ *structpb.Struct) (map[string]any, error) {
	if caller.Identity == nil {
		return nil, connect.NewError(connect.CodeUnauthenticated, errors.New("not signed in"))
	}

	tokens := &identity.MemoryTokenStore{}
	if err := tokens.Save(&identity.Session{AccessToken: caller.AccessToken, Identity: *caller.Identity}); err != nil {
		return nil, err
	}
	if err := h.newProvider(tokens).SignOut(ctx); err != nil {
		return nil, err
	}
	h.trackers.Forget(caller.UserID())
	return map[string]any{}, nil
}

func (h *Handler) resetPassword(ctx context.Context, _ Caller, msg *structpb.Struct) (map[string]any, error) {
	var req resetPasswordRequest
	if err := h.validate.decode(msg, &req); err != nil {
		return nil, err
	}
	if err := h.newProvider(&identity.MemoryTokenStore{}).ResetPassword(ctx, req.Email); err != nil {
		return nil, err
	}
	return map[string]any{}, nil
}

func identityFields(ident identity.Identity) map[string]any {
	var confirmedAt any
	if ident.EmailConfirmedAt != nil {
		confirmedAt = ident.EmailConfirmedAt.UTC().Format(time.RFC3339)
	}
	return map[string]any{
		"id":               ident.ID,
		"email":            ident.Email,
		"fullName":         ident.FullName,
		"emailConfirmedAt": confirmedAt,
	}
}
