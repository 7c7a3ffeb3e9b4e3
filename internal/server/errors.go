package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"connectrpc.com/connect"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/at-ishikawa/wordday/internal/identity"
	"github.com/at-ishikawa/wordday/internal/storage"
	"github.com/at-ishikawa/wordday/internal/vocabulary"
)

type requestValidator struct {
	validate   *validator.Validate
	translator ut.Translator
}

func newRequestValidator() (*requestValidator, error) {
	validate := validator.New()

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ := uni.GetTranslator("en")
	if err := enTranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, fmt.Errorf("failed to register default translations: %w", err)
	}
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &requestValidator{validate: validate, translator: trans}, nil
}

// decode fills req from the fields of msg and validates it. Violations become
// an InvalidArgument error with a BadRequest detail.
func (v *requestValidator) decode(msg *structpb.Struct, req any) error {
	if msg != nil {
		data, err := protojson.Marshal(msg)
		if err != nil {
			return connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("encode request: %w", err))
		}
		if err := json.Unmarshal(data, req); err != nil {
			return connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("decode request: %w", err))
		}
	}

	err := v.validate.Struct(req)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return connect.NewError(connect.CodeInvalidArgument, err)
	}

	var messages []string
	var fieldViolations []*errdetails.BadRequest_FieldViolation
	for _, e := range validationErrors {
		description := e.Translate(v.translator)
		messages = append(messages, description)
		fieldViolations = append(fieldViolations, &errdetails.BadRequest_FieldViolation{
			Field:       e.Field(),
			Description: description,
		})
	}

	connectErr := connect.NewError(connect.CodeInvalidArgument, errors.New(strings.Join(messages, ", ")))
	if detail, detailErr := connect.NewErrorDetail(&errdetails.BadRequest{
		FieldViolations: fieldViolations,
	}); detailErr == nil {
		connectErr.AddDetail(detail)
	}
	return connectErr
}

// toConnectError maps domain errors to Connect codes.
func (h *Handler) toConnectError(procedure string, err error) error {
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return connectErr
	}

	var authErr *identity.AuthError
	switch {
	case errors.Is(err, identity.ErrNotConfigured):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.As(err, &authErr):
		return connect.NewError(connect.CodeUnauthenticated, err)
	case errors.Is(err, storage.ErrPersistence):
		h.logger.Warn("persistence failure", "procedure", procedure, "error", err)
		return connect.NewError(connect.CodeUnavailable, err)
	case errors.Is(err, vocabulary.ErrWordNotFound), errors.Is(err, vocabulary.ErrDayNotPlanned):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	}
	h.logger.Error("request failed", "procedure", procedure, "error", err)
	return connect.NewError(connect.CodeInternal, err)
}
