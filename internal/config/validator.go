package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
)

// Messages of the tags registered on top of the validator defaults. {0} is
// the dotted config key.
var customMessages = map[string]string{
	"file":                  "{0} must be an existing and readable file",
	"required_for_supabase": "{0} is required when storage.backend is supabase",
}

func newValidator() (*validator.Validate, ut.Translator, error) {
	validate := validator.New()
	validate.RegisterTagNameFunc(configKey)

	enLocale := en.New()
	trans, _ := ut.New(enLocale, enLocale).GetTranslator("en")
	if err := enTranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, nil, fmt.Errorf("failed to register default translations: %w", err)
	}

	if err := validate.RegisterValidation("file", isFileReadable); err != nil {
		return nil, nil, fmt.Errorf("failed to register file validation: %w", err)
	}
	validate.RegisterStructValidation(validateSupabaseBackend, Config{})

	for tag, message := range customMessages {
		if err := registerMessage(validate, trans, tag, message); err != nil {
			return nil, nil, fmt.Errorf("failed to register %s translation: %w", tag, err)
		}
	}
	return validate, trans, nil
}

// configKey names struct fields after their mapstructure key.
func configKey(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("mapstructure"), ",")
	if name == "-" {
		return ""
	}
	return name
}

func registerMessage(validate *validator.Validate, trans ut.Translator, tag, message string) error {
	return validate.RegisterTranslation(tag, trans,
		func(ut ut.Translator) error {
			return ut.Add(tag, message, true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			t, _ := ut.T(fe.Tag(), strings.TrimPrefix(fe.Namespace(), "Config."))
			return t
		})
}

func isFileReadable(fl validator.FieldLevel) bool {
	path := fl.Field().String()
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	return info.Mode().Perm()&0o400 != 0
}

func validateSupabaseBackend(sl validator.StructLevel) {
	cfg := sl.Current().Interface().(Config)
	if cfg.Storage.Backend != BackendSupabase {
		return
	}
	if cfg.Supabase.URL == "" {
		sl.ReportError(cfg.Supabase.URL, "supabase.url", "URL", "required_for_supabase", "")
	}
	if cfg.Supabase.AnonKey == "" {
		sl.ReportError(cfg.Supabase.AnonKey, "supabase.anon_key", "AnonKey", "required_for_supabase", "")
	}
}
