package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/yungbote/langqc-backend/internal/pkg/errors"
)

type ClaimRequest struct {
	ProductID string `json:"id_product" validate:"required,len=64,hexadecimal"`
	// QcType defaults to sequencing.
	QcType string `json:"qc_type" validate:"omitempty,max=10"`
	User   string `json:"user" validate:"required,max=255"`
}

type AssignRequest struct {
	ProductID     string `json:"id_product" validate:"required,len=64,hexadecimal"`
	QcType        string `json:"qc_type" validate:"required,max=10"`
	QcState       string `json:"qc_state" validate:"required,max=255"`
	IsPreliminary bool   `json:"is_preliminary"`
	User          string `json:"user" validate:"required,max=255"`
	// Context is stored as created_by; empty means the application name.
	Context string `json:"context" validate:"max=20"`
	// DateUpdated replaces "now" for backfills.
	DateUpdated *time.Time `json:"date_updated,omitempty"`
}

type Page struct {
	PageSize   int `json:"page_size" validate:"min=1"`
	PageNumber int `json:"page_number" validate:"min=1"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// validateStruct maps the first validation failure to InvalidArgument.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		fe := ve[0]
		return apperrors.InvalidArgument(fe.Field(), fmt.Sprint(fe.Value()), describeTag(fe))
	}
	return fmt.Errorf("validate %T: %w", s, err)
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "len":
		return "must be " + fe.Param() + " characters long"
	case "hexadecimal":
		return "must be hexadecimal"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	default:
		return "failed " + fe.Tag() + " validation"
	}
}
