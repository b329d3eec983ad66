package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/benvon/codemate/internal/apperror"
	"github.com/benvon/codemate/internal/forum"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New(validator.WithRequiredStructEnabled())

	// Report json field names so error messages match the request body.
	Validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	custom := map[string]validator.Func{
		"vote_action":     validateVoteAction,
		"question_filter": validateQuestionFilter,
		"answer_sort":     validateAnswerSort,
		"search_type":     validateSearchType,
		"tag_name":        validateTagName,
	}
	for name, fn := range custom {
		if err := Validate.RegisterValidation(name, fn); err != nil {
			panic(fmt.Sprintf("failed to register %s validator: %v", name, err))
		}
	}
}

func validateVoteAction(fl validator.FieldLevel) bool {
	_, err := forum.ParseVoteAction(fl.Field().String())
	return err == nil
}

func validateQuestionFilter(fl validator.FieldLevel) bool {
	_, err := forum.ParseFilter(fl.Field().String())
	return err == nil
}

func validateAnswerSort(fl validator.FieldLevel) bool {
	_, err := forum.ParseAnswerSort(fl.Field().String())
	return err == nil
}

func validateSearchType(fl validator.FieldLevel) bool {
	_, err := forum.PlanSearch(fl.Field().String())
	return err == nil
}

// validateTagName accepts 1 to 15 characters without inner whitespace.
func validateTagName(fl validator.FieldLevel) bool {
	name := strings.TrimSpace(fl.Field().String())
	n := len([]rune(name))
	if n < 1 || n > 15 {
		return false
	}
	return !strings.ContainsFunc(name, unicode.IsSpace)
}

// Struct validates v and reports the first failing field as InvalidInput.
func Struct(v any) error {
	err := Validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperror.InvalidInput("", err.Error())
	}
	fe := verrs[0]
	return apperror.InvalidInput(fieldPath(fe), describe(fe))
}

// fieldPath drops the root struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func describe(fe validator.FieldError) string {
	field := fieldPath(fe)
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s needs at least %s items", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s allows at most %s items", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "tag_name":
		return field + " must be 1 to 15 characters without spaces"
	case "vote_action":
		return field + " must be upvote or downvote"
	case "question_filter":
		return field + " must be one of newest, frequent, unanswered, recommended"
	case "answer_sort":
		return field + " must be one of highestUpvotes, lowestUpvotes, recent, old"
	case "search_type":
		return field + " must be one of question, answer, user, tag"
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

// SanitizeText trims whitespace and removes control characters except
// newline and tab.
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return -1
		}
		return r
	}, text)
}
