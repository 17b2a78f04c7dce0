package model

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var AllowedUnits = []string{"MINUTES", "HOURS", "STEPS", "KM", "CAL", "PAGES", "BOOKS", "TASKS", "SESSIONS"}

var allowedBinaryUnits = []string{"TASKS", "SESSIONS"}

type FrequencyInput struct {
	TimesPerPeriod int           `json:"timesPerPeriod" validate:"gt=0"`
	Type           FrequencyType `json:"type" validate:"frequency_type"`
}

type TargetInput struct {
	Value int    `json:"value" validate:"gt=0"`
	Unit  string `json:"unit" validate:"required"`
}

type MilestoneInput struct {
	Target int `json:"target" validate:"gt=0"`
}

// CreateHabitInput is the body of POST /habits and PUT /habits/{id}.
type CreateHabitInput struct {
	Name        string          `json:"name" validate:"required,min=3,max=100"`
	Description *string         `json:"description" validate:"omitempty,max=500"`
	Type        HabitType       `json:"type" validate:"habit_type"`
	Frequency   FrequencyInput  `json:"frequency"`
	Target      TargetInput     `json:"target"`
	EndDate     *string         `json:"endDate" validate:"omitempty,datetime=2006-01-02"`
	Milestone   *MilestoneInput `json:"milestone" validate:"omitempty"`
}

type UpdateHabitInput = CreateHabitInput

type TagInput struct {
	Name        string  `json:"name" validate:"required,min=3,max=50"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

type UpsertHabitTagsInput struct {
	TagIDs []string `json:"tagIds" validate:"unique,dive,required"`
}

type RegisterInput struct {
	Email           string `json:"email" validate:"required,email"`
	Name            string `json:"name" validate:"required,max=100"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshInput struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type GitHubTokenInput struct {
	AccessToken   string `json:"accessToken" validate:"required"`
	ExpiresInDays int    `json:"expiresInDays" validate:"gte=1,lte=365"`
}

// ValidationErrors maps json field paths to messages.
type ValidationErrors map[string][]string

func (v ValidationErrors) Error() string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(v[k], "; "))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (v ValidationErrors) add(field, msg string) {
	v[field] = append(v[field], msg)
}

// Validator wraps validator/v10 with json field names and the habit rules
// that span more than one field.
type Validator struct {
	v   *validator.Validate
	now func() time.Time
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("habit_type", func(fl validator.FieldLevel) bool {
		return HabitType(fl.Field().Int()).Valid()
	})
	_ = v.RegisterValidation("frequency_type", func(fl validator.FieldLevel) bool {
		return FrequencyType(fl.Field().Int()).Valid()
	})
	return &Validator{v: v, now: time.Now}
}

// Struct validates any input; a non-nil result is ValidationErrors.
func (val *Validator) Struct(input any) error {
	errs := ValidationErrors{}
	val.collect(input, errs)
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Habit validates a create/update body including unit and end date rules.
func (val *Validator) Habit(in CreateHabitInput) error {
	errs := ValidationErrors{}
	val.collect(in, errs)

	unit := strings.ToUpper(strings.TrimSpace(in.Target.Unit))
	if unit != "" && !slices.Contains(AllowedUnits, unit) {
		errs.add("target.unit", "Target unit must be one of the following: "+strings.Join(AllowedUnits, ", ")+".")
	} else if unit != "" {
		switch in.Type {
		case HabitTypeBinary:
			if !slices.Contains(allowedBinaryUnits, unit) {
				errs.add("target.unit", "Binary habits only support units: "+strings.Join(allowedBinaryUnits, ", ")+".")
			}
		case HabitTypeMeasurable:
		default:
			errs.add("target.unit", "Target unit is not compatible with the habit type.")
		}
	}

	if in.EndDate != nil {
		if d, err := time.Parse(DateLayout, *in.EndDate); err == nil {
			today := val.now().UTC().Truncate(24 * time.Hour)
			if !d.After(today) {
				errs.add("endDate", "End date must be in the future.")
			}
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (val *Validator) collect(input any, errs ValidationErrors) {
	err := val.v.Struct(input)
	if err == nil {
		return
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs.add("", err.Error())
		return
	}
	for _, fe := range verrs {
		errs.add(fieldPath(fe), message(fe))
	}
}

// fieldPath drops the root struct name: "CreateHabitInput.target.value" -> "target.value".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required.", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters.", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters.", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s.", fe.Field(), fe.Param())
	case "gte", "lte":
		return fmt.Sprintf("%s is out of range.", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address.", fe.Field())
	case "eqfield":
		return fmt.Sprintf("%s must match %s.", fe.Field(), fe.Param())
	case "datetime":
		return fmt.Sprintf("%s must be a date in format %s.", fe.Field(), fe.Param())
	case "habit_type", "frequency_type":
		return fmt.Sprintf("%s must be a valid enum value.", fe.Field())
	case "unique":
		return fmt.Sprintf("%s must not contain duplicates.", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid (%s).", fe.Field(), fe.Tag())
	}
}
