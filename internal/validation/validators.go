package validation

import (
	stderrors "errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/julianstephens/tally/internal/errors"
	"github.com/julianstephens/tally/internal/models"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	// Register custom validators for the closed enums
	for tag, fn := range map[string]validator.Func{
		"item_kind":       validateItemKind,
		"recurrence_kind": validateRecurrenceKind,
		"log_status":      validateLogStatus,
		"aggregation":     validateAggregation,
	} {
		if err := Validate.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("failed to register %s validator: %v", tag, err))
		}
	}
}

func validateItemKind(fl validator.FieldLevel) bool {
	return models.ItemKind(fl.Field().String()).IsValid()
}

func validateRecurrenceKind(fl validator.FieldLevel) bool {
	return models.RecurrenceKind(fl.Field().String()).IsValid()
}

func validateLogStatus(fl validator.FieldLevel) bool {
	return models.LogStatus(fl.Field().String()).IsValid()
}

// validateAggregation accepts the empty string, which means sum.
func validateAggregation(fl validator.FieldLevel) bool {
	switch models.AggregationMode(fl.Field().String()) {
	case "", models.AggregateSum, models.AggregateAverage:
		return true
	default:
		return false
	}
}

// ValidateConfig checks a structural config before it is written.
func ValidateConfig(cfg models.Config) error {
	if err := structErr(Validate.Struct(cfg)); err != nil {
		return err
	}
	if cfg.Recurrence.Kind == models.RecurrenceOnDate && cfg.Recurrence.Date == nil {
		return errors.Invalid("on-date recurrence needs a date")
	}
	if cfg.Kind == models.KindContainer {
		if cfg.ParentID != "" {
			return errors.Invalid("containers cannot be nested")
		}
		if len(cfg.Slots) > 0 {
			return errors.Invalid("containers do not have time slots")
		}
	}
	if cfg.Kind == models.KindCumulative && len(cfg.Slots) > 0 {
		return errors.Invalid("cumulative counters do not have time slots")
	}
	seen := map[string]bool{}
	for _, slot := range cfg.Slots {
		if seen[slot.ID] {
			return errors.Invalid("duplicate time slot %q", slot.ID)
		}
		seen[slot.ID] = true
	}
	return nil
}

// ValidateItem checks an item's display fields and its config.
func ValidateItem(item models.Item) error {
	item.Name = SanitizeText(item.Name)
	if item.Name == "" {
		return errors.Invalid("name is required")
	}
	if err := structErr(Validate.Struct(item)); err != nil {
		return err
	}
	return ValidateConfig(item.Config)
}

// ValidateLog checks a log record before it is written.
func ValidateLog(l models.Log) error {
	if err := structErr(Validate.Struct(l)); err != nil {
		return err
	}
	if l.Status == models.LogSkipped && l.Value != nil {
		return errors.Invalid("a skipped log cannot carry a value")
	}
	return nil
}

// SanitizeText trims whitespace and strips control characters except newline and tab
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)
	var b strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// structErr turns validator output into a single ErrInvalidInput naming the
// first failing field.
func structErr(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if stderrors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return errors.Invalid("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
	}
	return fmt.Errorf("%w: %v", errors.ErrInvalidInput, err)
}
