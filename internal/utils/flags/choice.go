// Package flags provides Cobra flag values shared by the stati commands.
package flags

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

const (
	choicePlaceholderPrefix     = "<"
	choicePlaceholderSuffix     = ">"
	choiceSeparatorLiteral      = "|"
	choiceUsageEmptyTemplate    = "`%s`"
	choiceUsageFullTemplate     = "`%s` %s"
	choiceValueTypeConstant     = "choice"
	invalidChoiceErrorTemplate  = "invalid choice %q (expected one of %s)"
	choiceListSeparatorConstant = ", "
)

// FormatChoiceUsage builds a usage string where the default option is capitalized inside a placeholder.
func FormatChoiceUsage(defaultChoice string, choices []string, description string) string {
	placeholder := buildChoicePlaceholder(defaultChoice, choices)
	if len(strings.TrimSpace(description)) == 0 {
		return fmt.Sprintf(choiceUsageEmptyTemplate, placeholder)
	}
	return fmt.Sprintf(choiceUsageFullTemplate, placeholder, description)
}

// ChoiceValue is a pflag.Value restricted to a fixed set of words. Matching
// ignores case and surrounding whitespace; the stored value is the choice as declared.
type ChoiceValue struct {
	selected string
	choices  []string
}

// NewChoiceValue constructs a ChoiceValue holding defaultChoice.
func NewChoiceValue(defaultChoice string, choices []string) *ChoiceValue {
	return &ChoiceValue{selected: strings.TrimSpace(defaultChoice), choices: uniqueChoices(choices)}
}

// AddChoiceFlag registers a choice flag whose usage lists the choices with the default highlighted.
func AddChoiceFlag(flagSet *pflag.FlagSet, name string, defaultChoice string, choices []string, description string) *ChoiceValue {
	choiceValue := NewChoiceValue(defaultChoice, choices)
	if flagSet == nil || len(name) == 0 {
		return choiceValue
	}
	flagSet.Var(choiceValue, name, FormatChoiceUsage(defaultChoice, choices, description))
	return choiceValue
}

// Set selects rawValue when it names one of the choices.
func (value *ChoiceValue) Set(rawValue string) error {
	normalizedValue := strings.ToLower(strings.TrimSpace(rawValue))
	for _, choice := range value.choices {
		if strings.ToLower(choice) == normalizedValue {
			value.selected = choice
			return nil
		}
	}
	return fmt.Errorf(invalidChoiceErrorTemplate, rawValue, strings.Join(value.choices, choiceListSeparatorConstant))
}

// String returns the selected choice.
func (value *ChoiceValue) String() string {
	if value == nil {
		return ""
	}
	return value.selected
}

// Type names the value kind in help output.
func (value *ChoiceValue) Type() string {
	return choiceValueTypeConstant
}

func buildChoicePlaceholder(defaultChoice string, choices []string) string {
	highlightedChoices := highlightDefaultChoice(defaultChoice, choices)
	return choicePlaceholderPrefix + strings.Join(highlightedChoices, choiceSeparatorLiteral) + choicePlaceholderSuffix
}

func highlightDefaultChoice(defaultChoice string, choices []string) []string {
	normalizedDefault := strings.ToLower(strings.TrimSpace(defaultChoice))
	highlighted := uniqueChoices(choices)
	for choiceIndex, choice := range highlighted {
		if strings.ToLower(choice) == normalizedDefault && len(normalizedDefault) > 0 {
			highlighted[choiceIndex] = strings.ToUpper(choice)
		}
	}
	return highlighted
}

// uniqueChoices trims choices and drops blanks and case-insensitive duplicates.
func uniqueChoices(choices []string) []string {
	unique := make([]string, 0, len(choices))
	seen := make(map[string]struct{}, len(choices))
	for _, choice := range choices {
		trimmedChoice := strings.TrimSpace(choice)
		if len(trimmedChoice) == 0 {
			continue
		}
		normalizedChoice := strings.ToLower(trimmedChoice)
		if _, exists := seen[normalizedChoice]; exists {
			continue
		}
		seen[normalizedChoice] = struct{}{}
		unique = append(unique, trimmedChoice)
	}
	return unique
}
