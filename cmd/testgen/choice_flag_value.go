package testgen

import (
	"fmt"
	"strconv"
	"strings"
)

// boolChoiceValue accepts --flag, --flag=yes, --flag=off and friends.
type boolChoiceValue struct {
	target *bool
}

func newBoolChoiceValue(target *bool) *boolChoiceValue {
	return &boolChoiceValue{target: target}
}

func (value *boolChoiceValue) String() string {
	if value == nil || value.target == nil {
		return ""
	}
	return strconv.FormatBool(*value.target)
}

func (value *boolChoiceValue) Set(input string) error {
	boolValue, ok := parseBoolChoice(input)
	if !ok {
		return fmt.Errorf("invalid boolean value %q", input)
	}
	*value.target = boolValue
	return nil
}

func (value *boolChoiceValue) Type() string {
	return "bool"
}

func parseBoolChoice(input string) (bool, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return true, true
	}
	switch normalized {
	case "true", "t", "1", "yes", "y", "on":
		return true, true
	case "false", "f", "0", "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}

// enumValue restricts a string flag to a fixed set of lower-case choices.
type enumValue struct {
	target  *string
	choices []string
}

func newEnumValue(target *string, choices ...string) *enumValue {
	return &enumValue{target: target, choices: choices}
}

func (value *enumValue) String() string {
	if value == nil || value.target == nil {
		return ""
	}
	return *value.target
}

func (value *enumValue) Set(input string) error {
	normalized := strings.ToLower(strings.TrimSpace(input))
	for _, choice := range value.choices {
		if normalized == choice {
			*value.target = normalized
			return nil
		}
	}
	return fmt.Errorf("invalid value %q (choose %s)", input, strings.Join(value.choices, "|"))
}

func (value *enumValue) Type() string {
	return "string"
}
