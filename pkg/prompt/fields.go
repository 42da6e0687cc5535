// Package prompt asks for template variables a render requires but the caller
// did not supply.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-view/pkg/template"
)

// FieldKind selects the prompt used for a field.
type FieldKind uint8

const (
	FieldText FieldKind = iota
	FieldSecret
	FieldBool
	FieldChoice
)

// Field describes a required variable.
type Field struct {
	Name    string
	Kind    FieldKind
	Default string
	Choices []string
}

// ParseField parses "name[:kind][=default]". kind is text, secret, bool or a
// list of choices separated by "|":
//
//	title
//	title=Home
//	token:secret
//	draft:bool=true
//	theme:light|dark=dark
func ParseField(spec string) (Field, error) {
	spec = strings.TrimSpace(spec)
	head, def, _ := strings.Cut(spec, "=")
	name, kind, hasKind := strings.Cut(head, ":")

	field := Field{Name: strings.TrimSpace(name), Default: strings.TrimSpace(def)}
	if field.Name == "" {
		return Field{}, fmt.Errorf("prompt: field %q has no name", spec)
	}
	if !hasKind {
		return field, nil
	}

	switch kind = strings.TrimSpace(kind); kind {
	case "", "text":
	case "secret":
		field.Kind = FieldSecret
	case "bool":
		field.Kind = FieldBool
	default:
		for _, choice := range strings.Split(kind, "|") {
			if choice = strings.TrimSpace(choice); choice != "" {
				field.Choices = append(field.Choices, choice)
			}
		}
		if len(field.Choices) < 2 {
			return Field{}, fmt.Errorf("prompt: field %q: unknown kind %q", field.Name, kind)
		}
		field.Kind = FieldChoice
	}
	return field, nil
}

// ParseFields parses every spec.
func ParseFields(specs []string) ([]Field, error) {
	fields := make([]Field, 0, len(specs))
	for _, spec := range specs {
		field, err := ParseField(spec)
		if err != nil {
			return nil, err
		}
		fields = append(fields, field)
	}
	return fields, nil
}

// Missing returns the fields vars has no value for.
func Missing(vars *template.Vars, fields []Field) []Field {
	var out []Field
	for _, field := range fields {
		if !vars.Has(field.Name) {
			out = append(out, field)
		}
	}
	return out
}

// Collect prompts for every missing field and stores the answers in vars.
func Collect(ctx context.Context, driver Driver, vars *template.Vars, fields []Field) error {
	missing := Missing(vars, fields)
	if len(missing) == 0 {
		return nil
	}
	if driver == nil {
		return errors.New("prompt: no driver to ask for missing variables")
	}

	for _, field := range missing {
		value, err := ask(ctx, driver, field)
		if err != nil {
			return fmt.Errorf("prompt: %s: %w", field.Name, err)
		}
		vars.Set(field.Name, value)
	}
	return nil
}

func ask(ctx context.Context, driver Driver, field Field) (any, error) {
	message := field.Name
	switch field.Kind {
	case FieldSecret:
		return driver.Password(ctx, InputConfig{Message: message, Validator: required})
	case FieldBool:
		return driver.Confirm(ctx, ConfirmConfig{Message: message, Default: field.Default == "true"})
	case FieldChoice:
		def := 0
		for i, choice := range field.Choices {
			if choice == field.Default {
				def = i
			}
		}
		idx, err := driver.Select(ctx, SelectConfig{Message: message, Options: field.Choices, DefaultIndex: def})
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= len(field.Choices) {
			return nil, fmt.Errorf("choice %d out of range", idx)
		}
		return field.Choices[idx], nil
	default:
		validator := required
		if field.Default != "" {
			validator = nil
		}
		return driver.Input(ctx, InputConfig{Message: message, Default: field.Default, Validator: validator})
	}
}

func required(value string) error {
	if strings.TrimSpace(value) == "" {
		return errors.New("a value is required")
	}
	return nil
}
