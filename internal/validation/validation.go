/*
 * Copyright 2026 The Kanso Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package validation wraps go-playground/validator with english messages and
// the custom tags used by sync requests and mutator arguments.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
)

const (
	// entityIDRegexString matches ids generated by clients: uuids, xids and
	// other url-safe tokens.
	entityIDRegexString = `^[A-Za-z0-9\-_.~]+$`

	// schemaVersionRegexString matches dotted numeric versions such as "1" or "1.2".
	schemaVersionRegexString = `^[0-9]+(\.[0-9]+)*$`
)

var (
	entityIDRegex      = regexp.MustCompile(entityIDRegexString)
	schemaVersionRegex = regexp.MustCompile(schemaVersionRegexString)
)

var (
	defaultValidator = validator.New()
	defaultEn        = en.New()
	uni              = ut.New(defaultEn, defaultEn)

	// trans is the translator for the english locale.
	trans, _ = uni.GetTranslator(defaultEn.Locale())
)

// Violation is a single failed rule.
type Violation struct {
	Tag         string
	Field       string
	Err         error
	Description string
}

// Error returns the translated description of the violation.
func (v Violation) Error() string {
	if v.Description != "" {
		return v.Description
	}
	return v.Err.Error()
}

// StructError is returned when a struct fails validation.
type StructError struct {
	Violations []Violation
}

// Error joins the violations.
func (s *StructError) Error() string {
	descriptions := make([]string, 0, len(s.Violations))
	for _, v := range s.Violations {
		descriptions = append(descriptions, v.Error())
	}
	return strings.Join(descriptions, "; ")
}

// RegisterValidation registers a custom rule with the given tag.
func RegisterValidation(tag string, fn validator.Func) error {
	if err := defaultValidator.RegisterValidation(tag, fn); err != nil {
		return fmt.Errorf("register validation %s: %w", tag, err)
	}
	return nil
}

// RegisterTranslation registers the english message of the given tag.
// {0} in msg is replaced by the field name.
func RegisterTranslation(tag, msg string) error {
	if err := defaultValidator.RegisterTranslation(
		tag,
		trans,
		func(ut ut.Translator) error {
			return ut.Add(tag, msg, true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			t, _ := ut.T(tag, fe.Field())
			return t
		},
	); err != nil {
		return fmt.Errorf("register translation %s: %w", tag, err)
	}
	return nil
}

// ValidateValue validates a single value against the given tag.
func ValidateValue(v any, tag string) error {
	err := defaultValidator.Var(v, tag)
	if err == nil {
		return nil
	}

	errs, ok := err.(validator.ValidationErrors)
	if !ok || len(errs) == 0 {
		return err
	}

	return Violation{
		Tag:         errs[0].Tag(),
		Err:         errs[0],
		Description: errs[0].Translate(trans),
	}
}

// ValidateStruct validates the exported fields of s using their
// `validate` tags.
func ValidateStruct(s any) error {
	err := defaultValidator.Struct(s)
	if err == nil {
		return nil
	}

	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	structErr := &StructError{}
	for _, e := range errs {
		structErr.Violations = append(structErr.Violations, Violation{
			Tag:         e.Tag(),
			Field:       e.StructField(),
			Err:         e,
			Description: e.Translate(trans),
		})
	}
	return structErr
}

func mustRegister(tag, msg string, fn validator.Func) {
	if err := RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
	if err := RegisterTranslation(tag, msg); err != nil {
		panic(err)
	}
}

func init() {
	if err := entranslations.RegisterDefaultTranslations(defaultValidator, trans); err != nil {
		panic(fmt.Errorf("register default translations: %w", err))
	}

	mustRegister("entity_id", "{0} must only contain letters, numbers, hyphen, period, underscore, and tilde",
		func(level validator.FieldLevel) bool {
			return entityIDRegex.MatchString(level.Field().String())
		})

	mustRegister("schema_version", "{0} must be a dotted numeric version",
		func(level validator.FieldLevel) bool {
			return schemaVersionRegex.MatchString(level.Field().String())
		})
}
