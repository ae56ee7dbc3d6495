package analyzer

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/HoldYourWaffle2/tsoa/internal/declaration"
	"github.com/HoldYourWaffle2/tsoa/internal/metadata"
)

// isoDateLayouts are the ISO-8601 forms accepted by minDate/maxDate.
var isoDateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// FieldValidators extracts the constraint set of a record field or class
// property. Returns nil when no constraint tag is present.
func FieldValidators(ann *declaration.Annotations) (metadata.Validators, error) {
	if ann == nil {
		return nil, nil
	}
	return extractValidators(ann.Tags)
}

// ParameterValidators extracts the constraints an operation-level annotation
// block addresses to the named parameter (`@minimum limit 1`).
func ParameterValidators(ann *declaration.Annotations, param string) (metadata.Validators, error) {
	addressed := ann.AddressedTo(param)
	return extractValidators(addressed.Tags)
}

func extractValidators(tags []declaration.Tag) (metadata.Validators, error) {
	var out metadata.Validators
	set := func(name string, v metadata.Validator) {
		if out == nil {
			out = make(metadata.Validators)
		}
		out[name] = v
	}

	for _, tag := range tags {
		switch tag.Name {
		case "minimum", "maximum", "minItems", "maxItems", "minLength", "maxLength":
			raw, msg := declaration.SplitFirst(tag.Text)
			n, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, newError(ErrMalformedAnnotation, "", "%s parameter must be a number", tag.Name)
			}
			set(tag.Name, metadata.Validator{Value: n, ErrorMsg: msg})

		case "minDate", "maxDate":
			raw, msg := declaration.SplitFirst(tag.Text)
			if !isISODate(raw) {
				return nil, newError(ErrMalformedAnnotation, "",
					"%s parameter must be an ISO 8601 date, e.g. 2017-05-14 or 2017-05-14T05:18Z", tag.Name)
			}
			set(tag.Name, metadata.Validator{Value: raw, ErrorMsg: msg})

		case "pattern":
			raw, msg := splitPattern(tag.Text)
			if raw == "" {
				return nil, newError(ErrMalformedAnnotation, "", "pattern parameter must be a string")
			}
			set(tag.Name, metadata.Validator{Value: raw, ErrorMsg: msg})

		case "uniqueItems":
			set(tag.Name, metadata.Validator{ErrorMsg: strings.TrimSpace(tag.Text)})

		default:
			if isTypeCheckTag(tag.Name) {
				set(tag.Name, metadata.Validator{ErrorMsg: strings.TrimSpace(tag.Text)})
			}
		}
	}
	return out, nil
}

// isTypeCheckTag matches isInt, isDate, isEmail and friends.
func isTypeCheckTag(name string) bool {
	return len(name) > 2 && strings.HasPrefix(name, "is") && unicode.IsUpper(rune(name[2]))
}

func isISODate(s string) bool {
	for _, layout := range isoDateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

// splitPattern takes a quoted pattern (which may contain spaces) or the
// first word, and returns the remainder as the error message.
func splitPattern(text string) (pattern, msg string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ""
	}
	if q := text[0]; q == '"' || q == '\'' || q == '`' {
		if end := strings.IndexByte(text[1:], q); end >= 0 {
			return text[1 : end+1], strings.TrimSpace(text[end+2:])
		}
	}
	head, rest := declaration.SplitFirst(text)
	return stripQuotes(head), rest
}

func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '`' && s[len(s)-1] == '`') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
