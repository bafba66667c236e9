// Package normalize validates raw decoded records and coerces them into
// canonical messages.
package normalize

import (
	"fmt"
	"strconv"

	"github.com/rcliao/feedsink/internal/model"
)

// RejectError reports why a record was dropped. Rejections are per-record
// faults: the pipeline logs them and moves on.
type RejectError struct {
	Field  string
	Reason string
}

func (e *RejectError) Error() string {
	return fmt.Sprintf("reject record: field %q: %s", e.Field, e.Reason)
}

func reject(field, reason string) error {
	return &RejectError{Field: field, Reason: reason}
}

// Normalize turns a decoded JSON object into a Message, applying defaults
// for the optional fields. Missing required fields or failed type
// coercions produce a *RejectError; no I/O happens here.
func Normalize(raw map[string]any) (*model.Message, error) {
	msg, err := requiredString(raw, "message")
	if err != nil {
		return nil, err
	}
	author, err := requiredString(raw, "author")
	if err != nil {
		return nil, err
	}
	timestamp, err := requiredString(raw, "timestamp")
	if err != nil {
		return nil, err
	}

	category, err := optionalString(raw, "category", model.DefaultCategory)
	if err != nil {
		return nil, err
	}
	keyword, err := optionalString(raw, "keyword_mentioned", "")
	if err != nil {
		return nil, err
	}
	sentiment, err := optionalFloat(raw, "sentiment")
	if err != nil {
		return nil, err
	}
	length, err := optionalInt(raw, "message_length")
	if err != nil {
		return nil, err
	}

	return &model.Message{
		Message:          msg,
		Author:           author,
		Timestamp:        timestamp,
		Category:         category,
		Sentiment:        sentiment,
		KeywordMentioned: keyword,
		MessageLength:    length,
	}, nil
}

func requiredString(raw map[string]any, key string) (string, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return "", reject(key, "required field missing")
	}
	s, ok := v.(string)
	if !ok {
		return "", reject(key, fmt.Sprintf("expected string, got %T", v))
	}
	return s, nil
}

func optionalString(raw map[string]any, key, def string) (string, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", reject(key, fmt.Sprintf("expected string, got %T", v))
	}
	return s, nil
}

// optionalFloat accepts JSON numbers and numeric strings, matching the
// producer's loose typing. Anything else rejects the record.
func optionalFloat(raw map[string]any, key string) (float64, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return 0.0, nil
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, reject(key, fmt.Sprintf("not a number: %q", n))
		}
		return f, nil
	default:
		return 0, reject(key, fmt.Sprintf("expected number, got %T", v))
	}
}

// optionalInt truncates fractional JSON numbers and parses integer strings.
func optionalInt(raw map[string]any, key string) (int, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return 0, nil
	}
	switch n := v.(type) {
	case float64:
		return int(n), nil
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0, reject(key, fmt.Sprintf("not an integer: %q", n))
		}
		return i, nil
	default:
		return 0, reject(key, fmt.Sprintf("expected integer, got %T", v))
	}
}
