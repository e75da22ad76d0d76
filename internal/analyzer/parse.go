package analyzer

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/billyribeiro-ux/build-ops/internal/shared/apperr"
)

// StripFences removes one surrounding markdown code fence, with or without a
// language tag. Text without a leading fence is returned trimmed.
func StripFences(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	body := strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		tag := strings.TrimSpace(body[:nl])
		if tag == "" || !strings.ContainsAny(tag, "{[\"") {
			body = body[nl+1:]
		}
	} else {
		body = strings.TrimPrefix(body, "json")
	}
	body = strings.TrimSpace(body)
	body = strings.TrimSuffix(body, "```")
	return strings.TrimSpace(body)
}

// Parse decodes a reply into an Analysis. Unknown fields and trailing data are
// rejected with a Serialization error.
func Parse(text string) (Analysis, error) {
	const op = "parse analysis"
	dec := json.NewDecoder(strings.NewReader(StripFences(text)))
	dec.DisallowUnknownFields()

	var out Analysis
	if err := dec.Decode(&out); err != nil {
		return Analysis{}, apperr.Serialization(op, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Analysis{}, apperr.Serialization(op, errors.New("unexpected data after JSON object"))
	}
	return out, nil
}

// Encode serializes an analysis for storage on the job record.
func Encode(a Analysis) (string, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(a); err != nil {
		return "", apperr.Serialization("encode analysis", err)
	}
	return strings.TrimSpace(buf.String()), nil
}
