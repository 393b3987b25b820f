// Package reply turns free-text model replies into typed values.
//
// Parsing is total: every call returns a Result, either carrying the parsed
// value or the fallback supplied by the call site. Failures are logged, never
// returned as errors to the caller of the pipeline.
package reply

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"
)

var ErrNoObject = errors.New("reply: no JSON object found")

// Result is either a parsed value (Parsed == true) or the fallback.
type Result[T any] struct {
	Value  T
	Parsed bool
	Err    error
}

func (r Result[T]) IsFallback() bool { return !r.Parsed }

// Parse decodes raw into T, tolerating code fences, surrounding prose and
// single-quoted keys. On any failure the fallback is returned.
func Parse[T any](raw string, fallback T) Result[T] {
	return ParseValidated(raw, nil, fallback)
}

// ParseValidated is Parse with an additional JSON schema check of the decoded
// object. A nil schema skips validation.
func ParseValidated[T any](raw string, schema *jsonschema.Schema, fallback T) (res Result[T]) {
	defer func() {
		if r := recover(); r != nil {
			res = fallbackResult(raw, fallback, fmt.Errorf("reply: decode panic: %v", r))
		}
	}()

	var lastErr error = ErrNoObject
	for _, candidate := range candidates(raw) {
		value, err := decode[T](candidate, schema)
		if err == nil {
			return Result[T]{Value: value, Parsed: true}
		}
		lastErr = err
	}

	return fallbackResult(raw, fallback, lastErr)
}

func fallbackResult[T any](raw string, fallback T, err error) Result[T] {
	logger.Error("Failed to parse model reply, using fallback",
		zap.Int("replyLength", len(raw)),
		zap.Error(err))
	return Result[T]{Value: fallback, Err: err}
}

func decode[T any](candidate string, schema *jsonschema.Schema) (T, error) {
	var out T

	var doc any
	if err := json.Unmarshal([]byte(candidate), &doc); err != nil {
		return out, fmt.Errorf("reply: decode: %w", err)
	}
	if _, ok := doc.(map[string]any); !ok {
		return out, ErrNoObject
	}

	if schema != nil {
		if err := schema.Validate(doc); err != nil {
			return out, fmt.Errorf("reply: schema: %w", err)
		}
	}

	if err := json.Unmarshal([]byte(candidate), &out); err != nil {
		return out, fmt.Errorf("reply: decode: %w", err)
	}
	return out, nil
}

// candidates lists the texts worth trying, most literal first.
func candidates(raw string) []string {
	stripped := StripFences(raw)
	out := []string{stripped}

	if span, ok := objectSpan(stripped); ok && span != stripped {
		out = append(out, span)
	}

	// {'department': 'Cardiology'} style replies.
	for _, c := range out {
		if strings.Contains(c, "'") && !strings.Contains(c, `"`) {
			out = append(out, strings.ReplaceAll(c, "'", `"`))
			break
		}
	}
	return out
}

// StripFences removes a leading ``` / ```json marker and a trailing ``` marker.
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		// drop the language tag on the opening fence line
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			if tag := strings.TrimSpace(s[:nl]); !strings.ContainsAny(tag, "{[") {
				s = s[nl+1:]
			}
		} else {
			s = strings.TrimPrefix(s, "json")
		}
	}

	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func objectSpan(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

// CompileSchema compiles a JSON schema document held in memory.
func CompileSchema(name, src string) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, strings.NewReader(src)); err != nil {
		return nil, fmt.Errorf("reply: add schema %s: %w", name, err)
	}
	compiled, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("reply: compile schema %s: %w", name, err)
	}
	return compiled, nil
}

func MustCompileSchema(name, src string) *jsonschema.Schema {
	s, err := CompileSchema(name, src)
	if err != nil {
		panic(err)
	}
	return s
}
