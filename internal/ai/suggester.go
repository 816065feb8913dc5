package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// MaxSuggestions caps the domains returned for one input.
const MaxSuggestions = 5

// CompleterFactory builds a completer for a caller-supplied API key.
type CompleterFactory func(apiKey string) (Completer, error)

// Suggester proposes real domains for a mistyped or unreachable one.
type Suggester struct {
	completer Completer
	factory   CompleterFactory
	logger    *zap.Logger
}

// NewSuggester creates a suggester. factory may be nil, in which case request keys are ignored.
func NewSuggester(completer Completer, factory CompleterFactory, logger *zap.Logger) *Suggester {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Suggester{completer: completer, factory: factory, logger: logger}
}

func suggestPrompt(input string) string {
	return fmt.Sprintf(`The user typed "%s" but it is not a reachable website.
Suggest up to %d real, popular domains they most likely meant.
Respond with a bare JSON array of domain strings only, for example ["google.com", "github.com"].`,
		input, MaxSuggestions)
}

// Suggest returns at most MaxSuggestions lowercase domains. It never returns nil.
func (s *Suggester) Suggest(ctx context.Context, input, apiKey string) []string {
	input = strings.TrimSpace(input)
	if input == "" {
		return []string{}
	}

	completer := s.completer
	if apiKey != "" && s.factory != nil {
		c, err := s.factory(apiKey)
		if err != nil {
			s.logger.Warn("request completer rejected", zap.Error(err))
			return []string{}
		}
		completer = c
	}
	if completer == nil {
		return []string{}
	}

	out, err := completer.Complete(ctx, suggestPrompt(input))
	if err != nil {
		s.logger.Warn("suggestion completion failed", zap.String("input", input), zap.Error(err))
		return []string{}
	}
	return ParseSuggestions(out)
}

// ParseSuggestions reads a JSON array out of a completion. Non-string items are
// dropped; malformed output yields an empty slice.
func ParseSuggestions(out string) []string {
	var raw []any
	if err := json.Unmarshal([]byte(stripFence(out)), &raw); err != nil {
		return []string{}
	}

	suggestions := []string{}
	seen := make(map[string]bool)
	for _, item := range raw {
		str, ok := item.(string)
		if !ok {
			continue
		}
		d := strings.ToLower(strings.TrimSpace(str))
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		suggestions = append(suggestions, d)
		if len(suggestions) == MaxSuggestions {
			break
		}
	}
	return suggestions
}
