package credentials

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	ProviderHuggingFace = "huggingface"
	ProviderDeepAI      = "deepai"
	ProviderReplicate   = "replicate"
)

var envKeys = map[string]string{
	ProviderHuggingFace: "HUGGINGFACE_TOKEN",
	ProviderDeepAI:      "DEEPAI_API_KEY",
	ProviderReplicate:   "REPLICATE_API_TOKEN",
}

var placeholders = map[string]string{
	ProviderHuggingFace: "YOUR_FREE_HUGGINGFACE_TOKEN",
	ProviderDeepAI:      "YOUR_FREE_DEEPAI_KEY",
	ProviderReplicate:   "YOUR_FREE_REPLICATE_TOKEN",
}

// ErrUnknownProvider is returned for providers that take no credential.
var ErrUnknownProvider = errors.New("credentials: unknown provider")

// Store resolves provider credentials from the process environment, with an
// optional dotenv-format secret file taking precedence.
type Store struct {
	lookup func(string) (string, bool)
	file   map[string]string
}

// NewStore reads secretsFile when set. A missing file is an error so that a
// misconfigured path does not silently fall back to the environment.
func NewStore(secretsFile string) (*Store, error) {
	s := &Store{lookup: os.LookupEnv}
	if strings.TrimSpace(secretsFile) == "" {
		return s, nil
	}
	values, err := godotenv.Read(secretsFile)
	if err != nil {
		return nil, fmt.Errorf("credentials: read secrets file: %w", err)
	}
	s.file = values
	return s, nil
}

// NewStaticStore builds a store from fixed values, keyed by env var name.
func NewStaticStore(values map[string]string) *Store {
	return &Store{
		lookup: func(string) (string, bool) { return "", false },
		file:   values,
	}
}

// Token returns the credential for provider, or "" when unset or still the
// placeholder value.
func (s *Store) Token(_ context.Context, provider string) (string, error) {
	key, ok := envKeys[provider]
	if !ok {
		return "", ErrUnknownProvider
	}
	token := strings.TrimSpace(s.file[key])
	if token == "" {
		if v, ok := s.lookup(key); ok {
			token = strings.TrimSpace(v)
		}
	}
	if token == placeholders[provider] {
		return "", nil
	}
	return token, nil
}

// Configured lists the providers with a usable credential.
func (s *Store) Configured(ctx context.Context) []string {
	var out []string
	for _, p := range []string{ProviderHuggingFace, ProviderDeepAI, ProviderReplicate} {
		if token, _ := s.Token(ctx, p); token != "" {
			out = append(out, p)
		}
	}
	return out
}
