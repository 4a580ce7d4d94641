package sentiment

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default_lexicon.yaml
var defaultLexicon []byte

// WordList is a set of keywords sharing one weight.
type WordList struct {
	Weight float64  `yaml:"weight"`
	Words  []string `yaml:"words"`
}

// Lexicon is the keyword table the classifier scores against.
type Lexicon struct {
	Positive WordList `yaml:"positive"`
	Negative WordList `yaml:"negative"`
}

// DefaultLexicon returns the built-in lexicon.
func DefaultLexicon() (*Lexicon, error) {
	return ParseLexicon(defaultLexicon)
}

// LoadLexicon reads a YAML lexicon from path. An empty path yields the
// built-in lexicon.
func LoadLexicon(path string) (*Lexicon, error) {
	if path == "" {
		return DefaultLexicon()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon %s: %w", path, err)
	}
	lex, err := ParseLexicon(data)
	if err != nil {
		return nil, fmt.Errorf("lexicon %s: %w", path, err)
	}
	return lex, nil
}

// ParseLexicon decodes and validates a YAML lexicon. Words are lower-cased.
func ParseLexicon(data []byte) (*Lexicon, error) {
	var lex Lexicon
	if err := yaml.Unmarshal(data, &lex); err != nil {
		return nil, fmt.Errorf("parse lexicon: %w", err)
	}
	if err := lex.validate(); err != nil {
		return nil, err
	}
	lex.Positive.Words = normalize(lex.Positive.Words)
	lex.Negative.Words = normalize(lex.Negative.Words)
	return &lex, nil
}

func (l *Lexicon) validate() error {
	if l.Positive.Weight <= 0 || l.Negative.Weight <= 0 {
		return fmt.Errorf("lexicon weights must be positive (positive=%v, negative=%v)",
			l.Positive.Weight, l.Negative.Weight)
	}
	if len(l.Positive.Words) == 0 && len(l.Negative.Words) == 0 {
		return fmt.Errorf("lexicon has no words")
	}
	return nil
}

func normalize(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			out = append(out, w)
		}
	}
	return out
}
