package categorize

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Veraticus/ledgerlens/internal/common"
	"github.com/Veraticus/ledgerlens/internal/model"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// ruleFile is the on-disk layout of a custom rule table.
type ruleFile struct {
	Rules []Rule `yaml:"rules"`
}

// LoadRules decodes a YAML rule table, normalizes patterns to lowercase NFC
// and validates it.
// Rules keep the order in which they appear in the document.
func LoadRules(r io.Reader) ([]Rule, error) {
	var file ruleFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, common.ErrEmptyRuleSet
		}
		return nil, fmt.Errorf("failed to decode rule table: %w", err)
	}

	for i := range file.Rules {
		for j, p := range file.Rules[i].Patterns {
			file.Rules[i].Patterns[j] = norm.NFC.String(strings.ToLower(strings.TrimSpace(p)))
		}
	}

	if err := Validate(file.Rules); err != nil {
		return nil, err
	}
	return file.Rules, nil
}

// LoadRulesFile reads a rule table from path.
func LoadRulesFile(path string) ([]Rule, error) {
	f, err := os.Open(path) //nolint:gosec // path is operator supplied
	if err != nil {
		return nil, fmt.Errorf("failed to open rule table: %w", err)
	}
	defer func() { _ = f.Close() }()

	return LoadRules(f)
}

// MarshalRules encodes a rule table in the format LoadRules reads.
func MarshalRules(rules []Rule) ([]byte, error) {
	return yaml.Marshal(ruleFile{Rules: rules})
}

// Validate checks a rule table for structural errors.
func Validate(rules []Rule) error {
	if len(rules) == 0 {
		return common.ErrEmptyRuleSet
	}

	seen := make(map[string]bool, len(rules))
	for i, r := range rules {
		if err := validateRule(r); err != nil {
			return fmt.Errorf("rule at index %d: %w", i, err)
		}
		if seen[r.Code] {
			return fmt.Errorf("%w: duplicate code %q", common.ErrInvalidRule, r.Code)
		}
		seen[r.Code] = true
	}
	return nil
}

func validateRule(r Rule) error {
	if strings.TrimSpace(r.Code) == "" {
		return fmt.Errorf("%w: missing code", common.ErrInvalidRule)
	}
	if r.Code == model.FallbackRuleCode {
		return fmt.Errorf("%w: code %q is reserved", common.ErrInvalidRule, r.Code)
	}
	if !r.Category.IsValid() {
		return fmt.Errorf("%w: %s: unknown category %q", common.ErrInvalidRule, r.Code, r.Category)
	}
	if r.Direction != model.DirectionCredit && r.Direction != model.DirectionDebit {
		return fmt.Errorf("%w: %s: direction must be credit or debit", common.ErrInvalidRule, r.Code)
	}
	if len(r.OwnerTypes) == 0 {
		return fmt.Errorf("%w: %s: no owner types", common.ErrInvalidRule, r.Code)
	}
	for _, o := range r.OwnerTypes {
		if _, err := model.ParseOwnerType(string(o)); err != nil {
			return fmt.Errorf("%w: %s: %v", common.ErrInvalidRule, r.Code, err)
		}
	}
	if len(r.Patterns) == 0 {
		return fmt.Errorf("%w: %s: no patterns", common.ErrInvalidRule, r.Code)
	}
	for _, p := range r.Patterns {
		if p == "" || p != strings.ToLower(p) {
			return fmt.Errorf("%w: %s: pattern %q must be non-empty lowercase", common.ErrInvalidRule, r.Code, p)
		}
	}
	if r.MinAmount != nil && r.MaxAmount != nil && *r.MinAmount > *r.MaxAmount {
		return fmt.Errorf("%w: %s: min amount exceeds max amount", common.ErrInvalidRule, r.Code)
	}
	return nil
}
