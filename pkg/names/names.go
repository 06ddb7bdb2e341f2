// Package names canonicalizes contractor names. Normalize produces the
// display form shown to owners; Key produces the lookup form stored as an
// alias. Both are pure and deterministic, so the same raw spelling always
// lands on the same contractor.
package names

import (
	_ "embed"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var rulesYAML []byte

type expansion struct {
	Token        string `yaml:"token"`
	Replacement  string `yaml:"replacement"`
	TrailingOnly bool   `yaml:"trailing_only"`
}

type ruleSet struct {
	Acronyms   []string    `yaml:"acronyms"`
	Expansions []expansion `yaml:"expansions"`
}

var (
	acronyms   map[string]bool
	expansions map[string]expansion
)

func init() {
	var rules ruleSet
	if err := yaml.Unmarshal(rulesYAML, &rules); err != nil {
		panic("names: invalid rules.yaml: " + err.Error())
	}

	acronyms = make(map[string]bool, len(rules.Acronyms))
	for _, a := range rules.Acronyms {
		acronyms[strings.ToLower(a)] = true
	}

	expansions = make(map[string]expansion, len(rules.Expansions))
	for _, e := range rules.Expansions {
		expansions[strings.ToLower(e.Token)] = e
	}
}

// Normalize formats a raw contractor name into its canonical display form:
// whitespace collapsed, legal suffixes uppercased, common abbreviations
// expanded, everything else title-cased. Normalize is idempotent.
//
//	"turner const co"   -> "Turner Construction Company"
//	"ACME builders llc" -> "Acme Builders LLC"
func Normalize(raw string) string {
	words := strings.Fields(raw)
	if len(words) == 0 {
		return ""
	}

	out := make([]string, len(words))
	for i, word := range words {
		lower := strings.ToLower(strings.Trim(word, "."))
		if acronyms[lower] {
			out[i] = strings.ToUpper(lower)
			continue
		}
		if exp, ok := expansions[lower]; ok {
			if !exp.TrailingOnly || i == len(words)-1 {
				out[i] = exp.Replacement
				continue
			}
		}
		out[i] = titleCase(word)
	}

	return strings.Join(out, " ")
}

// Key returns the alias form of a raw name: trimmed, whitespace collapsed,
// lowercased. Unlike Normalize it performs no expansion, so each distinct
// submitted spelling becomes its own alias.
func Key(raw string) string {
	return strings.ToLower(strings.Join(strings.Fields(raw), " "))
}

// titleCase uppercases the first letter of a word and each letter following
// a hyphen or apostrophe, keeping "J-M Const" and "O'Brien" readable.
func titleCase(word string) string {
	runes := []rune(strings.ToLower(word))
	for i := range runes {
		if i == 0 || runes[i-1] == '-' || runes[i-1] == '\'' {
			runes[i] = unicode.ToUpper(runes[i])
		}
	}
	return string(runes)
}
