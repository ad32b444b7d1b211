package recurring

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Veraticus/ledgerlens/internal/model"
)

// route keywords come in two kinds: stems match anywhere so German compounds
// like "kfz-haftpflichtversicherung" hit, names must stand as a whole word so
// "ergo" does not match "ergotherapie".
type route struct {
	target     model.RoutingTarget
	categories []model.Category
	stems      []string
	names      []string
}

// routes are checked in order; subscription is also the default.
var routes = []route{
	{
		target:     model.TargetInsurance,
		categories: []model.Category{model.CategoryInsurance},
		stems:      []string{"versicherung", "versicherer", "haftpflicht", "hausrat", "kasko"},
		names: []string{
			"police", "allianz", "huk", "huk-coburg", "ergo", "axa", "debeka",
			"signal iduna", "generali", "devk",
		},
	},
	{
		target:     model.TargetEnergy,
		categories: []model.Category{model.CategoryUtilities},
		stems: []string{
			"stromlieferung", "ökostrom", "naturstrom", "energieversorg", "erdgas",
			"gasversorgung", "stadtwerke", "fernwärme", "wasserversorg", "abschlagszahlung",
		},
		names: []string{"strom", "energie", "abschlag", "e.on", "vattenfall", "enbw", "rwe"},
	},
	{
		target:     model.TargetSubscription,
		categories: []model.Category{model.CategorySubscription, model.CategoryTelecom},
		stems:      []string{"abonnement", "mitgliedschaft", "mitgliedsbeitrag"},
		names: []string{
			"abo", "netflix", "spotify", "prime", "disney", "dazn", "zeitung",
			"fitness", "cloud", "lizenz",
		},
	},
}

// routeCluster picks the bucket for a cluster from member categories and the
// anchor's purpose and counterparty text.
func routeCluster(cluster []Input) model.RoutingTarget {
	text := cluster[0].Transaction.SearchText()

	for _, r := range routes {
		for _, in := range cluster {
			if slices.Contains(r.categories, in.Category) {
				return r.target
			}
		}
		for _, stem := range r.stems {
			if strings.Contains(text, stem) {
				return r.target
			}
		}
		for _, name := range r.names {
			if containsWord(text, name) {
				return r.target
			}
		}
	}
	return model.TargetSubscription
}

// containsWord reports whether word occurs in text with no letter or digit
// directly before or after it.
func containsWord(text, word string) bool {
	for offset := 0; offset < len(text); {
		i := strings.Index(text[offset:], word)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(word)

		before, _ := utf8.DecodeLastRuneInString(text[:start])
		after, _ := utf8.DecodeRuneInString(text[end:])
		if !isWordRune(before) && !isWordRune(after) {
			return true
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		offset = start + size
	}
	return false
}

func isWordRune(r rune) bool {
	return r != utf8.RuneError && (unicode.IsLetter(r) || unicode.IsDigit(r))
}
