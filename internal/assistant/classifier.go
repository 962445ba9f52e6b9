// Package assistant implements the rule-based chat engine: an ordered list of
// (predicate, response) rules evaluated first-match-wins, a site lookup
// fallback and a generic fallback.
package assistant

import (
	"fmt"
	"strings"
	"unicode"

	"example.com/johar/internal/sites"
)

// Intent labels.
const (
	IntentGreeting  = "greeting"
	IntentFood      = "food"
	IntentWaterfall = "waterfalls"
	IntentPlaces    = "places"
	IntentItinerary = "itinerary"
	IntentGuide     = "guide"
	IntentMarket    = "market"
	IntentFestival  = "festival"
	IntentHelp      = "help"
	IntentSite      = "site"
	IntentFallback  = "fallback"
)

// FallbackReply is returned when nothing else matches.
const FallbackReply = "Sorry, I don't know exactly, ask about places, food, festivals, guides, marketplace or say 'plan itinerary'."

// Response is a classified reply.
type Response struct {
	Intent string `json:"intent"`
	Text   string `json:"reply"`
}

// Utterance is the normalised input handed to rule predicates.
type Utterance struct {
	Text  string
	words map[string]struct{}
}

func newUtterance(raw string) Utterance {
	text := strings.ToLower(strings.TrimSpace(raw))
	words := make(map[string]struct{})
	for _, w := range strings.FieldsFunc(text, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) }) {
		words[w] = struct{}{}
	}
	return Utterance{Text: text, words: words}
}

// HasWord reports whether any of words occurs as a whole word.
func (u Utterance) HasWord(words ...string) bool {
	for _, w := range words {
		if _, ok := u.words[w]; ok {
			return true
		}
	}
	return false
}

// Contains reports whether any of parts occurs as a substring.
func (u Utterance) Contains(parts ...string) bool {
	for _, p := range parts {
		if strings.Contains(u.Text, p) {
			return true
		}
	}
	return false
}

// Rule pairs a predicate with a response. Respond may use the utterance.
type Rule struct {
	Intent  string
	Match   func(Utterance) bool
	Respond func(Utterance) string
}

func fixed(text string) func(Utterance) string {
	return func(Utterance) string { return text }
}

// DefaultRules returns the topic rules in priority order: greetings first,
// then topics. Site lookup and the generic fallback are appended by the
// classifier.
func DefaultRules() []Rule {
	return []Rule{
		{
			Intent:  IntentGreeting,
			Match:   func(u Utterance) bool { return u.HasWord("hi", "hello", "namaste", "johar") },
			Respond: fixed("Johar! Welcome to Johar Jharkhand. I can help with places, food, itineraries, guides and marketplace."),
		},
		{
			Intent:  IntentFood,
			Match:   func(u Utterance) bool { return u.Contains("food") },
			Respond: fixed("Famous Jharkhand foods include Dhuska, Rugra, Chilka Roti, and local drinks like Handia. Try them in local markets."),
		},
		{
			Intent:  IntentWaterfall,
			Match:   func(u Utterance) bool { return u.Contains("waterfall", "falls") },
			Respond: fixed("Check Hundru Falls, Dassam Falls, Jonha Falls and Hundru near Ranchi for beautiful waterfalls."),
		},
		{
			Intent:  IntentPlaces,
			Match:   func(u Utterance) bool { return u.Contains("places", "visit", "tour") },
			Respond: fixed("Top places: Netarhat (sunsets), Hundru Falls (waterfall), Betla National Park (wildlife), Deoghar (pilgrimage). I can create an itinerary for you. Tell me days and interests."),
		},
		{
			Intent:  IntentItinerary,
			Match:   func(u Utterance) bool { return u.Contains("itinerary", "plan") },
			Respond: fixed("Tell me how many days you have and what interests (waterfalls, wildlife, culture, trekking). Example: '3 days, waterfalls and culture'."),
		},
		{
			Intent:  IntentGuide,
			Match:   func(u Utterance) bool { return u.Contains("guide") },
			Respond: fixed("You can register as or find local guides. Use the Guide Registry: guides can be verified and issued certificates (simulated)."),
		},
		{
			Intent:  IntentMarket,
			Match:   func(u Utterance) bool { return u.Contains("market", "handicraft") },
			Respond: fixed("Visit the Marketplace to discover local tribal handicrafts, homestays and events. You can buy items with simulated payments."),
		},
		{
			Intent:  IntentFestival,
			Match:   func(u Utterance) bool { return u.Contains("festival") },
			Respond: fixed("Important festivals: Sarhul (spring), Karma (harvest), Sohrai (festival of cattle), Tusu (regional harvest festival)."),
		},
		{
			Intent:  IntentHelp,
			Match:   func(u Utterance) bool { return u.Contains("help", "what can you do") },
			Respond: fixed("I can generate itineraries, speak in multiple Indian languages, show map & AR preview, simulate payments, and analyze feedback. Ask me any question about Jharkhand!"),
		},
	}
}

// Classifier dispatches an utterance over an ordered rule list.
type Classifier struct {
	rules []Rule
}

// NewClassifier builds the rule list: rules, then a site lookup over catalog
// (skipped when catalog is nil), then the generic fallback.
func NewClassifier(rules []Rule, catalog *sites.Catalog) *Classifier {
	all := append([]Rule(nil), rules...)
	if catalog != nil {
		all = append(all, siteRule(catalog))
	}
	all = append(all, Rule{
		Intent:  IntentFallback,
		Match:   func(Utterance) bool { return true },
		Respond: fixed(FallbackReply),
	})
	return &Classifier{rules: all}
}

func siteRule(catalog *sites.Catalog) Rule {
	return Rule{
		Intent: IntentSite,
		Match: func(u Utterance) bool {
			_, ok := catalog.Mentioned(u.Text)
			return ok
		},
		Respond: func(u Utterance) string {
			s, _ := catalog.Mentioned(u.Text)
			return fmt.Sprintf("%s: %s. Located at approx %g, %g.", s.Name, s.Description, s.Latitude, s.Longitude)
		},
	}
}

// Rules returns the intents in evaluation order.
func (c *Classifier) Rules() []string {
	out := make([]string, 0, len(c.rules))
	for _, r := range c.rules {
		out = append(out, r.Intent)
	}
	return out
}

// Classify returns the response of the first matching rule. Blank input goes
// straight to the fallback.
func (c *Classifier) Classify(text string) Response {
	u := newUtterance(text)
	if u.Text == "" {
		return Response{Intent: IntentFallback, Text: FallbackReply}
	}
	for _, r := range c.rules {
		if r.Match(u) {
			return Response{Intent: r.Intent, Text: r.Respond(u)}
		}
	}
	return Response{Intent: IntentFallback, Text: FallbackReply}
}
