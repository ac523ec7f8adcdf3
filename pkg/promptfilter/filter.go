// Package promptfilter screens questions before they are sent to the
// assistant backend: an injection blocklist, a travel-topic check, and
// length and shape bounds.
package promptfilter

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Sentinel errors returned by Check.
var (
	ErrTooShort         = errors.New("question is too short")
	ErrTooLong          = errors.New("question is too long")
	ErrNotTravelRelated = errors.New("question is not about travel")
	ErrBlockedContent   = errors.New("question contains blocked instructions")
	ErrLooksLikeCode    = errors.New("question looks like program code")
)

// blockedPhrases are jailbreak attempts, system commands, probing for
// configuration, and code fragments. Matched as whole words on the
// normalized text.
var blockedPhrases = []string{
	"ignora las instrucciones anteriores",
	"forget all previous",
	"act as if",
	"pretend to be",
	"you are now",
	"from now on",
	"disregard",
	"ignore",
	"bypass",
	"override",
	"hack",
	"exploit",
	"vulnerability",
	"security flaw",

	"elimina mi historial",
	"delete my history",
	"clear cache",
	"reset system",
	"shutdown",
	"restart",
	"format",
	"erase",
	"destroy",

	"act as",
	"you are",
	"pretend you are",
	"roleplay as",
	"simulate",
	"imitate",

	"show me your",
	"what is your",
	"tell me your",
	"reveal your",
	"system prompt",
	"api key",
	"password",
	"credentials",

	"execute",
	"run code",
	"run command",
	"system(",
	"eval(",
	"exec(",
	"import os",
	"subprocess",

	"jailbreak",
	"dan mode",
	"developer mode",
	"god mode",
	"unrestricted",
	"unlimited",
}

// travelWords: one hit is enough to consider the question on-topic.
var travelWords = []string{
	"viaje", "travel", "trip", "vacation", "vacaciones",
	"destino", "destination", "lugar", "place", "ciudad", "city",
	"hotel", "alojamiento", "accommodation", "hostal", "hostel",
	"vuelo", "flight", "avion", "plane", "aeropuerto", "airport",
	"itinerario", "itinerary", "plan", "planificar", "planning",
	"recomendacion", "recommendation", "sugerencia", "suggestion",
	"presupuesto", "budget", "gasto", "cost", "precio", "price",
	"restaurante", "restaurant", "comida", "food", "gastronomia",
	"atraccion", "attraction", "turismo", "tourism", "turista",
	"playa", "beach", "montana", "mountain", "museo", "museum",
	"cultura", "culture", "aventura", "adventure", "relajacion",
	"visitar", "visit", "conocer", "explorar", "explore",
	"pais", "country", "continente", "continent",
}

// offTopicWords make the rejection reason more specific when no travel
// word is present.
var offTopicWords = []string{
	"programming", "codigo", "code", "software", "aplicacion",
	"matematicas", "mathematics", "fisica", "physics",
	"politica", "politics", "medicina", "medicine", "salud", "health",
}

var blockedRes = compileBlocked()

func compileBlocked() []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(blockedPhrases))
	for i, phrase := range blockedPhrases {
		res[i] = regexp.MustCompile(`\b` + regexp.QuoteMeta(phrase) + `\b`)
	}
	return res
}

var accentReplacer = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u",
	"ñ", "n", "ü", "u",
)

// Normalize lowercases, trims and strips common accents for matching.
func Normalize(text string) string {
	return accentReplacer.Replace(strings.ToLower(strings.TrimSpace(text)))
}

// DetectBlocked returns the blocked phrases found in the question.
func DetectBlocked(question string) []string {
	normalized := Normalize(question)

	var found []string
	for i, re := range blockedRes {
		if re.MatchString(normalized) {
			found = append(found, blockedPhrases[i])
		}
	}
	return found
}

// IsAboutTravel reports whether the question mentions at least one travel
// topic. The second return value is a human-readable reason when it does not.
func IsAboutTravel(question string) (bool, string) {
	q := strings.TrimSpace(question)
	if len([]rune(q)) < 10 {
		return false, "the question is too short to determine its topic"
	}

	normalized := Normalize(q)
	for _, word := range travelWords {
		if strings.Contains(normalized, word) {
			return true, ""
		}
	}

	for _, word := range offTopicWords {
		if strings.Contains(normalized, word) {
			return false, fmt.Sprintf("this looks like a question about %q, not travel", word)
		}
	}
	return false, "please ask a question about travel planning"
}

// Check validates a question end to end: length bounds, topic, blocklist,
// and a heuristic rejection of multi-line code.
func Check(question string) error {
	q := strings.TrimSpace(question)
	if len([]rune(q)) < 5 {
		return fmt.Errorf("please provide more detail: %w", ErrTooShort)
	}

	if ok, reason := IsAboutTravel(q); !ok {
		return fmt.Errorf("%s: %w", reason, ErrNotTravelRelated)
	}

	if found := DetectBlocked(q); len(found) > 0 {
		return fmt.Errorf("found %q: %w", found[0], ErrBlockedContent)
	}

	if len([]rune(q)) > 2000 {
		return fmt.Errorf("maximum 2000 characters: %w", ErrTooLong)
	}

	if looksLikeCode(q) {
		return fmt.Errorf("please ask in plain language: %w", ErrLooksLikeCode)
	}
	return nil
}

// looksLikeCode flags many-line input where more than 10% of the characters
// are syntax punctuation.
func looksLikeCode(q string) bool {
	if strings.Count(q, "\n") <= 5 {
		return false
	}

	special := 0
	for _, c := range q {
		if strings.ContainsRune("{}[]();=<>", c) {
			special++
		}
	}
	return special > len(q)/10
}

var controlChars = regexp.MustCompile(`[\x00-\x1f\x7f-\x9f]`)
var multiSpace = regexp.MustCompile(`\s+`)

// Sanitize strips control characters, collapses whitespace and truncates
// to 2000 runes.
func Sanitize(question string) string {
	q := controlChars.ReplaceAllString(question, "")

	runes := []rune(q)
	if len(runes) > 2000 {
		q = string(runes[:2000])
	}
	return strings.TrimSpace(multiSpace.ReplaceAllString(q, " "))
}
