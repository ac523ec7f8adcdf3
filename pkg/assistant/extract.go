package assistant

import (
	"regexp"
	"strings"
)

// ConsultInfo is the structured summary pulled out of a free-text question
// for the audit trail.
type ConsultInfo struct {
	Destination string
	Dates       string
	Budget      string
	Preferences []string
}

// knownDestinations are the places recognized in free text, lowercased.
var knownDestinations = []string{
	"parís", "paris", "tokio", "tokyo", "nueva york", "new york",
	"londres", "london", "roma", "rome", "barcelona", "madrid", "berlín", "berlin",
	"amsterdam", "atenas", "athens", "dubai", "singapur", "singapore", "sydney", "sídney",
	"melbourne", "toronto", "montreal", "vancouver", "miami", "los angeles", "san francisco",
	"chicago", "boston", "lisboa", "lisbon", "prague", "praga", "viena", "vienna",
	"budapest", "cracovia", "krakow", "bangkok", "seúl", "seoul", "hong kong",
	"shanghai", "pekin", "beijing", "moscú", "moscow", "sao paulo", "rio de janeiro",
	"buenos aires", "santiago", "lima", "bogotá", "bogota",
}

var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d{1,2}[/\-]\d{1,2}[/\-]\d{2,4}`),
	regexp.MustCompile(`(?i)\d{1,2}\s+(de\s+)?(enero|febrero|marzo|abril|mayo|junio|julio|agosto|septiembre|octubre|noviembre|diciembre)`),
	regexp.MustCompile(`(?i)\d{1,2}\s+(de\s+)?(january|february|march|april|may|june|july|august|september|october|november|december)`),
	regexp.MustCompile(`(?i)(enero|febrero|marzo|abril|mayo|junio|julio|agosto|septiembre|octubre|noviembre|diciembre)\s+\d{4}`),
	regexp.MustCompile(`(?i)(january|february|march|april|may|june|july|august|september|october|november|december)\s+\d{4}`),
}

var budgetPattern = regexp.MustCompile(`(?i)(?:presupuesto|budget|gasto|coste|precio|dinero)[\s:]*(?:de|of)?[\s:]*\$?([\d,]+)`)

var preferencePatterns = map[string]*regexp.Regexp{
	"aventura":    regexp.MustCompile(`(?i)aventura|adventure|extremo|extreme`),
	"cultura":     regexp.MustCompile(`(?i)cultura|culture|museo|museum|historia|history|arte|art`),
	"relajación":  regexp.MustCompile(`(?i)relaj|relax|tranquilo|tranquil|playa|beach|spa`),
	"gastronomía": regexp.MustCompile(`(?i)comida|food|gastronom|restaurante|restaurant|culinario`),
	"naturaleza":  regexp.MustCompile(`(?i)naturaleza|nature|parque|park|montaña|mountain|bosque`),
}

// preferenceOrder keeps extraction output deterministic.
var preferenceOrder = []string{"aventura", "cultura", "relajación", "gastronomía", "naturaleza"}

// Extract pulls destination, travel dates, budget and preference keywords
// out of a question. Missing pieces stay empty; nothing here fails.
func Extract(question string) ConsultInfo {
	info := ConsultInfo{
		Destination: extractDestination(question),
		Dates:       extractDates(question),
	}

	if m := budgetPattern.FindStringSubmatch(question); m != nil {
		info.Budget = strings.ReplaceAll(m[1], ",", "")
	}

	for _, pref := range preferenceOrder {
		if preferencePatterns[pref].MatchString(question) {
			info.Preferences = append(info.Preferences, pref)
		}
	}
	return info
}

func extractDestination(question string) string {
	lower := strings.ToLower(question)
	for _, dest := range knownDestinations {
		if strings.Contains(lower, dest) {
			return titleWords(dest)
		}
	}
	return ""
}

func extractDates(question string) string {
	for _, pattern := range datePatterns {
		if m := pattern.FindString(question); m != "" {
			return m
		}
	}
	return ""
}

func titleWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		runes := []rune(w)
		words[i] = strings.ToUpper(string(runes[0])) + string(runes[1:])
	}
	return strings.Join(words, " ")
}
