package usecase

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	chatdomain "github.com/amo-ladoja/neriah/internal/chat/domain"
)

// Lightweight rule-based parsing of free-text questions. No LLM call:
// chat lookups must answer instantly and cost nothing.

var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"to": true, "for": true, "of": true, "in": true, "on": true,
	"with": true, "my": true, "me": true, "show": true, "find": true,
	"get": true, "list": true, "about": true, "please": true,
	"recent": true, "latest": true,
	// Category words would pollute the keyword search
	"receipts": true, "receipt": true, "invoices": true, "invoice": true,
	"tasks": true, "task": true, "meetings": true, "meeting": true,
	"items": true, "item": true,
	// Query words
	"many": true, "much": true, "how": true, "have": true,
	"received": true, "days": true, "past": true, "last": true,
}

var receiptCategoryKeywords = []struct {
	category string
	keywords []string
}{
	{"software", []string{"software", "saas", "subscription"}},
	{"travel", []string{"travel", "flight", "hotel", "uber", "lyft"}},
	{"medical", []string{"medical", "health", "pharmacy"}},
	{"office", []string{"office", "stationery", "supplies"}},
	{"meals", []string{"meals", "restaurant", "dinner", "lunch"}},
	{"utilities", []string{"utilities", "internet", "phone", "electric"}},
	{"other", []string{"other"}},
}

var monthMap = map[string]time.Month{
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "sept": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

var (
	nonAlnumRe  = regexp.MustCompile(`[^a-z0-9\s]`)
	isoDateRe   = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
	slashDateRe = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})(?:/(\d{2,4}))?$`)
	relativeRe  = regexp.MustCompile(`(?:last|past)\s+(\d{1,3})\s+days`)
	betweenRe   = regexp.MustCompile(`between\s+([a-z0-9/-]+)\s+and\s+([a-z0-9/-]+)`)
	fromToRe    = regexp.MustCompile(`from\s+([a-z0-9/-]+)\s+to\s+([a-z0-9/-]+)`)
	sinceRe     = regexp.MustCompile(`since\s+([a-z0-9/-]+)`)
	negationRe  = regexp.MustCompile(`(?:not|without|exclude|except)\s+([a-z0-9&.\- ]{2,40})`)
	vendorRe    = regexp.MustCompile(`(?i)(?:from|at|paid to|vendor)\s+([a-z0-9&.\- ]+)`)
)

var itemKindRes = []struct {
	kind string
	re   *regexp.Regexp
}{
	{"receipt", regexp.MustCompile(`receipt|invoice`)},
	{"meeting", regexp.MustCompile(`meeting|schedule|calendar`)},
	{"task", regexp.MustCompile(`task|follow up|follow-up|deadline|reply`)},
}

func tokenize(text string) []string {
	cleaned := nonAlnumRe.ReplaceAllString(strings.ToLower(text), " ")
	return strings.Fields(cleaned)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), t.Location())
}

func parseDateToken(token string, now time.Time) (time.Time, bool) {
	if m := isoDateRe.FindStringSubmatch(token); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		return time.Date(year, time.Month(month), day, 0, 0, 0, 0, now.Location()), true
	}

	if m := slashDateRe.FindStringSubmatch(token); m != nil {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		year := now.Year()
		if m[3] != "" {
			year, _ = strconv.Atoi(m[3])
			if year < 100 {
				year += 2000
			}
		}
		return time.Date(year, time.Month(month), day, 0, 0, 0, 0, now.Location()), true
	}

	return time.Time{}, false
}

func dateKeywordRange(lowered string, now time.Time) *chatdomain.DateRange {
	switch {
	case strings.Contains(lowered, "this week"):
		weekday := int(now.Weekday())
		start := startOfDay(now.AddDate(0, 0, -weekday))
		return &chatdomain.DateRange{Start: start, End: now}
	case strings.Contains(lowered, "last week"):
		weekday := int(now.Weekday())
		end := endOfDay(now.AddDate(0, 0, -weekday-1))
		start := startOfDay(end.AddDate(0, 0, -6))
		return &chatdomain.DateRange{Start: start, End: end}
	case strings.Contains(lowered, "this month"):
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return &chatdomain.DateRange{Start: start, End: now}
	case strings.Contains(lowered, "last month"):
		start := time.Date(now.Year(), now.Month()-1, 1, 0, 0, 0, 0, now.Location())
		end := endOfDay(time.Date(now.Year(), now.Month(), 0, 0, 0, 0, 0, now.Location()))
		return &chatdomain.DateRange{Start: start, End: end}
	case strings.Contains(lowered, "yesterday"):
		start := startOfDay(now.AddDate(0, 0, -1))
		return &chatdomain.DateRange{Start: start, End: endOfDay(start)}
	case strings.Contains(lowered, "today"):
		return &chatdomain.DateRange{Start: startOfDay(now), End: now}
	}
	return nil
}

// ExtractDateRange finds a date window in the question: named windows
// ("this week"), relative windows ("past 7 days"), explicit spans
// ("between 2026-01-01 and 2026-02-01", "from X to Y", "since X") and
// bare month-day mentions ("march 5").
func ExtractDateRange(text string, now time.Time) *chatdomain.DateRange {
	lowered := strings.ToLower(text)

	if r := dateKeywordRange(lowered, now); r != nil {
		return r
	}

	if m := relativeRe.FindStringSubmatch(lowered); m != nil {
		days, _ := strconv.Atoi(m[1])
		return &chatdomain.DateRange{Start: now.AddDate(0, 0, -days), End: now}
	}

	if m := betweenRe.FindStringSubmatch(lowered); m != nil {
		start, okStart := parseDateToken(m[1], now)
		end, okEnd := parseDateToken(m[2], now)
		if okStart && okEnd {
			return &chatdomain.DateRange{Start: start, End: end}
		}
	}

	if m := fromToRe.FindStringSubmatch(lowered); m != nil {
		start, okStart := parseDateToken(m[1], now)
		end, okEnd := parseDateToken(m[2], now)
		if okStart && okEnd {
			return &chatdomain.DateRange{Start: start, End: end}
		}
	}

	if m := sinceRe.FindStringSubmatch(lowered); m != nil {
		if start, ok := parseDateToken(m[1], now); ok {
			return &chatdomain.DateRange{Start: start, End: now}
		}
	}

	tokens := tokenize(lowered)
	for i := 0; i+1 < len(tokens); i++ {
		month, ok := monthMap[tokens[i]]
		if !ok {
			continue
		}
		day, err := strconv.Atoi(tokens[i+1])
		if err != nil || day < 1 || day > 31 {
			continue
		}
		start := time.Date(now.Year(), month, day, 0, 0, 0, 0, now.Location())
		return &chatdomain.DateRange{Start: start, End: now}
	}

	return nil
}

// ExtractNegations collects short phrases after "not"/"without"/
// "exclude"/"except", capped at three words each
func ExtractNegations(text string) []string {
	var negations []string
	lowered := strings.ToLower(text)
	for _, m := range negationRe.FindAllStringSubmatch(lowered, -1) {
		words := strings.Fields(strings.TrimSpace(m[1]))
		if len(words) > 3 {
			words = words[:3]
		}
		if len(words) > 0 {
			negations = append(negations, strings.Join(words, " "))
		}
	}
	return negations
}

// ExtractKeywords returns up to five search terms after stripping
// stopwords, short tokens and any negated terms
func ExtractKeywords(text string, negations []string) []string {
	negationTokens := make(map[string]bool)
	for _, neg := range negations {
		for _, tok := range tokenize(neg) {
			negationTokens[tok] = true
		}
	}

	var keywords []string
	for _, word := range tokenize(text) {
		if len(word) <= 2 || stopwords[word] || negationTokens[word] {
			continue
		}
		keywords = append(keywords, word)
		if len(keywords) == 5 {
			break
		}
	}
	return keywords
}

// ExtractCategory matches the question against the receipt category
// vocabularies
func ExtractCategory(text string) string {
	lowered := strings.ToLower(text)
	for _, entry := range receiptCategoryKeywords {
		for _, keyword := range entry.keywords {
			if strings.Contains(lowered, keyword) {
				return entry.category
			}
		}
	}
	return ""
}

// ExtractVendor pulls a vendor name after "from"/"at"/"paid to"/
// "vendor", capped at three words
func ExtractVendor(text string) string {
	m := vendorRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	words := strings.Fields(strings.TrimSpace(m[1]))
	if len(words) > 3 {
		words = words[:3]
	}
	return strings.Join(words, " ")
}

// ExtractPriority finds an explicit priority mention
func ExtractPriority(text string) string {
	lowered := strings.ToLower(text)
	switch {
	case strings.Contains(lowered, "urgent"):
		return "urgent"
	case strings.Contains(lowered, "high"):
		return "high"
	case strings.Contains(lowered, "medium"):
		return "medium"
	case strings.Contains(lowered, "low"):
		return "low"
	}
	return ""
}

// ExtractItemKind finds which family of items the question is about
func ExtractItemKind(text string) string {
	lowered := strings.ToLower(text)
	for _, entry := range itemKindRes {
		if entry.re.MatchString(lowered) {
			return entry.kind
		}
	}
	return ""
}
