package scoring

import (
	_ "embed"
	"strings"
	"sync"
)

//go:embed sponsors.txt
var sponsorData string

var legalSuffixes = []string{
	"limited", "ltd", "llp", "llc", "plc", "inc", "incorporated",
	"corp", "corporation", "gmbh", "uk", "group", "holdings",
}

// SponsorIndex answers whether a company appears on the licensed-sponsor
// reference list. Lookups are fuzzy: legal suffixes and punctuation are
// ignored, and partial name matches still count.
type SponsorIndex struct {
	entries []string
}

var (
	defaultIndex     *SponsorIndex
	defaultIndexOnce sync.Once
)

// DefaultSponsorIndex loads the embedded sponsor list once.
func DefaultSponsorIndex() *SponsorIndex {
	defaultIndexOnce.Do(func() {
		defaultIndex = NewSponsorIndex(strings.Split(sponsorData, "\n"))
	})
	return defaultIndex
}

// NewSponsorIndex builds an index from raw company names.
func NewSponsorIndex(names []string) *SponsorIndex {
	idx := &SponsorIndex{}
	for _, name := range names {
		normalized := normalizeCompany(name)
		if normalized != "" {
			idx.entries = append(idx.entries, normalized)
		}
	}
	return idx
}

// Match returns a 0-100 confidence that company holds a sponsor licence.
// 100 means an exact normalized match, 90 a partial name match, and anything
// below reflects token overlap. Unknown companies score 0.
func (idx *SponsorIndex) Match(company string) float64 {
	target := normalizeCompany(company)
	if target == "" {
		return 0
	}

	best := 0.0
	targetTokens := strings.Fields(target)

	for _, entry := range idx.entries {
		if entry == target {
			return 100
		}
		if strings.Contains(entry, target) || strings.Contains(target, entry) {
			if best < 90 {
				best = 90
			}
			continue
		}
		if score := tokenOverlap(targetTokens, strings.Fields(entry)); score > best {
			best = score
		}
	}
	return best
}

// tokenOverlap scores shared words between two normalized names. Below half
// overlap the match is considered noise.
func tokenOverlap(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	set := make(map[string]bool, len(a))
	for _, token := range a {
		set[token] = true
	}

	shared := 0
	for _, token := range b {
		if set[token] {
			shared++
		}
	}

	size := len(a)
	if len(b) > size {
		size = len(b)
	}

	ratio := float64(shared) / float64(size)
	if ratio < 0.5 {
		return 0
	}
	return ratio * 100
}

func normalizeCompany(name string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		default:
			sb.WriteRune(' ')
		}
	}

	tokens := strings.Fields(sb.String())
	filtered := tokens[:0]
	for _, token := range tokens {
		if isLegalSuffix(token) {
			continue
		}
		filtered = append(filtered, token)
	}
	return strings.Join(filtered, " ")
}

func isLegalSuffix(token string) bool {
	for _, suffix := range legalSuffixes {
		if token == suffix {
			return true
		}
	}
	return false
}
