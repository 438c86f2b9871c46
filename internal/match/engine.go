package match

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// Fixed scoring weights. These are a contract with the acceptance threshold
// and are deliberately not configurable at runtime.
const (
	weightExact        = 0.5
	weightSimHigh      = 0.4 // similarity > 0.9
	weightSimGood      = 0.2 // similarity > 0.7
	weightSimFair      = 0.1 // similarity > 0.5
	weightIDMatch      = 0.4
	weightIDMismatch   = -0.2
	weightIDHintGood   = 0.2 // trusted candidate id, similarity > 0.7
	weightIDHintFair   = 0.1 // trusted candidate id, similarity > 0.5
	weightSameSource   = 0.1
	penaltyWordOverlap = -0.3
	penaltyLengthSkew  = -0.3
	penaltySuffix      = -0.25

	wordOverlapFloor = 0.3
	lengthSkewLimit  = 0.5

	// AcceptThreshold is the minimum confidence for an automatic match.
	AcceptThreshold = 0.3
)

// Input describes the scanned side of a match request.
type Input struct {
	Title      string
	Source     string
	ExternalID string
}

// Candidate is one catalog entry under consideration.
type Candidate struct {
	ID         string
	Title      string
	Source     string
	ExternalID string
	// TrustedID marks candidates whose external id comes from a source
	// reliable enough to corroborate a merely decent title match.
	TrustedID bool
}

// Result pairs a candidate with its computed confidence and the ordered
// rationale behind it.
type Result struct {
	Candidate  Candidate
	Confidence float64
	Reasons    []string
}

// Score computes the match confidence between a scanned title and one
// candidate. It is a pure function: identical inputs produce identical
// confidence and reasons ordering.
func Score(input Input, candidate Candidate) Result {
	result := Result{Candidate: candidate}

	scannedNorm := Normalize(input.Title)
	candidateNorm := Normalize(candidate.Title)

	exact := scannedNorm != "" && scannedNorm == candidateNorm
	similarity := 0.0
	if exact {
		similarity = 1.0
		result.add(weightExact, "exact normalized title match")
	} else {
		similarity = similarityRatio(scannedNorm, candidateNorm)
	}
	switch {
	case similarity > 0.9:
		result.add(weightSimHigh, fmt.Sprintf("title similarity %.2f", similarity))
	case similarity > 0.7:
		result.add(weightSimGood, fmt.Sprintf("title similarity %.2f", similarity))
	case similarity > 0.5:
		result.add(weightSimFair, fmt.Sprintf("title similarity %.2f", similarity))
	}

	scannedID := strings.TrimSpace(input.ExternalID)
	candidateID := strings.TrimSpace(candidate.ExternalID)
	switch {
	case scannedID != "" && candidateID != "":
		if scannedID == candidateID {
			result.add(weightIDMatch, "external id match")
		} else {
			// Disagreeing ids outweigh a good title match.
			result.add(weightIDMismatch, "external id mismatch")
		}
	case scannedID == "" && candidateID != "" && candidate.TrustedID:
		if similarity > 0.7 {
			result.add(weightIDHintGood, "trusted candidate id with similar title")
		} else if similarity > 0.5 {
			result.add(weightIDHintFair, "trusted candidate id with fair title")
		}
	}

	if input.Source != "" && strings.EqualFold(input.Source, candidate.Source) {
		result.add(weightSameSource, "same originating platform")
	}

	if !exact {
		applyPenalties(&result, input.Title, candidate.Title)
	}

	if result.Confidence < 0 {
		result.Confidence = 0
	} else if result.Confidence > 1 {
		result.Confidence = 1
	}
	return result
}

// Rank scores every candidate, sorts descending by confidence (stable, so
// ties keep original candidate order), and reports whether the top entry
// clears the acceptance threshold. Callers fall back to manual resolution
// when it does not.
func Rank(input Input, candidates []Candidate, threshold float64) ([]Result, bool) {
	if threshold <= 0 {
		threshold = AcceptThreshold
	}
	results := make([]Result, 0, len(candidates))
	for _, candidate := range candidates {
		results = append(results, Score(input, candidate))
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Confidence > results[j].Confidence
	})
	if len(results) == 0 || results[0].Confidence < threshold {
		return results, false
	}
	return results, true
}

func (r *Result) add(weight float64, reason string) {
	r.Confidence += weight
	r.Reasons = append(r.Reasons, fmt.Sprintf("%s (%+.2f)", reason, weight))
}

func applyPenalties(result *Result, scannedTitle, candidateTitle string) {
	scannedWords := strings.Fields(Normalize(scannedTitle))
	candidateWords := strings.Fields(Normalize(candidateTitle))
	if len(scannedWords) == 0 || len(candidateWords) == 0 {
		return
	}

	if overlap := wordOverlap(scannedWords, candidateWords); overlap < wordOverlapFloor {
		result.add(penaltyWordOverlap, fmt.Sprintf("word overlap %.2f", overlap))
	}

	longer := max(len(Normalize(scannedTitle)), len(Normalize(candidateTitle)))
	shorter := min(len(Normalize(scannedTitle)), len(Normalize(candidateTitle)))
	if longer > 0 {
		skew := float64(longer-shorter) / float64(longer)
		if skew > lengthSkewLimit {
			result.add(penaltyLengthSkew, fmt.Sprintf("length divergence %.2f", skew))
		}
	}

	if suffixMismatch(scannedWords, candidateWords) {
		result.add(penaltySuffix, "shared prefix with divergent suffix")
	}
}

// suffixMismatch detects sequel and edition confusion: both titles share a
// leading token run, and what remains after it is itself dissimilar.
func suffixMismatch(scannedWords, candidateWords []string) bool {
	prefix := 0
	for prefix < len(scannedWords) && prefix < len(candidateWords) && scannedWords[prefix] == candidateWords[prefix] {
		prefix++
	}
	if prefix == 0 {
		return false
	}
	scannedSuffix := strings.Join(scannedWords[prefix:], " ")
	candidateSuffix := strings.Join(candidateWords[prefix:], " ")
	if scannedSuffix == candidateSuffix {
		return false
	}
	return similarityRatio(scannedSuffix, candidateSuffix) < 0.5
}

func wordOverlap(a, b []string) float64 {
	set := make(map[string]bool, len(a))
	for _, word := range a {
		set[word] = true
	}
	shared := 0
	seen := make(map[string]bool, len(b))
	for _, word := range b {
		if set[word] && !seen[word] {
			shared++
			seen[word] = true
		}
	}
	denom := max(len(a), len(b))
	if denom == 0 {
		return 0
	}
	return float64(shared) / float64(denom)
}

// Normalize lowercases, trims, strips everything but letters, digits, and
// spaces, and collapses internal whitespace.
func Normalize(title string) string {
	var builder strings.Builder
	prevSpace := false
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			builder.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r):
			if !prevSpace && builder.Len() > 0 {
				builder.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	return strings.TrimSpace(builder.String())
}

// similarityRatio is 1 − (edit distance / longer length) over normalized
// input, in [0,1].
func similarityRatio(a, b string) float64 {
	if a == "" && b == "" {
		return 0
	}
	longer := max(len(a), len(b))
	if longer == 0 {
		return 0
	}
	distance := editDistance(a, b)
	return 1 - float64(distance)/float64(longer)
}

// editDistance is the classic dynamic-programming Levenshtein distance with
// a rolling pair of rows.
func editDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
