// Package candidates deduplicates food candidates coming from several
// providers.
package candidates

import (
	"strings"

	"github.com/kirillkom/nutrition-pipeline/internal/core/domain"
	"github.com/kirillkom/nutrition-pipeline/internal/core/textnorm"
)

// MaxMerged caps merged output for display and latency.
const MaxMerged = 8

// CanonicalKey identifies the logical food behind a candidate:
// name|classId|brand|ref.
func CanonicalKey(c domain.Candidate) string {
	return strings.Join([]string{
		textnorm.AlnumWords(c.Name),
		lowerTrim(c.ClassID),
		lowerTrim(c.BrandName),
		lowerTrim(c.ProviderRef),
	}, "|")
}

// Merge keeps the first candidate for every canonical key, visiting cheap
// candidates before edge candidates, so local results win over remote
// enrichment for the same food.
func Merge(cheap, edge []domain.Candidate) []domain.Candidate {
	seen := make(map[string]struct{}, len(cheap)+len(edge))
	out := make([]domain.Candidate, 0, MaxMerged)

	for _, list := range [][]domain.Candidate{cheap, edge} {
		for _, c := range list {
			if len(out) == MaxMerged {
				return out
			}
			if textnorm.AlnumWords(c.Name) == "" {
				continue
			}
			key := CanonicalKey(c)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}

func lowerTrim(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
