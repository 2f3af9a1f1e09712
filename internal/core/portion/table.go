package portion

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/nutrition-pipeline/internal/core/textnorm"
)

//go:embed table.yaml
var tableYAML []byte

var defaultTable = mustLoadTable(tableYAML)

// DefaultTable returns the embedded density and portion table.
func DefaultTable() *Table {
	return defaultTable
}

type keywordDensity struct {
	Keyword string  `yaml:"keyword"`
	Density float64 `yaml:"density"`
}

type tableFile struct {
	Densities       map[string]float64 `yaml:"densities"`
	DensityKeywords []keywordDensity   `yaml:"density_keywords"`
	DefaultDensity  float64            `yaml:"default_density"`
	Portions        map[string]float64 `yaml:"portions"`
	DefaultPortion  float64            `yaml:"default_portion"`
}

type entry struct {
	phrase []string
	value  float64
}

// Table is the static DensityTable. It is read-only after load.
type Table struct {
	densities      []entry
	keywords       []entry
	defaultDensity float64
	portions       []entry
	defaultPortion float64
}

// LoadTable parses a YAML table document.
func LoadTable(data []byte) (*Table, error) {
	var raw tableFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode portion table: %w", err)
	}
	if raw.DefaultDensity <= 0 {
		return nil, fmt.Errorf("portion table: default_density must be positive")
	}
	if raw.DefaultPortion <= 0 {
		return nil, fmt.Errorf("portion table: default_portion must be positive")
	}

	densities, err := sortedEntries("densities", raw.Densities)
	if err != nil {
		return nil, err
	}
	portions, err := sortedEntries("portions", raw.Portions)
	if err != nil {
		return nil, err
	}

	keywords := make([]entry, 0, len(raw.DensityKeywords))
	for _, kw := range raw.DensityKeywords {
		phrase := strings.Fields(textnorm.AlnumWords(kw.Keyword))
		if len(phrase) == 0 || kw.Density <= 0 {
			return nil, fmt.Errorf("portion table: invalid density keyword %q", kw.Keyword)
		}
		keywords = append(keywords, entry{phrase: phrase, value: kw.Density})
	}

	return &Table{
		densities:      densities,
		keywords:       keywords,
		defaultDensity: raw.DefaultDensity,
		portions:       portions,
		defaultPortion: raw.DefaultPortion,
	}, nil
}

func mustLoadTable(data []byte) *Table {
	t, err := LoadTable(data)
	if err != nil {
		panic(err)
	}
	return t
}

// sortedEntries orders keys longest first so the most specific phrase wins.
func sortedEntries(section string, values map[string]float64) ([]entry, error) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})

	out := make([]entry, 0, len(keys))
	for _, k := range keys {
		phrase := strings.Fields(textnorm.AlnumWords(k))
		if len(phrase) == 0 || values[k] <= 0 {
			return nil, fmt.Errorf("portion table: invalid %s entry %q", section, k)
		}
		out = append(out, entry{phrase: phrase, value: values[k]})
	}
	return out, nil
}

// Density returns grams per millilitre for foodName.
func (t *Table) Density(foodName string) float64 {
	words := nameWords(foodName)
	if v, ok := firstMatch(t.densities, words); ok {
		return v
	}
	if v, ok := firstMatch(t.keywords, words); ok {
		return v
	}
	return t.defaultDensity
}

// DefaultGrams returns the typical portion mass for foodName.
func (t *Table) DefaultGrams(foodName string) float64 {
	if v, ok := firstMatch(t.portions, nameWords(foodName)); ok {
		return v
	}
	return t.defaultPortion
}

func firstMatch(entries []entry, words []string) (float64, bool) {
	for _, e := range entries {
		if containsPhrase(words, e.phrase) {
			return e.value, true
		}
	}
	return 0, false
}

func nameWords(name string) []string {
	return strings.Fields(textnorm.AlnumWords(name))
}

// containsPhrase reports whether phrase occurs as consecutive words. The
// last word also matches its simple plural.
func containsPhrase(words, phrase []string) bool {
	if len(phrase) == 0 || len(phrase) > len(words) {
		return false
	}
	last := len(phrase) - 1
	for start := 0; start+len(phrase) <= len(words); start++ {
		ok := true
		for i, p := range phrase {
			w := words[start+i]
			if w == p || (i == last && (w == p+"s" || w == p+"es")) {
				continue
			}
			ok = false
			break
		}
		if ok {
			return true
		}
	}
	return false
}
