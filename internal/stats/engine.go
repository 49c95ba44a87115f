// Package stats derives descriptive statistics over stored draws:
// frequency tables, k-combination counts, and a deterministic tie-broken
// pick. None of it is predictive; draws are independent events.
package stats

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/jonesrussell/powerdraw/internal/domain"
	"github.com/jonesrussell/powerdraw/internal/logger"
)

// Disclaimer labels every prediction response. The pick is a
// deterministic tie-break over observed counts, not a forecast.
const Disclaimer = "descriptive statistics only; past draws do not influence future draws"

// missingRecencySentinel ranks a candidate that never appears in the
// window behind every candidate that does.
const missingRecencySentinel = int(^uint(0) >> 1)

// Group size bounds for combination statistics.
const (
	MinGroupSize = 2
)

// DrawReader is the slice of the storage contract the engine consumes.
type DrawReader interface {
	List(ctx context.Context, limit int) ([]domain.Draw, error)
	Frequencies(ctx context.Context, window int) (*domain.FrequencyTable, error)
}

// ValueCount is one value with its occurrence count.
type ValueCount struct {
	Value int `json:"value"`
	Count int `json:"count"`
}

// GroupCount is one k-combination with its occurrence count.
type GroupCount struct {
	Numbers []int `json:"numbers"`
	Count   int   `json:"count"`
}

// GroupResult holds combination statistics over a window of draws.
type GroupResult struct {
	SampleSize int                  `json:"sample_size"`
	Groups     map[int][]GroupCount `json:"groups"`
	Powerball  []ValueCount         `json:"powerball"`
}

// DomainPick is the deterministic pick for one number domain.
type DomainPick struct {
	Chosen     int   `json:"chosen"`
	Count      int   `json:"count"`
	Candidates []int `json:"candidates"`
}

// Prediction is the full deterministic pick output.
type Prediction struct {
	Mains       DomainPick             `json:"mains"`
	Powerball   DomainPick             `json:"powerball"`
	Frequencies *domain.FrequencyTable `json:"frequencies"`
	Note        string                 `json:"note"`
}

// Engine computes statistics by re-reading fresh rows from storage on
// every call; it keeps no aggregate state.
type Engine struct {
	reader DrawReader
	rules  domain.Rules
	log    logger.Interface
}

// NewEngine creates a stats engine over the given reader.
func NewEngine(reader DrawReader, rules domain.Rules, log logger.Interface) *Engine {
	return &Engine{reader: reader, rules: rules, log: log}
}

// Frequencies returns the occurrence counts over the window most-recent
// draws (all draws when window is 0 or less).
func (e *Engine) Frequencies(ctx context.Context, window int) (*domain.FrequencyTable, error) {
	return e.reader.Frequencies(ctx, window)
}

// GroupStats counts every k-size combination of each draw's mains for
// each requested k, returning the limit highest-count combinations per k
// plus the powerball's top counts over the same window.
func (e *Engine) GroupStats(ctx context.Context, window int, ks []int, limit int) (*GroupResult, error) {
	draws, err := e.reader.List(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("list draws: %w", err)
	}

	result := &GroupResult{
		SampleSize: len(draws),
		Groups:     make(map[int][]GroupCount, len(ks)),
	}

	for _, k := range ks {
		if k < MinGroupSize || k > e.rules.MainCount {
			return nil, fmt.Errorf("group size %d out of range [%d,%d]", k, MinGroupSize, e.rules.MainCount)
		}
		result.Groups[k] = topCombinations(draws, k, limit)
	}

	table := domain.NewFrequencyTable(e.rules)
	for i := range draws {
		table.Add(&draws[i])
	}
	result.Powerball = topValues(table.Powerball, limit)

	e.log.Debug("group stats computed", "sample_size", result.SampleSize, "sizes", len(ks))

	return result, nil
}

// Predict computes the frequency table over the window and picks, for
// each domain independently, the max-count value, tie-broken by recency
// then lowest value. The output is descriptive only.
func (e *Engine) Predict(ctx context.Context, window int) (*Prediction, error) {
	draws, err := e.reader.List(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("list draws: %w", err)
	}

	table := domain.NewFrequencyTable(e.rules)
	for i := range draws {
		table.Add(&draws[i])
	}

	mainsPick := pickDomain(table.Mains, draws, func(d *domain.Draw, value int) bool {
		for _, n := range d.Mains {
			if n == value {
				return true
			}
		}
		return false
	})

	powerballPick := pickDomain(table.Powerball, draws, func(d *domain.Draw, value int) bool {
		return d.Powerball == value
	})

	e.log.Debug("prediction computed",
		"sample_size", table.SampleSize,
		"mains", mainsPick.Chosen,
		"powerball", powerballPick.Chosen,
	)

	return &Prediction{
		Mains:       mainsPick,
		Powerball:   powerballPick,
		Frequencies: table,
		Note:        Disclaimer,
	}, nil
}

// pickDomain resolves one domain's pick: the candidate set is every value
// at the maximum count; ties are broken by the index of the most recent
// draw containing the value (draws are newest-first), then by lowest
// value.
func pickDomain(counts map[int]int, draws []domain.Draw, contains func(*domain.Draw, int) bool) DomainPick {
	maxCount := 0
	for _, c := range counts {
		if c > maxCount {
			maxCount = c
		}
	}

	var candidates []int
	for value, c := range counts {
		if c == maxCount {
			candidates = append(candidates, value)
		}
	}
	sort.Ints(candidates)

	pick := DomainPick{
		Count:      maxCount,
		Candidates: candidates,
	}

	if len(candidates) == 0 {
		return pick
	}
	if len(candidates) == 1 {
		pick.Chosen = candidates[0]
		return pick
	}

	// Record, per candidate, the index of the first draw (newest first)
	// it appears in; stop once every candidate has one.
	recency := make(map[int]int, len(candidates))
	for idx := range draws {
		for _, value := range candidates {
			if _, done := recency[value]; done {
				continue
			}
			if contains(&draws[idx], value) {
				recency[value] = idx
			}
		}
		if len(recency) == len(candidates) {
			break
		}
	}

	chosen := candidates[0]
	chosenIdx := recencyIndex(recency, chosen)
	for _, value := range candidates[1:] {
		idx := recencyIndex(recency, value)
		if idx < chosenIdx {
			chosen = value
			chosenIdx = idx
		}
	}

	pick.Chosen = chosen
	return pick
}

// recencyIndex returns the candidate's recorded index or the sentinel
// when it never appeared.
func recencyIndex(recency map[int]int, value int) int {
	if idx, ok := recency[value]; ok {
		return idx
	}
	return missingRecencySentinel
}

// topCombinations accumulates counts for every k-combination across all
// draws and returns the limit highest, ordered by count descending then
// by the combination's natural ordering.
func topCombinations(draws []domain.Draw, k, limit int) []GroupCount {
	counts := make(map[string]*GroupCount)

	for i := range draws {
		mains := append([]int(nil), draws[i].Mains...)
		sort.Ints(mains)

		forEachCombination(mains, k, func(combo []int) {
			key := comboKey(combo)
			if entry, ok := counts[key]; ok {
				entry.Count++
				return
			}
			counts[key] = &GroupCount{
				Numbers: append([]int(nil), combo...),
				Count:   1,
			}
		})
	}

	ranked := make([]GroupCount, 0, len(counts))
	for _, entry := range counts {
		ranked = append(ranked, *entry)
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return lessCombo(ranked[i].Numbers, ranked[j].Numbers)
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// topValues ranks a count map by count descending then value ascending.
func topValues(counts map[int]int, limit int) []ValueCount {
	ranked := make([]ValueCount, 0, len(counts))
	for value, c := range counts {
		ranked = append(ranked, ValueCount{Value: value, Count: c})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Value < ranked[j].Value
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// forEachCombination visits every k-combination of nums in lexicographic
// order. Combinations within one draw are unique by construction since
// each main is used at most once.
func forEachCombination(nums []int, k int, visit func([]int)) {
	if k <= 0 || k > len(nums) {
		return
	}

	combo := make([]int, k)

	var walk func(start, depth int)
	walk = func(start, depth int) {
		if depth == k {
			visit(combo)
			return
		}
		for i := start; i <= len(nums)-(k-depth); i++ {
			combo[depth] = nums[i]
			walk(i+1, depth+1)
		}
	}
	walk(0, 0)
}

// comboKey builds a stable map key for a sorted combination.
func comboKey(combo []int) string {
	var b strings.Builder
	for _, n := range combo {
		b.WriteString(strconv.Itoa(n))
		b.WriteByte('-')
	}
	return b.String()
}

// lessCombo compares two equal-length sorted combinations element-wise.
func lessCombo(a, b []int) bool {
	for i := range a {
		if i >= len(b) {
			return false
		}
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
