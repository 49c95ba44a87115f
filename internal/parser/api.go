// Package parser turns upstream payloads into validated draw records.
// The JSON API parser and the HTML strategy chain both fail soft: a
// malformed object or block is skipped, never the whole batch.
package parser

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/jonesrussell/powerdraw/internal/domain"
	"github.com/jonesrussell/powerdraw/internal/logger"
)

// targetProduct identifies the draws we ingest; objects for other games
// are silently skipped.
const targetProduct = "powerball"

// Field alias tables for the provider's unstable JSON schemas. Each
// logical field is looked up by trying the aliases in order and taking
// the first key present.
var (
	collectionAliases = []string{"draws", "results", "data", "items"}
	productAliases    = []string{"product", "product_id", "game", "game_name", "lottery", "type"}
	drawNoAliases     = []string{"draw_no", "draw_number", "drawNumber", "draw_id", "draw", "number"}
	drawDateAliases   = []string{"draw_date", "drawDate", "date", "draw_datetime", "drawn_at"}
	mainsAliases      = []string{"primary_numbers", "winning_numbers", "main_numbers", "numbers", "mains", "balls"}
	powerballAliases  = []string{"secondary_numbers", "powerball", "powerball_number", "pb", "supplementary"}
)

// timestampLayouts are tried after the bare ISO date when parsing draw
// dates; only the date portion is kept.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// APIParser decodes the provider's JSON feeds into draw records.
type APIParser struct {
	rules domain.Rules
	log   logger.Interface
}

// NewAPIParser creates an API parser validating against the given rules.
func NewAPIParser(rules domain.Rules, log logger.Interface) *APIParser {
	return &APIParser{rules: rules, log: log}
}

// Parse decodes payload into zero or more validated draws. The payload may
// be a JSON array of draw objects or an object wrapping one under an
// aliased collection key. Output order is not guaranteed; callers dedup.
func (p *APIParser) Parse(payload []byte, sourceURL string) []domain.Draw {
	objects := decodeCollection(payload)
	if len(objects) == 0 {
		return nil
	}

	draws := make([]domain.Draw, 0, len(objects))
	for _, obj := range objects {
		draw, ok := p.parseObject(obj, sourceURL)
		if !ok {
			continue
		}
		draws = append(draws, draw)
	}

	return draws
}

// decodeCollection extracts the array of draw objects from the payload.
func decodeCollection(payload []byte) []map[string]any {
	var arr []map[string]any
	if err := json.Unmarshal(payload, &arr); err == nil {
		return arr
	}

	var wrapper map[string]any
	if err := json.Unmarshal(payload, &wrapper); err != nil {
		return nil
	}

	for _, key := range collectionAliases {
		raw, exists := wrapper[key]
		if !exists {
			continue
		}
		items, isList := raw.([]any)
		if !isList {
			continue
		}

		objects := make([]map[string]any, 0, len(items))
		for _, item := range items {
			if obj, isObj := item.(map[string]any); isObj {
				objects = append(objects, obj)
			}
		}
		return objects
	}

	return nil
}

// parseObject converts one feed object into a validated draw. Returns
// false for objects that are not the target product or fail validation.
func (p *APIParser) parseObject(obj map[string]any, sourceURL string) (domain.Draw, bool) {
	product, found := lookupString(obj, productAliases)
	if !found || !strings.Contains(strings.ToLower(product), targetProduct) {
		return domain.Draw{}, false
	}

	drawNo, found := lookupInt(obj, drawNoAliases)
	if !found {
		return domain.Draw{}, false
	}

	rawDate, found := lookupString(obj, drawDateAliases)
	if !found {
		return domain.Draw{}, false
	}
	drawDate, ok := parseAPIDate(rawDate)
	if !ok {
		p.log.Debug("skipping draw with unparseable date", "draw_no", drawNo, "date", rawDate)
		return domain.Draw{}, false
	}

	mains, found := lookupIntList(obj, mainsAliases)
	if !found {
		return domain.Draw{}, false
	}

	powerball, found := lookupScalarInt(obj, powerballAliases)
	if !found && len(mains) == p.rules.MainCount+1 {
		// Some feeds fold the powerball into the main list as an 8th value.
		powerball = mains[len(mains)-1]
		mains = mains[:len(mains)-1]
		found = true
	}
	if !found {
		return domain.Draw{}, false
	}

	draw := domain.Draw{
		DrawNo:    drawNo,
		DrawDate:  drawDate,
		Mains:     mains,
		Powerball: powerball,
		SourceURL: sourceURL,
	}

	if err := draw.ValidateWith(p.rules); err != nil {
		p.log.Debug("skipping invalid draw", "draw_no", drawNo, "error", err.Error())
		return domain.Draw{}, false
	}

	return draw, true
}

// parseAPIDate accepts a bare ISO date or a timestamp, keeping only the
// date portion.
func parseAPIDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)

	if t, err := time.Parse(domain.DateLayout, raw); err == nil {
		return t, true
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}

	return time.Time{}, false
}

// lookupString returns the first aliased field present as a string.
func lookupString(obj map[string]any, aliases []string) (string, bool) {
	for _, key := range aliases {
		raw, exists := obj[key]
		if !exists {
			continue
		}
		switch v := raw.(type) {
		case string:
			return v, true
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64), true
		}
	}
	return "", false
}

// lookupInt returns the first aliased field coercible to an int.
func lookupInt(obj map[string]any, aliases []string) (int, bool) {
	for _, key := range aliases {
		raw, exists := obj[key]
		if !exists {
			continue
		}
		if n, ok := coerceInt(raw); ok {
			return n, true
		}
	}
	return 0, false
}

// lookupIntList returns the first aliased field as a list of ints. The
// field may be a native JSON array or a delimited string of digit tokens.
func lookupIntList(obj map[string]any, aliases []string) ([]int, bool) {
	for _, key := range aliases {
		raw, exists := obj[key]
		if !exists {
			continue
		}

		switch v := raw.(type) {
		case []any:
			nums := make([]int, 0, len(v))
			for _, item := range v {
				n, ok := coerceInt(item)
				if !ok {
					return nil, false
				}
				nums = append(nums, n)
			}
			if len(nums) > 0 {
				return nums, true
			}
		case string:
			nums := tokenizeInts(v)
			if len(nums) > 0 {
				return nums, true
			}
		}
	}
	return nil, false
}

// lookupScalarInt returns the first aliased field as a single int,
// accepting a scalar or a single-element list.
func lookupScalarInt(obj map[string]any, aliases []string) (int, bool) {
	for _, key := range aliases {
		raw, exists := obj[key]
		if !exists {
			continue
		}

		if list, isList := raw.([]any); isList {
			if len(list) != 1 {
				continue
			}
			raw = list[0]
		}

		if n, ok := coerceInt(raw); ok {
			return n, true
		}
	}
	return 0, false
}

// coerceInt converts a JSON scalar to an int.
func coerceInt(raw any) (int, bool) {
	switch v := raw.(type) {
	case float64:
		return int(v), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
