package parser

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/powerdraw/internal/domain"
	"github.com/jonesrussell/powerdraw/internal/logger"
)

// Extraction bounds for a candidate block.
const (
	// drawNumbersNeeded is mains plus the powerball.
	drawNumbersNeeded = 8
	// listScanLimit bounds how many following elements are inspected when
	// looking for a number list near a candidate block.
	listScanLimit = 6
	// textSliceLimit bounds the text scanned after the date substring in
	// the last-resort number extraction.
	textSliceLimit = 160
	// maxTokenDigits is the widest number token a results list may carry.
	maxTokenDigits = 2
)

// drawTokenRe finds the "Draw <number>" token that marks a result block.
var drawTokenRe = regexp.MustCompile(`(?i)\bdraw\s+(\d+)`)

// dateRe finds a day/month-name/year substring, with an optional weekday
// prefix and optional comma.
var dateRe = regexp.MustCompile(
	`(?i)\b(?:(?:mon|tues|wednes|thurs|fri|satur|sun)day,?\s+)?\d{1,2}\s+[a-z]{3,9},?\s+\d{4}`,
)

// htmlDateLayouts are the human date formats seen on the provider's
// results pages, tried in order. First successful parse wins.
var htmlDateLayouts = []string{
	"Monday 2 January, 2006",
	"Monday 2 January 2006",
	"2 January, 2006",
	"2 January 2006",
	"2 Jan, 2006",
	"2 Jan 2006",
}

// strategy selects candidate result blocks from a document. Strategies
// are tried in order; the first one yielding records wins so a page never
// mixes provenance across strategies.
type strategy struct {
	name       string
	candidates func(doc *goquery.Document) *goquery.Selection
}

// HTMLParser extracts draw records from the provider's results pages.
type HTMLParser struct {
	rules      domain.Rules
	log        logger.Interface
	strategies []strategy
}

// NewHTMLParser creates an HTML parser validating against the given rules.
func NewHTMLParser(rules domain.Rules, log logger.Interface) *HTMLParser {
	return &HTMLParser{
		rules: rules,
		log:   log,
		strategies: []strategy{
			{
				name: "anchor",
				candidates: func(doc *goquery.Document) *goquery.Selection {
					return doc.Find("a")
				},
			},
			{
				name: "block-tag",
				candidates: func(doc *goquery.Document) *goquery.Selection {
					return doc.Find("h1, h2, h3, h4, h5, h6, p, div, section, article")
				},
			},
		},
	}
}

// Parse scans the document with each strategy in order and returns the
// first strategy's records, de-duplicated by draw number within the page.
func (p *HTMLParser) Parse(payload []byte, sourceURL string) []domain.Draw {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(payload))
	if err != nil {
		p.log.Warn("failed to parse HTML document", "source", sourceURL, "error", err.Error())
		return nil
	}

	for _, strat := range p.strategies {
		draws := p.runStrategy(doc, strat, sourceURL)
		if len(draws) > 0 {
			p.log.Debug("html strategy produced records",
				"strategy", strat.name,
				"source", sourceURL,
				"count", len(draws),
			)
			return draws
		}
	}

	return nil
}

// runStrategy extracts draws from every candidate block the strategy
// selects. Blocks that fail extraction contribute nothing.
func (p *HTMLParser) runStrategy(doc *goquery.Document, strat strategy, sourceURL string) []domain.Draw {
	var draws []domain.Draw
	seen := make(map[int]bool)

	strat.candidates(doc).Each(func(_ int, sel *goquery.Selection) {
		text := normalizeSpace(sel.Text())
		if !drawTokenRe.MatchString(text) {
			return
		}

		draw, ok := p.extractBlock(sel, text, sourceURL)
		if !ok {
			return
		}

		// First occurrence of a draw number wins within a page.
		if seen[draw.DrawNo] {
			return
		}
		seen[draw.DrawNo] = true
		draws = append(draws, draw)
	})

	return draws
}

// extractBlock pulls a full draw record out of one candidate block.
func (p *HTMLParser) extractBlock(sel *goquery.Selection, text, sourceURL string) (domain.Draw, bool) {
	m := drawTokenRe.FindStringSubmatch(text)
	if m == nil {
		return domain.Draw{}, false
	}
	drawNo, err := strconv.Atoi(m[1])
	if err != nil || drawNo <= 0 {
		return domain.Draw{}, false
	}

	// The date may sit in the candidate's own text or in its enclosing
	// block when the candidate is a bare anchor.
	searchText := text
	dateStr := dateRe.FindString(searchText)
	if dateStr == "" {
		searchText = normalizeSpace(sel.Parent().Text())
		dateStr = dateRe.FindString(searchText)
	}
	if dateStr == "" {
		return domain.Draw{}, false
	}

	drawDate, ok := parseHTMLDate(dateStr)
	if !ok {
		return domain.Draw{}, false
	}

	nums, ok := p.extractNumbers(sel, searchText, dateStr)
	if !ok {
		return domain.Draw{}, false
	}

	draw := domain.Draw{
		DrawNo:    drawNo,
		DrawDate:  drawDate,
		Mains:     nums[:p.rules.MainCount],
		Powerball: nums[p.rules.MainCount],
		SourceURL: sourceURL,
	}

	if validateErr := draw.ValidateWith(p.rules); validateErr != nil {
		p.log.Debug("skipping invalid block", "draw_no", drawNo, "error", validateErr.Error())
		return domain.Draw{}, false
	}

	return draw, true
}

// extractNumbers finds the eight drawn numbers for a block, trying in
// order: a tightly-following list element, a bounded sibling scan for a
// plausible list, then a bounded text slice after the date substring.
func (p *HTMLParser) extractNumbers(sel *goquery.Selection, searchText, dateStr string) ([]int, bool) {
	lists := followingLists(sel, listScanLimit)

	// A list immediately following the block with exactly eight short
	// tokens is taken as-is.
	if len(lists) > 0 {
		if nums, ok := listTokens(lists[0]); ok {
			return nums, true
		}
	}

	// Otherwise scan nearby lists for a plausible window.
	for _, list := range lists {
		nums := tokenizeInts(normalizeSpace(list.Text()))
		if len(nums) == drawNumbersNeeded && p.plausible(nums) {
			return nums, true
		}
	}

	return p.numbersFromText(searchText, dateStr)
}

// listTokens reads a list element's items as number tokens, requiring
// exactly eight one- or two-digit values.
func listTokens(list *goquery.Selection) ([]int, bool) {
	var nums []int
	valid := true

	list.Find("li").Each(func(_ int, li *goquery.Selection) {
		token := normalizeSpace(li.Text())
		if len(token) == 0 || len(token) > maxTokenDigits {
			valid = false
			return
		}
		n, err := strconv.Atoi(token)
		if err != nil {
			valid = false
			return
		}
		nums = append(nums, n)
	})

	if !valid || len(nums) != drawNumbersNeeded {
		return nil, false
	}
	return nums, true
}

// numbersFromText scans the bounded text slice after the date substring
// for every contiguous eight-token window, accepting the first plausible
// one, or the first eight tokens as a last resort.
func (p *HTMLParser) numbersFromText(searchText, dateStr string) ([]int, bool) {
	idx := indexAfter(searchText, dateStr)
	if idx < 0 {
		return nil, false
	}

	slice := searchText[idx:]
	if len(slice) > textSliceLimit {
		slice = slice[:textSliceLimit]
	}

	tokens := tokenizeInts(slice)
	if len(tokens) < drawNumbersNeeded {
		return nil, false
	}

	for i := 0; i+drawNumbersNeeded <= len(tokens); i++ {
		window := tokens[i : i+drawNumbersNeeded]
		if p.plausible(window) {
			return window, true
		}
	}

	return tokens[:drawNumbersNeeded], true
}

// plausible reports whether eight tokens look like a draw result: the
// last value within the powerball domain and the rest within the mains
// domain.
func (p *HTMLParser) plausible(nums []int) bool {
	if len(nums) != drawNumbersNeeded {
		return false
	}

	last := nums[len(nums)-1]
	if last < 1 || last > p.rules.PowerballMax {
		return false
	}

	for _, n := range nums[:len(nums)-1] {
		if n < 1 || n > p.rules.MainMax {
			return false
		}
	}
	return true
}

// parseHTMLDate tries the known human date layouts in order.
func parseHTMLDate(raw string) (time.Time, bool) {
	raw = normalizeSpace(raw)
	for _, layout := range htmlDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// indexAfter returns the index just past the first occurrence of sub in
// s, or -1 when absent.
func indexAfter(s, sub string) int {
	if sub == "" {
		return -1
	}
	at := strings.Index(s, sub)
	if at < 0 {
		return -1
	}
	return at + len(sub)
}

// followingLists collects up to limit list elements near the candidate
// block in document order: lists nested inside it, then lists in (or
// directly among) its following siblings, then its parent's.
func followingLists(sel *goquery.Selection, limit int) []*goquery.Selection {
	var lists []*goquery.Selection

	add := func(s *goquery.Selection) {
		if len(lists) < limit && s.Length() > 0 {
			lists = append(lists, s)
		}
	}

	sel.Find("ul, ol").Each(func(_ int, s *goquery.Selection) {
		add(s)
	})

	scanSiblings := func(start *goquery.Selection) {
		count := 0
		start.NextAll().EachWithBreak(func(_ int, sib *goquery.Selection) bool {
			if count >= limit || len(lists) >= limit {
				return false
			}
			count++

			if sib.Is("ul, ol") {
				add(sib)
				return true
			}
			sib.Find("ul, ol").Each(func(_ int, s *goquery.Selection) {
				add(s)
			})
			return true
		})
	}

	scanSiblings(sel)
	if parent := sel.Parent(); parent.Length() > 0 {
		scanSiblings(parent)
	}

	return lists
}
