package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/powerdraw/internal/domain"
	"github.com/jonesrussell/powerdraw/internal/logger"
	"github.com/jonesrussell/powerdraw/internal/parser"
)

func newHTMLParser() *parser.HTMLParser {
	return parser.NewHTMLParser(domain.DefaultRules(), logger.NewNoOp())
}

func TestHTMLParser_AnchorWithFollowingList(t *testing.T) {
	t.Parallel()

	page := `<html><body>
		<div class="result">
			<a href="/powerball/results/1464">Draw 1464 4 July, 2024</a>
			<ul>
				<li>2</li><li>9</li><li>17</li><li>23</li><li>28</li><li>31</li><li>35</li><li>10</li>
			</ul>
		</div>
		<div class="result">
			<a href="/powerball/results/1463">Draw 1463 27 June, 2024</a>
			<ul>
				<li>1</li><li>7</li><li>12</li><li>19</li><li>21</li><li>27</li><li>33</li><li>5</li>
			</ul>
		</div>
	</body></html>`

	draws := newHTMLParser().Parse([]byte(page), "https://example.com/past-results")
	require.Len(t, draws, 2)

	assert.Equal(t, 1464, draws[0].DrawNo)
	assert.Equal(t, "2024-07-04", draws[0].DateString())
	assert.Equal(t, []int{2, 9, 17, 23, 28, 31, 35}, draws[0].Mains)
	assert.Equal(t, 10, draws[0].Powerball)

	assert.Equal(t, 1463, draws[1].DrawNo)
	assert.Equal(t, []int{1, 7, 12, 19, 21, 27, 33}, draws[1].Mains)
	assert.Equal(t, 5, draws[1].Powerball)
}

func TestHTMLParser_BlockTagFallbackWhenNoAnchors(t *testing.T) {
	t.Parallel()

	page := `<html><body>
		<p>Draw 1465 Thursday 11 July, 2024 Winning numbers: 3 6 14 20 22 30 34 Powerball 12</p>
	</body></html>`

	draws := newHTMLParser().Parse([]byte(page), "src")
	require.Len(t, draws, 1)

	assert.Equal(t, 1465, draws[0].DrawNo)
	assert.Equal(t, "2024-07-11", draws[0].DateString())
	assert.Equal(t, []int{3, 6, 14, 20, 22, 30, 34}, draws[0].Mains)
	assert.Equal(t, 12, draws[0].Powerball)
}

func TestHTMLParser_AnchorStrategyWinsOverBlockTags(t *testing.T) {
	t.Parallel()

	// Both strategies could match here; only the anchor results must be
	// returned so a page never mixes provenance.
	page := `<html><body>
		<a href="#">Draw 1464 4 July, 2024</a>
		<ul><li>2</li><li>9</li><li>17</li><li>23</li><li>28</li><li>31</li><li>35</li><li>10</li></ul>
		<p>Draw 999 1 January, 2024 numbers: 1 2 3 4 5 6 7 8</p>
	</body></html>`

	draws := newHTMLParser().Parse([]byte(page), "src")
	require.Len(t, draws, 1)
	assert.Equal(t, 1464, draws[0].DrawNo)
}

func TestHTMLParser_PlausibleWindowSkipsSpuriousNumbers(t *testing.T) {
	t.Parallel()

	page := `<html><body>
		<p>Draw 1466 18 July, 2024 drew a jackpot of 100 million.
			Results: 1 7 12 19 21 27 33 5.</p>
	</body></html>`

	draws := newHTMLParser().Parse([]byte(page), "src")
	require.Len(t, draws, 1)

	assert.Equal(t, []int{1, 7, 12, 19, 21, 27, 33}, draws[0].Mains)
	assert.Equal(t, 5, draws[0].Powerball)
}

func TestHTMLParser_DedupByDrawNumberFirstWins(t *testing.T) {
	t.Parallel()

	page := `<html><body>
		<a href="#">Draw 1464 4 July, 2024</a>
		<ul><li>2</li><li>9</li><li>17</li><li>23</li><li>28</li><li>31</li><li>35</li><li>10</li></ul>
		<a href="#">Draw 1464 4 July, 2024</a>
		<ul><li>1</li><li>2</li><li>3</li><li>4</li><li>5</li><li>6</li><li>7</li><li>8</li></ul>
	</body></html>`

	draws := newHTMLParser().Parse([]byte(page), "src")
	require.Len(t, draws, 1)
	assert.Equal(t, []int{2, 9, 17, 23, 28, 31, 35}, draws[0].Mains)
}

func TestHTMLParser_RejectsBlocksMissingParts(t *testing.T) {
	t.Parallel()

	page := `<html><body>
		<a href="#">Draw 1467</a>
		<a href="#">Draw 1468 31 February-ish nonsense</a>
		<a href="#">Draw 1469 25 July, 2024</a>
		<p>no numbers anywhere near</p>
	</body></html>`

	draws := newHTMLParser().Parse([]byte(page), "src")
	assert.Empty(t, draws)
}

func TestHTMLParser_DateFormats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want string
	}{
		{"comma", "Draw 10 4 July, 2024 1 2 3 4 5 6 7 8", "2024-07-04"},
		{"no comma", "Draw 10 4 July 2024 1 2 3 4 5 6 7 8", "2024-07-04"},
		{"abbreviated month", "Draw 10 4 Jul 2024 1 2 3 4 5 6 7 8", "2024-07-04"},
		{"weekday prefix", "Draw 10 Saturday 6 January, 2024 1 2 3 4 5 6 7 8", "2024-01-06"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			page := "<html><body><p>" + tt.text + "</p></body></html>"
			draws := newHTMLParser().Parse([]byte(page), "src")
			require.Len(t, draws, 1)
			assert.Equal(t, tt.want, draws[0].DateString())
		})
	}
}

func TestHTMLParser_InvalidDocument(t *testing.T) {
	t.Parallel()

	assert.Empty(t, newHTMLParser().Parse([]byte(""), "src"))
	assert.Empty(t, newHTMLParser().Parse([]byte("plain text, no draws"), "src"))
}
