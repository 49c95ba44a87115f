package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/powerdraw/internal/domain"
	"github.com/jonesrussell/powerdraw/internal/logger"
	"github.com/jonesrussell/powerdraw/internal/parser"
)

func newAPIParser() *parser.APIParser {
	return parser.NewAPIParser(domain.DefaultRules(), logger.NewNoOp())
}

func TestAPIParser_NativeFields(t *testing.T) {
	t.Parallel()

	payload := []byte(`[
		{
			"product": "powerball",
			"draw_no": 1464,
			"draw_date": "2024-07-04",
			"primary_numbers": [2, 9, 17, 23, 28, 31, 35],
			"powerball": 10
		}
	]`)

	draws := newAPIParser().Parse(payload, "https://api.example.com/recent")
	require.Len(t, draws, 1)

	assert.Equal(t, 1464, draws[0].DrawNo)
	assert.Equal(t, "2024-07-04", draws[0].DateString())
	assert.Equal(t, []int{2, 9, 17, 23, 28, 31, 35}, draws[0].Mains)
	assert.Equal(t, 10, draws[0].Powerball)
	assert.Equal(t, "https://api.example.com/recent", draws[0].SourceURL)
}

func TestAPIParser_AliasedFieldsAndWrapper(t *testing.T) {
	t.Parallel()

	payload := []byte(`{
		"results": [
			{
				"game_name": "Powerball",
				"drawNumber": "1465",
				"drawDate": "2024-07-11T20:30:00Z",
				"winning_numbers": "3 6 14 20 22 30 34",
				"pb": [12]
			}
		]
	}`)

	draws := newAPIParser().Parse(payload, "src")
	require.Len(t, draws, 1)

	assert.Equal(t, 1465, draws[0].DrawNo)
	assert.Equal(t, "2024-07-11", draws[0].DateString())
	assert.Equal(t, []int{3, 6, 14, 20, 22, 30, 34}, draws[0].Mains)
	assert.Equal(t, 12, draws[0].Powerball)
}

func TestAPIParser_EighthMainBecomesPowerball(t *testing.T) {
	t.Parallel()

	payload := []byte(`[
		{
			"product": "powerball",
			"draw_no": 1466,
			"draw_date": "2024-07-18",
			"numbers": [1, 7, 12, 19, 21, 27, 33, 5]
		}
	]`)

	draws := newAPIParser().Parse(payload, "src")
	require.Len(t, draws, 1)

	assert.Equal(t, []int{1, 7, 12, 19, 21, 27, 33}, draws[0].Mains)
	assert.Equal(t, 5, draws[0].Powerball)
}

func TestAPIParser_SkipsBadObjectsKeepsGoodOnes(t *testing.T) {
	t.Parallel()

	payload := []byte(`[
		{"product": "oz lotto", "draw_no": 9, "draw_date": "2024-07-02",
			"numbers": [1, 2, 3, 4, 5, 6, 7], "powerball": 1},
		{"draw_no": 10, "draw_date": "2024-07-03",
			"numbers": [1, 2, 3, 4, 5, 6, 7], "powerball": 1},
		{"product": "powerball", "draw_date": "2024-07-04",
			"numbers": [1, 2, 3, 4, 5, 6, 7], "powerball": 1},
		{"product": "powerball", "draw_no": 11,
			"numbers": [1, 2, 3, 4, 5, 6, 7], "powerball": 1},
		{"product": "powerball", "draw_no": 12, "draw_date": "not a date",
			"numbers": [1, 2, 3, 4, 5, 6, 7], "powerball": 1},
		{"product": "powerball", "draw_no": 13, "draw_date": "2024-07-04",
			"numbers": [1, 2, 3, 4, 5, 6, 36], "powerball": 1},
		{"product": "powerball", "draw_no": 14, "draw_date": "2024-07-04",
			"numbers": [1, 2, 3, 4, 5, 6, 7], "powerball": 21},
		{"product": "powerball", "draw_no": 15, "draw_date": "2024-07-04",
			"numbers": [2, 9, 17, 23, 28, 31, 35], "powerball": 10}
	]`)

	draws := newAPIParser().Parse(payload, "src")
	require.Len(t, draws, 1)
	assert.Equal(t, 15, draws[0].DrawNo)
}

func TestAPIParser_GarbagePayload(t *testing.T) {
	t.Parallel()

	assert.Empty(t, newAPIParser().Parse([]byte(`not json`), "src"))
	assert.Empty(t, newAPIParser().Parse([]byte(`{"unrelated": true}`), "src"))
	assert.Empty(t, newAPIParser().Parse([]byte(`[]`), "src"))
}
