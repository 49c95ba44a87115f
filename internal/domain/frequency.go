package domain

// FrequencyTable maps every value in the mains and powerball domains to
// its occurrence count over a sample of draws. Values that never occur
// are present with count 0 so the full domain is always represented.
type FrequencyTable struct {
	Mains      map[int]int `json:"mains"`
	Powerball  map[int]int `json:"powerball"`
	SampleSize int         `json:"sample_size"`
}

// NewFrequencyTable returns a zero-filled table covering the full number
// domains of the given rules.
func NewFrequencyTable(rules Rules) *FrequencyTable {
	t := &FrequencyTable{
		Mains:     make(map[int]int, rules.MainMax),
		Powerball: make(map[int]int, rules.PowerballMax),
	}
	for n := 1; n <= rules.MainMax; n++ {
		t.Mains[n] = 0
	}
	for n := 1; n <= rules.PowerballMax; n++ {
		t.Powerball[n] = 0
	}
	return t
}

// Add counts one draw into the table.
func (t *FrequencyTable) Add(d *Draw) {
	for _, n := range d.Mains {
		if _, ok := t.Mains[n]; ok {
			t.Mains[n]++
		}
	}
	if _, ok := t.Powerball[d.Powerball]; ok {
		t.Powerball[d.Powerball]++
	}
	t.SampleSize++
}
