package results

import (
	"sort"

	"github.com/daryltucker/forest-bench/internal/model"
)

// Dataset is an immutable snapshot of every record loaded by one scan,
// plus an index from combination id to record positions.
type Dataset struct {
	records []model.Record
	combos  []model.Combination
	index   map[string][]int
}

var emptyDataset = &Dataset{index: map[string][]int{}}

type builder struct {
	d *Dataset
}

func newBuilder() *builder {
	return &builder{d: &Dataset{index: make(map[string][]int)}}
}

func (b *builder) add(r model.Record) {
	c := r.Combination()
	id := c.ID()
	if _, seen := b.d.index[id]; !seen {
		b.d.combos = append(b.d.combos, c)
	}
	b.d.index[id] = append(b.d.index[id], len(b.d.records))
	b.d.records = append(b.d.records, r)
}

func (b *builder) build() *Dataset { return b.d }

// Len is the number of records in the snapshot.
func (d *Dataset) Len() int { return len(d.records) }

// Records returns a copy of every record in load order.
func (d *Dataset) Records() []model.Record {
	out := make([]model.Record, len(d.records))
	copy(out, d.records)
	return out
}

// Combinations lists each distinct (runtime, instance, model) once, in
// order of first appearance.
func (d *Dataset) Combinations() []model.CombinationDescriptor {
	out := make([]model.CombinationDescriptor, 0, len(d.combos))
	for _, c := range d.combos {
		out = append(out, model.CombinationDescriptor{Combination: c, ID: c.ID()})
	}
	return out
}

// Parameters returns the distinct input, output and random token counts
// recorded for c, each sorted numerically.
func (d *Dataset) Parameters(c model.Combination) model.Parameters {
	in, out, rnd := map[int]struct{}{}, map[int]struct{}{}, map[int]struct{}{}
	for _, i := range d.index[c.ID()] {
		r := &d.records[i]
		in[r.InputTokens] = struct{}{}
		out[r.OutputTokens] = struct{}{}
		rnd[r.RandomTokens] = struct{}{}
	}
	return model.Parameters{
		InputTokens:  sortedInts(in),
		OutputTokens: sortedInts(out),
		RandomTokens: sortedInts(rnd),
	}
}

// Query returns the records matching every filter, ordered by process
// count. Records with equal process counts keep load order.
func (d *Dataset) Query(f Filters) []model.Record {
	out := make([]model.Record, 0)
	for i := range d.records {
		if f.Match(&d.records[i]) {
			out = append(out, d.records[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Processes < out[j].Processes })
	return out
}

func sortedInts(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

func sortedStrings(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
