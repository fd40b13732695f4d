package reserve

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paiban/fca/pkg/model"
)

// 2025-03-03 为周一
func march(days int) model.DateRange {
	start := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	return model.DateRange{Start: start, End: start.AddDate(0, 0, days-1)}
}

func TestGenerate_WeeklyCounts(t *testing.T) {
	g := NewGenerator(0)

	out, err := g.Generate(march(14), []Slate{
		{Base: "BUR", Counts: [7]int{1, 1, 1, 1, 1, 1, 1}},
		{Base: "OPF", Counts: [7]int{1, 0, 0, 1, 1, 0, 1}},
	})
	require.NoError(t, err)

	days := DaysByBase(out)
	assert.Equal(t, 14, days["BUR"])
	assert.Equal(t, 8, days["OPF"])
	assert.Equal(t, []string{"BUR", "OPF"}, Bases(days))

	assert.Equal(t, "R0", out[0].ID)
	assert.Equal(t, "R21", out[21].ID)
	for _, p := range out {
		assert.True(t, p.IsReserve())
		assert.Equal(t, 1, p.Mult)
		assert.Equal(t, p.D1, p.D2)
	}

	first := out[14]
	assert.Equal(t, "OPF", first.BaseStart)
	assert.Equal(t, "2025-03-03", model.FormatDate(first.D1))
	assert.Equal(t, time.Monday, first.D1.Weekday())
	assert.Equal(t, 13, first.Start.Hour())
	assert.Equal(t, 17, first.End.Hour())
	assert.Equal(t, DutySeconds, first.DutySeconds)
}

func TestGenerate_MultiplePerDayAndContinuedNumbering(t *testing.T) {
	g := NewGenerator(100)

	out, err := g.Generate(march(7), []Slate{{Base: "DAL", Counts: [7]int{2, 1, 1, 2, 2, 1, 2}}})
	require.NoError(t, err)
	assert.Len(t, out, 11)
	assert.Equal(t, "R100", out[0].ID)
	assert.Equal(t, out[0].D1, out[1].D1)

	more, err := g.Generate(march(1), []Slate{{Base: "DAL", Counts: [7]int{1, 0, 0, 0, 0, 0, 0}}})
	require.NoError(t, err)
	require.Len(t, more, 1)
	assert.Equal(t, "R111", more[0].ID)
}

func TestGenerate_UntilAndSkip(t *testing.T) {
	g := NewGenerator(0)

	out, err := g.Generate(march(14), []Slate{{
		Base:   "LAS",
		Counts: [7]int{1, 1, 1, 1, 1, 1, 1},
		Until:  "2025-03-09",
		Skip:   "FREQ=WEEKLY;BYDAY=WE",
	}})
	require.NoError(t, err)

	dates := make([]string, len(out))
	for i, p := range out {
		dates[i] = model.FormatDate(p.D1)
	}
	assert.Equal(t, []string{"2025-03-03", "2025-03-04", "2025-03-06", "2025-03-07", "2025-03-08", "2025-03-09"}, dates)
}

func TestGenerate_EmptyCounts(t *testing.T) {
	out, err := NewGenerator(0).Generate(march(7), []Slate{{Base: "OAK"}})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestSlate_Validate(t *testing.T) {
	assert.NoError(t, Slate{Base: "BUR", Counts: [7]int{1}}.Validate())
	assert.Error(t, Slate{Base: "BUR", Counts: [7]int{-1}}.Validate())
	assert.Error(t, Slate{Base: "BUR", Until: "03/09/2025x"}.Validate())
	assert.Error(t, Slate{Base: "BUR", Skip: "FREQ=SOMETIMES"}.Validate())

	_, err := NewGenerator(0).Generate(march(7), []Slate{{Base: "BUR", Skip: "NOT A RULE"}})
	assert.Error(t, err)
}

func TestParseCounts(t *testing.T) {
	got, err := ParseCounts("1, 0,0,1,1,0,1")
	require.NoError(t, err)
	assert.Equal(t, [7]int{1, 0, 0, 1, 1, 0, 1}, got)

	_, err = ParseCounts("1,1,1")
	assert.Error(t, err)
	_, err = ParseCounts("1,1,1,1,1,1,x")
	assert.Error(t, err)
}
