package gaps

// Gap report strings for employment transitions.
const (
	NoGap       = "No gap"
	InvalidDate = "Invalid Date"
)

// StageGap is one transition along the education precedence chain. Gap is
// nil when no gap exists (absent dates or end after start); Invalid marks a
// date that failed to parse, which nulls out this entry only.
type StageGap struct {
	From    string     `json:"from"`
	To      string     `json:"to"`
	Gap     *YearMonth `json:"gap,omitempty"`
	Invalid bool       `json:"invalid,omitempty"`
}

// EmploymentGap is the gap between employment_i and employment_{i+1},
// attributed by index pair, never by date-value equality: two employments
// sharing an end date can never double-attribute a gap.
type EmploymentGap struct {
	FromIndex int    `json:"from_index"`
	ToIndex   int    `json:"to_index"`
	Gap       string `json:"gap"`
}

// Result is the full gap report for one timeline.
type Result struct {
	StageGaps      []StageGap            `json:"stage_gaps"`
	EmploymentGaps []EmploymentGap       `json:"employment_gaps"`
	Correspondence []CorrespondenceEntry `json:"correspondence,omitempty"`
}

// ComputeGaps evaluates the timeline and returns per-transition gaps.
// Deterministic: the same timeline always yields bit-identical results.
func ComputeGaps(t Timeline) Result {
	return Result{
		StageGaps:      stageGaps(t),
		EmploymentGaps: employmentGaps(t.Employments),
		Correspondence: t.Correspondence,
	}
}

// stageGaps walks the precedence chain up to the declared highest education.
// Stages above the ceiling are never read. The chain ends with the bridge
// from the highest evaluated stage into employment_1 when employments are
// declared.
func stageGaps(t Timeline) []StageGap {
	ceiling := stageCeiling(t.HighestEducation)
	if ceiling < 0 {
		return nil
	}

	var out []StageGap
	prev := -1
	for i := 0; i <= ceiling; i++ {
		stage := stagePrecedence[i]
		if _, ok := t.Stages[stage]; !ok {
			continue
		}
		if prev >= 0 {
			from := stagePrecedence[prev]
			out = appendStageGap(out, string(from), string(stage),
				t.Stages[from].End, t.Stages[stage].Start)
		}
		prev = i
	}

	if prev >= 0 && len(t.Employments) > 0 {
		from := stagePrecedence[prev]
		out = appendStageGap(out, string(from), "employment_1",
			t.Stages[from].End, t.Employments[0].Start)
	}
	return out
}

// appendStageGap adds an entry for the transition unless both adjacent dates
// are missing, which yields no entry rather than a zero gap.
func appendStageGap(out []StageGap, from, to, endOfPrevious, startOfNext string) []StageGap {
	if endOfPrevious == "" && startOfNext == "" {
		return out
	}
	gap, invalid := dateGap(endOfPrevious, startOfNext)
	return append(out, StageGap{From: from, To: to, Gap: gap, Invalid: invalid})
}

// employmentGaps reports every consecutive (employment_i, employment_{i+1})
// pair. One entry per pair, always, so a report renders a stable row count
// for N declared employments.
func employmentGaps(employments []Interval) []EmploymentGap {
	var out []EmploymentGap
	for i := 0; i+1 < len(employments); i++ {
		out = append(out, EmploymentGap{
			FromIndex: i + 1,
			ToIndex:   i + 2,
			Gap:       employmentGap(employments[i].End, employments[i+1].Start),
		})
	}
	return out
}

func employmentGap(endOfPrevious, startOfNext string) string {
	end, endOK, endErr := parseDate(endOfPrevious)
	start, startOK, startErr := parseDate(startOfNext)
	if endErr != nil || startErr != nil {
		return InvalidDate
	}
	if !endOK || !startOK {
		return NoGap
	}
	if !start.After(end) {
		// Equal or inverted dates both read as no gap; an unusual order is
		// not an input error.
		return NoGap
	}
	return verboseGap(calendarDiff(end, start))
}
