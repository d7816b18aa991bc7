// Package gaps computes chronological gaps between consecutive life stages
// in a candidate's declared history. The engine is a pure function of its
// timeline input: no storage, no wall clock.
package gaps

import (
	"strconv"
	"strings"
)

// Stage names the fixed education precedence chain.
type Stage string

const (
	StageSecondary       Stage = "secondary"
	StageSeniorSecondary Stage = "senior_secondary"
	StageGraduation      Stage = "graduation"
	StagePostGraduation  Stage = "post_graduation"
	StagePhD             Stage = "phd"
)

// stagePrecedence is the evaluation order, regardless of submission order.
var stagePrecedence = []Stage{
	StageSecondary,
	StageSeniorSecondary,
	StageGraduation,
	StagePostGraduation,
	StagePhD,
}

// correspondenceStages are the stages that admit unlimited correspondence
// duplicates. Duplicates are informational only: they never participate in
// gap arithmetic.
var correspondenceStages = []Stage{
	StageGraduation,
	StagePostGraduation,
	StagePhD,
}

// Interval is one life stage's optional date pair, kept as raw strings so
// parse failures can be reported per entry instead of aborting the timeline.
type Interval struct {
	Start string
	End   string
}

func (iv Interval) empty() bool { return iv.Start == "" && iv.End == "" }

// CorrespondenceEntry is one numbered correspondence duplicate of a stage.
type CorrespondenceEntry struct {
	Stage    Stage
	Index    int
	Interval Interval
}

// Timeline is the normalized input to ComputeGaps: education stages in fixed
// precedence plus a 1-indexed employment sequence (Employments[0] is
// employment_1).
type Timeline struct {
	HighestEducation Stage
	Stages           map[Stage]Interval
	Correspondence   []CorrespondenceEntry
	Employments      []Interval
}

// Field keys recognized by ParseTimeline.
const (
	fieldHighestEducation = "highest_education"
	fieldEmploymentCount  = "employment_count"
)

// ParseTimeline converts a stored annexure field map into an explicit
// timeline. This is the only place numbered sparse keys are probed; past
// this boundary the sequences are ordered slices.
func ParseTimeline(fields map[string]string) Timeline {
	t := Timeline{
		HighestEducation: Stage(normalizeLevel(fields[fieldHighestEducation])),
		Stages:           make(map[Stage]Interval, len(stagePrecedence)),
	}

	// Stages above the declared highest education are never read, not even
	// at the parse boundary.
	ceiling := stageCeiling(t.HighestEducation)
	for i, stage := range stagePrecedence {
		if ceiling >= 0 && i > ceiling {
			break
		}
		iv := Interval{
			Start: fields[string(stage)+"_start_date"],
			End:   fields[string(stage)+"_end_date"],
		}
		if !iv.empty() {
			t.Stages[stage] = iv
		}
	}

	// Correspondence duplicates: suffixes scanned from 1 until the first
	// missing index, so key iteration order cannot change the result. The
	// ceiling bounds this scan too; correspondence keys for stages above the
	// declared highest education are never read.
	for _, stage := range correspondenceStages {
		if ceiling >= 0 && stageCeiling(stage) > ceiling {
			continue
		}
		for i := 1; ; i++ {
			prefix := string(stage) + "_correspondence_" + strconv.Itoa(i)
			iv := Interval{
				Start: fields[prefix+"_start_date"],
				End:   fields[prefix+"_end_date"],
			}
			if iv.empty() {
				break
			}
			t.Correspondence = append(t.Correspondence, CorrespondenceEntry{
				Stage:    stage,
				Index:    i,
				Interval: iv,
			})
		}
	}

	// The declared count sizes the employment sequence; absent a count, the
	// suffix scan bounds it.
	count := 0
	if raw, ok := fields[fieldEmploymentCount]; ok {
		if n, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && n > 0 {
			count = n
		}
	}
	if count == 0 {
		for i := 1; ; i++ {
			prefix := "employment_" + strconv.Itoa(i)
			if fields[prefix+"_start_date"] == "" && fields[prefix+"_end_date"] == "" {
				break
			}
			count = i
		}
	}
	for i := 1; i <= count; i++ {
		prefix := "employment_" + strconv.Itoa(i)
		t.Employments = append(t.Employments, Interval{
			Start: fields[prefix+"_start_date"],
			End:   fields[prefix+"_end_date"],
		})
	}

	return t
}

func normalizeLevel(raw string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	raw = strings.ReplaceAll(raw, "-", "_")
	return strings.ReplaceAll(raw, " ", "_")
}

// stageCeiling returns the precedence index of the declared highest
// education, or -1 when the level is unknown.
func stageCeiling(level Stage) int {
	for i, stage := range stagePrecedence {
		if stage == level {
			return i
		}
	}
	return -1
}
