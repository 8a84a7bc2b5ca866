package admin

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// CohortResource is the cohort list endpoint.
const CohortResource = "/v1/admissions/cohort"

// Stage is the lifecycle stage of a cohort.
type Stage string

const (
	StageActive       Stage = "ACTIVE"
	StageInactive     Stage = "INACTIVE"
	StagePrework      Stage = "PREWORK"
	StageFinalProject Stage = "FINAL_PROJECT"
	StageEnded        Stage = "ENDED"
)

// Stages lists every stage in lifecycle order.
var Stages = []Stage{StageActive, StageInactive, StagePrework, StageFinalProject, StageEnded}

// ErrUnknownStage is returned by ParseStage.
var ErrUnknownStage = errors.New("unknown cohort stage")

// ParseStage parses a stage name, case-insensitively.
func ParseStage(s string) (Stage, error) {
	stage := Stage(strings.ToUpper(strings.TrimSpace(s)))
	if !stage.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStage, s)
	}
	return stage, nil
}

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	for _, stage := range Stages {
		if s == stage {
			return true
		}
	}
	return false
}

// Cohort is one academy cohort.
type Cohort struct {
	ID          int        `json:"id"`
	Slug        string     `json:"slug"`
	Name        string     `json:"name"`
	Stage       Stage      `json:"stage"`
	Language    string     `json:"language"`
	KickoffDate time.Time  `json:"kickoff_date"`
	EndingDate  *time.Time `json:"ending_date"`
}

// CohortColumns are the columns of the cohort table.
var CohortColumns = []Column[Cohort]{
	{Name: "slug", Label: "Slug", Sortable: true, Width: 24, Value: func(c Cohort) string { return c.Slug }},
	{Name: "name", Label: "Name", Sortable: true, Width: 28, Value: func(c Cohort) string { return c.Name }},
	{Name: "stage", Label: "Stage", Sortable: true, Width: 14, Value: func(c Cohort) string { return string(c.Stage) }},
	{Name: "language", Label: "Lang", Width: 6, Value: func(c Cohort) string { return c.Language }},
	{Name: "kickoff_date", Label: "Kickoff", Sortable: true, Width: 12, Value: func(c Cohort) string { return formatDate(&c.KickoffDate) }},
	{Name: "ending_date", Label: "Ending", Sortable: true, Width: 12, Value: func(c Cohort) string { return formatDate(c.EndingDate) }},
}

// Cohorts describes the cohort table.
var Cohorts = Resource[Cohort]{
	Name:    "cohorts",
	Title:   "Cohorts",
	Path:    CohortResource,
	Columns: CohortColumns,
	ID:      func(c Cohort) int { return c.ID },
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}
