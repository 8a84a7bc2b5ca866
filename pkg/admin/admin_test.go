package admin

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStage(t *testing.T) {
	tests := []struct {
		in      string
		want    Stage
		wantErr bool
	}{
		{"ACTIVE", StageActive, false},
		{"final_project", StageFinalProject, false},
		{" prework ", StagePrework, false},
		{"GRADUATED", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStage(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownStage)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCohort_Decode(t *testing.T) {
	raw := `{
		"id": 12,
		"slug": "miami-xxi",
		"name": "Miami XXI",
		"stage": "PREWORK",
		"language": "en",
		"kickoff_date": "2024-03-04T00:00:00Z",
		"ending_date": null
	}`

	var c Cohort
	require.NoError(t, json.Unmarshal([]byte(raw), &c))

	assert.Equal(t, 12, c.ID)
	assert.Equal(t, StagePrework, c.Stage)
	assert.Nil(t, c.EndingDate)
	assert.Equal(t, []string{"miami-xxi", "Miami XXI", "PREWORK", "en", "2024-03-04", ""}, Cohorts.Row(c))
}

func TestRole_Decode(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Role
	}{
		{"slug string", `"mentor"`, Role{Slug: "mentor"}},
		{"object", `{"slug": "admin", "name": "Admin"}`, Role{Slug: "admin", Name: "Admin"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r Role
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &r))
			assert.Equal(t, tt.want, r)
		})
	}

	var r Role
	assert.Error(t, json.Unmarshal([]byte(`42`), &r))
}

func TestStaff_Row(t *testing.T) {
	s := Staff{ID: 3, FirstName: "Ana", LastName: "Lopez", Email: "ana@example.com", Role: Role{Slug: "mentor"}, Status: "active"}

	assert.Equal(t, "Ana Lopez", s.FullName())
	assert.Equal(t, []string{"Ana Lopez", "ana@example.com", "mentor", "ACTIVE"}, StaffMembers.Row(s))
	assert.Equal(t, []string{"Name", "Email", "Role", "Status"}, StaffMembers.Headers())
}

func TestResource_Columns(t *testing.T) {
	col, ok := Cohorts.Column("stage")
	require.True(t, ok)
	assert.Equal(t, "Stage", col.Label)

	_, ok = Cohorts.Column("missing")
	assert.False(t, ok)

	name, ok := Cohorts.SortableColumn(0)
	assert.True(t, ok)
	assert.Equal(t, "slug", name)

	_, ok = Cohorts.SortableColumn(3) // language
	assert.False(t, ok)

	_, ok = Cohorts.SortableColumn(99)
	assert.False(t, ok)
}

func TestResource_IDs(t *testing.T) {
	items := []Cohort{{ID: 4}, {ID: 9}}
	assert.Equal(t, []int{4, 9}, Cohorts.IDs(items))
}

func TestResource_WriteCSV(t *testing.T) {
	ending := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	items := []Cohort{{
		Slug:        "madrid-iv",
		Name:        "Madrid, IV",
		Stage:       StageActive,
		Language:    "es",
		KickoffDate: time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC),
		EndingDate:  &ending,
	}}

	buf := &bytes.Buffer{}
	require.NoError(t, Cohorts.WriteCSV(buf, items))

	want := "Slug,Name,Stage,Lang,Kickoff,Ending\n" +
		"madrid-iv,\"Madrid, IV\",ACTIVE,es,2024-05-06,2024-09-01\n"
	assert.Equal(t, want, buf.String())
}
