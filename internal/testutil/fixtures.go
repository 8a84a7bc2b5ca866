package testutil

import (
	"fmt"
	"strings"
	"time"

	"github.com/Sternrassler/admin-datatable/pkg/admin"
)

var (
	cities    = []string{"Miami", "Madrid", "Santiago", "Caracas", "Bogota", "Lisbon", "Austin", "Quito"}
	firsts    = []string{"Ana", "Luis", "Marta", "Diego", "Sofia", "Pablo", "Elena", "Jorge", "Lucia"}
	lasts     = []string{"Lopez", "Garcia", "Perez", "Rojas", "Silva", "Torres", "Vega"}
	roles     = []string{"mentor", "assistant", "admin", "staff"}
	languages = []string{"en", "es"}
)

// Cohorts returns n deterministic cohorts with ids 1..n.
func Cohorts(n int) []admin.Cohort {
	base := time.Date(2023, 1, 9, 0, 0, 0, 0, time.UTC)
	out := make([]admin.Cohort, n)
	for i := range out {
		city := cities[i%len(cities)]
		kickoff := base.AddDate(0, 0, 7*i)
		cohort := admin.Cohort{
			ID:          i + 1,
			Slug:        fmt.Sprintf("%s-%02d", strings.ToLower(city), i+1),
			Name:        fmt.Sprintf("%s %02d", city, i+1),
			Stage:       admin.Stages[i%len(admin.Stages)],
			Language:    languages[i%len(languages)],
			KickoffDate: kickoff,
		}
		if cohort.Stage == admin.StageEnded {
			ending := kickoff.AddDate(0, 4, 0)
			cohort.EndingDate = &ending
		}
		out[i] = cohort
	}
	return out
}

// StaffMembers returns n deterministic staff members with ids 1..n.
func StaffMembers(n int) []admin.Staff {
	out := make([]admin.Staff, n)
	for i := range out {
		first := firsts[i%len(firsts)]
		last := lasts[i%len(lasts)]
		status := "ACTIVE"
		if i%5 == 4 {
			status = "INVITED"
		}
		out[i] = admin.Staff{
			ID:        i + 1,
			FirstName: first,
			LastName:  last,
			Email:     fmt.Sprintf("%s.%s%d@example.com", strings.ToLower(first), strings.ToLower(last), i+1),
			Role:      admin.Role{Slug: roles[i%len(roles)]},
			Status:    status,
		}
	}
	return out
}
