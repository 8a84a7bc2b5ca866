// Package admin holds the academy entities listed by the admin tables
// (cohorts and staff), their backend resources and the column projections
// used by the terminal and CSV renderers.
package admin
