// Package progress is the progress and unlock engine of a dashboard.
//
// It tracks the advancement of a user through ordered modules, each one with
// ordered sections. Completing a section unlocks the next one, completing a
// module unlocks the next module and its first section. Aggregates are always
// recomputed by a full recount and milestones are one way flags derived from
// the aggregates.
//
// Every function works on an in memory dashboard, persistence is the caller's
// responsibility.
package progress
