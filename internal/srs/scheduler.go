// Package srs implements the Leitner box schedule for saved words.
package srs

import (
	"time"

	"ieltsreader/internal/models"
)

// DefaultIntervals is the review delay in days for boxes 0..5
var DefaultIntervals = []int{0, 1, 3, 7, 14, 30}

// Scheduler computes box transitions over a fixed interval table.
// It holds no per-word state.
type Scheduler struct {
	intervals []int
}

// NewScheduler returns a scheduler for the given table. An empty table
// falls back to DefaultIntervals.
func NewScheduler(intervals []int) *Scheduler {
	if len(intervals) == 0 {
		intervals = DefaultIntervals
	}
	table := make([]int, len(intervals))
	copy(table, intervals)
	return &Scheduler{intervals: table}
}

// MaxBox is the highest reachable box
func (s *Scheduler) MaxBox() int {
	return len(s.intervals) - 1
}

// Interval returns the delay for box. Boxes past the end of the table
// reuse the last interval.
func (s *Scheduler) Interval(box int) time.Duration {
	box = s.clamp(box)
	return time.Duration(s.intervals[box]) * 24 * time.Hour
}

func (s *Scheduler) clamp(box int) int {
	if box < 0 {
		return 0
	}
	if box > s.MaxBox() {
		return s.MaxBox()
	}
	return box
}

// Next is the pure transition: (box, success, now) -> (box', nextReviewAt).
// Success moves up one box, capped at MaxBox; failure resets to box 0.
func (s *Scheduler) Next(box int, success bool, now time.Time) (int, time.Time) {
	newBox := 0
	if success {
		newBox = s.clamp(box + 1)
	}
	return newBox, now.Add(s.Interval(newBox))
}

// Initialize puts a word in box 0, due immediately
func (s *Scheduler) Initialize(w *models.SavedWord, now time.Time) {
	w.ReviewBox = 0
	w.NextReviewAt = now
}

// RecordOutcome returns w with its box and next review time updated
func (s *Scheduler) RecordOutcome(w models.SavedWord, success bool, now time.Time) models.SavedWord {
	w.ReviewBox, w.NextReviewAt = s.Next(w.ReviewBox, success, now)
	return w
}

// IsDue reports whether w may be reviewed at now
func IsDue(w models.SavedWord, now time.Time) bool {
	return !w.NextReviewAt.After(now)
}
