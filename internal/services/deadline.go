package services

import "time"

// Deadline arithmetic is pure and always UTC so stored timestamps compare
// consistently regardless of server timezone.

// StartDeadline computes when an invite must be started.
func StartDeadline(now time.Time, startWithinHours int) time.Time {
	return now.UTC().Add(time.Duration(startWithinHours) * time.Hour)
}

// CompleteDeadline computes when a started assessment must be submitted.
func CompleteDeadline(now time.Time, completeWithinHours int) time.Time {
	return now.UTC().Add(time.Duration(completeWithinHours) * time.Hour)
}

// deadlinePassed reports whether the deadline exists and is behind now.
func deadlinePassed(now time.Time, deadline *time.Time) bool {
	return deadline != nil && now.UTC().After(deadline.UTC())
}
