// Package entity defines the entities and errors used in the application.
// It includes the Link struct, which maps a short code to a target URL along
// with its click statistics, and the error kinds every layer reports.
package entity

import "time"

// Link represents a short code pointing to a target URL.
type Link struct {
	ID            int64      // ID is the surrogate key assigned by the store.
	Code          string     // Code is the unique short code used in redirects.
	TargetURL     string     // TargetURL is the absolute URL the code redirects to.
	TotalClicks   int64      // TotalClicks is the number of successful redirects.
	LastClickedAt *time.Time // LastClickedAt is the time of the latest redirect, nil if never clicked.
	CreatedAt     time.Time  // CreatedAt is the timestamp when the link was created.
	UpdatedAt     time.Time  // UpdatedAt is the timestamp of the latest mutation.
}
