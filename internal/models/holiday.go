package models

import "time"

// Holiday is a non-teaching date.
type Holiday struct {
	Date  time.Time `db:"date" json:"date"`
	Title string    `db:"title" json:"title"`
}
