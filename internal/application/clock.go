package application

import "time"

// Clock dipakai untuk stamp createdAt, supaya gampang ditest
type Clock interface {
	Now() time.Time
}

// SystemClock pakai time.Now() dalam UTC
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }
