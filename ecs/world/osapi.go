package world

import "time"

// OSAPI is the time source of a World.
type OSAPI interface {
	Now() time.Time
}

type systemOS struct{}

func (systemOS) Now() time.Time { return time.Now() }
