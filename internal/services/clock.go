package services

import "time"

// Clock supplies the current unix time in seconds. Deadline arithmetic and
// the lazy timeout transitions all read through it so tests can pin time.
type Clock func() int64

func SystemClock() int64 {
	return time.Now().Unix()
}
