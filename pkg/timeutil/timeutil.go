// Package timeutil converts between wall-clock instants and the integer
// minute axis the constraint model solves over.
//
// CP-SAT works over bounded integer domains, and every quantity in a
// scheduling request (durations, calendar windows, due dates) is
// minute-granular, so the model never sees a time.Time directly: it sees an
// offset in minutes from the horizon start.
package timeutil

import "time"

// Clock maps wall-clock instants to and from an integer minute axis whose
// origin is a fixed reference instant (the horizon start).
type Clock struct {
	ref time.Time
}

// NewClock returns a Clock whose minute axis originates at ref.
func NewClock(ref time.Time) Clock {
	return Clock{ref: ref.UTC()}
}

// ToMinutes returns the number of whole minutes between the reference
// instant and t, rounded down (floor on the delta in seconds divided by
// 60), per spec.md's to_minutes definition. For instants before the
// reference this rounds away from zero: 90 seconds before maps to -2.
func (c Clock) ToMinutes(t time.Time) int {
	delta := t.UTC().Sub(c.ref)
	m := int(delta / time.Minute)
	if delta < 0 && delta%time.Minute != 0 {
		m--
	}
	return m
}

// FromMinutes returns the instant m minutes after the reference instant.
func (c Clock) FromMinutes(m int) time.Time {
	return c.ref.Add(time.Duration(m) * time.Minute)
}

// Reference returns the clock's origin instant.
func (c Clock) Reference() time.Time {
	return c.ref
}
