package spacedrep

import "time"

// BaseInterval is the unit of the review schedule.
const BaseInterval = 24 * time.Hour

// MaxExponent caps the doubling: a fully mastered skill waits
// BaseInterval * 2^MaxExponent (32 days).
const MaxExponent = 5

// RelearnIntervalDays is the interval after an incorrect attempt, in units
// of BaseInterval (about 2.4 hours).
const RelearnIntervalDays = 0.1

// OverdueGrace is how long past its review time a skill is reported as
// overdue rather than just due.
const OverdueGrace = 24 * time.Hour
