package medication

import (
	"strings"
	"time"
)

var frequencyIntervals = map[string]time.Duration{
	FrequencySID: 24 * time.Hour,
	FrequencyBID: 12 * time.Hour,
	FrequencyTID: 8 * time.Hour,
}

// NextDose computes the next administration time for a medication, or nil
// when no further dose is scheduled. The anchor is the last administration
// when one exists, otherwise the prescription's creation time. A dose that
// would fall after the end date does not get scheduled, and frequency text
// the scheduler does not recognize yields no schedule at all.
func NextDose(m *Medication, now time.Time) *time.Time {
	if m.Frequency == nil {
		return nil
	}
	interval, ok := frequencyIntervals[strings.ToUpper(*m.Frequency)]
	if !ok {
		return nil
	}
	if m.EndDate != nil && m.EndDate.Before(now) {
		return nil
	}
	anchor := m.CreatedAt
	if m.LastAdministeredAt != nil && m.LastAdministeredAt.After(anchor) {
		anchor = *m.LastAdministeredAt
	}
	due := anchor.Add(interval)
	if m.EndDate != nil && due.After(*m.EndDate) {
		return nil
	}
	return &due
}
