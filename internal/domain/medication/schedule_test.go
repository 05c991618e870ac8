package medication

import (
	"testing"
	"time"
)

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestNextDoseFrequencyIntervals(t *testing.T) {
	last := ts("2025-01-10T08:00:00Z")
	now := ts("2025-01-10T09:00:00Z")

	cases := []struct {
		frequency string
		want      string
	}{
		{FrequencyBID, "2025-01-10T20:00:00Z"},
		{FrequencySID, "2025-01-11T08:00:00Z"},
		{FrequencyTID, "2025-01-10T16:00:00Z"},
	}
	for _, tc := range cases {
		t.Run(tc.frequency, func(t *testing.T) {
			m := &Medication{Frequency: &tc.frequency, LastAdministeredAt: &last}
			got := NextDose(m, now)
			if got == nil {
				t.Fatal("NextDose returned nil")
			}
			if !got.Equal(ts(tc.want)) {
				t.Errorf("NextDose = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestNextDoseAnchorsOnCreationWithoutDoses(t *testing.T) {
	freq := FrequencySID
	created := ts("2025-01-10T08:00:00Z")
	m := &Medication{Frequency: &freq, CreatedAt: created}

	got := NextDose(m, ts("2025-01-10T09:00:00Z"))
	if got == nil || !got.Equal(ts("2025-01-11T08:00:00Z")) {
		t.Errorf("NextDose = %v, want 2025-01-11T08:00:00Z", got)
	}
}

func TestNextDoseNilWithoutFrequency(t *testing.T) {
	m := &Medication{CreatedAt: ts("2025-01-10T08:00:00Z")}
	if got := NextDose(m, ts("2025-01-10T09:00:00Z")); got != nil {
		t.Errorf("NextDose = %v, want nil", got)
	}
}

func TestNextDoseFrequencyCaseInsensitive(t *testing.T) {
	freq := "bid"
	last := ts("2025-01-10T08:00:00Z")
	m := &Medication{Frequency: &freq, LastAdministeredAt: &last}

	got := NextDose(m, ts("2025-01-10T09:00:00Z"))
	if got == nil || !got.Equal(ts("2025-01-10T20:00:00Z")) {
		t.Errorf("NextDose = %v, want 2025-01-10T20:00:00Z", got)
	}
}

func TestNextDoseNilForFreeFormFrequency(t *testing.T) {
	freq := "q12h PRN"
	last := ts("2025-01-10T08:00:00Z")
	m := &Medication{Frequency: &freq, LastAdministeredAt: &last}

	if got := NextDose(m, ts("2025-01-10T09:00:00Z")); got != nil {
		t.Errorf("NextDose = %v, want nil for unrecognized frequency text", got)
	}
}

func TestNextDoseNilAfterCourseEnd(t *testing.T) {
	freq := FrequencyBID
	last := ts("2025-01-10T08:00:00Z")
	end := ts("2025-01-10T12:00:00Z")
	m := &Medication{Frequency: &freq, LastAdministeredAt: &last, EndDate: &end}

	if got := NextDose(m, ts("2025-01-10T09:00:00Z")); got != nil {
		t.Errorf("NextDose = %v, want nil (dose would fall after end date)", got)
	}
	if got := NextDose(m, ts("2025-01-11T09:00:00Z")); got != nil {
		t.Errorf("NextDose = %v, want nil (course ended)", got)
	}
}
