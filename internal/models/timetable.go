package models

import "fmt"

// Timetable dimensions. Every section has PeriodsPerDay numbered periods on
// each of DaysPerWeek school days.
const (
	PeriodsPerDay = 8
	DaysPerWeek   = 5
)

// DayNames maps dayOfWeek (0..4) to its Arabic label, Sunday first.
var DayNames = [DaysPerWeek]string{"الأحد", "الإثنين", "الثلاثاء", "الأربعاء", "الخميس"}

// SectionLetters is the fixed alphabet of section identifiers, in order.
var SectionLetters = []string{"أ", "ب", "ج", "د", "هـ", "و", "ز"}

// ValidPeriod reports whether p is a usable period number.
func ValidPeriod(p int) bool {
	return p >= 1 && p <= PeriodsPerDay
}

// ValidDayOfWeek reports whether d is a usable day index.
func ValidDayOfWeek(d int) bool {
	return d >= 0 && d < DaysPerWeek
}

// ValidSectionLetter reports whether letter belongs to the fixed alphabet.
func ValidSectionLetter(letter string) bool {
	for _, l := range SectionLetters {
		if l == letter {
			return true
		}
	}
	return false
}

// DayLabel returns the Arabic label for a day index, or empty when out of range.
func DayLabel(day int) string {
	if !ValidDayOfWeek(day) {
		return ""
	}
	return DayNames[day]
}

// PeriodLabel returns the Arabic label for a period number, e.g. "الحصة 3".
func PeriodLabel(period int) string {
	return fmt.Sprintf("الحصة %d", period)
}
