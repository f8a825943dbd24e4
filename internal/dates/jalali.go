// Package dates renders Gregorian timestamps in the Jalali calendar for
// backup captions, archive names, and report headers.
package dates

import (
	"fmt"
	"time"
)

var gregorianDayOfYear = [12]int{0, 31, 59, 90, 120, 151, 181, 212, 243, 273, 304, 334}

// ToJalali converts a Gregorian civil date to Jalali year/month/day.
func ToJalali(gy, gm, gd int) (jy, jm, jd int) {
	if gy > 1600 {
		jy = 979
		gy -= 1600
	} else {
		jy = 0
		gy -= 621
	}

	gy2 := gy
	if gm > 2 {
		gy2 = gy + 1
	}
	days := 365*gy + (gy2+3)/4 - (gy2+99)/100 + (gy2+399)/400 - 80 + gd + gregorianDayOfYear[gm-1]

	jy += 33 * (days / 12053)
	days %= 12053
	jy += 4 * (days / 1461)
	days %= 1461

	if days > 365 {
		jy += (days - 1) / 365
		days = (days - 1) % 365
	}

	if days < 186 {
		jm = 1 + days/31
		jd = 1 + days%31
	} else {
		jm = 7 + (days-186)/30
		jd = 1 + (days-186)%30
	}
	return jy, jm, jd
}

// Timestamp renders t as "yyyy/mm/dd HH:MM" in the Jalali calendar.
func Timestamp(t time.Time) string {
	jy, jm, jd := ToJalali(t.Year(), int(t.Month()), t.Day())
	return fmt.Sprintf("%04d/%02d/%02d %02d:%02d", jy, jm, jd, t.Hour(), t.Minute())
}

// FileStamp renders t as "yyyy-mm-dd_HH-MM-SS" (Jalali date, local time),
// used to name backup archives.
func FileStamp(t time.Time) string {
	jy, jm, jd := ToJalali(t.Year(), int(t.Month()), t.Day())
	return fmt.Sprintf("%04d-%02d-%02d_%02d-%02d-%02d", jy, jm, jd, t.Hour(), t.Minute(), t.Second())
}
