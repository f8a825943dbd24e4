package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestToJalali(t *testing.T) {
	tests := []struct {
		name       string
		gy, gm, gd int
		jy, jm, jd int
	}{
		{"unix epoch", 1970, 1, 2, 1348, 10, 12},
		{"epoch day one", 1970, 1, 1, 1348, 10, 11},
		{"nowruz 1403", 2024, 3, 20, 1403, 1, 1},
		{"mid second half", 2023, 10, 7, 1402, 7, 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jy, jm, jd := ToJalali(tt.gy, tt.gm, tt.gd)
			assert.Equal(t, [3]int{tt.jy, tt.jm, tt.jd}, [3]int{jy, jm, jd})
		})
	}
}

func TestTimestampFormat(t *testing.T) {
	at := time.Date(2024, 3, 20, 9, 5, 7, 0, time.UTC)
	assert.Equal(t, "1403/01/01 09:05", Timestamp(at))
	assert.Equal(t, "1403-01-01_09-05-07", FileStamp(at))
}
