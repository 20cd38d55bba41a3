package helper

import (
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"time"
)

// method to convert from seconds to minutes:seconds.milliseconds
func SecondsToMinutes(seconds float64) string {
	if seconds <= 0 {
		return "-"
	}
	minutes := int(seconds / 60)
	seconds = seconds - float64(minutes*60)
	milliseconds := int(math.Round((seconds - float64(int(seconds))) * 1000))
	if milliseconds == 1000 {
		milliseconds = 999
	}
	return fmt.Sprintf("%02d:%02d.%03d", minutes, int(seconds), milliseconds)
}

func LapTime(d time.Duration) string {
	return SecondsToMinutes(d.Seconds())
}

// SecondsToDiff renders a gap right aligned on 9 chars, keeping its sign.
func SecondsToDiff(seconds float64) string {
	diff := fmt.Sprintf("%+.3fs", seconds)
	chars := len(diff)
	if chars < 9 {
		// add spaces to the left
		diff = strings.Repeat(" ", 9-chars) + diff
	}
	return diff
}

// method to convert to seconds and 3 milliseconds
func ToSectorTime(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.3f", d.Seconds())
}

func GetDriverCodeName(name string) string {
	// this function reads a name with possible surname and will return the first 3 letters of the surname
	// if the name is empty, it will return an empty string
	words := strings.Fields(name)
	if len(words) == 0 {
		return ""
	}
	last := words[len(words)-1]
	if len(words) == 1 || len(last) < 3 {
		// single word or very short surname, pad with the first word
		code := strings.Join(words, "")
		if len(code) > 3 {
			code = code[:3]
		}
		return strings.ToUpper(code)
	}
	return strings.ToUpper(last[:3])
}

// convert name to a hash usable as a file name
func ToID(name string) string {
	h := fnv.New32a()
	h.Write([]byte(name))
	return fmt.Sprint(h.Sum32())
}
