package dto

import (
	"encoding/json"
	"reflect"
	"strconv"
	"time"
)

// DateLayout is the calendar-date form accepted alongside RFC 3339
const DateLayout = "2006-01-02"

// Date is a request timestamp that also accepts a bare calendar date.
// A date-only value is midnight UTC.
type Date struct {
	time.Time
}

var dateType = reflect.TypeOf(Date{})

func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}

	s, err := strconv.Unquote(string(b))
	if err != nil {
		return &json.UnmarshalTypeError{Value: string(b), Type: dateType}
	}

	for _, layout := range []string{time.RFC3339, DateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t
			return nil
		}
	}

	return &json.UnmarshalTypeError{Value: "string " + strconv.Quote(s), Type: dateType}
}

// TimePtr returns nil for a nil Date
func (d *Date) TimePtr() *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}
