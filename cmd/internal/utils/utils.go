package utils

import (
	"reflect"
	"strings"
	"time"
)

func FormatEpoch(millis int64) string {
	return time.UnixMilli(millis).
		UTC().
		Format(time.RFC3339)
}

func NowUTC() int64 {
	return time.Now().
		UTC().
		UnixMilli()
}

func FromEpoch(rfc string) (int64, error) {
	t, err := time.Parse(time.RFC3339, rfc)
	if err != nil {
		return 0, err
	}
	return t.UnixMilli(), nil
}

// InBusinessHours reports whether the time of day of the given epoch
// milliseconds falls within the bookable window [09:00, 17:00] UTC.
// Both bounds are inclusive: a 17:00 appointment is still accepted.
func InBusinessHours(millis int64) bool {
	t := time.UnixMilli(millis).UTC()
	minutes := t.Hour()*60 + t.Minute()
	if minutes < 9*60 || minutes > 17*60 {
		return false
	}
	// Anything past 17:00 sharp is already outside the window.
	return minutes != 17*60 || (t.Second() == 0 && t.Nanosecond() == 0)
}

func Sanitize(o any) {
	v := reflect.ValueOf(o)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		panic("sanitize: expected pointer to struct")
	}

	v = v.Elem()
	if v.Kind() != reflect.Struct {
		panic("sanitize: expected struct")
	}

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		switch field.Kind() {
		case reflect.String:
			field.SetString(sanitizeString(field.String()))

		case reflect.Slice:
			if field.Type().Elem().Kind() == reflect.String {
				for j := 0; j < field.Len(); j++ {
					field.Index(j).SetString(sanitizeString(field.Index(j).String()))
				}
			}
		}
	}
}

func sanitizeString(s string) string {
	return strings.TrimSpace(s)
}
