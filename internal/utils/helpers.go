package utils

import "time"

// istOffsetMillis is the IST (UTC+05:30) offset folded into epoch values.
const istOffsetMillis = 19_800_000

// ISTMillis converts t to the epoch-milliseconds encoding stored on job
// documents: Unix millis shifted by +05:30, so reading the value as UTC
// yields Indian local time.
func ISTMillis(t time.Time) int64 {
	return t.UnixMilli() + istOffsetMillis
}

// FromISTMillis is the inverse of ISTMillis.
func FromISTMillis(ms int64) time.Time {
	return time.UnixMilli(ms - istOffsetMillis).UTC()
}
