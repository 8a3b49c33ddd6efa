// Package internal contains internal methods and constants.
package internal

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"
)

var ErrIncorrectUtf8 = errors.New("gopenpgp: data encoding is not valid utf-8")

// Clock returns the current time used for signature timestamps.
type Clock func() time.Time

// NewConstantClock returns a clock that always reports the given unix time.
func NewConstantClock(unixTime int64) Clock {
	return func() time.Time {
		return time.Unix(unixTime, 0)
	}
}

// Logger returns l, or the logrus standard logger if l is nil.
func Logger(l logrus.FieldLogger) logrus.FieldLogger {
	if l == nil {
		return logrus.StandardLogger()
	}
	return l
}

// Clone returns a copy of b that does not share memory with it.
// A nil slice stays nil.
func Clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	c := make([]byte, len(b))
	copy(c, b)
	return c
}
