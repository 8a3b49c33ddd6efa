package internal

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestConstantClock(t *testing.T) {
	clock := NewConstantClock(1557754627)
	assert.Equal(t, time.Unix(1557754627, 0), clock())
	assert.Equal(t, clock(), clock())
}

func TestClone(t *testing.T) {
	assert.Nil(t, Clone(nil))

	original := []byte{1, 2, 3}
	copied := Clone(original)
	original[0] = 9
	assert.Equal(t, []byte{1, 2, 3}, copied)
}

func TestLoggerDefault(t *testing.T) {
	assert.Equal(t, logrus.StandardLogger(), Logger(nil))

	entry := logrus.NewEntry(logrus.New())
	assert.Equal(t, entry, Logger(entry))
}
