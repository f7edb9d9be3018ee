package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestBucketForReusesPerClientLimiter(t *testing.T) {
	a := bucketFor("198.51.100.7", rate.Limit(1), 1)
	b := bucketFor("198.51.100.7", rate.Limit(1), 1)
	assert.Same(t, a, b)

	other := bucketFor("198.51.100.8", rate.Limit(1), 1)
	assert.NotSame(t, a, other)
}

func TestBucketForEnforcesBurst(t *testing.T) {
	lim := bucketFor("203.0.113.9", rate.Every(time.Minute), 1)
	assert.True(t, lim.Allow())
	assert.False(t, lim.Allow())
}
