package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func TestScheduler_Add(t *testing.T) {
	s := New(nopLogger{})
	assert.NoError(t, s.Add("absentees", "0 9 * * *", func() {}))
	assert.Error(t, s.Add("broken", "every day", func() {}))
}

func TestScheduler_StartStop(t *testing.T) {
	s := New(nopLogger{})
	require.NoError(t, s.Add("noop", "@every 1h", func() {}))
	s.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))
}

func TestKVMap(t *testing.T) {
	m := kvMap([]interface{}{"entry", 1, "next", "tomorrow", 42, "skipped", "dangling"})
	assert.Equal(t, map[string]interface{}{"entry": 1, "next": "tomorrow"}, m)
}
