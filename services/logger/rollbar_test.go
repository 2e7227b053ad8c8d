package logsvc

import (
	"bytes"
	"log"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vishvavidya/traininghub/core"
)

func TestFormatLine(t *testing.T) {
	manager := core.Actor{UserID: "VVMANAGER2024001", Role: "manager"}

	tests := []struct {
		name string
		lvl  level
		msg  string
		args []interface{}
		want string
	}{
		{"bare message", levelInfo, "server started", nil, "INFO server started"},
		{
			"sorted fields", levelInfo, "absentee notifications generated",
			[]interface{}{map[string]interface{}{"count": 2, "batch": "JFS001"}},
			"INFO absentee notifications generated batch=JFS001 count=2",
		},
		{
			"actor and error", levelError, "moving student",
			[]interface{}{errors.New("batch not found"), manager},
			`ERROR moving student err="batch not found" actor=VVMANAGER2024001 role=manager`,
		},
		{"zero actor skipped", levelWarn, "login", []interface{}{core.Actor{}}, "WARN login"},
		{"plain value", levelDebug, "rows", []interface{}{3}, "DEBUG rows 3"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, formatLine(tc.lvl, tc.msg, tc.args))
		})
	}
}

func TestRollbarLoggerPrintsLocally(t *testing.T) {
	var buf bytes.Buffer
	l := NewRollbarLogger(log.New(&buf, "", 0), &core.Config{Env: "TEST"})
	l.Enable(false)

	l.Error("sending email", errors.New("status 500"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.GreaterOrEqual(t, len(lines), 2)
	assert.Equal(t, `ERROR sending email err="status 500"`, lines[0])
	assert.Equal(t, "status 500", lines[1])
}
