package logsvc

import (
	"bytes"
	"log"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/rollcall/core"
)

func TestStdLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStdLogger(log.New(&buf, "", 0))

	logger.Error("finalizing failed", errors.New("boom"), core.Session{UserID: "t1", Role: core.RoleTeacher})

	out := buf.String()
	assert.Contains(t, out, "ERROR: finalizing failed")
	assert.Contains(t, out, "boom")
	assert.Contains(t, out, "session: t1 (teacher)")
}
