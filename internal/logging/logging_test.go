package logging_test

import (
	"bytes"
	"log"
	"testing"

	"github.com/go-pkgz/lgr"
	"github.com/stretchr/testify/assert"

	"github.com/agalitsyn/checklist-bot/internal/logging"
)

func TestSetup(t *testing.T) {
	var buf bytes.Buffer
	logging.Setup("info", &buf, "s3cr3t-token")
	defer lgr.Setup()

	lgr.Printf("[DEBUG] hidden")
	lgr.Printf("[INFO] token is s3cr3t-token")
	log.Printf("[INFO] from std log")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.NotContains(t, out, "s3cr3t-token")
	assert.Contains(t, out, "token is ******")
	assert.Contains(t, out, "from std log")
}

func TestSetupDebug(t *testing.T) {
	var buf bytes.Buffer
	logging.Setup("DEBUG", &buf)
	defer lgr.Setup()

	lgr.Printf("[DEBUG] visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestIsDebug(t *testing.T) {
	assert.True(t, logging.IsDebug("debug"))
	assert.True(t, logging.IsDebug("trace"))
	assert.False(t, logging.IsDebug("info"))
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	l := logging.New("info", &buf)

	l.Logf("[DEBUG] hidden")
	l.Logf("[WARN] shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "[WARN]")
	assert.Contains(t, buf.String(), "shown")
}
