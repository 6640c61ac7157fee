package logging_test

import (
	"testing"

	"github.com/jackbeau/stagehand/internal/logging"
	"github.com/stretchr/testify/assert"
)

func TestForServiceWithoutInit(t *testing.T) {
	l := logging.ForService("matcher")
	assert.NotNil(t, l)
}

func TestInitIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	logging.Init(dir)
	logging.Init(dir)
	assert.True(t, logging.IsInitialized())
	assert.NotNil(t, logging.Structured())
	assert.NotNil(t, logging.HumanReadable())
}
