package typedtable

import (
	"bytes"
	"log"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatLine(t *testing.T) {
	assert.Equal(t, "typedtable info  Ready", formatLine(levelInfo, "Ready", nil))
	assert.Equal(t, `typedtable error Failed {"a":1,"b":"x"}`,
		formatLine(levelError, "Failed", map[string]any{"b": "x", "a": 1}))
	assert.Equal(t, "typedtable data  Odd map[f:NaN]",
		formatLine(levelData, "Odd", map[string]any{"f": math.NaN()}))
}

func TestStdLogger_VerboseFilter(t *testing.T) {
	var buf bytes.Buffer
	prevOut, prevFlags := log.Writer(), log.Flags()
	log.SetOutput(&buf)
	log.SetFlags(0)
	t.Cleanup(func() {
		log.SetOutput(prevOut)
		log.SetFlags(prevFlags)
	})

	quiet := pickLogger(nil, false)
	quiet.Trace("t", nil)
	quiet.Data("d", nil)
	quiet.Info("i", nil)
	quiet.Error("e", nil)
	assert.Equal(t, "typedtable info  i\ntypedtable error e\n", buf.String())

	buf.Reset()
	loud := pickLogger(nil, true)
	loud.Trace("t", nil)
	loud.Data("d", nil)
	assert.Equal(t, "typedtable trace t\ntypedtable data  d\n", buf.String())

	custom := NopLogger{}
	assert.Equal(t, Logger(custom), pickLogger(custom, true))
}
