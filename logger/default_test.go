package logger

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetLogger_ConcurrentWithGetLogger(t *testing.T) {
	t.Setenv("ENV", "")

	orig := GetLogger()
	t.Cleanup(func() { SetLogger(orig) })

	var buf bytes.Buffer
	replacement := NewSlogWithWriter(&buf, DebugLevel, false)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			SetLogger(replacement)
		}()
		go func() {
			defer wg.Done()
			assert.NotNil(t, GetLogger())
		}()
	}
	wg.Wait()

	assert.Same(t, replacement, GetLogger())

	SetLogger(nil)
	assert.Same(t, replacement, GetLogger())

	Info("lcdm: default logger replaced")
	assert.Contains(t, buf.String(), "lcdm: default logger replaced")
}
