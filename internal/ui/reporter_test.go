package ui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/launchpad-sh/launchpad/internal/domain/download"
)

func TestPlainReporter_PrintsOneLinePerTenPercent(t *testing.T) {
	var buf bytes.Buffer
	r := newPlainReporter(&buf)
	progress := r.Progress()

	task := download.Task{Domain: "testdomain"}
	progress(task, 5, 100)
	progress(task, 15, 100)
	progress(task, 16, 100)
	progress(task, 100, 100)

	out := buf.String()
	assert.Contains(t, out, "testdomain: 5%")
	assert.Contains(t, out, "testdomain: 15%")
	assert.NotContains(t, out, "testdomain: 16%")
	assert.Contains(t, out, "testdomain: 100%")
}

func TestPlainReporter_IgnoresZeroTotal(t *testing.T) {
	var buf bytes.Buffer
	r := newPlainReporter(&buf)
	r.Progress()(download.Task{Domain: "x"}, 0, 0)
	assert.Empty(t, buf.String())
}

func TestBar_ViewReflectsPercent(t *testing.T) {
	b := NewBar(12).SetPercent(0.5)
	view := b.View()
	assert.Contains(t, view, "█")
	assert.Contains(t, view, "░")
}

func TestBar_ClampsOutOfRangePercent(t *testing.T) {
	full := NewBar(10).SetPercent(2)
	assert.Equal(t, 1.0, full.percent)

	empty := NewBar(10).SetPercent(-1)
	assert.Equal(t, 0.0, empty.percent)
}
