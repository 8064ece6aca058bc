package logger

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/oggyb/us-matching/internal/config"
)

// captureOutput redirects stdout to a buffer during f()
func captureOutput(t *testing.T, f func()) string {
	t.Helper()

	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	f()

	_ = w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	_ = r.Close()

	return buf.String()
}

func logConfig(level, format, component string, source bool) *config.Config {
	c := &config.Config{}
	c.Log.Level = level
	c.Log.Format = format
	c.Log.Component = component
	c.Log.Source = source
	return c
}

func TestLogger_TextFormat(t *testing.T) {
	out := captureOutput(t, func() {
		InitFromConfig(logConfig("debug", "text", "test", false))
		Info("hello us", "key", "value")
	})

	if !strings.Contains(out, "hello us") {
		t.Errorf("expected message, got: %s", out)
	}
	if !strings.Contains(out, "component=test") {
		t.Errorf("expected component field, got: %s", out)
	}
	if !strings.Contains(out, "key=value") {
		t.Errorf("expected structured field, got: %s", out)
	}
}

func TestLogger_JSONFormat(t *testing.T) {
	out := captureOutput(t, func() {
		InitFromConfig(logConfig("info", "json", "json_test", false))
		Info("json log", "foo", "bar")
	})

	if !strings.Contains(out, `"msg":"json log"`) {
		t.Errorf("expected JSON message, got: %s", out)
	}
	if !strings.Contains(out, `"component":"json_test"`) {
		t.Errorf("expected component in JSON, got: %s", out)
	}
	if !strings.Contains(out, `"foo":"bar"`) {
		t.Errorf("expected structured field in JSON, got: %s", out)
	}
}

func TestLogger_LevelFilter(t *testing.T) {
	out := captureOutput(t, func() {
		InitFromConfig(logConfig("error", "text", "", false))
		Info("should not appear")
		Error("should appear")
	})

	if strings.Contains(out, "should not appear") {
		t.Errorf("info log should not appear, got: %s", out)
	}
	if !strings.Contains(out, "should appear") {
		t.Errorf("error log should appear, got: %s", out)
	}
}

func TestLogger_WithAddsFields(t *testing.T) {
	out := captureOutput(t, func() {
		InitFromConfig(logConfig("debug", "text", "", false))
		log := With("req_id", "123")
		log.Info("processing request")
	})

	if !strings.Contains(out, "req_id=123") {
		t.Errorf("expected req_id field, got: %s", out)
	}
}

func TestLogger_ContextScoped(t *testing.T) {
	var buf bytes.Buffer
	scoped := New(Config{Level: "debug", Format: FormatText, Output: &buf}).With("user_id", "u-1")

	ctx := WithContext(context.Background(), scoped)
	FromContext(ctx).Info("feed page")

	if !strings.Contains(buf.String(), "user_id=u-1") {
		t.Errorf("expected scoped field, got: %s", buf.String())
	}

	// no scoped logger: fallback wins over global
	var fb bytes.Buffer
	fallback := New(Config{Level: "info", Format: FormatJSON, Output: &fb})
	FromContext(context.Background(), fallback).Info("fallback used")
	if !strings.Contains(fb.String(), `"msg":"fallback used"`) {
		t.Errorf("expected fallback logger output, got: %s", fb.String())
	}
}

func TestGormLogger_ErrorsAndSlowQueries(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Level: "debug", Format: FormatText, Output: &buf})
	gl := NewGormLogger(base, 50*time.Millisecond)

	since = func(time.Time) time.Duration { return 10 * time.Millisecond }
	t.Cleanup(func() { since = time.Since })

	sql := func() (string, int64) { return "SELECT 1", 1 }

	gl.Trace(context.Background(), time.Now(), sql, gorm.ErrRecordNotFound)
	if buf.Len() != 0 {
		t.Errorf("record not found should be silent, got: %s", buf.String())
	}

	gl.Trace(context.Background(), time.Now(), sql, errors.New("boom"))
	if !strings.Contains(buf.String(), "sql failed") {
		t.Errorf("expected error line, got: %s", buf.String())
	}

	buf.Reset()
	since = func(time.Time) time.Duration { return time.Second }
	gl.Trace(context.Background(), time.Now(), sql, nil)
	if !strings.Contains(buf.String(), "slow sql") {
		t.Errorf("expected slow line, got: %s", buf.String())
	}

	buf.Reset()
	gl.LogMode(gormlogger.Silent).Trace(context.Background(), time.Now(), sql, errors.New("boom"))
	if buf.Len() != 0 {
		t.Errorf("silent mode should drop output, got: %s", buf.String())
	}
}
