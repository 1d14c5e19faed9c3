package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type recorder struct {
	calls []string
	kv    [][]any
}

func (r *recorder) record(level, msg string, kv []any) {
	r.calls = append(r.calls, level+":"+msg)
	r.kv = append(r.kv, kv)
}

func (r *recorder) Log(m string, kv ...any) { r.record("log", m, kv) }
func (r *recorder) Debug(m string, kv ...any) { r.record("debug", m, kv) }
func (r *recorder) Info(m string, kv ...any) { r.record("info", m, kv) }
func (r *recorder) Warn(m string, kv ...any) { r.record("warn", m, kv) }
func (r *recorder) Error(m string, kv ...any) { r.record("error", m, kv) }
func (r *recorder) Fatal(m string, kv ...any) { r.record("fatal", m, kv) }

func TestLoggerDispatchesToAllInstances(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	Init(a, b)
	t.Cleanup(func() { Init() })

	Log("plain", "k", 1)
	Info("hello", "n", 2)
	Warn("careful")

	for _, r := range []*recorder{a, b} {
		assert.Equal(t, []string{"log:plain", "info:hello", "warn:careful"}, r.calls)
		assert.Equal(t, []any{"k", 1}, r.kv[0])
		assert.Equal(t, []any{"n", 2}, r.kv[1])
	}
}

func TestLoggerWithoutInstances(t *testing.T) {
	Init()
	assert.NotPanics(t, func() {
		Debug("nothing")
		Error("nothing")
	})
}

func TestSetDefaultFields(t *testing.T) {
	r := &recorder{}
	Init(r)
	t.Cleanup(func() { Init() })

	SetDefaultFields("run", "abc")
	Info("first", "n", 1)
	Debug("second")

	assert.Equal(t, []any{"run", "abc", "n", 1}, r.kv[0])
	assert.Equal(t, []any{"run", "abc"}, r.kv[1])
}
