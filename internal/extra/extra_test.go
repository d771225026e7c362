package extra

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIntentArgs(t *testing.T) {
	tests := []struct {
		name  string
		param Param
		want  []string
	}{
		{"int", NewInt("pid", 4321), []string{"--ei", "pid", "4321"}},
		{"int zero", NewInt("to.uid", 0), []string{"--ei", "to.uid", "0"}},
		{"int negative", NewInt("from.uid", -7), []string{"--ei", "from.uid", "-7"}},
		{"bool true", NewBool("notify", true), []string{"--ez", "notify", "true"}},
		{"bool false", NewBool("notify", false), []string{"--ez", "notify", "false"}},
		{"string", NewString("command", "/system/bin/sh"), []string{"--es", "command", "/system/bin/sh"}},
		{"string unescaped", NewString("command", "ls -l 'a b'"), []string{"--es", "command", "ls -l 'a b'"}},
		{"string empty", NewString("socket", ""), []string{"--es", "socket", ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.param.IntentArgs())
		})
	}
}

func TestContentBinding(t *testing.T) {
	tests := []struct {
		name  string
		param Param
		want  []string
	}{
		{"int", NewInt("pid", 4321), []string{"--extra", "pid:i:4321"}},
		{"int negative", NewInt("from.uid", -1), []string{"--extra", "from.uid:i:-1"}},
		{"bool true", NewBool("notify", true), []string{"--extra", "notify:b:true"}},
		{"bool false", NewBool("notify", false), []string{"--extra", "notify:b:false"}},
		{"string", NewString("command", "id -u"), []string{"--extra", "command:s:id -u"}},
		{"string with colon", NewString("socket", "a:b"), []string{"--extra", "socket:s:a:b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.param.ContentBinding())
		})
	}
}

func TestBoolLiteralIdenticalAcrossEncodings(t *testing.T) {
	for _, b := range []bool{true, false} {
		p := NewBool("notify", b)
		intent := p.IntentArgs()[2]
		binding := p.ContentBinding()[1]

		assert.Contains(t, []string{"true", "false"}, intent)
		assert.Equal(t, b, intent == "true")
		assert.Equal(t, "notify:b:"+intent, binding)
	}
}

func TestIntLiteralIsPlainDecimal(t *testing.T) {
	for _, v := range []int{0, 1, -1, 1000050, -2147483648, 2147483647} {
		p := NewInt("k", v)
		lit := p.IntentArgs()[2]
		assert.Equal(t, p.Value.literal(), lit)
		assert.Equal(t, "k:i:"+lit, p.ContentBinding()[1])
	}
	assert.Equal(t, "-2147483648", NewInt("k", -2147483648).Value.literal())
}

func TestKind(t *testing.T) {
	assert.Equal(t, KindInt, NewInt("a", 1).Value.Kind())
	assert.Equal(t, KindBool, NewBool("a", true).Value.Kind())
	assert.Equal(t, KindString, NewString("a", "x").Value.Kind())
	assert.Equal(t, "bool", KindBool.String())
	assert.Equal(t, "unknown", Kind(9).String())
}

func TestAppendHelpers(t *testing.T) {
	params := []Param{NewInt("from.uid", 50), NewString("policy", "2")}

	intent := AppendIntentArgs([]string{"start"}, params)
	assert.Equal(t, []string{"start", "--ei", "from.uid", "50", "--es", "policy", "2"}, intent)

	bind := AppendContentBindings(nil, params)
	assert.Equal(t, []string{"--extra", "from.uid:i:50", "--extra", "policy:s:2"}, bind)
}
