package protocol

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/sulink/internal/access"
	"github.com/mattjoyce/sulink/internal/dispatch"
	"github.com/mattjoyce/sulink/internal/extra"
)

func sampleRequest() dispatch.Request {
	return dispatch.Request{
		ID:     "d-1",
		Action: "log",
		Params: []extra.Param{
			extra.NewInt("from.uid", -1),
			extra.NewBool("notify", false),
			extra.NewString("command", "ls -la /data; id"),
		},
		Manager: access.Manager{Package: "com.example.manager"},
		User:    10,
		Ceiling: dispatch.ContentProvider,
	}
}

func mustJob(t *testing.T, req dispatch.Request) Job {
	t.Helper()
	job, err := NewJob(req)
	require.NoError(t, err)
	return job
}

func TestJobCarriesRequest(t *testing.T) {
	req := sampleRequest()

	arg, err := EncodeJob(mustJob(t, req))
	require.NoError(t, err)
	assert.NotContains(t, arg, " ")
	assert.NotContains(t, arg, "=")

	job, err := DecodeJob(arg)
	require.NoError(t, err)

	got, err := job.Request()
	require.NoError(t, err)
	assert.Equal(t, req, got)
}

func TestEncodeJobDeterministic(t *testing.T) {
	a, err := EncodeJob(mustJob(t, sampleRequest()))
	require.NoError(t, err)
	b, err := EncodeJob(mustJob(t, sampleRequest()))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestNewJobRejectsParamWithoutValue(t *testing.T) {
	req := sampleRequest()
	req.Params = append(req.Params, extra.Param{Key: "bare"})

	_, err := NewJob(req)
	assert.ErrorContains(t, err, "bare")
}

func TestEncodeJobRejectsVersion(t *testing.T) {
	job := mustJob(t, sampleRequest())
	job.Version = 2
	_, err := EncodeJob(job)
	assert.Error(t, err)
}

func TestDecodeJobErrors(t *testing.T) {
	tests := []struct {
		name string
		arg  func(t *testing.T) string
		want string
	}{
		{
			name: "not base64",
			arg:  func(t *testing.T) string { return "***" },
			want: "job argument",
		},
		{
			name: "not cbor",
			arg:  func(t *testing.T) string { return base64.RawURLEncoding.EncodeToString([]byte{0xff, 0x00}) },
			want: "failed to decode job",
		},
		{
			name: "future version",
			arg: func(t *testing.T) string {
				data, err := cbor.Marshal(Job{Version: 9, Action: "log", Manager: "m"})
				require.NoError(t, err)
				return base64.RawURLEncoding.EncodeToString(data)
			},
			want: "unsupported job version",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeJob(tt.arg(t))
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tt.want), "got %v", err)
		})
	}
}

func TestJobRequestValidation(t *testing.T) {
	base := mustJob(t, sampleRequest())

	noAction := base
	noAction.Action = ""
	_, err := noAction.Request()
	assert.ErrorContains(t, err, "action")

	noManager := base
	noManager.Manager = ""
	_, err = noManager.Request()
	assert.ErrorContains(t, err, "manager")

	badCeiling := base
	badCeiling.Ceiling = 7
	_, err = badCeiling.Request()
	assert.ErrorContains(t, err, "ceiling")

	badKind := base
	badKind.Params = []Param{{Key: "x", Kind: "float"}}
	_, err = badKind.Request()
	assert.ErrorContains(t, err, "unknown kind")
}
