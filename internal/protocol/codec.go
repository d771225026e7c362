package protocol

import (
	"encoding/base64"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/mattjoyce/sulink/internal/access"
	"github.com/mattjoyce/sulink/internal/dispatch"
	"github.com/mattjoyce/sulink/internal/extra"
)

// encMode uses Core Deterministic Encoding so the same job always yields
// the same argument string.
var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("protocol: CBOR encoder initialization failed: " + err.Error())
	}
}

// NewJob converts a dispatch request into its envelope. A param without a
// value is an error.
func NewJob(req dispatch.Request) (Job, error) {
	job := Job{
		Version: Version,
		ID:      req.ID,
		Action:  req.Action,
		Ceiling: int(req.Ceiling),
		Manager: req.Manager.Package,
		User:    req.User,
		Params:  make([]Param, 0, len(req.Params)),
	}
	for i, p := range req.Params {
		wp := Param{Key: p.Key}
		switch v := p.Value.(type) {
		case extra.Int:
			wp.Kind, wp.Int = extra.KindInt.String(), int(v)
		case extra.Bool:
			wp.Kind, wp.Bool = extra.KindBool.String(), bool(v)
		case extra.String:
			wp.Kind, wp.Str = extra.KindString.String(), string(v)
		default:
			return Job{}, fmt.Errorf("params[%d] (%s): no value", i, p.Key)
		}
		job.Params = append(job.Params, wp)
	}
	return job, nil
}

// Request converts the envelope back into a dispatch request.
func (j Job) Request() (dispatch.Request, error) {
	if j.Action == "" {
		return dispatch.Request{}, fmt.Errorf("job missing required field: action")
	}
	if j.Manager == "" {
		return dispatch.Request{}, fmt.Errorf("job missing required field: manager")
	}
	ceiling := dispatch.Mode(j.Ceiling)
	if ceiling < dispatch.NamedActivity || ceiling > dispatch.ContentProvider {
		return dispatch.Request{}, fmt.Errorf("invalid ceiling value: %d", j.Ceiling)
	}

	params := make([]extra.Param, 0, len(j.Params))
	for i, p := range j.Params {
		var v extra.Value
		switch p.Kind {
		case extra.KindInt.String():
			v = extra.Int(p.Int)
		case extra.KindBool.String():
			v = extra.Bool(p.Bool)
		case extra.KindString.String():
			v = extra.String(p.Str)
		default:
			return dispatch.Request{}, fmt.Errorf("params[%d] (%s): unknown kind %q", i, p.Key, p.Kind)
		}
		params = append(params, extra.Param{Key: p.Key, Value: v})
	}

	return dispatch.Request{
		ID:      j.ID,
		Action:  j.Action,
		Params:  params,
		Manager: access.Manager{Package: j.Manager},
		User:    j.User,
		Ceiling: ceiling,
	}, nil
}

// EncodeJob serializes a Job to CBOR and returns it as an unpadded base64url
// string that is safe to pass as a single argv element.
func EncodeJob(job Job) (string, error) {
	if job.Version != Version {
		return "", fmt.Errorf("unsupported job version: %d", job.Version)
	}
	data, err := encMode.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("failed to encode job: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// DecodeJob parses an argument produced by EncodeJob.
func DecodeJob(s string) (Job, error) {
	data, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return Job{}, fmt.Errorf("failed to decode job argument: %w", err)
	}

	var job Job
	if err := cbor.Unmarshal(data, &job); err != nil {
		return Job{}, fmt.Errorf("failed to decode job: %w", err)
	}
	if job.Version != Version {
		return Job{}, fmt.Errorf("unsupported job version: %d", job.Version)
	}
	return job, nil
}
