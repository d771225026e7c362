package protocol

// Version is the only job envelope version understood by this build.
const Version = 1

// Job is the envelope a caller hands to its detached delivery child.
type Job struct {
	Version int     `cbor:"version"`
	ID      string  `cbor:"id"`
	Action  string  `cbor:"action"`
	Ceiling int     `cbor:"ceiling"`
	Manager string  `cbor:"manager"`
	User    int     `cbor:"user"`
	Params  []Param `cbor:"params"`
}

// Param is the flat wire form of extra.Param. Kind selects which value
// field is meaningful.
type Param struct {
	Key  string `cbor:"key"`
	Kind string `cbor:"kind"` // int | bool | string
	Int  int    `cbor:"int,omitempty"`
	Bool bool   `cbor:"bool,omitempty"`
	Str  string `cbor:"str,omitempty"`
}
