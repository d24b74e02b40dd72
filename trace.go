package tagconfig

import (
	"encoding/json"
)

// Trace captures every precedence candidate consulted for a key, strongest
// first, and marks the one that supplied the value.
type Trace struct {
	Key        string       `json:"key"`
	Tags       []string     `json:"tags,omitempty"`
	Found      bool         `json:"found"`
	Candidates []Provenance `json:"candidates"`
}

// Provenance details how a single (tag, store) slot contributed to a trace.
type Provenance struct {
	Tag      string `json:"tag"`
	Store    string `json:"store"`
	Found    bool   `json:"found"`
	Value    string `json:"value,omitempty"`
	Selected bool   `json:"selected,omitempty"`
}

// Winner returns the selected candidate, if any.
func (t Trace) Winner() (Provenance, bool) {
	for _, c := range t.Candidates {
		if c.Selected {
			return c, true
		}
	}
	return Provenance{}, false
}

// Shadowed returns candidates that define the key but lost to the winner.
func (t Trace) Shadowed() []Provenance {
	var out []Provenance
	for _, c := range t.Candidates {
		if c.Found && !c.Selected {
			out = append(out, c)
		}
	}
	return out
}

// ToJSON serialises the trace into JSON for logging or transport helpers.
func (t Trace) ToJSON() ([]byte, error) {
	type alias Trace
	return json.Marshal(alias(t))
}

// TraceFromJSON deserialises a JSON payload that was previously generated via
// ToJSON.
func TraceFromJSON(payload []byte) (Trace, error) {
	type alias Trace
	var trace alias
	if err := json.Unmarshal(payload, &trace); err != nil {
		return Trace{}, err
	}
	return Trace(trace), nil
}
