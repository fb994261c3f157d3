package trustgraph

import (
	"encoding/json"
	"strings"
)

// Attestation is a single raw record from the attestation scan API. The
// decoded schema fields arrive as the scan API's decodedDataJson blob, an
// array of {name, value:{value}} entries.
type Attestation struct {
	Attester        string `json:"attester"`
	Recipient       string `json:"recipient"`
	DecodedDataJSON string `json:"decodedDataJson,omitempty"`
}

type decodedField struct {
	Name  string `json:"name"`
	Value struct {
		Value any `json:"value"`
	} `json:"value"`
}

// DecodedField extracts a named field from the attestation's decoded payload.
// The second return is false when the payload is absent, malformed, or does
// not carry a string value under that name.
func (a Attestation) DecodedField(name string) (string, bool) {
	if strings.TrimSpace(a.DecodedDataJSON) == "" {
		return "", false
	}
	var fields []decodedField
	if err := json.Unmarshal([]byte(a.DecodedDataJSON), &fields); err != nil {
		return "", false
	}
	for _, f := range fields {
		if f.Name != name {
			continue
		}
		s, ok := f.Value.Value.(string)
		if !ok || s == "" {
			return "", false
		}
		return s, true
	}
	return "", false
}
