package report

import (
	"encoding/json"
)

var (
	reportFields  = []string{"number", "versions"}
	versionFields = []string{"date", "fetched", "topics", "formats"} // title and summary stay in Extra so empty values survive
	formatFields  = []string{"format", "filename"}
)

// alias types drop the custom methods so the default codec handles typed fields.
type (
	reportAlias  Report
	versionAlias Version
	formatAlias  Format
)

func (r *Report) UnmarshalJSON(b []byte) error {
	var a reportAlias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	extra, err := extraFields(b, reportFields)
	if err != nil {
		return err
	}
	*r = Report(a)
	r.Extra = extra
	return nil
}

func (r Report) MarshalJSON() ([]byte, error) {
	a := reportAlias(r)
	if a.Versions == nil {
		a.Versions = []Version{}
	}
	return marshalWithExtra(a, r.Extra)
}

func (v *Version) UnmarshalJSON(b []byte) error {
	var a versionAlias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	extra, err := extraFields(b, versionFields)
	if err != nil {
		return err
	}
	*v = Version(a)
	v.Extra = extra
	return nil
}

func (v Version) MarshalJSON() ([]byte, error) {
	a := versionAlias(v)
	if a.Topics == nil {
		a.Topics = []Topic{}
	}
	if a.Formats == nil {
		a.Formats = []Format{}
	}
	return marshalWithExtra(a, v.Extra)
}

func (f *Format) UnmarshalJSON(b []byte) error {
	var a formatAlias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	extra, err := extraFields(b, formatFields)
	if err != nil {
		return err
	}
	*f = Format(a)
	f.Extra = extra
	return nil
}

func (f Format) MarshalJSON() ([]byte, error) {
	return marshalWithExtra(formatAlias(f), f.Extra)
}

// MarshalIndent renders the full record as the metadata file body.
func MarshalIndent(r *Report) ([]byte, error) {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

func extraFields(b []byte, known []string) (map[string]json.RawMessage, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(b, &all); err != nil {
		return nil, err
	}
	for _, k := range known {
		delete(all, k)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

func marshalWithExtra(v any, extra map[string]json.RawMessage) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil || len(extra) == 0 {
		return b, err
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(b, &merged); err != nil {
		return nil, err
	}
	for k, raw := range extra {
		if _, typed := merged[k]; !typed {
			merged[k] = raw
		}
	}
	return json.Marshal(merged)
}

func decodeExtra(extra map[string]json.RawMessage, name string) any {
	raw, ok := extra[name]
	if !ok {
		return nil
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}
