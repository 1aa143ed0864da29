package httpclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"net/url"
)

// flatten turns request params into key/value pairs for form bodies, query
// strings and signing. Structs and maps go through their JSON form, so json
// tags decide the parameter names. Scalar arrays become repeated keys and
// nested objects are sent as JSON strings.
func flatten(params any) (url.Values, error) {
	switch p := params.(type) {
	case nil:
		return url.Values{}, nil
	case url.Values:
		return maps.Clone(p), nil
	case map[string]string:
		out := make(url.Values, len(p))
		for k, v := range p {
			out.Set(k, v)
		}
		return out, nil
	}

	raw, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encode params: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("params must encode to a JSON object: %w", err)
	}

	out := make(url.Values, len(m))
	for k, v := range m {
		switch t := v.(type) {
		case nil:
			continue
		case []any:
			for _, item := range t {
				s, err := scalarString(item)
				if err != nil {
					return nil, fmt.Errorf("param %q: %w", k, err)
				}
				out.Add(k, s)
			}
		default:
			s, err := scalarString(t)
			if err != nil {
				return nil, fmt.Errorf("param %q: %w", k, err)
			}
			out.Set(k, s)
		}
	}
	return out, nil
}

func scalarString(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	case bool:
		if t {
			return "true", nil
		}
		return "false", nil
	case map[string]any, []any:
		b, err := json.Marshal(t)
		if err != nil {
			return "", err
		}
		return string(b), nil
	default:
		return fmt.Sprint(t), nil
	}
}

// single collapses values to their first entry, the shape the signer works on.
func single(v url.Values) map[string]string {
	out := make(map[string]string, len(v))
	for k := range v {
		out[k] = v.Get(k)
	}
	return out
}

// encodeJSON marshals params for a JSON body. Raw JSON is passed through.
func encodeJSON(params any) ([]byte, error) {
	switch p := params.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		return p, nil
	case []byte:
		return p, nil
	}
	b, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encode json body: %w", err)
	}
	return b, nil
}

