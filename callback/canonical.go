package callback

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/YasiruR/walletkit/domain"
	"github.com/gowebpki/jcs"
	"github.com/pkg/errors"
)

// Canonicalize builds the string signed by the wallet gateway from a callback body:
// top-level keys sorted by byte order, `key=value` pairs joined with `&`, null
// values omitted.
func Canonicalize(body []byte) (string, error) {
	fields, err := decodeBody(body)
	if err != nil {
		return ``, err
	}

	return CanonicalString(fields)
}

// CanonicalString canonicalizes already decoded body fields. Strings are written
// as is, numbers as their JSON literal and booleans as true/false. Objects and
// arrays are written as RFC 8785 canonical JSON, so numbers nested in them are
// normalized (eg: a top-level 1.50 stays 1.50 while [1.50] becomes [1.5]).
func CanonicalString(fields map[string]interface{}) (string, error) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		v := fields[k]
		if v == nil {
			continue
		}

		s, err := stringify(v)
		if err != nil {
			return ``, errors.Wrapf(err, `canonicalizing field %s failed`, k)
		}
		pairs = append(pairs, k+`=`+s)
	}

	return strings.Join(pairs, `&`), nil
}

func stringify(v interface{}) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case json.Number:
		return val.String(), nil
	case bool:
		return strconv.FormatBool(val), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	default:
		raw, err := json.Marshal(val)
		if err != nil {
			return ``, errors.Wrapf(domain.ErrEncoding, `marshalling nested value failed - %v`, err)
		}

		canonical, err := jcs.Transform(raw)
		if err != nil {
			return ``, errors.Wrapf(domain.ErrEncoding, `canonical json transform failed - %v`, err)
		}
		return string(canonical), nil
	}
}

func decodeBody(body []byte) (map[string]interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var fields map[string]interface{}
	if err := dec.Decode(&fields); err != nil {
		return nil, errors.Wrapf(domain.ErrEncoding, `callback body is not a json object - %v`, err)
	}
	if fields == nil {
		return nil, errors.Wrap(domain.ErrEncoding, `callback body is null`)
	}

	return fields, nil
}
