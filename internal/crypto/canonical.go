package crypto

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"
)

// CanonicalJSON serializes v into the single canonical wire format this
// repository signs and hashes: JSON with object keys sorted lexically,
// ISO-8601 "Z" instants at millisecond precision, and lowercase hex for byte
// slices. Both the signer and the verifier call this function — per the
// source design's own canonicalization-ambiguity note there must be exactly
// one canonical form, and this is it.
func CanonicalJSON(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeCanonical(&buf, reflect.ValueOf(v)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCanonicalizationError, err)
	}
	return buf.Bytes(), nil
}

func encodeCanonical(buf *bytes.Buffer, v reflect.Value) error {
	if !v.IsValid() {
		buf.WriteString("null")
		return nil
	}

	// Unwrap interfaces and pointers.
	for v.Kind() == reflect.Interface || v.Kind() == reflect.Pointer {
		if v.IsNil() {
			buf.WriteString("null")
			return nil
		}
		v = v.Elem()
	}

	switch t := v.Interface().(type) {
	case time.Time:
		buf.WriteString(strconvQuote(t.UTC().Format("2006-01-02T15:04:05.000Z")))
		return nil
	case []byte:
		buf.WriteString(strconvQuote(strings.ToLower(hex.EncodeToString(t))))
		return nil
	}

	switch v.Kind() {
	case reflect.String:
		buf.WriteString(strconvQuote(v.String()))
		return nil
	case reflect.Bool:
		if v.Bool() {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		fmt.Fprintf(buf, "%d", v.Int())
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		fmt.Fprintf(buf, "%d", v.Uint())
		return nil
	case reflect.Float32, reflect.Float64:
		fmt.Fprintf(buf, "%g", v.Float())
		return nil
	case reflect.Slice, reflect.Array:
		buf.WriteByte('[')
		for i := 0; i < v.Len(); i++ {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeCanonical(buf, v.Index(i)); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case reflect.Map:
		keys := make([]string, 0, v.Len())
		values := make(map[string]reflect.Value, v.Len())
		for _, k := range v.MapKeys() {
			ks := fmt.Sprintf("%v", k.Interface())
			keys = append(keys, ks)
			values[ks] = v.MapIndex(k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(strconvQuote(k))
			buf.WriteByte(':')
			if err := encodeCanonical(buf, values[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	case reflect.Struct:
		type field struct {
			name string
			val  reflect.Value
		}
		fields := make([]field, 0, v.NumField())
		rt := v.Type()
		for i := 0; i < v.NumField(); i++ {
			sf := rt.Field(i)
			if sf.PkgPath != "" {
				continue // unexported
			}
			tag := sf.Tag.Get("canonical")
			if tag == "-" {
				continue
			}
			name := sf.Tag.Get("json")
			if name == "" {
				name = sf.Name
			} else {
				name = strings.Split(name, ",")[0]
				if name == "" {
					name = sf.Name
				}
			}
			omitempty := strings.Contains(sf.Tag.Get("json"), "omitempty")
			fv := v.Field(i)
			if omitempty && isEmptyValue(fv) {
				continue
			}
			fields = append(fields, field{name: name, val: fv})
		}
		sort.Slice(fields, func(i, j int) bool { return fields[i].name < fields[j].name })
		buf.WriteByte('{')
		for i, f := range fields {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(strconvQuote(f.name))
			buf.WriteByte(':')
			if err := encodeCanonical(buf, f.val); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	default:
		return fmt.Errorf("unsupported kind %s", v.Kind())
	}
}

func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return v.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return v.IsNil()
	case reflect.String:
		return v.Len() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	}
	return false
}

// strconvQuote quotes s as a JSON string. It reuses encoding/json's string
// encoder so escaping (quotes, control characters, unicode) matches what any
// JSON consumer expects.
func strconvQuote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
