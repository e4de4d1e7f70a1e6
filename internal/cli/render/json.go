package render

import (
	"fmt"
	"io"

	"github.com/CosmWasm/tinyjson/jwriter"

	"realms_dao/sdk"
)

// FieldValue is one key of an ordered json object.
type FieldValue struct {
	Key   string
	Value any
}

// object keeps keys in insertion order so json output is stable across runs.
type object []FieldValue

func (o object) MarshalTinyJSON(w *jwriter.Writer) {
	w.RawByte('{')
	for i, f := range o {
		if i > 0 {
			w.RawByte(',')
		}
		w.String(f.Key)
		w.RawByte(':')
		writeValue(w, f.Value)
	}
	w.RawByte('}')
}

func writeValue(w *jwriter.Writer, v any) {
	switch v := v.(type) {
	case nil:
		w.RawString("null")
	case string:
		w.String(v)
	case bool:
		w.Bool(v)
	case int:
		w.Int64(int64(v))
	case int64:
		w.Int64(v)
	case uint8:
		w.Uint64(uint64(v))
	case uint16:
		w.Uint64(uint64(v))
	case uint32:
		w.Uint64(uint64(v))
	case uint64:
		w.Uint64(v)
	case *int64:
		if v == nil {
			w.RawString("null")
			return
		}
		w.Int64(*v)
	case *uint64:
		if v == nil {
			w.RawString("null")
			return
		}
		w.Uint64(*v)
	case sdk.Address:
		w.String(v.String())
	case *sdk.Address:
		if v == nil {
			w.RawString("null")
			return
		}
		w.String(v.String())
	case object:
		v.MarshalTinyJSON(w)
	case []object:
		w.RawByte('[')
		for i, o := range v {
			if i > 0 {
				w.RawByte(',')
			}
			o.MarshalTinyJSON(w)
		}
		w.RawByte(']')
	case []string:
		w.RawByte('[')
		for i, s := range v {
			if i > 0 {
				w.RawByte(',')
			}
			w.String(s)
		}
		w.RawByte(']')
	case fmt.Stringer:
		w.String(v.String())
	default:
		w.String(fmt.Sprint(v))
	}
}

func writeJSON(out io.Writer, v object) error {
	w := jwriter.Writer{}
	v.MarshalTinyJSON(&w)
	raw, err := w.BuildBytes()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(raw))
	return err
}

func writeJSONList(out io.Writer, key string, items []object) error {
	return writeJSON(out, object{{key, items}})
}
