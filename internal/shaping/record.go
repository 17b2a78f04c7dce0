package shaping

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"reflect"
	"strings"
)

type Property struct {
	Name  string
	Value any
}

// Record is a shaped object. Properties serialize in slice order.
type Record []Property

// With returns a copy of r with name set to value, replacing an existing property.
func (r Record) With(name string, value any) Record {
	out := make(Record, 0, len(r)+1)
	replaced := false
	for _, p := range r {
		if strings.EqualFold(p.Name, name) {
			out = append(out, Property{Name: name, Value: value})
			replaced = true
			continue
		}
		out = append(out, p)
	}
	if !replaced {
		out = append(out, Property{Name: name, Value: value})
	}
	return out
}

// Get looks a property up case-insensitively.
func (r Record) Get(name string) (any, bool) {
	for _, p := range r {
		if strings.EqualFold(p.Name, name) {
			return p.Value, true
		}
	}
	return nil, false
}

func (r Record) Names() []string {
	out := make([]string, len(r))
	for i, p := range r {
		out[i] = p.Name
	}
	return out
}

func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(p.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(p.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (r Record) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	for _, p := range r {
		if err := encodeXMLValue(e, p.Name, p.Value); err != nil {
			return err
		}
	}
	return e.EncodeToken(start.End())
}

// encodeXMLValue writes lists as a wrapper element holding one <item> per entry.
func encodeXMLValue(e *xml.Encoder, name string, value any) error {
	el := xml.StartElement{Name: xml.Name{Local: name}}
	if value == nil {
		return nil
	}
	if _, ok := value.(xml.Marshaler); ok {
		return e.EncodeElement(value, el)
	}
	rv := reflect.ValueOf(value)
	if (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) && rv.Type().Elem().Kind() != reflect.Uint8 {
		if err := e.EncodeToken(el); err != nil {
			return err
		}
		for i := 0; i < rv.Len(); i++ {
			if err := encodeXMLValue(e, "item", rv.Index(i).Interface()); err != nil {
				return err
			}
		}
		return e.EncodeToken(el.End())
	}
	return e.EncodeElement(value, el)
}
