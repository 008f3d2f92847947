package model

import (
	"bytes"
	"encoding/json"
	"sort"
)

// Field keys produced by the extraction prompt.
const (
	FieldDocumentNo    = "document_no"
	FieldSeriesNo      = "series_no"
	FieldDateIssued    = "date_issued"
	FieldFromDate      = "from_date"
	FieldToDate        = "to_date"
	FieldSubject       = "subject"
	FieldDescription   = "description"
	FieldVenue         = "venue"
	FieldDestination   = "destination"
	FieldEmployeeNames = "employee_names"
)

// FieldKeys returns the ten known field keys in schema order.
func FieldKeys() []string {
	return []string{
		FieldDocumentNo,
		FieldSeriesNo,
		FieldDateIssued,
		FieldFromDate,
		FieldToDate,
		FieldSubject,
		FieldDescription,
		FieldVenue,
		FieldDestination,
		FieldEmployeeNames,
	}
}

// FieldRecord holds the structured attributes extracted from a document.
// A key that is present with a nil value was reported as "None"; a key that
// is missing was never emitted.
type FieldRecord struct {
	values    map[string]*string
	employees []string
	hasNames  bool
}

// NewFieldRecord returns an empty record.
func NewFieldRecord() FieldRecord {
	return FieldRecord{values: make(map[string]*string)}
}

// Set stores a scalar field. A nil value records the field as None. A
// scalar employee_names value is stored as a one-element list.
func (r *FieldRecord) Set(key string, value *string) {
	if key == FieldEmployeeNames {
		if value == nil {
			r.SetEmployeeNames(nil)
		} else {
			r.SetEmployeeNames([]string{*value})
		}
		return
	}
	if r.values == nil {
		r.values = make(map[string]*string)
	}
	r.values[key] = value
}

// SetEmployeeNames stores the employee list. A nil slice records None; an
// empty non-nil slice records an empty list.
func (r *FieldRecord) SetEmployeeNames(names []string) {
	r.employees = names
	r.hasNames = true
}

// Get returns a scalar field value and whether the key is present.
func (r FieldRecord) Get(key string) (*string, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Value returns the scalar value for key, or "" when absent or None.
func (r FieldRecord) Value(key string) string {
	if v := r.values[key]; v != nil {
		return *v
	}
	return ""
}

// EmployeeNames returns the employee list and whether the key is present.
// The list is nil when the model reported None.
func (r FieldRecord) EmployeeNames() ([]string, bool) {
	return r.employees, r.hasNames
}

// Has reports whether key is present, including None values.
func (r FieldRecord) Has(key string) bool {
	if key == FieldEmployeeNames {
		return r.hasNames
	}
	_, ok := r.values[key]
	return ok
}

// Keys returns the present keys: known keys in schema order, then any
// extra keys the model emitted, sorted.
func (r FieldRecord) Keys() []string {
	var keys []string
	known := make(map[string]bool, len(FieldKeys()))
	for _, k := range FieldKeys() {
		known[k] = true
		if r.Has(k) {
			keys = append(keys, k)
		}
	}
	var extra []string
	for k := range r.values {
		if !known[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return append(keys, extra...)
}

// Len returns the number of present keys.
func (r FieldRecord) Len() int {
	n := len(r.values)
	if r.hasNames {
		n++
	}
	return n
}

// Complete fills every known key that is missing with None, so callers can
// rely on the full schema being present.
func (r *FieldRecord) Complete() {
	for _, k := range FieldKeys() {
		if !r.Has(k) {
			r.Set(k, nil)
		}
	}
}

// MarshalJSON encodes the record as an object with keys in Keys order.
// None encodes as null.
func (r FieldRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')

		var v any
		if k == FieldEmployeeNames {
			if r.employees != nil {
				v = r.employees
			}
		} else if p := r.values[k]; p != nil {
			v = *p
		}
		vb, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML encodes the record as a plain map.
func (r FieldRecord) MarshalYAML() (any, error) {
	out := make(map[string]any, r.Len())
	for _, k := range r.Keys() {
		if k == FieldEmployeeNames {
			if r.employees != nil {
				out[k] = r.employees
			} else {
				out[k] = nil
			}
			continue
		}
		if p := r.values[k]; p != nil {
			out[k] = *p
		} else {
			out[k] = nil
		}
	}
	return out, nil
}
