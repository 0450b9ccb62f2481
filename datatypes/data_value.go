package datatypes

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// DataValue is a typed value: the id of its data type plus the raw bytes in
// that type's byte order. Bytes always holds exactly one element.
type DataValue struct {
	DataTypeID string
	Bytes      []byte
}

func NewDataValue(dataTypeID string, b []byte) DataValue {
	buf := make([]byte, len(b))
	copy(buf, b)
	return DataValue{DataTypeID: dataTypeID, Bytes: buf}
}

func (v DataValue) Size() int {
	return len(v.Bytes)
}

func (v DataValue) IsZero() bool {
	for _, b := range v.Bytes {
		if b != 0 {
			return false
		}
	}
	return true
}

func (v DataValue) Equal(other DataValue) bool {
	return v.DataTypeID == other.DataTypeID && bytes.Equal(v.Bytes, other.Bytes)
}

func (v DataValue) Clone() DataValue {
	return NewDataValue(v.DataTypeID, v.Bytes)
}

// String renders the wire text form, "<type id>:<hex bytes>"
func (v DataValue) String() string {
	return v.DataTypeID + ":" + hex.EncodeToString(v.Bytes)
}

func ParseDataValue(s string) (DataValue, error) {
	id, raw, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || id == "" {
		return DataValue{}, fmt.Errorf("%w: data value %q is not <type>:<hex>", ErrInvalidValue, s)
	}
	b, err := hex.DecodeString(raw)
	if err != nil {
		return DataValue{}, fmt.Errorf("%w: data value %q: %v", ErrInvalidValue, s, err)
	}
	return DataValue{DataTypeID: id, Bytes: b}, nil
}

func (v DataValue) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

func (v *DataValue) UnmarshalText(text []byte) error {
	parsed, err := ParseDataValue(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

type dataValueJSON struct {
	DataType string `json:"data_type"`
	Bytes    string `json:"bytes"`
}

func (v DataValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(dataValueJSON{DataType: v.DataTypeID, Bytes: hex.EncodeToString(v.Bytes)})
}

func (v *DataValue) UnmarshalJSON(data []byte) error {
	var raw dataValueJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.DataType == "" {
		return fmt.Errorf("%w: data value without data_type", ErrInvalidValue)
	}
	b, err := hex.DecodeString(raw.Bytes)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	*v = DataValue{DataTypeID: raw.DataType, Bytes: b}
	return nil
}
