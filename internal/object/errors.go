package object

import (
	"fmt"

	"XyoCore/internal/fault"
)

// UnknownSchemaError is returned when a header is not in the registry.
type UnknownSchemaError struct {
	Schema Schema
}

func (e *UnknownSchemaError) Error() string {
	return fmt.Sprintf("unknown schema %s", e.Schema)
}

// TruncatedDataError is returned when a declared length runs past the buffer.
type TruncatedDataError struct {
	Schema Schema
	Want   uint64
	Have   int
}

func (e *TruncatedDataError) Error() string {
	return fmt.Sprintf("truncated %s: need %d bytes, have %d", e.Schema, e.Want, e.Have)
}

func unknownSchema(s Schema) error {
	return fault.Protocol(&UnknownSchemaError{Schema: s})
}

func truncated(s Schema, want uint64, have int) error {
	return fault.Protocol(&TruncatedDataError{Schema: s, Want: want, Have: have})
}
