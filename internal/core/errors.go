package core

import (
	"fmt"
	"strings"
)

// UpstreamError means the billing API could not be queried. It fails the run before any write.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// StoreWriteError reports the chunk that could not be committed. Earlier chunks stay committed.
type StoreWriteError struct {
	Offset    int // index of the first record of the failed chunk
	Size      int
	Committed int
	Err       error
}

func (e *StoreWriteError) Error() string {
	return fmt.Sprintf("store write failed for records [%d, %d) after %d committed: %v",
		e.Offset, e.Offset+e.Size, e.Committed, e.Err)
}

func (e *StoreWriteError) Unwrap() error { return e.Err }

// MalformedRecordError is a stored row that does not fit the CostRecord schema.
type MalformedRecordError struct {
	Row    RawRow
	Field  string
	Reason string
}

func (e *MalformedRecordError) Error() string {
	var b strings.Builder
	b.WriteString("malformed record")
	if k := e.Row.Key(); k != "" {
		b.WriteString(" ")
		b.WriteString(k)
	}
	fmt.Fprintf(&b, ": field %q %s", e.Field, e.Reason)
	return b.String()
}
