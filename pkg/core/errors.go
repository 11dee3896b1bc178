package core

import (
	"errors"
	"fmt"
)

var (
	ErrScanRead        = errors.New("scan read failed")
	ErrEmptyRange      = errors.New("no scans matched")
	ErrNoData          = errors.New("no data for trace")
	ErrIonTimeNotFound = errors.New("ion time trailer field not found")
	ErrOpen            = errors.New("cannot open instrument data")
	ErrStoreFault      = errors.New("instrument data store reported an error")
	ErrAcquiring       = errors.New("acquisition in progress")
	ErrChannelAbsent   = errors.New("instrument channel not present")
	ErrInvalidOptions  = errors.New("invalid options")
)

// ScanError wraps a failure tied to one scan number.
type ScanError struct {
	Scan int
	Op   string
	Err  error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scan %d: %s: %v", e.Scan, e.Op, e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// NewScanError wraps err for the given scan and operation.
func NewScanError(scan int, op string, err error) *ScanError {
	return &ScanError{Scan: scan, Op: op, Err: err}
}
