package config

import (
	"fmt"
	"strings"
)

// MissingError lists every required variable that was empty.
type MissingError struct {
	Names []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("missing required env %s", strings.Join(e.Names, ", "))
}

// Required collects empty values instead of exiting on the first one.
type Required struct {
	missing []string
}

func (r *Required) String(value, envName string) {
	if strings.TrimSpace(value) == "" {
		r.missing = append(r.missing, envName)
	}
}

func (r *Required) Bytes(value []byte, envName string) {
	if len(value) == 0 {
		r.missing = append(r.missing, envName)
	}
}

func (r *Required) Err() error {
	if len(r.missing) == 0 {
		return nil
	}
	return &MissingError{Names: r.missing}
}
