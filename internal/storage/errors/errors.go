// Package errors provides custom errors for types implementing the KeyValue interface.
package errors

import (
	"fmt"
)

type (
	NotFoundError struct {
		Key string
	}
	ContextTimeoutExceededError struct {
		Err error
	}
	FileWriteError struct {
		Err error
	}
	FileReadError struct {
		Err error
	}
	SealError struct {
		Key string
		Err error
	}
)

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: not found in storage", e.Key)
}

func (e *ContextTimeoutExceededError) Error() string {
	return fmt.Sprintf("%s: context timeout exceeded", e.Err.Error())
}

func (e *FileWriteError) Error() string {
	return fmt.Sprintf("%s: could not write storage file", e.Err.Error())
}

func (e *FileReadError) Error() string {
	return fmt.Sprintf("%s: could not read storage file", e.Err.Error())
}

func (e *SealError) Error() string {
	return fmt.Sprintf("%s: could not seal or open value for %s", e.Err.Error(), e.Key)
}

func (e *ContextTimeoutExceededError) Unwrap() error {
	return e.Err
}

func (e *FileWriteError) Unwrap() error {
	return e.Err
}

func (e *FileReadError) Unwrap() error {
	return e.Err
}

func (e *SealError) Unwrap() error {
	return e.Err
}
