package model

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures so the HTTP layer can pick a status code
type ErrorKind string

const (
	KindValidation    ErrorKind = "validation"
	KindConfiguration ErrorKind = "configuration"
	KindNotFound      ErrorKind = "not_found"
	KindInvalidToken  ErrorKind = "invalid_token"
	KindDelivery      ErrorKind = "delivery"
)

// AppError is returned by services for every expected failure
type AppError struct {
	Kind    ErrorKind
	Message string
	Details string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewValidationError(msg string) *AppError {
	return &AppError{Kind: KindValidation, Message: msg}
}

func NewConfigurationError(msg string) *AppError {
	return &AppError{Kind: KindConfiguration, Message: msg}
}

func NewNotFoundError(msg string) *AppError {
	return &AppError{Kind: KindNotFound, Message: msg}
}

// NewInvalidTokenError signals that the stored device token was rejected and purged
func NewInvalidTokenError(msg string, err error) *AppError {
	return &AppError{Kind: KindInvalidToken, Message: msg, Err: err}
}

// NewDeliveryError carries the transport's message in Details
func NewDeliveryError(msg string, err error) *AppError {
	e := &AppError{Kind: KindDelivery, Message: msg, Err: err}
	if err != nil {
		e.Details = err.Error()
	}
	return e
}

// KindOf returns the kind of err, or "" when err is not an *AppError
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}
