// Package api holds the wire contract of the transaction REST resource and a
// client for it.
package api

import (
	"pennywise/internal/core"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Envelope wraps every response of the transaction API. Data is set on
// success, Message on error and sometimes on success.
type Envelope[T any] struct {
	Status  string `json:"status"`
	Data    T      `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func (e Envelope[T]) OK() bool { return e.Status == StatusSuccess }

func Success[T any](data T, message string) Envelope[T] {
	return Envelope[T]{Status: StatusSuccess, Data: data, Message: message}
}

func Failure[T any](message string) Envelope[T] {
	return Envelope[T]{Status: StatusError, Message: message}
}

// TransactionPayload is the request body of create and update. Kind and
// Category accept values or display names; Date defaults to today.
type TransactionPayload struct {
	Description string     `json:"description" validate:"required,max=200"`
	Amount      core.Money `json:"amount" validate:"gt=0"`
	Kind        string     `json:"kind,omitempty" validate:"omitempty,transaction_kind"`
	Category    string     `json:"category,omitempty"`
	Date        string     `json:"date,omitempty" validate:"omitempty,iso_date"`
}

// PayloadFrom renders in as a request body.
func PayloadFrom(in core.TransactionInput) TransactionPayload {
	p := TransactionPayload{
		Description: in.Description,
		Amount:      in.Amount,
		Kind:        string(in.Kind),
		Category:    string(in.Category),
	}
	if !in.Date.IsZero() {
		p.Date = in.Date.String()
	}
	return p
}

// Input converts the payload to ledger input. Kind and category are left to
// Normalize; only the date is parsed here.
func (p TransactionPayload) Input() (core.TransactionInput, error) {
	in := core.TransactionInput{
		Description: p.Description,
		Amount:      p.Amount,
		Kind:        core.Kind(p.Kind),
		Category:    core.ParseCategory(p.Category),
	}
	if p.Date != "" {
		d, err := core.ParseDate(p.Date)
		if err != nil {
			return core.TransactionInput{}, &core.ValidationError{Field: "date", Err: err}
		}
		in.Date = d
	}
	return in, nil
}
