// Package repository stores the values of the parent form fields that picker
// sessions read exclusions from and commit selections into.
package repository

import (
	"context"
	"fmt"

	"github.com/okian/playmedia/internal/domain/model"
)

// Content types that own picker fields.
const (
	ContentEvent   = "event"
	ContentAthlete = "athlete"
)

// FieldRef addresses one multi-reference field of one content item.
type FieldRef struct {
	ContentType string `json:"contentType"`
	ContentID   string `json:"contentId"`
	Key         string `json:"key"`
}

// Validate reports whether ref addresses a field.
func (r FieldRef) Validate() error {
	switch {
	case r.ContentType != ContentEvent && r.ContentType != ContentAthlete:
		return fmt.Errorf("%w: content type %q", ErrInvalidField, r.ContentType)
	case r.ContentID == "":
		return fmt.Errorf("%w: empty content id", ErrInvalidField)
	case r.Key == "":
		return fmt.Errorf("%w: empty key", ErrInvalidField)
	}
	return nil
}

func (r FieldRef) String() string {
	return r.ContentType + "/" + r.ContentID + "/" + r.Key
}

// FormStore provides read/write access to form field values.
type FormStore interface {
	// Field returns the current value of ref. A field never written is empty.
	Field(ctx context.Context, ref FieldRef) (model.Collection, error)

	// Set replaces the value of ref.
	Set(ctx context.Context, ref FieldRef, value model.Collection) error

	// Append adds items to the value of ref, skipping ids already present.
	// It returns the resulting value.
	Append(ctx context.Context, ref FieldRef, items model.Collection) (model.Collection, error)

	// Count returns the number of fields holding a value.
	Count(ctx context.Context) int
}
