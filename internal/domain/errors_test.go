package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsVersionConflict(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "version conflict error",
			err:  ErrOrderVersionConflict,
			want: true,
		},
		{
			name: "wrapped version conflict error",
			err:  errors.Join(ErrOrderVersionConflict, errors.New("additional context")),
			want: true,
		},
		{
			name: "other error",
			err:  ErrOrderNotFound,
			want: false,
		},
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsVersionConflict(tt.err)
			if got != tt.want {
				t.Errorf("IsVersionConflict() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsIdempotencyConflict(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "idempotency already exists",
			err:  ErrIdempotencyKeyAlreadyExists,
			want: true,
		},
		{
			name: "idempotency hash mismatch",
			err:  ErrIdempotencyHashMismatch,
			want: true,
		},
		{
			name: "wrapped idempotency conflict",
			err:  errors.Join(ErrIdempotencyHashMismatch, errors.New("extra context")),
			want: true,
		},
		{
			name: "non idempotency error",
			err:  ErrOrderVersionConflict,
			want: false,
		},
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsIdempotencyConflict(tt.err)
			if got != tt.want {
				t.Errorf("IsIdempotencyConflict() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsValidation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "insufficient stock", err: fmt.Errorf("%w: Áo thun has only 1 left", ErrInsufficientStock), want: true},
		{name: "address", err: ErrShippingAddressIncomplete, want: true},
		{name: "product missing inside order item", err: fmt.Errorf("%w: %w", ErrInvalidOrderItem, ErrProductNotFound), want: true},
		{name: "not found", err: ErrOrderNotFound, want: false},
		{name: "transition", err: ErrInvalidTransition, want: false},
		{name: "nil", err: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidation(tt.err); got != tt.want {
				t.Errorf("IsValidation() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsNotFoundAndConflict(t *testing.T) {
	if !IsNotFound(fmt.Errorf("load: %w", ErrReviewNotFound)) {
		t.Fatal("wrapped review not found must be detected")
	}
	if IsNotFound(ErrSlugTaken) {
		t.Fatal("slug conflict is not a not-found error")
	}
	if !IsConflict(fmt.Errorf("%w: delivered -> pending", ErrInvalidTransition)) {
		t.Fatal("invalid transition must be a conflict")
	}
	if IsConflict(ErrInsufficientStock) {
		t.Fatal("insufficient stock is a validation error, not a conflict")
	}
}
