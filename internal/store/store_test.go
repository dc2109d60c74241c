package store

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/beachatlas/beachatlas-server/internal/domain"
)

func TestPageQuery_Validate(t *testing.T) {
	tests := []struct {
		name    string
		q       PageQuery
		wantErr bool
	}{
		{"default page", PageQuery{Limit: domain.DefaultPageLimit}, false},
		{"max limit", PageQuery{Limit: 50}, false},
		{"zero limit", PageQuery{Limit: 0}, true},
		{"over max", PageQuery{Limit: 51}, true},
		{"uuid cursor", PageQuery{Limit: 5, Cursor: "0190a6d2-7a4c-7d3e-8f00-0123456789ab"}, false},
		{"garbage cursor", PageQuery{Limit: 5, Cursor: "not-an-id"}, true},
		{"uppercase cursor", PageQuery{Limit: 5, Cursor: "0190A6D2-7A4C-7D3E-8F00-0123456789AB"}, true},
		{"braced cursor", PageQuery{Limit: 5, Cursor: "{0190a6d2-7a4c-7d3e-8f00-0123456789ab}"}, true},
		{"urn cursor", PageQuery{Limit: 5, Cursor: "urn:uuid:0190a6d2-7a4c-7d3e-8f00-0123456789ab"}, true},
		{"unhyphenated cursor", PageQuery{Limit: 5, Cursor: "0190a6d27a4c7d3e8f000123456789ab"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.q.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestError_IsSurvivesWithCause(t *testing.T) {
	err := fmt.Errorf("get beach: %w", ErrNotFound.WithCause(errors.New("sql: no rows")))

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrAlreadyExists)

	var storeErr *Error
	assert.True(t, errors.As(err, &storeErr))
	assert.Equal(t, http.StatusNotFound, storeErr.HTTPCode())
}

func TestEmptyResult(t *testing.T) {
	r := EmptyResult[domain.Beach]()
	assert.Empty(t, r.Items)
	assert.NotNil(t, r.Items)
	assert.False(t, r.HasMore)
	assert.Empty(t, r.NextCursor)
}
