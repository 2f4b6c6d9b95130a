package oops_test

import (
	"errors"
	"testing"

	"github.com/Craig-Turley/listsync/internal/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWrapsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := oops.New(cause, "failed to save list %d", 7)

	assert.EqualError(t, err, "failed to save list 7: disk full")
	assert.ErrorIs(t, err, cause)

	var asOops *oops.Error
	require.ErrorAs(t, err, &asOops)
	require.NotEmpty(t, asOops.Stack)
	assert.Contains(t, asOops.Stack[0].Function, "TestNewWrapsCause")
}

func TestStackMarshalerFindsNestedError(t *testing.T) {
	inner := oops.New(nil, "inner")
	outer := errors.Join(errors.New("context"), inner)

	assert.NotNil(t, oops.ZerologStackMarshaler(outer))
	assert.Nil(t, oops.ZerologStackMarshaler(errors.New("plain")))
}
