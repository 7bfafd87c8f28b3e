package testutils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var testT *testing.T

// SetT sets the test that NoErr and Err report to.
func SetT(t *testing.T) {
	testT = t
}

// NoErr returns v, failing the current test if err is set.
func NoErr[T any](v T, err error) T {
	require.NoError(testT, err)
	return v
}

// Err returns err, failing the current test if it is nil.
func Err[T any](_ T, err error) error {
	require.Error(testT, err)
	return err
}
