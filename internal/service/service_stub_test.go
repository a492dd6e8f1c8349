//go:build !windows

package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestStubRunsInForeground(t *testing.T) {
	called := false
	svc := New(zap.NewNop(), func(ctx context.Context) error {
		called = true
		require.NoError(t, ctx.Err())
		return errors.New("done")
	})

	require.False(t, IsWindowsService())
	require.EqualError(t, svc.Run(), "done")
	require.True(t, called)
}

func TestStubRegistrationUnsupported(t *testing.T) {
	require.ErrorIs(t, Install("/usr/bin/diskwatch"), ErrUnsupported)
	require.ErrorIs(t, Uninstall(), ErrUnsupported)
}
