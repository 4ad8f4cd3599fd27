package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tgreceiver/internal/provider"
)

func TestOTPService_RequestCodeClosesHandle(t *testing.T) {
	factory := &stubFactory{}
	notifier := &stubNotifier{}
	svc := NewOTPService(factory, notifier)

	require.NoError(t, svc.RequestCode(context.Background(), 42, testPhone, "sessions/42_x"))

	require.Len(t, factory.clients, 1)
	assert.Equal(t, 1, factory.clients[0].closes)
	assert.True(t, notifier.hasMessageContaining("code has been sent to the number "+testPhone))
}

func TestOTPService_RequestCodeConnectFailure(t *testing.T) {
	factory := &stubFactory{connectErr: errors.New("gateway down")}
	svc := NewOTPService(factory, &stubNotifier{})

	err := svc.RequestCode(context.Background(), 42, testPhone, "sessions/42_x")
	assert.Error(t, err)
	assert.Empty(t, factory.clients)
}

func TestOTPService_SubmitCodeTransfersOwnership(t *testing.T) {
	factory := &stubFactory{template: stubClient{}}
	svc := NewOTPService(factory, &stubNotifier{})

	client, err := svc.SubmitCode(context.Background(), testPhone, "sessions/42_x", "12345")
	require.NoError(t, err)
	require.NotNil(t, client)

	// хэндл живой: владение у вызывающего
	require.Len(t, factory.clients, 1)
	assert.Zero(t, factory.clients[0].closes)
	require.NoError(t, client.Close())
	assert.Equal(t, 1, factory.clients[0].closes)
}

func TestOTPService_SubmitCodeClosesHandleOnFailure(t *testing.T) {
	factory := &stubFactory{template: stubClient{signInErr: provider.ErrCodeInvalid}}
	svc := NewOTPService(factory, &stubNotifier{})

	client, err := svc.SubmitCode(context.Background(), testPhone, "sessions/42_x", "00000")
	assert.Nil(t, client)
	assert.ErrorIs(t, err, provider.ErrCodeInvalid)

	require.Len(t, factory.clients, 1)
	assert.Equal(t, 1, factory.clients[0].closes)
}

func TestFraudService_Policy(t *testing.T) {
	svc := NewFraudService()

	count, err := svc.CheckSessions(context.Background(), &stubClient{sessions: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	assert.False(t, svc.IsMultiSession(1))
	assert.True(t, svc.IsMultiSession(2))
	assert.True(t, svc.IsMultiSession(3))
}
