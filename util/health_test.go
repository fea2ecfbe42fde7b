package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEndpointHealthyByDefault(t *testing.T) {
	require.True(t, IsEndpointHealthy("https://rpc.test/default"))
}

func TestEndpointUnhealthyAfterThreshold(t *testing.T) {
	endpoint := "https://rpc.test/failing"
	for i := 0; i < failureThreshold; i++ {
		recordEndpointFailure(endpoint)
	}
	require.False(t, IsEndpointHealthy(endpoint))
}

func TestEndpointRecoversOnSuccess(t *testing.T) {
	endpoint := "https://rpc.test/recovering"
	for i := 0; i < failureThreshold; i++ {
		recordEndpointFailure(endpoint)
	}
	require.False(t, IsEndpointHealthy(endpoint))

	recordEndpointSuccess(endpoint)
	require.True(t, IsEndpointHealthy(endpoint))
}

func TestEndpointRetriedAfterRecoveryTimeout(t *testing.T) {
	endpoint := "https://rpc.test/stale"
	h := getEndpointHealth(endpoint)
	h.consecutiveFailures.Store(failureThreshold)
	h.lastFailureTime.Store(time.Now().Add(-recoveryTimeout - time.Second).UnixNano())

	require.True(t, IsEndpointHealthy(endpoint))
}

func TestFindHealthyEndpointSkipsBroken(t *testing.T) {
	endpoints := []string{"https://rpc.test/broken-a", "https://rpc.test/ok-b"}
	for i := 0; i < failureThreshold; i++ {
		recordEndpointFailure(endpoints[0])
	}

	require.Equal(t, 1, FindHealthyEndpoint(endpoints))
}

func TestFindHealthyEndpointFallsBackToFirst(t *testing.T) {
	endpoints := []string{"https://rpc.test/broken-c", "https://rpc.test/broken-d"}
	for _, e := range endpoints {
		for i := 0; i < failureThreshold; i++ {
			recordEndpointFailure(e)
		}
	}

	require.Equal(t, 0, FindHealthyEndpoint(endpoints))
}
