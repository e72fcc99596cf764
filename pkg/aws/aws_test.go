package aws

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapSecrets map[string]string

func (m mapSecrets) GetSecret(_ context.Context, name string) (string, error) {
	v, ok := m[name]
	if !ok {
		return "", errors.New("missing")
	}
	return v, nil
}

func TestResolveSecret(t *testing.T) {
	ctx := context.Background()

	v, err := ResolveSecret(ctx, nil, "jwt", "fallback")
	require.NoError(t, err)
	assert.Equal(t, "fallback", v)

	v, err = ResolveSecret(ctx, mapSecrets{"jwt": "s3cr3t"}, "jwt", "fallback")
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t", v)

	v, err = ResolveSecret(ctx, mapSecrets{}, "", "fallback")
	require.NoError(t, err)
	assert.Equal(t, "fallback", v)

	_, err = ResolveSecret(ctx, mapSecrets{}, "jwt", "fallback")
	assert.Error(t, err)
}

func TestEndpointPreference(t *testing.T) {
	t.Setenv("AWS_ENDPOINT", "http://generic:4566")
	t.Setenv("AWS_S3_ENDPOINT", "")
	assert.Equal(t, "http://generic:4566", Endpoint())

	t.Setenv("AWS_S3_ENDPOINT", "http://s3:4566")
	assert.Equal(t, "http://s3:4566", Endpoint())
}

func TestDisabledMetricsClientIsNoop(t *testing.T) {
	var m *MetricsClient
	assert.False(t, m.IsEnabled())

	m = &MetricsClient{enabled: false}
	assert.NoError(t, m.RecordCount(context.Background(), MetricHTTPRequests, nil))
}

func TestSNSPublishRequiresTopic(t *testing.T) {
	c := &SNSClient{}
	err := c.Publish(context.Background(), "", "checkout.requested", []byte("{}"))
	assert.ErrorIs(t, err, ErrEmptyTopic)
}
