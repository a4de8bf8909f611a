package s3

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoiceledger/internal/config"
)

func TestClientOptions_DefaultEndpoint(t *testing.T) {
	assert.Empty(t, clientOptions(config.S3Config{Region: "us-east-1"}))
}

func TestClientOptions_CustomEndpoint(t *testing.T) {
	fns := clientOptions(config.S3Config{Endpoint: "http://localhost:9000"})
	require.Len(t, fns, 1)

	var o s3.Options
	fns[0](&o)
	require.NotNil(t, o.BaseEndpoint)
	assert.Equal(t, "http://localhost:9000", *o.BaseEndpoint)
	assert.True(t, o.UsePathStyle)
}
