package archive

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewClient(t *testing.T) {
	// Minio connects lazily, so client creation succeeds without a
	// reachable endpoint.
	client, err := NewClient(Config{
		Endpoint:  "http://localhost:9000",
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
	})
	assert.NoError(t, err)
	assert.NotNil(t, client)
}

func TestNewClient_InvalidEndpoint(t *testing.T) {
	client, err := NewClient(Config{
		Endpoint: "http://bad endpoint with spaces",
	})
	assert.Error(t, err)
	assert.Nil(t, client)
}
