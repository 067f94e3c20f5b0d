package mongodb

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type fakeClient struct {
	pingErr      error
	disconnected bool
}

func (f *fakeClient) Ping(context.Context, *readpref.ReadPref) error { return f.pingErr }

func (f *fakeClient) Disconnect(context.Context) error {
	f.disconnected = true
	return nil
}

func TestFailedPingDisconnects(t *testing.T) {
	c := &fakeClient{pingErr: errors.New("server selection timeout")}

	err := pingOrDisconnect(context.Background(), c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server selection timeout")
	assert.True(t, c.disconnected)
}

func TestHealthyPingKeepsClient(t *testing.T) {
	c := &fakeClient{}

	require.NoError(t, pingOrDisconnect(context.Background(), c))
	assert.False(t, c.disconnected)
}
