package client

import (
	"context"
	"encoding/hex"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"XyoCore/internal/api"
	"XyoCore/internal/boundwitness"
	"XyoCore/internal/hashing"
	"XyoCore/internal/object"
	"XyoCore/internal/repository"
	"XyoCore/internal/signing"
)

type fixedStatus api.Status

func (f fixedStatus) Status() api.Status { return api.Status(f) }

// setup serves one self-signed block and returns a client pointed at it.
func setup(t *testing.T) (*Client, hashing.Hash, signing.Signer) {
	t.Helper()

	signer, err := signing.GenerateSecp256k1()
	require.NoError(t, err)

	payload := boundwitness.Payload{Signed: []object.Object{object.NewUint64(object.Index, 0)}}
	zz := boundwitness.NewZigZag(object.NewXyoRegistry(), signing.NewRegistry(), []signing.Signer{signer}, payload)
	_, err = zz.IncomingData(nil, true)
	require.NoError(t, err)

	blocks := repository.NewMemoryBlocks(hashing.SHA256())
	require.NoError(t, blocks.AddBoundWitness(context.Background(), zz.BoundWitness()))

	hash, err := zz.BoundWitness().Hash(hashing.SHA256())
	require.NoError(t, err)

	status := fixedStatus{Index: 1, PreviousHash: hex.EncodeToString(hash.Bytes()), Blocks: 1}
	server := api.New(":0", blocks, status, object.NewXyoRegistry(), hashing.NewRegistry())

	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)

	return New(ts.URL), hash, signer
}

func TestStatus(t *testing.T) {
	c, _, _ := setup(t)

	s, err := c.Status(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(1), s.Index)
	require.Equal(t, 1, s.Blocks)
}

func TestBlockVerified(t *testing.T) {
	c, hash, signer := setup(t)

	bw, err := c.Block(context.Background(), hash)
	require.NoError(t, err)
	require.True(t, bw.Completed())
	require.True(t, bw.KeySet(0)[0].Equal(signer.PublicKey()))
}

func TestBlockNotFound(t *testing.T) {
	c, _, _ := setup(t)

	missing, err := hashing.SHA256().CreateHash([]byte("missing"))
	require.NoError(t, err)

	_, err = c.Block(context.Background(), missing)
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestBlocksByKey(t *testing.T) {
	c, hash, signer := setup(t)

	hashes, err := c.BlocksByKey(context.Background(), signer.PublicKey())
	require.NoError(t, err)
	require.Len(t, hashes, 1)
	require.True(t, hashes[0].Equal(hash))
}

func TestLastBlock(t *testing.T) {
	c, hash, _ := setup(t)

	bw, err := c.LastBlock(context.Background())
	require.NoError(t, err)

	got, err := bw.Hash(hashing.SHA256())
	require.NoError(t, err)
	require.True(t, got.Equal(hash))
}

func TestNewAddsScheme(t *testing.T) {
	require.Equal(t, "http://127.0.0.1:8080", New("127.0.0.1:8080").baseURL)
	require.Equal(t, "https://node.example", New("https://node.example/").baseURL)
}
