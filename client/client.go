// Package client reads blocks from a node's HTTP API and verifies them
// locally.
package client

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"XyoCore/internal/api"
	"XyoCore/internal/boundwitness"
	"XyoCore/internal/hashing"
	"XyoCore/internal/object"
	"XyoCore/internal/signing"
)

// ErrNotFound is returned when the node does not have the block.
var ErrNotFound = errors.New("not found")

// Client connects to a node via HTTP.
type Client struct {
	baseURL  string       // baseURL is e.g. "http://127.0.0.1:8080"
	http     *http.Client // http performs the requests
	objects  *object.Registry
	hashes   *hashing.Registry
	verifier *signing.Registry
}

// New creates a client for the node at addr ("host:port" or a full URL).
func New(addr string) *Client {
	base := strings.TrimSuffix(addr, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}

	return &Client{
		baseURL:  base,
		http:     &http.Client{Timeout: 10 * time.Second},
		objects:  object.NewXyoRegistry(),
		hashes:   hashing.NewRegistry(),
		verifier: signing.NewRegistry(),
	}
}

// Status returns the node's chain position.
func (c *Client) Status(ctx context.Context) (api.Status, error) {
	var s api.Status
	if err := c.getJSON(ctx, "/status", &s); err != nil {
		return api.Status{}, fmt.Errorf("get status:\n%w", err)
	}
	return s, nil
}

// Block fetches a block and verifies its signatures and its hash.
func (c *Client) Block(ctx context.Context, hash hashing.Hash) (*boundwitness.BoundWitness, error) {
	raw, err := c.get(ctx, "/blocks/"+hex.EncodeToString(hash.Bytes())+"?format=raw")
	if err != nil {
		return nil, err
	}

	bw, err := boundwitness.Parse(c.objects, c.verifier, raw)
	if err != nil {
		return nil, fmt.Errorf("parse block %s:\n%w", hash, err)
	}

	if !bw.Completed() {
		return nil, fmt.Errorf("block %s is not completed", hash)
	}

	provider, ok := c.hashes.Lookup(hash.Schema.ID)
	if !ok {
		return nil, fmt.Errorf("unknown hash algorithm %s", hash.Schema)
	}

	got, err := bw.Hash(provider)
	if err != nil {
		return nil, fmt.Errorf("hash block:\n%w", err)
	}

	if !got.Equal(hash) {
		return nil, fmt.Errorf("block hash mismatch: got %s, want %s", got, hash)
	}

	return bw, nil
}

// BlocksByKey lists the hashes of blocks signed by publicKey.
func (c *Client) BlocksByKey(ctx context.Context, publicKey object.Object) ([]hashing.Hash, error) {
	var resp struct {
		Blocks []string `json:"blocks"`
	}

	if err := c.getJSON(ctx, "/keys/"+hex.EncodeToString(publicKey.Bytes())+"/blocks", &resp); err != nil {
		return nil, err
	}

	out := make([]hashing.Hash, 0, len(resp.Blocks))
	for _, s := range resp.Blocks {
		raw, err := hex.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("invalid hash %q: %v", s, err)
		}

		o, err := object.Decode(c.objects, raw)
		if err != nil {
			return nil, fmt.Errorf("decode hash:\n%w", err)
		}

		h, err := c.hashes.FromObject(o)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}

	return out, nil
}

// LastBlock fetches the block at the head of the node's chain.
func (c *Client) LastBlock(ctx context.Context) (*boundwitness.BoundWitness, error) {
	s, err := c.Status(ctx)
	if err != nil {
		return nil, err
	}

	if s.PreviousHash == "" {
		return nil, ErrNotFound
	}

	raw, err := hex.DecodeString(s.PreviousHash)
	if err != nil {
		return nil, fmt.Errorf("invalid head hash: %v", err)
	}

	o, err := object.Decode(c.objects, raw)
	if err != nil {
		return nil, fmt.Errorf("decode head hash:\n%w", err)
	}

	h, err := c.hashes.FromObject(o)
	if err != nil {
		return nil, err
	}

	return c.Block(ctx, h)
}
