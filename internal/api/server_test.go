package api

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"XyoCore/internal/boundwitness"
	"XyoCore/internal/hashing"
	"XyoCore/internal/object"
	"XyoCore/internal/repository"
	"XyoCore/internal/signing"
)

type fixedStatus Status

func (f fixedStatus) Status() Status { return Status(f) }

// newTestServer returns a server over one stored self-signed block.
func newTestServer(t *testing.T) (*Server, *boundwitness.BoundWitness, signing.Signer) {
	t.Helper()

	signer, err := signing.GenerateSecp256k1()
	if err != nil {
		t.Fatalf("generate signer: %v", err)
	}

	payload := boundwitness.Payload{Signed: []object.Object{object.NewUint64(object.Index, 0)}}
	zz := boundwitness.NewZigZag(object.NewXyoRegistry(), signing.NewRegistry(), []signing.Signer{signer}, payload)
	if _, err := zz.IncomingData(nil, true); err != nil {
		t.Fatalf("self sign: %v", err)
	}

	blocks := repository.NewMemoryBlocks(hashing.SHA256())
	if err := blocks.AddBoundWitness(context.Background(), zz.BoundWitness()); err != nil {
		t.Fatalf("store block: %v", err)
	}

	status := fixedStatus{Index: 1, Queued: 2, Blocks: 1, PublicKeys: []string{"ab"}}
	server := New(":0", blocks, status, object.NewXyoRegistry(), hashing.NewRegistry())

	return server, zz.BoundWitness(), signer
}

func get(server *Server, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", path, nil)
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	server, _, _ := newTestServer(t)

	w := get(server, "/health")
	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}

	if resp["status"] != "ok" {
		t.Errorf("expected status ok, got %s", resp["status"])
	}
}

func TestStatusEndpoint(t *testing.T) {
	server, _, _ := newTestServer(t)

	w := get(server, "/status")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var resp Status
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}

	if resp.Index != 1 || resp.Queued != 2 || resp.Blocks != 1 {
		t.Errorf("unexpected status: %+v", resp)
	}
}

func TestStatusUnavailable(t *testing.T) {
	server := New(":0", repository.NewMemoryBlocks(hashing.SHA256()), nil, object.NewXyoRegistry(), hashing.NewRegistry())

	if w := get(server, "/status"); w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", w.Code)
	}
}

func TestBlockEndpoint(t *testing.T) {
	server, bw, signer := newTestServer(t)
	h, _ := bw.Hash(hashing.SHA256())
	path := "/blocks/" + hex.EncodeToString(h.Bytes())

	w := get(server, path)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var view blockView
	if err := json.Unmarshal(w.Body.Bytes(), &view); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}

	if len(view.Parties) != 1 || len(view.Parties[0].Signatures) != 1 {
		t.Fatalf("unexpected view: %+v", view)
	}

	if view.Parties[0].PublicKeys[0] != hex.EncodeToString(signer.PublicKey().Bytes()) {
		t.Error("public key mismatch")
	}

	if view.Parties[0].Signed[0].Type != "INDEX" {
		t.Errorf("signed item type = %s, want INDEX", view.Parties[0].Signed[0].Type)
	}

	raw := get(server, path+"?format=raw")
	if !bytes.Equal(raw.Body.Bytes(), bw.Bytes()) {
		t.Error("raw block differs from canonical encoding")
	}
}

func TestBlockNotFound(t *testing.T) {
	server, _, _ := newTestServer(t)
	h, _ := hashing.SHA256().CreateHash([]byte("missing"))

	if w := get(server, "/blocks/"+hex.EncodeToString(h.Bytes())); w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}

func TestBlockBadHash(t *testing.T) {
	server, _, _ := newTestServer(t)

	tests := []string{
		"zz",
		hex.EncodeToString(object.NewUint64(object.Index, 1).Bytes()),
		hex.EncodeToString([]byte{0x80, 0x10, 0x00, 0x00, 0x00, 0x09, 0x01}),
	}

	for _, param := range tests {
		if w := get(server, "/blocks/"+param); w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected status 400, got %d", param, w.Code)
		}
	}
}

func TestKeyBlocksEndpoint(t *testing.T) {
	server, bw, signer := newTestServer(t)
	h, _ := bw.Hash(hashing.SHA256())

	w := get(server, "/keys/"+hex.EncodeToString(signer.PublicKey().Bytes())+"/blocks")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string][]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}

	if len(resp["blocks"]) != 1 || resp["blocks"][0] != hex.EncodeToString(h.Bytes()) {
		t.Errorf("blocks = %v", resp["blocks"])
	}

	if w := get(server, "/keys/"+hex.EncodeToString(h.Bytes())+"/blocks"); w.Code != http.StatusBadRequest {
		t.Errorf("hash as key: expected status 400, got %d", w.Code)
	}
}
