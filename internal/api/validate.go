package api

import (
	"encoding/hex"
	"fmt"

	"XyoCore/internal/hashing"
	"XyoCore/internal/object"
)

// maxParamSize bounds a decoded path parameter. The largest accepted value
// is an RSA public key.
const maxParamSize = 1024

// parseHash decodes a hex encoded hash object.
func parseHash(objects *object.Registry, hashes *hashing.Registry, param string) (hashing.Hash, error) {
	raw, err := decodeParam(param)
	if err != nil {
		return hashing.Hash{}, err
	}

	o, err := object.Decode(objects, raw)
	if err != nil {
		return hashing.Hash{}, fmt.Errorf("invalid hash: %v", err)
	}

	h, err := hashes.FromObject(o)
	if err != nil {
		return hashing.Hash{}, fmt.Errorf("invalid hash: %v", err)
	}

	return h, nil
}

// parsePublicKey decodes a hex encoded public key object.
func parsePublicKey(objects *object.Registry, param string) (object.Object, error) {
	raw, err := decodeParam(param)
	if err != nil {
		return object.Object{}, err
	}

	o, err := object.Decode(objects, raw)
	if err != nil {
		return object.Object{}, fmt.Errorf("invalid public key: %v", err)
	}

	switch o.Schema() {
	case object.EcPublicKey, object.RsaPublicKey, object.BlsPublicKey:
		return o, nil
	}

	return object.Object{}, fmt.Errorf("not a public key: %s", objects.Name(o.Schema()))
}

func decodeParam(param string) ([]byte, error) {
	if len(param) == 0 || len(param) > 2*maxParamSize {
		return nil, fmt.Errorf("invalid parameter length: %d", len(param))
	}

	raw, err := hex.DecodeString(param)
	if err != nil {
		return nil, fmt.Errorf("invalid hex: %v", err)
	}

	return raw, nil
}
