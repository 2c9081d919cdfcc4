package object

// XYO schema table. The ID byte of signature schemas doubles as the signing
// algorithm id.
var (
	ArrayUntyped = Schema{0xA0, 0x01}
	ArrayTyped   = Schema{0xB0, 0xCC}

	BoundWitness   = Schema{0xB0, 0x02}
	Index          = Schema{0x80, 0x03}
	NextPublicKey  = Schema{0xB0, 0x04}
	BridgeBlockSet = Schema{0xA0, 0x05}
	BridgeHashSet  = Schema{0xB0, 0x06}
	Payload        = Schema{0xB0, 0x07}
	PreviousHash   = Schema{0xB0, 0x08}

	EcSignature  = Schema{0x80, 0x09}
	RsaSignature = Schema{0x80, 0x0A}
	EcPublicKey  = Schema{0x80, 0x0C}
	RsaPublicKey = Schema{0x80, 0x0D}

	Sha256 = Schema{0x80, 0x10}
	Sha3   = Schema{0x80, 0x11}

	Gps      = Schema{0xB0, 0x12}
	Rssi     = Schema{0x00, 0x13}
	UnixTime = Schema{0x80, 0x14}

	SignedPayload   = Schema{0xB0, 0x15}
	UnsignedPayload = Schema{0xB0, 0x16}

	BlsSignature = Schema{0x80, 0x17}
	BlsPublicKey = Schema{0x80, 0x18}

	KeySet           = Schema{0xB0, 0x19}
	SignatureSet     = Schema{0xB0, 0x1A}
	KeySetList       = Schema{0xB0, 0x1B}
	PayloadList      = Schema{0xB0, 0x1C}
	SignatureSetList = Schema{0xB0, 0x1D}
	Transfer         = Schema{0xB0, 0x1E}

	Sha1   = Schema{0x80, 0x1F}
	Sha384 = Schema{0x80, 0x20}
	Blake3 = Schema{0x80, 0x21}

	Latitude  = Schema{0x80, 0x22}
	Longitude = Schema{0x80, 0x23}

	EcPrivateKey  = Schema{0x80, 0xF0}
	RsaPrivateKey = Schema{0x80, 0xF1}
	BlsPrivateKey = Schema{0x80, 0xF2}
)

// NewXyoRegistry returns a registry holding the full XYO schema table.
func NewXyoRegistry() *Registry {
	r := NewRegistry()

	r.Register(ArrayUntyped, "ARRAY_UNTYPED")
	r.Register(ArrayTyped, "ARRAY_TYPED")

	r.Register(BoundWitness, "BW")
	r.RegisterFixed(Index, "INDEX", 8)
	r.Register(NextPublicKey, "NEXT_PUBLIC_KEY")
	r.Register(BridgeBlockSet, "BRIDGE_BLOCK_SET")
	r.Register(BridgeHashSet, "BRIDGE_HASH_SET")
	r.Register(Payload, "PAYLOAD")
	r.Register(PreviousHash, "PREVIOUS_HASH")

	r.Register(EcSignature, "EC_SIGNATURE")
	r.Register(RsaSignature, "RSA_SIGNATURE")
	r.RegisterFixed(EcPublicKey, "EC_PUBLIC_KEY", 64)
	r.Register(RsaPublicKey, "RSA_PUBLIC_KEY")
	r.Register(BlsSignature, "BLS_SIGNATURE")
	r.Register(BlsPublicKey, "BLS_PUBLIC_KEY")

	r.RegisterFixed(Sha256, "SHA_256", 32)
	r.RegisterFixed(Sha3, "SHA3", 32)
	r.RegisterFixed(Sha1, "SHA_1", 20)
	r.RegisterFixed(Sha384, "SHA_384", 48)
	r.RegisterFixed(Blake3, "BLAKE3", 32)

	r.Register(Gps, "GPS")
	r.RegisterFixed(Latitude, "LAT", 8)
	r.RegisterFixed(Longitude, "LNG", 8)
	r.RegisterFixed(Rssi, "RSSI", 1)
	r.RegisterFixed(UnixTime, "UNIX_TIME", 8)

	r.Register(SignedPayload, "SIGNED_PAYLOAD")
	r.Register(UnsignedPayload, "UNSIGNED_PAYLOAD")
	r.Register(KeySet, "KEY_SET")
	r.Register(SignatureSet, "SIGNATURE_SET")
	r.Register(KeySetList, "KEY_SET_LIST")
	r.Register(PayloadList, "PAYLOAD_LIST")
	r.Register(SignatureSetList, "SIGNATURE_SET_LIST")
	r.Register(Transfer, "TRANSFER")

	r.Register(EcPrivateKey, "EC_PRIVATE_KEY")
	r.Register(RsaPrivateKey, "RSA_PRIVATE_KEY")
	r.Register(BlsPrivateKey, "BLS_PRIVATE_KEY")

	return r
}
