package boundwitness

import (
	"XyoCore/internal/fault"
)

// Catalogue flags advertised by the initiating party.
const (
	FlagBoundWitness    byte = 0x01
	FlagTakeOriginChain byte = 0x02
	FlagGiveOriginChain byte = 0x04
)

// maxFlagsLen is the longest catalogue or choice that fits the one-byte
// length prefix.
const maxFlagsLen = 0xFF

// Choose returns the byte-wise AND of two catalogues aligned from their last
// byte. The result is as long as the shorter input.
func Choose(own, peer []byte) []byte {
	n := min(len(own), len(peer))
	choice := make([]byte, n)

	for i := 1; i <= n; i++ {
		choice[n-i] = own[len(own)-i] & peer[len(peer)-i]
	}

	return choice
}

// Matches reports whether any byte pair, aligned from the last byte, has a
// non-zero AND. One shared bit is enough to select.
func Matches(flags, choice []byte) bool {
	n := min(len(flags), len(choice))

	for i := 1; i <= n; i++ {
		if flags[len(flags)-i]&choice[len(choice)-i] != 0 {
			return true
		}
	}

	return false
}

// CataloguePacket frames a catalogue as [len][catalogue].
func CataloguePacket(catalogue []byte) ([]byte, error) {
	if len(catalogue) > maxFlagsLen {
		return nil, fault.Creationf("catalogue of %d bytes exceeds %d", len(catalogue), maxFlagsLen)
	}

	packet := make([]byte, 0, 1+len(catalogue))
	packet = append(packet, byte(len(catalogue)))
	packet = append(packet, catalogue...)

	return packet, nil
}

// ParseCataloguePacket reads a [len][catalogue] packet. Trailing bytes are
// returned as rest.
func ParseCataloguePacket(packet []byte) (catalogue, rest []byte, err error) {
	if len(packet) < 1 {
		return nil, nil, fault.Protocolf("empty catalogue packet")
	}

	n := int(packet[0])
	if len(packet) < 1+n {
		return nil, nil, fault.Protocolf("catalogue packet: %d bytes announced, %d present", n, len(packet)-1)
	}

	return packet[1 : 1+n], packet[1+n:], nil
}

// ChoicePacket frames the responder's first reply as [len][choice][transfer].
func ChoicePacket(choice, transfer []byte) ([]byte, error) {
	packet, err := CataloguePacket(choice)
	if err != nil {
		return nil, err
	}

	return append(packet, transfer...), nil
}

// ParseChoicePacket splits a [len][choice][transfer] packet.
func ParseChoicePacket(packet []byte) (choice, transfer []byte, err error) {
	return ParseCataloguePacket(packet)
}
