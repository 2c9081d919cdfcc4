package object

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestLeafRoundTripProperty(t *testing.T) {
	reg := NewXyoRegistry()
	reg.Register(Schema{Width2, 0x70}, "TEST_2")
	reg.Register(Schema{Width4, 0x71}, "TEST_4")

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("decode(encode(leaf)) == leaf", prop.ForAll(
		func(value []byte, wide bool) bool {
			s := Schema{Width2, 0x70}
			if wide {
				s = Schema{Width4, 0x71}
			}

			o, err := NewLeaf(s, value)
			if err != nil {
				return false
			}

			decoded, err := Decode(reg, o.Bytes())
			return err == nil && decoded.Equal(o)
		},
		gen.SliceOf(gen.UInt8()),
		gen.Bool(),
	))

	properties.Property("typed and untyped arrays keep item order", prop.ForAll(
		func(values []uint64) bool {
			items := make([]Object, len(values))
			for i, v := range values {
				items[i] = NewUint64(UnixTime, v)
			}

			for _, s := range []Schema{ArrayTyped, ArrayUntyped} {
				decoded, err := Decode(reg, MustArray(s, items...).Bytes())
				if err != nil || decoded.Len() != len(values) {
					return false
				}

				for i, v := range values {
					got, err := decoded.Item(i).Uint64()
					if err != nil || got != v {
						return false
					}
				}
			}

			return true
		},
		gen.SliceOf(gen.UInt64()),
	))

	properties.TestingRun(t)
}
