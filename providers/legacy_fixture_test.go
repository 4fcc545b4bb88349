package providers_test

import (
	"bytes"
	"net/netip"
)

const (
	legacyCountryBegin    uint32 = 16776960
	legacyEditionCountry         = 1
	legacyStructureMarker        = 0xff
)

// legacy country identifiers are positions in the fixed GeoIP country
// table.
var legacyCountryIndexes = map[string]uint32{
	"AP": 1,
	"EU": 2,
	"GB": 77,
	"US": 225,
	"ZA": 240,
}

// legacyCountryDatabase assembles a country edition database in the
// binary trie format of legacy GeoIP. Networks have to be disjoint.
type legacyCountryDatabase struct {
	nodes [][2]uint32
}

func (l *legacyCountryDatabase) Insert(network netip.Prefix, countryCode string) {
	leaf := legacyCountryBegin + legacyCountryIndexes[countryCode]
	octets := network.Masked().Addr().As4()
	ipnum := uint32(octets[0])<<24 | uint32(octets[1])<<16 | uint32(octets[2])<<8 | uint32(octets[3])
	bits := network.Bits()
	node := uint32(0)

	for i := 0; i < bits; i++ {
		branch := (ipnum >> uint(31-i)) & 1

		if i == bits-1 {
			l.nodes[node][branch] = leaf

			break
		}

		child := l.nodes[node][branch]

		if child >= legacyCountryBegin {
			l.nodes = append(l.nodes, [2]uint32{child, child})
			child = uint32(len(l.nodes) - 1)
			l.nodes[node][branch] = child
		}

		node = child
	}
}

func (l *legacyCountryDatabase) Bytes() []byte {
	buf := &bytes.Buffer{}

	for _, node := range l.nodes {
		for _, record := range node {
			buf.Write([]byte{byte(record), byte(record >> 8), byte(record >> 16)})
		}
	}

	buf.Write([]byte{legacyStructureMarker, legacyStructureMarker, legacyStructureMarker, legacyEditionCountry})

	return buf.Bytes()
}

func newLegacyCountryDatabase() *legacyCountryDatabase {
	return &legacyCountryDatabase{
		nodes: [][2]uint32{{legacyCountryBegin, legacyCountryBegin}},
	}
}
