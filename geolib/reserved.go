package geolib

import (
	"encoding/binary"
	"net/netip"
)

// ReservedRange is a closed interval of IPv4 addresses which are never
// geolocated. Bounds are inclusive.
type ReservedRange struct {
	Low  uint32
	High uint32
}

// Contains checks if a numeric IPv4 address belongs to the range.
func (r ReservedRange) Contains(ip uint32) bool {
	return ip >= r.Low && ip <= r.High
}

// ReservedRanges is a fixed table of reserved and private IPv4 blocks.
//
// It intentionally does not include some non-routable blocks like
// 100.64.0.0/10 or 198.18.0.0/15. IPv6 is not filtered at all.
var ReservedRanges = [...]ReservedRange{
	mustReservedRange("0.0.0.0", "2.255.255.255"),
	mustReservedRange("10.0.0.0", "10.255.255.255"),
	mustReservedRange("127.0.0.0", "127.255.255.255"),
	mustReservedRange("169.254.0.0", "169.254.255.255"),
	mustReservedRange("172.16.0.0", "172.31.255.255"),
	mustReservedRange("192.0.2.0", "192.0.2.255"),
	mustReservedRange("192.168.0.0", "192.168.255.255"),
	mustReservedRange("255.255.255.0", "255.255.255.255"),
}

// IsEligible tells if it makes sense to geolocate given address. Empty
// strings and garbage are not eligible, IPv4 addresses are eligible if
// they are out of ReservedRanges. Any valid IPv6 address is eligible.
func IsEligible(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil || addr.Zone() != "" {
		return false
	}

	if !addr.Is4() {
		return true
	}

	numeric := IPv4ToUint32(addr)

	for _, v := range ReservedRanges {
		if v.Contains(numeric) {
			return false
		}
	}

	return numeric != 0
}

// IPv4ToUint32 converts IPv4 address into a number in network byte
// order. Result for IPv6 addresses is undefined.
func IPv4ToUint32(addr netip.Addr) uint32 {
	octets := addr.As4()

	return binary.BigEndian.Uint32(octets[:])
}

func mustReservedRange(low, high string) ReservedRange {
	return ReservedRange{
		Low:  IPv4ToUint32(netip.MustParseAddr(low)),
		High: IPv4ToUint32(netip.MustParseAddr(high)),
	}
}
