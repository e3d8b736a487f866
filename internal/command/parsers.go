package command

import (
	"net/netip"
	"strconv"
)

const (
	MinPort = 0
	MaxPort = 65535
)

func ParsePort(raw string) (int, error) {
	port, err := strconv.Atoi(raw)
	if err != nil {
		return 0, ParseErrorf("port %s is not a valid format for a port, should be a number in [%d, %d]", raw, MinPort, MaxPort)
	}
	if port < MinPort || port > MaxPort {
		return 0, ParseErrorf("port %d is out of range, should be in [%d, %d]", port, MinPort, MaxPort)
	}
	return port, nil
}

func ParseIPAddress(raw string) (netip.Addr, error) {
	addr, err := netip.ParseAddr(raw)
	if err != nil {
		return netip.Addr{}, ParseErrorf("address %s is not a valid IP address", raw)
	}
	return addr, nil
}

func ParseInt(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, ParseErrorf("%s is not a number", raw)
	}
	return n, nil
}
