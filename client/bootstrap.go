package client

import (
	"errors"
	"strings"
)

var errNoConnection = errors.New("could not connect to any address")

// DialAny tries each address in addrs in order and returns a client for the
// first bridge that accepts the connection.
func DialAny(addrs []string) (*BridgeClient, error) {
	var lastErr error
	for _, addr := range addrs {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		c, err := NewBridgeClient(addr)
		if err != nil {
			lastErr = err
			continue
		}
		return c, nil
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, errNoConnection
}
