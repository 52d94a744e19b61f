//go:build !consul

package discovery

// Register is a no-op unless the binary is built with the consul tag.
func Register(consulAddr, serviceID, advertiseAddr string, port int) error { return nil }

// Deregister is a no-op unless the binary is built with the consul tag.
func Deregister(consulAddr, serviceID string) error { return nil }
