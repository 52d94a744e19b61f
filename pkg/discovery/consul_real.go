//go:build consul

package discovery

import (
	"fmt"

	consulapi "github.com/hashicorp/consul/api"
)

// Register announces the API server to the Consul agent at consulAddr with
// an HTTP health check against /health.
func Register(consulAddr, serviceID, advertiseAddr string, port int) error {
	cfg := consulapi.DefaultConfig()
	if consulAddr != "" {
		cfg.Address = consulAddr
	}
	cli, err := consulapi.NewClient(cfg)
	if err != nil {
		return err
	}
	reg := &consulapi.AgentServiceRegistration{
		ID:      serviceID,
		Name:    "policy-advisor",
		Address: advertiseAddr,
		Port:    port,
		Check: &consulapi.AgentServiceCheck{
			HTTP:                           fmt.Sprintf("http://%s:%d/health", advertiseAddr, port),
			Interval:                       "15s",
			Timeout:                        "3s",
			DeregisterCriticalServiceAfter: "5m",
		},
	}
	return cli.Agent().ServiceRegister(reg)
}

// Deregister removes the service registration.
func Deregister(consulAddr, serviceID string) error {
	cfg := consulapi.DefaultConfig()
	if consulAddr != "" {
		cfg.Address = consulAddr
	}
	cli, err := consulapi.NewClient(cfg)
	if err != nil {
		return err
	}
	return cli.Agent().ServiceDeregister(serviceID)
}
