// internal/writer/builder.go
package writer

import (
	"errors"
	"time"

	cfg "github.com/tamzrod/una-at/internal/config"
	"github.com/tamzrod/una-at/internal/writer/ingest"
	wmodbus "github.com/tamzrod/una-at/internal/writer/modbus"
)

// BuildPlan converts one unit config into a Writer Plan.
// Assumes config has already passed validation and normalization.
func BuildPlan(u cfg.UnitConfig, sm *cfg.StatusMemoryConfig) (Plan, error) {
	if u.ID == "" {
		return Plan{}, errors.New("writer: unit.id required")
	}

	plan := Plan{UnitID: u.ID}

	for _, t := range u.Targets {
		plan.Targets = append(plan.Targets, TargetEndpoint{
			Endpoint: t.Endpoint,
			UnitID:   t.UnitID,
			Offset:   t.Offset,
		})
	}

	if u.StatusSlot != nil {
		if sm == nil {
			return Plan{}, errors.New("writer: status_slot without status_memory")
		}
		plan.Status = &StatusPlan{
			Endpoint:   sm.Endpoint,
			UnitID:     sm.UnitID,
			BaseSlot:   *u.StatusSlot,
			DeviceName: u.DeviceName,
			Node:       u.Node,
		}
	}

	return plan, nil
}

type endpointOpts struct {
	protocol string
	timeout  time.Duration
}

// BuildEndpointClients creates one client per unique endpoint across all units.
func BuildEndpointClients(m cfg.MirrorConfig) (map[string]EndpointClient, func() error, error) {
	unique := map[string]endpointOpts{}
	for _, u := range m.Units {
		for _, t := range u.Targets {
			unique[t.Endpoint] = endpointOpts{
				protocol: t.Protocol,
				timeout:  time.Duration(t.TimeoutMs) * time.Millisecond,
			}
		}
	}
	if sm := m.StatusMemory; sm != nil && sm.Endpoint != "" {
		unique[sm.Endpoint] = endpointOpts{
			protocol: sm.Protocol,
			timeout:  time.Duration(sm.TimeoutMs) * time.Millisecond,
		}
	}

	clients := make(map[string]EndpointClient)

	closeAll := func() error {
		var last error
		for _, c := range clients {
			if err := c.Close(); err != nil {
				last = err
			}
		}
		return last
	}

	for endpoint, eo := range unique {
		var (
			c   EndpointClient
			err error
		)
		switch eo.protocol {
		case cfg.ProtocolIngest:
			c, err = ingest.NewEndpointClient(ingest.Config{Endpoint: endpoint, Timeout: eo.timeout})
		default:
			c, err = wmodbus.NewEndpointClient(wmodbus.Config{Endpoint: endpoint, Timeout: eo.timeout})
		}
		if err != nil {
			_ = closeAll()
			return nil, nil, err
		}
		clients[endpoint] = c
	}

	return clients, closeAll, nil
}
