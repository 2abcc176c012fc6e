// internal/config/validate.go
package config

import (
	"fmt"

	"github.com/tamzrod/una-at/internal/status"
	"github.com/tamzrod/una-at/internal/transport"
	"github.com/tamzrod/una-at/internal/una"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil configuration")
	}
	if err := validateBus(cfg.Bus); err != nil {
		return err
	}

	if a := cfg.Master.LastNodeAddress; a != nil && *a > una.NodeAddressLast {
		return fmt.Errorf("master: last_node_address 0x%02X above 0x%02X", *a, una.NodeAddressLast)
	}
	if cfg.Master.Attempts < 0 {
		return fmt.Errorf("master: attempts must be >= 0")
	}
	if cfg.Slave.Address > una.NodeAddressLast {
		return fmt.Errorf("slave: address 0x%02X above 0x%02X", cfg.Slave.Address, una.NodeAddressLast)
	}
	if t := cfg.Slave.TurnaroundMs; t != nil && *t < 0 {
		return fmt.Errorf("slave: turnaround_ms must be >= 0")
	}

	return validateMirror(cfg.Mirror)
}

func validateBus(b BusConfig) error {
	switch b.Driver {
	case "", transport.DriverGoburrow, transport.DriverBugst:
	default:
		return fmt.Errorf("bus: unknown driver %q", b.Driver)
	}
	switch b.Parity {
	case "", "N", "E", "O":
	default:
		return fmt.Errorf("bus: parity must be N, E or O, got %q", b.Parity)
	}
	if b.DataBits != 0 && (b.DataBits < 5 || b.DataBits > 8) {
		return fmt.Errorf("bus: data_bits must be 5..8, got %d", b.DataBits)
	}
	if b.StopBits != 0 && b.StopBits != 1 && b.StopBits != 2 {
		return fmt.Errorf("bus: stop_bits must be 1 or 2, got %d", b.StopBits)
	}
	if b.BaudRate < 0 || b.ReadTimeoutMs < 0 {
		return fmt.Errorf("bus: baud_rate and read_timeout_ms must be >= 0")
	}
	return nil
}

func validateMirror(m MirrorConfig) error {
	type span struct {
		start int
		end   int
		unit  string
	}

	ids := make(map[string]struct{})

	// one protocol per endpoint, clients are shared by endpoint
	protocols := make(map[string]string)
	checkProtocol := func(owner, protocol, endpoint string) error {
		switch protocol {
		case "", ProtocolModbus:
			protocol = ProtocolModbus
		case ProtocolIngest:
		default:
			return fmt.Errorf("%s: unknown protocol %q", owner, protocol)
		}
		if prev, ok := protocols[endpoint]; ok && prev != protocol {
			return fmt.Errorf("%s: endpoint %s used with protocols %s and %s", owner, endpoint, prev, protocol)
		}
		protocols[endpoint] = protocol
		return nil
	}

	if sm := m.StatusMemory; sm != nil && sm.Endpoint != "" {
		if err := checkProtocol("status_memory", sm.Protocol, sm.Endpoint); err != nil {
			return err
		}
	}

	for _, u := range m.Units {
		if u.ID == "" {
			return fmt.Errorf("mirror: unit id required")
		}
		if _, dup := ids[u.ID]; dup {
			return fmt.Errorf("mirror: duplicate unit id %q", u.ID)
		}
		ids[u.ID] = struct{}{}

		if u.Node > una.NodeAddressLast {
			return fmt.Errorf("unit %q: node 0x%02X above 0x%02X", u.ID, u.Node, una.NodeAddressLast)
		}
		if len(u.Reads) == 0 {
			return fmt.Errorf("unit %q: at least one read required", u.ID)
		}
		for _, r := range u.Reads {
			if r.Count == 0 {
				return fmt.Errorf("unit %q: read at 0x%02X has zero count", u.ID, r.Address)
			}
			if int(r.Address)+int(r.Count)-1 > 0xFF {
				return fmt.Errorf("unit %q: read 0x%02X+%d exceeds register space", u.ID, r.Address, r.Count)
			}
		}
		if u.TimeoutMs < 0 || u.Poll.IntervalMs < 0 {
			return fmt.Errorf("unit %q: timeout_ms and poll.interval_ms must be >= 0", u.ID)
		}
		for _, t := range u.Targets {
			if t.Endpoint == "" {
				return fmt.Errorf("unit %q: target endpoint required", u.ID)
			}
			if err := checkProtocol(fmt.Sprintf("unit %q", u.ID), t.Protocol, t.Endpoint); err != nil {
				return err
			}
		}

		// device_name sanity (ASCII only)
		for i := 0; i < len(u.DeviceName); i++ {
			if u.DeviceName[i] > 0x7F {
				return fmt.Errorf(
					"unit %q: device_name must contain ASCII characters only",
					u.ID,
				)
			}
		}
	}

	// ------------------------------------------------------------
	// NODE STATUS BLOCK VALIDATION (OPT-IN)
	// ------------------------------------------------------------

	slotOwner := make(map[uint16]string)

	for _, u := range m.Units {
		if u.StatusSlot == nil {
			continue
		}
		if m.StatusMemory == nil || m.StatusMemory.Endpoint == "" {
			return fmt.Errorf(
				"unit %q: status_slot is set but no status_memory endpoint is defined",
				u.ID,
			)
		}

		slot := *u.StatusSlot
		if (int(slot)+1)*status.SlotsPerDevice-1 > 0xFFFF {
			return fmt.Errorf("unit %q: status_slot %d exceeds holding register space", u.ID, slot)
		}
		if prev, exists := slotOwner[slot]; exists {
			return fmt.Errorf(
				"status_slot collision: endpoint=%s unit_id=%d slot=%d used by units %q and %q",
				m.StatusMemory.Endpoint,
				m.StatusMemory.UnitID,
				slot,
				prev,
				u.ID,
			)
		}
		slotOwner[slot] = u.ID
	}

	// ------------------------------------------------------------
	// DESTINATION MEMORY GEOMETRY VALIDATION
	// ------------------------------------------------------------

	// key = endpoint | unit_id
	spans := make(map[string][]span)

	for _, u := range m.Units {
		for _, t := range u.Targets {
			key := fmt.Sprintf("%s|%d", t.Endpoint, t.UnitID)

			for _, r := range u.Reads {
				// two holding registers per node register
				start := int(t.Offset) + 2*int(r.Address)
				end := start + 2*int(r.Count) - 1

				if end > 0xFFFF {
					return fmt.Errorf(
						"unit %q: endpoint=%s unit_id=%d range=%d-%d exceeds holding register space",
						u.ID, t.Endpoint, t.UnitID, start, end,
					)
				}

				for _, s := range spans[key] {
					// overlap check (inclusive)
					if !(end < s.start || start > s.end) {
						return fmt.Errorf(
							"memory overlap: endpoint=%s unit_id=%d range=%d-%d overlaps with unit=%s range=%d-%d",
							t.Endpoint,
							t.UnitID,
							start,
							end,
							s.unit,
							s.start,
							s.end,
						)
					}
				}

				spans[key] = append(spans[key], span{
					start: start,
					end:   end,
					unit:  u.ID,
				})
			}
		}
	}

	return nil
}
