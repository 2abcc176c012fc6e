// internal/config/config.go
package config

type Config struct {
	Bus    BusConfig    `yaml:"bus"`
	Master MasterConfig `yaml:"master"`
	Slave  SlaveConfig  `yaml:"slave"`
	Mirror MirrorConfig `yaml:"mirror"`
}

// ---- BUS ----

type BusConfig struct {
	Driver        string `yaml:"driver"` // goburrow | bugst
	Device        string `yaml:"device"`
	BaudRate      int    `yaml:"baud_rate"`
	DataBits      int    `yaml:"data_bits"`
	StopBits      int    `yaml:"stop_bits"`
	Parity        string `yaml:"parity"` // N | E | O
	ReadTimeoutMs int    `yaml:"read_timeout_ms"`
	RS485         bool   `yaml:"rs485"`
}

// ---- MASTER ----

type MasterConfig struct {
	Attempts          int    `yaml:"attempts"`
	TimeoutMs         int    `yaml:"timeout_ms"` // default per-reply timeout
	PollIntervalMs    int    `yaml:"poll_interval_ms"`
	SequenceTimeoutMs int    `yaml:"sequence_timeout_ms"`
	BufferDepth       int    `yaml:"buffer_depth"`
	SlotSize          int    `yaml:"slot_size"`
	LastNodeAddress   *uint8 `yaml:"last_node_address"`
	ScanTimeoutMs     int    `yaml:"scan_timeout_ms"`
}

// ---- SLAVE ----

type SlaveConfig struct {
	Address      uint8 `yaml:"address"`
	BoardID      uint8 `yaml:"board_id"`
	TurnaroundMs *int  `yaml:"turnaround_ms"`
	BufferDepth  int   `yaml:"buffer_depth"`
	SlotSize     int   `yaml:"slot_size"`

	// Registers seeds the register file served by the node (address -> value).
	Registers map[uint8]uint32 `yaml:"registers"`
}

// ---- MIRROR ----

type MirrorConfig struct {
	StatusMemory *StatusMemoryConfig `yaml:"status_memory"`
	Units        []UnitConfig        `yaml:"units"`
}

// StatusMemoryConfig is the endpoint receiving node status blocks.
type StatusMemoryConfig struct {
	Protocol  string `yaml:"protocol"` // modbus | ingest
	Endpoint  string `yaml:"endpoint"`
	UnitID    uint8  `yaml:"unit_id"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// ---- UNIT ----

type UnitConfig struct {
	ID        string         `yaml:"id"`
	Node      uint8          `yaml:"node"`
	TimeoutMs int            `yaml:"timeout_ms"`
	Reads     []ReadConfig   `yaml:"reads"`
	Targets   []TargetConfig `yaml:"targets"`
	Poll      PollConfig     `yaml:"poll"`

	// Node status block (optional, opt-in)
	StatusSlot *uint16 `yaml:"status_slot"`
	DeviceName string  `yaml:"device_name"`
}

// ---- READ GEOMETRY ----

// ReadConfig selects Count consecutive node registers starting at Address.
type ReadConfig struct {
	Address uint8 `yaml:"address"`
	Count   uint8 `yaml:"count"`
}

// ---- TARGET ----

// TargetConfig is one holding register memory reached over TCP.
// Node register r lands at Offset + 2*r (high word first).
type TargetConfig struct {
	Protocol  string `yaml:"protocol"` // modbus | ingest
	Endpoint  string `yaml:"endpoint"`
	UnitID    uint8  `yaml:"unit_id"`
	Offset    uint16 `yaml:"offset"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

const (
	ProtocolModbus = "modbus"
	ProtocolIngest = "ingest"
)

// ---- POLL ----

type PollConfig struct {
	IntervalMs int `yaml:"interval_ms"`
}
