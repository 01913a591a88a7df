package device

import (
	"fmt"
	"sync"
)

// modelTables maps a configured device_model name to its static
// description table. Hu1508 is the only model this registry knows; new
// models register their table here.
var modelTables = map[string]func() Table{
	"Hu1508": hu1508Table,
}

// State is a per-device typed wrapper over a raw CoAP status dictionary. It
// is created with an empty raw dictionary and replaced wholesale on each
// successful poll via ReplaceRaw. All methods are safe for concurrent use;
// in practice a State is only ever touched by its owning bridge's observe
// loop and by send_update calls routed from the MQTT subscriber, which run
// on separate goroutines; the mutex serializes them.
type State struct {
	mu       sync.Mutex
	model    string
	table    Table
	raw      RawStatus
	commands []Command
}

// New creates a State for the named device model with an empty raw
// dictionary. Returns ErrUnknownModel if the model isn't registered.
func New(model string) (*State, error) {
	build, ok := modelTables[model]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, model)
	}
	return &State{
		model: model,
		table: build(),
		raw:   RawStatus{},
	}, nil
}

// Model returns the device model name this State was constructed for.
func (s *State) Model() string {
	return s.model
}

// ReplaceRaw overwrites the raw dictionary with a fresh snapshot from a
// successful status fetch. Does not touch the pending command queue.
func (s *State) ReplaceRaw(raw RawStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw = raw
}

// Raw returns a defensive copy of the current raw dictionary, e.g. for
// raw_state JSON publishing.
func (s *State) Raw() RawStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.raw.Clone()
}

// Read decodes one attribute's current typed value. Never fails on a
// missing raw key — each decoder has a documented default — but does fail
// if the attribute itself is unknown for this device model.
func (s *State) Read(attribute string) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prop, ok := s.table[attribute]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAttribute, attribute)
	}
	return prop.Decode(s.raw), nil
}

// Write coerces input into attribute's declared type (including lookup by
// enum member name), mutates the raw dictionary, and appends the resulting
// command(s) to the pending queue. Returns ErrUnknownAttribute,
// ErrReadOnly, or ErrInvalidValue as appropriate.
func (s *State) Write(attribute string, input any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prop, ok := s.table[attribute]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownAttribute, attribute)
	}
	if prop.Encode == nil {
		return fmt.Errorf("%w: %q", ErrReadOnly, attribute)
	}
	value, err := prop.Coerce(input)
	if err != nil {
		return err
	}
	cmds, err := prop.Encode(s.raw, value)
	if err != nil {
		return err
	}
	s.commands = append(s.commands, cmds...)
	return nil
}

// AdmissibleValues returns the declared value set for an attribute: enum
// member names, literal value strings, or nil for a free-typed or unknown
// attribute.
func (s *State) AdmissibleValues(attribute string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	prop, ok := s.table[attribute]
	if !ok || prop.Admissible == nil {
		return nil
	}
	return prop.Admissible()
}

// Attributes returns the names of every attribute this device model
// declares, for introspection.
func (s *State) Attributes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.table))
	for name := range s.table {
		out = append(out, name)
	}
	return out
}

// DrainCommands atomically returns and clears the pending command queue.
// The bridge calls this after every successful Write and sends each
// returned command over CoAP in order.
func (s *State) DrainCommands() []Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	cmds := s.commands
	s.commands = nil
	return cmds
}

// AsDict produces the flat {attribute: serializable} view used for
// differential MQTT publishing. Enum values serialize as their member
// name, not the underlying integer; a nil error value serializes as nil.
func (s *State) AsDict() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]any, len(s.table))
	for name, prop := range s.table {
		out[name] = serialize(prop.Decode(s.raw))
	}
	return out
}

// serialize converts a decoded value into its MQTT/JSON wire form: an enum
// (anything with a String method) becomes its member name; everything else
// passes through unchanged.
func serialize(v any) any {
	if v == nil {
		return nil
	}
	if stringer, ok := v.(fmt.Stringer); ok {
		return stringer.String()
	}
	return v
}
