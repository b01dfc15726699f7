package catalog

import (
	"context"
	"sync"

	id "vetcore/pkg/domain"
	"vetcore/pkg/platform/sentinel"
)

// InMemory is a seedable catalog used by the memory deployment mode and
// tests. It intentionally favors clarity over performance.
type InMemory struct {
	mu        sync.RWMutex
	protocols map[id.ProtocolID]*Protocol
	entries   map[id.EntryID]*ProtocolEntry
}

func NewInMemory() *InMemory {
	return &InMemory{
		protocols: make(map[id.ProtocolID]*Protocol),
		entries:   make(map[id.EntryID]*ProtocolEntry),
	}
}

// Seed registers a protocol and indexes its entries.
func (c *InMemory) Seed(p Protocol) {
	c.mu.Lock()
	defer c.mu.Unlock()
	stored := p
	stored.Entries = append([]ProtocolEntry(nil), p.Entries...)
	c.protocols[p.ID] = &stored
	for i := range stored.Entries {
		entry := stored.Entries[i]
		c.entries[entry.ID] = &entry
	}
}

func (c *InMemory) GetProtocol(_ context.Context, orgID id.OrgID, protocolID id.ProtocolID) (*Protocol, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.protocols[protocolID]
	if !ok || p.OrgID != orgID {
		return nil, sentinel.ErrNotFound
	}
	out := *p
	out.Entries = append([]ProtocolEntry(nil), p.Entries...)
	return &out, nil
}

func (c *InMemory) GetEntry(_ context.Context, orgID id.OrgID, entryID id.EntryID) (*ProtocolEntry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[entryID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if p, ok := c.protocols[e.ProtocolID]; !ok || p.OrgID != orgID {
		return nil, sentinel.ErrNotFound
	}
	out := *e
	return &out, nil
}
