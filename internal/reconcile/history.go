package reconcile

import "sync"

// History is the set of txids already recorded for one coin.
type History struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

// NewHistory seeds a history, typically from the vault.
func NewHistory(ids map[string]struct{}) *History {
	h := &History{ids: make(map[string]struct{}, len(ids))}
	for id := range ids {
		h.ids[id] = struct{}{}
	}
	return h
}

// Has reports whether txid is known.
func (h *History) Has(txid string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.ids[txid]
	return ok
}

// Add marks txid as known and reports whether it was new.
func (h *History) Add(txid string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.ids[txid]; ok {
		return false
	}
	h.ids[txid] = struct{}{}
	return true
}

// Len returns the number of known txids.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.ids)
}
