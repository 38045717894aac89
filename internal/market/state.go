package market

import (
	"sort"
	"sync"
	"time"

	"github.com/Alias1177/Sentinel/models"
)

// MarketState owns every piece of mutable per-instrument data: the tick ring
// buffer, the open and sealed candles per timeframe, liquidity zones and
// recorded sweeps. All access goes through its mutex; no ambient globals.
type MarketState struct {
	sync.Mutex

	Symbol  string
	Ticks   []models.Tick
	Current map[models.Timeframe]*models.Candle
	History map[models.Timeframe][]models.Candle
	Zones   []*models.LiquidityZone
	Sweeps  []models.MarketSweep

	tickCap int
	zoneCap int
}

// NewMarketState creates empty state for one instrument
func NewMarketState(symbol string, tickCap, zoneCap int) *MarketState {
	return &MarketState{
		Symbol:  symbol,
		Current: make(map[models.Timeframe]*models.Candle),
		History: make(map[models.Timeframe][]models.Candle),
		tickCap: tickCap,
		zoneCap: zoneCap,
	}
}

// AppendTick adds a tick to the ring buffer, evicting the oldest when full.
// Caller must hold the lock.
func (s *MarketState) AppendTick(t models.Tick) {
	if len(s.Ticks) >= s.tickCap {
		copy(s.Ticks, s.Ticks[1:])
		s.Ticks = s.Ticks[:len(s.Ticks)-1]
	}
	s.Ticks = append(s.Ticks, t)
}

// RecentTicks returns the last n ticks, oldest first. Caller must hold the lock.
func (s *MarketState) RecentTicks(n int) []models.Tick {
	if n > len(s.Ticks) {
		n = len(s.Ticks)
	}
	return s.Ticks[len(s.Ticks)-n:]
}

// AddZone inserts a zone, pruning the weakest when over cap.
// Caller must hold the lock.
func (s *MarketState) AddZone(z *models.LiquidityZone) {
	s.Zones = append(s.Zones, z)
	if len(s.Zones) > s.zoneCap {
		sort.Slice(s.Zones, func(i, j int) bool {
			return s.Zones[i].Strength > s.Zones[j].Strength
		})
		s.Zones = s.Zones[:s.zoneCap]
	}
}

// AddSweep records a confirmed sweep. Caller must hold the lock.
func (s *MarketState) AddSweep(sw models.MarketSweep) {
	s.Sweeps = append(s.Sweeps, sw)
}

// PurgeStale drops zones that have not been tested within zoneTTL and sweeps
// older than sweepTTL. Returns how many entries were removed.
// Caller must hold the lock.
func (s *MarketState) PurgeStale(now time.Time, zoneTTL, sweepTTL time.Duration) int {
	removed := 0

	kept := s.Zones[:0]
	for _, z := range s.Zones {
		ref := z.LastTestAt
		if ref.IsZero() {
			ref = z.CreatedAt
		}
		if now.Sub(ref) > zoneTTL {
			removed++
			continue
		}
		kept = append(kept, z)
	}
	s.Zones = kept

	keptSweeps := s.Sweeps[:0]
	for _, sw := range s.Sweeps {
		if now.Sub(sw.Timestamp) > sweepTTL {
			removed++
			continue
		}
		keptSweeps = append(keptSweeps, sw)
	}
	s.Sweeps = keptSweeps

	return removed
}

// Snapshot is a read-only copy of the state a scorer needs. Taking one keeps
// the critical section bounded: the score itself is computed lock-free.
type Snapshot struct {
	Symbol  string
	Candles []models.Candle
	Zones   []models.LiquidityZone
	Sweeps  []models.MarketSweep
}

// SnapshotFor copies zones, sweeps and the sealed candles of one timeframe.
// Caller must hold the lock.
func (s *MarketState) SnapshotFor(tf models.Timeframe) Snapshot {
	snap := Snapshot{
		Symbol:  s.Symbol,
		Candles: append([]models.Candle(nil), s.History[tf]...),
		Sweeps:  append([]models.MarketSweep(nil), s.Sweeps...),
	}
	snap.Zones = make([]models.LiquidityZone, 0, len(s.Zones))
	for _, z := range s.Zones {
		snap.Zones = append(snap.Zones, *z)
	}
	return snap
}

// Registry maps instrument symbols to their state. The map itself is guarded
// by an RWMutex; each MarketState carries its own lock for everything inside.
type Registry struct {
	mu      sync.RWMutex
	states  map[string]*MarketState
	tickCap int
	zoneCap int
}

// NewRegistry creates an empty registry
func NewRegistry(tickCap, zoneCap int) *Registry {
	return &Registry{
		states:  make(map[string]*MarketState),
		tickCap: tickCap,
		zoneCap: zoneCap,
	}
}

// Get returns the state for a symbol or nil when none exists
func (r *Registry) Get(symbol string) *MarketState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.states[symbol]
}

// GetOrCreate returns existing state or creates it on first tick
func (r *Registry) GetOrCreate(symbol string) *MarketState {
	r.mu.RLock()
	st := r.states[symbol]
	r.mu.RUnlock()
	if st != nil {
		return st
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if st = r.states[symbol]; st == nil {
		st = NewMarketState(symbol, r.tickCap, r.zoneCap)
		r.states[symbol] = st
	}
	return st
}

// Symbols lists every instrument currently tracked
func (r *Registry) Symbols() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.states))
	for sym := range r.states {
		out = append(out, sym)
	}
	return out
}
