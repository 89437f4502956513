// Package history 近期開包紀錄：duplicate 檢查需要的指紋窗口，以及 entropy 檢查需要的稀有度輪廓窗口。
//
// 引擎只讀取 Window 快照；寫入（Record）由呼叫端在接受卡包後進行。
package history

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/zintix-labs/packlab/errs"
	"github.com/zintix-labs/packlab/pack"
	"github.com/zintix-labs/packlab/rarity"
)

// Window 單次驗證所見的近期紀錄（唯讀快照）。
type Window struct {
	Fingerprints map[string]struct{}
	Profiles     [][]rarity.Tier // 由舊到新
}

// NewWindow 由指紋與輪廓列表建立快照。
func NewWindow(fingerprints []string, profiles [][]rarity.Tier) Window {
	w := Window{Fingerprints: make(map[string]struct{}, len(fingerprints))}
	for _, fp := range fingerprints {
		w.Fingerprints[fp] = struct{}{}
	}
	w.Profiles = make([][]rarity.Tier, len(profiles))
	for i, p := range profiles {
		w.Profiles[i] = slices.Clone(p)
	}
	return w
}

// Has 指紋是否出現在窗口中。
func (w Window) Has(fp string) bool {
	_, ok := w.Fingerprints[fp]
	return ok
}

// Store 近期紀錄的外部介面。
type Store interface {
	RecentFingerprints(ctx context.Context, playerID string, n int) ([]string, error)
	RecentProfiles(ctx context.Context, playerID string, n int) ([][]rarity.Tier, error)
	Record(ctx context.Context, playerID string, p *pack.Pack) error
}

// Load 從 Store 讀取快照。
func Load(ctx context.Context, s Store, playerID string, fpWindow, profileWindow int) (Window, error) {
	fps, err := s.RecentFingerprints(ctx, playerID, fpWindow)
	if err != nil {
		return Window{}, errs.Wrap(err, "load recent fingerprints")
	}
	profs, err := s.RecentProfiles(ctx, playerID, profileWindow)
	if err != nil {
		return Window{}, errs.Wrap(err, "load recent profiles")
	}
	return NewWindow(fps, profs), nil
}

type entry struct {
	fingerprint string
	profile     []rarity.Tier
}

// ring 固定容量的環狀緩衝，滿了覆寫最舊的一筆。
type ring struct {
	buf  []entry
	next int
	full bool
}

func (r *ring) push(e entry) {
	r.buf[r.next] = e
	r.next = (r.next + 1) % len(r.buf)
	if r.next == 0 {
		r.full = true
	}
}

// last 由舊到新回傳最後 n 筆。
func (r *ring) last(n int) []entry {
	size := r.next
	if r.full {
		size = len(r.buf)
	}
	n = min(n, size)
	out := make([]entry, 0, n)
	for i := n; i > 0; i-- {
		idx := (r.next - i + len(r.buf)) % len(r.buf)
		out = append(out, r.buf[idx])
	}
	return out
}

// MemoryStore 以 mutex 保護、每位玩家一個環狀緩衝的記憶體實作。
type MemoryStore struct {
	mu       sync.Mutex
	capacity int
	players  map[string]*ring
}

func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = 256
	}
	return &MemoryStore{capacity: capacity, players: make(map[string]*ring)}
}

func (m *MemoryStore) RecentFingerprints(ctx context.Context, playerID string, n int) ([]string, error) {
	es, err := m.recent(ctx, playerID, n)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = e.fingerprint
	}
	return out, nil
}

func (m *MemoryStore) RecentProfiles(ctx context.Context, playerID string, n int) ([][]rarity.Tier, error) {
	es, err := m.recent(ctx, playerID, n)
	if err != nil {
		return nil, err
	}
	out := make([][]rarity.Tier, len(es))
	for i, e := range es {
		out[i] = slices.Clone(e.profile)
	}
	return out, nil
}

func (m *MemoryStore) Record(ctx context.Context, playerID string, p *pack.Pack) error {
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "history record")
	}
	id := strings.TrimSpace(playerID)
	if id == "" {
		return errs.NewWarn("player id required")
	}
	if p == nil {
		return errs.NewWarn("history record: nil pack")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.players[id]
	if !ok {
		r = &ring{buf: make([]entry, m.capacity)}
		m.players[id] = r
	}
	r.push(entry{fingerprint: p.Fingerprint, profile: p.Profile()})
	return nil
}

func (m *MemoryStore) recent(ctx context.Context, playerID string, n int) ([]entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "history read")
	}
	id := strings.TrimSpace(playerID)
	if id == "" {
		return nil, errs.NewWarn("player id required")
	}
	if n <= 0 {
		return nil, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.players[id]
	if !ok {
		return nil, nil
	}
	return r.last(n), nil
}
