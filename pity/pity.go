// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package pity 保底計數。
//
// State 是值型別：生成流程只讀取快照，唯一的變更路徑是 Commit 回傳新值。
// 持久化交給呼叫端的 Store，引擎本身從不寫入。
package pity

import (
	"context"
	"strings"
	"sync"

	"github.com/zintix-labs/packlab/errs"
	"github.com/zintix-labs/packlab/rarity"
)

// State 單一玩家的保底狀態。
// Counters[t]：距離上次抽到 t 或以上已開的包數；Total：累計開包數。
type State struct {
	Counters [rarity.Count]int `json:"counters" yaml:"counters,flow"`
	Total    int               `json:"total"    yaml:"total"`
}

func New() State { return State{} }

// Counter 回傳等級 t 的計數。
func (s State) Counter(t rarity.Tier) int {
	if !t.Valid() {
		return 0
	}
	return s.Counters[t]
}

// With 回傳將 t 的計數設為 n 的新狀態（測試與工具用）。
func (s State) With(t rarity.Tier, n int) State {
	if t.Valid() {
		s.Counters[t] = n
	}
	return s
}

// Commit 以本包實際抽到的最佳稀有度推進狀態：
// pulled 及以下的計數歸零，其餘加一。
func (s State) Commit(pulled rarity.Tier) State {
	for t := range s.Counters {
		if rarity.Tier(t) <= pulled {
			s.Counters[t] = 0
		} else {
			s.Counters[t]++
		}
	}
	s.Total++
	return s
}

// Store 保底狀態的外部持久化介面。
type Store interface {
	Get(ctx context.Context, playerID string) (State, error)
	Commit(ctx context.Context, playerID string, pulled rarity.Tier) (State, error)
}

// MemoryStore 以 mutex 保護的記憶體實作。
type MemoryStore struct {
	mu     sync.Mutex
	states map[string]State
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]State)}
}

func (m *MemoryStore) Get(ctx context.Context, playerID string) (State, error) {
	if err := ctx.Err(); err != nil {
		return State{}, errs.Wrap(err, "pity store get")
	}
	id, err := normID(playerID)
	if err != nil {
		return State{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[id], nil
}

// Commit 原子地讀出、推進並寫回。
func (m *MemoryStore) Commit(ctx context.Context, playerID string, pulled rarity.Tier) (State, error) {
	if err := ctx.Err(); err != nil {
		return State{}, errs.Wrap(err, "pity store commit")
	}
	id, err := normID(playerID)
	if err != nil {
		return State{}, err
	}
	if !pulled.Valid() {
		return State{}, errs.Fatalf("pity commit: invalid tier %d", uint8(pulled))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	next := m.states[id].Commit(pulled)
	m.states[id] = next
	return next, nil
}

// Put 直接覆寫狀態（匯入、測試用）。
func (m *MemoryStore) Put(playerID string, s State) error {
	id, err := normID(playerID)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.states[id] = s
	m.mu.Unlock()
	return nil
}

func normID(playerID string) (string, error) {
	id := strings.TrimSpace(playerID)
	if id == "" {
		return "", errs.NewWarn("player id required")
	}
	return id, nil
}
