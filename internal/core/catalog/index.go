package catalog

import (
	"fmt"
	"sort"
	"strings"
)

// DuplicatePolicy 目錄中出現同名（不分大小寫）食材時的處理方式
type DuplicatePolicy string

const (
	// DuplicateLastWins 保留最後出現的一筆
	DuplicateLastWins DuplicatePolicy = "last_wins"
	// DuplicateReject 同名食材視為目錄錯誤，查詢時回報 Ambiguous
	DuplicateReject DuplicatePolicy = "reject"
)

// ParsePolicy 解析設定中的重複策略，空字串視為 last_wins
func ParsePolicy(s string) (DuplicatePolicy, error) {
	switch DuplicatePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", DuplicateLastWins:
		return DuplicateLastWins, nil
	case DuplicateReject:
		return DuplicateReject, nil
	default:
		return "", fmt.Errorf("unknown duplicate policy %q", s)
	}
}

// LookupStatus 查詢結果狀態
type LookupStatus int

const (
	Found LookupStatus = iota
	Missing
	Ambiguous
)

// Index 以小寫名稱為鍵的唯讀目錄索引，僅在單次匯入內使用
type Index struct {
	policy DuplicatePolicy
	byName map[string]Entry
	counts map[string]int
	byID   map[string]Entry
}

// BuildIndex 從目錄快照建立索引
func BuildIndex(entries []Entry, policy DuplicatePolicy) *Index {
	if policy == "" {
		policy = DuplicateLastWins
	}
	idx := &Index{
		policy: policy,
		byName: make(map[string]Entry, len(entries)),
		counts: make(map[string]int, len(entries)),
		byID:   make(map[string]Entry, len(entries)),
	}
	for _, e := range entries {
		key := normalize(e.Name)
		idx.byName[key] = e
		idx.counts[key]++
		if e.ID != "" {
			idx.byID[e.ID] = e
		}
	}
	return idx
}

func normalize(name string) string {
	return strings.ToLower(name)
}

// Lookup 以名稱查詢（不分大小寫）
func (i *Index) Lookup(name string) (Entry, LookupStatus) {
	key := normalize(name)
	e, ok := i.byName[key]
	if !ok {
		return Entry{}, Missing
	}
	if i.policy == DuplicateReject && i.counts[key] > 1 {
		return Entry{}, Ambiguous
	}
	return e, Found
}

// Matches 回傳名稱對應的目錄筆數
func (i *Index) Matches(name string) int {
	return i.counts[normalize(name)]
}

// ByID 以目錄 ID 查詢
func (i *Index) ByID(id string) (Entry, bool) {
	e, ok := i.byID[id]
	return e, ok
}

// Duplicates 回傳重複出現的名稱（已排序）
func (i *Index) Duplicates() []string {
	var out []string
	for key, n := range i.counts {
		if n > 1 {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out
}
