// Package store — рабочая таблица одного прохода подбора: имя -> позиция.
// Пока идёт проход, пишет в неё только аллокатор.
package store

import (
	"strings"

	"transfer-service/internal/transfer/model"
)

type Store struct {
	items  []*model.Item
	byName map[string]*model.Item
	dups   int
}

func New() *Store {
	return &Store{byName: make(map[string]*model.Item)}
}

// Add кладёт копию it. Повтор имени отбрасывается (побеждает первая
// строка), тогда Add возвращает false.
func (s *Store) Add(it model.Item) bool {
	it.Name = strings.TrimSpace(it.Name)
	if it.Name == "" {
		return false
	}
	if _, ok := s.get(it.Name); ok {
		s.dups++
		return false
	}
	p := &it
	s.items = append(s.items, p)
	s.byName[it.Name] = p
	return true
}

func (s *Store) get(name string) (*model.Item, bool) {
	it, ok := s.byName[strings.TrimSpace(name)]
	return it, ok
}

func (s *Store) Len() int { return len(s.items) }

// Duplicates — сколько строк Add отбросил из-за занятого имени.
func (s *Store) Duplicates() int { return s.dups }

// Deficits — позиции с отрицательным остатком, в порядке загрузки.
func (s *Store) Deficits() []*model.Item {
	out := make([]*model.Item, 0)
	for _, it := range s.items {
		if it.Stock < 0 {
			out = append(out, it)
		}
	}
	return out
}

// Candidates — «медленные» позиции: продажи <= threshold, знак остатка не важен.
func (s *Store) Candidates(threshold float64) []*model.Item {
	out := make([]*model.Item, 0)
	for _, it := range s.items {
		if it.Sales <= threshold {
			out = append(out, it)
		}
	}
	return out
}

func (s *Store) HasPrices() bool {
	for _, it := range s.items {
		if it.HasPrice() {
			return true
		}
	}
	return false
}
