package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/alejandrodnm/tradejournal/internal/domain"
)

// MemoryStorage implementa ports.Storage en memoria. Para tests y -dry-run.
// Devuelve copias: el llamante nunca comparte memoria con el almacén.
type MemoryStorage struct {
	mu       sync.RWMutex
	trades   map[string]domain.Trade
	accounts map[string]domain.Account
}

// NewMemoryStorage crea un almacén vacío.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		trades:   make(map[string]domain.Trade),
		accounts: make(map[string]domain.Account),
	}
}

func (s *MemoryStorage) List(_ context.Context) ([]domain.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trades := make([]domain.Trade, 0, len(s.trades))
	for _, t := range s.trades {
		trades = append(trades, cloneTrade(t))
	}
	sort.Slice(trades, func(i, j int) bool {
		if !trades[i].Date.Equal(trades[j].Date) {
			return trades[i].Date.Before(trades[j].Date)
		}
		return trades[i].ID < trades[j].ID
	})
	return trades, nil
}

func (s *MemoryStorage) Get(_ context.Context, id string) (domain.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.trades[id]
	if !ok {
		return domain.Trade{}, fmt.Errorf("storage.Get: trade %q: %w", id, domain.ErrNotFound)
	}
	return cloneTrade(t), nil
}

func (s *MemoryStorage) Insert(_ context.Context, t domain.Trade) error {
	if err := validateTrade(t); err != nil {
		return fmt.Errorf("storage.Insert: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.trades[t.ID]; ok {
		return fmt.Errorf("storage.Insert: trade %q: %w", t.ID, domain.ErrDuplicateKey)
	}
	s.trades[t.ID] = cloneTrade(t)
	return nil
}

// InsertBatch valida el lote completo antes de escribir nada.
func (s *MemoryStorage) InsertBatch(_ context.Context, trades []domain.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(trades))
	for _, t := range trades {
		if err := validateTrade(t); err != nil {
			return fmt.Errorf("storage.InsertBatch: %w", err)
		}
		if _, ok := s.trades[t.ID]; ok || seen[t.ID] {
			return fmt.Errorf("storage.InsertBatch: trade %q: %w", t.ID, domain.ErrDuplicateKey)
		}
		seen[t.ID] = true
	}
	for _, t := range trades {
		s.trades[t.ID] = cloneTrade(t)
	}
	return nil
}

func (s *MemoryStorage) Update(_ context.Context, t domain.Trade) error {
	if err := validateTrade(t); err != nil {
		return fmt.Errorf("storage.Update: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.trades[t.ID]; !ok {
		return fmt.Errorf("storage.Update: trade %q: %w", t.ID, domain.ErrNotFound)
	}
	s.trades[t.ID] = cloneTrade(t)
	return nil
}

func (s *MemoryStorage) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.trades[id]; !ok {
		return fmt.Errorf("storage.Delete: trade %q: %w", id, domain.ErrNotFound)
	}
	delete(s.trades, id)
	return nil
}

func (s *MemoryStorage) SaveAccount(_ context.Context, a domain.Account) error {
	if err := a.Validate(); err != nil {
		return fmt.Errorf("storage.SaveAccount: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.accounts {
		if existing.ID == a.ID ||
			(existing.Platform == a.Platform && existing.Server == a.Server && existing.Login == a.Login) {
			return fmt.Errorf("storage.SaveAccount: %q: %w", a.Name, domain.ErrDuplicateKey)
		}
	}
	s.accounts[a.ID] = a
	return nil
}

func (s *MemoryStorage) ListAccounts(_ context.Context) ([]domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts := make([]domain.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		accounts = append(accounts, a)
	}
	sort.Slice(accounts, func(i, j int) bool {
		if !accounts[i].CreatedAt.Equal(accounts[j].CreatedAt) {
			return accounts[i].CreatedAt.Before(accounts[j].CreatedAt)
		}
		return accounts[i].ID < accounts[j].ID
	})
	return accounts, nil
}

func (s *MemoryStorage) DeleteAccount(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[id]; !ok {
		return fmt.Errorf("storage.DeleteAccount: account %q: %w", id, domain.ErrNotFound)
	}
	delete(s.accounts, id)
	return nil
}

func (s *MemoryStorage) Close() error { return nil }
