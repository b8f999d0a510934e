package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/njprem/umrah_marketplace_client/internal/domain"
	"github.com/njprem/umrah_marketplace_client/internal/repository/ports"
)

var (
	ErrInvalidTourID = errors.New("tour id must be a positive integer")
	// ErrSessionChanged is returned when the user signed in or out while a
	// remote mutation was in flight. The remote call succeeded but the result
	// belongs to the previous session and was not applied.
	ErrSessionChanged = errors.New("session changed during favorites update")
	ErrNoAuthState    = errors.New("favorites: no auth state provider")
)

// FavoriteSynchronizer is the single favorites view the UI talks to. While
// anonymous it reads and writes LocalFavorites; while signed in it goes
// through the remote API and only updates its mirror after the API confirms.
type FavoriteSynchronizer struct {
	local  *LocalFavorites
	remote ports.RemoteFavorites
	auth   AuthStateProvider
	now    func() time.Time

	mu         sync.RWMutex
	identity   *domain.Identity
	items      domain.FavoriteSet
	generation uint64
	listeners  []func([]domain.TourID)

	// Mutations committed while a reload is in flight are journaled and
	// replayed onto the reloaded list, which may predate them.
	mutationSeq uint64
	journal     []favoriteMutation
	reloading   int

	transition sync.Mutex
	reloads    singleflight.Group
}

type favoriteMutation struct {
	seq   uint64
	id    domain.TourID
	added bool
}

// NewFavoriteSynchronizer starts in the anonymous state with the local
// favorites loaded. auth may be nil when transitions are driven through
// HandleIdentity directly.
func NewFavoriteSynchronizer(local *LocalFavorites, remote ports.RemoteFavorites, auth AuthStateProvider) *FavoriteSynchronizer {
	return &FavoriteSynchronizer{
		local:  local,
		remote: remote,
		auth:   auth,
		now:    time.Now,
		items:  local.Load(),
	}
}

// Start applies the provider's current identity and then follows its changes
// until ctx is done.
func (s *FavoriteSynchronizer) Start(ctx context.Context) error {
	if s.auth == nil {
		return ErrNoAuthState
	}
	changes, cancel := s.auth.Subscribe()
	defer cancel()

	if err := s.HandleIdentity(ctx, s.auth.Current()); err != nil {
		log.Printf("favorites: apply initial session: %v", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case identity := <-changes:
			if err := s.HandleIdentity(ctx, identity); err != nil {
				log.Printf("favorites: apply session change: %v", err)
			}
		}
	}
}

// HandleIdentity moves the synchronizer to the state selected by identity.
// Signing in drains the local favorites into the remote store once per user;
// a failed drain leaves them in place for the next sign-in.
func (s *FavoriteSynchronizer) HandleIdentity(ctx context.Context, next *domain.Identity) error {
	s.transition.Lock()
	defer s.transition.Unlock()

	if next != nil && next.Expired(s.now()) {
		next = nil
	}

	s.mu.Lock()
	prev := s.identity
	if domain.SameUser(prev, next) {
		if next != nil {
			s.identity = next
		}
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	if prev != nil {
		s.signOut()
	}
	if next == nil {
		return nil
	}
	return s.signIn(ctx, next)
}

func (s *FavoriteSynchronizer) signOut() {
	items := s.local.Load()

	s.mu.Lock()
	s.identity = nil
	s.generation++
	s.items = items
	snapshot := s.items.IDs()
	s.mu.Unlock()

	s.notify(snapshot)
}

func (s *FavoriteSynchronizer) signIn(ctx context.Context, identity *domain.Identity) error {
	// Reading the pending set and leaving the anonymous state happen under one
	// lock, so no anonymous write can land after the read and be purged below.
	s.mu.Lock()
	pending := s.local.Load()
	s.identity = identity
	s.generation++
	gen := s.generation
	// Until the remote list arrives the mirror shows what is being migrated.
	s.items = pending.Clone()
	snapshot := s.items.IDs()
	s.mu.Unlock()
	s.notify(snapshot)

	var syncErr error
	if pending.Len() > 0 {
		if err := s.remote.Sync(ctx, s.token(identity), pending.IDs()); err != nil {
			syncErr = fmt.Errorf("migrate %d local favorites: %w", pending.Len(), err)
			log.Printf("favorites: %v; keeping local copy for next sign-in", syncErr)
		} else {
			s.local.Clear()
		}
	}

	if err := s.reloadRemote(ctx, identity, gen); err != nil {
		return errors.Join(syncErr, fmt.Errorf("load remote favorites: %w", err))
	}
	return syncErr
}

// Reload refreshes the mirror from the authoritative store.
func (s *FavoriteSynchronizer) Reload(ctx context.Context) error {
	s.mu.RLock()
	identity, gen := s.identity, s.generation
	s.mu.RUnlock()

	if identity == nil {
		items := s.local.Load()
		s.commit(gen, func(set *domain.FavoriteSet) { *set = items })
		return nil
	}
	return s.reloadRemote(ctx, identity, gen)
}

func (s *FavoriteSynchronizer) reloadRemote(ctx context.Context, identity *domain.Identity, gen uint64) error {
	_, err, _ := s.reloads.Do(strconv.FormatUint(gen, 10), func() (any, error) {
		s.mu.Lock()
		s.reloading++
		since := s.mutationSeq
		s.mu.Unlock()
		defer func() {
			s.mu.Lock()
			if s.reloading--; s.reloading == 0 {
				s.journal = nil
			}
			s.mu.Unlock()
		}()

		favorites, err := s.remote.List(ctx, s.token(identity))
		if err != nil {
			return nil, err
		}
		ids := make([]domain.TourID, 0, len(favorites))
		for _, f := range favorites {
			ids = append(ids, f.TourID)
		}
		s.commit(gen, func(set *domain.FavoriteSet) {
			*set = domain.NewFavoriteSet(ids...)
			for _, m := range s.journal {
				if m.seq <= since {
					continue
				}
				if m.added {
					set.Add(m.id)
				} else {
					set.Remove(m.id)
				}
			}
		})
		return nil, nil
	})
	return err
}

func (s *FavoriteSynchronizer) Add(ctx context.Context, id domain.TourID) error {
	if !id.Valid() {
		return ErrInvalidTourID
	}
	identity, gen := s.session()
	if identity == nil {
		return s.mutateLocal(func(set *domain.FavoriteSet) bool { return set.Add(id) })
	}

	if err := s.remote.Add(ctx, s.token(identity), id); err != nil {
		return fmt.Errorf("add favorite %d: %w", id, err)
	}
	if !s.commit(gen, func(set *domain.FavoriteSet) { s.apply(set, id, true) }) {
		return ErrSessionChanged
	}
	return nil
}

func (s *FavoriteSynchronizer) Remove(ctx context.Context, id domain.TourID) error {
	if !id.Valid() {
		return ErrInvalidTourID
	}
	identity, gen := s.session()
	if identity == nil {
		return s.mutateLocal(func(set *domain.FavoriteSet) bool { return set.Remove(id) })
	}

	if err := s.remote.Remove(ctx, s.token(identity), id); err != nil {
		return fmt.Errorf("remove favorite %d: %w", id, err)
	}
	if !s.commit(gen, func(set *domain.FavoriteSet) { s.apply(set, id, false) }) {
		return ErrSessionChanged
	}
	return nil
}

// Toggle flips membership of id and returns the resulting membership. On
// error the previous membership is returned unchanged.
func (s *FavoriteSynchronizer) Toggle(ctx context.Context, id domain.TourID) (bool, error) {
	if s.IsFavorite(id) {
		if err := s.Remove(ctx, id); err != nil {
			return true, err
		}
		return false, nil
	}
	if err := s.Add(ctx, id); err != nil {
		return false, err
	}
	return true, nil
}

func (s *FavoriteSynchronizer) IsFavorite(id domain.TourID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items.Has(id)
}

func (s *FavoriteSynchronizer) List() []domain.TourID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items.IDs()
}

func (s *FavoriteSynchronizer) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items.Len()
}

func (s *FavoriteSynchronizer) Source() domain.FavoriteSource {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return domain.FavoriteSourceLocal
	}
	return domain.FavoriteSourceRemote
}

func (s *FavoriteSynchronizer) Identity() *domain.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

// OnChange registers fn to receive the favorites list after every change.
// fn runs on the goroutine that made the change.
func (s *FavoriteSynchronizer) OnChange(fn func([]domain.TourID)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *FavoriteSynchronizer) session() (*domain.Identity, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity, s.generation
}

// mutateLocal applies fn to the anonymous mirror and persists the result.
// The write happens under the lock so persisted order matches mirror order.
func (s *FavoriteSynchronizer) mutateLocal(fn func(*domain.FavoriteSet) bool) error {
	s.mu.Lock()
	if s.identity != nil {
		s.mu.Unlock()
		return ErrSessionChanged
	}
	if !fn(&s.items) {
		s.mu.Unlock()
		return nil
	}
	s.local.Save(s.items)
	snapshot := s.items.IDs()
	s.mu.Unlock()

	s.notify(snapshot)
	return nil
}

// apply records a confirmed remote mutation and applies it to set. Called
// with s.mu held.
func (s *FavoriteSynchronizer) apply(set *domain.FavoriteSet, id domain.TourID, added bool) {
	s.mutationSeq++
	if s.reloading > 0 {
		s.journal = append(s.journal, favoriteMutation{seq: s.mutationSeq, id: id, added: added})
	}
	if added {
		set.Add(id)
	} else {
		set.Remove(id)
	}
}

// commit applies fn only if no session transition happened since gen.
func (s *FavoriteSynchronizer) commit(gen uint64, fn func(*domain.FavoriteSet)) bool {
	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		return false
	}
	fn(&s.items)
	snapshot := s.items.IDs()
	s.mu.Unlock()

	s.notify(snapshot)
	return true
}

func (s *FavoriteSynchronizer) notify(ids []domain.TourID) {
	s.mu.RLock()
	listeners := slices.Clone(s.listeners)
	s.mu.RUnlock()

	for _, fn := range listeners {
		out := make([]domain.TourID, len(ids))
		copy(out, ids)
		fn(out)
	}
}

// token prefers the provider's latest token for the same user so refreshed
// sessions keep working.
func (s *FavoriteSynchronizer) token(identity *domain.Identity) string {
	if s.auth != nil {
		if current := s.auth.Current(); current != nil && domain.SameUser(current, identity) {
			return current.AccessToken
		}
	}
	return identity.AccessToken
}
