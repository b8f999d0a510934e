package domain

import (
	"time"
)

// TourID identifies a published tour package. Valid identifiers are positive.
type TourID int64

func (id TourID) Valid() bool {
	return id > 0
}

type Favorite struct {
	TourID    TourID     `json:"tour_id"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

type FavoriteSource int

const (
	FavoriteSourceLocal FavoriteSource = iota
	FavoriteSourceRemote
)

func (s FavoriteSource) String() string {
	switch s {
	case FavoriteSourceLocal:
		return "local"
	case FavoriteSourceRemote:
		return "remote"
	default:
		return "unknown"
	}
}

// FavoriteSet is an insertion-ordered set of tour identifiers. The zero value
// is an empty set ready for use.
type FavoriteSet struct {
	index map[TourID]struct{}
	order []TourID
}

func NewFavoriteSet(ids ...TourID) FavoriteSet {
	set := FavoriteSet{
		index: make(map[TourID]struct{}, len(ids)),
		order: make([]TourID, 0, len(ids)),
	}
	for _, id := range ids {
		set.Add(id)
	}
	return set
}

// Add inserts id and reports whether the set changed.
func (s *FavoriteSet) Add(id TourID) bool {
	if s.index == nil {
		s.index = make(map[TourID]struct{})
	}
	if _, ok := s.index[id]; ok {
		return false
	}
	s.index[id] = struct{}{}
	s.order = append(s.order, id)
	return true
}

// Remove deletes id and reports whether the set changed.
func (s *FavoriteSet) Remove(id TourID) bool {
	if _, ok := s.index[id]; !ok {
		return false
	}
	delete(s.index, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

func (s FavoriteSet) Has(id TourID) bool {
	_, ok := s.index[id]
	return ok
}

func (s FavoriteSet) Len() int {
	return len(s.order)
}

// IDs returns a copy of the members in insertion order.
func (s FavoriteSet) IDs() []TourID {
	out := make([]TourID, len(s.order))
	copy(out, s.order)
	return out
}

func (s FavoriteSet) Clone() FavoriteSet {
	return NewFavoriteSet(s.order...)
}

// Union returns a new set holding the members of s followed by any ids not
// already present.
func (s FavoriteSet) Union(ids ...TourID) FavoriteSet {
	out := s.Clone()
	for _, id := range ids {
		out.Add(id)
	}
	return out
}
