// Copyright 2025 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dataset

import (
	"encoding/binary"
	"sort"

	"github.com/bits-and-blooms/bitset"
	"github.com/cespare/xxhash/v2"
	"github.com/juju/errors"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Triple is a rating given by a user to an item. Ids start from 1.
type Triple struct {
	User   int
	Item   int
	Rating int
}

// Entry is an element of an adjacency list: the partner id and the rating.
type Entry struct {
	Id     int
	Rating int
}

// Ratings is an immutable rating matrix with adjacency lists on both axes.
// Unrated cells hold 0.
type Ratings struct {
	lastUser    int
	lastItem    int
	matrix      []uint8
	userRatings [][]Entry
	itemRatings [][]Entry
	users       *bitset.BitSet
	items       *bitset.BitSet
	histogram   [MaxRating + 1]int
	count       int
	sum         int
}

// Bounds returns the largest user id and item id found in triples.
func Bounds(triples ...[]Triple) (lastUser, lastItem int) {
	for _, set := range triples {
		for _, t := range set {
			lastUser = max(lastUser, t.User)
			lastItem = max(lastItem, t.Item)
		}
	}
	return
}

// NewRatings builds a rating store. lastUser and lastItem are raised to cover every
// triple, so that ids seen only at query time can be declared up front.
func NewRatings(triples []Triple, lastUser, lastItem int) (*Ratings, error) {
	u, i := Bounds(triples)
	lastUser, lastItem = max(lastUser, u), max(lastItem, i)
	r := &Ratings{
		lastUser:    lastUser,
		lastItem:    lastItem,
		matrix:      make([]uint8, (lastUser+1)*(lastItem+1)),
		userRatings: make([][]Entry, lastUser+1),
		itemRatings: make([][]Entry, lastItem+1),
		users:       bitset.New(uint(lastUser + 1)),
		items:       bitset.New(uint(lastItem + 1)),
	}
	for _, t := range triples {
		if t.User < 1 || t.Item < 1 {
			return nil, errors.NotValidf("ids (%d, %d)", t.User, t.Item)
		}
		if t.Rating < MinRating || t.Rating > MaxRating {
			return nil, errors.NotValidf("rating %d of (%d, %d)", t.Rating, t.User, t.Item)
		}
		cell := r.index(t.User, t.Item)
		if r.matrix[cell] != 0 {
			return nil, errors.AlreadyExistsf("rating of (%d, %d)", t.User, t.Item)
		}
		r.matrix[cell] = uint8(t.Rating)
		r.userRatings[t.User] = append(r.userRatings[t.User], Entry{Id: t.Item, Rating: t.Rating})
		r.itemRatings[t.Item] = append(r.itemRatings[t.Item], Entry{Id: t.User, Rating: t.Rating})
		r.users.Set(uint(t.User))
		r.items.Set(uint(t.Item))
		r.histogram[t.Rating]++
		r.count++
		r.sum += t.Rating
	}
	for _, list := range [][][]Entry{r.userRatings, r.itemRatings} {
		for _, entries := range list {
			sort.Slice(entries, func(a, b int) bool {
				return entries[a].Id < entries[b].Id
			})
		}
	}
	return r, nil
}

func (r *Ratings) index(user, item int) int {
	return user*(r.lastItem+1) + item
}

func (r *Ratings) LastUser() int {
	return r.lastUser
}

func (r *Ratings) LastItem() int {
	return r.lastItem
}

// Count returns the number of ratings.
func (r *Ratings) Count() int {
	return r.count
}

// Rating returns the rating of an item by a user, or 0 if unrated.
func (r *Ratings) Rating(user, item int) int {
	return int(r.matrix[r.index(user, item)])
}

// UserRatings returns the items rated by a user, sorted by item id.
func (r *Ratings) UserRatings(user int) []Entry {
	return r.userRatings[user]
}

// ItemRatings returns the users who rated an item, sorted by user id.
func (r *Ratings) ItemRatings(item int) []Entry {
	return r.itemRatings[item]
}

// CountUsers returns the number of users with at least one rating.
func (r *Ratings) CountUsers() int {
	return int(r.users.Count())
}

// CountItems returns the number of items with at least one rating.
func (r *Ratings) CountItems() int {
	return int(r.items.Count())
}

// GlobalMean returns the mean of all ratings, or 0 if there are none.
func (r *Ratings) GlobalMean() float64 {
	if r.count == 0 {
		return 0
	}
	return float64(r.sum) / float64(r.count)
}

// Histogram returns the number of occurrences of each rating value, indexed by value.
func (r *Ratings) Histogram() []int {
	return r.histogram[:]
}

// Check returns an error if a user or an item is outside of the store.
func (r *Ratings) Check(user, item int) error {
	if user < 1 || user > r.lastUser {
		return errors.NotValidf("user %d", user)
	}
	if item < 1 || item > r.lastItem {
		return errors.NotValidf("item %d", item)
	}
	return nil
}

// Triples returns all ratings ordered by user then item.
func (r *Ratings) Triples() []Triple {
	triples := make([]Triple, 0, r.count)
	for user, entries := range r.userRatings {
		for _, e := range entries {
			triples = append(triples, Triple{User: user, Item: e.Id, Rating: e.Rating})
		}
	}
	return triples
}

// Checksum fingerprints the dimensions and the content of the rating matrix.
func (r *Ratings) Checksum() uint64 {
	digest := xxhash.New()
	var dims [16]byte
	binary.LittleEndian.PutUint64(dims[:8], uint64(r.lastUser))
	binary.LittleEndian.PutUint64(dims[8:], uint64(r.lastItem))
	_, _ = digest.Write(dims[:])
	_, _ = digest.Write(r.matrix)
	return digest.Sum64()
}
