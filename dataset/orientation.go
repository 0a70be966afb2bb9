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
	"github.com/bits-and-blooms/bitset"
	"github.com/juju/errors"
)

// Orientation selects which entity plays the primary role x. Predictors are written
// once over (x, y) and reused for users and items by swapping roles.
type Orientation int

const (
	UserBased Orientation = iota
	ItemBased
)

func (o Orientation) String() string {
	if o == ItemBased {
		return "items"
	}
	return "users"
}

func ParseOrientation(s string) (Orientation, error) {
	switch s {
	case "users":
		return UserBased, nil
	case "items":
		return ItemBased, nil
	}
	return UserBased, errors.NotValidf("orientation %q", s)
}

// View exposes a Ratings store along one orientation.
type View struct {
	*Ratings
	orientation Orientation
}

func (r *Ratings) View(o Orientation) View {
	return View{Ratings: r, orientation: o}
}

func (v View) Orientation() Orientation {
	return v.orientation
}

// XY maps a (user, item) query to (x, y).
func (v View) XY(user, item int) (x, y int) {
	if v.orientation == ItemBased {
		return item, user
	}
	return user, item
}

// LastX returns the largest primary id.
func (v View) LastX() int {
	if v.orientation == ItemBased {
		return v.lastItem
	}
	return v.lastUser
}

// LastY returns the largest secondary id.
func (v View) LastY() int {
	if v.orientation == ItemBased {
		return v.lastUser
	}
	return v.lastItem
}

// R returns the rating at (x, y), or 0 if unrated.
func (v View) R(x, y int) int {
	if v.orientation == ItemBased {
		return v.Rating(y, x)
	}
	return v.Rating(x, y)
}

// XRatings returns the (y, rating) list of x.
func (v View) XRatings(x int) []Entry {
	if v.orientation == ItemBased {
		return v.itemRatings[x]
	}
	return v.userRatings[x]
}

// YRatings returns the (x, rating) list of y.
func (v View) YRatings(y int) []Entry {
	if v.orientation == ItemBased {
		return v.userRatings[y]
	}
	return v.itemRatings[y]
}

// Rated returns the primary ids with at least one rating.
func (v View) Rated() *bitset.BitSet {
	if v.orientation == ItemBased {
		return v.items
	}
	return v.users
}
