// Copyright 2020 gorse Project Authors
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

package model

import (
	"context"
	"math"

	"github.com/gorse-io/analogy/base"
	"github.com/gorse-io/analogy/base/log"
	"github.com/gorse-io/analogy/dataset"
	"github.com/juju/errors"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	TruthA     = "a"
	TruthAStar = "a_star"
)

// IsSolvable reports whether the analogical equation a:b::c:x has a solution.
func IsSolvable(ra, rb, rc int) bool {
	return ra == rb || ra == rc
}

// Solve returns the solution of a:b::c:x. It is meaningless unless IsSolvable.
func Solve(ra, rb, rc int) int {
	return rc - ra + rb
}

func rescale(r int) float64 {
	return float64(r-dataset.MinRating) / (dataset.MaxRating - dataset.MinRating)
}

// TvA is the truth value of the arithmetic proportion a:b::c:d, in [0, 1].
func TvA(ra, rb, rc, rd int) float64 {
	a, b, c, d := rescale(ra), rescale(rb), rescale(rc), rescale(rd)
	if (a >= b && c >= d) || (a <= b && c <= d) {
		return 1 - math.Abs((a-b)-(c-d))
	}
	return 1 - math.Max(math.Abs(a-b), math.Abs(c-d))
}

// TvAStar is the truth value of the min/max proportion a:b::c:d, in [0, 1].
func TvAStar(ra, rb, rc, rd int) float64 {
	a, b, c, d := rescale(ra), rescale(rb), rescale(rc), rescale(rd)
	return math.Min(
		1-math.Abs(math.Max(a, d)-math.Max(b, c)),
		1-math.Abs(math.Min(a, d)-math.Min(b, c)))
}

// triplet is a solvable draw of three distinct raters of the queried entity.
type triplet struct {
	a, b, c dataset.Entry
}

func (t triplet) solution() int {
	return Solve(t.a.Rating, t.b.Rating, t.c.Rating)
}

// sampleTriplets draws nTrials triplets with replacement from raters and visits those
// made of pairwise distinct entities whose equation is solvable.
func sampleTriplets(rng base.RandomGenerator, raters []dataset.Entry, nTrials int, visit func(t triplet)) {
	positions := base.RangeInt(len(raters))
	for trial := 0; trial < nTrials; trial++ {
		picked := rng.Choice(positions, 3)
		t := triplet{a: raters[picked[0]], b: raters[picked[1]], c: raters[picked[2]]}
		if t.a.Id == t.b.Id || t.b.Id == t.c.Id || t.a.Id == t.c.Id {
			continue
		}
		if IsSolvable(t.a.Rating, t.b.Rating, t.c.Rating) {
			visit(t)
		}
	}
}

// commonRatings collects the ratings of xa, xb, xc and x0 on the partners all four rated.
func commonRatings(view dataset.View, xa, xb, xc, x0 int) (ra, rb, rc, rd []int) {
	for _, e := range view.XRatings(xa) {
		b, c, d := view.R(xb, e.Id), view.R(xc, e.Id), view.R(x0, e.Id)
		if b > 0 && c > 0 && d > 0 {
			ra = append(ra, e.Rating)
			rb = append(rb, b)
			rc = append(rc, c)
			rd = append(rd, d)
		}
	}
	return
}

// Analogy solves analogical equations between sampled raters and weights each solution
// by how well the four entities form an analogy on their common partners.
type Analogy struct {
	BaseModel
	nTrials    int
	truthValue string
	truth      func(ra, rb, rc, rd int) float64
}

func NewAnalogy(params Params) *Analogy {
	m := new(Analogy)
	m.SetParams(params)
	return m
}

func (m *Analogy) SetParams(params Params) {
	m.BaseModel.SetParams(params)
	m.nTrials = m.Params.GetInt(NTrials, 1000)
	m.truthValue = m.Params.GetString(TruthValue, TruthA)
}

func (m *Analogy) Name() string {
	return "analogy"
}

func (m *Analogy) Fit(_ context.Context, ratings *dataset.Ratings, _ *FitConfig) error {
	switch m.truthValue {
	case TruthA:
		m.truth = TvA
	case TruthAStar:
		m.truth = TvAStar
	default:
		return errors.NotValidf("truth value %q", m.truthValue)
	}
	if err := m.Init(ratings); err != nil {
		return errors.Trace(err)
	}
	log.Logger().Info("fit analogy",
		zap.Int("n_ratings", ratings.Count()),
		zap.Any("params", m.GetParams()))
	return nil
}

func (m *Analogy) Predict(userId, itemId int) (float64, error) {
	x0, y0, err := m.XY(userId, itemId)
	if err != nil {
		return Impossible, errors.Trace(err)
	}
	raters := m.View().YRatings(y0)
	if len(raters) == 0 {
		return Impossible, nil
	}
	var solutions, weights []float64
	sampleTriplets(m.rng, raters, m.nTrials, func(t triplet) {
		tv := m.truthVector(t.a.Id, t.b.Id, t.c.Id, x0)
		if len(tv) > 0 {
			solutions = append(solutions, float64(t.solution()))
			weights = append(weights, stat.Mean(tv, nil))
		}
	})
	avg, ok := weightedAverage(solutions, weights)
	if !ok {
		return Impossible, nil
	}
	return round(avg), nil
}

func (m *Analogy) truthVector(xa, xb, xc, x0 int) []float64 {
	ra, rb, rc, rd := commonRatings(m.View(), xa, xb, xc, x0)
	tv := make([]float64, len(ra))
	for i := range ra {
		tv[i] = m.truth(ra[i], rb[i], rc[i], rd[i])
	}
	return tv
}

const (
	UniformWeighting = "uniform"
	NormWeighting    = "norm"
	SupportWeighting = "support"
)

// Gilles accepts the solution of a sampled triplet when the four raters nearly form a
// parallelogram on their common partners.
type Gilles struct {
	BaseModel
	nTrials   int
	margin    float64
	weighting string
}

func NewGilles(params Params) *Gilles {
	m := new(Gilles)
	m.SetParams(params)
	return m
}

func (m *Gilles) SetParams(params Params) {
	m.BaseModel.SetParams(params)
	m.nTrials = m.Params.GetInt(NTrials, 1000)
	m.margin = m.Params.GetFloat64(Margin, 1.5)
	m.weighting = m.Params.GetString(Weighting, UniformWeighting)
}

func (m *Gilles) Name() string {
	return "gilles"
}

func (m *Gilles) Fit(_ context.Context, ratings *dataset.Ratings, _ *FitConfig) error {
	switch m.weighting {
	case UniformWeighting, NormWeighting, SupportWeighting:
	default:
		return errors.NotValidf("gilles weighting %q", m.weighting)
	}
	if err := m.Init(ratings); err != nil {
		return errors.Trace(err)
	}
	log.Logger().Info("fit gilles",
		zap.Int("n_ratings", ratings.Count()),
		zap.Any("params", m.GetParams()))
	return nil
}

// Parallelogram returns the number of partners rated by xa, xb, xc and x0 and the norm
// of (ra - rb) - (rc - rd) over them. Without common partners the norm is +Inf.
func Parallelogram(view dataset.View, xa, xb, xc, x0 int) (n int, norm float64) {
	ra, rb, rc, rd := commonRatings(view, xa, xb, xc, x0)
	if len(ra) == 0 {
		return 0, math.Inf(1)
	}
	diff := make([]float64, len(ra))
	for i := range ra {
		diff[i] = float64((ra[i] - rb[i]) - (rc[i] - rd[i]))
	}
	return len(ra), floats.Norm(diff, 2)
}

// gillesWeight weights an accepted solution supported by n common partners at distance norm.
func gillesWeight(weighting string, n int, norm float64) float64 {
	switch weighting {
	case NormWeighting:
		return 1 / (norm + 1)
	case SupportWeighting:
		return float64(n)
	default:
		return 1
	}
}

func (m *Gilles) Predict(userId, itemId int) (float64, error) {
	x0, y0, err := m.XY(userId, itemId)
	if err != nil {
		return Impossible, errors.Trace(err)
	}
	raters := m.View().YRatings(y0)
	if len(raters) == 0 {
		return Impossible, nil
	}
	var solutions, weights []float64
	sampleTriplets(m.rng, raters, m.nTrials, func(t triplet) {
		n, norm := Parallelogram(m.View(), t.a.Id, t.b.Id, t.c.Id, x0)
		if norm >= m.margin*math.Sqrt(float64(n)) {
			return
		}
		solutions = append(solutions, float64(t.solution()))
		weights = append(weights, gillesWeight(m.weighting, n, norm))
	})
	avg, ok := weightedAverage(solutions, weights)
	if !ok {
		return Impossible, nil
	}
	return round(avg), nil
}
