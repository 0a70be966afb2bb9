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
	"bufio"
	"context"
	"fmt"
	"time"

	"github.com/gorse-io/analogy/base"
	"github.com/gorse-io/analogy/base/encoding"
	"github.com/gorse-io/analogy/base/log"
	"github.com/gorse-io/analogy/base/progress"
	"github.com/gorse-io/analogy/common/parallel"
	"github.com/gorse-io/analogy/dataset"
	"github.com/juju/errors"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
)

// SimilarityMatrix holds the cosine similarity between every pair of primary entities.
// Row and column 0 are unused.
type SimilarityMatrix [][]float64

func (m SimilarityMatrix) At(a, b int) float64 {
	return m[a][b]
}

// Cosine returns the cosine similarity between two rating vectors, or 0 if one of them
// is null.
func Cosine(a, b []float64) float64 {
	normA, normB := floats.Norm(a, 2), floats.Norm(b, 2)
	if normA == 0 || normB == 0 {
		return 0
	}
	return floats.Dot(a, b) / (normA * normB)
}

// Similarity returns the cosine similarity between a and b over the partners both of them
// rated. Pairs sharing less than two partners have no similarity.
func Similarity(view dataset.View, a, b int) float64 {
	aRatings, bRatings := view.XRatings(a), view.XRatings(b)
	var aCommon, bCommon []float64
	// adjacency lists are sorted by partner id
	for i, j := 0, 0; i < len(aRatings) && j < len(bRatings); {
		switch {
		case aRatings[i].Id < bRatings[j].Id:
			i++
		case aRatings[i].Id > bRatings[j].Id:
			j++
		default:
			aCommon = append(aCommon, float64(aRatings[i].Rating))
			bCommon = append(bCommon, float64(bRatings[j].Rating))
			i++
			j++
		}
	}
	if len(aCommon) < 2 {
		return 0
	}
	return Cosine(aCommon, bCommon)
}

// BuildSimilarity computes the similarity matrix of a view. Rows are computed in parallel
// and every cell is computed exactly once, so the result does not depend on jobs.
func BuildSimilarity(ctx context.Context, view dataset.View, jobs int) (SimilarityMatrix, error) {
	n := view.LastX()
	sim := SimilarityMatrix(base.NewMatrix(n+1, n+1))
	rated := view.Rated()
	_, span := progress.Start(ctx, "BuildSimilarity", n)
	defer span.End()
	// row a fills cells (a, b) and (b, a) for b >= a
	err := parallel.Parallel(ctx, n, jobs, func(_, jobId int) error {
		a := jobId + 1
		if rated.Test(uint(a)) {
			for b := a; b <= n; b++ {
				if rated.Test(uint(b)) {
					value := Similarity(view, a, b)
					sim[a][b] = value
					sim[b][a] = value
				}
			}
		}
		span.Add(1)
		return nil
	})
	if err != nil {
		span.Fail(err)
		return nil, errors.Trace(err)
	}
	return sim, nil
}

// SimilarityCacheKey names the cached similarity matrix of a view.
func SimilarityCacheKey(view dataset.View) string {
	return fmt.Sprintf("cosine_%s_%016x.sim", view.Orientation(), view.Checksum())
}

// LoadSimilarity restores the similarity matrix of a view from the cache, or builds it and
// writes it back. Cache failures are logged and never fatal.
func LoadSimilarity(ctx context.Context, view dataset.View, config *FitConfig) (SimilarityMatrix, error) {
	if config == nil {
		config = NewFitConfig()
	}
	key := SimilarityCacheKey(view)
	if config.Cache != nil {
		sim, err := readSimilarity(config.Cache, key, view.LastX()+1)
		if err == nil {
			log.Logger().Info("load similarity matrix from cache", zap.String("key", key))
			return sim, nil
		}
		log.Logger().Warn("failed to load similarity matrix from cache", zap.String("key", key), zap.Error(err))
	}
	start := time.Now()
	sim, err := BuildSimilarity(ctx, view, config.Jobs)
	if err != nil {
		return nil, errors.Trace(err)
	}
	log.Logger().Info("build similarity matrix",
		zap.String("based_on", view.Orientation().String()),
		zap.Int("size", view.LastX()),
		zap.Int("jobs", config.Jobs),
		zap.String("duration", time.Since(start).String()))
	if config.Cache != nil {
		if err = writeSimilarity(config.Cache, key, sim); err != nil {
			log.Logger().Warn("failed to save similarity matrix to cache", zap.String("key", key), zap.Error(err))
		}
	}
	return sim, nil
}

func readSimilarity(cache BlobStore, key string, size int) (SimilarityMatrix, error) {
	r, err := cache.Open(key)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer r.Close()
	br := bufio.NewReader(r)
	header, err := encoding.ReadMatrixHeader(br)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if header.Rows != uint64(size) || header.Cols != uint64(size) {
		return nil, errors.NotValidf("similarity matrix of size %dx%d, expected %d", header.Rows, header.Cols, size)
	}
	m, err := encoding.ReadMatrixPayload(br, header)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return m, nil
}

func writeSimilarity(cache BlobStore, key string, sim SimilarityMatrix) error {
	w, done, err := cache.Create(key)
	if err != nil {
		return errors.Trace(err)
	}
	if err = encoding.WriteMatrix(w, sim); err != nil {
		_ = w.Close()
		<-done
		return errors.Trace(err)
	}
	if err = w.Close(); err != nil {
		return errors.Trace(err)
	}
	<-done
	return nil
}
