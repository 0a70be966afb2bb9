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

/*
Package model provides rating predictors for explicit feedback in [1, 5].

Every predictor is written over an oriented view of the ratings: x is the primary entity
and y the secondary one. With the "users" orientation x is a user, with "items" it is an
item. Available predictors are Random, BasicCollaborative, BaselineOnly,
NeighborhoodWithBaseline, Analogy, Gilles and KNNBellkor.

A prediction of Impossible (0) means the predictor found no evidence for the query.
*/
package model
