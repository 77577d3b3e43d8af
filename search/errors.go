// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package search

import "errors"

var (
	// ErrRepositoryRequired is returned when an embedding repository is not provided.
	ErrRepositoryRequired = errors.New("embedding repository required")

	// ErrCallerRequired is returned when a remote caller is not provided.
	ErrCallerRequired = errors.New("remote caller required")

	// ErrEmptyQuery is returned when a query carries neither text nor media.
	ErrEmptyQuery = errors.New("empty query")

	// ErrEmbedQuery is returned when the query could not be embedded.
	ErrEmbedQuery = errors.New("embedding query failed")
)
