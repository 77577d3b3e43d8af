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


// Package ai provides the model abstraction behind the embedding service.
//
// A Model turns one Input (text, a local image file or a local video file,
// plus processing hints) into a vector. Models are created per worker rank
// through a ModelFactory so a pool can shard one model across workers.
//
// # Implementation Packages
//
//   - ai/openai: text model backed by an OpenAI-compatible embeddings API
//   - ai/mock: deterministic model for tests and dry runs
//
// Public constructors return the ai.Model interface. The mock constructor
// returns its concrete type so tests can inject behavior and count calls.
package ai
