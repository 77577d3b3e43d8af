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


// Package openai provides an ai.Model backed by an OpenAI-compatible
// embeddings API.
//
// The model uses the langchaingo library to talk to OpenAI or a compatible
// server (Ollama, LocalAI, vLLM). It embeds text only; image and video
// inputs are rejected with ai.ErrUnsupportedInput.
//
// # Usage
//
//	cfg := ai.NewConfig(
//	    ai.WithHost("http://localhost:11434"), // /v1 added automatically
//	    ai.WithModel("embeddinggemma"),
//	)
//	model, err := openai.NewModel(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer model.Close()
//
//	vec, err := model.Embed(ctx, ai.Input{Text: "Hello world"})
//
// Use Factory to build one model per worker rank for a workerpool.Pool.
package openai
