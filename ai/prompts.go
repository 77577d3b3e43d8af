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


package ai

// Model identifiers and prompts of the multimodal embedding model.
const (
	DefaultModelName  = "Qwen/Qwen2-VL-2B-Instruct"
	DefaultCheckpoint = "TIGER-Lab/VLM2Vec-Qwen2VL-2B"
	DefaultDimension  = 1536

	VideoPrompt = "Represent the given video."
	ImagePrompt = "Represent the given image."

	// WarmupText is embedded once at startup to load weights before traffic.
	WarmupText = "This is a warmup test for the VLM2Vec model."
)
