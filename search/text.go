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

import "strings"

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "at": true, "this": true, "by": true, "from": true,
}

// terms is the set of significant words of a text.
type terms map[string]struct{}

func queryTerms(text string) terms {
	out := make(terms)
	for _, word := range strings.Fields(text) {
		cleaned := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}"))
		if cleaned != "" && !stopWords[cleaned] {
			out[cleaned] = struct{}{}
		}
	}
	return out
}

// containedIn reports whether every term occurs in document.
// An empty term set matches nothing.
func (t terms) containedIn(document string) bool {
	if len(t) == 0 || document == "" {
		return false
	}
	doc := queryTerms(document)
	for word := range t {
		if _, ok := doc[word]; !ok {
			return false
		}
	}
	return true
}
