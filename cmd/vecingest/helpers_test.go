package main

import (
	"fmt"

	"github.com/poiesic/vecingest/core"
)

func resultWithErrors(n int) core.RunResult {
	result := core.RunResult{Failed: n}
	for i := range n {
		result.Errors = append(result.Errors, core.ErrorDescriptor{ID: fmt.Sprintf("gen_%d", i), Message: "boom", Attempts: 3})
	}
	return result
}
