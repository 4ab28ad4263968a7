package internal

import (
	"maps"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIterSeq2Concat(t *testing.T) {
	assert := assert.New(t)

	a := slices.All([]string{"x", "y"})
	b := slices.All([]string{"z"})

	var keys []int
	var values []string
	for k, v := range IterSeq2Concat(a, b) {
		keys = append(keys, k)
		values = append(values, v)
	}
	assert.Equal([]int{0, 1, 0}, keys)
	assert.Equal([]string{"x", "y", "z"}, values)

	merged := maps.Collect(IterSeq2Concat(maps.All(map[string]int{"a": 1}), maps.All(map[string]int{"b": 2})))
	assert.Equal(map[string]int{"a": 1, "b": 2}, merged)
}

func TestIterSeq2Concat_Stop(t *testing.T) {
	assert := assert.New(t)

	count := 0
	for range IterSeq2Concat(slices.All([]int{1, 2, 3}), slices.All([]int{4})) {
		count++
		if count == 2 {
			break
		}
	}
	assert.Equal(2, count)
}
