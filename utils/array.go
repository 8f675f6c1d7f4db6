// Package utils provides small helpers shared by the board generator, the
// protocol codec and the session store.
package utils

import "math/rand"

// GetRandomElement returns a randomly chosen element from the given slice.
// The slice must be non-empty; otherwise the function panics.
//
// Parameters:
//   - arr: The slice to pick from (must have at least one element)
//
// Returns:
//   - A random element of type T from the slice
func GetRandomElement[T any](arr []T) T {
	return arr[rand.Intn(len(arr))]
}

// Shuffled returns a shuffled copy of arr; the input is left untouched.
func Shuffled[T any](arr []T) []T {
	out := make([]T, len(arr))
	copy(out, arr)
	rand.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})

	return out
}
