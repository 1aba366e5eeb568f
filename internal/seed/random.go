package seed

import (
	_ "embed"
	"math/rand/v2"
	"strings"
)

//go:embed words.txt
var wordList string

var words = strings.Fields(wordList)

// Random returns a fresh plain seed made of three words joined by
// underscores, easy to read out and retype
func Random(r *rand.Rand) string {
	return words[r.IntN(len(words))] + "_" + words[r.IntN(len(words))] + "_" + words[r.IntN(len(words))]
}
