/*
Package randx provides random identifiers for the chat client.

Display names are drawn from two fixed word lists with a uniform,
cryptographically secure index (crypto/rand); connection IDs are UUID v4.
*/
package randx

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Adjectives is the closed list of adjectives used for generated names.
var Adjectives = []string{
	"admiring", "awesome", "blissful", "brave", "charming", "clever", "dazzling", "determined",
	"eager", "festive", "focused", "friendly", "gallant", "happy", "jolly", "kind",
	"lucid", "mystifying", "modest", "optimistic", "peaceful", "practical", "quirky", "quizzical",
	"relaxed", "serene", "silly", "stoic", "trusting", "upbeat", "vibrant", "wonderful",
}

// Nouns is the closed list of proper nouns used for generated names.
var Nouns = []string{
	"albattani", "allen", "almeida", "agnesi", "archimedes", "ardinghelli", "aryabhata", "austin",
	"babbage", "banach", "bardeen", "bartik", "bassi", "beaver", "bell", "benz",
	"bhabha", "bhaskara", "blackwell", "bohr", "booth", "borg", "bose", "boyd",
	"brahmagupta", "brattain", "brown", "carson", "chandrasekhar", "shannon", "clarke", "colden",
	"cori", "cray", "curie", "darwin", "davinci", "dijkstra", "dubinsky", "easley",
	"edison", "einstein", "elion", "engelbart", "euclid", "euler", "fermat", "fermi",
	"feynman", "franklin", "galileo", "gates", "goldberg", "goldstine", "goldwasser", "golick",
	"goodall", "haibt", "hamilton", "hawking", "heisenberg", "hermann", "heyrovsky", "hodgkin",
	"hoover", "hopper", "hugle", "hypatia", "jang", "jennings", "jepsen", "joliot",
	"jones", "kalam", "kare", "keller", "kepler", "khayyam", "khorana", "kilby",
	"kirch", "knuth", "kowalevski", "lalande", "lamarr", "lamport", "leakey", "leavitt",
	"lewin", "lichterman", "liskov", "lovelace", "lumiere", "mahavira", "mayer", "mccarthy",
	"mcclintock", "mclean", "mcnulty", "meitner", "mendel", "mendeleev", "meninsky", "merkle",
	"mestorf", "minsky", "mirzakhani", "morse", "murdock", "neumann", "newton", "nightingale",
	"nobel", "noether", "northcutt", "noyce", "panini", "pare", "pasteur", "payne",
	"perlman", "pike", "poincare", "poitras", "ptolemy", "raman", "ramanujan", "ride",
	"ritchie", "roentgen", "rosalind", "saha", "sammet", "shaw", "shirley", "shockley",
	"sinoussi", "snyder", "spence", "stallman", "stonebraker", "swanson", "swartz", "swirles",
	"tesla", "thompson", "torvalds", "turing", "varahamihira", "visvesvaraya", "volhard", "wescoff",
	"wiles", "williams", "wilson", "wing", "wozniak", "wright", "yalow", "yonath",
}

// Pick returns a uniformly chosen element of words.
func Pick(words []string) (string, error) {
	if len(words) == 0 {
		return "", fmt.Errorf("cannot pick from an empty word list")
	}

	num, err := rand.Int(rand.Reader, big.NewInt(int64(len(words))))
	if err != nil {
		return "", fmt.Errorf("failed to generate random index: %v", err)
	}

	return words[num.Int64()], nil
}

// Username generates a "Capitalized-Adjective Capitalized-Noun" display name.
func Username() (string, error) {
	adjective, err := Pick(Adjectives)
	if err != nil {
		return "", err
	}

	noun, err := Pick(Nouns)
	if err != nil {
		return "", err
	}

	return Capitalize(adjective) + " " + Capitalize(noun), nil
}

// IsGeneratedUsername reports whether name could have been produced by Username.
func IsGeneratedUsername(name string) bool {
	adjective, noun, ok := strings.Cut(name, " ")
	if !ok {
		return false
	}

	return containsCapitalized(Adjectives, adjective) && containsCapitalized(Nouns, noun)
}

// Capitalize upper-cases the first character of s.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// ConnectionID generates a UUID v4 used to tag a single connection attempt in logs.
func ConnectionID() string {
	return uuid.New().String()
}

// RecordID generates a UUID v4 identifying an archived transcript record.
func RecordID() string {
	return uuid.NewString()
}

func containsCapitalized(words []string, candidate string) bool {
	for _, w := range words {
		if Capitalize(w) == candidate {
			return true
		}
	}
	return false
}
