package pass

import (
	"crypto/rand"
	"math/big"
	"regexp"
)

const (
	idPrefix   = "FP-"
	idLength   = 6
	idAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

var idPattern = regexp.MustCompile(`^FP-[0-9A-Z]{6}$`)

// GenerateID returns "FP-" followed by six random uppercase base-36
// characters. Uniqueness against a store is the caller's job.
func GenerateID() string {
	buf := make([]byte, idLength)
	max := big.NewInt(int64(len(idAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand does not fail on supported platforms.
			panic(err)
		}
		buf[i] = idAlphabet[n.Int64()]
	}
	return idPrefix + string(buf)
}

// IsGeneratedID reports whether id has the generated FP-XXXXXX shape.
func IsGeneratedID(id string) bool {
	return idPattern.MatchString(id)
}
