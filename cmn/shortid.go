package cmn

import (
	"math/rand"

	"github.com/teris-io/shortid"
)

// Alphabet for generating trace ids similar to shortid.DEFAULT_ABC.
const traceIDABC = "-5nZJDft6LuzsjGNpPwY7rQa39vehq4i1cV2FROo8yHSlC0BUEdWbIxMmTgKXAk_"

var sid *shortid.Shortid

func InitTraceIDs(seed uint64) {
	sid = shortid.MustNew(4 /*worker*/, traceIDABC, seed)
}

// GenTraceID generates a short, human-readable id used to correlate a
// single dispatcher request across logs when Request.Debug is set. It
// always starts with a letter so the id reads cleanly as the leading
// field of a logfmt line without quoting, and never ends on a
// shortid separator (-/_), which IsValidTraceID would otherwise
// mistake for truncation.
func GenTraceID() string {
	if sid == nil {
		InitTraceIDs(1)
	}
	raw := sid.MustGenerate()

	var prefix, suffix string
	if !isAlpha(raw[0]) {
		prefix = randomLetter('A')
	}
	if last := raw[len(raw)-1]; last == '-' || last == '_' {
		suffix = randomLetter('a')
	}
	return prefix + raw + suffix
}

func randomLetter(base rune) string {
	return string(base + rune(rand.Int()%26))
}

func IsValidTraceID(id string) bool {
	const idlen = 9 // as per https://github.com/teris-io/shortid#id-length
	return len(id) >= idlen && isAlpha(id[0])
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
