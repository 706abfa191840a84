package cmn

import (
	"fmt"

	"github.com/davecgh/go-spew/spew"
)

// Assert panics with a formatted message if cond is false. Used at
// invariant boundaries (snapshot publish, dedup state transitions) the
// way the teacher's cmn/debug package gates its checks — here always
// compiled in, since the core has no build-tag split between dev and
// production binaries.
func Assert(cond bool, format string, args ...interface{}) {
	if !cond {
		panic(fmt.Sprintf("assertion failed: "+format, args...))
	}
}

// Dump renders v with spew for inclusion in a Request.Debug trace or a
// test failure message. Never used on a hot path.
func Dump(v interface{}) string {
	return spew.Sdump(v)
}
