// Package filter compiles the compact per-parameter comparison
// expressions a request attaches to measurands (e.g. data_quality "le
// 5", "1,3", "ge 5 AND lt 9,11") into an in-memory predicate and an
// equivalent SQL WHERE-clause fragment.
package filter

import (
	"strconv"
	"strings"

	"github.com/fmidev/obsengine/cmn"
)

type term struct {
	op    string
	value int
	join  string
}

// subexpr is one comma-separated piece of a filter string, kept in its
// original (un-reordered) shape so SQL emission can reproduce the
// author's parenthesization.
type subexpr struct {
	terms []term
}

// Set holds the compiled filters for a single request, one entry per
// parameter name. It is built once, by a single goroutine, before any
// Satisfies/SQLClause call; it is not safe for concurrent writes.
type Set struct {
	flat map[string][]term    // AND-first flattened, for Satisfies
	subs map[string][]subexpr // original order, for SQLClause
}

// NewSet returns an empty filter set.
func NewSet() *Set {
	return &Set{flat: map[string][]term{}, subs: map[string][]subexpr{}}
}

// Add compiles value (a comma-separated list of sub-expressions) and
// attaches it to name, merging with any filter already present for that
// name. Parse failures return a *cmn.FilterError carrying the offending
// substring; value is left unmodified on error.
func (s *Set) Add(name, value string) error {
	for _, sub := range strings.Split(value, ",") {
		se, flatTerms, front, err := parseSub(sub)
		if err != nil {
			return cmn.NewFilterError(name, sub)
		}
		s.subs[name] = append(s.subs[name], se)
		if front {
			s.flat[name] = append(flatTerms, s.flat[name]...)
		} else {
			s.flat[name] = append(s.flat[name], flatTerms...)
		}
	}
	return nil
}

// parseSub parses one comma-separated piece into its SQL-emission shape
// and its flattened predicate terms, and reports whether those terms
// belong at the front of the flattened list (true only for an AND pair).
func parseSub(sub string) (subexpr, []term, bool, error) {
	toks := strings.Fields(sub)
	switch len(toks) {
	case 1:
		n, err := strconv.Atoi(toks[0])
		if err != nil {
			return subexpr{}, nil, false, err
		}
		t := term{op: cmn.OpEQ, value: n, join: cmn.JoinOR}
		return subexpr{terms: []term{t}}, []term{t}, false, nil

	case 2:
		op, err := validOp(toks[0])
		if err != nil {
			return subexpr{}, nil, false, err
		}
		n, err := strconv.Atoi(toks[1])
		if err != nil {
			return subexpr{}, nil, false, err
		}
		t := term{op: op, value: n, join: cmn.JoinOR}
		return subexpr{terms: []term{t}}, []term{t}, false, nil

	case 5:
		op1, err := validOp(toks[0])
		if err != nil {
			return subexpr{}, nil, false, err
		}
		v1, err := strconv.Atoi(toks[1])
		if err != nil {
			return subexpr{}, nil, false, err
		}
		join, err := validJoin(toks[2])
		if err != nil {
			return subexpr{}, nil, false, err
		}
		op2, err := validOp(toks[3])
		if err != nil {
			return subexpr{}, nil, false, err
		}
		v2, err := strconv.Atoi(toks[4])
		if err != nil {
			return subexpr{}, nil, false, err
		}
		t1 := term{op: op1, value: v1, join: join}
		t2 := term{op: op2, value: v2, join: join}
		// Keep AND pairs at the front of the flattened list so the rolling
		// accumulator in Satisfies starts from the correct seed.
		front := join == cmn.JoinAND
		return subexpr{terms: []term{t1, t2}}, []term{t1, t2}, front, nil

	default:
		return subexpr{}, nil, false, cmn.ErrInvalidFilterSyntax
	}
}

func validOp(s string) (string, error) {
	switch s {
	case cmn.OpLT, cmn.OpLE, cmn.OpEQ, cmn.OpGE, cmn.OpGT:
		return s, nil
	default:
		return "", cmn.ErrInvalidFilterSyntax
	}
}

func validJoin(s string) (string, error) {
	switch s {
	case cmn.JoinAND, cmn.JoinOR:
		return s, nil
	default:
		return "", cmn.ErrInvalidFilterSyntax
	}
}

// Exists reports whether a filter was registered for name.
func (s *Set) Exists(name string) bool {
	_, ok := s.flat[name]
	return ok
}

// Empty reports whether the set holds no filters at all.
func (s *Set) Empty() bool {
	return len(s.flat) == 0
}

// Satisfies reports whether v passes the filter registered for name.
// A name with no registered filter is always satisfied.
func (s *Set) Satisfies(name string, v int) bool {
	terms, ok := s.flat[name]
	if !ok {
		return true
	}
	result := terms[0].join == cmn.JoinAND
	for _, t := range terms {
		flag := evalOp(t.op, v, t.value)
		if t.join == cmn.JoinAND {
			result = result && flag
		} else {
			result = result || flag
		}
	}
	return result
}

func evalOp(op string, v, n int) bool {
	switch op {
	case cmn.OpLT:
		return v < n
	case cmn.OpLE:
		return v <= n
	case cmn.OpEQ:
		return v == n
	case cmn.OpGE:
		return v >= n
	default: // cmn.OpGT
		return v > n
	}
}

func sqlRel(op string) string {
	switch op {
	case cmn.OpLT:
		return "<"
	case cmn.OpLE:
		return "<="
	case cmn.OpEQ:
		return "="
	case cmn.OpGE:
		return ">="
	default: // cmn.OpGT
		return ">"
	}
}

// SQLClause renders the filter registered for name as a parenthesized,
// OR-joined WHERE-clause fragment referring to dbfield. Returns "" if no
// filter is registered for name.
func (s *Set) SQLClause(name, dbfield string) string {
	subs, ok := s.subs[name]
	if !ok {
		return ""
	}
	parts := make([]string, 0, len(subs))
	for _, se := range subs {
		if len(se.terms) == 1 {
			t := se.terms[0]
			parts = append(parts, dbfield+" "+sqlRel(t.op)+" "+strconv.Itoa(t.value))
			continue
		}
		t1, t2 := se.terms[0], se.terms[1]
		joiner := " AND "
		if t1.join == cmn.JoinOR {
			joiner = " OR "
		}
		parts = append(parts,
			dbfield+" "+sqlRel(t1.op)+" "+strconv.Itoa(t1.value)+
				joiner+dbfield+" "+sqlRel(t2.op)+" "+strconv.Itoa(t2.value))
	}
	return "(" + strings.Join(parts, ") OR (") + ")"
}
