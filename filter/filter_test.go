package filter

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("data filter compiler", func() {
	It("treats a missing filter as always satisfied", func() {
		s := NewSet()
		Expect(s.Exists("data_quality")).To(BeFalse())
		Expect(s.Satisfies("data_quality", 42)).To(BeTrue())
	})

	It("compiles the mixed AND/OR seed expression", func() {
		s := NewSet()
		Expect(s.Add("data_quality", "1,3,ge 5 AND lt 9,11")).To(Succeed())

		for _, v := range []int{1, 3, 5, 6, 7, 8, 11} {
			Expect(s.Satisfies("data_quality", v)).To(BeTrue(), "v=%d", v)
		}
		for _, v := range []int{0, 2, 4, 9, 10, 12} {
			Expect(s.Satisfies("data_quality", v)).To(BeFalse(), "v=%d", v)
		}
	})

	It("emits the equivalent SQL clause", func() {
		s := NewSet()
		Expect(s.Add("data_quality", "1,3,ge 5 AND lt 9,11")).To(Succeed())
		Expect(s.SQLClause("data_quality", "x")).
			To(Equal("(x = 1) OR (x = 3) OR (x >= 5 AND x < 9) OR (x = 11)"))
	})

	It("rejects shapes other than 1, 2, or 5 tokens", func() {
		s := NewSet()
		Expect(s.Add("data_quality", "lt 5 OR")).To(HaveOccurred())
	})

	It("rejects an unknown comparison operator", func() {
		s := NewSet()
		Expect(s.Add("data_quality", "foo 5")).To(HaveOccurred())
	})

	It("reports empty only when no name has been registered", func() {
		s := NewSet()
		Expect(s.Empty()).To(BeTrue())
		Expect(s.Add("data_quality", "le 5")).To(Succeed())
		Expect(s.Empty()).To(BeFalse())
	})

	It("agrees between predicate and SQL clause across many values", func() {
		s := NewSet()
		Expect(s.Add("qc", "lt 5 OR ge 10,11")).To(Succeed())
		clause := s.SQLClause("qc", "q")
		Expect(clause).To(Equal("(q < 5 OR q >= 10) OR (q = 11)"))
		for v := -2; v < 15; v++ {
			want := v < 5 || v >= 10 || v == 11
			Expect(s.Satisfies("qc", v)).To(Equal(want), "v=%d", v)
		}
	})
})
