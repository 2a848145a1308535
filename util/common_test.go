package util

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Common functions", func() {
	Describe("IterateValueSorted", func() {
		It("should iterate in descending value order", func() {
			in := map[string]int{"a": 1, "b": 3, "c": 2}

			var result []string

			IterateValueSorted(in, []string{"a", "b", "c"}, func(k string, v int) {
				result = append(result, k)
			})

			Expect(result).Should(Equal([]string{"b", "c", "a"}))
		})

		It("should break value ties by first seen order", func() {
			in := map[string]int{"x": 2, "y": 2, "z": 2}

			var result []string

			IterateValueSorted(in, []string{"z", "x", "y"}, func(k string, v int) {
				result = append(result, k)
			})

			Expect(result).Should(Equal([]string{"z", "x", "y"}))
		})

		It("should do nothing for an empty map", func() {
			calls := 0

			IterateValueSorted(map[string]int{}, nil, func(string, int) {
				calls++
			})

			Expect(calls).Should(BeZero())
		})
	})

	Describe("LogOnError", func() {
		It("should not panic with or without an error", func() {
			Expect(func() {
				LogOnError("oops: ", errors.New("error occurred"))
				LogOnError("oops: ", nil)
			}).ShouldNot(Panic())
		})
	})
})
