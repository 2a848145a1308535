package util

import (
	"sort"

	"github.com/dnsboard/dnsboard/log"

	"github.com/sirupsen/logrus"
)

// LogOnError logs the message only if error is not nil
func LogOnError(message string, err error) {
	if err != nil {
		log.Log().Error(message, err)
	}
}

// LogOnErrorWithEntry logs the message with a prefixed entry only if error is not nil
func LogOnErrorWithEntry(logEntry *logrus.Entry, message string, err error) {
	if err != nil {
		logEntry.Error(message, err)
	}
}

// FatalOnError logs the message and terminates the application if error is not nil
func FatalOnError(message string, err error) {
	if err != nil {
		log.Log().Fatal(message, err)
	}
}

// IterateValueSorted iterates over the map, sorted by the value in descending
// order. Entries with equal values keep the order given by keyOrder, which is
// expected to hold the keys in first seen order.
func IterateValueSorted(in map[string]int, keyOrder []string, fn func(string, int)) {
	keys := make([]string, 0, len(in))
	rank := make(map[string]int, len(keyOrder))

	for i, k := range keyOrder {
		rank[k] = i
	}

	for k := range in {
		keys = append(keys, k)
	}

	sort.Slice(keys, func(i, j int) bool {
		if in[keys[i]] != in[keys[j]] {
			return in[keys[i]] > in[keys[j]]
		}

		return rank[keys[i]] < rank[keys[j]]
	})

	for _, k := range keys {
		fn(k, in[k])
	}
}
