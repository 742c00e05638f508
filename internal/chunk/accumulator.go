package chunk

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// accumulator packs items greedily into chunks of at most size runes,
// counting the separator. An item that would overflow closes the current
// chunk and seeds the next one, so an oversized item forms a chunk alone.
type accumulator struct {
	size    int
	sep     string
	sepLen  int
	started bool
	buf     string
	length  int
}

func newAccumulator(size int, sep string) *accumulator {
	if size < 1 {
		size = DefaultChunkSize
	}
	return &accumulator{size: size, sep: sep, sepLen: utf8.RuneCountInString(sep)}
}

// add appends item. When item does not fit, the pending text is returned as
// a completed chunk and item starts the next one. Empty pending text is
// discarded rather than returned.
func (a *accumulator) add(item string) (closed string, ok bool) {
	n := utf8.RuneCountInString(item)
	if !a.started {
		a.started = true
		a.buf, a.length = item, n
		return "", false
	}
	if a.length+a.sepLen+n > a.size {
		closed, ok = a.buf, strings.TrimSpace(a.buf) != ""
		a.buf, a.length = item, n
		return closed, ok
	}
	a.buf += a.sep + item
	a.length += a.sepLen + n
	return "", false
}

// flush returns the pending text, if any, and resets the accumulator.
func (a *accumulator) flush() (string, bool) {
	s := a.buf
	a.started, a.buf, a.length = false, "", 0
	return s, strings.TrimSpace(s) != ""
}

func recordID(path string, index int) string {
	return path + "-" + strconv.Itoa(index)
}
