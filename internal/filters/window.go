package filters

// window withholds the most recent surviving lines. It is a fixed size ring;
// a line is only confirmed kept once a newer line pushes it out.
type window struct {
	buf   [][]byte
	start int
	size  int
}

func newWindow(capacity int) *window {
	return &window{buf: make([][]byte, capacity)}
}

// push appends line at the back. When the window is full the front line is
// evicted and returned with ok set.
func (w *window) push(line []byte) (evicted []byte, ok bool) {
	if len(w.buf) == 0 {
		return line, true
	}
	if w.size < len(w.buf) {
		w.buf[(w.start+w.size)%len(w.buf)] = line
		w.size++
		return nil, false
	}
	evicted = w.buf[w.start]
	w.buf[w.start] = line
	w.start = (w.start + 1) % len(w.buf)
	return evicted, true
}

func (w *window) len() int { return w.size }
