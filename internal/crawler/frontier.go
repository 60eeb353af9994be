package crawler

// queueItem is a frontier entry: a URL and its link distance from the seed.
type queueItem struct {
	url   string
	depth int
}

// compactThreshold is the number of consumed entries after which the
// frontier reclaims the space in front of its head.
const compactThreshold = 1024

// frontier is a FIFO queue of pending URLs. Popping advances a head index
// instead of re-slicing so that long crawls do not keep reallocating.
type frontier struct {
	items []queueItem
	head  int
}

func (f *frontier) push(item queueItem) {
	f.items = append(f.items, item)
}

func (f *frontier) pop() (queueItem, bool) {
	if f.head >= len(f.items) {
		return queueItem{}, false
	}
	item := f.items[f.head]
	f.items[f.head] = queueItem{}
	f.head++

	if f.head >= compactThreshold && f.head*2 >= len(f.items) {
		n := copy(f.items, f.items[f.head:])
		f.items = f.items[:n]
		f.head = 0
	}
	return item, true
}

func (f *frontier) len() int {
	return len(f.items) - f.head
}
