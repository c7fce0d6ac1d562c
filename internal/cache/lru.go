package cache

// lruNode is a node in a doubly-linked LRU list.
// The node stores a key for O(1) deletion from the parent map.
type lruNode[K comparable] struct {
	key  K
	prev *lruNode[K]
	next *lruNode[K]
}

// lruList is a doubly-linked list ordering keys by recency.
// The list is not thread-safe; callers must handle synchronization.
//
// The head is the most recently used, tail is least recently used.
type lruList[K comparable] struct {
	head *lruNode[K]
	tail *lruNode[K]
	len  int
}

// PushFront adds a new node at the front (most recently used).
func (l *lruList[K]) PushFront(key K) *lruNode[K] {
	node := &lruNode[K]{key: key}
	l.linkFront(node)
	return node
}

// MoveToFront marks an existing node as most recently used.
func (l *lruList[K]) MoveToFront(node *lruNode[K]) {
	if node == nil || node == l.head {
		return
	}
	l.unlink(node)
	l.linkFront(node)
}

// RemoveOldest removes and returns the key of the least recently used node.
// Returns zero value and false if list is empty.
func (l *lruList[K]) RemoveOldest() (K, bool) {
	if l.tail == nil {
		var zero K
		return zero, false
	}
	node := l.tail
	l.unlink(node)
	return node.key, true
}

// Keys returns the keys from most to least recently used.
func (l *lruList[K]) Keys() []K {
	keys := make([]K, 0, l.len)
	for n := l.head; n != nil; n = n.next {
		keys = append(keys, n.key)
	}
	return keys
}

// Clear removes all nodes from the list.
func (l *lruList[K]) Clear() {
	l.head = nil
	l.tail = nil
	l.len = 0
}

func (l *lruList[K]) linkFront(node *lruNode[K]) {
	node.prev = nil
	node.next = l.head
	if l.head != nil {
		l.head.prev = node
	}
	l.head = node
	if l.tail == nil {
		l.tail = node
	}
	l.len++
}

// unlink detaches a node and clears its pointers.
func (l *lruList[K]) unlink(node *lruNode[K]) {
	if node.prev != nil {
		node.prev.next = node.next
	} else {
		l.head = node.next
	}

	if node.next != nil {
		node.next.prev = node.prev
	} else {
		l.tail = node.prev
	}

	node.prev = nil
	node.next = nil
	l.len--
}
