package ecs

import "iter"

// column is the type-erased storage for one component type inside an
// archetype. Slot indices are stable until compact is called.
type column interface {
	append(item any) int
	remove(index int)
	get(index int) any
	has(index int) bool
	compact() map[int]int
	slots() iter.Seq[int]
	len() int
}

const columnBlockSize = 64

// blockColumn keeps components of type T in fixed-size blocks so that
// pointers handed out by get stay valid while the column grows.
type blockColumn[T any] struct {
	blocks [][columnBlockSize]T
	live   [][columnBlockSize]bool
	free   []int
	next   int
	count  int
}

func newBlockColumn[T any]() column {
	return &blockColumn[T]{}
}

func locate(index int) (int, int) {
	return index / columnBlockSize, index % columnBlockSize
}

func (c *blockColumn[T]) append(item any) int {
	var value T
	switch v := item.(type) {
	case *T:
		value = *v
	case T:
		value = v
	default:
		return -1
	}

	var index int
	if n := len(c.free); n > 0 {
		index = c.free[n-1]
		c.free = c.free[:n-1]
	} else {
		index = c.next
		c.next++
		if block, _ := locate(index); block >= len(c.blocks) {
			c.blocks = append(c.blocks, [columnBlockSize]T{})
			c.live = append(c.live, [columnBlockSize]bool{})
		}
	}

	block, slot := locate(index)
	c.blocks[block][slot] = value
	c.live[block][slot] = true
	c.count++
	return index
}

func (c *blockColumn[T]) has(index int) bool {
	if index < 0 || index >= c.next {
		return false
	}
	block, slot := locate(index)
	return c.live[block][slot]
}

func (c *blockColumn[T]) get(index int) any {
	if !c.has(index) {
		return nil
	}
	block, slot := locate(index)
	return &c.blocks[block][slot]
}

func (c *blockColumn[T]) remove(index int) {
	if !c.has(index) {
		return
	}
	block, slot := locate(index)
	var zero T
	c.blocks[block][slot] = zero
	c.live[block][slot] = false
	c.free = append(c.free, index)
	c.count--
}

func (c *blockColumn[T]) len() int {
	return c.count
}

// compact packs live slots to the front and returns the old->new index map.
func (c *blockColumn[T]) compact() map[int]int {
	moved := make(map[int]int, c.count)
	if c.count == 0 {
		c.blocks = make([][columnBlockSize]T, 1)
		c.live = make([][columnBlockSize]bool, 1)
		c.free = nil
		c.next = 0
		return moved
	}

	nblocks := (c.count + columnBlockSize - 1) / columnBlockSize
	blocks := make([][columnBlockSize]T, nblocks)
	live := make([][columnBlockSize]bool, nblocks)

	write := 0
	for read := 0; read < c.next; read++ {
		rb, rs := locate(read)
		if !c.live[rb][rs] {
			continue
		}
		wb, ws := locate(write)
		blocks[wb][ws] = c.blocks[rb][rs]
		live[wb][ws] = true
		moved[read] = write
		write++
	}

	c.blocks = blocks
	c.live = live
	c.free = nil
	c.next = write
	return moved
}

func (c *blockColumn[T]) slots() iter.Seq[int] {
	return func(yield func(int) bool) {
		for i := 0; i < c.next; i++ {
			block, slot := locate(i)
			if c.live[block][slot] && !yield(i) {
				return
			}
		}
	}
}
