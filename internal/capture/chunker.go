// Package capture записывает звук с микрофона и режет его на чанки фиксированной длины.
package capture

// Chunk - фрагмент записи для распознавания.
type Chunk struct {
	Index   int
	Samples []float32
}

// Duration возвращает длительность чанка в секундах.
func (c Chunk) Duration(sampleRate int) float64 {
	return float64(len(c.Samples)) / float64(sampleRate)
}

// Chunker накапливает буферы и выдаёт чанки по size сэмплов.
// Первые warmup буферов отбрасываются (шум при открытии устройства).
type Chunker struct {
	size   int
	warmup int

	pending []float32
	total   []float32
	index   int
}

// NewChunker создаёт нарезчик на чанки по chunkSeconds секунд.
func NewChunker(sampleRate int, chunkSeconds float64, warmup int) *Chunker {
	size := int(chunkSeconds * float64(sampleRate))
	if size <= 0 {
		size = sampleRate
	}
	return &Chunker{size: size, warmup: warmup}
}

// Push добавляет буфер и возвращает готовые чанки.
func (c *Chunker) Push(buf []float32) []Chunk {
	if c.warmup > 0 {
		c.warmup--
		return nil
	}
	c.total = append(c.total, buf...)
	c.pending = append(c.pending, buf...)

	var out []Chunk
	for len(c.pending) >= c.size {
		out = append(out, c.next(c.pending[:c.size]))
		c.pending = c.pending[c.size:]
	}
	return out
}

// Flush возвращает остаток как последний чанк. ok=false, если остатка нет.
func (c *Chunker) Flush() (Chunk, bool) {
	if len(c.pending) == 0 {
		return Chunk{}, false
	}
	ch := c.next(c.pending)
	c.pending = nil
	return ch, true
}

// Samples возвращает всю запись после прогрева.
func (c *Chunker) Samples() []float32 {
	return c.total
}

// Tail возвращает копию последних n сэмплов записи.
func (c *Chunker) Tail(n int) []float32 {
	if n > len(c.total) {
		n = len(c.total)
	}
	return append([]float32(nil), c.total[len(c.total)-n:]...)
}

func (c *Chunker) next(samples []float32) Chunk {
	ch := Chunk{Index: c.index, Samples: append([]float32(nil), samples...)}
	c.index++
	return ch
}
