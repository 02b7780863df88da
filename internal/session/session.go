// Package session хранит состояние одной живой записи.
package session

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"hush/internal/detect"
	"hush/internal/overlay"
)

// Stitch сдвигает найденные в чанке интервалы на глобальное смещение чанка.
// Возвращает новый срез, исходный не меняется.
func Stitch(chunk []detect.Detection, offset float64) []detect.Detection {
	out := make([]detect.Detection, len(chunk))
	for i, d := range chunk {
		out[i] = detect.Detection{Word: d.Word, Start: d.Start + offset, End: d.End + offset}
	}
	return out
}

// Session - состояние записи: флаг активности, накопленные интервалы
// и смещение следующего чанка. Создаётся оркестратором и передаётся
// обоим циклам захвата.
type Session struct {
	ID string

	active atomic.Bool

	mu         sync.RWMutex
	detections []detect.Detection
	offset     float64

	done     chan struct{}
	stopOnce sync.Once
}

// New создаёт активную сессию.
func New() *Session {
	s := &Session{
		ID:   uuid.NewString(),
		done: make(chan struct{}),
	}
	s.active.Store(true)
	return s
}

// Active сообщает, идёт ли запись.
func (s *Session) Active() bool {
	return s.active.Load()
}

// Stop останавливает запись. Повторные вызовы безопасны.
func (s *Session) Stop() {
	s.stopOnce.Do(func() {
		s.active.Store(false)
		close(s.done)
	})
}

// Done закрывается после Stop.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Advance сдвигает счётчик смещения на длительность чанка и
// возвращает смещение, с которого этот чанк начинался.
func (s *Session) Advance(seconds float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := s.offset
	s.offset += seconds
	return start
}

// AppendChunk сдвигает интервалы чанка и добавляет их в общую последовательность.
func (s *Session) AppendChunk(chunk []detect.Detection, offset float64) {
	if len(chunk) == 0 {
		return
	}
	stitched := Stitch(chunk, offset)
	s.mu.Lock()
	s.detections = append(s.detections, stitched...)
	s.mu.Unlock()
}

// Detections возвращает копию накопленных интервалов в порядке добавления.
func (s *Session) Detections() []detect.Detection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]detect.Detection, len(s.detections))
	copy(out, s.detections)
	return out
}

// Len возвращает число накопленных интервалов.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.detections)
}

// IsFlagged проверяет момент t по уже накопленным интервалам.
// Во время записи отстаёт на длительность чанка.
func (s *Session) IsFlagged(t float64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return overlay.IsFlagged(t, s.detections)
}
