package capture

import (
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"
	"github.com/labstack/gommon/log"
)

const (
	// SampleRate - частота дискретизации (требование распознавания).
	SampleRate = 16000
	// Channels - количество каналов (mono).
	Channels = 1
	// FramesPerBuffer - размер буфера.
	FramesPerBuffer = 1024
	// WarmupBuffers - сколько первых буферов отбрасывать.
	WarmupBuffers = 5
)

// Recorder записывает аудио с микрофона и отдаёт его чанками.
type Recorder struct {
	mu      sync.Mutex
	stream  *portaudio.Stream
	buffer  []float32
	chunker *Chunker
	chunks  chan Chunk
	running bool
	done    chan struct{}
}

// New инициализирует PortAudio.
func New() (*Recorder, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}
	return &Recorder{buffer: make([]float32, FramesPerBuffer)}, nil
}

// Start начинает запись. Готовые чанки приходят в возвращаемый канал;
// канал закрывается после Stop, последним приходит неполный чанк.
func (r *Recorder) Start(chunkSeconds float64) (<-chan Chunk, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return r.chunks, nil
	}

	stream, err := portaudio.OpenDefaultStream(Channels, 0, SampleRate, FramesPerBuffer, r.buffer)
	if err != nil {
		return nil, err
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, err
	}

	r.stream = stream
	r.chunker = NewChunker(SampleRate, chunkSeconds, WarmupBuffers)
	r.chunks = make(chan Chunk, 4)
	r.done = make(chan struct{})
	r.running = true

	go r.recordLoop()

	log.Infof("Запись начата: %d Гц, чанки по %.0f сек", SampleRate, chunkSeconds)
	return r.chunks, nil
}

func (r *Recorder) recordLoop() {
	defer close(r.done)

	for {
		r.mu.Lock()
		if !r.running {
			r.mu.Unlock()
			return
		}
		stream := r.stream
		r.mu.Unlock()

		available, err := stream.AvailableToRead()
		if err != nil || available == 0 {
			time.Sleep(10 * time.Millisecond)
			continue
		}

		if err := stream.Read(); err != nil {
			log.Warnf("Ошибка чтения с микрофона: %v", err)
			time.Sleep(10 * time.Millisecond)
			continue
		}

		r.mu.Lock()
		var ready []Chunk
		if r.running {
			ready = r.chunker.Push(r.buffer)
		}
		r.mu.Unlock()

		for _, ch := range ready {
			r.chunks <- ch
		}
	}
}

// Stop останавливает запись, отправляет остаток последним чанком,
// закрывает канал и возвращает всю запись.
func (r *Recorder) Stop() []float32 {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	r.running = false
	stream := r.stream
	r.stream = nil
	done := r.done
	r.mu.Unlock()

	// recordLoop проверяет running каждые 10ms.
	<-done

	stream.Stop()
	stream.Close()

	if ch, ok := r.chunker.Flush(); ok {
		log.Infof("Остаток записи: %.1f сек", ch.Duration(SampleRate))
		r.chunks <- ch
	}
	close(r.chunks)

	return r.chunker.Samples()
}

// Close освобождает ресурсы.
func (r *Recorder) Close() {
	r.Stop()
	portaudio.Terminate()
}

// Recent возвращает последние n сэмплов (для индикатора уровня).
func (r *Recorder) Recent(n int) []float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.chunker == nil {
		return nil
	}
	return r.chunker.Tail(n)
}

