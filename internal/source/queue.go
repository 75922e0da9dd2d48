package source

import "fmt"

// DefaultQueueDepth — глубина очереди по умолчанию (RX FIFO сопроцессора объединён: 8 слов).
const DefaultQueueDepth = 8

// Queue — неблокирующая очередь отсчётов в памяти. Push вызывается производителем
// (replay, тесты), PollRawCount — только измерительным циклом.
type Queue struct {
	name string
	ch   chan uint32
}

// NewQueue создаёт очередь глубиной depth (<= 0 — DefaultQueueDepth).
func NewQueue(name string, depth int) *Queue {
	if depth <= 0 {
		depth = DefaultQueueDepth
	}
	return &Queue{name: name, ch: make(chan uint32, depth)}
}

// Name возвращает имя источника
func (q *Queue) Name() string {
	return fmt.Sprintf("queue:%s", q.name)
}

// Push кладёт сырой слово FIFO; блокируется, пока очередь полна (как state machine при полном FIFO).
func (q *Queue) Push(word uint32) {
	q.ch <- word
}

// TryPush кладёт слово без ожидания; false — очередь полна и слово потеряно.
func (q *Queue) TryPush(word uint32) bool {
	select {
	case q.ch <- word:
		return true
	default:
		return false
	}
}

// PollRawCount забирает следующее слово и декодирует его.
func (q *Queue) PollRawCount() (uint32, bool) {
	select {
	case w := <-q.ch:
		return Decode(w), true
	default:
		return 0, false
	}
}

// Len — число слов в очереди.
func (q *Queue) Len() int {
	return len(q.ch)
}

// Close не требует освобождения ресурсов
func (q *Queue) Close() error {
	return nil
}
