package source

// ChannelSource — очередь отсчётов одного входа (аналог RX FIFO state machine сопроцессора).
// PollRawCount никогда не блокирует: при пустой очереди возвращает (0, false).
// Отсчёты одного канала выдаются строго в порядке поступления.
type ChannelSource interface {
	// Name возвращает имя источника для логов
	Name() string
	// PollRawCount возвращает следующий декодированный сырой отсчёт, если он есть
	PollRawCount() (uint32, bool)
	// Close освобождает ресурсы
	Close() error
}

// Decode переводит слово из FIFO в сырой отсчёт: сопроцессор считает вниз от 0xFFFFFFFF,
// поэтому число прошедших тактов — побитовая инверсия слова.
func Decode(word uint32) uint32 {
	return ^word
}

// Encode — обратное к Decode (для записи и тестов).
func Encode(raw uint32) uint32 {
	return ^raw
}
