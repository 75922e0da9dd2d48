package counter

// FirstSensed — канал, задающий начало общей шкалы времени. Устанавливается один раз.
type FirstSensed struct {
	id  int
	set bool
}

// Get возвращает канал-источник шкалы, если он уже определён.
func (m *FirstSensed) Get() (int, bool) {
	return m.id, m.set
}

// Align вызывается перед Accumulate для каждого отсчёта в режиме меток времени.
//
// Первый канал, выдавший отсчёт, становится началом шкалы. Любой другой канал при
// своём первом отсчёте (аккумулятор ровно ноль) получает текущее значение
// аккумулятора канала-источника вместе с его эпохой, и его собственная дельта
// прибавляется уже к нему.
// Во всех остальных случаях ничего не делает.
func Align(id int, marker *FirstSensed, channels []Channel) {
	if !marker.set {
		marker.id = id
		marker.set = true
		return
	}
	if id == marker.id || channels[id].Cycles != 0 {
		return
	}
	src, dst := &channels[marker.id], &channels[id]
	dst.Cycles = src.Cycles
	dst.epoch, dst.epochCycles, dst.hz = src.epoch, src.epochCycles, src.hz
}

// Timebase — каналы и маркер первого входа вместе; владеет им измерительный цикл.
type Timebase struct {
	Channels []Channel
	marker   FirstSensed
}

// NewTimebase создаёт шкалу для каналов с заданными именами.
func NewTimebase(names []string) *Timebase {
	return &Timebase{Channels: NewChannels(names)}
}

// Origin возвращает канал-источник шкалы.
func (tb *Timebase) Origin() (int, bool) {
	return tb.marker.Get()
}

// Mark выравнивает канал id и прибавляет к нему corrected тактов.
// При refHz == 0 ничего не меняет (в том числе маркер) и возвращает ErrNoReference.
func (tb *Timebase) Mark(id int, corrected uint64, refHz uint32) (Timestamp, error) {
	if refHz == 0 {
		return Timestamp{}, ErrNoReference
	}
	Align(id, &tb.marker, tb.Channels)
	return tb.Channels[id].Accumulate(corrected, refHz)
}
