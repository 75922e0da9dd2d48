package counter

import "math"

// Calibrate переводит сырой отсчёт сопроцессора в скорректированное число тактов.
//
// Сопроцессор считает один такт на две инструкции и недосчитывает фиксированную
// латентность конвейера; при усреднении по нескольким периодам добавляется
// переходный процесс запуска. Константы получены на железе и менять их нельзя:
//
//	periods == 1: (raw + 2) * 2
//	periods  > 1: 2*(raw + 1.5*periods + 1.5) == 2*raw + 3*periods + 3
//
// Считается в uint64, поэтому raw = 2^32-1 не переполняется. periods == 0 трактуется как 1.
func Calibrate(raw, periods uint32) uint64 {
	if periods <= 1 {
		return (uint64(raw) + 2) * 2
	}
	return 2*uint64(raw) + 3*uint64(periods) + 3
}

// Uncalibrate — обратное преобразование для синтетических источников (PPS, replay):
// возвращает сырой отсчёт, который после Calibrate даёт значение не больше corrected.
// Результат ограничен диапазоном uint32.
func Uncalibrate(corrected uint64, periods uint32) uint32 {
	var bias uint64
	if periods <= 1 {
		bias = 4
	} else {
		bias = 3*uint64(periods) + 3
	}
	if corrected <= bias {
		return 0
	}
	raw := (corrected - bias) / 2
	if raw > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(raw)
}
