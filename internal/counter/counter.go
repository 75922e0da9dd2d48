// Package counter — ядро измерительного конвейера: калибровка отсчётов сопроцессора,
// оценка частоты, накопление меток времени по каналам и выравнивание каналов
// на общую шкалу времени первого сработавшего входа.
//
// Вся арифметика целочисленная, кроме последнего шага: в float64 переводится
// только ограниченный остаток от деления на опорную частоту.
package counter

import "errors"

var (
	// ErrDivisionByZero — скорректированный отсчёт равен нулю (на практике недостижимо: Calibrate даёт >= 4).
	ErrDivisionByZero = errors.New("counter: division by zero")
	// ErrNoReference — опорная частота не задана (снимок refclock нулевой).
	ErrNoReference = errors.New("counter: reference frequency is zero")
)
