package clockselect

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// FrequencyMeter — измеритель частоты внутреннего генератора, кГц.
type FrequencyMeter interface {
	MeasureKHz() (int32, error)
}

// MeterDeviation — DeviationProbe поверх частотомера: measured - expected.
type MeterDeviation struct {
	Meter       FrequencyMeter
	ExpectedKHz int32
}

// DeviationKHz возвращает отклонение от ожидаемой частоты.
func (m MeterDeviation) DeviationKHz() (int32, error) {
	f, err := m.Meter.MeasureKHz()
	if err != nil {
		return 0, err
	}
	return f - m.ExpectedKHz, nil
}

// FileMeter читает измеренную частоту в кГц из файла (счётчик в sysfs или вывод
// внешнего частотомера). Файл перечитывается на каждом вызове.
type FileMeter struct {
	Path string
}

// MeasureKHz читает и разбирает число из файла.
func (m FileMeter) MeasureKHz() (int32, error) {
	data, err := os.ReadFile(m.Path)
	if err != nil {
		return 0, fmt.Errorf("meter %s: %w", m.Path, err)
	}
	v, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("meter %s: %w", m.Path, err)
	}
	return int32(v), nil
}
