package clockselect

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/shiwa/timecard-mini/tc-counter/internal/logger"
	"github.com/shiwa/timecard-mini/tc-counter/internal/refclock"
)

// NopTree — дерево без железа: только пишет в лог. Используется, когда переключение
// делает сама плата или switch_command не задан.
type NopTree struct{}

// Switch ничего не перестраивает
func (NopTree) Switch(kind refclock.Kind, referenceMHz uint32) error {
	logger.Debug("clockselect: тактовое дерево не настроено, %s %d МГц только в логе", kind, referenceMHz)
	return nil
}

// CommandTree переключает дерево внешней командой (мультиплексор опорной, скрипт платы).
// В аргументах подставляются {kind} (internal/external) и {mhz}.
type CommandTree struct {
	Path  string
	Args  []string
	Quiet bool
}

// NewCommandTree создаёт дерево из argv вида ["/usr/local/bin/refmux", "{kind}", "{mhz}"].
func NewCommandTree(argv []string, quiet bool) (*CommandTree, error) {
	if len(argv) == 0 || argv[0] == "" {
		return nil, fmt.Errorf("switch_command: empty command")
	}
	return &CommandTree{Path: argv[0], Args: argv[1:], Quiet: quiet}, nil
}

// Switch запускает команду и ждёт её завершения.
func (t *CommandTree) Switch(kind refclock.Kind, referenceMHz uint32) error {
	args := t.expand(kind, referenceMHz)
	out, err := exec.Command(t.Path, args...).CombinedOutput()
	if len(out) > 0 && !t.Quiet {
		logger.With("cmd", t.Path).Info(strings.TrimSpace(string(out)))
	}
	if err != nil {
		return fmt.Errorf("%s %s: %w", t.Path, strings.Join(args, " "), err)
	}
	return nil
}

func (t *CommandTree) expand(kind refclock.Kind, referenceMHz uint32) []string {
	r := strings.NewReplacer("{kind}", kind.String(), "{mhz}", strconv.FormatUint(uint64(referenceMHz), 10))
	out := make([]string, len(t.Args))
	for i, a := range t.Args {
		out[i] = r.Replace(a)
	}
	return out
}
