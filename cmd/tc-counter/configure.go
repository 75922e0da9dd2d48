package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shiwa/timecard-mini/tc-counter/internal/config"
	"github.com/shiwa/timecard-mini/tc-counter/internal/logger"
	"github.com/shiwa/timecard-mini/tc-counter/internal/ubx"
)

// NewConfigureReferenceCommand — настройка TIMEPULSE приёмника u-blox как опорной частоты.
func NewConfigureReferenceCommand() *cobra.Command {
	var (
		device     string
		baud       int
		hz         uint32
		cableDelay int16
		tpIdx      uint8
	)
	cmd := &cobra.Command{
		Use:   "configure-reference",
		Short: "Program the GNSS time pulse (UBX CFG-TP5) as the external reference frequency",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if device == "" {
				device = cfg.GNSS.Device
			}
			if device == "" {
				return fmt.Errorf("configure-reference: gnss.device or --device required")
			}
			if baud == 0 {
				baud = cfg.GNSS.Baud
			}
			if hz == 0 {
				hz = cfg.GNSS.TimepulseHz
			}
			if hz == 0 {
				hz = cfg.Clock.ExternalMHz * config.MHz
			}

			port, err := ubx.Open(device, baud)
			if err != nil {
				return err
			}
			defer port.Close()

			if err := port.ConfigureTimePulse(ubx.FrequencyTP5(tpIdx, hz, cableDelay)); err != nil {
				return fmt.Errorf("configure time pulse on %s: %w", device, err)
			}
			logger.Info("TIMEPULSE%d: %d Гц, %s @ %d baud", tpIdx, hz, device, baud)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&device, "device", "d", "", "GNSS serial device (overrides gnss.device)")
	f.IntVarP(&baud, "baud", "b", 0, "serial speed (overrides gnss.baud)")
	f.Uint32Var(&hz, "hz", 0, "time pulse frequency, Hz (default gnss.timepulse_hz or clock.external_mhz)")
	f.Int16Var(&cableDelay, "cable-delay-ns", 0, "antenna cable delay, ns")
	f.Uint8Var(&tpIdx, "tp", 0, "time pulse index (0 = TIMEPULSE, 1 = TIMEPULSE2)")
	return cmd
}
