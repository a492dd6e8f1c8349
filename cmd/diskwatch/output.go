package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/Guliveer/diskwatch/internal/config"
	"github.com/Guliveer/diskwatch/internal/models"
)

const placeholder = "-"

var statusColors = map[models.Status]*color.Color{
	models.StatusHealthy:  color.New(color.FgGreen),
	models.StatusCaution:  color.New(color.FgYellow),
	models.StatusWarning:  color.New(color.FgHiRed),
	models.StatusCritical: color.New(color.FgRed, color.Bold),
}

func statusLabel(s models.Status) string {
	c, ok := statusColors[s]
	if !ok {
		return s.String()
	}
	return c.SprintFunc()(s.String())
}

func formatBytes(n int64) string {
	if n < 0 {
		return "-" + humanize.Bytes(uint64(-n))
	}
	return humanize.Bytes(uint64(n))
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 1, 3, ' ', 0)
}

func writeVolumes(w io.Writer, vols []models.VolumeReading, t config.ThresholdConfig) error {
	if len(vols) == 0 {
		_, err := fmt.Fprintln(w, "no volumes found")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "VOLUME\tMOUNT\tUSED\tFREE\tTOTAL\tFREE%\tSTATUS")
	for _, v := range vols {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%.1f%%\t%s\n",
			v.Name, v.MountPoint,
			formatBytes(v.UsedBytes()), formatBytes(v.FreeBytes), formatBytes(v.TotalBytes),
			v.FreePercentage(), statusLabel(v.Status(t.WarningPercent, t.CriticalPercent)))
	}
	return tw.Flush()
}

func writeSystem(w io.Writer, cpu *models.CPUReading, mem *models.MemoryReading) error {
	cpuText, memText := placeholder, placeholder
	if cpu != nil {
		cpuText = fmt.Sprintf("%.1f%% of %d cores", cpu.Usage, cpu.Cores)
	}
	if mem != nil {
		memText = fmt.Sprintf("%s used of %s (%.1f%%)",
			humanize.Bytes(mem.UsedBytes), humanize.Bytes(mem.TotalBytes), mem.UsedPercentage())
	}
	_, err := fmt.Fprintf(w, "CPU: %s\nRAM: %s\n", cpuText, memText)
	return err
}

func writeTrend(w io.Writer, mount string, info *models.TrendInfo, lookback time.Duration) error {
	if info == nil {
		_, err := fmt.Fprintf(w, "Trend %s (%s): %s not enough history yet\n", mount, lookback, placeholder)
		return err
	}

	days := placeholder
	if info.DaysUntilFull != nil {
		days = fmt.Sprintf("%.1f", *info.DaysUntilFull)
	}
	_, err := fmt.Fprintf(w, "Trend %s (%s): %s, days until full: %s (%d points over %dh)\n",
		mount, lookback, info.Description(), days, info.DataPoints, info.PeriodHours)
	if err != nil {
		return err
	}

	if warn := info.Warning(); warn != nil {
		c := color.New(color.FgYellow)
		if warn.Severe {
			c = color.New(color.FgRed, color.Bold)
		}
		_, err = fmt.Fprintln(w, c.SprintFunc()("Warning: "+warn.Message))
	}
	return err
}

func writeHistory(w io.Writer, snaps []models.Snapshot) error {
	if len(snaps) == 0 {
		_, err := fmt.Fprintln(w, "no history recorded")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "TIME\tFREE\tTOTAL\tUSED%")
	for _, s := range snaps {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.1f%%\n",
			s.Timestamp.Local().Format(time.DateTime),
			formatBytes(s.FreeBytes), formatBytes(s.TotalBytes), s.UsedPercentage())
	}
	return tw.Flush()
}
