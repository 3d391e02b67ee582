// Package ui renders the human-facing progress lines of a run.
package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/dmitrijs2005/raddo/internal/syncer"
)

var (
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#2E7D32", Dark: "#66BB6A"})
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#E65100", Dark: "#FFA726"})
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#C62828", Dark: "#EF5350"}).Bold(true)
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#1565C0", Dark: "#42A5F5"}).Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#616161", Dark: "#9E9E9E"})
)

func RenderPass(s string) string   { return passStyle.Render(s) }
func RenderWarn(s string) string   { return warnStyle.Render(s) }
func RenderFail(s string) string   { return failStyle.Render(s) }
func RenderAccent(s string) string { return accentStyle.Render(s) }
func RenderMuted(s string) string  { return mutedStyle.Render(s) }

// Elide shortens long name lists to the first and last keep entries.
func Elide(names []string, max, keep int) []string {
	if len(names) <= max || 2*keep >= len(names) {
		return names
	}
	out := make([]string, 0, 2*keep+1)
	out = append(out, names[:keep]...)
	out = append(out, "...")
	return append(out, names[len(names)-keep:]...)
}

// Printer writes timestamped progress lines.
type Printer struct {
	w   io.Writer
	now func() time.Time
}

// NewPrinter returns a printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w, now: time.Now}
}

func (p *Printer) line(s string) {
	fmt.Fprintf(p.w, "%s   %s\n", RenderMuted(p.now().Format("2006-01-02 15:04:05.00")), s)
}

// Banner prints the program header.
func (p *Printer) Banner(version, local, remote string, rng fmt.Stringer) {
	rule := strings.Repeat("-", 80)
	fmt.Fprintln(p.w, RenderAccent(rule))
	fmt.Fprintln(p.w, RenderAccent("raddo "+version))
	fmt.Fprintf(p.w, "[LOCAL]  RADOLAN directory is set to:\n%s\n\n", local)
	fmt.Fprintf(p.w, "[REMOTE] RADOLAN directory is set to:\n%s\n\n", remote)
	fmt.Fprintf(p.w, "searching for data from %s.\n", rng)
	fmt.Fprintln(p.w, RenderAccent(rule))
}

func (p *Printer) Info(format string, args ...any) { p.line(fmt.Sprintf(format, args...)) }
func (p *Printer) Pass(format string, args ...any) { p.line(RenderPass(fmt.Sprintf(format, args...))) }
func (p *Printer) Warn(format string, args ...any) { p.line(RenderWarn(fmt.Sprintf(format, args...))) }
func (p *Printer) Fail(format string, args ...any) { p.line(RenderFail(fmt.Sprintf(format, args...))) }

// Observe renders engine progress. It is meant to be passed to
// syncer.WithObserver.
func (p *Printer) Observe(ev syncer.Event) {
	switch ev.Kind {
	case syncer.EventKnown:
		p.Info("%d local archive(s) found.", ev.Count)
	case syncer.EventMissing:
		if ev.Count == 0 {
			p.Pass("No files missing.")
			return
		}
		p.Info("%d file(s) missing:", ev.Count)
		for _, name := range Elide(ev.Names, 10, 5) {
			fmt.Fprintln(p.w, "    "+name)
		}
	case syncer.EventAttempt:
		p.Info("[%d] trying %s", ev.Attempt, ev.URL)
	case syncer.EventFallback:
		p.Warn("[%d] %s not found, trying historical data %s", ev.Attempt, ev.File, ev.URL)
	case syncer.EventAttemptFailed:
		p.Warn("[ERROR] %s: %v", ev.File, ev.Err)
	case syncer.EventRetrieved:
		if ev.Source == syncer.SourceLocal {
			p.Pass("[SUCCESS] %s has already been downloaded.", ev.Archive)
			return
		}
		p.Pass("[SUCCESS] %s downloaded (%s).", ev.Archive, humanize.Bytes(uint64(ev.Bytes)))
	case syncer.EventCovered:
		p.Info("%s is contained in %s.", ev.File, ev.Archive)
	case syncer.EventFailed:
		p.Fail("[ERROR] Exceeded requests (%d) for %s!", ev.Attempt, ev.File)
	}
}

// Summary prints the outcome of a run. extracted tells whether the
// retrieved archives were already unpacked.
func (p *Printer) Summary(rep *syncer.Report, extracted bool) {
	fmt.Fprintln(p.w)
	took := rep.FinishedAt.Sub(rep.StartedAt).Round(time.Millisecond)
	p.Info("%d archive(s) retrieved (%s) in %s, %d day(s) covered by month archives.",
		len(rep.Succeeded), humanize.Bytes(uint64(rep.Bytes())), took, rep.MonthCovered())

	if failed := rep.Failed(); len(failed) > 0 {
		p.Fail("%d file(s) could not be retrieved:", len(failed))
		for _, name := range Elide(failed, 10, 5) {
			fmt.Fprintln(p.w, "    "+name)
		}
	}
	if rep.LegacyData && !extracted {
		p.Warn("Some days were only available as monthly archives (RW-YYYYMM.tar). " +
			"Extract them to get the hourly files.")
	}
}
