// Package dashboard renders a terminal-based pass/fail grid for a
// self-test run: one row per property/scenario/timing check, filled in
// from the report once selftest.Run has finished. It is not connected to
// the api package's Broadcaster.
package dashboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/lookbusy1344/constant-time-go/report"
	"github.com/lookbusy1344/constant-time-go/selftest"
)

// Dashboard is the text user interface for watching a self-test run.
type Dashboard struct {
	App  *tview.Application
	root *tview.Flex

	summaryView   *tview.TextView
	propertyView  *tview.TextView
	scenarioView  *tview.TextView
	timingView    *tview.TextView
	statusView    *tview.TextView

	opts selftest.Options
}

// New creates a new dashboard configured to run the self-test suite
// with the given options when started.
func New(opts selftest.Options) *Dashboard {
	d := &Dashboard{
		App:  tview.NewApplication(),
		opts: opts,
	}

	d.initializeViews()
	d.buildLayout()
	d.setupKeyBindings()

	return d
}

func (d *Dashboard) initializeViews() {
	d.summaryView = tview.NewTextView().SetDynamicColors(true)
	d.summaryView.SetBorder(true).SetTitle(" Summary ")

	d.propertyView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true)
	d.propertyView.SetBorder(true).SetTitle(" Properties ")

	d.scenarioView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true)
	d.scenarioView.SetBorder(true).SetTitle(" Scenarios ")

	d.timingView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true)
	d.timingView.SetBorder(true).SetTitle(" Timing ")

	d.statusView = tview.NewTextView().SetDynamicColors(true)
	d.statusView.SetBorder(true).SetTitle(" Status (r=run, q=quit) ")
	d.statusView.SetText("press [yellow]r[white] to run the self-test suite")
}

func (d *Dashboard) buildLayout() {
	checks := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(d.propertyView, 0, 1, false).
		AddItem(d.scenarioView, 0, 1, false).
		AddItem(d.timingView, 0, 1, false)

	d.root = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(d.summaryView, 3, 0, false).
		AddItem(checks, 0, 1, false).
		AddItem(d.statusView, 3, 0, false)
}

func (d *Dashboard) setupKeyBindings() {
	d.App.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Rune() {
		case 'q':
			d.App.Stop()
			return nil
		case 'r':
			go d.runAndRender()
			return nil
		}
		return event
	})
}

// Run starts the terminal UI event loop. It blocks until the user quits.
func (d *Dashboard) Run() error {
	return d.App.SetRoot(d.root, true).Run()
}

func (d *Dashboard) runAndRender() {
	d.App.QueueUpdateDraw(func() {
		d.statusView.SetText("[yellow]running...")
	})

	started := time.Now()
	rep := selftest.Run(d.opts)

	d.App.QueueUpdateDraw(func() {
		d.render(rep, time.Since(started))
	})
}

func (d *Dashboard) render(rep *report.Report, elapsed time.Duration) {
	status := "[green]PASS"
	if !rep.Passed() {
		status = "[red]FAIL"
	}
	fmt.Fprintf(d.summaryView, "%s[white]  failures=%d  elapsed=%s\n",
		status, rep.FailureCount(), elapsed.Round(time.Millisecond))

	d.propertyView.SetText(renderPropertyRows(rep.Properties))
	d.scenarioView.SetText(renderScenarioRows(rep.Scenarios))
	d.timingView.SetText(renderTimingRows(rep.Timing))

	d.statusView.SetText("press [yellow]r[white] to run again, [yellow]q[white] to quit")
}

func renderPropertyRows(results []report.PropertyResult) string {
	var sb strings.Builder
	for _, p := range results {
		sb.WriteString(rowLine(p.Passed, p.Name, p.FailureDetail))
	}
	return sb.String()
}

func renderScenarioRows(results []report.ScenarioResult) string {
	var sb strings.Builder
	for _, s := range results {
		sb.WriteString(rowLine(s.Passed, s.Name, s.FailureDetail))
	}
	return sb.String()
}

func renderTimingRows(results []report.TimingResult) string {
	var sb strings.Builder
	for _, t := range results {
		detail := fmt.Sprintf("skew=%.4f max=%.4f", t.SkewRatio, t.MaxSkewRatio)
		sb.WriteString(rowLine(t.Passed, t.Name, detail))
	}
	return sb.String()
}

func rowLine(passed bool, name, detail string) string {
	mark := "[green]PASS"
	if !passed {
		mark = "[red]FAIL"
	}
	if detail == "" {
		return fmt.Sprintf("%s [white]%s\n", mark, name)
	}
	return fmt.Sprintf("%s [white]%s  [gray](%s)\n", mark, name, detail)
}
