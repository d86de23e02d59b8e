package pkg

import (
	"fmt"
	"os"
	"sync"

	"github.com/go-kit/kit/log/term"
	"github.com/gosuri/uiprogress"
	"github.com/gosuri/uiprogress/util/strutil"
)

// CompletedEvent finishes a progress line.
const CompletedEvent = "complete!"

const barWidth = 16

// RenderProgressBars toggles bar rendering, it is off unless running in
// debug mode on a terminal.
var RenderProgressBars bool

// ProgressCoordinator renders one progress bar per named pipeline run and
// falls back to plain log lines on non-terminals.
type ProgressCoordinator struct {
	group      sync.WaitGroup
	mutex      sync.Mutex
	progresses map[string]*Progress
}

// NewProgressCoordinator creates a new instance of *ProgressCoordinator
func NewProgressCoordinator() *ProgressCoordinator {
	if isUIEnabled() {
		uiprogress.Start()
	}
	return &ProgressCoordinator{progresses: map[string]*Progress{}}
}

func isUIEnabled() bool {
	return RenderProgressBars && term.IsTerminal(os.Stdout)
}

func ellipsize(s string, width int) string {
	if len(s) > width {
		return "..." + s[len(s)-width+2:len(s)-1]
	}
	return strutil.PadRight(s, width, ' ')
}

// StartProgress begins tracking a named run with the given number of steps.
func (c *ProgressCoordinator) StartProgress(name string, steps int) {
	progress := &Progress{
		Name:   name,
		Bar:    uiprogress.AddBar(steps),
		State:  "starting",
		events: make(chan string),
	}
	progress.Bar.Width = barWidth
	progress.Bar.PrependFunc(func(b *uiprogress.Bar) string {
		percent := strutil.PadLeft(fmt.Sprintf("%.01f%%", b.CompletedPercent()), 6, ' ')
		return fmt.Sprintf("%s : %s  %s", ellipsize(name, 20), ellipsize(progress.State, 32), percent)
	})

	c.mutex.Lock()
	c.progresses[name] = progress
	c.mutex.Unlock()

	c.group.Add(1)
	go c.consume(progress)
}

func (c *ProgressCoordinator) consume(progress *Progress) {
	defer c.group.Done()

	for event := range progress.events {
		if !isUIEnabled() {
			fmt.Printf("%s: %s (%d)\n", progress.Name, event, progress.Bar.Current()+1)
		}
		if event == CompletedEvent {
			progress.finish()
			return
		}
		if done := progress.advance(event); !done {
			return
		}
	}
}

// AddEvent advances a named run by one step.
func (c *ProgressCoordinator) AddEvent(progressName string, eventName string) {
	c.mutex.Lock()
	progress, isPresent := c.progresses[progressName]
	c.mutex.Unlock()

	if isPresent {
		progress.events <- eventName
	}
}

// Wait blocks until every tracked run completed.
func (c *ProgressCoordinator) Wait() {
	c.group.Wait()
	if isUIEnabled() {
		uiprogress.Stop()
	}
}
