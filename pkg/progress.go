package pkg

import "github.com/gosuri/uiprogress"

// Progress tracks one named unit of pipeline work.
type Progress struct {
	Name   string
	Bar    *uiprogress.Bar
	State  string
	events chan string
}

// SetText defines the text to display during progress
func (progress *Progress) SetText(text string) {
	if text != "" {
		progress.State = text
	}
}

func (progress *Progress) advance(event string) bool {
	progress.SetText(event)
	return progress.Bar.Incr()
}

func (progress *Progress) finish() {
	progress.Bar.Set(progress.Bar.Total)
	progress.SetText(CompletedEvent)
}
