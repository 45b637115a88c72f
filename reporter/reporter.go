// Package reporter defines the hooks through which test progress and artifacts are reported, with
// console and in-memory implementations.
package reporter

import (
	"time"

	"github.com/launchdarkly/test-scaffold/framework"
)

// Outcome describes how a test ended.
type Outcome struct {
	Failed   bool
	Skipped  bool
	Errors   []error
	Duration time.Duration
}

// Attachment is an arbitrary named artifact associated with a test.
type Attachment struct {
	Name        string
	ContentType string
	Body        []byte
}

// Reporter receives lifecycle notifications and artifacts for each test. Implementations must
// tolerate being called for several tests concurrently.
type Reporter interface {
	OnTestStart(id framework.TestID)
	OnTestEnd(id framework.TestID, outcome Outcome)
	OnStepStart(id framework.TestID, step string)
	OnStepEnd(id framework.TestID, step string, err error)
	AddScreenshot(id framework.TestID, name string, png []byte)
	AddTrace(id framework.TestID, path string)
	AddVideo(id framework.TestID, path string)
	AddAttachment(id framework.TestID, attachment Attachment)
	Log(id framework.TestID, message string)
	SetTag(id framework.TestID, key, value string)
}

// Null is a Reporter that discards everything.
type Null struct{}

func (Null) OnTestStart(framework.TestID)                   {}
func (Null) OnTestEnd(framework.TestID, Outcome)            {}
func (Null) OnStepStart(framework.TestID, string)           {}
func (Null) OnStepEnd(framework.TestID, string, error)      {}
func (Null) AddScreenshot(framework.TestID, string, []byte) {}
func (Null) AddTrace(framework.TestID, string)              {}
func (Null) AddVideo(framework.TestID, string)              {}
func (Null) AddAttachment(framework.TestID, Attachment)     {}
func (Null) Log(framework.TestID, string)                   {}
func (Null) SetTag(framework.TestID, string, string)        {}

// Multi forwards every call to each of its reporters in order.
type Multi []Reporter

func (m Multi) OnTestStart(id framework.TestID) {
	for _, r := range m {
		r.OnTestStart(id)
	}
}

func (m Multi) OnTestEnd(id framework.TestID, outcome Outcome) {
	for _, r := range m {
		r.OnTestEnd(id, outcome)
	}
}

func (m Multi) OnStepStart(id framework.TestID, step string) {
	for _, r := range m {
		r.OnStepStart(id, step)
	}
}

func (m Multi) OnStepEnd(id framework.TestID, step string, err error) {
	for _, r := range m {
		r.OnStepEnd(id, step, err)
	}
}

func (m Multi) AddScreenshot(id framework.TestID, name string, png []byte) {
	for _, r := range m {
		r.AddScreenshot(id, name, png)
	}
}

func (m Multi) AddTrace(id framework.TestID, path string) {
	for _, r := range m {
		r.AddTrace(id, path)
	}
}

func (m Multi) AddVideo(id framework.TestID, path string) {
	for _, r := range m {
		r.AddVideo(id, path)
	}
}

func (m Multi) AddAttachment(id framework.TestID, attachment Attachment) {
	for _, r := range m {
		r.AddAttachment(id, attachment)
	}
}

func (m Multi) Log(id framework.TestID, message string) {
	for _, r := range m {
		r.Log(id, message)
	}
}

func (m Multi) SetTag(id framework.TestID, key, value string) {
	for _, r := range m {
		r.SetTag(id, key, value)
	}
}
