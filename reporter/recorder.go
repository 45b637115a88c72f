package reporter

import (
	"fmt"
	"sync"

	"github.com/launchdarkly/test-scaffold/framework"
)

// TestRecord is everything a Recorder received for one test.
type TestRecord struct {
	ID          framework.TestID
	Outcome     *Outcome
	Events      []string
	Screenshots map[string][]byte
	Traces      []string
	Videos      []string
	Attachments []Attachment
	Messages    []string
	Tags        map[string]string
}

// Recorder keeps everything it is given in memory, keyed by test. It is mainly useful for
// verifying the behavior of code that drives a Reporter.
type Recorder struct {
	records map[string]*TestRecord
	order   []string
	lock    sync.Mutex
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{records: make(map[string]*TestRecord)}
}

// Record returns a copy of what was recorded for a test, or false if nothing was.
func (r *Recorder) Record(id framework.TestID) (TestRecord, bool) {
	r.lock.Lock()
	defer r.lock.Unlock()
	rec, ok := r.records[id.String()]
	if !ok {
		return TestRecord{}, false
	}
	ret := *rec
	ret.Events = append([]string(nil), rec.Events...)
	ret.Messages = append([]string(nil), rec.Messages...)
	return ret, true
}

// Tests returns the IDs of all tests seen, in the order they were first seen.
func (r *Recorder) Tests() []framework.TestID {
	r.lock.Lock()
	defer r.lock.Unlock()
	ret := make([]framework.TestID, 0, len(r.order))
	for _, key := range r.order {
		ret = append(ret, r.records[key].ID)
	}
	return ret
}

func (r *Recorder) with(id framework.TestID, event string, action func(*TestRecord)) {
	r.lock.Lock()
	defer r.lock.Unlock()
	rec, ok := r.records[id.String()]
	if !ok {
		rec = &TestRecord{
			ID:          id,
			Screenshots: make(map[string][]byte),
			Tags:        make(map[string]string),
		}
		r.records[id.String()] = rec
		r.order = append(r.order, id.String())
	}
	rec.Events = append(rec.Events, event)
	if action != nil {
		action(rec)
	}
}

func (r *Recorder) OnTestStart(id framework.TestID) {
	r.with(id, "start", nil)
}

func (r *Recorder) OnTestEnd(id framework.TestID, outcome Outcome) {
	r.with(id, "end", func(rec *TestRecord) { rec.Outcome = &outcome })
}

func (r *Recorder) OnStepStart(id framework.TestID, step string) {
	r.with(id, "step start: "+step, nil)
}

func (r *Recorder) OnStepEnd(id framework.TestID, step string, err error) {
	event := "step end: " + step
	if err != nil {
		event = fmt.Sprintf("step failed: %s: %s", step, err)
	}
	r.with(id, event, nil)
}

func (r *Recorder) AddScreenshot(id framework.TestID, name string, png []byte) {
	r.with(id, "screenshot: "+name, func(rec *TestRecord) { rec.Screenshots[name] = png })
}

func (r *Recorder) AddTrace(id framework.TestID, path string) {
	r.with(id, "trace", func(rec *TestRecord) { rec.Traces = append(rec.Traces, path) })
}

func (r *Recorder) AddVideo(id framework.TestID, path string) {
	r.with(id, "video", func(rec *TestRecord) { rec.Videos = append(rec.Videos, path) })
}

func (r *Recorder) AddAttachment(id framework.TestID, attachment Attachment) {
	r.with(id, "attachment: "+attachment.Name, func(rec *TestRecord) {
		rec.Attachments = append(rec.Attachments, attachment)
	})
}

func (r *Recorder) Log(id framework.TestID, message string) {
	r.with(id, "log", func(rec *TestRecord) { rec.Messages = append(rec.Messages, message) })
}

func (r *Recorder) SetTag(id framework.TestID, key, value string) {
	r.with(id, "tag", func(rec *TestRecord) { rec.Tags[key] = value })
}
