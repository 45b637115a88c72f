package reporter

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/launchdarkly/test-scaffold/framework"
)

var (
	testColor = color.New(color.Bold)
	failColor = color.New(color.FgRed)
	skipColor = color.New(color.FgYellow)
	stepColor = color.New(color.FgCyan)
)

// Console writes human-readable progress to a stream. It is both a Reporter, for the hooks
// called by the orchestrator, and a framework.TestLogger, for the notifications of the test
// runner itself.
type Console struct {
	Out                  io.Writer
	DebugOutputOnFailure bool
	DebugOutputOnSuccess bool

	tags map[string]map[string]string
	lock sync.Mutex
}

// NewConsole creates a Console that writes to standard output.
func NewConsole() *Console {
	return &Console{Out: os.Stdout}
}

func (c *Console) printf(message string, args ...interface{}) {
	c.lock.Lock()
	defer c.lock.Unlock()
	fmt.Fprintf(c.out(), message, args...)
}

func (c *Console) out() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

func (c *Console) TestStarted(id framework.TestID) {
	c.lock.Lock()
	defer c.lock.Unlock()
	testColor.Fprintf(c.out(), "[%s]\n", id)
}

func (c *Console) TestError(id framework.TestID, err error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	for _, line := range strings.Split(err.Error(), "\n") {
		fmt.Fprintf(c.out(), "  %s\n", line)
	}
}

func (c *Console) TestFinished(id framework.TestID, failed bool, debugOutput framework.CapturedOutput) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if failed {
		failColor.Fprintf(c.out(), "  FAILED: %s\n", id)
	}
	if len(debugOutput) > 0 &&
		((failed && c.DebugOutputOnFailure) || (!failed && c.DebugOutputOnSuccess)) {
		debugOutput.Dump(c.out(), "    DEBUG ")
	}
}

func (c *Console) TestSkipped(id framework.TestID, reason string) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if reason == "" {
		skipColor.Fprintf(c.out(), "  SKIPPED: %s\n", id)
	} else {
		skipColor.Fprintf(c.out(), "  SKIPPED: %s (%s)\n", id, reason)
	}
}

// OnTestStart does nothing, since TestStarted has already printed the test name.
func (c *Console) OnTestStart(id framework.TestID) {}

// OnTestEnd prints any tags that were set for the test, followed by its duration.
func (c *Console) OnTestEnd(id framework.TestID, outcome Outcome) {
	c.lock.Lock()
	defer c.lock.Unlock()
	tags := c.tags[id.String()]
	delete(c.tags, id.String())
	if len(tags) > 0 {
		keys := make([]string, 0, len(tags))
		for k := range tags {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+"="+tags[k])
		}
		fmt.Fprintf(c.out(), "  tags: %s\n", strings.Join(parts, ", "))
	}
	if outcome.Duration > 0 {
		fmt.Fprintf(c.out(), "  (%s)\n", outcome.Duration)
	}
}

func (c *Console) OnStepStart(id framework.TestID, step string) {
	c.lock.Lock()
	defer c.lock.Unlock()
	stepColor.Fprintf(c.out(), "  - %s\n", step)
}

func (c *Console) OnStepEnd(id framework.TestID, step string, err error) {
	if err != nil {
		c.lock.Lock()
		defer c.lock.Unlock()
		failColor.Fprintf(c.out(), "  - %s failed: %s\n", step, err)
	}
}

func (c *Console) AddScreenshot(id framework.TestID, name string, png []byte) {
	c.printf("  screenshot %q (%d bytes)\n", name, len(png))
}

func (c *Console) AddTrace(id framework.TestID, path string) {
	c.printf("  trace: %s\n", path)
}

func (c *Console) AddVideo(id framework.TestID, path string) {
	c.printf("  video: %s\n", path)
}

func (c *Console) AddAttachment(id framework.TestID, attachment Attachment) {
	c.printf("  attachment %q (%s, %d bytes)\n", attachment.Name, attachment.ContentType, len(attachment.Body))
}

func (c *Console) Log(id framework.TestID, message string) {
	c.printf("  %s\n", message)
}

func (c *Console) SetTag(id framework.TestID, key, value string) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.tags == nil {
		c.tags = make(map[string]map[string]string)
	}
	if c.tags[id.String()] == nil {
		c.tags[id.String()] = make(map[string]string)
	}
	c.tags[id.String()][key] = value
}
