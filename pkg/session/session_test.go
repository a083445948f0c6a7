package session

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/open-teleop/rovpilot/pkg/config"
	"github.com/open-teleop/rovpilot/pkg/control"
	"github.com/open-teleop/rovpilot/pkg/input"
	"github.com/open-teleop/rovpilot/pkg/journal"
	"github.com/open-teleop/rovpilot/pkg/link"
	"github.com/open-teleop/rovpilot/pkg/log"
	"github.com/open-teleop/rovpilot/pkg/rov"
	"github.com/open-teleop/rovpilot/pkg/telemetry"
)

type fakeChannel struct {
	mu        sync.Mutex
	sent      []rov.Command
	responses []rov.Response
	fail      func(n int, cmd rov.Command) error
	attempts  int
	closed    bool
}

func (f *fakeChannel) SendCommand(cmd rov.Command) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts++
	if f.fail != nil {
		if err := f.fail(f.attempts, cmd); err != nil {
			return err
		}
	}
	f.sent = append(f.sent, cmd)
	return nil
}

func (f *fakeChannel) PollResponses() []rov.Response {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.responses
	f.responses = nil
	return out
}

func (f *fakeChannel) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// takeSent returns and clears the commands sent so far.
func (f *fakeChannel) takeSent() []rov.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.sent
	f.sent = nil
	return out
}

type captureRenderer struct {
	last  telemetry.Snapshot
	count int
}

func (r *captureRenderer) Render(s telemetry.Snapshot) {
	r.last = s
	r.count++
}

type captureRecorder struct {
	records []journal.Record
}

func (r *captureRecorder) Record(rec journal.Record) bool {
	r.records = append(r.records, rec)
	return true
}

func newTestEngine(t *testing.T, logBuf *bytes.Buffer) *Engine {
	t.Helper()
	cfg := config.Default()
	mixer, err := control.NewMixer(cfg.Control)
	if err != nil {
		t.Fatalf("NewMixer failed: %v", err)
	}
	logger := log.NewNopLogger()
	if logBuf != nil {
		logger = log.NewWriterLogger("debug", logBuf)
	}
	return &Engine{
		Input:    input.NewQueue(),
		Config:   cfg,
		Mixer:    mixer,
		Logger:   logger,
		Renderer: &captureRenderer{},
		Recorder: &captureRecorder{},
	}
}

// startControl builds an initialised control session and discards the
// baseline commands.
func startControl(t *testing.T, e *Engine, ch *fakeChannel) *RovControl {
	t.Helper()
	c := NewRovControl("/dev/ttyTEST", ch)
	if err := c.Init(e); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	ch.takeSent()
	return c
}

func frameAt(base time.Time, ms int) Frame {
	return Frame{Now: base.Add(time.Duration(ms) * time.Millisecond), Delta: time.Millisecond}
}

func TestInitSendsBaseline(t *testing.T) {
	e := newTestEngine(t, nil)
	ch := &fakeChannel{}
	c := NewRovControl("/dev/ttyTEST", ch)
	if err := c.Init(e); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	sent := ch.takeSent()
	if len(sent) != 1+rov.MotorCount+1 {
		t.Fatalf("Expected master, motors and lights, got %v", sent)
	}
	if sent[0] != rov.MasterOff() || sent[len(sent)-1] != rov.LightsOff() {
		t.Errorf("Unexpected baseline %v", sent)
	}
}

func TestInitLinkFailureIsFatal(t *testing.T) {
	e := newTestEngine(t, nil)
	ch := &fakeChannel{fail: func(int, rov.Command) error {
		return &link.LinkError{Kind: link.Disconnected}
	}}
	c := NewRovControl("/dev/ttyTEST", ch)
	err := c.Init(e)
	if !errors.Is(err, link.ErrDisconnected) {
		t.Fatalf("Expected ErrDisconnected, got %v", err)
	}
}

func TestDispatchCadence(t *testing.T) {
	e := newTestEngine(t, nil)
	ch := &fakeChannel{}
	c := startControl(t, e, ch)
	base := time.Now()

	e.Input.Push(input.AxisMotion(input.AxisLeftY, 16384))
	c.Update(e, frameAt(base, 0))
	if sent := ch.takeSent(); len(sent) != 4 {
		t.Fatalf("Expected 4 motor commands on the first frame, got %v", sent)
	}

	e.Input.Push(input.AxisMotion(input.AxisLeftY, 0))
	c.Update(e, frameAt(base, 1))
	c.Update(e, frameAt(base, 4))
	if sent := ch.takeSent(); len(sent) != 0 {
		t.Fatalf("Dispatched before the interval elapsed: %v", sent)
	}

	c.Update(e, frameAt(base, 5))
	sent := ch.takeSent()
	if len(sent) != 4 {
		t.Fatalf("Expected 4 motor commands after 5ms, got %v", sent)
	}
	for _, cmd := range sent {
		if cmd.Throttle != 0 {
			t.Errorf("Expected motors back at 0, got %v", cmd)
		}
	}
}

func TestSamplerReleaseIsOneShot(t *testing.T) {
	e := newTestEngine(t, nil)
	ch := &fakeChannel{}
	c := startControl(t, e, ch)
	base := time.Now()

	e.Input.Push(input.ButtonDown(input.ButtonLeftShoulder), input.ButtonDown(input.ButtonB))
	c.Update(e, frameAt(base, 0))

	sent := ch.takeSent()
	if len(sent) != 1 || sent[0] != rov.CollectSamples(rov.SampleAmountAll) {
		t.Fatalf("Expected collect_samples(all), got %v", sent)
	}
	if c.previous.SamplerRelease || c.current.SamplerRelease {
		t.Errorf("Sampler release should be cleared after dispatch")
	}
	if !c.vehicle.State().SamplerRelay {
		t.Errorf("Mirror sampler relay should be pulsing")
	}

	c.Update(e, frameAt(base, 10))
	if sent := ch.takeSent(); len(sent) != 0 {
		t.Errorf("Sampler command repeated: %v", sent)
	}
}

func TestSendTimeoutContinuesAndResyncs(t *testing.T) {
	var logBuf bytes.Buffer
	e := newTestEngine(t, &logBuf)
	ch := &fakeChannel{}
	c := startControl(t, e, ch)
	base := time.Now()

	ch.fail = func(n int, cmd rov.Command) error {
		if cmd == rov.LightsOn() {
			return &link.LinkError{Kind: link.Timeout, Command: cmd}
		}
		return nil
	}

	e.Input.Push(input.ButtonDown(input.ButtonY))
	trans := c.Update(e, frameAt(base, 0))
	if trans.Action != Continue {
		t.Fatalf("Session should continue after a send timeout, got %v", trans.Action)
	}
	if c.State() != Active {
		t.Fatalf("Session should stay active")
	}
	if !c.resync {
		t.Fatalf("A failed cycle should schedule a resync")
	}
	if !strings.Contains(logBuf.String(), "link write timed out") {
		t.Errorf("Expected the timeout to be logged, got %q", logBuf.String())
	}

	ch.fail = nil
	c.Update(e, frameAt(base, 5))
	sent := ch.takeSent()
	if len(sent) != 1+rov.MotorCount+1 || sent[len(sent)-1] != rov.LightsOn() {
		t.Fatalf("Expected an absolute resync ending with lights_on, got %v", sent)
	}
	if c.resync || c.failureStreak != 0 {
		t.Errorf("Successful cycle should clear the resync state")
	}
	if !strings.Contains(logBuf.String(), "recovered after 1 failed cycles") {
		t.Errorf("Expected a recovery log line, got %q", logBuf.String())
	}

	c.Update(e, frameAt(base, 10))
	if sent := ch.takeSent(); len(sent) != 0 {
		t.Errorf("Expected no commands once in sync, got %v", sent)
	}
}

func TestQuitEvents(t *testing.T) {
	for _, ev := range []input.Event{input.Quit(), input.KeyUp(input.KeyEscape)} {
		e := newTestEngine(t, nil)
		c := startControl(t, e, &fakeChannel{})

		e.Input.Push(ev)
		if trans := c.Update(e, frameAt(time.Now(), 0)); trans.Action != Quit {
			t.Errorf("%v should quit, got %v", ev, trans.Action)
		}
		if c.State() != Terminating {
			t.Errorf("%v should move the session to terminating", ev)
		}
	}
}

func TestOfflineSessionDrivesMirror(t *testing.T) {
	e := newTestEngine(t, nil)
	c := NewRovControl("", nil)
	if err := c.Init(e); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	e.Input.Push(input.ButtonDown(input.ButtonStart), input.AxisMotion(input.AxisTriggerLeft, 32767))
	c.Update(e, frameAt(time.Now(), 0))

	s := e.Renderer.(*captureRenderer).last
	if s.Online {
		t.Errorf("Offline session should not report online")
	}
	if !s.Mirror.RobotIsOn {
		t.Errorf("Mirror should show the master relay on")
	}
	if s.Mirror.Motors[4] == 0 || s.Mirror.Motors[5] == 0 {
		t.Errorf("Vertical motors should be running, got %v", s.Mirror.Motors)
	}
	if got := len(e.Recorder.(*captureRecorder).records); got != 1 {
		t.Errorf("Expected one journal record, got %d", got)
	}
}

func TestResponsesAreSurfaced(t *testing.T) {
	var logBuf bytes.Buffer
	e := newTestEngine(t, &logBuf)
	ch := &fakeChannel{}
	c := startControl(t, e, ch)

	ch.responses = []rov.Response{
		{Kind: rov.ResponseHello, Text: "2.1.0"},
		{Kind: rov.ResponseFault, Text: "leak detected"},
	}
	c.Update(e, frameAt(time.Now(), 0))

	out := logBuf.String()
	if !strings.Contains(out, "firmware check failed") {
		t.Errorf("Expected firmware warning, got %q", out)
	}
	if !strings.Contains(out, "Vehicle fault: leak detected") {
		t.Errorf("Expected fault to be logged, got %q", out)
	}

	s := e.Renderer.(*captureRenderer).last
	if s.Firmware != "2.1.0" || len(s.Responses) != 2 || s.LastError != "leak detected" {
		t.Errorf("Unexpected snapshot %+v", s)
	}
}

func TestCloseStopsMotorsAndReleasesChannel(t *testing.T) {
	e := newTestEngine(t, nil)
	ch := &fakeChannel{}
	c := startControl(t, e, ch)

	if err := c.Close(e); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !ch.closed {
		t.Errorf("Channel should be closed")
	}
	if sent := ch.takeSent(); len(sent) != rov.MotorCount {
		t.Errorf("Expected every motor to be stopped, got %v", sent)
	}
}

func TestPortSelectSwitchesToControl(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"ttyACM0", "ttyACM1"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0644); err != nil {
			t.Fatalf("Failed to create fake device: %v", err)
		}
	}

	e := newTestEngine(t, nil)
	ch := &fakeChannel{}
	var opened string
	e.Open = func(path string) (link.Channel, error) {
		opened = path
		return ch, nil
	}

	p := NewPortSelect([]string{filepath.Join(dir, "ttyACM*")})
	if err := p.Init(e); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if len(p.ports) != 2 {
		t.Fatalf("Expected 2 ports, got %v", p.ports)
	}

	base := time.Now()
	e.Input.Push(input.ButtonDown(input.ButtonDPadDown))
	if trans := p.Update(e, frameAt(base, 0)); trans.Action != Continue {
		t.Fatalf("Expected Continue, got %v", trans.Action)
	}
	if p.Selected() != filepath.Join(dir, "ttyACM1") {
		t.Fatalf("Expected cursor on ttyACM1, got %s", p.Selected())
	}

	e.Input.Push(input.ButtonDown(input.ButtonA))
	trans := p.Update(e, frameAt(base, 1))
	if trans.Action != Switch || trans.Next.Kind != KindControl {
		t.Fatalf("Expected a switch to the control screen, got %+v", trans)
	}
	if opened != filepath.Join(dir, "ttyACM1") {
		t.Errorf("Opened %s", opened)
	}
	if trans.Next.Control.channel != ch {
		t.Errorf("Control screen should own the opened channel")
	}
}

func TestPortSelectOpenFailureStays(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "ttyUSB0"), nil, 0644); err != nil {
		t.Fatalf("Failed to create fake device: %v", err)
	}

	e := newTestEngine(t, nil)
	e.Open = func(path string) (link.Channel, error) {
		return nil, errors.New("permission denied")
	}

	p := NewPortSelect([]string{filepath.Join(dir, "ttyUSB*")})
	if err := p.Init(e); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	e.Input.Push(input.KeyUp(input.KeyEnter))
	if trans := p.Update(e, frameAt(time.Now(), 0)); trans.Action != Continue {
		t.Fatalf("Expected to stay on the selection screen, got %v", trans.Action)
	}
	if s := e.Renderer.(*captureRenderer).last; s.LastError != "permission denied" || s.Screen != telemetry.ScreenPortSelect {
		t.Errorf("Unexpected snapshot %+v", s)
	}
}

func TestRunClosesScreenOnQuit(t *testing.T) {
	e := newTestEngine(t, nil)
	ch := &fakeChannel{}
	c := NewRovControl("/dev/ttyTEST", ch)

	e.Input.Push(input.ButtonDown(input.ButtonY))
	go func() {
		time.Sleep(20 * time.Millisecond)
		e.Input.Push(input.Quit())
	}()

	if err := Run(e, ControlScreen(c)); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !ch.closed {
		t.Errorf("Channel should be closed when the session quits")
	}
	if !c.vehicle.State().LightRelay {
		t.Errorf("Lights command should have been dispatched before quitting")
	}
}

func TestRunInitFailure(t *testing.T) {
	e := newTestEngine(t, nil)
	ch := &fakeChannel{fail: func(int, rov.Command) error {
		return &link.LinkError{Kind: link.Timeout}
	}}

	err := Run(e, ControlScreen(NewRovControl("/dev/ttyTEST", ch)))
	if err == nil || !strings.Contains(err.Error(), "failed to initialize screen") {
		t.Fatalf("Expected initialization error, got %v", err)
	}
	if !errors.Is(err, link.ErrTimeout) {
		t.Errorf("Cause should be preserved, got %v", err)
	}
	if !ch.closed {
		t.Errorf("Channel should be released after a failed init")
	}
}

func TestScreenRejectsEmptyVariant(t *testing.T) {
	e := newTestEngine(t, nil)
	if err := (Screen{Kind: KindControl}).Init(e); err == nil {
		t.Errorf("Expected error for a control screen without state")
	}
}
