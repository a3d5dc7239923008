package xrl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"time"

	"github.com/golang/glog"

	"github.com/oklog/ulid/v2"
)

type CoreProcSettings struct {
	// how long Close waits for the core to exit after stdin closes
	// before killing it
	ShutdownTimeout time.Duration
}

func DefaultCoreProcSettings() *CoreProcSettings {
	return &CoreProcSettings{
		ShutdownTimeout: 5 * time.Second,
	}
}

// CoreProc runs the core as a child process and speaks its native framing:
// one JSON object per LF-terminated line on stdin/stdout. Replies are
// correlated by id; core-initiated traffic goes to the frontend handler.
// When the process exits, every in-flight request fails and the transport
// rejects new calls.
type CoreProc struct {
	ctx    context.Context
	cancel context.CancelFunc

	settings *CoreProcSettings
	handler  FrontendHandler

	// log tag for this connection
	tag string

	cmd     *exec.Cmd
	stdin   io.WriteCloser
	codec   *streamCodec
	pending *pendingCalls

	exited chan struct{}
}

func NewCoreProcWithDefaults(
	ctx context.Context,
	handler FrontendHandler,
	command string,
	args ...string,
) (*CoreProc, error) {
	return NewCoreProc(ctx, handler, DefaultCoreProcSettings(), command, args...)
}

func NewCoreProc(
	ctx context.Context,
	handler FrontendHandler,
	settings *CoreProcSettings,
	command string,
	args ...string,
) (*CoreProc, error) {
	if handler == nil {
		handler = noopFrontend
	}
	cancelCtx, cancel := context.WithCancel(ctx)

	cmd := exec.CommandContext(cancelCtx, command, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		cancel()
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		cancel()
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, err
	}

	proc := &CoreProc{
		ctx:      cancelCtx,
		cancel:   cancel,
		settings: settings,
		handler:  handler,
		tag:      fmt.Sprintf("xic %s", ulid.Make()),
		cmd:      cmd,
		stdin:    stdin,
		codec:    newStreamCodec(stdout, stdin),
		pending:  newPendingCalls(),
		exited:   make(chan struct{}),
	}
	glog.Infof("[%s]core started: %s (pid %d)\n", proc.tag, command, cmd.Process.Pid)

	go proc.readLoop()
	go proc.forwardStderr(stderr)
	go proc.waitExit()

	return proc, nil
}

func (self *CoreProc) Notify(method string, params []byte) error {
	select {
	case <-self.ctx.Done():
		return fmt.Errorf("core process closed")
	default:
	}
	return self.codec.write(notificationMessage(method, params))
}

func (self *CoreProc) Request(method string, params []byte) *Pending {
	pending := newPending()
	id, err := self.pending.add(pending)
	if err != nil {
		return failedPending(err)
	}
	if err := self.codec.write(requestMessage(id, method, params)); err != nil {
		self.pending.remove(id)
		pending.resolve(Reply{Err: err})
	}
	return pending
}

// Close shuts the core down: stdin closes first so it can exit cleanly,
// then the process is killed after the shutdown grace.
func (self *CoreProc) Close() error {
	self.pending.close(fmt.Errorf("core process closed"))
	self.stdin.Close()
	select {
	case <-self.exited:
	case <-time.After(self.settings.ShutdownTimeout):
		glog.Infof("[%s]core did not exit, killing\n", self.tag)
		self.cmd.Process.Kill()
		<-self.exited
	}
	self.cancel()
	return nil
}

func (self *CoreProc) readLoop() {
	defer self.cancel()

	for {
		message, err := self.codec.read()
		if err != nil {
			if err != io.EOF {
				glog.Infof("[%s]core read error = %s\n", self.tag, err)
			}
			self.pending.close(fmt.Errorf("core connection lost: %w", err))
			return
		}
		routeInbound(self.tag, message, self.pending, self.handler, self.codec.write)
	}
}

func (self *CoreProc) forwardStderr(stderr io.Reader) {
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		glog.Infof("[%s]core: %s\n", self.tag, scanner.Text())
	}
}

func (self *CoreProc) waitExit() {
	defer close(self.exited)

	err := self.cmd.Wait()
	if err != nil {
		glog.Infof("[%s]core exited = %s\n", self.tag, err)
	} else {
		glog.Infof("[%s]core exited\n", self.tag)
	}
	self.pending.close(fmt.Errorf("core process exited"))
	self.cancel()
}
