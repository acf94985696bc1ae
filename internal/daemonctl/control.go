package daemonctl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"otrack/internal/daemon"
)

const pollInterval = 200 * time.Millisecond

// LaunchOptions controls daemon process launch behavior.
type LaunchOptions struct {
	ConfigPath string
	LogLevel   string
}

type StartState string

const (
	StartStateStarted        StartState = "started"
	StartStateAlreadyRunning StartState = "already_running"
)

// StartResult captures daemon start orchestration state.
type StartResult struct {
	State StartState
	PID   int
}

// StopResult captures daemon stop/termination outcome.
type StopResult struct {
	PID        int
	ForcedKill bool
}

// RestartResult captures stop/start outcomes for daemon restart.
type RestartResult struct {
	WasRunning bool
	Stop       StopResult
	Start      StartResult
}

// Launch starts `<executable> daemon run` detached from the terminal.
func Launch(executablePath string, opts LaunchOptions) error {
	if strings.TrimSpace(executablePath) == "" {
		return fmt.Errorf("resolve executable: executable path is empty")
	}

	args := []string{"daemon", "run"}
	if cfg := strings.TrimSpace(opts.ConfigPath); cfg != "" {
		args = append(args, "--config", cfg)
	}
	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		args = append(args, "--log-level", level)
	}

	proc := exec.Command(executablePath, args...)
	proc.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := proc.Start(); err != nil {
		return fmt.Errorf("launch daemon: %w", err)
	}
	return proc.Process.Release()
}

// WaitForHealthy polls the health endpoint until it answers or timeout passes.
func WaitForHealthy(ctx context.Context, client *Client, timeout time.Duration) (daemon.Health, error) {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for {
		health, err := client.Health(ctx)
		if err == nil && health.Daemon.Running {
			return health, nil
		}
		if err == nil {
			err = errors.New("daemon reports not running")
		}
		lastErr = err
		if time.Now().After(deadline) {
			return daemon.Health{}, fmt.Errorf("daemon failed to start: %w", lastErr)
		}
		select {
		case <-ctx.Done():
			return daemon.Health{}, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

// EnsureStarted launches the daemon unless it already answers health checks.
func EnsureStarted(ctx context.Context, client *Client, executablePath string, opts LaunchOptions, waitTimeout time.Duration) (StartResult, error) {
	if health, err := client.Health(ctx); err == nil && health.Daemon.Running {
		return StartResult{State: StartStateAlreadyRunning, PID: health.Daemon.PID}, nil
	} else if err != nil && !IsUnavailable(err) {
		return StartResult{}, err
	}

	if err := Launch(executablePath, opts); err != nil {
		return StartResult{}, err
	}
	health, err := WaitForHealthy(ctx, client, waitTimeout)
	if err != nil {
		return StartResult{}, err
	}
	return StartResult{State: StartStateStarted, PID: health.Daemon.PID}, nil
}

// StopAndTerminate sends SIGTERM to the daemon and SIGKILL if it is still
// alive after gracePeriod. The PID comes from the health endpoint, falling
// back to pidPath when the API does not answer.
func StopAndTerminate(ctx context.Context, client *Client, pidPath string, gracePeriod time.Duration) (StopResult, error) {
	pid := 0
	health, err := client.Health(ctx)
	switch {
	case err == nil:
		pid = health.Daemon.PID
	case !IsUnavailable(err):
		return StopResult{}, err
	}
	if pid <= 0 {
		pid = readPIDFile(pidPath)
	}
	if pid <= 0 || !processAlive(pid) {
		return StopResult{}, ErrDaemonNotRunning
	}
	if pid == os.Getpid() {
		return StopResult{}, fmt.Errorf("refusing to signal current process (pid %d)", pid)
	}

	result := StopResult{PID: pid}
	if err := unix.Kill(pid, unix.SIGTERM); err != nil {
		if errors.Is(err, unix.ESRCH) {
			return result, nil
		}
		return result, fmt.Errorf("signal daemon process %d: %w", pid, err)
	}
	if waitForExit(ctx, pid, gracePeriod) {
		return result, nil
	}

	if err := unix.Kill(pid, unix.SIGKILL); err != nil && !errors.Is(err, unix.ESRCH) {
		return result, fmt.Errorf("kill daemon process %d: %w", pid, err)
	}
	result.ForcedKill = true
	if pidPath != "" {
		_ = os.Remove(pidPath)
	}
	return result, nil
}

// Restart stops the daemon if running, then ensures it is started.
func Restart(ctx context.Context, client *Client, pidPath, executablePath string, opts LaunchOptions, stopGracePeriod, startWaitTimeout time.Duration) (RestartResult, error) {
	stopResult, stopErr := StopAndTerminate(ctx, client, pidPath, stopGracePeriod)
	if stopErr != nil && !errors.Is(stopErr, ErrDaemonNotRunning) {
		return RestartResult{}, stopErr
	}

	startResult, err := EnsureStarted(ctx, client, executablePath, opts, startWaitTimeout)
	if err != nil {
		return RestartResult{}, err
	}

	return RestartResult{
		WasRunning: stopErr == nil,
		Stop:       stopResult,
		Start:      startResult,
	}, nil
}

func waitForExit(ctx context.Context, pid int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if !processAlive(pid) {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		select {
		case <-ctx.Done():
			return !processAlive(pid)
		case <-time.After(pollInterval):
		}
	}
}

func processAlive(pid int) bool {
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}

func readPIDFile(path string) int {
	if path == "" {
		return 0
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0
	}
	return pid
}
