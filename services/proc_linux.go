//go:build linux

package services

import (
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

const killGracePeriod = 2 * time.Second

// configureProcess puts the worker in its own process group so a timeout
// kills the interpreter together with anything it spawned.
func configureProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = killGracePeriod
}

func limitMemory(pid int, bytes int64) error {
	lim := &unix.Rlimit{Cur: uint64(bytes), Max: uint64(bytes)}
	return unix.Prlimit(pid, unix.RLIMIT_AS, lim, nil)
}
