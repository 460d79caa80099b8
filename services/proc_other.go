//go:build !linux

package services

import (
	"errors"
	"os/exec"
	"time"
)

const killGracePeriod = 2 * time.Second

func configureProcess(cmd *exec.Cmd) {
	cmd.WaitDelay = killGracePeriod
}

func limitMemory(pid int, bytes int64) error {
	return errors.New("memory limits are only supported on linux")
}
