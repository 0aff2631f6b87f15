/*
Copyright © 2020 the gemini3d-go authors.
This file is part of gemini3d-go.

gemini3d-go is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

gemini3d-go is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with gemini3d-go.  If not, see <http://www.gnu.org/licenses/>.
*/

package msis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/sirupsen/logrus"
)

// Builder compiles the MSIS executable with CMake. Ensure may be called
// from many goroutines and many processes at once; the build runs
// only once.
type Builder struct {
	// Src is the CMake source directory.
	Src string

	// BuildDir is the CMake build directory. The lock file that keeps
	// other processes from building at the same time is BuildDir + ".lock".
	BuildDir string

	// Target is the path of the executable the build produces. Its base
	// name, without any ".exe" suffix, is the CMake target.
	Target string

	// CMake is the cmake command. If it is empty, "cmake" is used.
	CMake string

	// Wait controls how often a process that finds the lock held checks
	// whether the other build has finished. If it is nil, an exponential
	// backoff with no time limit is used.
	Wait backoff.BackOff

	// StaleAge is how old a lock file without a readable process ID
	// must be before it is taken to be left over from a build that
	// died. If it is zero, one hour is used. A lock naming a process
	// that no longer runs is stale at any age.
	StaleAge time.Duration

	Log logrus.FieldLogger

	mu   sync.Mutex
	done bool
}

// Ensure builds the executable if it does not already exist.
func (b *Builder) Ensure(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.done {
		return nil
	}
	if isFile(b.Target) {
		b.done = true
		return nil
	}

	lock := filepath.Clean(b.BuildDir) + ".lock"
	if err := os.MkdirAll(filepath.Dir(lock), 0755); err != nil {
		return fmt.Errorf("msis: %v", err)
	}
	for {
		f, err := os.OpenFile(lock, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err == nil {
			fmt.Fprintf(f, "%d\n", os.Getpid())
			f.Close()
			defer os.Remove(lock)
			if err := b.build(ctx); err != nil {
				return err
			}
			break
		}
		if !os.IsExist(err) {
			return fmt.Errorf("msis: creating build lock: %v", err)
		}
		held, stale, err := b.wait(ctx, lock)
		if err != nil {
			return err
		}
		if !stale {
			break
		}
		// Only remove the lock if nobody has replaced it since it was
		// found to be stale.
		if now, _ := os.ReadFile(lock); string(now) == held {
			logger(b.Log).WithField("lock", lock).Warnf("msis: removing stale build lock held by %q", strings.TrimSpace(held))
			if err := os.Remove(lock); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("msis: removing stale build lock: %v", err)
			}
		}
	}
	if !isFile(b.Target) {
		return fmt.Errorf("msis: build did not produce %s: %w", b.Target, ErrToolFailure)
	}
	b.done = true
	return nil
}

// wait blocks until the lock file is released by the process that holds
// it. If the holder has died, wait reports the lock as stale along with
// the contents it was found with.
func (b *Builder) wait(ctx context.Context, lock string) (held string, stale bool, err error) {
	wait := b.Wait
	if wait == nil {
		eb := backoff.NewExponentialBackOff()
		eb.MaxElapsedTime = 0
		wait = eb
	}
	log := logger(b.Log).WithField("lock", lock)
	err = backoff.RetryNotify(
		func() error {
			if err := ctx.Err(); err != nil {
				return backoff.Permanent(err)
			}
			content, alive, err := b.lockHolder(lock)
			if os.IsNotExist(err) {
				return nil
			}
			if err == nil && !alive {
				held, stale = content, true
				return nil
			}
			return fmt.Errorf("msis: %s is being built by another process", b.Target)
		},
		wait,
		func(err error, d time.Duration) {
			log.Infof("%v: retrying in %v", err, d)
		},
	)
	return held, stale, err
}

// lockHolder reads the lock file and reports whether the build holding it
// may still be running.
func (b *Builder) lockHolder(lock string) (content string, alive bool, err error) {
	fi, err := os.Stat(lock)
	if err != nil {
		return "", false, err
	}
	raw, err := os.ReadFile(lock)
	if err != nil {
		return "", false, err
	}
	content = string(raw)
	if pid, err := strconv.Atoi(strings.TrimSpace(content)); err == nil && pid > 0 {
		return content, processAlive(pid), nil
	}
	// The holder may not have written its process ID yet.
	age := b.StaleAge
	if age == 0 {
		age = time.Hour
	}
	return content, time.Since(fi.ModTime()) < age, nil
}

// processAlive reports whether a process with the given ID is running on
// this machine.
func processAlive(pid int) bool {
	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	if runtime.GOOS == "windows" {
		// FindProcess fails on Windows if there is no such process.
		p.Release()
		return true
	}
	err = p.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}

func (b *Builder) build(ctx context.Context) error {
	cmake := b.CMake
	if cmake == "" {
		cmake = "cmake"
	}
	target := strings.TrimSuffix(filepath.Base(b.Target), ".exe")
	for _, args := range [][]string{
		{"-S", b.Src, "-B", b.BuildDir, "-DBUILD_TESTING:BOOL=false"},
		{"--build", b.BuildDir, "--target", target},
	} {
		cmd := execCommandContext(ctx, cmake, args...)
		cmdline := strings.Join(cmd.Args, " ")
		logger(b.Log).Info(cmdline)
		if out, err := cmd.CombinedOutput(); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			code := -1
			if cmd.ProcessState != nil {
				code = cmd.ProcessState.ExitCode()
			}
			return &ToolError{Cmd: cmdline, ExitCode: code, Output: string(out)}
		}
	}
	return nil
}

func isFile(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}

func logger(l logrus.FieldLogger) logrus.FieldLogger {
	if l == nil {
		return logrus.StandardLogger()
	}
	return l
}
