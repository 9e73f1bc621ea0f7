package e2e

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"

	"github.com/vladimirvivien/gexe/exec"
)

func runCommand(command string, env []string) (string, error) {
	stdout := bytes.NewBufferString("")
	stderr := bytes.NewBufferString("")

	proc := exec.NewProc(command)
	proc.Command().Stdout = stdout
	proc.Command().Stderr = stderr

	if len(env) > 0 {
		proc.Command().Env = env
	}

	proc.Start().Wait()

	err := proc.Err()
	if err != nil {
		sOutput, _ := io.ReadAll(stdout)
		sErr, _ := io.ReadAll(stderr)

		return "", fmt.Errorf("failed to run command (%w): stdout:%s stderr:%s", err, string(sOutput), string(sErr))
	}

	return stdout.String(), nil
}

// Background is a command running until Stop is called.
type Background struct {
	proc   *exec.Proc
	output *bytes.Buffer
}

func startCommand(command string) (*Background, error) {
	output := bytes.NewBufferString("")

	proc := exec.NewProc(command)
	proc.Command().Stdout = output
	proc.Command().Stderr = output

	proc.Start()

	err := proc.Err()
	if err != nil {
		return nil, fmt.Errorf("failed to start command: %w", err)
	}

	return &Background{proc: proc, output: output}, nil
}

// Stop interrupts the command and waits for it to exit.
func (b *Background) Stop() error {
	err := b.proc.Command().Process.Signal(syscall.SIGTERM)
	if err != nil {
		return fmt.Errorf("failed to signal command: %w", err)
	}

	b.proc.Wait()

	err = b.proc.Err()
	if err != nil {
		return fmt.Errorf("command failed (%w): %s", err, b.output.String())
	}

	return nil
}

// BuildBinary compiles the notifier into dir and returns its path.
func BuildBinary(dir string) (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}

	// move up twice to go back to the root dir
	rootDir := wd
	if filepath.Base(wd) == "e2e" {
		rootDir = filepath.Dir(filepath.Dir(wd))
	}

	ret := filepath.Join(dir, "outage-notifier")

	_, err = runCommand(fmt.Sprintf("go build -C %s -o %s ./cmd/outage-notifier", rootDir, ret), nil)
	if err != nil {
		return "", err
	}

	return ret, nil
}
