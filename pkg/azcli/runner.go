package azcli

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/codeskyblue/go-sh"
)

// shellRunner runs binaries through go-sh, capturing stdout and stderr.
type shellRunner struct{}

func (shellRunner) Run(ctx context.Context, binary string, args []string) ([]byte, []byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	cmdArgs := make([]interface{}, len(args))
	for i, a := range args {
		cmdArgs[i] = a
	}

	var stdout, stderr bytes.Buffer
	session := sh.NewSession()
	session.Stdout = &stdout
	session.Stderr = &stderr
	session.Command(binary, cmdArgs...)

	if err := session.Start(); err != nil {
		return nil, stderr.Bytes(), fmt.Errorf("failed to start %s: %w", binary, err)
	}

	done := make(chan error, 1)
	go func() {
		done <- session.Wait()
	}()

	select {
	case err := <-done:
		return stdout.Bytes(), stderr.Bytes(), err
	case <-ctx.Done():
		session.Kill(os.Kill)
		<-done
		return stdout.Bytes(), stderr.Bytes(), ctx.Err()
	}
}
