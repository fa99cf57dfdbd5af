// Package executor forwards run requests to a remote code execution
// service and always answers with a well-formed Result.
package executor

//go:generate mockgen -source=executor.go -destination=mock/runner.go -package=mock

import "context"

type Request struct {
	Source   string
	Language string
	Stdin    string
}

// Result is what the room sees. On failure Failed is set and the failure
// message takes the place of the program output.
type Result struct {
	Stdout string
	Stderr string
	Output string
	Code   *int
	Failed bool
}

// Runner executes source code. Implementations never return an error;
// failures are folded into the Result.
type Runner interface {
	Execute(ctx context.Context, req Request) Result
}

// Failure builds the Result for a failed run.
func Failure(msg string) Result {
	return Result{Stdout: msg, Output: msg, Stderr: msg, Failed: true}
}
