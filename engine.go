package rtm

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// Status classifies an execution outcome.
type Status uint8

const (
	// StatusSuccess means the program committed successfully.
	StatusSuccess Status = iota

	// StatusAssertionFailed means a contract assertion failed with a message.
	StatusAssertionFailed

	// StatusOtherFailure covers every other failure.
	StatusOtherFailure
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusAssertionFailed:
		return "assertion failed"
	case StatusOtherFailure:
		return "failure"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// Outcome is the engine's classification of an executed program. The
// message is opaque.
type Outcome struct {
	Status  Status
	Message string
}

// Success is the outcome of a committed program.
func Success() Outcome {
	return Outcome{Status: StatusSuccess}
}

// AssertionFailed is the outcome of a program that failed the given assertion.
func AssertionFailed(message string) Outcome {
	return Outcome{Status: StatusAssertionFailed, Message: message}
}

// OtherFailure is the outcome of a program that failed for another reason.
func OtherFailure(message string) Outcome {
	return Outcome{Status: StatusOtherFailure, Message: message}
}

// IsSuccess reports whether the program committed.
func (o Outcome) IsSuccess() bool {
	return o.Status == StatusSuccess
}

func (o Outcome) String() string {
	if o.Message == "" {
		return o.Status.String()
	}
	return fmt.Sprintf("%s: %s", o.Status, o.Message)
}

// Receipt is what the engine returns for an executed program.
type Receipt struct {
	Outcome Outcome
	Fee     string // total fee paid, decimal text
	Program string // the program that was executed
}

// Authorization is the signing context a program runs under.
type Authorization struct {
	Account string // address of the signing account
}

// Engine executes finalized programs. Implementations live outside this
// package: a ledger simulator, a node client, or a test double.
type Engine interface {
	Execute(ctx context.Context, program string, auth Authorization) (*Receipt, error)
}

// EngineFunc adapts a function to the Engine interface.
type EngineFunc func(ctx context.Context, program string, auth Authorization) (*Receipt, error)

// Execute implements Engine.
func (f EngineFunc) Execute(ctx context.Context, program string, auth Authorization) (*Receipt, error) {
	return f(ctx, program, auth)
}

var (
	committedSuccess = regexp.MustCompile(`Transaction Status: COMMITTED SUCCESS`)
	committedFailure = regexp.MustCompile(`Transaction Status: COMMITTED FAILURE: (.*)`)
	panicMessage     = regexp.MustCompile(`\[ERROR\] Panicked at '(.*)'`)
	transactionFee   = regexp.MustCompile(`Transaction Fee: ([0-9]+(?:\.[0-9]+)?) XRD`)
)

// unreachableTrap is the failure a panicking blueprint reports.
const unreachableTrap = `KernelError(WasmRuntimeError(InterpreterError("Trap(Trap { kind: Unreachable })")))`

// ClassifyOutput turns the transaction report printed by the ledger
// simulator into an Outcome. A blueprint panic is an assertion failure
// carrying the panic message; any other committed failure carries the
// failure text. Output without a transaction status is a failure too.
func ClassifyOutput(stdout string) Outcome {
	if committedSuccess.MatchString(stdout) {
		return Success()
	}
	m := committedFailure.FindStringSubmatch(stdout)
	if m == nil {
		return OtherFailure("no transaction status in output")
	}
	reason := strings.TrimSpace(m[1])
	if reason == unreachableTrap {
		if p := panicMessage.FindStringSubmatch(stdout); p != nil {
			return AssertionFailed(p[1])
		}
	}
	return OtherFailure(reason)
}

// ParseReceipt reads the outcome and the total fee from the simulator's
// transaction report. Fee is empty when the report carries no fee line.
func ParseReceipt(stdout string) *Receipt {
	r := &Receipt{Outcome: ClassifyOutput(stdout)}
	if m := transactionFee.FindStringSubmatch(stdout); m != nil {
		r.Fee = m[1]
	}
	return r
}
