package rtm

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Placeholder names bound from the call context rather than from arguments.
const (
	CallerPlaceholder    = "caller_address"
	FeePayerPlaceholder  = "fee_payer_address"
	ComponentPlaceholder = "component_address"
	PackagePlaceholder   = "package_address"
	BadgePlaceholder     = "badge_address"
)

// Account method names used by the scheduler.
const (
	methodLockFee             = "lock_fee"
	methodWithdrawByAmount    = "withdraw_by_amount"
	methodWithdrawByIDs       = "withdraw_by_ids"
	methodCreateProof         = "create_proof"
	methodCreateProofByAmount = "create_proof_by_amount"
	methodCreateProofByIDs    = "create_proof_by_ids"
	methodDepositBatch        = "deposit_batch"
)

// entireWorktop is the expression that sweeps every resource left on the worktop.
const entireWorktop = `Expression("ENTIRE_WORKTOP")`

// Handle identifies a bucket or proof within one manifest.
type Handle uint32

// Opcode names an instruction variant.
type Opcode uint8

const (
	OpCallFunction Opcode = iota
	OpCallMethod
	OpTakeFromWorktopByAmount
	OpTakeFromWorktopByIds
	OpCreateProofFromAuthZoneByAmount
	OpCreateProofFromAuthZoneByIds
	OpDropAllProofs
)

var opcodeNames = [...]string{
	OpCallFunction:                    "CALL_FUNCTION",
	OpCallMethod:                      "CALL_METHOD",
	OpTakeFromWorktopByAmount:         "TAKE_FROM_WORKTOP_BY_AMOUNT",
	OpTakeFromWorktopByIds:            "TAKE_FROM_WORKTOP_BY_IDS",
	OpCreateProofFromAuthZoneByAmount: "CREATE_PROOF_FROM_AUTH_ZONE_BY_AMOUNT",
	OpCreateProofFromAuthZoneByIds:    "CREATE_PROOF_FROM_AUTH_ZONE_BY_IDS",
	OpDropAllProofs:                   "DROP_ALL_PROOFS",
}

func (op Opcode) String() string {
	if int(op) < len(opcodeNames) {
		return opcodeNames[op]
	}
	return "OPCODE(" + strconv.Itoa(int(op)) + ")"
}

// ParseOpcode returns the opcode with the given manifest keyword.
func ParseOpcode(s string) (Opcode, bool) {
	for op, name := range opcodeNames {
		if name == s {
			return Opcode(op), true
		}
	}
	return 0, false
}

// Operand is an instruction field holding either literal text or a placeholder.
type Operand struct {
	text        string
	placeholder bool
}

// Literal creates an operand holding fixed text.
func Literal(text string) Operand {
	return Operand{text: text}
}

// Placeholder creates an operand resolved later by binding name.
func Placeholder(name string) Operand {
	return Operand{text: name, placeholder: true}
}

// IsPlaceholder reports whether the operand is a placeholder.
func (o Operand) IsPlaceholder() bool {
	return o.placeholder
}

// Name returns the placeholder name, or the literal text.
func (o Operand) Name() string {
	return o.text
}

// String returns the operand as it appears in manifest text.
func (o Operand) String() string {
	if o.placeholder {
		return placeholder(o.text)
	}
	return o.text
}

// Instruction is one statement of a manifest.
// This is a sealed interface - only types within this package can implement it.
type Instruction interface {
	isInstruction()
	Opcode() Opcode
}

// CallFunction calls a blueprint function of a package.
type CallFunction struct {
	Package   Operand
	Blueprint string
	Function  string
	Args      []string
	Uses      []Handle // buckets and proofs passed in Args
}

// CallMethod calls a method of a component or account.
type CallMethod struct {
	Component Operand
	Method    string
	Args      []string
	Uses      []Handle
}

// TakeFromWorktopByAmount moves an amount of a resource from the worktop into a bucket.
type TakeFromWorktopByAmount struct {
	Amount   Operand
	Resource Operand
	Bucket   Handle
}

// TakeFromWorktopByIds moves the given non-fungibles from the worktop into a bucket.
type TakeFromWorktopByIds struct {
	IDs      Operand
	Resource Operand
	Bucket   Handle
}

// CreateProofFromAuthZoneByAmount creates a named proof of an amount from the auth zone.
type CreateProofFromAuthZoneByAmount struct {
	Amount   Operand
	Resource Operand
	Proof    Handle
}

// CreateProofFromAuthZoneByIds creates a named proof of the given non-fungibles.
type CreateProofFromAuthZoneByIds struct {
	IDs      Operand
	Resource Operand
	Proof    Handle
}

// DropAllProofs drops every proof held by the transaction.
type DropAllProofs struct{}

func (*CallFunction) isInstruction()                    {}
func (*CallMethod) isInstruction()                      {}
func (*TakeFromWorktopByAmount) isInstruction()         {}
func (*TakeFromWorktopByIds) isInstruction()            {}
func (*CreateProofFromAuthZoneByAmount) isInstruction() {}
func (*CreateProofFromAuthZoneByIds) isInstruction()    {}
func (*DropAllProofs) isInstruction()                   {}

func (*CallFunction) Opcode() Opcode            { return OpCallFunction }
func (*CallMethod) Opcode() Opcode              { return OpCallMethod }
func (*TakeFromWorktopByAmount) Opcode() Opcode { return OpTakeFromWorktopByAmount }
func (*TakeFromWorktopByIds) Opcode() Opcode    { return OpTakeFromWorktopByIds }
func (*CreateProofFromAuthZoneByAmount) Opcode() Opcode {
	return OpCreateProofFromAuthZoneByAmount
}
func (*CreateProofFromAuthZoneByIds) Opcode() Opcode { return OpCreateProofFromAuthZoneByIds }
func (*DropAllProofs) Opcode() Opcode                { return OpDropAllProofs }

// produces returns the handle created by inst, if any.
func produces(inst Instruction) (Handle, bool) {
	switch in := inst.(type) {
	case *TakeFromWorktopByAmount:
		return in.Bucket, true
	case *TakeFromWorktopByIds:
		return in.Bucket, true
	case *CreateProofFromAuthZoneByAmount:
		return in.Proof, true
	case *CreateProofFromAuthZoneByIds:
		return in.Proof, true
	default:
		return 0, false
	}
}

// consumes returns the handles referenced by inst.
func consumes(inst Instruction) []Handle {
	switch in := inst.(type) {
	case *CallMethod:
		return in.Uses
	case *CallFunction:
		return in.Uses
	default:
		return nil
	}
}

func bucketLiteral(h Handle) string {
	return `Bucket("` + strconv.FormatUint(uint64(h), 10) + `")`
}

func proofLiteral(h Handle) string {
	return `Proof("` + strconv.FormatUint(uint64(h), 10) + `")`
}

func quoted(s string) string {
	return `"` + s + `"`
}

func wrapped(typeName string, o Operand) string {
	return typeName + `("` + o.String() + `")`
}

func idArray(o Operand) string {
	return "Array<NonFungibleId>(" + o.String() + ")"
}

// Renderer turns instructions into manifest text.
type Renderer struct{}

// NewRenderer creates a new renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Render produces the text block of one instruction: the opcode, then one
// tab-indented operand per line, terminated by a semicolon.
func (r *Renderer) Render(inst Instruction) string {
	var lines []string
	switch in := inst.(type) {
	case *CallFunction:
		lines = append(lines, wrapped("PackageAddress", in.Package), quoted(in.Blueprint), quoted(in.Function))
		lines = append(lines, in.Args...)
	case *CallMethod:
		lines = append(lines, wrapped("ComponentAddress", in.Component), quoted(in.Method))
		lines = append(lines, in.Args...)
	case *TakeFromWorktopByAmount:
		lines = append(lines, wrapped("Decimal", in.Amount), wrapped("ResourceAddress", in.Resource), bucketLiteral(in.Bucket))
	case *TakeFromWorktopByIds:
		lines = append(lines, idArray(in.IDs), wrapped("ResourceAddress", in.Resource), bucketLiteral(in.Bucket))
	case *CreateProofFromAuthZoneByAmount:
		lines = append(lines, wrapped("Decimal", in.Amount), wrapped("ResourceAddress", in.Resource), proofLiteral(in.Proof))
	case *CreateProofFromAuthZoneByIds:
		lines = append(lines, idArray(in.IDs), wrapped("ResourceAddress", in.Resource), proofLiteral(in.Proof))
	}

	var b strings.Builder
	b.WriteString(inst.Opcode().String())
	for _, line := range lines {
		b.WriteString("\n\t")
		b.WriteString(line)
	}
	b.WriteByte(';')
	return b.String()
}

// RenderManifest renders the preamble followed by the body, one block per
// instruction, blocks separated by a blank line.
func (r *Renderer) RenderManifest(preamble, body []Instruction) string {
	blocks := make([]string, 0, len(preamble)+len(body))
	for _, inst := range preamble {
		blocks = append(blocks, r.Render(inst))
	}
	for _, inst := range body {
		blocks = append(blocks, r.Render(inst))
	}
	return strings.Join(blocks, blockSeparator) + "\n"
}

const blockSeparator = "\n\n"

var errEmptyTemplate = errors.New("template is empty")

// ValidateTemplate checks that text has the shape RenderManifest produces:
// non-empty blocks separated by blank lines, each opening with a known
// opcode and ending with a semicolon.
func ValidateTemplate(text string) error {
	body := strings.TrimSuffix(text, "\n")
	if strings.TrimSpace(body) == "" {
		return errEmptyTemplate
	}
	for i, block := range strings.Split(body, blockSeparator) {
		keyword, _, _ := strings.Cut(block, "\n")
		keyword = strings.TrimSuffix(keyword, ";")
		if _, ok := ParseOpcode(keyword); !ok {
			return fmt.Errorf("block %d: unknown instruction %q", i, keyword)
		}
		if !strings.HasSuffix(block, ";") {
			return fmt.Errorf("block %d: missing terminator", i)
		}
	}
	return nil
}
