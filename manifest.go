package rtm

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Manifest is the compilation unit for one call: a preamble that acquires
// resources, and a body holding the call followed by cleanup.
// A Manifest is built once by Compile and not modified afterwards.
type Manifest struct {
	name      string
	preamble  []Instruction
	body      []Instruction
	handles   *handleAllocator
	argCount  int
	hasProofs bool
	config    *compileConfig
}

// Compile schedules target into a manifest. Arguments are processed in
// call-site order; every bucket or proof request gets its acquisition
// instructions in the preamble and the next handle id. Compile cannot fail.
func Compile(target Target, opts ...CompileOption) *Manifest {
	cfg := defaultCompileConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	m := &Manifest{
		name:     target.Name(),
		preamble: make([]Instruction, 0, 8),
		body:     make([]Instruction, 0, 3),
		handles:  newHandleAllocator(),
		config:   cfg,
	}

	m.lockFee()
	if target.RequiresAuthorization() {
		m.createBadgeProof()
	}

	args, uses := m.scheduleArgs(target.Arguments())

	switch t := target.(type) {
	case *MethodTarget:
		m.body = append(m.body, &CallMethod{
			Component: Placeholder(ComponentPlaceholder),
			Method:    t.Method(),
			Args:      args,
			Uses:      uses,
		})
	case *FunctionTarget:
		m.body = append(m.body, &CallFunction{
			Package:   Placeholder(PackagePlaceholder),
			Blueprint: t.Blueprint(),
			Function:  t.Function(),
			Args:      args,
			Uses:      uses,
		})
	}

	if m.hasProofs {
		m.body = append(m.body, &DropAllProofs{})
	}
	m.body = append(m.body, &CallMethod{
		Component: Placeholder(CallerPlaceholder),
		Method:    methodDepositBatch,
		Args:      []string{entireWorktop},
	})

	return m
}

// Name returns the call name the manifest was compiled for.
func (m *Manifest) Name() string {
	return m.name
}

// Preamble returns the resource acquisition instructions.
func (m *Manifest) Preamble() []Instruction {
	out := make([]Instruction, len(m.preamble))
	copy(out, m.preamble)
	return out
}

// Body returns the call and cleanup instructions.
func (m *Manifest) Body() []Instruction {
	out := make([]Instruction, len(m.body))
	copy(out, m.body)
	return out
}

// Instructions returns the preamble followed by the body.
func (m *Manifest) Instructions() []Instruction {
	out := make([]Instruction, 0, len(m.preamble)+len(m.body))
	out = append(out, m.preamble...)
	return append(out, m.body...)
}

// HasProofs reports whether any proof was requested, which adds the
// DROP_ALL_PROOFS cleanup.
func (m *Manifest) HasProofs() bool {
	return m.hasProofs
}

// HandleCount returns the number of bucket and proof handles allocated.
func (m *Manifest) HandleCount() int {
	return m.handles.count()
}

// ArgumentCount returns the number of top-level arguments scheduled.
func (m *Manifest) ArgumentCount() int {
	return m.argCount
}

// String renders the manifest as generic template text.
func (m *Manifest) String() string {
	return NewRenderer().RenderManifest(m.preamble, m.body)
}

// Hash returns the keccak256 hash of the rendered template.
func (m *Manifest) Hash() common.Hash {
	return crypto.Keccak256Hash([]byte(m.String()))
}

// Validate checks the ordering invariants of the manifest: every handle is
// created before it is used, no bucket is used twice, and the cleanup
// instructions follow the call.
func (m *Manifest) Validate() error {
	insts := m.Instructions()
	created := make(map[Handle]bool)
	spent := make(map[Handle]bool)
	callIndex := -1

	for i, inst := range insts {
		if h, ok := produces(inst); ok {
			if created[h] {
				return &OrderError{Index: i, Opcode: inst.Opcode(), Err: ErrHandleOrder}
			}
			created[h] = true
		}
		for _, h := range consumes(inst) {
			if !created[h] {
				return &OrderError{Index: i, Opcode: inst.Opcode(), Err: ErrHandleOrder}
			}
			if kind, _ := m.handles.kind(h); kind == BucketHandle {
				if spent[h] {
					return &OrderError{Index: i, Opcode: inst.Opcode(), Err: ErrHandleOrder}
				}
				spent[h] = true
			}
		}
		if i == len(m.preamble) {
			callIndex = i
		}
		if _, drop := inst.(*DropAllProofs); drop && (callIndex < 0 || i <= callIndex) {
			return &OrderError{Index: i, Opcode: inst.Opcode(), Err: ErrCleanupOrder}
		}
	}

	if callIndex < 0 || len(insts)-1 <= callIndex {
		return &OrderError{Index: len(insts) - 1, Opcode: OpCallMethod, Err: ErrCleanupOrder}
	}
	deposit, ok := insts[len(insts)-1].(*CallMethod)
	if !ok || deposit.Method != methodDepositBatch {
		return &OrderError{Index: len(insts) - 1, Opcode: insts[len(insts)-1].Opcode(), Err: ErrCleanupOrder}
	}
	return nil
}

// scheduleArgs turns the call arguments into manifest argument text,
// emitting acquisition instructions for bucket and proof requests.
func (m *Manifest) scheduleArgs(args []Argument) ([]string, []Handle) {
	out := make([]string, 0, len(args))
	var uses []Handle

	for _, arg := range args {
		name := argName(m.argCount)

		if req, ok := arg.(*ResourceRequest); ok {
			h := m.acquire(req, name)
			uses = append(uses, h)
			if req.Kind().IsProof() {
				out = append(out, proofLiteral(h))
			} else {
				out = append(out, bucketLiteral(h))
			}
		} else {
			out = append(out, arg.Generic(name))
		}

		m.argCount++
	}

	return out, uses
}

// acquire emits the instruction pair that makes req available under a new
// handle: an account call that moves the resource to the worktop or auth
// zone, then the instruction that names it.
func (m *Manifest) acquire(req *ResourceRequest, name string) Handle {
	amount := Placeholder(fieldName(name, fieldAmount))
	ids := Placeholder(fieldName(name, fieldIDs))
	resource := Placeholder(fieldName(name, fieldResource))

	switch req.Kind() {
	case KindFungibleBucket:
		m.callerMethod(methodWithdrawByAmount, wrapped("Decimal", amount), wrapped("ResourceAddress", resource))
		h := m.handles.allocate(BucketHandle)
		m.preamble = append(m.preamble, &TakeFromWorktopByAmount{Amount: amount, Resource: resource, Bucket: h})
		return h

	case KindNonFungibleBucket:
		m.callerMethod(methodWithdrawByIDs, idArray(ids), wrapped("ResourceAddress", resource))
		h := m.handles.allocate(BucketHandle)
		m.preamble = append(m.preamble, &TakeFromWorktopByIds{IDs: ids, Resource: resource, Bucket: h})
		return h

	case KindFungibleProof:
		m.callerMethod(methodCreateProofByAmount, wrapped("Decimal", amount), wrapped("ResourceAddress", resource))
		h := m.handles.allocate(ProofHandle)
		m.preamble = append(m.preamble, &CreateProofFromAuthZoneByAmount{Amount: amount, Resource: resource, Proof: h})
		m.hasProofs = true
		return h

	default:
		m.callerMethod(methodCreateProofByIDs, idArray(ids), wrapped("ResourceAddress", resource))
		h := m.handles.allocate(ProofHandle)
		m.preamble = append(m.preamble, &CreateProofFromAuthZoneByIds{IDs: ids, Resource: resource, Proof: h})
		m.hasProofs = true
		return h
	}
}

func (m *Manifest) callerMethod(method string, args ...string) {
	m.preamble = append(m.preamble, &CallMethod{
		Component: Placeholder(CallerPlaceholder),
		Method:    method,
		Args:      args,
	})
}

// lockFee inserts the fee lock. It targets the fee payer placeholder, which
// binds to the caller unless the call designates another account.
func (m *Manifest) lockFee() {
	m.preamble = append(m.preamble, &CallMethod{
		Component: Placeholder(FeePayerPlaceholder),
		Method:    methodLockFee,
		Args:      []string{`Decimal("` + m.config.feeLock + `")`},
	})
}

// createBadgeProof puts a proof of the admin badge in the auth zone. It
// needs no handle and no explicit drop.
func (m *Manifest) createBadgeProof() {
	m.callerMethod(methodCreateProof, wrapped("ResourceAddress", Placeholder(BadgePlaceholder)))
}
