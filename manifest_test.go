package rtm

import (
	"errors"
	"reflect"
	"testing"
)

func TestCompileFungibleBucket(t *testing.T) {
	m := Compile(NewMethod("buy_gumball", FungibleBucket("usd", "1000")))

	want := manifestText(
		block("CALL_METHOD", `ComponentAddress("${fee_payer_address}")`, `"lock_fee"`, `Decimal("100")`),
		block("CALL_METHOD", `ComponentAddress("${caller_address}")`, `"withdraw_by_amount"`, `Decimal("${arg_0_amount}")`, `ResourceAddress("${arg_0_resource}")`),
		block("TAKE_FROM_WORKTOP_BY_AMOUNT", `Decimal("${arg_0_amount}")`, `ResourceAddress("${arg_0_resource}")`, `Bucket("0")`),
		block("CALL_METHOD", `ComponentAddress("${component_address}")`, `"buy_gumball"`, `Bucket("0")`),
		block("CALL_METHOD", `ComponentAddress("${caller_address}")`, `"deposit_batch"`, `Expression("ENTIRE_WORKTOP")`),
	)
	if got := m.String(); got != want {
		t.Errorf("Expected:\n%s\ngot:\n%s", want, got)
	}

	if m.Name() != "buy_gumball" {
		t.Errorf("Expected name buy_gumball, got %s", m.Name())
	}
	if m.HandleCount() != 1 {
		t.Errorf("Expected 1 handle, got %d", m.HandleCount())
	}
	if m.HasProofs() {
		t.Error("Expected no proofs")
	}
	if err := m.Validate(); err != nil {
		t.Errorf("Unexpected validation error: %v", err)
	}
}

func TestCompileHandleOrder(t *testing.T) {
	m := Compile(NewMethod("swap",
		FungibleProof("usd", "1"),
		U32(5),
		NonFungibleBucket("nft", "a"),
		FungibleBucket("xrd", "2"),
	))

	t.Run("handles follow argument order", func(t *testing.T) {
		call, ok := m.Body()[0].(*CallMethod)
		if !ok {
			t.Fatalf("Expected body to start with CallMethod, got %T", m.Body()[0])
		}
		wantArgs := []string{`Proof("0")`, "${arg_1}u32", `Bucket("1")`, `Bucket("2")`}
		if !reflect.DeepEqual(call.Args, wantArgs) {
			t.Errorf("Expected args %v, got %v", wantArgs, call.Args)
		}
		if !reflect.DeepEqual(call.Uses, []Handle{0, 1, 2}) {
			t.Errorf("Expected uses [0 1 2], got %v", call.Uses)
		}
		if m.HandleCount() != 3 || m.ArgumentCount() != 4 {
			t.Errorf("Expected 3 handles and 4 arguments, got %d and %d", m.HandleCount(), m.ArgumentCount())
		}
	})

	t.Run("preamble pairs acquisition with naming", func(t *testing.T) {
		var got []Opcode
		for _, inst := range m.Preamble() {
			got = append(got, inst.Opcode())
		}
		want := []Opcode{
			OpCallMethod,
			OpCallMethod, OpCreateProofFromAuthZoneByAmount,
			OpCallMethod, OpTakeFromWorktopByIds,
			OpCallMethod, OpTakeFromWorktopByAmount,
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Expected preamble %v, got %v", want, got)
		}

		proof := m.Preamble()[2].(*CreateProofFromAuthZoneByAmount)
		if proof.Proof != 0 || proof.Amount.Name() != "arg_0_amount" {
			t.Errorf("Unexpected proof instruction %+v", proof)
		}
		take := m.Preamble()[4].(*TakeFromWorktopByIds)
		if take.Bucket != 1 || take.IDs.Name() != "arg_2_ids" {
			t.Errorf("Unexpected take instruction %+v", take)
		}
	})

	t.Run("proof request adds cleanup after the call", func(t *testing.T) {
		if !m.HasProofs() {
			t.Fatal("Expected HasProofs to be true")
		}
		body := m.Body()
		if len(body) != 3 {
			t.Fatalf("Expected 3 body instructions, got %d", len(body))
		}
		if _, ok := body[1].(*DropAllProofs); !ok {
			t.Errorf("Expected DROP_ALL_PROOFS after the call, got %s", body[1].Opcode())
		}
		deposit, ok := body[2].(*CallMethod)
		if !ok || deposit.Method != "deposit_batch" {
			t.Errorf("Expected deposit_batch last, got %s", body[2].Opcode())
		}
	})

	t.Run("validates", func(t *testing.T) {
		if err := m.Validate(); err != nil {
			t.Errorf("Unexpected validation error: %v", err)
		}
	})
}

func TestCompileSingleProof(t *testing.T) {
	m := Compile(NewMethod("show", NonFungibleProof("nft", "#1#")))

	insts := m.Instructions()
	tail := insts[len(insts)-3:]
	want := []Opcode{OpCallMethod, OpDropAllProofs, OpCallMethod}
	for i, inst := range tail {
		if inst.Opcode() != want[i] {
			t.Errorf("Expected %s at tail position %d, got %s", want[i], i, inst.Opcode())
		}
	}
	if tail[0].(*CallMethod).Method != "show" {
		t.Errorf("Expected the call before the cleanup, got %q", tail[0].(*CallMethod).Method)
	}
}

func TestCompileWithoutRequests(t *testing.T) {
	m := Compile(NewMethod("get_price"))

	if m.HandleCount() != 0 {
		t.Errorf("Expected no handles, got %d", m.HandleCount())
	}
	if len(m.Preamble()) != 1 {
		t.Errorf("Expected only the fee lock in the preamble, got %d instructions", len(m.Preamble()))
	}
	for _, inst := range m.Body() {
		if inst.Opcode() == OpDropAllProofs {
			t.Error("Expected no DROP_ALL_PROOFS without proof requests")
		}
	}
}

func TestCompileAdminBadge(t *testing.T) {
	m := Compile(NewMethod("withdraw_earnings").WithAdminBadge())

	pre := m.Preamble()
	if len(pre) != 2 {
		t.Fatalf("Expected fee lock and badge proof, got %d instructions", len(pre))
	}
	badge := pre[1].(*CallMethod)
	if badge.Method != "create_proof" || badge.Component.Name() != CallerPlaceholder {
		t.Errorf("Unexpected badge instruction %+v", badge)
	}
	if !reflect.DeepEqual(badge.Args, []string{`ResourceAddress("${badge_address}")`}) {
		t.Errorf("Unexpected badge args %v", badge.Args)
	}
	if m.HasProofs() || m.HandleCount() != 0 {
		t.Error("Expected the badge proof to need no handle and no cleanup")
	}
}

func TestCompileFunction(t *testing.T) {
	m := Compile(NewInstantiation("GumballMachine", Decimal("0.5")))

	if m.Name() != "GumballMachine_instantiate" {
		t.Errorf("Expected name GumballMachine_instantiate, got %s", m.Name())
	}
	call, ok := m.Body()[0].(*CallFunction)
	if !ok {
		t.Fatalf("Expected CallFunction, got %T", m.Body()[0])
	}
	if call.Package.Name() != PackagePlaceholder || call.Blueprint != "GumballMachine" || call.Function != "instantiate" {
		t.Errorf("Unexpected call %+v", call)
	}
	if !reflect.DeepEqual(call.Args, []string{`Decimal("${arg_0}")`}) {
		t.Errorf("Unexpected args %v", call.Args)
	}
}

func TestCompileFeeLock(t *testing.T) {
	m := Compile(NewMethod("noop"), WithFeeLock("10"))
	lock := m.Preamble()[0].(*CallMethod)
	if lock.Component.Name() != FeePayerPlaceholder {
		t.Errorf("Expected fee lock on %s, got %s", FeePayerPlaceholder, lock.Component.Name())
	}
	if !reflect.DeepEqual(lock.Args, []string{`Decimal("10")`}) {
		t.Errorf("Expected Decimal(\"10\"), got %v", lock.Args)
	}
}

func TestCompileDeterminism(t *testing.T) {
	t.Run("same target renders identical text", func(t *testing.T) {
		target := NewMethod("swap", FungibleBucket("usd", "5"), Vector(U8(1), U8(2)))
		a, b := Compile(target), Compile(target)
		if a.String() != b.String() {
			t.Error("Expected identical templates")
		}
		if a.Hash() != b.Hash() {
			t.Error("Expected identical hashes")
		}
	})

	t.Run("template does not depend on values", func(t *testing.T) {
		a := Compile(NewMethod("swap", FungibleBucket("usd", "5"), Vector(U8(1)), Some(String("x"))))
		b := Compile(NewMethod("swap", FungibleBucket("xrd", "700"), Vector(U8(1), U8(2), U8(3)), Some(String("y"))))
		if a.String() != b.String() {
			t.Errorf("Expected value-independent templates:\n%s\nvs\n%s", a, b)
		}
	})
}

func TestManifestValidate(t *testing.T) {
	deposit := &CallMethod{Component: Placeholder(CallerPlaceholder), Method: methodDepositBatch, Args: []string{entireWorktop}}
	call := func(uses ...Handle) *CallMethod {
		return &CallMethod{Component: Placeholder(ComponentPlaceholder), Method: "f", Uses: uses}
	}

	tests := []struct {
		name     string
		handles  []HandleKind
		preamble []Instruction
		body     []Instruction
		index    int
		want     error
	}{
		{
			name:     "handle used before creation",
			handles:  []HandleKind{BucketHandle},
			preamble: []Instruction{call(0)},
			body:     []Instruction{call(), deposit},
			index:    0,
			want:     ErrHandleOrder,
		},
		{
			name:     "bucket used twice",
			handles:  []HandleKind{BucketHandle},
			preamble: []Instruction{&TakeFromWorktopByAmount{Bucket: 0}},
			body:     []Instruction{call(0), call(0), deposit},
			index:    2,
			want:     ErrHandleOrder,
		},
		{
			name:     "drop before the call",
			preamble: []Instruction{&DropAllProofs{}},
			body:     []Instruction{call(), deposit},
			index:    0,
			want:     ErrCleanupOrder,
		},
		{
			name:  "deposit missing",
			body:  []Instruction{call(), &DropAllProofs{}},
			index: 1,
			want:  ErrCleanupOrder,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alloc := newHandleAllocator()
			for _, kind := range tt.handles {
				alloc.allocate(kind)
			}
			m := &Manifest{preamble: tt.preamble, body: tt.body, handles: alloc, config: defaultCompileConfig()}

			err := m.Validate()
			if !errors.Is(err, tt.want) {
				t.Fatalf("Expected %v, got %v", tt.want, err)
			}
			var orderErr *OrderError
			if !errors.As(err, &orderErr) {
				t.Fatalf("Expected *OrderError, got %T", err)
			}
			if orderErr.Index != tt.index {
				t.Errorf("Expected index %d, got %d", tt.index, orderErr.Index)
			}
		})
	}

	t.Run("proofs may be used more than once", func(t *testing.T) {
		alloc := newHandleAllocator()
		alloc.allocate(ProofHandle)
		m := &Manifest{
			preamble: []Instruction{&CreateProofFromAuthZoneByAmount{Proof: 0}},
			body:     []Instruction{call(0), call(0), &DropAllProofs{}, deposit},
			handles:  alloc,
		}
		if err := m.Validate(); err != nil {
			t.Errorf("Unexpected error: %v", err)
		}
	})
}

func TestHandleAllocator(t *testing.T) {
	a := newHandleAllocator()
	if h := a.allocate(BucketHandle); h != 0 {
		t.Errorf("Expected handle 0, got %d", h)
	}
	if h := a.allocate(ProofHandle); h != 1 {
		t.Errorf("Expected handle 1, got %d", h)
	}
	if kind, ok := a.kind(1); !ok || kind != ProofHandle {
		t.Errorf("Expected handle 1 to be a proof, got %s", kind)
	}
	if _, ok := a.kind(2); ok {
		t.Error("Expected unallocated handle to be unknown")
	}
	if a.count() != 2 {
		t.Errorf("Expected count 2, got %d", a.count())
	}
}
