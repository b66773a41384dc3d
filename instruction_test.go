package rtm

import (
	"strings"
	"testing"
)

// block builds the expected text of one rendered instruction.
func block(keyword string, operands ...string) string {
	var b strings.Builder
	b.WriteString(keyword)
	for _, op := range operands {
		b.WriteString("\n\t")
		b.WriteString(op)
	}
	b.WriteByte(';')
	return b.String()
}

// manifestText joins expected blocks the way RenderManifest does.
func manifestText(blocks ...string) string {
	return strings.Join(blocks, "\n\n") + "\n"
}

func TestOpcode(t *testing.T) {
	t.Run("round trips through its keyword", func(t *testing.T) {
		for op := OpCallFunction; op <= OpDropAllProofs; op++ {
			parsed, ok := ParseOpcode(op.String())
			if !ok || parsed != op {
				t.Errorf("Expected %s to parse back, got %v %v", op, parsed, ok)
			}
		}
	})

	t.Run("unknown keyword", func(t *testing.T) {
		if _, ok := ParseOpcode("PUBLISH_PACKAGE"); ok {
			t.Error("Expected unknown keyword to fail")
		}
		if Opcode(99).String() != "OPCODE(99)" {
			t.Errorf("Expected OPCODE(99), got %s", Opcode(99))
		}
	})
}

func TestOperand(t *testing.T) {
	lit := Literal(`Decimal("1")`)
	if lit.IsPlaceholder() || lit.String() != `Decimal("1")` {
		t.Errorf("Unexpected literal operand %q", lit.String())
	}

	ph := Placeholder("arg_0_amount")
	if !ph.IsPlaceholder() || ph.Name() != "arg_0_amount" {
		t.Errorf("Unexpected placeholder operand %q", ph.Name())
	}
	if ph.String() != "${arg_0_amount}" {
		t.Errorf("Expected ${arg_0_amount}, got %q", ph.String())
	}
}

func TestRender(t *testing.T) {
	r := NewRenderer()

	tests := []struct {
		name string
		inst Instruction
		want string
	}{
		{
			name: "call method",
			inst: &CallMethod{Component: Placeholder("component_address"), Method: "buy", Args: []string{`Bucket("0")`}},
			want: block("CALL_METHOD", `ComponentAddress("${component_address}")`, `"buy"`, `Bucket("0")`),
		},
		{
			name: "call method without arguments",
			inst: &CallMethod{Component: Placeholder("component_address"), Method: "refill"},
			want: block("CALL_METHOD", `ComponentAddress("${component_address}")`, `"refill"`),
		},
		{
			name: "call function",
			inst: &CallFunction{Package: Placeholder("package_address"), Blueprint: "GumballMachine", Function: "instantiate", Args: []string{`Decimal("${arg_0}")`}},
			want: block("CALL_FUNCTION", `PackageAddress("${package_address}")`, `"GumballMachine"`, `"instantiate"`, `Decimal("${arg_0}")`),
		},
		{
			name: "take by amount",
			inst: &TakeFromWorktopByAmount{Amount: Placeholder("a"), Resource: Placeholder("r"), Bucket: 2},
			want: block("TAKE_FROM_WORKTOP_BY_AMOUNT", `Decimal("${a}")`, `ResourceAddress("${r}")`, `Bucket("2")`),
		},
		{
			name: "take by ids",
			inst: &TakeFromWorktopByIds{IDs: Placeholder("i"), Resource: Placeholder("r"), Bucket: 0},
			want: block("TAKE_FROM_WORKTOP_BY_IDS", `Array<NonFungibleId>(${i})`, `ResourceAddress("${r}")`, `Bucket("0")`),
		},
		{
			name: "proof by amount",
			inst: &CreateProofFromAuthZoneByAmount{Amount: Placeholder("a"), Resource: Placeholder("r"), Proof: 1},
			want: block("CREATE_PROOF_FROM_AUTH_ZONE_BY_AMOUNT", `Decimal("${a}")`, `ResourceAddress("${r}")`, `Proof("1")`),
		},
		{
			name: "proof by ids",
			inst: &CreateProofFromAuthZoneByIds{IDs: Placeholder("i"), Resource: Placeholder("r"), Proof: 3},
			want: block("CREATE_PROOF_FROM_AUTH_ZONE_BY_IDS", `Array<NonFungibleId>(${i})`, `ResourceAddress("${r}")`, `Proof("3")`),
		},
		{
			name: "drop all proofs",
			inst: &DropAllProofs{},
			want: "DROP_ALL_PROOFS;",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Render(tt.inst); got != tt.want {
				t.Errorf("Expected:\n%s\ngot:\n%s", tt.want, got)
			}
		})
	}
}

func TestRenderManifest(t *testing.T) {
	r := NewRenderer()
	preamble := []Instruction{
		&CallMethod{Component: Placeholder("fee_payer_address"), Method: "lock_fee", Args: []string{`Decimal("100")`}},
	}
	body := []Instruction{&DropAllProofs{}}

	want := manifestText(
		block("CALL_METHOD", `ComponentAddress("${fee_payer_address}")`, `"lock_fee"`, `Decimal("100")`),
		"DROP_ALL_PROOFS;",
	)
	if got := r.RenderManifest(preamble, body); got != want {
		t.Errorf("Expected:\n%s\ngot:\n%s", want, got)
	}
}

func TestValidateTemplate(t *testing.T) {
	valid := manifestText(
		block("CALL_METHOD", `ComponentAddress("${caller_address}")`, `"deposit_batch"`, `Expression("ENTIRE_WORKTOP")`),
		"DROP_ALL_PROOFS;",
	)

	tests := []struct {
		name    string
		text    string
		wantErr bool
	}{
		{"rendered manifest", valid, false},
		{"without trailing newline", strings.TrimSuffix(valid, "\n"), false},
		{"empty", "", true},
		{"whitespace", "  \n", true},
		{"unknown keyword", "PUBLISH_PACKAGE;\n", true},
		{"missing terminator", "CALL_METHOD\n\t\"x\"\n", true},
		{"garbage", "not a manifest at all", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTemplate(tt.text)
			if tt.wantErr && err == nil {
				t.Error("Expected an error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}
