package integration

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"testing"

	rtm "github.com/branched-services/go-rtm"
	"github.com/stretchr/testify/require"
)

// defaultXRD is the native token address of a freshly reset simulator.
const defaultXRD = "resource_sim1qzkcyv5dwq3r6kawy6pxpvcythx8rh8ntum6ws62p95sqjjpwr"

// transferManifest moves ${amount} of ${asset} from the caller to ${recipient}.
const transferManifest = `CALL_METHOD
	ComponentAddress("${fee_payer_address}")
	"lock_fee"
	Decimal("100");

CALL_METHOD
	ComponentAddress("${caller_address}")
	"withdraw_by_amount"
	Decimal("${amount}")
	ResourceAddress("${asset}");

TAKE_FROM_WORKTOP_BY_AMOUNT
	Decimal("${amount}")
	ResourceAddress("${asset}")
	Bucket("transfer");

CALL_METHOD
	ComponentAddress("${recipient}")
	"deposit"
	Bucket("transfer");
`

var (
	accountAddressRE = regexp.MustCompile(`Account component address: (\w*)`)
	privateKeyRE     = regexp.MustCompile(`Private key: (\w*)`)
)

// simulator runs programs with the resim command line tool, switching the
// default account to the signer before each run.
type simulator struct {
	dir     string
	keys    map[string]string // account address -> private key
	current string
}

func (s *simulator) command(ctx context.Context, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, "resim", args...).Output()
	if err != nil && len(out) == 0 {
		return "", fmt.Errorf("resim %s: %w", args[0], err)
	}
	return string(out), nil
}

func (s *simulator) newAccount(ctx context.Context) (string, error) {
	out, err := s.command(ctx, "new-account")
	if err != nil {
		return "", err
	}
	addr := accountAddressRE.FindStringSubmatch(out)
	key := privateKeyRE.FindStringSubmatch(out)
	if addr == nil || key == nil {
		return "", errors.New("no account in resim output")
	}
	s.keys[addr[1]] = key[1]
	if s.current == "" {
		s.current = addr[1]
	}
	return addr[1], nil
}

// Execute implements rtm.Engine.
func (s *simulator) Execute(ctx context.Context, program string, auth rtm.Authorization) (*rtm.Receipt, error) {
	if auth.Account != s.current {
		key, ok := s.keys[auth.Account]
		if !ok {
			return nil, fmt.Errorf("no key for account %s", auth.Account)
		}
		if _, err := s.command(ctx, "set-default-account", auth.Account, key); err != nil {
			return nil, err
		}
		s.current = auth.Account
	}

	path := filepath.Join(s.dir, "program.rtm")
	if err := os.WriteFile(path, []byte(program), 0o644); err != nil {
		return nil, err
	}
	out, err := s.command(ctx, "run", path)
	if err != nil {
		return nil, err
	}
	receipt := rtm.ParseReceipt(out)
	receipt.Program = program
	return receipt, nil
}

func TestTransferBetweenAccounts(t *testing.T) {
	if os.Getenv("INTEGRATION_TEST") != "1" {
		t.Skip("Set INTEGRATION_TEST=1 to run integration tests")
	}
	if _, err := exec.LookPath("resim"); err != nil {
		t.Skip("resim not found in PATH")
	}

	ctx := context.Background()
	sim := &simulator{dir: t.TempDir(), keys: make(map[string]string)}

	_, err := sim.command(ctx, "reset")
	require.NoError(t, err)

	alice, err := sim.newAccount(ctx)
	require.NoError(t, err)
	bob, err := sim.newAccount(ctx)
	require.NoError(t, err)
	t.Logf("Accounts: alice=%s bob=%s", alice, bob)

	xrd := os.Getenv("RESIM_XRD")
	if xrd == "" {
		xrd = defaultXRD
	}

	reg := rtm.NewMemoryRegistry()
	reg.AddAccount("alice", alice)
	reg.AddAccount("bob", bob)
	reg.AddComponent("bob", bob)
	reg.AddComponent("alice", alice)
	reg.AddResource("xrd", xrd, true)

	store, err := rtm.OpenLevelDBStore(filepath.Join(sim.dir, "templates"))
	require.NoError(t, err)
	defer store.Close()

	session := rtm.NewSession(reg, sim,
		rtm.WithCaller("alice"),
		rtm.WithTemplateCache(rtm.NewTemplateCache(store)),
	)
	deposit := rtm.NewMethod("deposit", rtm.FungibleBucket("xrd", "10"))

	t.Run("alice pays bob", func(t *testing.T) {
		receipt, err := session.Call(deposit).OnComponent("bob").Run(ctx)
		require.NoError(t, err)
		require.True(t, receipt.Outcome.IsSuccess())
		require.NotEmpty(t, receipt.Fee)
	})

	t.Run("bob pays alice with the cached template", func(t *testing.T) {
		receipt, err := session.Call(deposit).As("bob").OnComponent("alice").Run(ctx)
		require.NoError(t, err)
		require.True(t, receipt.Outcome.IsSuccess())
	})

	t.Run("hand-written transfer", func(t *testing.T) {
		require.NoError(t, store.Save("transfer", transferManifest))
		receipt, err := session.Manifest("transfer").
			Bind("amount", "5").
			Bind("asset", xrd).
			Bind("recipient", bob).
			Run(ctx)
		require.NoError(t, err)
		require.True(t, receipt.Outcome.IsSuccess())
		require.Contains(t, receipt.Program, bob)
	})

	t.Run("overdraft is rejected", func(t *testing.T) {
		overdraft := rtm.NewMethod("deposit", rtm.FungibleBucket("xrd", "100000000000"))
		receipt, err := session.Call(overdraft).OnComponent("bob").Run(ctx)
		require.ErrorIs(t, err, rtm.ErrEngineRejection)
		require.False(t, receipt.Outcome.IsSuccess())
	})
}
