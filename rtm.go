// Package rtm compiles ledger calls into transaction manifests (.rtm files)
// for a Radix-style transaction engine.
//
// A manifest wraps one method or function call with the bookkeeping the
// ledger requires: a fee lock, withdrawals that move resources onto the
// worktop, named buckets and proofs passed as arguments, and a final sweep
// that deposits everything left back into the caller's account. This
// package generates that wrapping from a typed description of the call.
//
// # Basic Usage
//
// Describe the call, then run it through a session:
//
//	reg := rtm.NewMemoryRegistry()
//	reg.AddAccount("default", "account_sim1...")
//	reg.AddComponent("machine", "component_sim1...")
//	reg.AddResource("xrd", "resource_sim1...", true)
//
//	session := rtm.NewSession(reg, engine, rtm.WithCaller("default"))
//
//	buy := rtm.NewMethod("buy_gumball", rtm.FungibleBucket("xrd", "10"))
//	receipt, err := session.Call(buy).OnComponent("machine").Run(ctx)
//
// # Templates and Bindings
//
// Compilation is split in two. Compile produces a generic template in which
// every address, amount and literal is a ${name} placeholder; the template
// depends only on the shape of the call, so it is generated once per call
// name and cached. Resolve then computes the bindings for one invocation
// from a Registry, and Substitute fills them in.
//
// Placeholders are named after argument positions: arg_0, arg_1, and so on.
// Bucket and proof requests use arg_N_amount or arg_N_ids alongside
// arg_N_resource, and tuple elements use arg_N_0, arg_N_1. The context
// placeholders are caller_address, fee_payer_address, component_address,
// package_address and badge_address.
//
// # Handles
//
// Buckets and proofs are numbered from zero in argument order. Handle ids
// are never reused within a manifest. A manifest that requested any proof
// drops all proofs after the call.
//
// # Template Stores
//
// TemplateCache keeps recently used templates in memory in front of a
// TemplateStore. DirStore writes one .rtm file per call name, DBStore keeps
// digest-checked records in a key-value database, and MemoryStore is meant
// for tests.
//
// # Custom Manifests
//
// A hand-written template kept in the store, such as rtm/transfer.rtm, runs
// with explicit bindings. caller_address and fee_payer_address default to
// the caller:
//
//	receipt, err := session.Manifest("transfer").
//		Bind("amount", "5").
//		Bind("recipient", "account_sim1...").
//		Run(ctx)
package rtm
