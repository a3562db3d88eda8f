// Package cli provides the interactive careerkit command-line client.
//
// It wires configuration, shared local storage, the session store, the
// authorizing gateway, the credit ledger and one workflow per document kind,
// then runs a REPL on top of them. Typical flow: paste an ID token to sign
// in, pick a document with "view", "generate" it, "refine" it with plain
// language instructions and "print" it to an HTML file.
//
// Every client process pointed at the same storage file shares the session:
// signing out in one of them signs out all of them.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
