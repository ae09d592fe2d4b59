// Package ir is the program representation the merger operates on.
//
// A Fragment is an ordered list of top-level definitions (globals,
// initializers, functions) plus a symbol table over their names. Function
// and initializer bodies are regions of blocks of ops; ops may nest further
// regions. References between definitions are AttrSymbol attributes and are
// resolved purely by name, so renaming a definition requires rewriting its
// uses with RemapSymbolUses.
//
// Definitions move between fragments with Detach and Append. A detached
// definition is unowned; attaching it to a fragment transfers ownership, and
// attaching an owned definition fails.
//
// Verify is the structural checker run after every mutation that matters;
// Dump renders the MLIR-flavoured text form used by the CLI.
package ir
