// Package merge composes two IR fragments.
//
// A Merger moves every definition of a source fragment into a target
// fragment. Immutable initialized globals whose value already exists in the
// target are not moved; their uses are redirected to the existing global.
// Every other definition keeps its name when free, takes a caller-requested
// name, or is disambiguated as name$1, name$2, ...
//
// The merge runs in three stages:
//
//  1. plan: decide alias targets and final names for every definition
//     against a scratch view of the target symbol table. Rename conflicts
//     fail here, before either fragment is touched.
//  2. apply: detach each definition from the source and attach it to the
//     target under its final name, in the order globals, initializers,
//     functions. Aliased globals are dropped.
//  3. rewrite: after every name is known, remap symbol references inside
//     each moved initializer and function in a single pass.
//
// The alias index is built once from the target as it was before the call;
// globals imported by the same call never become alias targets.
package merge
