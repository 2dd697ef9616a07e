// Package actor declares the per-type configuration a virtual actor
// carries: its key type, its Kind (Singleton or Local), whether its
// handlers are reentrant, its placement strategy, and the handler table
// that maps a stable message ID to a callable on the actor.
//
// The original ultramarine runtime (see
// _examples/original_source/include/ultramarine/impl/macro.hpp) builds
// this table with a preprocessor macro expanding to a compile-time
// std::array. Go has no such macro facility; this package replaces it
// with typed Handler values built by NewHandler (usually as package-level
// variables) plus a process-wide wire table filled through RegisterRemote,
// which rpcendpoint.RegisterHandler calls at startup.
package actor
