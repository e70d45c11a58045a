// Package framework contains the low-level infrastructure of the prod-test driver that is shared
// by every pot. The base package holds shared types such as TestPath; other components live in
// subpackages:
//
// 1. logging builds the asynchronous, bounded-queue log pipelines and the per-test tee logger.
//
// 2. envstore is the key-value environment store that carries the run's configuration to the
// infrastructure provisioning code.
//
// 3. farm is the handle for the remote test infrastructure service.
//
// 4. pot is a test scope runner, similar to Go's testing.T, that hands each test its own logger.
package framework
