// Package pipeline drives the per-page reconstruction flow: fetch the
// page's encrypted tiles, derive key material, decrypt, descramble, and
// assemble, then emit finished pages to an archive sink in page order.
//
// The orchestrator owns all concurrency. Tiles of one page and multiple
// pages run in parallel under bounded errgroup limits; a reordering
// buffer holds completed pages until their predecessors are done so the
// sink always observes strictly increasing page indexes.
//
// Failure policy follows the error taxonomy of the core packages:
// transient fetch errors and corrupt tiles are retried a bounded number
// of times, wrong-key and assembly errors fail only their page, and
// derivation or session errors abort the whole run.
package pipeline
