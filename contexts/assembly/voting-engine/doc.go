// Package votingengine implements ballot admission for assembly voting
// sessions.
//
// The module owns sessions, agenda items and the one-ballot-per-participant
// rule. Accepted ballots are persisted together with a ballot.accepted fact in
// an outbox; a relay publishes the facts and a replay consumer re-applies them
// idempotently. Tallies are derived on read from stored ballot counts.
package votingengine
