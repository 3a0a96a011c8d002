// Package electionledger implements the election ledger inside the
// election-core context.
//
// The module owns the election state machine: one owner per election,
// candidate and voter registration during the configuration phase, the
// monotonic NotStarted -> InProgress -> Ended lifecycle, and exactly-once
// ballot recording with outbox-backed Voted event emission. Business rules
// live in the domain/application layers; infrastructure stays behind ports
// and adapters.
package electionledger
