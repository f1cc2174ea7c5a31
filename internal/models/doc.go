// Package models defines the core domain models for Splitledger.
//
// # Records
//
// The ledger persists two collections in a single document:
//   - User: a registered participant, identified by a positive integer ID
//   - Expense: an append-only record of money paid by one user on behalf of the group
//
// Each Expense carries the Shares produced by the split calculator. Balances
// are never stored; they are derived from the expense collection on demand.
//
// # Design Principles
//
// 1. **Values, not references**: records are copied out of the store; nothing
// holds a live pointer into persisted state between operations
// 2. **Decimal money**: amounts use shopspring/decimal, rounded to cents at the
// calculator boundary
// 3. **Stable wire names**: JSON field names match the original store.json
// layout; dates are RFC 3339 in UTC, so naive timestamps from older files do
// not decode
// 4. **Typed failures**: validation problems are ValidationError values with a
// Kind and structured fields; callers format their own messages
package models
