// Package lendscope computes the risk and profitability KPIs of a commercial
// lending portfolio from its raw records: loan master data, payment
// schedules, and payment history.
//
// The core functionalities include:
//   - Delinquency: per-loan days-past-due derived from the schedule versus
//     actual payments, aged into policy-configured buckets, with NPL and
//     default flags.
//   - Pricing: half-open two-dimensional (tenor, amount) band lookup against
//     a validated pricing grid.
//   - Aggregation: portfolio-level outstanding, balance-weighted APR, tenor
//     mix, and customer concentration, built from order-independent partial
//     reductions.
//   - Client lifecycle: new / recurring / recovered / churned classification
//     of each customer over reporting windows, recomputed from full history.
//   - Data Persistence: encoding and decoding of record sets, policies, and
//     reports to and from human-readable JSONL and CSV formats.
//
// The engine is batch oriented and stateless: every run consumes an
// immutable snapshot of the record sets plus a reference date and produces
// one immutable PortfolioReport. This package serves as the foundational
// logic for the `lsc` command-line tool.
package lendscope
