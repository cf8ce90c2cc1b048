// Package propforge is the orchestration core of a multi-agent research
// proposal generation system: a dependency-aware, parallel task scheduler
// that drives a fixed DAG of specialized agents from a topic to an
// assembled Proposal.
//
// # Architecture
//
// A job starts at the Job Facade (package job), which builds the
// canonical eleven-node task graph (package taskgraph) from a
// model.ProposalRequest and hands it to the Scheduler (package
// orchestrator). The Scheduler walks the graph under bounded parallelism,
// dispatching ready tasks to the Agent Registry (package agent), which
// resolves a model.TaskKind to a concrete worker. Workers (package agents)
// call the LLM Gateway (package llmgateway) for prose generation and, for
// the literature task, fan out to academic Source Connectors (package
// sources). Every task's output is persisted to the State Store (package
// statestore) under job-scoped keys, and on completion the Result
// Assembler (package assembler) reshapes the full output set into the
// final model.Proposal.
//
// # Package layout
//
//   - model        — shared data types: TaskKind, TaskGraph, ProposalRequest,
//     AgentInput/Output, Paper, Section, Reference, Proposal.
//   - taskgraph    — builds and validates the canonical task DAG.
//   - agent        — the Agent contract and write-once Registry.
//   - agents       — the eleven concrete agent implementations.
//   - orchestrator — the bounded-parallelism Scheduler and its retry policy.
//   - llmgateway   — the single choke point for LLM calls (mock + OpenAI
//     backends).
//   - sources      — academic database connectors (arXiv, Semantic Scholar,
//     Crossref, a generic web fallback).
//   - statestore   — the keyed blob store contract, with in-memory and
//     Redis backends.
//   - assembler    — reshapes completed outputs into a Proposal.
//   - job          — the Job Facade: Submit (sync) and Start/Status (async).
//   - httpapi      — the thin JSON-over-HTTP facade.
//   - config       — .env and environment-variable configuration loading.
//   - log          — the leveled logging interface shared across packages.
//
// cmd/propforge is the CLI entrypoint.
package propforge
