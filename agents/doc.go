// Package agents provides a reference implementation of the eleven
// model.TaskKind workers (spec.md §1, SPEC_FULL.md §4 "Agents"). They are
// external-collaborator logic, not part of the orchestration core proper,
// but are included so the Scheduler can be exercised end-to-end against the
// llmgateway mock backend without a real LLM provider.
//
// Every agent calls only the llmgateway.Gateway and, for literature, the
// sources package — never a peer agent, per agent.Agent's contract. Each is
// grounded on its corresponding module under
// _examples/original_source/src/agents/, reworked from the original
// Python's prompt-and-parse style into Go's typed AgentOutput.Fields.
package agents
