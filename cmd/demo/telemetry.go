package main

import (
	"github.com/gdub/weighted-paxos/internal/telemetry"
	"github.com/gdub/weighted-paxos/paxos"
	"github.com/gdub/weighted-paxos/paxos/system"
)

// attachTelemetry wires every proposer's weight-adjustment hook and every
// learner's decision hook to pub, so an external observer (cmd/visualizer,
// or any other redis subscriber) sees protocol events as they happen
// (SPEC_FULL.md §6). Must be called before sys.Start.
func attachTelemetry(sys *system.System, pub *telemetry.Publisher) {
	for _, agent := range sys.Agents() {
		agent := agent
		switch agent.Role {
		case paxos.RoleProposer:
			agent.OnWeightsAdjusted = func(weights map[int]float64) {
				pub.PublishWeightsAdjusted(agent.Pid, weights)
			}
		case paxos.RoleLearner:
			agent.OnInstanceDecided = func(instance int64, value any) {
				pub.PublishInstanceDecided(agent.Pid, instance, value)
			}
		}
	}
}
